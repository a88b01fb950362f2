// ModSentry - Behavioral Moderation and Trust Engine for Chat Platforms
// Copyright 2026 ModSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modsentry/modsentry

// Package ingest consumes chat messages from a NATS JetStream subject and
// feeds them to the moderation engine.
//
// The consumer is durable: messages are acked only after the moderation
// engine has issued a decision, so an instance crash mid-message results in
// redelivery rather than a silent gap in the moderation record. Malformed
// payloads are acked immediately because redelivery cannot fix them.
//
// The full consumer requires the nats build tag. Without it the package
// compiles to stubs whose constructors return an error, keeping the NATS
// and Watermill dependency trees out of minimal builds.
package ingest
