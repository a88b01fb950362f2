// ModSentry - Behavioral Moderation and Trust Engine for Chat Platforms
// Copyright 2026 ModSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modsentry/modsentry

// Package api serves the admin and ops HTTP surface: profile inspection,
// audit queries, pattern-library info, health probes, Prometheus metrics,
// and the real-time operator websocket feed.
//
// Routing uses chi with go-chi/cors and go-chi/httprate middleware. All
// data endpoints require an HS256 bearer token; health and metrics stay
// unauthenticated for probes and scrapers.
package api
