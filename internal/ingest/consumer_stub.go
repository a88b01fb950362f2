// ModSentry - Behavioral Moderation and Trust Engine for Chat Platforms
// Copyright 2026 ModSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modsentry/modsentry

//go:build !nats

package ingest

import (
	"context"
	"fmt"
)

// Consumer is a stub when NATS dependencies are not available.
// Build with -tags=nats to enable JetStream chat ingest.
type Consumer struct{}

// NewConsumer returns an error when NATS dependencies are not available.
// Build with -tags=nats to enable JetStream chat ingest.
func NewConsumer(cfg Config, moderator interface{}) (*Consumer, error) {
	return nil, fmt.Errorf("NATS ingest not available: build with -tags=nats")
}

// RunWithContext is a stub that returns an error.
func (c *Consumer) RunWithContext(ctx context.Context) error {
	return fmt.Errorf("NATS ingest not available: build with -tags=nats")
}

// Close is a no-op stub.
func (c *Consumer) Close() error {
	return nil
}

// EmbeddedServer is a stub when NATS dependencies are not available.
type EmbeddedServer struct{}

// NewEmbeddedServer returns an error when NATS dependencies are not available.
func NewEmbeddedServer(cfg ServerConfig) (*EmbeddedServer, error) {
	return nil, fmt.Errorf("NATS ingest not available: build with -tags=nats")
}

// ClientURL is a stub that returns an empty URL.
func (s *EmbeddedServer) ClientURL() string {
	return ""
}

// Shutdown is a no-op stub.
func (s *EmbeddedServer) Shutdown(ctx context.Context) error {
	return nil
}
