// ModSentry - Behavioral Moderation and Trust Engine for Chat Platforms
// Copyright 2026 ModSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modsentry/modsentry

package ingest

import (
	"errors"
	"time"
)

// Config holds the JetStream consumer settings.
type Config struct {
	// URL is the NATS server address, e.g. nats://127.0.0.1:4222.
	URL string

	// StreamName binds the consumer to an existing stream. Required when
	// Subject contains wildcards: stream names cannot contain wildcards,
	// so auto-provisioning from a wildcard subject would fail.
	StreamName string

	// Subject is the topic to consume, e.g. chat.message.>.
	Subject string

	// DurableName identifies the JetStream consumer so redeliveries
	// survive restarts.
	DurableName string

	// QueueGroup load-balances delivery across instances.
	QueueGroup string

	// SubscribersCount is the number of concurrent subscriber goroutines.
	// Ordering per user is enforced downstream by the moderation engine,
	// so parallel consumption here is safe.
	SubscribersCount int

	// MaxDeliver caps redelivery attempts before JetStream gives up.
	MaxDeliver int

	// MaxAckPending bounds unacked in-flight messages.
	MaxAckPending int

	// AckWaitTimeout is how long JetStream waits for an ack before
	// redelivering.
	AckWaitTimeout time.Duration

	// RetryCount and RetryInterval govern in-process retries of the
	// moderation call before a message is nacked back to JetStream.
	RetryCount    int
	RetryInterval time.Duration

	// CloseTimeout bounds subscriber shutdown.
	CloseTimeout time.Duration

	// DeduplicationWindow suppresses redeliveries of already-decided
	// message IDs. A lost ack must not punish the user twice.
	DeduplicationWindow time.Duration

	// MaxDeduplicationEntries bounds the dedup index.
	MaxDeduplicationEntries int

	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultConfig returns production settings for the given server URL.
func DefaultConfig(url string) Config {
	return Config{
		URL:              url,
		StreamName:       "CHAT",
		Subject:          "chat.message.>",
		DurableName:      "modsentry",
		QueueGroup:       "moderators",
		SubscribersCount: 4,
		MaxDeliver:       3,
		MaxAckPending:    512,
		AckWaitTimeout:   30 * time.Second,
		RetryCount:       3,
		RetryInterval:    100 * time.Millisecond,
		CloseTimeout:     30 * time.Second,
		MaxReconnects:    -1,
		ReconnectWait:    2 * time.Second,

		DeduplicationWindow:     10 * time.Minute,
		MaxDeduplicationEntries: 10000,
	}
}

// ServerConfig holds embedded NATS server settings.
type ServerConfig struct {
	Host              string
	Port              int
	StoreDir          string
	JetStreamMaxMem   int64
	JetStreamMaxStore int64
}

// DefaultServerConfig returns loopback-only settings for single-instance
// deployments.
func DefaultServerConfig(storeDir string) ServerConfig {
	return ServerConfig{
		Host:              "127.0.0.1",
		Port:              4222,
		StoreDir:          storeDir,
		JetStreamMaxMem:   256 * 1024 * 1024,
		JetStreamMaxStore: 4 * 1024 * 1024 * 1024,
	}
}

// Validate checks for settings that would make the consumer misbehave
// silently rather than fail fast.
func (c *Config) Validate() error {
	if c.URL == "" {
		return errors.New("ingest: NATS URL required")
	}
	if c.Subject == "" {
		return errors.New("ingest: subject required")
	}
	if c.DurableName == "" {
		return errors.New("ingest: durable name required")
	}
	if c.SubscribersCount < 1 {
		return errors.New("ingest: subscribers count must be at least 1")
	}
	if c.MaxDeliver < 1 {
		return errors.New("ingest: max deliver must be at least 1")
	}
	if c.AckWaitTimeout <= 0 {
		return errors.New("ingest: ack wait timeout must be positive")
	}
	return nil
}
