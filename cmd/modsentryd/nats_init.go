// ModSentry - Behavioral Moderation and Trust Engine for Chat Platforms
// Copyright 2026 ModSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modsentry/modsentry

//go:build nats

package main

import (
	"context"
	"fmt"
	"time"

	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/modsentry/modsentry/internal/config"
	"github.com/modsentry/modsentry/internal/ingest"
	"github.com/modsentry/modsentry/internal/logging"
	"github.com/modsentry/modsentry/internal/moderation"
	"github.com/modsentry/modsentry/internal/supervisor"
)

// NATSComponents holds the JetStream ingest components for lifecycle
// management. Nil when NATS is disabled.
type NATSComponents struct {
	server   *ingest.EmbeddedServer
	natsConn *natsgo.Conn
	consumer *ingest.Consumer
}

// InitNATS initializes the JetStream ingest path when NATS_ENABLED=true.
// Returns nil, nil when disabled.
func InitNATS(cfg *config.Config, engine *moderation.Engine) (*NATSComponents, error) {
	if !cfg.NATS.Enabled {
		logging.Info().Msg("NATS ingest disabled (NATS_ENABLED=false)")
		return nil, nil
	}

	logging.Info().Msg("Initializing JetStream ingest...")

	components := &NATSComponents{}

	var natsURL string

	// Step 1: embedded NATS server if enabled
	if cfg.NATS.EmbeddedServer {
		server, err := ingest.NewEmbeddedServer(ingest.DefaultServerConfig(cfg.NATS.StoreDir))
		if err != nil {
			return nil, fmt.Errorf("start embedded NATS server: %w", err)
		}
		components.server = server
		natsURL = server.ClientURL()
		logging.Info().Str("url", natsURL).Msg("Embedded NATS server started")
	} else {
		natsURL = cfg.NATS.URL
		logging.Info().Str("url", natsURL).Msg("Using external NATS server")
	}

	// Step 2: connect and ensure the chat stream exists
	nc, err := natsgo.Connect(natsURL,
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2*time.Second),
	)
	if err != nil {
		components.Shutdown(context.Background())
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	components.natsConn = nc
	logging.Info().Msg("NATS connection established")

	js, err := jetstream.New(nc)
	if err != nil {
		components.Shutdown(context.Background())
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	initializer, err := ingest.NewStreamInitializer(js,
		ingest.DefaultStreamConfig(cfg.NATS.StreamName, cfg.NATS.Subject))
	if err != nil {
		components.Shutdown(context.Background())
		return nil, fmt.Errorf("create stream initializer: %w", err)
	}

	stream, err := initializer.EnsureStream(context.Background())
	if err != nil {
		components.Shutdown(context.Background())
		return nil, fmt.Errorf("ensure stream exists: %w", err)
	}
	streamInfo := stream.CachedInfo()
	logging.Info().
		Str("name", streamInfo.Config.Name).
		Strs("subjects", streamInfo.Config.Subjects).
		Dur("max_age", streamInfo.Config.MaxAge).
		Msg("JetStream stream ready")

	// Step 3: consumer delivering messages into the moderation engine
	consumerCfg := ingest.DefaultConfig(natsURL)
	consumerCfg.StreamName = cfg.NATS.StreamName
	consumerCfg.Subject = cfg.NATS.Subject
	consumerCfg.DurableName = cfg.NATS.DurableName
	consumerCfg.QueueGroup = cfg.NATS.QueueGroup
	consumerCfg.SubscribersCount = cfg.NATS.SubscribersCount
	consumerCfg.MaxDeliver = cfg.NATS.MaxDeliver
	consumerCfg.AckWaitTimeout = cfg.NATS.AckWaitTimeout
	consumerCfg.RetryCount = cfg.NATS.RetryCount
	consumerCfg.RetryInterval = cfg.NATS.RetryInterval
	consumerCfg.CloseTimeout = cfg.NATS.CloseTimeout

	consumer, err := ingest.NewConsumer(consumerCfg, engine)
	if err != nil {
		components.Shutdown(context.Background())
		return nil, fmt.Errorf("create ingest consumer: %w", err)
	}
	components.consumer = consumer
	logging.Info().
		Int("subscribers", consumerCfg.SubscribersCount).
		Str("subject", consumerCfg.Subject).
		Msg("Ingest consumer created")

	return components, nil
}

// AddNATSToSupervisor registers the ingest consumer with the moderation
// layer of the supervisor tree. No-op when NATS is disabled.
func AddNATSToSupervisor(tree *supervisor.Tree, c *NATSComponents) {
	if c == nil || c.consumer == nil {
		return
	}
	tree.AddModerationService(&supervisor.RunnerService{Name: "ingest-consumer", Runner: c.consumer})
	logging.Info().Msg("Ingest consumer added to supervisor tree")
}

// Shutdown stops the ingest components in reverse dependency order:
// consumer, connection, embedded server. Safe on a nil receiver and
// safe to call on a partially initialized set.
func (c *NATSComponents) Shutdown(ctx context.Context) {
	if c == nil {
		return
	}
	if c.consumer != nil {
		if err := c.consumer.Close(); err != nil {
			logging.Warn().Err(err).Msg("Error closing ingest consumer")
		}
		c.consumer = nil
	}
	if c.natsConn != nil {
		c.natsConn.Close()
		c.natsConn = nil
	}
	if c.server != nil {
		if err := c.server.Shutdown(ctx); err != nil {
			logging.Warn().Err(err).Msg("Error shutting down embedded NATS server")
		}
		c.server = nil
	}
}
