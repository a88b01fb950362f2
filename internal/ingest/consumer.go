// ModSentry - Behavioral Moderation and Trust Engine for Chat Platforms
// Copyright 2026 ModSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modsentry/modsentry

//go:build nats

package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"

	"github.com/modsentry/modsentry/internal/detection"
	"github.com/modsentry/modsentry/internal/logging"
	"github.com/modsentry/modsentry/internal/metrics"
	"github.com/modsentry/modsentry/internal/moderation"
)

// Moderator is the subset of the moderation engine the consumer needs.
type Moderator interface {
	Process(ctx context.Context, msg *detection.ChatMessage) (*moderation.Outcome, error)
}

// Consumer pulls chat messages from JetStream and runs them through the
// moderation engine. Acks are synchronous and issued only after a decision,
// so a crash mid-message causes redelivery instead of a lost decision.
type Consumer struct {
	cfg        Config
	moderator  Moderator
	subscriber message.Subscriber
	logger     watermill.LoggerAdapter
	seen       *dedupeIndex
}

// NewConsumer creates a durable queue-group subscriber for cfg.Subject.
func NewConsumer(cfg Config, moderator Moderator) (*Consumer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if moderator == nil {
		return nil, errors.New("ingest: moderator required")
	}

	logger := watermill.NewStdLogger(false, false)

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(nc *natsgo.Conn, err error) {
			if err != nil {
				logging.Error().Err(err).Msg("Ingest subscriber disconnected")
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logging.Info().Str("url", nc.ConnectedUrl()).Msg("Ingest subscriber reconnected")
		}),
	}

	subOpts := []natsgo.SubOpt{
		natsgo.MaxDeliver(cfg.MaxDeliver),
		natsgo.MaxAckPending(cfg.MaxAckPending),
		natsgo.AckWait(cfg.AckWaitTimeout),
		// New messages only. Historical chat should not retroactively
		// punish users on first boot.
		natsgo.DeliverNew(),
	}

	// Wildcard subjects need an explicit stream binding: AutoProvision
	// would try to create a stream named after the wildcard topic.
	autoProvision := true
	if cfg.StreamName != "" {
		subOpts = append(subOpts, natsgo.BindStream(cfg.StreamName))
		autoProvision = false
	}

	wmConfig := wmNats.SubscriberConfig{
		URL:              cfg.URL,
		QueueGroupPrefix: cfg.QueueGroup,
		SubscribersCount: cfg.SubscribersCount,
		AckWaitTimeout:   cfg.AckWaitTimeout,
		CloseTimeout:     cfg.CloseTimeout,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:         false,
			AutoProvision:    autoProvision,
			AckAsync:         false,
			SubscribeOptions: subOpts,
			DurablePrefix:    cfg.DurableName,
		},
	}

	sub, err := wmNats.NewSubscriber(wmConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("ingest: create subscriber: %w", err)
	}

	return &Consumer{
		cfg:        cfg,
		moderator:  moderator,
		subscriber: sub,
		logger:     logger,
		seen:       newDedupeIndex(cfg.DeduplicationWindow, cfg.MaxDeduplicationEntries),
	}, nil
}

// RunWithContext consumes until the context is canceled. It satisfies the
// supervisor.ContextRunner interface so the consumer can live in the
// supervision tree.
func (c *Consumer) RunWithContext(ctx context.Context) error {
	messages, err := c.subscriber.Subscribe(ctx, c.cfg.Subject)
	if err != nil {
		return fmt.Errorf("ingest: subscribe to %s: %w", c.cfg.Subject, err)
	}

	logging.Info().
		Str("subject", c.cfg.Subject).
		Str("durable", c.cfg.DurableName).
		Str("queue_group", c.cfg.QueueGroup).
		Int("subscribers", c.cfg.SubscribersCount).
		Msg("Chat ingest started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			c.handleMessage(ctx, msg)
		}
	}
}

// handleMessage decides the ack fate of one delivery.
//
// Malformed payloads are acked: redelivery cannot repair them and nacking
// would poison the queue group. Moderation failures are retried in-process
// RetryCount times, then nacked so JetStream redelivers up to MaxDeliver.
// A shutting-down engine nacks immediately so another instance picks the
// message up.
func (c *Consumer) handleMessage(ctx context.Context, msg *message.Message) {
	chat, err := DecodeMessage(msg.Payload)
	if err != nil {
		metrics.IngestMessages.WithLabelValues("malformed").Inc()
		logging.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("Dropping malformed chat message")
		msg.Ack()
		return
	}

	// Redelivery of an already-decided message (e.g. lost ack) must not
	// punish the user a second time.
	if c.seen.Seen(chat.ID, time.Now()) {
		metrics.IngestMessages.WithLabelValues("duplicate").Inc()
		msg.Ack()
		return
	}

	if err := c.processWithRetry(ctx, chat); err != nil {
		metrics.IngestMessages.WithLabelValues("failed").Inc()
		logging.Error().Err(err).
			Str("message_uuid", msg.UUID).
			Str("user_id", chat.UserID).
			Msg("Moderation failed, returning message for redelivery")
		msg.Nack()
		return
	}

	c.seen.Record(chat.ID, time.Now())
	metrics.IngestMessages.WithLabelValues("processed").Inc()
	msg.Ack()
}

func (c *Consumer) processWithRetry(ctx context.Context, chat *detection.ChatMessage) error {
	var err error
	for attempt := 0; attempt <= c.cfg.RetryCount; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.cfg.RetryInterval):
			}
		}

		_, err = c.moderator.Process(ctx, chat)
		if err == nil {
			return nil
		}
		if errors.Is(err, moderation.ErrShuttingDown) || errors.Is(err, context.Canceled) {
			return err
		}
	}
	return err
}

// Close shuts the subscriber down, waiting up to CloseTimeout for in-flight
// messages to settle.
func (c *Consumer) Close() error {
	return c.subscriber.Close()
}
