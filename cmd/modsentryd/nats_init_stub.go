// ModSentry - Behavioral Moderation and Trust Engine for Chat Platforms
// Copyright 2026 ModSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modsentry/modsentry

//go:build !nats

package main

import (
	"context"

	"github.com/modsentry/modsentry/internal/config"
	"github.com/modsentry/modsentry/internal/logging"
	"github.com/modsentry/modsentry/internal/moderation"
	"github.com/modsentry/modsentry/internal/supervisor"
)

// NATSComponents is a stub for non-NATS builds.
type NATSComponents struct{}

// InitNATS is a no-op stub for non-NATS builds.
func InitNATS(cfg *config.Config, _ *moderation.Engine) (*NATSComponents, error) {
	if cfg.NATS.Enabled {
		logging.Warn().Msg("NATS_ENABLED=true but NATS support not compiled (build with -tags nats)")
	}
	return nil, nil
}

// AddNATSToSupervisor is a no-op stub for non-NATS builds.
func AddNATSToSupervisor(_ *supervisor.Tree, _ *NATSComponents) {}

// Shutdown is a no-op stub for non-NATS builds.
func (c *NATSComponents) Shutdown(_ context.Context) {}
