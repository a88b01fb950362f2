// ModSentry - Behavioral Moderation and Trust Engine for Chat Platforms
// Copyright 2026 ModSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modsentry/modsentry

// Package main is the entry point for the ModSentry daemon.
//
// ModSentry watches chat traffic for behavioral violations (spam, raids,
// toxicity, phishing) and applies escalating punishments backed by a
// per-user trust score. Messages arrive over NATS JetStream; decisions
// go out through a platform webhook and are mirrored to operator
// WebSocket clients and a persistent audit trail.
//
// # Application Architecture
//
// The daemon initializes components in the following order:
//
//  1. Configuration: layered defaults, YAML file, environment (Koanf v2)
//  2. Profile store: BadgerDB with an in-process cache (or memory)
//  3. Audit trail: DuckDB-backed store with async buffered writer
//  4. Pattern library: toxicity/phishing/distress rules compiled once
//  5. Detection pipeline, trust engine, escalation engine
//  6. Action executor: platform webhook client
//  7. WebSocket hub: real-time decision feed for operators
//  8. Moderation engine: sharded per-user workers, plus periodic sweep
//  9. NATS (optional): JetStream ingest consumer, requires -tags nats
// 10. HTTP server: admin/ops API with JWT auth
//
// Everything long-running sits under a suture supervisor tree so a
// crashing layer restarts in isolation.
//
// # Build Tags
//
//	go build ./cmd/modsentryd              # HTTP ingest only
//	go build -tags nats ./cmd/modsentryd   # Enable JetStream ingest
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the ingest consumer
// stops pulling, in-flight decisions drain, the HTTP server completes
// open requests (10s timeout), then stores flush and close.
//
// # Example Usage
//
// Development, in-memory stores, no auth:
//
//	export STORE_BACKEND=memory
//	export AUDIT_BACKEND=memory
//	./modsentryd
//
// Production with embedded JetStream:
//
//	export NATS_ENABLED=true
//	export NATS_EMBEDDED_SERVER=true
//	export SERVER_AUTH_SECRET=$(openssl rand -base64 32)
//	export ACTION_WEBHOOK_URL=https://platform.example/api/moderation
//	./modsentryd   # built with -tags nats
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/modsentry/modsentry/internal/action"
	"github.com/modsentry/modsentry/internal/api"
	"github.com/modsentry/modsentry/internal/audit"
	"github.com/modsentry/modsentry/internal/config"
	"github.com/modsentry/modsentry/internal/detection"
	"github.com/modsentry/modsentry/internal/escalation"
	"github.com/modsentry/modsentry/internal/logging"
	"github.com/modsentry/modsentry/internal/moderation"
	"github.com/modsentry/modsentry/internal/patterns"
	"github.com/modsentry/modsentry/internal/profile"
	"github.com/modsentry/modsentry/internal/supervisor"
	"github.com/modsentry/modsentry/internal/threatintel"
	"github.com/modsentry/modsentry/internal/trust"
	ws "github.com/modsentry/modsentry/internal/websocket"
)

//nolint:gocyclo // Main initialization function with sequential setup steps
func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().Msg("Starting ModSentry")
	logging.Info().
		Str("store_backend", cfg.Store.Backend).
		Str("audit_backend", cfg.Audit.Backend).
		Bool("nats_enabled", cfg.NATS.Enabled).
		Bool("threat_intel", cfg.ThreatIntel.Enabled).
		Msg("Configuration loaded")

	// Profile store: Badger for durability, memory for tests/dev. Both
	// sit behind the same cache so the hot path never changes shape.
	var backend profile.Store
	switch cfg.Store.Backend {
	case "badger":
		badgerStore, err := profile.OpenBadgerStore(cfg.Store.Path)
		if err != nil {
			logging.Fatal().Err(err).Str("path", cfg.Store.Path).Msg("Failed to open profile store")
		}
		backend = badgerStore
	default:
		backend = profile.NewMemoryStore()
		logging.Info().Msg("Using in-memory profile store (profiles lost on restart)")
	}
	profileStore := profile.NewCachedStore(backend, profile.CachedStoreConfig{
		CacheSize:   cfg.Store.CacheSize,
		CacheTTL:    cfg.Store.CacheTTL,
		SaveRetries: cfg.Store.SaveRetries,
		SaveBackoff: cfg.Store.SaveRetryBackoff,
	})
	defer func() {
		if err := profileStore.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing profile store")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Audit trail. DuckDB gives a queryable history; memory keeps the
	// same surface for development.
	var auditStore audit.Store
	var auditDB *sql.DB
	switch cfg.Audit.Backend {
	case "duckdb":
		db, err := sql.Open("duckdb", cfg.Audit.Path)
		if err != nil {
			logging.Fatal().Err(err).Str("path", cfg.Audit.Path).Msg("Failed to open audit database")
		}
		auditDB = db
		duckStore := audit.NewDuckDBStore(db)
		if err := duckStore.CreateTable(ctx); err != nil {
			logging.Fatal().Err(err).Msg("Failed to create audit events table")
		}
		auditStore = duckStore
	default:
		auditStore = audit.NewMemoryStore(10000)
		logging.Info().Msg("Using in-memory audit store (events lost on restart)")
	}
	if auditDB != nil {
		defer func() {
			if err := auditDB.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing audit database")
			}
		}()
	}

	auditLogger := audit.NewLogger(auditStore, &audit.Config{
		Enabled:         true,
		LogLevel:        audit.SeverityInfo,
		RetentionDays:   cfg.Audit.RetentionDays,
		CleanupInterval: 24 * time.Hour,
		BufferSize:      cfg.Audit.BufferSize,
	})
	defer func() {
		if err := auditLogger.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing audit logger")
		}
	}()
	auditLogger.StartCleanupRoutine(ctx)
	logging.Info().Str("backend", cfg.Audit.Backend).Msg("Audit trail initialized")

	// Pattern library compiles once at startup; a broken rule is a
	// deploy error, not a runtime one.
	library, err := patterns.Compile(patterns.Spec{
		ExtraBlocklist: cfg.ThreatIntel.ExtraBlocklist,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to compile pattern library")
	}
	logging.Info().Str("version", library.Version).Msg("Pattern library compiled")

	// Optional external domain reputation. Lookups are advisory: a dead
	// provider degrades link checks to the static lists, never blocks.
	var intel detection.DomainIntel
	if cfg.ThreatIntel.Enabled {
		client, err := threatintel.NewClient(threatintel.Config{
			URL:                cfg.ThreatIntel.URL,
			Timeout:            cfg.ThreatIntel.Timeout,
			RequestsPerSecond:  cfg.ThreatIntel.RequestsPerSecond,
			BreakerMaxFailures: cfg.ThreatIntel.BreakerMaxFailures,
			BreakerOpenFor:     cfg.ThreatIntel.BreakerOpenFor,
			CacheTTL:           10 * time.Minute,
			CacheSize:          2048,
		})
		if err != nil {
			logging.Warn().Err(err).Msg("Threat intel disabled: client init failed")
		} else {
			intel = client
			logging.Info().Str("url", cfg.ThreatIntel.URL).Msg("Threat intel lookups enabled")
		}
	}

	detCfg := detection.Config{
		SpamThreshold:          cfg.Detection.SpamThreshold,
		SpamWindow:             cfg.Detection.SpamWindow,
		RapidLimit:             cfg.Detection.RapidLimit,
		RapidWindow:            cfg.Detection.RapidWindow,
		NearDupSimilarity:      cfg.Detection.NearDupSimilarity,
		NearDupMatches:         cfg.Detection.NearDupMatches,
		CapsRatio:              cfg.Detection.CapsRatio,
		CapsMinLength:          cfg.Detection.CapsMinLength,
		MentionLimit:           cfg.Detection.MentionLimit,
		MentionSerious:         cfg.Detection.MentionSerious,
		PhishingScoreThreshold: cfg.Detection.PhishingScoreThreshold,
		WindowCapacity:         cfg.Detection.WindowCapacity,
		DetectorTimeout:        cfg.Detection.DetectorTimeout,
	}
	pipeline := detection.NewPipeline(library, detCfg, intel)

	trustEngine := trust.NewEngine(trust.Config{
		PenaltyMinor:        cfg.Trust.PenaltyMinor,
		PenaltyModerate:     cfg.Trust.PenaltyModerate,
		PenaltySerious:      cfg.Trust.PenaltySerious,
		PenaltySevere:       cfg.Trust.PenaltySevere,
		PenaltyCritical:     cfg.Trust.PenaltyCritical,
		TrustThreshold:      cfg.Trust.TrustThreshold,
		QuarantineThreshold: cfg.Trust.QuarantineThreshold,
		QuarantineDuration:  cfg.Trust.QuarantineDuration,
		RecoveryStep:        cfg.Trust.RecoveryStep,
		RecoveryInterval:    cfg.Trust.RecoveryInterval,
		HistoryLimit:        cfg.Trust.HistoryLimit,
		RetentionHorizon:    cfg.Trust.RetentionHorizon,
	})

	escalationEngine := escalation.NewEngine(escalation.Config{
		TimeoutLevel3:  cfg.Escalation.TimeoutLevel3,
		TimeoutLevel4:  cfg.Escalation.TimeoutLevel4,
		TimeoutLevel5:  cfg.Escalation.TimeoutLevel5,
		TimeoutLevel6:  cfg.Escalation.TimeoutLevel6,
		MaxLevelPolicy: cfg.Escalation.MaxLevelPolicy,
	})

	// Platform action executor. Without a webhook URL decisions are
	// recorded and broadcast but nothing is enforced; useful for a
	// shadow-mode rollout.
	var executor action.Executor
	if cfg.Action.WebhookURL != "" {
		webhookExec, err := action.NewWebhookExecutor(action.WebhookConfig{
			URL:         cfg.Action.WebhookURL,
			AuthToken:   cfg.Action.AuthToken,
			Timeout:     cfg.Action.Timeout,
			RateLimitMs: cfg.Action.RateLimitMs,
		})
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to create action executor")
		}
		executor = webhookExec
	} else {
		logging.Warn().Msg("ACTION_WEBHOOK_URL not set - running in shadow mode, punishments are not enforced")
	}

	// Structured logger for supervisor, bridging zerolog to slog for
	// sutureslog compatibility.
	slogLogger := logging.NewSlogLogger()

	tree := supervisor.NewTree(slogLogger, supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	})

	wsHub := ws.NewHub()

	engine := moderation.NewEngine(moderation.Options{
		Pipeline:   pipeline,
		Trust:      trustEngine,
		Escalation: escalationEngine,
		Store:      profileStore,
		Executor:   executor,
		Audit:      auditLogger,
		Hub:        wsHub,
	})

	sweeper := moderation.NewSweeper(engine, moderation.SweepConfig{
		Interval:       cfg.Sweep.Interval,
		WindowHorizon:  detCfg.MaxWindow(),
		HistoryHorizon: cfg.Trust.RetentionHorizon,
		ProfileIdleGC:  cfg.Sweep.ProfileIdleGC,
	})

	// JetStream ingest (optional - requires build with -tags nats)
	natsComponents, err := InitNATS(cfg, engine)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize NATS ingest")
	}
	defer natsComponents.Shutdown(context.Background())

	// JWT token manager for the admin API. An empty secret disables
	// auth entirely, acceptable only on a trusted network.
	var tokens *api.TokenManager
	if cfg.Server.AuthSecret != "" {
		tokens, err = api.NewTokenManager(cfg.Server.AuthSecret, 24*time.Hour)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to create token manager")
		}
	} else {
		logging.Warn().Msg("========================================================")
		logging.Warn().Msg("SECURITY WARNING: SERVER_AUTH_SECRET is not set")
		logging.Warn().Msg("The admin API accepts unauthenticated requests")
		logging.Warn().Msg("Set a 32+ character secret before exposing this service")
		logging.Warn().Msg("========================================================")
	}

	handler := api.NewHandler(api.HandlerOptions{
		Profiles:   profileStore,
		AuditStore: auditStore,
		Patterns:   library,
		Trust:      trustEngine,
		Hub:        wsHub,
		Version:    version,
		Checks: map[string]api.ReadinessCheck{
			"profiles": func(ctx context.Context) error {
				_, err := profileStore.Count(ctx)
				return err
			},
			"audit": func(ctx context.Context) error {
				_, err := auditStore.Count(ctx, audit.DefaultQueryFilter())
				return err
			},
		},
	})

	middleware := api.NewMiddleware(api.MiddlewareConfig{
		CORSAllowedOrigins: cfg.Server.CORSOrigins,
		RateLimitRequests:  cfg.Server.RateLimit,
		RateLimitWindow:    time.Minute,
	})
	router := api.NewRouter(handler, middleware, tokens)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Routes(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	// === ADD SERVICES TO SUPERVISOR TREE ===

	tree.AddModerationService(&supervisor.RunnerService{Name: "moderation-engine", Runner: engine})
	tree.AddModerationService(&supervisor.RunnerService{Name: "sweeper", Runner: sweeper})
	AddNATSToSupervisor(tree, natsComponents)

	if cfg.Websocket.Enabled {
		tree.AddMessagingService(&supervisor.RunnerService{Name: "websocket-hub", Runner: wsHub})
	}

	if cfg.Server.Enabled {
		tree.AddAPIService(&supervisor.HTTPService{Name: "admin-api", Server: server})
		logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")
	}

	// === START SUPERVISOR TREE ===

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Wait for the error channel to close (supervisor finished)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	// Report any services that failed to stop within timeout
	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("ModSentry stopped gracefully")
}

// version is overridden at build time via -ldflags "-X main.version=...".
var version = "dev"
