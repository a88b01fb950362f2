// ModSentry - Behavioral Moderation and Trust Engine for Chat Platforms
// Copyright 2026 ModSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modsentry/modsentry

// Package config defines the full configuration surface of ModSentry and
// loads it in three layers: struct defaults, optional YAML file, environment
// variables. Invalid configuration fails startup; thresholds are never
// re-validated per message.
package config

import (
	"time"
)

// Config is the root configuration for the ModSentry service.
type Config struct {
	Logging     LoggingConfig     `koanf:"logging"`
	Server      ServerConfig      `koanf:"server"`
	NATS        NATSConfig        `koanf:"nats"`
	Store       StoreConfig       `koanf:"store"`
	Audit       AuditConfig       `koanf:"audit"`
	Detection   DetectionConfig   `koanf:"detection"`
	Trust       TrustConfig       `koanf:"trust"`
	Escalation  EscalationConfig  `koanf:"escalation"`
	Sweep       SweepConfig       `koanf:"sweep"`
	ThreatIntel ThreatIntelConfig `koanf:"threat_intel"`
	Action      ActionConfig      `koanf:"action"`
	Websocket   WebsocketConfig   `koanf:"websocket"`
}

// LoggingConfig mirrors logging.Config for the config file.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// ServerConfig configures the admin/ops HTTP API.
type ServerConfig struct {
	Enabled     bool          `koanf:"enabled"`
	Host        string        `koanf:"host" validate:"required"`
	Port        int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout     time.Duration `koanf:"timeout" validate:"min=1s"`
	AuthSecret  string        `koanf:"auth_secret"`
	RateLimit   int           `koanf:"rate_limit" validate:"min=1"`
	CORSOrigins []string      `koanf:"cors_origins"`
}

// NATSConfig configures the JetStream message ingest.
type NATSConfig struct {
	Enabled          bool          `koanf:"enabled"`
	URL              string        `koanf:"url"`
	EmbeddedServer   bool          `koanf:"embedded_server"`
	StoreDir         string        `koanf:"store_dir"`
	StreamName       string        `koanf:"stream_name"`
	Subject          string        `koanf:"subject"`
	DurableName      string        `koanf:"durable_name"`
	QueueGroup       string        `koanf:"queue_group"`
	SubscribersCount int           `koanf:"subscribers_count" validate:"min=1,max=64"`
	MaxDeliver       int           `koanf:"max_deliver" validate:"min=1"`
	AckWaitTimeout   time.Duration `koanf:"ack_wait_timeout" validate:"min=1s"`
	RetryCount       int           `koanf:"retry_count" validate:"min=0"`
	RetryInterval    time.Duration `koanf:"retry_interval"`
	CloseTimeout     time.Duration `koanf:"close_timeout"`
}

// StoreConfig configures security-profile persistence.
type StoreConfig struct {
	// Backend selects the profile store implementation.
	Backend string `koanf:"backend" validate:"oneof=badger memory"`

	// Path is the Badger database directory (badger backend only).
	Path string `koanf:"path"`

	// CacheSize bounds the in-process profile cache (entries).
	CacheSize int `koanf:"cache_size" validate:"min=16"`

	// CacheTTL expires cached profiles so sweeps see fresh state.
	CacheTTL time.Duration `koanf:"cache_ttl" validate:"min=1s"`

	// SaveRetries is how many times a failed save is retried.
	SaveRetries int `koanf:"save_retries" validate:"min=0,max=10"`

	// SaveRetryBackoff is the initial backoff between save retries.
	SaveRetryBackoff time.Duration `koanf:"save_retry_backoff"`
}

// AuditConfig configures the moderation audit trail.
type AuditConfig struct {
	Backend       string        `koanf:"backend" validate:"oneof=duckdb memory"`
	Path          string        `koanf:"path"`
	BufferSize    int           `koanf:"buffer_size" validate:"min=1"`
	FlushInterval time.Duration `koanf:"flush_interval" validate:"min=100ms"`
	RetentionDays int           `koanf:"retention_days" validate:"min=1"`
}

// DetectionConfig holds every detector threshold. Values here feed the
// violation detection pipeline; they are validated once at startup.
type DetectionConfig struct {
	// SpamThreshold is how many identical messages within SpamWindow trip
	// the identical-message spam detector.
	SpamThreshold int           `koanf:"spam_threshold" validate:"min=2"`
	SpamWindow    time.Duration `koanf:"spam_window" validate:"min=1s"`

	// RapidLimit caps distinct messages within RapidWindow.
	RapidLimit  int           `koanf:"rapid_limit" validate:"min=2"`
	RapidWindow time.Duration `koanf:"rapid_window" validate:"min=1s"`

	// NearDupSimilarity is the token-set similarity ratio treated as a
	// near-duplicate; NearDupMatches recent matches are required to fire.
	NearDupSimilarity float64 `koanf:"near_dup_similarity" validate:"gt=0,lte=1"`
	NearDupMatches    int     `koanf:"near_dup_matches" validate:"min=1"`

	// CapsRatio is the uppercase ratio threshold; CapsMinLength skips
	// short shouting like "OK".
	CapsRatio     float64 `koanf:"caps_ratio" validate:"gt=0,lte=1"`
	CapsMinLength int     `koanf:"caps_min_length" validate:"min=1"`

	// MentionLimit fires MENTION_SPAM; MentionSerious upgrades severity.
	MentionLimit   int `koanf:"mention_limit" validate:"min=1"`
	MentionSerious int `koanf:"mention_serious" validate:"min=1"`

	// PhishingScoreThreshold is the keyword+urgency score that flags
	// phishing.
	PhishingScoreThreshold int `koanf:"phishing_score_threshold" validate:"min=1"`

	// WindowCapacity bounds the per-user sliding window ring.
	WindowCapacity int `koanf:"window_capacity" validate:"min=4,max=4096"`

	// DetectorTimeout bounds a single detector; past it the detector is
	// treated as degraded and the pipeline continues.
	DetectorTimeout time.Duration `koanf:"detector_timeout" validate:"min=1ms"`
}

// TrustConfig holds the canonical trust scoring table. The source mixed two
// slightly different tables; this is the single source of truth.
type TrustConfig struct {
	// Penalties maps severity name -> trust score deduction.
	PenaltyMinor    float64 `koanf:"penalty_minor" validate:"min=0,max=100"`
	PenaltyModerate float64 `koanf:"penalty_moderate" validate:"min=0,max=100"`
	PenaltySerious  float64 `koanf:"penalty_serious" validate:"min=0,max=100"`
	PenaltySevere   float64 `koanf:"penalty_severe" validate:"min=0,max=100"`
	PenaltyCritical float64 `koanf:"penalty_critical" validate:"min=0,max=100"`

	// TrustThreshold is the score at or above which a user is trusted.
	TrustThreshold float64 `koanf:"trust_threshold" validate:"min=0,max=100"`

	// QuarantineThreshold is the score at or below which quarantine engages.
	QuarantineThreshold float64 `koanf:"quarantine_threshold" validate:"min=0,max=100"`

	// QuarantineDuration is how long quarantine lasts once set.
	QuarantineDuration time.Duration `koanf:"quarantine_duration" validate:"min=1m"`

	// RecoveryStep is added per RecoveryInterval without violations.
	RecoveryStep     float64       `koanf:"recovery_step" validate:"gt=0,max=100"`
	RecoveryInterval time.Duration `koanf:"recovery_interval" validate:"min=1m"`

	// HistoryLimit bounds violation_history per profile.
	HistoryLimit int `koanf:"history_limit" validate:"min=1,max=1000"`

	// RetentionHorizon prunes violation records older than this.
	RetentionHorizon time.Duration `koanf:"retention_horizon" validate:"min=1h"`
}

// EscalationConfig configures the punishment state machine.
type EscalationConfig struct {
	// TimeoutLevel3..TimeoutLevel6 are the timeout durations by final level.
	TimeoutLevel3 time.Duration `koanf:"timeout_level_3" validate:"min=1m"`
	TimeoutLevel4 time.Duration `koanf:"timeout_level_4" validate:"min=1m"`
	TimeoutLevel5 time.Duration `koanf:"timeout_level_5" validate:"min=1m"`
	TimeoutLevel6 time.Duration `koanf:"timeout_level_6" validate:"min=1m"`

	// MaxLevelPolicy selects the level-7 action: kick or ban.
	MaxLevelPolicy string `koanf:"max_level_policy" validate:"oneof=kick ban"`
}

// SweepConfig configures the periodic maintenance sweep.
type SweepConfig struct {
	Interval time.Duration `koanf:"interval" validate:"min=1m"`

	// ProfileIdleGC drops profiles with empty history and no activity for
	// this long.
	ProfileIdleGC time.Duration `koanf:"profile_idle_gc" validate:"min=1h"`
}

// ThreatIntelConfig configures the optional domain-reputation lookup.
type ThreatIntelConfig struct {
	Enabled bool   `koanf:"enabled"`
	URL     string `koanf:"url"`

	// Timeout bounds a single lookup; past it the domain is treated as
	// unknown, never auto-blocked.
	Timeout time.Duration `koanf:"timeout" validate:"min=10ms"`

	// RequestsPerSecond throttles outbound lookups.
	RequestsPerSecond int `koanf:"requests_per_second" validate:"min=1"`

	// BreakerMaxFailures opens the circuit after this many consecutive
	// failures.
	BreakerMaxFailures int           `koanf:"breaker_max_failures" validate:"min=1"`
	BreakerOpenFor     time.Duration `koanf:"breaker_open_for" validate:"min=1s"`

	// ExtraBlocklist supplements the built-in malicious domain list.
	ExtraBlocklist []string `koanf:"extra_blocklist"`
}

// ActionConfig configures the platform action executor.
type ActionConfig struct {
	// WebhookURL is the platform endpoint that applies moderation actions.
	WebhookURL string `koanf:"webhook_url"`

	// AuthToken authenticates against the platform endpoint.
	AuthToken string `koanf:"auth_token"`

	Timeout time.Duration `koanf:"timeout" validate:"min=100ms"`

	// RateLimitMs spaces webhook deliveries.
	RateLimitMs int `koanf:"rate_limit_ms" validate:"min=0"`
}

// WebsocketConfig configures the operator real-time feed.
type WebsocketConfig struct {
	Enabled bool `koanf:"enabled"`

	// SendBuffer is the per-client outbound queue; slow clients past it are
	// dropped rather than blocking the hub.
	SendBuffer int `koanf:"send_buffer" validate:"min=1"`
}

// defaultConfig returns a Config with all defaults applied. Defaults are
// layered first, then overridden by file and environment.
func defaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Server: ServerConfig{
			Enabled:   true,
			Host:      "0.0.0.0",
			Port:      3861,
			Timeout:   30 * time.Second,
			RateLimit: 100,
		},
		NATS: NATSConfig{
			Enabled:          false,
			URL:              "nats://127.0.0.1:4222",
			EmbeddedServer:   false,
			StoreDir:         "/data/nats/jetstream",
			StreamName:       "CHAT",
			Subject:          "chat.message.>",
			DurableName:      "modsentry",
			QueueGroup:       "moderators",
			SubscribersCount: 4,
			MaxDeliver:       3,
			AckWaitTimeout:   30 * time.Second,
			RetryCount:       3,
			RetryInterval:    100 * time.Millisecond,
			CloseTimeout:     30 * time.Second,
		},
		Store: StoreConfig{
			Backend:          "badger",
			Path:             "/data/modsentry/profiles",
			CacheSize:        4096,
			CacheTTL:         10 * time.Minute,
			SaveRetries:      3,
			SaveRetryBackoff: 50 * time.Millisecond,
		},
		Audit: AuditConfig{
			Backend:       "duckdb",
			Path:          "/data/modsentry/audit.duckdb",
			BufferSize:    256,
			FlushInterval: 2 * time.Second,
			RetentionDays: 30,
		},
		Detection: DetectionConfig{
			SpamThreshold:          3,
			SpamWindow:             30 * time.Second,
			RapidLimit:             6,
			RapidWindow:            10 * time.Second,
			NearDupSimilarity:      0.7,
			NearDupMatches:         2,
			CapsRatio:              0.8,
			CapsMinLength:          12,
			MentionLimit:           5,
			MentionSerious:         10,
			PhishingScoreThreshold: 4,
			WindowCapacity:         64,
			DetectorTimeout:        25 * time.Millisecond,
		},
		Trust: TrustConfig{
			PenaltyMinor:        5,
			PenaltyModerate:     15,
			PenaltySerious:      30,
			PenaltySevere:       50,
			PenaltyCritical:     75,
			TrustThreshold:      70,
			QuarantineThreshold: 25,
			QuarantineDuration:  24 * time.Hour,
			RecoveryStep:        2,
			RecoveryInterval:    6 * time.Hour,
			HistoryLimit:        50,
			RetentionHorizon:    7 * 24 * time.Hour,
		},
		Escalation: EscalationConfig{
			TimeoutLevel3:  5 * time.Minute,
			TimeoutLevel4:  30 * time.Minute,
			TimeoutLevel5:  2 * time.Hour,
			TimeoutLevel6:  6 * time.Hour,
			MaxLevelPolicy: "kick",
		},
		Sweep: SweepConfig{
			Interval:      30 * time.Minute,
			ProfileIdleGC: 30 * 24 * time.Hour,
		},
		ThreatIntel: ThreatIntelConfig{
			Enabled:            false,
			Timeout:            150 * time.Millisecond,
			RequestsPerSecond:  20,
			BreakerMaxFailures: 5,
			BreakerOpenFor:     30 * time.Second,
		},
		Action: ActionConfig{
			Timeout:     5 * time.Second,
			RateLimitMs: 200,
		},
		Websocket: WebsocketConfig{
			Enabled:    true,
			SendBuffer: 64,
		},
	}
}
