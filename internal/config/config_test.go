// ModSentry - Behavioral Moderation and Trust Engine for Chat Platforms
// Copyright 2026 ModSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modsentry/modsentry

package config

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestDefaultThresholds(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Detection.SpamThreshold != 3 {
		t.Errorf("spam_threshold = %d, want 3", cfg.Detection.SpamThreshold)
	}
	if cfg.Detection.CapsRatio != 0.8 {
		t.Errorf("caps_ratio = %v, want 0.8", cfg.Detection.CapsRatio)
	}
	if cfg.Trust.TrustThreshold != 70 {
		t.Errorf("trust_threshold = %v, want 70", cfg.Trust.TrustThreshold)
	}
	if cfg.Trust.QuarantineThreshold != 25 {
		t.Errorf("quarantine_threshold = %v, want 25", cfg.Trust.QuarantineThreshold)
	}
	if cfg.Trust.PenaltyMinor != 5 || cfg.Trust.PenaltyCritical != 75 {
		t.Errorf("penalty table = [%v..%v], want [5..75]",
			cfg.Trust.PenaltyMinor, cfg.Trust.PenaltyCritical)
	}
	if cfg.Trust.RecoveryInterval != 6*time.Hour {
		t.Errorf("recovery_interval = %v, want 6h", cfg.Trust.RecoveryInterval)
	}
}

func TestValidateRejectsInvertedTrustTable(t *testing.T) {
	cfg := defaultConfig()
	cfg.Trust.PenaltyMinor = 80 // above critical

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for non-monotonic penalty table")
	}
	if !strings.Contains(err.Error(), "non-decreasing") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateRejectsQuarantineAboveTrust(t *testing.T) {
	cfg := defaultConfig()
	cfg.Trust.QuarantineThreshold = 90

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for quarantine threshold above trust threshold")
	}
}

func TestValidateRejectsBadDetectionWindows(t *testing.T) {
	cfg := defaultConfig()
	cfg.Detection.RapidWindow = time.Minute
	cfg.Detection.SpamWindow = 10 * time.Second

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when rapid_window exceeds spam_window")
	}
}

func TestValidateRejectsMissingStorePath(t *testing.T) {
	cfg := defaultConfig()
	cfg.Store.Path = ""

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for badger backend without a path")
	}
}

func TestValidateThreatIntelURL(t *testing.T) {
	cfg := defaultConfig()
	cfg.ThreatIntel.Enabled = true
	cfg.ThreatIntel.URL = "ftp://bad.example"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for non-http threat intel URL")
	}
	if !strings.Contains(err.Error(), "http") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"MODSENTRY_DETECTION_SPAM_THRESHOLD", "detection.spam_threshold"},
		{"MODSENTRY_TRUST_RECOVERY_INTERVAL", "trust.recovery_interval"},
		{"MODSENTRY_THREAT_INTEL_TIMEOUT", "threat_intel.timeout"},
		{"MODSENTRY_SERVER_PORT", "server.port"},
		{"MODSENTRY_UNKNOWN_THING", ""},
	}
	for _, tt := range tests {
		if got := envTransformFunc(tt.in); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoadWithEnvOverride(t *testing.T) {
	t.Setenv("MODSENTRY_DETECTION_SPAM_THRESHOLD", "5")
	t.Setenv("MODSENTRY_TRUST_TRUST_THRESHOLD", "80")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Detection.SpamThreshold != 5 {
		t.Errorf("spam_threshold = %d, want 5 from env", cfg.Detection.SpamThreshold)
	}
	if cfg.Trust.TrustThreshold != 80 {
		t.Errorf("trust_threshold = %v, want 80 from env", cfg.Trust.TrustThreshold)
	}
}

func TestLoadRejectsInvalidEnv(t *testing.T) {
	t.Setenv("MODSENTRY_ESCALATION_MAX_LEVEL_POLICY", "shadowban")

	if _, err := Load(); err == nil {
		t.Fatal("expected configuration validation failure")
	}
}
