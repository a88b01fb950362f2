// ModSentry - Behavioral Moderation and Trust Engine for Chat Platforms
// Copyright 2026 ModSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modsentry/modsentry

package config

import (
	"fmt"
	"net/url"

	"github.com/modsentry/modsentry/internal/validation"
)

// Validate checks the whole configuration. Field-level constraints are
// enforced through validator tags; cross-field rules are checked here.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}

	if err := c.validateTrustTable(); err != nil {
		return err
	}
	if err := c.validateDetection(); err != nil {
		return err
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateThreatIntel(); err != nil {
		return err
	}
	return c.validateNATS()
}

// validateTrustTable enforces ordering across the severity penalty table and
// the trust thresholds.
func (c *Config) validateTrustTable() error {
	t := c.Trust
	if !(t.PenaltyMinor <= t.PenaltyModerate &&
		t.PenaltyModerate <= t.PenaltySerious &&
		t.PenaltySerious <= t.PenaltySevere &&
		t.PenaltySevere <= t.PenaltyCritical) {
		return fmt.Errorf("trust penalty table must be non-decreasing by severity")
	}
	if t.QuarantineThreshold >= t.TrustThreshold {
		return fmt.Errorf("quarantine_threshold (%.0f) must be below trust_threshold (%.0f)",
			t.QuarantineThreshold, t.TrustThreshold)
	}
	return nil
}

// validateDetection enforces window/threshold consistency.
func (c *Config) validateDetection() error {
	d := c.Detection
	if d.RapidWindow > d.SpamWindow {
		return fmt.Errorf("rapid_window (%s) must not exceed spam_window (%s)",
			d.RapidWindow, d.SpamWindow)
	}
	if d.MentionSerious < d.MentionLimit {
		return fmt.Errorf("mention_serious (%d) must be >= mention_limit (%d)",
			d.MentionSerious, d.MentionLimit)
	}
	if d.WindowCapacity < d.SpamThreshold {
		return fmt.Errorf("window_capacity (%d) must hold at least spam_threshold (%d) entries",
			d.WindowCapacity, d.SpamThreshold)
	}
	return nil
}

func (c *Config) validateStore() error {
	if c.Store.Backend == "badger" && c.Store.Path == "" {
		return fmt.Errorf("store.path is required for the badger backend")
	}
	if c.Audit.Backend == "duckdb" && c.Audit.Path == "" {
		return fmt.Errorf("audit.path is required for the duckdb backend")
	}
	return nil
}

func (c *Config) validateThreatIntel() error {
	if !c.ThreatIntel.Enabled {
		return nil
	}
	if c.ThreatIntel.URL == "" {
		return fmt.Errorf("threat_intel.url is required when threat intel is enabled")
	}
	return validateHTTPURL(c.ThreatIntel.URL, "threat_intel.url")
}

func (c *Config) validateNATS() error {
	if !c.NATS.Enabled {
		return nil
	}
	if c.NATS.URL == "" && !c.NATS.EmbeddedServer {
		return fmt.Errorf("nats.url is required unless the embedded server is enabled")
	}
	if c.NATS.EmbeddedServer && c.NATS.StoreDir == "" {
		return fmt.Errorf("nats.store_dir is required for the embedded server")
	}
	if c.NATS.StreamName == "" || c.NATS.Subject == "" {
		return fmt.Errorf("nats.stream_name and nats.subject are required")
	}
	return nil
}

// validateHTTPURL checks a URL is parseable and uses http or https.
func validateHTTPURL(raw, field string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", field, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https, got %q", field, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%s is missing a host", field)
	}
	return nil
}
