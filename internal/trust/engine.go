// ModSentry - Behavioral Moderation and Trust Engine for Chat Platforms
// Copyright 2026 ModSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modsentry/modsentry

// Package trust owns the trust score dynamics: penalties on violations,
// passive recovery over violation-free intervals, risk classification and
// the quarantine state. All functions mutate the given profile in place;
// the caller serializes access per user.
package trust

import (
	"time"

	"github.com/modsentry/modsentry/internal/logging"
	"github.com/modsentry/modsentry/internal/metrics"
	"github.com/modsentry/modsentry/internal/profile"
)

// Config is the canonical trust scoring table.
type Config struct {
	PenaltyMinor    float64
	PenaltyModerate float64
	PenaltySerious  float64
	PenaltySevere   float64
	PenaltyCritical float64

	TrustThreshold      float64
	QuarantineThreshold float64
	QuarantineDuration  time.Duration

	RecoveryStep     float64
	RecoveryInterval time.Duration

	HistoryLimit     int
	RetentionHorizon time.Duration
}

// DefaultConfig returns the canonical table.
func DefaultConfig() Config {
	return Config{
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
	}
}

// Penalty returns the trust deduction for a severity.
func (c Config) Penalty(s profile.Severity) float64 {
	switch s {
	case profile.SeverityMinor:
		return c.PenaltyMinor
	case profile.SeverityModerate:
		return c.PenaltyModerate
	case profile.SeveritySerious:
		return c.PenaltySerious
	case profile.SeveritySevere:
		return c.PenaltySevere
	case profile.SeverityCritical:
		return c.PenaltyCritical
	default:
		return 0
	}
}

// Risk weighting and cutoffs. The score is a weighted blend of recent
// violation frequency, distrust and lack of demonstrated improvement.
const (
	riskWeightFrequency   = 0.40
	riskWeightDistrust    = 0.45
	riskWeightImprovement = 0.15

	// recentViolationSaturation is the 24h violation count at which the
	// frequency component maxes out.
	recentViolationSaturation = 5

	riskCutoffCritical = 0.8
	riskCutoffHigh     = 0.6
	riskCutoffMedium   = 0.3
)

// Assessment is the computed risk for a profile.
type Assessment struct {
	Score float64           `json:"score"`
	Level profile.RiskLevel `json:"level"`
}

// Engine applies the scoring table to profiles.
type Engine struct {
	cfg Config
}

// NewEngine creates a trust engine. The config must already be validated;
// thresholds are never re-checked per message.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Config returns the active scoring table.
func (e *Engine) Config() Config { return e.cfg }

// ApplyViolation folds one violation into the profile: history append,
// trust penalty, streak increment and quarantine check. Non-punitive
// violations (emotional distress) are recorded in history but never touch
// the score or the streak.
func (e *Engine) ApplyViolation(p *profile.SecurityProfile, v *profile.ViolationRecord) {
	p.AppendViolation(*v, e.cfg.HistoryLimit)

	if !v.Type.Punitive() {
		return
	}

	p.TrustScore -= e.cfg.Penalty(v.Severity)
	p.ClampTrust()
	p.Aggregates.ViolationStreak++
	ts := v.Timestamp
	p.LastViolationAt = &ts

	// A violation interrupts the current recovery interval.
	p.LastRecoveryAt = v.Timestamp

	if p.TrustScore <= e.cfg.QuarantineThreshold && !p.InQuarantine(v.Timestamp) {
		until := v.Timestamp.Add(e.cfg.QuarantineDuration)
		p.QuarantineUntil = &until
		metrics.QuarantinesActivated.Inc()
		logging.Warn().
			Str("user_id", logging.SanitizeUserID(p.UserID)).
			Float64("trust_score", p.TrustScore).
			Time("until", until).
			Msg("quarantine activated")
	}
}

// Recover applies passive recovery for every full violation-free interval
// elapsed since the last recovery mark. Returns how many intervals were
// credited. The score never exceeds TrustMax and never decreases here.
func (e *Engine) Recover(p *profile.SecurityProfile, now time.Time) int {
	if e.cfg.RecoveryInterval <= 0 {
		return 0
	}

	base := p.LastRecoveryAt
	if base.IsZero() {
		base = p.FirstSeenAt
	}
	elapsed := now.Sub(base)
	if elapsed < e.cfg.RecoveryInterval {
		e.expireQuarantine(p, now)
		return 0
	}

	intervals := int(elapsed / e.cfg.RecoveryInterval)
	for i := 0; i < intervals; i++ {
		headroom := profile.TrustMax - p.TrustScore
		if headroom > 0 {
			step := e.cfg.RecoveryStep
			if step > headroom {
				step = headroom
			}
			p.TrustScore += step
		}
		if p.Aggregates.ViolationStreak > 0 {
			p.Aggregates.ViolationStreak--
		}
		p.Aggregates.PositiveContributions++
	}
	p.LastRecoveryAt = base.Add(time.Duration(intervals) * e.cfg.RecoveryInterval)
	p.ClampTrust()

	// Trust may not climb out of an unexpired quarantine: the score stays
	// capped at the threshold until the quarantine lapses, then recovery
	// resumes normally.
	if p.InQuarantine(now) && p.TrustScore > e.cfg.QuarantineThreshold {
		p.TrustScore = e.cfg.QuarantineThreshold
	}

	e.expireQuarantine(p, now)
	return intervals
}

// expireQuarantine clears quarantine once it has both expired and the
// score climbed back above the quarantine threshold.
func (e *Engine) expireQuarantine(p *profile.SecurityProfile, now time.Time) {
	if p.QuarantineUntil == nil || now.Before(*p.QuarantineUntil) {
		return
	}
	if p.TrustScore > e.cfg.QuarantineThreshold {
		p.QuarantineUntil = nil
		logging.Info().
			Str("user_id", logging.SanitizeUserID(p.UserID)).
			Float64("trust_score", p.TrustScore).
			Msg("quarantine lifted")
	}
}

// RiskAssessment classifies the profile's current risk. Pure read.
func (e *Engine) RiskAssessment(p *profile.SecurityProfile, now time.Time) Assessment {
	freq := float64(p.RecentViolations(24*time.Hour, now)) / recentViolationSaturation
	if freq > 1 {
		freq = 1
	}

	distrust := 1 - p.TrustScore/profile.TrustMax

	// Demonstrated improvement dilutes risk; a long positive streak drives
	// this component toward zero.
	improvement := 1 / (1 + float64(p.Aggregates.PositiveContributions))

	score := riskWeightFrequency*freq +
		riskWeightDistrust*distrust +
		riskWeightImprovement*improvement

	return Assessment{Score: score, Level: riskLevel(score)}
}

func riskLevel(score float64) profile.RiskLevel {
	switch {
	case score >= riskCutoffCritical:
		return profile.RiskCritical
	case score >= riskCutoffHigh:
		return profile.RiskHigh
	case score >= riskCutoffMedium:
		return profile.RiskMedium
	default:
		return profile.RiskLow
	}
}
