// ModSentry - Behavioral Moderation and Trust Engine for Chat Platforms
// Copyright 2026 ModSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modsentry/modsentry

package profile

import (
	"time"
)

// Trust score bounds.
const (
	TrustMin   = 0.0
	TrustMax   = 100.0
	TrustStart = 100.0
)

// RiskLevel is the ordinal risk classification derived from a profile.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// BehavioralAggregates holds running behavioral statistics for a user.
type BehavioralAggregates struct {
	// MessageCount is the total number of observed messages.
	MessageCount int64 `json:"message_count"`

	// AvgMessageLength is a running average over observed messages.
	AvgMessageLength float64 `json:"avg_message_length"`

	// Channels is the set of channels the user has been seen in.
	Channels map[string]struct{} `json:"channels,omitempty"`

	// PositiveContributions counts violation-free recovery intervals.
	PositiveContributions int64 `json:"positive_contributions"`

	// ViolationStreak counts consecutive violations without recovery.
	ViolationStreak int `json:"violation_streak"`
}

// ObserveMessage folds one message into the aggregates.
func (a *BehavioralAggregates) ObserveMessage(contentLen int, channelID string) {
	a.MessageCount++
	a.AvgMessageLength += (float64(contentLen) - a.AvgMessageLength) / float64(a.MessageCount)
	if channelID != "" {
		if a.Channels == nil {
			a.Channels = make(map[string]struct{})
		}
		a.Channels[channelID] = struct{}{}
	}
}

// ChannelDiversity returns how many distinct channels the user was seen in.
func (a *BehavioralAggregates) ChannelDiversity() int {
	return len(a.Channels)
}

// SecurityProfile is the per-user (optionally per-guild) moderation state.
// TrustScore always stays within [TrustMin, TrustMax]; IsTrusted is derived
// from the score and never stored independently.
type SecurityProfile struct {
	UserID  string `json:"user_id"`
	GuildID string `json:"guild_id,omitempty"`

	TrustScore      float64 `json:"trust_score"`
	PunishmentLevel int     `json:"punishment_level"`

	// ViolationHistory is append-only, bounded to the configured most-recent-N.
	ViolationHistory []ViolationRecord `json:"violation_history,omitempty"`

	QuarantineUntil *time.Time `json:"quarantine_until,omitempty"`

	Aggregates BehavioralAggregates `json:"aggregates"`

	LastViolationAt *time.Time `json:"last_violation_at,omitempty"`
	LastRecoveryAt  time.Time  `json:"last_recovery_at"`
	LastSeenAt      time.Time  `json:"last_seen_at"`
	FirstSeenAt     time.Time  `json:"first_seen_at"`
}

// New creates a default profile for a first-seen user.
func New(userID, guildID string, now time.Time) *SecurityProfile {
	return &SecurityProfile{
		UserID:         userID,
		GuildID:        guildID,
		TrustScore:     TrustStart,
		FirstSeenAt:    now,
		LastSeenAt:     now,
		LastRecoveryAt: now,
	}
}

// Key returns the store key for this profile.
func (p *SecurityProfile) Key() string {
	return Key(p.UserID, p.GuildID)
}

// Key builds a store key from user and optional guild scope.
func Key(userID, guildID string) string {
	if guildID == "" {
		return userID
	}
	return guildID + "/" + userID
}

// IsTrusted reports whether the profile clears the trust threshold.
// Always recomputed; never cached.
func (p *SecurityProfile) IsTrusted(threshold float64) bool {
	return p.TrustScore >= threshold
}

// InQuarantine reports whether an unexpired quarantine is in effect.
func (p *SecurityProfile) InQuarantine(now time.Time) bool {
	return p.QuarantineUntil != nil && now.Before(*p.QuarantineUntil)
}

// RecentViolations counts punitive violations within the window ending now.
func (p *SecurityProfile) RecentViolations(window time.Duration, now time.Time) int {
	cutoff := now.Add(-window)
	n := 0
	for i := len(p.ViolationHistory) - 1; i >= 0; i-- {
		v := p.ViolationHistory[i]
		if v.Timestamp.Before(cutoff) {
			break // history is time-ordered
		}
		if v.Type.Punitive() {
			n++
		}
	}
	return n
}

// AppendViolation appends a record, dropping the oldest entries beyond
// limit. The record itself is never mutated.
func (p *SecurityProfile) AppendViolation(v ViolationRecord, limit int) {
	p.ViolationHistory = append(p.ViolationHistory, v)
	if limit > 0 && len(p.ViolationHistory) > limit {
		p.ViolationHistory = p.ViolationHistory[len(p.ViolationHistory)-limit:]
	}
}

// PruneHistory drops records older than horizon. Returns how many were
// removed. Records are time-ordered so a single cut point suffices.
func (p *SecurityProfile) PruneHistory(horizon time.Duration, now time.Time) int {
	cutoff := now.Add(-horizon)
	idx := 0
	for idx < len(p.ViolationHistory) && p.ViolationHistory[idx].Timestamp.Before(cutoff) {
		idx++
	}
	if idx == 0 {
		return 0
	}
	p.ViolationHistory = p.ViolationHistory[idx:]
	return idx
}

// Clone returns a deep copy for snapshot reads. Detectors receive a clone
// so concurrent evaluation never observes a profile mid-mutation.
func (p *SecurityProfile) Clone() *SecurityProfile {
	cp := *p
	if p.QuarantineUntil != nil {
		t := *p.QuarantineUntil
		cp.QuarantineUntil = &t
	}
	if p.LastViolationAt != nil {
		t := *p.LastViolationAt
		cp.LastViolationAt = &t
	}
	cp.ViolationHistory = make([]ViolationRecord, len(p.ViolationHistory))
	copy(cp.ViolationHistory, p.ViolationHistory)
	if p.Aggregates.Channels != nil {
		cp.Aggregates.Channels = make(map[string]struct{}, len(p.Aggregates.Channels))
		for ch := range p.Aggregates.Channels {
			cp.Aggregates.Channels[ch] = struct{}{}
		}
	}
	return &cp
}

// ClampTrust forces the score back into bounds after arithmetic.
func (p *SecurityProfile) ClampTrust() {
	if p.TrustScore < TrustMin {
		p.TrustScore = TrustMin
	}
	if p.TrustScore > TrustMax {
		p.TrustScore = TrustMax
	}
}
