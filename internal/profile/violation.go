// ModSentry - Behavioral Moderation and Trust Engine for Chat Platforms
// Copyright 2026 ModSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modsentry/modsentry

package profile

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ViolationRecord captures one detected violation. Records are immutable
// once created and append-only in a profile's history.
type ViolationRecord struct {
	ID             string            `json:"id"`
	UserID         string            `json:"user_id"`
	GuildID        string            `json:"guild_id,omitempty"`
	ChannelID      string            `json:"channel_id,omitempty"`
	Type           ViolationType     `json:"type"`
	Severity       Severity          `json:"severity"`
	MessageExcerpt string            `json:"message_excerpt,omitempty"`
	Evidence       map[string]string `json:"evidence,omitempty"`
	Timestamp      time.Time         `json:"timestamp"`
}

// NewViolation constructs a validated record. Type and severity must be
// defined enum values; anything else indicates a detector bug and is
// rejected here rather than persisted.
func NewViolation(userID string, vtype ViolationType, severity Severity, ts time.Time) (*ViolationRecord, error) {
	if userID == "" {
		return nil, fmt.Errorf("violation requires a user id")
	}
	if !vtype.Valid() {
		return nil, fmt.Errorf("invalid violation type %q", vtype)
	}
	if !severity.Valid() {
		return nil, fmt.Errorf("invalid severity %d", severity)
	}
	return &ViolationRecord{
		ID:        uuid.New().String(),
		UserID:    userID,
		Type:      vtype,
		Severity:  severity,
		Timestamp: ts,
		Evidence:  make(map[string]string),
	}, nil
}

// WithEvidence attaches an evidence key/value and returns the record for
// chaining during construction. Not for use after the record entered a
// history.
func (v *ViolationRecord) WithEvidence(key, value string) *ViolationRecord {
	if v.Evidence == nil {
		v.Evidence = make(map[string]string)
	}
	v.Evidence[key] = value
	return v
}
