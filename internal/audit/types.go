// ModSentry - Behavioral Moderation and Trust Engine for Chat Platforms
// Copyright 2026 ModSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modsentry/modsentry

// Package audit records moderation events for compliance review and
// incident forensics. Every violation, decision, and enforcement action
// flows through here so a moderator can reconstruct exactly why a user
// was punished.
package audit

import (
	"context"
	"time"

	"github.com/goccy/go-json"
)

// EventType categorizes audit events.
type EventType string

const (
	// Detection events
	EventTypeViolationRecorded EventType = "violation.recorded"
	EventTypeDetectorDegraded  EventType = "detector.degraded"

	// Decision events
	EventTypeDecisionIssued EventType = "decision.issued"

	// Enforcement events
	EventTypeActionApplied EventType = "action.applied"
	EventTypeActionFailed  EventType = "action.failed"

	// Trust events
	EventTypeQuarantineActivated EventType = "quarantine.activated"
	EventTypeQuarantineLifted    EventType = "quarantine.lifted"

	// Persistence events
	EventTypeOutcomeUnpersisted EventType = "outcome.unpersisted"

	// Maintenance events
	EventTypeSweepCompleted EventType = "sweep.completed"

	// Configuration events
	EventTypePatternsReloaded EventType = "patterns.reloaded"
)

// Severity indicates the severity level of an audit event.
type Severity string

const (
	SeverityDebug    Severity = "debug"
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Outcome indicates whether an action succeeded or failed.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	OutcomeUnknown Outcome = "unknown"
)

// Event represents a single moderation audit event.
type Event struct {
	// ID is a unique identifier for this event.
	ID string `json:"id"`

	// Timestamp when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// Type categorizes the event.
	Type EventType `json:"type"`

	// Severity of the event.
	Severity Severity `json:"severity"`

	// Outcome indicates success or failure.
	Outcome Outcome `json:"outcome"`

	// UserID is the moderated user the event concerns.
	UserID string `json:"user_id,omitempty"`

	// GuildID is the guild the event occurred in.
	GuildID string `json:"guild_id,omitempty"`

	// MessageID is the triggering message, when there is one.
	MessageID string `json:"message_id,omitempty"`

	// Action describes what was done.
	Action string `json:"action"`

	// Description provides human-readable details.
	Description string `json:"description"`

	// Metadata contains event-specific details.
	Metadata json.RawMessage `json:"metadata,omitempty"`

	// CorrelationID links the events produced by one message evaluation.
	CorrelationID string `json:"correlation_id,omitempty"`
}

// Store defines the interface for audit event persistence.
type Store interface {
	// Save persists an audit event.
	Save(ctx context.Context, event *Event) error

	// Get retrieves an event by ID.
	Get(ctx context.Context, id string) (*Event, error)

	// Query retrieves events matching the filter.
	Query(ctx context.Context, filter QueryFilter) ([]Event, error)

	// Count returns the number of events matching the filter.
	Count(ctx context.Context, filter QueryFilter) (int64, error)

	// Delete removes events older than the retention period.
	Delete(ctx context.Context, olderThan time.Time) (int64, error)
}

// QueryFilter defines filtering options for audit queries.
type QueryFilter struct {
	// Types filters by event types.
	Types []EventType `json:"types,omitempty"`

	// Severities filters by severity levels.
	Severities []Severity `json:"severities,omitempty"`

	// Outcomes filters by outcome.
	Outcomes []Outcome `json:"outcomes,omitempty"`

	// UserID filters by moderated user.
	UserID string `json:"user_id,omitempty"`

	// GuildID filters by guild.
	GuildID string `json:"guild_id,omitempty"`

	// MessageID filters by triggering message.
	MessageID string `json:"message_id,omitempty"`

	// CorrelationID filters by correlation ID.
	CorrelationID string `json:"correlation_id,omitempty"`

	// StartTime is the beginning of the time range.
	StartTime *time.Time `json:"start_time,omitempty"`

	// EndTime is the end of the time range.
	EndTime *time.Time `json:"end_time,omitempty"`

	// SearchText performs a text search on description and action.
	SearchText string `json:"search_text,omitempty"`

	// Limit is the maximum number of results.
	Limit int `json:"limit,omitempty"`

	// Offset for pagination.
	Offset int `json:"offset,omitempty"`

	// OrderBy specifies the sort field.
	OrderBy string `json:"order_by,omitempty"`

	// OrderDesc sorts in descending order.
	OrderDesc bool `json:"order_desc,omitempty"`
}

// DefaultQueryFilter returns a sensible default filter.
func DefaultQueryFilter() QueryFilter {
	return QueryFilter{
		Limit:     100,
		OrderBy:   "timestamp",
		OrderDesc: true,
	}
}
