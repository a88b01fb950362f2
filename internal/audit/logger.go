// ModSentry - Behavioral Moderation and Trust Engine for Chat Platforms
// Copyright 2026 ModSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modsentry/modsentry

package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/modsentry/modsentry/internal/logging"
)

// Config holds configuration for the audit logger.
type Config struct {
	// Enabled controls whether audit logging is active.
	Enabled bool `json:"enabled"`

	// LogLevel filters events by minimum severity.
	LogLevel Severity `json:"log_level"`

	// RetentionDays is how long to keep audit events.
	RetentionDays int `json:"retention_days"`

	// CleanupInterval is how often to run retention cleanup.
	CleanupInterval time.Duration `json:"cleanup_interval"`

	// BufferSize is the size of the async write buffer.
	BufferSize int `json:"buffer_size"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		LogLevel:        SeverityInfo,
		RetentionDays:   30,
		CleanupInterval: 24 * time.Hour,
		BufferSize:      256,
	}
}

// Logger is the main audit logging service. Events are buffered and
// written to the store asynchronously so the moderation hot path never
// blocks on audit persistence.
type Logger struct {
	config    *Config
	store     Store
	eventChan chan *Event
	mu        sync.RWMutex
	stopChan  chan struct{}
	wg        sync.WaitGroup
}

// NewLogger creates a new audit logger and starts its async writer.
func NewLogger(store Store, config *Config) *Logger {
	if config == nil {
		config = DefaultConfig()
	}

	l := &Logger{
		config:    config,
		store:     store,
		eventChan: make(chan *Event, config.BufferSize),
		stopChan:  make(chan struct{}),
	}

	l.wg.Add(1)
	go l.asyncWriter()

	return l
}

// asyncWriter processes events from the buffer.
func (l *Logger) asyncWriter() {
	defer l.wg.Done()

	for {
		select {
		case <-l.stopChan:
			// Drain remaining events
			for {
				select {
				case event := <-l.eventChan:
					l.writeEvent(event)
				default:
					return
				}
			}
		case event := <-l.eventChan:
			l.writeEvent(event)
		}
	}
}

// writeEvent persists an event to the store.
func (l *Logger) writeEvent(event *Event) {
	if l.store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := l.store.Save(ctx, event); err != nil {
		logging.Error().Err(err).Str("event_type", string(event.Type)).Msg("Failed to save audit event")
	}
}

// Log records an audit event. Drops the event with a warning if the
// buffer is full rather than blocking the caller.
func (l *Logger) Log(event *Event) {
	l.mu.RLock()
	config := l.config
	l.mu.RUnlock()

	if !config.Enabled {
		return
	}

	if !shouldLog(event.Severity, config.LogLevel) {
		return
	}

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case l.eventChan <- event:
	default:
		logging.Warn().Str("event_id", event.ID).Msg("Audit event buffer full, dropping event")
	}
}

// shouldLog returns true if the event severity meets the minimum level.
func shouldLog(severity, minimum Severity) bool {
	severityOrder := map[Severity]int{
		SeverityDebug:    0,
		SeverityInfo:     1,
		SeverityWarning:  2,
		SeverityError:    3,
		SeverityCritical: 4,
	}
	return severityOrder[severity] >= severityOrder[minimum]
}

// Close shuts down the logger gracefully, flushing buffered events.
func (l *Logger) Close() error {
	close(l.stopChan)
	l.wg.Wait()
	return nil
}

// StartCleanupRoutine starts the retention cleanup routine.
func (l *Logger) StartCleanupRoutine(ctx context.Context) {
	l.mu.RLock()
	interval := l.config.CleanupInterval
	retention := l.config.RetentionDays
	l.mu.RUnlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cutoff := time.Now().AddDate(0, 0, -retention)
				count, err := l.store.Delete(ctx, cutoff)
				if err != nil {
					logging.Error().Err(err).Msg("Audit cleanup error")
				} else if count > 0 {
					logging.Info().Int64("count", count).Msg("Cleaned up old audit events")
				}
			}
		}
	}()
}

// Query retrieves events matching the filter.
func (l *Logger) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	return l.store.Query(ctx, filter)
}

// Count returns the number of events matching the filter.
func (l *Logger) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	return l.store.Count(ctx, filter)
}

// Enabled returns whether audit logging is enabled.
func (l *Logger) Enabled() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.config.Enabled
}

// Helper methods for common moderation events

// RefID identifies the message and correlation an event belongs to.
type RefID struct {
	UserID        string
	GuildID       string
	MessageID     string
	CorrelationID string
}

// LogViolation records a detected violation.
func (l *Logger) LogViolation(ref RefID, violationType string, severity string, penalty int) {
	l.Log(&Event{
		Type:          EventTypeViolationRecorded,
		Severity:      SeverityInfo,
		Outcome:       OutcomeSuccess,
		UserID:        ref.UserID,
		GuildID:       ref.GuildID,
		MessageID:     ref.MessageID,
		CorrelationID: ref.CorrelationID,
		Action:        "detect",
		Description:   fmt.Sprintf("Violation detected: %s (%s)", violationType, severity),
		Metadata: mustJSON(map[string]interface{}{
			"violation_type": violationType,
			"severity":       severity,
			"penalty":        penalty,
		}),
	})
}

// LogDecision records an issued moderation decision.
func (l *Logger) LogDecision(ref RefID, action string, level int, trustScore int, rationale string) {
	l.Log(&Event{
		Type:          EventTypeDecisionIssued,
		Severity:      SeverityInfo,
		Outcome:       OutcomeSuccess,
		UserID:        ref.UserID,
		GuildID:       ref.GuildID,
		MessageID:     ref.MessageID,
		CorrelationID: ref.CorrelationID,
		Action:        action,
		Description:   rationale,
		Metadata: mustJSON(map[string]interface{}{
			"level":       level,
			"trust_score": trustScore,
		}),
	})
}

// LogActionApplied records a successfully executed enforcement action.
func (l *Logger) LogActionApplied(ref RefID, action, executor string) {
	l.Log(&Event{
		Type:          EventTypeActionApplied,
		Severity:      SeverityInfo,
		Outcome:       OutcomeSuccess,
		UserID:        ref.UserID,
		GuildID:       ref.GuildID,
		MessageID:     ref.MessageID,
		CorrelationID: ref.CorrelationID,
		Action:        action,
		Description:   "Enforcement action applied via " + executor,
	})
}

// LogActionFailed records a failed enforcement action. These events are
// critical: a decision was issued but never enforced on the platform.
func (l *Logger) LogActionFailed(ref RefID, action, executor string, err error) {
	l.Log(&Event{
		Type:          EventTypeActionFailed,
		Severity:      SeverityError,
		Outcome:       OutcomeFailure,
		UserID:        ref.UserID,
		GuildID:       ref.GuildID,
		MessageID:     ref.MessageID,
		CorrelationID: ref.CorrelationID,
		Action:        action,
		Description:   "Enforcement action failed via " + executor,
		Metadata:      mustJSON(map[string]string{"error": err.Error()}),
	})
}

// LogQuarantine records quarantine activation or lifting.
func (l *Logger) LogQuarantine(ref RefID, activated bool, trustScore int, until time.Time) {
	eventType := EventTypeQuarantineActivated
	description := "User quarantined"
	severity := SeverityWarning
	if !activated {
		eventType = EventTypeQuarantineLifted
		description = "User quarantine lifted"
		severity = SeverityInfo
	}
	l.Log(&Event{
		Type:          eventType,
		Severity:      severity,
		Outcome:       OutcomeSuccess,
		UserID:        ref.UserID,
		GuildID:       ref.GuildID,
		CorrelationID: ref.CorrelationID,
		Action:        "quarantine",
		Description:   description,
		Metadata: mustJSON(map[string]interface{}{
			"trust_score": trustScore,
			"until":       until,
		}),
	})
}

// LogOutcomeUnpersisted records an outcome that could not be saved to
// the profile store.
func (l *Logger) LogOutcomeUnpersisted(ref RefID, err error) {
	l.Log(&Event{
		Type:          EventTypeOutcomeUnpersisted,
		Severity:      SeverityError,
		Outcome:       OutcomeFailure,
		UserID:        ref.UserID,
		GuildID:       ref.GuildID,
		MessageID:     ref.MessageID,
		CorrelationID: ref.CorrelationID,
		Action:        "persist",
		Description:   "Moderation outcome could not be persisted",
		Metadata:      mustJSON(map[string]string{"error": err.Error()}),
	})
}

// LogSweep records a completed maintenance sweep.
func (l *Logger) LogSweep(trackedDropped, profilesPruned, recovered int, elapsed time.Duration) {
	l.Log(&Event{
		Type:        EventTypeSweepCompleted,
		Severity:    SeverityDebug,
		Outcome:     OutcomeSuccess,
		Action:      "sweep",
		Description: "Maintenance sweep completed",
		Metadata: mustJSON(map[string]interface{}{
			"tracker_users_dropped": trackedDropped,
			"profiles_pruned":       profilesPruned,
			"profiles_recovered":    recovered,
			"elapsed_ms":            elapsed.Milliseconds(),
		}),
	})
}

// mustJSON converts a value to JSON, returning empty object on error.
func mustJSON(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("{}")
	}
	return data
}
