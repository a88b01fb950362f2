// ModSentry - Behavioral Moderation and Trust Engine for Chat Platforms
// Copyright 2026 ModSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modsentry/modsentry

package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestLogger_Log(t *testing.T) {
	store := NewMemoryStore(100)
	config := &Config{
		Enabled:    true,
		LogLevel:   SeverityInfo,
		BufferSize: 10,
	}
	logger := NewLogger(store, config)
	defer logger.Close()

	logger.Log(&Event{
		Type:        EventTypeViolationRecorded,
		Severity:    SeverityInfo,
		Outcome:     OutcomeSuccess,
		UserID:      "user-1",
		GuildID:     "guild-1",
		Action:      "detect",
		Description: "Violation detected: spam (moderate)",
	})

	// Wait for async write
	time.Sleep(100 * time.Millisecond)

	if store.Len() != 1 {
		t.Fatalf("expected 1 event in store, got %d", store.Len())
	}

	events, err := store.Query(context.Background(), QueryFilter{Limit: 10})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Type != EventTypeViolationRecorded {
		t.Errorf("expected type %s, got %s", EventTypeViolationRecorded, events[0].Type)
	}
	if events[0].UserID != "user-1" {
		t.Errorf("expected user ID user-1, got %s", events[0].UserID)
	}
	if events[0].ID == "" {
		t.Error("expected generated event ID")
	}
	if events[0].Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
}

func TestLogger_Disabled(t *testing.T) {
	store := NewMemoryStore(100)
	logger := NewLogger(store, &Config{Enabled: false, BufferSize: 10})
	defer logger.Close()

	logger.Log(&Event{Type: EventTypeViolationRecorded, Severity: SeverityInfo})
	time.Sleep(100 * time.Millisecond)

	if store.Len() != 0 {
		t.Error("disabled logger should not log events")
	}
}

func TestLogger_SeverityFiltering(t *testing.T) {
	store := NewMemoryStore(100)
	logger := NewLogger(store, &Config{
		Enabled:    true,
		LogLevel:   SeverityWarning,
		BufferSize: 10,
	})
	defer logger.Close()

	logger.Log(&Event{Type: EventTypeViolationRecorded, Severity: SeverityInfo})
	logger.Log(&Event{Type: EventTypeQuarantineActivated, Severity: SeverityWarning})
	logger.Log(&Event{Type: EventTypeActionFailed, Severity: SeverityError})

	time.Sleep(100 * time.Millisecond)

	if store.Len() != 2 {
		t.Errorf("expected 2 events (warning + error), got %d", store.Len())
	}
}

func TestLogger_CloseFlushesBuffer(t *testing.T) {
	store := NewMemoryStore(100)
	logger := NewLogger(store, &Config{
		Enabled:    true,
		LogLevel:   SeverityDebug,
		BufferSize: 50,
	})

	for i := 0; i < 20; i++ {
		logger.Log(&Event{Type: EventTypeDecisionIssued, Severity: SeverityInfo})
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	if store.Len() != 20 {
		t.Errorf("expected 20 events after close, got %d", store.Len())
	}
}

func TestLogger_Helpers(t *testing.T) {
	store := NewMemoryStore(100)
	logger := NewLogger(store, &Config{
		Enabled:    true,
		LogLevel:   SeverityDebug,
		BufferSize: 50,
	})

	ref := RefID{UserID: "user-9", GuildID: "guild-1", MessageID: "msg-1", CorrelationID: "corr-1"}

	logger.LogViolation(ref, "spam", "moderate", 15)
	logger.LogDecision(ref, "timeout", 4, 55, "repeat spam within window")
	logger.LogActionApplied(ref, "timeout", "webhook")
	logger.LogActionFailed(ref, "kick", "webhook", errors.New("platform returned 403"))
	logger.LogQuarantine(ref, true, 22, time.Now().Add(24*time.Hour))
	logger.LogOutcomeUnpersisted(ref, errors.New("store unavailable"))
	logger.LogSweep(3, 1, 2, 40*time.Millisecond)

	if err := logger.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	ctx := context.Background()

	count, err := store.Count(ctx, QueryFilter{})
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 7 {
		t.Fatalf("expected 7 events, got %d", count)
	}

	// Correlation links all message-scoped events
	events, err := store.Query(ctx, QueryFilter{CorrelationID: "corr-1"})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(events) != 6 {
		t.Errorf("expected 6 correlated events, got %d", len(events))
	}

	// Violation metadata carries the penalty
	violations, err := store.Query(ctx, QueryFilter{Types: []EventType{EventTypeViolationRecorded}})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(violations) != 1 {
		t.Fatalf("expected 1 violation event, got %d", len(violations))
	}
	var meta map[string]interface{}
	if err := json.Unmarshal(violations[0].Metadata, &meta); err != nil {
		t.Fatalf("metadata unmarshal failed: %v", err)
	}
	if meta["penalty"].(float64) != 15 {
		t.Errorf("expected penalty 15 in metadata, got %v", meta["penalty"])
	}

	// Failures are queryable by outcome
	failures, err := store.Query(ctx, QueryFilter{Outcomes: []Outcome{OutcomeFailure}})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(failures) != 2 {
		t.Errorf("expected 2 failure events, got %d", len(failures))
	}
}

func TestMemoryStore_Filtering(t *testing.T) {
	store := NewMemoryStore(100)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	events := []*Event{
		{ID: "a", Timestamp: base, Type: EventTypeViolationRecorded, Severity: SeverityInfo, Outcome: OutcomeSuccess, UserID: "u1", GuildID: "g1", Action: "detect", Description: "spam detected"},
		{ID: "b", Timestamp: base.Add(time.Hour), Type: EventTypeDecisionIssued, Severity: SeverityInfo, Outcome: OutcomeSuccess, UserID: "u1", GuildID: "g1", Action: "timeout", Description: "timeout issued"},
		{ID: "c", Timestamp: base.Add(2 * time.Hour), Type: EventTypeActionFailed, Severity: SeverityError, Outcome: OutcomeFailure, UserID: "u2", GuildID: "g2", Action: "kick", Description: "kick failed"},
	}
	for _, e := range events {
		if err := store.Save(ctx, e); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	byUser, err := store.Query(ctx, QueryFilter{UserID: "u1"})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(byUser) != 2 {
		t.Errorf("expected 2 events for u1, got %d", len(byUser))
	}
	// Most recent first
	if byUser[0].ID != "b" {
		t.Errorf("expected most recent event first, got %s", byUser[0].ID)
	}

	start := base.Add(30 * time.Minute)
	byTime, err := store.Query(ctx, QueryFilter{StartTime: &start})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(byTime) != 2 {
		t.Errorf("expected 2 events after start time, got %d", len(byTime))
	}

	bySearch, err := store.Query(ctx, QueryFilter{SearchText: "kick"})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(bySearch) != 1 || bySearch[0].ID != "c" {
		t.Errorf("expected search to find event c, got %v", bySearch)
	}

	deleted, err := store.Delete(ctx, base.Add(90*time.Minute))
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("expected 2 events deleted, got %d", deleted)
	}
	if store.Len() != 1 {
		t.Errorf("expected 1 event remaining, got %d", store.Len())
	}
}

func TestMemoryStore_EnforcesMaxLength(t *testing.T) {
	store := NewMemoryStore(10)
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		if err := store.Save(ctx, &Event{ID: string(rune('a' + i)), Timestamp: time.Now()}); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	if store.Len() > 10 {
		t.Errorf("expected at most 10 events, got %d", store.Len())
	}
	if _, err := store.Get(ctx, "a"); err == nil {
		t.Error("expected oldest event to be evicted")
	}
}
