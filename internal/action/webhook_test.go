// ModSentry - Behavioral Moderation and Trust Engine for Chat Platforms
// Copyright 2026 ModSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modsentry/modsentry

package action

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/modsentry/modsentry/internal/detection"
	"github.com/modsentry/modsentry/internal/escalation"
	"github.com/modsentry/modsentry/internal/profile"
)

func testRequest() *Request {
	return &Request{
		Message: &detection.ChatMessage{
			ID:        "m1",
			UserID:    "u1",
			GuildID:   "g1",
			ChannelID: "c1",
			Content:   "spam spam spam",
			Timestamp: time.Now(),
		},
		Decision: escalation.Decision{
			Action:   escalation.ActionTimeout,
			Duration: 5 * time.Minute,
			Level:    3,
		},
		TrustScore:    55,
		RiskLevel:     profile.RiskMedium,
		DeleteMessage: true,
	}
}

func TestWebhookApply(t *testing.T) {
	var got webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer secret" {
			t.Errorf("Authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	e, err := NewWebhookExecutor(WebhookConfig{URL: srv.URL, AuthToken: "secret", RateLimitMs: 1})
	if err != nil {
		t.Fatalf("NewWebhookExecutor: %v", err)
	}

	if err := e.Apply(context.Background(), testRequest()); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got.EventType != "moderation_action" {
		t.Errorf("event_type = %q", got.EventType)
	}
	if got.Request == nil || got.Request.Decision.Action != escalation.ActionTimeout {
		t.Errorf("payload request = %+v", got.Request)
	}
	if !got.Request.DeleteMessage {
		t.Error("delete_message flag lost in transit")
	}
}

func TestWebhookApplySurfacesPlatformError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusForbidden)
	}))
	defer srv.Close()

	e, err := NewWebhookExecutor(WebhookConfig{URL: srv.URL, RateLimitMs: 1})
	if err != nil {
		t.Fatalf("NewWebhookExecutor: %v", err)
	}

	applyErr := e.Apply(context.Background(), testRequest())
	if applyErr == nil {
		t.Fatal("want error on platform rejection")
	}
	var execErr *ExecutionError
	if !errors.As(applyErr, &execErr) {
		t.Fatalf("err type = %T, want *ExecutionError", applyErr)
	}
	if execErr.Action != escalation.ActionTimeout {
		t.Errorf("ExecutionError.Action = %s", execErr.Action)
	}
}

func TestWebhookApplyRateLimitHonorsCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	e, err := NewWebhookExecutor(WebhookConfig{URL: srv.URL, RateLimitMs: 5000})
	if err != nil {
		t.Fatalf("NewWebhookExecutor: %v", err)
	}

	// First call sets lastSent; second would wait 5s.
	if err := e.Apply(context.Background(), testRequest()); err != nil {
		t.Fatalf("first Apply: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := e.Apply(ctx, testRequest()); err == nil {
		t.Fatal("want cancellation error while throttled")
	}
}

func TestNewWebhookExecutorRequiresURL(t *testing.T) {
	if _, err := NewWebhookExecutor(WebhookConfig{}); err == nil {
		t.Error("want error for missing URL")
	}
}

func TestNopExecutor(t *testing.T) {
	var e Executor = NopExecutor{}
	if err := e.Apply(context.Background(), testRequest()); err != nil {
		t.Errorf("NopExecutor.Apply = %v", err)
	}
}
