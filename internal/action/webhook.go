// ModSentry - Behavioral Moderation and Trust Engine for Chat Platforms
// Copyright 2026 ModSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modsentry/modsentry

package action

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/modsentry/modsentry/internal/metrics"
)

// WebhookConfig configures the platform webhook executor.
type WebhookConfig struct {
	// URL is the platform endpoint that applies moderation actions.
	URL string

	// AuthToken is sent as a bearer token when set.
	AuthToken string

	Timeout time.Duration

	// RateLimitMs spaces deliveries so a raid does not hammer the
	// platform API.
	RateLimitMs int
}

// webhookPayload is the JSON body delivered to the platform endpoint.
type webhookPayload struct {
	Request   *Request  `json:"request"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
}

// WebhookExecutor delivers actions to a platform adapter over HTTP.
type WebhookExecutor struct {
	cfg    WebhookConfig
	client *http.Client

	mu       sync.Mutex
	lastSent time.Time
}

// NewWebhookExecutor builds the executor. The URL is required; timeout
// defaults to 10s and rate limit to 200ms when unset.
func NewWebhookExecutor(cfg WebhookConfig) (*WebhookExecutor, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("action: webhook URL is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RateLimitMs <= 0 {
		cfg.RateLimitMs = 200
	}
	return &WebhookExecutor{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (e *WebhookExecutor) Name() string { return "webhook" }

// Apply posts the action to the platform endpoint. A non-2xx response is
// an ExecutionError; the platform treats deletes of already-removed
// messages as no-ops on its side.
func (e *WebhookExecutor) Apply(ctx context.Context, req *Request) error {
	if err := e.throttle(ctx); err != nil {
		return &ExecutionError{Action: req.Decision.Action, Executor: e.Name(), Err: err}
	}

	payload := webhookPayload{
		Request:   req,
		EventType: "moderation_action",
		Timestamp: time.Now().UTC(),
		Source:    "modsentry",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return &ExecutionError{Action: req.Decision.Action, Executor: e.Name(), Err: fmt.Errorf("marshal payload: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return &ExecutionError{Action: req.Decision.Action, Executor: e.Name(), Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if e.cfg.AuthToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+e.cfg.AuthToken)
	}

	resp, err := e.client.Do(httpReq)
	if err != nil {
		metrics.ActionFailures.WithLabelValues(string(req.Decision.Action)).Inc()
		return &ExecutionError{Action: req.Decision.Action, Executor: e.Name(), Err: err}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	e.mu.Lock()
	e.lastSent = time.Now()
	e.mu.Unlock()

	if resp.StatusCode >= 400 {
		metrics.ActionFailures.WithLabelValues(string(req.Decision.Action)).Inc()
		return &ExecutionError{
			Action:   req.Decision.Action,
			Executor: e.Name(),
			Err:      fmt.Errorf("platform returned status %d", resp.StatusCode),
		}
	}

	metrics.ActionsApplied.WithLabelValues(string(req.Decision.Action)).Inc()
	return nil
}

// throttle spaces deliveries, honoring context cancellation while
// waiting.
func (e *WebhookExecutor) throttle(ctx context.Context) error {
	e.mu.Lock()
	wait := time.Duration(e.cfg.RateLimitMs)*time.Millisecond - time.Since(e.lastSent)
	e.mu.Unlock()

	if wait <= 0 {
		return nil
	}
	select {
	case <-time.After(wait):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
