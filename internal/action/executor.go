// ModSentry - Behavioral Moderation and Trust Engine for Chat Platforms
// Copyright 2026 ModSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modsentry/modsentry

// Package action carries decided punishments out on the hosting platform.
// The executor is the trust boundary: everything before it is pure
// computation, everything behind it is the platform's problem.
package action

import (
	"context"
	"fmt"

	"github.com/modsentry/modsentry/internal/detection"
	"github.com/modsentry/modsentry/internal/escalation"
	"github.com/modsentry/modsentry/internal/profile"
)

// Request is one moderation action to apply on the platform.
type Request struct {
	Message  *detection.ChatMessage   `json:"message"`
	Decision escalation.Decision      `json:"decision"`
	Primary  *profile.ViolationRecord `json:"primary,omitempty"`

	TrustScore float64           `json:"trust_score"`
	RiskLevel  profile.RiskLevel `json:"risk_level"`

	// DeleteMessage requests removal of the offending message. It is a
	// platform no-op when the message is already gone.
	DeleteMessage bool `json:"delete_message"`
}

// Executor applies a decided action on the hosting platform.
type Executor interface {
	// Apply performs the action. A returned error means punishment was
	// decided but not applied; callers must surface it, never drop it.
	Apply(ctx context.Context, req *Request) error

	// Name identifies the executor in logs and audit records.
	Name() string
}

// ExecutionError reports a decided action that could not be applied.
type ExecutionError struct {
	Action   escalation.ActionType
	Executor string
	Err      error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("action %s via %s not applied: %v", e.Action, e.Executor, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// NopExecutor accepts every action without doing anything. Used when no
// platform endpoint is configured, so decisions still flow to the audit
// trail.
type NopExecutor struct{}

func (NopExecutor) Name() string { return "nop" }

func (NopExecutor) Apply(context.Context, *Request) error { return nil }
