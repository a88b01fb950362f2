// ModSentry - Behavioral Moderation and Trust Engine for Chat Platforms
// Copyright 2026 ModSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modsentry/modsentry

package detection

import (
	"context"

	"github.com/modsentry/modsentry/internal/profile"
)

// DistressDetector matches crisis keywords. The finding is recorded like
// any other so the history shows it, but it is never punitive: the
// pipeline routes it to supportive handling and the trust engine leaves
// the score untouched.
type DistressDetector struct{}

func (d *DistressDetector) Name() string { return "distress" }

func (d *DistressDetector) Check(_ context.Context, ev *Evaluation) (*Finding, error) {
	term, ok := ev.Library.MatchDistress(ev.Message.Content)
	if !ok {
		return nil, nil
	}
	return NewFinding(profile.ViolationDistress, profile.SeverityMinor).
		WithEvidence("term", term), nil
}
