// ModSentry - Behavioral Moderation and Trust Engine for Chat Platforms
// Copyright 2026 ModSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modsentry/modsentry

package detection

import (
	"context"

	"github.com/modsentry/modsentry/internal/profile"
)

// IdenticalSpamDetector fires when the same content fingerprint repeats
// enough times inside the spam window. The current message is already in
// the window when Check runs, so the count includes it.
type IdenticalSpamDetector struct{}

func (d *IdenticalSpamDetector) Name() string { return "identical_spam" }

func (d *IdenticalSpamDetector) Check(_ context.Context, ev *Evaluation) (*Finding, error) {
	matches := ev.Tracker.CountMatching(ev.Message.UserID, ev.Fingerprint, ev.Config.SpamWindow, ev.Now)
	if matches < ev.Config.SpamThreshold {
		return nil, nil
	}
	return NewFinding(profile.ViolationSpam, profile.SeverityModerate).
		WithEvidenceInt("identical_count", matches).
		WithEvidenceInt("threshold", ev.Config.SpamThreshold).
		WithEvidence("window", ev.Config.SpamWindow.String()), nil
}

// RapidFireDetector fires when the user exceeds the distinct-message rate
// inside the short rapid window, regardless of content.
type RapidFireDetector struct{}

func (d *RapidFireDetector) Name() string { return "rapid_fire" }

func (d *RapidFireDetector) Check(_ context.Context, ev *Evaluation) (*Finding, error) {
	recent := ev.Tracker.CountRecent(ev.Message.UserID, ev.Config.RapidWindow, ev.Now)
	if recent <= ev.Config.RapidLimit {
		return nil, nil
	}
	return NewFinding(profile.ViolationSpam, profile.SeverityMinor).
		WithEvidenceInt("recent_count", recent).
		WithEvidenceInt("limit", ev.Config.RapidLimit).
		WithEvidence("window", ev.Config.RapidWindow.String()), nil
}
