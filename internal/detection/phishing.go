// ModSentry - Behavioral Moderation and Trust Engine for Chat Platforms
// Copyright 2026 ModSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modsentry/modsentry

package detection

import (
	"context"
	"strings"

	"github.com/modsentry/modsentry/internal/profile"
)

// PhishingDetector scores lure keywords plus urgency framing. One strong
// lure or a weak lure under time pressure crosses the threshold.
type PhishingDetector struct{}

func (d *PhishingDetector) Name() string { return "phishing" }

func (d *PhishingDetector) Check(_ context.Context, ev *Evaluation) (*Finding, error) {
	score, matched := ev.Library.PhishingScore(ev.Message.Content)
	if score < ev.Config.PhishingScoreThreshold {
		return nil, nil
	}
	return NewFinding(profile.ViolationPhishing, profile.SeverityCritical).
		WithEvidenceInt("score", score).
		WithEvidenceInt("threshold", ev.Config.PhishingScoreThreshold).
		WithEvidence("matched", strings.Join(matched, ",")), nil
}
