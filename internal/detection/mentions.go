// ModSentry - Behavioral Moderation and Trust Engine for Chat Platforms
// Copyright 2026 ModSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modsentry/modsentry

package detection

import (
	"context"

	"github.com/modsentry/modsentry/internal/profile"
)

// MentionSpamDetector counts distinct mentioned users; mass pings are a
// minor violation that upgrades to moderate past the serious limit.
type MentionSpamDetector struct{}

func (d *MentionSpamDetector) Name() string { return "mention_spam" }

func (d *MentionSpamDetector) Check(_ context.Context, ev *Evaluation) (*Finding, error) {
	seen := make(map[string]struct{}, len(ev.Message.Mentions))
	for _, m := range ev.Message.Mentions {
		seen[m] = struct{}{}
	}
	count := len(seen)
	if count < ev.Config.MentionLimit {
		return nil, nil
	}

	severity := profile.SeverityMinor
	if count >= ev.Config.MentionSerious {
		severity = profile.SeverityModerate
	}
	return NewFinding(profile.ViolationMentionSpam, severity).
		WithEvidenceInt("mention_count", count).
		WithEvidenceInt("limit", ev.Config.MentionLimit), nil
}
