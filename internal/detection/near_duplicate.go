// ModSentry - Behavioral Moderation and Trust Engine for Chat Platforms
// Copyright 2026 ModSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modsentry/modsentry

package detection

import (
	"context"
	"fmt"

	"github.com/modsentry/modsentry/internal/profile"
)

// NearDuplicateDetector catches lightly-reworded repeats that slip past
// the identical-fingerprint check: token-set similarity against recent
// messages, firing once enough near matches accumulate.
type NearDuplicateDetector struct{}

func (d *NearDuplicateDetector) Name() string { return "near_duplicate" }

func (d *NearDuplicateDetector) Check(_ context.Context, ev *Evaluation) (*Finding, error) {
	if len(ev.Tokens) == 0 {
		return nil, nil
	}

	entries := ev.Tracker.RecentEntries(ev.Message.UserID, ev.Config.SpamWindow, ev.Now)

	matches := 0
	best := 0.0
	for i := range entries {
		e := &entries[i]
		// Skip the entry for the message under evaluation and exact
		// repeats, which identical_spam already covers.
		if e.Fingerprint == ev.Fingerprint {
			continue
		}
		sim := TokenSimilarity(ev.Tokens, e.Tokens)
		if sim >= ev.Config.NearDupSimilarity {
			matches++
			if sim > best {
				best = sim
			}
		}
	}

	if matches < ev.Config.NearDupMatches {
		return nil, nil
	}
	return NewFinding(profile.ViolationRepeatedContent, profile.SeverityMinor).
		WithEvidenceInt("near_matches", matches).
		WithEvidence("best_similarity", fmt.Sprintf("%.2f", best)), nil
}
