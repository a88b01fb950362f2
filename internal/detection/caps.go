// ModSentry - Behavioral Moderation and Trust Engine for Chat Platforms
// Copyright 2026 ModSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modsentry/modsentry

package detection

import (
	"context"
	"fmt"
	"unicode"

	"github.com/modsentry/modsentry/internal/profile"
)

// CapsAbuseDetector flags shouting: messages past a minimum length whose
// letters are overwhelmingly uppercase. The ratio only counts cased
// letters so digits, emoji and CJK text cannot trip it.
type CapsAbuseDetector struct{}

func (d *CapsAbuseDetector) Name() string { return "caps_abuse" }

func (d *CapsAbuseDetector) Check(_ context.Context, ev *Evaluation) (*Finding, error) {
	upper, letters := 0, 0
	for _, r := range ev.Message.Content {
		switch {
		case unicode.IsUpper(r):
			upper++
			letters++
		case unicode.IsLower(r):
			letters++
		}
	}

	if letters < ev.Config.CapsMinLength {
		return nil, nil
	}
	ratio := float64(upper) / float64(letters)
	if ratio < ev.Config.CapsRatio {
		return nil, nil
	}
	return NewFinding(profile.ViolationCapsAbuse, profile.SeverityMinor).
		WithEvidence("caps_ratio", fmt.Sprintf("%.2f", ratio)).
		WithEvidenceInt("letters", letters), nil
}
