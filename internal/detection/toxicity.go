// ModSentry - Behavioral Moderation and Trust Engine for Chat Platforms
// Copyright 2026 ModSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modsentry/modsentry

package detection

import "context"

// ToxicityDetector walks the pattern library's toxicity ladder. The
// library already guarantees the most severe matching family wins, so an
// insult next to a threat reports the threat.
type ToxicityDetector struct{}

func (d *ToxicityDetector) Name() string { return "toxicity" }

func (d *ToxicityDetector) Check(_ context.Context, ev *Evaluation) (*Finding, error) {
	m, ok := ev.Library.MatchToxicity(ev.Message.Content)
	if !ok {
		return nil, nil
	}
	return NewFinding(m.Type, m.Severity).
		WithEvidence("family", m.Family).
		WithEvidence("pattern", m.Pattern), nil
}
