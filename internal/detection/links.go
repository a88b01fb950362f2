// ModSentry - Behavioral Moderation and Trust Engine for Chat Platforms
// Copyright 2026 ModSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modsentry/modsentry

package detection

import (
	"context"

	"github.com/modsentry/modsentry/internal/logging"
	"github.com/modsentry/modsentry/internal/patterns"
	"github.com/modsentry/modsentry/internal/profile"
)

// LinkReputationDetector flags URLs pointing at blacklisted domains,
// shorteners and platform lookalikes. An optional external reputation
// source covers domains the static lists miss; its failures downgrade to
// unknown, never to malicious.
type LinkReputationDetector struct {
	// Intel is optional. When nil only the static library lists apply.
	Intel DomainIntel
}

func (d *LinkReputationDetector) Name() string { return "link_reputation" }

func (d *LinkReputationDetector) Check(ctx context.Context, ev *Evaluation) (*Finding, error) {
	urls := ev.Library.ExtractURLs(ev.Message.Content, ev.Message.URLs)
	if len(urls) == 0 {
		return nil, nil
	}

	for _, raw := range urls {
		domain := patterns.Domain(raw)
		if domain == "" {
			continue
		}

		class := ev.Library.ClassifyDomain(domain)
		if class != patterns.DomainClean {
			return NewFinding(profile.ViolationMaliciousLinks, profile.SeveritySerious).
				WithEvidence("domain", domain).
				WithEvidence("classification", class.String()), nil
		}

		if d.Intel == nil {
			continue
		}
		malicious, err := d.Intel.IsMaliciousDomain(ctx, domain)
		if err != nil {
			// Best effort: unknown is not malicious.
			logging.Debug().Err(err).Str("domain", domain).Msg("domain reputation lookup degraded")
			continue
		}
		if malicious {
			return NewFinding(profile.ViolationMaliciousLinks, profile.SeveritySerious).
				WithEvidence("domain", domain).
				WithEvidence("classification", "threat_intel"), nil
		}
	}
	return nil, nil
}
