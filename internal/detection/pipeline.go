// ModSentry - Behavioral Moderation and Trust Engine for Chat Platforms
// Copyright 2026 ModSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modsentry/modsentry

// Package detection evaluates inbound chat messages against the full rule
// set and produces violation records. Detectors are independent and
// fail-open: a broken or slow rule degrades to no finding and never
// blocks the rest of the pipeline.
package detection

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/modsentry/modsentry/internal/logging"
	"github.com/modsentry/modsentry/internal/metrics"
	"github.com/modsentry/modsentry/internal/patterns"
	"github.com/modsentry/modsentry/internal/profile"
)

// Pipeline runs every registered detector against one message plus a
// snapshot of the sender's profile. It owns the sliding window tracker;
// the single tracker append per message happens here, before detectors
// run, so frequency counts include the message under evaluation.
type Pipeline struct {
	library   *patterns.Library
	tracker   *SlidingWindowTracker
	cfg       Config
	detectors []Detector
}

// NewPipeline wires the default detector set. intel may be nil, which
// disables external domain reputation and keeps the static lists.
func NewPipeline(library *patterns.Library, cfg Config, intel DomainIntel) *Pipeline {
	return &Pipeline{
		library: library,
		tracker: NewSlidingWindowTracker(cfg.WindowCapacity),
		cfg:     cfg,
		detectors: []Detector{
			&IdenticalSpamDetector{},
			&RapidFireDetector{},
			&NearDuplicateDetector{},
			&CapsAbuseDetector{},
			&MentionSpamDetector{},
			&ToxicityDetector{},
			&LinkReputationDetector{Intel: intel},
			&PhishingDetector{},
			&DistressDetector{},
		},
	}
}

// Tracker exposes the window tracker for the periodic sweep.
func (p *Pipeline) Tracker() *SlidingWindowTracker { return p.tracker }

// Library returns the shared pattern library.
func (p *Pipeline) Library() *patterns.Library { return p.library }

// detectorResult carries one detector's outcome across the goroutine
// boundary.
type detectorResult struct {
	name    string
	finding *Finding
	err     error
	started time.Time
}

// Evaluate runs all detectors against one message. It never fails as a
// whole: individual detector errors and timeouts are reported in
// Result.Degraded and logged, and the message is judged on the detectors
// that completed.
func (p *Pipeline) Evaluate(ctx context.Context, msg *ChatMessage, prof *profile.SecurityProfile) *Result {
	start := time.Now()

	now := msg.Timestamp
	if now.IsZero() {
		now = start
	}

	ev := &Evaluation{
		Message:     msg,
		Profile:     prof,
		Library:     p.library,
		Tracker:     p.tracker,
		Config:      p.cfg,
		Fingerprint: Fingerprint(msg.Content),
		Tokens:      Tokenize(msg.Content),
		Now:         now,
	}

	p.tracker.Record(msg.UserID, WindowEntry{
		Fingerprint: ev.Fingerprint,
		Timestamp:   now,
		ChannelID:   msg.ChannelID,
		Tokens:      ev.Tokens,
	})

	findings, degraded := p.runDetectors(ctx, ev)

	res := &Result{Degraded: degraded}
	for _, f := range findings {
		rec, err := profile.NewViolation(msg.UserID, f.Type, f.Severity, now)
		if err != nil {
			logging.Error().Err(err).Str("type", string(f.Type)).Msg("detector produced invalid violation")
			continue
		}
		rec.GuildID = msg.GuildID
		rec.ChannelID = msg.ChannelID
		rec.MessageExcerpt = logging.Excerpt(msg.Content)
		for k, v := range f.Evidence {
			rec.Evidence[k] = v
		}

		res.Violations = append(res.Violations, rec)
		if f.Type == profile.ViolationDistress {
			res.Distress = true
		}
		metrics.ViolationsDetected.WithLabelValues(string(rec.Type), rec.Severity.String()).Inc()
	}

	orderViolations(res.Violations)
	if len(res.Violations) > 0 {
		res.Primary = res.Violations[0]
	}
	return res
}

// runDetectors executes every detector concurrently, each under its own
// timeout. A detector that panics, errors or overruns counts as degraded.
func (p *Pipeline) runDetectors(ctx context.Context, ev *Evaluation) ([]*Finding, []string) {
	results := make(chan detectorResult, len(p.detectors))

	for _, d := range p.detectors {
		go func(d Detector) {
			started := time.Now()
			dctx, cancel := context.WithTimeout(ctx, p.cfg.DetectorTimeout)
			defer cancel()

			done := make(chan detectorResult, 1)
			go func() {
				defer func() {
					if r := recover(); r != nil {
						done <- detectorResult{name: d.Name(), err: fmt.Errorf("detector panic: %v", r), started: started}
					}
				}()
				f, err := d.Check(dctx, ev)
				done <- detectorResult{name: d.Name(), finding: f, err: err, started: started}
			}()

			select {
			case r := <-done:
				results <- r
			case <-dctx.Done():
				results <- detectorResult{name: d.Name(), err: dctx.Err(), started: started}
			}
		}(d)
	}

	var findings []*Finding
	var degraded []string
	for range p.detectors {
		r := <-results
		metrics.ObserveDetector(r.name, r.started, r.err != nil)
		if r.err != nil {
			degraded = append(degraded, r.name)
			logging.Warn().Err(r.err).Str("detector", r.name).Msg("detector degraded, continuing without it")
			continue
		}
		if r.finding != nil {
			findings = append(findings, r.finding)
		}
	}
	sort.Strings(degraded)
	return findings, degraded
}

// orderViolations sorts primary-first: highest severity wins, severity
// ties go to the higher type priority, and equal priorities fall back to
// the type name so ordering stays deterministic.
func orderViolations(violations []*profile.ViolationRecord) {
	sort.SliceStable(violations, func(i, j int) bool {
		a, b := violations[i], violations[j]
		if a.Severity != b.Severity {
			return a.Severity > b.Severity
		}
		if pa, pb := a.Type.PrimaryPriority(), b.Type.PrimaryPriority(); pa != pb {
			return pa > pb
		}
		return a.Type < b.Type
	})
}
