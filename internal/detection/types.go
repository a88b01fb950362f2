// ModSentry - Behavioral Moderation and Trust Engine for Chat Platforms
// Copyright 2026 ModSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modsentry/modsentry

package detection

import (
	"context"
	"strconv"
	"time"

	"github.com/modsentry/modsentry/internal/patterns"
	"github.com/modsentry/modsentry/internal/profile"
)

// ChatMessage is the inbound event evaluated by the pipeline. It is the
// platform-neutral form of whatever the gateway delivered.
type ChatMessage struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	GuildID   string    `json:"guild_id,omitempty"`
	ChannelID string    `json:"channel_id,omitempty"`
	Content   string    `json:"content"`
	Mentions  []string  `json:"mentions,omitempty"`
	URLs      []string  `json:"urls,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Finding is one detector's positive result. The pipeline turns findings
// into profile.ViolationRecord values; detectors never touch the profile.
type Finding struct {
	Type     profile.ViolationType
	Severity profile.Severity
	Evidence map[string]string
}

// NewFinding builds a finding with an empty evidence map.
func NewFinding(vtype profile.ViolationType, severity profile.Severity) *Finding {
	return &Finding{Type: vtype, Severity: severity, Evidence: make(map[string]string)}
}

// WithEvidence attaches evidence and returns the finding for chaining.
func (f *Finding) WithEvidence(key, value string) *Finding {
	f.Evidence[key] = value
	return f
}

// WithEvidenceInt is WithEvidence for counters and scores.
func (f *Finding) WithEvidenceInt(key string, value int) *Finding {
	return f.WithEvidence(key, strconv.Itoa(value))
}

// Evaluation is the read-only view handed to every detector for one
// message: the message itself, a snapshot of the user's profile, the
// shared pattern library and the normalized forms computed once up front.
type Evaluation struct {
	Message *ChatMessage
	Profile *profile.SecurityProfile
	Library *patterns.Library
	Tracker *SlidingWindowTracker
	Config  Config

	// Normalized forms, computed once by the pipeline.
	Fingerprint uint64
	Tokens      []string
	Now         time.Time
}

// Detector is one independent detection rule. Check returns a nil finding
// when the rule does not fire; an error means the rule degraded and the
// pipeline continues without it.
type Detector interface {
	// Name identifies the detector in logs and metrics.
	Name() string

	// Check evaluates one message. Detectors are side-effect-free; the
	// pipeline owns the single tracker append per message.
	Check(ctx context.Context, ev *Evaluation) (*Finding, error)
}

// Result is the pipeline output for one message.
type Result struct {
	// Violations holds every record the detectors produced, primary first.
	Violations []*profile.ViolationRecord

	// Primary is the record escalation acts on: highest severity, ties
	// broken by type priority. Nil when nothing fired.
	Primary *profile.ViolationRecord

	// Distress is set when a crisis signal matched; the caller routes the
	// message to supportive handling.
	Distress bool

	// Degraded lists detectors that failed or timed out on this message.
	Degraded []string
}

// Config holds every detector threshold. The zero value is not usable;
// start from DefaultConfig.
type Config struct {
	SpamThreshold int
	SpamWindow    time.Duration

	RapidLimit  int
	RapidWindow time.Duration

	NearDupSimilarity float64
	NearDupMatches    int

	CapsRatio     float64
	CapsMinLength int

	MentionLimit   int
	MentionSerious int

	PhishingScoreThreshold int

	WindowCapacity  int
	DetectorTimeout time.Duration
}

// DefaultConfig returns the thresholds used when configuration does not
// override them.
func DefaultConfig() Config {
	return Config{
		SpamThreshold:          3,
		SpamWindow:             30 * time.Second,
		RapidLimit:             6,
		RapidWindow:            10 * time.Second,
		NearDupSimilarity:      0.7,
		NearDupMatches:         2,
		CapsRatio:              0.8,
		CapsMinLength:          12,
		MentionLimit:           5,
		MentionSerious:         10,
		PhishingScoreThreshold: 4,
		WindowCapacity:         64,
		DetectorTimeout:        25 * time.Millisecond,
	}
}

// MaxWindow returns the longest configured window, the horizon the sweep
// uses when evicting stale tracker entries.
func (c Config) MaxWindow() time.Duration {
	if c.RapidWindow > c.SpamWindow {
		return c.RapidWindow
	}
	return c.SpamWindow
}

// DomainIntel is the optional external reputation lookup used by the link
// detector. Implementations must bound their latency; the detector treats
// errors and timeouts as unknown, never as malicious.
type DomainIntel interface {
	IsMaliciousDomain(ctx context.Context, domain string) (bool, error)
}
