// ModSentry - Behavioral Moderation and Trust Engine for Chat Platforms
// Copyright 2026 ModSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modsentry/modsentry

// Package escalation maps a primary violation plus the user's trust
// standing to a concrete punishment decision. Decide is a pure function
// of its inputs: same profile, same violations, same decision.
package escalation

import (
	"fmt"
	"math"
	"time"

	"github.com/modsentry/modsentry/internal/profile"
)

// ActionType is the concrete moderation action a decision names.
type ActionType string

const (
	ActionSupportive ActionType = "supportive"
	ActionReminder   ActionType = "reminder"
	ActionWarning    ActionType = "warning"
	ActionTimeout    ActionType = "timeout"
	ActionKick       ActionType = "kick"
	ActionBan        ActionType = "ban"
)

// Punishment level bounds and the level at which timeouts begin.
const (
	LevelMin          = 0
	LevelMax          = 7
	levelTimeoutFloor = 3
)

// escalation caps: each punitive violation in the last 24h adds half a
// level, at most two full levels.
const (
	escalationPerRecent = 0.5
	escalationCap       = 2.0
	recentWindow        = 24 * time.Hour
)

// Decision is the outcome of one evaluation. Produced fresh every time;
// persisted only in the audit trail.
type Decision struct {
	Action    ActionType    `json:"action"`
	Duration  time.Duration `json:"duration,omitempty"`
	Level     int           `json:"level"`
	Rationale string        `json:"rationale"`
}

// Config maps punishment levels to concrete timeout durations and selects
// the terminal action.
type Config struct {
	TimeoutLevel3 time.Duration
	TimeoutLevel4 time.Duration
	TimeoutLevel5 time.Duration
	TimeoutLevel6 time.Duration

	// MaxLevelPolicy is "kick" or "ban", the level-7 action.
	MaxLevelPolicy string
}

// DefaultConfig returns the default level table.
func DefaultConfig() Config {
	return Config{
		TimeoutLevel3:  5 * time.Minute,
		TimeoutLevel4:  30 * time.Minute,
		TimeoutLevel5:  2 * time.Hour,
		TimeoutLevel6:  6 * time.Hour,
		MaxLevelPolicy: "kick",
	}
}

// timeoutFor returns the timeout duration for levels 3..6.
func (c Config) timeoutFor(level int) time.Duration {
	switch level {
	case 3:
		return c.TimeoutLevel3
	case 4:
		return c.TimeoutLevel4
	case 5:
		return c.TimeoutLevel5
	default:
		return c.TimeoutLevel6
	}
}

// Engine is the deterministic punishment state machine.
type Engine struct {
	cfg Config
}

// NewEngine creates an escalation engine over a validated config.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Config returns the active level table.
func (e *Engine) Config() Config { return e.cfg }

// Decide maps the primary violation and profile standing to a punishment.
// The profile snapshot already includes the violation being judged, so
// the recent-violation count covers it.
//
// final = clamp(round(severity + min(recent*0.5, 2.0) + (100-trust)/100), 0, 7)
//
// Critical severity forces at least a timeout regardless of the computed
// level; emotional distress always resolves to a supportive response.
func (e *Engine) Decide(p *profile.SecurityProfile, primary *profile.ViolationRecord, all []*profile.ViolationRecord, now time.Time) Decision {
	if primary == nil || primary.Type == profile.ViolationDistress {
		return Decision{
			Action:    ActionSupportive,
			Level:     LevelMin,
			Rationale: "distress signal, supportive response without punishment",
		}
	}

	base := float64(primary.Severity)

	recent := p.RecentViolations(recentWindow, now)
	esc := float64(recent) * escalationPerRecent
	if esc > escalationCap {
		esc = escalationCap
	}

	trustFactor := (profile.TrustMax - p.TrustScore) / profile.TrustMax

	level := int(math.Round(base + esc + trustFactor))
	if level < LevelMin {
		level = LevelMin
	}
	if level > LevelMax {
		level = LevelMax
	}

	floored := false
	if primary.Severity == profile.SeverityCritical && level < levelTimeoutFloor {
		level = levelTimeoutFloor
		floored = true
	}

	d := Decision{Level: level}
	switch {
	case level <= 1:
		d.Action = ActionReminder
	case level == 2:
		d.Action = ActionWarning
	case level <= 6:
		d.Action = ActionTimeout
		d.Duration = e.cfg.timeoutFor(level)
	default:
		if e.cfg.MaxLevelPolicy == "ban" {
			d.Action = ActionBan
		} else {
			d.Action = ActionKick
		}
	}

	d.Rationale = fmt.Sprintf(
		"%s severity %d, %d recent violation(s) (+%.1f), trust %.1f (+%.2f) -> level %d",
		primary.Type, primary.Severity, recent, esc, p.TrustScore, trustFactor, level,
	)
	if floored {
		d.Rationale += ", raised to timeout floor for critical severity"
	}
	return d
}
