// ModSentry - Behavioral Moderation and Trust Engine for Chat Platforms
// Copyright 2026 ModSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modsentry/modsentry

package profile

import (
	"testing"
	"time"
)

func TestNewProfileDefaults(t *testing.T) {
	now := time.Now()
	p := New("u1", "g1", now)

	if p.TrustScore != TrustStart {
		t.Errorf("trust score = %v, want %v", p.TrustScore, TrustStart)
	}
	if !p.IsTrusted(70) {
		t.Error("fresh profile must be trusted at threshold 70")
	}
	if p.Key() != "g1/u1" {
		t.Errorf("key = %q, want g1/u1", p.Key())
	}
	if New("u1", "", now).Key() != "u1" {
		t.Error("guild-less key must be the bare user id")
	}
}

func TestIsTrustedDerivedFromScore(t *testing.T) {
	p := New("u1", "", time.Now())
	p.TrustScore = 69.9
	if p.IsTrusted(70) {
		t.Error("69.9 must not be trusted at threshold 70")
	}
	p.TrustScore = 70
	if !p.IsTrusted(70) {
		t.Error("70 must be trusted at threshold 70")
	}
}

func TestAppendViolationBounded(t *testing.T) {
	p := New("u1", "", time.Now())
	for i := 0; i < 10; i++ {
		v, err := NewViolation("u1", ViolationSpam, SeverityModerate, time.Now().Add(time.Duration(i)*time.Second))
		if err != nil {
			t.Fatalf("NewViolation: %v", err)
		}
		p.AppendViolation(*v, 5)
	}

	if len(p.ViolationHistory) != 5 {
		t.Fatalf("history length = %d, want 5", len(p.ViolationHistory))
	}
	// Oldest dropped first: the remaining records are the 5 newest.
	first := p.ViolationHistory[0].Timestamp
	last := p.ViolationHistory[4].Timestamp
	if !last.After(first) {
		t.Error("history must remain time-ordered")
	}
}

func TestPruneHistory(t *testing.T) {
	now := time.Now()
	p := New("u1", "", now)

	old, _ := NewViolation("u1", ViolationSpam, SeverityMinor, now.Add(-8*24*time.Hour))
	recent, _ := NewViolation("u1", ViolationSpam, SeverityMinor, now.Add(-time.Hour))
	p.AppendViolation(*old, 0)
	p.AppendViolation(*recent, 0)

	removed := p.PruneHistory(7*24*time.Hour, now)
	if removed != 1 {
		t.Errorf("pruned %d records, want 1", removed)
	}
	if len(p.ViolationHistory) != 1 || p.ViolationHistory[0].ID != recent.ID {
		t.Error("recent record must survive the prune")
	}
}

func TestRecentViolationsSkipsDistress(t *testing.T) {
	now := time.Now()
	p := New("u1", "", now)

	spam, _ := NewViolation("u1", ViolationSpam, SeverityModerate, now.Add(-time.Hour))
	distress, _ := NewViolation("u1", ViolationDistress, SeverityMinor, now.Add(-30*time.Minute))
	stale, _ := NewViolation("u1", ViolationSpam, SeverityModerate, now.Add(-48*time.Hour))
	p.AppendViolation(*stale, 0)
	p.AppendViolation(*spam, 0)
	p.AppendViolation(*distress, 0)

	if got := p.RecentViolations(24*time.Hour, now); got != 1 {
		t.Errorf("recent violations = %d, want 1 (distress and stale excluded)", got)
	}
}

func TestInQuarantine(t *testing.T) {
	now := time.Now()
	p := New("u1", "", now)

	if p.InQuarantine(now) {
		t.Error("fresh profile must not be quarantined")
	}

	until := now.Add(time.Hour)
	p.QuarantineUntil = &until
	if !p.InQuarantine(now) {
		t.Error("unexpired quarantine must report true")
	}
	if p.InQuarantine(now.Add(2 * time.Hour)) {
		t.Error("expired quarantine must report false")
	}
}

func TestCloneIsDeep(t *testing.T) {
	now := time.Now()
	p := New("u1", "g1", now)
	v, _ := NewViolation("u1", ViolationSpam, SeverityModerate, now)
	p.AppendViolation(*v, 0)
	p.Aggregates.ObserveMessage(10, "c1")

	cp := p.Clone()
	cp.ViolationHistory[0].Type = ViolationPhishing
	cp.Aggregates.Channels["c2"] = struct{}{}
	cp.TrustScore = 1

	if p.ViolationHistory[0].Type != ViolationSpam {
		t.Error("clone shares violation history with original")
	}
	if _, ok := p.Aggregates.Channels["c2"]; ok {
		t.Error("clone shares channel set with original")
	}
	if p.TrustScore != TrustStart {
		t.Error("clone shares scalar state with original")
	}
}

func TestObserveMessageAggregates(t *testing.T) {
	var a BehavioralAggregates
	a.ObserveMessage(10, "c1")
	a.ObserveMessage(20, "c2")
	a.ObserveMessage(30, "c1")

	if a.MessageCount != 3 {
		t.Errorf("message count = %d, want 3", a.MessageCount)
	}
	if a.AvgMessageLength != 20 {
		t.Errorf("avg length = %v, want 20", a.AvgMessageLength)
	}
	if a.ChannelDiversity() != 2 {
		t.Errorf("channel diversity = %d, want 2", a.ChannelDiversity())
	}
}

func TestNewViolationValidation(t *testing.T) {
	now := time.Now()
	if _, err := NewViolation("", ViolationSpam, SeverityMinor, now); err == nil {
		t.Error("empty user id must be rejected")
	}
	if _, err := NewViolation("u1", ViolationType("bogus"), SeverityMinor, now); err == nil {
		t.Error("unknown violation type must be rejected")
	}
	if _, err := NewViolation("u1", ViolationSpam, Severity(9), now); err == nil {
		t.Error("out-of-range severity must be rejected")
	}
}

func TestClampTrust(t *testing.T) {
	p := New("u1", "", time.Now())
	p.TrustScore = -10
	p.ClampTrust()
	if p.TrustScore != TrustMin {
		t.Errorf("clamped low = %v, want %v", p.TrustScore, TrustMin)
	}
	p.TrustScore = 250
	p.ClampTrust()
	if p.TrustScore != TrustMax {
		t.Errorf("clamped high = %v, want %v", p.TrustScore, TrustMax)
	}
}

func TestPrimaryPriorityOrdering(t *testing.T) {
	if ViolationDistress.PrimaryPriority() >= ViolationHateSpeech.PrimaryPriority() {
		t.Error("distress must rank below hate speech")
	}
	if !ViolationDistress.Punitive() == false {
		t.Error("distress must be non-punitive")
	}
	if !ViolationSpam.Punitive() {
		t.Error("spam must be punitive")
	}
}
