// ModSentry - Behavioral Moderation and Trust Engine for Chat Platforms
// Copyright 2026 ModSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modsentry/modsentry

package detection

import (
	"fmt"
	"testing"
	"time"
)

func TestTrackerCountMatching(t *testing.T) {
	tr := NewSlidingWindowTracker(16)
	now := time.Now()
	fp := Fingerprint("gg")

	for i := 0; i < 3; i++ {
		tr.Record("u1", WindowEntry{Fingerprint: fp, Timestamp: now.Add(time.Duration(i) * time.Second)})
	}
	tr.Record("u1", WindowEntry{Fingerprint: Fingerprint("different"), Timestamp: now})
	tr.Record("u2", WindowEntry{Fingerprint: fp, Timestamp: now})

	if got := tr.CountMatching("u1", fp, 30*time.Second, now.Add(3*time.Second)); got != 3 {
		t.Errorf("CountMatching = %d, want 3", got)
	}
	if got := tr.CountRecent("u1", 30*time.Second, now.Add(3*time.Second)); got != 4 {
		t.Errorf("CountRecent = %d, want 4", got)
	}
	if got := tr.CountMatching("u2", fp, 30*time.Second, now); got != 1 {
		t.Errorf("u2 CountMatching = %d, want 1", got)
	}
	if got := tr.CountMatching("unknown", fp, 30*time.Second, now); got != 0 {
		t.Errorf("unknown user CountMatching = %d, want 0", got)
	}
}

func TestTrackerStaleEviction(t *testing.T) {
	tr := NewSlidingWindowTracker(16)
	now := time.Now()
	fp := Fingerprint("gg")

	tr.Record("u1", WindowEntry{Fingerprint: fp, Timestamp: now.Add(-2 * time.Minute)})
	tr.Record("u1", WindowEntry{Fingerprint: fp, Timestamp: now})

	if got := tr.CountMatching("u1", fp, 30*time.Second, now); got != 1 {
		t.Errorf("CountMatching after stale eviction = %d, want 1", got)
	}
}

func TestTrackerReadsDoNotEvictAcrossWindows(t *testing.T) {
	tr := NewSlidingWindowTracker(16)
	now := time.Now()
	fp := Fingerprint("gg")

	tr.Record("u1", WindowEntry{Fingerprint: fp, Timestamp: now.Add(-25 * time.Second)})
	tr.Record("u1", WindowEntry{Fingerprint: fp, Timestamp: now.Add(-15 * time.Second)})
	tr.Record("u1", WindowEntry{Fingerprint: fp, Timestamp: now})

	// A short-window read sees only the newest entry...
	if got := tr.CountRecent("u1", 10*time.Second, now); got != 1 {
		t.Errorf("CountRecent(10s) = %d, want 1", got)
	}
	// ...and must not evict the older entries a longer window still needs.
	if got := tr.CountMatching("u1", fp, 30*time.Second, now); got != 3 {
		t.Errorf("CountMatching(30s) after short-window read = %d, want 3", got)
	}
	if got := len(tr.RecentEntries("u1", 30*time.Second, now)); got != 3 {
		t.Errorf("RecentEntries(30s) after short-window read = %d, want 3", got)
	}
}

func TestTrackerCapacityBound(t *testing.T) {
	tr := NewSlidingWindowTracker(4)
	now := time.Now()

	for i := 0; i < 10; i++ {
		tr.Record("u1", WindowEntry{Fingerprint: uint64(i), Timestamp: now.Add(time.Duration(i) * time.Millisecond)})
	}

	// Only the newest four survive the ring.
	if got := tr.CountRecent("u1", time.Minute, now.Add(time.Second)); got != 4 {
		t.Errorf("CountRecent = %d, want 4", got)
	}
	if got := tr.CountMatching("u1", 9, time.Minute, now.Add(time.Second)); got != 1 {
		t.Errorf("newest entry missing after wrap")
	}
	if got := tr.CountMatching("u1", 0, time.Minute, now.Add(time.Second)); got != 0 {
		t.Errorf("oldest entry survived ring wrap")
	}
}

func TestTrackerSweep(t *testing.T) {
	tr := NewSlidingWindowTracker(8)
	now := time.Now()

	tr.Record("stale", WindowEntry{Fingerprint: 1, Timestamp: now.Add(-time.Hour)})
	tr.Record("fresh", WindowEntry{Fingerprint: 2, Timestamp: now})

	if dropped := tr.Sweep(30*time.Second, now); dropped != 1 {
		t.Errorf("Sweep dropped %d users, want 1", dropped)
	}
	if got := tr.Users(); got != 1 {
		t.Errorf("Users = %d, want 1", got)
	}
}

func TestFingerprintNormalization(t *testing.T) {
	if Fingerprint("GG  everyone") != Fingerprint(" gg everyone ") {
		t.Error("restyled content should share a fingerprint")
	}
	if Fingerprint("gg") == Fingerprint("bg") {
		t.Error("distinct content should not collide")
	}
}

func TestTokenSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		min  float64
		max  float64
	}{
		{"buy my cheap gold now", "buy my cheap gold now", 1.0, 1.0},
		{"buy my cheap gold now", "buy my cheap gold today", 0.6, 0.7},
		{"completely different words", "nothing in common here", 0, 0},
		{"", "anything", 0, 0},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q-%q", tt.a, tt.b), func(t *testing.T) {
			got := TokenSimilarity(Tokenize(tt.a), Tokenize(tt.b))
			if got < tt.min || got > tt.max {
				t.Errorf("TokenSimilarity = %.2f, want in [%.2f, %.2f]", got, tt.min, tt.max)
			}
		})
	}
}

func TestTokenizeDeduplicates(t *testing.T) {
	tokens := Tokenize("go go go team GO")
	if len(tokens) != 2 {
		t.Errorf("Tokenize = %v, want 2 unique tokens", tokens)
	}
}
