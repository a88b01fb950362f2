// ModSentry - Behavioral Moderation and Trust Engine for Chat Platforms
// Copyright 2026 ModSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modsentry/modsentry

package cache

import (
	"testing"
)

func buildTestAutomaton() *AhoCorasick {
	ac := NewAhoCorasick()
	ac.AddPattern("free nitro", "phishing")
	ac.AddPattern("nitro", "phishing")
	ac.AddPattern("verify your account", "phishing")
	ac.Build()
	return ac
}

func TestAhoCorasickSearch(t *testing.T) {
	ac := buildTestAutomaton()

	matches := ac.Search("claim your FREE NITRO today")
	if len(matches) != 2 { // "free nitro" and the embedded "nitro"
		t.Fatalf("got %d matches, want 2: %+v", len(matches), matches)
	}

	found := map[string]bool{}
	for _, m := range matches {
		found[m.Pattern] = true
		if m.Data != "phishing" {
			t.Errorf("match data = %v, want phishing", m.Data)
		}
	}
	if !found["free nitro"] || !found["nitro"] {
		t.Errorf("missing expected patterns in %v", found)
	}
}

func TestAhoCorasickCaseInsensitive(t *testing.T) {
	ac := buildTestAutomaton()
	if !ac.Contains("VERIFY YOUR ACCOUNT now") {
		t.Error("uppercase text should match case-insensitively")
	}
}

func TestAhoCorasickNoMatch(t *testing.T) {
	ac := buildTestAutomaton()
	if ac.Contains("a perfectly normal message") {
		t.Error("unexpected match in clean text")
	}
	if got := ac.Search("clean"); got != nil {
		t.Errorf("Search returned %v for clean text", got)
	}
}

func TestAhoCorasickSearchFirst(t *testing.T) {
	ac := buildTestAutomaton()

	m, ok := ac.SearchFirst("get nitro here, verify your account")
	if !ok {
		t.Fatal("expected a match")
	}
	if m.Pattern != "nitro" {
		t.Errorf("first match = %q, want nitro", m.Pattern)
	}
}

func TestAhoCorasickUnbuiltReturnsNothing(t *testing.T) {
	ac := NewAhoCorasick()
	ac.AddPattern("x", nil)
	// Build() not called
	if ac.Search("x") != nil {
		t.Error("unbuilt automaton must not match")
	}
}

func TestAhoCorasickEmptyPatternIgnored(t *testing.T) {
	ac := NewAhoCorasick()
	ac.AddPattern("", "x")
	if ac.PatternCount() != 0 {
		t.Errorf("empty pattern was stored, count = %d", ac.PatternCount())
	}
}

func TestAhoCorasickOverlapping(t *testing.T) {
	ac := NewAhoCorasick()
	ac.AddPattern("he", 1)
	ac.AddPattern("she", 2)
	ac.AddPattern("hers", 3)
	ac.Build()

	matches := ac.Search("ushers")
	// "she", "he", "hers" all occur in "ushers".
	if len(matches) != 3 {
		t.Errorf("got %d matches in ushers, want 3: %+v", len(matches), matches)
	}
}
