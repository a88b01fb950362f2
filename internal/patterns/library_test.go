// ModSentry - Behavioral Moderation and Trust Engine for Chat Platforms
// Copyright 2026 ModSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modsentry/modsentry

package patterns

import (
	"testing"

	"github.com/modsentry/modsentry/internal/profile"
)

func TestCompileDefaults(t *testing.T) {
	lib, err := Compile(Spec{})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if lib.Version != defaultVersion {
		t.Errorf("Version = %q, want %q", lib.Version, defaultVersion)
	}
	if len(lib.toxicity) != len(toxicityLadder) {
		t.Errorf("toxicity families = %d, want %d", len(lib.toxicity), len(toxicityLadder))
	}
}

func TestMatchToxicityLadder(t *testing.T) {
	lib := MustCompile()

	tests := []struct {
		name     string
		content  string
		wantType profile.ViolationType
		wantSev  profile.Severity
		wantHit  bool
	}{
		{"clean", "good game everyone, well played", "", 0, false},
		{"insult", "wow YOU IDIOT that was terrible", profile.ViolationToxicity, profile.SeverityModerate, true},
		{"harassment", "seriously, nobody wants you here", profile.ViolationHarassment, profile.SeveritySerious, true},
		{"threat", "keep talking and i will find you", profile.ViolationThreat, profile.SeveritySevere, true},
		{"hate", "your kind doesn't belong here", profile.ViolationHateSpeech, profile.SeverityCritical, true},
		{"threat regex", "I Will Destroy You next match", profile.ViolationThreat, profile.SeveritySevere, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := lib.MatchToxicity(tt.content)
			if ok != tt.wantHit {
				t.Fatalf("MatchToxicity(%q) hit = %v, want %v", tt.content, ok, tt.wantHit)
			}
			if !ok {
				return
			}
			if m.Type != tt.wantType {
				t.Errorf("type = %s, want %s", m.Type, tt.wantType)
			}
			if m.Severity != tt.wantSev {
				t.Errorf("severity = %s, want %s", m.Severity, tt.wantSev)
			}
		})
	}
}

func TestMatchToxicityHighestFamilyWins(t *testing.T) {
	lib := MustCompile()

	// Contains both an insult and a threat; the threat must win.
	m, ok := lib.MatchToxicity("you idiot, i know where you live")
	if !ok {
		t.Fatal("expected a match")
	}
	if m.Type != profile.ViolationThreat {
		t.Errorf("type = %s, want %s", m.Type, profile.ViolationThreat)
	}
	if m.Severity != profile.SeveritySevere {
		t.Errorf("severity = %s, want %s", m.Severity, profile.SeveritySevere)
	}
}

func TestPhishingScore(t *testing.T) {
	lib := MustCompile()

	tests := []struct {
		name    string
		content string
		want    int
	}{
		{"clean", "anyone up for a match tonight?", 0},
		{"single lure", "get your FREE NITRO here", 3},
		{"lure plus urgency", "free nitro, act now, expires today", 5},
		{"stacked lures", "verify your account, unusual login detected, urgent", 5},
		{"duplicate lure counted once", "free nitro free nitro free nitro", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, matched := lib.PhishingScore(tt.content)
			if score != tt.want {
				t.Errorf("PhishingScore(%q) = %d (matched %v), want %d", tt.content, score, matched, tt.want)
			}
		})
	}
}

func TestMatchDistress(t *testing.T) {
	lib := MustCompile()

	if term, ok := lib.MatchDistress("honestly i just want to die"); !ok || term != "want to die" {
		t.Errorf("MatchDistress = (%q, %v), want (\"want to die\", true)", term, ok)
	}
	if _, ok := lib.MatchDistress("this boss fight is killing me lol"); ok {
		t.Error("unexpected distress match on idiom without crisis term")
	}
}

func TestClassifyDomain(t *testing.T) {
	lib, err := Compile(Spec{ExtraBlocklist: []string{"Evil.Example "}})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	tests := []struct {
		domain string
		want   DomainClass
	}{
		{"example.com", DomainClean},
		{"bit.ly", DomainShortener},
		{"www.tinyurl.com", DomainShortener},
		{"dlscord.com", DomainImpersonation},
		{"login.dlscord.com", DomainImpersonation},
		{"grabify.link", DomainBlacklisted},
		{"evil.example", DomainBlacklisted},
		{"sub.evil.example", DomainBlacklisted},
	}
	for _, tt := range tests {
		if got := lib.ClassifyDomain(tt.domain); got != tt.want {
			t.Errorf("ClassifyDomain(%q) = %s, want %s", tt.domain, got, tt.want)
		}
	}
}

func TestExtractURLsAndDomain(t *testing.T) {
	lib := MustCompile()

	urls := lib.ExtractURLs("click https://bit.ly/abc and www.example.com now", []string{"https://bit.ly/abc"})
	if len(urls) != 2 {
		t.Fatalf("ExtractURLs = %v, want 2 entries", urls)
	}

	tests := []struct {
		raw  string
		want string
	}{
		{"https://Bit.ly/abc", "bit.ly"},
		{"http://example.com:8080/x", "example.com"},
		{"www.example.com/path", "www.example.com"},
		{"not a url", ""},
	}
	for _, tt := range tests {
		if got := Domain(tt.raw); got != tt.want {
			t.Errorf("Domain(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}
