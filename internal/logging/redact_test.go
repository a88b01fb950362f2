// ModSentry - Behavioral Moderation and Trust Engine for Chat Platforms
// Copyright 2026 ModSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modsentry/modsentry

package logging

import (
	"strings"
	"testing"
)

func TestExcerpt(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello world", "hello world"},
		{"newlines collapsed", "line one\nline two\r\nline three", "line one line two line three"},
		{"control stripped", "a\x00b\x1bc", "a b c"},
		{"whitespace runs", "a   \t  b", "a b"},
		{"trimmed", "  padded  ", "padded"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Excerpt(tt.in); got != tt.want {
				t.Errorf("Excerpt(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestExcerptTruncates(t *testing.T) {
	long := strings.Repeat("x", 500)
	got := Excerpt(long)
	if len([]rune(got)) != MaxExcerptLen+1 { // +1 for ellipsis
		t.Errorf("truncated excerpt has %d runes, want %d", len([]rune(got)), MaxExcerptLen+1)
	}
	if !strings.HasSuffix(got, "…") {
		t.Error("truncated excerpt missing ellipsis")
	}
}

func TestSanitizeUserID(t *testing.T) {
	if got := SanitizeUserID("123456789012345678"); !strings.HasPrefix(got, "1234") || strings.Contains(got[4:], "5") {
		t.Errorf("SanitizeUserID left identifying digits: %q", got)
	}
	if got := SanitizeUserID("ab"); got != "****" {
		t.Errorf("short ID not fully masked: %q", got)
	}
}
