// ModSentry - Behavioral Moderation and Trust Engine for Chat Platforms
// Copyright 2026 ModSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modsentry/modsentry

package logging

import (
	"strings"
	"unicode"
)

// MaxExcerptLen caps how much raw message content ever reaches a log line or
// an audit record. Full content stays on the hosting platform.
const MaxExcerptLen = 120

// Excerpt returns a log-safe excerpt of raw message content: control
// characters and newlines are collapsed to single spaces and the result is
// truncated to MaxExcerptLen runes.
func Excerpt(content string) string {
	var b strings.Builder
	b.Grow(len(content))
	lastSpace := false
	for _, r := range content {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}
	out := strings.TrimSpace(b.String())
	runes := []rune(out)
	if len(runes) > MaxExcerptLen {
		return string(runes[:MaxExcerptLen]) + "…"
	}
	return out
}

// SanitizeUserID returns a partially masked user identifier suitable for log
// output. Short IDs are fully masked.
func SanitizeUserID(id string) string {
	if len(id) <= 4 {
		return "****"
	}
	return id[:4] + strings.Repeat("*", len(id)-4)
}

// SanitizeToken fully masks secrets while keeping length information out of
// the logs entirely.
func SanitizeToken(string) string {
	return "[redacted]"
}
