// ModSentry - Behavioral Moderation and Trust Engine for Chat Platforms
// Copyright 2026 ModSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modsentry/modsentry

package profile

import (
	"context"
	"errors"
	"time"
)

// Store errors.
var (
	// ErrNotFound means no profile exists for the key. Callers create a
	// default profile instead of failing moderation.
	ErrNotFound = errors.New("profile not found")

	// ErrUnavailable wraps transient backend failures. Saves are retried;
	// loads fall back to a fresh default profile marked unpersisted.
	ErrUnavailable = errors.New("profile store unavailable")
)

// Store persists security profiles. Save is an idempotent last-writer-wins
// upsert keyed by profile key; application-level ordering is already
// serialized per user, so at-least-once retries are safe.
type Store interface {
	// Get loads a profile. Returns ErrNotFound for first-seen users.
	Get(ctx context.Context, userID, guildID string) (*SecurityProfile, error)

	// Save upserts a profile.
	Save(ctx context.Context, p *SecurityProfile) error

	// Delete removes a profile (sweep GC).
	Delete(ctx context.Context, userID, guildID string) error

	// ForEach visits every stored profile; used by the periodic sweep.
	// The callback receives a private copy and may not retain it.
	ForEach(ctx context.Context, fn func(*SecurityProfile) error) error

	// Count returns the number of stored profiles.
	Count(ctx context.Context) (int, error)

	// Close releases backend resources.
	Close() error
}

// GetOrNew loads a profile, creating a default for first-seen users.
// The second return value reports whether the profile is backed by the
// store: false means the store failed and the caller is working with an
// in-memory default that must be flagged unpersisted.
func GetOrNew(ctx context.Context, s Store, userID, guildID string, now time.Time) (*SecurityProfile, bool) {
	p, err := s.Get(ctx, userID, guildID)
	switch {
	case err == nil:
		return p, true
	case errors.Is(err, ErrNotFound):
		return New(userID, guildID, now), true
	default:
		// Store unavailable: moderation proceeds on a fresh default rather
		// than blocking the message path.
		return New(userID, guildID, now), false
	}
}
