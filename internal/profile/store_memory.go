// ModSentry - Behavioral Moderation and Trust Engine for Chat Platforms
// Copyright 2026 ModSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modsentry/modsentry

package profile

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory profile store for tests and single-node
// deployments that accept losing trust state on restart.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]*SecurityProfile
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{profiles: make(map[string]*SecurityProfile)}
}

// Get loads a profile copy.
func (s *MemoryStore) Get(ctx context.Context, userID, guildID string) (*SecurityProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[Key(userID, guildID)]
	if !ok {
		return nil, ErrNotFound
	}
	return p.Clone(), nil
}

// Save upserts a profile copy.
func (s *MemoryStore) Save(ctx context.Context, p *SecurityProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.profiles[p.Key()] = p.Clone()
	return nil
}

// Delete removes a profile.
func (s *MemoryStore) Delete(ctx context.Context, userID, guildID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.profiles, Key(userID, guildID))
	return nil
}

// ForEach visits a snapshot of all profiles.
func (s *MemoryStore) ForEach(ctx context.Context, fn func(*SecurityProfile) error) error {
	s.mu.RLock()
	snapshot := make([]*SecurityProfile, 0, len(s.profiles))
	for _, p := range s.profiles {
		snapshot = append(snapshot, p.Clone())
	}
	s.mu.RUnlock()

	for _, p := range snapshot {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(p); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of stored profiles.
func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.profiles), nil
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close() error { return nil }
