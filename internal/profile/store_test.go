// ModSentry - Behavioral Moderation and Trust Engine for Chat Platforms
// Copyright 2026 ModSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modsentry/modsentry

package profile

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if _, err := s.Get(ctx, "u1", "g1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	p := New("u1", "g1", time.Now())
	p.TrustScore = 55
	if err := s.Save(ctx, p); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.Get(ctx, "u1", "g1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.TrustScore != 55 {
		t.Errorf("trust score = %v, want 55", got.TrustScore)
	}

	// Store must hand out copies, not shared state.
	got.TrustScore = 1
	again, _ := s.Get(ctx, "u1", "g1")
	if again.TrustScore != 55 {
		t.Error("store returned shared mutable state")
	}
}

func TestMemoryStoreDeleteAndCount(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_ = s.Save(ctx, New("u1", "", time.Now()))
	_ = s.Save(ctx, New("u2", "", time.Now()))

	if n, _ := s.Count(ctx); n != 2 {
		t.Errorf("count = %d, want 2", n)
	}
	if err := s.Delete(ctx, "u1", ""); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n, _ := s.Count(ctx); n != 1 {
		t.Errorf("count after delete = %d, want 1", n)
	}
}

func TestMemoryStoreForEach(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_ = s.Save(ctx, New("u1", "", time.Now()))
	_ = s.Save(ctx, New("u2", "", time.Now()))

	seen := map[string]bool{}
	err := s.ForEach(ctx, func(p *SecurityProfile) error {
		seen[p.UserID] = true
		return nil
	})
	if err != nil {
		t.Fatalf("foreach: %v", err)
	}
	if !seen["u1"] || !seen["u2"] {
		t.Errorf("foreach missed profiles: %v", seen)
	}
}

func TestGetOrNewFallsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	// Healthy store, unknown user: persisted default.
	p, persisted := GetOrNew(ctx, NewMemoryStore(), "u1", "", now)
	if !persisted {
		t.Error("healthy store must report persisted=true")
	}
	if p.TrustScore != TrustStart {
		t.Errorf("default trust = %v, want %v", p.TrustScore, TrustStart)
	}

	// Failing store: default profile, unpersisted.
	p, persisted = GetOrNew(ctx, failingStore{}, "u1", "", now)
	if persisted {
		t.Error("failing store must report persisted=false")
	}
	if p == nil || p.UserID != "u1" {
		t.Error("fallback profile must still be usable")
	}
}

// failingStore simulates an unavailable backend.
type failingStore struct{}

func (failingStore) Get(context.Context, string, string) (*SecurityProfile, error) {
	return nil, ErrUnavailable
}
func (failingStore) Save(context.Context, *SecurityProfile) error     { return ErrUnavailable }
func (failingStore) Delete(context.Context, string, string) error     { return ErrUnavailable }
func (failingStore) ForEach(context.Context, func(*SecurityProfile) error) error {
	return ErrUnavailable
}
func (failingStore) Count(context.Context) (int, error) { return 0, ErrUnavailable }
func (failingStore) Close() error                       { return nil }

func TestCachedStoreReadThrough(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryStore()
	cs := NewCachedStore(backend, CachedStoreConfig{
		CacheSize:   16,
		CacheTTL:    time.Minute,
		SaveRetries: 0,
		SaveBackoff: time.Millisecond,
	})

	p := New("u1", "", time.Now())
	p.TrustScore = 42
	if err := cs.Save(ctx, p); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := cs.Get(ctx, "u1", "")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.TrustScore != 42 {
		t.Errorf("trust = %v, want 42", got.TrustScore)
	}

	// Mutating the returned copy must not poison the cache.
	got.TrustScore = 1
	again, _ := cs.Get(ctx, "u1", "")
	if again.TrustScore != 42 {
		t.Error("cached store returned shared mutable state")
	}
}

// flakyStore fails a fixed number of saves before succeeding.
type flakyStore struct {
	*MemoryStore
	failures int
}

func (f *flakyStore) Save(ctx context.Context, p *SecurityProfile) error {
	if f.failures > 0 {
		f.failures--
		return ErrUnavailable
	}
	return f.MemoryStore.Save(ctx, p)
}

func TestCachedStoreRetriesSave(t *testing.T) {
	ctx := context.Background()
	backend := &flakyStore{MemoryStore: NewMemoryStore(), failures: 2}
	cs := NewCachedStore(backend, CachedStoreConfig{
		CacheSize:   16,
		CacheTTL:    time.Minute,
		SaveRetries: 3,
		SaveBackoff: time.Millisecond,
	})

	if err := cs.Save(ctx, New("u1", "", time.Now())); err != nil {
		t.Fatalf("save should succeed after retries: %v", err)
	}
	if _, err := backend.MemoryStore.Get(ctx, "u1", ""); err != nil {
		t.Errorf("profile never reached backend: %v", err)
	}
}

func TestCachedStoreSaveExhaustsRetries(t *testing.T) {
	ctx := context.Background()
	backend := &flakyStore{MemoryStore: NewMemoryStore(), failures: 10}
	cs := NewCachedStore(backend, CachedStoreConfig{
		CacheSize:   16,
		CacheTTL:    time.Minute,
		SaveRetries: 2,
		SaveBackoff: time.Millisecond,
	})

	if err := cs.Save(ctx, New("u1", "", time.Now())); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable after retry exhaustion, got %v", err)
	}

	// The cache still serves the written profile for subsequent messages.
	if _, err := cs.Get(ctx, "u1", ""); err != nil {
		t.Errorf("cache should serve the unsaved profile: %v", err)
	}
}
