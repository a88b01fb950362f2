// ModSentry - Behavioral Moderation and Trust Engine for Chat Platforms
// Copyright 2026 ModSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modsentry/modsentry

package profile

import (
	"context"
	"errors"
	"time"

	"github.com/modsentry/modsentry/internal/cache"
	"github.com/modsentry/modsentry/internal/logging"
	"github.com/modsentry/modsentry/internal/metrics"
)

// CachedStore fronts a Store with a bounded LRU+TTL cache and retries
// failed saves with exponential backoff. The moderation hot path reads
// through this layer so an active user costs one durable read per TTL.
type CachedStore struct {
	backend Store
	cache   *cache.LRU

	saveRetries int
	saveBackoff time.Duration
}

// CachedStoreConfig tunes the cache layer.
type CachedStoreConfig struct {
	CacheSize   int
	CacheTTL    time.Duration
	SaveRetries int
	SaveBackoff time.Duration
}

// NewCachedStore wraps backend with an in-process cache.
func NewCachedStore(backend Store, cfg CachedStoreConfig) *CachedStore {
	return &CachedStore{
		backend:     backend,
		cache:       cache.NewLRU(cfg.CacheSize, cfg.CacheTTL),
		saveRetries: cfg.SaveRetries,
		saveBackoff: cfg.SaveBackoff,
	}
}

// Get returns the cached profile when fresh, falling back to the backend.
func (s *CachedStore) Get(ctx context.Context, userID, guildID string) (*SecurityProfile, error) {
	key := Key(userID, guildID)
	if v, ok := s.cache.Get(key); ok {
		metrics.ProfileCacheHits.Inc()
		return v.(*SecurityProfile).Clone(), nil
	}
	metrics.ProfileCacheMisses.Inc()

	p, err := s.backend.Get(ctx, userID, guildID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			metrics.StoreOperations.WithLabelValues("get", "error").Inc()
		}
		return nil, err
	}
	metrics.StoreOperations.WithLabelValues("get", "ok").Inc()
	s.cache.Add(key, p.Clone())
	return p, nil
}

// Save writes through the cache and retries transient backend failures.
// The cache is updated first so subsequent messages from the same user see
// the new state even while the durable write is retrying.
func (s *CachedStore) Save(ctx context.Context, p *SecurityProfile) error {
	s.cache.Add(p.Key(), p.Clone())

	var err error
	backoff := s.saveBackoff
	for attempt := 0; attempt <= s.saveRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		if err = s.backend.Save(ctx, p); err == nil {
			metrics.StoreOperations.WithLabelValues("save", "ok").Inc()
			return nil
		}
		logging.Ctx(ctx).Warn().
			Err(err).
			Int("attempt", attempt+1).
			Str("user_id", logging.SanitizeUserID(p.UserID)).
			Msg("profile save failed")
	}

	metrics.StoreOperations.WithLabelValues("save", "error").Inc()
	return err
}

// Delete removes the profile from cache and backend.
func (s *CachedStore) Delete(ctx context.Context, userID, guildID string) error {
	s.cache.Remove(Key(userID, guildID))
	return s.backend.Delete(ctx, userID, guildID)
}

// ForEach delegates to the backend; the cache may be stale relative to it,
// which the sweep tolerates.
func (s *CachedStore) ForEach(ctx context.Context, fn func(*SecurityProfile) error) error {
	return s.backend.ForEach(ctx, fn)
}

// Count delegates to the backend.
func (s *CachedStore) Count(ctx context.Context) (int, error) {
	return s.backend.Count(ctx)
}

// CleanupExpired drops expired cache entries; called by the sweep.
func (s *CachedStore) CleanupExpired() int {
	return s.cache.CleanupExpired()
}

// Invalidate drops one cached entry, forcing the next read through.
func (s *CachedStore) Invalidate(userID, guildID string) {
	s.cache.Remove(Key(userID, guildID))
}

// Close closes the backend.
func (s *CachedStore) Close() error {
	return s.backend.Close()
}
