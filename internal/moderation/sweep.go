// ModSentry - Behavioral Moderation and Trust Engine for Chat Platforms
// Copyright 2026 ModSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modsentry/modsentry

package moderation

import (
	"context"
	"time"

	"github.com/modsentry/modsentry/internal/audit"
	"github.com/modsentry/modsentry/internal/logging"
	"github.com/modsentry/modsentry/internal/metrics"
	"github.com/modsentry/modsentry/internal/profile"
)

// SweepConfig tunes the periodic maintenance sweep.
type SweepConfig struct {
	// Interval between sweeps.
	Interval time.Duration

	// WindowHorizon drops sliding-window entries older than this.
	WindowHorizon time.Duration

	// HistoryHorizon prunes violation records older than this.
	HistoryHorizon time.Duration

	// ProfileIdleGC deletes profiles with an empty history and no
	// activity for this long.
	ProfileIdleGC time.Duration
}

// SweepStats summarizes one sweep pass.
type SweepStats struct {
	WindowUsersDropped int
	HistoryPruned      int
	ProfilesRecovered  int
	ProfilesDeleted    int
	Elapsed            time.Duration
}

// Sweeper runs the periodic maintenance sweep: sliding-window eviction,
// violation-history pruning, passive trust recovery and idle-profile GC.
type Sweeper struct {
	engine *Engine
	cfg    SweepConfig
}

// NewSweeper creates a sweeper over a running engine.
func NewSweeper(engine *Engine, cfg SweepConfig) *Sweeper {
	return &Sweeper{engine: engine, cfg: cfg}
}

// RunWithContext runs sweeps every Interval until the context is
// canceled. Designed for suture supervision.
func (s *Sweeper) RunWithContext(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Info().Str("component", "sweeper").Msg("sweeper stopped")
			return ctx.Err()
		case <-ticker.C:
			stats := s.Sweep(ctx, time.Now())
			logging.Debug().
				Int("window_users_dropped", stats.WindowUsersDropped).
				Int("history_pruned", stats.HistoryPruned).
				Int("profiles_recovered", stats.ProfilesRecovered).
				Int("profiles_deleted", stats.ProfilesDeleted).
				Dur("elapsed", stats.Elapsed).
				Msg("maintenance sweep completed")
		}
	}
}

// Sweep runs one maintenance pass. Profile mutation is routed through
// the engine's shards so it never races in-flight messages for the same
// user.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) SweepStats {
	start := time.Now()
	var stats SweepStats

	dropped := s.engine.pipeline.Tracker().Sweep(s.cfg.WindowHorizon, now)
	stats.WindowUsersDropped = dropped
	if dropped > 0 {
		metrics.SweepEvictions.WithLabelValues("window").Add(float64(dropped))
	}

	err := s.engine.store.ForEach(ctx, func(p *profile.SecurityProfile) error {
		s.engine.submit(p.UserID, func() {
			s.maintainProfile(ctx, p, now, &stats)
		})
		return nil
	})
	if err != nil {
		logging.Warn().Err(err).Msg("sweep could not enumerate profiles")
	}

	stats.Elapsed = time.Since(start)
	metrics.SweepDuration.Observe(stats.Elapsed.Seconds())

	if s.engine.audit != nil {
		s.engine.audit.LogSweep(stats.WindowUsersDropped, stats.ProfilesDeleted, stats.ProfilesRecovered, stats.Elapsed)
	}
	if s.engine.hub != nil {
		s.engine.hub.BroadcastSweepCompleted(stats.WindowUsersDropped, stats.ProfilesDeleted, stats.Elapsed.Milliseconds())
	}

	return stats
}

// maintainProfile prunes, recovers and garbage-collects one profile.
// Runs on the user's shard goroutine; the received profile is a private
// copy, so changes must be saved back.
func (s *Sweeper) maintainProfile(ctx context.Context, p *profile.SecurityProfile, now time.Time, stats *SweepStats) {
	// Reload through the store so we operate on the freshest state; the
	// ForEach copy may predate a message judged moments ago.
	fresh, err := s.engine.store.Get(ctx, p.UserID, p.GuildID)
	if err != nil {
		return
	}
	p = fresh

	changed := false

	if pruned := p.PruneHistory(s.cfg.HistoryHorizon, now); pruned > 0 {
		stats.HistoryPruned += pruned
		metrics.SweepEvictions.WithLabelValues("history").Add(float64(pruned))
		changed = true
	}

	wasQuarantined := p.InQuarantine(now)
	if intervals := s.engine.trust.Recover(p, now); intervals > 0 {
		stats.ProfilesRecovered++
		changed = true
	}
	if wasQuarantined && !p.InQuarantine(now) {
		changed = true
		if s.engine.hub != nil {
			s.engine.hub.BroadcastQuarantine(p.UserID, p.GuildID, false, int(p.TrustScore), time.Time{})
		}
		if s.engine.audit != nil {
			ref := audit.RefID{UserID: p.UserID, GuildID: p.GuildID}
			s.engine.audit.LogQuarantine(ref, false, int(p.TrustScore), time.Time{})
		}
	}

	// Idle GC: nothing worth keeping and no activity for a long time.
	if len(p.ViolationHistory) == 0 && now.Sub(p.LastSeenAt) >= s.cfg.ProfileIdleGC {
		if err := s.engine.store.Delete(ctx, p.UserID, p.GuildID); err == nil {
			stats.ProfilesDeleted++
			metrics.SweepEvictions.WithLabelValues("profile").Inc()
			s.engine.pipeline.Tracker().RemoveUser(p.UserID)
		}
		return
	}

	if changed {
		if err := s.engine.store.Save(ctx, p); err != nil {
			logging.Warn().
				Err(err).
				Str("user_id", logging.SanitizeUserID(p.UserID)).
				Msg("sweep could not save profile")
		}
	}
}
