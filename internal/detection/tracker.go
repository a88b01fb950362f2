// ModSentry - Behavioral Moderation and Trust Engine for Chat Platforms
// Copyright 2026 ModSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modsentry/modsentry

package detection

import (
	"hash/fnv"
	"strings"
	"sync"
	"time"
	"unicode"
)

// WindowEntry is one recorded message in a user's sliding window.
type WindowEntry struct {
	Fingerprint uint64
	Timestamp   time.Time
	ChannelID   string

	// Tokens is the normalized token set, kept for near-duplicate
	// similarity checks against later messages.
	Tokens []string
}

// userWindow is a fixed-capacity ring, oldest entry overwritten on insert
// when full. Entries are time-ordered because Record is serialized per
// user by the caller.
type userWindow struct {
	entries []WindowEntry
	head    int // index of oldest entry
	count   int
}

func (w *userWindow) push(e WindowEntry) {
	if w.count < len(w.entries) {
		w.entries[(w.head+w.count)%len(w.entries)] = e
		w.count++
		return
	}
	w.entries[w.head] = e
	w.head = (w.head + 1) % len(w.entries)
}

// at returns the i-th entry oldest-first.
func (w *userWindow) at(i int) *WindowEntry {
	return &w.entries[(w.head+i)%len(w.entries)]
}

// dropStale removes entries older than cutoff from the front. Only the
// sweep calls this, with the longest configured window as horizon: read
// paths must not evict, because the ring is shared by detectors with
// different windows and a short-window read would destroy entries a
// longer window still needs.
func (w *userWindow) dropStale(cutoff time.Time) {
	for w.count > 0 && w.at(0).Timestamp.Before(cutoff) {
		w.at(0).Tokens = nil
		w.head = (w.head + 1) % len(w.entries)
		w.count--
	}
}

// firstInside returns the index of the oldest entry at or after cutoff,
// or count when none qualify. Entries are time-ordered oldest-first.
func (w *userWindow) firstInside(cutoff time.Time) int {
	i := 0
	for i < w.count && w.at(i).Timestamp.Before(cutoff) {
		i++
	}
	return i
}

// SlidingWindowTracker keeps a bounded, time-ordered buffer of recent
// message fingerprints per user. Memory is O(active users x capacity);
// every operation walks at most one user's window.
type SlidingWindowTracker struct {
	mu       sync.RWMutex
	capacity int
	users    map[string]*userWindow
}

// NewSlidingWindowTracker creates a tracker with the given per-user ring
// capacity.
func NewSlidingWindowTracker(capacity int) *SlidingWindowTracker {
	if capacity < 1 {
		capacity = 1
	}
	return &SlidingWindowTracker{
		capacity: capacity,
		users:    make(map[string]*userWindow),
	}
}

// Record appends one entry to the user's window, evicting the oldest when
// the ring is full.
func (t *SlidingWindowTracker) Record(userID string, e WindowEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()

	w, ok := t.users[userID]
	if !ok {
		w = &userWindow{entries: make([]WindowEntry, t.capacity)}
		t.users[userID] = w
	}
	w.push(e)
}

// CountMatching returns how many of the user's entries inside the window
// share the given fingerprint. Stale entries are skipped, not evicted.
func (t *SlidingWindowTracker) CountMatching(userID string, fingerprint uint64, window time.Duration, now time.Time) int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	w, ok := t.users[userID]
	if !ok {
		return 0
	}

	n := 0
	for i := w.firstInside(now.Add(-window)); i < w.count; i++ {
		if w.at(i).Fingerprint == fingerprint {
			n++
		}
	}
	return n
}

// CountRecent returns how many entries the user has inside the window.
func (t *SlidingWindowTracker) CountRecent(userID string, window time.Duration, now time.Time) int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	w, ok := t.users[userID]
	if !ok {
		return 0
	}
	return w.count - w.firstInside(now.Add(-window))
}

// RecentEntries returns copies of the user's entries inside the window,
// oldest first.
func (t *SlidingWindowTracker) RecentEntries(userID string, window time.Duration, now time.Time) []WindowEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	w, ok := t.users[userID]
	if !ok || w.count == 0 {
		return nil
	}

	first := w.firstInside(now.Add(-window))
	if first == w.count {
		return nil
	}
	out := make([]WindowEntry, 0, w.count-first)
	for i := first; i < w.count; i++ {
		out = append(out, *w.at(i))
	}
	return out
}

// RemoveUser drops a user's window entirely.
func (t *SlidingWindowTracker) RemoveUser(userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.users, userID)
}

// Users returns the number of tracked users.
func (t *SlidingWindowTracker) Users() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.users)
}

// Sweep evicts entries older than the horizon across all users and drops
// users whose windows emptied. Returns the number of users dropped.
func (t *SlidingWindowTracker) Sweep(horizon time.Duration, now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := now.Add(-horizon)
	dropped := 0
	for id, w := range t.users {
		w.dropStale(cutoff)
		if w.count == 0 {
			delete(t.users, id)
			dropped++
		}
	}
	return dropped
}

// Fingerprint hashes the normalized content so trivially restyled repeats
// ("gg", "GG ", " gg") collide.
func Fingerprint(content string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(NormalizeContent(content)))
	return h.Sum64()
}

// NormalizeContent lowercases and collapses runs of whitespace to a
// single space.
func NormalizeContent(content string) string {
	var b strings.Builder
	b.Grow(len(content))
	space := false
	for _, r := range strings.ToLower(strings.TrimSpace(content)) {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}

// Tokenize splits normalized content into a deduplicated token set used
// for near-duplicate similarity.
func Tokenize(content string) []string {
	fields := strings.FieldsFunc(strings.ToLower(content), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	seen := make(map[string]struct{}, len(fields))
	tokens := fields[:0]
	for _, f := range fields {
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		tokens = append(tokens, f)
	}
	return tokens
}

// TokenSimilarity is the Jaccard ratio of two token sets.
func TokenSimilarity(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	set := make(map[string]struct{}, len(a))
	for _, t := range a {
		set[t] = struct{}{}
	}
	shared := 0
	for _, t := range b {
		if _, ok := set[t]; ok {
			shared++
		}
	}
	union := len(a) + len(b) - shared
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}
