// ModSentry - Behavioral Moderation and Trust Engine for Chat Platforms
// Copyright 2026 ModSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modsentry/modsentry

package ingest

import (
	"container/list"
	"sync"
	"time"
)

// dedupeIndex remembers recently decided message IDs so JetStream
// redeliveries after a lost ack do not punish a user twice. Entries expire
// after the window; the index is additionally bounded by max entries with
// oldest-first eviction.
type dedupeIndex struct {
	mu     sync.Mutex
	window time.Duration
	max    int
	ids    map[string]*list.Element
	order  *list.List // front = oldest
}

type dedupeEntry struct {
	id   string
	seen time.Time
}

func newDedupeIndex(window time.Duration, max int) *dedupeIndex {
	if max < 1 {
		max = 1
	}
	return &dedupeIndex{
		window: window,
		max:    max,
		ids:    make(map[string]*list.Element),
		order:  list.New(),
	}
}

// Seen reports whether id was recorded inside the window.
func (d *dedupeIndex) Seen(id string, now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.expire(now)
	_, ok := d.ids[id]
	return ok
}

// Record marks id as decided. Only acked messages are recorded: a nacked
// message must stay eligible for redelivery.
func (d *dedupeIndex) Record(id string, now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.expire(now)

	if _, ok := d.ids[id]; ok {
		return
	}
	for len(d.ids) >= d.max {
		d.evictOldest()
	}
	d.ids[id] = d.order.PushBack(&dedupeEntry{id: id, seen: now})
}

// Len returns the number of live entries.
func (d *dedupeIndex) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.ids)
}

func (d *dedupeIndex) expire(now time.Time) {
	cutoff := now.Add(-d.window)
	for {
		front := d.order.Front()
		if front == nil {
			return
		}
		if entry := front.Value.(*dedupeEntry); entry.seen.After(cutoff) {
			return
		}
		d.evictOldest()
	}
}

func (d *dedupeIndex) evictOldest() {
	front := d.order.Front()
	if front == nil {
		return
	}
	entry := d.order.Remove(front).(*dedupeEntry)
	delete(d.ids, entry.id)
}
