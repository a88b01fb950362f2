// ModSentry - Behavioral Moderation and Trust Engine for Chat Platforms
// Copyright 2026 ModSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modsentry/modsentry

package cache

import (
	"fmt"
	"testing"
	"time"
)

func TestLRUAddGet(t *testing.T) {
	c := NewLRU(4, time.Minute)

	c.Add("u1", 42)
	got, ok := c.Get("u1")
	if !ok {
		t.Fatal("expected hit for u1")
	}
	if got.(int) != 42 {
		t.Errorf("got %v, want 42", got)
	}

	if _, ok := c.Get("missing"); ok {
		t.Error("expected miss for unknown key")
	}
}

func TestLRUEvictsOldest(t *testing.T) {
	c := NewLRU(3, time.Minute)
	for i := 0; i < 3; i++ {
		c.Add(fmt.Sprintf("u%d", i), i)
	}

	// Touch u0 so u1 becomes the eviction candidate.
	c.Get("u0")
	c.Add("u3", 3)

	if _, ok := c.Get("u1"); ok {
		t.Error("u1 should have been evicted")
	}
	if _, ok := c.Get("u0"); !ok {
		t.Error("recently used u0 should survive")
	}
	if c.Len() != 3 {
		t.Errorf("len = %d, want 3", c.Len())
	}
}

func TestLRUExpiry(t *testing.T) {
	c := NewLRU(4, 10*time.Millisecond)
	c.Add("u1", 1)
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("u1"); ok {
		t.Error("expired entry still returned")
	}
}

func TestLRUCleanupExpired(t *testing.T) {
	c := NewLRU(8, 10*time.Millisecond)
	c.Add("a", 1)
	c.Add("b", 2)
	time.Sleep(20 * time.Millisecond)
	c.Add("c", 3)

	removed := c.CleanupExpired()
	if removed != 2 {
		t.Errorf("removed %d expired entries, want 2", removed)
	}
	if c.Len() != 1 {
		t.Errorf("len = %d after cleanup, want 1", c.Len())
	}
}

func TestLRUUpdateExisting(t *testing.T) {
	c := NewLRU(2, time.Minute)
	c.Add("u1", 1)
	c.Add("u1", 2)

	got, _ := c.Get("u1")
	if got.(int) != 2 {
		t.Errorf("got %v after update, want 2", got)
	}
	if c.Len() != 1 {
		t.Errorf("len = %d, want 1", c.Len())
	}
}

func TestLRUStats(t *testing.T) {
	c := NewLRU(4, time.Minute)
	c.Add("u1", 1)
	c.Get("u1")
	c.Get("nope")

	hits, misses, size := c.Stats()
	if hits != 1 || misses != 1 || size != 1 {
		t.Errorf("stats = (%d, %d, %d), want (1, 1, 1)", hits, misses, size)
	}
}
