// ModSentry - Behavioral Moderation and Trust Engine for Chat Platforms
// Copyright 2026 ModSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modsentry/modsentry

package ingest

import (
	"fmt"
	"testing"
	"time"
)

func TestDedupeIndex_RecordThenSeen(t *testing.T) {
	d := newDedupeIndex(10*time.Minute, 100)
	now := time.Now()

	if d.Seen("msg-1", now) {
		t.Error("unrecorded id reported as seen")
	}
	d.Record("msg-1", now)
	if !d.Seen("msg-1", now) {
		t.Error("recorded id not reported as seen")
	}
	if d.Seen("msg-2", now) {
		t.Error("different id reported as seen")
	}
}

func TestDedupeIndex_WindowExpiry(t *testing.T) {
	d := newDedupeIndex(10*time.Minute, 100)
	now := time.Now()

	d.Record("msg-1", now)
	if !d.Seen("msg-1", now.Add(9*time.Minute)) {
		t.Error("id expired before the window elapsed")
	}
	if d.Seen("msg-1", now.Add(11*time.Minute)) {
		t.Error("id still seen after the window elapsed")
	}
	if d.Len() != 0 {
		t.Errorf("Len = %d after expiry, want 0", d.Len())
	}
}

func TestDedupeIndex_BoundedEviction(t *testing.T) {
	d := newDedupeIndex(time.Hour, 3)
	now := time.Now()

	for i := 0; i < 5; i++ {
		d.Record(fmt.Sprintf("msg-%d", i), now.Add(time.Duration(i)*time.Second))
	}

	if d.Len() != 3 {
		t.Fatalf("Len = %d, want 3", d.Len())
	}
	// Oldest two evicted, newest three retained.
	if d.Seen("msg-0", now.Add(time.Minute)) || d.Seen("msg-1", now.Add(time.Minute)) {
		t.Error("oldest entries not evicted")
	}
	for i := 2; i < 5; i++ {
		if !d.Seen(fmt.Sprintf("msg-%d", i), now.Add(time.Minute)) {
			t.Errorf("msg-%d evicted, want retained", i)
		}
	}
}

func TestDedupeIndex_RecordIsIdempotent(t *testing.T) {
	d := newDedupeIndex(time.Hour, 10)
	now := time.Now()

	d.Record("msg-1", now)
	d.Record("msg-1", now.Add(time.Second))
	if d.Len() != 1 {
		t.Errorf("Len = %d after duplicate record, want 1", d.Len())
	}
}
