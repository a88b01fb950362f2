// ModSentry - Behavioral Moderation and Trust Engine for Chat Platforms
// Copyright 2026 ModSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modsentry/modsentry

package threatintel

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func testClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := DefaultConfig()
	cfg.URL = srv.URL
	cfg.Timeout = time.Second
	c, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c, srv
}

func TestLookupMalicious(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("domain"); got != "evil.example" {
			t.Errorf("domain query = %q", got)
		}
		w.Write([]byte(`{"malicious": true}`))
	})

	got, err := c.IsMaliciousDomain(context.Background(), "evil.example")
	if err != nil {
		t.Fatalf("IsMaliciousDomain: %v", err)
	}
	if !got {
		t.Error("want malicious verdict")
	}
}

func TestLookupClean(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"malicious": false}`))
	})

	got, err := c.IsMaliciousDomain(context.Background(), "fine.example")
	if err != nil {
		t.Fatalf("IsMaliciousDomain: %v", err)
	}
	if got {
		t.Error("want clean verdict")
	}
}

func TestLookupCached(t *testing.T) {
	var calls atomic.Int32
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"malicious": true}`))
	})

	for i := 0; i < 3; i++ {
		if _, err := c.IsMaliciousDomain(context.Background(), "evil.example"); err != nil {
			t.Fatalf("lookup %d: %v", i, err)
		}
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("provider called %d times, want 1 (cache)", n)
	}
}

func TestLookupServerErrorIsUnknown(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	got, err := c.IsMaliciousDomain(context.Background(), "evil.example")
	if err == nil {
		t.Fatal("want error on provider failure")
	}
	if got {
		t.Error("failure must not report malicious")
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	c, srv := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	})
	_ = srv

	for i := 0; i < c.cfg.BreakerMaxFailures; i++ {
		c.IsMaliciousDomain(context.Background(), "down.example")
	}

	// Circuit is open now: the request never reaches the provider.
	start := time.Now()
	_, err := c.IsMaliciousDomain(context.Background(), "down.example")
	if err == nil {
		t.Fatal("want rejection while circuit is open")
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("open-circuit rejection took %v, should not hit the network", elapsed)
	}
}

func TestThrottleRejectsWithoutWaiting(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"malicious": false}`))
	})
	// Drain every token; rate.NewLimiter starts with a full burst.
	for c.limiter.Allow() {
	}

	_, err := c.IsMaliciousDomain(context.Background(), "fresh.example")
	if err != ErrThrottled {
		t.Errorf("err = %v, want ErrThrottled", err)
	}
}

func TestNewClientRequiresURL(t *testing.T) {
	if _, err := NewClient(DefaultConfig()); err == nil {
		t.Error("want error for missing provider URL")
	}
}
