// ModSentry - Behavioral Moderation and Trust Engine for Chat Platforms
// Copyright 2026 ModSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modsentry/modsentry

package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/modsentry/modsentry/internal/audit"
	"github.com/modsentry/modsentry/internal/logging"
	"github.com/modsentry/modsentry/internal/patterns"
	"github.com/modsentry/modsentry/internal/profile"
	"github.com/modsentry/modsentry/internal/trust"
	ws "github.com/modsentry/modsentry/internal/websocket"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "error",
		Format: "console",
		Output: io.Discard,
	})
}

type testServer struct {
	profiles *profile.MemoryStore
	audits   *audit.MemoryStore
	server   *httptest.Server
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	profiles := profile.NewMemoryStore()
	audits := audit.NewMemoryStore(1000)

	handler := NewHandler(HandlerOptions{
		Profiles:   profiles,
		AuditStore: audits,
		Patterns:   patterns.MustCompile(),
		Trust:      trust.NewEngine(trust.DefaultConfig()),
		Hub:        ws.NewHub(),
		Version:    "test",
		Checks: map[string]ReadinessCheck{
			"profiles": func(ctx context.Context) error {
				_, err := profiles.Count(ctx)
				return err
			},
		},
	})

	mw := NewMiddleware(MiddlewareConfig{RateLimitDisabled: true})
	router := NewRouter(handler, mw, nil)

	srv := httptest.NewServer(router.Routes())
	t.Cleanup(srv.Close)

	return &testServer{profiles: profiles, audits: audits, server: srv}
}

func (ts *testServer) get(t *testing.T, path string) (*http.Response, Response) {
	t.Helper()
	resp, err := http.Get(ts.server.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()

	var envelope Response
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response for %s: %v", path, err)
	}
	return resp, envelope
}

func seedProfile(t *testing.T, ts *testServer, userID string, score float64) *profile.SecurityProfile {
	t.Helper()
	p := profile.New(userID, "guild-1", time.Now().Add(-time.Hour))
	p.TrustScore = score
	if err := ts.profiles.Save(context.Background(), p); err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	return p
}

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := ts.get(t, "/api/v1/health/live")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("live status = %d", resp.StatusCode)
	}

	resp, envelope := ts.get(t, "/api/v1/health/ready")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("ready status = %d", resp.StatusCode)
	}
	if envelope.Status != "ok" {
		t.Errorf("ready envelope status = %q", envelope.Status)
	}

	resp, envelope = ts.get(t, "/api/v1/health")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health status = %d", resp.StatusCode)
	}
	data, ok := envelope.Data.(map[string]any)
	if !ok {
		t.Fatalf("health data type %T", envelope.Data)
	}
	if data["version"] != "test" {
		t.Errorf("version = %v", data["version"])
	}
	if data["pattern_version"] == "" {
		t.Error("pattern_version missing")
	}
}

func TestGetProfile(t *testing.T) {
	ts := newTestServer(t)
	seedProfile(t, ts, "user-1", 40)

	resp, envelope := ts.get(t, "/api/v1/profiles/user-1?guild_id=guild-1")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	data, _ := json.Marshal(envelope.Data)
	var view struct {
		UserID     string  `json:"user_id"`
		TrustScore float64 `json:"trust_score"`
		Trusted    bool    `json:"trusted"`
		Risk       struct {
			Level string `json:"level"`
		} `json:"risk"`
	}
	if err := json.Unmarshal(data, &view); err != nil {
		t.Fatalf("unmarshal view: %v", err)
	}
	if view.UserID != "user-1" || view.TrustScore != 40 {
		t.Errorf("view = %+v", view)
	}
	if view.Trusted {
		t.Error("score 40 should not be trusted at threshold 70")
	}
	if view.Risk.Level == "" {
		t.Error("risk level missing")
	}
}

func TestGetProfile_NotFound(t *testing.T) {
	ts := newTestServer(t)

	resp, envelope := ts.get(t, "/api/v1/profiles/ghost?guild_id=guild-1")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	if envelope.Error == nil || envelope.Error.Code != CodeNotFound {
		t.Errorf("error = %+v", envelope.Error)
	}
}

func TestListProfiles_LowTrustWatchlist(t *testing.T) {
	ts := newTestServer(t)
	seedProfile(t, ts, "healthy", 95)
	seedProfile(t, ts, "worst", 10)
	seedProfile(t, ts, "bad", 30)

	resp, envelope := ts.get(t, "/api/v1/profiles?max_trust=50")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	data, _ := json.Marshal(envelope.Data)
	var views []struct {
		UserID     string  `json:"user_id"`
		TrustScore float64 `json:"trust_score"`
	}
	if err := json.Unmarshal(data, &views); err != nil {
		t.Fatalf("unmarshal views: %v", err)
	}

	if len(views) != 2 {
		t.Fatalf("got %d profiles, want 2", len(views))
	}
	if views[0].UserID != "worst" || views[1].UserID != "bad" {
		t.Errorf("order = %s, %s; want worst, bad", views[0].UserID, views[1].UserID)
	}
	if envelope.Metadata.Total != 2 {
		t.Errorf("total = %d", envelope.Metadata.Total)
	}
}

func TestListProfiles_Pagination(t *testing.T) {
	ts := newTestServer(t)
	for i, id := range []string{"a", "b", "c"} {
		seedProfile(t, ts, id, float64(10*(i+1)))
	}

	_, envelope := ts.get(t, "/api/v1/profiles?limit=2&offset=2")
	data, _ := json.Marshal(envelope.Data)
	var views []map[string]any
	if err := json.Unmarshal(data, &views); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(views) != 1 {
		t.Errorf("page size = %d, want 1", len(views))
	}
	if envelope.Metadata.Offset != 2 || envelope.Metadata.Total != 3 {
		t.Errorf("metadata = %+v", envelope.Metadata)
	}
}

func TestGetProfileViolations(t *testing.T) {
	ts := newTestServer(t)
	p := seedProfile(t, ts, "user-1", 50)
	v, err := profile.NewViolation("user-1", profile.ViolationSpam, profile.SeverityModerate, time.Now())
	if err != nil {
		t.Fatalf("new violation: %v", err)
	}
	p.AppendViolation(*v, 50)
	if err := ts.profiles.Save(context.Background(), p); err != nil {
		t.Fatalf("save: %v", err)
	}

	resp, envelope := ts.get(t, "/api/v1/profiles/user-1/violations?guild_id=guild-1")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if envelope.Metadata.Count != 1 {
		t.Errorf("count = %d", envelope.Metadata.Count)
	}
}

func TestDeleteProfile(t *testing.T) {
	ts := newTestServer(t)
	seedProfile(t, ts, "user-1", 50)

	req, _ := http.NewRequest(http.MethodDelete, ts.server.URL+"/api/v1/profiles/user-1?guild_id=guild-1", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	_, err = ts.profiles.Get(context.Background(), "user-1", "guild-1")
	if !errors.Is(err, profile.ErrNotFound) {
		t.Errorf("profile still present after delete: %v", err)
	}
}

func TestAuditEndpoints(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	events := []*audit.Event{
		{ID: "ev-1", Timestamp: time.Now().Add(-2 * time.Minute), Type: audit.EventTypeViolationRecorded, Severity: audit.SeverityWarning, Outcome: audit.OutcomeSuccess, UserID: "user-1"},
		{ID: "ev-2", Timestamp: time.Now().Add(-1 * time.Minute), Type: audit.EventTypeDecisionIssued, Severity: audit.SeverityInfo, Outcome: audit.OutcomeSuccess, UserID: "user-1"},
		{ID: "ev-3", Timestamp: time.Now(), Type: audit.EventTypeDecisionIssued, Severity: audit.SeverityInfo, Outcome: audit.OutcomeSuccess, UserID: "user-2"},
	}
	for _, ev := range events {
		if err := ts.audits.Save(ctx, ev); err != nil {
			t.Fatalf("save event: %v", err)
		}
	}

	resp, envelope := ts.get(t, "/api/v1/audit/events?user_id=user-1&type=decision.issued")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if envelope.Metadata.Count != 1 || envelope.Metadata.Total != 1 {
		t.Errorf("metadata = %+v", envelope.Metadata)
	}

	resp, envelope = ts.get(t, "/api/v1/audit/events/ev-2")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get event status = %d", resp.StatusCode)
	}
	data, _ := json.Marshal(envelope.Data)
	var got audit.Event
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}
	if got.ID != "ev-2" {
		t.Errorf("event id = %q", got.ID)
	}

	resp, _ = ts.get(t, "/api/v1/audit/events/missing")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing event status = %d", resp.StatusCode)
	}
}

func TestGetPatterns(t *testing.T) {
	ts := newTestServer(t)

	resp, envelope := ts.get(t, "/api/v1/patterns")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	data, _ := envelope.Data.(map[string]any)
	if v, _ := data["version"].(string); v == "" {
		t.Error("pattern version missing")
	}
}
