// ModSentry - Behavioral Moderation and Trust Engine for Chat Platforms
// Copyright 2026 ModSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modsentry/modsentry

package api

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/modsentry/modsentry/internal/audit"
	"github.com/modsentry/modsentry/internal/logging"
	"github.com/modsentry/modsentry/internal/patterns"
	"github.com/modsentry/modsentry/internal/profile"
	"github.com/modsentry/modsentry/internal/trust"
	ws "github.com/modsentry/modsentry/internal/websocket"

	gorillaws "github.com/gorilla/websocket"
)

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

// Handler serves the admin API endpoints.
type Handler struct {
	profiles   profile.Store
	auditStore audit.Store
	patterns   *patterns.Library
	trust      *trust.Engine
	hub        *ws.Hub

	checks    map[string]ReadinessCheck
	startedAt time.Time
	version   string

	upgrader gorillaws.Upgrader
}

// HandlerOptions wires the handler's dependencies.
type HandlerOptions struct {
	Profiles   profile.Store
	AuditStore audit.Store
	Patterns   *patterns.Library
	Trust      *trust.Engine
	Hub        *ws.Hub
	Version    string

	// Checks run on /health/ready; all must pass for 200.
	Checks map[string]ReadinessCheck
}

// NewHandler creates the admin API handler.
func NewHandler(opts HandlerOptions) *Handler {
	return &Handler{
		profiles:   opts.Profiles,
		auditStore: opts.AuditStore,
		patterns:   opts.Patterns,
		trust:      opts.Trust,
		hub:        opts.Hub,
		checks:     opts.Checks,
		startedAt:  time.Now(),
		version:    opts.Version,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Same-origin enforcement happens in the CORS layer; the
			// upgrade itself accepts any origin that got this far.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// HealthLive handles GET /api/v1/health/live. Always 200 while the process
// can serve HTTP.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondData(w, http.StatusOK, map[string]string{"status": "alive"}, nil)
}

// HealthReady handles GET /api/v1/health/ready. 503 when any dependency
// check fails so orchestrators stop routing traffic here.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	results := make(map[string]string, len(h.checks))
	ready := true
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			results[name] = err.Error()
			ready = false
			continue
		}
		results[name] = "ok"
	}

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	respondData(w, status, map[string]any{
		"ready":  ready,
		"checks": results,
	}, nil)
}

// Health handles GET /api/v1/health with process-level details.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{
		"status":           "ok",
		"version":          h.version,
		"uptime_seconds":   int64(time.Since(h.startedAt).Seconds()),
		"pattern_version":  h.patterns.Version,
		"websocket_peers":  h.hub.GetClientCount(),
		"tracked_profiles": h.profileCount(r.Context()),
	}
	respondData(w, http.StatusOK, data, nil)
}

func (h *Handler) profileCount(ctx context.Context) int {
	n, err := h.profiles.Count(ctx)
	if err != nil {
		return -1
	}
	return n
}

// profileView is the API projection of a stored profile plus derived risk.
type profileView struct {
	*profile.SecurityProfile
	Risk         trust.Assessment `json:"risk"`
	InQuarantine bool             `json:"in_quarantine"`
	Trusted      bool             `json:"trusted"`
}

func (h *Handler) viewOf(p *profile.SecurityProfile, now time.Time) profileView {
	return profileView{
		SecurityProfile: p,
		Risk:            h.trust.RiskAssessment(p, now),
		InQuarantine:    p.InQuarantine(now),
		Trusted:         p.IsTrusted(h.trust.Config().TrustThreshold),
	}
}

// GetProfile handles GET /api/v1/profiles/{userID}.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	guildID := r.URL.Query().Get("guild_id")

	p, err := h.profiles.Get(r.Context(), userID, guildID)
	if err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			respondError(w, http.StatusNotFound, CodeNotFound, "profile not found", nil)
			return
		}
		respondError(w, http.StatusServiceUnavailable, CodeUnavailable, "profile store unavailable", err)
		return
	}

	respondData(w, http.StatusOK, h.viewOf(p, time.Now()), nil)
}

// ListProfiles handles GET /api/v1/profiles. With max_trust it becomes the
// low-trust watchlist, sorted worst first.
func (h *Handler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	maxTrust := getFloatParam(r, "max_trust", profile.TrustMax)
	limit := clampLimit(getIntParam(r, "limit", 50))
	offset := getIntParam(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	var matched []*profile.SecurityProfile
	err := h.profiles.ForEach(r.Context(), func(p *profile.SecurityProfile) error {
		if p.TrustScore <= maxTrust {
			matched = append(matched, p)
		}
		return nil
	})
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, CodeUnavailable, "profile store unavailable", err)
		return
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].TrustScore != matched[j].TrustScore {
			return matched[i].TrustScore < matched[j].TrustScore
		}
		return matched[i].UserID < matched[j].UserID
	})

	total := len(matched)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	now := time.Now()
	views := make([]profileView, 0, end-offset)
	for _, p := range matched[offset:end] {
		views = append(views, h.viewOf(p, now))
	}

	respondData(w, http.StatusOK, views, &Metadata{
		Count:  len(views),
		Total:  int64(total),
		Limit:  limit,
		Offset: offset,
	})
}

// GetProfileViolations handles GET /api/v1/profiles/{userID}/violations.
func (h *Handler) GetProfileViolations(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	guildID := r.URL.Query().Get("guild_id")

	p, err := h.profiles.Get(r.Context(), userID, guildID)
	if err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			respondError(w, http.StatusNotFound, CodeNotFound, "profile not found", nil)
			return
		}
		respondError(w, http.StatusServiceUnavailable, CodeUnavailable, "profile store unavailable", err)
		return
	}

	respondData(w, http.StatusOK, p.ViolationHistory, &Metadata{
		Count: len(p.ViolationHistory),
	})
}

// DeleteProfile handles DELETE /api/v1/profiles/{userID}: an operator
// "forgive" that resets a user to first-seen state.
func (h *Handler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	guildID := r.URL.Query().Get("guild_id")

	if err := h.profiles.Delete(r.Context(), userID, guildID); err != nil {
		respondError(w, http.StatusServiceUnavailable, CodeUnavailable, "profile store unavailable", err)
		return
	}

	claims := ClaimsFromContext(r.Context())
	operator := "unknown"
	if claims != nil {
		operator = claims.Subject
	}
	logging.Info().
		Str("user_id", userID).
		Str("guild_id", guildID).
		Str("operator", operator).
		Msg("Profile deleted by operator")

	respondData(w, http.StatusOK, map[string]string{"status": "deleted"}, nil)
}

// GetPatterns handles GET /api/v1/patterns.
func (h *Handler) GetPatterns(w http.ResponseWriter, r *http.Request) {
	respondData(w, http.StatusOK, map[string]string{
		"version": h.patterns.Version,
	}, nil)
}

// WebSocket handles GET /api/v1/ws, upgrading the connection and attaching
// it to the broadcast hub.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		logging.Warn().Err(err).Str("remote_addr", r.RemoteAddr).Msg("WebSocket upgrade failed")
		return
	}

	client := ws.NewClient(h.hub, conn)
	h.hub.Register <- client
	client.Start()
}

func clampLimit(limit int) int {
	const maxLimit = 500
	if limit < 1 {
		return 50
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}
