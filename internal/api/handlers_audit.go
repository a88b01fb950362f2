// ModSentry - Behavioral Moderation and Trust Engine for Chat Platforms
// Copyright 2026 ModSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modsentry/modsentry

package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/modsentry/modsentry/internal/audit"
)

// ListAuditEvents handles GET /api/v1/audit/events with filtering and
// pagination. Returns newest events first.
func (h *Handler) ListAuditEvents(w http.ResponseWriter, r *http.Request) {
	filter := h.auditFilterFromQuery(r)

	events, err := h.auditStore.Query(r.Context(), filter)
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, CodeUnavailable, "audit store unavailable", err)
		return
	}

	total, err := h.auditStore.Count(r.Context(), filter)
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, CodeUnavailable, "audit store unavailable", err)
		return
	}

	respondData(w, http.StatusOK, events, &Metadata{
		Count:  len(events),
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

// GetAuditEvent handles GET /api/v1/audit/events/{id}.
func (h *Handler) GetAuditEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	event, err := h.auditStore.Get(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusNotFound, CodeNotFound, "audit event not found", nil)
		return
	}

	respondData(w, http.StatusOK, event, nil)
}

func (h *Handler) auditFilterFromQuery(r *http.Request) audit.QueryFilter {
	filter := audit.DefaultQueryFilter()
	q := r.URL.Query()

	if v := q.Get("type"); v != "" {
		for _, t := range strings.Split(v, ",") {
			filter.Types = append(filter.Types, audit.EventType(strings.TrimSpace(t)))
		}
	}
	if v := q.Get("severity"); v != "" {
		for _, s := range strings.Split(v, ",") {
			filter.Severities = append(filter.Severities, audit.Severity(strings.TrimSpace(s)))
		}
	}
	if v := q.Get("outcome"); v != "" {
		for _, o := range strings.Split(v, ",") {
			filter.Outcomes = append(filter.Outcomes, audit.Outcome(strings.TrimSpace(o)))
		}
	}

	filter.UserID = q.Get("user_id")
	filter.GuildID = q.Get("guild_id")
	filter.MessageID = q.Get("message_id")
	filter.CorrelationID = q.Get("correlation_id")
	filter.SearchText = q.Get("search")
	filter.StartTime = getTimeParam(r, "start")
	filter.EndTime = getTimeParam(r, "end")

	filter.Limit = clampLimit(getIntParam(r, "limit", filter.Limit))
	if offset := getIntParam(r, "offset", 0); offset > 0 {
		filter.Offset = offset
	}

	return filter
}
