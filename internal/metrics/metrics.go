// ModSentry - Behavioral Moderation and Trust Engine for Chat Platforms
// Copyright 2026 ModSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modsentry/modsentry

// Package metrics exposes Prometheus instrumentation for the moderation
// pipeline: evaluations, violations, decisions, detector health, store
// health and action delivery.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Pipeline metrics
	MessagesEvaluated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "modsentry_messages_evaluated_total",
			Help: "Total number of messages run through the detection pipeline",
		},
	)

	EvaluationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "modsentry_evaluation_duration_seconds",
			Help: "End-to-end evaluation duration (detection, scoring, decision)",
			// Hot-path budget is tens of milliseconds; buckets resolve that range.
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)

	ViolationsDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modsentry_violations_total",
			Help: "Violations detected, by type and severity",
		},
		[]string{"type", "severity"},
	)

	DetectorFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modsentry_detector_failures_total",
			Help: "Detectors that degraded (fail-open) during evaluation",
		},
		[]string{"detector"},
	)

	DetectorDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "modsentry_detector_duration_seconds",
			Help:    "Per-detector evaluation duration",
			Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025},
		},
		[]string{"detector"},
	)

	// Decision metrics
	DecisionsIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modsentry_decisions_total",
			Help: "Punishment decisions issued, by action",
		},
		[]string{"action"},
	)

	TrustScoreBucket = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modsentry_trust_transitions_total",
			Help: "Trust level transitions after applying violations",
		},
		[]string{"risk_level"},
	)

	QuarantinesActivated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "modsentry_quarantines_total",
			Help: "Quarantines activated by the trust engine",
		},
	)

	// Store metrics
	StoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modsentry_store_operations_total",
			Help: "Profile store operations, by op and outcome",
		},
		[]string{"op", "outcome"},
	)

	UnpersistedOutcomes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "modsentry_unpersisted_outcomes_total",
			Help: "Moderation outcomes computed on an unpersisted profile",
		},
	)

	ProfileCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "modsentry_profile_cache_hits_total",
			Help: "Profile cache hits",
		},
	)

	ProfileCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "modsentry_profile_cache_misses_total",
			Help: "Profile cache misses",
		},
	)

	ActiveProfiles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "modsentry_active_profiles",
			Help: "Profiles currently tracked in the store",
		},
	)

	// Action execution metrics
	ActionsApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modsentry_actions_applied_total",
			Help: "Platform actions applied, by action type",
		},
		[]string{"action"},
	)

	ActionFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modsentry_action_failures_total",
			Help: "Platform actions that could not be applied (surfaced, never dropped)",
		},
		[]string{"action"},
	)

	// Threat intel metrics
	ThreatIntelLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modsentry_threat_intel_lookups_total",
			Help: "Domain reputation lookups, by outcome (malicious, clean, unknown, error)",
		},
		[]string{"outcome"},
	)

	ThreatIntelBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "modsentry_threat_intel_breaker_state",
			Help: "Threat intel circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)

	// Sweep metrics
	SweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "modsentry_sweep_duration_seconds",
			Help:    "Periodic maintenance sweep duration",
			Buckets: prometheus.DefBuckets,
		},
	)

	SweepEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modsentry_sweep_evictions_total",
			Help: "Entries evicted by the sweep, by kind (window, history, profile)",
		},
		[]string{"kind"},
	)

	// Ingest metrics
	IngestMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modsentry_ingest_messages_total",
			Help: "Messages consumed from the ingest stream, by outcome",
		},
		[]string{"outcome"},
	)

	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modsentry_api_requests_total",
			Help: "Admin API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "modsentry_api_request_duration_seconds",
			Help:    "Admin API request duration",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "endpoint"},
	)

	// WebSocket metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "modsentry_ws_connections",
			Help: "Connected operator dashboard clients",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "modsentry_ws_messages_sent_total",
			Help: "Messages broadcast to operator dashboards",
		},
	)
)

// ObserveEvaluation records one full pipeline evaluation.
func ObserveEvaluation(start time.Time) {
	MessagesEvaluated.Inc()
	EvaluationDuration.Observe(time.Since(start).Seconds())
}

// ObserveDetector records one detector run.
func ObserveDetector(name string, start time.Time, failed bool) {
	DetectorDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if failed {
		DetectorFailures.WithLabelValues(name).Inc()
	}
}

// ObserveAPIRequest records one admin API request.
func ObserveAPIRequest(method, endpoint string, status int, start time.Time) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(time.Since(start).Seconds())
}
