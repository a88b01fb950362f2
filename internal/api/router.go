// ModSentry - Behavioral Moderation and Trust Engine for Chat Platforms
// Copyright 2026 ModSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modsentry/modsentry

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router assembles the admin API from its handler, middleware, and token
// manager.
type Router struct {
	handler    *Handler
	middleware *Middleware
	tokens     *TokenManager
}

// NewRouter creates a router. tokens may be nil, which leaves every data
// endpoint unauthenticated; only do that in tests.
func NewRouter(handler *Handler, middleware *Middleware, tokens *TokenManager) *Router {
	if middleware == nil {
		middleware = NewMiddleware(DefaultMiddlewareConfig())
	}
	return &Router{handler: handler, middleware: middleware, tokens: tokens}
}

// Routes builds the chi handler tree.
func (router *Router) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.middleware.CORS())

	// Health endpoints stay unauthenticated so probes work before any
	// operator has a token.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.middleware.RateLimitHealth())
		r.Use(SecurityHeaders())
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
		r.Get("/", router.handler.Health)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.middleware.RateLimit())
		r.Use(SecurityHeaders())
		r.Use(PrometheusMetrics)
		r.Use(router.authenticate())

		r.Get("/profiles", router.handler.ListProfiles)
		r.Get("/profiles/{userID}", router.handler.GetProfile)
		r.Get("/profiles/{userID}/violations", router.handler.GetProfileViolations)
		r.Delete("/profiles/{userID}", router.handler.DeleteProfile)

		r.Get("/audit/events", router.handler.ListAuditEvents)
		r.Get("/audit/events/{id}", router.handler.GetAuditEvent)

		r.Get("/patterns", router.handler.GetPatterns)
		r.Get("/ws", router.handler.WebSocket)
	})

	// Prometheus scrape endpoint; deployments front this with network
	// policy rather than bearer tokens.
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func (router *Router) authenticate() func(http.Handler) http.Handler {
	if router.tokens == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return router.tokens.Authenticate
}
