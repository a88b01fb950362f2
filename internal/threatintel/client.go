// ModSentry - Behavioral Moderation and Trust Engine for Chat Platforms
// Copyright 2026 ModSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modsentry/modsentry

// Package threatintel implements the optional external domain-reputation
// lookup. It sits off the hot path behind a strict timeout, a rate
// limiter and a circuit breaker; every failure mode degrades to
// "unknown", never to "malicious".
package threatintel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/modsentry/modsentry/internal/cache"
	"github.com/modsentry/modsentry/internal/logging"
	"github.com/modsentry/modsentry/internal/metrics"
)

// ErrThrottled is returned when the local rate limiter rejects a lookup.
var ErrThrottled = errors.New("threatintel: lookup throttled")

// Config configures the reputation client.
type Config struct {
	URL     string
	Timeout time.Duration

	RequestsPerSecond  int
	BreakerMaxFailures int
	BreakerOpenFor     time.Duration

	// CacheTTL keeps verdicts warm so repeated links in a raid do not
	// re-query the provider.
	CacheTTL time.Duration
	// CacheSize bounds the verdict cache.
	CacheSize int
}

// DefaultConfig returns conservative lookup settings.
func DefaultConfig() Config {
	return Config{
		Timeout:            150 * time.Millisecond,
		RequestsPerSecond:  20,
		BreakerMaxFailures: 5,
		BreakerOpenFor:     30 * time.Second,
		CacheTTL:           10 * time.Minute,
		CacheSize:          2048,
	}
}

// verdict is the provider response body.
type verdict struct {
	Malicious bool `json:"malicious"`
}

// Client queries a reputation provider over HTTP. It implements the
// detection pipeline's DomainIntel interface.
type Client struct {
	cfg      Config
	http     *http.Client
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker[bool]
	verdicts *cache.LRU
}

// NewClient builds the client. cfg.URL must point at an endpoint that
// answers GET ?domain=<name> with {"malicious": bool}.
func NewClient(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("threatintel: provider URL is required")
	}
	if _, err := url.Parse(cfg.URL); err != nil {
		return nil, fmt.Errorf("threatintel: invalid provider URL: %w", err)
	}

	name := "threatintel"
	metrics.ThreatIntelBreakerState.Set(0)

	breaker := gobreaker.NewCircuitBreaker[bool](gobreaker.Settings{
		Name:        name,
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     cfg.BreakerOpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(cfg.BreakerMaxFailures)
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			logging.Info().
				Str("from", breakerStateString(from)).
				Str("to", breakerStateString(to)).
				Msg("threat intel breaker state changed")
			metrics.ThreatIntelBreakerState.Set(breakerStateFloat(to))
		},
	})

	return &Client{
		cfg:      cfg,
		http:     &http.Client{Timeout: cfg.Timeout},
		limiter:  rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.RequestsPerSecond),
		breaker:  breaker,
		verdicts: cache.NewLRU(cfg.CacheSize, cfg.CacheTTL),
	}, nil
}

// IsMaliciousDomain looks a domain up. Errors mean "unknown": the caller
// must treat them as not-malicious.
func (c *Client) IsMaliciousDomain(ctx context.Context, domain string) (bool, error) {
	if v, ok := c.verdicts.Get(domain); ok {
		metrics.ThreatIntelLookups.WithLabelValues("cached").Inc()
		return v.(bool), nil
	}

	// Never wait for a token on the hot path.
	if !c.limiter.Allow() {
		metrics.ThreatIntelLookups.WithLabelValues("throttled").Inc()
		return false, ErrThrottled
	}

	malicious, err := c.breaker.Execute(func() (bool, error) {
		return c.query(ctx, domain)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.ThreatIntelLookups.WithLabelValues("rejected").Inc()
		} else {
			metrics.ThreatIntelLookups.WithLabelValues("error").Inc()
		}
		return false, err
	}

	c.verdicts.Add(domain, malicious)
	if malicious {
		metrics.ThreatIntelLookups.WithLabelValues("malicious").Inc()
	} else {
		metrics.ThreatIntelLookups.WithLabelValues("clean").Inc()
	}
	return malicious, nil
}

// query performs one provider request under the configured timeout.
func (c *Client) query(ctx context.Context, domain string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.URL, nil)
	if err != nil {
		return false, fmt.Errorf("threatintel: build request: %w", err)
	}
	q := req.URL.Query()
	q.Set("domain", domain)
	req.URL.RawQuery = q.Encode()

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("threatintel: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return false, fmt.Errorf("threatintel: provider returned %d", resp.StatusCode)
	}

	var v verdict
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&v); err != nil {
		return false, fmt.Errorf("threatintel: decode response: %w", err)
	}
	return v.Malicious, nil
}

func breakerStateString(s gobreaker.State) string {
	switch s {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

func breakerStateFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
