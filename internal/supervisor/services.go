// ModSentry - Behavioral Moderation and Trust Engine for Chat Platforms
// Copyright 2026 ModSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modsentry/modsentry

package supervisor

import (
	"context"
	"errors"
	"net/http"

	"github.com/modsentry/modsentry/internal/logging"
)

// ContextRunner is anything that runs until its context is canceled.
// The moderation engine, the sweeper and the WebSocket hub all satisfy
// this shape.
type ContextRunner interface {
	RunWithContext(ctx context.Context) error
}

// RunnerService adapts a ContextRunner to suture.Service. Context
// cancellation is translated to a clean stop so suture does not treat
// graceful shutdown as a crash.
type RunnerService struct {
	Name   string
	Runner ContextRunner
}

// Serve implements suture.Service.
func (s *RunnerService) Serve(ctx context.Context) error {
	logging.Info().Str("service", s.Name).Msg("service starting")
	err := s.Runner.RunWithContext(ctx)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		logging.Info().Str("service", s.Name).Msg("service stopped")
		return nil
	}
	return err
}

// String implements fmt.Stringer for suture log output.
func (s *RunnerService) String() string { return s.Name }

// HTTPService runs an http.Server under supervision, shutting it down
// gracefully when the context is canceled.
type HTTPService struct {
	Name   string
	Server *http.Server
}

// Serve implements suture.Service.
func (s *HTTPService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("service", s.Name).Str("addr", s.Server.Addr).Msg("http server starting")
		errCh <- s.Server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultTreeConfig().ShutdownTimeout)
		defer cancel()
		if err := s.Server.Shutdown(shutdownCtx); err != nil {
			logging.Warn().Err(err).Str("service", s.Name).Msg("http server shutdown error")
		}
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// String implements fmt.Stringer for suture log output.
func (s *HTTPService) String() string { return s.Name }
