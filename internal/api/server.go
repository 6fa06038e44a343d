// Eventry - City Event Catalog Ingestion & Lifecycle Pipeline
// Copyright 2026 The Eventry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventry/eventry

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/eventry/eventry/internal/logging"
)

// shutdownGrace bounds how long in-flight requests may drain at stop.
const shutdownGrace = 10 * time.Second

// Server runs the HTTP boundary as a supervised service.
type Server struct {
	srv  *http.Server
	name string
	log  zerolog.Logger
}

// NewServer creates the HTTP server service bound to addr.
func NewServer(addr string, handler http.Handler, timeout time.Duration) *Server {
	return &Server{
		srv: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
			IdleTimeout:  2 * timeout,
		},
		name: "http-server",
		log:  logging.Component("api"),
	}
}

// Serve implements suture.Service. Shutdown is awaited so listeners and
// in-flight requests release shared resources before the process exits.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.srv.Addr).Msg("http server listening")
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		s.log.Warn().Err(err).Msg("http shutdown incomplete")
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return ctx.Err()
}

// String implements fmt.Stringer for supervisor logging.
func (s *Server) String() string {
	return s.name
}
