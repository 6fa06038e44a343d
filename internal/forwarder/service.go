// Eventry - City Event Catalog Ingestion & Lifecycle Pipeline
// Copyright 2026 The Eventry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventry/eventry

package forwarder

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/eventry/eventry/internal/logging"
	"github.com/eventry/eventry/internal/models"
)

// Service runs the forwarder on a fixed-interval loop as a supervised
// service. A cycle that errors is logged and the loop continues at the
// next wake-up; only context cancellation ends the service.
type Service struct {
	forwarder *Forwarder
	source    Source
	interval  time.Duration
	name      string
	log       zerolog.Logger
}

// NewService creates the periodic forwarder service.
func NewService(fwd *Forwarder, source Source, interval time.Duration) *Service {
	return &Service{
		forwarder: fwd,
		source:    source,
		interval:  interval,
		name:      "forwarder-loop",
		log:       logging.Component("forwarder"),
	}
}

// Serve implements suture.Service. The first cycle runs immediately so
// a fresh process does not idle for a full interval before forwarding.
func (s *Service) Serve(ctx context.Context) error {
	s.log.Info().Dur("interval", s.interval).Msg("forwarder loop started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runCycle(ctx)
	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("forwarder loop stopping")
			return ctx.Err()
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

// String implements fmt.Stringer for supervisor logging.
func (s *Service) String() string {
	return s.name
}

// RunOnce performs one collect-and-forward cycle on demand. It backs the
// manual trigger endpoint and the periodic loop alike.
func (s *Service) RunOnce(ctx context.Context) (models.ForwardSummary, error) {
	events, err := s.source.Collect(ctx)
	if err != nil {
		return models.ForwardSummary{Failed: []models.ForwardFailure{}}, err
	}
	return s.forwarder.Forward(ctx, events), nil
}

func (s *Service) runCycle(ctx context.Context) {
	summary, err := s.RunOnce(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.log.Error().Err(err).Msg("collect failed, skipping cycle")
		return
	}
	if summary.Sent == 0 && summary.Skipped == 0 && len(summary.Failed) == 0 {
		s.log.Debug().Msg("forward cycle had no events")
	}
}
