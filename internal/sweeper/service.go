// Eventry - City Event Catalog Ingestion & Lifecycle Pipeline
// Copyright 2026 The Eventry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventry/eventry

package sweeper

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/eventry/eventry/internal/logging"
	"github.com/eventry/eventry/internal/metrics"
)

// Service runs the sweeper on its own fixed-interval wake cycle as a
// supervised service. An errored cycle is logged and the loop continues
// at the next wake-up.
type Service struct {
	sweeper  *Sweeper
	interval time.Duration
	name     string
	log      zerolog.Logger
}

// NewService creates the periodic sweeper service.
func NewService(sw *Sweeper, interval time.Duration) *Service {
	return &Service{
		sweeper:  sw,
		interval: interval,
		name:     "sweeper-loop",
		log:      logging.Component("sweeper"),
	}
}

// Serve implements suture.Service.
func (s *Service) Serve(ctx context.Context) error {
	s.log.Info().Dur("interval", s.interval).Msg("sweeper loop started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("sweeper loop stopping")
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

func (s *Service) runCycle(ctx context.Context) {
	res, err := s.sweeper.Sweep(ctx, time.Now().UTC())
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		metrics.SweepCycles.WithLabelValues("error").Inc()
		s.log.Error().Err(err).Msg("sweep cycle failed")
		return
	}

	metrics.SweepCycles.WithLabelValues("ok").Inc()
	if res.Advanced == 0 && res.Migrated == 0 && res.Errors == 0 {
		s.log.Debug().Int("examined", res.Examined).Msg("sweep cycle made no changes")
		return
	}
	s.log.Info().
		Int("examined", res.Examined).
		Int("advanced", res.Advanced).
		Int("migrated", res.Migrated).
		Int("errors", res.Errors).
		Msg("sweep cycle complete")
}
