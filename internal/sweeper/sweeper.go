// Eventry - City Event Catalog Ingestion & Lifecycle Pipeline
// Copyright 2026 The Eventry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventry/eventry

// Package sweeper implements the lifecycle sweeper: a periodic pass over
// the active partition that advances stale preview dates to the next
// future occurrence and retires fully expired events to the inactive
// partition. Each mutation is one atomic unit per event; a sweep where
// nothing qualifies performs no writes at all.
package sweeper

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/eventry/eventry/internal/database"
	"github.com/eventry/eventry/internal/logging"
	"github.com/eventry/eventry/internal/metrics"
	"github.com/eventry/eventry/internal/models"
)

// Store is the durable-store surface the sweeper drives.
type Store interface {
	ListActive(ctx context.Context, filter database.EventFilter) ([]models.Event, error)
	AdvancePreview(ctx context.Context, ev *models.Event, next time.Time) error
	MigrateToInactive(ctx context.Context, ev *models.Event) error
}

// Result is the accounting outcome of one sweep pass.
type Result struct {
	Examined int
	Advanced int
	Migrated int
	Errors   int
}

// Sweeper evaluates active events against wall-clock time.
type Sweeper struct {
	store Store
	log   zerolog.Logger
}

// New creates a sweeper over the given store.
func New(store Store) *Sweeper {
	return &Sweeper{
		store: store,
		log:   logging.Component("sweeper"),
	}
}

// Sweep runs one pass at evaluation time now. For each active event it
// either advances a stale preview to the earliest strictly-future
// occurrence, migrates the event to the inactive partition when its
// latest known date is in the past, or leaves it untouched. A per-event
// store error is counted and the pass continues; only the initial list
// fetch is fatal to the pass.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) (Result, error) {
	events, err := s.store.ListActive(ctx, database.EventFilter{})
	if err != nil {
		return Result{}, err
	}

	res := Result{Examined: len(events)}
	for i := range events {
		ev := &events[i]

		if next, ok := nextFutureDate(ev.DateList, now); ok {
			if !previewStale(ev.DatePreview, now) {
				continue
			}
			if err := s.store.AdvancePreview(ctx, ev, next); err != nil {
				res.Errors++
				s.log.Warn().Err(err).Stringer("uuid", ev.UUID).Msg("preview advance failed")
				continue
			}
			res.Advanced++
			metrics.SweepPreviewAdvanced.Inc()
			s.log.Debug().
				Stringer("uuid", ev.UUID).
				Time("next", next).
				Msg("preview date advanced")
			continue
		}

		last, ok := latestDate(ev.DateList, ev.DatePreview)
		if !ok {
			// No temporal data at all: nothing to expire against.
			continue
		}
		if last.After(now) {
			continue
		}
		if err := s.store.MigrateToInactive(ctx, ev); err != nil {
			res.Errors++
			s.log.Warn().Err(err).Stringer("uuid", ev.UUID).Msg("migration failed")
			continue
		}
		res.Migrated++
		metrics.SweepMigrated.Inc()
		s.log.Info().
			Stringer("uuid", ev.UUID).
			Str("type", ev.EventType).
			Time("last_date", last).
			Msg("event migrated to inactive")
	}
	return res, nil
}

// nextFutureDate returns the earliest occurrence strictly after now.
// Expiry uses the inclusive comparison, so an occurrence equal to now is
// never "next".
func nextFutureDate(dates []time.Time, now time.Time) (time.Time, bool) {
	var next time.Time
	found := false
	for _, d := range dates {
		if !d.After(now) {
			continue
		}
		if !found || d.Before(next) {
			next = d
			found = true
		}
	}
	return next, found
}

// previewStale reports whether a preview date needs advancing: absent or
// not strictly in the future.
func previewStale(preview *time.Time, now time.Time) bool {
	return preview == nil || !preview.After(now)
}

// latestDate returns the maximum of the occurrence list and the preview
// date, when any exist.
func latestDate(dates []time.Time, preview *time.Time) (time.Time, bool) {
	var last time.Time
	found := false
	for _, d := range dates {
		if !found || d.After(last) {
			last = d
			found = true
		}
	}
	if preview != nil && (!found || preview.After(last)) {
		last = *preview
		found = true
	}
	return last, found
}
