// Eventry - City Event Catalog Ingestion & Lifecycle Pipeline
// Copyright 2026 The Eventry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventry/eventry

// Package metrics exposes Prometheus instrumentation for the pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ForwardedEvents counts forwarder per-item outcomes by result.
	ForwardedEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventry_forwarded_events_total",
		Help: "Forwarder per-item outcomes (sent, skipped, failed).",
	}, []string{"result"})

	// ForwardRuns counts completed forwarder runs.
	ForwardRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eventry_forward_runs_total",
		Help: "Completed forwarder runs.",
	})

	// IngestOutcomes counts store-router outcomes by status and reason.
	IngestOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventry_ingest_outcomes_total",
		Help: "Store router outcomes by status and reason.",
	}, []string{"status", "reason"})

	// SweepMigrated counts active events retired to the inactive partition.
	SweepMigrated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eventry_sweep_migrated_total",
		Help: "Events migrated from active to inactive storage.",
	})

	// SweepPreviewAdvanced counts preview-date advances.
	SweepPreviewAdvanced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eventry_sweep_preview_advanced_total",
		Help: "Active events whose preview date was advanced.",
	})

	// SweepCycles counts sweep wake-ups by result.
	SweepCycles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventry_sweep_cycles_total",
		Help: "Sweeper cycles by result (ok, error).",
	}, []string{"result"})

	// CacheRequests counts read-cache lookups by outcome.
	CacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventry_cache_requests_total",
		Help: "Read cache lookups by outcome (hit, miss).",
	}, []string{"outcome"})

	// WarmedIdentifiers tracks how many identifiers the last bootstrap
	// warm-up added to the dedup ledger.
	WarmedIdentifiers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "eventry_warmed_identifiers",
		Help: "Identifiers newly marked processed by the last warm-up.",
	})
)
