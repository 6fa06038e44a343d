// Eventry - City Event Catalog Ingestion & Lifecycle Pipeline
// Copyright 2026 The Eventry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventry/eventry

package forwarder

import (
	"context"

	"github.com/google/uuid"

	"github.com/eventry/eventry/internal/logging"
	"github.com/eventry/eventry/internal/metrics"
)

// UUIDLister is the durable-store surface the warmer reads from. The
// warmer never consults the read cache; only the store is trusted at
// bootstrap.
type UUIDLister interface {
	ListActiveUUIDs(ctx context.Context) ([]uuid.UUID, error)
}

// Warmer seeds the dedup ledger from the durable store at process start
// so a restarted forwarder does not re-submit already-ingested events.
type Warmer struct {
	store  UUIDLister
	ledger Ledger
}

// NewWarmer creates a bootstrap warmer.
func NewWarmer(store UUIDLister, ledger Ledger) *Warmer {
	return &Warmer{store: store, ledger: ledger}
}

// Warmup pre-populates the ledger with every canonical identifier the
// store knows and returns how many were newly marked. Any failure is
// logged and reported as zero warmed; the forwarder still functions,
// re-discovering existing records through the router's existence check.
func (w *Warmer) Warmup(ctx context.Context) int {
	log := logging.Component("warmer")

	ids, err := w.store.ListActiveUUIDs(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("warmup identifier fetch failed, starting cold")
		metrics.WarmedIdentifiers.Set(0)
		return 0
	}

	added, err := w.ledger.AddBatch(ids)
	if err != nil {
		log.Warn().Err(err).Int("marked", added).Msg("warmup ledger write failed")
	}

	metrics.WarmedIdentifiers.Set(float64(added))
	log.Info().Int("known", len(ids)).Int("marked", added).Msg("dedup ledger warmed")
	return added
}
