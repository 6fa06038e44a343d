// Eventry - City Event Catalog Ingestion & Lifecycle Pipeline
// Copyright 2026 The Eventry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventry/eventry

// Package forwarder implements the batch forwarder and bootstrap warmer.
//
// The forwarder consumes scraped events from a Source, drops identifiers
// already recorded in the dedup ledger, submits the remainder in
// fixed-size chunks to the ingestion boundary, and reconciles per-item
// outcomes back into the ledger. Ledger writes happen only on confirmed
// creation or confirmed pre-existence, so a failed item is retried on a
// future run (at-least-once delivery with idempotent dedup).
package forwarder

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/eventry/eventry/internal/logging"
	"github.com/eventry/eventry/internal/metrics"
	"github.com/eventry/eventry/internal/models"
)

// Source produces scraped events for one forward cycle. Implementations
// are external collectors; a cycle that returns no events is a no-op.
type Source interface {
	Collect(ctx context.Context) ([]*models.ScrapedEvent, error)
}

// SourceFunc adapts a plain function to the Source interface.
type SourceFunc func(ctx context.Context) ([]*models.ScrapedEvent, error)

// Collect implements Source.
func (f SourceFunc) Collect(ctx context.Context) ([]*models.ScrapedEvent, error) {
	return f(ctx)
}

// Ledger is the processed-set surface the forwarder needs.
type Ledger interface {
	Contains(id uuid.UUID) bool
	Add(id uuid.UUID) error
	AddBatch(ids []uuid.UUID) (int, error)
}

// BatchSubmitter posts one sub-batch to the ingestion boundary.
type BatchSubmitter interface {
	SubmitBatch(ctx context.Context, payloads []models.EventPayload) (*models.BatchResponse, error)
}

// Forwarder chunks scraped events and submits them with partial-failure
// accounting.
type Forwarder struct {
	ledger    Ledger
	client    BatchSubmitter
	batchSize int
	log       zerolog.Logger
}

// New creates a forwarder. batchSize must be positive; config validation
// enforces that before we get here.
func New(ledger Ledger, client BatchSubmitter, batchSize int) *Forwarder {
	return &Forwarder{
		ledger:    ledger,
		client:    client,
		batchSize: batchSize,
		log:       logging.Component("forwarder"),
	}
}

// Forward submits events in fixed-size chunks and returns the summary.
//
// Per chunk: identifiers already in the ledger are dropped and counted
// as skipped; the remaining sub-batch goes out as one network call. A
// transport error or non-success status fails every item of that
// sub-batch and the run moves on to the next chunk. On success the
// response's three lists are reconciled in response order: created items
// are marked processed and counted as sent, skips tagged already_exists
// are marked processed, other skip reasons pass through unmarked, and
// failures are appended verbatim.
func (f *Forwarder) Forward(ctx context.Context, events []*models.ScrapedEvent) models.ForwardSummary {
	summary := models.ForwardSummary{Failed: []models.ForwardFailure{}}

	for start := 0; start < len(events); start += f.batchSize {
		end := start + f.batchSize
		if end > len(events) {
			end = len(events)
		}
		f.forwardChunk(ctx, events[start:end], &summary)
	}

	metrics.ForwardRuns.Inc()
	f.log.Info().
		Int("sent", summary.Sent).
		Int("skipped", summary.Skipped).
		Int("failed", len(summary.Failed)).
		Msg("forward run complete")
	return summary
}

func (f *Forwarder) forwardChunk(ctx context.Context, chunk []*models.ScrapedEvent, summary *models.ForwardSummary) {
	pending := make([]*models.ScrapedEvent, 0, len(chunk))
	for _, ev := range chunk {
		if f.ledger.Contains(ev.UUID) {
			summary.Skipped++
			metrics.ForwardedEvents.WithLabelValues("skipped").Inc()
			continue
		}
		pending = append(pending, ev)
	}
	if len(pending) == 0 {
		return
	}

	payloads := make([]models.EventPayload, 0, len(pending))
	for _, ev := range pending {
		payloads = append(payloads, models.PayloadFromScraped(ev))
	}

	resp, err := f.client.SubmitBatch(ctx, payloads)
	if err != nil {
		status, detail := 0, err.Error()
		var se *StatusError
		if errors.As(err, &se) {
			status, detail = se.Status, se.Body
		}
		for _, ev := range pending {
			summary.Failed = append(summary.Failed, models.ForwardFailure{
				UUID:   ev.UUID,
				Status: status,
				Detail: detail,
			})
			metrics.ForwardedEvents.WithLabelValues("failed").Inc()
		}
		f.log.Warn().Err(err).Int("events", len(pending)).Msg("sub-batch submit failed")
		return
	}

	for _, item := range resp.Created {
		f.markProcessed(item.UUID)
		summary.Sent++
		metrics.ForwardedEvents.WithLabelValues("sent").Inc()
	}
	for _, sk := range resp.Skipped {
		if sk.Reason == models.ReasonAlreadyExists {
			f.markProcessed(sk.UUID)
		}
		summary.Skipped++
		metrics.ForwardedEvents.WithLabelValues("skipped").Inc()
	}
	for _, fl := range resp.Failed {
		summary.Failed = append(summary.Failed, models.ForwardFailure{
			UUID:   fl.UUID,
			Status: 0,
			Detail: fmt.Sprintf("%s: %s", fl.Reason, fl.Detail),
		})
		metrics.ForwardedEvents.WithLabelValues("failed").Inc()
	}
}

// markProcessed records a confirmed identifier. A ledger write failure
// is logged but does not change the summary: the store's uniqueness
// check will absorb the duplicate on the next run.
func (f *Forwarder) markProcessed(id uuid.UUID) {
	if err := f.ledger.Add(id); err != nil {
		f.log.Warn().Err(err).Stringer("uuid", id).Msg("ledger write failed")
	}
}
