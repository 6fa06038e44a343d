// Eventry - City Event Catalog Ingestion & Lifecycle Pipeline
// Copyright 2026 The Eventry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventry/eventry

// Package ingest implements the classifier and store router: it maps a
// free-text event-type label to a canonical category key and routes the
// event into both the canonical-active record set and its category
// partition, enforcing identity uniqueness across the store's three
// surfaces.
package ingest

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/eventry/eventry/internal/database"
	"github.com/eventry/eventry/internal/images"
	"github.com/eventry/eventry/internal/logging"
	"github.com/eventry/eventry/internal/metrics"
	"github.com/eventry/eventry/internal/models"
)

// reasonInvalidPayload marks events that failed shape validation.
const reasonInvalidPayload = "invalid_payload"

// Store is the durable-store surface the router needs.
type Store interface {
	ExistsAnywhere(ctx context.Context, id uuid.UUID, categoryKey string) (bool, error)
	InsertEvent(ctx context.Context, ev *models.Event, categoryKey string) error
}

// Router classifies scraped events and persists them.
type Router struct {
	store    Store
	resolver images.Resolver
	validate *validator.Validate
	log      zerolog.Logger
}

// NewRouter creates a store router.
func NewRouter(store Store, resolver images.Resolver) *Router {
	return &Router{
		store:    store,
		resolver: resolver,
		validate: validator.New(),
		log:      logging.Component("ingest"),
	}
}

// Ingest routes one scraped event. The returned outcome is one of
// created, skipped(reason), or failed(reason, detail); the store's
// uniqueness constraint is the final arbiter for concurrent submissions
// of the same uuid.
func (r *Router) Ingest(ctx context.Context, ev *models.ScrapedEvent) models.Outcome {
	outcome := r.ingest(ctx, ev)
	metrics.IngestOutcomes.WithLabelValues(string(outcome.Status), outcome.Reason).Inc()
	return outcome
}

func (r *Router) ingest(ctx context.Context, ev *models.ScrapedEvent) models.Outcome {
	if err := r.validate.Struct(ev); err != nil {
		return models.Outcome{
			Status: models.OutcomeFailed,
			Reason: reasonInvalidPayload,
			Detail: err.Error(),
		}
	}

	key := NormalizeCategory(ev.EventType)
	if !SupportedCategory(key) {
		return models.Outcome{
			Status: models.OutcomeSkipped,
			Reason: models.ReasonUnsupportedType,
			Detail: ev.EventType,
		}
	}

	exists, err := r.store.ExistsAnywhere(ctx, ev.UUID, key)
	if err != nil {
		return models.Outcome{
			Status: models.OutcomeFailed,
			Type:   key,
			Reason: models.ReasonStorage,
			Detail: err.Error(),
		}
	}
	if exists {
		return models.Outcome{
			Status: models.OutcomeSkipped,
			Type:   key,
			Reason: models.ReasonAlreadyExists,
		}
	}

	// All active events must carry a displayable image: a reference that
	// fails to resolve is a hard failure, only a missing reference is a
	// soft skip.
	if ev.ImageURL == "" {
		return models.Outcome{
			Status: models.OutcomeSkipped,
			Type:   key,
			Reason: models.ReasonNoImageURL,
		}
	}
	storedImage, err := r.resolver.Resolve(ctx, ev.ImageURL, ev.UUID.String())
	if err != nil {
		return models.Outcome{
			Status: models.OutcomeFailed,
			Type:   key,
			Reason: models.ReasonImageDownload,
			Detail: err.Error(),
		}
	}

	record := models.NewEventFromScraped(ev, key, storedImage)
	if err := r.store.InsertEvent(ctx, record, key); err != nil {
		if errors.Is(err, database.ErrAlreadyExists) {
			return models.Outcome{
				Status: models.OutcomeSkipped,
				Type:   key,
				Reason: models.ReasonAlreadyExists,
			}
		}
		return models.Outcome{
			Status: models.OutcomeFailed,
			Type:   key,
			Reason: models.ReasonStorage,
			Detail: err.Error(),
		}
	}

	r.log.Info().Stringer("uuid", ev.UUID).Str("type", key).Msg("event ingested")
	return models.Outcome{Status: models.OutcomeCreated, Type: key}
}

// IngestBatch routes an ordered list of wire payloads, producing the
// structured three-list batch response. A payload that fails
// normalization is attributed as failed without poisoning the rest of
// the batch.
func (r *Router) IngestBatch(ctx context.Context, payloads []models.EventPayload) *models.BatchResponse {
	resp := &models.BatchResponse{
		Created: []models.BatchItem{},
		Skipped: []models.BatchSkipped{},
		Failed:  []models.BatchFailed{},
	}

	for i := range payloads {
		ev, err := payloads[i].Normalize()
		if err != nil {
			id, _ := uuid.Parse(payloads[i].UUID)
			resp.Failed = append(resp.Failed, models.BatchFailed{
				UUID:   id,
				Reason: reasonInvalidPayload,
				Detail: err.Error(),
			})
			continue
		}

		outcome := r.Ingest(ctx, ev)
		switch outcome.Status {
		case models.OutcomeCreated:
			resp.Created = append(resp.Created, models.BatchItem{UUID: ev.UUID, Type: outcome.Type})
		case models.OutcomeSkipped:
			resp.Skipped = append(resp.Skipped, models.BatchSkipped{
				UUID:   ev.UUID,
				Type:   outcome.Type,
				Reason: outcome.Reason,
			})
		case models.OutcomeFailed:
			resp.Failed = append(resp.Failed, models.BatchFailed{
				UUID:   ev.UUID,
				Type:   outcome.Type,
				Reason: outcome.Reason,
				Detail: outcome.Detail,
			})
		}
	}
	return resp
}
