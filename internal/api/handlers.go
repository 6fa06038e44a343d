// Eventry - City Event Catalog Ingestion & Lifecycle Pipeline
// Copyright 2026 The Eventry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventry/eventry

package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/eventry/eventry/internal/cache"
	"github.com/eventry/eventry/internal/database"
	"github.com/eventry/eventry/internal/ingest"
	"github.com/eventry/eventry/internal/logging"
	"github.com/eventry/eventry/internal/metrics"
	"github.com/eventry/eventry/internal/models"
)

// maxBodyBytes caps request bodies on the ingestion boundary.
const maxBodyBytes = 8 << 20

// CatalogStore is the durable-store surface the read and promotion
// endpoints use.
type CatalogStore interface {
	ListActive(ctx context.Context, filter database.EventFilter) ([]models.Event, error)
	ListInactive(ctx context.Context) ([]models.Event, error)
	ListActiveUUIDs(ctx context.Context) ([]uuid.UUID, error)
	PromoteBest(ctx context.Context, eventIDs []int64) (*models.PromoteResponse, error)
	ListBest(ctx context.Context, filter database.EventFilter) ([]models.Event, error)
	Ping(ctx context.Context) error
}

// Ingestor routes submitted events into the store.
type Ingestor interface {
	Ingest(ctx context.Context, ev *models.ScrapedEvent) models.Outcome
	IngestBatch(ctx context.Context, payloads []models.EventPayload) *models.BatchResponse
}

// EventCache is the scoped read-cache surface.
type EventCache interface {
	GetEvents(scope string) ([]models.Event, bool)
	GetEventByID(id int64, scope string) (*models.Event, bool)
	PutEvents(scope string, events []models.Event)
}

// EventForwarder submits scraped events with partial-failure accounting.
type EventForwarder interface {
	Forward(ctx context.Context, events []*models.ScrapedEvent) models.ForwardSummary
}

// CycleRunner triggers one collect-and-forward cycle on demand.
type CycleRunner interface {
	RunOnce(ctx context.Context) (models.ForwardSummary, error)
}

// Handler carries the pipeline components the HTTP boundary exposes.
type Handler struct {
	store     CatalogStore
	ingestor  Ingestor
	cache     EventCache
	forwarder EventForwarder
	runner    CycleRunner
	validate  *validator.Validate
	log       zerolog.Logger
}

// NewHandler creates the HTTP handler set. forwarder and runner may be
// nil when the forwarder loop is disabled; the corresponding endpoints
// then report unavailable.
func NewHandler(store CatalogStore, ingestor Ingestor, eventCache EventCache, fwd EventForwarder, runner CycleRunner) *Handler {
	return &Handler{
		store:     store,
		ingestor:  ingestor,
		cache:     eventCache,
		forwarder: fwd,
		runner:    runner,
		validate:  validator.New(),
		log:       logging.Component("api"),
	}
}

// Health reports process and store liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":   "degraded",
			"database": err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Upload is the single-event submit endpoint.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	var payload models.EventPayload
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ev, err := payload.Normalize()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	outcome := h.ingestor.Ingest(r.Context(), ev)
	resp := models.UploadResponse{UUID: ev.UUID, Type: outcome.Type}
	switch outcome.Status {
	case models.OutcomeCreated:
		resp.Detail = "created"
		writeJSON(w, http.StatusCreated, resp)
	case models.OutcomeSkipped:
		resp.Detail = outcome.Reason
		writeJSON(w, http.StatusOK, resp)
	default:
		writeError(w, failureStatus(outcome.Reason), outcome.Reason+": "+outcome.Detail)
	}
}

// Batch is the batch submit endpoint consumed by the forwarder.
func (h *Handler) Batch(w http.ResponseWriter, r *http.Request) {
	var req models.BatchRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.ingestor.IngestBatch(r.Context(), req.Events))
}

// Events serves the active partition through the read cache. The scope
// is the normalized type filter, or the all-events scope when no type is
// given; an id filter is a client-side scan over the scoped list.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	scope, typeKey, ok := h.resolveScope(w, r)
	if !ok {
		return
	}

	if rawID := r.URL.Query().Get("id"); rawID != "" {
		id, err := strconv.ParseInt(rawID, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid id filter")
			return
		}
		h.eventByID(w, r, scope, typeKey, id)
		return
	}

	events, hit := h.cache.GetEvents(scope)
	if hit {
		metrics.CacheRequests.WithLabelValues("hit").Inc()
	} else {
		metrics.CacheRequests.WithLabelValues("miss").Inc()
		var err error
		events, err = h.store.ListActive(r.Context(), database.EventFilter{Type: typeKey})
		if err != nil {
			h.log.Error().Err(err).Str("scope", scope).Msg("active list fetch failed")
			writeError(w, http.StatusBadGateway, "event store unavailable")
			return
		}
		h.cache.PutEvents(scope, events)
	}

	writeJSON(w, http.StatusOK, events)
}

// eventByID serves a single event: the cache's scoped scan first, then a
// refill from the store on miss.
func (h *Handler) eventByID(w http.ResponseWriter, r *http.Request, scope, typeKey string, id int64) {
	if ev, ok := h.cache.GetEventByID(id, scope); ok {
		metrics.CacheRequests.WithLabelValues("hit").Inc()
		writeJSON(w, http.StatusOK, ev)
		return
	}

	metrics.CacheRequests.WithLabelValues("miss").Inc()
	events, err := h.store.ListActive(r.Context(), database.EventFilter{Type: typeKey})
	if err != nil {
		h.log.Error().Err(err).Str("scope", scope).Msg("active list fetch failed")
		writeError(w, http.StatusBadGateway, "event store unavailable")
		return
	}
	h.cache.PutEvents(scope, events)

	for i := range events {
		if events[i].ID == id {
			writeJSON(w, http.StatusOK, events[i])
			return
		}
	}
	writeError(w, http.StatusNotFound, "event not found")
}

// InactiveEvents serves the retired partition, uncached.
func (h *Handler) InactiveEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.store.ListInactive(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("inactive list fetch failed")
		writeError(w, http.StatusBadGateway, "event store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// UUIDs is the identifier bootstrap boundary.
func (h *Handler) UUIDs(w http.ResponseWriter, r *http.Request) {
	ids, err := h.store.ListActiveUUIDs(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("uuid list fetch failed")
		writeError(w, http.StatusBadGateway, "event store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string][]uuid.UUID{"uuids": ids})
}

// PromoteBest copies the named active events into the curated partition.
func (h *Handler) PromoteBest(w http.ResponseWriter, r *http.Request) {
	var req models.PromoteRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	resp, err := h.store.PromoteBest(r.Context(), req.EventIDs)
	if err != nil {
		h.log.Error().Err(err).Msg("promotion failed")
		writeError(w, http.StatusBadGateway, "event store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListBest serves the curated partition.
func (h *Handler) ListBest(w http.ResponseWriter, r *http.Request) {
	_, typeKey, ok := h.resolveScope(w, r)
	if !ok {
		return
	}
	events, err := h.store.ListBest(r.Context(), database.EventFilter{Type: typeKey})
	if err != nil {
		h.log.Error().Err(err).Msg("best list fetch failed")
		writeError(w, http.StatusBadGateway, "event store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// ScraperResults accepts a batch of collected events and forwards them
// through the dedup ledger, returning the forward summary.
func (h *Handler) ScraperResults(w http.ResponseWriter, r *http.Request) {
	if h.forwarder == nil {
		writeError(w, http.StatusServiceUnavailable, "forwarder disabled")
		return
	}

	var payloads []models.EventPayload
	if err := decodeBody(r, &payloads); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary := models.ForwardSummary{Failed: []models.ForwardFailure{}}
	events := make([]*models.ScrapedEvent, 0, len(payloads))
	for i := range payloads {
		ev, err := payloads[i].Normalize()
		if err != nil {
			id, _ := uuid.Parse(payloads[i].UUID)
			summary.Failed = append(summary.Failed, models.ForwardFailure{
				UUID:   id,
				Status: 0,
				Detail: err.Error(),
			})
			continue
		}
		events = append(events, ev)
	}

	forwarded := h.forwarder.Forward(r.Context(), events)
	summary.Sent = forwarded.Sent
	summary.Skipped = forwarded.Skipped
	summary.Failed = append(summary.Failed, forwarded.Failed...)
	writeJSON(w, http.StatusOK, summary)
}

// ScraperRun triggers one collect-and-forward cycle on demand.
func (h *Handler) ScraperRun(w http.ResponseWriter, r *http.Request) {
	if h.runner == nil {
		writeError(w, http.StatusServiceUnavailable, "forwarder disabled")
		return
	}

	summary, err := h.runner.RunOnce(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("manual forward cycle failed")
		writeError(w, http.StatusBadGateway, "collector unavailable")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// resolveScope maps the type query parameter to a cache scope and store
// filter. An unknown type is the most specific reportable failure.
func (h *Handler) resolveScope(w http.ResponseWriter, r *http.Request) (scope, typeKey string, ok bool) {
	raw := r.URL.Query().Get("type")
	if raw == "" {
		return cache.ScopeAll, "", true
	}
	key := ingest.NormalizeCategory(raw)
	if !ingest.SupportedCategory(key) {
		writeError(w, http.StatusUnprocessableEntity, "unsupported_type: "+raw)
		return "", "", false
	}
	return key, key, true
}

func decodeBody(r *http.Request, v interface{}) error {
	return json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes)).Decode(v)
}

// failureStatus maps a router failure reason to an HTTP status.
func failureStatus(reason string) int {
	switch reason {
	case models.ReasonImageDownload, models.ReasonStorage:
		return http.StatusBadGateway
	default:
		return http.StatusUnprocessableEntity
	}
}
