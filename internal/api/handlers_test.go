// Eventry - City Event Catalog Ingestion & Lifecycle Pipeline
// Copyright 2026 The Eventry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventry/eventry

package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventry/eventry/internal/cache"
	"github.com/eventry/eventry/internal/database"
	"github.com/eventry/eventry/internal/models"
)

type fakeCatalogStore struct {
	active    []models.Event
	inactive  []models.Event
	best      []models.Event
	uuids     []uuid.UUID
	listErr   error
	pingErr   error
	lastType  string
	promotion *models.PromoteResponse
}

func (s *fakeCatalogStore) ListActive(_ context.Context, filter database.EventFilter) ([]models.Event, error) {
	s.lastType = filter.Type
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.active, nil
}

func (s *fakeCatalogStore) ListInactive(context.Context) ([]models.Event, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.inactive, nil
}

func (s *fakeCatalogStore) ListActiveUUIDs(context.Context) ([]uuid.UUID, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.uuids, nil
}

func (s *fakeCatalogStore) PromoteBest(_ context.Context, ids []int64) (*models.PromoteResponse, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.promotion, nil
}

func (s *fakeCatalogStore) ListBest(_ context.Context, filter database.EventFilter) ([]models.Event, error) {
	s.lastType = filter.Type
	return s.best, nil
}

func (s *fakeCatalogStore) Ping(context.Context) error {
	return s.pingErr
}

type fakeIngestor struct {
	outcome models.Outcome
	batch   *models.BatchResponse
}

func (i *fakeIngestor) Ingest(context.Context, *models.ScrapedEvent) models.Outcome {
	return i.outcome
}

func (i *fakeIngestor) IngestBatch(context.Context, []models.EventPayload) *models.BatchResponse {
	return i.batch
}

// fakeCache is an in-memory scope map standing in for the Badger cache.
type fakeCache struct {
	scopes map[string][]models.Event
	puts   map[string]int
}

func newFakeCache() *fakeCache {
	return &fakeCache{scopes: map[string][]models.Event{}, puts: map[string]int{}}
}

func (c *fakeCache) GetEvents(scope string) ([]models.Event, bool) {
	events, ok := c.scopes[scope]
	return events, ok
}

func (c *fakeCache) GetEventByID(id int64, scope string) (*models.Event, bool) {
	events, ok := c.scopes[scope]
	if !ok {
		return nil, false
	}
	for i := range events {
		if events[i].ID == id {
			return &events[i], true
		}
	}
	return nil, false
}

func (c *fakeCache) PutEvents(scope string, events []models.Event) {
	c.scopes[scope] = events
	c.puts[scope]++
}

type fakeForwarder struct {
	summary models.ForwardSummary
	got     []*models.ScrapedEvent
}

func (f *fakeForwarder) Forward(_ context.Context, events []*models.ScrapedEvent) models.ForwardSummary {
	f.got = events
	return f.summary
}

type fakeRunner struct {
	summary models.ForwardSummary
	err     error
}

func (r *fakeRunner) RunOnce(context.Context) (models.ForwardSummary, error) {
	return r.summary, r.err
}

type fixtures struct {
	store     *fakeCatalogStore
	ingestor  *fakeIngestor
	cache     *fakeCache
	forwarder *fakeForwarder
	runner    *fakeRunner
	handler   http.Handler
}

func newFixtures() *fixtures {
	f := &fixtures{
		store:     &fakeCatalogStore{},
		ingestor:  &fakeIngestor{},
		cache:     newFakeCache(),
		forwarder: &fakeForwarder{},
		runner:    &fakeRunner{},
	}
	h := NewHandler(f.store, f.ingestor, f.cache, f.forwarder, f.runner)
	f.handler = NewRouter(h, RouterConfig{})
	return f
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func activeEvent(id int64, eventType string) models.Event {
	return models.Event{ID: id, UUID: uuid.New(), EventType: eventType, Title: "Test event"}
}

func TestHealth(t *testing.T) {
	f := newFixtures()
	rec := doJSON(t, f.handler, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	f.store.pingErr = errors.New("db gone")
	rec = doJSON(t, f.handler, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestUploadCreated(t *testing.T) {
	f := newFixtures()
	f.ingestor.outcome = models.Outcome{Status: models.OutcomeCreated, Type: "concert"}

	id := uuid.New()
	rec := doJSON(t, f.handler, http.MethodPost, "/catalog/upload", models.EventPayload{
		UUID: id.String(), EventType: "concert", Title: "x",
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp models.UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "created", resp.Detail)
	assert.Equal(t, id, resp.UUID)
	assert.Equal(t, "concert", resp.Type)
}

func TestUploadSkippedIsOK(t *testing.T) {
	f := newFixtures()
	f.ingestor.outcome = models.Outcome{
		Status: models.OutcomeSkipped,
		Type:   "concert",
		Reason: models.ReasonAlreadyExists,
	}

	rec := doJSON(t, f.handler, http.MethodPost, "/catalog/upload", models.EventPayload{
		UUID: uuid.NewString(), EventType: "concert", Title: "x",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp models.UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, models.ReasonAlreadyExists, resp.Detail)
}

func TestUploadBadUUID(t *testing.T) {
	f := newFixtures()
	rec := doJSON(t, f.handler, http.MethodPost, "/catalog/upload", models.EventPayload{
		UUID: "nope", EventType: "concert", Title: "x",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestUploadStorageFailureIsBadGateway(t *testing.T) {
	f := newFixtures()
	f.ingestor.outcome = models.Outcome{
		Status: models.OutcomeFailed,
		Reason: models.ReasonStorage,
		Detail: "tx aborted",
	}

	rec := doJSON(t, f.handler, http.MethodPost, "/catalog/upload", models.EventPayload{
		UUID: uuid.NewString(), EventType: "concert", Title: "x",
	})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestBatch(t *testing.T) {
	f := newFixtures()
	a := uuid.New()
	f.ingestor.batch = &models.BatchResponse{
		Created: []models.BatchItem{{UUID: a, Type: "concert"}},
		Skipped: []models.BatchSkipped{},
		Failed:  []models.BatchFailed{},
	}

	rec := doJSON(t, f.handler, http.MethodPost, "/catalog/batch", models.BatchRequest{
		Events: []models.EventPayload{{UUID: a.String(), EventType: "concert", Title: "x"}},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp models.BatchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Created, 1)
	assert.Equal(t, a, resp.Created[0].UUID)
}

func TestEventsCacheMissFillsCache(t *testing.T) {
	f := newFixtures()
	f.store.active = []models.Event{activeEvent(1, "concert")}

	rec := doJSON(t, f.handler, http.MethodGet, "/catalog/events", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, f.cache.puts[cache.ScopeAll])
	assert.Equal(t, "", f.store.lastType)
}

func TestEventsCacheHitSkipsStore(t *testing.T) {
	f := newFixtures()
	f.cache.scopes["concert"] = []models.Event{activeEvent(7, "concert")}
	f.store.listErr = errors.New("store must not be called")

	rec := doJSON(t, f.handler, http.MethodGet, "/catalog/events?type=concert", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var events []models.Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	require.Len(t, events, 1)
	assert.Equal(t, int64(7), events[0].ID)
}

func TestEventsCacheFailureFallsBack(t *testing.T) {
	f := newFixtures()
	f.store.active = []models.Event{activeEvent(3, "concert")}

	rec := doJSON(t, f.handler, http.MethodGet, "/catalog/events?type=concert", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var events []models.Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	require.Len(t, events, 1)
	assert.Equal(t, "concert", f.store.lastType)
}

func TestEventsIDFilterScansScope(t *testing.T) {
	f := newFixtures()
	f.cache.scopes[cache.ScopeAll] = []models.Event{
		activeEvent(1, "concert"),
		activeEvent(2, "theater"),
	}

	rec := doJSON(t, f.handler, http.MethodGet, "/catalog/events?id=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var ev models.Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ev))
	assert.Equal(t, int64(2), ev.ID)

	rec = doJSON(t, f.handler, http.MethodGet, "/catalog/events?id=99", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEventsIDMissRefillsFromStore(t *testing.T) {
	f := newFixtures()
	f.store.active = []models.Event{activeEvent(5, "concert")}

	rec := doJSON(t, f.handler, http.MethodGet, "/catalog/events?id=5", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var ev models.Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ev))
	assert.Equal(t, int64(5), ev.ID)
	assert.Equal(t, 1, f.cache.puts[cache.ScopeAll])
}

func TestEventsEmptyListIsArray(t *testing.T) {
	f := newFixtures()
	f.store.active = []models.Event{}

	rec := doJSON(t, f.handler, http.MethodGet, "/catalog/events", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestEventsUnsupportedType(t *testing.T) {
	f := newFixtures()
	rec := doJSON(t, f.handler, http.MethodGet, "/catalog/events?type=rodeo", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestEventsTypeNormalized(t *testing.T) {
	f := newFixtures()
	f.store.active = []models.Event{}

	rec := doJSON(t, f.handler, http.MethodGet, "/catalog/events?type=Stand-Up", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "stand_up", f.store.lastType)
	assert.Equal(t, 1, f.cache.puts["stand_up"])
}

func TestUUIDs(t *testing.T) {
	f := newFixtures()
	f.store.uuids = []uuid.UUID{uuid.New(), uuid.New()}

	rec := doJSON(t, f.handler, http.MethodGet, "/catalog/uuids", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string][]uuid.UUID
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp["uuids"], 2)
}

func TestPromoteBest(t *testing.T) {
	f := newFixtures()
	f.store.promotion = &models.PromoteResponse{
		Promoted: []models.BatchItem{{UUID: uuid.New(), Type: "concert"}},
		Skipped:  []models.PromoteSkipped{},
	}

	rec := doJSON(t, f.handler, http.MethodPost, "/catalog/best", models.PromoteRequest{EventIDs: []int64{1}})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, f.handler, http.MethodPost, "/catalog/best", models.PromoteRequest{})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestScraperResults(t *testing.T) {
	f := newFixtures()
	f.forwarder.summary = models.ForwardSummary{Sent: 1, Failed: []models.ForwardFailure{}}
	good := uuid.New()

	rec := doJSON(t, f.handler, http.MethodPost, "/scraper/results", []models.EventPayload{
		{UUID: good.String(), EventType: "concert", Title: "x"},
		{UUID: "broken", EventType: "concert", Title: "y"},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var summary models.ForwardSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.Sent)
	require.Len(t, summary.Failed, 1)
	require.Len(t, f.forwarder.got, 1)
	assert.Equal(t, good, f.forwarder.got[0].UUID)
}

func TestScraperRun(t *testing.T) {
	f := newFixtures()
	f.runner.summary = models.ForwardSummary{Sent: 3, Failed: []models.ForwardFailure{}}

	rec := doJSON(t, f.handler, http.MethodPost, "/scraper/run", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	f.runner.err = errors.New("collector offline")
	rec = doJSON(t, f.handler, http.MethodPost, "/scraper/run", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
