// Eventry - City Event Catalog Ingestion & Lifecycle Pipeline
// Copyright 2026 The Eventry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventry/eventry

package forwarder

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventry/eventry/internal/models"
)

// fakeLedger is an in-memory processed-set.
type fakeLedger struct {
	mu     sync.Mutex
	set    map[uuid.UUID]bool
	addErr error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{set: map[uuid.UUID]bool{}}
}

func (l *fakeLedger) Contains(id uuid.UUID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.set[id]
}

func (l *fakeLedger) Add(id uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.addErr != nil {
		return l.addErr
	}
	l.set[id] = true
	return nil
}

func (l *fakeLedger) AddBatch(ids []uuid.UUID) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.addErr != nil {
		return 0, l.addErr
	}
	added := 0
	for _, id := range ids {
		if !l.set[id] {
			l.set[id] = true
			added++
		}
	}
	return added, nil
}

// fakeSubmitter replays canned responses per call.
type fakeSubmitter struct {
	calls     [][]models.EventPayload
	responses []*models.BatchResponse
	err       error
}

func (s *fakeSubmitter) SubmitBatch(_ context.Context, payloads []models.EventPayload) (*models.BatchResponse, error) {
	s.calls = append(s.calls, payloads)
	if s.err != nil {
		return nil, s.err
	}
	resp := s.responses[len(s.calls)-1]
	return resp, nil
}

func event(t *testing.T) *models.ScrapedEvent {
	t.Helper()
	return &models.ScrapedEvent{
		UUID:      uuid.New(),
		EventType: "concert",
		Title:     "Test event",
		ImageURL:  "https://example.com/a.jpg",
	}
}

func TestForwardMarksCreatedAndAlreadyExists(t *testing.T) {
	ledger := newFakeLedger()
	created := event(t)
	preexisting := event(t)
	noImage := event(t)

	sub := &fakeSubmitter{responses: []*models.BatchResponse{{
		Created: []models.BatchItem{{UUID: created.UUID, Type: "concert"}},
		Skipped: []models.BatchSkipped{
			{UUID: preexisting.UUID, Type: "concert", Reason: models.ReasonAlreadyExists},
			{UUID: noImage.UUID, Type: "concert", Reason: models.ReasonNoImageURL},
		},
		Failed: []models.BatchFailed{},
	}}}

	f := New(ledger, sub, 50)
	summary := f.Forward(context.Background(), []*models.ScrapedEvent{created, preexisting, noImage})

	assert.Equal(t, 1, summary.Sent)
	assert.Equal(t, 2, summary.Skipped)
	assert.Empty(t, summary.Failed)

	// Confirmed creation and confirmed pre-existence are marked; a soft
	// skip is not, so the event retries on a future run.
	assert.True(t, ledger.Contains(created.UUID))
	assert.True(t, ledger.Contains(preexisting.UUID))
	assert.False(t, ledger.Contains(noImage.UUID))
}

func TestForwardDropsLedgeredEvents(t *testing.T) {
	ledger := newFakeLedger()
	known := event(t)
	fresh := event(t)
	require.NoError(t, ledger.Add(known.UUID))

	sub := &fakeSubmitter{responses: []*models.BatchResponse{{
		Created: []models.BatchItem{{UUID: fresh.UUID, Type: "concert"}},
	}}}

	f := New(ledger, sub, 50)
	summary := f.Forward(context.Background(), []*models.ScrapedEvent{known, fresh})

	assert.Equal(t, 1, summary.Sent)
	assert.Equal(t, 1, summary.Skipped)
	require.Len(t, sub.calls, 1)
	require.Len(t, sub.calls[0], 1)
	assert.Equal(t, fresh.UUID.String(), sub.calls[0][0].UUID)
}

func TestForwardAllLedgeredSkipsNetworkCall(t *testing.T) {
	ledger := newFakeLedger()
	a, b := event(t), event(t)
	require.NoError(t, ledger.Add(a.UUID))
	require.NoError(t, ledger.Add(b.UUID))

	sub := &fakeSubmitter{}
	f := New(ledger, sub, 50)
	summary := f.Forward(context.Background(), []*models.ScrapedEvent{a, b})

	assert.Equal(t, 2, summary.Skipped)
	assert.Empty(t, sub.calls)
}

func TestForwardChunking(t *testing.T) {
	ledger := newFakeLedger()
	events := make([]*models.ScrapedEvent, 5)
	for i := range events {
		events[i] = event(t)
	}

	sub := &fakeSubmitter{responses: []*models.BatchResponse{
		{Created: []models.BatchItem{{UUID: events[0].UUID}, {UUID: events[1].UUID}}},
		{Created: []models.BatchItem{{UUID: events[2].UUID}, {UUID: events[3].UUID}}},
		{Created: []models.BatchItem{{UUID: events[4].UUID}}},
	}}

	f := New(ledger, sub, 2)
	summary := f.Forward(context.Background(), events)

	assert.Equal(t, 5, summary.Sent)
	require.Len(t, sub.calls, 3)
	assert.Len(t, sub.calls[0], 2)
	assert.Len(t, sub.calls[2], 1)
}

func TestForwardTransportFailureFailsSubBatch(t *testing.T) {
	ledger := newFakeLedger()
	a, b := event(t), event(t)

	sub := &fakeSubmitter{err: errors.New("dial tcp: connection refused")}
	f := New(ledger, sub, 50)
	summary := f.Forward(context.Background(), []*models.ScrapedEvent{a, b})

	assert.Equal(t, 0, summary.Sent)
	require.Len(t, summary.Failed, 2)
	assert.Equal(t, 0, summary.Failed[0].Status)
	assert.Contains(t, summary.Failed[0].Detail, "connection refused")

	// Failed items are never marked, so they retry next run.
	assert.False(t, ledger.Contains(a.UUID))
	assert.False(t, ledger.Contains(b.UUID))
}

func TestForwardNonSuccessStatusFailsSubBatch(t *testing.T) {
	ledger := newFakeLedger()
	a := event(t)

	sub := &fakeSubmitter{err: &StatusError{Status: http.StatusBadGateway, Body: "upstream down"}}
	f := New(ledger, sub, 50)
	summary := f.Forward(context.Background(), []*models.ScrapedEvent{a})

	require.Len(t, summary.Failed, 1)
	assert.Equal(t, http.StatusBadGateway, summary.Failed[0].Status)
	assert.Equal(t, "upstream down", summary.Failed[0].Detail)
}

func TestForwardLedgerWriteFailureStillCountsSent(t *testing.T) {
	ledger := newFakeLedger()
	ledger.addErr = errors.New("ledger unavailable")
	a := event(t)

	sub := &fakeSubmitter{responses: []*models.BatchResponse{{
		Created: []models.BatchItem{{UUID: a.UUID, Type: "concert"}},
	}}}

	f := New(ledger, sub, 50)
	summary := f.Forward(context.Background(), []*models.ScrapedEvent{a})

	assert.Equal(t, 1, summary.Sent)
}

func TestForwardSecondRunIsSkipped(t *testing.T) {
	ledger := newFakeLedger()
	a := event(t)

	sub := &fakeSubmitter{responses: []*models.BatchResponse{
		{Created: []models.BatchItem{{UUID: a.UUID, Type: "concert"}}},
	}}

	f := New(ledger, sub, 50)

	first := f.Forward(context.Background(), []*models.ScrapedEvent{a})
	second := f.Forward(context.Background(), []*models.ScrapedEvent{a})

	assert.Equal(t, 1, first.Sent)
	assert.Equal(t, 1, second.Skipped)
	assert.Len(t, sub.calls, 1)
}

func TestClientSubmitBatch(t *testing.T) {
	a := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/catalog/batch", r.URL.Path)

		var req models.BatchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Events, 1)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(models.BatchResponse{
			Created: []models.BatchItem{{UUID: a, Type: "concert"}},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	resp, err := c.SubmitBatch(context.Background(), []models.EventPayload{{UUID: a.String(), EventType: "concert", Title: "x"}})

	require.NoError(t, err)
	require.Len(t, resp.Created, 1)
	assert.Equal(t, a, resp.Created[0].UUID)
}

func TestClientNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	_, err := c.SubmitBatch(context.Background(), nil)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.Status)
	assert.Contains(t, se.Body, "boom")
}

func TestWarmup(t *testing.T) {
	ledger := newFakeLedger()
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	require.NoError(t, ledger.Add(ids[0]))

	w := NewWarmer(uuidListerFunc(func(context.Context) ([]uuid.UUID, error) {
		return ids, nil
	}), ledger)

	assert.Equal(t, 2, w.Warmup(context.Background()))
	for _, id := range ids {
		assert.True(t, ledger.Contains(id))
	}
}

func TestWarmupFetchFailureIsZero(t *testing.T) {
	ledger := newFakeLedger()
	w := NewWarmer(uuidListerFunc(func(context.Context) ([]uuid.UUID, error) {
		return nil, errors.New("store offline")
	}), ledger)

	assert.Equal(t, 0, w.Warmup(context.Background()))
}

type uuidListerFunc func(ctx context.Context) ([]uuid.UUID, error)

func (f uuidListerFunc) ListActiveUUIDs(ctx context.Context) ([]uuid.UUID, error) {
	return f(ctx)
}

func TestServiceRunOnce(t *testing.T) {
	ledger := newFakeLedger()
	a := event(t)
	sub := &fakeSubmitter{responses: []*models.BatchResponse{
		{Created: []models.BatchItem{{UUID: a.UUID, Type: "concert"}}},
	}}

	svc := NewService(New(ledger, sub, 50), SourceFunc(func(context.Context) ([]*models.ScrapedEvent, error) {
		return []*models.ScrapedEvent{a}, nil
	}), time.Hour)

	summary, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Sent)
}

func TestServiceStopsOnCancel(t *testing.T) {
	svc := NewService(New(newFakeLedger(), &fakeSubmitter{responses: []*models.BatchResponse{{}}}, 50),
		SourceFunc(func(context.Context) ([]*models.ScrapedEvent, error) { return nil, nil }),
		time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("service did not stop on cancel")
	}
}
