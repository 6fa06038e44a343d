// Eventry - City Event Catalog Ingestion & Lifecycle Pipeline
// Copyright 2026 The Eventry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventry/eventry

package forwarder

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/eventry/eventry/internal/logging"
	"github.com/eventry/eventry/internal/models"
)

// batchPath is the ingestion boundary's batch submit route.
const batchPath = "/catalog/batch"

// maxErrorBody caps how much of an error response body is kept for
// failure accounting.
const maxErrorBody = 2048

// StatusError is a non-success response from the ingestion boundary.
// The status and body are attributed to every item of the sub-batch.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ingest returned status %d: %s", e.Status, e.Body)
}

// Client submits event batches to the ingestion boundary over HTTP.
// Calls are wrapped in a circuit breaker so a down boundary fails fast
// instead of stacking timeouts across a whole forward run.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*models.BatchResponse]
}

// NewClient creates a batch client for the ingestion boundary at baseURL.
// Every call is bounded by timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	log := logging.Component("forwarder")
	settings := gobreaker.Settings{
		Name:        "ingest-batch",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	}

	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker[*models.BatchResponse](settings),
	}
}

// SubmitBatch posts one sub-batch and decodes the structured three-list
// response. A non-2xx response is returned as a *StatusError; transport
// and breaker errors come back as-is.
func (c *Client) SubmitBatch(ctx context.Context, payloads []models.EventPayload) (*models.BatchResponse, error) {
	return c.breaker.Execute(func() (*models.BatchResponse, error) {
		return c.submit(ctx, payloads)
	})
}

func (c *Client) submit(ctx context.Context, payloads []models.EventPayload) (*models.BatchResponse, error) {
	body, err := json.Marshal(models.BatchRequest{Events: payloads})
	if err != nil {
		return nil, fmt.Errorf("encoding batch request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+batchPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building batch request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("posting batch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{Status: resp.StatusCode, Body: string(raw)}
	}

	var out models.BatchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding batch response: %w", err)
	}
	return &out, nil
}
