// Eventry - City Event Catalog Ingestion & Lifecycle Pipeline
// Copyright 2026 The Eventry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventry/eventry

// Package api exposes the HTTP boundary of the pipeline: the ingestion
// endpoints consumed by the forwarder, the cached read endpoints, the
// scraper intake, and operational surfaces (health, metrics, photos).
package api

import (
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/eventry/eventry/internal/logging"
)

// errorBody is the uniform error response shape.
type errorBody struct {
	Detail string `json:"detail"`
}

// writeJSON serializes v with the status code. Encoding failures are
// logged; by then the status line is already on the wire.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error().Err(err).Msg("response encode failed")
	}
}

// writeError writes the uniform error shape.
func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorBody{Detail: detail})
}
