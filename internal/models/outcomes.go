// Eventry - City Event Catalog Ingestion & Lifecycle Pipeline
// Copyright 2026 The Eventry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventry/eventry

package models

import "github.com/google/uuid"

// Skip and failure reasons reported by the ingestion boundary.
const (
	ReasonAlreadyExists   = "already_exists"
	ReasonUnsupportedType = "unsupported_type"
	ReasonNoImageURL      = "no_image_url"
	ReasonImageDownload   = "image_download_failed"
	ReasonStorage         = "storage_error"
)

// OutcomeStatus classifies the result of ingesting one event.
type OutcomeStatus string

// Ingest outcome statuses.
const (
	OutcomeCreated OutcomeStatus = "created"
	OutcomeSkipped OutcomeStatus = "skipped"
	OutcomeFailed  OutcomeStatus = "failed"
)

// Outcome is the result of routing one event through the store router.
type Outcome struct {
	Status OutcomeStatus
	// Type is the canonical category key the event resolved to, when known.
	Type string
	// Reason is set for skipped and failed outcomes.
	Reason string
	// Detail carries failure context (transport error text, store error).
	Detail string
}

// BatchRequest is the ingestion boundary's batch submit payload.
type BatchRequest struct {
	Events []EventPayload `json:"events"`
}

// BatchItem identifies one created event in a batch response.
type BatchItem struct {
	UUID uuid.UUID `json:"uuid"`
	Type string    `json:"type"`
}

// BatchSkipped identifies one skipped event and why it was skipped.
type BatchSkipped struct {
	UUID   uuid.UUID `json:"uuid"`
	Type   string    `json:"type"`
	Reason string    `json:"reason"`
}

// BatchFailed identifies one failed event with failure context.
type BatchFailed struct {
	UUID   uuid.UUID `json:"uuid"`
	Type   string    `json:"type"`
	Reason string    `json:"reason"`
	Detail string    `json:"detail,omitempty"`
}

// BatchResponse is the structured three-list outcome of a batch submit.
type BatchResponse struct {
	Created []BatchItem    `json:"created"`
	Skipped []BatchSkipped `json:"skipped"`
	Failed  []BatchFailed  `json:"failed"`
}

// UploadResponse is the single-event submit response.
type UploadResponse struct {
	Detail string    `json:"detail"`
	UUID   uuid.UUID `json:"uuid"`
	Type   string    `json:"type,omitempty"`
}

// ForwardFailure records one event the forwarder could not deliver.
type ForwardFailure struct {
	UUID   uuid.UUID `json:"uuid"`
	Status int       `json:"status_code"`
	Detail string    `json:"detail"`
}

// ForwardSummary is the accounting result of one forwarder run.
type ForwardSummary struct {
	Sent    int              `json:"sent"`
	Skipped int              `json:"skipped"`
	Failed  []ForwardFailure `json:"failed"`
}

// PromoteRequest asks for a set of active events, by numeric id, to be
// copied into the curated partition.
type PromoteRequest struct {
	EventIDs []int64 `json:"event_ids" validate:"required,min=1"`
}

// PromoteSkipped reports one promotion that was a no-op. Both identifiers
// are retained; they are not interchangeable across API versions.
type PromoteSkipped struct {
	ID     int64     `json:"id"`
	UUID   uuid.UUID `json:"uuid,omitempty"`
	Reason string    `json:"reason"`
}

// PromoteResponse reports the outcome of a curated promotion request.
type PromoteResponse struct {
	Promoted []BatchItem      `json:"promoted"`
	Skipped  []PromoteSkipped `json:"skipped"`
}
