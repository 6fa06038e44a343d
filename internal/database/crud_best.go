// Eventry - City Event Catalog Ingestion & Lifecycle Pipeline
// Copyright 2026 The Eventry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventry/eventry

package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/eventry/eventry/internal/models"
)

// Promotion skip reasons.
const (
	promoteReasonNotFound = "not_found"
)

// PromoteBest copies active events, selected by numeric id, into the
// curated partition. Promotion copies the record at promotion time; a
// uuid already in the curated set makes re-promotion a no-op, reported
// per-id with both identifiers retained.
func (db *DB) PromoteBest(ctx context.Context, eventIDs []int64) (*models.PromoteResponse, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	resp := &models.PromoteResponse{
		Promoted: []models.BatchItem{},
		Skipped:  []models.PromoteSkipped{},
	}

	for _, id := range eventIDs {
		ev, err := db.GetActiveByID(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				resp.Skipped = append(resp.Skipped, models.PromoteSkipped{
					ID:     id,
					Reason: promoteReasonNotFound,
				})
				continue
			}
			return nil, err
		}

		if err := db.insertBest(ctx, ev); err != nil {
			if errors.Is(err, ErrAlreadyExists) {
				resp.Skipped = append(resp.Skipped, models.PromoteSkipped{
					ID:     id,
					UUID:   ev.UUID,
					Reason: models.ReasonAlreadyExists,
				})
				continue
			}
			return nil, err
		}
		resp.Promoted = append(resp.Promoted, models.BatchItem{UUID: ev.UUID, Type: ev.EventType})
	}
	return resp, nil
}

// insertBest copies one active record into best_events, keeping the
// source numeric id so curated entries stay addressable by the same id.
func (db *DB) insertBest(ctx context.Context, ev *models.Event) error {
	dateList, err := encodeDateList(ev.DateList)
	if err != nil {
		return fmt.Errorf("failed to encode date list: %w", err)
	}

	const query = `INSERT INTO best_events (
		id, uuid, source_id, title, description, price, date_preview,
		date_list, place, event_type, genre, age, image_url, url, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = db.conn.ExecContext(ctx, query,
		ev.ID, ev.UUID, ev.SourceID, ev.Title, ev.Description, ev.Price, ev.DatePreview,
		dateList, ev.Place, ev.EventType, ev.Genre, ev.Age, ev.ImageURL, ev.URL, ev.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to insert best event: %w", err)
	}
	return nil
}

// ListBest returns curated records matching the filter, ordered by id.
func (db *DB) ListBest(ctx context.Context, filter EventFilter) ([]models.Event, error) {
	return db.listEvents(ctx, "best_events", filter)
}
