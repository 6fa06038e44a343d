// Eventry - City Event Catalog Ingestion & Lifecycle Pipeline
// Copyright 2026 The Eventry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventry/eventry

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/eventry/eventry/internal/models"
)

// Sentinel errors for event CRUD operations.
var (
	// ErrAlreadyExists indicates the uuid is already present on one of the
	// store's surfaces.
	ErrAlreadyExists = errors.New("event already exists")

	// ErrNotFound indicates no matching event record.
	ErrNotFound = errors.New("event not found")
)

// EventFilter narrows read-boundary queries.
type EventFilter struct {
	// Type restricts to one canonical category key. Empty = all.
	Type string

	// ID restricts to one numeric id. Nil = all.
	ID *int64
}

// InsertEvent writes one canonical-active record and one category record
// in a single transaction. Either both rows land or neither does; a
// partial write is prevented by the transaction boundary. A uniqueness
// conflict on any surface is reported as ErrAlreadyExists.
func (db *DB) InsertEvent(ctx context.Context, ev *models.Event, categoryKey string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin insert transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := tx.QueryRowContext(ctx, `SELECT nextval('seq_event_id')`).Scan(&ev.ID); err != nil {
		return fmt.Errorf("failed to allocate event id: %w", err)
	}

	dateList, err := encodeDateList(ev.DateList)
	if err != nil {
		return fmt.Errorf("failed to encode date list: %w", err)
	}

	const insertActive = `INSERT INTO events_active (
		id, uuid, source_id, title, description, price, date_preview,
		date_list, place, event_type, genre, age, image_url, url, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = tx.ExecContext(ctx, insertActive,
		ev.ID, ev.UUID, ev.SourceID, ev.Title, ev.Description, ev.Price, ev.DatePreview,
		dateList, ev.Place, ev.EventType, ev.Genre, ev.Age, ev.ImageURL, ev.URL, ev.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to insert active event: %w", err)
	}

	var categoryID int64
	if err := tx.QueryRowContext(ctx, `SELECT nextval('seq_event_id')`).Scan(&categoryID); err != nil {
		return fmt.Errorf("failed to allocate category event id: %w", err)
	}

	const insertCategory = `INSERT INTO category_events (
		category_key, id, uuid, source_id, title, description, price, date_preview,
		date_list, place, event_type, genre, age, image_url, url, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = tx.ExecContext(ctx, insertCategory,
		categoryKey, categoryID, ev.UUID, ev.SourceID, ev.Title, ev.Description, ev.Price, ev.DatePreview,
		dateList, ev.Place, ev.EventType, ev.Genre, ev.Age, ev.ImageURL, ev.URL, ev.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to insert category event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit event insert: %w", err)
	}
	return nil
}

// ExistsAnywhere checks the three authoritative surfaces for a uuid:
// canonical-active, canonical-inactive, and the category table. This
// guards against a dedup ledger that was reset while the store was not.
func (db *DB) ExistsAnywhere(ctx context.Context, id uuid.UUID, categoryKey string) (bool, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	const query = `SELECT
		EXISTS (SELECT 1 FROM events_active WHERE uuid = ?)
		OR EXISTS (SELECT 1 FROM events_inactive WHERE uuid = ?)
		OR EXISTS (SELECT 1 FROM category_events WHERE category_key = ? AND uuid = ?)`

	var exists bool
	if err := db.conn.QueryRowContext(ctx, query, id, id, categoryKey, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check event existence: %w", err)
	}
	return exists, nil
}

// ListActive returns canonical-active records matching the filter,
// ordered by numeric id.
func (db *DB) ListActive(ctx context.Context, filter EventFilter) ([]models.Event, error) {
	return db.listEvents(ctx, "events_active", filter)
}

// ListInactive returns canonical-inactive records ordered by numeric id.
func (db *DB) ListInactive(ctx context.Context) ([]models.Event, error) {
	return db.listEvents(ctx, "events_inactive", EventFilter{})
}

// ListActiveUUIDs returns every canonical-active uuid. Used by the
// identifier bootstrap boundary.
func (db *DB) ListActiveUUIDs(ctx context.Context) ([]uuid.UUID, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `SELECT uuid FROM events_active ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list active uuids: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan uuid: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("uuid iteration failed: %w", err)
	}
	return ids, nil
}

// GetActiveByID returns one canonical-active record by numeric id.
func (db *DB) GetActiveByID(ctx context.Context, id int64) (*models.Event, error) {
	events, err := db.listEvents(ctx, "events_active", EventFilter{ID: &id})
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, ErrNotFound
	}
	return &events[0], nil
}

// listEvents runs a filtered select against one partition.
func (db *DB) listEvents(ctx context.Context, table string, filter EventFilter) ([]models.Event, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := fmt.Sprintf(`SELECT
		id, uuid, source_id, title, description, price, date_preview,
		date_list, place, event_type, genre, age, image_url, url, created_at
	FROM %s`, table)

	var conditions []string
	var args []any
	if filter.Type != "" {
		conditions = append(conditions, "event_type = ?")
		args = append(args, filter.Type)
	}
	if filter.ID != nil {
		conditions = append(conditions, "id = ?")
		args = append(args, *filter.ID)
	}
	for i, cond := range conditions {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY id"

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	// Non-nil so an empty partition serializes as [] on the read boundary.
	events := []models.Event{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("event iteration failed: %w", err)
	}
	return events, nil
}

// scanEvent reads one event row in the shared column order.
func scanEvent(rows *sql.Rows) (*models.Event, error) {
	var (
		ev       models.Event
		sourceID sql.NullString
		desc     sql.NullString
		preview  sql.NullTime
		dateList string
		place    sql.NullString
		genre    sql.NullString
		age      sql.NullString
		imageURL sql.NullString
		pageURL  sql.NullString
	)

	err := rows.Scan(
		&ev.ID, &ev.UUID, &sourceID, &ev.Title, &desc, &ev.Price, &preview,
		&dateList, &place, &ev.EventType, &genre, &age, &imageURL, &pageURL, &ev.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan event row: %w", err)
	}

	if sourceID.Valid {
		ev.SourceID = &sourceID.String
	}
	ev.Description = desc.String
	if preview.Valid {
		ts := preview.Time
		ev.DatePreview = &ts
	}
	dates, err := decodeDateList(dateList)
	if err != nil {
		return nil, err
	}
	ev.DateList = dates
	ev.Place = place.String
	ev.Genre = genre.String
	if age.Valid {
		ev.Age = &age.String
	}
	ev.ImageURL = imageURL.String
	ev.URL = pageURL.String
	return &ev, nil
}

// encodeDateList serializes occurrence dates for storage.
func encodeDateList(dates []time.Time) (string, error) {
	if dates == nil {
		dates = []time.Time{}
	}
	raw, err := json.Marshal(dates)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// decodeDateList parses a stored occurrence date list.
func decodeDateList(raw string) ([]time.Time, error) {
	if raw == "" || raw == "[]" {
		return nil, nil
	}
	var dates []time.Time
	if err := json.Unmarshal([]byte(raw), &dates); err != nil {
		return nil, fmt.Errorf("failed to decode stored date list: %w", err)
	}
	return dates, nil
}
