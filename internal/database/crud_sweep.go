// Eventry - City Event Catalog Ingestion & Lifecycle Pipeline
// Copyright 2026 The Eventry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventry/eventry

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/eventry/eventry/internal/models"
)

// AdvancePreview moves an active event's preview date to its next
// occurrence on both the canonical-active and category rows, in one
// transaction. The record stays active.
func (db *DB) AdvancePreview(ctx context.Context, ev *models.Event, next time.Time) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin preview update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE events_active SET date_preview = ? WHERE uuid = ?`, next, ev.UUID)
	if err != nil {
		return fmt.Errorf("failed to update active preview: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE category_events SET date_preview = ? WHERE category_key = ? AND uuid = ?`,
		next, ev.EventType, ev.UUID)
	if err != nil {
		return fmt.Errorf("failed to update category preview: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit preview update: %w", err)
	}
	return nil
}

// MigrateToInactive retires an expired event: a new canonical-inactive
// record carrying all fields is inserted, the category row is deleted,
// and the canonical-active row is deleted — all three as one atomic unit.
// The active→inactive transition is one-directional.
func (db *DB) MigrateToInactive(ctx context.Context, ev *models.Event) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var inactiveID int64
	if err := tx.QueryRowContext(ctx, `SELECT nextval('seq_event_id')`).Scan(&inactiveID); err != nil {
		return fmt.Errorf("failed to allocate inactive id: %w", err)
	}

	dateList, err := encodeDateList(ev.DateList)
	if err != nil {
		return fmt.Errorf("failed to encode date list: %w", err)
	}

	const insertInactive = `INSERT INTO events_inactive (
		id, uuid, source_id, title, description, price, date_preview,
		date_list, place, event_type, genre, age, image_url, url, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = tx.ExecContext(ctx, insertInactive,
		inactiveID, ev.UUID, ev.SourceID, ev.Title, ev.Description, ev.Price, ev.DatePreview,
		dateList, ev.Place, ev.EventType, ev.Genre, ev.Age, ev.ImageURL, ev.URL, ev.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to insert inactive event: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM category_events WHERE category_key = ? AND uuid = ?`,
		ev.EventType, ev.UUID)
	if err != nil {
		return fmt.Errorf("failed to delete category event: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM events_active WHERE uuid = ?`, ev.UUID)
	if err != nil {
		return fmt.Errorf("failed to delete active event: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}
	return nil
}
