// Eventry - City Event Catalog Ingestion & Lifecycle Pipeline
// Copyright 2026 The Eventry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventry/eventry

package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// eventColumns is the shared column list of every event partition.
// date_list is stored as a JSON-encoded array of RFC3339 timestamps; the
// database/sql driver has no portable list scan and the sweeper always
// reads the whole list anyway.
const eventColumns = `
	id BIGINT NOT NULL,
	uuid UUID NOT NULL,
	source_id VARCHAR,
	title VARCHAR NOT NULL,
	description VARCHAR,
	price INTEGER NOT NULL DEFAULT 0,
	date_preview TIMESTAMP,
	date_list VARCHAR NOT NULL DEFAULT '[]',
	place VARCHAR,
	event_type VARCHAR NOT NULL,
	genre VARCHAR,
	age VARCHAR,
	image_url VARCHAR,
	url VARCHAR,
	created_at TIMESTAMP NOT NULL`

// createSchema creates sequences, tables, and indexes.
func (db *DB) createSchema() error {
	ctx, cancel := schemaContext()
	defer cancel()

	queries := []string{
		`CREATE SEQUENCE IF NOT EXISTS seq_event_id START 1`,

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS events_active (%s,
			PRIMARY KEY (id),
			UNIQUE (uuid)
		)`, eventColumns),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS events_inactive (%s,
			PRIMARY KEY (id),
			UNIQUE (uuid)
		)`, eventColumns),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS category_events (
			category_key VARCHAR NOT NULL,
			%s,
			PRIMARY KEY (category_key, uuid),
			UNIQUE (id)
		)`, eventColumns),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS best_events (%s,
			PRIMARY KEY (id),
			UNIQUE (uuid)
		)`, eventColumns),

		`CREATE INDEX IF NOT EXISTS idx_active_type ON events_active (event_type)`,
		`CREATE INDEX IF NOT EXISTS idx_category_key ON category_events (category_key)`,
	}

	for _, query := range queries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}
