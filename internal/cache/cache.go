// Eventry - City Event Catalog Ingestion & Lifecycle Pipeline
// Copyright 2026 The Eventry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventry/eventry

// Package cache provides the scoped read cache for serialized event
// lists. Entries are keyed by scope ("all" or a category key), carry a
// bounded TTL, and expire passively; there is no explicit invalidation
// path.
//
// Every failure mode — unreachable store, expired key, payload that fails
// to deserialize — is reported as a miss, never as an error. The cache is
// a bounded-staleness read accelerator, not a source of truth; callers
// always fall through to the durable store on a miss.
package cache

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/eventry/eventry/internal/logging"
	"github.com/eventry/eventry/internal/models"
)

// ScopeAll is the scope covering the full active catalog.
const ScopeAll = "all"

// Cache is a Badger-backed event list cache with per-entry TTL.
type Cache struct {
	db     *badger.DB
	prefix string
	ttl    time.Duration
	log    zerolog.Logger
}

// Open opens (or creates) the cache store at the given directory.
func Open(path, keyPrefix string, ttl time.Duration) (*Cache, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache at %s: %w", path, err)
	}
	return New(db, keyPrefix, ttl), nil
}

// New wraps an existing Badger handle.
func New(db *badger.DB, keyPrefix string, ttl time.Duration) *Cache {
	return &Cache{
		db:     db,
		prefix: keyPrefix,
		ttl:    ttl,
		log:    logging.Component("cache"),
	}
}

// GetEvents returns the cached list for a scope, or (nil, false) on miss.
// Absent, expired, unreadable, and malformed entries are all misses.
func (c *Cache) GetEvents(scope string) ([]models.Event, bool) {
	var raw []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(c.key(scope))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			c.log.Debug().Err(err).Str("scope", scope).Msg("cache read failed, treating as miss")
		}
		return nil, false
	}

	var events []models.Event
	if err := json.Unmarshal(raw, &events); err != nil {
		c.log.Debug().Err(err).Str("scope", scope).Msg("cached payload malformed, treating as miss")
		return nil, false
	}
	return events, true
}

// GetEventByID scans the cached scope list for a numeric id. It never
// performs a point lookup, so scope granularity bounds its cost.
func (c *Cache) GetEventByID(id int64, scope string) (*models.Event, bool) {
	events, ok := c.GetEvents(scope)
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

// PutEvents stores the list for a scope with the configured TTL. Writes
// are best-effort: failures are logged and swallowed.
func (c *Cache) PutEvents(scope string, events []models.Event) {
	raw, err := json.Marshal(events)
	if err != nil {
		c.log.Warn().Err(err).Str("scope", scope).Msg("failed to serialize cache entry")
		return
	}

	err = c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(c.key(scope), raw).WithTTL(c.ttl)
		return txn.SetEntry(entry)
	})
	if err != nil {
		c.log.Warn().Err(err).Str("scope", scope).Msg("failed to populate cache")
	}
}

// Close releases the underlying store.
func (c *Cache) Close() error {
	return c.db.Close()
}

func (c *Cache) key(scope string) []byte {
	return []byte(c.prefix + ":" + scope)
}
