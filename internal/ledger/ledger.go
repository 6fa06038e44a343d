// Eventry - City Event Catalog Ingestion & Lifecycle Pipeline
// Copyright 2026 The Eventry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventry/eventry

// Package ledger provides the persistent deduplication ledger: a durable
// set of event UUIDs that have already been forwarded into the catalog.
//
// The ledger is a non-authoritative accelerator. The store's three-surface
// existence check remains the source of truth, so the ledger may be reset
// or rebuilt at any time without data loss. Contains is deliberately
// fail-open: if the underlying store is unavailable the event is treated
// as not yet processed, which re-forwards it rather than silently
// dropping it.
package ledger

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/eventry/eventry/internal/logging"
)

// ErrUnavailable indicates the ledger store rejected a write. Callers
// decide whether the surrounding operation still counts as a success.
var ErrUnavailable = errors.New("dedup ledger unavailable")

// processedKeyPrefix namespaces processed-set keys in Badger.
const processedKeyPrefix = "processed:"

// Ledger is a Badger-backed processed-set.
type Ledger struct {
	db  *badger.DB
	log zerolog.Logger
}

// Open opens (or creates) the ledger at the given directory.
func Open(path string) (*Ledger, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger at %s: %w", path, err)
	}
	return New(db), nil
}

// New wraps an existing Badger handle. The caller keeps ownership of db
// when constructing the ledger this way.
func New(db *badger.DB) *Ledger {
	return &Ledger{db: db, log: logging.Component("ledger")}
}

// Contains reports whether the event id has been marked processed.
// Store failures are logged and reported as "not processed".
func (l *Ledger) Contains(id uuid.UUID) bool {
	err := l.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key(id))
		return err
	})
	switch {
	case err == nil:
		return true
	case errors.Is(err, badger.ErrKeyNotFound):
		return false
	default:
		l.log.Warn().Err(err).Stringer("uuid", id).Msg("contains check failed, treating as unprocessed")
		return false
	}
}

// Add marks the event id as processed. Re-adding is idempotent.
func (l *Ledger) Add(id uuid.UUID) error {
	err := l.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(id), nil)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// addBatchChunkSize bounds one AddBatch transaction. Badger caps the
// entries a single transaction may carry, so a warm-up over a large
// catalog must not write the whole identifier list in one commit.
const addBatchChunkSize = 1000

// AddBatch marks all ids processed and returns how many were newly
// added. Writes are committed in fixed-size chunks; on a chunk failure
// the count of identifiers already committed is returned alongside the
// error, so partial progress survives.
func (l *Ledger) AddBatch(ids []uuid.UUID) (int, error) {
	added := 0
	for start := 0; start < len(ids); start += addBatchChunkSize {
		end := start + addBatchChunkSize
		if end > len(ids) {
			end = len(ids)
		}
		n, err := l.addChunk(ids[start:end])
		added += n
		if err != nil {
			return added, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	return added, nil
}

func (l *Ledger) addChunk(ids []uuid.UUID) (int, error) {
	added := 0
	err := l.db.Update(func(txn *badger.Txn) error {
		added = 0
		for _, id := range ids {
			k := key(id)
			_, err := txn.Get(k)
			switch {
			case err == nil:
				continue
			case errors.Is(err, badger.ErrKeyNotFound):
				if err := txn.Set(k, nil); err != nil {
					return err
				}
				added++
			default:
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}

// Close releases the underlying store.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func key(id uuid.UUID) []byte {
	return []byte(processedKeyPrefix + id.String())
}
