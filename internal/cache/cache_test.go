// Eventry - City Event Catalog Ingestion & Lifecycle Pipeline
// Copyright 2026 The Eventry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventry/eventry

package cache

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventry/eventry/internal/models"
)

func openTestCache(t *testing.T, ttl time.Duration) *Cache {
	t.Helper()
	c, err := Open(t.TempDir(), "catalog:events", ttl)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func sampleEvents() []models.Event {
	return []models.Event{
		{ID: 1, UUID: uuid.New(), Title: "Concert", EventType: "concert"},
		{ID: 2, UUID: uuid.New(), Title: "Open mic", EventType: "stand_up"},
	}
}

func TestPutAndGetEvents(t *testing.T) {
	c := openTestCache(t, time.Minute)
	events := sampleEvents()

	c.PutEvents(ScopeAll, events)

	got, ok := c.GetEvents(ScopeAll)
	require.True(t, ok)
	require.Len(t, got, 2)
	assert.Equal(t, events[0].UUID, got[0].UUID)
	assert.Equal(t, events[1].Title, got[1].Title)
}

func TestScopesAreIndependent(t *testing.T) {
	c := openTestCache(t, time.Minute)
	c.PutEvents("concert", sampleEvents()[:1])

	_, ok := c.GetEvents(ScopeAll)
	assert.False(t, ok, "scope all must miss")

	got, ok := c.GetEvents("concert")
	require.True(t, ok)
	assert.Len(t, got, 1)
}

func TestAbsentKeyIsMiss(t *testing.T) {
	c := openTestCache(t, time.Minute)

	got, ok := c.GetEvents(ScopeAll)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestExpiredEntryIsMiss(t *testing.T) {
	c := openTestCache(t, 50*time.Millisecond)
	c.PutEvents(ScopeAll, sampleEvents())

	time.Sleep(120 * time.Millisecond)

	_, ok := c.GetEvents(ScopeAll)
	assert.False(t, ok)
}

func TestGetEventByIDScansScope(t *testing.T) {
	c := openTestCache(t, time.Minute)
	events := sampleEvents()
	c.PutEvents(ScopeAll, events)

	got, ok := c.GetEventByID(2, ScopeAll)
	require.True(t, ok)
	assert.Equal(t, events[1].UUID, got.UUID)

	_, ok = c.GetEventByID(99, ScopeAll)
	assert.False(t, ok)
}

func TestClosedStoreIsMissNotError(t *testing.T) {
	c, err := Open(t.TempDir(), "catalog:events", time.Minute)
	require.NoError(t, err)
	c.PutEvents(ScopeAll, sampleEvents())
	require.NoError(t, c.Close())

	_, ok := c.GetEvents(ScopeAll)
	assert.False(t, ok)

	// Best-effort write against a closed store must not panic.
	c.PutEvents(ScopeAll, sampleEvents())
}
