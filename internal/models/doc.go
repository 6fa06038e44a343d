// Eventry - City Event Catalog Ingestion & Lifecycle Pipeline
// Copyright 2026 The Eventry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventry/eventry

// Package models defines the domain types shared across the pipeline:
// scraped events arriving from collectors, canonical catalog records, and
// the wire shapes of the ingestion and read boundaries.
//
// The domain structs are strict. Historical field spellings still seen on
// scraped payloads (date_prewie, date_full, janre, raiting) are accepted
// only by EventPayload, the normalization adapter at the ingestion
// boundary, and are mapped to canonical names before a ScrapedEvent is
// constructed.
package models
