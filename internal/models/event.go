// Eventry - City Event Catalog Ingestion & Lifecycle Pipeline
// Copyright 2026 The Eventry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventry/eventry

package models

import (
	"time"

	"github.com/google/uuid"
)

// ScrapedEvent is a single event record produced by an external collector.
// It is consumed once by the forwarder and discarded; the UUID is the sole
// deduplication key, every other field may differ between re-submissions
// of the same event.
type ScrapedEvent struct {
	UUID        uuid.UUID  `json:"uuid" validate:"required"`
	SourceID    *string    `json:"id,omitempty"`
	EventType   string     `json:"type" validate:"required"`
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description"`
	Price       int        `json:"price"`
	DatePreview *time.Time `json:"date_preview,omitempty"`
	DateList    []time.Time `json:"date_list"`
	Place       string     `json:"place"`
	Genre       string     `json:"genre"`
	Age         *string    `json:"age,omitempty"`
	ImageURL    string     `json:"image_url"`
	URL         string     `json:"url"`
}

// Event is a canonical catalog record as persisted in the durable store
// and served on the read boundary. A UUID exists in at most one of the
// active and inactive partitions at any time.
type Event struct {
	ID          int64      `json:"id"`
	UUID        uuid.UUID  `json:"uuid"`
	SourceID    *string    `json:"source_id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Price       int        `json:"price"`
	DatePreview *time.Time `json:"date_preview,omitempty"`
	DateList    []time.Time `json:"date_list"`
	Place       string     `json:"place"`
	EventType   string     `json:"event_type"`
	Genre       string     `json:"genre"`
	Age         *string    `json:"age,omitempty"`
	ImageURL    string     `json:"image_url"`
	URL         string     `json:"url"`
	CreatedAt   time.Time  `json:"created_at"`
}

// NewEventFromScraped builds a canonical record from a scraped event.
// The numeric id and creation timestamp are assigned by the store.
func NewEventFromScraped(s *ScrapedEvent, eventType, imageURL string) *Event {
	return &Event{
		UUID:        s.UUID,
		SourceID:    s.SourceID,
		Title:       s.Title,
		Description: s.Description,
		Price:       s.Price,
		DatePreview: s.DatePreview,
		DateList:    s.DateList,
		Place:       s.Place,
		EventType:   eventType,
		Genre:       s.Genre,
		Age:         s.Age,
		ImageURL:    imageURL,
		URL:         s.URL,
	}
}
