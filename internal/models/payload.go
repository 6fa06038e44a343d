// Eventry - City Event Catalog Ingestion & Lifecycle Pipeline
// Copyright 2026 The Eventry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventry/eventry

package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Errors returned by payload normalization.
var (
	// ErrInvalidUUID indicates the payload carries a missing or malformed uuid.
	ErrInvalidUUID = errors.New("invalid event uuid")

	// ErrInvalidDate indicates a date field could not be parsed.
	ErrInvalidDate = errors.New("invalid event date")
)

// payloadTimeFormats lists the accepted timestamp layouts, most specific
// first. Timezone-naive values are interpreted as UTC.
var payloadTimeFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// EventPayload is the flexible wire shape accepted at the ingestion
// boundary. It tolerates the historical field spellings that older
// collectors still emit; Normalize maps them onto the strict domain type.
type EventPayload struct {
	UUID        string   `json:"uuid"`
	SourceID    *string  `json:"id"`
	EventType   string   `json:"type"`
	EventTypeV2 string   `json:"event_type"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       int      `json:"price"`
	DatePreview string   `json:"date_preview"`
	DatePrewie  string   `json:"date_prewie"` // legacy spelling
	DateList    []string `json:"date_list"`
	DateFull    []string `json:"date_full"` // legacy spelling
	Place       string   `json:"place"`
	Genre       string   `json:"genre"`
	Janre       string   `json:"janre"` // legacy spelling
	Age         *string  `json:"age"`
	Raiting     *string  `json:"raiting"` // legacy spelling
	ImageURL    string   `json:"image_url"`
	URL         string   `json:"url"`
}

// Normalize resolves legacy aliases and parses dates, producing a strict
// ScrapedEvent. Field-level validation beyond shape (required title and
// type) is left to the validator at the boundary.
func (p *EventPayload) Normalize() (*ScrapedEvent, error) {
	id, err := uuid.Parse(p.UUID)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidUUID, p.UUID)
	}

	eventType := p.EventType
	if eventType == "" {
		eventType = p.EventTypeV2
	}

	preview, err := parseOptionalTime(firstNonEmpty(p.DatePreview, p.DatePrewie))
	if err != nil {
		return nil, err
	}

	rawDates := p.DateList
	if len(rawDates) == 0 {
		rawDates = p.DateFull
	}
	dates := make([]time.Time, 0, len(rawDates))
	for _, raw := range rawDates {
		ts, err := parseTime(raw)
		if err != nil {
			return nil, err
		}
		dates = append(dates, ts)
	}

	genre := firstNonEmpty(p.Genre, p.Janre)
	age := p.Age
	if age == nil {
		age = p.Raiting
	}

	return &ScrapedEvent{
		UUID:        id,
		SourceID:    p.SourceID,
		EventType:   eventType,
		Title:       p.Title,
		Description: p.Description,
		Price:       p.Price,
		DatePreview: preview,
		DateList:    dates,
		Place:       p.Place,
		Genre:       genre,
		Age:         age,
		ImageURL:    p.ImageURL,
		URL:         p.URL,
	}, nil
}

// PayloadFromScraped builds the canonical wire payload for a scraped
// event, as submitted by the forwarder to the ingestion boundary.
func PayloadFromScraped(s *ScrapedEvent) EventPayload {
	p := EventPayload{
		UUID:        s.UUID.String(),
		SourceID:    s.SourceID,
		EventType:   s.EventType,
		Title:       s.Title,
		Description: s.Description,
		Price:       s.Price,
		Place:       s.Place,
		Genre:       s.Genre,
		Age:         s.Age,
		ImageURL:    s.ImageURL,
		URL:         s.URL,
	}
	if s.DatePreview != nil {
		p.DatePreview = s.DatePreview.UTC().Format(time.RFC3339)
	}
	for _, ts := range s.DateList {
		p.DateList = append(p.DateList, ts.UTC().Format(time.RFC3339))
	}
	return p
}

// parseTime parses a timestamp in any accepted layout. Naive values are
// assumed to be UTC.
func parseTime(raw string) (time.Time, error) {
	for _, layout := range payloadTimeFormats {
		if ts, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
}

// parseOptionalTime parses a timestamp, mapping the empty string to nil.
func parseOptionalTime(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	ts, err := parseTime(raw)
	if err != nil {
		return nil, err
	}
	return &ts, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
