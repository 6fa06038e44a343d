// Eventry - City Event Catalog Ingestion & Lifecycle Pipeline
// Copyright 2026 The Eventry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventry/eventry

package ingest

import "strings"

// supportedCategories is the closed set of canonical category keys. Each
// key names one logical category partition in the store.
var supportedCategories = map[string]struct{}{
	"concert":      {},
	"stand_up":     {},
	"exhibition":   {},
	"theater":      {},
	"cinema":       {},
	"sport":        {},
	"excursion":    {},
	"show":         {},
	"quest":        {},
	"master_class": {},
}

// NormalizeCategory maps a free-text category label to its canonical key:
// hyphens and underscores become spaces, the result is trimmed, lowered,
// and interior runs of spaces collapse back to single underscores. So
// "Stand-Up", "stand_up", and "  STAND   UP " all normalize to "stand_up".
func NormalizeCategory(label string) string {
	replaced := strings.NewReplacer("-", " ", "_", " ").Replace(label)
	fields := strings.Fields(strings.ToLower(replaced))
	return strings.Join(fields, "_")
}

// SupportedCategory reports whether key is a canonical category key.
func SupportedCategory(key string) bool {
	_, ok := supportedCategories[key]
	return ok
}

// Categories returns the canonical category keys in unspecified order.
func Categories() []string {
	keys := make([]string, 0, len(supportedCategories))
	for key := range supportedCategories {
		keys = append(keys, key)
	}
	return keys
}
