// Eventry - City Event Catalog Ingestion & Lifecycle Pipeline
// Copyright 2026 The Eventry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventry/eventry

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig tunes the HTTP boundary.
type RouterConfig struct {
	// PhotosDir is the directory stored event images are served from.
	// Empty disables the static photo route.
	PhotosDir string

	// PhotosPath is the public route prefix for stored images.
	PhotosPath string

	// RateLimit is requests per window per client IP. 0 disables
	// rate limiting.
	RateLimit int

	// RateWindow is the rate-limit window.
	RateWindow time.Duration
}

// NewRouter assembles the chi route tree over the handler set.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))
	if cfg.RateLimit > 0 {
		window := cfg.RateWindow
		if window <= 0 {
			window = time.Minute
		}
		r.Use(httprate.Limit(cfg.RateLimit, window, httprate.WithKeyFuncs(httprate.KeyByIP)))
	}

	r.Get("/health", h.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/catalog", func(r chi.Router) {
		r.Post("/upload", h.Upload)
		r.Post("/batch", h.Batch)
		r.Get("/events", h.Events)
		r.Get("/inactive-events", h.InactiveEvents)
		r.Get("/uuids", h.UUIDs)
		r.Post("/best", h.PromoteBest)
		r.Get("/best", h.ListBest)
	})

	r.Route("/scraper", func(r chi.Router) {
		r.Post("/results", h.ScraperResults)
		r.Post("/run", h.ScraperRun)
	})

	if cfg.PhotosDir != "" && cfg.PhotosPath != "" {
		fs := http.StripPrefix(cfg.PhotosPath, http.FileServer(http.Dir(cfg.PhotosDir)))
		r.Method(http.MethodGet, cfg.PhotosPath+"/*", fs)
	}

	return r
}
