// Eventry - City Event Catalog Ingestion & Lifecycle Pipeline
// Copyright 2026 The Eventry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventry/eventry

// Package main is the entry point for the Eventry server.
//
// Eventry ingests externally scraped city-event records, deduplicates
// them against a persistent processed-set, classifies them by category,
// persists them into a DuckDB store, serves them through a TTL read
// cache, and retires them to an inactive partition once their dates
// pass.
//
// # Startup Order
//
//  1. Configuration: Koanf v2 layered loading (defaults, YAML, env)
//  2. Logging: zerolog, configured from the loaded settings
//  3. Stores: DuckDB canonical store, Badger dedup ledger, Badger cache
//  4. Pipeline: image resolver, store router, forwarder, sweeper
//  5. Warm-up: the dedup ledger is seeded from the store before the
//     forwarder loop starts
//  6. Supervision tree: pipeline loops and the HTTP server
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger a cooperative shutdown: the supervision
// tree is cancelled and awaited before the shared stores are closed.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/eventry/eventry/internal/api"
	"github.com/eventry/eventry/internal/cache"
	"github.com/eventry/eventry/internal/config"
	"github.com/eventry/eventry/internal/database"
	"github.com/eventry/eventry/internal/forwarder"
	"github.com/eventry/eventry/internal/images"
	"github.com/eventry/eventry/internal/ingest"
	"github.com/eventry/eventry/internal/ledger"
	"github.com/eventry/eventry/internal/logging"
	"github.com/eventry/eventry/internal/models"
	"github.com/eventry/eventry/internal/supervisor"
	"github.com/eventry/eventry/internal/sweeper"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().Msg("Starting Eventry")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open event store")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Warn().Err(err).Msg("Event store close failed")
		}
	}()

	processed, err := ledger.Open(cfg.Ledger.Path)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open dedup ledger")
	}
	defer func() {
		if err := processed.Close(); err != nil {
			logging.Warn().Err(err).Msg("Dedup ledger close failed")
		}
	}()

	readCache, err := cache.Open(cfg.Cache.Path, cfg.Cache.KeyPrefix, cfg.Cache.TTL)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open read cache")
	}
	defer func() {
		if err := readCache.Close(); err != nil {
			logging.Warn().Err(err).Msg("Read cache close failed")
		}
	}()

	resolver := images.NewDownloader(&cfg.Images)
	router := ingest.NewRouter(db, resolver)

	client := forwarder.NewClient(cfg.Forwarder.IngestURL, cfg.Forwarder.Timeout)
	fwd := forwarder.New(processed, client, cfg.Forwarder.BatchSize)

	// The collector hook is external; an unwired process forwards only
	// what arrives via the scraper intake endpoints.
	source := forwarder.SourceFunc(func(context.Context) ([]*models.ScrapedEvent, error) {
		return nil, nil
	})
	fwdService := forwarder.NewService(fwd, source, cfg.Forwarder.PollInterval)

	tree := supervisor.NewTree(supervisor.DefaultTreeConfig())

	if cfg.Forwarder.Enabled {
		// Seed the ledger before the loop starts so a restarted process
		// does not re-submit everything it already ingested.
		warmer := forwarder.NewWarmer(db, processed)
		warmer.Warmup(context.Background())
		tree.AddPipelineService(fwdService)
	}
	if cfg.Sweeper.Enabled {
		tree.AddPipelineService(sweeper.NewService(sweeper.New(db), cfg.Sweeper.Interval))
	}

	handler := api.NewHandler(db, router, readCache, fwd, fwdService)
	httpRouter := api.NewRouter(handler, api.RouterConfig{
		PhotosDir:  cfg.Images.Dir,
		PhotosPath: cfg.Images.BaseURL,
		RateLimit:  600,
	})
	tree.AddAPIService(api.NewServer(cfg.Server.Addr(), httpRouter, cfg.Server.Timeout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Serve blocks until a signal cancels the context; the deferred
	// store closes run only after every service has stopped.
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervision tree exited")
	}
	logging.Info().Msg("Eventry stopped")
}
