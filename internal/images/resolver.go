// Eventry - City Event Catalog Ingestion & Lifecycle Pipeline
// Copyright 2026 The Eventry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventry/eventry

// Package images resolves scraped image references to stored, stable
// asset locations. The store router treats this as an external
// collaborator behind the Resolver interface; the HTTP implementation
// here downloads the source image to a local photos directory under a
// stable key.
package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/eventry/eventry/internal/config"
	"github.com/eventry/eventry/internal/logging"
)

// storedExtension is the extension of stored assets regardless of source
// format. Transcoding belongs to the downstream media pipeline.
const storedExtension = ".img"

// Errors returned by image resolution.
var (
	// ErrBadScheme indicates the source URL is not http or https.
	ErrBadScheme = errors.New("image url must use http or https scheme")

	// ErrDownload indicates the source could not be fetched or saved.
	ErrDownload = errors.New("image download failed")
)

// Resolver maps a source URL and a stable key to a stored reference.
type Resolver interface {
	Resolve(ctx context.Context, srcURL, key string) (string, error)
}

// Downloader is the HTTP Resolver implementation.
type Downloader struct {
	dir     string
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	log     zerolog.Logger
}

// NewDownloader creates a Downloader from configuration.
func NewDownloader(cfg *config.ImagesConfig) *Downloader {
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	return &Downloader{
		dir:     cfg.Dir,
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(limit, 1),
		log:     logging.Component("images"),
	}
}

// Dir returns the directory stored assets are written to.
func (d *Downloader) Dir() string {
	return d.dir
}

// Resolve downloads srcURL and stores it under <dir>/<key>.img, returning
// the public reference path. Scheme validation happens before any
// network traffic so a bad reference fails fast.
func (d *Downloader) Resolve(ctx context.Context, srcURL, key string) (string, error) {
	parsed, err := url.Parse(srcURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return "", fmt.Errorf("%w: %q", ErrBadScheme, srcURL)
	}

	if err := d.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: %v", ErrDownload, err)
	}

	if err := os.MkdirAll(d.dir, 0o750); err != nil {
		return "", fmt.Errorf("%w: create photos dir: %v", ErrDownload, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srcURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDownload, err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDownload, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("%w: status %d", ErrDownload, resp.StatusCode)
	}

	path := filepath.Join(d.dir, key+storedExtension)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDownload, err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("%w: %v", ErrDownload, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrDownload, err)
	}

	d.log.Debug().Str("key", key).Str("src", srcURL).Msg("stored image")
	return d.baseURL + "/" + key + storedExtension, nil
}
