// Screenscout - Personalized Movie & TV Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/screenscout

// Package sync keeps the local catalog fresh. A supervised service walks
// TMDB's popular and top-rated lists for both content types on a fixed
// interval and upserts the results into DuckDB, so the recommendation
// engine only ever queries local data.
package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/screenscout/internal/config"
	"github.com/tomtom215/screenscout/internal/logging"
	"github.com/tomtom215/screenscout/internal/metrics"
	"github.com/tomtom215/screenscout/internal/models"
)

// ListClient is the slice of the TMDB client the syncer needs.
type ListClient interface {
	PopularMovies(ctx context.Context, page int) ([]models.MediaItem, error)
	TopRatedMovies(ctx context.Context, page int) ([]models.MediaItem, error)
	PopularTV(ctx context.Context, page int) ([]models.MediaItem, error)
	TopRatedTV(ctx context.Context, page int) ([]models.MediaItem, error)
}

// CatalogStore is the persistence surface for synced items.
// *database.DB satisfies it.
type CatalogStore interface {
	UpsertMediaItems(ctx context.Context, items []models.MediaItem) error
}

// CatalogSyncer periodically refreshes the catalog from TMDB. It implements
// suture.Service and is restarted by the supervisor on failure.
type CatalogSyncer struct {
	client ListClient
	store  CatalogStore
	cfg    config.SyncConfig
}

// NewCatalogSyncer builds a syncer walking cfg.Pages pages of each list
// every cfg.Interval.
func NewCatalogSyncer(client ListClient, store CatalogStore, cfg config.SyncConfig) *CatalogSyncer {
	return &CatalogSyncer{client: client, store: store, cfg: cfg}
}

// Serve implements suture.Service. The first sync runs immediately so a
// fresh deployment has a catalog before the first request arrives.
func (s *CatalogSyncer) Serve(ctx context.Context) error {
	if err := s.RunOnce(ctx); err != nil {
		logging.Error().Err(err).Msg("initial catalog sync failed")
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				logging.Error().Err(err).Msg("catalog sync failed")
			}
		}
	}
}

// String implements fmt.Stringer for supervisor logging.
func (s *CatalogSyncer) String() string {
	return "catalog-sync"
}

type listFetch struct {
	name  string
	fetch func(ctx context.Context, page int) ([]models.MediaItem, error)
}

// RunOnce performs a single full sync cycle. Individual list failures are
// logged and skipped; the cycle fails only when every list is unreachable
// or the upsert itself errors.
func (s *CatalogSyncer) RunOnce(ctx context.Context) error {
	start := time.Now()
	lists := []listFetch{
		{"popular_movies", s.client.PopularMovies},
		{"top_rated_movies", s.client.TopRatedMovies},
		{"popular_tv", s.client.PopularTV},
		{"top_rated_tv", s.client.TopRatedTV},
	}

	// The same title commonly sits on both the popular and top-rated
	// lists; dedupe before the upsert.
	seen := make(map[string]struct{})
	var items []models.MediaItem
	var failed int

	for _, list := range lists {
		for page := 1; page <= s.cfg.Pages; page++ {
			pageItems, err := list.fetch(ctx, page)
			if err != nil {
				logging.Warn().Err(err).Str("list", list.name).Int("page", page).Msg("list fetch failed")
				failed++
				break
			}
			for _, item := range pageItems {
				key := fmt.Sprintf("%s:%d", item.ContentType, item.TMDBID)
				if _, ok := seen[key]; ok {
					continue
				}
				seen[key] = struct{}{}
				items = append(items, item)
			}
		}
	}

	if len(items) == 0 {
		metrics.CatalogSyncRuns.WithLabelValues("failure").Inc()
		return fmt.Errorf("catalog sync produced no items (%d lists failed)", failed)
	}

	if err := s.store.UpsertMediaItems(ctx, items); err != nil {
		metrics.CatalogSyncRuns.WithLabelValues("failure").Inc()
		return fmt.Errorf("upserting synced catalog: %w", err)
	}

	outcome := "success"
	if failed > 0 {
		outcome = "partial"
	}
	metrics.CatalogSyncRuns.WithLabelValues(outcome).Inc()
	metrics.CatalogItemsSynced.Add(float64(len(items)))

	logging.Info().
		Int("items", len(items)).
		Int("failed_lists", failed).
		Dur("took", time.Since(start)).
		Msg("catalog sync completed")
	return nil
}
