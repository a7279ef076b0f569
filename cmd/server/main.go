// Screenscout - Personalized Movie & TV Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/screenscout

// Package main is the entry point for the Screenscout server.
//
// Screenscout is a self-hosted recommendation engine for movies and TV shows.
// It mirrors a slice of the TMDB catalog into a local DuckDB database, learns
// per-user genre preferences from ratings, watchlists, and feedback, and
// serves hybrid-scored recommendation slates over a REST API.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: defaults, optional YAML file, SCREENSCOUT_* environment
//     variables (Koanf v2, highest priority wins)
//  2. Database: DuckDB with the catalog, preference, and slate cache schema
//  3. TMDB client: rate-limited, circuit-broken, with a BadgerDB response cache
//  4. Recommendation engine and feedback recorder
//  5. HTTP server: Chi router under a suture supervisor tree
//
// The supervisor tree has two layers. The data layer runs the periodic TMDB
// catalog sync; the API layer runs the HTTP server. A crashing service is
// restarted with backoff without taking the rest of the process down.
//
// # Configuration
//
// Without an explicit -config flag the loader probes screenscout.yaml,
// config/screenscout.yaml, and /etc/screenscout/screenscout.yaml. Every key
// can be overridden through the environment:
//
//	export SCREENSCOUT_SERVER_PORT=8484
//	export SCREENSCOUT_TMDB_API_KEY=your-tmdb-api-key
//	export SCREENSCOUT_SYNC_ENABLED=true
//	./screenscout
//
// # Signal Handling
//
// The server shuts down gracefully on SIGINT and SIGTERM: it stops accepting
// connections, waits for in-flight requests (10s timeout), stops the catalog
// sync, and closes the database and response cache.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/screenscout/internal/api"
	"github.com/tomtom215/screenscout/internal/config"
	"github.com/tomtom215/screenscout/internal/database"
	"github.com/tomtom215/screenscout/internal/logging"
	"github.com/tomtom215/screenscout/internal/recommend"
	"github.com/tomtom215/screenscout/internal/supervisor"
	"github.com/tomtom215/screenscout/internal/sync"
	"github.com/tomtom215/screenscout/internal/tmdb"
)

func main() {
	configPath := flag.String("config", "", "path to screenscout.yaml (optional)")
	flag.Parse()

	// Load configuration first to get logging settings.
	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Bool("sync_enabled", cfg.Sync.Enabled).
		Msg("Starting Screenscout")

	db, err := database.New(cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	// The TMDB response cache is optional: a broken cache directory degrades
	// to uncached fetches instead of refusing to start.
	var tmdbCache *tmdb.Cache
	if cfg.TMDB.CachePath != "" {
		tmdbCache, err = tmdb.OpenCache(cfg.TMDB.CachePath, cfg.TMDB.CacheTTL)
		if err != nil {
			logging.Warn().Err(err).Str("path", cfg.TMDB.CachePath).Msg("TMDB response cache unavailable, fetching uncached")
		} else {
			defer func() {
				if err := tmdbCache.Close(); err != nil {
					logging.Error().Err(err).Msg("Error closing TMDB cache")
				}
			}()
		}
	}
	tmdbClient := tmdb.NewClient(cfg.TMDB, tmdbCache)

	engine := recommend.New(db, cfg.Recommend)
	recorder := recommend.NewRecorder(db)

	handler := api.NewHandler(engine, recorder, db, db)
	router := api.NewRouter(handler, cfg.API)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())

	if cfg.Sync.Enabled {
		tree.AddDataService(sync.NewCatalogSyncer(tmdbClient, db, cfg.Sync))
		logging.Info().
			Dur("interval", cfg.Sync.Interval).
			Int("pages", cfg.Sync.Pages).
			Msg("Catalog sync added to supervisor tree")
	} else {
		logging.Info().Msg("Catalog sync disabled, serving from the existing catalog")
	}

	tree.AddAPIService(supervisor.NewHTTPService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Drain until the supervisor closes the channel.
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Screenscout stopped gracefully")
}
