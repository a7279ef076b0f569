// Screenscout - Personalized Movie & TV Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/screenscout

package database

import (
	"context"
	"fmt"
	"time"
)

const schemaTimeout = 60 * time.Second

// tableCreationQueries are executed in order at startup. All are idempotent.
var tableCreationQueries = []string{
	`CREATE TABLE IF NOT EXISTS catalog_items (
		tmdb_id BIGINT NOT NULL,
		content_type VARCHAR NOT NULL,
		title VARCHAR NOT NULL,
		overview VARCHAR,
		genres VARCHAR NOT NULL DEFAULT '[]',
		rating DOUBLE NOT NULL DEFAULT 0,
		popularity DOUBLE NOT NULL DEFAULT 0,
		vote_count BIGINT NOT NULL DEFAULT 0,
		release_year INTEGER NOT NULL DEFAULT 0,
		poster_path VARCHAR,
		runtime INTEGER NOT NULL DEFAULT 0,
		updated_at TIMESTAMP NOT NULL,
		PRIMARY KEY (tmdb_id, content_type)
	)`,

	`CREATE TABLE IF NOT EXISTS catalog_genres (
		tmdb_id BIGINT NOT NULL,
		content_type VARCHAR NOT NULL,
		genre_id BIGINT NOT NULL,
		PRIMARY KEY (tmdb_id, content_type, genre_id)
	)`,

	`CREATE TABLE IF NOT EXISTS user_ratings (
		user_id BIGINT NOT NULL,
		tmdb_id BIGINT NOT NULL,
		content_type VARCHAR NOT NULL,
		rating DOUBLE NOT NULL,
		created_at TIMESTAMP NOT NULL,
		PRIMARY KEY (user_id, tmdb_id, content_type)
	)`,

	`CREATE TABLE IF NOT EXISTS watchlist (
		user_id BIGINT NOT NULL,
		tmdb_id BIGINT NOT NULL,
		content_type VARCHAR NOT NULL,
		created_at TIMESTAMP NOT NULL,
		PRIMARY KEY (user_id, tmdb_id, content_type)
	)`,

	`CREATE TABLE IF NOT EXISTS negative_feedback (
		user_id BIGINT NOT NULL,
		tmdb_id BIGINT NOT NULL,
		content_type VARCHAR NOT NULL,
		reason VARCHAR,
		created_at TIMESTAMP NOT NULL,
		PRIMARY KEY (user_id, tmdb_id, content_type)
	)`,

	`CREATE TABLE IF NOT EXISTS recommendation_settings (
		user_id BIGINT PRIMARY KEY,
		popular_vs_niche_balance DOUBLE NOT NULL,
		genre_diversity DOUBLE NOT NULL,
		release_year_preference DOUBLE NOT NULL,
		runtime_flexibility DOUBLE NOT NULL,
		movie_weight DOUBLE NOT NULL,
		include_rewatches BOOLEAN NOT NULL,
		auto_refresh_days INTEGER NOT NULL,
		minimum_rating DOUBLE NOT NULL,
		prefer_recent_releases BOOLEAN NOT NULL,
		prefer_highly_rated BOOLEAN NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS preference_profiles (
		user_id BIGINT PRIMARY KEY,
		genre_weights VARCHAR NOT NULL DEFAULT '{}',
		avg_user_rating DOUBLE NOT NULL DEFAULT 0,
		rating_count INTEGER NOT NULL DEFAULT 0,
		watchlist_size INTEGER NOT NULL DEFAULT 0,
		analyzed_at TIMESTAMP NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS cached_recommendations (
		user_id BIGINT NOT NULL,
		tmdb_id BIGINT NOT NULL,
		content_type VARCHAR NOT NULL,
		score DOUBLE NOT NULL,
		content_score DOUBLE NOT NULL DEFAULT 0,
		popularity_score DOUBLE NOT NULL DEFAULT 0,
		preference_score DOUBLE NOT NULL DEFAULT 0,
		diversity_bonus DOUBLE NOT NULL DEFAULT 0,
		recommendation_type VARCHAR NOT NULL,
		explanation VARCHAR NOT NULL DEFAULT '',
		position INTEGER NOT NULL,
		viewed BOOLEAN NOT NULL DEFAULT false,
		clicked BOOLEAN NOT NULL DEFAULT false,
		added_to_watchlist BOOLEAN NOT NULL DEFAULT false,
		requested BOOLEAN NOT NULL DEFAULT false,
		settings_hash VARCHAR NOT NULL,
		generated_at TIMESTAMP NOT NULL,
		expires_at TIMESTAMP NOT NULL,
		PRIMARY KEY (user_id, tmdb_id, content_type)
	)`,

	`CREATE TABLE IF NOT EXISTS recommendation_feedback (
		user_id BIGINT NOT NULL,
		tmdb_id BIGINT NOT NULL,
		content_type VARCHAR NOT NULL,
		feedback_type VARCHAR NOT NULL,
		detailed_reason VARCHAR,
		additional_feedback VARCHAR NOT NULL DEFAULT '',
		recommendation_score DOUBLE NOT NULL DEFAULT 0,
		settings_snapshot VARCHAR NOT NULL DEFAULT '{}',
		created_at TIMESTAMP NOT NULL,
		PRIMARY KEY (user_id, tmdb_id, content_type)
	)`,
}

var indexCreationQueries = []string{
	`CREATE INDEX IF NOT EXISTS idx_catalog_rating ON catalog_items (content_type, rating)`,
	`CREATE INDEX IF NOT EXISTS idx_catalog_popularity ON catalog_items (content_type, popularity)`,
	`CREATE INDEX IF NOT EXISTS idx_cached_user ON cached_recommendations (user_id, expires_at)`,
	`CREATE INDEX IF NOT EXISTS idx_feedback_user ON recommendation_feedback (user_id)`,
}

func (db *DB) createTables(ctx context.Context) error {
	for _, query := range tableCreationQueries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("creating table: %w", err)
		}
	}
	for _, query := range indexCreationQueries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("creating index: %w", err)
		}
	}
	return nil
}
