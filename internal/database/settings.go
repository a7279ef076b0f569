// Screenscout - Personalized Movie & TV Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/screenscout

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/screenscout/internal/models"
)

// GetSettings fetches a user's recommendation settings, or ErrNotFound for
// users who have never touched the system.
func (db *DB) GetSettings(ctx context.Context, userID int64) (*models.RecommendationSettings, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	defer observe("select", "recommendation_settings")()

	const query = `SELECT user_id, popular_vs_niche_balance, genre_diversity,
		release_year_preference, runtime_flexibility, movie_weight,
		include_rewatches, auto_refresh_days, minimum_rating,
		prefer_recent_releases, prefer_highly_rated, updated_at
		FROM recommendation_settings WHERE user_id = ?`

	stmt, err := db.getStatement(ctx, query)
	if err != nil {
		return nil, err
	}

	var s models.RecommendationSettings
	err = stmt.QueryRowContext(ctx, userID).Scan(
		&s.UserID, &s.PopularVsNicheBalance, &s.GenreDiversity,
		&s.ReleaseYearPreference, &s.RuntimeFlexibility, &s.MovieWeight,
		&s.IncludeRewatches, &s.AutoRefreshDays, &s.MinimumRating,
		&s.PreferRecentReleases, &s.PreferHighlyRated, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching settings for user %d: %w", userID, err)
	}
	return &s, nil
}

// UpsertSettings writes the full settings row for a user.
func (db *DB) UpsertSettings(ctx context.Context, s models.RecommendationSettings) error {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	defer observe("upsert", "recommendation_settings")()

	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = time.Now().UTC()
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO recommendation_settings
		(user_id, popular_vs_niche_balance, genre_diversity, release_year_preference,
		 runtime_flexibility, movie_weight, include_rewatches, auto_refresh_days,
		 minimum_rating, prefer_recent_releases, prefer_highly_rated, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			popular_vs_niche_balance = EXCLUDED.popular_vs_niche_balance,
			genre_diversity = EXCLUDED.genre_diversity,
			release_year_preference = EXCLUDED.release_year_preference,
			runtime_flexibility = EXCLUDED.runtime_flexibility,
			movie_weight = EXCLUDED.movie_weight,
			include_rewatches = EXCLUDED.include_rewatches,
			auto_refresh_days = EXCLUDED.auto_refresh_days,
			minimum_rating = EXCLUDED.minimum_rating,
			prefer_recent_releases = EXCLUDED.prefer_recent_releases,
			prefer_highly_rated = EXCLUDED.prefer_highly_rated,
			updated_at = EXCLUDED.updated_at`,
		s.UserID, s.PopularVsNicheBalance, s.GenreDiversity, s.ReleaseYearPreference,
		s.RuntimeFlexibility, s.MovieWeight, s.IncludeRewatches, s.AutoRefreshDays,
		s.MinimumRating, s.PreferRecentReleases, s.PreferHighlyRated, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upserting settings for user %d: %w", s.UserID, err)
	}
	return nil
}

// EnsureSettings returns the user's settings, writing and returning the
// defaults when none exist yet.
func (db *DB) EnsureSettings(ctx context.Context, userID int64) (*models.RecommendationSettings, error) {
	s, err := db.GetSettings(ctx, userID)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	defaults := models.DefaultSettings(userID)
	defaults.UpdatedAt = time.Now().UTC()
	if err := db.UpsertSettings(ctx, defaults); err != nil {
		return nil, err
	}
	return &defaults, nil
}
