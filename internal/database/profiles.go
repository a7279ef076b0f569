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

	"github.com/goccy/go-json"

	"github.com/tomtom215/screenscout/internal/models"
)

// GetProfile fetches a user's preference profile, or ErrNotFound when the
// user has never been analyzed.
func (db *DB) GetProfile(ctx context.Context, userID int64) (*models.PreferenceProfile, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	defer observe("select", "preference_profiles")()

	const query = `SELECT user_id, genre_weights, avg_user_rating, rating_count, watchlist_size, analyzed_at
		FROM preference_profiles WHERE user_id = ?`

	stmt, err := db.getStatement(ctx, query)
	if err != nil {
		return nil, err
	}

	var (
		p       models.PreferenceProfile
		weights string
	)
	err = stmt.QueryRowContext(ctx, userID).Scan(
		&p.UserID, &weights, &p.AvgUserRating, &p.RatingCount, &p.WatchlistSize, &p.AnalyzedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching profile for user %d: %w", userID, err)
	}
	if err := json.Unmarshal([]byte(weights), &p.GenreWeights); err != nil {
		return nil, fmt.Errorf("unmarshaling genre weights: %w", err)
	}
	return &p, nil
}

// UpsertProfile writes the full profile row for a user.
func (db *DB) UpsertProfile(ctx context.Context, p models.PreferenceProfile) error {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	defer observe("upsert", "preference_profiles")()

	weights, err := json.Marshal(p.GenreWeights)
	if err != nil {
		return fmt.Errorf("marshaling genre weights: %w", err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO preference_profiles
		(user_id, genre_weights, avg_user_rating, rating_count, watchlist_size, analyzed_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			genre_weights = EXCLUDED.genre_weights,
			avg_user_rating = EXCLUDED.avg_user_rating,
			rating_count = EXCLUDED.rating_count,
			watchlist_size = EXCLUDED.watchlist_size,
			analyzed_at = EXCLUDED.analyzed_at`,
		p.UserID, string(weights), p.AvgUserRating, p.RatingCount, p.WatchlistSize, p.AnalyzedAt)
	if err != nil {
		return fmt.Errorf("upserting profile for user %d: %w", p.UserID, err)
	}
	return nil
}
