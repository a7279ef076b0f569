// Screenscout - Personalized Movie & TV Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/screenscout

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomtom215/screenscout/internal/models"
)

// AddRating records or replaces a user's rating for an item.
func (db *DB) AddRating(ctx context.Context, r models.Rating) error {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	defer observe("upsert", "user_ratings")()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO user_ratings (user_id, tmdb_id, content_type, rating, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, tmdb_id, content_type) DO UPDATE SET
			rating = EXCLUDED.rating,
			created_at = EXCLUDED.created_at`,
		r.UserID, r.TMDBID, string(r.ContentType), r.Rating, timeOrNow(r.CreatedAt))
	if err != nil {
		return fmt.Errorf("upserting rating: %w", err)
	}
	return nil
}

// GetRatings returns all of a user's ratings.
func (db *DB) GetRatings(ctx context.Context, userID int64) ([]models.Rating, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	defer observe("select", "user_ratings")()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT user_id, tmdb_id, content_type, rating, created_at
		FROM user_ratings WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying ratings: %w", err)
	}
	defer rows.Close()

	var out []models.Rating
	for rows.Next() {
		var (
			r  models.Rating
			ct string
		)
		if err := rows.Scan(&r.UserID, &r.TMDBID, &ct, &r.Rating, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning rating: %w", err)
		}
		r.ContentType = models.ContentType(ct)
		out = append(out, r)
	}
	return out, rows.Err()
}

// AddWatchlistEntry saves an item to the user's watchlist. Re-adding is a no-op.
func (db *DB) AddWatchlistEntry(ctx context.Context, e models.WatchlistEntry) error {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	defer observe("upsert", "watchlist")()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO watchlist (user_id, tmdb_id, content_type, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, tmdb_id, content_type) DO NOTHING`,
		e.UserID, e.TMDBID, string(e.ContentType), timeOrNow(e.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting watchlist entry: %w", err)
	}
	return nil
}

// GetWatchlist returns the user's watchlist.
func (db *DB) GetWatchlist(ctx context.Context, userID int64) ([]models.WatchlistEntry, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	defer observe("select", "watchlist")()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT user_id, tmdb_id, content_type, created_at
		FROM watchlist WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying watchlist: %w", err)
	}
	defer rows.Close()

	var out []models.WatchlistEntry
	for rows.Next() {
		var (
			e  models.WatchlistEntry
			ct string
		)
		if err := rows.Scan(&e.UserID, &e.TMDBID, &ct, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning watchlist entry: %w", err)
		}
		e.ContentType = models.ContentType(ct)
		out = append(out, e)
	}
	return out, rows.Err()
}

// AddNegativeEntry records a user-wide exclusion. A repeat for the same item
// refreshes the reason.
func (db *DB) AddNegativeEntry(ctx context.Context, e models.NegativeEntry) error {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	defer observe("upsert", "negative_feedback")()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO negative_feedback (user_id, tmdb_id, content_type, reason, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, tmdb_id, content_type) DO UPDATE SET
			reason = EXCLUDED.reason,
			created_at = EXCLUDED.created_at`,
		e.UserID, e.TMDBID, string(e.ContentType), nullable(e.Reason), timeOrNow(e.CreatedAt))
	if err != nil {
		return fmt.Errorf("upserting negative entry: %w", err)
	}
	return nil
}

// GetNegativeEntries returns the user's exclusion list.
func (db *DB) GetNegativeEntries(ctx context.Context, userID int64) ([]models.NegativeEntry, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	defer observe("select", "negative_feedback")()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT user_id, tmdb_id, content_type, reason, created_at
		FROM negative_feedback WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying negative entries: %w", err)
	}
	defer rows.Close()

	var out []models.NegativeEntry
	for rows.Next() {
		var (
			e      models.NegativeEntry
			ct     string
			reason sql.NullString
		)
		if err := rows.Scan(&e.UserID, &e.TMDBID, &ct, &reason, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning negative entry: %w", err)
		}
		e.ContentType = models.ContentType(ct)
		e.Reason = reason.String
		out = append(out, e)
	}
	return out, rows.Err()
}

func timeOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
