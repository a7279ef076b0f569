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

// ValidCachedRecommendations returns the user's cached slate when it was
// generated under the given settings hash and has not expired, ordered by
// position. Rows whose catalog entry has disappeared are dropped silently.
// An empty result means the cache cannot serve this request.
func (db *DB) ValidCachedRecommendations(ctx context.Context, userID int64, settingsHash string, now time.Time) ([]models.ScoredRecommendation, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	defer observe("select", "cached_recommendations")()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT c.tmdb_id, c.content_type, c.score, c.content_score,
			c.popularity_score, c.preference_score, c.diversity_bonus,
			c.recommendation_type, c.explanation, c.position,
			c.viewed, c.clicked, c.added_to_watchlist, c.requested,
			c.generated_at, c.expires_at,
			i.title, i.overview, i.genres, i.rating, i.popularity,
			i.vote_count, i.release_year, i.poster_path, i.runtime
		FROM cached_recommendations c
		JOIN catalog_items i
			ON i.tmdb_id = c.tmdb_id AND i.content_type = c.content_type
		WHERE c.user_id = ? AND c.settings_hash = ? AND c.expires_at > ?
		ORDER BY c.position`,
		userID, settingsHash, now)
	if err != nil {
		return nil, fmt.Errorf("querying cached recommendations: %w", err)
	}
	defer rows.Close()

	var out []models.ScoredRecommendation
	for rows.Next() {
		rec, err := scanCachedRecommendation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// ReplaceRecommendations atomically swaps the user's cached slate: the old
// rows and the new ones never coexist and a failure leaves the old slate
// intact.
func (db *DB) ReplaceRecommendations(ctx context.Context, userID int64, recs []models.ScoredRecommendation, settingsHash string) error {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	defer observe("replace", "cached_recommendations")()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning cache replace: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM cached_recommendations WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("clearing cached recommendations: %w", err)
	}

	const insert = `INSERT INTO cached_recommendations
		(user_id, tmdb_id, content_type, score, content_score, popularity_score,
		 preference_score, diversity_bonus, recommendation_type, explanation,
		 position, viewed, clicked, added_to_watchlist, requested,
		 settings_hash, generated_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	for i := range recs {
		r := &recs[i]
		if _, err := tx.ExecContext(ctx, insert,
			userID, r.Item.TMDBID, string(r.Item.ContentType),
			r.Score, r.ContentScore, r.PopularityScore, r.PreferenceScore,
			r.DiversityBonus, string(r.Type), r.Explanation, r.Position,
			r.Viewed, r.Clicked, r.AddedToWatchlist, r.Requested,
			settingsHash, r.GeneratedAt, r.ExpiresAt,
		); err != nil {
			return fmt.Errorf("inserting cached recommendation %d: %w", r.Item.TMDBID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing cache replace: %w", err)
	}
	return nil
}

// MarkViewed flags the user's current cached rows as served.
func (db *DB) MarkViewed(ctx context.Context, userID int64) error {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	defer observe("update", "cached_recommendations")()

	_, err := db.conn.ExecContext(ctx,
		`UPDATE cached_recommendations SET viewed = true WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("marking recommendations viewed: %w", err)
	}
	return nil
}

// Interaction flag columns reachable through UpdateInteractionFlag. The
// flag is the map key so handler input never reaches the SQL text.
var interactionColumns = map[models.InteractionFlag]string{
	models.FlagClicked:          "clicked",
	models.FlagAddedToWatchlist: "added_to_watchlist",
	models.FlagRequested:        "requested",
}

// UpdateInteractionFlag flips the cached row's interaction column for
// clicked / added_to_watchlist / requested engagement. Missing rows are not
// an error; the slate may have been regenerated since the client rendered it.
func (db *DB) UpdateInteractionFlag(ctx context.Context, userID, tmdbID int64, contentType models.ContentType, flag models.InteractionFlag) error {
	column, ok := interactionColumns[flag]
	if !ok {
		return fmt.Errorf("interaction flag %q has no column", flag)
	}

	ctx, cancel := ensureContext(ctx)
	defer cancel()
	defer observe("update", "cached_recommendations")()

	query := fmt.Sprintf(
		`UPDATE cached_recommendations SET %s = true
		WHERE user_id = ? AND tmdb_id = ? AND content_type = ?`, column)
	if _, err := db.conn.ExecContext(ctx, query, userID, tmdbID, string(contentType)); err != nil {
		return fmt.Errorf("updating %s flag: %w", column, err)
	}
	return nil
}

// CachedScore returns the score the engine assigned to the item on the
// user's current cached slate, or 0 when the row is gone.
func (db *DB) CachedScore(ctx context.Context, userID, tmdbID int64, contentType models.ContentType) (float64, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	defer observe("select", "cached_recommendations")()

	var score float64
	err := db.conn.QueryRowContext(ctx,
		`SELECT score FROM cached_recommendations
		WHERE user_id = ? AND tmdb_id = ? AND content_type = ?`,
		userID, tmdbID, string(contentType)).Scan(&score)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading cached score: %w", err)
	}
	return score, nil
}

// InvalidateRecommendations drops the user's cached slate.
func (db *DB) InvalidateRecommendations(ctx context.Context, userID int64) error {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	defer observe("delete", "cached_recommendations")()

	_, err := db.conn.ExecContext(ctx,
		`DELETE FROM cached_recommendations WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("invalidating cached recommendations: %w", err)
	}
	return nil
}

// LastRefreshed returns when the user's slate was last generated, or nil
// when no cached rows exist.
func (db *DB) LastRefreshed(ctx context.Context, userID int64) (*time.Time, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	defer observe("select", "cached_recommendations")()

	var t sql.NullTime
	err := db.conn.QueryRowContext(ctx,
		`SELECT max(generated_at) FROM cached_recommendations WHERE user_id = ?`,
		userID).Scan(&t)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("fetching last refresh time: %w", err)
	}
	if !t.Valid {
		return nil, nil
	}
	return &t.Time, nil
}

func scanCachedRecommendation(rows *sql.Rows) (*models.ScoredRecommendation, error) {
	var (
		rec      models.ScoredRecommendation
		ct       string
		recType  string
		genres   string
		overview sql.NullString
		poster   sql.NullString
	)
	err := rows.Scan(&rec.Item.TMDBID, &ct, &rec.Score, &rec.ContentScore,
		&rec.PopularityScore, &rec.PreferenceScore, &rec.DiversityBonus,
		&recType, &rec.Explanation, &rec.Position,
		&rec.Viewed, &rec.Clicked, &rec.AddedToWatchlist, &rec.Requested,
		&rec.GeneratedAt, &rec.ExpiresAt,
		&rec.Item.Title, &overview, &genres, &rec.Item.Rating,
		&rec.Item.Popularity, &rec.Item.VoteCount, &rec.Item.ReleaseYear,
		&poster, &rec.Item.Runtime)
	if err != nil {
		return nil, fmt.Errorf("scanning cached recommendation: %w", err)
	}
	rec.Item.ContentType = models.ContentType(ct)
	rec.Item.Overview = overview.String
	rec.Item.PosterPath = poster.String
	rec.Type = models.RecommendationType(recType)
	if err := unmarshalGenres(genres, &rec.Item.Genres); err != nil {
		return nil, err
	}
	return &rec, nil
}
