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
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/screenscout/internal/metrics"
	"github.com/tomtom215/screenscout/internal/models"
)

// CandidateOrder selects the ranking expression for a candidate query.
type CandidateOrder int

const (
	// OrderPopularityWeighted ranks by popularity*0.7 + rating*0.3.
	OrderPopularityWeighted CandidateOrder = iota
	// OrderRatingWeighted ranks by rating*0.8 + (ceiling-popularity)*0.2,
	// favoring well-rated items far below the popularity ceiling.
	OrderRatingWeighted
)

// CandidateQuery filters the catalog for one retrieval pool.
type CandidateQuery struct {
	ContentType    models.ContentType
	MinRating      float64
	MinPopularity  float64 // > 0: popularity floor
	MaxPopularity  float64 // > 0: exclusive popularity ceiling
	MinVoteCount   int64
	MinReleaseYear int     // > 0: oldest acceptable release year
	Genres         []int64 // non-empty: require at least one matching genre
	Exclude        []int64 // TMDB IDs never returned
	Order          CandidateOrder
	Limit          int
}

// UpsertMediaItems writes catalog entries and their genre rows in one
// transaction. Existing entries are refreshed in place.
func (db *DB) UpsertMediaItems(ctx context.Context, items []models.MediaItem) error {
	if len(items) == 0 {
		return nil
	}
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	defer observe("upsert", "catalog_items")()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning catalog upsert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	const upsert = `INSERT INTO catalog_items
		(tmdb_id, content_type, title, overview, genres, rating, popularity,
		 vote_count, release_year, poster_path, runtime, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (tmdb_id, content_type) DO UPDATE SET
			title = EXCLUDED.title,
			overview = EXCLUDED.overview,
			genres = EXCLUDED.genres,
			rating = EXCLUDED.rating,
			popularity = EXCLUDED.popularity,
			vote_count = EXCLUDED.vote_count,
			release_year = EXCLUDED.release_year,
			poster_path = EXCLUDED.poster_path,
			runtime = EXCLUDED.runtime,
			updated_at = EXCLUDED.updated_at`

	now := time.Now().UTC()
	for i := range items {
		item := &items[i]
		genres, err := json.Marshal(item.Genres)
		if err != nil {
			return fmt.Errorf("marshaling genres for tmdb_id %d: %w", item.TMDBID, err)
		}
		if _, err := tx.ExecContext(ctx, upsert,
			item.TMDBID, string(item.ContentType), item.Title, item.Overview,
			string(genres), item.Rating, item.Popularity, item.VoteCount,
			item.ReleaseYear, item.PosterPath, item.Runtime, now,
		); err != nil {
			return fmt.Errorf("upserting catalog item %d: %w", item.TMDBID, err)
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM catalog_genres WHERE tmdb_id = ? AND content_type = ?`,
			item.TMDBID, string(item.ContentType),
		); err != nil {
			return fmt.Errorf("clearing genre rows for %d: %w", item.TMDBID, err)
		}
		for _, g := range item.Genres {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO catalog_genres (tmdb_id, content_type, genre_id) VALUES (?, ?, ?)`,
				item.TMDBID, string(item.ContentType), g,
			); err != nil {
				return fmt.Errorf("inserting genre row for %d: %w", item.TMDBID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing catalog upsert: %w", err)
	}
	return nil
}

// GetMediaItem fetches one catalog entry, or ErrNotFound.
func (db *DB) GetMediaItem(ctx context.Context, tmdbID int64, contentType models.ContentType) (*models.MediaItem, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	defer observe("select", "catalog_items")()

	const query = `SELECT tmdb_id, content_type, title, overview, genres, rating,
		popularity, vote_count, release_year, poster_path, runtime
		FROM catalog_items WHERE tmdb_id = ? AND content_type = ?`

	stmt, err := db.getStatement(ctx, query)
	if err != nil {
		return nil, err
	}

	item, err := scanMediaItem(stmt.QueryRowContext(ctx, tmdbID, string(contentType)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching catalog item %d: %w", tmdbID, err)
	}
	return item, nil
}

// QueryCandidates returns catalog entries matching the pool filters, ranked
// by the query's order expression.
func (db *DB) QueryCandidates(ctx context.Context, q CandidateQuery) ([]models.MediaItem, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	defer observe("select", "catalog_items")()

	var sb strings.Builder
	args := make([]any, 0, 8+len(q.Genres)+len(q.Exclude))

	sb.WriteString(`SELECT tmdb_id, content_type, title, overview, genres, rating,
		popularity, vote_count, release_year, poster_path, runtime
		FROM catalog_items WHERE content_type = ? AND rating >= ?`)
	args = append(args, string(q.ContentType), q.MinRating)

	if q.MinPopularity > 0 {
		sb.WriteString(" AND popularity >= ?")
		args = append(args, q.MinPopularity)
	}
	if q.MaxPopularity > 0 {
		sb.WriteString(" AND popularity < ?")
		args = append(args, q.MaxPopularity)
	}
	if q.MinVoteCount > 0 {
		sb.WriteString(" AND vote_count >= ?")
		args = append(args, q.MinVoteCount)
	}
	if q.MinReleaseYear > 0 {
		sb.WriteString(" AND release_year >= ?")
		args = append(args, q.MinReleaseYear)
	}
	if len(q.Genres) > 0 {
		sb.WriteString(` AND EXISTS (SELECT 1 FROM catalog_genres g
			WHERE g.tmdb_id = catalog_items.tmdb_id
			AND g.content_type = catalog_items.content_type
			AND g.genre_id IN (` + placeholders(len(q.Genres)) + "))")
		for _, g := range q.Genres {
			args = append(args, g)
		}
	}
	if len(q.Exclude) > 0 {
		sb.WriteString(" AND tmdb_id NOT IN (" + placeholders(len(q.Exclude)) + ")")
		for _, id := range q.Exclude {
			args = append(args, id)
		}
	}

	switch q.Order {
	case OrderRatingWeighted:
		sb.WriteString(" ORDER BY rating * 0.8 + (? - popularity) * 0.2 DESC")
		args = append(args, q.MaxPopularity)
	default:
		sb.WriteString(" ORDER BY popularity * 0.7 + rating * 0.3 DESC")
	}
	sb.WriteString(" LIMIT ?")
	args = append(args, q.Limit)

	rows, err := db.conn.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying candidates: %w", err)
	}
	defer rows.Close()

	var items []models.MediaItem
	for rows.Next() {
		item, err := scanMediaItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning candidate: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// CatalogSize returns the number of catalog entries per content type.
func (db *DB) CatalogSize(ctx context.Context, contentType models.ContentType) (int64, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	var n int64
	err := db.conn.QueryRowContext(ctx,
		`SELECT count(*) FROM catalog_items WHERE content_type = ?`, string(contentType)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting catalog items: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMediaItem(row rowScanner) (*models.MediaItem, error) {
	var (
		item        models.MediaItem
		contentType string
		genres      string
		overview    sql.NullString
		poster      sql.NullString
	)
	err := row.Scan(&item.TMDBID, &contentType, &item.Title, &overview, &genres,
		&item.Rating, &item.Popularity, &item.VoteCount, &item.ReleaseYear,
		&poster, &item.Runtime)
	if err != nil {
		return nil, err
	}
	item.ContentType = models.ContentType(contentType)
	item.Overview = overview.String
	item.PosterPath = poster.String
	if err := unmarshalGenres(genres, &item.Genres); err != nil {
		return nil, err
	}
	return &item, nil
}

func unmarshalGenres(raw string, dst *[]int64) error {
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("unmarshaling genres: %w", err)
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// observe times a database operation for the query duration histogram.
func observe(operation, table string) func() {
	start := time.Now()
	return func() {
		metrics.DBQueryDuration.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
