// Screenscout - Personalized Movie & TV Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/screenscout

package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/tomtom215/screenscout/internal/models"
)

// UpsertFeedback records a user's reaction to an item. The (user, tmdb_id,
// content_type) key is unique, so later feedback replaces earlier feedback.
func (db *DB) UpsertFeedback(ctx context.Context, f models.FeedbackRecord) error {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	defer observe("upsert", "recommendation_feedback")()

	snapshot := "{}"
	if len(f.SettingsSnapshot) > 0 {
		raw, err := json.Marshal(f.SettingsSnapshot)
		if err != nil {
			return fmt.Errorf("marshaling settings snapshot: %w", err)
		}
		snapshot = string(raw)
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO recommendation_feedback
		(user_id, tmdb_id, content_type, feedback_type, detailed_reason,
			additional_feedback, recommendation_score, settings_snapshot, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, tmdb_id, content_type) DO UPDATE SET
			feedback_type = EXCLUDED.feedback_type,
			detailed_reason = EXCLUDED.detailed_reason,
			additional_feedback = EXCLUDED.additional_feedback,
			recommendation_score = EXCLUDED.recommendation_score,
			settings_snapshot = EXCLUDED.settings_snapshot,
			created_at = EXCLUDED.created_at`,
		f.UserID, f.TMDBID, string(f.ContentType), string(f.Type),
		nullable(f.Reason), f.AdditionalFeedback, f.Score, snapshot,
		timeOrNow(f.CreatedAt))
	if err != nil {
		return fmt.Errorf("upserting feedback: %w", err)
	}
	return nil
}

// GetFeedback returns all feedback the user has recorded.
func (db *DB) GetFeedback(ctx context.Context, userID int64) ([]models.FeedbackRecord, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	defer observe("select", "recommendation_feedback")()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT user_id, tmdb_id, content_type, feedback_type, detailed_reason,
			additional_feedback, recommendation_score, settings_snapshot, created_at
		FROM recommendation_feedback WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying feedback: %w", err)
	}
	defer rows.Close()

	var out []models.FeedbackRecord
	for rows.Next() {
		var (
			f        models.FeedbackRecord
			ct       string
			ftype    string
			reason   sql.NullString
			snapshot string
		)
		if err := rows.Scan(&f.UserID, &f.TMDBID, &ct, &ftype, &reason,
			&f.AdditionalFeedback, &f.Score, &snapshot, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning feedback: %w", err)
		}
		f.ContentType = models.ContentType(ct)
		f.Type = models.FeedbackType(ftype)
		f.Reason = reason.String
		if snapshot != "" && snapshot != "{}" {
			if err := json.Unmarshal([]byte(snapshot), &f.SettingsSnapshot); err != nil {
				return nil, fmt.Errorf("unmarshaling settings snapshot: %w", err)
			}
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// FeedbackStats aggregates the user's feedback counts. Positive counts
// positive, added_to_watchlist and requested; negative counts negative and
// not_interested. SuccessRate is positive/total, zero for no feedback.
func (db *DB) FeedbackStats(ctx context.Context, userID int64) (*models.FeedbackStats, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	defer observe("select", "recommendation_feedback")()

	var stats models.FeedbackStats
	err := db.conn.QueryRowContext(ctx,
		`SELECT
			count(*),
			count(*) FILTER (WHERE feedback_type IN ('positive', 'added_to_watchlist', 'requested')),
			count(*) FILTER (WHERE feedback_type IN ('negative', 'not_interested'))
		FROM recommendation_feedback WHERE user_id = ?`,
		userID).Scan(&stats.Total, &stats.Positive, &stats.Negative)
	if err != nil {
		return nil, fmt.Errorf("aggregating feedback stats: %w", err)
	}

	if stats.Total > 0 {
		stats.SuccessRate = float64(stats.Positive) / float64(stats.Total)
	}
	return &stats, nil
}
