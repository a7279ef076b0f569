// Screenscout - Personalized Movie & TV Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/screenscout

package recommend

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/screenscout/internal/logging"
	"github.com/tomtom215/screenscout/internal/models"
)

// FeedbackStore is the persistence surface for recording feedback.
// *database.DB satisfies it.
type FeedbackStore interface {
	UpsertFeedback(ctx context.Context, f models.FeedbackRecord) error
	AddNegativeEntry(ctx context.Context, e models.NegativeEntry) error
	UpdateInteractionFlag(ctx context.Context, userID, tmdbID int64, contentType models.ContentType, flag models.InteractionFlag) error
	CachedScore(ctx context.Context, userID, tmdbID int64, contentType models.ContentType) (float64, error)
	EnsureSettings(ctx context.Context, userID int64) (*models.RecommendationSettings, error)
	FeedbackStats(ctx context.Context, userID int64) (*models.FeedbackStats, error)
	LastRefreshed(ctx context.Context, userID int64) (*time.Time, error)
}

// Recorder persists recommendation feedback and its side effects: negative
// feedback lands on the user-wide exclusion list, engagement feedback flips
// the cached row's interaction flags.
type Recorder struct {
	store FeedbackStore
}

// NewRecorder returns a recorder writing to the given store.
func NewRecorder(store FeedbackStore) *Recorder {
	return &Recorder{store: store}
}

// Record stores the feedback, stamping it with the score the item carried
// on the cached slate and a snapshot of the settings in force. Negative and
// not_interested feedback also excludes the item from all future slates;
// positive engagement marks the cached row as clicked (and added/requested
// where applicable). Flag updates on rows that have already been
// regenerated away are no-ops.
func (r *Recorder) Record(ctx context.Context, f models.FeedbackRecord) error {
	score, err := r.store.CachedScore(ctx, f.UserID, f.TMDBID, f.ContentType)
	if err != nil {
		return fmt.Errorf("reading slate score for feedback: %w", err)
	}
	f.Score = score

	settings, err := r.store.EnsureSettings(ctx, f.UserID)
	if err != nil {
		return fmt.Errorf("loading settings for feedback snapshot: %w", err)
	}
	f.SettingsSnapshot = map[string]float64{
		"popular_vs_niche_balance": settings.PopularVsNicheBalance,
		"genre_diversity":          settings.GenreDiversity,
	}

	if err := r.store.UpsertFeedback(ctx, f); err != nil {
		return err
	}

	if f.Type.Negative() {
		err := r.store.AddNegativeEntry(ctx, models.NegativeEntry{
			UserID:      f.UserID,
			TMDBID:      f.TMDBID,
			ContentType: f.ContentType,
			Reason:      f.Reason,
			CreatedAt:   f.CreatedAt,
		})
		if err != nil {
			return fmt.Errorf("excluding item after negative feedback: %w", err)
		}
	}

	for _, flag := range interactionFlags(f.Type) {
		if err := r.store.UpdateInteractionFlag(ctx, f.UserID, f.TMDBID, f.ContentType, flag); err != nil {
			return err
		}
	}

	logging.Debug().
		Int64("user_id", f.UserID).
		Int64("tmdb_id", f.TMDBID).
		Str("type", string(f.Type)).
		Msg("feedback recorded")
	return nil
}

// Stats aggregates the user's feedback history and the last slate refresh.
func (r *Recorder) Stats(ctx context.Context, userID int64) (*models.FeedbackStats, *time.Time, error) {
	stats, err := r.store.FeedbackStats(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	last, err := r.store.LastRefreshed(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return stats, last, nil
}

// interactionFlags maps a feedback type onto the cached-row flags it sets.
// Positive, added_to_watchlist and requested count as clicks; watched and
// the negative types leave the flags alone.
func interactionFlags(t models.FeedbackType) []models.InteractionFlag {
	switch t {
	case models.FeedbackPositive:
		return []models.InteractionFlag{models.FlagClicked}
	case models.FeedbackAddedToWatchlist:
		return []models.InteractionFlag{models.FlagClicked, models.FlagAddedToWatchlist}
	case models.FeedbackRequested:
		return []models.InteractionFlag{models.FlagClicked, models.FlagRequested}
	default:
		return nil
	}
}
