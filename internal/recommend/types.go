// Screenscout - Personalized Movie & TV Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/screenscout

// Package recommend implements the hybrid recommendation pipeline: profile
// analysis, candidate retrieval, content scoring, diversity injection, and
// the caching orchestrator that ties them together.
package recommend

import (
	"context"
	"time"

	"github.com/tomtom215/screenscout/internal/database"
	"github.com/tomtom215/screenscout/internal/models"
)

// Store is the persistence surface the engine needs. *database.DB satisfies it.
type Store interface {
	GetMediaItem(ctx context.Context, tmdbID int64, contentType models.ContentType) (*models.MediaItem, error)
	QueryCandidates(ctx context.Context, q database.CandidateQuery) ([]models.MediaItem, error)

	GetRatings(ctx context.Context, userID int64) ([]models.Rating, error)
	GetWatchlist(ctx context.Context, userID int64) ([]models.WatchlistEntry, error)
	GetNegativeEntries(ctx context.Context, userID int64) ([]models.NegativeEntry, error)
	GetFeedback(ctx context.Context, userID int64) ([]models.FeedbackRecord, error)

	EnsureSettings(ctx context.Context, userID int64) (*models.RecommendationSettings, error)

	GetProfile(ctx context.Context, userID int64) (*models.PreferenceProfile, error)
	UpsertProfile(ctx context.Context, p models.PreferenceProfile) error

	ValidCachedRecommendations(ctx context.Context, userID int64, settingsHash string, now time.Time) ([]models.ScoredRecommendation, error)
	ReplaceRecommendations(ctx context.Context, userID int64, recs []models.ScoredRecommendation, settingsHash string) error
	MarkViewed(ctx context.Context, userID int64) error
}

// contentKey identifies an item across both content types, for exclusion sets.
type contentKey struct {
	tmdbID      int64
	contentType models.ContentType
}
