// Screenscout - Personalized Movie & TV Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/screenscout

package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/screenscout/internal/database"
	"github.com/tomtom215/screenscout/internal/logging"
	"github.com/tomtom215/screenscout/internal/metrics"
	"github.com/tomtom215/screenscout/internal/models"
)

// Signal strengths for genre weight accumulation. Ratings contribute on a
// (rating-5)/5 scale, watchlist saves a moderate positive, "not my genre"
// exclusions a strong negative.
const (
	watchlistSignal  = 0.3
	notMyGenreSignal = -0.5
)

// Analyzer derives preference profiles from interaction history.
type Analyzer struct {
	store Store
}

// NewAnalyzer returns an analyzer reading from the given store.
func NewAnalyzer(store Store) *Analyzer {
	return &Analyzer{store: store}
}

// Analyze builds the user's preference profile from ratings, watchlist, and
// "not my genre" exclusions, persists it, and returns it. Interactions whose
// catalog entry has disappeared are skipped without failing the analysis.
func (a *Analyzer) Analyze(ctx context.Context, userID int64) (*models.PreferenceProfile, error) {
	sums := make(map[int64]float64)
	counts := make(map[int64]int)

	ratings, err := a.store.GetRatings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading ratings: %w", err)
	}
	var ratingSum float64
	for _, r := range ratings {
		ratingSum += r.Rating
		genres, ok := a.lookupGenres(ctx, r.TMDBID, r.ContentType)
		if !ok {
			continue
		}
		signal := (r.Rating - 5.0) / 5.0
		for _, g := range genres {
			sums[g] += signal
			counts[g]++
		}
	}

	watchlist, err := a.store.GetWatchlist(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading watchlist: %w", err)
	}
	for _, w := range watchlist {
		genres, ok := a.lookupGenres(ctx, w.TMDBID, w.ContentType)
		if !ok {
			continue
		}
		for _, g := range genres {
			sums[g] += watchlistSignal
			counts[g]++
		}
	}

	negatives, err := a.store.GetNegativeEntries(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading negative entries: %w", err)
	}
	for _, n := range negatives {
		if n.Reason != models.FeedbackReasonNotMyGenre {
			continue
		}
		genres, ok := a.lookupGenres(ctx, n.TMDBID, n.ContentType)
		if !ok {
			continue
		}
		for _, g := range genres {
			sums[g] += notMyGenreSignal
			counts[g]++
		}
	}

	weights := make(map[int64]float64, len(sums))
	for g, sum := range sums {
		if counts[g] == 0 {
			continue
		}
		avg := sum / float64(counts[g])
		// map the [-1,1] signal average onto [0,1]
		w := (avg + 1.0) / 2.0
		if w < 0 {
			w = 0
		}
		if w > 1 {
			w = 1
		}
		weights[g] = w
	}

	profile := models.PreferenceProfile{
		UserID:        userID,
		GenreWeights:  weights,
		RatingCount:   len(ratings),
		WatchlistSize: len(watchlist),
		AnalyzedAt:    time.Now().UTC(),
	}
	if len(ratings) > 0 {
		profile.AvgUserRating = ratingSum / float64(len(ratings))
	}

	if err := a.store.UpsertProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("persisting profile: %w", err)
	}

	metrics.ProfileAnalyses.Inc()
	logging.Debug().
		Int64("user_id", userID).
		Int("genres", len(weights)).
		Int("ratings", len(ratings)).
		Msg("preference profile analyzed")
	return &profile, nil
}

func (a *Analyzer) lookupGenres(ctx context.Context, tmdbID int64, contentType models.ContentType) ([]int64, bool) {
	item, err := a.store.GetMediaItem(ctx, tmdbID, contentType)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			logging.Warn().Err(err).Int64("tmdb_id", tmdbID).Msg("catalog lookup failed during analysis")
		}
		return nil, false
	}
	return item.Genres, true
}
