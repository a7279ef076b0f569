// Screenscout - Personalized Movie & TV Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/screenscout

package recommend

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/screenscout/internal/config"
	"github.com/tomtom215/screenscout/internal/database"
	"github.com/tomtom215/screenscout/internal/metrics"
	"github.com/tomtom215/screenscout/internal/models"
)

// nicheRatingBump raises the rating floor for the niche pool above the
// user's minimum: hidden gems must earn their spot on quality.
const nicheRatingBump = 0.5

// preferredGenreFloor is the profile weight above which a genre narrows the
// candidate pools.
const preferredGenreFloor = 0.1

// Retriever fetches the popular and niche candidate pools for one content
// type, with the user's exclusions applied inside the query.
type Retriever struct {
	store Store
	cfg   config.RecommendConfig
}

// NewRetriever returns a retriever using the engine thresholds in cfg.
func NewRetriever(store Store, cfg config.RecommendConfig) *Retriever {
	return &Retriever{store: store, cfg: cfg}
}

// Exclusions computes the per-content-type exclusion sets from the
// watchlist, the user-wide negative list, and negative feedback. It is
// computed fresh on every call; excluded items must vanish from the next
// slate immediately.
func (r *Retriever) Exclusions(ctx context.Context, userID int64) (map[models.ContentType][]int64, error) {
	seen := make(map[contentKey]struct{})

	watchlist, err := r.store.GetWatchlist(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading watchlist for exclusions: %w", err)
	}
	for _, w := range watchlist {
		seen[contentKey{w.TMDBID, w.ContentType}] = struct{}{}
	}

	negatives, err := r.store.GetNegativeEntries(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading negative entries for exclusions: %w", err)
	}
	for _, n := range negatives {
		seen[contentKey{n.TMDBID, n.ContentType}] = struct{}{}
	}

	feedback, err := r.store.GetFeedback(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading feedback for exclusions: %w", err)
	}
	for _, f := range feedback {
		if f.Type.Negative() {
			seen[contentKey{f.TMDBID, f.ContentType}] = struct{}{}
		}
	}

	out := make(map[models.ContentType][]int64)
	for key := range seen {
		out[key.contentType] = append(out[key.contentType], key.tmdbID)
	}
	return out, nil
}

// PopularPool returns up to limit*overfetch well-known candidates: at or
// above the user's minimum rating and above the popularity threshold for
// the content type, ranked popularity-first.
func (r *Retriever) PopularPool(ctx context.Context, contentType models.ContentType, limit int, profile *models.PreferenceProfile, settings *models.RecommendationSettings, exclude []int64, now time.Time) ([]models.MediaItem, error) {
	q := database.CandidateQuery{
		ContentType:   contentType,
		MinRating:     settings.MinimumRating,
		MinPopularity: r.popularityThreshold(contentType),
		Genres:        preferredGenres(profile),
		Exclude:       exclude,
		Order:         database.OrderPopularityWeighted,
		Limit:         limit * r.cfg.OverfetchFactor,
	}
	if settings.PreferRecentReleases {
		q.MinReleaseYear = now.Year() - r.cfg.RecentYears
	}

	items, err := r.store.QueryCandidates(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("retrieving popular %s pool: %w", contentType, err)
	}
	metrics.CandidatesRetrieved.WithLabelValues(string(contentType), "popular").Observe(float64(len(items)))
	return items, nil
}

// NichePool returns up to limit*overfetch hidden-gem candidates: rated
// above minimum+0.5, below the popularity threshold, with enough votes for
// credibility, ranked rating-first.
func (r *Retriever) NichePool(ctx context.Context, contentType models.ContentType, limit int, profile *models.PreferenceProfile, settings *models.RecommendationSettings, exclude []int64, now time.Time) ([]models.MediaItem, error) {
	q := database.CandidateQuery{
		ContentType:   contentType,
		MinRating:     settings.MinimumRating + nicheRatingBump,
		MaxPopularity: r.popularityThreshold(contentType),
		MinVoteCount:  r.minVoteCount(contentType),
		Genres:        preferredGenres(profile),
		Exclude:       exclude,
		Order:         database.OrderRatingWeighted,
		Limit:         limit * r.cfg.OverfetchFactor,
	}
	if settings.PreferRecentReleases {
		q.MinReleaseYear = now.Year() - r.cfg.RecentYears
	}

	items, err := r.store.QueryCandidates(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("retrieving niche %s pool: %w", contentType, err)
	}
	metrics.CandidatesRetrieved.WithLabelValues(string(contentType), "niche").Observe(float64(len(items)))
	return items, nil
}

func (r *Retriever) popularityThreshold(contentType models.ContentType) float64 {
	if contentType == models.ContentTypeTV {
		return r.cfg.TVPopularityThreshold
	}
	return r.cfg.MoviePopularityThreshold
}

func (r *Retriever) minVoteCount(contentType models.ContentType) int64 {
	if contentType == models.ContentTypeTV {
		return r.cfg.TVMinVoteCount
	}
	return r.cfg.MovieMinVoteCount
}

// preferredGenres returns the profile genres worth filtering on. An empty
// result leaves the pools genre-unfiltered.
func preferredGenres(profile *models.PreferenceProfile) []int64 {
	if profile == nil {
		return nil
	}
	var out []int64
	for g, weight := range profile.GenreWeights {
		if weight > preferredGenreFloor {
			out = append(out, g)
		}
	}
	return out
}
