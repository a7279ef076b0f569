// Screenscout - Personalized Movie & TV Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/screenscout

package models

import "time"

// ProfileMaxAge is how long an analyzed preference profile stays fresh
// before the orchestrator re-derives it from interaction history.
const ProfileMaxAge = 7 * 24 * time.Hour

// PreferenceProfile is the derived taste model for a user. GenreWeights maps
// TMDB genre IDs to affinity in [0,1]; 0.5 is neutral.
type PreferenceProfile struct {
	UserID        int64             `json:"user_id"`
	GenreWeights  map[int64]float64 `json:"genre_weights"`
	AvgUserRating float64           `json:"avg_user_rating"`
	RatingCount   int               `json:"rating_count"`
	WatchlistSize int               `json:"watchlist_size"`
	AnalyzedAt    time.Time         `json:"analyzed_at"`
}

// Stale reports whether the profile is old enough to need re-analysis.
func (p *PreferenceProfile) Stale(now time.Time) bool {
	return now.Sub(p.AnalyzedAt) > ProfileMaxAge
}

// GenreAffinity averages the profile's weight over the given genres.
// A genre the profile has never seen contributes a neutral 0.5, so one
// unfamiliar genre cannot sink an otherwise well-matched item. An empty
// profile is neutral (0.5); an item with no genres scores a slightly
// pessimistic 0.3 because nothing links it to the user's taste.
func (p *PreferenceProfile) GenreAffinity(genres []int64) float64 {
	if p == nil || len(p.GenreWeights) == 0 {
		return 0.5
	}
	if len(genres) == 0 {
		return 0.3
	}
	var sum float64
	for _, g := range genres {
		if w, ok := p.GenreWeights[g]; ok {
			sum += w
		} else {
			sum += 0.5
		}
	}
	return sum / float64(len(genres))
}

// Rating is a user's explicit score for a catalog item.
type Rating struct {
	UserID      int64       `json:"user_id"`
	TMDBID      int64       `json:"tmdb_id"`
	ContentType ContentType `json:"content_type"`
	Rating      float64     `json:"rating"`
	CreatedAt   time.Time   `json:"created_at"`
}

// WatchlistEntry marks an item the user saved to watch later.
type WatchlistEntry struct {
	UserID      int64       `json:"user_id"`
	TMDBID      int64       `json:"tmdb_id"`
	ContentType ContentType `json:"content_type"`
	CreatedAt   time.Time   `json:"created_at"`
}

// NegativeEntry is a user-wide exclusion: the item never appears in that
// user's recommendations again.
type NegativeEntry struct {
	UserID      int64       `json:"user_id"`
	TMDBID      int64       `json:"tmdb_id"`
	ContentType ContentType `json:"content_type"`
	Reason      string      `json:"reason,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}
