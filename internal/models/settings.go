// Screenscout - Personalized Movie & TV Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/screenscout

package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// RecommendationSettings holds a user's tunable recommendation behavior.
// All weight fields live in [0,1]. Nine of the fields participate in Hash;
// AutoRefreshDays controls cache lifetime and deliberately does not.
type RecommendationSettings struct {
	UserID                int64     `json:"user_id"`
	PopularVsNicheBalance float64   `json:"popular_vs_niche_balance" validate:"gte=0,lte=1"`
	GenreDiversity        float64   `json:"genre_diversity" validate:"gte=0,lte=1"`
	ReleaseYearPreference float64   `json:"release_year_preference" validate:"gte=0,lte=1"`
	RuntimeFlexibility    float64   `json:"runtime_flexibility" validate:"gte=0,lte=1"`
	MovieWeight           float64   `json:"movie_weight" validate:"gte=0,lte=1"`
	IncludeRewatches      bool      `json:"include_rewatches"`
	AutoRefreshDays       int       `json:"auto_refresh_days" validate:"gte=1,lte=30"`
	MinimumRating         float64   `json:"minimum_rating" validate:"gte=0,lte=10"`
	PreferRecentReleases  bool      `json:"prefer_recent_releases"`
	PreferHighlyRated     bool      `json:"prefer_highly_rated"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// DefaultSettings returns the settings written for a user on first contact.
func DefaultSettings(userID int64) RecommendationSettings {
	return RecommendationSettings{
		UserID:                userID,
		PopularVsNicheBalance: 0.5,
		GenreDiversity:        0.7,
		ReleaseYearPreference: 0.5,
		RuntimeFlexibility:    0.6,
		MovieWeight:           0.5,
		IncludeRewatches:      false,
		AutoRefreshDays:       7,
		MinimumRating:         6.0,
		PreferRecentReleases:  true,
		PreferHighlyRated:     true,
	}
}

// Normalize clamps out-of-range fields instead of rejecting them, matching
// the forgiving PUT semantics of the settings endpoint.
func (s *RecommendationSettings) Normalize() {
	s.PopularVsNicheBalance = clamp01(s.PopularVsNicheBalance)
	s.GenreDiversity = clamp01(s.GenreDiversity)
	s.ReleaseYearPreference = clamp01(s.ReleaseYearPreference)
	s.RuntimeFlexibility = clamp01(s.RuntimeFlexibility)
	s.MovieWeight = clamp01(s.MovieWeight)
	if s.AutoRefreshDays < 1 {
		s.AutoRefreshDays = 1
	}
	if s.AutoRefreshDays > 30 {
		s.AutoRefreshDays = 30
	}
	if s.MinimumRating < 0 {
		s.MinimumRating = 0
	}
	if s.MinimumRating > 10 {
		s.MinimumRating = 10
	}
}

// Hash returns a deterministic digest over the nine fields that change what
// gets recommended. Cached slates carry the hash they were generated under;
// a mismatch invalidates them.
func (s RecommendationSettings) Hash() string {
	h := sha256.New()
	fmt.Fprintf(h,
		"balance=%.6f|diversity=%.6f|year=%.6f|runtime=%.6f|movie=%.6f|rewatch=%t|min_rating=%.6f|recent=%t|rated=%t",
		s.PopularVsNicheBalance,
		s.GenreDiversity,
		s.ReleaseYearPreference,
		s.RuntimeFlexibility,
		s.MovieWeight,
		s.IncludeRewatches,
		s.MinimumRating,
		s.PreferRecentReleases,
		s.PreferHighlyRated,
	)
	return hex.EncodeToString(h.Sum(nil))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
