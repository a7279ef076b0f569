// Screenscout - Personalized Movie & TV Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/screenscout

package models

import "time"

// RecommendationType records which candidate pool an item came from.
type RecommendationType string

const (
	RecommendationPopular RecommendationType = "popular"
	RecommendationNiche   RecommendationType = "niche"
)

// ScoredRecommendation is one row of a user's recommendation slate, both as
// it flows through the scoring pipeline and as it is cached.
type ScoredRecommendation struct {
	Item MediaItem `json:"item"`

	Score           float64            `json:"score"`
	ContentScore    float64            `json:"content_score"`
	PopularityScore float64            `json:"popularity_score"`
	PreferenceScore float64            `json:"preference_score"`
	DiversityBonus  float64            `json:"diversity_bonus"`
	Type            RecommendationType `json:"recommendation_type"`
	Explanation     string             `json:"explanation"`
	Position        int                `json:"position"`

	Viewed           bool `json:"viewed"`
	Clicked          bool `json:"clicked"`
	AddedToWatchlist bool `json:"added_to_watchlist"`
	Requested        bool `json:"requested"`

	GeneratedAt time.Time `json:"generated_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}
