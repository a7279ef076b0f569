// Screenscout - Personalized Movie & TV Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/screenscout

package recommend

import (
	"time"

	"github.com/tomtom215/screenscout/internal/models"
)

// Score weighting: rating 40%, popularity 20%, genre preference 30%,
// recency 10%.
const (
	ratingWeight     = 0.4
	popularityWeight = 0.2
	preferenceWeight = 0.3
	recencyWeight    = 0.1

	maxScore = 10.0
)

// scoreItem computes the deterministic base score for an item under a
// profile and settings. No I/O and no randomness: the same inputs always
// produce the same breakdown.
func scoreItem(item *models.MediaItem, profile *models.PreferenceProfile, settings *models.RecommendationSettings, now time.Time) models.ScoredRecommendation {
	content := item.Rating * ratingWeight

	popularity := item.Popularity / 100
	if popularity > 1 {
		popularity = 1
	}
	popularity *= popularityWeight

	preference := profile.GenreAffinity(item.Genres) * preferenceWeight

	recency := 0.5
	if settings.PreferRecentReleases {
		yearsSince := float64(now.Year() - item.ReleaseYear)
		recency = 1 - yearsSince/20
		if recency < 0.1 {
			recency = 0.1
		}
	}
	recency *= recencyWeight

	total := content + popularity + preference + recency
	if total > maxScore {
		total = maxScore
	}
	if total < 0 {
		total = 0
	}

	return models.ScoredRecommendation{
		Item:            *item,
		Score:           total,
		ContentScore:    content,
		PopularityScore: popularity,
		PreferenceScore: preference,
	}
}

// applyFinalAdjustments adds the taste-alignment bonuses and clamps every
// score to [0,10].
func applyFinalAdjustments(recs []models.ScoredRecommendation, profile *models.PreferenceProfile, settings *models.RecommendationSettings) {
	for i := range recs {
		rec := &recs[i]

		// Users who rate generously respond well to critically strong picks.
		if profile != nil && profile.AvgUserRating > 7.0 && rec.Item.Rating > 8.0 {
			rec.Score += 0.5
		}

		switch {
		case rec.Type == models.RecommendationPopular && settings.PopularVsNicheBalance > 0.6:
			rec.Score += 0.3
		case rec.Type == models.RecommendationNiche && settings.PopularVsNicheBalance < 0.4:
			rec.Score += 0.3
		}

		if rec.Score > maxScore {
			rec.Score = maxScore
		}
		if rec.Score < 0 {
			rec.Score = 0
		}
	}
}
