// Screenscout - Personalized Movie & TV Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/screenscout

package recommend

import (
	"strings"

	"github.com/tomtom215/screenscout/internal/models"
)

// genreNames maps the TMDB genre vocabulary (movie and TV combined) to
// display names for explanations.
var genreNames = map[int64]string{
	28:    "Action",
	12:    "Adventure",
	16:    "Animation",
	35:    "Comedy",
	80:    "Crime",
	99:    "Documentary",
	18:    "Drama",
	10751: "Family",
	14:    "Fantasy",
	36:    "History",
	27:    "Horror",
	10402: "Music",
	9648:  "Mystery",
	10749: "Romance",
	878:   "Science Fiction",
	10770: "TV Movie",
	53:    "Thriller",
	10752: "War",
	37:    "Western",
	10759: "Action & Adventure",
	10762: "Kids",
	10763: "News",
	10764: "Reality",
	10765: "Sci-Fi & Fantasy",
	10766: "Soap",
	10767: "Talk",
	10768: "War & Politics",
}

const strongPreferenceThreshold = 0.6

// explain builds the human-readable reason string for a recommendation.
// Clauses are joined with "; "; an item that earns none falls back to
// "Recommended for you".
func explain(item *models.MediaItem, profile *models.PreferenceProfile, recType models.RecommendationType) string {
	var clauses []string

	switch recType {
	case models.RecommendationPopular:
		clauses = append(clauses, "Popular among users like you")
	case models.RecommendationNiche:
		clauses = append(clauses, "Hidden gem with great ratings")
	}

	if names := displayGenres(item.Genres, 2); len(names) > 0 && hasStrongPreference(profile) {
		clauses = append(clauses, "Matches your interest in "+strings.Join(names, ", "))
	}

	if item.Rating >= 8.0 {
		clauses = append(clauses, "Highly rated by critics and audiences")
	}

	if len(clauses) == 0 {
		return "Recommended for you"
	}
	return strings.Join(clauses, "; ")
}

func displayGenres(genres []int64, limit int) []string {
	var names []string
	for _, g := range genres {
		if name, ok := genreNames[g]; ok {
			names = append(names, name)
			if len(names) == limit {
				break
			}
		}
	}
	return names
}

func hasStrongPreference(profile *models.PreferenceProfile) bool {
	if profile == nil {
		return false
	}
	for _, weight := range profile.GenreWeights {
		if weight > strongPreferenceThreshold {
			return true
		}
	}
	return false
}
