// Screenscout - Personalized Movie & TV Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/screenscout

package recommend

import "github.com/tomtom215/screenscout/internal/models"

const (
	overRepresentedCount   = 3
	overRepresentedPenalty = -0.5
	uniqueGenreBonus       = 0.3
)

// injectDiversity damps genre echo chambers across a slate. Every genre an
// item carries contributes: a penalty when more than three slate items share
// the genre, a bonus when the item is the only carrier. The net adjustment
// is recorded as DiversityBonus and added to the score; clamping happens in
// the final scoring pass.
func injectDiversity(recs []models.ScoredRecommendation) {
	if len(recs) <= 1 {
		return
	}

	genreCounts := make(map[int64]int)
	for i := range recs {
		for _, g := range recs[i].Item.Genres {
			genreCounts[g]++
		}
	}

	for i := range recs {
		var bonus float64
		for _, g := range recs[i].Item.Genres {
			switch {
			case genreCounts[g] > overRepresentedCount:
				bonus += overRepresentedPenalty
			case genreCounts[g] == 1:
				bonus += uniqueGenreBonus
			}
		}
		recs[i].DiversityBonus = bonus
		recs[i].Score += bonus
	}
}
