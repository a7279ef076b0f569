// Screenscout - Personalized Movie & TV Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/screenscout

package recommend

import (
	"testing"

	"github.com/tomtom215/screenscout/internal/models"
)

func recWithGenres(score float64, genres ...int64) models.ScoredRecommendation {
	return models.ScoredRecommendation{
		Item:  models.MediaItem{Genres: genres},
		Score: score,
	}
}

func TestInjectDiversityPenalizesEchoChamber(t *testing.T) {
	// Five horror items and one documentary: horror is over-represented,
	// the documentary stands alone.
	recs := []models.ScoredRecommendation{
		recWithGenres(5.0, 27),
		recWithGenres(5.0, 27),
		recWithGenres(5.0, 27),
		recWithGenres(5.0, 27),
		recWithGenres(5.0, 27),
		recWithGenres(5.0, 99),
	}
	injectDiversity(recs)

	for i := 0; i < 5; i++ {
		if !almostEqual(recs[i].DiversityBonus, -0.5) {
			t.Errorf("horror item %d bonus = %f, want -0.5", i, recs[i].DiversityBonus)
		}
		if !almostEqual(recs[i].Score, 4.5) {
			t.Errorf("horror item %d score = %f, want 4.5", i, recs[i].Score)
		}
	}
	if !almostEqual(recs[5].DiversityBonus, 0.3) {
		t.Errorf("documentary bonus = %f, want 0.3", recs[5].DiversityBonus)
	}
	if !almostEqual(recs[5].Score, 5.3) {
		t.Errorf("documentary score = %f, want 5.3", recs[5].Score)
	}
}

func TestInjectDiversityPerGenreAccumulation(t *testing.T) {
	// One item carries both an over-represented genre and a unique one;
	// the adjustments sum.
	recs := []models.ScoredRecommendation{
		recWithGenres(5.0, 28, 99),
		recWithGenres(5.0, 28),
		recWithGenres(5.0, 28),
		recWithGenres(5.0, 28),
		recWithGenres(5.0, 18, 35),
	}
	injectDiversity(recs)

	if !almostEqual(recs[0].DiversityBonus, -0.5+0.3) {
		t.Errorf("mixed item bonus = %f, want -0.2", recs[0].DiversityBonus)
	}
	if !almostEqual(recs[4].DiversityBonus, 0.6) {
		t.Errorf("two unique genres bonus = %f, want 0.6", recs[4].DiversityBonus)
	}
}

func TestInjectDiversityModerateCountsUntouched(t *testing.T) {
	// Two or three carriers of a genre earn neither penalty nor bonus.
	recs := []models.ScoredRecommendation{
		recWithGenres(5.0, 18),
		recWithGenres(5.0, 18),
		recWithGenres(5.0, 18),
	}
	injectDiversity(recs)
	for i := range recs {
		if recs[i].DiversityBonus != 0 {
			t.Errorf("item %d bonus = %f, want 0", i, recs[i].DiversityBonus)
		}
	}
}

func TestInjectDiversitySmallSlates(t *testing.T) {
	injectDiversity(nil)

	single := []models.ScoredRecommendation{recWithGenres(5.0, 27)}
	injectDiversity(single)
	if single[0].DiversityBonus != 0 || !almostEqual(single[0].Score, 5.0) {
		t.Errorf("single-item slate adjusted: %+v", single[0])
	}
}
