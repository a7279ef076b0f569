// Screenscout - Personalized Movie & TV Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/screenscout

package database

import (
	"context"
	"testing"
	"time"

	"github.com/tomtom215/screenscout/internal/models"
)

func cachedRec(tmdbID int64, position int, score float64, expires time.Time) models.ScoredRecommendation {
	return models.ScoredRecommendation{
		Item: models.MediaItem{
			TMDBID:      tmdbID,
			ContentType: models.ContentTypeMovie,
		},
		Score:       score,
		Type:        models.RecommendationPopular,
		Explanation: "Recommended for you",
		Position:    position,
		GeneratedAt: time.Now().UTC(),
		ExpiresAt:   expires,
	}
}

func seedCatalogFor(t *testing.T, db *DB, ids ...int64) {
	t.Helper()
	items := make([]models.MediaItem, 0, len(ids))
	for _, id := range ids {
		items = append(items, testMovie(id, "Title", 7.0, 80, 28))
	}
	if err := db.UpsertMediaItems(context.Background(), items); err != nil {
		t.Fatalf("seeding catalog: %v", err)
	}
}

func TestReplaceRecommendationsRemovesOldRows(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	expires := time.Now().UTC().Add(24 * time.Hour)
	seedCatalogFor(t, db, 1, 2, 3)

	first := []models.ScoredRecommendation{
		cachedRec(1, 0, 8.0, expires),
		cachedRec(2, 1, 7.0, expires),
	}
	if err := db.ReplaceRecommendations(ctx, 7, first, "hash-a"); err != nil {
		t.Fatalf("first replace: %v", err)
	}

	second := []models.ScoredRecommendation{cachedRec(3, 0, 9.0, expires)}
	if err := db.ReplaceRecommendations(ctx, 7, second, "hash-a"); err != nil {
		t.Fatalf("second replace: %v", err)
	}

	got, err := db.ValidCachedRecommendations(ctx, 7, "hash-a", time.Now().UTC())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 1 || got[0].Item.TMDBID != 3 {
		t.Fatalf("old rows survived the replace: %+v", got)
	}
}

func TestValidCachedRecommendationsHashAndExpiry(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()
	seedCatalogFor(t, db, 1)

	recs := []models.ScoredRecommendation{cachedRec(1, 0, 8.0, now.Add(time.Hour))}
	if err := db.ReplaceRecommendations(ctx, 7, recs, "hash-a"); err != nil {
		t.Fatalf("replace: %v", err)
	}

	tests := []struct {
		name string
		hash string
		at   time.Time
		want int
	}{
		{"matching hash before expiry", "hash-a", now, 1},
		{"stale hash", "hash-b", now, 0},
		{"after expiry", "hash-a", now.Add(2 * time.Hour), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.ValidCachedRecommendations(ctx, 7, tt.hash, tt.at)
			if err != nil {
				t.Fatalf("fetch: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d rows, want %d", len(got), tt.want)
			}
		})
	}
}

func TestValidCachedRecommendationsSkipMissingCatalogRows(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	expires := time.Now().UTC().Add(time.Hour)
	seedCatalogFor(t, db, 1)

	// tmdb_id 2 has no catalog row; hydration must drop it, not fail
	recs := []models.ScoredRecommendation{
		cachedRec(1, 0, 8.0, expires),
		cachedRec(2, 1, 7.5, expires),
	}
	if err := db.ReplaceRecommendations(ctx, 7, recs, "hash-a"); err != nil {
		t.Fatalf("replace: %v", err)
	}

	got, err := db.ValidCachedRecommendations(ctx, 7, "hash-a", time.Now().UTC())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 1 || got[0].Item.TMDBID != 1 {
		t.Fatalf("expected only the hydratable row, got %+v", got)
	}
	if got[0].Item.Title == "" {
		t.Error("hydration did not populate catalog fields")
	}
}

func TestInteractionFlags(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	expires := time.Now().UTC().Add(time.Hour)
	seedCatalogFor(t, db, 1)

	recs := []models.ScoredRecommendation{cachedRec(1, 0, 8.0, expires)}
	if err := db.ReplaceRecommendations(ctx, 7, recs, "hash-a"); err != nil {
		t.Fatalf("replace: %v", err)
	}

	if err := db.MarkViewed(ctx, 7); err != nil {
		t.Fatalf("mark viewed: %v", err)
	}
	if err := db.UpdateInteractionFlag(ctx, 7, 1, models.ContentTypeMovie, models.FlagClicked); err != nil {
		t.Fatalf("clicked flag: %v", err)
	}
	if err := db.UpdateInteractionFlag(ctx, 7, 1, models.ContentTypeMovie, models.FlagAddedToWatchlist); err != nil {
		t.Fatalf("watchlist flag: %v", err)
	}

	got, err := db.ValidCachedRecommendations(ctx, 7, "hash-a", time.Now().UTC())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d rows, want 1", len(got))
	}
	if !got[0].Viewed || !got[0].Clicked || !got[0].AddedToWatchlist || got[0].Requested {
		t.Errorf("unexpected flags: %+v", got[0])
	}

	if err := db.UpdateInteractionFlag(ctx, 7, 1, models.ContentTypeMovie, models.InteractionFlag("negative")); err == nil {
		t.Error("unknown flag should be rejected")
	}
}

func TestInvalidateAndLastRefreshed(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	seedCatalogFor(t, db, 1)

	if ts, err := db.LastRefreshed(ctx, 7); err != nil || ts != nil {
		t.Fatalf("empty cache: ts=%v err=%v", ts, err)
	}

	recs := []models.ScoredRecommendation{cachedRec(1, 0, 8.0, time.Now().UTC().Add(time.Hour))}
	if err := db.ReplaceRecommendations(ctx, 7, recs, "hash-a"); err != nil {
		t.Fatalf("replace: %v", err)
	}

	ts, err := db.LastRefreshed(ctx, 7)
	if err != nil || ts == nil {
		t.Fatalf("after replace: ts=%v err=%v", ts, err)
	}

	if err := db.InvalidateRecommendations(ctx, 7); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	got, err := db.ValidCachedRecommendations(ctx, 7, "hash-a", time.Now().UTC())
	if err != nil {
		t.Fatalf("fetch after invalidate: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("cache not cleared: %+v", got)
	}
}

func TestCachedScore(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	seedCatalogFor(t, db, 1)

	recs := []models.ScoredRecommendation{cachedRec(1, 0, 8.5, time.Now().UTC().Add(time.Hour))}
	if err := db.ReplaceRecommendations(ctx, 7, recs, "hash-a"); err != nil {
		t.Fatalf("replace: %v", err)
	}

	score, err := db.CachedScore(ctx, 7, 1, models.ContentTypeMovie)
	if err != nil {
		t.Fatalf("cached score: %v", err)
	}
	if score != 8.5 {
		t.Errorf("score = %v, want 8.5", score)
	}

	score, err = db.CachedScore(ctx, 7, 99, models.ContentTypeMovie)
	if err != nil {
		t.Fatalf("cached score for missing row: %v", err)
	}
	if score != 0 {
		t.Errorf("missing row score = %v, want 0", score)
	}
}
