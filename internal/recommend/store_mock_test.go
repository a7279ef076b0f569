// Screenscout - Personalized Movie & TV Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/screenscout

package recommend

import (
	"context"
	"sort"
	"time"

	"github.com/tomtom215/screenscout/internal/database"
	"github.com/tomtom215/screenscout/internal/models"
)

// mockStore is an in-memory Store and FeedbackStore for engine tests.
type mockStore struct {
	items     map[contentKey]models.MediaItem
	ratings   []models.Rating
	watchlist []models.WatchlistEntry
	negatives []models.NegativeEntry
	feedback  []models.FeedbackRecord

	settings map[int64]models.RecommendationSettings
	profiles map[int64]models.PreferenceProfile

	cached     map[int64][]models.ScoredRecommendation
	cachedHash map[int64]string

	replaceCalls int
	viewedCalls  int
	flagCalls    []models.InteractionFlag

	// queryFail, when set, lets a test fail selected candidate queries.
	queryFail func(database.CandidateQuery) error
}

func newMockStore() *mockStore {
	return &mockStore{
		items:      make(map[contentKey]models.MediaItem),
		settings:   make(map[int64]models.RecommendationSettings),
		profiles:   make(map[int64]models.PreferenceProfile),
		cached:     make(map[int64][]models.ScoredRecommendation),
		cachedHash: make(map[int64]string),
	}
}

func (m *mockStore) addItem(item models.MediaItem) {
	m.items[contentKey{item.TMDBID, item.ContentType}] = item
}

func (m *mockStore) GetMediaItem(_ context.Context, tmdbID int64, contentType models.ContentType) (*models.MediaItem, error) {
	item, ok := m.items[contentKey{tmdbID, contentType}]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &item, nil
}

func (m *mockStore) QueryCandidates(_ context.Context, q database.CandidateQuery) ([]models.MediaItem, error) {
	if m.queryFail != nil {
		if err := m.queryFail(q); err != nil {
			return nil, err
		}
	}
	excluded := make(map[int64]struct{}, len(q.Exclude))
	for _, id := range q.Exclude {
		excluded[id] = struct{}{}
	}
	wantGenres := make(map[int64]struct{}, len(q.Genres))
	for _, g := range q.Genres {
		wantGenres[g] = struct{}{}
	}

	var out []models.MediaItem
	for _, item := range m.items {
		if item.ContentType != q.ContentType || item.Rating < q.MinRating {
			continue
		}
		if q.MinPopularity > 0 && item.Popularity < q.MinPopularity {
			continue
		}
		if q.MaxPopularity > 0 && item.Popularity >= q.MaxPopularity {
			continue
		}
		if q.MinVoteCount > 0 && item.VoteCount < q.MinVoteCount {
			continue
		}
		if q.MinReleaseYear > 0 && item.ReleaseYear < q.MinReleaseYear {
			continue
		}
		if _, ok := excluded[item.TMDBID]; ok {
			continue
		}
		if len(wantGenres) > 0 {
			match := false
			for _, g := range item.Genres {
				if _, ok := wantGenres[g]; ok {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, item)
	}

	rank := func(it *models.MediaItem) float64 {
		if q.Order == database.OrderRatingWeighted {
			return it.Rating*0.8 + (q.MaxPopularity-it.Popularity)*0.2
		}
		return it.Popularity*0.7 + it.Rating*0.3
	}
	sort.SliceStable(out, func(i, j int) bool { return rank(&out[i]) > rank(&out[j]) })

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (m *mockStore) GetRatings(_ context.Context, userID int64) ([]models.Rating, error) {
	return filterByUser(m.ratings, userID, func(r models.Rating) int64 { return r.UserID }), nil
}

func (m *mockStore) GetWatchlist(_ context.Context, userID int64) ([]models.WatchlistEntry, error) {
	return filterByUser(m.watchlist, userID, func(w models.WatchlistEntry) int64 { return w.UserID }), nil
}

func (m *mockStore) GetNegativeEntries(_ context.Context, userID int64) ([]models.NegativeEntry, error) {
	return filterByUser(m.negatives, userID, func(n models.NegativeEntry) int64 { return n.UserID }), nil
}

func (m *mockStore) GetFeedback(_ context.Context, userID int64) ([]models.FeedbackRecord, error) {
	return filterByUser(m.feedback, userID, func(f models.FeedbackRecord) int64 { return f.UserID }), nil
}

func (m *mockStore) EnsureSettings(_ context.Context, userID int64) (*models.RecommendationSettings, error) {
	s, ok := m.settings[userID]
	if !ok {
		s = models.DefaultSettings(userID)
		m.settings[userID] = s
	}
	return &s, nil
}

func (m *mockStore) GetProfile(_ context.Context, userID int64) (*models.PreferenceProfile, error) {
	p, ok := m.profiles[userID]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &p, nil
}

func (m *mockStore) UpsertProfile(_ context.Context, p models.PreferenceProfile) error {
	m.profiles[p.UserID] = p
	return nil
}

func (m *mockStore) ValidCachedRecommendations(_ context.Context, userID int64, settingsHash string, now time.Time) ([]models.ScoredRecommendation, error) {
	if m.cachedHash[userID] != settingsHash {
		return nil, nil
	}
	var out []models.ScoredRecommendation
	for _, rec := range m.cached[userID] {
		if rec.ExpiresAt.After(now) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *mockStore) ReplaceRecommendations(_ context.Context, userID int64, recs []models.ScoredRecommendation, settingsHash string) error {
	m.replaceCalls++
	m.cached[userID] = append([]models.ScoredRecommendation(nil), recs...)
	m.cachedHash[userID] = settingsHash
	return nil
}

func (m *mockStore) MarkViewed(_ context.Context, userID int64) error {
	m.viewedCalls++
	return nil
}

func (m *mockStore) UpsertFeedback(_ context.Context, f models.FeedbackRecord) error {
	for i := range m.feedback {
		if m.feedback[i].UserID == f.UserID && m.feedback[i].TMDBID == f.TMDBID && m.feedback[i].ContentType == f.ContentType {
			m.feedback[i] = f
			return nil
		}
	}
	m.feedback = append(m.feedback, f)
	return nil
}

func (m *mockStore) AddNegativeEntry(_ context.Context, e models.NegativeEntry) error {
	m.negatives = append(m.negatives, e)
	return nil
}

func (m *mockStore) UpdateInteractionFlag(_ context.Context, _, _ int64, _ models.ContentType, flag models.InteractionFlag) error {
	m.flagCalls = append(m.flagCalls, flag)
	return nil
}

func (m *mockStore) CachedScore(_ context.Context, userID, tmdbID int64, contentType models.ContentType) (float64, error) {
	for _, rec := range m.cached[userID] {
		if rec.Item.TMDBID == tmdbID && rec.Item.ContentType == contentType {
			return rec.Score, nil
		}
	}
	return 0, nil
}

func (m *mockStore) FeedbackStats(_ context.Context, userID int64) (*models.FeedbackStats, error) {
	stats := &models.FeedbackStats{}
	for _, f := range m.feedback {
		if f.UserID != userID {
			continue
		}
		stats.Total++
		switch f.Type {
		case models.FeedbackPositive, models.FeedbackAddedToWatchlist, models.FeedbackRequested:
			stats.Positive++
		case models.FeedbackNegative, models.FeedbackNotInterested:
			stats.Negative++
		}
	}
	if stats.Total > 0 {
		stats.SuccessRate = float64(stats.Positive) / float64(stats.Total)
	}
	return stats, nil
}

func (m *mockStore) LastRefreshed(_ context.Context, userID int64) (*time.Time, error) {
	recs := m.cached[userID]
	if len(recs) == 0 {
		return nil, nil
	}
	t := recs[0].GeneratedAt
	return &t, nil
}

func filterByUser[T any](in []T, userID int64, key func(T) int64) []T {
	var out []T
	for _, v := range in {
		if key(v) == userID {
			out = append(out, v)
		}
	}
	return out
}
