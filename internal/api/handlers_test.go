// Screenscout - Personalized Movie & TV Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/screenscout

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/screenscout/internal/models"
)

type fakeEngine struct {
	recs    []models.ScoredRecommendation
	cached  bool
	err     error
	lastUID int64
	limit   int
	refresh bool
	calls   int
}

func (f *fakeEngine) Recommend(_ context.Context, userID int64, limit int, refresh bool) ([]models.ScoredRecommendation, bool, error) {
	f.calls++
	f.lastUID = userID
	f.limit = limit
	f.refresh = refresh
	return f.recs, f.cached, f.err
}

type fakeRecorder struct {
	recorded []models.FeedbackRecord
	stats    models.FeedbackStats
	last     *time.Time
	err      error
}

func (f *fakeRecorder) Record(_ context.Context, rec models.FeedbackRecord) error {
	if f.err != nil {
		return f.err
	}
	f.recorded = append(f.recorded, rec)
	return nil
}

func (f *fakeRecorder) Stats(_ context.Context, _ int64) (*models.FeedbackStats, *time.Time, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return &f.stats, f.last, nil
}

type fakeSettingsStore struct {
	settings    map[int64]models.RecommendationSettings
	upserted    []models.RecommendationSettings
	invalidated []int64
	err         error
}

func newFakeSettingsStore() *fakeSettingsStore {
	return &fakeSettingsStore{settings: make(map[int64]models.RecommendationSettings)}
}

func (f *fakeSettingsStore) EnsureSettings(_ context.Context, userID int64) (*models.RecommendationSettings, error) {
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.settings[userID]
	if !ok {
		s = models.DefaultSettings(userID)
		f.settings[userID] = s
	}
	return &s, nil
}

func (f *fakeSettingsStore) UpsertSettings(_ context.Context, s models.RecommendationSettings) error {
	f.upserted = append(f.upserted, s)
	f.settings[s.UserID] = s
	return nil
}

func (f *fakeSettingsStore) InvalidateRecommendations(_ context.Context, userID int64) error {
	f.invalidated = append(f.invalidated, userID)
	return nil
}

type fakePinger struct{ err error }

func (f *fakePinger) Ping(context.Context) error { return f.err }

func newTestHandler(engine *fakeEngine, recorder *fakeRecorder, settings *fakeSettingsStore, pinger *fakePinger) *Handler {
	if engine == nil {
		engine = &fakeEngine{}
	}
	if recorder == nil {
		recorder = &fakeRecorder{}
	}
	if settings == nil {
		settings = newFakeSettingsStore()
	}
	if pinger == nil {
		pinger = &fakePinger{}
	}
	return NewHandler(engine, recorder, settings, pinger)
}

func doRequest(t *testing.T, fn http.HandlerFunc, method, target, userID, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, reader)
	if userID != "" {
		req.Header.Set(UserIDHeader, userID)
	}
	rec := httptest.NewRecorder()
	fn(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("Content-Type = %q, want application/json", ct)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
}

func TestUserIDHeaderValidation(t *testing.T) {
	h := newTestHandler(nil, nil, nil, nil)

	tests := []struct {
		name    string
		userID  string
		message string
	}{
		{"missing", "", "X-User-ID header is required"},
		{"not a number", "abc", "X-User-ID must be a positive integer"},
		{"zero", "0", "X-User-ID must be a positive integer"},
		{"negative", "-3", "X-User-ID must be a positive integer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, h.Recommendations, http.MethodGet, "/api/v1/recommendations", tt.userID, "")
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
			var env models.ErrorEnvelope
			decodeBody(t, rec, &env)
			if env.Message != tt.message {
				t.Errorf("message = %q, want %q", env.Message, tt.message)
			}
		})
	}
}

func TestRecommendationsSuccess(t *testing.T) {
	engine := &fakeEngine{
		recs: []models.ScoredRecommendation{
			{Item: models.MediaItem{TMDBID: 603, ContentType: models.ContentTypeMovie, Title: "The Matrix"}, Score: 8.4, Position: 0},
			{Item: models.MediaItem{TMDBID: 1396, ContentType: models.ContentTypeTV, Title: "Breaking Bad"}, Score: 7.9, Position: 1},
		},
		cached: true,
	}
	h := newTestHandler(engine, nil, nil, nil)

	rec := doRequest(t, h.Recommendations, http.MethodGet, "/api/v1/recommendations?limit=10&refresh=true", "7", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if engine.lastUID != 7 || engine.limit != 10 || !engine.refresh {
		t.Errorf("engine called with uid=%d limit=%d refresh=%v, want 7/10/true", engine.lastUID, engine.limit, engine.refresh)
	}

	var env models.RecommendationsEnvelope
	decodeBody(t, rec, &env)
	if env.Status != "success" {
		t.Errorf("status = %q, want success", env.Status)
	}
	if env.Count != 2 || len(env.Recommendations) != 2 {
		t.Errorf("count = %d, len = %d, want 2", env.Count, len(env.Recommendations))
	}
	if !env.Cached {
		t.Error("cached = false, want true")
	}
	if env.Recommendations[0].Item.Title != "The Matrix" {
		t.Errorf("first item = %q", env.Recommendations[0].Item.Title)
	}
}

func TestRecommendationsBadLimit(t *testing.T) {
	engine := &fakeEngine{}
	h := newTestHandler(engine, nil, nil, nil)

	rec := doRequest(t, h.Recommendations, http.MethodGet, "/api/v1/recommendations?limit=ten", "1", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	var env models.ErrorEnvelope
	decodeBody(t, rec, &env)
	if env.Message != "limit must be an integer" {
		t.Errorf("message = %q", env.Message)
	}
	if engine.calls != 0 {
		t.Errorf("engine called %d times, want 0", engine.calls)
	}
}

// An engine failure is still a 200 so clients always get the envelope shape,
// with the error signalled through the status field and an empty slate.
func TestRecommendationsEngineFailure(t *testing.T) {
	engine := &fakeEngine{err: errors.New("catalog unavailable")}
	h := newTestHandler(engine, nil, nil, nil)

	rec := doRequest(t, h.Recommendations, http.MethodGet, "/api/v1/recommendations", "1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var env models.ErrorEnvelope
	decodeBody(t, rec, &env)
	if env.Status != "error" {
		t.Errorf("status = %q, want error", env.Status)
	}
	if env.Message != "Unable to generate recommendations. Please try again later." {
		t.Errorf("message = %q", env.Message)
	}
	if env.Recommendations == nil || len(env.Recommendations) != 0 {
		t.Errorf("recommendations = %v, want present and empty", env.Recommendations)
	}
}

func TestRefreshAlwaysRegenerates(t *testing.T) {
	engine := &fakeEngine{}
	h := newTestHandler(engine, nil, nil, nil)

	rec := doRequest(t, h.RefreshRecommendations, http.MethodPost, "/api/v1/recommendations/refresh", "4", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !engine.refresh {
		t.Error("refresh = false, want true")
	}
	if engine.limit != 0 {
		t.Errorf("limit = %d, want 0 (engine default)", engine.limit)
	}
}

func TestGetSettingsReturnsDefaults(t *testing.T) {
	store := newFakeSettingsStore()
	h := newTestHandler(nil, nil, store, nil)

	rec := doRequest(t, h.GetSettings, http.MethodGet, "/api/v1/recommendations/settings", "9", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var env models.SettingsEnvelope
	decodeBody(t, rec, &env)
	want := models.DefaultSettings(9)
	if env.Settings.UserID != 9 {
		t.Errorf("user_id = %d, want 9", env.Settings.UserID)
	}
	if env.Settings.MovieWeight != want.MovieWeight || env.Settings.AutoRefreshDays != want.AutoRefreshDays {
		t.Errorf("settings = %+v, want defaults %+v", env.Settings, want)
	}
}

func TestUpdateSettingsClampsAndPersists(t *testing.T) {
	store := newFakeSettingsStore()
	h := newTestHandler(nil, nil, store, nil)

	body := `{"popular_vs_niche_balance": 1.7, "movie_weight": -0.2, "auto_refresh_days": 14, "genre_diversity": 0.5, "release_year_preference": 0.5, "runtime_flexibility": 0.5, "minimum_rating": 6}`
	rec := doRequest(t, h.UpdateSettings, http.MethodPut, "/api/v1/recommendations/settings", "3", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var env models.SettingsEnvelope
	decodeBody(t, rec, &env)
	if env.Settings.PopularVsNicheBalance != 1.0 {
		t.Errorf("balance = %v, want clamped to 1.0", env.Settings.PopularVsNicheBalance)
	}
	if env.Settings.MovieWeight != 0.0 {
		t.Errorf("movie_weight = %v, want clamped to 0.0", env.Settings.MovieWeight)
	}
	if len(store.upserted) != 1 {
		t.Fatalf("upserted %d settings, want 1", len(store.upserted))
	}
	if store.upserted[0].UserID != 3 {
		t.Errorf("persisted user_id = %d, want 3", store.upserted[0].UserID)
	}
	if store.upserted[0].UpdatedAt.IsZero() {
		t.Error("persisted UpdatedAt is zero")
	}
}

func TestUpdateSettingsPartialMergePreservesFields(t *testing.T) {
	store := newFakeSettingsStore()
	stored := models.DefaultSettings(3)
	stored.PopularVsNicheBalance = 0.3
	stored.MinimumRating = 7.5
	store.settings[3] = stored
	h := newTestHandler(nil, nil, store, nil)

	rec := doRequest(t, h.UpdateSettings, http.MethodPut, "/api/v1/recommendations/settings", "3", `{"movie_weight": 0.8}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var env models.SettingsEnvelope
	decodeBody(t, rec, &env)
	if env.Settings.MovieWeight != 0.8 {
		t.Errorf("movie_weight = %v, want 0.8", env.Settings.MovieWeight)
	}
	if env.Settings.PopularVsNicheBalance != 0.3 {
		t.Errorf("balance = %v, want stored 0.3", env.Settings.PopularVsNicheBalance)
	}
	if env.Settings.MinimumRating != 7.5 {
		t.Errorf("minimum_rating = %v, want stored 7.5", env.Settings.MinimumRating)
	}
	if env.Settings.AutoRefreshDays != stored.AutoRefreshDays {
		t.Errorf("auto_refresh_days = %d, want stored %d", env.Settings.AutoRefreshDays, stored.AutoRefreshDays)
	}
	if !env.Settings.PreferRecentReleases {
		t.Error("prefer_recent_releases reset by partial update")
	}
	if len(store.upserted) != 1 || store.upserted[0].PopularVsNicheBalance != 0.3 {
		t.Errorf("persisted settings = %+v", store.upserted)
	}
}

func TestUpdateSettingsInvalidatesCacheOnChange(t *testing.T) {
	store := newFakeSettingsStore()
	h := newTestHandler(nil, nil, store, nil)

	// Differs from the defaults, so the cached slate must go.
	body, _ := json.Marshal(func() models.RecommendationSettings {
		s := models.DefaultSettings(5)
		s.MovieWeight = 0.9
		return s
	}())
	rec := doRequest(t, h.UpdateSettings, http.MethodPut, "/api/v1/recommendations/settings", "5", string(body))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if len(store.invalidated) != 1 || store.invalidated[0] != 5 {
		t.Errorf("invalidated = %v, want [5]", store.invalidated)
	}
}

func TestUpdateSettingsSkipsInvalidationWhenUnchanged(t *testing.T) {
	store := newFakeSettingsStore()
	h := newTestHandler(nil, nil, store, nil)

	body, _ := json.Marshal(models.DefaultSettings(5))
	rec := doRequest(t, h.UpdateSettings, http.MethodPut, "/api/v1/recommendations/settings", "5", string(body))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if len(store.invalidated) != 0 {
		t.Errorf("invalidated = %v, want none", store.invalidated)
	}
}

func TestUpdateSettingsBadJSON(t *testing.T) {
	h := newTestHandler(nil, nil, nil, nil)

	rec := doRequest(t, h.UpdateSettings, http.MethodPut, "/api/v1/recommendations/settings", "1", "{not json")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	var env models.ErrorEnvelope
	decodeBody(t, rec, &env)
	if env.Message != "Request body must be valid JSON." {
		t.Errorf("message = %q", env.Message)
	}
}

func TestUpdateSettingsClampsRefreshDays(t *testing.T) {
	h := newTestHandler(nil, nil, nil, nil)

	body := `{"auto_refresh_days": 90, "minimum_rating": 6, "genre_diversity": 0.5, "popular_vs_niche_balance": 0.5, "release_year_preference": 0.5, "runtime_flexibility": 0.5, "movie_weight": 0.5}`
	rec := doRequest(t, h.UpdateSettings, http.MethodPut, "/api/v1/recommendations/settings", "1", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var env models.SettingsEnvelope
	decodeBody(t, rec, &env)
	if env.Settings.AutoRefreshDays != 30 {
		t.Errorf("auto_refresh_days = %d, want clamped to 30", env.Settings.AutoRefreshDays)
	}
}

func TestFeedbackValidation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{
			"bad content type",
			`{"tmdb_id": 603, "content_type": "book", "feedback_type": "positive"}`,
			`Invalid content_type. Must be "movie" or "tv".`,
		},
		{
			"bad feedback type",
			`{"tmdb_id": 603, "content_type": "movie", "feedback_type": "meh"}`,
			"Invalid feedback_type.",
		},
		{
			"bad reason",
			`{"tmdb_id": 603, "content_type": "movie", "feedback_type": "negative", "detailed_reason": "hated_the_poster"}`,
			"Invalid feedback reason.",
		},
		{
			"internal flag name is not a feedback type",
			`{"tmdb_id": 603, "content_type": "movie", "feedback_type": "clicked"}`,
			"Invalid feedback_type.",
		},
		{
			"not json",
			`nope`,
			"Request body must be valid JSON.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := &fakeRecorder{}
			h := newTestHandler(nil, recorder, nil, nil)
			rec := doRequest(t, h.Feedback, http.MethodPost, "/api/v1/recommendations/feedback", "2", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
			var env models.ErrorEnvelope
			decodeBody(t, rec, &env)
			if env.Message != tt.message {
				t.Errorf("message = %q, want %q", env.Message, tt.message)
			}
			if len(recorder.recorded) != 0 {
				t.Errorf("recorded %d feedback rows, want 0", len(recorder.recorded))
			}
		})
	}
}

func TestFeedbackRecorded(t *testing.T) {
	recorder := &fakeRecorder{}
	h := newTestHandler(nil, recorder, nil, nil)

	body := `{"tmdb_id": 1396, "content_type": "tv", "feedback_type": "not_interested", "detailed_reason": "not_my_genre", "additional_feedback": "seen it twice"}`
	rec := doRequest(t, h.Feedback, http.MethodPost, "/api/v1/recommendations/feedback", "2", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var env models.FeedbackEnvelope
	decodeBody(t, rec, &env)
	if env.Status != "success" || env.Message != "Feedback recorded." {
		t.Errorf("envelope = %+v", env)
	}

	if len(recorder.recorded) != 1 {
		t.Fatalf("recorded %d rows, want 1", len(recorder.recorded))
	}
	got := recorder.recorded[0]
	if got.UserID != 2 || got.TMDBID != 1396 || got.Type != models.FeedbackNotInterested || got.Reason != "not_my_genre" {
		t.Errorf("recorded = %+v", got)
	}
	if got.AdditionalFeedback != "seen it twice" {
		t.Errorf("additional feedback = %q", got.AdditionalFeedback)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt is zero")
	}
}

func TestFeedbackWatchedAccepted(t *testing.T) {
	recorder := &fakeRecorder{}
	h := newTestHandler(nil, recorder, nil, nil)

	body := `{"tmdb_id": 603, "content_type": "movie", "feedback_type": "watched"}`
	rec := doRequest(t, h.Feedback, http.MethodPost, "/api/v1/recommendations/feedback", "2", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if len(recorder.recorded) != 1 || recorder.recorded[0].Type != models.FeedbackWatched {
		t.Errorf("recorded = %+v", recorder.recorded)
	}
}

func TestStats(t *testing.T) {
	last := time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC)
	recorder := &fakeRecorder{
		stats: models.FeedbackStats{Total: 6, Positive: 3, Negative: 2, SuccessRate: 0.5},
		last:  &last,
	}
	h := newTestHandler(nil, recorder, nil, nil)

	rec := doRequest(t, h.Stats, http.MethodGet, "/api/v1/recommendations/stats", "2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var env models.StatsEnvelope
	decodeBody(t, rec, &env)
	if env.Stats.Total != 6 || env.Stats.SuccessRate != 0.5 {
		t.Errorf("stats = %+v", env.Stats)
	}
	if env.Stats.LastRefreshed == nil || !env.Stats.LastRefreshed.Equal(last) {
		t.Errorf("last_refreshed = %v, want %v", env.Stats.LastRefreshed, last)
	}
	if env.Stats.AutoRefreshDays != models.DefaultSettings(2).AutoRefreshDays {
		t.Errorf("auto_refresh_days = %d", env.Stats.AutoRefreshDays)
	}

	// Freshness fields live inside the stats object on the wire.
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decoding raw body: %v", err)
	}
	if _, ok := raw["last_refreshed"]; ok {
		t.Error("last_refreshed leaked to the top level")
	}
	var stats map[string]json.RawMessage
	if err := json.Unmarshal(raw["stats"], &stats); err != nil {
		t.Fatalf("decoding stats object: %v", err)
	}
	for _, key := range []string{"last_refreshed", "auto_refresh_days", "total_feedback"} {
		if _, ok := stats[key]; !ok {
			t.Errorf("stats object missing %q", key)
		}
	}
}

func TestHealthz(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		h := newTestHandler(nil, nil, nil, &fakePinger{})
		rec := doRequest(t, h.Healthz, http.MethodGet, "/healthz", "", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		var body map[string]string
		decodeBody(t, rec, &body)
		if body["status"] != "ok" {
			t.Errorf("status field = %q, want ok", body["status"])
		}
	})

	t.Run("database down", func(t *testing.T) {
		h := newTestHandler(nil, nil, nil, &fakePinger{err: errors.New("connection refused")})
		rec := doRequest(t, h.Healthz, http.MethodGet, "/healthz", "", "")
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
		}
		var body map[string]string
		decodeBody(t, rec, &body)
		if body["status"] != "unhealthy" {
			t.Errorf("status field = %q, want unhealthy", body["status"])
		}
	})
}
