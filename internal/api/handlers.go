// Screenscout - Personalized Movie & TV Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/screenscout

// Package api provides the HTTP surface using the Chi router. The caller is
// identified by the X-User-ID header; there is no authentication layer in
// front of it (that is the reverse proxy's job in this deployment model).
package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/screenscout/internal/logging"
	"github.com/tomtom215/screenscout/internal/models"
	"github.com/tomtom215/screenscout/internal/validation"
)

// UserIDHeader carries the caller's identity.
const UserIDHeader = "X-User-ID"

// Engine is the recommendation surface the handlers call.
// *recommend.Engine satisfies it.
type Engine interface {
	Recommend(ctx context.Context, userID int64, limit int, refresh bool) ([]models.ScoredRecommendation, bool, error)
}

// Recorder is the feedback surface. *recommend.Recorder satisfies it.
type Recorder interface {
	Record(ctx context.Context, f models.FeedbackRecord) error
	Stats(ctx context.Context, userID int64) (*models.FeedbackStats, *time.Time, error)
}

// SettingsStore is the settings persistence surface. *database.DB
// satisfies it.
type SettingsStore interface {
	EnsureSettings(ctx context.Context, userID int64) (*models.RecommendationSettings, error)
	UpsertSettings(ctx context.Context, s models.RecommendationSettings) error
	InvalidateRecommendations(ctx context.Context, userID int64) error
}

// Pinger reports storage liveness for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler implements the recommendation API endpoints.
type Handler struct {
	engine   Engine
	recorder Recorder
	settings SettingsStore
	pinger   Pinger
}

// NewHandler wires the endpoint implementations.
func NewHandler(engine Engine, recorder Recorder, settings SettingsStore, pinger Pinger) *Handler {
	return &Handler{engine: engine, recorder: recorder, settings: settings, pinger: pinger}
}

// Recommendations serves GET /api/v1/recommendations. Engine failures are
// reported inside a 200 envelope so clients always get the same shape;
// malformed input is a 400.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, models.NewErrorEnvelope("limit must be an integer"))
			return
		}
		limit = parsed
	}
	refresh := isTruthy(r.URL.Query().Get("refresh"))

	h.serveSlate(w, r, userID, limit, refresh)
}

// RefreshRecommendations serves POST /api/v1/recommendations/refresh; it
// always regenerates.
func (h *Handler) RefreshRecommendations(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	h.serveSlate(w, r, userID, 0, true)
}

func (h *Handler) serveSlate(w http.ResponseWriter, r *http.Request, userID int64, limit int, refresh bool) {
	recs, cached, err := h.engine.Recommend(r.Context(), userID, limit, refresh)
	if err != nil {
		reqLog(r).Error().Err(err).Int64("user_id", userID).Msg("recommendation request failed")
		writeJSON(w, http.StatusOK, models.NewErrorEnvelope("Unable to generate recommendations. Please try again later."))
		return
	}
	writeJSON(w, http.StatusOK, models.NewRecommendationsEnvelope(recs, cached))
}

// GetSettings serves GET /api/v1/recommendations/settings, creating the
// defaults on first contact.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	settings, err := h.settings.EnsureSettings(r.Context(), userID)
	if err != nil {
		reqLog(r).Error().Err(err).Int64("user_id", userID).Msg("loading settings failed")
		writeJSON(w, http.StatusInternalServerError, models.NewErrorEnvelope("Unable to load settings."))
		return
	}
	writeJSON(w, http.StatusOK, models.SettingsEnvelope{Status: "success", Settings: *settings})
}

// UpdateSettings serves PUT /api/v1/recommendations/settings. The update
// is a partial merge: fields absent from the body keep their stored
// values. Out-of-range weights are clamped rather than rejected; a
// behavior-changing update invalidates the user's cached slate.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	current, err := h.settings.EnsureSettings(r.Context(), userID)
	if err != nil {
		reqLog(r).Error().Err(err).Int64("user_id", userID).Msg("loading settings failed")
		writeJSON(w, http.StatusInternalServerError, models.NewErrorEnvelope("Unable to update settings."))
		return
	}

	// Decoding over a copy of the stored row makes omitted fields no-ops.
	incoming := *current
	if err := json.NewDecoder(r.Body).Decode(&incoming); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorEnvelope("Request body must be valid JSON."))
		return
	}
	incoming.UserID = userID
	incoming.Normalize()

	if fieldErrs := validation.ValidateStruct(incoming); fieldErrs != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorEnvelope(fieldErrs[0].Message))
		return
	}

	incoming.UpdatedAt = time.Now().UTC()
	if err := h.settings.UpsertSettings(r.Context(), incoming); err != nil {
		reqLog(r).Error().Err(err).Int64("user_id", userID).Msg("saving settings failed")
		writeJSON(w, http.StatusInternalServerError, models.NewErrorEnvelope("Unable to update settings."))
		return
	}

	if current.Hash() != incoming.Hash() {
		if err := h.settings.InvalidateRecommendations(r.Context(), userID); err != nil {
			reqLog(r).Warn().Err(err).Int64("user_id", userID).Msg("cache invalidation failed")
		}
	}

	writeJSON(w, http.StatusOK, models.SettingsEnvelope{Status: "success", Settings: incoming})
}

// Feedback serves POST /api/v1/recommendations/feedback.
func (h *Handler) Feedback(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var record models.FeedbackRecord
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorEnvelope("Request body must be valid JSON."))
		return
	}
	record.UserID = userID
	record.CreatedAt = time.Now().UTC()

	if !record.ContentType.Valid() {
		writeJSON(w, http.StatusBadRequest, models.NewErrorEnvelope(`Invalid content_type. Must be "movie" or "tv".`))
		return
	}
	if !record.Type.Valid() {
		writeJSON(w, http.StatusBadRequest, models.NewErrorEnvelope("Invalid feedback_type."))
		return
	}
	if record.Reason != "" {
		if _, ok := models.FeedbackReasons[record.Reason]; !ok {
			writeJSON(w, http.StatusBadRequest, models.NewErrorEnvelope("Invalid feedback reason."))
			return
		}
	}
	if fieldErrs := validation.ValidateStruct(record); fieldErrs != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorEnvelope(fieldErrs[0].Message))
		return
	}

	if err := h.recorder.Record(r.Context(), record); err != nil {
		reqLog(r).Error().Err(err).Int64("user_id", userID).Msg("recording feedback failed")
		writeJSON(w, http.StatusInternalServerError, models.NewErrorEnvelope("Unable to record feedback."))
		return
	}
	writeJSON(w, http.StatusOK, models.FeedbackEnvelope{Status: "success", Message: "Feedback recorded."})
}

// Stats serves GET /api/v1/recommendations/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	stats, last, err := h.recorder.Stats(r.Context(), userID)
	if err != nil {
		reqLog(r).Error().Err(err).Int64("user_id", userID).Msg("loading stats failed")
		writeJSON(w, http.StatusInternalServerError, models.NewErrorEnvelope("Unable to load stats."))
		return
	}
	settings, err := h.settings.EnsureSettings(r.Context(), userID)
	if err != nil {
		reqLog(r).Error().Err(err).Int64("user_id", userID).Msg("loading settings failed")
		writeJSON(w, http.StatusInternalServerError, models.NewErrorEnvelope("Unable to load stats."))
		return
	}

	writeJSON(w, http.StatusOK, models.StatsEnvelope{
		Status: "success",
		Stats: models.StatsPayload{
			FeedbackStats:   *stats,
			LastRefreshed:   last,
			AutoRefreshDays: settings.AutoRefreshDays,
		},
	})
}

// Healthz reports process and storage liveness.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	if h.pinger != nil {
		if err := h.pinger.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "error": "database unreachable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// userID extracts the caller identity from X-User-ID. A missing or
// malformed header is a 400.
func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.Header.Get(UserIDHeader)
	if raw == "" {
		writeJSON(w, http.StatusBadRequest, models.NewErrorEnvelope("X-User-ID header is required"))
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, models.NewErrorEnvelope("X-User-ID must be a positive integer"))
		return 0, false
	}
	return id, true
}

// reqLog returns the request-scoped logger so every line carries the
// request ID.
func reqLog(r *http.Request) *zerolog.Logger {
	l := logging.FromContext(r.Context())
	return &l
}

func isTruthy(v string) bool {
	return v == "true" || v == "1"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error().Err(err).Msg("encoding response failed")
	}
}
