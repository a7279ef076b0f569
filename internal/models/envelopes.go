// Screenscout - Personalized Movie & TV Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/screenscout

package models

import "time"

// API response envelopes. Clients depend on the recommendations list always
// being present, even on error, so the error envelope carries an empty slice
// rather than omitting the field.

// RecommendationsEnvelope wraps a recommendation slate.
type RecommendationsEnvelope struct {
	Status          string                 `json:"status"`
	Recommendations []ScoredRecommendation `json:"recommendations"`
	Count           int                    `json:"count"`
	Cached          bool                   `json:"cached"`
}

// NewRecommendationsEnvelope builds the success envelope for a slate.
func NewRecommendationsEnvelope(recs []ScoredRecommendation, cached bool) RecommendationsEnvelope {
	if recs == nil {
		recs = []ScoredRecommendation{}
	}
	return RecommendationsEnvelope{
		Status:          "success",
		Recommendations: recs,
		Count:           len(recs),
		Cached:          cached,
	}
}

// ErrorEnvelope is the failure shape for the recommendations surface.
type ErrorEnvelope struct {
	Status          string                 `json:"status"`
	Message         string                 `json:"message"`
	Recommendations []ScoredRecommendation `json:"recommendations"`
	Count           int                    `json:"count"`
}

// NewErrorEnvelope builds the failure envelope with a guaranteed-empty slate.
func NewErrorEnvelope(message string) ErrorEnvelope {
	return ErrorEnvelope{
		Status:          "error",
		Message:         message,
		Recommendations: []ScoredRecommendation{},
		Count:           0,
	}
}

// SettingsEnvelope wraps a user's recommendation settings.
type SettingsEnvelope struct {
	Status   string                 `json:"status"`
	Settings RecommendationSettings `json:"settings"`
}

// FeedbackEnvelope acknowledges recorded feedback.
type FeedbackEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// StatsPayload is the stats object itself: feedback aggregates plus cache
// freshness, all under the one "stats" key.
type StatsPayload struct {
	FeedbackStats
	LastRefreshed   *time.Time `json:"last_refreshed"`
	AutoRefreshDays int        `json:"auto_refresh_days"`
}

// StatsEnvelope wraps the stats payload.
type StatsEnvelope struct {
	Status string       `json:"status"`
	Stats  StatsPayload `json:"stats"`
}
