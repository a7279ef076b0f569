// Screenscout - Personalized Movie & TV Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/screenscout

package models

import "time"

// FeedbackType classifies a user's reaction to a recommended item.
type FeedbackType string

const (
	FeedbackPositive         FeedbackType = "positive"
	FeedbackNegative         FeedbackType = "negative"
	FeedbackNotInterested    FeedbackType = "not_interested"
	FeedbackAddedToWatchlist FeedbackType = "added_to_watchlist"
	FeedbackRequested        FeedbackType = "requested"
	FeedbackWatched          FeedbackType = "watched"
)

// Valid reports whether the feedback type is accepted on the wire.
func (f FeedbackType) Valid() bool {
	switch f {
	case FeedbackPositive, FeedbackNegative, FeedbackNotInterested,
		FeedbackAddedToWatchlist, FeedbackRequested, FeedbackWatched:
		return true
	}
	return false
}

// Negative reports whether the feedback should exclude the item from
// future recommendations.
func (f FeedbackType) Negative() bool {
	return f == FeedbackNegative || f == FeedbackNotInterested
}

// InteractionFlag names a boolean engagement column on the cached slate.
// Flags are internal bookkeeping, not wire feedback types: every positive
// engagement sets clicked, and added_to_watchlist / requested additionally
// set their own columns.
type InteractionFlag string

const (
	FlagClicked          InteractionFlag = "clicked"
	FlagAddedToWatchlist InteractionFlag = "added_to_watchlist"
	FlagRequested        InteractionFlag = "requested"
)

// FeedbackReasons enumerates the accepted detail reasons for negative
// feedback. An empty reason is always accepted.
var FeedbackReasons = map[string]struct{}{
	"not_my_genre":  {},
	"already_seen":  {},
	"poor_quality":  {},
	"wrong_mood":    {},
	"too_old":       {},
	"too_new":       {},
	"runtime":       {},
	"inappropriate": {},
	"language":      {},
	"availability":  {},
}

// FeedbackReasonNotMyGenre is the one reason the profile analyzer treats
// specially: it demotes the item's genres in the user's taste model.
const FeedbackReasonNotMyGenre = "not_my_genre"

// FeedbackRecord is one user's reaction to one item. The (user, tmdb_id,
// content_type) key is unique; later feedback replaces earlier feedback.
// Score and SettingsSnapshot are filled in server-side at record time so
// feedback can be analyzed against the slate and settings that produced it.
type FeedbackRecord struct {
	UserID             int64              `json:"user_id"`
	TMDBID             int64              `json:"tmdb_id" validate:"required,gt=0"`
	ContentType        ContentType        `json:"content_type"`
	Type               FeedbackType       `json:"feedback_type"`
	Reason             string             `json:"detailed_reason,omitempty"`
	AdditionalFeedback string             `json:"additional_feedback,omitempty"`
	Score              float64            `json:"recommendation_score"`
	SettingsSnapshot   map[string]float64 `json:"settings_snapshot,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
}

// FeedbackStats aggregates a user's feedback history for the stats endpoint.
// Positive counts positive, added_to_watchlist and requested; Negative counts
// negative and not_interested.
type FeedbackStats struct {
	Total       int     `json:"total_feedback"`
	Positive    int     `json:"positive_feedback"`
	Negative    int     `json:"negative_feedback"`
	SuccessRate float64 `json:"success_rate"`
}
