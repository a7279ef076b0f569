// Screenscout - Personalized Movie & TV Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/screenscout

package models

// ContentType discriminates movies from TV shows throughout the catalog,
// the cache, and the feedback tables.
type ContentType string

const (
	ContentTypeMovie ContentType = "movie"
	ContentTypeTV    ContentType = "tv"
)

// Valid reports whether the content type is one of the two supported values.
func (c ContentType) Valid() bool {
	return c == ContentTypeMovie || c == ContentTypeTV
}

// MediaItem is a catalog entry sourced from TMDB. Genre IDs use TMDB's
// numeric genre vocabulary; Runtime is zero for TV shows.
type MediaItem struct {
	TMDBID      int64       `json:"tmdb_id"`
	ContentType ContentType `json:"content_type"`
	Title       string      `json:"title"`
	Overview    string      `json:"overview,omitempty"`
	Genres      []int64     `json:"genres"`
	Rating      float64     `json:"rating"`
	Popularity  float64     `json:"popularity"`
	VoteCount   int64       `json:"vote_count"`
	ReleaseYear int         `json:"release_year"`
	PosterPath  string      `json:"poster_path,omitempty"`
	Runtime     int         `json:"runtime,omitempty"`
}
