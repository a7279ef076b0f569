// Screenscout - Personalized Movie & TV Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/screenscout

package tmdb

import (
	"strconv"

	"github.com/tomtom215/screenscout/internal/models"
)

// movieResult is one entry of a TMDB movie list response.
type movieResult struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	GenreIDs    []int64 `json:"genre_ids"`
	VoteAverage float64 `json:"vote_average"`
	VoteCount   int64   `json:"vote_count"`
	Popularity  float64 `json:"popularity"`
	ReleaseDate string  `json:"release_date"`
	PosterPath  string  `json:"poster_path"`
}

// tvResult is one entry of a TMDB TV list response. TMDB uses different
// field names for shows.
type tvResult struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Overview     string  `json:"overview"`
	GenreIDs     []int64 `json:"genre_ids"`
	VoteAverage  float64 `json:"vote_average"`
	VoteCount    int64   `json:"vote_count"`
	Popularity   float64 `json:"popularity"`
	FirstAirDate string  `json:"first_air_date"`
	PosterPath   string  `json:"poster_path"`
}

// genreRef is how detail responses carry genres; list responses use plain
// genre_ids instead.
type genreRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// movieDetail is a TMDB movie detail response. Unlike list entries it
// carries the runtime and expanded genre objects.
type movieDetail struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Overview    string     `json:"overview"`
	Genres      []genreRef `json:"genres"`
	VoteAverage float64    `json:"vote_average"`
	VoteCount   int64      `json:"vote_count"`
	Popularity  float64    `json:"popularity"`
	ReleaseDate string     `json:"release_date"`
	PosterPath  string     `json:"poster_path"`
	Runtime     int        `json:"runtime"`
}

// tvDetail is a TMDB TV detail response.
type tvDetail struct {
	ID             int64      `json:"id"`
	Name           string     `json:"name"`
	Overview       string     `json:"overview"`
	Genres         []genreRef `json:"genres"`
	VoteAverage    float64    `json:"vote_average"`
	VoteCount      int64      `json:"vote_count"`
	Popularity     float64    `json:"popularity"`
	FirstAirDate   string     `json:"first_air_date"`
	PosterPath     string     `json:"poster_path"`
	EpisodeRunTime []int      `json:"episode_run_time"`
}

type moviePage struct {
	Page       int           `json:"page"`
	Results    []movieResult `json:"results"`
	TotalPages int           `json:"total_pages"`
}

type tvPage struct {
	Page       int        `json:"page"`
	Results    []tvResult `json:"results"`
	TotalPages int        `json:"total_pages"`
}

func (r movieResult) mediaItem() models.MediaItem {
	return models.MediaItem{
		TMDBID:      r.ID,
		ContentType: models.ContentTypeMovie,
		Title:       r.Title,
		Overview:    r.Overview,
		Genres:      r.GenreIDs,
		Rating:      r.VoteAverage,
		Popularity:  r.Popularity,
		VoteCount:   r.VoteCount,
		ReleaseYear: yearOf(r.ReleaseDate),
		PosterPath:  r.PosterPath,
	}
}

func (r tvResult) mediaItem() models.MediaItem {
	return models.MediaItem{
		TMDBID:      r.ID,
		ContentType: models.ContentTypeTV,
		Title:       r.Name,
		Overview:    r.Overview,
		Genres:      r.GenreIDs,
		Rating:      r.VoteAverage,
		Popularity:  r.Popularity,
		VoteCount:   r.VoteCount,
		ReleaseYear: yearOf(r.FirstAirDate),
		PosterPath:  r.PosterPath,
	}
}

func (d movieDetail) mediaItem() models.MediaItem {
	return models.MediaItem{
		TMDBID:      d.ID,
		ContentType: models.ContentTypeMovie,
		Title:       d.Title,
		Overview:    d.Overview,
		Genres:      genreIDs(d.Genres),
		Rating:      d.VoteAverage,
		Popularity:  d.Popularity,
		VoteCount:   d.VoteCount,
		ReleaseYear: yearOf(d.ReleaseDate),
		PosterPath:  d.PosterPath,
		Runtime:     d.Runtime,
	}
}

func (d tvDetail) mediaItem() models.MediaItem {
	item := models.MediaItem{
		TMDBID:      d.ID,
		ContentType: models.ContentTypeTV,
		Title:       d.Name,
		Overview:    d.Overview,
		Genres:      genreIDs(d.Genres),
		Rating:      d.VoteAverage,
		Popularity:  d.Popularity,
		VoteCount:   d.VoteCount,
		ReleaseYear: yearOf(d.FirstAirDate),
		PosterPath:  d.PosterPath,
	}
	if len(d.EpisodeRunTime) > 0 {
		item.Runtime = d.EpisodeRunTime[0]
	}
	return item
}

func genreIDs(refs []genreRef) []int64 {
	if len(refs) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(refs))
	for _, g := range refs {
		ids = append(ids, g.ID)
	}
	return ids
}

// yearOf extracts the year from a TMDB date string ("2024-05-17"). Unknown
// or malformed dates yield zero, which downstream filters treat as ancient.
func yearOf(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}
