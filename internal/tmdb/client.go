// Screenscout - Personalized Movie & TV Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/screenscout

// Package tmdb is the client for The Movie Database list API. Requests are
// rate limited, wrapped in a circuit breaker, and cached on disk so that a
// TMDB outage degrades the catalog sync instead of failing it.
package tmdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/screenscout/internal/config"
	"github.com/tomtom215/screenscout/internal/logging"
	"github.com/tomtom215/screenscout/internal/metrics"
	"github.com/tomtom215/screenscout/internal/models"
)

// maxErrorBodySize caps how much of an error response body is read back
// into error messages.
const maxErrorBodySize = 64 * 1024

// List endpoints. The sync service walks all four.
const (
	EndpointPopularMovies  = "/movie/popular"
	EndpointTopRatedMovies = "/movie/top_rated"
	EndpointPopularTV      = "/tv/popular"
	EndpointTopRatedTV     = "/tv/top_rated"
)

// Client talks to the TMDB v3 API.
//
// Resilience:
//   - token-bucket rate limiting ahead of every network call
//   - circuit breaker opening at a 60% failure rate over 10+ requests,
//     half-open after 2 minutes
//   - disk-backed response cache consulted before the network
//
// Thread safety: all methods are safe for concurrent use.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[[]byte]
	cache   *Cache
}

// NewClient builds a TMDB client. cache may be nil to disable response
// caching (tests do this).
func NewClient(cfg config.TMDBConfig, cache *Cache) *Client {
	metrics.TMDBCircuitBreakerState.Set(0)

	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "tmdb-api",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			if failureRatio >= 0.6 {
				logging.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("opening tmdb circuit")
				return true
			}
			return false
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			logging.Info().
				Str("from", stateToString(from)).
				Str("to", stateToString(to)).
				Msg("tmdb circuit state transition")
			metrics.TMDBCircuitBreakerState.Set(stateToFloat(to))
		},
	})

	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), cfg.Burst),
		cb:      cb,
		cache:   cache,
	}
}

// PopularMovies returns one page of TMDB's popular-movies list.
func (c *Client) PopularMovies(ctx context.Context, page int) ([]models.MediaItem, error) {
	return c.moviePage(ctx, EndpointPopularMovies, page)
}

// TopRatedMovies returns one page of TMDB's top-rated-movies list.
func (c *Client) TopRatedMovies(ctx context.Context, page int) ([]models.MediaItem, error) {
	return c.moviePage(ctx, EndpointTopRatedMovies, page)
}

// PopularTV returns one page of TMDB's popular-TV list.
func (c *Client) PopularTV(ctx context.Context, page int) ([]models.MediaItem, error) {
	return c.tvPage(ctx, EndpointPopularTV, page)
}

// TopRatedTV returns one page of TMDB's top-rated-TV list.
func (c *Client) TopRatedTV(ctx context.Context, page int) ([]models.MediaItem, error) {
	return c.tvPage(ctx, EndpointTopRatedTV, page)
}

// MovieDetails returns the full record for one movie, including runtime.
func (c *Client) MovieDetails(ctx context.Context, tmdbID int64) (*models.MediaItem, error) {
	body, err := c.get(ctx, "/movie/"+strconv.FormatInt(tmdbID, 10), nil)
	if err != nil {
		return nil, err
	}
	var parsed movieDetail
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decoding movie %d: %w", tmdbID, err)
	}
	item := parsed.mediaItem()
	return &item, nil
}

// TVDetails returns the full record for one show.
func (c *Client) TVDetails(ctx context.Context, tmdbID int64) (*models.MediaItem, error) {
	body, err := c.get(ctx, "/tv/"+strconv.FormatInt(tmdbID, 10), nil)
	if err != nil {
		return nil, err
	}
	var parsed tvDetail
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decoding tv %d: %w", tmdbID, err)
	}
	item := parsed.mediaItem()
	return &item, nil
}

func pageQuery(page int) url.Values {
	return url.Values{"page": []string{strconv.Itoa(page)}}
}

func (c *Client) moviePage(ctx context.Context, endpoint string, page int) ([]models.MediaItem, error) {
	body, err := c.get(ctx, endpoint, pageQuery(page))
	if err != nil {
		return nil, err
	}
	var parsed moviePage
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decoding %s page %d: %w", endpoint, page, err)
	}
	items := make([]models.MediaItem, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		items = append(items, r.mediaItem())
	}
	return items, nil
}

func (c *Client) tvPage(ctx context.Context, endpoint string, page int) ([]models.MediaItem, error) {
	body, err := c.get(ctx, endpoint, pageQuery(page))
	if err != nil {
		return nil, err
	}
	var parsed tvPage
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decoding %s page %d: %w", endpoint, page, err)
	}
	items := make([]models.MediaItem, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		items = append(items, r.mediaItem())
	}
	return items, nil
}

// get returns the raw response body for one endpoint, consulting the cache
// before the network. The cache key is the endpoint plus its query.
func (c *Client) get(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	cacheKey := endpoint
	if len(query) > 0 {
		cacheKey += "?" + query.Encode()
	}
	if c.cache != nil {
		if body, ok := c.cache.Get(cacheKey); ok {
			metrics.TMDBRequestsTotal.WithLabelValues(endpoint, "cache").Inc()
			return body, nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for tmdb rate limit: %w", err)
	}

	body, err := c.cb.Execute(func() ([]byte, error) {
		return c.fetch(ctx, endpoint, query)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.TMDBRequestsTotal.WithLabelValues(endpoint, "rejected").Inc()
		} else {
			metrics.TMDBRequestsTotal.WithLabelValues(endpoint, "failure").Inc()
		}
		return nil, err
	}
	metrics.TMDBRequestsTotal.WithLabelValues(endpoint, "success").Inc()

	if c.cache != nil {
		if err := c.cache.Set(cacheKey, body); err != nil {
			logging.Warn().Err(err).Str("key", cacheKey).Msg("tmdb cache write failed")
		}
	}
	return body, nil
}

func (c *Client) fetch(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	params := url.Values{}
	for key, vals := range query {
		params[key] = vals
	}
	params.Set("api_key", c.apiKey)
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating tmdb request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tmdb request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body := readBodyForError(resp.Body)
		return nil, fmt.Errorf("tmdb %s returned HTTP %d: %s", endpoint, resp.StatusCode, body)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading tmdb response: %w", err)
	}
	return body, nil
}

// readBodyForError reads at most maxErrorBodySize of a response body for
// inclusion in an error message.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("... (truncated)")...)
	}
	return body
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
