// Screenscout - Personalized Movie & TV Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/screenscout

// Package config loads layered configuration: compiled defaults, an optional
// YAML file, then SCREENSCOUT_* environment variables, each layer overriding
// the previous one.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the server binary.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Logging   LoggingConfig   `koanf:"logging"`
	API       APIConfig       `koanf:"api"`
	TMDB      TMDBConfig      `koanf:"tmdb"`
	Sync      SyncConfig      `koanf:"sync"`
	Recommend RecommendConfig `koanf:"recommend"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// DatabaseConfig configures the embedded DuckDB store.
type DatabaseConfig struct {
	Path            string        `koanf:"path"`
	Threads         int           `koanf:"threads"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// APIConfig configures the HTTP surface: CORS and per-IP rate limiting.
type APIConfig struct {
	CORSAllowedOrigins []string      `koanf:"cors_allowed_origins"`
	RateLimitRequests  int           `koanf:"rate_limit_requests"`
	RateLimitWindow    time.Duration `koanf:"rate_limit_window"`
	RequestTimeout     time.Duration `koanf:"request_timeout"`
}

// TMDBConfig configures the TMDB catalog client.
type TMDBConfig struct {
	BaseURL          string        `koanf:"base_url"`
	APIKey           string        `koanf:"api_key"`
	Timeout          time.Duration `koanf:"timeout"`
	RequestsPerSec   float64       `koanf:"requests_per_sec"`
	Burst            int           `koanf:"burst"`
	CachePath        string        `koanf:"cache_path"`
	CacheTTL         time.Duration `koanf:"cache_ttl"`
}

// SyncConfig configures the periodic catalog sync service.
type SyncConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Interval time.Duration `koanf:"interval"`
	Pages    int           `koanf:"pages"`
}

// RecommendConfig holds engine tunables. The zero user-facing knobs live in
// per-user settings; these are operator-level thresholds.
type RecommendConfig struct {
	MoviePopularityThreshold float64 `koanf:"movie_popularity_threshold"`
	TVPopularityThreshold    float64 `koanf:"tv_popularity_threshold"`
	MovieMinVoteCount        int64   `koanf:"movie_min_vote_count"`
	TVMinVoteCount           int64   `koanf:"tv_min_vote_count"`
	RecentYears              int     `koanf:"recent_years"`
	OverfetchFactor          int     `koanf:"overfetch_factor"`
	DefaultLimit             int     `koanf:"default_limit"`
	MaxLimit                 int     `koanf:"max_limit"`
	// Seed fixes the shuffle RNG; 0 means seed from the clock.
	Seed int64 `koanf:"seed"`
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8484,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Path:            "data/screenscout.db",
			Threads:         4,
			MaxOpenConns:    4,
			MaxIdleConns:    2,
			ConnMaxLifetime: time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		API: APIConfig{
			CORSAllowedOrigins: []string{"*"},
			RateLimitRequests:  100,
			RateLimitWindow:    time.Minute,
			RequestTimeout:     10 * time.Second,
		},
		TMDB: TMDBConfig{
			BaseURL:        "https://api.themoviedb.org/3",
			Timeout:        10 * time.Second,
			RequestsPerSec: 4,
			Burst:          8,
			CachePath:      "data/tmdb-cache",
			CacheTTL:       6 * time.Hour,
		},
		Sync: SyncConfig{
			Enabled:  true,
			Interval: 6 * time.Hour,
			Pages:    5,
		},
		Recommend: RecommendConfig{
			MoviePopularityThreshold: 50,
			TVPopularityThreshold:    30,
			MovieMinVoteCount:        100,
			TVMinVoteCount:           50,
			RecentYears:              10,
			OverfetchFactor:          3,
			DefaultLimit:             20,
			MaxLimit:                 100,
		},
	}
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range [1,65535]", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.Database.Threads < 1 {
		return fmt.Errorf("database.threads must be at least 1, got %d", c.Database.Threads)
	}
	if c.Recommend.OverfetchFactor < 1 {
		return fmt.Errorf("recommend.overfetch_factor must be at least 1, got %d", c.Recommend.OverfetchFactor)
	}
	if c.Recommend.DefaultLimit < 1 || c.Recommend.DefaultLimit > c.Recommend.MaxLimit {
		return fmt.Errorf("recommend.default_limit %d out of range [1,%d]", c.Recommend.DefaultLimit, c.Recommend.MaxLimit)
	}
	if c.Sync.Enabled {
		if c.Sync.Interval < time.Minute {
			return fmt.Errorf("sync.interval %s too short, minimum 1m", c.Sync.Interval)
		}
		if c.Sync.Pages < 1 {
			return fmt.Errorf("sync.pages must be at least 1, got %d", c.Sync.Pages)
		}
	}
	return nil
}
