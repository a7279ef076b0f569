// Screenscout - Personalized Movie & TV Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/screenscout

package recommend

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/screenscout/internal/config"
	"github.com/tomtom215/screenscout/internal/database"
	"github.com/tomtom215/screenscout/internal/logging"
	"github.com/tomtom215/screenscout/internal/metrics"
	"github.com/tomtom215/screenscout/internal/models"
)

// Engine orchestrates the recommendation pipeline and its cache. Slates are
// regenerated at most once at a time per user: concurrent requests for the
// same user serialize on a per-user lock and the losers serve the fresh
// cache instead of regenerating again.
type Engine struct {
	store     Store
	analyzer  *Analyzer
	retriever *Retriever
	cfg       config.RecommendConfig

	rngMu sync.Mutex
	rng   *rand.Rand

	locksMu sync.Mutex
	locks   map[int64]*sync.Mutex

	now func() time.Time
}

// New builds an engine. A zero cfg.Seed seeds the shuffle RNG from the
// clock; tests pass a fixed seed for reproducible slates.
func New(store Store, cfg config.RecommendConfig) *Engine {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Engine{
		store:     store,
		analyzer:  NewAnalyzer(store),
		retriever: NewRetriever(store, cfg),
		cfg:       cfg,
		rng:       rand.New(rand.NewSource(seed)), //nolint:gosec // shuffle order is not security sensitive
		locks:     make(map[int64]*sync.Mutex),
		now:       time.Now,
	}
}

// Recommend returns the user's slate, serving the cache when it is valid
// and regenerating otherwise. The second return reports a cache hit.
func (e *Engine) Recommend(ctx context.Context, userID int64, limit int, refresh bool) ([]models.ScoredRecommendation, bool, error) {
	limit = e.clampLimit(limit)

	settings, err := e.store.EnsureSettings(ctx, userID)
	if err != nil {
		return nil, false, fmt.Errorf("ensuring settings: %w", err)
	}
	hash := settings.Hash()

	if !refresh {
		cached, err := e.serveCache(ctx, userID, hash, limit)
		if err != nil {
			return nil, false, err
		}
		if cached != nil {
			metrics.RecommendationCacheHits.Inc()
			return cached, true, nil
		}
	}
	metrics.RecommendationCacheMisses.Inc()

	lock := e.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	// Another request may have regenerated while we waited for the lock.
	if !refresh {
		cached, err := e.serveCache(ctx, userID, hash, limit)
		if err != nil {
			return nil, false, err
		}
		if cached != nil {
			metrics.RecommendationCacheHits.Inc()
			return cached, true, nil
		}
	}

	start := e.now()
	slate, err := e.generate(ctx, userID, limit, settings)
	if err != nil {
		return nil, false, err
	}
	metrics.RegenerationDuration.Observe(e.now().Sub(start).Seconds())

	if err := e.store.ReplaceRecommendations(ctx, userID, slate, hash); err != nil {
		return nil, false, fmt.Errorf("caching slate: %w", err)
	}
	if err := e.store.MarkViewed(ctx, userID); err != nil {
		return nil, false, fmt.Errorf("marking slate viewed: %w", err)
	}

	logging.Info().
		Int64("user_id", userID).
		Int("count", len(slate)).
		Dur("took", e.now().Sub(start)).
		Msg("recommendations regenerated")
	return slate, false, nil
}

// serveCache returns the cached slate when it can satisfy the request, nil
// when regeneration is needed.
func (e *Engine) serveCache(ctx context.Context, userID int64, hash string, limit int) ([]models.ScoredRecommendation, error) {
	cached, err := e.store.ValidCachedRecommendations(ctx, userID, hash, e.now())
	if err != nil {
		return nil, fmt.Errorf("reading cache: %w", err)
	}
	if len(cached) < limit {
		return nil, nil
	}
	if err := e.store.MarkViewed(ctx, userID); err != nil {
		return nil, fmt.Errorf("marking cache viewed: %w", err)
	}
	return cached[:limit], nil
}

// generate runs the full pipeline: profile, pool retrieval per content
// type, scoring, shuffle, diversity injection, final adjustments, and
// truncation to the requested limit.
func (e *Engine) generate(ctx context.Context, userID int64, limit int, settings *models.RecommendationSettings) ([]models.ScoredRecommendation, error) {
	profile, err := e.EnsureProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	exclusions, err := e.retriever.Exclusions(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Movie weight splits the slate between content types; each half then
	// splits 50/50 popular/niche, remainders going to the niche side.
	movieLimit := int(float64(limit) * settings.MovieWeight)
	tvLimit := limit - movieLimit

	// A failed pool query shrinks the slate instead of aborting it; the
	// regeneration only fails outright when every pool query failed.
	now := e.now()
	var slate []models.ScoredRecommendation
	var attempted, failed int
	var lastErr error
	for _, split := range []struct {
		contentType models.ContentType
		total       int
	}{
		{models.ContentTypeMovie, movieLimit},
		{models.ContentTypeTV, tvLimit},
	} {
		if split.total <= 0 {
			continue
		}
		popularTarget := split.total / 2
		nicheTarget := split.total - popularTarget

		for _, pool := range []struct {
			kind   models.RecommendationType
			target int
		}{
			{models.RecommendationPopular, popularTarget},
			{models.RecommendationNiche, nicheTarget},
		} {
			if pool.target <= 0 {
				continue
			}
			attempted++
			scored, err := e.scoredPool(ctx, split.contentType, pool.kind, pool.target, profile, settings, exclusions[split.contentType], now)
			if err != nil {
				failed++
				lastErr = err
				logging.Warn().
					Err(err).
					Int64("user_id", userID).
					Str("content_type", string(split.contentType)).
					Str("pool", string(pool.kind)).
					Msg("pool query failed, continuing with remaining pools")
				continue
			}
			slate = append(slate, scored...)
		}
	}
	if attempted > 0 && failed == attempted {
		return nil, fmt.Errorf("all candidate pools failed: %w", lastErr)
	}

	// Shuffle before diversity so pool ordering does not leak into the
	// genre counting, then adjust and rank.
	e.shuffle(slate)
	injectDiversity(slate)
	applyFinalAdjustments(slate, profile, settings)

	sort.SliceStable(slate, func(i, j int) bool {
		return slate[i].Score > slate[j].Score
	})
	if len(slate) > limit {
		slate = slate[:limit]
	}

	expires := now.Add(time.Duration(settings.AutoRefreshDays) * 24 * time.Hour)
	for i := range slate {
		slate[i].Position = i
		slate[i].GeneratedAt = now
		slate[i].ExpiresAt = expires
	}
	return slate, nil
}

// scoredPool retrieves one candidate pool, scores it, and keeps the top
// target items in retrieval order.
func (e *Engine) scoredPool(ctx context.Context, contentType models.ContentType, pool models.RecommendationType, target int, profile *models.PreferenceProfile, settings *models.RecommendationSettings, exclude []int64, now time.Time) ([]models.ScoredRecommendation, error) {
	if target <= 0 {
		return nil, nil
	}

	var (
		items []models.MediaItem
		err   error
	)
	if pool == models.RecommendationPopular {
		items, err = e.retriever.PopularPool(ctx, contentType, target, profile, settings, exclude, now)
	} else {
		items, err = e.retriever.NichePool(ctx, contentType, target, profile, settings, exclude, now)
	}
	if err != nil {
		return nil, err
	}
	if len(items) > target {
		items = items[:target]
	}

	out := make([]models.ScoredRecommendation, 0, len(items))
	for i := range items {
		rec := scoreItem(&items[i], profile, settings, now)
		rec.Type = pool
		rec.Explanation = explain(&items[i], profile, pool)
		out = append(out, rec)
	}
	return out, nil
}

func (e *Engine) clampLimit(limit int) int {
	if limit <= 0 {
		return e.cfg.DefaultLimit
	}
	if limit > e.cfg.MaxLimit {
		return e.cfg.MaxLimit
	}
	return limit
}

func (e *Engine) userLock(userID int64) *sync.Mutex {
	e.locksMu.Lock()
	defer e.locksMu.Unlock()
	lock, ok := e.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[userID] = lock
	}
	return lock
}

func (e *Engine) shuffle(recs []models.ScoredRecommendation) {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	e.rng.Shuffle(len(recs), func(i, j int) {
		recs[i], recs[j] = recs[j], recs[i]
	})
}

// EnsureProfile returns a usable profile, re-analyzing when none exists or
// the stored one has gone stale.
func (e *Engine) EnsureProfile(ctx context.Context, userID int64) (*models.PreferenceProfile, error) {
	profile, err := e.store.GetProfile(ctx, userID)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			return nil, fmt.Errorf("loading profile: %w", err)
		}
		return e.analyzer.Analyze(ctx, userID)
	}
	if profile.Stale(e.now()) {
		return e.analyzer.Analyze(ctx, userID)
	}
	return profile, nil
}
