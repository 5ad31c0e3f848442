package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/amishk599/talentmesh/internal/model"
)

// ProviderRateLimiter enforces a minimum delay between calls to the same
// upstream provider. Each key gets its own token bucket.
type ProviderRateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*rate.Limiter
	minDelay  time.Duration
	overrides map[string]time.Duration
}

// NewProviderRateLimiter creates a limiter that allows one call per minDelay
// for each key. overrides replace minDelay for specific keys.
func NewProviderRateLimiter(minDelay time.Duration, overrides map[string]time.Duration) *ProviderRateLimiter {
	return &ProviderRateLimiter{
		limiters:  make(map[string]*rate.Limiter),
		minDelay:  minDelay,
		overrides: overrides,
	}
}

func (r *ProviderRateLimiter) limiterFor(key string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if l, ok := r.limiters[key]; ok {
		return l
	}
	delay := r.minDelay
	if d, ok := r.overrides[key]; ok {
		delay = d
	}
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	l := rate.NewLimiter(limit, 1)
	r.limiters[key] = l
	return l
}

// Wait blocks until a call to key is allowed.
// Returns an error if the context is cancelled while waiting.
func (r *ProviderRateLimiter) Wait(ctx context.Context, key string) error {
	if err := r.limiterFor(key).Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait for %s: %w", key, err)
	}
	return nil
}

// Ensure RateLimitedExtractor implements model.KeywordExtractor.
var _ model.KeywordExtractor = (*RateLimitedExtractor)(nil)

// RateLimitedExtractor is a decorator that enforces provider-level rate
// limiting before delegating to the wrapped extractor.
type RateLimitedExtractor struct {
	inner    model.KeywordExtractor
	limiter  *ProviderRateLimiter
	provider string
}

// NewRateLimitedExtractor wraps an extractor with provider-level rate limiting.
// All extractors targeting the same provider should share one limiter.
func NewRateLimitedExtractor(inner model.KeywordExtractor, limiter *ProviderRateLimiter, provider string) *RateLimitedExtractor {
	return &RateLimitedExtractor{
		inner:    inner,
		limiter:  limiter,
		provider: provider,
	}
}

// Extract waits for the limiter, then delegates.
func (e *RateLimitedExtractor) Extract(ctx context.Context, text string, source model.SourceType) ([]model.Keyword, error) {
	if err := e.limiter.Wait(ctx, e.provider); err != nil {
		return nil, err
	}
	return e.inner.Extract(ctx, text, source)
}

// ParseJobDescription waits for the limiter, then delegates.
func (e *RateLimitedExtractor) ParseJobDescription(ctx context.Context, text string) (model.ParsedJob, error) {
	if err := e.limiter.Wait(ctx, e.provider); err != nil {
		return model.ParsedJob{}, err
	}
	return e.inner.ParseJobDescription(ctx, text)
}
