package retry

import (
	"context"
	"log/slog"

	"github.com/amishk599/talentmesh/internal/model"
)

// Ensure RetryExtractor implements model.KeywordExtractor.
var _ model.KeywordExtractor = (*RetryExtractor)(nil)

// RetryExtractor is a decorator that retries transient extractor failures
// with exponential backoff and jitter.
type RetryExtractor struct {
	inner  model.KeywordExtractor
	policy Policy
	logger *slog.Logger
}

// NewRetryExtractor wraps a KeywordExtractor with retry logic.
func NewRetryExtractor(inner model.KeywordExtractor, policy Policy, logger *slog.Logger) *RetryExtractor {
	return &RetryExtractor{
		inner:  inner,
		policy: policy,
		logger: logger,
	}
}

// Extract delegates to the wrapped extractor, retrying transient errors.
func (r *RetryExtractor) Extract(ctx context.Context, text string, source model.SourceType) ([]model.Keyword, error) {
	return Do(ctx, r.policy, r.logger, "extract "+string(source), func(ctx context.Context) ([]model.Keyword, error) {
		return r.inner.Extract(ctx, text, source)
	})
}

// ParseJobDescription delegates to the wrapped extractor, retrying transient errors.
func (r *RetryExtractor) ParseJobDescription(ctx context.Context, text string) (model.ParsedJob, error) {
	return Do(ctx, r.policy, r.logger, "parse job description", func(ctx context.Context) (model.ParsedJob, error) {
		return r.inner.ParseJobDescription(ctx, text)
	})
}
