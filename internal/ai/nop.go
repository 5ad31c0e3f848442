package ai

import (
	"context"
	"errors"

	"github.com/amishk599/talentmesh/internal/model"
)

var errAIDisabled = errors.New("ai extraction is disabled")

// Ensure NopExtractor implements model.KeywordExtractor.
var _ model.KeywordExtractor = (*NopExtractor)(nil)

// NopExtractor is used when ai.enabled is false. Every call fails with an
// ExtractionError so callers degrade the same way they do on LLM failure.
type NopExtractor struct{}

// NewNopExtractor returns a NopExtractor.
func NewNopExtractor() *NopExtractor {
	return &NopExtractor{}
}

// Extract always fails with an ExtractionError.
func (n *NopExtractor) Extract(_ context.Context, _ string, source model.SourceType) ([]model.Keyword, error) {
	return nil, &model.ExtractionError{Source: source, Err: errAIDisabled}
}

// ParseJobDescription always fails with an ExtractionError.
func (n *NopExtractor) ParseJobDescription(_ context.Context, _ string) (model.ParsedJob, error) {
	return model.ParsedJob{}, &model.ExtractionError{Source: model.SourceJobDescription, Err: errAIDisabled}
}
