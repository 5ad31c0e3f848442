package ai

import "context"

// Prompt is one structured-output request to an LLM.
type Prompt struct {
	System     string
	User       string
	SchemaName string
	Schema     map[string]any
}

// LLMProvider sends a prompt to an LLM and returns the raw text response.
// Used only by LLMKeywordExtractor; not exported to the rest of the system.
type LLMProvider interface {
	Name() string
	Complete(ctx context.Context, prompt Prompt) (string, error)
}
