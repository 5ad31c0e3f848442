package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/amishk599/talentmesh/internal/model"
)

// maxCompletionTokens bounds the keyword list the model may return.
const maxCompletionTokens = 2048

// maxResponseBytes caps how much of a completion body is read.
const maxResponseBytes = 4 << 20

// OpenAIProvider talks to any OpenAI-compatible chat completions endpoint
// and asks for strict JSON-schema output.
type OpenAIProvider struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
}

// NewOpenAIProvider returns a provider posting to baseURL + "/chat/completions".
func NewOpenAIProvider(baseURL, apiKey, model string, httpClient *http.Client) *OpenAIProvider {
	return &OpenAIProvider{
		endpoint: strings.TrimRight(baseURL, "/") + "/chat/completions",
		apiKey:   apiKey,
		model:    model,
		client:   httpClient,
	}
}

// Name identifies the provider for rate limiting and logs.
func (p *OpenAIProvider) Name() string { return "openai" }

type completionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type schemaFormat struct {
	Name   string         `json:"name"`
	Strict bool           `json:"strict"`
	Schema map[string]any `json:"schema"`
}

type outputFormat struct {
	Type       string       `json:"type"`
	JSONSchema schemaFormat `json:"json_schema"`
}

type completionRequest struct {
	Model          string              `json:"model"`
	Messages       []completionMessage `json:"messages"`
	Temperature    int                 `json:"temperature"`
	MaxTokens      int                 `json:"max_tokens"`
	ResponseFormat outputFormat        `json:"response_format"`
}

type completionChoice struct {
	FinishReason string `json:"finish_reason"`
	Message      struct {
		Content string `json:"content"`
		Refusal string `json:"refusal,omitempty"`
	} `json:"message"`
}

type completionResponse struct {
	Choices []completionChoice `json:"choices"`
	Error   *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func (p *OpenAIProvider) newRequest(prompt Prompt) completionRequest {
	return completionRequest{
		Model: p.model,
		Messages: []completionMessage{
			{Role: "system", Content: prompt.System},
			{Role: "user", Content: prompt.User},
		},
		MaxTokens: maxCompletionTokens,
		ResponseFormat: outputFormat{
			Type:       "json_schema",
			JSONSchema: schemaFormat{Name: prompt.SchemaName, Strict: true, Schema: prompt.Schema},
		},
	}
}

// Complete returns the JSON document the model produced for prompt.
// Non-200 responses come back as *model.HTTPError so the retry layer can
// classify them.
func (p *OpenAIProvider) Complete(ctx context.Context, prompt Prompt) (string, error) {
	payload, err := json.Marshal(p.newRequest(prompt))
	if err != nil {
		return "", fmt.Errorf("encoding completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("building completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling %s: %w", p.Name(), err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("reading completion: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: retryAfterSeconds(resp.Header.Get("Retry-After")),
			Err:        errors.New(clip(string(raw), 200)),
		}
	}

	var out completionResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decoding completion: %w", err)
	}
	return out.content()
}

// content picks the first choice, rejecting refusals and completions cut
// off by the token limit since neither holds valid JSON.
func (r completionResponse) content() (string, error) {
	if r.Error != nil {
		return "", fmt.Errorf("completion failed (%s): %s", r.Error.Type, r.Error.Message)
	}
	if len(r.Choices) == 0 {
		return "", errors.New("completion has no choices")
	}
	c := r.Choices[0]
	switch {
	case c.Message.Refusal != "":
		return "", fmt.Errorf("model refused: %s", c.Message.Refusal)
	case c.FinishReason == "length":
		return "", fmt.Errorf("completion truncated at %d tokens", maxCompletionTokens)
	}
	return c.Message.Content, nil
}

func retryAfterSeconds(v string) time.Duration {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
