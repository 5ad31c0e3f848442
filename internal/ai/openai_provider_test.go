package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/amishk599/talentmesh/internal/model"
)

// completionServer answers every request with status and body, and hands
// the decoded request to inspect when it is non-nil.
func completionServer(t *testing.T, status int, body string, inspect func(*http.Request, completionRequest)) *OpenAIProvider {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if inspect != nil {
			var got completionRequest
			if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
				t.Errorf("decode request: %v", err)
			}
			inspect(r, got)
		}
		if status == http.StatusTooManyRequests {
			w.Header().Set("Retry-After", "3")
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return NewOpenAIProvider(srv.URL+"/", "test-key", "gpt-4o-mini", srv.Client())
}

func extractionPrompt() Prompt {
	return Prompt{System: "sys", User: "Senior Go engineer, Kafka", SchemaName: "keywords", Schema: keywordsSchema}
}

func TestOpenAIComplete_ReturnsContent(t *testing.T) {
	p := completionServer(t, http.StatusOK,
		`{"choices":[{"finish_reason":"stop","message":{"content":"{\"keywords\":[]}"}}]}`, nil)

	got, err := p.Complete(context.Background(), extractionPrompt())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `{"keywords":[]}` {
		t.Errorf("content = %q", got)
	}
}

func TestOpenAIComplete_RequestShape(t *testing.T) {
	var path, auth string
	var sent completionRequest
	p := completionServer(t, http.StatusOK, `{"choices":[{"message":{"content":"{}"}}]}`,
		func(r *http.Request, req completionRequest) {
			path, auth, sent = r.URL.Path, r.Header.Get("Authorization"), req
		})

	if _, err := p.Complete(context.Background(), extractionPrompt()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "/chat/completions" {
		t.Errorf("path = %q", path)
	}
	if auth != "Bearer test-key" {
		t.Errorf("Authorization = %q", auth)
	}
	if sent.Model != "gpt-4o-mini" || sent.Temperature != 0 || sent.MaxTokens != maxCompletionTokens {
		t.Errorf("request = %+v", sent)
	}
	f := sent.ResponseFormat
	if f.Type != "json_schema" || f.JSONSchema.Name != "keywords" || !f.JSONSchema.Strict {
		t.Errorf("response_format = %+v", f)
	}
	if len(sent.Messages) != 2 || sent.Messages[0].Role != "system" || sent.Messages[1].Content != "Senior Go engineer, Kafka" {
		t.Errorf("messages = %+v", sent.Messages)
	}
}

func TestOpenAIComplete_StatusErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		retryAfter time.Duration
	}{
		{"server error", http.StatusInternalServerError, 0},
		{"rate limited", http.StatusTooManyRequests, 3 * time.Second},
		{"unauthorized", http.StatusUnauthorized, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := completionServer(t, tt.status, `{"error":{"message":"nope"}}`, nil)
			_, err := p.Complete(context.Background(), extractionPrompt())

			var httpErr *model.HTTPError
			if !errors.As(err, &httpErr) {
				t.Fatalf("expected *model.HTTPError, got %v", err)
			}
			if httpErr.StatusCode != tt.status || httpErr.RetryAfter != tt.retryAfter {
				t.Errorf("HTTPError = %+v", httpErr)
			}
		})
	}
}

func TestOpenAIComplete_UnusableCompletions(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"no choices", `{"choices":[]}`, "no choices"},
		{"refusal", `{"choices":[{"message":{"content":"","refusal":"cannot help"}}]}`, "refused"},
		{"truncated", `{"choices":[{"finish_reason":"length","message":{"content":"{\"keyw"}}]}`, "truncated"},
		{"error body", `{"error":{"type":"invalid_request_error","message":"bad schema"}}`, "bad schema"},
		{"not json", `<html>`, "decoding completion"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := completionServer(t, http.StatusOK, tt.body, nil)
			_, err := p.Complete(context.Background(), extractionPrompt())
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestRetryAfterSeconds(t *testing.T) {
	for in, want := range map[string]time.Duration{"5": 5 * time.Second, " 2 ": 2 * time.Second, "": 0, "-1": 0, "soon": 0} {
		if got := retryAfterSeconds(in); got != want {
			t.Errorf("retryAfterSeconds(%q) = %v, want %v", in, got, want)
		}
	}
}
