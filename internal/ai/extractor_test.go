package ai

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/amishk599/talentmesh/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockProvider is a stub LLMProvider for testing.
type mockProvider struct {
	mu       sync.Mutex
	response string
	err      error
	calls    int
	prompts  []Prompt
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) Complete(_ context.Context, p Prompt) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.prompts = append(m.prompts, p)
	return m.response, m.err
}

func findKeyword(kws []model.Keyword, text string) (model.Keyword, bool) {
	for _, kw := range kws {
		if kw.Text == text {
			return kw, true
		}
	}
	return model.Keyword{}, false
}

func TestExtract_EmptyTextSkipsProvider(t *testing.T) {
	provider := &mockProvider{}
	e := NewLLMKeywordExtractor(provider, 0, discardLogger())

	_, err := e.Extract(context.Background(), "   \n", model.SourceResume)
	var extErr *model.ExtractionError
	if !errors.As(err, &extErr) {
		t.Fatalf("expected ExtractionError, got %v", err)
	}
	if !errors.Is(err, model.ErrEmptyText) {
		t.Fatalf("expected ErrEmptyText, got %v", err)
	}
	if provider.calls != 0 {
		t.Fatalf("expected no provider calls, got %d", provider.calls)
	}
}

func TestExtract_NormalizesDedupsAndWeights(t *testing.T) {
	provider := &mockProvider{response: `{"keywords":[
		{"keyword":"  React ","category":"frontend","relevance":0.9},
		{"keyword":"react","category":"frontend","relevance":0.5},
		{"keyword":"Machine   Learning","category":"ai","relevance":0.8},
		{"keyword":"","category":"other","relevance":0.1}
	]}`}
	e := NewLLMKeywordExtractor(provider, 0, discardLogger())

	got, err := e.Extract(context.Background(), "resume text", model.SourceLinkedIn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 keywords, got %d: %+v", len(got), got)
	}
	react, ok := findKeyword(got, "react")
	if !ok {
		t.Fatal("missing react")
	}
	if react.Weight != model.WeightLinkedIn {
		t.Errorf("react weight = %v, want %v", react.Weight, model.WeightLinkedIn)
	}
	if react.Source != model.SourceLinkedIn || react.Category != "frontend" {
		t.Errorf("unexpected react keyword: %+v", react)
	}
	if _, ok := findKeyword(got, "machine learning"); !ok {
		t.Error("missing machine learning")
	}
	if !strings.Contains(provider.prompts[0].User, "LinkedIn profile") {
		t.Error("prompt should name the source")
	}
}

func TestExtract_StripsCodeFences(t *testing.T) {
	provider := &mockProvider{response: "```json\n{\"keywords\":[{\"keyword\":\"Go\",\"category\":\"language\",\"relevance\":1}]}\n```"}
	e := NewLLMKeywordExtractor(provider, 0, discardLogger())

	got, err := e.Extract(context.Background(), "text", model.SourceResume)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Text != "go" || got[0].Weight != model.WeightResume {
		t.Fatalf("unexpected keywords: %+v", got)
	}
}

func TestExtract_MalformedOutput(t *testing.T) {
	provider := &mockProvider{response: "sorry, I cannot help"}
	e := NewLLMKeywordExtractor(provider, 0, discardLogger())

	_, err := e.Extract(context.Background(), "text", model.SourceResume)
	var extErr *model.ExtractionError
	if !errors.As(err, &extErr) {
		t.Fatalf("expected ExtractionError, got %v", err)
	}
}

func TestExtract_ProviderError(t *testing.T) {
	provider := &mockProvider{err: &model.HTTPError{StatusCode: 503}}
	e := NewLLMKeywordExtractor(provider, 0, discardLogger())

	_, err := e.Extract(context.Background(), "text", model.SourceResume)
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected wrapped HTTPError, got %v", err)
	}
}

func TestExtract_CapsKeywordCount(t *testing.T) {
	provider := &mockProvider{response: `{"keywords":[
		{"keyword":"a","category":"other","relevance":0.2},
		{"keyword":"b","category":"other","relevance":0.9},
		{"keyword":"c","category":"other","relevance":0.5}
	]}`}
	e := NewLLMKeywordExtractor(provider, 2, discardLogger())

	got, err := e.Extract(context.Background(), "text", model.SourceManual)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 keywords, got %d", len(got))
	}
	if _, ok := findKeyword(got, "a"); ok {
		t.Error("least relevant keyword should be dropped")
	}
	if got[0].Weight != model.WeightOther {
		t.Errorf("manual weight = %v, want %v", got[0].Weight, model.WeightOther)
	}
}

func TestParseJobDescription_BoostsMustHave(t *testing.T) {
	provider := &mockProvider{response: `{
		"job": {"title":" Backend Engineer ","company":"Acme","location":"Remote","seniority":"senior","employment_type":"full-time","summary":"Build APIs"},
		"requirements": {
			"must_have": ["5+ years of Go", "Kubernetes", " "],
			"nice_to_have": ["Rust"],
			"responsibilities": ["Own services"]
		},
		"keywords": [
			{"keyword":"Go","category":"language","relevance":1},
			{"keyword":"Rust","category":"language","relevance":0.5},
			{"keyword":"PostgreSQL","category":"database","relevance":0.7}
		]
	}`}
	e := NewLLMKeywordExtractor(provider, 0, discardLogger())

	got, err := e.ParseJobDescription(context.Background(), "a long job description")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Job.Title != "Backend Engineer" {
		t.Errorf("title = %q", got.Job.Title)
	}
	if len(got.Requirements.MustHave) != 2 {
		t.Errorf("must_have = %v", got.Requirements.MustHave)
	}

	want := map[string]float64{
		"go":         model.WeightJobRequirement,
		"kubernetes": model.WeightJobRequirement,
		"rust":       model.WeightJobGeneral,
		"postgresql": model.WeightJobGeneral,
	}
	if len(got.Keywords) != len(want) {
		t.Fatalf("expected %d keywords, got %+v", len(want), got.Keywords)
	}
	for text, w := range want {
		kw, ok := findKeyword(got.Keywords, text)
		if !ok {
			t.Errorf("missing %q", text)
			continue
		}
		if kw.Weight != w {
			t.Errorf("%s weight = %v, want %v", text, kw.Weight, w)
		}
		if kw.Source != model.SourceJobDescription {
			t.Errorf("%s source = %v", text, kw.Source)
		}
	}
}

func TestParseJobDescription_ProviderError(t *testing.T) {
	provider := &mockProvider{err: errors.New("boom")}
	e := NewLLMKeywordExtractor(provider, 0, discardLogger())

	if _, err := e.ParseJobDescription(context.Background(), "text"); err == nil {
		t.Fatal("expected error")
	}
}

func TestNopExtractor_ReturnsExtractionError(t *testing.T) {
	n := NewNopExtractor()
	_, err := n.Extract(context.Background(), "text", model.SourceResume)
	var extErr *model.ExtractionError
	if !errors.As(err, &extErr) {
		t.Fatalf("expected ExtractionError, got %v", err)
	}
}
