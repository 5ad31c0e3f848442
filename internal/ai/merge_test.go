package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/amishk599/talentmesh/internal/model"
)

// sourceExtractor returns canned keywords per source text.
type sourceExtractor struct {
	byText map[string][]model.Keyword
	fail   map[string]error
}

func (s *sourceExtractor) Extract(_ context.Context, text string, _ model.SourceType) ([]model.Keyword, error) {
	if err, ok := s.fail[text]; ok {
		return nil, err
	}
	return s.byText[text], nil
}

func (s *sourceExtractor) ParseJobDescription(_ context.Context, _ string) (model.ParsedJob, error) {
	return model.ParsedJob{}, nil
}

func TestExtractAndMerge_SameTextTwiceYieldsOneEntry(t *testing.T) {
	ex := &sourceExtractor{byText: map[string][]model.Keyword{
		"T": {{Text: "go", Weight: 1, Source: model.SourceResume}},
	}}

	got, err := ExtractAndMerge(context.Background(), ex, []model.SourceText{
		{Source: model.SourceResume, Text: "T"},
		{Source: model.SourceResume, Text: "T"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 keyword, got %d", len(got))
	}
}

func TestExtractAndMerge_MaxWeightAndProvenance(t *testing.T) {
	ex := &sourceExtractor{byText: map[string][]model.Keyword{
		"resume":   {{Text: "go", Weight: 1.0, Source: model.SourceResume}},
		"linkedin": {{Text: "go", Weight: 0.9, Source: model.SourceLinkedIn}, {Text: "sql", Weight: 0.9, Source: model.SourceLinkedIn}},
	}}
	sources := []model.SourceText{
		{Source: model.SourceLinkedIn, Text: "linkedin"},
		{Source: model.SourceResume, Text: "resume"},
	}

	got, err := ExtractAndMerge(context.Background(), ex, sources)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	reversed, _ := ExtractAndMerge(context.Background(), ex, []model.SourceText{sources[1], sources[0]})

	goKw, _ := findKeyword(got, "go")
	if goKw.Weight != 1.0 || len(goKw.Sources) != 2 {
		t.Fatalf("unexpected go keyword: %+v", goKw)
	}
	goRev, _ := findKeyword(reversed, "go")
	if goRev.Weight != goKw.Weight || goRev.Source != goKw.Source {
		t.Fatalf("merge depends on order: %+v vs %+v", goKw, goRev)
	}
}

func TestExtractAndMerge_PartialFailureKeepsSuccesses(t *testing.T) {
	boom := &model.ExtractionError{Source: model.SourceLinkedIn, Err: errors.New("boom")}
	ex := &sourceExtractor{
		byText: map[string][]model.Keyword{"resume": {{Text: "go", Weight: 1, Source: model.SourceResume}}},
		fail:   map[string]error{"linkedin": boom},
	}

	got, err := ExtractAndMerge(context.Background(), ex, []model.SourceText{
		{Source: model.SourceResume, Text: "resume"},
		{Source: model.SourceLinkedIn, Text: "linkedin"},
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined extraction error, got %v", err)
	}
	if len(got) != 1 || got[0].Text != "go" {
		t.Fatalf("expected surviving keywords, got %+v", got)
	}
}
