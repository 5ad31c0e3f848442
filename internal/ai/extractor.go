package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"text/template"

	"github.com/amishk599/talentmesh/internal/keyword"
	"github.com/amishk599/talentmesh/internal/model"
)

const (
	defaultMaxKeywords  = 40
	maxRequirementWords = 3

	systemPrompt = "You are a precise structured data extractor for resumes, professional profiles and job descriptions."
)

// Ensure LLMKeywordExtractor implements model.KeywordExtractor.
var _ model.KeywordExtractor = (*LLMKeywordExtractor)(nil)

// LLMKeywordExtractor implements model.KeywordExtractor on top of an LLM.
type LLMKeywordExtractor struct {
	provider     LLMProvider
	keywordsTmpl *template.Template
	jobTmpl      *template.Template
	maxKeywords  int
	logger       *slog.Logger
}

// NewLLMKeywordExtractor creates an extractor using the embedded prompt templates.
// maxKeywords <= 0 selects the default cap.
func NewLLMKeywordExtractor(provider LLMProvider, maxKeywords int, logger *slog.Logger) *LLMKeywordExtractor {
	if maxKeywords <= 0 {
		maxKeywords = defaultMaxKeywords
	}
	return &LLMKeywordExtractor{
		provider:     provider,
		keywordsTmpl: KeywordsTemplate,
		jobTmpl:      JobDescriptionTemplate,
		maxKeywords:  maxKeywords,
		logger:       logger,
	}
}

var sourceLabels = map[model.SourceType]string{
	model.SourceResume:         "Resume",
	model.SourceLinkedIn:       "LinkedIn profile",
	model.SourceJobDescription: "Job description",
	model.SourceManual:         "Skill list",
}

// Extract returns the normalized, deduplicated keywords found in text.
// Every failure is an *model.ExtractionError.
func (e *LLMKeywordExtractor) Extract(ctx context.Context, text string, source model.SourceType) ([]model.Keyword, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &model.ExtractionError{Source: source, Err: model.ErrEmptyText}
	}

	label, ok := sourceLabels[source]
	if !ok {
		label = "Text"
	}
	prompt, err := e.render(e.keywordsTmpl, map[string]any{
		"SourceLabel": label,
		"Text":        text,
		"MaxKeywords": e.maxKeywords,
	})
	if err != nil {
		return nil, &model.ExtractionError{Source: source, Err: err}
	}

	raw, err := e.provider.Complete(ctx, Prompt{
		System:     systemPrompt,
		User:       prompt,
		SchemaName: "keywords",
		Schema:     keywordsSchema,
	})
	if err != nil {
		return nil, &model.ExtractionError{Source: source, Err: fmt.Errorf("llm complete: %w", err)}
	}

	var out rawKeywords
	if err := decodeJSON(raw, &out); err != nil {
		return nil, &model.ExtractionError{Source: source, Err: fmt.Errorf("parse keywords: %w", err)}
	}

	kws := e.toKeywords(out.Keywords, source, nil)
	e.logger.Debug("extracted keywords", "source", source, "provider", e.provider.Name(), "count", len(kws))
	return kws, nil
}

// ParseJobDescription extracts structured job fields, requirements and
// keywords. Keywords backing a must-have requirement carry the boosted weight.
func (e *LLMKeywordExtractor) ParseJobDescription(ctx context.Context, text string) (model.ParsedJob, error) {
	source := model.SourceJobDescription
	if strings.TrimSpace(text) == "" {
		return model.ParsedJob{}, &model.ExtractionError{Source: source, Err: model.ErrEmptyText}
	}

	prompt, err := e.render(e.jobTmpl, map[string]any{
		"Text":        text,
		"MaxKeywords": e.maxKeywords,
	})
	if err != nil {
		return model.ParsedJob{}, &model.ExtractionError{Source: source, Err: err}
	}

	raw, err := e.provider.Complete(ctx, Prompt{
		System:     systemPrompt,
		User:       prompt,
		SchemaName: "job_description",
		Schema:     jobDescriptionSchema,
	})
	if err != nil {
		return model.ParsedJob{}, &model.ExtractionError{Source: source, Err: fmt.Errorf("llm complete: %w", err)}
	}

	var out rawJob
	if err := decodeJSON(raw, &out); err != nil {
		return model.ParsedJob{}, &model.ExtractionError{Source: source, Err: fmt.Errorf("parse job description: %w", err)}
	}

	reqs := model.Requirements{
		MustHave:         cleanList(out.Requirements.MustHave),
		NiceToHave:       cleanList(out.Requirements.NiceToHave),
		Responsibilities: cleanList(out.Requirements.Responsibilities),
	}

	items := out.Keywords
	for _, req := range reqs.MustHave {
		if len(strings.Fields(req)) <= maxRequirementWords && !strings.ContainsAny(req, "0123456789") {
			items = append(items, rawKeyword{Keyword: req, Category: "requirement"})
		}
	}

	return model.ParsedJob{
		Job: model.JobDetails{
			Title:          strings.TrimSpace(out.Job.Title),
			Company:        strings.TrimSpace(out.Job.Company),
			Location:       strings.TrimSpace(out.Job.Location),
			Seniority:      strings.TrimSpace(out.Job.Seniority),
			EmploymentType: strings.TrimSpace(out.Job.EmploymentType),
			Summary:        strings.TrimSpace(out.Job.Summary),
		},
		Requirements: reqs,
		Keywords:     e.toKeywords(items, source, reqs.MustHave),
	}, nil
}

func (e *LLMKeywordExtractor) render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return buf.String(), nil
}

// rawKeyword is the JSON shape of one keyword returned by the LLM.
type rawKeyword struct {
	Keyword   string   `json:"keyword"`
	Category  string   `json:"category"`
	Relevance *float64 `json:"relevance"`
}

type rawKeywords struct {
	Keywords []rawKeyword `json:"keywords"`
}

type rawJob struct {
	Job struct {
		Title          string `json:"title"`
		Company        string `json:"company"`
		Location       string `json:"location"`
		Seniority      string `json:"seniority"`
		EmploymentType string `json:"employment_type"`
		Summary        string `json:"summary"`
	} `json:"job"`
	Requirements struct {
		MustHave         []string `json:"must_have"`
		NiceToHave       []string `json:"nice_to_have"`
		Responsibilities []string `json:"responsibilities"`
	} `json:"requirements"`
	Keywords []rawKeyword `json:"keywords"`
}

// toKeywords keeps the most relevant items up to the cap and assigns the
// source default weight. Terms named by a must-have requirement get the
// requirement weight.
func (e *LLMKeywordExtractor) toKeywords(items []rawKeyword, source model.SourceType, mustHave []string) []model.Keyword {
	sort.SliceStable(items, func(i, j int) bool {
		return relevance(items[i]) > relevance(items[j])
	})

	var out []model.Keyword
	seen := make(map[string]struct{})
	for _, it := range items {
		text := keyword.Normalize(it.Keyword)
		if text == "" {
			continue
		}
		if _, dup := seen[text]; !dup {
			if len(seen) >= e.maxKeywords {
				continue
			}
			seen[text] = struct{}{}
		}
		weight := source.DefaultWeight(isRequirement(text, mustHave))
		if kw, ok := keyword.New(text, weight, source, it.Category); ok {
			out = append(out, kw)
		}
	}
	return keyword.Merge(out)
}

func relevance(k rawKeyword) float64 {
	if k.Relevance == nil {
		return 1
	}
	return *k.Relevance
}

// isRequirement reports whether text appears as a whole phrase in any
// must-have requirement.
func isRequirement(text string, mustHave []string) bool {
	needle := " " + text + " "
	for _, req := range mustHave {
		if strings.Contains(" "+phraseWords(req)+" ", needle) {
			return true
		}
	}
	return false
}

func phraseWords(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ',', '.', ';', ':', '(', ')', '/', '"', '!', '?':
			return ' '
		}
		return r
	}, s)
	return keyword.Normalize(s)
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// decodeJSON strips markdown code fences some models wrap around JSON and
// decodes the payload.
func decodeJSON(raw string, v any) error {
	clean := strings.TrimSpace(raw)
	if strings.HasPrefix(clean, "```") {
		clean = strings.TrimPrefix(clean, "```json")
		clean = strings.TrimPrefix(clean, "```")
		clean = strings.TrimSuffix(strings.TrimSpace(clean), "```")
		clean = strings.TrimSpace(clean)
	}
	if clean == "" {
		return fmt.Errorf("empty response")
	}
	return json.Unmarshal([]byte(clean), v)
}
