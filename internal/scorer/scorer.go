// Package scorer computes the compatibility score between two keyword profiles.
//
// The score is the sum of five components, each capped by its point budget:
// keyword overlap, complementary-skill diversity, profile completeness,
// location affinity and an active premium bonus for the profile being matched to.
// Scoring is pure: no I/O, no randomness, the clock is injected.
package scorer

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/amishk599/talentmesh/internal/keyword"
	"github.com/amishk599/talentmesh/internal/model"
)

// Weights are the point budgets of the five components.
type Weights struct {
	Overlap      float64
	Diversity    float64
	Completeness float64
	Location     float64
	Premium      float64
}

// DefaultWeights returns the calibrated budgets.
func DefaultWeights() Weights {
	return Weights{
		Overlap:      55,
		Diversity:    15,
		Completeness: 10,
		Location:     10,
		Premium:      5,
	}
}

// Sum returns the total budget.
func (w Weights) Sum() float64 {
	return w.Overlap + w.Diversity + w.Completeness + w.Location + w.Premium
}

// Validate checks every budget is non-negative and the total fits in 100 points.
func (w Weights) Validate() error {
	parts := map[string]float64{
		"overlap":      w.Overlap,
		"diversity":    w.Diversity,
		"completeness": w.Completeness,
		"location":     w.Location,
		"premium":      w.Premium,
	}
	for name, v := range parts {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("scoring weight %s must be non-negative, got %v", name, v)
		}
	}
	if sum := w.Sum(); sum > 100 {
		return fmt.Errorf("scoring weights must sum to at most 100, got %v", sum)
	}
	return nil
}

const (
	regionFactor    = 0.6
	richKeywordSize = 10
	minTokenLen     = 2
	regionTokenLen  = 4
)

// Scorer scores pairs of keyword profiles.
type Scorer struct {
	weights Weights
	now     func() time.Time
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithWeights overrides the default point budgets.
func WithWeights(w Weights) Option {
	return func(s *Scorer) { s.weights = w }
}

// WithClock sets the time source used for premium expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Scorer) { s.now = now }
}

// New returns a Scorer with default weights and the wall clock.
func New(opts ...Option) *Scorer {
	s := &Scorer{weights: DefaultWeights(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Weights returns the budgets the scorer was built with.
func (s *Scorer) Weights() Weights {
	return s.weights
}

type term struct {
	weight   float64
	category string
}

// Score compares profile a with profile b. attrsB belongs to the party being
// matched to and is the only side eligible for the premium bonus.
func (s *Scorer) Score(a, b []model.Keyword, attrsA, attrsB *model.ProfileAttributes) model.CompatibilityResult {
	ia := index(a)
	ib := index(b)

	var common []model.Keyword
	for text, ta := range ia {
		tb, ok := ib[text]
		if !ok {
			continue
		}
		kw := model.Keyword{Text: text, Weight: math.Min(ta.weight, tb.weight), Category: ta.category}
		if kw.Category == "" {
			kw.Category = tb.category
		}
		common = append(common, kw)
	}
	keyword.SortByWeight(common)
	if common == nil {
		common = []model.Keyword{}
	}

	bd := model.Breakdown{
		Keyword:      round1(s.weights.Overlap * overlapRatio(ia, ib, common)),
		Diversity:    round1(s.weights.Diversity * diversityRatio(ia, ib)),
		Completeness: round1(s.weights.Completeness * (completeness(attrsA, len(ia)) + completeness(attrsB, len(ib))) / 2),
		Location:     round1(s.weights.Location * locationRatio(attrsA, attrsB)),
	}
	if attrsB.PremiumActive(s.now()) {
		bd.Premium = round1(s.weights.Premium)
	}

	score := round1(bd.Total())
	score = math.Max(0, math.Min(100, score))

	return model.CompatibilityResult{
		Score:          score,
		CommonKeywords: common,
		TotalCommon:    len(common),
		Breakdown:      bd,
	}
}

// index maps normalized text to its strongest weight.
func index(kws []model.Keyword) map[string]term {
	out := make(map[string]term, len(kws))
	for _, kw := range kws {
		text := keyword.Normalize(kw.Text)
		if text == "" {
			continue
		}
		w := keyword.ClampWeight(kw.Weight)
		prev, ok := out[text]
		if !ok || w > prev.weight {
			cat := kw.Category
			if ok && cat == "" {
				cat = prev.category
			}
			out[text] = term{weight: w, category: keyword.Normalize(cat)}
		}
	}
	return out
}

// overlapRatio normalizes the shared weight against the smaller profile's
// effective total, where shared terms count at their capped weight.
func overlapRatio(ia, ib map[string]term, common []model.Keyword) float64 {
	var shared float64
	for _, kw := range common {
		shared += kw.Weight
	}
	effA, effB := shared, shared
	for text, t := range ia {
		if _, ok := ib[text]; !ok {
			effA += t.weight
		}
	}
	for text, t := range ib {
		if _, ok := ia[text]; !ok {
			effB += t.weight
		}
	}
	denom := math.Min(effA, effB)
	if denom <= 0 {
		return 0
	}
	return math.Min(shared/denom, 1)
}

// diversityRatio is the share of non-shared terms that sit next to the other
// side's skills: same category, or a shared word.
func diversityRatio(ia, ib map[string]term) float64 {
	catsA, tokensA := features(ia)
	catsB, tokensB := features(ib)

	var unique, adjacent int
	count := func(own map[string]term, other map[string]term, cats, tokens map[string]struct{}) {
		for text, t := range own {
			if _, shared := other[text]; shared {
				continue
			}
			unique++
			if isAdjacent(text, t, cats, tokens) {
				adjacent++
			}
		}
	}
	count(ia, ib, catsB, tokensB)
	count(ib, ia, catsA, tokensA)

	if unique == 0 {
		return 0
	}
	return float64(adjacent) / float64(unique)
}

func isAdjacent(text string, t term, cats, tokens map[string]struct{}) bool {
	if t.category != "" {
		if _, ok := cats[t.category]; ok {
			return true
		}
	}
	for _, tok := range tokenize(text) {
		if _, ok := tokens[tok]; ok {
			return true
		}
	}
	return false
}

func features(idx map[string]term) (cats, tokens map[string]struct{}) {
	cats = make(map[string]struct{})
	tokens = make(map[string]struct{})
	for text, t := range idx {
		if t.category != "" {
			cats[t.category] = struct{}{}
		}
		for _, tok := range tokenize(text) {
			tokens[tok] = struct{}{}
		}
	}
	return cats, tokens
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#'
	})
	out := fields[:0]
	for _, f := range fields {
		if len(f) >= minTokenLen {
			out = append(out, f)
		}
	}
	return out
}

// completeness rates one side in [0, 1].
func completeness(attrs *model.ProfileAttributes, keywords int) float64 {
	var c float64
	if attrs != nil {
		if strings.TrimSpace(attrs.Bio) != "" {
			c += 0.25
		}
		if strings.TrimSpace(attrs.Location) != "" {
			c += 0.25
		}
	}
	c += 0.5 * math.Min(float64(keywords)/richKeywordSize, 1)
	return c
}

// locationRatio is 1 for the same place, regionFactor for the same region and
// 0 otherwise.
func locationRatio(a, b *model.ProfileAttributes) float64 {
	if a == nil || b == nil {
		return 0
	}
	la := keyword.Normalize(a.Location)
	lb := keyword.Normalize(b.Location)
	if la == "" || lb == "" {
		return 0
	}
	if la == lb {
		return 1
	}
	if region(la) != "" && region(la) == region(lb) {
		return regionFactor
	}
	tokens := make(map[string]struct{})
	for _, tok := range tokenize(la) {
		if len(tok) >= regionTokenLen {
			tokens[tok] = struct{}{}
		}
	}
	for _, tok := range tokenize(lb) {
		if _, ok := tokens[tok]; ok {
			return regionFactor
		}
	}
	return 0
}

// region returns the last comma-separated part of a multi-part location.
func region(loc string) string {
	i := strings.LastIndex(loc, ",")
	if i < 0 {
		return ""
	}
	return strings.TrimSpace(loc[i+1:])
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
