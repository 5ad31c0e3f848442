package scorer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/talentmesh/internal/keyword"
	"github.com/amishk599/talentmesh/internal/model"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestScorer() *Scorer {
	return New(WithClock(func() time.Time { return fixedNow }))
}

func kws(pairs ...any) []model.Keyword {
	var out []model.Keyword
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, model.Keyword{Text: pairs[i].(string), Weight: pairs[i+1].(float64), Source: model.SourceResume})
	}
	return out
}

func TestScore_ReactNodeVsReactPython(t *testing.T) {
	s := newTestScorer()
	got := s.Score(kws("react", 1.0, "node", 1.0), kws("react", 1.0, "python", 1.0), nil, nil)

	require.Len(t, got.CommonKeywords, 1)
	assert.Equal(t, "react", got.CommonKeywords[0].Text)
	assert.Equal(t, 1.0, got.CommonKeywords[0].Weight)
	assert.Equal(t, 1, got.TotalCommon)
	assert.Equal(t, 27.5, got.Breakdown.Keyword)
	assert.Greater(t, got.Score, 0.0)
	assert.Less(t, got.Score, 60.0)
}

func TestScore_Deterministic(t *testing.T) {
	s := newTestScorer()
	a := kws("go", 1.0, "kubernetes", 0.9, "postgres", 1.5, "grpc", 0.7)
	b := kws("go", 0.9, "postgres", 1.0, "kafka", 1.0, "docker", 1.0)
	attrs := &model.ProfileAttributes{Location: "Berlin, Germany", Bio: "backend"}

	first := s.Score(a, b, attrs, attrs)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, s.Score(a, b, attrs, attrs))
	}
}

func TestScore_CommonKeywordsSymmetric(t *testing.T) {
	s := newTestScorer()
	a := kws("go", 1.0, "rust", 0.9, "sql", 1.5)
	b := kws("sql", 1.0, "go", 1.0, "java", 1.0)

	ab := s.Score(a, b, nil, nil)
	ba := s.Score(b, a, nil, nil)
	assert.ElementsMatch(t, keyword.Texts(ab.CommonKeywords), keyword.Texts(ba.CommonKeywords))
	assert.Equal(t, ab.Breakdown.Keyword, ba.Breakdown.Keyword)
}

func TestScore_CommonKeywordsOrdering(t *testing.T) {
	s := newTestScorer()
	a := kws("beta", 1.0, "alpha", 1.0, "gamma", 1.5)
	b := kws("alpha", 1.0, "beta", 1.5, "gamma", 1.5)

	got := s.Score(a, b, nil, nil)
	assert.Equal(t, []string{"gamma", "alpha", "beta"}, keyword.Texts(got.CommonKeywords))
}

func TestScore_Bounds(t *testing.T) {
	s := newTestScorer()
	full := &model.ProfileAttributes{Location: "NYC", Bio: "x", IsPremium: true}
	same := kws("a", 1.5, "b", 1.5, "c", 1.5, "d", 1.5, "e", 1.5, "f", 1.5, "g", 1.5, "h", 1.5, "i", 1.5, "j", 1.5, "k", 1.5)

	got := s.Score(same, same, full, full)
	assert.LessOrEqual(t, got.Score, 100.0)
	assert.GreaterOrEqual(t, got.Score, 0.0)
	assert.Equal(t, 55.0, got.Breakdown.Keyword)
	assert.Equal(t, 10.0, got.Breakdown.Completeness)
	assert.Equal(t, 10.0, got.Breakdown.Location)
	assert.Equal(t, 5.0, got.Breakdown.Premium)
}

func TestScore_BreakdownSumsToScore(t *testing.T) {
	s := newTestScorer()
	a := kws("go", 1.0, "grpc", 0.9, "event sourcing", 0.7)
	b := kws("go", 0.9, "grpc gateway", 1.0, "python", 1.0)
	got := s.Score(a, b, &model.ProfileAttributes{Location: "Austin, TX"}, &model.ProfileAttributes{Location: "Dallas, TX", Bio: "hi"})

	assert.InDelta(t, got.Score, got.Breakdown.Total(), 0.05)
}

func TestScore_MonotonicInMatchingKeywords(t *testing.T) {
	s := newTestScorer()
	a := kws("go", 1.0, "sql", 1.0, "redis", 0.9, "kafka", 1.5, "docker", 0.7)
	b := kws("go", 1.0, "java", 1.0)

	prev := s.Score(a, b, nil, nil).Breakdown.Keyword
	for _, add := range []model.Keyword{
		{Text: "sql", Weight: 0.5},
		{Text: "kafka", Weight: 1.5},
		{Text: "redis", Weight: 0.1},
		{Text: "docker", Weight: 1.0},
	} {
		b = append(b, add)
		cur := s.Score(a, b, nil, nil).Breakdown.Keyword
		assert.GreaterOrEqual(t, cur, prev, "adding %q", add.Text)
		prev = cur
	}
}

func TestScore_EmptyProfiles(t *testing.T) {
	s := newTestScorer()

	got := s.Score(nil, nil, nil, nil)
	assert.Equal(t, 0.0, got.Breakdown.Keyword)
	assert.Equal(t, 0.0, got.Score)
	assert.Empty(t, got.CommonKeywords)

	oneSided := s.Score(kws("go", 1.0), nil, nil, nil)
	assert.Equal(t, 0.0, oneSided.Breakdown.Keyword)
}

func TestScore_EmptyProfilesUseAttributesOnly(t *testing.T) {
	s := newTestScorer()
	attrs := &model.ProfileAttributes{Location: "Paris", Bio: "designer"}

	got := s.Score(nil, nil, attrs, attrs)
	assert.Equal(t, 0.0, got.Breakdown.Keyword)
	assert.Equal(t, 0.0, got.Breakdown.Diversity)
	assert.Equal(t, 5.0, got.Breakdown.Completeness)
	assert.Equal(t, 10.0, got.Breakdown.Location)
	assert.Equal(t, 15.0, got.Score)
}

func TestScore_ExpiredPremiumMatchesNonPremium(t *testing.T) {
	s := newTestScorer()
	yesterday := fixedNow.Add(-24 * time.Hour)
	a := kws("go", 1.0, "sql", 1.0)
	b := kws("go", 1.0, "python", 1.0)

	expired := s.Score(a, b, nil, &model.ProfileAttributes{IsPremium: true, PremiumExpiresAt: &yesterday})
	plain := s.Score(a, b, nil, &model.ProfileAttributes{IsPremium: false})
	assert.Equal(t, plain, expired)
	assert.Equal(t, 0.0, expired.Breakdown.Premium)
}

func TestScore_ActivePremiumIsDirectional(t *testing.T) {
	s := newTestScorer()
	tomorrow := fixedNow.Add(24 * time.Hour)
	premium := &model.ProfileAttributes{IsPremium: true, PremiumExpiresAt: &tomorrow}
	a := kws("go", 1.0)
	b := kws("go", 1.0)

	toPremium := s.Score(a, b, nil, premium)
	fromPremium := s.Score(a, b, premium, nil)
	assert.Equal(t, 5.0, toPremium.Breakdown.Premium)
	assert.Equal(t, 0.0, fromPremium.Breakdown.Premium)
}

func TestScore_Location(t *testing.T) {
	s := newTestScorer()
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"exact", "San Francisco, CA", "san francisco,  ca", 10},
		{"same region", "Austin, TX", "Dallas, TX", 6},
		{"shared city token", "Greater London", "London, UK", 6},
		{"mismatch", "Tokyo", "Lagos", 0},
		{"absent", "", "Lagos", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Score(nil, nil, &model.ProfileAttributes{Location: tt.a}, &model.ProfileAttributes{Location: tt.b})
			assert.Equal(t, tt.want, got.Breakdown.Location)
		})
	}
}

func TestScore_DiversityRewardsAdjacentSkills(t *testing.T) {
	s := newTestScorer()
	a := []model.Keyword{
		{Text: "react", Weight: 1, Category: "frontend"},
		{Text: "postgres", Weight: 1, Category: "database"},
	}
	adjacent := []model.Keyword{
		{Text: "react", Weight: 1, Category: "frontend"},
		{Text: "mysql", Weight: 1, Category: "database"},
	}
	unrelated := []model.Keyword{
		{Text: "react", Weight: 1, Category: "frontend"},
		{Text: "welding", Weight: 1, Category: "trades"},
	}

	withAdjacent := s.Score(a, adjacent, nil, nil)
	withUnrelated := s.Score(a, unrelated, nil, nil)
	assert.Equal(t, 15.0, withAdjacent.Breakdown.Diversity)
	assert.Equal(t, 0.0, withUnrelated.Breakdown.Diversity)
}

func TestScore_DiversityTokenAdjacency(t *testing.T) {
	s := newTestScorer()
	got := s.Score(kws("react", 1.0, "go", 1.0), kws("react native", 1.0, "go", 1.0), nil, nil)
	assert.Greater(t, got.Breakdown.Diversity, 0.0)
}

func TestWeights_Validate(t *testing.T) {
	assert.NoError(t, DefaultWeights().Validate())
	assert.Error(t, Weights{Overlap: 90, Diversity: 20}.Validate())
	assert.Error(t, Weights{Overlap: -1}.Validate())
}

func TestWithWeights(t *testing.T) {
	s := New(WithWeights(Weights{Overlap: 100}), WithClock(func() time.Time { return fixedNow }))
	got := s.Score(kws("go", 1.0), kws("go", 1.0), nil, nil)
	assert.Equal(t, 100.0, got.Score)
}
