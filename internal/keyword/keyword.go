// Package keyword normalizes and merges keyword lists.
package keyword

import (
	"slices"
	"sort"
	"strings"

	"github.com/amishk599/talentmesh/internal/model"
)

// Normalize lowercases text, trims it and collapses internal whitespace.
func Normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// ClampWeight limits w to [0, model.MaxWeight].
func ClampWeight(w float64) float64 {
	if w < 0 {
		return 0
	}
	if w > model.MaxWeight {
		return model.MaxWeight
	}
	return w
}

// New builds a canonical keyword. It returns false when text normalizes to "".
func New(text string, weight float64, source model.SourceType, category string) (model.Keyword, bool) {
	t := Normalize(text)
	if t == "" {
		return model.Keyword{}, false
	}
	return model.Keyword{
		Text:     t,
		Weight:   ClampWeight(weight),
		Source:   source,
		Sources:  []model.SourceType{source},
		Category: Normalize(category),
	}, true
}

// Merge combines keyword lists by text. On collision the max weight wins and
// provenance is unioned. The result does not depend on input order.
func Merge(lists ...[]model.Keyword) []model.Keyword {
	byText := make(map[string]model.Keyword)
	for _, list := range lists {
		for _, kw := range list {
			kw.Text = Normalize(kw.Text)
			if kw.Text == "" {
				continue
			}
			kw.Weight = ClampWeight(kw.Weight)
			kw.Sources = withSource(kw.Sources, kw.Source)

			prev, ok := byText[kw.Text]
			if !ok {
				byText[kw.Text] = kw
				continue
			}
			byText[kw.Text] = combine(prev, kw)
		}
	}

	out := make([]model.Keyword, 0, len(byText))
	for _, kw := range byText {
		out = append(out, kw)
	}
	SortByWeight(out)
	return out
}

// combine merges two keywords with the same text.
func combine(a, b model.Keyword) model.Keyword {
	merged := a
	if b.Weight > a.Weight || (b.Weight == a.Weight && b.Source.Rank() < a.Source.Rank()) {
		merged.Weight = b.Weight
		merged.Source = b.Source
	}
	if b.Category != "" && (merged.Category == "" || b.Category < merged.Category) {
		merged.Category = b.Category
	}
	merged.Sources = withSource(append(slices.Clone(a.Sources), b.Sources...), "")
	return merged
}

// withSource returns the sorted, deduplicated union of sources and extra.
func withSource(sources []model.SourceType, extra model.SourceType) []model.SourceType {
	set := make(map[model.SourceType]struct{}, len(sources)+1)
	for _, s := range sources {
		if s != "" {
			set[s] = struct{}{}
		}
	}
	if extra != "" {
		set[extra] = struct{}{}
	}
	out := make([]model.SourceType, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rank() != out[j].Rank() {
			return out[i].Rank() < out[j].Rank()
		}
		return out[i] < out[j]
	})
	return out
}

// SortByWeight orders keywords by weight descending, then text ascending.
func SortByWeight(kws []model.Keyword) {
	sort.Slice(kws, func(i, j int) bool {
		if kws[i].Weight != kws[j].Weight {
			return kws[i].Weight > kws[j].Weight
		}
		return kws[i].Text < kws[j].Text
	})
}

// Texts returns the text of every keyword in order.
func Texts(kws []model.Keyword) []string {
	out := make([]string, len(kws))
	for i, kw := range kws {
		out[i] = kw.Text
	}
	return out
}
