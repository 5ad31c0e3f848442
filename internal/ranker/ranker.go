// Package ranker scores candidate pools against a query profile and orders
// the results.
package ranker

import (
	"sort"

	"github.com/amishk599/talentmesh/internal/model"
)

const (
	// DefaultLimit applies when Options.Limit is zero.
	DefaultLimit = 20
	// Unlimited disables truncation.
	Unlimited = -1
)

// Scorer is the pairwise scoring function the ranker applies.
type Scorer interface {
	Score(a, b []model.Keyword, attrsA, attrsB *model.ProfileAttributes) model.CompatibilityResult
}

// Options control one Rank call.
type Options struct {
	Limit      int
	MinScore   *float64
	Source     model.PoolSource
	QueryAttrs *model.ProfileAttributes
}

// Ranker applies a Scorer across pools.
type Ranker struct {
	scorer Scorer
}

// New returns a Ranker backed by scorer.
func New(scorer Scorer) *Ranker {
	return &Ranker{scorer: scorer}
}

// Rank scores every pool member that has keywords, filters by MinScore,
// sorts and truncates.
func (r *Ranker) Rank(query []model.Keyword, pool []model.PoolMember, opts Options) []model.RankedMatch {
	out := make([]model.RankedMatch, 0, len(pool))
	for _, m := range pool {
		if len(m.Keywords) == 0 {
			continue
		}
		res := r.scorer.Score(query, m.Keywords, opts.QueryAttrs, m.Attrs)
		if opts.MinScore != nil && res.Score < *opts.MinScore {
			continue
		}
		out = append(out, model.RankedMatch{
			ID:     m.ID,
			Source: opts.Source,
			Result: res,
			Band:   Band(res.Score),
			Attrs:  m.Attrs,
		})
	}
	Sort(out)
	return truncate(out, opts.Limit)
}

// Merge concatenates ranked lists from several pools into one globally
// sorted list. Ids are only unique within a pool: an org candidate and a
// public user may share an id and are both kept. A repeated (source, id)
// pair keeps its better-ranked entry.
func Merge(limit int, lists ...[]model.RankedMatch) []model.RankedMatch {
	var all []model.RankedMatch
	for _, l := range lists {
		all = append(all, l...)
	}
	Sort(all)

	type poolID struct {
		source model.PoolSource
		id     string
	}
	seen := make(map[poolID]struct{}, len(all))
	out := all[:0]
	for _, m := range all {
		k := poolID{m.Source, m.ID}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, m)
	}
	return truncate(out, limit)
}

// Sort orders matches by score desc, common keyword count desc, then id asc.
func Sort(ms []model.RankedMatch) {
	sort.SliceStable(ms, func(i, j int) bool {
		a, b := ms[i], ms[j]
		if a.Result.Score != b.Result.Score {
			return a.Result.Score > b.Result.Score
		}
		if a.Result.TotalCommon != b.Result.TotalCommon {
			return a.Result.TotalCommon > b.Result.TotalCommon
		}
		if a.ID != b.ID {
			return a.ID < b.ID
		}
		return a.Source < b.Source
	})
}

// Band classifies a score. Bands are labels only.
func Band(score float64) model.QualityBand {
	switch {
	case score >= 75:
		return model.BandExcellent
	case score >= 60:
		return model.BandGreat
	case score >= 45:
		return model.BandGood
	case score >= 30:
		return model.BandModerate
	default:
		return model.BandLow
	}
}

func truncate(ms []model.RankedMatch, limit int) []model.RankedMatch {
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit > 0 && len(ms) > limit {
		ms = ms[:limit]
	}
	return ms
}
