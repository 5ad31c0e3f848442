package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/amishk599/talentmesh/internal/model"
	"github.com/amishk599/talentmesh/internal/ranker"
)

// ProfileLoader loads a profile and its attributes.
type ProfileLoader interface {
	Load(ctx context.Context, owner model.Owner) (model.KeywordProfile, *model.ProfileAttributes, error)
}

// PeerOptions control one peer match.
type PeerOptions struct {
	Limit    int
	MinScore *float64
}

// PeerMatcher ranks other users against one user's profile.
type PeerMatcher struct {
	loader ProfileLoader
	pool   PoolFetcher
	ranker *ranker.Ranker
	logger *slog.Logger
}

// NewPeerMatcher creates a peer matcher over the public user pool.
func NewPeerMatcher(loader ProfileLoader, pool PoolFetcher, r *ranker.Ranker, logger *slog.Logger) *PeerMatcher {
	return &PeerMatcher{loader: loader, pool: pool, ranker: r, logger: logger}
}

// Match returns the users most compatible with userID, excluding the user.
// A user without keywords gets an empty list.
func (m *PeerMatcher) Match(ctx context.Context, userID string, opts PeerOptions) ([]model.RankedMatch, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, &model.ValidationError{Field: "user_id", Reason: "is required"}
	}
	owner := model.Owner{Type: model.OwnerUser, ID: userID}

	p, attrs, err := m.loader.Load(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("matching %s: %w", userID, err)
	}
	if len(p.Keywords) == 0 {
		m.logger.Debug("user has no keywords, skipping match", "user", userID)
		return []model.RankedMatch{}, nil
	}

	pool, err := m.pool.Fetch(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("matching %s: %w", userID, &model.PoolFetchError{Pool: model.PoolPublic, Err: err})
	}
	others := make([]model.PoolMember, 0, len(pool))
	for _, member := range pool {
		if member.ID != userID {
			others = append(others, member)
		}
	}

	matches := m.ranker.Rank(p.Keywords, others, ranker.Options{
		Limit:      opts.Limit,
		MinScore:   opts.MinScore,
		Source:     model.PoolPublic,
		QueryAttrs: attrs,
	})
	m.logger.Debug("peer match completed", "user", userID, "pool", len(others), "matches", len(matches))
	return matches, nil
}
