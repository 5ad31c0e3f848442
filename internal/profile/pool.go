package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/amishk599/talentmesh/internal/model"
)

// PoolLister is the store surface the pool fetchers need.
type PoolLister interface {
	ListPool(ctx context.Context, ownerType model.OwnerType, orgID string) ([]model.PoolMember, error)
}

// OrgPool fetches an organization's own candidates.
type OrgPool struct {
	store PoolLister
}

// NewOrgPool creates an org candidate pool backed by store.
func NewOrgPool(store PoolLister) *OrgPool {
	return &OrgPool{store: store}
}

// Fetch returns the candidates of orgID.
func (p *OrgPool) Fetch(ctx context.Context, orgID string) ([]model.PoolMember, error) {
	members, err := p.store.ListPool(ctx, model.OwnerCandidate, orgID)
	if err != nil {
		return nil, fmt.Errorf("fetching org pool %s: %w", orgID, err)
	}
	return members, nil
}

// PublicPool fetches every user profile on the network.
type PublicPool struct {
	store PoolLister
}

// NewPublicPool creates a public user pool backed by store.
func NewPublicPool(store PoolLister) *PublicPool {
	return &PublicPool{store: store}
}

// Fetch returns all user profiles. orgID is ignored.
func (p *PublicPool) Fetch(ctx context.Context, _ string) ([]model.PoolMember, error) {
	members, err := p.store.ListPool(ctx, model.OwnerUser, "")
	if err != nil {
		return nil, fmt.Errorf("fetching public pool: %w", err)
	}
	return members, nil
}

// ProfileReader is the store surface the Loader needs.
type ProfileReader interface {
	GetProfile(ctx context.Context, owner model.Owner) (model.KeywordProfile, error)
	GetAttributes(ctx context.Context, owner model.Owner) (*model.ProfileAttributes, error)
}

// Loader reads profiles through the cache.
type Loader struct {
	store ProfileReader
	cache model.ProfileCache
}

// NewLoader creates a cache-aside profile loader.
func NewLoader(store ProfileReader, cache model.ProfileCache) *Loader {
	return &Loader{store: store, cache: cache}
}

// Load returns the owner's profile and attributes. A missing profile yields
// an empty profile, not an error.
func (l *Loader) Load(ctx context.Context, owner model.Owner) (model.KeywordProfile, *model.ProfileAttributes, error) {
	p, ok := l.cache.Get(ctx, owner)
	if !ok {
		var err error
		p, err = l.store.GetProfile(ctx, owner)
		switch {
		case errors.Is(err, model.ErrNotFound):
			p = model.KeywordProfile{Owner: owner}
		case err != nil:
			return model.KeywordProfile{}, nil, fmt.Errorf("loading profile %s: %w", owner.Key(), err)
		default:
			l.fill(ctx, p)
		}
	}

	attrs, err := l.store.GetAttributes(ctx, owner)
	if err != nil {
		return model.KeywordProfile{}, nil, fmt.Errorf("loading attributes %s: %w", owner.Key(), err)
	}
	return p, attrs, nil
}

// fill caches p, then drops the entry again if a writer replaced the stored
// profile between our read and the Set. Its Invalidate may have landed
// before our Set and would otherwise be lost for a full TTL.
func (l *Loader) fill(ctx context.Context, p model.KeywordProfile) {
	l.cache.Set(ctx, p)
	cur, err := l.store.GetProfile(ctx, p.Owner)
	if err != nil || !cur.LastUpdated.Equal(p.LastUpdated) {
		l.cache.Invalidate(ctx, p.Owner)
	}
}
