package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/talentmesh/internal/model"
	"github.com/amishk599/talentmesh/internal/ranker"
)

type stubLoader struct {
	profiles map[string]model.KeywordProfile
	attrs    map[string]*model.ProfileAttributes
	err      error
}

func (l *stubLoader) Load(_ context.Context, o model.Owner) (model.KeywordProfile, *model.ProfileAttributes, error) {
	if l.err != nil {
		return model.KeywordProfile{}, nil, l.err
	}
	p, ok := l.profiles[o.ID]
	if !ok {
		p = model.KeywordProfile{Owner: o}
	}
	return p, l.attrs[o.ID], nil
}

func newPeerMatcher(pool *stubPool) *PeerMatcher {
	loader := &stubLoader{profiles: map[string]model.KeywordProfile{
		"alice": {Keywords: kws("react", "node")},
	}}
	return NewPeerMatcher(loader, pool, ranker.New(overlapScorer{}), discardLogger())
}

func TestPeerMatch_ExcludesSelfAndRanks(t *testing.T) {
	pool := &stubPool{members: []model.PoolMember{
		{ID: "alice", Keywords: kws("react", "node")},
		{ID: "bob", Keywords: kws("react", "node")},
		{ID: "carol", Keywords: kws("react", "python")},
		{ID: "dave", Keywords: kws("cobol")},
	}}
	m := newPeerMatcher(pool)

	got, err := m.Match(context.Background(), "alice", PeerOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"bob", "carol", "dave"}, ids(got))
	assert.Greater(t, got[0].Result.Score, got[1].Result.Score)
}

func TestPeerMatch_LimitAndMinScore(t *testing.T) {
	pool := &stubPool{members: []model.PoolMember{
		{ID: "bob", Keywords: kws("react", "node")},
		{ID: "carol", Keywords: kws("react")},
		{ID: "dave", Keywords: kws("cobol")},
	}}
	m := newPeerMatcher(pool)
	minScore := 10.0

	got, err := m.Match(context.Background(), "alice", PeerOptions{MinScore: &minScore})
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "carol"}, ids(got))

	got, err = m.Match(context.Background(), "alice", PeerOptions{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, ids(got))
}

func TestPeerMatch_UserWithoutKeywordsGetsEmptyList(t *testing.T) {
	m := newPeerMatcher(&stubPool{members: []model.PoolMember{{ID: "bob", Keywords: kws("go")}}})

	got, err := m.Match(context.Background(), "newcomer", PeerOptions{})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestPeerMatch_EmptyUserIDIsValidationError(t *testing.T) {
	m := newPeerMatcher(&stubPool{})

	_, err := m.Match(context.Background(), " ", PeerOptions{})
	var ve *model.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestPeerMatch_PoolFailureSurfaces(t *testing.T) {
	m := newPeerMatcher(&stubPool{err: errors.New("timeout")})

	_, err := m.Match(context.Background(), "alice", PeerOptions{})
	var pe *model.PoolFetchError
	assert.ErrorAs(t, err, &pe)
}
