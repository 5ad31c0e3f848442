package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/amishk599/talentmesh/internal/model"
)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

var (
	alice = model.Owner{Type: model.OwnerUser, ID: "alice"}
	bob   = model.Owner{Type: model.OwnerUser, ID: "bob"}
	cand1 = model.Owner{Type: model.OwnerCandidate, ID: "cand-1", OrgID: "org-1"}
	cand2 = model.Owner{Type: model.OwnerCandidate, ID: "cand-2", OrgID: "org-2"}
)

func kw(text string, weight float64) model.Keyword {
	return model.Keyword{Text: text, Weight: weight, Source: model.SourceResume, Sources: []model.SourceType{model.SourceResume}}
}

func TestOpenUnknownDialect(t *testing.T) {
	_, err := Open(context.Background(), Dialect("oracle"), "", PoolOptions{})
	if err == nil {
		t.Fatal("expected error for unknown dialect")
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	for i := 0; i < 2; i++ {
		s, err := NewSQLiteStore(dbPath)
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		s.Close()
	}
}

func TestSaveProfileThenGetProfile(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	err := s.SaveProfile(ctx, model.KeywordProfile{
		Owner:       cand1,
		Keywords:    []model.Keyword{kw("go", 1.0), kw("kubernetes", 0.9)},
		LastUpdated: now,
	})
	if err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}

	got, err := s.GetProfile(ctx, model.Owner{Type: model.OwnerCandidate, ID: "cand-1"})
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if got.Owner.OrgID != "org-1" {
		t.Errorf("expected org id org-1, got %q", got.Owner.OrgID)
	}
	if got.TotalKeywords != 2 {
		t.Errorf("expected TotalKeywords 2, got %d", got.TotalKeywords)
	}
	if len(got.Keywords) != 2 || got.Keywords[0].Text != "go" || got.Keywords[1].Weight != 0.9 {
		t.Errorf("unexpected keywords: %+v", got.Keywords)
	}
	if !got.LastUpdated.Equal(now) {
		t.Errorf("expected LastUpdated %v, got %v", now, got.LastUpdated)
	}
}

func TestSaveProfileReplacesWholesale(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveProfile(ctx, model.KeywordProfile{Owner: alice, Keywords: []model.Keyword{kw("go", 1), kw("rust", 1)}}); err != nil {
		t.Fatalf("first SaveProfile: %v", err)
	}
	if err := s.SaveProfile(ctx, model.KeywordProfile{Owner: alice, Keywords: []model.Keyword{kw("python", 1)}}); err != nil {
		t.Fatalf("second SaveProfile: %v", err)
	}

	got, err := s.GetProfile(ctx, alice)
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if len(got.Keywords) != 1 || got.Keywords[0].Text != "python" || got.TotalKeywords != 1 {
		t.Errorf("expected profile replaced by [python], got %+v", got)
	}
}

func TestSaveProfileRejectsInvalidOwner(t *testing.T) {
	s := newTestStore(t)

	err := s.SaveProfile(context.Background(), model.KeywordProfile{Owner: model.Owner{Type: "robot", ID: "x"}})
	var ve *model.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestGetProfileUnknownReturnsNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetProfile(context.Background(), alice)
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAttributesRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	expires := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	attrs := model.ProfileAttributes{Location: "Berlin, Germany", Bio: "Backend engineer", IsPremium: true, PremiumExpiresAt: &expires}
	if err := s.SaveAttributes(ctx, alice, attrs); err != nil {
		t.Fatalf("SaveAttributes: %v", err)
	}

	got, err := s.GetAttributes(ctx, alice)
	if err != nil {
		t.Fatalf("GetAttributes: %v", err)
	}
	if got == nil {
		t.Fatal("expected attributes, got nil")
	}
	if got.Location != attrs.Location || got.Bio != attrs.Bio || !got.IsPremium {
		t.Errorf("unexpected attributes: %+v", got)
	}
	if got.PremiumExpiresAt == nil || !got.PremiumExpiresAt.Equal(expires) {
		t.Errorf("expected expiry %v, got %v", expires, got.PremiumExpiresAt)
	}
}

func TestGetAttributesMissingReturnsNil(t *testing.T) {
	s := newTestStore(t)

	got, err := s.GetAttributes(context.Background(), bob)
	if err != nil {
		t.Fatalf("GetAttributes: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil attributes, got %+v", got)
	}
}

func TestListPoolFiltersByTypeAndOrg(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, o := range []model.Owner{alice, bob, cand1, cand2} {
		if err := s.SaveProfile(ctx, model.KeywordProfile{Owner: o, Keywords: []model.Keyword{kw("go", 1)}}); err != nil {
			t.Fatalf("SaveProfile %s: %v", o.Key(), err)
		}
	}
	if err := s.SaveAttributes(ctx, bob, model.ProfileAttributes{Location: "Paris"}); err != nil {
		t.Fatalf("SaveAttributes: %v", err)
	}

	users, err := s.ListPool(ctx, model.OwnerUser, "")
	if err != nil {
		t.Fatalf("ListPool users: %v", err)
	}
	if len(users) != 2 || users[0].ID != "alice" || users[1].ID != "bob" {
		t.Fatalf("unexpected user pool: %+v", users)
	}
	if users[0].Attrs != nil {
		t.Errorf("expected alice without attributes, got %+v", users[0].Attrs)
	}
	if users[1].Attrs == nil || users[1].Attrs.Location != "Paris" {
		t.Errorf("expected bob located in Paris, got %+v", users[1].Attrs)
	}

	org1, err := s.ListPool(ctx, model.OwnerCandidate, "org-1")
	if err != nil {
		t.Fatalf("ListPool org-1: %v", err)
	}
	if len(org1) != 1 || org1[0].ID != "cand-1" {
		t.Errorf("expected only cand-1 in org-1 pool, got %+v", org1)
	}
}

func TestSourcesAndStaleOwners(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	t0 := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	s.SetClock(fixedClock(t0))
	if err := s.SaveSources(ctx, alice, []model.SourceText{
		{Source: model.SourceResume, Text: "Go developer"},
		{Source: model.SourceLinkedIn, Text: "Gopher"},
	}); err != nil {
		t.Fatalf("SaveSources: %v", err)
	}
	if err := s.SaveSources(ctx, cand1, []model.SourceText{{Source: model.SourceResume, Text: "Python"}}); err != nil {
		t.Fatalf("SaveSources: %v", err)
	}

	// alice is indexed after her sources; cand1 has no profile yet.
	if err := s.SaveProfile(ctx, model.KeywordProfile{Owner: alice, Keywords: []model.Keyword{kw("go", 1)}, LastUpdated: t0.Add(time.Minute)}); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}

	stale, err := s.StaleOwners(ctx, 10)
	if err != nil {
		t.Fatalf("StaleOwners: %v", err)
	}
	if len(stale) != 1 || stale[0].ID != "cand-1" || stale[0].OrgID != "org-1" {
		t.Fatalf("expected only cand-1 stale, got %+v", stale)
	}

	// A later source edit makes alice stale again.
	s.SetClock(fixedClock(t0.Add(time.Hour)))
	if err := s.SaveSources(ctx, alice, []model.SourceText{{Source: model.SourceResume, Text: "Go and Rust developer"}}); err != nil {
		t.Fatalf("SaveSources: %v", err)
	}
	stale, err = s.StaleOwners(ctx, 10)
	if err != nil {
		t.Fatalf("StaleOwners: %v", err)
	}
	if len(stale) != 2 {
		t.Fatalf("expected 2 stale owners, got %+v", stale)
	}

	sources, err := s.GetSources(ctx, alice)
	if err != nil {
		t.Fatalf("GetSources: %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(sources))
	}
	if sources[0].Source != model.SourceLinkedIn || sources[1].Text != "Go and Rust developer" {
		t.Errorf("unexpected sources: %+v", sources)
	}
}

func newRecord(id, org string, created time.Time) model.SearchRecord {
	minScore := 40.0
	return model.SearchRecord{
		ID:             id,
		OrganizationID: org,
		QueryText:      "Senior Go engineer building distributed systems",
		QueryKeywords:  []model.Keyword{kw("go", 1.5)},
		Filters:        model.SearchFilters{IncludeOrgPool: true, MinScore: &minScore},
		ResultsCount:   3,
		CreatedBy:      "recruiter-1",
		CreatedAt:      created,
	}
}

func TestSearchHistoryLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	t0 := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	if err := s.CreateSearch(ctx, newRecord("s1", "org-1", t0)); err != nil {
		t.Fatalf("CreateSearch s1: %v", err)
	}
	if err := s.CreateSearch(ctx, newRecord("s2", "org-1", t0.Add(time.Minute))); err != nil {
		t.Fatalf("CreateSearch s2: %v", err)
	}
	if err := s.CreateSearch(ctx, newRecord("s3", "org-2", t0)); err != nil {
		t.Fatalf("CreateSearch s3: %v", err)
	}

	all, err := s.ListSearches(ctx, "org-1", false)
	if err != nil {
		t.Fatalf("ListSearches: %v", err)
	}
	if len(all) != 2 || all[0].ID != "s2" || all[1].ID != "s1" {
		t.Fatalf("expected [s2 s1] newest first, got %+v", all)
	}
	if all[1].Filters.MinScore == nil || *all[1].Filters.MinScore != 40 {
		t.Errorf("expected filters to round-trip, got %+v", all[1].Filters)
	}

	if err := s.UpdateSearch(ctx, "org-1", "s1", true, "Go hires"); err != nil {
		t.Fatalf("UpdateSearch: %v", err)
	}
	saved, err := s.ListSearches(ctx, "org-1", true)
	if err != nil {
		t.Fatalf("ListSearches saved: %v", err)
	}
	if len(saved) != 1 || saved[0].Name != "Go hires" || !saved[0].IsSaved {
		t.Fatalf("expected s1 saved as 'Go hires', got %+v", saved)
	}

	// Another org cannot see or touch org-1's searches.
	if _, err := s.GetSearch(ctx, "org-2", "s1"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound across orgs, got %v", err)
	}
	if err := s.UpdateSearch(ctx, "org-2", "s1", false, ""); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound on cross-org update, got %v", err)
	}

	if err := s.DeleteSearch(ctx, "org-1", "s2"); err != nil {
		t.Fatalf("DeleteSearch: %v", err)
	}
	if err := s.DeleteSearch(ctx, "org-1", "s2"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestPruneSearchesKeepsSaved(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	s.SetClock(fixedClock(now))

	old := newRecord("old", "org-1", now.Add(-48*time.Hour))
	oldSaved := newRecord("old-saved", "org-1", now.Add(-48*time.Hour))
	oldSaved.IsSaved = true
	fresh := newRecord("fresh", "org-1", now.Add(-time.Hour))
	for _, r := range []model.SearchRecord{old, oldSaved, fresh} {
		if err := s.CreateSearch(ctx, r); err != nil {
			t.Fatalf("CreateSearch %s: %v", r.ID, err)
		}
	}

	n, err := s.PruneSearches(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("PruneSearches: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 pruned search, got %d", n)
	}

	left, err := s.ListSearches(ctx, "org-1", false)
	if err != nil {
		t.Fatalf("ListSearches: %v", err)
	}
	if len(left) != 2 {
		t.Errorf("expected saved and fresh searches to survive, got %+v", left)
	}
}

func TestRebindPostgres(t *testing.T) {
	s := &SQLStore{dialect: DialectPostgres}
	got := s.rebind("SELECT a FROM t WHERE b = ? AND c = ?")
	want := "SELECT a FROM t WHERE b = $1 AND c = $2"
	if got != want {
		t.Errorf("rebind = %q, want %q", got, want)
	}
}

func TestUpsertPerDialect(t *testing.T) {
	cols := []string{"k", "v"}
	keys := []string{"k"}

	mysql := (&SQLStore{dialect: DialectMySQL}).upsert("t", cols, keys)
	if want := "INSERT INTO t (k, v) VALUES (?, ?) ON DUPLICATE KEY UPDATE v = VALUES(v)"; mysql != want {
		t.Errorf("mysql upsert = %q, want %q", mysql, want)
	}

	pg := (&SQLStore{dialect: DialectPostgres}).upsert("t", cols, keys)
	if want := "INSERT INTO t (k, v) VALUES ($1, $2) ON CONFLICT (k) DO UPDATE SET v = excluded.v"; pg != want {
		t.Errorf("postgres upsert = %q, want %q", pg, want)
	}
}
