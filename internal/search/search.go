// Package search runs org job searches over candidate pools, peer matching
// for users, and the saved-search history built on top of them.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/amishk599/talentmesh/internal/filter"
	"github.com/amishk599/talentmesh/internal/model"
	"github.com/amishk599/talentmesh/internal/ranker"
)

const (
	DefaultLimit                = 50
	DefaultMinDescriptionLength = 50
	defaultPersistTimeout       = 5 * time.Second
)

// PoolFetcher loads one candidate pool.
type PoolFetcher interface {
	Fetch(ctx context.Context, orgID string) ([]model.PoolMember, error)
}

// Options control one org search.
type Options struct {
	IncludeOrgPool    bool
	IncludePublicPool bool
	Limit             int
	MinScore          *float64
	Locations         []string
	ExcludeLocations  []string
	Persist           bool
}

// Filters returns the flags recorded on the search record.
func (o Options) Filters() model.SearchFilters {
	return model.SearchFilters{
		IncludeOrgPool:    o.IncludeOrgPool,
		IncludePublicPool: o.IncludePublicPool,
		MinScore:          o.MinScore,
		Locations:         o.Locations,
		ExcludeLocations:  o.ExcludeLocations,
	}
}

// OptionsFromFilters rebuilds search options from a stored record.
func OptionsFromFilters(f model.SearchFilters) Options {
	return Options{
		IncludeOrgPool:    f.IncludeOrgPool,
		IncludePublicPool: f.IncludePublicPool,
		MinScore:          f.MinScore,
		Locations:         f.Locations,
		ExcludeLocations:  f.ExcludeLocations,
	}
}

// Request is one org job search.
type Request struct {
	OrgID          string
	UserID         string
	JobDescription string
	Options        Options
}

// SourceCounts are the number of matches each pool contributed before the
// global truncation.
type SourceCounts struct {
	Org    int `json:"org"`
	Public int `json:"public"`
}

// ResultBundle is the outcome of a search.
type ResultBundle struct {
	SearchID     string              `json:"search_id,omitempty"`
	Job          model.JobDetails    `json:"job"`
	Requirements model.Requirements  `json:"requirements"`
	Keywords     []model.Keyword     `json:"keywords"`
	Results      []model.RankedMatch `json:"results"`
	TotalResults int                 `json:"total_results"`
	Sources      SourceCounts        `json:"sources"`
	Failed       []model.PoolSource  `json:"failed_pools,omitempty"`
}

// Config tunes an Orchestrator. Zero values select defaults.
type Config struct {
	MinDescriptionLength int
	DefaultLimit         int
	PersistTimeout       time.Duration
}

// Orchestrator runs org job searches: validate → parse → fetch pools →
// filter → rank → merge → persist.
type Orchestrator struct {
	extractor  model.KeywordExtractor
	ranker     *ranker.Ranker
	orgPool    PoolFetcher
	publicPool PoolFetcher
	history    model.HistoryStore
	cfg        Config
	newID      func() string
	now        func() time.Time
	logger     *slog.Logger
}

// NewOrchestrator creates an orchestrator wired with its dependencies.
func NewOrchestrator(
	extractor model.KeywordExtractor,
	r *ranker.Ranker,
	orgPool PoolFetcher,
	publicPool PoolFetcher,
	history model.HistoryStore,
	cfg Config,
	logger *slog.Logger,
) *Orchestrator {
	if cfg.MinDescriptionLength <= 0 {
		cfg.MinDescriptionLength = DefaultMinDescriptionLength
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = DefaultLimit
	}
	if cfg.PersistTimeout <= 0 {
		cfg.PersistTimeout = defaultPersistTimeout
	}
	return &Orchestrator{
		extractor:  extractor,
		ranker:     r,
		orgPool:    orgPool,
		publicPool: publicPool,
		history:    history,
		cfg:        cfg,
		newID:      uuid.NewString,
		now:        time.Now,
		logger:     logger,
	}
}

// Search runs one org job search. Validation failures and parse failures are
// returned; pool and persistence failures degrade the result instead.
func (o *Orchestrator) Search(ctx context.Context, req Request) (*ResultBundle, error) {
	if err := o.validate(req); err != nil {
		return nil, err
	}
	opts := req.Options

	parsed, err := o.extractor.ParseJobDescription(ctx, req.JobDescription)
	if err != nil {
		return nil, &model.ParseError{Err: err}
	}
	if len(parsed.Keywords) == 0 {
		return nil, &model.ParseError{Err: fmt.Errorf("no keywords extracted")}
	}

	orgMembers, publicMembers, failed := o.fetchPools(ctx, req.OrgID, opts)

	locFilter := filter.FromSearchFilters(opts.Filters())
	var queryAttrs *model.ProfileAttributes
	if parsed.Job.Location != "" {
		queryAttrs = &model.ProfileAttributes{Location: parsed.Job.Location}
	}
	rank := func(pool []model.PoolMember, source model.PoolSource) []model.RankedMatch {
		return o.ranker.Rank(parsed.Keywords, locFilter.Apply(pool), ranker.Options{
			Limit:      ranker.Unlimited,
			MinScore:   opts.MinScore,
			Source:     source,
			QueryAttrs: queryAttrs,
		})
	}
	orgResults := rank(orgMembers, model.PoolOrg)
	publicResults := rank(publicMembers, model.PoolPublic)

	merged := ranker.Merge(ranker.Unlimited, orgResults, publicResults)
	total := len(merged)
	limit := opts.Limit
	if limit <= 0 {
		limit = o.cfg.DefaultLimit
	}
	if len(merged) > limit {
		merged = merged[:limit]
	}

	bundle := &ResultBundle{
		Job:          parsed.Job,
		Requirements: parsed.Requirements,
		Keywords:     parsed.Keywords,
		Results:      merged,
		TotalResults: total,
		Sources:      SourceCounts{Org: len(orgResults), Public: len(publicResults)},
		Failed:       failed,
	}

	if opts.Persist {
		bundle.SearchID = o.persist(ctx, req, parsed.Keywords, total)
	}

	o.logger.Info("search completed",
		"org", req.OrgID,
		"keywords", len(parsed.Keywords),
		"org_matches", bundle.Sources.Org,
		"public_matches", bundle.Sources.Public,
		"total", total,
		"returned", len(merged),
	)
	return bundle, nil
}

func (o *Orchestrator) validate(req Request) error {
	if strings.TrimSpace(req.OrgID) == "" {
		return &model.ValidationError{Field: "organization_id", Reason: "is required"}
	}
	if utf8.RuneCountInString(strings.TrimSpace(req.JobDescription)) < o.cfg.MinDescriptionLength {
		return &model.ValidationError{
			Field:  "job_description",
			Reason: fmt.Sprintf("must be at least %d characters", o.cfg.MinDescriptionLength),
		}
	}
	if !req.Options.IncludeOrgPool && !req.Options.IncludePublicPool {
		return &model.ValidationError{Field: "pools", Reason: "select at least one of the org or public pool"}
	}
	return nil
}

// fetchPools loads the selected pools concurrently. A failing pool never
// cancels the other one; it is logged and reported as failed.
func (o *Orchestrator) fetchPools(ctx context.Context, orgID string, opts Options) (org, public []model.PoolMember, failed []model.PoolSource) {
	var orgErr, publicErr error

	var g errgroup.Group
	if opts.IncludeOrgPool {
		g.Go(func() error {
			org, orgErr = o.orgPool.Fetch(ctx, orgID)
			return nil
		})
	}
	if opts.IncludePublicPool {
		g.Go(func() error {
			public, publicErr = o.publicPool.Fetch(ctx, orgID)
			return nil
		})
	}
	_ = g.Wait()

	if orgErr != nil {
		o.logger.Warn("pool fetch failed", "error", &model.PoolFetchError{Pool: model.PoolOrg, Err: orgErr})
		org = nil
		failed = append(failed, model.PoolOrg)
	}
	if publicErr != nil {
		o.logger.Warn("pool fetch failed", "error", &model.PoolFetchError{Pool: model.PoolPublic, Err: publicErr})
		public = nil
		failed = append(failed, model.PoolPublic)
	}
	return org, public, failed
}

// persist writes the search record on a context detached from the request so
// a client disconnect does not lose history. Failures are only logged.
func (o *Orchestrator) persist(ctx context.Context, req Request, keywords []model.Keyword, total int) string {
	rec := model.SearchRecord{
		ID:             o.newID(),
		OrganizationID: req.OrgID,
		QueryText:      req.JobDescription,
		QueryKeywords:  keywords,
		Filters:        req.Options.Filters(),
		ResultsCount:   total,
		CreatedBy:      req.UserID,
		CreatedAt:      o.now(),
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.cfg.PersistTimeout)
	defer cancel()
	if err := o.history.CreateSearch(writeCtx, rec); err != nil {
		o.logger.Error("search history write failed",
			"org", req.OrgID,
			"error", &model.PersistenceError{Op: "create search", Err: err},
		)
		return ""
	}
	return rec.ID
}
