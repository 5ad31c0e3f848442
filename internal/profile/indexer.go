// Package profile builds and serves keyword profiles: re-extraction when
// source text changes, batch and stale refreshes, and pool reads.
package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/amishk599/talentmesh/internal/ai"
	"github.com/amishk599/talentmesh/internal/model"
)

const (
	defaultConcurrency = 4
	defaultStaleBatch  = 100
)

// Job is one owner to re-index. Sources replace the stored text of the same
// source type; Attrs, when set, replace the owner's attributes.
type Job struct {
	Owner   model.Owner
	Sources []model.SourceText
	Attrs   *model.ProfileAttributes
}

// Outcome describes one re-index. Failed counts sources whose extraction
// failed; when every source failed the stored profile is left untouched.
type Outcome struct {
	Profile model.KeywordProfile
	Failed  int
	Written bool
}

// Options tune an Indexer.
type Options struct {
	Concurrency int
	StaleBatch  int
}

// Indexer owns the re-index pipeline for one owner:
// store sources → extract → merge → rewrite profile → invalidate cache.
type Indexer struct {
	extractor   model.KeywordExtractor
	store       model.ProfileStore
	cache       model.ProfileCache
	concurrency int
	staleBatch  int
	now         func() time.Time
	logger      *slog.Logger
}

// NewIndexer creates an indexer wired with its dependencies.
func NewIndexer(
	extractor model.KeywordExtractor,
	store model.ProfileStore,
	cache model.ProfileCache,
	opts Options,
	logger *slog.Logger,
) *Indexer {
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	if opts.StaleBatch <= 0 {
		opts.StaleBatch = defaultStaleBatch
	}
	return &Indexer{
		extractor:   extractor,
		store:       store,
		cache:       cache,
		concurrency: opts.Concurrency,
		staleBatch:  opts.StaleBatch,
		now:         time.Now,
		logger:      logger,
	}
}

// Reindex stores the given source texts and rebuilds the owner's profile from
// every stored source. Extraction failures are logged and do not fail the
// call; only validation and persistence errors are returned.
//
// When extraction fails for every source the new texts are still stored but
// the profile is not rewritten: matching keeps using the previous keywords
// until a later refresh of the stale owner succeeds.
func (ix *Indexer) Reindex(ctx context.Context, owner model.Owner, sources []model.SourceText) (Outcome, error) {
	return ix.IndexJob(ctx, Job{Owner: owner, Sources: sources})
}

// IndexJob runs the pipeline for one job.
func (ix *Indexer) IndexJob(ctx context.Context, job Job) (Outcome, error) {
	owner := job.Owner
	if err := validateOwner(owner); err != nil {
		return Outcome{}, err
	}
	for _, src := range job.Sources {
		if !src.Source.Valid() {
			return Outcome{}, &model.ValidationError{Field: "source_type", Reason: fmt.Sprintf("unknown source type %q", src.Source)}
		}
	}

	if len(job.Sources) > 0 {
		if err := ix.store.SaveSources(ctx, owner, job.Sources); err != nil {
			return Outcome{}, fmt.Errorf("reindexing %s: %w", owner.Key(), err)
		}
	}
	if job.Attrs != nil {
		if err := ix.store.SaveAttributes(ctx, owner, *job.Attrs); err != nil {
			return Outcome{}, fmt.Errorf("reindexing %s: %w", owner.Key(), err)
		}
	}

	stored, err := ix.store.GetSources(ctx, owner)
	if err != nil {
		return Outcome{}, fmt.Errorf("reindexing %s: %w", owner.Key(), err)
	}
	if owner.OrgID == "" {
		for _, s := range stored {
			if s.Owner.OrgID != "" {
				owner.OrgID = s.Owner.OrgID
				break
			}
		}
	}

	var texts []model.SourceText
	for _, s := range stored {
		if strings.TrimSpace(s.Text) == "" {
			continue
		}
		texts = append(texts, model.SourceText{Source: s.Source, Text: s.Text})
	}

	keywords, extractErr := ai.ExtractAndMerge(ctx, ix.extractor, texts)
	failed := countErrors(extractErr)
	if extractErr != nil {
		ix.logger.Warn("keyword extraction failed",
			"owner", owner.Key(),
			"failed_sources", failed,
			"sources", len(texts),
			"error", extractErr,
		)
	}

	out := Outcome{Failed: failed}
	if len(texts) > 0 && failed == len(texts) {
		// Nothing extracted: the previous profile stays and the owner stays stale.
		return out, nil
	}

	p := model.KeywordProfile{
		Owner:         owner,
		Keywords:      keywords,
		TotalKeywords: len(keywords),
		LastUpdated:   ix.now(),
	}
	if err := ix.store.SaveProfile(ctx, p); err != nil {
		return out, fmt.Errorf("reindexing %s: %w", owner.Key(), err)
	}
	ix.cache.Invalidate(ctx, owner)

	ix.logger.Info("reindexed profile",
		"owner", owner.Key(),
		"sources", len(texts),
		"keywords", len(keywords),
	)

	out.Profile = p
	out.Written = true
	return out, nil
}

// ReindexBatch re-indexes every job concurrently with a bounded number of
// workers. Failures of one owner do not stop the others; they are joined
// into the returned error.
func (ix *Indexer) ReindexBatch(ctx context.Context, jobs []Job) ([]Outcome, error) {
	outcomes := make([]Outcome, len(jobs))
	errs := make([]error, len(jobs))

	var g errgroup.Group
	g.SetLimit(ix.concurrency)
	for i, job := range jobs {
		g.Go(func() error {
			if ctx.Err() != nil {
				errs[i] = ctx.Err()
				return nil
			}
			outcomes[i], errs[i] = ix.IndexJob(ctx, job)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes, errors.Join(errs...)
}

// RefreshStale re-indexes owners whose stored sources are newer than their
// profile and returns how many profiles were rewritten.
func (ix *Indexer) RefreshStale(ctx context.Context) (int, error) {
	owners, err := ix.store.StaleOwners(ctx, ix.staleBatch)
	if err != nil {
		return 0, fmt.Errorf("listing stale profiles: %w", err)
	}
	if len(owners) == 0 {
		ix.logger.Debug("no stale profiles")
		return 0, nil
	}

	jobs := make([]Job, len(owners))
	for i, o := range owners {
		jobs[i] = Job{Owner: o}
	}
	outcomes, err := ix.ReindexBatch(ctx, jobs)

	written := 0
	for _, o := range outcomes {
		if o.Written {
			written++
		}
	}
	ix.logger.Info("refreshed stale profiles", "stale", len(owners), "rewritten", written)
	return written, err
}

func validateOwner(o model.Owner) error {
	if !o.Type.Valid() {
		return &model.ValidationError{Field: "owner_type", Reason: fmt.Sprintf("unknown owner type %q", o.Type)}
	}
	if strings.TrimSpace(o.ID) == "" {
		return &model.ValidationError{Field: "owner_id", Reason: "must not be empty"}
	}
	return nil
}

// countErrors counts the leaves of an errors.Join result.
func countErrors(err error) int {
	if err == nil {
		return 0
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return len(joined.Unwrap())
	}
	return 1
}
