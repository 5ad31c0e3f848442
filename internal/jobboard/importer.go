package jobboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/amishk599/talentmesh/internal/filter"
	"github.com/amishk599/talentmesh/internal/model"
	"github.com/amishk599/talentmesh/internal/profile"
	"github.com/amishk599/talentmesh/internal/search"
)

// SourceReader returns the stored source texts of an owner.
type SourceReader interface {
	GetSources(ctx context.Context, owner model.Owner) ([]model.ProfileSource, error)
}

// Indexer rebuilds one owner's profile.
type Indexer interface {
	IndexJob(ctx context.Context, job profile.Job) (profile.Outcome, error)
}

// Searcher ranks an organization's candidates against a job description.
type Searcher interface {
	Search(ctx context.Context, req search.Request) (*search.ResultBundle, error)
}

// Result counts what one import run did.
type Result struct {
	Fetched   int
	Matched   int
	Indexed   int
	Unchanged int
	Failed    int
}

// Importer owns the import pipeline for one board:
// fetch → filter → skip unchanged → index → search and notify new postings.
type Importer struct {
	Name       string
	board      Board
	orgID      string
	filter     *filter.LocationFilter
	sources    SourceReader
	indexer    Indexer
	searcher   Searcher
	notifier   model.Notifier
	matchLimit int
	logger     *slog.Logger
}

// Options wire the optional parts of an Importer. A nil Searcher or Notifier
// disables match notifications for new postings.
type Options struct {
	OrgID            string
	Locations        []string
	ExcludeLocations []string
	Searcher         Searcher
	Notifier         model.Notifier
	MatchLimit       int
}

// NewImporter creates an importer wired with all its dependencies.
func NewImporter(name string, board Board, sources SourceReader, indexer Indexer, opts Options, logger *slog.Logger) *Importer {
	return &Importer{
		Name:       name,
		board:      board,
		orgID:      opts.OrgID,
		filter:     filter.NewLocationFilter(opts.Locations, opts.ExcludeLocations),
		sources:    sources,
		indexer:    indexer,
		searcher:   opts.Searcher,
		notifier:   opts.Notifier,
		matchLimit: opts.MatchLimit,
		logger:     logger,
	}
}

// Owner is the job profile owner a posting is indexed under.
func (im *Importer) Owner(p Posting) model.Owner {
	return model.Owner{Type: model.OwnerJob, ID: im.board.Name() + "-" + p.ID, OrgID: im.orgID}
}

// Import runs one cycle over the board.
func (im *Importer) Import(ctx context.Context) (Result, error) {
	var res Result
	postings, err := im.board.Postings(ctx)
	if err != nil {
		return res, fmt.Errorf("importing %s: %w", im.Name, err)
	}
	res.Fetched = len(postings)

	for _, p := range postings {
		member := model.PoolMember{ID: p.ID, Attrs: &model.ProfileAttributes{Location: p.Location}}
		if !im.filter.Match(member) {
			continue
		}
		res.Matched++

		owner := im.Owner(p)
		text := p.Text()
		isNew, changed, err := im.diff(ctx, owner, text)
		if err != nil {
			return res, fmt.Errorf("importing %s: checking %s: %w", im.Name, owner.Key(), err)
		}
		if !changed {
			res.Unchanged++
			continue
		}

		out, err := im.indexer.IndexJob(ctx, profile.Job{
			Owner:   owner,
			Sources: []model.SourceText{{Source: model.SourceJobDescription, Text: text}},
			Attrs:   &model.ProfileAttributes{Location: p.Location},
		})
		if err != nil {
			return res, fmt.Errorf("importing %s: %w", im.Name, err)
		}
		if !out.Written {
			res.Failed++
			continue
		}
		res.Indexed++

		if isNew {
			im.notifyMatches(ctx, p, text)
		}
	}

	im.logger.Info("imported board",
		"board", im.Name,
		"fetched", res.Fetched,
		"matched", res.Matched,
		"indexed", res.Indexed,
		"unchanged", res.Unchanged,
		"failed", res.Failed,
	)
	return res, nil
}

// diff reports whether the owner has no job description yet and whether the
// stored one differs from text.
func (im *Importer) diff(ctx context.Context, owner model.Owner, text string) (isNew, changed bool, err error) {
	stored, err := im.sources.GetSources(ctx, owner)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return false, false, err
	}
	for _, s := range stored {
		if s.Source == model.SourceJobDescription {
			return false, s.Text != text, nil
		}
	}
	return true, true, nil
}

func (im *Importer) notifyMatches(ctx context.Context, p Posting, text string) {
	if im.searcher == nil || im.notifier == nil || im.orgID == "" {
		return
	}
	bundle, err := im.searcher.Search(ctx, search.Request{
		OrgID:          im.orgID,
		UserID:         "importer",
		JobDescription: text,
		Options: search.Options{
			IncludeOrgPool: true,
			Limit:          im.matchLimit,
		},
	})
	if err != nil {
		im.logger.Warn("match search for new posting failed", "board", im.Name, "posting", p.ID, "error", err)
		return
	}
	if len(bundle.Results) == 0 {
		return
	}
	title := p.Title
	if p.Company != "" {
		title = fmt.Sprintf("%s at %s", p.Title, p.Company)
	}
	if err := im.notifier.Notify(ctx, title, bundle.Results); err != nil {
		im.logger.Warn("failed to notify matches", "board", im.Name, "posting", p.ID, "error", err)
	}
}

// Importers runs a set of board importers.
type Importers []*Importer

// ImportAll imports every board in order. A failing board is logged and does
// not stop the others; the joined errors are returned with the number of
// postings indexed.
func (is Importers) ImportAll(ctx context.Context) (int, error) {
	var (
		indexed int
		errs    []error
	)
	for _, im := range is {
		res, err := im.Import(ctx)
		indexed += res.Indexed
		if err != nil {
			im.logger.Error("board import failed", "board", im.Name, "error", err)
			errs = append(errs, err)
		}
	}
	return indexed, errors.Join(errs...)
}
