package ai

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/amishk599/talentmesh/internal/keyword"
	"github.com/amishk599/talentmesh/internal/model"
)

// ExtractAndMerge runs Extract over every source concurrently and merges the
// results by keyword text: max weight wins, provenance is unioned.
// Failed sources are skipped; their errors are joined and returned alongside
// the keywords of the sources that succeeded.
func ExtractAndMerge(ctx context.Context, extractor model.KeywordExtractor, sources []model.SourceText) ([]model.Keyword, error) {
	results := make([][]model.Keyword, len(sources))
	errs := make([]error, len(sources))

	var g errgroup.Group
	for i, src := range sources {
		g.Go(func() error {
			kws, err := extractor.Extract(ctx, src.Text, src.Source)
			if err != nil {
				errs[i] = err
				return nil
			}
			results[i] = kws
			return nil
		})
	}
	_ = g.Wait()

	return keyword.Merge(results...), errors.Join(errs...)
}
