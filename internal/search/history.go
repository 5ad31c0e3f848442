package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/amishk599/talentmesh/internal/model"
)

// Searcher runs a search. *Orchestrator implements it.
type Searcher interface {
	Search(ctx context.Context, req Request) (*ResultBundle, error)
}

// History manages an organization's search records.
type History struct {
	store    model.HistoryStore
	searcher Searcher
}

// NewHistory creates a history service.
func NewHistory(store model.HistoryStore, searcher Searcher) *History {
	return &History{store: store, searcher: searcher}
}

// List returns the org's searches, newest first.
func (h *History) List(ctx context.Context, orgID string, savedOnly bool) ([]model.SearchRecord, error) {
	if strings.TrimSpace(orgID) == "" {
		return nil, &model.ValidationError{Field: "organization_id", Reason: "is required"}
	}
	recs, err := h.store.ListSearches(ctx, orgID, savedOnly)
	if err != nil {
		return nil, fmt.Errorf("listing searches: %w", err)
	}
	if recs == nil {
		recs = []model.SearchRecord{}
	}
	return recs, nil
}

// Get returns one search record.
func (h *History) Get(ctx context.Context, orgID, id string) (model.SearchRecord, error) {
	return h.store.GetSearch(ctx, orgID, id)
}

// Save marks a search as saved under name.
func (h *History) Save(ctx context.Context, orgID, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return &model.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	return h.store.UpdateSearch(ctx, orgID, id, true, name)
}

// Unsave clears the saved flag and keeps the name.
func (h *History) Unsave(ctx context.Context, orgID, id string) error {
	rec, err := h.store.GetSearch(ctx, orgID, id)
	if err != nil {
		return err
	}
	return h.store.UpdateSearch(ctx, orgID, id, false, rec.Name)
}

// Delete removes a search record.
func (h *History) Delete(ctx context.Context, orgID, id string) error {
	return h.store.DeleteSearch(ctx, orgID, id)
}

// Rerun replays a stored search with its original filters. The replay itself
// is not recorded.
func (h *History) Rerun(ctx context.Context, orgID, userID, id string, limit int) (*ResultBundle, error) {
	rec, err := h.store.GetSearch(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	opts := OptionsFromFilters(rec.Filters)
	opts.Limit = limit
	return h.searcher.Search(ctx, Request{
		OrgID:          orgID,
		UserID:         userID,
		JobDescription: rec.QueryText,
		Options:        opts,
	})
}
