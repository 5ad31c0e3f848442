package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/amishk599/talentmesh/internal/model"
)

// Ensure SQLStore implements model.HistoryStore.
var _ model.HistoryStore = (*SQLStore)(nil)

const searchColumns = "id, organization_id, query_text, query_keywords, filters, results_count, is_saved, name, created_by, created_at"

// CreateSearch inserts a new search record.
func (s *SQLStore) CreateSearch(ctx context.Context, rec model.SearchRecord) error {
	kws := rec.QueryKeywords
	if kws == nil {
		kws = []model.Keyword{}
	}
	kwData, err := json.Marshal(kws)
	if err != nil {
		return fmt.Errorf("marshalling query keywords: %w", err)
	}
	filterData, err := json.Marshal(rec.Filters)
	if err != nil {
		return fmt.Errorf("marshalling filters: %w", err)
	}

	created := rec.CreatedAt
	if created.IsZero() {
		created = s.now()
	}

	_, err = s.db.ExecContext(ctx,
		s.rebind("INSERT INTO search_records ("+searchColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"),
		rec.ID, rec.OrganizationID, rec.QueryText, string(kwData), string(filterData),
		rec.ResultsCount, boolToInt(rec.IsSaved), rec.Name, rec.CreatedBy, toMillis(created))
	if err != nil {
		return fmt.Errorf("inserting search %s: %w", rec.ID, err)
	}
	return nil
}

// GetSearch returns one search of orgID or model.ErrNotFound.
func (s *SQLStore) GetSearch(ctx context.Context, orgID, id string) (model.SearchRecord, error) {
	row := s.db.QueryRowContext(ctx,
		s.rebind("SELECT "+searchColumns+" FROM search_records WHERE organization_id = ? AND id = ?"),
		orgID, id)
	rec, err := scanSearch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.SearchRecord{}, model.ErrNotFound
	}
	if err != nil {
		return model.SearchRecord{}, fmt.Errorf("querying search %s: %w", id, err)
	}
	return rec, nil
}

// ListSearches returns the org's searches, newest first.
func (s *SQLStore) ListSearches(ctx context.Context, orgID string, savedOnly bool) ([]model.SearchRecord, error) {
	query := "SELECT " + searchColumns + " FROM search_records WHERE organization_id = ?"
	if savedOnly {
		query += " AND is_saved = 1"
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := s.db.QueryContext(ctx, s.rebind(query), orgID)
	if err != nil {
		return nil, fmt.Errorf("querying searches of %s: %w", orgID, err)
	}
	defer rows.Close()

	var out []model.SearchRecord
	for rows.Next() {
		rec, err := scanSearch(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning search row: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// UpdateSearch sets the saved flag and name of a search.
func (s *SQLStore) UpdateSearch(ctx context.Context, orgID, id string, saved bool, name string) error {
	// MySQL reports zero affected rows when values are unchanged, so existence
	// is checked separately.
	if _, err := s.GetSearch(ctx, orgID, id); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		s.rebind("UPDATE search_records SET is_saved = ?, name = ? WHERE organization_id = ? AND id = ?"),
		boolToInt(saved), name, orgID, id)
	if err != nil {
		return fmt.Errorf("updating search %s: %w", id, err)
	}
	return nil
}

// DeleteSearch removes a search of orgID.
func (s *SQLStore) DeleteSearch(ctx context.Context, orgID, id string) error {
	res, err := s.db.ExecContext(ctx,
		s.rebind("DELETE FROM search_records WHERE organization_id = ? AND id = ?"),
		orgID, id)
	if err != nil {
		return fmt.Errorf("deleting search %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting search %s: %w", id, err)
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

// PruneSearches deletes unsaved searches older than olderThan and returns how
// many were removed. Saved searches are kept indefinitely.
func (s *SQLStore) PruneSearches(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := toMillis(s.now().Add(-olderThan))
	res, err := s.db.ExecContext(ctx,
		s.rebind("DELETE FROM search_records WHERE is_saved = 0 AND created_at < ?"),
		cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning searches: %w", err)
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSearch(r rowScanner) (model.SearchRecord, error) {
	var (
		rec                model.SearchRecord
		kwData, filterData string
		saved              int
		created            int64
	)
	if err := r.Scan(&rec.ID, &rec.OrganizationID, &rec.QueryText, &kwData, &filterData,
		&rec.ResultsCount, &saved, &rec.Name, &rec.CreatedBy, &created); err != nil {
		return model.SearchRecord{}, err
	}
	if err := json.Unmarshal([]byte(kwData), &rec.QueryKeywords); err != nil {
		return model.SearchRecord{}, fmt.Errorf("decoding query keywords: %w", err)
	}
	if err := json.Unmarshal([]byte(filterData), &rec.Filters); err != nil {
		return model.SearchRecord{}, fmt.Errorf("decoding filters: %w", err)
	}
	rec.IsSaved = saved != 0
	rec.CreatedAt = fromMillis(created)
	return rec, nil
}
