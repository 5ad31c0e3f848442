package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/amishk599/talentmesh/internal/model"
)

// Ensure SQLStore implements model.ProfileStore.
var _ model.ProfileStore = (*SQLStore)(nil)

// SaveProfile replaces the owner's keyword profile. TotalKeywords is derived
// from the keyword list.
func (s *SQLStore) SaveProfile(ctx context.Context, p model.KeywordProfile) error {
	if !p.Owner.Type.Valid() || p.Owner.ID == "" {
		return &model.ValidationError{Field: "owner", Reason: fmt.Sprintf("unknown owner %q", p.Owner.Key())}
	}

	kws := p.Keywords
	if kws == nil {
		kws = []model.Keyword{}
	}
	data, err := json.Marshal(kws)
	if err != nil {
		return fmt.Errorf("marshalling keywords: %w", err)
	}

	updated := p.LastUpdated
	if updated.IsZero() {
		updated = s.now()
	}

	query := s.upsert("keyword_profiles",
		[]string{"owner_type", "owner_id", "org_id", "keywords", "total_keywords", "updated_at"},
		[]string{"owner_type", "owner_id"})
	_, err = s.db.ExecContext(ctx, query,
		string(p.Owner.Type), p.Owner.ID, p.Owner.OrgID, string(data), len(kws), toMillis(updated))
	if err != nil {
		return fmt.Errorf("saving profile %s: %w", p.Owner.Key(), err)
	}
	return nil
}

// GetProfile returns the owner's keyword profile or model.ErrNotFound.
func (s *SQLStore) GetProfile(ctx context.Context, owner model.Owner) (model.KeywordProfile, error) {
	var (
		orgID   string
		data    string
		total   int
		updated int64
	)
	err := s.db.QueryRowContext(ctx,
		s.rebind("SELECT org_id, keywords, total_keywords, updated_at FROM keyword_profiles WHERE owner_type = ? AND owner_id = ?"),
		string(owner.Type), owner.ID,
	).Scan(&orgID, &data, &total, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return model.KeywordProfile{}, model.ErrNotFound
	}
	if err != nil {
		return model.KeywordProfile{}, fmt.Errorf("querying profile %s: %w", owner.Key(), err)
	}

	var kws []model.Keyword
	if err := json.Unmarshal([]byte(data), &kws); err != nil {
		return model.KeywordProfile{}, fmt.Errorf("decoding keywords of %s: %w", owner.Key(), err)
	}

	owner.OrgID = orgID
	return model.KeywordProfile{
		Owner:         owner,
		Keywords:      kws,
		TotalKeywords: total,
		LastUpdated:   fromMillis(updated),
	}, nil
}

// SaveAttributes replaces the owner's scoring attributes.
func (s *SQLStore) SaveAttributes(ctx context.Context, owner model.Owner, attrs model.ProfileAttributes) error {
	var expires sql.NullInt64
	if attrs.PremiumExpiresAt != nil {
		expires = sql.NullInt64{Int64: toMillis(*attrs.PremiumExpiresAt), Valid: true}
	}

	query := s.upsert("profile_attributes",
		[]string{"owner_type", "owner_id", "location", "bio", "is_premium", "premium_expires_at"},
		[]string{"owner_type", "owner_id"})
	_, err := s.db.ExecContext(ctx, query,
		string(owner.Type), owner.ID, attrs.Location, attrs.Bio, boolToInt(attrs.IsPremium), expires)
	if err != nil {
		return fmt.Errorf("saving attributes %s: %w", owner.Key(), err)
	}
	return nil
}

// GetAttributes returns the owner's attributes, or nil when none are stored.
func (s *SQLStore) GetAttributes(ctx context.Context, owner model.Owner) (*model.ProfileAttributes, error) {
	var (
		location string
		bio      sql.NullString
		premium  int
		expires  sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx,
		s.rebind("SELECT location, bio, is_premium, premium_expires_at FROM profile_attributes WHERE owner_type = ? AND owner_id = ?"),
		string(owner.Type), owner.ID,
	).Scan(&location, &bio, &premium, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying attributes %s: %w", owner.Key(), err)
	}
	return buildAttributes(location, bio, premium, expires), nil
}

func buildAttributes(location string, bio sql.NullString, premium int, expires sql.NullInt64) *model.ProfileAttributes {
	attrs := &model.ProfileAttributes{
		Location:  location,
		Bio:       bio.String,
		IsPremium: premium != 0,
	}
	if expires.Valid {
		t := fromMillis(expires.Int64)
		attrs.PremiumExpiresAt = &t
	}
	return attrs
}

// SaveSources stores the source texts a profile is built from. Sources not
// listed are left untouched.
func (s *SQLStore) SaveSources(ctx context.Context, owner model.Owner, sources []model.SourceText) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	query := s.upsert("profile_sources",
		[]string{"owner_type", "owner_id", "org_id", "source_type", "body", "updated_at"},
		[]string{"owner_type", "owner_id", "source_type"})
	now := toMillis(s.now())
	for _, src := range sources {
		if _, err := tx.ExecContext(ctx, query,
			string(owner.Type), owner.ID, owner.OrgID, string(src.Source), src.Text, now); err != nil {
			return fmt.Errorf("saving %s source of %s: %w", src.Source, owner.Key(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing sources of %s: %w", owner.Key(), err)
	}
	return nil
}

// GetSources returns the stored source texts of owner ordered by source type.
func (s *SQLStore) GetSources(ctx context.Context, owner model.Owner) ([]model.ProfileSource, error) {
	rows, err := s.db.QueryContext(ctx,
		s.rebind("SELECT org_id, source_type, body, updated_at FROM profile_sources WHERE owner_type = ? AND owner_id = ? ORDER BY source_type"),
		string(owner.Type), owner.ID)
	if err != nil {
		return nil, fmt.Errorf("querying sources of %s: %w", owner.Key(), err)
	}
	defer rows.Close()

	var out []model.ProfileSource
	for rows.Next() {
		var (
			orgID, source, body string
			updated             int64
		)
		if err := rows.Scan(&orgID, &source, &body, &updated); err != nil {
			return nil, fmt.Errorf("scanning source row: %w", err)
		}
		o := owner
		o.OrgID = orgID
		out = append(out, model.ProfileSource{
			Owner:     o,
			Source:    model.SourceType(source),
			Text:      body,
			UpdatedAt: fromMillis(updated),
		})
	}
	return out, rows.Err()
}

// StaleOwners returns up to limit owners whose source texts changed after
// their profile was last written, or who have sources but no profile.
func (s *SQLStore) StaleOwners(ctx context.Context, limit int) ([]model.Owner, error) {
	if limit <= 0 {
		limit = 100
	}
	query := s.rebind(`SELECT s.owner_type, s.owner_id, MAX(s.org_id)
		FROM profile_sources s
		LEFT JOIN keyword_profiles p ON p.owner_type = s.owner_type AND p.owner_id = s.owner_id
		GROUP BY s.owner_type, s.owner_id
		HAVING MAX(s.updated_at) > COALESCE(MAX(p.updated_at), 0)
		ORDER BY s.owner_type, s.owner_id
		LIMIT ?`)

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying stale owners: %w", err)
	}
	defer rows.Close()

	var out []model.Owner
	for rows.Next() {
		var ownerType, ownerID, orgID string
		if err := rows.Scan(&ownerType, &ownerID, &orgID); err != nil {
			return nil, fmt.Errorf("scanning stale owner: %w", err)
		}
		out = append(out, model.Owner{Type: model.OwnerType(ownerType), ID: ownerID, OrgID: orgID})
	}
	return out, rows.Err()
}

// ListPool returns every profile of ownerType with its attributes. A non-empty
// orgID restricts the pool to that organization.
func (s *SQLStore) ListPool(ctx context.Context, ownerType model.OwnerType, orgID string) ([]model.PoolMember, error) {
	query := `SELECT p.owner_id, p.keywords, a.owner_id, a.location, a.bio, a.is_premium, a.premium_expires_at
		FROM keyword_profiles p
		LEFT JOIN profile_attributes a ON a.owner_type = p.owner_type AND a.owner_id = p.owner_id
		WHERE p.owner_type = ?`
	args := []any{string(ownerType)}
	if orgID != "" {
		query += " AND p.org_id = ?"
		args = append(args, orgID)
	}
	query += " ORDER BY p.owner_id"

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s pool: %w", ownerType, err)
	}
	defer rows.Close()

	var out []model.PoolMember
	for rows.Next() {
		var (
			id, data string
			attrID   sql.NullString
			location sql.NullString
			bio      sql.NullString
			premium  sql.NullInt64
			expires  sql.NullInt64
		)
		if err := rows.Scan(&id, &data, &attrID, &location, &bio, &premium, &expires); err != nil {
			return nil, fmt.Errorf("scanning pool row: %w", err)
		}

		var kws []model.Keyword
		if err := json.Unmarshal([]byte(data), &kws); err != nil {
			return nil, fmt.Errorf("decoding keywords of %s: %w", id, err)
		}

		m := model.PoolMember{ID: id, Keywords: kws}
		if attrID.Valid {
			m.Attrs = buildAttributes(location.String, bio, int(premium.Int64), expires)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
