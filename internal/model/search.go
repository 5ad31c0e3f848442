package model

import (
	"context"
	"time"
)

// JobDetails are the structured fields parsed out of a job description.
type JobDetails struct {
	Title          string `json:"title"`
	Company        string `json:"company,omitempty"`
	Location       string `json:"location,omitempty"`
	Seniority      string `json:"seniority,omitempty"`
	EmploymentType string `json:"employment_type,omitempty"`
	Summary        string `json:"summary,omitempty"`
}

// Requirements groups the requirement lists of a job description.
type Requirements struct {
	MustHave         []string `json:"must_have"`
	NiceToHave       []string `json:"nice_to_have"`
	Responsibilities []string `json:"responsibilities"`
}

// ParsedJob is the result of parsing a job description.
type ParsedJob struct {
	Job          JobDetails   `json:"job"`
	Requirements Requirements `json:"requirements"`
	Keywords     []Keyword    `json:"keywords"`
}

// SearchFilters are the flags a search ran with. They are stored on the
// search record as-is.
type SearchFilters struct {
	IncludeOrgPool    bool     `json:"include_org_pool"`
	IncludePublicPool bool     `json:"include_public_pool"`
	MinScore          *float64 `json:"min_score,omitempty"`
	Locations         []string `json:"locations,omitempty"`
	ExcludeLocations  []string `json:"exclude_locations,omitempty"`
}

// SearchRecord is a persisted history row for one org job search.
type SearchRecord struct {
	ID             string        `json:"id"`
	OrganizationID string        `json:"organization_id"`
	QueryText      string        `json:"query_text"`
	QueryKeywords  []Keyword     `json:"query_keywords"`
	Filters        SearchFilters `json:"filters"`
	ResultsCount   int           `json:"results_count"`
	IsSaved        bool          `json:"is_saved"`
	Name           string        `json:"name,omitempty"`
	CreatedBy      string        `json:"created_by"`
	CreatedAt      time.Time     `json:"created_at"`
}

// KeywordExtractor turns free text into canonical keywords.
type KeywordExtractor interface {
	Extract(ctx context.Context, text string, source SourceType) ([]Keyword, error)
	ParseJobDescription(ctx context.Context, text string) (ParsedJob, error)
}

// ProfileStore persists keyword profiles, attributes and source texts.
type ProfileStore interface {
	SaveProfile(ctx context.Context, p KeywordProfile) error
	GetProfile(ctx context.Context, owner Owner) (KeywordProfile, error)
	SaveAttributes(ctx context.Context, owner Owner, attrs ProfileAttributes) error
	GetAttributes(ctx context.Context, owner Owner) (*ProfileAttributes, error)
	SaveSources(ctx context.Context, owner Owner, sources []SourceText) error
	GetSources(ctx context.Context, owner Owner) ([]ProfileSource, error)
	StaleOwners(ctx context.Context, limit int) ([]Owner, error)
	ListPool(ctx context.Context, ownerType OwnerType, orgID string) ([]PoolMember, error)
}

// HistoryStore persists search records.
type HistoryStore interface {
	CreateSearch(ctx context.Context, rec SearchRecord) error
	GetSearch(ctx context.Context, orgID, id string) (SearchRecord, error)
	ListSearches(ctx context.Context, orgID string, savedOnly bool) ([]SearchRecord, error)
	UpdateSearch(ctx context.Context, orgID, id string, saved bool, name string) error
	DeleteSearch(ctx context.Context, orgID, id string) error
}

// ProfileCache is an injected read-through cache for keyword profiles.
// Writers must call Invalidate after rewriting a profile.
type ProfileCache interface {
	Get(ctx context.Context, owner Owner) (KeywordProfile, bool)
	Set(ctx context.Context, p KeywordProfile)
	Invalidate(ctx context.Context, owner Owner)
}

// Notifier delivers ranked search results to a channel.
type Notifier interface {
	Notify(ctx context.Context, title string, matches []RankedMatch) error
}
