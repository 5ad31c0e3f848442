package model

import "time"

// OwnerType identifies the kind of entity a keyword profile belongs to.
type OwnerType string

const (
	OwnerUser      OwnerType = "user"
	OwnerCandidate OwnerType = "candidate"
	OwnerJob       OwnerType = "job"
)

// Valid reports whether t is a known owner type.
func (t OwnerType) Valid() bool {
	switch t {
	case OwnerUser, OwnerCandidate, OwnerJob:
		return true
	}
	return false
}

// Owner identifies the entity owning a profile. OrgID is set for org candidates.
type Owner struct {
	Type  OwnerType `json:"owner_type"`
	ID    string    `json:"owner_id"`
	OrgID string    `json:"org_id,omitempty"`
}

// Key returns a stable string form of the owner, used for cache keys and logs.
func (o Owner) Key() string {
	return string(o.Type) + ":" + o.ID
}

// KeywordProfile is the full weighted keyword set of one owner.
// It is always replaced wholesale.
type KeywordProfile struct {
	Owner         Owner     `json:"owner"`
	Keywords      []Keyword `json:"keywords"`
	TotalKeywords int       `json:"total_keywords"`
	LastUpdated   time.Time `json:"last_updated"`
}

// ProfileAttributes are the non-keyword signals used by the scorer.
type ProfileAttributes struct {
	Location         string     `json:"location,omitempty"`
	Bio              string     `json:"bio,omitempty"`
	IsPremium        bool       `json:"is_premium,omitempty"`
	PremiumExpiresAt *time.Time `json:"premium_expires_at,omitempty"`
}

// PremiumActive reports whether premium is on and not expired at now.
func (a *ProfileAttributes) PremiumActive(now time.Time) bool {
	if a == nil || !a.IsPremium {
		return false
	}
	return a.PremiumExpiresAt == nil || a.PremiumExpiresAt.After(now)
}

// ProfileSource is the persisted source text an owner's profile was built from.
type ProfileSource struct {
	Owner     Owner
	Source    SourceType
	Text      string
	UpdatedAt time.Time
}

// PoolMember is one scorable entry of a candidate pool.
type PoolMember struct {
	ID       string             `json:"id"`
	Keywords []Keyword          `json:"keywords"`
	Attrs    *ProfileAttributes `json:"attrs,omitempty"`
}
