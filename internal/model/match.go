package model

// Breakdown holds the points contributed by each scoring component.
type Breakdown struct {
	Keyword      float64 `json:"keyword"`
	Diversity    float64 `json:"diversity"`
	Completeness float64 `json:"completeness"`
	Location     float64 `json:"location"`
	Premium      float64 `json:"premium"`
}

// Total returns the sum of all components.
func (b Breakdown) Total() float64 {
	return b.Keyword + b.Diversity + b.Completeness + b.Location + b.Premium
}

// CompatibilityResult is the outcome of scoring two keyword profiles.
type CompatibilityResult struct {
	Score          float64   `json:"score"`
	CommonKeywords []Keyword `json:"common_keywords"`
	TotalCommon    int       `json:"total_common"`
	Breakdown      Breakdown `json:"breakdown"`
}

// QualityBand is a human-readable label for a score range.
type QualityBand string

const (
	BandExcellent QualityBand = "Excellent"
	BandGreat     QualityBand = "Great"
	BandGood      QualityBand = "Good"
	BandModerate  QualityBand = "Moderate"
	BandLow       QualityBand = "Low"
)

// PoolSource tags which pool a ranked match came from.
type PoolSource string

const (
	PoolOrg    PoolSource = "org"
	PoolPublic PoolSource = "public"
)

// RankedMatch is one scored pool member.
type RankedMatch struct {
	ID     string              `json:"id"`
	Source PoolSource          `json:"source,omitempty"`
	Result CompatibilityResult `json:"result"`
	Band   QualityBand         `json:"band"`
	Attrs  *ProfileAttributes  `json:"attrs,omitempty"`
}
