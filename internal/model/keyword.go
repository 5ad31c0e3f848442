package model

// SourceType identifies the kind of text a keyword was extracted from.
type SourceType string

const (
	SourceResume         SourceType = "resume"
	SourceLinkedIn       SourceType = "linkedin"
	SourceJobDescription SourceType = "job_description"
	SourceManual         SourceType = "manual"
)

// Default extraction weights per source.
const (
	WeightResume         = 1.0
	WeightLinkedIn       = 0.9
	WeightJobRequirement = 1.5
	WeightJobGeneral     = 1.0
	WeightOther          = 0.7

	MaxWeight = 1.5
)

// Rank orders source types for deterministic tie breaks.
func (s SourceType) Rank() int {
	switch s {
	case SourceResume:
		return 0
	case SourceLinkedIn:
		return 1
	case SourceJobDescription:
		return 2
	case SourceManual:
		return 3
	default:
		return 4
	}
}

// Valid reports whether s is one of the known source types.
func (s SourceType) Valid() bool {
	return s.Rank() < 4
}

// DefaultWeight returns the weight assigned to a term from source s.
// requirement marks must-have terms of a job description.
func (s SourceType) DefaultWeight(requirement bool) float64 {
	switch s {
	case SourceResume:
		return WeightResume
	case SourceLinkedIn:
		return WeightLinkedIn
	case SourceJobDescription:
		if requirement {
			return WeightJobRequirement
		}
		return WeightJobGeneral
	default:
		return WeightOther
	}
}

// Keyword is a normalized, weighted term with provenance.
type Keyword struct {
	Text     string       `json:"text"`
	Weight   float64      `json:"weight"`
	Source   SourceType   `json:"source"`
	Sources  []SourceType `json:"sources,omitempty"`
	Category string       `json:"category,omitempty"`
}

// SourceText is one unit of extraction input.
type SourceText struct {
	Source SourceType `json:"source_type"`
	Text   string     `json:"text"`
}
