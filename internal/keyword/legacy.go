package keyword

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/amishk599/talentmesh/internal/model"
)

// Legacy decodes the keyword shapes older clients send: a bare string, or an
// object carrying "keyword" or "text" with an optional "weight".
type Legacy struct {
	Text     string
	Weight   *float64
	Source   model.SourceType
	Category string
}

type legacyObject struct {
	Keyword  string           `json:"keyword"`
	Text     string           `json:"text"`
	Weight   *float64         `json:"weight"`
	Source   model.SourceType `json:"source"`
	Category string           `json:"category"`
}

// UnmarshalJSON accepts either a JSON string or a keyword object.
func (l *Legacy) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode keyword string: %w", err)
		}
		*l = Legacy{Text: s}
		return nil
	}

	var obj legacyObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("decode keyword object: %w", err)
	}
	text := obj.Text
	if text == "" {
		text = obj.Keyword
	}
	*l = Legacy{Text: text, Weight: obj.Weight, Source: obj.Source, Category: obj.Category}
	return nil
}

// FromLegacy converts boundary input into canonical keywords. Entries without
// a weight get the default for fallback; entries without a source get fallback.
func FromLegacy(in []Legacy, fallback model.SourceType) []model.Keyword {
	out := make([]model.Keyword, 0, len(in))
	for _, l := range in {
		src := l.Source
		if !src.Valid() {
			src = fallback
		}
		w := src.DefaultWeight(false)
		if l.Weight != nil {
			w = *l.Weight
		}
		if kw, ok := New(l.Text, w, src, l.Category); ok {
			out = append(out, kw)
		}
	}
	return Merge(out)
}
