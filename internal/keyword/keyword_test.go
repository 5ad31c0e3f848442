package keyword

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/talentmesh/internal/model"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"React", "react"},
		{"  Node.js  ", "node.js"},
		{"Machine \t  Learning\n", "machine learning"},
		{"   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestClampWeight(t *testing.T) {
	assert.Equal(t, 0.0, ClampWeight(-1))
	assert.Equal(t, 1.5, ClampWeight(3))
	assert.Equal(t, 0.9, ClampWeight(0.9))
}

func TestNew_RejectsBlank(t *testing.T) {
	_, ok := New("  ", 1, model.SourceResume, "")
	assert.False(t, ok)
}

func TestMerge_DedupsSameText(t *testing.T) {
	a := []model.Keyword{{Text: "Go", Weight: 1, Source: model.SourceResume}}
	b := []model.Keyword{{Text: "go ", Weight: 1, Source: model.SourceResume}}

	got := Merge(a, b)
	require.Len(t, got, 1)
	assert.Equal(t, "go", got[0].Text)
	assert.Equal(t, []model.SourceType{model.SourceResume}, got[0].Sources)
}

func TestMerge_KeepsMaxWeightAndUnionsSources(t *testing.T) {
	resume := []model.Keyword{{Text: "kubernetes", Weight: 1.0, Source: model.SourceResume}}
	linkedin := []model.Keyword{{Text: "kubernetes", Weight: 0.9, Source: model.SourceLinkedIn, Category: "infra"}}

	got := Merge(linkedin, resume)
	require.Len(t, got, 1)
	assert.Equal(t, 1.0, got[0].Weight)
	assert.Equal(t, model.SourceResume, got[0].Source)
	assert.Equal(t, "infra", got[0].Category)
	assert.Equal(t, []model.SourceType{model.SourceResume, model.SourceLinkedIn}, got[0].Sources)
}

func TestMerge_OrderIndependent(t *testing.T) {
	x := []model.Keyword{
		{Text: "go", Weight: 0.9, Source: model.SourceLinkedIn, Category: "language"},
		{Text: "sql", Weight: 0.7, Source: model.SourceManual},
	}
	y := []model.Keyword{
		{Text: "go", Weight: 0.9, Source: model.SourceResume, Category: "backend"},
		{Text: "docker", Weight: 1.0, Source: model.SourceResume},
	}
	z := []model.Keyword{{Text: "sql", Weight: 1.5, Source: model.SourceJobDescription}}

	first := Merge(x, y, z)
	assert.Equal(t, first, Merge(z, y, x))
	assert.Equal(t, first, Merge(y, Merge(z, x)))
}

func TestMerge_SortedByWeightThenText(t *testing.T) {
	got := Merge([]model.Keyword{
		{Text: "b", Weight: 1},
		{Text: "a", Weight: 1},
		{Text: "c", Weight: 1.5},
	})
	assert.Equal(t, []string{"c", "a", "b"}, Texts(got))
}

func TestLegacy_DecodesMixedShapes(t *testing.T) {
	raw := `["React", {"keyword": "Node", "weight": 0.8}, {"text": "SQL"}, {"keyword": "  "}]`

	var in []Legacy
	require.NoError(t, json.Unmarshal([]byte(raw), &in))

	got := FromLegacy(in, model.SourceManual)
	require.Len(t, got, 3)

	byText := map[string]model.Keyword{}
	for _, kw := range got {
		byText[kw.Text] = kw
	}
	assert.Equal(t, 0.8, byText["node"].Weight)
	assert.Equal(t, model.WeightOther, byText["react"].Weight)
	assert.Equal(t, model.SourceManual, byText["sql"].Source)
}

func TestLegacy_RejectsInvalidJSON(t *testing.T) {
	var l Legacy
	assert.Error(t, json.Unmarshal([]byte(`{"keyword":`), &l))
}
