package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/amishk599/talentmesh/internal/model"
)

func TestSplitList(t *testing.T) {
	got := splitList(" go, ,React ,")
	if len(got) != 2 || got[0] != "go" || got[1] != "React" {
		t.Errorf("splitList = %q", got)
	}
	if splitList("") != nil {
		t.Error("empty input should give nil")
	}
}

func TestSplitPair(t *testing.T) {
	src, v, err := splitPair("source", "resume=cv.pdf")
	if err != nil || src != model.SourceResume || v != "cv.pdf" {
		t.Errorf("splitPair = %q, %q, %v", src, v, err)
	}
	for _, bad := range []string{"resume", "resume=", "bio=cv.pdf"} {
		if _, _, err := splitPair("source", bad); err == nil {
			t.Errorf("splitPair(%q): expected error", bad)
		}
	}
}

func TestLoadKeywords(t *testing.T) {
	kws, err := loadKeywords("React, node", "")
	if err != nil {
		t.Fatalf("loadKeywords: %v", err)
	}
	if len(kws) != 2 || kws[0].Source != model.SourceManual {
		t.Errorf("keywords = %+v", kws)
	}

	path := filepath.Join(t.TempDir(), "kw.json")
	if err := os.WriteFile(path, []byte(`["go", {"keyword": "kafka", "weight": 0.5}]`), 0644); err != nil {
		t.Fatal(err)
	}
	kws, err = loadKeywords("", path)
	if err != nil {
		t.Fatalf("loadKeywords(file): %v", err)
	}
	if len(kws) != 2 {
		t.Fatalf("file keywords = %+v", kws)
	}
	for _, kw := range kws {
		if kw.Text == "kafka" && kw.Weight != 0.5 {
			t.Errorf("kafka weight = %v, want 0.5", kw.Weight)
		}
	}

	if _, err := loadKeywords("", filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestCommonSummary(t *testing.T) {
	res := model.CompatibilityResult{
		TotalCommon:    5,
		CommonKeywords: []model.Keyword{{Text: "go"}, {Text: "sql"}, {Text: "k8s"}, {Text: "aws"}, {Text: "gcp"}},
	}
	if got := commonSummary(res, 2); got != "go, sql (+3)" {
		t.Errorf("commonSummary = %q", got)
	}
}

func TestShorten(t *testing.T) {
	if got := shorten("a  b\nc", 10); got != "a b c" {
		t.Errorf("shorten = %q", got)
	}
	if got := shorten(strings.Repeat("x", 20), 5); got != "xxxx…" {
		t.Errorf("shorten = %q", got)
	}
}

func TestLoadConfig_MissingDefaultFallsBack(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TALENTMESH_CONFIG", "")

	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("expected defaults, got %+v", cfg.Database)
	}

	if _, err := loadConfig("missing.yaml"); err == nil {
		t.Error("explicit missing path should fail")
	}
}

func TestRunSearch_FailureReturnsError(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TALENTMESH_CONFIG", "")
	saved := searchFlags
	t.Cleanup(func() { searchFlags = saved })
	searchFlags.org, searchFlags.text, searchFlags.timeout = "org-1", "go", time.Minute

	// A failing search must come back through RunE so deferred cleanup runs.
	err := runSearch(searchCmd, nil)
	var ve *model.ValidationError
	if !errors.As(err, &ve) || ve.Field != "job_description" {
		t.Fatalf("runSearch error = %v, want job_description validation error", err)
	}
	if !strings.Contains(err.Error(), "search failed") {
		t.Errorf("error not wrapped: %v", err)
	}
}
