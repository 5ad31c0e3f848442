package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/amishk599/talentmesh/internal/keyword"
	"github.com/amishk599/talentmesh/internal/model"
	"github.com/amishk599/talentmesh/internal/ranker"
	"github.com/amishk599/talentmesh/internal/scorer"
	"github.com/spf13/cobra"
)

var scoreFlags struct {
	a, b         string
	aFile, bFile string
	locA, locB   string
	premiumB     bool
	json         bool
}

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score two keyword sets against each other",
	Long: "Computes the compatibility score of two keyword sets. Keywords come from comma\n" +
		"separated lists (--a, --b) or JSON files (--a-file, --b-file) holding an array of\n" +
		"strings or {\"keyword\", \"weight\"} objects.",
	RunE: runScore,
}

func init() {
	f := scoreCmd.Flags()
	f.StringVar(&scoreFlags.a, "a", "", "comma separated keywords of the first profile")
	f.StringVar(&scoreFlags.b, "b", "", "comma separated keywords of the second profile")
	f.StringVar(&scoreFlags.aFile, "a-file", "", "JSON keyword file of the first profile")
	f.StringVar(&scoreFlags.bFile, "b-file", "", "JSON keyword file of the second profile")
	f.StringVar(&scoreFlags.locA, "location-a", "", "location of the first profile")
	f.StringVar(&scoreFlags.locB, "location-b", "", "location of the second profile")
	f.BoolVar(&scoreFlags.premiumB, "premium-b", false, "treat the second profile as premium")
	f.BoolVar(&scoreFlags.json, "json", false, "print the result as JSON")
	scoreCmd.MarkFlagsMutuallyExclusive("a", "a-file")
	scoreCmd.MarkFlagsMutuallyExclusive("b", "b-file")
	rootCmd.AddCommand(scoreCmd)
}

func loadKeywords(list, path string) ([]model.Keyword, error) {
	var legacy []keyword.Legacy
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		if err := json.Unmarshal(data, &legacy); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	} else {
		for _, text := range splitList(list) {
			legacy = append(legacy, keyword.Legacy{Text: text})
		}
	}
	return keyword.FromLegacy(legacy, model.SourceManual), nil
}

func attrs(location string, premium bool) *model.ProfileAttributes {
	if location == "" && !premium {
		return nil
	}
	return &model.ProfileAttributes{Location: location, IsPremium: premium}
}

func runScore(cmd *cobra.Command, args []string) error {
	cfg, _ := mustSetup()

	a, err := loadKeywords(scoreFlags.a, scoreFlags.aFile)
	if err != nil {
		return err
	}
	b, err := loadKeywords(scoreFlags.b, scoreFlags.bFile)
	if err != nil {
		return err
	}

	w := scorer.Weights{
		Overlap:      cfg.Scoring.Overlap,
		Diversity:    cfg.Scoring.Diversity,
		Completeness: cfg.Scoring.Completeness,
		Location:     cfg.Scoring.Location,
		Premium:      cfg.Scoring.Premium,
	}
	res := scorer.New(scorer.WithWeights(w)).Score(a, b, attrs(scoreFlags.locA, false), attrs(scoreFlags.locB, scoreFlags.premiumB))
	band := ranker.Band(res.Score)

	out := cmd.OutOrStdout()
	if scoreFlags.json {
		return writeJSON(out, struct {
			model.CompatibilityResult
			Band model.QualityBand `json:"band"`
		}{res, band})
	}

	fmt.Fprintf(out, "%s %.1f (%s)\n", headerStyle.Render("Score"), res.Score, band)
	t := newTable("Component", "Points", "Budget")
	rows := []struct {
		name   string
		points float64
		budget float64
	}{
		{"Keyword overlap", res.Breakdown.Keyword, w.Overlap},
		{"Diversity", res.Breakdown.Diversity, w.Diversity},
		{"Completeness", res.Breakdown.Completeness, w.Completeness},
		{"Location", res.Breakdown.Location, w.Location},
		{"Premium", res.Breakdown.Premium, w.Premium},
	}
	for _, r := range rows {
		t.Row(r.name, fmt.Sprintf("%.1f", r.points), fmt.Sprintf("%.0f", r.budget))
	}
	fmt.Fprintln(out, t)
	if res.TotalCommon > 0 {
		fmt.Fprintf(out, "Common (%d): %s\n", res.TotalCommon, commonSummary(res, 15))
	}
	return nil
}
