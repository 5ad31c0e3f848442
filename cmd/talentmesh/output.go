package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/amishk599/talentmesh/internal/model"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...)
}

func printMatches(w io.Writer, matches []model.RankedMatch) {
	if len(matches) == 0 {
		fmt.Fprintln(w, dimStyle.Render("no matches"))
		return
	}
	t := newTable("#", "ID", "Pool", "Score", "Band", "Common", "Location")
	for i, m := range matches {
		location := ""
		if m.Attrs != nil {
			location = m.Attrs.Location
		}
		t.Row(
			fmt.Sprintf("%d", i+1),
			m.ID,
			string(m.Source),
			fmt.Sprintf("%.1f", m.Result.Score),
			string(m.Band),
			commonSummary(m.Result, 4),
			location,
		)
	}
	fmt.Fprintln(w, t)
}

func printRecords(w io.Writer, records []model.SearchRecord) {
	if len(records) == 0 {
		fmt.Fprintln(w, dimStyle.Render("no searches"))
		return
	}
	t := newTable("ID", "Created", "Saved", "Results", "Name / query")
	for _, r := range records {
		label := r.Name
		if label == "" {
			label = shorten(r.QueryText, 60)
		}
		saved := ""
		if r.IsSaved {
			saved = "★"
		}
		t.Row(r.ID, r.CreatedAt.Format("2006-01-02 15:04"), saved, fmt.Sprintf("%d", r.ResultsCount), label)
	}
	fmt.Fprintln(w, t)
}

func commonSummary(res model.CompatibilityResult, limit int) string {
	texts := make([]string, 0, limit)
	for i, kw := range res.CommonKeywords {
		if i == limit {
			break
		}
		texts = append(texts, kw.Text)
	}
	s := strings.Join(texts, ", ")
	if res.TotalCommon > len(texts) {
		s += fmt.Sprintf(" (+%d)", res.TotalCommon-len(texts))
	}
	return s
}

func shorten(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
