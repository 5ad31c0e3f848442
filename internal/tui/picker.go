package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/amishk599/talentmesh/internal/model"
)

const (
	pickPending = -1
	pickAborted = -2
)

// pickerModel lists saved searches, two lines per record, and records
// the index the user confirmed.
type pickerModel struct {
	records []model.SearchRecord
	cursor  int
	chosen  int
}

func (m pickerModel) Init() tea.Cmd { return nil }

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	last := len(m.records) - 1
	switch key.String() {
	case "q", "esc", "ctrl+c":
		m.chosen = pickAborted
		return m, tea.Quit
	case "up", "k":
		m.cursor = max(m.cursor-1, 0)
	case "down", "j":
		m.cursor = max(min(m.cursor+1, last), 0)
	case "g", "home":
		m.cursor = 0
	case "G", "end":
		m.cursor = max(last, 0)
	case "enter":
		if last >= 0 {
			m.chosen = m.cursor
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m pickerModel) View() string {
	var b strings.Builder
	b.WriteString(titleFocused.Render(fmt.Sprintf("Saved searches (%d)", len(m.records))))
	b.WriteString("\n\n")

	if len(m.records) == 0 {
		b.WriteString(rowSub.Render("  nothing saved yet; use `history save` first"))
		b.WriteString("\n")
	}
	for i, r := range m.records {
		title, sub := " "+recordLabel(r), "   "+recordDetail(r)
		if i == m.cursor {
			b.WriteString(rowTitleSel.Render(title) + "\n")
			b.WriteString(rowSubSel.Render(sub) + "\n")
			continue
		}
		b.WriteString(rowTitle.Render(title) + "\n")
		b.WriteString(rowSub.Render(sub) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(faintStyle.Render("j/k move  g/G first/last  enter rerun  q quit"))
	return b.String()
}

// recordLabel is the one-line summary of a stored search.
func recordLabel(r model.SearchRecord) string {
	name := r.Name
	if name == "" {
		name = firstWords(r.QueryText, 8)
	}
	return fmt.Sprintf("%s  (%d results, %s)", name, r.ResultsCount, r.CreatedAt.Format("2006-01-02"))
}

// recordDetail names the pools and top keywords a rerun will use.
func recordDetail(r model.SearchRecord) string {
	var pools []string
	if r.Filters.IncludeOrgPool {
		pools = append(pools, "org")
	}
	if r.Filters.IncludePublicPool {
		pools = append(pools, "public")
	}
	if len(pools) == 0 {
		pools = append(pools, "none")
	}
	kws := make([]string, 0, 4)
	for _, kw := range r.QueryKeywords {
		if len(kws) == cap(kws) {
			break
		}
		kws = append(kws, kw.Text)
	}
	return fmt.Sprintf("pools: %s  keywords: %s", strings.Join(pools, "+"), strings.Join(kws, ", "))
}

func firstWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:n], " ") + "…"
}

// RunSearchPicker shows the saved-search selector and returns the chosen
// index, or -1 when the user backs out.
func RunSearchPicker(records []model.SearchRecord) (int, error) {
	out, err := tea.NewProgram(pickerModel{records: records, chosen: pickPending}).Run()
	if err != nil {
		return pickPending, fmt.Errorf("running search picker: %w", err)
	}
	if chosen := out.(pickerModel).chosen; chosen >= 0 {
		return chosen, nil
	}
	return pickPending, nil
}
