// Package tui holds the interactive terminal views: a spinner while a search
// runs, a split-pane browser of ranked matches and a saved-search picker.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/talentmesh/internal/keyword"
	"github.com/amishk599/talentmesh/internal/model"
	"github.com/amishk599/talentmesh/internal/scorer"
	"github.com/amishk599/talentmesh/internal/search"
)

// rowHeight is the number of lines a match occupies in a pane, separator included.
const rowHeight = 3

const (
	orgPane = iota
	publicPane
)

type viewState int

const (
	viewList viewState = iota
	viewDetail
)

// pane is one scrollable column of matches from a single pool.
type pane struct {
	title   string
	matches []model.RankedMatch
	cursor  int
	vp      viewport.Model
}

func (p *pane) move(delta int) {
	p.cursor = clamp(p.cursor+delta, 0, max(len(p.matches)-1, 0))
}

func (p *pane) selected() (model.RankedMatch, bool) {
	if len(p.matches) == 0 {
		return model.RankedMatch{}, false
	}
	return p.matches[p.cursor], true
}

// follow scrolls so the cursor row is fully visible.
func (p *pane) follow() {
	top := p.cursor * rowHeight
	switch {
	case top < p.vp.YOffset:
		p.vp.SetYOffset(top)
	case top+rowHeight-1 >= p.vp.YOffset+p.vp.Height:
		p.vp.SetYOffset(top + rowHeight - p.vp.Height)
	}
}

func (p pane) render(focused bool) string {
	if len(p.matches) == 0 {
		return faintStyle.Render("  no matches in this pool")
	}
	rows := make([]string, 0, len(p.matches))
	for i, r := range p.matches {
		head, sub, mark := rowTitle, rowSub, "  "
		if focused && i == p.cursor {
			head, sub, mark = rowTitleSel, rowSubSel, "> "
		}
		loc := "n/a"
		if r.Attrs != nil && r.Attrs.Location != "" {
			loc = r.Attrs.Location
		}
		rows = append(rows,
			mark+head.Render(fmt.Sprintf("%s  %.1f", r.ID, r.Result.Score))+"\n"+
				mark+sub.Render(fmt.Sprintf("%s · %s · %d common", r.Band, loc, r.Result.TotalCommon)))
	}
	return strings.Join(rows, "\n\n")
}

type resultsModel struct {
	bundle  *search.ResultBundle
	weights scorer.Weights

	panes  [2]pane
	focus  int
	width  int
	height int
	help   help.Model

	view      viewState
	detail    model.RankedMatch
	detailVP  viewport.Model
	showQuery bool
}

func newResultsModel(bundle *search.ResultBundle, weights scorer.Weights) resultsModel {
	m := resultsModel{
		bundle:   bundle,
		weights:  weights,
		help:     help.New(),
		detailVP: viewport.New(0, 0),
	}
	m.panes[orgPane] = pane{title: "Org candidates", vp: viewport.New(0, 0)}
	m.panes[publicPane] = pane{title: "Public users", vp: viewport.New(0, 0)}
	for _, r := range bundle.Results {
		i := orgPane
		if r.Source == model.PoolPublic {
			i = publicPane
		}
		m.panes[i].matches = append(m.panes[i].matches, r)
	}
	return m
}

func (m resultsModel) Init() tea.Cmd { return nil }

func (m resultsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
	case tea.KeyMsg:
		if m.view == viewDetail {
			return m.detailKey(msg)
		}
		return m.listKey(msg)
	}
	return m, nil
}

func (m *resultsModel) resize(w, h int) {
	m.width, m.height = w, h
	// Two border columns per pane and a one column gap.
	pw, ph := max((w-5)/2, 20), max(h-4, 5)
	for i := range m.panes {
		m.panes[i].vp.Width, m.panes[i].vp.Height = pw, ph
	}
	m.detailVP.Width, m.detailVP.Height = max(w-4, 20), max(h-4, 5)
	m.help.Width = w
	m.redraw()
	if m.view == viewDetail {
		m.detailVP.SetContent(m.renderDetail())
	}
}

func (m *resultsModel) redraw() {
	for i := range m.panes {
		m.panes[i].vp.SetContent(m.panes[i].render(i == m.focus))
	}
}

func (m resultsModel) listKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := &m.panes[m.focus]
	switch {
	case key.Matches(msg, keys.Quit, keys.Back):
		return m, tea.Quit
	case key.Matches(msg, keys.Switch):
		m.focus = 1 - m.focus
	case key.Matches(msg, keys.Up):
		p.move(-1)
	case key.Matches(msg, keys.Down):
		p.move(1)
	case key.Matches(msg, keys.Top):
		p.move(-len(p.matches))
	case key.Matches(msg, keys.Bottom):
		p.move(len(p.matches))
	case key.Matches(msg, keys.Open):
		return m.openDetail()
	default:
		var cmd tea.Cmd
		p.vp, cmd = p.vp.Update(msg)
		return m, cmd
	}
	m.redraw()
	m.panes[m.focus].follow()
	return m, nil
}

func (m resultsModel) detailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Back):
		m.view = viewList
		return m, nil
	case key.Matches(msg, keys.Query):
		m.showQuery = !m.showQuery
		m.detailVP.SetContent(m.renderDetail())
		m.detailVP.SetYOffset(0)
		return m, nil
	}
	var cmd tea.Cmd
	m.detailVP, cmd = m.detailVP.Update(msg)
	return m, cmd
}

func (m resultsModel) openDetail() (tea.Model, tea.Cmd) {
	sel, ok := m.panes[m.focus].selected()
	if !ok {
		return m, nil
	}
	m.view, m.detail, m.showQuery = viewDetail, sel, false
	m.detailVP.SetContent(m.renderDetail())
	m.detailVP.SetYOffset(0)
	return m, nil
}

func (m resultsModel) View() string {
	if m.width == 0 {
		return "loading results..."
	}
	if m.view == viewDetail {
		return m.detailView()
	}
	return m.listView()
}

func (m resultsModel) listView() string {
	w := m.panes[orgPane].vp.Width
	var heads, bodies []string
	for i, p := range m.panes {
		title, frame := titleBlurred, frameBlurred
		if i == m.focus {
			title, frame = titleFocused, frameFocused
		}
		label := title.Render(fmt.Sprintf("%s (%d)", p.title, len(p.matches)))
		heads = append(heads, lipgloss.NewStyle().Width(w+2).Render(label))
		bodies = append(bodies, frame.Width(w).Render(p.vp.View()))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, heads[0], " ", heads[1]) + "\n" +
		lipgloss.JoinHorizontal(lipgloss.Top, bodies[0], " ", bodies[1]) + "\n" +
		m.statusLine()
}

func (m resultsModel) statusLine() string {
	s := fmt.Sprintf("%s · %d of %d", m.bundle.Job.Title, len(m.bundle.Results), m.bundle.TotalResults)
	if len(m.bundle.Failed) > 0 {
		failed := make([]string, len(m.bundle.Failed))
		for i, f := range m.bundle.Failed {
			failed[i] = string(f)
		}
		s += " · unavailable: " + strings.Join(failed, ", ")
	}
	return statusStyle.Width(m.width).Render(s + "   " + m.help.ShortHelpView(keys.listHelp()))
}

func (m resultsModel) detailView() string {
	return headingStyle.Render("Match "+m.detail.ID) + "\n" +
		frameFocused.Width(m.width-2).Render(m.detailVP.View()) + "\n" +
		statusStyle.Width(m.width).Render(m.help.ShortHelpView(keys.detailHelp()))
}

func (m resultsModel) renderDetail() string {
	d := m.detail
	width := max(m.width-8, 20)
	var b strings.Builder

	fields := [][2]string{
		{"ID", d.ID},
		{"Pool", string(d.Source)},
		{"Score", fmt.Sprintf("%.1f", d.Result.Score)},
		{"Band", bandStyle(d.Band).Render(string(d.Band))},
	}
	if a := d.Attrs; a != nil {
		fields = append(fields, [2]string{"Location", a.Location})
		if a.IsPremium {
			fields = append(fields, [2]string{"Premium", "yes"})
		}
	}
	for _, f := range fields {
		if f[1] != "" {
			b.WriteString(labelStyle.Render(f[0]) + f[1] + "\n")
		}
	}

	section(&b, "Breakdown", width)
	bd := d.Result.Breakdown
	components := []struct {
		label          string
		points, budget float64
	}{
		{"Keyword overlap", bd.Keyword, m.weights.Overlap},
		{"Diversity", bd.Diversity, m.weights.Diversity},
		{"Completeness", bd.Completeness, m.weights.Completeness},
		{"Location", bd.Location, m.weights.Location},
		{"Premium", bd.Premium, m.weights.Premium},
	}
	for _, c := range components {
		b.WriteString(breakdownLine(c.label, c.points, c.budget))
	}

	section(&b, fmt.Sprintf("Common keywords (%d)", d.Result.TotalCommon), width)
	b.WriteString(keywordBlock(d.Result.CommonKeywords, width))

	if m.showQuery {
		section(&b, "Query keywords", width)
		b.WriteString(keywordBlock(m.bundle.Keywords, width))
	} else {
		b.WriteString("\n" + faintStyle.Render("  press r to show the query keywords") + "\n")
	}
	return b.String()
}

// section writes a ruled heading padded to width.
func section(b *strings.Builder, label string, width int) {
	head := "── " + label + " "
	rule := strings.Repeat("─", max(width-lipgloss.Width(head), 3))
	b.WriteString("\n" + ruleStyle.Render(head+rule) + "\n\n")
}

func keywordBlock(kws []model.Keyword, width int) string {
	if len(kws) == 0 {
		return faintStyle.Render("  none") + "\n"
	}
	return lipgloss.NewStyle().Width(width).Render(strings.Join(keyword.Texts(kws), ", ")) + "\n"
}

// breakdownLine renders one score component as a label, a 20-cell bar and
// the points over the component budget.
func breakdownLine(label string, points, budget float64) string {
	const cells = 20
	filled := 0
	if budget > 0 {
		filled = clamp(int(points/budget*cells+0.5), 0, cells)
	}
	bar := barFill.Render(strings.Repeat("█", filled)) + ruleStyle.Render(strings.Repeat("░", cells-filled))
	return fmt.Sprintf("%s%s %5.1f / %.0f\n", labelStyle.Render(label), bar, points, budget)
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

// RunResultsTUI launches the split-pane browser over a search result.
// weights are the scorer budgets used to scale the breakdown bars.
func RunResultsTUI(bundle *search.ResultBundle, weights scorer.Weights) error {
	if _, err := tea.NewProgram(newResultsModel(bundle, weights), tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("running results browser: %w", err)
	}
	return nil
}
