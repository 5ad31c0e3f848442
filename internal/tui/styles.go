package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/talentmesh/internal/model"
)

var (
	colAccent   = lipgloss.Color("39")
	colMuted    = lipgloss.Color("240")
	colSoft     = lipgloss.Color("245")
	colText     = lipgloss.Color("252")
	colBright   = lipgloss.Color("15")
	colSelected = lipgloss.Color("24")
	colBar      = lipgloss.Color("42")
)

func framed(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(c)
}

var (
	frameFocused = framed(colAccent)
	frameBlurred = framed(colMuted)

	titleFocused = lipgloss.NewStyle().Bold(true).Padding(0, 1).Foreground(colAccent)
	titleBlurred = lipgloss.NewStyle().Bold(true).Padding(0, 1).Foreground(colMuted)

	statusStyle = lipgloss.NewStyle().Padding(0, 1).Foreground(colText).Background(lipgloss.Color("236"))

	rowTitle    = lipgloss.NewStyle().Bold(true)
	rowSub      = lipgloss.NewStyle().Foreground(colSoft)
	rowTitleSel = rowTitle.Foreground(colBright).Background(colSelected)
	rowSubSel   = lipgloss.NewStyle().Foreground(colText).Background(colSelected)

	labelStyle   = lipgloss.NewStyle().Bold(true).Foreground(colAccent).Width(16)
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(colBright).MarginBottom(1)
	ruleStyle    = lipgloss.NewStyle().Foreground(colMuted)
	faintStyle   = lipgloss.NewStyle().Foreground(colSoft).Italic(true)
	barFill      = lipgloss.NewStyle().Foreground(colBar)
)

var bandColors = map[model.QualityBand]lipgloss.Color{
	model.BandExcellent: "42",
	model.BandGreat:     "118",
	model.BandGood:      "220",
	model.BandModerate:  "208",
	model.BandLow:       "196",
}

func bandStyle(b model.QualityBand) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(bandColors[b])
}
