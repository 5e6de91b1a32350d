package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jtomasevic/bloc/pkg/markov_chain"
)

var (
	headerStyle     = lipgloss.NewStyle().Bold(true)
	actionStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	labelStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	observedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	unobservedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Faint(true)
)

func renderAction(s string) string {
	return actionStyle.Render(s)
}

// renderMatrix draws the frequency matrix of m with unobserved transitions
// dimmed and marked, observed ones highlighted.
func renderMatrix(m *markov_chain.Model) string {
	cells := m.Cells()

	width := 1
	for _, s := range m.Vocabulary {
		width = max(width, lipgloss.Width(s))
	}
	text := make([][]string, len(cells))
	for i, row := range cells {
		text[i] = make([]string, len(row))
		for j, c := range row {
			text[i][j] = markov_chain.FormatCell(c)
			width = max(width, lipgloss.Width(text[i][j]))
		}
	}
	cell := func(s lipgloss.Style) lipgloss.Style {
		return s.Width(width + 2).Align(lipgloss.Right)
	}

	var b strings.Builder
	if m.Label != "" {
		b.WriteString(headerStyle.Render(m.Label))
		b.WriteByte('\n')
	}
	b.WriteString(cell(lipgloss.NewStyle()).Render(""))
	for _, s := range m.Vocabulary {
		b.WriteString(cell(headerStyle).Render(s))
	}
	b.WriteByte('\n')
	for i, row := range cells {
		b.WriteString(cell(headerStyle).Render(m.Vocabulary[i]))
		for j, c := range row {
			style := unobservedStyle
			if c.Observed {
				style = observedStyle
			}
			b.WriteString(cell(style).Render(text[i][j]))
		}
		b.WriteByte('\n')
	}
	return b.String()
}
