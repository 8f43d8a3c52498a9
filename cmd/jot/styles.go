package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	idStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	titleStyle = lipgloss.NewStyle().Bold(true)
	dateStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
	tagStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

// shortID is the displayed prefix of a note ID.
const shortID = 8

func renderID(id string) string {
	if len(id) > shortID {
		id = id[:shortID]
	}
	return idStyle.Render(id)
}

func renderTags(tags []string) string {
	parts := make([]string, 0, len(tags))
	for _, t := range tags {
		parts = append(parts, tagStyle.Render("#"+t))
	}
	return strings.Join(parts, " ")
}
