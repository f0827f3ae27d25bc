package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var styles = newTheme(themeColors{
	brand:  "#E50914",
	listed: "#46D369",
	alert:  "#FF0000",
	notice: "#E87C03",
	rating: "#F5C518",
	muted:  "#626262",
})

type themeColors struct {
	brand, listed, alert, notice, rating, muted lipgloss.Color
}

// theme holds the rendered roles of the TUI; fields are named for what they mark, not their color.
type theme struct {
	title  lipgloss.Style
	ok     lipgloss.Style
	err    lipgloss.Style
	warn   lipgloss.Style
	help   lipgloss.Style
	label  lipgloss.Style
	rating lipgloss.Style
	badge  lipgloss.Style
}

func newTheme(c themeColors) *theme {
	fg := func(col lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(col) }

	return &theme{
		title:  fg(c.brand).Bold(true).MarginBottom(1),
		ok:     fg(c.listed).Bold(true),
		err:    fg(c.alert).Bold(true),
		warn:   fg(c.notice),
		help:   fg(c.muted).Italic(true),
		label:  fg(c.muted).Width(10),
		rating: fg(c.rating).Bold(true),
		badge:  lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(c.brand).Padding(0, 1),
	}
}

// field renders one "Label: value" row of the detail view, or "" for values OMDb left empty.
func (t *theme) field(label, value string) string {
	if value == "" || value == "N/A" {
		return ""
	}
	return t.label.Render(label+":") + value + "\n"
}

// typeBadge renders the OMDb type ("movie", "series", "episode") as an uppercase tag.
func (t *theme) typeBadge(kind string) string {
	if kind == "" {
		return ""
	}
	return t.badge.Render(strings.ToUpper(kind))
}
