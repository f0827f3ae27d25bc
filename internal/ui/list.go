package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/freemovies/internal/models"
)

var (
	_ list.Item = movieItem{}
	_ list.Item = listEntry{}
	_ list.Item = genreItem("")
)

// movieItem wraps [models.MovieSummary] to implement [list.Item].
type movieItem struct {
	movie  models.MovieSummary
	listed bool
}

func (i movieItem) FilterValue() string { return i.movie.Title }
func (i movieItem) Title() string {
	if i.listed {
		return "★ " + i.movie.Title
	}
	return i.movie.Title
}
func (i movieItem) Description() string {
	return fmt.Sprintf("%s • %s • %s", i.movie.Year, i.movie.Type, i.movie.ImdbID)
}

// listEntry wraps [models.ListItem] to implement [list.Item].
type listEntry struct {
	item models.ListItem
}

func (i listEntry) FilterValue() string { return i.item.Title }
func (i listEntry) Title() string       { return i.item.Title }
func (i listEntry) Description() string {
	desc := fmt.Sprintf("%s • %s", i.item.Year, i.item.Type)
	if !i.item.AddedAt.IsZero() {
		desc = fmt.Sprintf("%s • added %s", desc, i.item.AddedAt.Format("Jan 2, 2006"))
	}
	return desc
}

// genreItem is a browsable genre.
type genreItem string

func (g genreItem) FilterValue() string { return string(g) }
func (g genreItem) Title() string {
	s := string(g)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
func (g genreItem) Description() string { return "Browse " + string(g) }
