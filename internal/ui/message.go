package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/freemovies/internal/models"
	"github.com/desertthunder/freemovies/internal/session"
	"github.com/desertthunder/freemovies/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgSearchDone MsgKind = iota
	MsgBrowseProgress
	MsgBrowseDone
	MsgMovieFetched
	MsgListChanged
	MsgGuardChecked
)

type searchResult struct {
	page *models.SearchPage
	err  error
}

type browseResult struct {
	result *tasks.BrowseResult
	err    error
}

type movieResult struct {
	movie *models.MovieDetail
	err   error
}

// searchDoneMsg is the constructor for [MsgSearchDone]
func searchDoneMsg(page *models.SearchPage, err error) Msg {
	return Msg{kind: MsgSearchDone, data: searchResult{page, err}}
}

// browseProgressMsg is the constructor for [MsgBrowseProgress]
func browseProgressMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgBrowseProgress, data: update}
}

// browseDoneMsg is the constructor for [MsgBrowseDone]
func browseDoneMsg(result *tasks.BrowseResult, err error) Msg {
	return Msg{kind: MsgBrowseDone, data: browseResult{result, err}}
}

// movieFetchedMsg is the constructor for [MsgMovieFetched]
func movieFetchedMsg(movie *models.MovieDetail, err error) Msg {
	return Msg{kind: MsgMovieFetched, data: movieResult{movie, err}}
}

// listChangedMsg is the constructor for [MsgListChanged]
func listChangedMsg(res session.Result) Msg {
	return Msg{kind: MsgListChanged, data: res}
}

// guardCheckedMsg is the constructor for [MsgGuardChecked]
func guardCheckedMsg(d session.Decision) Msg {
	return Msg{kind: MsgGuardChecked, data: d}
}
