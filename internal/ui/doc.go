// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI offers the same workflow as the web front end:
//  1. [SearchView] : Type a query and search the catalog
//  2. [GenreView] : Pick a genre to browse
//  3. [ResultsView] : Page through search or browse results
//  4. [DetailView] : Full record of a title, add or remove it from the watch list
//  5. [WatchListView] : The signed-in user's list (guarded)
//
// Entering [WatchListView] runs the session guard first; anonymous users are sent back to the
// search view, which plays the part of the landing route.
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Genre browse progress flows through a channel from the tasks engine.
package ui
