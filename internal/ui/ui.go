package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/desertthunder/freemovies/internal/models"
	"github.com/desertthunder/freemovies/internal/services"
	"github.com/desertthunder/freemovies/internal/session"
	"github.com/desertthunder/freemovies/internal/shared"
	"github.com/desertthunder/freemovies/internal/tasks"
)

// ViewState represents the current view in the TUI state machine
type ViewState int

const (
	SearchView ViewState = iota
	GenreView
	ResultsView
	DetailView
	WatchListView
	LoadingView
)

func (v ViewState) String() string {
	switch v {
	case SearchView:
		return "search"
	case GenreView:
		return "genres"
	case ResultsView:
		return "results"
	case DetailView:
		return "detail"
	case WatchListView:
		return "mylist"
	case LoadingView:
		return "loading"
	default:
		return "unknown"
	}
}

// Sessions reports the signed-in user.
type Sessions interface {
	Current() models.Session
}

// Guard decides whether the watch list may be shown.
type Guard interface {
	Check(ctx context.Context) session.Decision
}

// WatchList is the list store surface the TUI drives.
type WatchList interface {
	Items() []models.ListItem
	Contains(imdbID string) bool
	Add(ctx context.Context, m models.MovieSummary) session.Result
	Remove(ctx context.Context, imdbID string) session.Result
	Err() string
}

// Options configures a [Model].
type Options struct {
	Sessions Sessions
	Guard    Guard
	Catalog  services.Catalog
	Browser  *tasks.Engine
	List     WatchList
	Logger   *log.Logger
}

// searchState mirrors the movies store of the web front end.
type searchState struct {
	query        string
	page         int
	totalResults int
	genre        string
	err          string
}

func (s searchState) pages() int {
	if s.totalResults <= 0 {
		return 1
	}
	return (s.totalResults + resultsPerPage - 1) / resultsPerPage
}

const resultsPerPage = 10

// browseRun carries one genre browse from the engine goroutine to the model.
type browseRun struct {
	progress chan tasks.ProgressUpdate
	done     chan browseResult
}

// Model is the root bubbletea model.
type Model struct {
	ctx      context.Context
	sessions Sessions
	guard    Guard
	catalog  services.Catalog
	browser  *tasks.Engine
	mylist   WatchList
	logger   *log.Logger

	view     ViewState
	previous ViewState // where esc returns from the detail view
	width    int
	height   int

	input    textinput.Model
	results  list.Model
	genres   list.Model
	watch    list.Model
	spinner  spinner.Model
	help     help.Model
	keys     keyMap
	search   searchState
	movie    *models.MovieDetail
	progress tasks.ProgressUpdate
	run      *browseRun
	status   string
	err      string
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts Options) *Model {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	input := textinput.New()
	input.Placeholder = "Search movies"
	input.CharLimit = 120
	input.Focus()

	genreItems := make([]list.Item, 0, len(tasks.Genres()))
	for _, g := range tasks.Genres() {
		genreItems = append(genreItems, genreItem(g))
	}
	genres := list.New(genreItems, list.NewDefaultDelegate(), 0, 0)
	genres.Title = "Genres"

	results := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	results.Title = "Results"

	watch := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	watch.Title = "My List"

	for _, l := range []*list.Model{&genres, &results, &watch} {
		l.SetFilteringEnabled(false)
		l.SetShowHelp(false)
	}

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	return &Model{
		ctx:      ctx,
		sessions: opts.Sessions,
		guard:    opts.Guard,
		catalog:  opts.Catalog,
		browser:  opts.Browser,
		mylist:   opts.List,
		logger:   shared.WithLogger(opts.Logger, "component", "tui"),
		view:     SearchView,
		input:    input,
		results:  results,
		genres:   genres,
		watch:    watch,
		spinner:  spin,
		help:     help.New(),
		keys:     newKeyMap(),
		search:   searchState{page: 1},
	}
}

// State returns the active view.
func (m *Model) State() ViewState { return m.view }

// Init starts the cursor blink.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		for _, l := range []*list.Model{&m.results, &m.genres, &m.watch} {
			l.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.view {
		case SearchView:
			return m.handleSearchKeys(msg)
		case GenreView:
			return m.handleGenreKeys(msg)
		case ResultsView:
			return m.handleResultsKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		case WatchListView:
			return m.handleWatchListKeys(msg)
		case LoadingView:
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
			return m, nil
		}

	case spinner.TickMsg:
		if m.view != LoadingView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateActive(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgSearchDone:
		res := msg.data.(searchResult)
		if res.err != nil {
			m.search.err = services.Message(res.err, "Error searching movies")
			m.logger.Warn("search failed", "query", m.search.query, "error", res.err)
			m.view = SearchView
			return m, nil
		}
		m.search.err = ""
		m.search.totalResults = res.page.TotalResults
		m.results.Title = fmt.Sprintf("Results for %q (page %d of %d)", m.search.query, m.search.page, m.search.pages())
		m.view = ResultsView
		return m, m.results.SetItems(m.movieItems(res.page.Items))

	case MsgBrowseProgress:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, m.waitForProgress()

	case MsgBrowseDone:
		res := msg.data.(browseResult)
		m.run = nil
		if res.err != nil {
			m.search.err = services.Message(res.err, "Error browsing "+m.search.genre)
			m.logger.Warn("browse failed", "genre", m.search.genre, "error", res.err)
			m.view = GenreView
			return m, nil
		}
		m.search.err = ""
		m.search.totalResults = len(res.result.Items)
		m.results.Title = fmt.Sprintf("%s (%d)", genreItem(m.search.genre).Title(), len(res.result.Items))
		m.view = ResultsView
		return m, m.results.SetItems(m.movieItems(res.result.Items))

	case MsgMovieFetched:
		res := msg.data.(movieResult)
		if res.err != nil {
			m.err = services.Message(res.err, "Movie not found")
			m.view = m.previous
			return m, nil
		}
		m.err = ""
		m.movie = res.movie
		m.view = DetailView
		return m, nil

	case MsgListChanged:
		res := msg.data.(session.Result)
		if !res.Success {
			m.err = res.Error
			m.status = ""
		} else {
			m.err = ""
		}
		return m, m.refreshLists()

	case MsgGuardChecked:
		d := msg.data.(session.Decision)
		if !d.Allowed {
			m.logger.Info("watch list denied", "redirect", d.Redirect)
			m.status = "Sign in to see your list"
			m.enterSearch()
			return m, nil
		}
		m.status = ""
		m.view = WatchListView
		if e := m.mylist.Err(); e != "" {
			m.err = e
		}
		return m, m.watch.SetItems(m.listEntries())
	}
	return m, nil
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		return m, m.startSearch(m.input.Value(), 1)
	case tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyTab:
		m.input.Blur()
		m.view = GenreView
		return m, nil
	case tea.KeyCtrlL:
		m.input.Blur()
		return m, m.checkGuard()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleGenreKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.search):
		m.enterSearch()
		return m, nil
	case key.Matches(msg, m.keys.myList):
		return m, m.checkGuard()
	case key.Matches(msg, m.keys.enter):
		if g, ok := m.genres.SelectedItem().(genreItem); ok {
			return m, m.startBrowse(string(g))
		}
		return m, nil
	}
	return m.updateList(&m.genres, msg)
}

func (m *Model) handleResultsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.search):
		m.enterSearch()
		return m, nil
	case key.Matches(msg, m.keys.genres):
		m.view = GenreView
		return m, nil
	case key.Matches(msg, m.keys.myList):
		return m, m.checkGuard()
	case key.Matches(msg, m.keys.next):
		if m.search.genre == "" && m.search.page < m.search.pages() {
			return m, m.startSearch(m.search.query, m.search.page+1)
		}
		return m, nil
	case key.Matches(msg, m.keys.prev):
		if m.search.genre == "" && m.search.page > 1 {
			return m, m.startSearch(m.search.query, m.search.page-1)
		}
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if it, ok := m.results.SelectedItem().(movieItem); ok {
			return m, m.fetchMovie(it.movie.ImdbID, ResultsView)
		}
		return m, nil
	}
	return m.updateList(&m.results, msg)
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = m.previous
		return m, nil
	case key.Matches(msg, m.keys.search):
		m.enterSearch()
		return m, nil
	case key.Matches(msg, m.keys.toggle):
		if m.movie == nil {
			return m, nil
		}
		return m, m.toggleListed(m.movie.MovieSummary)
	}
	return m, nil
}

func (m *Model) handleWatchListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.search):
		m.enterSearch()
		return m, nil
	case key.Matches(msg, m.keys.genres):
		m.view = GenreView
		return m, nil
	case key.Matches(msg, m.keys.remove):
		if it, ok := m.watch.SelectedItem().(listEntry); ok {
			return m, m.removeItem(it.item.ImdbID)
		}
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if it, ok := m.watch.SelectedItem().(listEntry); ok {
			return m, m.fetchMovie(it.item.ImdbID, WatchListView)
		}
		return m, nil
	}
	return m.updateList(&m.watch, msg)
}

func (m *Model) updateList(l *list.Model, msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	*l, cmd = l.Update(msg)
	return m, cmd
}

func (m *Model) updateActive(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m.view {
	case SearchView:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	case GenreView:
		return m.updateList(&m.genres, msg)
	case ResultsView:
		return m.updateList(&m.results, msg)
	case WatchListView:
		return m.updateList(&m.watch, msg)
	}
	return m, nil
}

func (m *Model) enterSearch() {
	m.view = SearchView
	m.input.Focus()
}

// startSearch runs a catalog search. A blank query clears the results without a request.
func (m *Model) startSearch(query string, page int) tea.Cmd {
	query = strings.TrimSpace(query)
	if query == "" {
		m.search = searchState{page: 1}
		m.results.SetItems(nil)
		return nil
	}
	if page < 1 {
		page = 1
	}

	m.search.query = query
	m.search.page = page
	m.search.genre = ""
	m.status = ""
	m.progress = tasks.ProgressUpdate{Message: fmt.Sprintf("Searching for %q...", query)}
	m.view = LoadingView

	ctx, catalog := m.ctx, m.catalog
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		res, err := catalog.Search(ctx, query, page)
		return searchDoneMsg(res, err)
	})
}

func (m *Model) startBrowse(genre string) tea.Cmd {
	if m.browser == nil {
		m.search.err = "Genre browse is unavailable"
		return nil
	}

	m.search = searchState{page: 1, genre: genre}
	m.status = ""
	m.progress = tasks.ProgressUpdate{Message: fmt.Sprintf("Browsing %s...", genre)}
	m.view = LoadingView

	run := &browseRun{
		progress: make(chan tasks.ProgressUpdate, 16),
		done:     make(chan browseResult, 1),
	}
	m.run = run

	ctx, engine := m.ctx, m.browser
	go func() {
		result, err := engine.Browse(ctx, run.progress, genre, tasks.DefaultBrowseLimit)
		run.done <- browseResult{result, err}
		close(run.progress)
	}()

	return tea.Batch(m.spinner.Tick, m.waitForProgress())
}

// waitForProgress relays the next browse update, then the final result once progress closes.
func (m *Model) waitForProgress() tea.Cmd {
	run := m.run
	if run == nil {
		return nil
	}
	return func() tea.Msg {
		update, ok := <-run.progress
		if !ok {
			res := <-run.done
			return browseDoneMsg(res.result, res.err)
		}
		return browseProgressMsg(update)
	}
}

func (m *Model) fetchMovie(imdbID string, from ViewState) tea.Cmd {
	m.previous = from
	m.progress = tasks.ProgressUpdate{Message: "Loading title..."}
	m.view = LoadingView

	ctx, catalog := m.ctx, m.catalog
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		movie, err := catalog.Movie(ctx, imdbID)
		return movieFetchedMsg(movie, err)
	})
}

func (m *Model) checkGuard() tea.Cmd {
	if m.guard == nil || m.mylist == nil {
		m.status = "Watch list is unavailable"
		return nil
	}
	ctx, guard := m.ctx, m.guard
	return func() tea.Msg {
		return guardCheckedMsg(guard.Check(ctx))
	}
}

func (m *Model) toggleListed(movie models.MovieSummary) tea.Cmd {
	if m.mylist == nil {
		return nil
	}
	ctx, store := m.ctx, m.mylist
	if store.Contains(movie.ImdbID) {
		m.status = "Removed " + movie.Title
		return func() tea.Msg { return listChangedMsg(store.Remove(ctx, movie.ImdbID)) }
	}
	m.status = "Added " + movie.Title
	return func() tea.Msg { return listChangedMsg(store.Add(ctx, movie)) }
}

func (m *Model) removeItem(imdbID string) tea.Cmd {
	ctx, store := m.ctx, m.mylist
	m.status = "Removed " + imdbID
	return func() tea.Msg { return listChangedMsg(store.Remove(ctx, imdbID)) }
}

// refreshLists re-renders list markers and the watch list after a change.
func (m *Model) refreshLists() tea.Cmd {
	cmds := []tea.Cmd{m.watch.SetItems(m.listEntries())}
	if items := m.results.Items(); len(items) > 0 {
		movies := make([]models.MovieSummary, 0, len(items))
		for _, it := range items {
			if mi, ok := it.(movieItem); ok {
				movies = append(movies, mi.movie)
			}
		}
		cmds = append(cmds, m.results.SetItems(m.movieItems(movies)))
	}
	return tea.Batch(cmds...)
}

func (m *Model) movieItems(movies []models.MovieSummary) []list.Item {
	items := make([]list.Item, len(movies))
	for i, mv := range movies {
		listed := m.mylist != nil && m.mylist.Contains(mv.ImdbID)
		items[i] = movieItem{movie: mv, listed: listed}
	}
	return items
}

func (m *Model) listEntries() []list.Item {
	if m.mylist == nil {
		return nil
	}
	entries := m.mylist.Items()
	items := make([]list.Item, len(entries))
	for i, e := range entries {
		items[i] = listEntry{item: e}
	}
	return items
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var body string
	switch m.view {
	case SearchView:
		body = m.renderSearch()
	case GenreView:
		body = m.renderList(&m.genres, m.keys.enter, m.keys.back, m.keys.myList, m.keys.quit)
	case ResultsView:
		body = m.renderList(&m.results, m.keys.enter, m.keys.next, m.keys.prev, m.keys.genres, m.keys.myList, m.keys.back)
	case DetailView:
		body = m.renderDetail()
	case WatchListView:
		body = m.renderList(&m.watch, m.keys.enter, m.keys.remove, m.keys.genres, m.keys.back, m.keys.quit)
	case LoadingView:
		body = m.renderLoading()
	}

	return fmt.Sprintf("%s\n%s%s", m.renderHeader(), body, m.renderFooter())
}

func (m *Model) renderHeader() string {
	who := "Not signed in"
	if m.sessions != nil {
		s := m.sessions.Current()
		switch {
		case s.Loading:
			who = "Restoring session..."
		case s.Authenticated:
			who = "Signed in as " + s.Name
		}
	}
	return styles.title.Render("freemovies") + "  " + styles.help.Render(who)
}

func (m *Model) renderFooter() string {
	var b strings.Builder
	if m.status != "" {
		b.WriteString("\n" + styles.ok.Render(m.status))
	}
	if m.err != "" {
		b.WriteString("\n" + styles.err.Render(m.err))
	}
	return b.String()
}

func (m *Model) renderSearch() string {
	var b strings.Builder
	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	if m.search.err != "" {
		b.WriteString(styles.warn.Render(m.search.err))
		b.WriteString("\n\n")
	}

	browse := key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "genres"))
	mylist := key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "my list"))
	quit := key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "quit"))
	b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.enter, browse, mylist, quit}))
	return b.String()
}

func (m *Model) renderList(l *list.Model, bindings ...key.Binding) string {
	out := l.View()
	if m.search.err != "" && l == &m.genres {
		out += "\n" + styles.warn.Render(m.search.err)
	}
	return fmt.Sprintf("%s\n\n%s", out, m.help.ShortHelpView(bindings))
}

func (m *Model) renderDetail() string {
	mv := m.movie
	if mv == nil {
		return styles.err.Render("No title loaded")
	}

	var b strings.Builder
	if badge := styles.typeBadge(mv.Type); badge != "" {
		b.WriteString(badge + " ")
	}
	b.WriteString(styles.title.Render(fmt.Sprintf("%s (%s)", mv.Title, mv.Year)))
	b.WriteString("\n")
	for _, row := range [][2]string{
		{"Rated", mv.Rated},
		{"Runtime", mv.Runtime},
		{"Genre", mv.Genre},
		{"Director", mv.Director},
		{"Actors", mv.Actors},
	} {
		b.WriteString(styles.field(row[0], row[1]))
	}
	if mv.ImdbRating != "" && mv.ImdbRating != "N/A" {
		b.WriteString(styles.label.Render("IMDb:") + styles.rating.Render(mv.ImdbRating+"/10") + "\n")
	}
	if mv.Plot != "" && mv.Plot != "N/A" {
		b.WriteString("\n" + mv.Plot + "\n")
	}

	var toggle key.Binding
	if m.mylist != nil && m.mylist.Contains(mv.ImdbID) {
		b.WriteString("\n" + styles.ok.Render("★ In your list") + "\n")
		toggle = key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "remove from list"))
	} else {
		toggle = key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add to list"))
	}

	b.WriteString("\n" + m.help.ShortHelpView([]key.Binding{toggle, m.keys.back, m.keys.search, m.keys.quit}))
	return b.String()
}

func (m *Model) renderLoading() string {
	line := m.progress.Message
	if m.progress.Total > 0 {
		line = fmt.Sprintf("%s (%d/%d)", line, m.progress.Step, m.progress.Total)
	}
	return fmt.Sprintf("%s %s", m.spinner.View(), line)
}
