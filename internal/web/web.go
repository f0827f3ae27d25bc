// Package web serves the browser front end for the local session.
//
// # Routes
//
//	GET  /                     → landing page with a series row
//	GET  /search?q=&page=      → movie search
//	GET  /browse/{genre}       → genre browse
//	GET  /movies/{id}          → title detail with add/remove controls
//	GET  /auth/login           → sign-in form
//	POST /auth/login           → email/password sign-in
//	GET  /auth/register        → registration form
//	POST /auth/register        → create account
//	POST /auth/google          → federated sign-in (opens the system browser)
//	POST /auth/logout          → sign out
//	GET  /mylist               → watch list (guarded)
//	POST /mylist               → add to watch list (guarded)
//	POST /mylist/{id}/delete   → remove from watch list (guarded)
//
// The process owns a single session, so every request renders the same signed-in user.
// Guarded routes wait for session restoration through [server.RequireAuth] and redirect to
// the landing page when nobody is signed in.
//
// Templates are embedded; each page is parsed together with base.html.
package web

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/freemovies/internal/formatter"
	"github.com/desertthunder/freemovies/internal/models"
	"github.com/desertthunder/freemovies/internal/server"
	"github.com/desertthunder/freemovies/internal/services"
	"github.com/desertthunder/freemovies/internal/session"
	"github.com/desertthunder/freemovies/internal/shared"
	"github.com/desertthunder/freemovies/internal/tasks"
)

//go:embed templates/*.html
var templateFS embed.FS

const resultsPerPage = 10

// Sessions is the account surface the web app drives.
type Sessions interface {
	Current() models.Session
	Watch() (<-chan models.Session, func())
	Register(ctx context.Context, email, password, name string) session.Result
	Login(ctx context.Context, email, password string) session.Result
	LoginWithGoogle(ctx context.Context) session.Result
	Logout(ctx context.Context) session.Result
}

// WatchList is the list store surface the web app drives.
type WatchList interface {
	Items() []models.ListItem
	Contains(imdbID string) bool
	Add(ctx context.Context, m models.MovieSummary) session.Result
	Remove(ctx context.Context, imdbID string) session.Result
	Err() string
}

// Options configures an [App].
type Options struct {
	Sessions Sessions
	Access   server.AccessCheck
	Catalog  services.Catalog
	Browser  *tasks.Engine
	List     WatchList
	Logger   *log.Logger
	// Settle bounds how long auth actions wait for the session to reflect them before redirecting.
	Settle time.Duration
}

// App holds the handlers of the web front end.
type App struct {
	sessions Sessions
	access   server.AccessCheck
	catalog  services.Catalog
	browser  *tasks.Engine
	list     WatchList
	logger   *log.Logger
	settle   time.Duration
	pages    map[string]*template.Template
}

type page struct {
	Session models.Session
	Query   string
	Flash   string
	Error   string

	Items   []models.MovieSummary
	Page    *models.SearchPage
	HasNext bool
	Genre   string

	Movie  *models.MovieDetail
	InList bool

	List []models.ListItem

	Email string
	Name  string
}

var funcs = template.FuncMap{
	"hasPoster": formatter.HasPoster,
	"add":       func(a, b int) int { return a + b },
	"sub":       func(a, b int) int { return a - b },
}

// New parses templates and builds an App.
func New(opts Options) (*App, error) {
	if opts.Sessions == nil || opts.Catalog == nil || opts.List == nil {
		return nil, fmt.Errorf("%w: web app needs sessions, catalog and list", shared.ErrMissingConfig)
	}

	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	access := opts.Access
	if access == nil {
		access = func(context.Context) (bool, string) {
			return opts.Sessions.Current().Authenticated, session.LandingRoute
		}
	}
	browser := opts.Browser
	if browser == nil {
		browser = tasks.NewEngine(opts.Catalog)
	}
	settle := opts.Settle
	if settle <= 0 {
		settle = session.DefaultGuardTimeout
	}

	pages := map[string]*template.Template{}
	for _, name := range []string{"index", "search", "browse", "movie", "mylist", "login", "register"} {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/base.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
		}
		pages[name] = t
	}

	return &App{
		sessions: opts.Sessions,
		access:   access,
		catalog:  opts.Catalog,
		browser:  browser,
		list:     opts.List,
		logger:   shared.WithLogger(logger, "component", "web"),
		settle:   settle,
		pages:    pages,
	}, nil
}

// Register adds every route to r. Watch list routes are wrapped in [server.RequireAuth].
func (a *App) Register(r *server.BasicRouter) {
	guard := server.RequireAuth(a.access)

	r.HandleFunc(http.MethodGet, "/{$}", a.index)
	r.HandleFunc(http.MethodGet, "/search", a.search)
	r.HandleFunc(http.MethodGet, "/browse/{genre}", a.browse)
	r.HandleFunc(http.MethodGet, "/movies/{id}", a.movie)

	r.HandleFunc(http.MethodGet, "/auth/login", a.loginForm)
	r.HandleFunc(http.MethodPost, "/auth/login", a.login)
	r.HandleFunc(http.MethodGet, "/auth/register", a.registerForm)
	r.HandleFunc(http.MethodPost, "/auth/register", a.register)
	r.HandleFunc(http.MethodPost, "/auth/google", a.google)
	r.HandleFunc(http.MethodPost, "/auth/logout", a.logout)

	r.Handle(http.MethodGet, "/mylist", guard(http.HandlerFunc(a.myList)))
	r.Handle(http.MethodPost, "/mylist", guard(http.HandlerFunc(a.addToList)))
	r.Handle(http.MethodPost, "/mylist/{id}/delete", guard(http.HandlerFunc(a.removeFromList)))
}

// Handler returns a router with logging, panic recovery and every route registered.
func (a *App) Handler() http.Handler {
	r := server.NewBasicRouter()
	r.Use(server.Recover(a.logger), server.Logging(a.logger))
	a.Register(r)
	a.logger.Debug("routes registered", "patterns", r.Patterns())
	return r
}

func (a *App) render(w http.ResponseWriter, name string, status int, p page) {
	p.Session = a.sessions.Current()

	t, ok := a.pages[name]
	if !ok {
		http.Error(w, "unknown page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := t.ExecuteTemplate(w, "base", p); err != nil {
		a.logger.Error("failed to render page", "page", name, "error", err)
	}
}

func flash(r *http.Request) (msg, errMsg string) {
	q := r.URL.Query()
	return q.Get("flash"), q.Get("error")
}

func redirect(w http.ResponseWriter, r *http.Request, path, key, msg string) {
	if msg != "" {
		path += "?" + url.Values{key: {msg}}.Encode()
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

func (a *App) index(w http.ResponseWriter, r *http.Request) {
	p := page{}
	p.Flash, p.Error = flash(r)

	items, err := a.catalog.Series(r.Context(), resultsPerPage)
	if err != nil {
		a.logger.Warn("failed to load series", "error", err)
	}
	p.Items = items
	a.render(w, "index", http.StatusOK, p)
}

func (a *App) search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	pageNum, _ := strconv.Atoi(r.URL.Query().Get("page"))
	p := page{Query: q}

	if q == "" {
		a.render(w, "search", http.StatusOK, p)
		return
	}

	result, err := a.catalog.Search(r.Context(), q, pageNum)
	if err != nil {
		p.Error = services.Message(err, "Error connecting to the API")
		a.render(w, "search", http.StatusOK, p)
		return
	}

	p.Page = result
	p.Items = result.Items
	p.HasNext = result.Page*resultsPerPage < result.TotalResults
	a.render(w, "search", http.StatusOK, p)
}

func (a *App) browse(w http.ResponseWriter, r *http.Request) {
	genre := r.PathValue("genre")
	p := page{Genre: genre}

	result, err := a.browser.Browse(r.Context(), nil, genre, resultsPerPage)
	if err != nil {
		p.Error = services.Message(err, fmt.Sprintf("Error loading %s", genre))
	} else {
		p.Items = result.Items
	}
	a.render(w, "browse", http.StatusOK, p)
}

func (a *App) movie(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	p := page{}
	p.Flash, p.Error = flash(r)

	movie, err := a.catalog.Movie(r.Context(), id)
	if err != nil {
		status := http.StatusBadGateway
		if services.IsNotFound(err) {
			status = http.StatusNotFound
		}
		p.Error = services.Message(err, "Movie not found")
		a.render(w, "movie", status, p)
		return
	}

	p.Movie = movie
	p.InList = a.list.Contains(movie.ImdbID)
	a.render(w, "movie", http.StatusOK, p)
}

func (a *App) loginForm(w http.ResponseWriter, r *http.Request) {
	p := page{}
	p.Flash, p.Error = flash(r)
	a.render(w, "login", http.StatusOK, p)
}

func (a *App) registerForm(w http.ResponseWriter, r *http.Request) {
	p := page{}
	p.Flash, p.Error = flash(r)
	a.render(w, "register", http.StatusOK, p)
}

func (a *App) login(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	res := a.sessions.Login(r.Context(), email, r.FormValue("password"))
	if !res.Success {
		a.render(w, "login", http.StatusUnauthorized, page{Email: email, Error: res.Error})
		return
	}
	a.await(r.Context(), true)
	http.Redirect(w, r, session.LandingRoute, http.StatusSeeOther)
}

func (a *App) register(w http.ResponseWriter, r *http.Request) {
	email, name := r.FormValue("email"), r.FormValue("name")
	res := a.sessions.Register(r.Context(), email, r.FormValue("password"), name)
	if !res.Success {
		a.render(w, "register", http.StatusBadRequest, page{Email: email, Name: name, Error: res.Error})
		return
	}
	a.await(r.Context(), true)
	http.Redirect(w, r, session.LandingRoute, http.StatusSeeOther)
}

func (a *App) google(w http.ResponseWriter, r *http.Request) {
	res := a.sessions.LoginWithGoogle(r.Context())
	if !res.Success {
		redirect(w, r, "/auth/login", "error", res.Error)
		return
	}
	a.await(r.Context(), true)
	http.Redirect(w, r, session.LandingRoute, http.StatusSeeOther)
}

func (a *App) logout(w http.ResponseWriter, r *http.Request) {
	res := a.sessions.Logout(r.Context())
	if !res.Success {
		redirect(w, r, session.LandingRoute, "error", res.Error)
		return
	}
	a.await(r.Context(), false)
	http.Redirect(w, r, session.LandingRoute, http.StatusSeeOther)
}

// await waits until the session's Authenticated flag equals want, the settle time passes, or ctx ends.
func (a *App) await(ctx context.Context, want bool) {
	ch, stop := a.sessions.Watch()
	defer stop()

	timer := time.NewTimer(a.settle)
	defer timer.Stop()

	for {
		select {
		case s, ok := <-ch:
			if !ok {
				return
			}
			if !s.Loading && s.Authenticated == want {
				return
			}
		case <-timer.C:
			a.logger.Warn("session did not settle", "authenticated", want)
			return
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) myList(w http.ResponseWriter, r *http.Request) {
	p := page{List: a.list.Items()}
	p.Flash, p.Error = flash(r)
	if p.Error == "" {
		p.Error = a.list.Err()
	}
	a.render(w, "mylist", http.StatusOK, p)
}

func (a *App) addToList(w http.ResponseWriter, r *http.Request) {
	m := models.MovieSummary{
		ImdbID: strings.TrimSpace(r.FormValue("imdbID")),
		Title:  r.FormValue("title"),
		Year:   r.FormValue("year"),
		Type:   r.FormValue("type"),
		Poster: r.FormValue("poster"),
	}
	if m.ImdbID == "" {
		http.Error(w, "imdbID is required", http.StatusBadRequest)
		return
	}

	back := "/movies/" + url.PathEscape(m.ImdbID)
	if res := a.list.Add(r.Context(), m); !res.Success {
		redirect(w, r, back, "error", res.Error)
		return
	}
	redirect(w, r, back, "flash", "Added to My List")
}

func (a *App) removeFromList(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if res := a.list.Remove(r.Context(), id); !res.Success {
		redirect(w, r, "/mylist", "error", res.Error)
		return
	}
	redirect(w, r, "/mylist", "flash", "Removed from My List")
}
