package server

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
)

// ErrAuthorizationDenied is reported when the user declines consent at the provider.
var ErrAuthorizationDenied = errors.New("authorization denied")

// OAuthResult contains the result of an OAuth authorization flow.
type OAuthResult struct {
	Token *oauth2.Token
	err   error
}

func (o *OAuthResult) Error() error {
	return o.err
}

// OAuthHandler handles the authorization code callback of a federated sign-in.
// Implements the Handler interface for registration with a Router.
type OAuthHandler struct {
	config      *oauth2.Config
	state       string
	path        string
	resultChan  chan OAuthResult
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

// NewOAuthHandler creates a new OAuth handler with the given OAuth2 config and state token.
// The state token should be cryptographically random for CSRF protection.
func NewOAuthHandler(config *oauth2.Config, state string) *OAuthHandler {
	return &OAuthHandler{
		config:     config,
		state:      state,
		path:       "/callback",
		resultChan: make(chan OAuthResult, 1),
	}
}

// WithPath changes the callback route. It must match the config's redirect URL path.
func (h *OAuthHandler) WithPath(path string) *OAuthHandler {
	if path != "" {
		h.path = path
	}
	return h
}

// Routes returns the HTTP routes this handler serves.
func (h *OAuthHandler) Routes() []string {
	return []string{h.path}
}

var callbackPage = template.Must(template.New("callback").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>freemovies sign-in</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #141414; }
        .box { text-align: center; background: #1f1f1f; padding: 2rem; border-radius: 8px; }
        h1 { color: {{if .OK}}#46d369{{else}}#e50914{{end}}; margin: 0 0 1rem 0; }
        p { color: #b3b3b3; margin: 0; }
    </style>
</head>
<body>
    <div class="box">
        <h1>{{.Headline}}</h1>
        <p>{{.Detail}}</p>
    </div>
</body>
</html>
`))

type callbackView struct {
	OK       bool
	Headline string
	Detail   string
}

// ServeHTTP completes the flow once: it exchanges the code and publishes the result.
// Requests with a foreign state are rejected without consuming the flow, and replayed
// callbacks get a 400 and publish nothing.
func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("state") != h.state {
		renderCallback(w, http.StatusBadRequest, callbackView{Headline: "Sign-in failed", Detail: "invalid state parameter"})
		return
	}

	h.mu.Lock()
	replay := h.callbackHit
	h.callbackHit = true
	h.mu.Unlock()
	if replay {
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}

	token, status, err := h.complete(r)
	h.Send(OAuthResult{Token: token, err: err})

	view := callbackView{OK: true, Headline: "Signed in", Detail: "You can close this window and return to freemovies."}
	if err != nil {
		view = callbackView{Headline: "Sign-in failed", Detail: err.Error()}
	}
	renderCallback(w, status, view)
}

func renderCallback(w http.ResponseWriter, status int, view callbackView) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = callbackPage.Execute(w, view)
}

func (h *OAuthHandler) complete(r *http.Request) (*oauth2.Token, int, error) {
	query := r.URL.Query()
	code := query.Get("code")
	if code == "" {
		reason, desc := query.Get("error"), query.Get("error_description")
		if reason == "access_denied" {
			return nil, http.StatusBadRequest, fmt.Errorf("%w: %s", ErrAuthorizationDenied, desc)
		}
		return nil, http.StatusBadRequest, fmt.Errorf("authorization failed: %s - %s", reason, desc)
	}

	token, err := h.config.Exchange(r.Context(), code)
	if err != nil {
		return nil, http.StatusBadGateway, fmt.Errorf("token exchange failed: %w", err)
	}
	return token, http.StatusOK, nil
}

// Send sends the OAuth result through the channel (only once).
func (h *OAuthHandler) Send(result OAuthResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving OAuth flow completion.
//
// Channel will receive exactly one result and then be closed.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.resultChan
}
