package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const defaultBaseURL string = "https://www.omdbapi.com"

// APIService makes raw GET requests to the OMDb API.
type APIService struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewAPIService creates a raw client. An empty baseURL selects the public API.
func NewAPIService(baseURL, apiKey string, client *http.Client) *APIService {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &APIService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: client,
	}
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// URL returns the request URL for params with the API key attached.
func (a *APIService) URL(params url.Values) string {
	q := url.Values{}
	for k, v := range params {
		q[k] = append([]string(nil), v...)
	}
	q.Set("apikey", a.apiKey)
	return a.baseURL + "/?" + q.Encode()
}

// Get performs a GET request with the given query parameters and returns the raw response.
func (a *APIService) Get(ctx context.Context, params url.Values) (*APIResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.URL(params), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}

	var jsonData any
	if err := json.Unmarshal(body, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}

// ParseQuery turns "s=batman&page=2" (with or without a leading "?" or "/?") into parameters.
func ParseQuery(raw string) (url.Values, error) {
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "/"), "?")
	params, err := url.ParseQuery(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid query %q: %w", raw, err)
	}
	params.Del("apikey")
	return params, nil
}
