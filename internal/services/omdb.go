package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bluele/gcache"
	"github.com/charmbracelet/log"

	"github.com/desertthunder/freemovies/internal/models"
	"github.com/desertthunder/freemovies/internal/shared"
)

// OMDbOptions configures an [OMDbService].
type OMDbOptions struct {
	BaseURL   string
	APIKey    string
	Client    *http.Client
	CacheSize int           // detail cache entries; 0 disables caching
	CacheTTL  time.Duration // default 15m
	Logger    *log.Logger
}

// OMDbService implements [Catalog] for the OMDb API.
type OMDbService struct {
	api    *APIService
	cache  gcache.Cache
	logger *log.Logger
}

// NewOMDbService creates a catalog client from opts.
func NewOMDbService(opts OMDbOptions) *OMDbService {
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	s := &OMDbService{
		api:    NewAPIService(opts.BaseURL, opts.APIKey, opts.Client),
		logger: shared.WithLogger(logger, "component", "omdb"),
	}

	if opts.CacheSize > 0 {
		ttl := opts.CacheTTL
		if ttl <= 0 {
			ttl = 15 * time.Minute
		}
		s.cache = gcache.New(opts.CacheSize).LRU().Expiration(ttl).Build()
	}
	return s
}

// API exposes the underlying raw client.
func (s *OMDbService) API() *APIService { return s.api }

// omdbResponse is the envelope shared by every OMDb answer.
type omdbResponse struct {
	Response     string                `json:"Response"`
	Error        string                `json:"Error"`
	Search       []models.MovieSummary `json:"Search"`
	TotalResults string                `json:"totalResults"`
}

func (r omdbResponse) ok() bool { return strings.EqualFold(r.Response, "True") }

// fetch runs a GET and decodes the body into out. Transport and decoding failures become
// [*Error] values with the generic connection message.
func (s *OMDbService) fetch(ctx context.Context, params url.Values, out any) error {
	resp, err := s.api.Get(ctx, params)
	if err != nil {
		return &Error{Message: msgConnectError, Err: fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{Message: msgConnectError, Err: fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)}
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return &Error{Message: msgConnectError, Err: fmt.Errorf("%w: failed to decode response: %v", shared.ErrAPIRequest, err)}
	}
	return nil
}

// Search returns one page of movie results. page values below 1 select the first page.
func (s *OMDbService) Search(ctx context.Context, query string, page int) (*models.SearchPage, error) {
	if page < 1 {
		page = 1
	}
	result := &models.SearchPage{Query: query, Page: page, Items: []models.MovieSummary{}}

	query = strings.TrimSpace(query)
	if query == "" {
		return result, nil
	}

	var body omdbResponse
	err := s.fetch(ctx, url.Values{
		"s":    {query},
		"page": {strconv.Itoa(page)},
		"type": {"movie"},
	}, &body)
	if err != nil {
		s.logger.Error("search failed", "query", query, "page", page, "error", err)
		return nil, err
	}

	if !body.ok() {
		msg := body.Error
		if msg == "" {
			msg = msgNoMovies
		}
		return nil, &Error{Message: msg, Err: shared.ErrNoResults}
	}

	if body.Search != nil {
		result.Items = body.Search
	}
	result.TotalResults, _ = strconv.Atoi(body.TotalResults)
	s.logger.Debug("search", "query", query, "page", page, "results", len(result.Items), "total", result.TotalResults)
	return result, nil
}

// Movie returns the full record for imdbID, served from the cache when possible.
func (s *OMDbService) Movie(ctx context.Context, imdbID string) (*models.MovieDetail, error) {
	imdbID = strings.TrimSpace(imdbID)
	if imdbID == "" {
		return nil, &Error{Message: msgNotFound, Err: fmt.Errorf("%w: empty id", shared.ErrMissingArgument)}
	}

	if s.cache != nil {
		if v, err := s.cache.Get(imdbID); err == nil {
			m := *v.(*models.MovieDetail)
			return &m, nil
		}
	}

	var body struct {
		omdbResponse
		models.MovieDetail
	}
	err := s.fetch(ctx, url.Values{"i": {imdbID}, "plot": {"full"}}, &body)
	if err != nil {
		s.logger.Error("movie lookup failed", "imdbID", imdbID, "error", err)
		return nil, err
	}

	if !body.ok() {
		msg := body.omdbResponse.Error
		if msg == "" {
			msg = msgNotFound
		}
		return nil, &Error{Message: msg, Err: fmt.Errorf("%w: %s", shared.ErrMovieNotFound, imdbID)}
	}

	movie := body.MovieDetail
	if s.cache != nil {
		stored := movie
		if err := s.cache.Set(imdbID, &stored); err != nil {
			s.logger.Warn("failed to cache movie", "imdbID", imdbID, "error", err)
		}
	}
	return &movie, nil
}

// Series returns up to limit TV series. limit values below 1 select 10.
func (s *OMDbService) Series(ctx context.Context, limit int) ([]models.MovieSummary, error) {
	if limit < 1 {
		limit = 10
	}

	var body omdbResponse
	err := s.fetch(ctx, url.Values{"s": {"series"}, "type": {"series"}, "page": {"1"}}, &body)
	if err != nil {
		s.logger.Error("series lookup failed", "error", err)
		return nil, err
	}

	if !body.ok() {
		msg := body.Error
		if msg == "" {
			msg = msgNoSeries
		}
		return nil, &Error{Message: msg, Err: shared.ErrNoResults}
	}

	items := body.Search
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// IsNotFound reports whether err means the catalog had nothing for the request.
func IsNotFound(err error) bool {
	return errors.Is(err, shared.ErrMovieNotFound) || errors.Is(err, shared.ErrNoResults)
}

var _ Catalog = (*OMDbService)(nil)
