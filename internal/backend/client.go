// Package backend is the HTTP client for the external chart API. Responses
// are decoded into the canonical models types at this boundary.
package backend

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/pdy7080/kpop-ranker-sub000/internal/cache"
	"github.com/pdy7080/kpop-ranker-sub000/internal/config"
	"github.com/pdy7080/kpop-ranker-sub000/internal/models"
)

// Backend endpoints, relative to the configured base URL
const (
	pathAutocomplete   = "/autocomplete/unified"
	pathSearch         = "/search"
	pathTrending       = "/trending"
	pathDuplicates     = "/admin/duplicates/potential"
	pathReviewQueue    = "/admin/ai/review-queue"
	pathMappings       = "/admin/duplicates/mappings"
	pathMergeExecute   = "/admin/manual-merge-execute"
	pathApproveSuggest = "/admin/ai/approve"
	pathRejectSuggest  = "/admin/ai/reject"
)

// Cache TTLs for read endpoints. Admin data is never cached.
const (
	autocompleteCacheTTL = 1 * time.Minute
	searchCacheTTL       = 5 * time.Minute
)

// Timeouts bounds each class of backend call
type Timeouts struct {
	Autocomplete time.Duration
	Search       time.Duration
	Trending     time.Duration
	Admin        time.Duration
}

// Options configures a Client
type Options struct {
	BaseURL    string
	Timeouts   Timeouts
	RPS        float64
	Burst      int
	SigningKey string
	Cache      cache.Cache // optional
	RetryCount int
}

// Client talks to the chart backend
type Client struct {
	reads    *resty.Client
	writes   *resty.Client
	limiter  *rate.Limiter
	cache    cache.Cache
	tokens   *tokenSource
	timeouts Timeouts
}

// NewClient creates a backend client
func NewClient(opts Options) *Client {
	if opts.RPS <= 0 {
		opts.RPS = 20
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}

	reads := resty.New().
		SetBaseURL(opts.BaseURL).
		SetHeader("Accept", "application/json").
		SetRetryCount(opts.RetryCount).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second)

	// Admin writes are never retried: a retried merge could be applied twice
	writes := resty.New().
		SetBaseURL(opts.BaseURL).
		SetHeader("Accept", "application/json")

	return &Client{
		reads:    reads,
		writes:   writes,
		limiter:  rate.NewLimiter(rate.Limit(opts.RPS), opts.Burst),
		cache:    opts.Cache,
		tokens:   newTokenSource(opts.SigningKey),
		timeouts: opts.Timeouts.withDefaults(),
	}
}

// NewFromConfig creates a client from application configuration
func NewFromConfig(cfg *config.Config, c cache.Cache) *Client {
	return NewClient(Options{
		BaseURL: cfg.BackendURL,
		Timeouts: Timeouts{
			Autocomplete: cfg.AutocompleteTimeout,
			Search:       cfg.SearchTimeout,
			Trending:     cfg.TrendingTimeout,
			Admin:        cfg.AdminTimeout,
		},
		RPS:        cfg.BackendRPS,
		Burst:      cfg.BackendBurst,
		SigningKey: cfg.AdminSigningKey,
		Cache:      c,
		RetryCount: 1,
	})
}

func (t Timeouts) withDefaults() Timeouts {
	if t.Autocomplete <= 0 {
		t.Autocomplete = 5 * time.Second
	}
	if t.Search <= 0 {
		t.Search = 10 * time.Second
	}
	if t.Trending <= 0 {
		t.Trending = 30 * time.Second
	}
	if t.Admin <= 0 {
		t.Admin = 30 * time.Second
	}
	return t
}

// Autocomplete fetches unified artist and track suggestions for q
func (c *Client) Autocomplete(ctx context.Context, q string, limit int) ([]models.Suggestion, error) {
	cacheKey := fmt.Sprintf("api:autocomplete:%d:%s", limit, models.Fold(q))
	var cached []models.Suggestion
	if ok, _ := cache.GetJSON(ctx, c.cache, cacheKey, &cached); ok {
		return cached, nil
	}

	params := map[string]string{"q": q}
	if limit > 0 {
		params["limit"] = strconv.Itoa(limit)
	}
	body, err := c.get(ctx, "autocomplete", pathAutocomplete, params, c.timeouts.Autocomplete)
	if err != nil {
		return nil, err
	}

	suggestions, err := decodeAutocomplete(body)
	if err != nil {
		return nil, decodeError("autocomplete", pathAutocomplete, err)
	}

	c.store(ctx, cacheKey, suggestions, autocompleteCacheTTL)
	return suggestions, nil
}

// Search runs the raw per-chart search for q
func (c *Client) Search(ctx context.Context, q string) (*models.SearchResponse, error) {
	cacheKey := "api:search:" + models.Fold(q)
	var cached models.SearchResponse
	if ok, _ := cache.GetJSON(ctx, c.cache, cacheKey, &cached); ok {
		return &cached, nil
	}

	body, err := c.get(ctx, "search", pathSearch, map[string]string{"q": q}, c.timeouts.Search)
	if err != nil {
		return nil, err
	}

	resp, err := decodeSearch(q, body)
	if err != nil {
		return nil, decodeError("search", pathSearch, err)
	}

	c.store(ctx, cacheKey, resp, searchCacheTTL)
	return resp, nil
}

// Trending fetches the live trending feed
func (c *Client) Trending(ctx context.Context, limit int) ([]models.TrendingTrack, error) {
	params := map[string]string{}
	if limit > 0 {
		params["limit"] = strconv.Itoa(limit)
	}
	body, err := c.get(ctx, "trending", pathTrending, params, c.timeouts.Trending)
	if err != nil {
		return nil, err
	}

	tracks, err := decodeTrending(body)
	if err != nil {
		return nil, decodeError("trending", pathTrending, err)
	}
	return tracks, nil
}

// PotentialDuplicates fetches duplicate candidate groups for review
func (c *Client) PotentialDuplicates(ctx context.Context) ([]models.DuplicateGroup, error) {
	body, err := c.adminGet(ctx, "potential_duplicates", pathDuplicates)
	if err != nil {
		return nil, err
	}
	groups, err := decodeDuplicates(body)
	if err != nil {
		return nil, decodeError("potential_duplicates", pathDuplicates, err)
	}
	return groups, nil
}

// ReviewQueue fetches AI-suggested merges awaiting triage
func (c *Client) ReviewQueue(ctx context.Context) ([]models.AIReviewEntry, error) {
	body, err := c.adminGet(ctx, "review_queue", pathReviewQueue)
	if err != nil {
		return nil, err
	}
	entries, err := decodeReviewQueue(body)
	if err != nil {
		return nil, decodeError("review_queue", pathReviewQueue, err)
	}
	return entries, nil
}

// Mappings fetches the active identity mappings
func (c *Client) Mappings(ctx context.Context) ([]models.Mapping, error) {
	body, err := c.adminGet(ctx, "mappings", pathMappings)
	if err != nil {
		return nil, err
	}
	mappings, err := decodeMappings(body)
	if err != nil {
		return nil, decodeError("mappings", pathMappings, err)
	}
	return mappings, nil
}

// MergeRequest is the body of a merge execution
type MergeRequest struct {
	GroupID     string             `json:"group_id"`
	SelectedIDs []string           `json:"selected_ids"`
	MasterID    *string            `json:"master_id"`
	Action      models.MergeAction `json:"action"`
}

// ExecuteMerge commits a merge, exception or legitimate decision. A
// response with success=false is returned as a result, not an error.
func (c *Client) ExecuteMerge(ctx context.Context, req MergeRequest) (*models.MergeResult, error) {
	var result wireMergeResult
	if err := c.adminPost(ctx, "merge_execute", pathMergeExecute, req, &result); err != nil {
		return nil, err
	}
	return &models.MergeResult{
		Success: result.Success,
		Message: result.Message,
		Error:   firstNonEmpty(result.Error, result.Detail),
	}, nil
}

// ApproveSuggestion accepts an AI-suggested merge
func (c *Client) ApproveSuggestion(ctx context.Context, id string) error {
	return c.adminPost(ctx, "ai_approve", pathApproveSuggest, map[string]string{"id": id}, nil)
}

// RejectSuggestion dismisses an AI-suggested merge
func (c *Client) RejectSuggestion(ctx context.Context, id string) error {
	return c.adminPost(ctx, "ai_reject", pathRejectSuggest, map[string]string{"id": id}, nil)
}

func (c *Client) get(ctx context.Context, op, path string, params map[string]string, timeout time.Duration) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &APIError{Endpoint: path, Operation: op, Kind: KindTransport, Message: "rate limiter wait aborted", Err: err}
	}

	resp, err := c.reads.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(path)
	if err != nil {
		return nil, &APIError{Endpoint: path, Operation: op, Kind: KindTransport, Message: "request failed", Err: err}
	}
	if !resp.IsSuccess() {
		return nil, &APIError{Endpoint: path, Operation: op, Kind: KindStatus, Status: resp.StatusCode(), Message: errorMessage(resp.Body())}
	}
	return resp.Body(), nil
}

func (c *Client) adminGet(ctx context.Context, op, path string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.Admin)
	defer cancel()

	req, err := c.adminRequest(ctx, c.reads, op, path)
	if err != nil {
		return nil, err
	}
	resp, err := req.Get(path)
	if err != nil {
		return nil, &APIError{Endpoint: path, Operation: op, Kind: KindTransport, Message: "request failed", Err: err}
	}
	if !resp.IsSuccess() {
		return nil, &APIError{Endpoint: path, Operation: op, Kind: KindStatus, Status: resp.StatusCode(), Message: errorMessage(resp.Body())}
	}
	return resp.Body(), nil
}

func (c *Client) adminPost(ctx context.Context, op, path string, body, result any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.Admin)
	defer cancel()

	req, err := c.adminRequest(ctx, c.writes, op, path)
	if err != nil {
		return err
	}
	req.SetBody(body)
	if result != nil {
		req.SetResult(result)
	}

	resp, err := req.Post(path)
	if err != nil {
		return &APIError{Endpoint: path, Operation: op, Kind: KindTransport, Message: "request failed", Err: err}
	}
	if !resp.IsSuccess() {
		return &APIError{Endpoint: path, Operation: op, Kind: KindStatus, Status: resp.StatusCode(), Message: errorMessage(resp.Body())}
	}
	return nil
}

func (c *Client) adminRequest(ctx context.Context, client *resty.Client, op, path string) (*resty.Request, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &APIError{Endpoint: path, Operation: op, Kind: KindTransport, Message: "rate limiter wait aborted", Err: err}
	}

	req := client.R().SetContext(ctx)
	if c.tokens != nil {
		token, err := c.tokens.Token()
		if err != nil {
			return nil, err
		}
		req.SetAuthToken(token)
	}
	return req, nil
}

func (c *Client) store(ctx context.Context, key string, value any, ttl time.Duration) {
	if c.cache == nil {
		return
	}
	if err := cache.SetJSON(ctx, c.cache, key, value, ttl); err != nil {
		slog.Warn("Failed to cache backend response", "key", key, "error", err)
	}
}

func decodeError(op, path string, err error) error {
	return &APIError{Endpoint: path, Operation: op, Kind: KindDecode, Message: "malformed response", Err: err}
}
