package gamma

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the Gamma API base URL.
	DefaultBaseURL = "https://gamma-api.polymarket.com"

	// Rate limits (from Polymarket docs)
	defaultRateLimit = 10.0 // requests per second
	defaultBurst     = 5
)

// Client is a Gamma API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithRateLimit sets custom rate limiting.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// NewClient creates a new Gamma API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// EventsFilter contains filter parameters for listing events.
type EventsFilter struct {
	Active   *bool
	Closed   *bool
	Archived *bool
	Slug     string
	Tag      string
	TagID    string
	Limit    int
	Offset   int
	Order    string // "asc" or "desc"
	SortBy   string // "volume", "liquidity", etc.
}

func (f *EventsFilter) query() url.Values {
	params := url.Values{}
	if f == nil {
		return params
	}
	if f.Active != nil {
		params.Set("active", strconv.FormatBool(*f.Active))
	}
	if f.Closed != nil {
		params.Set("closed", strconv.FormatBool(*f.Closed))
	}
	if f.Archived != nil {
		params.Set("archived", strconv.FormatBool(*f.Archived))
	}
	if f.Slug != "" {
		params.Set("slug", f.Slug)
	}
	if f.Tag != "" {
		params.Set("tag", f.Tag)
	}
	if f.TagID != "" {
		params.Set("tag_id", f.TagID)
	}
	if f.Limit > 0 {
		params.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Offset > 0 {
		params.Set("offset", strconv.Itoa(f.Offset))
	}
	if f.Order != "" {
		params.Set("order", f.Order)
	}
	if f.SortBy != "" {
		params.Set("sort_by", f.SortBy)
	}
	return params
}

// MarketsFilter contains filter parameters for listing markets.
type MarketsFilter struct {
	Active       *bool
	Closed       *bool
	ClobTokenIDs string // comma-separated
	ConditionID  string
	Slug         string
	EventID      string
	Limit        int
	Offset       int
}

func (f *MarketsFilter) query() url.Values {
	params := url.Values{}
	if f == nil {
		return params
	}
	if f.Active != nil {
		params.Set("active", strconv.FormatBool(*f.Active))
	}
	if f.Closed != nil {
		params.Set("closed", strconv.FormatBool(*f.Closed))
	}
	if f.ClobTokenIDs != "" {
		params.Set("clob_token_ids", f.ClobTokenIDs)
	}
	if f.ConditionID != "" {
		params.Set("condition_id", f.ConditionID)
	}
	if f.Slug != "" {
		params.Set("slug", f.Slug)
	}
	if f.EventID != "" {
		params.Set("event_id", f.EventID)
	}
	if f.Limit > 0 {
		params.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Offset > 0 {
		params.Set("offset", strconv.Itoa(f.Offset))
	}
	return params
}

// BoolPtr returns a pointer to a bool, for filter construction.
func BoolPtr(b bool) *bool {
	return &b
}

// ListEvents fetches events from the Gamma API.
func (c *Client) ListEvents(ctx context.Context, filter *EventsFilter) ([]Event, error) {
	var events []Event
	if err := c.get(ctx, "/events", filter.query(), &events); err != nil {
		return nil, err
	}
	return events, nil
}

// GetEvent fetches a single event by ID.
func (c *Client) GetEvent(ctx context.Context, id string) (*Event, error) {
	var event Event
	if err := c.get(ctx, "/events/"+id, nil, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// GetEventBySlug fetches an event by its slug.
func (c *Client) GetEventBySlug(ctx context.Context, slug string) (*Event, error) {
	events, err := c.ListEvents(ctx, &EventsFilter{Slug: slug, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("event not found: %s", slug)
	}
	return &events[0], nil
}

// ListMarkets fetches markets from the Gamma API.
func (c *Client) ListMarkets(ctx context.Context, filter *MarketsFilter) ([]Market, error) {
	var markets []Market
	if err := c.get(ctx, "/markets", filter.query(), &markets); err != nil {
		return nil, err
	}
	return markets, nil
}

// GetMarketByTokenID fetches a market by one of its CLOB token IDs.
func (c *Client) GetMarketByTokenID(ctx context.Context, tokenID string) (*Market, error) {
	markets, err := c.ListMarkets(ctx, &MarketsFilter{ClobTokenIDs: tokenID, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(markets) == 0 {
		return nil, fmt.Errorf("market not found for token: %s", tokenID)
	}
	return &markets[0], nil
}

// ListTradeableEvents fetches open, active events one page at a time.
func (c *Client) ListTradeableEvents(ctx context.Context, tag string, limit, offset int) ([]Event, error) {
	return c.ListEvents(ctx, &EventsFilter{
		Active:   BoolPtr(true),
		Closed:   BoolPtr(false),
		Archived: BoolPtr(false),
		Tag:      tag,
		Limit:    limit,
		Offset:   offset,
	})
}

// ListAllTradeableEvents pages through every open, active event.
func (c *Client) ListAllTradeableEvents(ctx context.Context, tag string) ([]Event, error) {
	var all []Event
	limit := 100
	offset := 0

	for {
		events, err := c.ListTradeableEvents(ctx, tag, limit, offset)
		if err != nil {
			return nil, err
		}

		all = append(all, events...)

		if len(events) < limit {
			break
		}
		offset += limit
	}

	return all, nil
}

// get performs a GET request with rate limiting.
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("api error %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
