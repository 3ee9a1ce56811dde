package patreon

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"
)

// HTTPClient allows injecting a custom transport for testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type ClientOption func(*Client)

func WithHTTPClient(httpClient HTTPClient) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithUserAgent(userAgent string) ClientOption {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// Client fetches and normalizes the public post stream.
type Client struct {
	httpClient HTTPClient
	userAgent  string
}

// NewClient creates a client without a request timeout; callers bound the
// request through the context passed to Fetch.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Fetch(ctx context.Context, q Query) (*Response, error) {
	data, err := c.get(ctx, q.URL())
	if err != nil {
		return nil, err
	}

	resp, err := Normalize(data)
	if err != nil {
		return nil, err
	}

	slog.Debug("Stream fetched", "creator_id", q.CreatorID(), "posts", len(resp.Posts))

	return resp, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch stream: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("stream API returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return body, nil
}

// Normalize splits a raw stream document into posts, user and campaign.
// Posts keep response order; for user and campaign the last included
// entry of each type wins.
func Normalize(data []byte) (*Response, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode stream JSON: %w", err)
	}

	resp := &Response{
		Posts:    make([]Record, 0, len(doc.Data)),
		User:     Record{},
		Campaign: Record{},
	}

	for _, item := range doc.Data {
		resp.Posts = append(resp.Posts, withDefault(item.Attributes))
	}

	for _, item := range doc.Included {
		switch item.Type {
		case "user":
			resp.User = withID(item)
		case "campaign":
			resp.Campaign = withID(item)
		}
	}

	return resp, nil
}

func withDefault(r Record) Record {
	if r == nil {
		return Record{}
	}
	return r
}

func withID(item resource) Record {
	r := withDefault(item.Attributes)
	r["id"] = item.ID
	return r
}
