package httpsource

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/five82/stockgrid/internal/product"
	"github.com/five82/stockgrid/internal/state"
)

// Ensure Client can feed the store at compile time.
var _ state.Loader = (*Client)(nil)

// Client talks to the catalog HTTP API.
type Client struct {
	baseURL *url.URL
	http    *resty.Client
}

const (
	defaultAPIBind   = "127.0.0.1:7600"
	defaultUserAgent = "stockgrid/0.1"
	requestTimeout   = 5 * time.Second
	productsPath     = "/api/products"
)

// APIError is a non-2xx reply from the catalog API.
type APIError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("catalog api returned status %d", e.Status)
	}
	return fmt.Sprintf("catalog api returned status %d: %s", e.Status, e.Message)
}

// NewClient builds a Client for apiURL, which may be a bare host:port.
func NewClient(apiURL string) (*Client, error) {
	base, err := parseBaseURL(apiURL)
	if err != nil {
		return nil, err
	}
	rc := resty.New().
		SetBaseURL(base.String()).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", defaultUserAgent).
		SetTimeout(requestTimeout)
	rc.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		r.SetHeader("X-Request-ID", uuid.NewString())
		return nil
	})
	return &Client{baseURL: base, http: rc}, nil
}

// BaseURL returns the normalized API root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Fetch retrieves the full product collection.
func (c *Client) Fetch(ctx context.Context) ([]product.Product, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload ListResponse
	if err := c.do(ctx, http.MethodGet, productsPath, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Items, nil
}

// Save replaces the remote collection with items.
func (c *Client) Save(ctx context.Context, items []product.Product) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if items == nil {
		items = []product.Product{}
	}
	return c.do(ctx, http.MethodPut, productsPath, ReplaceRequest{Items: items}, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, dest any) error {
	var apiErr ErrorResponse
	req := c.http.R().
		SetContext(ctx).
		SetError(&apiErr).
		ForceContentType("application/json")
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	if dest != nil {
		req.SetResult(dest)
	}

	resp, err := req.Execute(method, path)
	if resp != nil && resp.StatusCode() >= http.StatusBadRequest {
		return &APIError{Status: resp.StatusCode(), Message: apiErr.Error, Fields: apiErr.Fields}
	}
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	return nil
}

func parseBaseURL(apiURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiURL)
	if trimmed == "" {
		trimmed = defaultAPIBind
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_url %q: %w", apiURL, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
