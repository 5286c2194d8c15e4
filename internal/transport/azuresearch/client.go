// Package azuresearch queries an Azure AI Search index over its REST API.
package azuresearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kailas-cloud/menusearch/internal/domain/search/query"
	usesearch "github.com/kailas-cloud/menusearch/internal/usecase/search"
)

// Driver is the backend name reported in logs and metrics.
const Driver = "azure"

// DefaultAPIVersion is the data-plane API version used when none is configured.
const DefaultAPIVersion = "2023-11-01"

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 4 << 10

// Config holds connection settings for one index.
type Config struct {
	Endpoint   string
	Index      string
	APIKey     string
	APIVersion string
	Top        int
	HTTPClient *http.Client
}

// Client is a search backend bound to one index. It is safe for concurrent use.
type Client struct {
	http      *http.Client
	searchURL string
	countURL  string
	apiKey    string
	top       int
}

var _ usesearch.Backend = (*Client)(nil)

// New validates cfg and creates a client.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("azure search endpoint is required")
	}
	if cfg.Index == "" {
		return nil, errors.New("azure search index is required")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("azure search query key is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.Endpoint, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid azure search endpoint %q", cfg.Endpoint)
	}

	version := cfg.APIVersion
	if version == "" {
		version = DefaultAPIVersion
	}
	q := url.Values{"api-version": {version}}.Encode()
	docs := base.String() + "/indexes/" + url.PathEscape(cfg.Index) + "/docs"

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}

	return &Client{
		http:      hc,
		searchURL: docs + "/search?" + q,
		countURL:  docs + "/$count?" + q,
		apiKey:    cfg.APIKey,
		top:       cfg.Top,
	}, nil
}

// Name returns the driver name.
func (c *Client) Name() string { return Driver }

// Search posts the query specification to the index.
func (c *Client) Search(ctx context.Context, spec query.Spec) (usesearch.ResultSet, error) {
	body, err := json.Marshal(newSearchRequest(spec, c.top))
	if err != nil {
		return nil, fmt.Errorf("encode search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.searchURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("azure search request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode != http.StatusOK {
		return nil, parseAPIError(resp)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return newResultSet(payload), nil
}

// Ping checks that the index is reachable with the configured key.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.countURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("create count request: %w", err)
	}
	req.Header.Set("api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("azure search ping: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("azure search ping: status %d", resp.StatusCode)
	}
	return nil
}

// APIError is a non-2xx answer from the search service.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("azure search: status %d: %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("azure search: status %d: %s", e.Status, e.Message)
}

func parseAPIError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	apiErr := &APIError{Status: resp.StatusCode}
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(data, &envelope) == nil && envelope.Error.Message != "" {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
		return apiErr
	}

	apiErr.Message = strings.TrimSpace(string(data))
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
