// Package notion is a minimal client for the Notion REST API: database
// queries, page creation and page retrieval.
//
// Queries are issued as direct signed POSTs and any non-200 answer is treated
// as an empty result set. Callers must therefore read "no rows" as either a
// real miss or a transient backend error.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kylejryan/survey-sync/internal/logging"
)

const (
	// DefaultBaseURL is the public Notion API host.
	DefaultBaseURL = "https://api.notion.com"
	// DefaultVersion is the Notion-Version header sent on every call.
	DefaultVersion = "2022-06-28"

	pageSize    = 100
	maxLogBody  = 500
	maxRespBody = 8 << 20
)

// Options configure a Client.
type Options struct {
	BaseURL  string
	Token    string
	Version  string
	MaxPages int           // query pagination cap; <= 0 means 50
	Timeout  time.Duration // zero means no timeout
	Client   *http.Client  // overrides Timeout when set
	Logger   *slog.Logger
}

// Client talks to one Notion integration.
type Client struct {
	http     *http.Client
	baseURL  string
	token    string
	version  string
	maxPages int
	logger   *slog.Logger
}

// New returns a Client.
func New(opts Options) *Client {
	c := &Client{
		http:     opts.Client,
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		token:    opts.Token,
		version:  opts.Version,
		maxPages: opts.MaxPages,
		logger:   opts.Logger,
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: opts.Timeout}
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.version == "" {
		c.version = DefaultVersion
	}
	if c.maxPages <= 0 {
		c.maxPages = 50
	}
	if c.logger == nil {
		c.logger = logging.Discard()
	}
	return c
}

// Page is a Notion page as returned by queries and retrieval.
type Page struct {
	ID         string                     `json:"id"`
	Properties map[string]json.RawMessage `json:"properties"`
}

// APIError is a non-success answer from a write or retrieval call.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("notion: %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("notion: %d: %s", e.Status, e.Message)
}

type queryRequest struct {
	Filter      Filter `json:"filter,omitempty"`
	StartCursor string `json:"start_cursor,omitempty"`
	PageSize    int    `json:"page_size,omitempty"`
}

type queryResponse struct {
	Results    []Page `json:"results"`
	HasMore    bool   `json:"has_more"`
	NextCursor string `json:"next_cursor"`
}

// Query returns the pages of databaseID matching filter, following
// pagination. A non-200 answer on any page is logged and yields an empty,
// error-free result. Transport and decoding failures are returned.
func (c *Client) Query(ctx context.Context, databaseID string, filter Filter) ([]Page, error) {
	var pages []Page
	req := queryRequest{Filter: filter, PageSize: pageSize}
	for i := 0; i < c.maxPages; i++ {
		status, body, err := c.do(ctx, http.MethodPost, "/v1/databases/"+databaseID+"/query", req)
		if err != nil {
			return nil, fmt.Errorf("notion: query %s: %w", databaseID, err)
		}
		if status != http.StatusOK {
			c.logger.Error("notion query failed",
				"database", databaseID,
				"status", status,
				"body", truncate(body, maxLogBody),
			)
			return nil, nil
		}
		var resp queryResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("notion: decode query %s: %w", databaseID, err)
		}
		pages = append(pages, resp.Results...)
		if !resp.HasMore || resp.NextCursor == "" {
			return pages, nil
		}
		req.StartCursor = resp.NextCursor
	}
	c.logger.Warn("notion query truncated at page cap",
		"database", databaseID,
		"max_pages", c.maxPages,
		"rows", len(pages),
	)
	return pages, nil
}

type createRequest struct {
	Parent     parent     `json:"parent"`
	Properties Properties `json:"properties"`
}

type parent struct {
	DatabaseID string `json:"database_id"`
}

// CreatePage creates a page in databaseID and returns its id.
func (c *Client) CreatePage(ctx context.Context, databaseID string, props Properties) (string, error) {
	status, body, err := c.do(ctx, http.MethodPost, "/v1/pages", createRequest{
		Parent:     parent{DatabaseID: databaseID},
		Properties: props,
	})
	if err != nil {
		return "", fmt.Errorf("notion: create page in %s: %w", databaseID, err)
	}
	if status != http.StatusOK {
		return "", apiError(status, body)
	}
	var page Page
	if err := json.Unmarshal(body, &page); err != nil {
		return "", fmt.Errorf("notion: decode created page: %w", err)
	}
	if page.ID == "" {
		return "", errors.New("notion: created page has no id")
	}
	return page.ID, nil
}

// GetPage retrieves a page with its properties.
func (c *Client) GetPage(ctx context.Context, pageID string) (*Page, error) {
	status, body, err := c.do(ctx, http.MethodGet, "/v1/pages/"+pageID, nil)
	if err != nil {
		return nil, fmt.Errorf("notion: get page %s: %w", pageID, err)
	}
	if status != http.StatusOK {
		return nil, apiError(status, body)
	}
	var page Page
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("notion: decode page: %w", err)
	}
	return &page, nil
}

// do sends one authenticated request and returns the status and body.
func (c *Client) do(ctx context.Context, method, path string, in any) (int, []byte, error) {
	var reqBody io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", c.version)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRespBody))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

func apiError(status int, body []byte) error {
	var e struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &e) != nil || e.Message == "" {
		e.Message = truncate(body, maxLogBody)
	}
	return &APIError{Status: status, Code: e.Code, Message: e.Message}
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n])
	}
	return string(b)
}
