// Package notion writes book pages into a Notion database.
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

	"github.com/avast/retry-go/v4"
)

const (
	DefaultBaseURL = "https://api.notion.com/v1"
	DefaultVersion = "2022-06-28"

	// MaxBlocksPerRequest is the most children Notion accepts in one call.
	MaxBlocksPerRequest = 100

	// MaxRichTextLength is the most characters one rich text object may carry.
	MaxRichTextLength = 2000

	defaultMaxAttempts = 3
	defaultRetryDelay  = 2 * time.Second
)

// errPermanent marks failures that a retry cannot fix.
var errPermanent = errors.New("permanent failure")

// APIError is a non-2xx response from the Notion API.
type APIError struct {
	StatusCode int    `json:"status"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("notion: status %d", e.StatusCode)
	}
	return fmt.Sprintf("notion: status %d: %s: %s", e.StatusCode, e.Code, e.Message)
}

// Config configures the Notion client.
type Config struct {
	Token      string
	DatabaseID string
	BaseURL    string
	Version    string
	Timeout    time.Duration

	// MaxAttempts bounds retries of rate-limited or failed requests.
	MaxAttempts uint
	RetryDelay  time.Duration

	Logger *slog.Logger
}

// Client is a minimal Notion REST client.
type Client struct {
	token       string
	databaseID  string
	baseURL     string
	version     string
	maxAttempts uint
	retryDelay  time.Duration
	httpClient  *http.Client
	logger      *slog.Logger
}

// NewClient creates a Notion client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("notion token is required")
	}
	if cfg.DatabaseID == "" {
		return nil, fmt.Errorf("notion database id is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Version == "" {
		cfg.Version = DefaultVersion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultRetryDelay
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Client{
		token:       cfg.Token,
		databaseID:  cfg.DatabaseID,
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		version:     cfg.Version,
		maxAttempts: cfg.MaxAttempts,
		retryDelay:  cfg.RetryDelay,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		logger:      cfg.Logger,
	}, nil
}

// DatabaseID returns the database pages are written to.
func (c *Client) DatabaseID() string {
	return c.databaseID
}

// do sends a JSON request. Rate-limited responses are always retried; server
// errors and transport failures are retried only for idempotent requests so
// a create is never sent twice.
func (c *Client) do(ctx context.Context, method, path string, idempotent bool, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	return retry.Do(
		func() error {
			return c.send(ctx, method, path, payload, out)
		},
		retry.Context(ctx),
		retry.Attempts(c.maxAttempts),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				if apiErr.StatusCode == http.StatusTooManyRequests {
					return true
				}
				return idempotent && apiErr.StatusCode >= 500
			}
			if errors.Is(err, errPermanent) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return false
			}
			return idempotent
		}),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("notion request failed, retrying",
				"method", method,
				"path", path,
				"attempt", n+1,
				"error", err)
		}),
	)
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, out any) error {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %w", errPermanent, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", c.version)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{}
		_ = json.Unmarshal(respBody, apiErr)
		apiErr.StatusCode = resp.StatusCode
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: failed to unmarshal response: %w", errPermanent, err)
	}
	return nil
}

type queryRequest struct {
	Filter      any         `json:"filter,omitempty"`
	Sorts       []querySort `json:"sorts,omitempty"`
	StartCursor string      `json:"start_cursor,omitempty"`
	PageSize    int         `json:"page_size,omitempty"`
}

type querySort struct {
	Property  string `json:"property"`
	Direction string `json:"direction"`
}

type queryResponse struct {
	Results    []pageObject `json:"results"`
	HasMore    bool         `json:"has_more"`
	NextCursor string       `json:"next_cursor"`
}

type pageObject struct {
	ID         string                     `json:"id"`
	Archived   bool                       `json:"archived"`
	Properties map[string]json.RawMessage `json:"properties"`
}

func (c *Client) queryDatabase(ctx context.Context, req queryRequest) (*queryResponse, error) {
	var resp queryResponse
	path := "/databases/" + c.databaseID + "/query"
	if err := c.do(ctx, http.MethodPost, path, true, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

type createPageRequest struct {
	Parent     parent         `json:"parent"`
	Icon       *file          `json:"icon,omitempty"`
	Cover      *file          `json:"cover,omitempty"`
	Properties map[string]any `json:"properties"`
	Children   []Block        `json:"children,omitempty"`
}

type parent struct {
	DatabaseID string `json:"database_id"`
}

type file struct {
	Type     string       `json:"type"`
	External externalFile `json:"external"`
}

type externalFile struct {
	URL string `json:"url"`
}

func (c *Client) createPage(ctx context.Context, req createPageRequest) (string, error) {
	var page pageObject
	if err := c.do(ctx, http.MethodPost, "/pages", false, req, &page); err != nil {
		return "", err
	}
	if page.ID == "" {
		return "", fmt.Errorf("notion returned a page without id")
	}
	return page.ID, nil
}

func (c *Client) appendChildren(ctx context.Context, blockID string, children []Block) error {
	body := map[string]any{"children": children}
	return c.do(ctx, http.MethodPatch, "/blocks/"+blockID+"/children", false, body, nil)
}

func (c *Client) archivePage(ctx context.Context, pageID string) error {
	body := map[string]any{"archived": true}
	return c.do(ctx, http.MethodPatch, "/pages/"+pageID, true, body, nil)
}
