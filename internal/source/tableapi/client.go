// Package tableapi is the HTTP client for the remote tabular records
// API. Every outbound call goes through the shared rate limiter and a
// bounded retry loop with exponential backoff.
package tableapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tablesync/internal/domain"
	"tablesync/internal/ratelimit"
)

// Config holds tabular API client configuration.
type Config struct {
	BaseURL     string
	WorkspaceID string
	TableID     string
	APIKey      string
	APISecret   string
	Timeout     time.Duration
	MaxAttempts int
	BackoffBase time.Duration
}

// Client fetches table metadata and record pages for one table.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	workspaceID string
	tableID     string
	apiKey      string
	apiSecret   string
	limiter     *ratelimit.Limiter
	maxAttempts int
	backoffBase time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
	logger      *slog.Logger
}

// New creates a tabular API client. The limiter is shared with any
// other client that should draw from the same request budget.
func New(cfg Config, limiter *ratelimit.Limiter, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		workspaceID: cfg.WorkspaceID,
		tableID:     cfg.TableID,
		apiKey:      cfg.APIKey,
		apiSecret:   cfg.APISecret,
		limiter:     limiter,
		maxAttempts: cfg.MaxAttempts,
		backoffBase: cfg.BackoffBase,
		sleep:       sleepContext,
		logger:      logger.With("table_id", cfg.TableID),
	}
}

// TableID returns the identifier of the table this client targets.
func (c *Client) TableID() string {
	return c.tableID
}

// FetchMetadata fetches the table's metadata.
func (c *Client) FetchMetadata(ctx context.Context) (*domain.TableMetadata, error) {
	var resp tableResponse
	if err := c.fetchWithRetry(ctx, c.tableURL(), nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch table metadata: %w", err)
	}
	return resp.toDomain(), nil
}

// FetchRecords fetches one page of records. An empty slice signals the
// end of data.
func (c *Client) FetchRecords(ctx context.Context, q domain.RecordQuery) ([]domain.Record, error) {
	filters, err := json.Marshal(q.Filters)
	if err != nil {
		return nil, fmt.Errorf("encode filters: %w", err)
	}
	sort, err := json.Marshal(q.Sort)
	if err != nil {
		return nil, fmt.Errorf("encode sort options: %w", err)
	}

	params := url.Values{}
	params.Set("limit", strconv.Itoa(q.Limit))
	params.Set("offset", strconv.Itoa(q.Offset))
	params.Set("filters", string(filters))
	params.Set("sortOptions", string(sort))

	var records []domain.Record
	if err := c.fetchWithRetry(ctx, c.tableURL()+"/records", params, &records); err != nil {
		return nil, fmt.Errorf("fetch records offset %d: %w", q.Offset, err)
	}
	return records, nil
}

func (c *Client) tableURL() string {
	if c.workspaceID != "" {
		return fmt.Sprintf("%s/w/%s/tables/%s", c.baseURL, c.workspaceID, c.tableID)
	}
	return fmt.Sprintf("%s/tables/%s", c.baseURL, c.tableID)
}

// fetchWithRetry performs one logical GET. 429 and transport failures
// are retried with exponential backoff up to the attempt ceiling; any
// other non-2xx status fails immediately so bad requests and auth
// failures do not burn the retry budget.
func (c *Client) fetchWithRetry(ctx context.Context, rawURL string, params url.Values, out any) error {
	var lastErr error

	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if err := c.limiter.Acquire(ctx); err != nil {
			return err
		}

		err := c.doRequest(ctx, rawURL, params, out)
		if err == nil {
			return nil
		}
		if domain.KindOf(err) == domain.KindRejected {
			return err
		}

		lastErr = err
		if attempt == c.maxAttempts-1 {
			break
		}

		backoff := c.backoffBase * time.Duration(1<<attempt)
		c.logger.Warn("request failed, retrying",
			"attempt", attempt+1,
			"backoff", backoff,
			"error", err,
		)
		if err := c.sleep(ctx, backoff); err != nil {
			return err
		}
	}

	return domain.Errorf(domain.KindOf(lastErr), "after %d attempts: %w", c.maxAttempts, lastErr)
}

func (c *Client) doRequest(ctx context.Context, rawURL string, params url.Values, out any) error {
	if len(params) > 0 {
		rawURL = rawURL + "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(c.apiKey, c.apiSecret)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Errorf(domain.KindTransient, "execute request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return domain.Errorf(domain.KindRateLimited, "server rate limit exceeded")
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.Errorf(domain.KindRejected, "unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domain.Errorf(domain.KindTransient, "decode response: %w", err)
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
