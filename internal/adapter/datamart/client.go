// Package datamart reads the ECCC climate bulk-download directories: HTML
// directory listings and the station CSV files they link to.
package datamart

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/climate-station-etl/internal/domain"
	"github.com/couchcryptid/climate-station-etl/internal/observability"
	"github.com/sony/gobreaker"
)

// maxBodyBytes caps a single listing or file download. Larger bodies are
// rejected, never truncated.
const maxBodyBytes = 64 << 20

// Client implements pipeline.Lister and pipeline.Fetcher over HTTP. A circuit
// breaker fails requests fast once the server keeps erroring.
type Client struct {
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	maxBody    int64
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a data mart client. timeout bounds each request.
func NewClient(timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		maxBody:    maxBodyBytes,
		logger:     logger,
		metrics:    metrics,
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "datamart",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: c.onStateChange,
	})
	return c
}

func (c *Client) onStateChange(name string, from, to gobreaker.State) {
	c.logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
	if to == gobreaker.StateOpen {
		c.metrics.CircuitOpen.Set(1)
	} else {
		c.metrics.CircuitOpen.Set(0)
	}
}

// List returns every link target in the directory listing at dirURL.
func (c *Client) List(ctx context.Context, dirURL string) ([]string, error) {
	body, err := c.get(ctx, dirURL)
	if err != nil {
		return nil, &domain.ListingError{URL: dirURL, Err: err}
	}
	links, err := parseListing(body)
	if err != nil {
		return nil, &domain.ListingError{URL: dirURL, Err: err}
	}
	c.logger.Debug("directory listed", "url", dirURL, "links", len(links))
	return links, nil
}

// Fetch downloads one station CSV and parses it against schema.
func (c *Client) Fetch(ctx context.Context, fileURL string, schema domain.Schema) (domain.Table, error) {
	body, err := c.get(ctx, fileURL)
	if err != nil {
		return domain.Table{}, err
	}
	records, err := readRecords(body)
	if err != nil {
		return domain.Table{}, fmt.Errorf("read csv: %w", err)
	}
	return domain.ParseTable(fileURL, records, schema)
}

// get performs a GET through the breaker and returns the full body. Non-2xx
// responses are failures.
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	out, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("get %s: %w", rawURL, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return nil, fmt.Errorf("get %s: status %d: %s", rawURL, resp.StatusCode, snippet)
		}
		body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		if int64(len(body)) > c.maxBody {
			return nil, fmt.Errorf("get %s: body exceeds %d bytes", rawURL, c.maxBody)
		}
		return body, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("get %s: %w", rawURL, err)
		}
		return nil, err
	}
	return out.([]byte), nil
}
