package kalshi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://demo-api.kalshi.co/trade-api/v2"

	// Rate budgets well under the documented basic-tier limits
	// (10 reads/s, 5 writes/s). Reads and writes are counted independently.
	defaultReadsPerSec  = 8
	defaultWritesPerSec = 3

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// Client is the rate-limited, signing HTTP client for the Kalshi REST API.
// It implements ports.MarketGateway.
type Client struct {
	http     *http.Client
	baseURL  *url.URL
	signer   *Signer
	readLim  *rate.Limiter
	writeLim *rate.Limiter
}

// NewClient creates a Client for the given base URL (production or demo).
// readsPerSec/writesPerSec of 0 use the defaults.
func NewClient(baseURL string, signer *Signer, readsPerSec, writesPerSec int) (*Client, error) {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("kalshi.NewClient: parse base url %q: %w", baseURL, err)
	}
	if readsPerSec <= 0 {
		readsPerSec = defaultReadsPerSec
	}
	if writesPerSec <= 0 {
		writesPerSec = defaultWritesPerSec
	}
	return &Client{
		http:     &http.Client{Timeout: 30 * time.Second},
		baseURL:  u,
		signer:   signer,
		readLim:  rate.NewLimiter(rate.Limit(readsPerSec), readsPerSec),
		writeLim: rate.NewLimiter(rate.Limit(writesPerSec), 1),
	}, nil
}

// get does a signed GET with rate limiting and retries.
func (c *Client) get(ctx context.Context, endpoint string, query url.Values, out any) error {
	return c.do(ctx, c.readLim, http.MethodGet, endpoint, query, nil, out)
}

// post does a signed JSON POST with rate limiting and retries.
func (c *Client) post(ctx context.Context, endpoint string, body, out any) error {
	return c.do(ctx, c.writeLim, http.MethodPost, endpoint, nil, body, out)
}

// del does a signed DELETE with rate limiting and retries.
func (c *Client) del(ctx context.Context, endpoint string, out any) error {
	return c.do(ctx, c.writeLim, http.MethodDelete, endpoint, nil, nil, out)
}

// do executes one API call with exponential backoff on transient failures.
// 4xx responses (except 429) are returned as *APIError without retrying.
func (c *Client) do(ctx context.Context, limiter *rate.Limiter, method, endpoint string, query url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("kalshi: marshal body: %w", err)
		}
		payload = b
	}

	u := *c.baseURL
	u.Path += endpoint
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("kalshi: rate limiter: %w", err)
		}

		req, err := c.newRequest(ctx, method, &u, payload)
		if err != nil {
			return err
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			if attempt == maxRetries {
				break
			}
			c.sleep(ctx, attempt)
			continue
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			resp.Body.Close()
			lastErr = ErrRateLimited
			slog.Warn("kalshi: rate limited by venue", "endpoint", endpoint, "attempt", attempt+1)
			c.sleep(ctx, attempt)
			continue

		case resp.StatusCode >= 500:
			resp.Body.Close()
			lastErr = fmt.Errorf("kalshi: server error %d", resp.StatusCode)
			c.sleep(ctx, attempt)
			continue

		case resp.StatusCode >= 400:
			apiErr := &APIError{Status: resp.StatusCode}
			var wire struct {
				Error struct {
					Code    string `json:"code"`
					Message string `json:"message"`
				} `json:"error"`
			}
			raw, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			if json.Unmarshal(raw, &wire) == nil {
				apiErr.Code = wire.Error.Code
				apiErr.Message = wire.Error.Message
			}
			if apiErr.Message == "" {
				apiErr.Message = string(raw)
			}
			return apiErr
		}

		defer resp.Body.Close()
		if out == nil {
			io.Copy(io.Discard, resp.Body)
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("kalshi: decode %s response: %w", endpoint, err)
		}
		return nil
	}

	return fmt.Errorf("kalshi: %s %s failed after %d retries: %w", method, endpoint, maxRetries, lastErr)
}

// newRequest builds a signed request. The signature covers the path without
// query parameters and is regenerated per attempt for a fresh timestamp.
func (c *Client) newRequest(ctx context.Context, method string, u *url.URL, payload []byte) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("kalshi: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	headers, err := c.signer.Headers(method, u.Path)
	if err != nil {
		return nil, fmt.Errorf("kalshi: sign request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

// sleep waits with exponential backoff, respecting the context.
func (c *Client) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * baseRetryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}
