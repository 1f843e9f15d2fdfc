package figma

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kataras/figma-sync/internal/metrics"
	"github.com/kataras/figma-sync/pkg/logger"
)

const (
	// DefaultBaseURL is the public Figma REST API.
	DefaultBaseURL = "https://api.figma.com/v1"

	// DefaultMaxRetries is the number of attempts made for one logical call.
	DefaultMaxRetries = 3

	// MaxImageIDsPerRequest is the render endpoint's own limit on ids per call.
	MaxImageIDsPerRequest = 10
)

// Client represents a Figma API client with configured HTTP settings for reliable communication
// with the Figma API. Every attempt that reaches the network is first admitted by the RateLimiter.
type Client struct {
	accessToken string
	baseURL     string
	httpClient  *http.Client
	limiter     *RateLimiter
	logger      logger.Logger
	maxRetries  int
	backoff     func(attempt int) time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL points the client at another API root (tests, proxies).
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithHTTPClient replaces the default tuned http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimiter gates every attempt through r.
func WithRateLimiter(r *RateLimiter) ClientOption {
	return func(c *Client) { c.limiter = r }
}

// WithLogger sets the logger used for retry and batch warnings.
func WithLogger(l logger.Logger) ClientOption {
	return func(c *Client) { c.logger = logger.OrNop(l) }
}

// WithRetry overrides the attempt count and the delay before attempt+1.
func WithRetry(maxRetries int, backoff func(attempt int) time.Duration) ClientOption {
	return func(c *Client) {
		if maxRetries > 0 {
			c.maxRetries = maxRetries
		}
		if backoff != nil {
			c.backoff = backoff
		}
	}
}

// ExponentialBackoff waits 2^attempt seconds.
func ExponentialBackoff(attempt int) time.Duration {
	return time.Duration(1<<attempt) * time.Second
}

// NewClient creates a new Figma API client with the provided personal access token.
// The client is configured with optimized HTTP transport settings including connection pooling,
// disabled HTTP/2 (for large file stability), and a 10-minute timeout for very large files.
func NewClient(accessToken string, opts ...ClientOption) *Client {
	transport := &http.Transport{
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		MaxIdleConnsPerHost: 10,
		// Disable HTTP/2 to avoid stream errors with large files
		ForceAttemptHTTP2: false,
	}

	c := &Client{
		accessToken: accessToken,
		baseURL:     DefaultBaseURL,
		httpClient: &http.Client{
			Timeout:   10 * time.Minute,
			Transport: transport,
		},
		logger:     logger.Nop,
		maxRetries: DefaultMaxRetries,
		backoff:    ExponentialBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RateLimiter returns the limiter gating this client, if any.
func (c *Client) RateLimiter() *RateLimiter { return c.limiter }

// GetFile retrieves the document tree, styles and components of a file.
// When nodeIDs are given the document is pruned to those subtrees.
func (c *Client) GetFile(ctx context.Context, fileKey string, nodeIDs ...string) (*FileResponse, error) {
	query := url.Values{}
	if len(nodeIDs) > 0 {
		query.Set("ids", strings.Join(nodeIDs, ","))
	}

	var fileResp FileResponse
	if err := c.get(ctx, "file", "/files/"+url.PathEscape(fileKey), query, &fileResp); err != nil {
		return nil, fmt.Errorf("fetch file %s: %w", fileKey, err)
	}
	return &fileResp, nil
}

// GetFileVersion fetches only the top of the document to read the current version.
func (c *Client) GetFileVersion(ctx context.Context, fileKey string) (string, error) {
	query := url.Values{}
	query.Set("depth", "1")

	var fileResp FileResponse
	if err := c.get(ctx, "file_version", "/files/"+url.PathEscape(fileKey), query, &fileResp); err != nil {
		return "", fmt.Errorf("fetch version of %s: %w", fileKey, err)
	}
	return fileResp.Version, nil
}

// GetImages asks the render endpoint for image URLs, MaxImageIDsPerRequest ids
// per call. A failed batch is logged and skipped: its nodes are simply absent
// from the result. Only context cancellation aborts the whole request.
func (c *Client) GetImages(ctx context.Context, fileKey string, nodeIDs []string, format string, scale float64) (map[string]string, error) {
	images := make(map[string]string, len(nodeIDs))

	for i := 0; i < len(nodeIDs); i += MaxImageIDsPerRequest {
		end := min(i+MaxImageIDsPerRequest, len(nodeIDs))
		batch := nodeIDs[i:end]

		query := url.Values{}
		query.Set("ids", strings.Join(batch, ","))
		query.Set("format", format)
		query.Set("scale", strconv.FormatFloat(scale, 'f', -1, 64))

		var imgResp ImagesResponse
		err := c.get(ctx, "images", "/images/"+url.PathEscape(fileKey), query, &imgResp)
		if err != nil {
			if ctx.Err() != nil {
				return images, ctx.Err()
			}
			c.logger.Warnf("Skipping image batch %d-%d of %s: %v", i, end, fileKey, err)
			continue
		}
		if imgResp.Err != nil && *imgResp.Err != "" {
			c.logger.Warnf("Image batch %d-%d of %s reported: %s", i, end, fileKey, *imgResp.Err)
		}

		for id, u := range imgResp.Images {
			if u != "" {
				images[id] = u
			}
		}
	}

	return images, nil
}

// get performs a GET with retries. Network errors, unparsable bodies, 429 and
// 5xx responses are retried; other statuses fail immediately.
func (c *Client) get(ctx context.Context, endpoint, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Acquire(); err != nil {
				metrics.RecordAPICall(endpoint, "rate_limited")
				return err
			}
		}

		err := c.do(ctx, u, out)
		if err == nil {
			metrics.RecordAPICall(endpoint, "ok")
			return nil
		}
		metrics.RecordAPICall(endpoint, "error")

		if ctx.Err() != nil {
			return ctx.Err()
		}

		var apiErr *APIError
		if errors.As(err, &apiErr) && !retryableStatus(apiErr.StatusCode) {
			return err
		}

		lastErr = fmt.Errorf("attempt %d: %w", attempt, err)
		if attempt < c.maxRetries {
			wait := c.backoff(attempt)
			c.logger.Warnf("Figma %s request failed (%v), retrying in %s", endpoint, err, wait)
			if err := sleep(ctx, wait); err != nil {
				return err
			}
		}
	}

	return &RemoteUnavailableError{Attempts: c.maxRetries, Err: lastErr}
}

func (c *Client) do(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-Figma-Token", c.accessToken)
	// Disable HTTP/2 to avoid stream errors with large files
	req.Header.Set("Connection", "close")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
