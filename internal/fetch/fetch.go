// Package fetch downloads rendered bulletin pages from the source site.
// It classifies failures into the error taxonomy the import flow expects
// and rate-limits requests so bulk imports stay polite.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/astrocat/atelscan/pkg/atelscan/internalerr"
	"github.com/astrocat/atelscan/pkg/atelscan/segment"
)

// DefaultTimeout bounds one download, including the source's render time.
const DefaultTimeout = 20 * time.Second

// DefaultRateLimit is one request per second.
const DefaultRateLimit = 1.0

// Client is a rate-limited HTTP client for the bulletin source.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-download timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRateLimit sets the maximum request rate in requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// New creates a client for the given source base URL. Report pages are
// expected at <base>?read=<num>.
func New(baseURL string, opts ...Option) *Client {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), 1),
		baseURL:    baseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Download fetches the rendered page for one bulletin number.
// Transport-level failures surface as ErrNetwork, load timeouts as
// ErrDownloadFail, and the source's placeholder page for an unknown
// number as ErrReportNotFound. No retries are attempted.
func (c *Client) Download(ctx context.Context, id int) (string, error) {
	if id <= 0 {
		return "", fmt.Errorf("%w: report id must be positive, got %d", internalerr.ErrInvalidInput, id)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s?read=%d", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return "", fmt.Errorf("%w: %s: %v", internalerr.ErrDownloadFail, url, err)
		}
		return "", fmt.Errorf("%w: %s: %v", internalerr.ErrNetwork, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %s: HTTP %d", internalerr.ErrNetwork, url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return "", fmt.Errorf("%w: %s: %v", internalerr.ErrDownloadFail, url, err)
		}
		return "", fmt.Errorf("%w: %s: %v", internalerr.ErrNetwork, url, err)
	}

	page := string(body)
	if segment.DeclaresMissing(page) {
		return "", fmt.Errorf("%w: report %d", internalerr.ErrReportNotFound, id)
	}
	return page, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
