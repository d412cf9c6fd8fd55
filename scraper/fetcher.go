// Package scraper fetches search-results pages with browser-impersonating
// headers, a Chrome TLS fingerprint, and bounded retries.
package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	tls2 "github.com/refraction-networking/utls"

	"github.com/Eliedson1979/amazon-scraper/config"
	"github.com/Eliedson1979/amazon-scraper/models"
)

// Fetcher retrieves the raw HTML of a search-results page for a keyword.
// It is read-only after construction and safe for concurrent use.
type Fetcher struct {
	cfg     config.ScraperConfig
	client  *http.Client
	metrics *Metrics
}

// FetchResult is the outcome of a successful fetch.
type FetchResult struct {
	// HTML is the raw page markup.
	HTML string

	// Attempts is how many attempts the fetch consumed.
	Attempts int
}

// NewFetcher builds a fetcher with a Chrome-fingerprint TLS transport.
func NewFetcher(cfg config.ScraperConfig, metrics *Metrics) *Fetcher {
	transport := &http.Transport{
		DialTLSContext: dialTLSChrome,
	}
	return &Fetcher{
		cfg:     cfg,
		client:  &http.Client{Transport: transport},
		metrics: metrics,
	}
}

// HTTPClient exposes the underlying client so tests can install a mock
// transport.
func (f *Fetcher) HTTPClient() *http.Client {
	return f.client
}

// Fetch retrieves the search page for keyword, retrying transient failures
// with exponential backoff (2^attempt * backoff base between attempts).
// Only the final attempt's failure is classified and surfaced, always as a
// *models.ScrapeError.
func (f *Fetcher) Fetch(ctx context.Context, keyword string) (*FetchResult, error) {
	target := f.cfg.BaseURL + strings.Replace(f.cfg.SearchPath, "%s", url.QueryEscape(keyword), 1)

	start := time.Now()
	var last *fetchError
	for attempt := 1; attempt <= f.cfg.MaxAttempts; attempt++ {
		html, ferr := f.attempt(ctx, target)
		if ferr == nil {
			f.metrics.IncAttempt("success")
			f.metrics.ObserveFetchDuration(time.Since(start))
			slog.Debug("fetch succeeded",
				slog.String("keyword", keyword),
				slog.Int("attempt", attempt),
				slog.Int("bytes", len(html)),
			)
			return &FetchResult{HTML: html, Attempts: attempt}, nil
		}

		last = ferr
		f.metrics.IncAttempt("failure")
		f.metrics.IncError(ferr.code)
		slog.Warn("fetch attempt failed",
			slog.String("keyword", keyword),
			slog.Int("attempt", attempt),
			slog.String("category", ferr.code),
			slog.Any("error", ferr.err),
		)

		if !ferr.retryable || attempt == f.cfg.MaxAttempts {
			break
		}

		delay := time.Duration(1<<uint(attempt)) * f.cfg.RetryBackoffBase
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			f.metrics.ObserveFetchDuration(time.Since(start))
			return nil, models.NewScrapeError(models.ErrCodeTimeout, ctx.Err())
		}
	}

	f.metrics.ObserveFetchDuration(time.Since(start))
	return nil, models.NewScrapeError(last.code, last.err)
}

// attempt performs one GET against target under the per-attempt timeout.
func (f *Fetcher) attempt(ctx context.Context, target string) (string, *fetchError) {
	actx, cancel := context.WithTimeout(ctx, f.cfg.AttemptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(actx, http.MethodGet, target, nil)
	if err != nil {
		return "", &fetchError{code: models.ErrCodeInternal, err: err}
	}
	f.setHeaders(req)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", classifyTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", classifyStatus(resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBodyBytes))
	if err != nil {
		return "", &fetchError{code: models.ErrCodeConnection, retryable: true, err: fmt.Errorf("read body: %w", err)}
	}
	if !looksLikeText(body) {
		return "", &fetchError{
			code:      models.ErrCodeConnection,
			retryable: true,
			err:       fmt.Errorf("empty or non-text response body (%d bytes)", len(body)),
		}
	}

	return string(body), nil
}

// setHeaders applies the static desktop-browser header set.
func (f *Fetcher) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8")
	req.Header.Set("Accept-Language", "pt-BR,pt;q=0.9,en-US;q=0.8,en;q=0.7")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "none")
}

// looksLikeText reports whether body is non-empty printable text. A NUL byte
// marks a binary payload; whitespace-only bodies count as empty.
func looksLikeText(body []byte) bool {
	if len(bytes.TrimSpace(body)) == 0 {
		return false
	}
	return !bytes.ContainsRune(body, 0)
}

// fetchError tags one attempt's failure with its category and whether the
// retry loop may try again. The loop inspects the tag, never the message.
type fetchError struct {
	code      string
	retryable bool
	err       error
}

func (e *fetchError) Error() string {
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *fetchError) Unwrap() error {
	return e.err
}

// classifyTransport maps a transport-level error to a fetch category.
func classifyTransport(err error) *fetchError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &fetchError{code: models.ErrCodeTimeout, retryable: true, err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &fetchError{code: models.ErrCodeTimeout, retryable: true, err: err}
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &fetchError{code: models.ErrCodeConnection, retryable: true, err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return &fetchError{code: models.ErrCodeConnection, retryable: true, err: err}
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && strings.Contains(urlErr.Err.Error(), "connection refused") {
		return &fetchError{code: models.ErrCodeConnection, retryable: true, err: err}
	}
	return &fetchError{code: models.ErrCodeInternal, retryable: true, err: err}
}

// classifyStatus maps a >= 400 HTTP status to a fetch category.
func classifyStatus(status int) *fetchError {
	err := fmt.Errorf("http status %d", status)
	switch {
	case status == http.StatusTooManyRequests:
		return &fetchError{code: models.ErrCodeRateLimited, err: err}
	case status == http.StatusServiceUnavailable:
		return &fetchError{code: models.ErrCodeUnavailable, retryable: true, err: err}
	case status >= 500:
		return &fetchError{code: models.ErrCodeInternal, retryable: true, err: err}
	default:
		return &fetchError{code: models.ErrCodeInternal, err: err}
	}
}

// dialTLSChrome establishes a TLS connection using a Chrome fingerprint via utls.
func dialTLSChrome(ctx context.Context, network, addr string) (net.Conn, error) {
	dialer := &net.Dialer{}
	rawConn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	host, _, _ := net.SplitHostPort(addr)
	tlsConn := tls2.UClient(rawConn, &tls2.Config{
		ServerName: host,
	}, tls2.HelloChrome_Auto)

	if err := tlsConn.HandshakeContext(ctx); err != nil {
		rawConn.Close()
		return nil, err
	}
	return tlsConn, nil
}
