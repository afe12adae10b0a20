// Package collyfetcher downloads upstream documents using gocolly.
package collyfetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
)

// DefaultTimeout applies when neither the config nor the request set one.
const DefaultTimeout = 30 * time.Second

// Config controls collector behavior.
type Config struct {
	// UserAgent identifies the client. The publication host rejects blank
	// agents, so callers normally pass a browser-like string.
	UserAgent string
	// Timeout bounds each request unless the request carries its own.
	Timeout time.Duration
}

// Request describes a single download.
type Request struct {
	URL string
	// Timeout overrides the configured one when positive. Page fetches and
	// workbook downloads carry different budgets.
	Timeout time.Duration
}

// Response carries one downloaded document.
type Response struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

// StatusError reports a non-2xx upstream status.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned status %d", e.Code)
}

// TimeoutError marks a fetch that exceeded its budget.
type TimeoutError struct {
	Err error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("fetch timed out: %v", e.Err)
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// Fetcher performs single GET downloads through a Colly collector.
type Fetcher struct {
	cfg           Config
	transport     http.RoundTripper
	baseCollector *colly.Collector
}

// New builds a Fetcher with a pooled transport. Revisits are allowed since
// the same report URL is fetched on every cache refresh.
func New(cfg Config) *Fetcher {
	c := colly.NewCollector(colly.Async(false))
	c.IgnoreRobotsTxt = true
	c.AllowURLRevisit = true

	transport := newHTTPTransport()
	c.WithTransport(transport)

	return &Fetcher{
		cfg:           cfg,
		transport:     transport,
		baseCollector: c,
	}
}

// WithTransport replaces the HTTP transport. Tests install mock transports
// here.
func (f *Fetcher) WithTransport(rt http.RoundTripper) {
	f.transport = rt
	f.baseCollector.WithTransport(rt)
}

// Fetch executes a single HTTP GET.
func (f *Fetcher) Fetch(ctx context.Context, request Request) (Response, error) {
	var (
		result   Response
		fetchErr error
	)
	start := time.Now()
	collector := f.buildCollector(request, start, &result, &fetchErr)

	if err := f.runCollector(ctx, collector, request.URL, &fetchErr); err != nil {
		return Response{}, err
	}
	return result, nil
}

func (f *Fetcher) buildCollector(
	request Request,
	start time.Time,
	result *Response,
	fetchErr *error,
) *colly.Collector {
	collector := f.baseCollector.Clone()
	collector.IgnoreRobotsTxt = true
	collector.AllowURLRevisit = true
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}

	timeout := request.Timeout
	if timeout <= 0 {
		timeout = f.cfg.Timeout
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	collector.SetRequestTimeout(timeout)

	if f.transport != nil {
		collector.WithTransport(f.transport)
	}

	collector.OnResponse(func(r *colly.Response) {
		if r.StatusCode < http.StatusOK || r.StatusCode >= http.StatusMultipleChoices {
			*fetchErr = &StatusError{Code: r.StatusCode}
			return
		}
		*result = Response{
			URL:        r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Headers:    r.Headers.Clone(),
			Body:       append([]byte(nil), r.Body...),
			Duration:   time.Since(start),
		}
	})

	collector.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			*fetchErr = &StatusError{Code: r.StatusCode}
			return
		}
		*fetchErr = err
	})

	return collector
}

func (f *Fetcher) runCollector(ctx context.Context, collector *colly.Collector, url string, fetchErr *error) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("fetch canceled: %w", ctx.Err())
	case err := <-done:
		if *fetchErr != nil {
			err = *fetchErr
		}
		if err != nil {
			return classify(fmt.Errorf("fetch %s: %w", url, err))
		}
		return nil
	}
}

// classify maps transport failures onto the package error types so callers
// can tell a slow upstream from a broken one.
func classify(err error) error {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TimeoutError{Err: err}
	}
	return err
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
