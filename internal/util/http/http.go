// Package http provides HTTP utilities for fetching remote resources.
package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/jmylchreest/croptint/internal/version"
)

const (
	// UserAgentName is the application name used in the User-Agent header.
	UserAgentName = "croptint"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second
)

// FetchReason classifies why a fetch failed.
type FetchReason string

const (
	// ReasonTimeout indicates the request exceeded the configured timeout.
	ReasonTimeout FetchReason = "timeout"

	// ReasonHTTP indicates the server answered with a non-success status.
	ReasonHTTP FetchReason = "http_error"

	// ReasonNetwork indicates a connection-level failure.
	ReasonNetwork FetchReason = "network_error"
)

// FetchError describes a failed fetch of a single URL.
type FetchError struct {
	URL        string
	Reason     FetchReason
	StatusCode int
	Err        error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.Reason == ReasonHTTP {
		return fmt.Sprintf("fetch %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Reason, e.Err)
}

// Unwrap returns the underlying transport error, if any.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// FetchOptions configures HTTP fetch behavior.
type FetchOptions struct {
	// Timeout specifies the HTTP request timeout.
	// If zero, DefaultTimeout is used.
	Timeout time.Duration

	// Headers specifies additional HTTP headers to send with the request.
	Headers map[string]string
}

// Fetch retrieves content from a URL with context and timeout support.
// It issues a single GET with no retries; a failure is reported as a
// *FetchError classified as timeout, http_error or network_error.
func Fetch(ctx context.Context, url string, opts FetchOptions) ([]byte, error) {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	client := &http.Client{
		Timeout: timeout,
	}

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Reason: ReasonNetwork, Err: err}
	}

	// Set User-Agent with dynamic version
	userAgent := fmt.Sprintf("%s/%s", UserAgentName, version.Version)
	req.Header.Set("User-Agent", userAgent)

	// Set additional headers
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Reason: classify(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{URL: url, Reason: ReasonHTTP, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: url, Reason: classify(err), Err: err}
	}

	return data, nil
}

// classify maps a transport error to a FetchReason.
func classify(err error) FetchReason {
	if errors.Is(err, context.DeadlineExceeded) {
		return ReasonTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ReasonTimeout
	}
	return ReasonNetwork
}
