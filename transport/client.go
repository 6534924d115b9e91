package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/esbridge/esbridge-go/internal/recovery"
	"github.com/esbridge/esbridge-go/internal/session"
)

// Options configures a store client.
type Options struct {
	// Host is the store hostname or IP. REQUIRED.
	Host string

	// Port is the store HTTP port. OPTIONAL, default 9200.
	Port int

	// Username and Password enable basic authentication. OPTIONAL.
	Username string
	Password string

	// UseSSL selects https. OPTIONAL, default false.
	UseSSL bool

	// InsecureSkipVerify disables certificate verification when UseSSL
	// is set. OPTIONAL, default false.
	InsecureSkipVerify bool

	// Timeout bounds a single request attempt. OPTIONAL, default 30s.
	Timeout time.Duration

	// MaxRetries is the number of additional attempts after a retryable
	// failure. OPTIONAL, 0 means the default of 3; negative disables
	// retries.
	MaxRetries int

	// RetryInterval is the wait before the first retry. OPTIONAL, 0 means
	// the default of 100ms; negative retries without waiting.
	RetryInterval time.Duration

	// BackoffFactor multiplies the wait after every retry. OPTIONAL,
	// default 2.0.
	BackoffFactor float64

	// Logger receives request-level log records. OPTIONAL,
	// default slog.Default().
	Logger *slog.Logger

	// Trace receives a record for every attempt, including failed ones.
	// OPTIONAL, default logs at debug level through Logger.
	Trace TraceSink
}

func (o *Options) applyDefaults() {
	if o.Port == 0 {
		o.Port = 9200
	}
	if o.Timeout == 0 {
		o.Timeout = 30 * time.Second
	}
	switch {
	case o.MaxRetries == 0:
		o.MaxRetries = 3
	case o.MaxRetries < 0:
		o.MaxRetries = 0
	}
	switch {
	case o.RetryInterval == 0:
		o.RetryInterval = 100 * time.Millisecond
	case o.RetryInterval < 0:
		o.RetryInterval = 0
	}
	if o.BackoffFactor == 0 {
		o.BackoffFactor = 2.0
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Trace == nil {
		o.Trace = &slogSink{logger: o.Logger}
	}
}

// Client is an HTTP client for the document store with classified retries.
type Client struct {
	opts    Options
	baseURL string
	hc      *http.Client
	logger  *slog.Logger
	trace   TraceSink
}

// ErrMissingHost is returned when Options.Host is empty.
var ErrMissingHost = errors.New("transport: host is required")

// NewClient creates a client from opts, filling in defaults.
func NewClient(opts Options) (*Client, error) {
	if opts.Host == "" {
		return nil, ErrMissingHost
	}
	opts.applyDefaults()

	scheme := "http"
	transport := http.DefaultTransport
	if opts.UseSSL {
		scheme = "https"
		if opts.InsecureSkipVerify {
			tr := http.DefaultTransport.(*http.Transport).Clone()
			tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
			transport = tr
		}
	}

	return &Client{
		opts:    opts,
		baseURL: fmt.Sprintf("%s://%s:%d", scheme, opts.Host, opts.Port),
		hc: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		logger: opts.Logger,
		trace:  opts.Trace,
	}, nil
}

// Response is a completed store response.
type Response struct {
	StatusCode int
	Body       []byte
}

// StatusError reports a non-success store response. Retries counts the
// retry attempts consumed before giving up; it is zero when the status was
// not retryable.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
	Retries    int
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("store request %s %s failed with status %d", e.Method, e.URL, e.StatusCode)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	if e.Retries > 0 {
		msg += " (after " + strconv.Itoa(e.Retries) + " retries)"
	}
	return msg
}

// retryableStatus reports whether a response status indicates a transient
// condition worth retrying.
func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// Do performs a single request attempt without retries.
func (c *Client) Do(ctx context.Context, method, path string, body []byte) (*Response, error) {
	resp, err := c.attempt(ctx, method, path, body, 0)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{
			Method:     method,
			URL:        c.baseURL + path,
			StatusCode: resp.StatusCode,
			Body:       string(resp.Body),
		}
	}
	return resp, nil
}

// DoWithRetry performs a request, retrying transient failures with
// exponential backoff. Transport-level errors and the retryable status
// codes (429, 500, 502, 503, 504) are retried; any other non-success
// status is returned immediately. When every attempt fails, the returned
// error carries the retry count.
func (c *Client) DoWithRetry(ctx context.Context, method, path string, body []byte) (*Response, error) {
	var (
		lastErr  error
		lastResp *Response
	)

	wait := c.opts.RetryInterval
	for attempt := 0; attempt <= c.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
			wait = time.Duration(float64(wait) * c.opts.BackoffFactor)
		}

		resp, err := c.attempt(ctx, method, path, body, attempt)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr, lastResp = err, nil
			c.logger.Debug("store request failed, will retry",
				"method", method, "path", path, "attempt", attempt, "error", err)
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		if !retryableStatus(resp.StatusCode) {
			return nil, &StatusError{
				Method:     method,
				URL:        c.baseURL + path,
				StatusCode: resp.StatusCode,
				Body:       string(resp.Body),
			}
		}

		lastErr, lastResp = nil, resp
		c.logger.Debug("store returned retryable status",
			"method", method, "path", path, "attempt", attempt, "status", resp.StatusCode)
	}

	if lastResp != nil {
		return nil, &StatusError{
			Method:     method,
			URL:        c.baseURL + path,
			StatusCode: lastResp.StatusCode,
			Body:       string(lastResp.Body),
			Retries:    c.opts.MaxRetries,
		}
	}
	return nil, fmt.Errorf("store request %s %s failed (after %d retries): %w",
		method, c.baseURL+path, c.opts.MaxRetries, lastErr)
}

// attempt performs one HTTP exchange and emits a trace record for it.
// Transport-level failures are traced with status zero.
func (c *Client) attempt(ctx context.Context, method, path string, body []byte, attempt int) (*Response, error) {
	fullURL := c.baseURL + path

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return nil, fmt.Errorf("build store request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.opts.Username != "" {
		req.SetBasicAuth(c.opts.Username, c.opts.Password)
	}
	sessionID, _ := session.IDFromContext(ctx)
	if sessionID != "" {
		req.Header.Set(session.Header, sessionID)
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.emitTrace(Trace{
			Method:   method,
			URL:      fullURL,
			Session:  sessionID,
			Attempt:  attempt,
			Duration: elapsed,
			Err:      err,
		})
		return nil, fmt.Errorf("store request %s %s: %w", method, fullURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.emitTrace(Trace{
			Method:   method,
			URL:      fullURL,
			Session:  sessionID,
			Status:   resp.StatusCode,
			Attempt:  attempt,
			Duration: elapsed,
			Err:      err,
		})
		return nil, fmt.Errorf("read store response %s %s: %w", method, fullURL, err)
	}

	c.emitTrace(Trace{
		Method:       method,
		URL:          fullURL,
		Session:      sessionID,
		Status:       resp.StatusCode,
		Attempt:      attempt,
		Duration:     elapsed,
		ResponseSize: len(data),
	})

	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}

// emitTrace delivers a trace record to the configured sink. Sinks are
// user-provided; a panic in one must not fail the request.
func (c *Client) emitTrace(t Trace) {
	recovery.Recover(c.logger, "trace sink", func() {
		c.trace.Record(t)
	})
}

// GetJSON performs a retried GET and decodes the JSON response into out.
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	resp, err := c.DoWithRetry(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("decode store response for %s: %w", path, err)
	}
	return nil
}

// PostJSON performs a retried POST with a JSON body and decodes the JSON
// response into out.
func (c *Client) PostJSON(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode store request for %s: %w", path, err)
	}
	resp, err := c.DoWithRetry(ctx, http.MethodPost, path, data)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("decode store response for %s: %w", path, err)
	}
	return nil
}

func escapePath(segment string) string {
	return url.PathEscape(segment)
}
