package esbridge

import (
	"errors"
	"log/slog"
	"time"

	"github.com/esbridge/esbridge-go/transport"
)

// Config contains configuration for a store connection.
type Config struct {
	// Host is the store hostname or IP address.
	// REQUIRED: MUST NOT be empty.
	Host string

	// Port is the store HTTP port.
	// OPTIONAL: If 0, uses 9200.
	Port int

	// Username and Password enable basic authentication.
	// OPTIONAL: If empty, requests are unauthenticated.
	Username string
	Password string

	// UseSSL selects https transport.
	// OPTIONAL: Defaults to plain http.
	UseSSL bool

	// InsecureSkipVerify disables certificate verification when UseSSL
	// is set. OPTIONAL: Defaults to false.
	// Only set against test clusters.
	InsecureSkipVerify bool

	// Timeout bounds a single request attempt.
	// OPTIONAL: If 0, uses 30s.
	Timeout time.Duration

	// MaxRetries is the number of additional attempts after a retryable
	// failure. OPTIONAL: If 0, uses 3. Negative disables retries.
	MaxRetries int

	// RetryInterval is the wait before the first retry; it grows by
	// BackoffFactor after each one.
	// OPTIONAL: If 0, uses 100ms. Negative retries without waiting.
	RetryInterval time.Duration

	// BackoffFactor multiplies the retry wait after every attempt.
	// OPTIONAL: If 0, uses 2.0.
	BackoffFactor float64

	// SampleSize is the number of documents sampled during schema
	// resolution to detect multi-valued fields.
	// OPTIONAL: If 0, uses 100. Negative disables sampling.
	SampleSize int

	// PageSize is the scan cursor page size.
	// OPTIONAL: If 0, uses 1000.
	PageSize int

	// MaxSizedPage caps the single-page scan fast path.
	// OPTIONAL: If 0, uses 5000.
	MaxSizedPage int

	// ScrollTTL is the store-side cursor keepalive.
	// OPTIONAL: If empty, uses "5m".
	ScrollTTL string

	// Logger for internal logging.
	// OPTIONAL: Uses slog.Default() if nil.
	Logger *slog.Logger

	// Trace receives a record for every request attempt the connector
	// makes, including failed ones.
	// OPTIONAL: If nil, traces are logged at debug level through Logger.
	Trace transport.TraceSink
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = 9200
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	// Negative MaxRetries and RetryInterval pass through untouched: the
	// transport layer maps them to zero, while zero here means unset.
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.RetryInterval == 0 {
		c.RetryInterval = 100 * time.Millisecond
	}
	if c.BackoffFactor == 0 {
		c.BackoffFactor = 2.0
	}
	if c.SampleSize == 0 {
		c.SampleSize = 100
	}
	if c.PageSize == 0 {
		c.PageSize = 1000
	}
	if c.MaxSizedPage == 0 {
		c.MaxSizedPage = 5000
	}
	if c.ScrollTTL == "" {
		c.ScrollTTL = "5m"
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

func (c *Config) validate() error {
	if c.Host == "" {
		return errors.Join(ErrInvalidConfig, errors.New("host is required"))
	}
	return nil
}

// Standard errors returned by the esbridge package.
var (
	// ErrInvalidConfig indicates Config validation failed.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrClosed indicates the connector was already closed.
	ErrClosed = errors.New("connector is closed")
)
