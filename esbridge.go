package esbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/esbridge/esbridge-go/filter"
	"github.com/esbridge/esbridge-go/scan"
	"github.com/esbridge/esbridge-go/schema"
	"github.com/esbridge/esbridge-go/transport"
)

// Connector is a connection to one document store. It owns the retrying
// HTTP client and the bind cache; a Connector is safe for concurrent use.
type Connector struct {
	mu     sync.Mutex
	cfg    Config
	client *transport.Client
	cache  *BindCache
	closed bool
}

// New creates a connector from cfg, filling in defaults.
func New(cfg Config) (*Connector, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	client, err := transport.NewClient(transport.Options{
		Host:               cfg.Host,
		Port:               cfg.Port,
		Username:           cfg.Username,
		Password:           cfg.Password,
		UseSSL:             cfg.UseSSL,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
		Timeout:            cfg.Timeout,
		MaxRetries:         cfg.MaxRetries,
		RetryInterval:      cfg.RetryInterval,
		BackoffFactor:      cfg.BackoffFactor,
		Logger:             cfg.Logger,
		Trace:              cfg.Trace,
	})
	if err != nil {
		return nil, err
	}

	cache, err := NewBindCache()
	if err != nil {
		return nil, err
	}

	return &Connector{cfg: cfg, client: client, cache: cache}, nil
}

// Bind resolves the schema of an index name or pattern, memoized in the
// bind cache. baseQuery is an optional native query clause (JSON) that
// scopes both document sampling and later scans; it is part of the cache
// key because it changes what sampling can observe.
func (c *Connector) Bind(ctx context.Context, index, baseQuery string) (*schema.Schema, error) {
	if index == "" {
		return nil, fmt.Errorf("%w: index is required", ErrInvalidConfig)
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	cfg := c.cfg
	c.mu.Unlock()

	key := bindCacheKey(&cfg, index, baseQuery)
	if sch, ok := c.cache.Get(key); ok {
		cfg.Logger.Debug("bind cache hit", "index", index)
		return sch, nil
	}

	base, err := parseBaseQuery(baseQuery)
	if err != nil {
		return nil, err
	}

	sampleSize := cfg.SampleSize
	if sampleSize < 0 {
		sampleSize = 0
	}
	sch, err := schema.Resolve(ctx, c.client, index, base, sampleSize, cfg.Logger)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Put(key, sch); err != nil {
		return nil, err
	}
	cfg.Logger.Debug("bind cache filled", "index", index, "columns", len(sch.Columns))
	return sch, nil
}

// ScanSpec describes one scan request.
type ScanSpec struct {
	// Index is the collection name or pattern. REQUIRED.
	Index string

	// BaseQuery is an optional native query clause (JSON) always applied
	// to the scan, conjoined with the translated Filter.
	BaseQuery string

	// Filter is the pushed-down predicate tree. OPTIONAL.
	Filter filter.Predicate

	// Projection selects output columns by name. OPTIONAL: nil selects
	// every output column.
	Projection []string

	// Limit caps the returned rows; scan.NoLimit disables it.
	Limit int64

	// Offset skips leading rows.
	Offset int64
}

// Scan binds the collection and opens a row scanner for the spec. The
// caller must drain or Close the scanner.
func (c *Connector) Scan(ctx context.Context, spec ScanSpec) (*scan.Scanner, error) {
	sch, err := c.Bind(ctx, spec.Index, spec.BaseQuery)
	if err != nil {
		return nil, err
	}

	base, err := parseBaseQuery(spec.BaseQuery)
	if err != nil {
		return nil, err
	}

	req, err := scan.Compile(sch, spec.Filter, base, spec.Projection, spec.Limit, spec.Offset, scan.Options{
		PageSize:     c.cfg.PageSize,
		MaxSizedPage: c.cfg.MaxSizedPage,
		ScrollTTL:    c.cfg.ScrollTTL,
	})
	if err != nil {
		return nil, err
	}
	return scan.New(c.client, req, sch, c.cfg.Logger), nil
}

// SetSampleSize changes the schema sampling depth. A change invalidates the
// whole bind cache, since cached schemas may have seen too few documents.
func (c *Connector) SetSampleSize(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cfg.SampleSize == n {
		return
	}
	c.cfg.SampleSize = n
	c.cache.Clear()
}

// ClearCache wipes the bind cache, forcing fresh resolution on next bind.
func (c *Connector) ClearCache() {
	c.cache.Clear()
}

// Cache exposes the bind cache, mainly for inspection in tests and tools.
func (c *Connector) Cache() *BindCache { return c.cache }

// Close releases connector resources. Scans already opened keep working.
func (c *Connector) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.cache.Close()
}

func parseBaseQuery(baseQuery string) (map[string]any, error) {
	if baseQuery == "" {
		return nil, nil
	}
	var base map[string]any
	if err := json.Unmarshal([]byte(baseQuery), &base); err != nil {
		return nil, fmt.Errorf("parse base query: %w", err)
	}
	return base, nil
}
