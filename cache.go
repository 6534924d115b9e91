package esbridge

import (
	"strconv"
	"strings"
	"sync"

	"github.com/esbridge/esbridge-go/internal/serialize"
	"github.com/esbridge/esbridge-go/schema"
)

// BindCache memoizes resolved schemas across scans of the same collection.
//
// Entries are stored as compressed snapshots, so every Get materializes an
// independent copy: callers can mutate a returned schema without poisoning
// later lookups. The cache key covers everything resolution depends on,
// including credentials and the sample size, so a changed connection never
// sees another connection's schema.
type BindCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	codec   *serialize.Codec
}

// NewBindCache creates an empty cache.
func NewBindCache() (*BindCache, error) {
	codec, err := serialize.NewCodec()
	if err != nil {
		return nil, err
	}
	return &BindCache{
		entries: map[string][]byte{},
		codec:   codec,
	}, nil
}

// Get returns an independent copy of the cached schema, if present.
// A snapshot that fails to decode is dropped and reported as a miss.
func (c *BindCache) Get(key string) (*schema.Schema, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	blob, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	sch, err := c.codec.Decode(blob)
	if err != nil {
		delete(c.entries, key)
		return nil, false
	}
	return sch, true
}

// Put snapshots the schema under key.
func (c *BindCache) Put(key string, sch *schema.Schema) error {
	blob, err := c.codec.Encode(sch)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = blob
	return nil
}

// Clear wipes every entry.
func (c *BindCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[string][]byte{}
}

// Len returns the number of cached schemas.
func (c *BindCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Close releases the snapshot codec.
func (c *BindCache) Close() {
	c.codec.Close()
}

// bindCacheKey identifies one resolution result. The separator cannot occur
// in any component, so distinct inputs never collide.
func bindCacheKey(cfg *Config, index, baseQuery string) string {
	parts := []string{
		cfg.Host,
		strconv.Itoa(cfg.Port),
		index,
		baseQuery,
		cfg.Username,
		cfg.Password,
		strconv.FormatBool(cfg.UseSSL),
		strconv.FormatBool(cfg.InsecureSkipVerify),
		strconv.Itoa(cfg.SampleSize),
	}
	return strings.Join(parts, "\x00")
}
