package esbridge

import (
	"testing"

	"github.com/esbridge/esbridge-go/schema"
)

func testSchema() *schema.Schema {
	return &schema.Schema{
		Index: "logs",
		Columns: []schema.Column{
			{Name: "a", Type: schema.Type{Kind: schema.KindString}, External: "keyword"},
		},
		Paths:             map[string]string{"a": "keyword"},
		TextFields:        map[string]bool{},
		KeywordCompanions: map[string]bool{},
	}
}

func TestBindCachePutGet(t *testing.T) {
	cache, err := NewBindCache()
	if err != nil {
		t.Fatalf("NewBindCache: %v", err)
	}
	defer cache.Close()

	if _, ok := cache.Get("k"); ok {
		t.Error("empty cache reported a hit")
	}
	if err := cache.Put("k", testSchema()); err != nil {
		t.Fatalf("Put: %v", err)
	}
	sch, ok := cache.Get("k")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if sch.Index != "logs" || len(sch.Columns) != 1 {
		t.Errorf("cached schema = %+v", sch)
	}
}

func TestBindCacheReturnsIndependentCopies(t *testing.T) {
	cache, err := NewBindCache()
	if err != nil {
		t.Fatalf("NewBindCache: %v", err)
	}
	defer cache.Close()

	if err := cache.Put("k", testSchema()); err != nil {
		t.Fatalf("Put: %v", err)
	}

	first, _ := cache.Get("k")
	first.Columns[0].Name = "mutated"
	first.Paths["a"] = "mutated"

	second, _ := cache.Get("k")
	if second.Columns[0].Name != "a" || second.Paths["a"] != "keyword" {
		t.Error("mutation of one lookup leaked into the next")
	}
}

func TestBindCacheClear(t *testing.T) {
	cache, err := NewBindCache()
	if err != nil {
		t.Fatalf("NewBindCache: %v", err)
	}
	defer cache.Close()

	cache.Put("a", testSchema())
	cache.Put("b", testSchema())
	if cache.Len() != 2 {
		t.Fatalf("Len = %d, want 2", cache.Len())
	}
	cache.Clear()
	if cache.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", cache.Len())
	}
}

func TestBindCacheKeyComponents(t *testing.T) {
	base := Config{
		Host: "h", Port: 9200, Username: "u", Password: "p",
		UseSSL: true, InsecureSkipVerify: false, SampleSize: 100,
	}

	key := func(cfg Config, index, query string) string {
		return bindCacheKey(&cfg, index, query)
	}

	reference := key(base, "logs", `{"term":{"a":"b"}}`)

	variants := map[string]string{
		"host":        key(withHost(base, "other"), "logs", `{"term":{"a":"b"}}`),
		"port":        key(withPort(base, 9300), "logs", `{"term":{"a":"b"}}`),
		"index":       key(base, "metrics", `{"term":{"a":"b"}}`),
		"query":       key(base, "logs", `{"term":{"a":"c"}}`),
		"username":    key(withUser(base, "u2"), "logs", `{"term":{"a":"b"}}`),
		"sample size": key(withSample(base, 200), "logs", `{"term":{"a":"b"}}`),
	}
	for name, k := range variants {
		if k == reference {
			t.Errorf("changing %s did not change the cache key", name)
		}
	}

	if key(base, "logs", `{"term":{"a":"b"}}`) != reference {
		t.Error("identical inputs produced different keys")
	}
}

func withHost(c Config, h string) Config { c.Host = h; return c }
func withPort(c Config, p int) Config    { c.Port = p; return c }
func withUser(c Config, u string) Config { c.Username = u; return c }
func withSample(c Config, n int) Config  { c.SampleSize = n; return c }
