package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Hit is a single document returned by a search page.
type Hit struct {
	ID     string         `json:"_id"`
	Source map[string]any `json:"_source"`
}

// Page is one batch of search results plus the cursor to the next one.
type Page struct {
	ScrollID string
	Hits     []Hit
}

type searchResponse struct {
	ScrollID string `json:"_scroll_id"`
	Hits     struct {
		Hits []Hit `json:"hits"`
	} `json:"hits"`
}

// OpenScroll starts a scroll cursor over index and returns the first page.
// ttl is the store-side cursor keepalive (e.g. "5m").
func (c *Client) OpenScroll(ctx context.Context, index, ttl string, size int, body map[string]any) (*Page, error) {
	path := fmt.Sprintf("/%s/_search?scroll=%s&size=%d", escapePath(index), ttl, size)
	var out searchResponse
	if err := c.PostJSON(ctx, path, body, &out); err != nil {
		return nil, err
	}
	return &Page{ScrollID: out.ScrollID, Hits: out.Hits.Hits}, nil
}

// ContinueScroll fetches the next page of an open cursor.
func (c *Client) ContinueScroll(ctx context.Context, scrollID, ttl string) (*Page, error) {
	body := map[string]any{
		"scroll":    ttl,
		"scroll_id": scrollID,
	}
	var out searchResponse
	if err := c.PostJSON(ctx, "/_search/scroll", body, &out); err != nil {
		return nil, err
	}
	return &Page{ScrollID: out.ScrollID, Hits: out.Hits.Hits}, nil
}

// ClearScroll releases a cursor. It uses a single attempt: the cursor
// expires on its own after the keepalive, so a failed release is not
// worth retrying.
func (c *Client) ClearScroll(ctx context.Context, scrollID string) error {
	body, err := json.Marshal(map[string]any{"scroll_id": scrollID})
	if err != nil {
		return fmt.Errorf("encode clear scroll request: %w", err)
	}
	_, err = c.Do(ctx, http.MethodDelete, "/_search/scroll", body)
	return err
}

// GetMapping fetches the raw mapping document for an index name or pattern.
func (c *Client) GetMapping(ctx context.Context, index string) ([]byte, error) {
	resp, err := c.DoWithRetry(ctx, http.MethodGet, "/"+escapePath(index)+"/_mapping", nil)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}
