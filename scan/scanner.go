package scan

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/esbridge/esbridge-go/internal/session"
	"github.com/esbridge/esbridge-go/schema"
	"github.com/esbridge/esbridge-go/transport"
)

// Cursor is the slice of the transport client a scanner drives.
// *transport.Client implements it.
type Cursor interface {
	OpenScroll(ctx context.Context, index, ttl string, size int, body map[string]any) (*transport.Page, error)
	ContinueScroll(ctx context.Context, scrollID, ttl string) (*transport.Page, error)
	ClearScroll(ctx context.Context, scrollID string) error
}

// Scanner pulls decoded rows for a compiled request. It is not safe for
// concurrent use.
//
//	sc := scan.New(client, req, sch, logger)
//	defer sc.Close(ctx)
//	for sc.Next(ctx) {
//		row := sc.Row()
//		...
//	}
//	if err := sc.Err(); err != nil { ... }
type Scanner struct {
	cur     Cursor
	req     *Request
	sch     *schema.Schema
	logger  *slog.Logger
	session string

	scrollID string
	page     []transport.Hit
	pos      int

	skipped  int64
	returned int64

	row      []any
	err      error
	opened   bool
	done     bool
	released bool
}

// New creates a scanner for a compiled request.
func New(cur Cursor, req *Request, sch *schema.Schema, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{
		cur:     cur,
		req:     req,
		sch:     sch,
		logger:  logger,
		session: uuid.NewString(),
	}
}

// Next advances to the next row. It returns false when the scan is
// exhausted, the limit is reached, or an error occurred; check Err
// afterwards. Offset rows are fetched and discarded client-side, since the
// cursor protocol has no server-side skip.
func (s *Scanner) Next(ctx context.Context) bool {
	if s.err != nil || s.done {
		return false
	}
	if s.req.Limit >= 0 && s.returned >= s.req.Limit {
		s.finish(ctx)
		return false
	}

	for {
		if s.pos >= len(s.page) {
			if !s.fetch(ctx) {
				return false
			}
		}

		hit := s.page[s.pos]
		s.pos++

		if s.skipped < s.req.Offset {
			s.skipped++
			continue
		}

		row, err := decodeRow(s.sch, s.req.Projection, hit)
		if err != nil {
			s.err = err
			s.finish(ctx)
			return false
		}
		s.row = row
		s.returned++
		return true
	}
}

// fetch loads the next page, opening the cursor on first use. It returns
// false when no more hits exist or the fetch failed.
func (s *Scanner) fetch(ctx context.Context) bool {
	ctx = session.WithID(ctx, s.session)
	var (
		page *transport.Page
		err  error
	)
	if !s.opened {
		s.logger.Debug("opening scan cursor",
			"session", s.session, "index", s.req.Index, "page_size", s.req.PageSize)
		page, err = s.cur.OpenScroll(ctx, s.req.Index, s.req.ScrollTTL, s.req.PageSize, s.req.Body)
		s.opened = true
	} else {
		page, err = s.cur.ContinueScroll(ctx, s.scrollID, s.req.ScrollTTL)
	}
	if err != nil {
		s.err = err
		s.finish(ctx)
		return false
	}

	s.scrollID = page.ScrollID
	s.page = page.Hits
	s.pos = 0
	if len(page.Hits) == 0 {
		s.finish(ctx)
		return false
	}
	return true
}

// Row returns the current row: the document identifier, the projected
// field columns, then the unmapped catch-all, as laid out by the request
// projection. Valid until the next call to Next.
func (s *Scanner) Row() []any { return s.row }

// Err returns the first error encountered by the scan.
func (s *Scanner) Err() error { return s.err }

// Close releases the cursor. Safe to call multiple times and after
// exhaustion; the underlying cursor is released exactly once.
func (s *Scanner) Close(ctx context.Context) {
	s.finish(ctx)
}

// finish marks the scan done and releases the cursor once. Release
// failures are logged and swallowed: the store expires cursors on its own
// and the rows already returned stay valid.
func (s *Scanner) finish(ctx context.Context) {
	s.done = true
	if s.released || !s.opened || s.scrollID == "" {
		return
	}
	s.released = true
	if err := s.cur.ClearScroll(session.WithID(ctx, s.session), s.scrollID); err != nil {
		s.logger.Debug("failed to release scan cursor",
			"session", s.session, "index", s.req.Index, "error", err)
	}
	s.logger.Debug("scan finished",
		"session", s.session, "index", s.req.Index, "rows", s.returned)
}
