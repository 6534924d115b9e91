package scan

import (
	"fmt"

	"github.com/esbridge/esbridge-go/filter"
	"github.com/esbridge/esbridge-go/schema"
)

// NoLimit disables the row limit of a scan.
const NoLimit int64 = -1

// Options are the paging knobs of a scan.
type Options struct {
	// PageSize is the cursor page size. OPTIONAL, default 1000.
	PageSize int

	// MaxSizedPage caps the single-page fast path: when limit+offset fits
	// under it, the scan requests exactly that many rows in one page
	// instead of paging at PageSize. OPTIONAL, default 5000.
	MaxSizedPage int

	// ScrollTTL is the store-side cursor keepalive. OPTIONAL, default "5m".
	ScrollTTL string
}

func (o *Options) applyDefaults() {
	if o.PageSize == 0 {
		o.PageSize = 1000
	}
	if o.MaxSizedPage == 0 {
		o.MaxSizedPage = 5000
	}
	if o.ScrollTTL == "" {
		o.ScrollTTL = "5m"
	}
}

// Request is a compiled scan: the search body, paging plan and output layout.
type Request struct {
	Index      string
	Body       map[string]any
	PageSize   int
	ScrollTTL  string
	Limit      int64
	Offset     int64
	Projection []string
}

// Compile builds the scan request for a schema.
//
// The translated predicate and the native base query are combined
// conjunctively. Source fetching is restricted to the projected fields
// unless the unmapped catch-all (or the opaque source fallback column) is
// projected, which requires the full document. A nil projection selects
// every output column.
func Compile(sch *schema.Schema, pred filter.Predicate, baseQuery map[string]any, projection []string, limit, offset int64, opts Options) (*Request, error) {
	opts.applyDefaults()
	if offset < 0 {
		offset = 0
	}

	if projection == nil {
		projection = sch.OutputColumns()
	}
	fields, needFullSource, err := projectedFields(sch, projection)
	if err != nil {
		return nil, err
	}

	clause, err := filter.NewTranslator(sch.FilterMetadata()).Translate(pred)
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"query": mergeQueries(baseQuery, clause),
	}
	if !needFullSource {
		if len(fields) == 0 {
			body["_source"] = false
		} else {
			body["_source"] = fields
		}
	}

	pageSize := opts.PageSize
	if limit >= 0 {
		if total := limit + offset; total <= int64(opts.MaxSizedPage) {
			pageSize = int(total)
		}
	}

	return &Request{
		Index:      sch.Index,
		Body:       body,
		PageSize:   pageSize,
		ScrollTTL:  opts.ScrollTTL,
		Limit:      limit,
		Offset:     offset,
		Projection: projection,
	}, nil
}

// projectedFields resolves the projection to source field names and reports
// whether the whole document must be fetched.
func projectedFields(sch *schema.Schema, projection []string) ([]string, bool, error) {
	var fields []string
	needFull := false
	for _, name := range projection {
		switch name {
		case schema.IDColumn:
			// The identifier rides along outside _source.
		case schema.UnmappedColumn:
			needFull = true
		case schema.SourceColumn:
			if _, ok := sch.Column(name); ok {
				needFull = true
				continue
			}
			return nil, false, fmt.Errorf("unknown column %q in projection", name)
		default:
			if _, ok := sch.Column(name); !ok {
				return nil, false, fmt.Errorf("unknown column %q in projection", name)
			}
			fields = append(fields, name)
		}
	}
	return fields, needFull, nil
}

func mergeQueries(base, clause map[string]any) map[string]any {
	switch {
	case base != nil && clause != nil:
		return map[string]any{
			"bool": map[string]any{"must": []any{base, clause}},
		}
	case base != nil:
		return base
	case clause != nil:
		return clause
	default:
		return map[string]any{"match_all": map[string]any{}}
	}
}
