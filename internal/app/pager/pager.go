// Package pager walks cursor-paginated explorer resources.
//
// Every explorer list endpoint returns {items: [...], next_page_params: {...}}.
// Paginate follows next_page_params until the server stops returning it, a
// page comes back empty, a caller predicate asks to stop, the page budget is
// spent or the context ends.
package pager

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"

	"tokenstats/internal/pkg/metrics"
)

// DefaultMaxPages bounds a walk when Options.MaxPages is not set.
const DefaultMaxPages = 200

// Cursor is the opaque next_page_params bundle, flattened to query values.
type Cursor map[string]string

// CursorFromParams converts a decoded next_page_params object into a Cursor.
// Null values are dropped. A nil or empty object yields a nil Cursor.
func CursorFromParams(params map[string]interface{}) Cursor {
	if len(params) == 0 {
		return nil
	}
	c := make(Cursor, len(params))
	for k, v := range params {
		switch val := v.(type) {
		case nil:
			continue
		case string:
			c[k] = val
		case fmt.Stringer: // json.Number
			c[k] = val.String()
		case float64:
			c[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case bool:
			c[k] = strconv.FormatBool(val)
		default:
			c[k] = fmt.Sprint(val)
		}
	}
	if len(c) == 0 {
		return nil
	}
	return c
}

// Empty reports whether there is no further page.
func (c Cursor) Empty() bool {
	return len(c) == 0
}

// Apply writes the cursor into q, in key order for stable URLs.
func (c Cursor) Apply(q url.Values) {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		q.Set(k, c[k])
	}
}

// Page is one decoded page and the cursor for the next one.
type Page[T any] struct {
	Items []T
	Next  Cursor
	// Fetched is how many items the server sent before any were dropped as
	// malformed. A page is empty only when both Fetched and Items are.
	Fetched int
}

func (p Page[T]) empty() bool {
	return len(p.Items) == 0 && p.Fetched == 0
}

// PageFunc fetches the page addressed by cursor. A nil cursor means the first page.
type PageFunc[T any] func(ctx context.Context, cursor Cursor) (Page[T], error)

// Options tunes a walk.
type Options[T any] struct {
	// Resource labels metrics and errors.
	Resource string
	// MaxPages caps the number of fetches; DefaultMaxPages when <= 0.
	MaxPages int
	// Keep filters items; nil keeps everything.
	Keep func(item T) bool
	// StopAfter is called with each page's unfiltered items after they are
	// accumulated; returning true ends the walk.
	StopAfter func(items []T) bool
}

// Paginate walks fetch to completion under opts. On a fetch error or context
// expiry it returns the items gathered so far together with the error, so the
// caller decides whether partial data is usable.
func Paginate[T any](ctx context.Context, fetch PageFunc[T], opts Options[T]) ([]T, error) {
	maxPages := opts.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	resource := opts.Resource
	if resource == "" {
		resource = "unnamed"
	}

	var out []T
	var cursor Cursor
	for page := 0; page < maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return out, fmt.Errorf("pager %s stopped after %d pages: %w", resource, page, err)
		}

		p, err := fetch(ctx, cursor)
		if err != nil {
			return out, fmt.Errorf("pager %s page %d: %w", resource, page+1, err)
		}
		metrics.PagerPages.WithLabelValues(resource).Inc()

		if p.empty() {
			break
		}
		for _, item := range p.Items {
			if opts.Keep == nil || opts.Keep(item) {
				out = append(out, item)
			}
		}
		if opts.StopAfter != nil && opts.StopAfter(p.Items) {
			break
		}
		if p.Next.Empty() {
			break
		}
		cursor = p.Next
	}
	return out, nil
}
