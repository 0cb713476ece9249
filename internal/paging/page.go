// Package paging turns "fetch page N of size S" calls into a lazily growing
// sequence that can be extended forwards and backwards.
package paging

import (
	"fmt"

	"github.com/samber/mo"
)

// DefaultPageSize is used when a source is built with a non-positive size
const DefaultPageSize = 30

// Cursor addresses one page of a sequence. Page is 1-based.
type Cursor struct {
	Page int
	Size int
}

// Validate rejects cursors outside the addressable range
func (c Cursor) Validate() error {
	if c.Page < 1 {
		return fmt.Errorf("page index must be >= 1, got %d", c.Page)
	}
	if c.Size <= 0 {
		return fmt.Errorf("page size must be > 0, got %d", c.Size)
	}
	return nil
}

// Page is one loaded page and the indices of its neighbours.
// Prev is absent only on page 1. Next is absent only when the page came
// back empty; a short page still has a Next.
type Page[T any] struct {
	Index int
	Items []T
	Prev  mo.Option[int]
	Next  mo.Option[int]
}

// RefreshKey picks the page to reload from when resuming near anchor, an
// item index into the flattened pages. It returns the absent option when
// there is nothing to anchor on.
func RefreshKey[T any](pages []Page[T], anchor mo.Option[int]) mo.Option[int] {
	pos, ok := anchor.Get()
	if !ok || len(pages) == 0 {
		return mo.None[int]()
	}

	closest := pages[len(pages)-1]
	if pos < 0 {
		closest = pages[0]
	} else {
		offset := 0
		for _, p := range pages {
			if pos < offset+len(p.Items) {
				closest = p
				break
			}
			offset += len(p.Items)
		}
	}

	if prev, ok := closest.Prev.Get(); ok {
		return mo.Some(max(1, prev+1))
	}
	if next, ok := closest.Next.Get(); ok {
		return mo.Some(next - 1)
	}
	return mo.None[int]()
}
