package collection

import (
	"sync"

	"github.com/mmcdole/kinotv/internal/paging"
	"github.com/samber/mo"
)

// Handle is one consumer's view of a shared pager
type Handle[T any] struct {
	pager   *paging.Pager[T]
	sub     *paging.Subscription[T]
	release func()
	once    sync.Once
}

func newHandle[T any](p *paging.Pager[T], release func()) *Handle[T] {
	return &Handle[T]{
		pager:   p,
		sub:     p.Subscribe(),
		release: release,
	}
}

// Updates delivers snapshots until the handle or the pager closes
func (h *Handle[T]) Updates() <-chan paging.Snapshot[T] { return h.sub.Updates() }

// Snapshot returns the latest state without waiting
func (h *Handle[T]) Snapshot() paging.Snapshot[T] { return h.pager.Snapshot() }

func (h *Handle[T]) Append()                       { h.pager.Append() }
func (h *Handle[T]) Prepend()                      { h.pager.Prepend() }
func (h *Handle[T]) Retry()                        { h.pager.Retry() }
func (h *Handle[T]) Refresh(anchor mo.Option[int]) { h.pager.Refresh(anchor) }

// Close detaches this consumer. Safe to call more than once.
func (h *Handle[T]) Close() {
	h.once.Do(func() {
		h.sub.Close()
		h.release()
	})
}
