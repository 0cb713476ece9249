package paging

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/mmcdole/kinotv/internal/outcome"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

// Status of one load direction
type Status int

const (
	NotLoading Status = iota
	Loading
	Error
)

func (s Status) String() string {
	switch s {
	case Loading:
		return "Loading"
	case Error:
		return "Error"
	default:
		return "NotLoading"
	}
}

// Direction of a page request
type Direction int

const (
	Refresh Direction = iota
	Append
	Prepend
)

func (d Direction) String() string {
	switch d {
	case Append:
		return "append"
	case Prepend:
		return "prepend"
	default:
		return "refresh"
	}
}

// LoadState is the state of one direction. Failure is present only when
// Status is Error.
type LoadState struct {
	Status     Status
	Failure    mo.Option[outcome.Failure]
	EndReached bool
}

// States holds the load state of every direction
type States struct {
	Refresh LoadState
	Append  LoadState
	Prepend LoadState
}

func (s *States) get(d Direction) *LoadState {
	switch d {
	case Append:
		return &s.Append
	case Prepend:
		return &s.Prepend
	default:
		return &s.Refresh
	}
}

// Snapshot is an immutable view of a pager. Items is the flattened content
// of Pages.
type Snapshot[T any] struct {
	Pages   []Page[T]
	Items   []T
	States  States
	Version uint64
}

type request struct {
	dir  Direction
	page int
}

type cmdKind int

const (
	cmdLoad cmdKind = iota
	cmdAppend
	cmdPrepend
	cmdRetry
	cmdRefresh
	cmdSubscribe
	cmdUnsubscribe
)

type command[T any] struct {
	kind   cmdKind
	req    request
	anchor mo.Option[int]
	sub    *Subscription[T]
}

// Pager owns the loaded pages of one source. A single goroutine applies
// commands in the order they were issued; readers see immutable snapshots.
type Pager[T any] struct {
	source *Source[T]
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	cmds   chan command[T]
	done   chan struct{}

	current atomic.Pointer[Snapshot[T]]

	// owned by the run goroutine
	pages   []Page[T]
	states  States
	failed  []request // outstanding failures, oldest first, one per direction
	subs    map[*Subscription[T]]struct{}
	version uint64
}

// NewPager starts a pager and issues the initial load of page 1.
func NewPager[T any](source *Source[T], logger *slog.Logger) *Pager[T] {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pager[T]{
		source: source,
		logger: logger.With("source", source.Name()),
		ctx:    ctx,
		cancel: cancel,
		cmds:   make(chan command[T], 64),
		done:   make(chan struct{}),
		subs:   make(map[*Subscription[T]]struct{}),
	}
	p.current.Store(&Snapshot[T]{})
	p.send(command[T]{kind: cmdLoad, req: request{dir: Refresh, page: 1}})
	go p.run()
	return p
}

// Snapshot returns the latest published state
func (p *Pager[T]) Snapshot() Snapshot[T] {
	return *p.current.Load()
}

// Append loads the page after the last loaded one
func (p *Pager[T]) Append() { p.send(command[T]{kind: cmdAppend}) }

// Prepend loads the page before the first loaded one
func (p *Pager[T]) Prepend() { p.send(command[T]{kind: cmdPrepend}) }

// Retry re-issues the last failed request unchanged
func (p *Pager[T]) Retry() { p.send(command[T]{kind: cmdRetry}) }

// Refresh drops the loaded pages and reloads around anchor, or from page 1
// when anchor is absent.
func (p *Pager[T]) Refresh(anchor mo.Option[int]) {
	p.send(command[T]{kind: cmdRefresh, anchor: anchor})
}

// Subscribe returns a stream of snapshots. The stream conflates: a slow
// reader only sees the latest snapshot. It is closed when the pager closes.
func (p *Pager[T]) Subscribe() *Subscription[T] {
	sub := &Subscription[T]{
		pager: p,
		ch:    make(chan Snapshot[T], 1),
	}
	if !p.send(command[T]{kind: cmdSubscribe, sub: sub}) {
		close(sub.ch)
	}
	return sub
}

// Close stops the pager. An in-flight request is cancelled and its result,
// if it still arrives, is discarded.
func (p *Pager[T]) Close() {
	p.cancel()
}

// Done is closed once the pager goroutine has exited
func (p *Pager[T]) Done() <-chan struct{} {
	return p.done
}

func (p *Pager[T]) send(cmd command[T]) bool {
	select {
	case <-p.ctx.Done():
		return false
	default:
	}
	select {
	case p.cmds <- cmd:
		return true
	case <-p.ctx.Done():
		return false
	}
}

func (p *Pager[T]) run() {
	defer func() {
		for sub := range p.subs {
			close(sub.ch)
		}
		p.drain()
		close(p.done)
	}()

	for {
		select {
		case <-p.ctx.Done():
			return
		case cmd := <-p.cmds:
			if !p.handle(cmd) {
				return
			}
		}
	}
}

// drain closes subscriptions that were queued but never registered
func (p *Pager[T]) drain() {
	for {
		select {
		case cmd := <-p.cmds:
			if cmd.kind == cmdSubscribe {
				close(cmd.sub.ch)
			}
		default:
			return
		}
	}
}

// handle applies one command. It returns false once the pager is closed.
func (p *Pager[T]) handle(cmd command[T]) bool {
	switch cmd.kind {
	case cmdSubscribe:
		p.subs[cmd.sub] = struct{}{}
		offer(cmd.sub.ch, p.Snapshot())
		return true
	case cmdUnsubscribe:
		if _, ok := p.subs[cmd.sub]; ok {
			delete(p.subs, cmd.sub)
			close(cmd.sub.ch)
		}
		return true
	case cmdLoad:
		return p.load(cmd.req)
	case cmdRetry:
		if len(p.failed) == 0 {
			return true
		}
		return p.load(p.failed[len(p.failed)-1])
	case cmdRefresh:
		page := RefreshKey(p.pages, cmd.anchor).OrElse(1)
		return p.load(request{dir: Refresh, page: page})
	case cmdAppend:
		return p.extend(Append)
	case cmdPrepend:
		return p.extend(Prepend)
	}
	return true
}

func (p *Pager[T]) extend(dir Direction) bool {
	if len(p.pages) == 0 {
		return true
	}
	var key mo.Option[int]
	if dir == Append {
		key = p.pages[len(p.pages)-1].Next
	} else {
		key = p.pages[0].Prev
	}
	page, ok := key.Get()
	if !ok {
		state := p.states.get(dir)
		if state.Status != NotLoading || !state.EndReached {
			*state = LoadState{Status: NotLoading, EndReached: true}
			p.publish()
		}
		return true
	}
	return p.load(request{dir: dir, page: page})
}

func (p *Pager[T]) load(req request) bool {
	state := p.states.get(req.dir)
	*state = LoadState{Status: Loading}
	p.publish()

	result := p.source.Load(p.ctx, req.page)
	if p.ctx.Err() != nil {
		p.logger.Debug("discarding result after close", "direction", req.dir, "page", req.page)
		return false
	}

	page, ok := result.Value()
	if !ok {
		f, _ := result.Failure()
		p.logger.Warn("page load failed",
			"direction", req.dir, "page", req.page, "kind", f.Kind, "error", f.Message)
		p.setFailed(req)
		*state = LoadState{Status: Error, Failure: mo.Some(f)}
		p.publish()
		return true
	}

	p.clearFailed(req.dir)
	switch req.dir {
	case Refresh:
		p.pages = []Page[T]{page}
		p.states.Append = LoadState{}
		p.states.Prepend = LoadState{}
	case Append:
		p.pages = append(p.pages, page)
	case Prepend:
		p.pages = append([]Page[T]{page}, p.pages...)
	}
	*state = LoadState{Status: NotLoading}
	p.states.Append.EndReached = p.pages[len(p.pages)-1].Next.IsAbsent()
	p.states.Prepend.EndReached = p.pages[0].Prev.IsAbsent()
	p.publish()
	return true
}

// setFailed records req as the latest failure, replacing any earlier
// failure in the same direction
func (p *Pager[T]) setFailed(req request) {
	p.failed = append(slices.DeleteFunc(p.failed, func(r request) bool {
		return r.dir == req.dir
	}), req)
}

// clearFailed forgets the failure in dir. A successful refresh replaces
// every page, so it forgets all of them.
func (p *Pager[T]) clearFailed(dir Direction) {
	if dir == Refresh {
		p.failed = nil
		return
	}
	p.failed = slices.DeleteFunc(p.failed, func(r request) bool {
		return r.dir == dir
	})
}

func (p *Pager[T]) publish() {
	p.version++
	pages := slices.Clone(p.pages)
	snap := &Snapshot[T]{
		Pages:   pages,
		Items:   lo.FlatMap(pages, func(pg Page[T], _ int) []T { return pg.Items }),
		States:  p.states,
		Version: p.version,
	}
	for sub := range p.subs {
		offer(sub.ch, *snap)
	}
	p.current.Store(snap)
}

// offer replaces whatever is buffered in ch with s. Only the run goroutine
// sends on subscription channels.
func offer[T any](ch chan Snapshot[T], s Snapshot[T]) {
	select {
	case ch <- s:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- s:
	default:
	}
}

// Subscription is one reader of a pager's snapshots
type Subscription[T any] struct {
	pager *Pager[T]
	ch    chan Snapshot[T]
	once  sync.Once
}

// Updates delivers snapshots, latest wins
func (s *Subscription[T]) Updates() <-chan Snapshot[T] {
	return s.ch
}

// Close stops delivery. The pager keeps running.
func (s *Subscription[T]) Close() {
	s.once.Do(func() {
		s.pager.send(command[T]{kind: cmdUnsubscribe, sub: s})
	})
}
