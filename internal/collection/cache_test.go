package collection

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/mmcdole/kinotv/internal/domain"
	"github.com/mmcdole/kinotv/internal/outcome"
	"github.com/mmcdole/kinotv/internal/paging"
	"github.com/samber/mo"
)

type token struct{}

func (token) CurrentToken(context.Context) mo.Option[string] { return mo.Some("t") }

// counter records page-1 fetches per key
type counter struct {
	mu    sync.Mutex
	calls map[string]int
}

func (c *counter) factory(key string) *paging.Pager[string] {
	fetch := func(_ context.Context, _ string, cur paging.Cursor) outcome.Outcome[domain.Listing[string]] {
		if cur.Page == 1 {
			c.mu.Lock()
			c.calls[key]++
			c.mu.Unlock()
		}
		return outcome.Success(domain.Listing[string]{Items: []string{key + "-a", key + "-b"}})
	}
	return paging.NewPager(paging.NewSource(key, fetch, token{}, 2, nil), nil)
}

func (c *counter) get(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[key]
}

type fakeTimer struct {
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (c *fakeClock) afterFunc(_ time.Duration, f func()) timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{fn: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) last() *fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.timers) == 0 {
		return nil
	}
	return c.timers[len(c.timers)-1]
}

func newTestCache(t *testing.T) (*Cache[string, string], *counter, *fakeClock) {
	t.Helper()
	cnt := &counter{calls: make(map[string]int)}
	clock := &fakeClock{}
	c := NewCache(cnt.factory, time.Minute, nil)
	c.afterFunc = clock.afterFunc
	t.Cleanup(c.Close)
	return c, cnt, clock
}

func waitLoaded(t *testing.T, h *Handle[string]) paging.Snapshot[string] {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		s := h.Snapshot()
		if len(s.Pages) > 0 && s.States.Refresh.Status == paging.NotLoading {
			return s
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("timed out waiting for first page")
	return paging.Snapshot[string]{}
}

func TestConcurrentSubscribersShareOneFetch(t *testing.T) {
	c, cnt, _ := newTestCache(t)

	var wg sync.WaitGroup
	handles := make([]*Handle[string], 2)
	for i := range handles {
		wg.Add(1)
		go func() {
			defer wg.Done()
			handles[i] = c.Subscribe("action")
		}()
	}
	wg.Wait()

	for _, h := range handles {
		waitLoaded(t, h)
	}
	if got := cnt.get("action"); got != 1 {
		t.Errorf("page 1 fetched %d times, want 1", got)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}

	other := c.Subscribe("comedy")
	waitLoaded(t, other)
	if c.Len() != 2 || cnt.get("comedy") != 1 {
		t.Errorf("distinct key not given its own pager: len=%d calls=%d", c.Len(), cnt.get("comedy"))
	}
}

func TestResubscribeWithinGraceReuses(t *testing.T) {
	c, cnt, clock := newTestCache(t)

	h := c.Subscribe("action")
	waitLoaded(t, h)
	h.Close()
	h.Close() // second close is a no-op

	pending := clock.last()
	if pending == nil {
		t.Fatal("no teardown scheduled after last close")
	}
	if c.Len() != 1 {
		t.Fatal("entry removed before grace window elapsed")
	}

	h2 := c.Subscribe("action")
	if !pending.stopped {
		t.Error("pending teardown not cancelled on resubscribe")
	}
	// a teardown that already fired and lost the race must not remove a
	// live entry
	pending.fn()
	waitLoaded(t, h2)

	if got := cnt.get("action"); got != 1 {
		t.Errorf("page 1 fetched %d times, want 1", got)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
	h2.Close()
}

func TestResubscribeAfterGraceRefetches(t *testing.T) {
	c, cnt, clock := newTestCache(t)

	h := c.Subscribe("action")
	waitLoaded(t, h)
	h.Close()
	clock.last().fn()

	if c.Len() != 0 {
		t.Fatalf("Len() = %d after grace window, want 0", c.Len())
	}
	if _, ok := c.Snapshot("action"); ok {
		t.Error("Snapshot() found a torn down entry")
	}

	h2 := c.Subscribe("action")
	waitLoaded(t, h2)
	if got := cnt.get("action"); got != 2 {
		t.Errorf("page 1 fetched %d times, want 2", got)
	}
}

func TestStaleTeardownIgnored(t *testing.T) {
	c, _, clock := newTestCache(t)

	h := c.Subscribe("action")
	h.Close()
	first := clock.last()

	h = c.Subscribe("action")
	h.Close()
	second := clock.last()
	if first == second {
		t.Fatal("expected a fresh teardown per idle period")
	}

	first.fn()
	if c.Len() != 1 {
		t.Fatal("stale teardown removed the entry")
	}
	second.fn()
	if c.Len() != 0 {
		t.Fatal("current teardown did not remove the entry")
	}
}

func TestGraceWindowWithRealTimer(t *testing.T) {
	cnt := &counter{calls: make(map[string]int)}
	c := NewCache(cnt.factory, 10*time.Millisecond, nil)
	defer c.Close()

	h := c.Subscribe("action")
	waitLoaded(t, h)
	h.Close()

	deadline := time.Now().Add(2 * time.Second)
	for c.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("entry not torn down after grace window")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestSnapshotWithoutSubscribing(t *testing.T) {
	c, _, _ := newTestCache(t)

	if _, ok := c.Snapshot("action"); ok {
		t.Fatal("Snapshot() of unknown key reported ok")
	}

	h := c.Subscribe("action")
	defer h.Close()
	waitLoaded(t, h)

	s, ok := c.Snapshot("action")
	if !ok {
		t.Fatal("Snapshot() missing for live key")
	}
	if diff := cmp.Diff([]string{"action-a", "action-b"}, s.Items); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
}

func TestCloseEndsHandles(t *testing.T) {
	cnt := &counter{calls: make(map[string]int)}
	c := NewCache(cnt.factory, time.Minute, nil)

	h := c.Subscribe("action")
	waitLoaded(t, h)
	c.Close()

	timeout := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-h.Updates():
			if !ok {
				if c.Len() != 0 {
					t.Errorf("Len() = %d after Close, want 0", c.Len())
				}
				h.Close()
				return
			}
		case <-timeout:
			t.Fatal("handle updates not closed")
		}
	}
}

func TestFilter(t *testing.T) {
	titles := []string{"The Matrix", "Inception", "Matrix Reloaded", "Mad Max"}
	id := func(s string) string { return s }

	got := Filter(titles, "matrix", id)
	slices.Sort(got)
	if diff := cmp.Diff([]string{"Matrix Reloaded", "The Matrix"}, got); diff != "" {
		t.Errorf("Filter() mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff(titles, Filter(titles, "  ", id)); diff != "" {
		t.Errorf("empty query changed items (-want +got):\n%s", diff)
	}
	if got := Filter(titles, "zzz", id); len(got) != 0 {
		t.Errorf("Filter() = %v, want none", got)
	}
}
