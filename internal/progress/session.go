package progress

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/mmcdole/kinotv/internal/domain"
)

// State of a playback session
type State int32

const (
	Idle State = iota
	Attached
	Sampling
	Paused
	Completed
	Detached
)

func (s State) String() string {
	switch s {
	case Attached:
		return "attached"
	case Sampling:
		return "sampling"
	case Paused:
		return "paused"
	case Completed:
		return "completed"
	case Detached:
		return "detached"
	default:
		return "idle"
	}
}

// Session tracks one playback of one item. All methods are non-blocking
// and safe to call from any goroutine.
type Session struct {
	id      string
	tracker *Tracker
	player  domain.Player
	item    domain.Playable
	logger  *slog.Logger

	paused     atomic.Bool   // latest Play or Pause wins
	wake       chan struct{} // signals a change of paused, coalesced
	ended      chan struct{}
	endOnce    sync.Once
	detach     chan struct{}
	detachOnce sync.Once
	done       chan struct{}
	state      atomic.Int32
}

func newSession(t *Tracker, player domain.Player, item domain.Playable) *Session {
	id := uuid.NewString()
	s := &Session{
		id:      id,
		tracker: t,
		player:  player,
		item:    item,
		logger:  t.logger.With("session", id, "content", item.ContentID),
		wake:    make(chan struct{}, 1),
		ended:   make(chan struct{}),
		detach:  make(chan struct{}),
		done:    make(chan struct{}),
	}
	s.state.Store(int32(Idle))
	return s
}

// ID identifies the session in logs
func (s *Session) ID() string { return s.id }

// State returns the current state
func (s *Session) State() State { return State(s.state.Load()) }

// Done is closed once the session has finished, including any final save
func (s *Session) Done() <-chan struct{} { return s.done }

// Play resumes sampling after a pause
func (s *Session) Play() { s.setPaused(false) }

// Pause suspends sampling and saves the current position once
func (s *Session) Pause() { s.setPaused(true) }

// End records the item as completed and stops sampling
func (s *Session) End() {
	s.endOnce.Do(func() { close(s.ended) })
}

// Detach stops sampling without waiting. A final save happens in the
// background, bounded by the configured timeout.
func (s *Session) Detach() {
	s.detachOnce.Do(func() { close(s.detach) })
}

func (s *Session) setPaused(paused bool) {
	s.paused.Store(paused)
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Session) setState(st State) {
	s.state.Store(int32(st))
}

func (s *Session) detached() bool {
	select {
	case <-s.detach:
		return true
	default:
		return false
	}
}

func (s *Session) run(ctx context.Context) {
	defer close(s.done)

	s.setState(Attached)
	s.restore(ctx)

	cfg := s.tracker.cfg
	tk := s.tracker.newTicker(cfg.Interval)
	defer tk.Stop()
	ticks := tk.C()
	s.setState(Sampling)
	s.logger.Debug("progress sampling started", "interval", cfg.Interval)

	for {
		if s.detached() {
			s.finish(ctx, tk)
			return
		}
		select {
		case <-s.detach:
			s.finish(ctx, tk)
			return
		case <-ctx.Done():
			s.finish(ctx, tk)
			return
		case <-ticks:
			if s.detached() {
				continue
			}
			s.save(ctx, false)
		case <-s.wake:
			switch paused := s.paused.Load(); {
			case !paused && s.State() == Paused:
				tk.Reset(cfg.Interval)
				ticks = tk.C()
				s.setState(Sampling)
			case paused && s.State() == Sampling:
				tk.Stop()
				ticks = nil
				s.setState(Paused)
				s.save(ctx, false)
			}
		case <-s.ended:
			tk.Stop()
			s.complete(ctx)
			s.setState(Completed)
			return
		}
	}
}

// restore seeks to a prior unfinished position worth resuming
func (s *Session) restore(ctx context.Context) {
	rec, err := s.tracker.store.Get(ctx, s.item.UserID, s.item.ContentID)
	if err != nil {
		s.logger.Warn("failed to restore progress", "error", err)
		return
	}
	prior, ok := rec.Get()
	if !ok {
		return
	}
	if prior.Completed || prior.Position() <= s.tracker.cfg.MinWatch {
		s.logger.Debug("not resuming", "position_ms", prior.PositionMs, "completed", prior.Completed)
		return
	}
	s.logger.Info("resuming playback", "position_ms", prior.PositionMs)
	s.player.Seek(prior.Position())
}

// finish runs after detach: one bounded save if enough was watched
func (s *Session) finish(ctx context.Context, tk ticker) {
	tk.Stop()
	s.setState(Detached)

	pos := s.player.Position()
	if pos <= s.tracker.cfg.MinWatch {
		return
	}
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.tracker.cfg.SaveTimeout)
	defer cancel()
	s.save(saveCtx, false)
}

func (s *Session) complete(ctx context.Context) {
	s.save(ctx, true)
	if err := s.tracker.store.MarkCompleted(ctx, s.item.UserID, s.item.ContentID); err != nil {
		s.logger.Warn("failed to mark completed", "error", err)
	}
}

func (s *Session) save(ctx context.Context, ended bool) {
	pos := uint64(max(s.player.Position(), 0).Milliseconds())
	dur := uint64(max(s.player.Duration(), 0).Milliseconds())
	if dur == 0 && !ended {
		s.logger.Debug("duration unknown, skipping sample")
		return
	}

	rec := domain.WatchProgress{
		UserID:      s.item.UserID,
		ContentID:   s.item.ContentID,
		ContentType: s.item.ContentType,
		PositionMs:  pos,
		DurationMs:  dur,
		Completed:   ended || CompletedAt(pos, dur),
		UpdatedAt:   s.tracker.now(),
	}
	if err := s.tracker.store.Save(ctx, rec); err != nil {
		s.logger.Warn("failed to save progress", "error", err, "position_ms", pos)
		return
	}
	s.logger.Debug("progress saved", "position_ms", pos, "duration_ms", dur, "completed", rec.Completed)
}
