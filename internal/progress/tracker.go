// Package progress samples a player while content plays and persists the
// position so playback can resume later. Persistence is best effort: no
// error here ever reaches the player.
package progress

import (
	"context"
	"log/slog"
	"time"

	"github.com/mmcdole/kinotv/internal/domain"
)

const (
	DefaultInterval    = 10 * time.Second
	DefaultMinWatch    = 30 * time.Second
	DefaultSaveTimeout = 5 * time.Second

	// CompletionPercent of the duration counts as watched
	CompletionPercent = 90
)

// Config tunes a Tracker. Zero fields take the defaults.
type Config struct {
	Interval    time.Duration // between periodic saves
	MinWatch    time.Duration // positions at or below this are not worth resuming
	SaveTimeout time.Duration // bound on the final save after detach
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.MinWatch <= 0 {
		c.MinWatch = DefaultMinWatch
	}
	if c.SaveTimeout <= 0 {
		c.SaveTimeout = DefaultSaveTimeout
	}
	return c
}

// CompletedAt reports whether positionMs is far enough into durationMs to
// count as watched. An unknown (zero) duration is never complete.
func CompletedAt(positionMs, durationMs uint64) bool {
	if durationMs == 0 {
		return false
	}
	return positionMs*100 >= durationMs*CompletionPercent
}

type ticker interface {
	C() <-chan time.Time
	Stop()
	Reset(d time.Duration)
}

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time   { return r.t.C }
func (r realTicker) Stop()                 { r.t.Stop() }
func (r realTicker) Reset(d time.Duration) { r.t.Reset(d) }

// Tracker creates progress sessions against one store
type Tracker struct {
	store  domain.ProgressStore
	cfg    Config
	logger *slog.Logger

	now       func() time.Time
	newTicker func(time.Duration) ticker
}

// NewTracker creates a tracker
func NewTracker(store domain.ProgressStore, cfg Config, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		store:  store,
		cfg:    cfg.withDefaults(),
		logger: logger,
		now:    time.Now,
		newTicker: func(d time.Duration) ticker {
			return realTicker{t: time.NewTicker(d)}
		},
	}
}

// Attach starts tracking playback of item on player. The prior record is
// restored in the background; the returned session starts out sampling.
// Cancelling ctx has the same effect as Session.Detach.
func (t *Tracker) Attach(ctx context.Context, player domain.Player, item domain.Playable) *Session {
	s := newSession(t, player, item)
	go s.run(ctx)
	return s
}
