package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"sync"
	"time"

	"github.com/mmcdole/kinotv/internal/domain"
)

// clockPlayer plays in real time without decoding anything. It stands in for
// a player when recording progress from the command line.
type clockPlayer struct {
	mu       sync.Mutex
	offset   time.Duration
	started  time.Time
	duration time.Duration
}

func newClockPlayer(duration time.Duration) *clockPlayer {
	return &clockPlayer{started: time.Now(), duration: duration}
}

func (p *clockPlayer) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return min(p.offset+time.Since(p.started), p.duration)
}

func (p *clockPlayer) Duration() time.Duration { return p.duration }

func (p *clockPlayer) Seek(pos time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.offset = pos
	p.started = time.Now()
}

func (a *app) play(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("play", flag.ContinueOnError)
	duration := fs.Duration("duration", 2*time.Hour, "content length")
	kind := fs.String("type", string(domain.ContentMovie), "movie, show or channel")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("play needs exactly one content id")
	}
	if a.cfg.Server.UserID == "" {
		return errors.New("server.user_id is not configured")
	}

	s, err := a.openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	player := newClockPlayer(*duration)
	session := a.tracker(s).Attach(ctx, player, domain.Playable{
		UserID:      a.cfg.Server.UserID,
		ContentID:   fs.Arg(0),
		ContentType: domain.ContentType(*kind),
	})
	session.Play()
	fmt.Printf("Playing %s, Ctrl-C to stop\n", fs.Arg(0))

	poll := time.NewTicker(time.Second)
	defer poll.Stop()
wait:
	for {
		select {
		case <-ctx.Done():
			session.Detach()
			break wait
		case <-poll.C:
			if player.Position() >= *duration {
				session.End()
				break wait
			}
		}
	}
	<-session.Done()

	fmt.Printf("Stopped at %s\n", player.Position().Truncate(time.Second))
	return nil
}

func progressDuration(ms uint64) time.Duration {
	return (time.Duration(ms) * time.Millisecond).Truncate(time.Second)
}
