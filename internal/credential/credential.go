// Package credential supplies bearer tokens to the catalog listings.
// Acquiring a token is out of scope; these providers only hold one.
package credential

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/mmcdole/kinotv/internal/config"
	"github.com/mmcdole/kinotv/internal/domain"
	"github.com/samber/mo"
)

// Static always returns the same token. An empty token means signed out.
type Static string

var _ domain.CredentialProvider = Static("")

func (s Static) CurrentToken(context.Context) mo.Option[string] {
	return mo.EmptyableToOption(string(s))
}

// Session holds a token that can change while the app runs, optionally
// writing every change back to the config file.
type Session struct {
	token   atomic.Pointer[string]
	persist func(token string) error
	logger  *slog.Logger
}

var _ domain.CredentialProvider = (*Session)(nil)

// NewSession starts a session holding token
func NewSession(token string, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{logger: logger}
	s.token.Store(&token)
	return s
}

// FromConfig starts a session from the configured token and saves later
// changes to config.yaml under configDir.
func FromConfig(cfg config.ServerConfig, configDir string, logger *slog.Logger) *Session {
	s := NewSession(cfg.Token, logger)
	s.persist = func(token string) error { return config.SaveToken(configDir, token) }
	return s
}

func (s *Session) CurrentToken(context.Context) mo.Option[string] {
	return mo.EmptyableToOption(*s.token.Load())
}

// Set replaces the token. A persistence failure is returned but the new
// token is in effect either way.
func (s *Session) Set(token string) error {
	s.token.Store(&token)
	if s.persist == nil {
		return nil
	}
	if err := s.persist(token); err != nil {
		s.logger.Error("failed to save token", "error", err)
		return err
	}
	return nil
}

// SignOut clears the token
func (s *Session) SignOut() error { return s.Set("") }
