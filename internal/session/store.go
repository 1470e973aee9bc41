// Package session owns the authentication state machine: token lifecycle,
// silent restore at startup, and the single auto-logout path every
// unauthorized response funnels through.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/finch-bank/finchctl/internal/domain"
)

// Store is the process-wide source of truth for "is a user authenticated".
// Only its three operations (restore, login, logout) mutate the token; the
// gateway's unauthorized hook funnels into Logout as well.
type Store struct {
	mu     sync.RWMutex
	status domain.SessionStatus
	token  string
	user   *domain.Identity

	auth     domain.Authenticator
	identity domain.IdentityReader
	sink     domain.CredentialSink
	storage  domain.TokenStorage
	cache    domain.CacheClearer
	logger   *slog.Logger
}

// NewStore wires the session store to its collaborators.
func NewStore(auth domain.Authenticator, identity domain.IdentityReader, sink domain.CredentialSink, storage domain.TokenStorage, cache domain.CacheClearer, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		status:   domain.StatusUnauthenticated,
		auth:     auth,
		identity: identity,
		sink:     sink,
		storage:  storage,
		cache:    cache,
		logger:   logger,
	}
}

// Snapshot returns the current session state.
func (s *Store) Snapshot() domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.Session{Token: s.token, User: s.user, Status: s.status}
}

// Status returns the current state-machine position.
func (s *Store) Status() domain.SessionStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// User returns the authenticated identity, or nil.
func (s *Store) User() *domain.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Restore validates a persisted token at process start. With no stored token
// it settles immediately on unauthenticated. A token rejected as unauthorized
// is cleared from storage; a network or server failure keeps the token for the
// next run but still settles the state machine, which must never be left in
// the restoring position once the identity read resolves.
func (s *Store) Restore(ctx context.Context) error {
	token, err := s.storage.Load()
	if err != nil {
		if errors.Is(err, domain.ErrNoStoredToken) {
			s.setUnauthenticated()
			return nil
		}
		s.setUnauthenticated()
		return fmt.Errorf("loading stored token: %w", err)
	}

	s.mu.Lock()
	s.status = domain.StatusRestoring
	s.token = token
	s.mu.Unlock()
	s.sink.SetToken(token)

	user, err := s.identity.Whoami(ctx)
	if err != nil {
		if domain.IsUnauthorized(err) {
			s.logger.Info("stored session rejected, clearing token")
			if clearErr := s.storage.Clear(); clearErr != nil {
				s.logger.Warn("failed to clear rejected token", "error", clearErr)
			}
		}
		s.sink.ClearToken()
		s.setUnauthenticated()
		return err
	}

	s.mu.Lock()
	s.user = user
	s.status = domain.StatusAuthenticated
	s.mu.Unlock()
	s.logger.Info("session restored", "user", user.Username)
	return nil
}

// Login submits credentials, persists the returned token, then resolves the
// identity through the same read restore uses before declaring the session
// authenticated. A rejected login leaves the state untouched and surfaces the
// classified error to the caller; it never auto-redirects.
func (s *Store) Login(ctx context.Context, creds domain.Credentials) (*domain.Identity, error) {
	token, err := s.auth.Login(ctx, creds)
	if err != nil {
		return nil, err
	}

	return s.adopt(ctx, token)
}

// Register creates an account and, like Login, resolves the identity before
// declaring the session authenticated.
func (s *Store) Register(ctx context.Context, reg domain.Registration) (*domain.Identity, error) {
	token, err := s.auth.Register(ctx, reg)
	if err != nil {
		return nil, err
	}

	return s.adopt(ctx, token)
}

// adopt installs a freshly issued token and resolves the identity behind it.
func (s *Store) adopt(ctx context.Context, token string) (*domain.Identity, error) {
	if err := s.storage.Save(token); err != nil {
		return nil, fmt.Errorf("persisting session token: %w", err)
	}
	s.sink.SetToken(token)

	user, err := s.identity.Whoami(ctx)
	if err != nil {
		// Roll back: a session without a resolved identity is never declared
		// authenticated.
		s.sink.ClearToken()
		if clearErr := s.storage.Clear(); clearErr != nil {
			s.logger.Warn("failed to clear token during rollback", "error", clearErr)
		}
		s.setUnauthenticated()
		return nil, fmt.Errorf("resolving identity after login: %w", err)
	}

	s.mu.Lock()
	s.token = token
	s.user = user
	s.status = domain.StatusAuthenticated
	s.mu.Unlock()
	return user, nil
}

// Logout clears the persisted token, the gateway credential, and every cached
// query result, then settles on unauthenticated. Safe to call repeatedly.
func (s *Store) Logout() error {
	s.sink.ClearToken()
	s.cache.Clear()

	var err error
	if clearErr := s.storage.Clear(); clearErr != nil {
		err = fmt.Errorf("clearing stored token: %w", clearErr)
	}
	s.setUnauthenticated()
	return err
}

// HandleUnauthorized is the gateway's auto-logout hook. A response that
// arrives after logout already ran (a mutation in flight when the credential
// was invalidated) finds the store unauthenticated and is discarded without a
// second logout.
func (s *Store) HandleUnauthorized() {
	s.mu.RLock()
	alreadyOut := s.status == domain.StatusUnauthenticated
	s.mu.RUnlock()
	if alreadyOut {
		return
	}

	s.logger.Info("credential rejected by server, logging out")
	if err := s.Logout(); err != nil {
		s.logger.Warn("auto-logout cleanup failed", "error", err)
	}
}

func (s *Store) setUnauthenticated() {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.status = domain.StatusUnauthenticated
	s.mu.Unlock()
}
