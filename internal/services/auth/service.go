package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/gamepoints/internal/dependencies/clock"
	"github.com/mcoot/gamepoints/internal/dependencies/random"
	"github.com/mcoot/gamepoints/internal/model"
)

// Errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSession     = errors.New("invalid or expired session")
	ErrIdentityExists     = errors.New("identity already has a credential")
)

const (
	tokenPrefix   = "sess_"
	tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// Session binds an opaque token to the identity that logged in with it
type Session struct {
	Token     string
	Identity  model.Identity
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Service resolves callers to identities. It holds bcrypt hashes of the
// configured credentials and the sessions issued against them.
// It does not decide what an identity may do; the ledger gate does.
type Service struct {
	clock  clock.Clock
	random random.Random
	logger *slog.Logger

	mu          sync.RWMutex
	credentials map[model.Identity][]byte
	sessions    map[string]*Session

	sessionDuration time.Duration
	tokenLength     int
}

// Config holds configuration for the auth service
type Config struct {
	SessionDuration time.Duration
	TokenLength     int
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		SessionDuration: 24 * time.Hour,
		TokenLength:     32,
	}
}

// New creates a new AuthService
func New(clock clock.Clock, random random.Random, cfg Config, logger *slog.Logger) *Service {
	defaults := DefaultConfig()
	if cfg.SessionDuration == 0 {
		cfg.SessionDuration = defaults.SessionDuration
	}
	if cfg.TokenLength == 0 {
		cfg.TokenLength = defaults.TokenLength
	}
	return &Service{
		clock:           clock,
		random:          random,
		logger:          logger.With(slog.String("component", "auth")),
		credentials:     make(map[model.Identity][]byte),
		sessions:        make(map[string]*Session),
		sessionDuration: cfg.SessionDuration,
		tokenLength:     cfg.TokenLength,
	}
}

// RegisterCredential stores a hashed secret for identity
func (s *Service) RegisterCredential(identity model.Identity, secret string) error {
	if identity.IsZero() {
		return model.ErrInvalidIdentity
	}
	if secret == "" {
		return fmt.Errorf("empty secret for identity %q", identity)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.credentials[identity]; ok {
		return ErrIdentityExists
	}
	s.credentials[identity] = hash
	return nil
}

// Login checks secret against identity's credential and opens a session
func (s *Service) Login(_ context.Context, identity model.Identity, secret string) (*Session, error) {
	s.mu.RLock()
	hash, ok := s.credentials[identity]
	s.mu.RUnlock()

	if !ok {
		s.logger.Warn("login for unknown identity", slog.String("identity", identity.String()))
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(secret)); err != nil {
		s.logger.Warn("login with wrong secret", slog.String("identity", identity.String()))
		return nil, ErrInvalidCredentials
	}

	return s.createSession(identity), nil
}

// ValidateSession checks if a session token is valid and returns the session
func (s *Service) ValidateSession(token string) (*Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrInvalidSession
	}

	if s.clock.Now().After(session.ExpiresAt) {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
		return nil, ErrInvalidSession
	}

	return session, nil
}

// InvalidateSession removes a session
func (s *Service) InvalidateSession(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// createSession creates a new session for an identity
func (s *Service) createSession(identity model.Identity) *Session {
	token := tokenPrefix + s.random.String(s.tokenLength, tokenAlphabet)
	now := s.clock.Now()

	session := &Session{
		Token:     token,
		Identity:  identity,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionDuration),
	}

	s.mu.Lock()
	s.sessions[token] = session
	s.mu.Unlock()

	return session
}

// CleanExpiredSessions removes expired sessions (call periodically)
func (s *Service) CleanExpiredSessions() {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	for token, session := range s.sessions {
		if now.After(session.ExpiresAt) {
			delete(s.sessions, token)
		}
	}
}

// ParseCredentials parses "identity=secret" entries
func ParseCredentials(entries []string) (map[model.Identity]string, error) {
	creds := make(map[model.Identity]string, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		identity, secret, ok := strings.Cut(entry, "=")
		if !ok || identity == "" || secret == "" {
			return nil, fmt.Errorf("malformed credential %q: want identity=secret", entry)
		}
		creds[model.Identity(identity)] = secret
	}
	return creds, nil
}
