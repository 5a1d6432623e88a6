package auth

import (
	"context"
	"errors"
	"sync"

	"github.com/aryan0dhankhar/clientdesk/internal/domain"
)

// ErrNoSession is returned when an operation needs a resolved identity
var ErrNoSession = errors.New("no active session")

// Resolver turns a bearer token into the signed-in user and ends sessions
type Resolver interface {
	Resolve(ctx context.Context, token string) (*domain.User, *Claims, error)
	Revoke(ctx context.Context, claims *Claims) error
}

// Session is the identity context for one caller. Init resolves it, SignOut
// tears it down. While Init runs, Loading reports true and User is nil.
type Session struct {
	resolver Resolver

	mu      sync.RWMutex
	loading bool
	user    *domain.User
	claims  *Claims
}

func NewSession(resolver Resolver) *Session {
	return &Session{resolver: resolver}
}

// Init resolves token into the current user. On failure the session stays anonymous.
func (s *Session) Init(ctx context.Context, token string) error {
	s.mu.Lock()
	s.loading = true
	s.user, s.claims = nil, nil
	s.mu.Unlock()

	user, claims, err := s.resolver.Resolve(ctx, token)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		return err
	}
	s.user, s.claims = user, claims
	return nil
}

// User returns the current identity, or nil
func (s *Session) User() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Claims returns the verified token claims, or nil
func (s *Session) Claims() *Claims {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.claims
}

// Loading reports whether session resolution is in progress
func (s *Session) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// ID is the session key: the token id, or "" when anonymous
func (s *Session) ID() string {
	if c := s.Claims(); c != nil {
		return c.ID
	}
	return ""
}

// SignOut revokes the token and clears the identity
func (s *Session) SignOut(ctx context.Context) error {
	s.mu.Lock()
	claims := s.claims
	s.user, s.claims = nil, nil
	s.mu.Unlock()

	if claims == nil {
		return ErrNoSession
	}
	return s.resolver.Revoke(ctx, claims)
}

type sessionKey struct{}

// WithSession stores s on ctx
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFromContext returns the request's session, or nil
func SessionFromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionKey{}).(*Session)
	return s
}

// ActorID returns the signed-in user's id from ctx, or nil when anonymous
func ActorID(ctx context.Context) *string {
	s := SessionFromContext(ctx)
	if s == nil {
		return nil
	}
	u := s.User()
	if u == nil {
		return nil
	}
	id := u.ID
	return &id
}
