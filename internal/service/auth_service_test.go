package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aryan0dhankhar/clientdesk/internal/domain"
	"github.com/aryan0dhankhar/clientdesk/internal/security/auth"
)

type memUserRepo struct {
	byID       map[string]*domain.User
	byEmail    map[string]*domain.User
	byUsername map[string]*domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byID: map[string]*domain.User{}, byEmail: map[string]*domain.User{}, byUsername: map[string]*domain.User{}}
}

func (m *memUserRepo) Create(_ context.Context, u *domain.User) error {
	if u.ID == "" {
		u.ID = "u-" + u.Email
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	m.byID[u.ID] = u
	m.byEmail[u.Email] = u
	m.byUsername[u.Username] = u
	return nil
}
func (m *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}
func (m *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	if u, ok := m.byEmail[email]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}
func (m *memUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	if u, ok := m.byUsername[username]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}
func (m *memUserRepo) Update(_ context.Context, u *domain.User) error {
	u.UpdatedAt = time.Now()
	m.byID[u.ID] = u
	m.byEmail[u.Email] = u
	m.byUsername[u.Username] = u
	return nil
}

func newAuthService(repo domain.UserRepository) *AuthService {
	return NewAuthService(repo, auth.NewTokenManager("secret", ""), auth.NewMemoryRevocationStore(), time.Hour, nil, nil)
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	repo := newMemUserRepo()
	s := newAuthService(repo)

	// Register
	r, err := s.Register(ctx, "Alice@Example.com", "alice", "Password123")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if r.UserID == "" || r.Token == "" {
		t.Fatalf("expected user id and token")
	}
	if r.Email != "alice@example.com" {
		t.Fatalf("expected normalised email, got %q", r.Email)
	}

	// Duplicate email
	if _, err := s.Register(ctx, "alice@example.com", "alice2", "Password123"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected duplicate email error, got %v", err)
	}
	// Duplicate username
	if _, err := s.Register(ctx, "other@example.com", "alice", "Password123"); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected duplicate username error, got %v", err)
	}

	// Login ok
	lr, err := s.Login(ctx, "alice@example.com", "Password123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if lr.Token == "" || lr.ExpiresIn != 3600 {
		t.Fatalf("expected token with one hour expiry, got %+v", lr)
	}

	// Login wrong password
	if _, err := s.Login(ctx, "alice@example.com", "Wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials error, got %v", err)
	}
}

// racingUserRepo never finds a user but rejects the insert, as when a
// concurrent registration wins between lookup and insert
type racingUserRepo struct {
	*memUserRepo
	field string
}

func (r racingUserRepo) Create(context.Context, *domain.User) error {
	return &domain.DuplicateError{Field: r.field}
}

func TestRegister_ConcurrentDuplicate(t *testing.T) {
	s := newAuthService(racingUserRepo{memUserRepo: newMemUserRepo(), field: "username"})
	if _, err := s.Register(context.Background(), "late@example.com", "late", "Password123"); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected duplicate username error, got %v", err)
	}

	s = newAuthService(racingUserRepo{memUserRepo: newMemUserRepo(), field: "email"})
	if _, err := s.Register(context.Background(), "late@example.com", "late", "Password123"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected duplicate email error, got %v", err)
	}
}

func TestRegister_Validation(t *testing.T) {
	s := newAuthService(newMemUserRepo())

	_, err := s.Register(context.Background(), "not-an-email", "", "short")
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	want := domain.Violations{"email": "invalid_email", "username": "required", "password": "too_short"}
	for field, code := range want {
		if verr.Violations[field] != code {
			t.Fatalf("expected %s=%s, got %v", field, code, verr.Violations)
		}
	}
}

func TestResolveAndRevoke(t *testing.T) {
	ctx := context.Background()
	s := newAuthService(newMemUserRepo())

	reg, err := s.Register(ctx, "carol@example.com", "carol", "Password123")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	user, claims, err := s.Resolve(ctx, reg.Token)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if user.ID != reg.UserID || claims.ID == "" {
		t.Fatalf("unexpected identity %+v %+v", user, claims)
	}

	if err := s.Revoke(ctx, claims); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	if _, _, err := s.Resolve(ctx, reg.Token); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("expected revoked token, got %v", err)
	}

	// a fresh login still works
	lr, err := s.Login(ctx, "carol@example.com", "Password123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if _, _, err := s.Resolve(ctx, lr.Token); err != nil {
		t.Fatalf("expected new token to resolve, got %v", err)
	}

	if _, _, err := s.Resolve(ctx, "garbage"); err == nil {
		t.Fatalf("expected garbage token to fail")
	}
}

func TestSessionSignOutThroughService(t *testing.T) {
	ctx := context.Background()
	s := newAuthService(newMemUserRepo())
	reg, err := s.Register(ctx, "dan@example.com", "dan", "Password123")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	sess := auth.NewSession(s)
	if err := sess.Init(ctx, reg.Token); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if sess.User() == nil || sess.User().ID != reg.UserID {
		t.Fatalf("expected session user")
	}
	if err := sess.SignOut(ctx); err != nil {
		t.Fatalf("sign out failed: %v", err)
	}
	if err := auth.NewSession(s).Init(ctx, reg.Token); err == nil {
		t.Fatalf("expected revoked token to fail init")
	}
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	repo := newMemUserRepo()
	s := newAuthService(repo)
	reg, err := s.Register(ctx, "bob@example.com", "bob", "OldPass123")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	// Wrong old password
	if err := s.ChangePassword(ctx, reg.UserID, "bad", "NewPass123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected wrong old password error, got %v", err)
	}
	// Too short
	if err := s.ChangePassword(ctx, reg.UserID, "OldPass123", "short"); err == nil {
		t.Fatalf("expected short password error")
	}
	// Good change
	if err := s.ChangePassword(ctx, reg.UserID, "OldPass123", "NewPass123"); err != nil {
		t.Fatalf("change password failed: %v", err)
	}
	// Old password should no longer work
	if _, err := s.Login(ctx, "bob@example.com", "OldPass123"); err == nil {
		t.Fatalf("expected old password to fail after change")
	}
	// New password works
	if _, err := s.Login(ctx, "bob@example.com", "NewPass123"); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
}
