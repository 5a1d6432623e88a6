package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/aryan0dhankhar/clientdesk/internal/domain"
	"github.com/aryan0dhankhar/clientdesk/internal/security/audit"
	"github.com/aryan0dhankhar/clientdesk/internal/security/auth"
	"golang.org/x/crypto/bcrypt"
)

// Errors surfaced to auth callers. Messages are safe to show users.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrTokenRevoked       = errors.New("token revoked")
)

// AuthService handles authentication operations
type AuthService struct {
	userRepo domain.UserRepository
	tokens   *auth.TokenManager
	revoked  auth.RevocationStore
	tokenTTL time.Duration
	audit    *audit.Logger
	logger   *slog.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	userRepo domain.UserRepository,
	tokens *auth.TokenManager,
	revoked auth.RevocationStore,
	tokenTTL time.Duration,
	auditLog *audit.Logger,
	logger *slog.Logger,
) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	if revoked == nil {
		revoked = auth.NewMemoryRevocationStore()
	}
	if tokenTTL <= 0 {
		tokenTTL = time.Hour
	}
	if auditLog == nil {
		auditLog = audit.NewLogger(logger)
	}

	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
		revoked:  revoked,
		tokenTTL: tokenTTL,
		audit:    auditLog,
		logger:   logger,
	}
}

// TokenResult is returned by Register and Login
type TokenResult struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"` // seconds
	TokenType string `json:"token_type"`
}

// Register creates a new user account and signs it in
func (s *AuthService) Register(ctx context.Context, email, username, password string) (*TokenResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)

	v := domain.Violations{}
	domain.Required("email", email, v)
	domain.Required("username", username, v)
	domain.Required("password", password, v)
	if _, ok := v["email"]; !ok {
		if _, err := mail.ParseAddress(email); err != nil {
			v["email"] = "invalid_email"
		}
	}
	if _, ok := v["password"]; !ok && len(password) < 8 {
		v["password"] = "too_short"
	}
	if !v.Empty() {
		return nil, &domain.ValidationError{Violations: v}
	}

	if existing, err := s.userRepo.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, ErrEmailTaken
	}
	if existing, err := s.userRepo.GetByUsername(ctx, username); err == nil && existing != nil {
		return nil, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("failed to hash password", slog.String("error", err.Error()))
		return nil, errors.New("failed to register user")
	}

	user := &domain.User{
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
		IsActive:     true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		var dup *domain.DuplicateError
		if errors.As(err, &dup) {
			if dup.Field == "username" {
				return nil, ErrUsernameTaken
			}
			return nil, ErrEmailTaken
		}
		s.logger.Error("failed to create user", slog.String("error", err.Error()))
		return nil, errors.New("failed to register user")
	}

	s.audit.LogSession(ctx, user.ID, "register", audit.StatusSucceeded, "")
	return s.issue(user)
}

// Login authenticates a user and returns a signed token
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		s.logger.Info("login attempt with unknown email", slog.String("email", email))
		s.audit.LogSession(ctx, "", "login", audit.StatusDenied, "unknown email")
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Info("login failed with wrong password", slog.String("email", email))
		s.audit.LogSession(ctx, user.ID, "login", audit.StatusDenied, "wrong password")
		return nil, ErrInvalidCredentials
	}

	s.logger.Info("user logged in",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)
	s.audit.LogSession(ctx, user.ID, "login", audit.StatusSucceeded, "")
	return s.issue(user)
}

// Resolve verifies a token and loads its active user. It implements auth.Resolver.
func (s *AuthService) Resolve(ctx context.Context, token string) (*domain.User, *auth.Claims, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return nil, nil, err
	}

	revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, nil, err
	}
	if revoked {
		return nil, nil, ErrTokenRevoked
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load session user: %w", err)
	}
	if !user.IsActive {
		return nil, nil, ErrInvalidCredentials
	}
	return user, claims, nil
}

// Revoke invalidates a token until its natural expiry. It implements auth.Resolver.
func (s *AuthService) Revoke(ctx context.Context, claims *auth.Claims) error {
	until := time.Now().Add(s.tokenTTL)
	if claims.ExpiresAt != nil {
		until = claims.ExpiresAt.Time
	}
	if err := s.revoked.Revoke(ctx, claims.ID, until); err != nil {
		s.logger.Error("failed to revoke token",
			slog.String("user_id", claims.UserID),
			slog.String("error", err.Error()),
		)
		return err
	}
	s.audit.LogSession(ctx, claims.UserID, "logout", audit.StatusSucceeded, "")
	return nil
}

// ChangePassword changes a user's password
func (s *AuthService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if len(newPassword) < 8 {
		return &domain.ValidationError{Violations: domain.Violations{"new_password": "too_short"}}
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("failed to hash new password", slog.String("error", err.Error()))
		return errors.New("failed to change password")
	}

	user.PasswordHash = string(hash)
	if err := s.userRepo.Update(ctx, user); err != nil {
		s.logger.Error("failed to update user password", slog.String("error", err.Error()))
		return errors.New("failed to change password")
	}

	s.logger.Info("user changed password", slog.String("user_id", userID))
	s.audit.LogSession(ctx, userID, "change_password", audit.StatusSucceeded, "")
	return nil
}

func (s *AuthService) issue(user *domain.User) (*TokenResult, error) {
	token, _, err := s.tokens.GenerateToken(user.ID, user.Email, s.tokenTTL)
	if err != nil {
		s.logger.Error("failed to sign token", slog.String("error", err.Error()))
		return nil, errors.New("failed to generate token")
	}
	return &TokenResult{
		UserID:    user.ID,
		Email:     user.Email,
		Username:  user.Username,
		Token:     token,
		ExpiresIn: int(s.tokenTTL.Seconds()),
		TokenType: "Bearer",
	}, nil
}

var _ auth.Resolver = (*AuthService)(nil)
