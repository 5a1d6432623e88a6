package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrTokenExpired is returned for a well-signed token past its exp claim
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid covers every other verification failure
	ErrTokenInvalid = errors.New("invalid token")
	// ErrNoBearer is returned when an Authorization header is not a bearer credential
	ErrNoBearer = errors.New("authorization header is not a bearer token")
)

const (
	defaultSecret = "change-me-in-production"
	defaultIssuer = "clientdesk"
	clockSkew     = 30 * time.Second
)

// Claims identify the signed-in operator. RegisteredClaims.ID carries the
// token id used for revocation and as the dashboard session key.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies HS256 session tokens
type TokenManager struct {
	key    []byte
	issuer string
	now    func() time.Time
}

func NewTokenManager(secret, issuer string) *TokenManager {
	if secret == "" {
		secret = defaultSecret
	}
	if issuer == "" {
		issuer = defaultIssuer
	}
	return &TokenManager{key: []byte(secret), issuer: issuer, now: time.Now}
}

// GenerateToken signs a token for the user with a fresh token id
func (tm *TokenManager) GenerateToken(userID, email string, expiresIn time.Duration) (string, *Claims, error) {
	if userID == "" {
		return "", nil, errors.New("user_id required")
	}
	issued := tm.now()
	claims := &Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			Issuer:    tm.issuer,
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(expiresIn)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.key)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, claims, nil
}

// ValidateToken verifies signature, issuer and expiry. Failures wrap
// ErrTokenExpired or ErrTokenInvalid.
func (tm *TokenManager) ValidateToken(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return tm.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tm.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(clockSkew),
		jwt.WithTimeFunc(tm.now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	case claims.ID == "" || claims.UserID == "":
		return nil, fmt.Errorf("%w: missing id or user", ErrTokenInvalid)
	}
	return claims, nil
}

// ExtractToken returns the credential of a "Bearer <token>" header. The
// scheme is matched case-insensitively.
func ExtractToken(authHeader string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(authHeader), " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" || strings.ContainsRune(token, ' ') {
		return "", ErrNoBearer
	}
	return token, nil
}
