package auth

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/aryan0dhankhar/clientdesk/internal/domain"
	"github.com/aryan0dhankhar/clientdesk/internal/infrastructure/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", "")
	signed, claims, err := tm.GenerateToken("u1", "ana@example.com", time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, claims.ID)

	got, err := tm.ValidateToken(signed)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "ana@example.com", got.Email)
	assert.Equal(t, claims.ID, got.ID)

	_, _, err = tm.GenerateToken("", "x", time.Minute)
	assert.Error(t, err)
}

func TestTokenManager_RejectsForeignAndExpired(t *testing.T) {
	tm := NewTokenManager("secret", "clientdesk")

	other := NewTokenManager("other-secret", "clientdesk")
	signed, _, err := other.GenerateToken("u1", "a@b.c", time.Minute)
	require.NoError(t, err)
	_, err = tm.ValidateToken(signed)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	foreignIssuer := NewTokenManager("secret", "someone-else")
	signed, _, err = foreignIssuer.GenerateToken("u1", "a@b.c", time.Minute)
	require.NoError(t, err)
	_, err = tm.ValidateToken(signed)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	expired, _, err := tm.GenerateToken("u1", "a@b.c", -time.Minute)
	require.NoError(t, err)
	_, err = tm.ValidateToken(expired)
	assert.ErrorIs(t, err, ErrTokenExpired)

	_, err = tm.ValidateToken("not.a.jwt")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenManager_ToleratesClockSkew(t *testing.T) {
	tm := NewTokenManager("secret", "")
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	tm.now = func() time.Time { return start }

	signed, _, err := tm.GenerateToken("u1", "a@b.c", time.Minute)
	require.NoError(t, err)

	tm.now = func() time.Time { return start.Add(time.Minute + 20*time.Second) }
	_, err = tm.ValidateToken(signed)
	require.NoError(t, err, "within leeway")

	tm.now = func() time.Time { return start.Add(2 * time.Minute) }
	_, err = tm.ValidateToken(signed)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestExtractToken(t *testing.T) {
	for _, h := range []string{"Bearer abc", "bearer abc", "  Bearer   abc "} {
		tok, err := ExtractToken(h)
		require.NoError(t, err, h)
		assert.Equal(t, "abc", tok)
	}

	for _, h := range []string{"", "abc", "Basic abc", "Bearer ", "Bearer a b"} {
		_, err := ExtractToken(h)
		assert.ErrorIs(t, err, ErrNoBearer, h)
	}
}

func TestMemoryRevocationStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryRevocationStore()

	require.NoError(t, s.Revoke(ctx, "jti-1", time.Now().Add(time.Minute)))
	require.NoError(t, s.Revoke(ctx, "jti-old", time.Now().Add(-time.Minute)))

	revoked, err := s.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = s.IsRevoked(ctx, "jti-old")
	require.NoError(t, err)
	assert.False(t, revoked, "already-expired tokens need no entry")
}

func TestRedisRevocationStore(t *testing.T) {
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set")
	}
	ctx := context.Background()
	client, err := redis.NewClient(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	s := NewRedisRevocationStore(client)
	jti := "test-" + time.Now().Format(time.RFC3339Nano)
	require.NoError(t, s.Revoke(ctx, jti, time.Now().Add(time.Minute)))
	revoked, err := s.IsRevoked(ctx, jti)
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestUserStore(t *testing.T) {
	ctx := context.Background()
	store, err := NewUserStore(map[string]string{"Ana@Example.com": "secret123"})
	require.NoError(t, err)

	u, err := store.GetByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Ana", u.Username)
	assert.NotEqual(t, "secret123", u.PasswordHash)

	_, err = store.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Error(t, store.AddUser("ana@example.com", "again"), "duplicate email")

	u.IsActive = false
	require.NoError(t, store.Update(ctx, u))
	_, err = store.GetByEmail(ctx, "ana@example.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	byID, err := store.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, byID.IsActive)
}

type stubResolver struct {
	user    *domain.User
	claims  *Claims
	err     error
	revoked []string
	during  func()
}

func (r *stubResolver) Resolve(context.Context, string) (*domain.User, *Claims, error) {
	if r.during != nil {
		r.during()
	}
	return r.user, r.claims, r.err
}

func (r *stubResolver) Revoke(_ context.Context, c *Claims) error {
	r.revoked = append(r.revoked, c.ID)
	return nil
}

func TestSession_InitAndSignOut(t *testing.T) {
	ctx := context.Background()
	r := &stubResolver{
		user:   &domain.User{ID: "u1"},
		claims: &Claims{UserID: "u1"},
	}
	r.claims.ID = "jti-1"
	s := NewSession(r)

	var loadingDuring bool
	r.during = func() { loadingDuring = s.Loading() }

	assert.Nil(t, s.User())
	require.NoError(t, s.Init(ctx, "tok"))
	assert.True(t, loadingDuring)
	assert.False(t, s.Loading())
	assert.Equal(t, "u1", s.User().ID)
	assert.Equal(t, "jti-1", s.ID())

	ctx = WithSession(ctx, s)
	require.NotNil(t, ActorID(ctx))
	assert.Equal(t, "u1", *ActorID(ctx))

	require.NoError(t, s.SignOut(ctx))
	assert.Nil(t, s.User())
	assert.Nil(t, ActorID(ctx))
	assert.Equal(t, []string{"jti-1"}, r.revoked)

	assert.ErrorIs(t, s.SignOut(ctx), ErrNoSession)
}

func TestSession_InitFailureStaysAnonymous(t *testing.T) {
	s := NewSession(&stubResolver{err: errors.New("bad token")})
	assert.Error(t, s.Init(context.Background(), "tok"))
	assert.False(t, s.Loading())
	assert.Nil(t, s.User())
	assert.Equal(t, "", s.ID())
	assert.Nil(t, ActorID(context.Background()))
}
