package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/aryan0dhankhar/clientdesk/internal/infrastructure/redis"
	"github.com/aryan0dhankhar/clientdesk/pkg/cache"
)

const revokedPrefix = "clientdesk:revoked:"

// RevocationStore remembers signed-out token ids until they would have expired
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// RedisRevocationStore shares revocations across server instances
type RedisRevocationStore struct {
	client *redis.Client
}

func NewRedisRevocationStore(client *redis.Client) *RedisRevocationStore {
	return &RedisRevocationStore{client: client}
}

func (s *RedisRevocationStore) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, revokedPrefix+tokenID, "1", ttl); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func (s *RedisRevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	ok, err := s.client.Exists(ctx, revokedPrefix+tokenID)
	if err != nil {
		return false, fmt.Errorf("failed to check revocation: %w", err)
	}
	return ok, nil
}

// MemoryRevocationStore keeps revocations in process
type MemoryRevocationStore struct {
	entries *cache.Cache[struct{}]
}

func NewMemoryRevocationStore() *MemoryRevocationStore {
	return &MemoryRevocationStore{entries: cache.New[struct{}]()}
}

func (s *MemoryRevocationStore) Revoke(_ context.Context, tokenID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	s.entries.Set(tokenID, struct{}{}, ttl)
	return nil
}

func (s *MemoryRevocationStore) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	_, ok := s.entries.Get(tokenID)
	return ok, nil
}

// Purge drops revocations whose tokens have expired anyway
func (s *MemoryRevocationStore) Purge() int {
	return s.entries.Purge()
}
