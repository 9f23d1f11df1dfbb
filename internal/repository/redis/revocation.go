// Package redis keeps the signed-out token list in Redis.
//
// Revocation entries only matter until the token would have expired on its
// own, which maps directly onto a Redis key TTL: no sweeping, and every
// server instance behind a load balancer sees the same list.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/sakif/found/internal/repository"
)

var _ repository.RevocationStore = (*RevocationStore)(nil)

const keyPrefix = "found:revoked:"

type RevocationStore struct {
	client *goredis.Client
}

// New connects to addr and pings it. The caller decides what to fall back to
// when Redis is unavailable.
func New(ctx context.Context, addr, password string) (*RevocationStore, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: pinging %s: %w", addr, err)
	}
	return &RevocationStore{client: client}, nil
}

// Ping reports whether Redis is reachable.
func (s *RevocationStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RevocationStore) Close() error {
	return s.client.Close()
}

// Revoke stores tokenID until expiresAt. Tokens already past expiry are
// rejected by signature validation anyway and are not stored.
func (s *RevocationStore) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, keyPrefix+tokenID, 1, ttl).Err(); err != nil {
		return fmt.Errorf("redis: revoking token %s: %w", tokenID, err)
	}
	return nil
}

func (s *RevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	err := s.client.Get(ctx, keyPrefix+tokenID).Err()
	if err == nil {
		return true, nil
	}
	if errors.Is(err, goredis.Nil) {
		return false, nil
	}
	return false, fmt.Errorf("redis: checking token %s: %w", tokenID, err)
}
