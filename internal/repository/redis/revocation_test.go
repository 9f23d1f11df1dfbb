package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/rs/xid"
)

func TestNew_UnreachableServer(t *testing.T) {
	// Port 1 is never a Redis server; the ping must fail fast instead of
	// handing back a store that silently lets revoked tokens through.
	_, err := New(context.Background(), "127.0.0.1:1", "")
	if err == nil {
		t.Fatal("New() should fail when Redis is unreachable")
	}
}

// Set FOUND_TEST_REDIS_ADDR (e.g. localhost:6379) to run against a real server.
func TestRevocation_RoundTrip(t *testing.T) {
	addr := os.Getenv("FOUND_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("FOUND_TEST_REDIS_ADDR not set")
	}

	s, err := New(context.Background(), addr, os.Getenv("FOUND_TEST_REDIS_PASSWORD"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	id := xid.New().String()

	if revoked, err := s.IsRevoked(ctx, id); err != nil || revoked {
		t.Fatalf("IsRevoked() = %v, %v; want false, nil", revoked, err)
	}
	if err := s.Revoke(ctx, id, time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}
	if revoked, err := s.IsRevoked(ctx, id); err != nil || !revoked {
		t.Fatalf("IsRevoked() = %v, %v; want true, nil", revoked, err)
	}
}

func TestRevoke_ExpiredTokenIsNoop(t *testing.T) {
	// A nil client would panic if Revoke tried to reach Redis.
	s := &RevocationStore{}
	if err := s.Revoke(context.Background(), "old", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}
}
