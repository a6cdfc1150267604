// Package session implements the session authenticator on top of
// Redis: opaque session ids mapped to user ids with a sliding TTL.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stashspark/stashspark/internal/domain"
)

const keyPrefix = "stash:session:"

func sessionKey(id string) string {
	return keyPrefix + id
}

// Store issues and resolves sessions.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore creates a session store. Sessions expire after ttl of
// inactivity; every successful resolve slides the window.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// Create issues a fresh session for the user and returns its id.
func (s *Store) Create(ctx context.Context, userID int64) (string, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	id := hex.EncodeToString(raw)

	if err := s.client.Set(ctx, sessionKey(id), userID, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}
	return id, nil
}

// Resolve maps a session id back to its user. A missing or expired
// session reads as ErrUnauthenticated.
func (s *Store) Resolve(ctx context.Context, id string) (int64, error) {
	if id == "" {
		return 0, domain.ErrUnauthenticated
	}

	val, err := s.client.Get(ctx, sessionKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, domain.ErrUnauthenticated
	}
	if err != nil {
		return 0, fmt.Errorf("get session: %w", err)
	}

	userID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt session value %q: %w", val, err)
	}

	// Sliding expiry, best effort.
	_ = s.client.Expire(ctx, sessionKey(id), s.ttl).Err()

	return userID, nil
}

// Delete ends a session. Deleting an unknown id is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Ping checks Redis reachability.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
