// internal/pkg/session/store.go
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"neusentra-service/internal/domain/auth"
	xerrors "neusentra-service/internal/pkg/errors"
)

// Store keeps the current valid token pair per login session. Presence of
// the key is the sole source of truth for session validity: TTL expiry and
// an explicit Delete are indistinguishable to callers.
type Store struct {
	client *redis.Client
}

func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// Get returns the cached pair for a login id, or ErrInvalidSession when the
// key is absent (expired, revoked or never created).
func (s *Store) Get(ctx context.Context, loginID string) (*auth.TokenPair, error) {
	data, err := s.client.Get(ctx, s.key(loginID)).Bytes()
	if err == redis.Nil {
		return nil, xerrors.ErrInvalidSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var pair auth.TokenPair
	if err := json.Unmarshal(data, &pair); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &pair, nil
}

// Set stores (or overwrites) the pair for a login id with the given TTL.
func (s *Store) Set(ctx context.Context, loginID string, pair auth.TokenPair, ttl time.Duration) error {
	data, err := json.Marshal(pair)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := s.client.Set(ctx, s.key(loginID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// Delete revokes a session. Deleting an absent key is a no-op.
func (s *Store) Delete(ctx context.Context, loginID string) error {
	if err := s.client.Del(ctx, s.key(loginID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (s *Store) key(loginID string) string {
	return fmt.Sprintf("session:%s", loginID)
}
