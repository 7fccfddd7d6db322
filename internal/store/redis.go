// Package store provides SessionStore implementations for the combat
// engine: a Redis-backed store for production and an in-memory store for
// tests and the dev server.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cory-johannsen/arena/internal/game/combat"
)

const (
	sessionKeyPrefix = "combat:session:"
	actorKeyPrefix   = "combat:actor:"
	// updateRetries bounds the optimistic retry loop in Update.
	updateRetries = 8
)

// RedisStore persists session snapshots in Redis with TTL-based expiry.
// Update uses WATCH-based optimistic transactions, so concurrent updates
// against one session are totally ordered while different sessions never
// block each other.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a RedisStore and verifies connectivity.
//
// Precondition: client must be non-nil.
func NewRedisStore(ctx context.Context, client *redis.Client) (*RedisStore, error) {
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

func sessionKey(id string) string { return sessionKeyPrefix + id }
func actorKey(id string) string   { return actorKeyPrefix + id }

// Get returns the session snapshot for id.
//
// Postcondition: Returns combat.ErrSessionNotFound for absent or expired
// keys.
func (s *RedisStore) Get(ctx context.Context, id string) (*combat.Session, error) {
	data, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, combat.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting session %s: %w", id, err)
	}
	return decodeSession(data)
}

// Put writes the session snapshot under id with the given TTL.
func (s *RedisStore) Put(ctx context.Context, id string, sess *combat.Session, ttl time.Duration) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshaling session %s: %w", id, err)
	}
	if err := s.client.Set(ctx, sessionKey(id), payload, ttl).Err(); err != nil {
		return fmt.Errorf("putting session %s: %w", id, err)
	}
	return nil
}

// Delete removes the session snapshot for id. Deleting an absent key is
// not an error.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("deleting session %s: %w", id, err)
	}
	return nil
}

// Update performs an atomic read-modify-write on the session under id. The
// key is WATCHed; if another writer commits between the read and the write,
// the transaction fails and the whole cycle retries with fresh state, up to
// a bounded number of attempts. Errors returned by fn abort the update with
// nothing written and pass through unchanged.
func (s *RedisStore) Update(ctx context.Context, id string, ttl time.Duration, fn func(*combat.Session) (*combat.Session, error)) (*combat.Session, error) {
	key := sessionKey(id)
	var out *combat.Session

	for attempt := 0; attempt < updateRetries; attempt++ {
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if errors.Is(err, redis.Nil) {
				return combat.ErrSessionNotFound
			}
			if err != nil {
				return fmt.Errorf("reading session %s: %w", id, err)
			}
			sess, err := decodeSession(data)
			if err != nil {
				return err
			}

			updated, err := fn(sess)
			if err != nil {
				return err
			}

			payload, err := json.Marshal(updated)
			if err != nil {
				return fmt.Errorf("marshaling session %s: %w", id, err)
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, payload, ttl)
				return nil
			})
			if err != nil {
				return err
			}
			out = updated
			return nil
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return out, nil
	}
	return nil, fmt.Errorf("updating session %s: gave up after %d conflicting writes", id, updateRetries)
}

// BindActor records the actor → session index entry with the given TTL.
func (s *RedisStore) BindActor(ctx context.Context, actorID, sessionID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, actorKey(actorID), sessionID, ttl).Err(); err != nil {
		return fmt.Errorf("binding actor %s: %w", actorID, err)
	}
	return nil
}

// ActorSession returns the session id bound to actorID.
//
// Postcondition: Returns combat.ErrSessionNotFound when no binding exists.
func (s *RedisStore) ActorSession(ctx context.Context, actorID string) (string, error) {
	sessionID, err := s.client.Get(ctx, actorKey(actorID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", combat.ErrSessionNotFound
	}
	if err != nil {
		return "", fmt.Errorf("looking up actor %s: %w", actorID, err)
	}
	return sessionID, nil
}

// ReleaseActor removes the actor → session index entry.
func (s *RedisStore) ReleaseActor(ctx context.Context, actorID string) error {
	if err := s.client.Del(ctx, actorKey(actorID)).Err(); err != nil {
		return fmt.Errorf("releasing actor %s: %w", actorID, err)
	}
	return nil
}

func decodeSession(data []byte) (*combat.Session, error) {
	var sess combat.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("unmarshaling session: %w", err)
	}
	return &sess, nil
}
