package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "session:"
	userIndexPrefix  = "session_user:"
)

// RedisStore keeps one key per session with a TTL equal to its remaining lifetime,
// plus a set per user so every session of a user can be revoked at once.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

func userIndexKey(userID uuid.UUID) string {
	return userIndexPrefix + userID.String()
}

func (r *RedisStore) Create(ctx context.Context, s *Session, idleTTL time.Duration) error {
	ttl := s.remaining(s.LastSeenAt, idleTTL)
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", s.ID)
	}

	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, sessionKey(s.ID), payload, ttl)
	pipe.SAdd(ctx, userIndexKey(s.UserID), s.ID)
	pipe.ExpireAt(ctx, userIndexKey(s.UserID), s.ExpiresAt)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	raw, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}

func (r *RedisStore) Touch(ctx context.Context, id string, seenAt time.Time, idleTTL time.Duration) error {
	s, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	s.LastSeenAt = seenAt

	ttl := s.remaining(seenAt, idleTTL)
	if ttl <= 0 {
		return r.Delete(ctx, id)
	}

	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	// XX: a concurrent logout must not be undone by a late touch.
	if err := r.client.SetXX(ctx, sessionKey(id), payload, ttl).Err(); err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	s, err := r.Get(ctx, id)
	if errors.Is(err, ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, sessionKey(id))
	pipe.SRem(ctx, userIndexKey(s.UserID), id)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *RedisStore) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	ids, err := r.client.SMembers(ctx, userIndexKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("list user sessions: %w", err)
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, sessionKey(id))
	}
	keys = append(keys, userIndexKey(userID))
	return r.client.Del(ctx, keys...).Err()
}

// SweepExpired only has to prune the per-user index sets; the session keys expire on their own.
func (r *RedisStore) SweepExpired(ctx context.Context, _ time.Time, _ time.Duration) (int, error) {
	removed := 0
	iter := r.client.Scan(ctx, 0, userIndexPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		indexKey := iter.Val()
		ids, err := r.client.SMembers(ctx, indexKey).Result()
		if err != nil {
			return removed, err
		}
		for _, id := range ids {
			exists, err := r.client.Exists(ctx, sessionKey(id)).Result()
			if err != nil {
				return removed, err
			}
			if exists == 0 {
				if err := r.client.SRem(ctx, indexKey, id).Err(); err != nil {
					return removed, err
				}
				removed++
			}
		}
	}
	return removed, iter.Err()
}
