// Package cache keeps recently read sessions in Redis so authenticated requests skip Postgres.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"webstarter/backend/internal/session/domain"
)

const (
	keyPrefix     = "session:"
	userKeyPrefix = "user_sessions:"
)

// Cache stores sessions as JSON values that expire with the session.
type Cache struct {
	rdb *redis.Client
	now func() time.Time
}

// New returns a Cache backed by rdb.
func New(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb, now: time.Now}
}

// NewFromURL parses a redis:// URL and returns a Cache with its own client.
func NewFromURL(rawURL string) (*Cache, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, err
	}
	return New(redis.NewClient(opts)), nil
}

// Ping checks connectivity.
func (c *Cache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the underlying client.
func (c *Cache) Close() error {
	return c.rdb.Close()
}

// Get returns the cached session, or nil on a miss.
func (c *Cache) Get(ctx context.Context, id string) (*domain.Session, error) {
	b, err := c.rdb.Get(ctx, keyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var s domain.Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Set caches s until it expires and indexes it under its user, replacing any cached copy.
// Sessions already expired are not written.
func (c *Cache) Set(ctx context.Context, s *domain.Session) error {
	return c.write(ctx, s, false)
}

// Add is Set that keeps an existing entry. Read-through fills use it so a copy read before a
// revoke cannot replace the revoked entry written after it.
func (c *Cache) Add(ctx context.Context, s *domain.Session) error {
	return c.write(ctx, s, true)
}

func (c *Cache) write(ctx context.Context, s *domain.Session, keep bool) error {
	ttl := s.ExpiresAt.Sub(c.now())
	if ttl <= 0 {
		return nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	userKey := userKeyPrefix + s.UserID
	_, err = c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if keep {
			pipe.SetNX(ctx, keyPrefix+s.ID, b, ttl)
		} else {
			pipe.Set(ctx, keyPrefix+s.ID, b, ttl)
		}
		pipe.SAdd(ctx, userKey, s.ID)
		// The index lives as long as its longest-lived member: NX covers a new set,
		// GT only ever extends an existing one.
		pipe.ExpireNX(ctx, userKey, ttl)
		pipe.ExpireGT(ctx, userKey, ttl)
		return nil
	})
	return err
}

// Delete removes the cached session, if any.
func (c *Cache) Delete(ctx context.Context, id string) error {
	return c.rdb.Del(ctx, keyPrefix+id).Err()
}

// DeleteUser removes every cached session of userID along with the user index.
func (c *Cache) DeleteUser(ctx context.Context, userID string) error {
	userKey := userKeyPrefix + userID
	ids, err := c.rdb.SMembers(ctx, userKey).Result()
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, keyPrefix+id)
	}
	keys = append(keys, userKey)
	return c.rdb.Del(ctx, keys...).Err()
}
