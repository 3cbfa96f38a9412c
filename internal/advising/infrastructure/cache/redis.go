package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/felixgeelhaar/advising/internal/advising/application/queries"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// views are the listing views kept per user.
var views = []queries.View{queries.ViewStudent, queries.ViewAdvisor}

// RedisSessionCache keeps session listings in Redis.
// Keys are namespaced: advising:sessions:{view}:{user_id}
type RedisSessionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionCache creates a new RedisSessionCache. Entries expire
// after ttl even if an invalidation is lost.
func NewRedisSessionCache(client *redis.Client, ttl time.Duration) *RedisSessionCache {
	return &RedisSessionCache{client: client, ttl: ttl}
}

func redisKey(view queries.View, userID uuid.UUID) string {
	return fmt.Sprintf("advising:sessions:%s:%s", view, userID)
}

func (c *RedisSessionCache) Get(ctx context.Context, view queries.View, userID uuid.UUID) ([]queries.SessionDTO, bool, error) {
	val, err := c.client.Get(ctx, redisKey(view, userID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var sessions []queries.SessionDTO
	if err := json.Unmarshal(val, &sessions); err != nil {
		return nil, false, fmt.Errorf("decode cached sessions: %w", err)
	}
	return sessions, true, nil
}

func (c *RedisSessionCache) Set(ctx context.Context, view queries.View, userID uuid.UUID, sessions []queries.SessionDTO) error {
	val, err := json.Marshal(sessions)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, redisKey(view, userID), val, c.ttl).Err()
}

// Invalidate drops every view of the given users.
func (c *RedisSessionCache) Invalidate(ctx context.Context, userIDs ...uuid.UUID) error {
	if len(userIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(userIDs)*len(views))
	for _, id := range userIDs {
		for _, view := range views {
			keys = append(keys, redisKey(view, id))
		}
	}
	return c.client.Del(ctx, keys...).Err()
}

// Health pings the server.
func (c *RedisSessionCache) Health(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
