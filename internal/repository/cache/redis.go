package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"docvault/internal/config"
	"docvault/internal/model"
	"docvault/internal/repository"
)

const keyPrefix = "docvault:permissions:user:"

// RedisPermissions caches permission lists in Redis so every API replica shares them.
// Redis failures never fail a request: reads fall through to the repository.
type RedisPermissions struct {
	next   repository.PermissionRepository
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

var _ repository.PermissionRepository = (*RedisPermissions)(nil)

// NewRedisClient connects to Redis and verifies connectivity.
func NewRedisClient(ctx context.Context, cfg config.CacheConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func NewRedisPermissions(next repository.PermissionRepository, client *redis.Client, ttl time.Duration, log *zap.Logger) *RedisPermissions {
	return &RedisPermissions{next: next, client: client, ttl: ttl, log: log}
}

func (c *RedisPermissions) Grant(ctx context.Context, p model.Permission) (model.Permission, error) {
	out, err := c.next.Grant(ctx, p)
	c.invalidate(ctx, p.UserID)
	return out, err
}

func (c *RedisPermissions) ListByUser(ctx context.Context, userID string) ([]model.Permission, error) {
	key := keyPrefix + userID

	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var ps []model.Permission
		if err := json.Unmarshal(data, &ps); err == nil {
			return ps, nil
		}
		c.log.Warn("corrupt permission cache entry", zap.String("user_id", userID))
		c.client.Del(ctx, key)
	case !errors.Is(err, redis.Nil):
		c.log.Warn("permission cache read failed", zap.String("user_id", userID), zap.Error(err))
	}

	ps, err := c.next.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(ps); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.log.Warn("permission cache write failed", zap.String("user_id", userID), zap.Error(err))
		}
	}
	return ps, nil
}

func (c *RedisPermissions) ListByDocument(ctx context.Context, documentID string) ([]model.Permission, error) {
	return c.next.ListByDocument(ctx, documentID)
}

func (c *RedisPermissions) Revoke(ctx context.Context, p model.Permission) (bool, error) {
	ok, err := c.next.Revoke(ctx, p)
	c.invalidate(ctx, p.UserID)
	return ok, err
}

func (c *RedisPermissions) invalidate(ctx context.Context, userID string) {
	if err := c.client.Del(ctx, keyPrefix+userID).Err(); err != nil {
		c.log.Warn("permission cache invalidation failed", zap.String("user_id", userID), zap.Error(err))
	}
}
