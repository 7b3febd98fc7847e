package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"threadhub/pkg/logger"
	"threadhub/pkg/models"
)

// CommentCache holds rendered comment lists per article and viewer
type CommentCache interface {
	Get(ctx context.Context, articleID int64, viewerID string) ([]models.CommentPayload, bool)
	Set(ctx context.Context, articleID int64, viewerID string, list []models.CommentPayload)
	Invalidate(ctx context.Context, articleID int64)
}

// NopCache never stores anything
type NopCache struct{}

func (NopCache) Get(context.Context, int64, string) ([]models.CommentPayload, bool) {
	return nil, false
}

func (NopCache) Set(context.Context, int64, string, []models.CommentPayload) {}

func (NopCache) Invalidate(context.Context, int64) {}

// RedisConfig holds redis cache configuration
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// redisCache versions keys per article; invalidation bumps the version so
// stale lists of every viewer become unreachable at once.
type redisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to redis and verifies the connection
func NewRedisCache(ctx context.Context, cfg RedisConfig) (CommentCache, error) {
	if cfg.TTL <= 0 {
		cfg.TTL = time.Minute
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	return &redisCache{client: client, ttl: cfg.TTL}, nil
}

func versionKey(articleID int64) string {
	return fmt.Sprintf("threadhub:comments:%d:version", articleID)
}

func (c *redisCache) listKey(ctx context.Context, articleID int64, viewerID string) (string, error) {
	version, err := c.client.Get(ctx, versionKey(articleID)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	return fmt.Sprintf("threadhub:comments:%d:v%d:%s", articleID, version, viewerID), nil
}

func (c *redisCache) Get(ctx context.Context, articleID int64, viewerID string) ([]models.CommentPayload, bool) {
	key, err := c.listKey(ctx, articleID, viewerID)
	if err != nil {
		logger.Warnf("cache: version lookup failed: %v", err)
		return nil, false
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warnf("cache: get %s failed: %v", key, err)
		}
		return nil, false
	}
	var list []models.CommentPayload
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, false
	}
	return list, true
}

func (c *redisCache) Set(ctx context.Context, articleID int64, viewerID string, list []models.CommentPayload) {
	key, err := c.listKey(ctx, articleID, viewerID)
	if err != nil {
		return
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		logger.Warnf("cache: set %s failed: %v", key, err)
	}
}

func (c *redisCache) Invalidate(ctx context.Context, articleID int64) {
	if err := c.client.Incr(ctx, versionKey(articleID)).Err(); err != nil {
		logger.Warnf("cache: invalidate article %d failed: %v", articleID, err)
	}
}
