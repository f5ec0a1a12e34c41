package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "report:"

// RedisReportCache is the redis-backed ReportCache. Failures degrade to cache
// misses so report requests never fail on cache trouble.
type RedisReportCache struct {
	client *redis.Client
}

func NewRedis(addr, password string, db int) (*RedisReportCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisReportCache{client: client}, nil
}

func (c *RedisReportCache) Close() error {
	return c.client.Close()
}

func (c *RedisReportCache) Get(ctx context.Context, key string) ([]byte, bool) {
	payload, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Printf("[cache] get %s: %v", key, err)
		return nil, false
	}
	return payload, true
}

func (c *RedisReportCache) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) {
	if err := c.client.Set(ctx, keyPrefix+key, payload, ttl).Err(); err != nil {
		log.Printf("[cache] set %s: %v", key, err)
	}
}

// Invalidate drops every cached report. Called after sales or product data
// changes so reports never serve stale aggregates.
func (c *RedisReportCache) Invalidate(ctx context.Context) {
	iter := c.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	keys := make([]string, 0)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		log.Printf("[cache] scan: %v", err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		log.Printf("[cache] invalidate: %v", err)
	}
}
