package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"feedreader-be/config"
)

// Cache TTL constants
const (
	CacheTTLSanitize      = 1 * time.Hour
	CacheTTLArticlesList  = 15 * time.Minute
	CacheTTLArticleDetail = 1 * time.Hour
)

// ErrCacheUnavailable is returned by reads when Redis is not connected.
var ErrCacheUnavailable = errors.New("redis not available")

// IsRedisAvailable checks if Redis client is connected
func IsRedisAvailable() bool {
	return config.GetRedis() != nil
}

// CacheGet retrieves cached data and unmarshals it into dest
func CacheGet(ctx context.Context, key string, dest any) error {
	if !IsRedisAvailable() {
		return ErrCacheUnavailable
	}

	val, err := config.GetRedis().Get(ctx, key).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(val, dest)
}

// CacheSet stores data in cache with TTL
func CacheSet(ctx context.Context, key string, value any, ttl time.Duration) error {
	if !IsRedisAvailable() {
		return ErrCacheUnavailable
	}

	jsonData, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return config.GetRedis().Set(ctx, key, jsonData, ttl).Err()
}

// CacheDelete removes cache keys, skipped when Redis is not available
func CacheDelete(ctx context.Context, keys ...string) error {
	if !IsRedisAvailable() || len(keys) == 0 {
		return nil
	}
	return config.GetRedis().Del(ctx, keys...).Err()
}

// CacheDeletePattern removes all keys matching pattern (e.g., "articles:list:*")
func CacheDeletePattern(ctx context.Context, pattern string) error {
	if !IsRedisAvailable() {
		return nil
	}

	client := config.GetRedis()

	var cursor uint64
	var keys []string
	for {
		scanKeys, next, err := client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return err
		}
		keys = append(keys, scanKeys...)

		cursor = next
		if cursor == 0 {
			break
		}
	}

	if len(keys) > 0 {
		return client.Del(ctx, keys...).Err()
	}
	return nil
}

// BuildCacheKey builds a cache key from parts
func BuildCacheKey(parts ...any) string {
	str := make([]string, len(parts))
	for i, part := range parts {
		str[i] = fmt.Sprintf("%v", part)
	}
	return strings.Join(str, ":")
}
