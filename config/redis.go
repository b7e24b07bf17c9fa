package config

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

var RedisClient *redis.Client

// ConnectRedis initializes the Redis connection. When Redis cannot be reached
// the client stays nil and the service runs without caching.
func ConnectRedis(ctx context.Context) {
	addr := GetEnv("REDIS_HOST", "localhost") + ":" + GetEnv("REDIS_PORT", "6379")

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: GetEnv("REDIS_PASSWORD", ""),
		DB:       0,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		slog.Warn("redis connection failed, continuing without caching", "addr", addr, "error", err)
		_ = client.Close()
		RedisClient = nil
		return
	}

	RedisClient = client
	slog.Info("redis connected", "addr", addr)
}

// SetRedis replaces the client, nil disables caching.
func SetRedis(client *redis.Client) {
	RedisClient = client
}

// GetRedis returns the Redis client instance
func GetRedis() *redis.Client {
	return RedisClient
}

func CloseRedis() {
	if RedisClient != nil {
		_ = RedisClient.Close()
		RedisClient = nil
	}
}
