package db

import (
	"context"
	"fmt"
	"time"

	"R2FM/config"

	"github.com/redis/go-redis/v9"
)

// RedisClient is the shared Redis client.
var RedisClient *redis.Client

// playURLTTL keeps cached presigned URLs comfortably inside their one-hour
// validity window.
const playURLTTL = 55 * time.Minute

// ConnectRedis initializes the Redis connection.
func ConnectRedis(cfg *config.Config) error {
	RedisClient = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := RedisClient.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return nil
}

// CloseRedis closes the Redis connection.
func CloseRedis() error {
	if RedisClient != nil {
		return RedisClient.Close()
	}
	return nil
}

func playURLKey(contentKey string) string {
	return "playurl:" + contentKey
}

// GetCachedPlayURL returns a previously issued presigned playback URL for the
// content key, or "" when none is cached.
func GetCachedPlayURL(ctx context.Context, contentKey string) (string, error) {
	if RedisClient == nil {
		return "", fmt.Errorf("Redis client not initialized")
	}

	url, err := RedisClient.Get(ctx, playURLKey(contentKey)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get cached play URL: %w", err)
	}
	return url, nil
}

// SetCachedPlayURL stores a presigned playback URL with a TTL shorter than
// the URL's validity, so clients never receive an expired reference.
func SetCachedPlayURL(ctx context.Context, contentKey, url string) error {
	if RedisClient == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	if err := RedisClient.Set(ctx, playURLKey(contentKey), url, playURLTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache play URL: %w", err)
	}
	return nil
}
