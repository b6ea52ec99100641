package database

import (
	"context"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"akses-bot/internal/config"
)

// ConnectRedis opens the optional Redis connection used to short-circuit
// duplicate webhook notifications. Returns nil when REDIS_HOST is not set.
func ConnectRedis(cfg *config.Config) (*redis.Client, error) {
	if cfg.RedisHost == "" {
		log.Println("REDIS_HOST not set, duplicate notifications are handled by the database only")
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       0,
	})

	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Println("Connected to Redis")
	return rdb, nil
}
