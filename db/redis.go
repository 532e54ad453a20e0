package db

import (
	"context"
	"fmt"
	"net"
	"time"

	"saveai-api/config"
	"saveai-api/logger"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisOptions builds the go-redis client options from AppConfig.Redis.
func RedisOptions() *redis.Options {
	cfg := config.AppConfig.Redis
	return &redis.Options{
		Addr:         net.JoinHostPort(cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	}
}

// ConnectRedis creates the cache client and pings it. Callers decide whether
// a failure is fatal; the API treats the cache as optional.
func ConnectRedis(ctx context.Context) (*redis.Client, error) {
	opts := RedisOptions()
	log := logger.Log.WithFields(logrus.Fields{
		"address": opts.Addr,
		"db":      opts.DB,
	})

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.WithError(err).Error("Failed to ping Redis")
		rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	log.Info("Redis connection established successfully")
	return rdb, nil
}
