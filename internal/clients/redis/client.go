package redis

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/openlearnhq/openlearn-backend/internal/platform/logger"
	"github.com/openlearnhq/openlearn-backend/internal/utils"
)

type Client struct {
	rdb *goredis.Client
	log *logger.Logger
}

func NewClient(ctx context.Context, log *logger.Logger) (*Client, error) {
	clientLog := log.With("client", "Redis")

	host := utils.GetEnv("REDIS_HOST", "localhost", log)
	port := utils.GetEnv("REDIS_PORT", "6379", log)
	password := utils.GetEnv("REDIS_PASSWORD", "", log)
	db := utils.GetEnvAsInt("REDIS_DB", 0, log)

	rdb := goredis.NewClient(&goredis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		clientLog.Error("Failed to connect to Redis", "error", err)
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &Client{rdb: rdb, log: clientLog}, nil
}

func (c *Client) Raw() *goredis.Client { return c.rdb }

func (c *Client) Close() error { return c.rdb.Close() }
