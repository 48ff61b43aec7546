package infra

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/go-redis/redis/v8"
)

func NewRedisClient(ctx context.Context, config RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.Database,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrapf(err, "unable to reach redis at %s", config.Addr)
	}
	return client, nil
}
