package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const detailsKeyPrefix = "product:details:"

type redisDetailsCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisDetailsCache stores details as JSON strings with the given TTL.
func NewRedisDetailsCache(client redis.UniversalClient, ttl time.Duration) DetailsCache {
	return &redisDetailsCache{client: client, ttl: ttl}
}

func (c *redisDetailsCache) GetMany(ctx context.Context, ids []string) (map[string]Details, error) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = detailsKeyPrefix + id
	}
	vals, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]Details, len(ids))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var d Details
		if err := json.Unmarshal([]byte(s), &d); err != nil {
			continue
		}
		out[ids[i]] = d
	}
	return out, nil
}

func (c *redisDetailsCache) SetMany(ctx context.Context, details []Details) error {
	_, err := c.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, d := range details {
			b, err := json.Marshal(d)
			if err != nil {
				return err
			}
			pipe.Set(ctx, detailsKeyPrefix+d.ID, b, c.ttl)
		}
		return nil
	})
	return err
}
