package data

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"
)

const streamDiscoveries = "cartografia.descubrimientos"

func MustRedis(url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	return redis.NewClient(opt)
}

// PublishDiscovery pushes a newly confirmed streamer onto the discovery
// stream for downstream consumers (exporters, dashboards).
func PublishDiscovery(ctx context.Context, rdb *redis.Client, payload map[string]interface{}) error {
	_, err := rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: streamDiscoveries,
		Values: payload,
	}).Result()
	return err
}

// RecentDiscoveries returns the newest entries on the discovery stream,
// most recent first.
func RecentDiscoveries(ctx context.Context, rdb *redis.Client, count int64) ([]redis.XMessage, error) {
	return rdb.XRevRangeN(ctx, streamDiscoveries, "+", "-", count).Result()
}
