package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/OneOfOne/xxhash"
	"github.com/redis/go-redis/v9"
)

const cachePrefix = "ytpage:"

// PageCache keeps search pages in Redis so repeated terms within the TTL
// window do not burn quota.
type PageCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewPageCache(rdb *redis.Client, ttl time.Duration) *PageCache {
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &PageCache{rdb: rdb, ttl: ttl}
}

func cacheKey(term, pageToken string) string {
	h := xxhash.NewS64(0)
	h.Write([]byte(term))
	h.Write([]byte{0})
	h.Write([]byte(pageToken))
	return fmt.Sprintf("%s%016x", cachePrefix, h.Sum64())
}

func (pc *PageCache) Get(ctx context.Context, term, pageToken string) (*Page, bool) {
	raw, err := pc.rdb.Get(ctx, cacheKey(term, pageToken)).Bytes()
	if err != nil {
		return nil, false
	}
	var page Page
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, false
	}
	return &page, true
}

func (pc *PageCache) Put(ctx context.Context, term, pageToken string, page *Page) {
	raw, err := json.Marshal(page)
	if err != nil {
		return
	}
	// Best effort: a cache write failure only costs quota later.
	pc.rdb.Set(ctx, cacheKey(term, pageToken), raw, pc.ttl)
}
