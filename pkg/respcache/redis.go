package respcache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/harshalgo279-tech/mark-AADOS-v1/pkg/obslog"
)

// RedisStore is an alternate Store backend for multi-instance
// deployments, wired per SPEC_FULL.md §11's domain-stack table. It
// satisfies the same Store contract as MemoryStore so ResponseEngine
// is indifferent to which backend is configured.
type RedisStore struct {
	client *redis.Client
	hits   *int64
	misses *int64
}

// NewRedisStore connects to the given Redis URL (redis://...).
func NewRedisStore(redisURL string) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	var h, m int64
	return &RedisStore{client: redis.NewClient(opt), hits: &h, misses: &m}, nil
}

func redisKey(k Key) string {
	return fmt.Sprintf("respcache:%d:%s:%d", k.StateID, k.LeadID, k.Hash)
}

// Get implements Store.
func (r *RedisStore) Get(key Key) (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	val, err := r.client.Get(ctx, redisKey(key)).Result()
	if err == redis.Nil {
		*r.misses++
		return "", false
	}
	if err != nil {
		obslog.Err("respcache_redis", err).Msg("get failed")
		*r.misses++
		return "", false
	}
	*r.hits++
	return val, true
}

// Set implements Store.
func (r *RedisStore) Set(key Key, reply string, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	if err := r.client.Set(ctx, redisKey(key), reply, ttl).Err(); err != nil {
		obslog.Err("respcache_redis", err).Msg("set failed")
	}
}

// Stats implements Store. Redis does not track process-local entry
// counts cheaply, so Entries is reported as -1 (unknown).
func (r *RedisStore) Stats() Stats {
	return Stats{Entries: -1, Hits: *r.hits, Misses: *r.misses}
}
