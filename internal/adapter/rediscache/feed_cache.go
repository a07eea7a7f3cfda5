// Package rediscache implements the feed-listing cache on Redis. Tier
// listings are stored as JSON blobs with a TTL; tier changes invalidate
// the affected keys. A miss or a Redis failure just falls through to
// the primary store.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"promofeed/internal/core/domain"
)

const keyPrefix = "feed:"

// FeedCache implements port.FeedCache.
type FeedCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New pings the Redis server and returns a cache handle.
func New(ctx context.Context, addr, password string, db int, ttl time.Duration) (*FeedCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &FeedCache{client: client, ttl: ttl}, nil
}

// Close releases the client.
func (c *FeedCache) Close() error {
	return c.client.Close()
}

func tierKey(tier domain.FeedTier) string {
	return keyPrefix + string(tier)
}

// GetTier returns the cached listing for a tier, if present.
func (c *FeedCache) GetTier(ctx context.Context, tier domain.FeedTier) ([]domain.Campaign, bool, error) {
	data, err := c.client.Get(ctx, tierKey(tier)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get feed cache: %w", err)
	}
	var campaigns []domain.Campaign
	if err = json.Unmarshal(data, &campaigns); err != nil {
		// A corrupt entry is treated as a miss.
		return nil, false, nil
	}
	return campaigns, true, nil
}

// SetTier stores a tier listing with the configured TTL.
func (c *FeedCache) SetTier(ctx context.Context, tier domain.FeedTier, campaigns []domain.Campaign) error {
	data, err := json.Marshal(campaigns)
	if err != nil {
		return err
	}
	if err = c.client.Set(ctx, tierKey(tier), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("set feed cache: %w", err)
	}
	return nil
}

// InvalidateTiers drops the cached listings for the given tiers.
func (c *FeedCache) InvalidateTiers(ctx context.Context, tiers ...domain.FeedTier) error {
	keys := make([]string, 0, len(tiers))
	for _, t := range tiers {
		if t == "" {
			continue
		}
		keys = append(keys, tierKey(t))
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("invalidate feed cache: %w", err)
	}
	return nil
}
