package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Pesokrava/review_platform/internal/domain"
)

// RedisCache caches owner rating summaries and review list pages. Keys are
// scoped per owner so one invalidation call clears everything a review
// mutation could have staled.
type RedisCache struct {
	client         *redis.Client
	ownerStatsTTL  time.Duration
	reviewsListTTL time.Duration
}

// NewRedisCache creates a new Redis cache instance
func NewRedisCache(client *redis.Client, ownerStatsTTL, reviewsListTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:         client,
		ownerStatsTTL:  ownerStatsTTL,
		reviewsListTTL: reviewsListTTL,
	}
}

func (c *RedisCache) ownerStatsKey(owner domain.Owner) string {
	return fmt.Sprintf("%s:%s:stats", owner.Type, owner.ID)
}

func (c *RedisCache) reviewsListKey(owner domain.Owner, limit, offset int) string {
	return fmt.Sprintf("%s:%s:reviews:limit:%d:offset:%d", owner.Type, owner.ID, limit, offset)
}

func (c *RedisCache) ownerCacheKeysSet(owner domain.Owner) string {
	return fmt.Sprintf("%s:%s:cache_keys", owner.Type, owner.ID)
}

// GetOwnerStats retrieves a cached rating summary
func (c *RedisCache) GetOwnerStats(ctx context.Context, owner domain.Owner) (*domain.RatingStats, error) {
	val, err := c.client.Get(ctx, c.ownerStatsKey(owner)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	var stats domain.RatingStats
	if err := json.Unmarshal([]byte(val), &stats); err != nil {
		return nil, err
	}

	return &stats, nil
}

// SetOwnerStats stores a rating summary in cache
func (c *RedisCache) SetOwnerStats(ctx context.Context, owner domain.Owner, stats *domain.RatingStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, c.ownerStatsKey(owner), data, c.ownerStatsTTL).Err()
}

// GetReviewsList retrieves a cached reviews page for an owner
func (c *RedisCache) GetReviewsList(ctx context.Context, owner domain.Owner, limit, offset int) ([]*domain.Review, error) {
	val, err := c.client.Get(ctx, c.reviewsListKey(owner, limit, offset)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	var reviews []*domain.Review
	if err := json.Unmarshal([]byte(val), &reviews); err != nil {
		return nil, err
	}

	return reviews, nil
}

// SetReviewsList stores a reviews page in cache and tracks the key in a SET
func (c *RedisCache) SetReviewsList(ctx context.Context, owner domain.Owner, limit, offset int, reviews []*domain.Review) error {
	key := c.reviewsListKey(owner, limit, offset)
	trackingKey := c.ownerCacheKeysSet(owner)

	data, err := json.Marshal(reviews)
	if err != nil {
		return err
	}

	pipe := c.client.Pipeline()
	pipe.Set(ctx, key, data, c.reviewsListTTL)
	pipe.SAdd(ctx, trackingKey, key)
	pipe.Expire(ctx, trackingKey, c.reviewsListTTL)
	_, err = pipe.Exec(ctx)
	return err
}

// InvalidateOwner removes the rating summary and all cached review pages for
// an owner using SET-based key tracking
func (c *RedisCache) InvalidateOwner(ctx context.Context, owner domain.Owner) error {
	trackingKey := c.ownerCacheKeysSet(owner)

	keys, err := c.client.SMembers(ctx, trackingKey).Result()
	if err != nil && err != redis.Nil {
		return err
	}

	keys = append(keys, c.ownerStatsKey(owner), trackingKey)
	return c.client.Unlink(ctx, keys...).Err()
}
