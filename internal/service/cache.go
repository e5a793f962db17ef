package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/mentormatch/mentor-match-go/internal/model"
	redisclient "github.com/mentormatch/mentor-match-go/internal/redis"
)

// FeaturedCache holds pages of the featured mentor list. Failures are
// logged and treated as misses; the database stays the source of truth.
type FeaturedCache interface {
	Get(ctx context.Context, page, limit int) (model.Page[model.Profile], bool)
	Set(ctx context.Context, page, limit int, value model.Page[model.Profile])
	Invalidate(ctx context.Context)
}

// RedisFeaturedCache keeps every cached page as a field of one hash so a
// single DEL invalidates all of them.
type RedisFeaturedCache struct {
	client *redisclient.Client
	ttl    time.Duration
}

func NewRedisFeaturedCache(client *redisclient.Client, ttl time.Duration) *RedisFeaturedCache {
	return &RedisFeaturedCache{client: client, ttl: ttl}
}

func pageField(page, limit int) string {
	return strconv.Itoa(page) + ":" + strconv.Itoa(limit)
}

func (c *RedisFeaturedCache) Get(ctx context.Context, page, limit int) (model.Page[model.Profile], bool) {
	var value model.Page[model.Profile]

	raw, err := c.client.HGet(ctx, redisclient.FeaturedMentorsKey, pageField(page, limit)).Bytes()
	if errors.Is(err, redis.Nil) {
		return value, false
	}
	if err != nil {
		log.Warn().Err(err).Msg("featured cache read failed")
		return value, false
	}

	if err := json.Unmarshal(raw, &value); err != nil {
		log.Warn().Err(err).Msg("featured cache entry corrupt")
		return value, false
	}
	return value, true
}

func (c *RedisFeaturedCache) Set(ctx context.Context, page, limit int, value model.Page[model.Profile]) {
	raw, err := json.Marshal(value)
	if err != nil {
		log.Warn().Err(err).Msg("featured cache encode failed")
		return
	}

	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, redisclient.FeaturedMentorsKey, pageField(page, limit), raw)
	pipe.Expire(ctx, redisclient.FeaturedMentorsKey, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Warn().Err(err).Msg("featured cache write failed")
	}
}

func (c *RedisFeaturedCache) Invalidate(ctx context.Context) {
	if err := c.client.Del(ctx, redisclient.FeaturedMentorsKey).Err(); err != nil {
		log.Warn().Err(err).Msg("featured cache invalidation failed")
	}
}

type NopFeaturedCache struct{}

func (NopFeaturedCache) Get(context.Context, int, int) (model.Page[model.Profile], bool) {
	return model.Page[model.Profile]{}, false
}

func (NopFeaturedCache) Set(context.Context, int, int, model.Page[model.Profile]) {}

func (NopFeaturedCache) Invalidate(context.Context) {}
