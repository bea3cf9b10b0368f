package redis

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/oksasatya/mother-community/internal/domain/entity"
	"github.com/oksasatya/mother-community/internal/domain/repository"
	"github.com/oksasatya/mother-community/pkg/helpers"
)

const directoryKey = "directory:profiles"

// DirectoryCache stores the full profile listing as one JSON value.
type DirectoryCache struct {
	rdb *goredis.Client
	ttl time.Duration
}

func NewDirectoryCache(rdb *goredis.Client, ttl time.Duration) *DirectoryCache {
	return &DirectoryCache{rdb: rdb, ttl: ttl}
}

func (c *DirectoryCache) Get(ctx context.Context) ([]entity.Profile, bool, error) {
	var profiles []entity.Profile
	ok, err := helpers.RedisGetJSON(ctx, c.rdb, directoryKey, &profiles)
	if err != nil || !ok {
		return nil, false, err
	}
	return profiles, true, nil
}

func (c *DirectoryCache) Set(ctx context.Context, profiles []entity.Profile) error {
	if c.ttl <= 0 {
		return nil
	}
	return helpers.RedisSetJSON(ctx, c.rdb, directoryKey, profiles, c.ttl)
}

func (c *DirectoryCache) Invalidate(ctx context.Context) error {
	return helpers.RedisDel(ctx, c.rdb, directoryKey)
}

var _ repository.DirectoryCache = (*DirectoryCache)(nil)
