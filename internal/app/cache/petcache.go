// Package cache provides an optional redis-backed read-through cache for
// pet lookups. Cache failures degrade to store reads and are logged at
// debug level only.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/pawmart/petstore/internal/app/domain/catalog"
	"github.com/pawmart/petstore/internal/config"
	"github.com/pawmart/petstore/pkg/logger"
)

// PetCache caches pets in redis keyed by id.
type PetCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

// NewPetCache connects to redis and verifies the connection. An error means
// the caller should run without a cache.
func NewPetCache(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) (*PetCache, error) {
	if log == nil {
		log = logger.NewDefault("petcache")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &PetCache{client: client, ttl: ttl, log: log}, nil
}

func key(id int64) string { return fmt.Sprintf("pet:%d", id) }

// GetPet returns a cached pet and whether it was present.
func (c *PetCache) GetPet(ctx context.Context, id int64) (catalog.Pet, bool) {
	data, err := c.client.Get(ctx, key(id)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.WithError(err).Debug("pet cache read failed")
		}
		return catalog.Pet{}, false
	}

	var p catalog.Pet
	if err := json.Unmarshal(data, &p); err != nil {
		c.log.WithError(err).Debug("pet cache entry corrupt")
		return catalog.Pet{}, false
	}
	return p, true
}

// SetPet stores a pet with the configured TTL.
func (c *PetCache) SetPet(ctx context.Context, p catalog.Pet) {
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key(p.ID), data, c.ttl).Err(); err != nil {
		c.log.WithError(err).Debug("pet cache write failed")
	}
}

// InvalidatePet drops a pet from the cache.
func (c *PetCache) InvalidatePet(ctx context.Context, id int64) {
	if err := c.client.Del(ctx, key(id)).Err(); err != nil {
		c.log.WithError(err).Debug("pet cache invalidation failed")
	}
}

// Close releases the redis connection.
func (c *PetCache) Close() error { return c.client.Close() }
