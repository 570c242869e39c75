// Package cache holds the optional redis cache in front of inventory listings.
// With caching disabled every call is a no-op miss.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"backoffice/internal/config"
	"backoffice/internal/core"

	"github.com/redis/go-redis/v9"
)

const (
	inventoryKeyPrefix  = "inventory:list:"
	scanBatchSize       = 100
	defaultInventoryTTL = 30 * time.Second
)

// InventoryCache stores ListItems results keyed by filter.
type InventoryCache interface {
	GetItems(ctx context.Context, filter core.InventoryFilter) ([]core.InventoryItem, bool, error)
	SetItems(ctx context.Context, filter core.InventoryFilter, items []core.InventoryItem) error
	// InvalidateAll drops every cached listing. Called after any quantity or price change.
	InvalidateAll(ctx context.Context) error
	Close() error
}

type redisInventoryCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopInventoryCache struct{}

// NewInventoryCache connects to redis when caching is enabled and returns a
// no-op cache otherwise.
func NewInventoryCache(cfg config.CacheConfig) (InventoryCache, error) {
	if !cfg.Enabled {
		return NewNoopInventoryCache(), nil
	}

	opts, err := buildRedisOptions(cfg)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	ttl := time.Duration(cfg.InventoryTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = defaultInventoryTTL
	}
	return &redisInventoryCache{client: client, ttl: ttl}, nil
}

func NewNoopInventoryCache() InventoryCache {
	return noopInventoryCache{}
}

func buildRedisOptions(cfg config.CacheConfig) (*redis.Options, error) {
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		return opt, nil
	}

	host := cfg.RedisHost
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.RedisPort
	if port == "" {
		port = "6379"
	}
	return &redis.Options{
		Addr:     net.JoinHostPort(host, port),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, nil
}

// inventoryKey renders a filter as a cache key.
func inventoryKey(filter core.InventoryFilter) string {
	if filter.ProductID == nil {
		return inventoryKeyPrefix + "all"
	}
	return inventoryKeyPrefix + "product:" + strconv.Itoa(*filter.ProductID)
}

func (c *redisInventoryCache) GetItems(ctx context.Context, filter core.InventoryFilter) ([]core.InventoryItem, bool, error) {
	payload, err := c.client.Get(ctx, inventoryKey(filter)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var items []core.InventoryItem
	if err := json.Unmarshal(payload, &items); err != nil {
		return nil, false, fmt.Errorf("decode inventory cache: %w", err)
	}
	return items, true, nil
}

func (c *redisInventoryCache) SetItems(ctx context.Context, filter core.InventoryFilter, items []core.InventoryItem) error {
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode inventory cache: %w", err)
	}
	if err := c.client.Set(ctx, inventoryKey(filter), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisInventoryCache) InvalidateAll(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, inventoryKeyPrefix+"*", scanBatchSize).Result()
		if err != nil {
			return fmt.Errorf("redis scan failed: %w", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis delete failed: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

func (c *redisInventoryCache) Close() error {
	return c.client.Close()
}

func (noopInventoryCache) GetItems(context.Context, core.InventoryFilter) ([]core.InventoryItem, bool, error) {
	return nil, false, nil
}

func (noopInventoryCache) SetItems(context.Context, core.InventoryFilter, []core.InventoryItem) error {
	return nil
}

func (noopInventoryCache) InvalidateAll(context.Context) error { return nil }

func (noopInventoryCache) Close() error { return nil }
