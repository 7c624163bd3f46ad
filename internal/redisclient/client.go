package redisclient

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

//go:embed scripts/decrement_stock.lua
var decrementStockScript string

type Client struct {
	rdb             *redis.Client
	decrementScript *redis.Script
}

// NewClient creates a new Redis client with the stock script loaded
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{
		rdb:             rdb,
		decrementScript: redis.NewScript(decrementStockScript),
	}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func stockKey(tenantID, productID string) string {
	return fmt.Sprintf("stock:%s:%s", tenantID, productID)
}

// DecrementStock atomically decrements cached stock, floored at zero.
// Returns (remaining, true) on a cache hit, (0, false) when the product is
// not cached and the caller must fall back to the database.
func (c *Client) DecrementStock(ctx context.Context, tenantID, productID string, quantity int) (int64, bool, error) {
	result, err := c.decrementScript.Run(ctx, c.rdb,
		[]string{stockKey(tenantID, productID)}, quantity).Result()
	if err != nil {
		return 0, false, fmt.Errorf("decrement stock script failed: %w", err)
	}

	remaining, ok := result.(int64)
	if !ok {
		return 0, false, fmt.Errorf("unexpected script result type")
	}
	if remaining < 0 {
		return 0, false, nil
	}
	return remaining, true, nil
}

// SetStock seeds or refreshes the cached stock count for a product.
func (c *Client) SetStock(ctx context.Context, tenantID, productID string, stock int64) error {
	return c.rdb.Set(ctx, stockKey(tenantID, productID), stock, 0).Err()
}

// GetStock reads the cached stock count for a product.
func (c *Client) GetStock(ctx context.Context, tenantID, productID string) (int64, error) {
	val, err := c.rdb.Get(ctx, stockKey(tenantID, productID)).Int64()
	if err != nil {
		return 0, err
	}
	return val, nil
}
