package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/valkey-io/valkey-go"
)

const valkeyOpTimeout = 3 * time.Second

// ValkeyCache stores entries in a shared Valkey (or Redis) server
type ValkeyCache struct {
	client valkey.Client
	ttl    time.Duration
}

// NewValkeyCache connects and pings the server
func NewValkeyCache(address, password string, ttl time.Duration) (*ValkeyCache, error) {
	if address == "" {
		return nil, fmt.Errorf("valkey address is required")
	}

	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress:      []string{address},
		Password:         password,
		ConnWriteTimeout: 5 * time.Second,
		SelectDB:         0,
	})
	if err != nil {
		return nil, fmt.Errorf("create valkey client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), valkeyOpTimeout)
	defer cancel()

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping valkey: %w", err)
	}

	slog.Info("[Cache] Successfully connected to valkey", slog.String("address", address))
	return &ValkeyCache{client: client, ttl: ttl}, nil
}

// Get retrieves a value
func (c *ValkeyCache) Get(key string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), valkeyOpTimeout)
	defer cancel()

	data, err := c.client.Do(ctx, c.client.B().Get().Key(key).Build()).AsBytes()
	if err != nil {
		if !valkey.IsValkeyNil(err) {
			slog.Warn("[Cache] valkey get failed", slog.String("error", err.Error()))
		}
		return nil, false
	}
	return data, true
}

// Set stores a value with an expiry
func (c *ValkeyCache) Set(key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.ttl
	}
	seconds := int64(ttl / time.Second)
	if seconds < 1 {
		seconds = 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), valkeyOpTimeout)
	defer cancel()

	cmds := []valkey.Completed{
		c.client.B().Set().Key(key).Value(valkey.BinaryString(value)).Build(),
		c.client.B().Expire().Key(key).Seconds(seconds).Build(),
	}
	for _, res := range c.client.DoMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			return fmt.Errorf("valkey set: %w", err)
		}
	}
	return nil
}

// Delete removes a value
func (c *ValkeyCache) Delete(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), valkeyOpTimeout)
	defer cancel()
	return c.client.Do(ctx, c.client.B().Del().Key(key).Build()).Error()
}

// Clear removes every key this application wrote
func (c *ValkeyCache) Clear() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var cursor uint64
	for {
		entry, err := c.client.Do(ctx, c.client.B().Scan().Cursor(cursor).Match("verisense:v1:*").Count(200).Build()).AsScanEntry()
		if err != nil {
			return fmt.Errorf("valkey scan: %w", err)
		}
		if len(entry.Elements) > 0 {
			if err := c.client.Do(ctx, c.client.B().Del().Key(entry.Elements...).Build()).Error(); err != nil {
				return fmt.Errorf("valkey del: %w", err)
			}
		}
		cursor = entry.Cursor
		if cursor == 0 {
			return nil
		}
	}
}

// Close releases the connection pool
func (c *ValkeyCache) Close() {
	c.client.Close()
}
