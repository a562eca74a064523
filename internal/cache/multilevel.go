package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// MultiLevel layers a fast local cache in front of a shared one. Reads that
// miss L1 but hit L2 are copied back into L1 for l1TTL.
type MultiLevel struct {
	l1    Cache
	l2    Cache
	l1TTL time.Duration
}

// NewMultiLevel builds a two-level cache. l2 may be nil, in which case only
// l1 is used.
func NewMultiLevel(l1, l2 Cache, l1TTL time.Duration) *MultiLevel {
	return &MultiLevel{l1: l1, l2: l2, l1TTL: l1TTL}
}

func (c *MultiLevel) Get(ctx context.Context, key string) ([]byte, error) {
	if data, err := c.l1.Get(ctx, key); err == nil && data != nil {
		return data, nil
	}
	if c.l2 == nil {
		return nil, nil
	}

	data, err := c.l2.Get(ctx, key)
	if err != nil || data == nil {
		return nil, err
	}
	_ = c.l1.Set(ctx, key, data, c.l1TTL)
	return data, nil
}

// Set writes both levels. An L2 failure is logged and returned; L1 still
// holds the value.
func (c *MultiLevel) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	l1TTL := c.l1TTL
	if expiration > 0 && expiration < l1TTL {
		l1TTL = expiration
	}
	_ = c.l1.Set(ctx, key, value, l1TTL)

	if c.l2 == nil {
		return nil
	}
	if err := c.l2.Set(ctx, key, value, expiration); err != nil {
		slog.Warn("L2 cache set failed", "key", key, "error", err)
		return err
	}
	return nil
}

func (c *MultiLevel) Delete(ctx context.Context, key string) error {
	err := c.l1.Delete(ctx, key)
	if c.l2 != nil {
		err = errors.Join(err, c.l2.Delete(ctx, key))
	}
	return err
}

func (c *MultiLevel) Close() error {
	err := c.l1.Close()
	if c.l2 != nil {
		err = errors.Join(err, c.l2.Close())
	}
	return err
}

func (c *MultiLevel) Health(ctx context.Context) error {
	if c.l2 == nil {
		return c.l1.Health(ctx)
	}
	return c.l2.Health(ctx)
}
