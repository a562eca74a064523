package cache

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingCache fails every operation, standing in for an unreachable Valkey
type failingCache struct{}

func (failingCache) Get(_ context.Context, key string) ([]byte, error) {
	return nil, &CacheError{Operation: "get", Key: key, Err: assert.AnError}
}

func (failingCache) Set(_ context.Context, key string, _ []byte, _ time.Duration) error {
	return &CacheError{Operation: "set", Key: key, Err: assert.AnError}
}

func (failingCache) Delete(_ context.Context, key string) error {
	return &CacheError{Operation: "delete", Key: key, Err: assert.AnError}
}

func (failingCache) Close() error                 { return nil }
func (failingCache) Health(context.Context) error { return assert.AnError }

func TestMemoryCache_Basic(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(10)

	require.NoError(t, c.Set(ctx, "key1", []byte("value1"), time.Hour))

	value, err := c.Get(ctx, "key1")
	require.NoError(t, err)
	assert.Equal(t, []byte("value1"), value)

	value, err = c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, value)

	require.NoError(t, c.Delete(ctx, "key1"))
	value, _ = c.Get(ctx, "key1")
	assert.Nil(t, value)
}

func TestMemoryCache_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(10)

	input := []byte("abc")
	require.NoError(t, c.Set(ctx, "k", input, 0))
	input[0] = 'x'

	out, _ := c.Get(ctx, "k")
	assert.Equal(t, []byte("abc"), out)
	out[0] = 'y'

	again, _ := c.Get(ctx, "k")
	assert.Equal(t, []byte("abc"), again)
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(10)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "short", []byte("v"), time.Minute))
	require.NoError(t, c.Set(ctx, "forever", []byte("v"), 0))

	now = now.Add(2 * time.Minute)

	value, err := c.Get(ctx, "short")
	require.NoError(t, err)
	assert.Nil(t, value)

	value, _ = c.Get(ctx, "forever")
	assert.Equal(t, []byte("v"), value)
	assert.Equal(t, 1, c.Len())
}

func TestMemoryCache_EvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(2)

	require.NoError(t, c.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), 0))

	// touch a so b becomes the oldest
	_, _ = c.Get(ctx, "a")
	require.NoError(t, c.Set(ctx, "c", []byte("3"), 0))

	a, _ := c.Get(ctx, "a")
	b, _ := c.Get(ctx, "b")
	cc, _ := c.Get(ctx, "c")
	assert.NotNil(t, a)
	assert.Nil(t, b)
	assert.NotNil(t, cc)
	assert.Equal(t, 2, c.Len())
}

func TestMultiLevel_PromotesL2Hits(t *testing.T) {
	ctx := context.Background()
	l1 := NewMemoryCache(10)
	l2 := NewMemoryCache(10)
	c := NewMultiLevel(l1, l2, time.Minute)

	require.NoError(t, l2.Set(ctx, "k", []byte("from-l2"), time.Hour))

	value, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("from-l2"), value)

	promoted, _ := l1.Get(ctx, "k")
	assert.Equal(t, []byte("from-l2"), promoted)
}

func TestMultiLevel_SetWritesBothLevels(t *testing.T) {
	ctx := context.Background()
	l1 := NewMemoryCache(10)
	l2 := NewMemoryCache(10)
	c := NewMultiLevel(l1, l2, time.Minute)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Hour))

	v1, _ := l1.Get(ctx, "k")
	v2, _ := l2.Get(ctx, "k")
	assert.Equal(t, []byte("v"), v1)
	assert.Equal(t, []byte("v"), v2)

	require.NoError(t, c.Delete(ctx, "k"))
	v1, _ = l1.Get(ctx, "k")
	v2, _ = l2.Get(ctx, "k")
	assert.Nil(t, v1)
	assert.Nil(t, v2)
}

func TestMultiLevel_L2FailureKeepsL1(t *testing.T) {
	ctx := context.Background()
	l1 := NewMemoryCache(10)
	c := NewMultiLevel(l1, failingCache{}, time.Minute)

	err := c.Set(ctx, "k", []byte("v"), time.Hour)
	assert.Error(t, err)

	value, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), value)

	_, err = c.Get(ctx, "other")
	var cacheErr *CacheError
	require.ErrorAs(t, err, &cacheErr)
	assert.Equal(t, "get", cacheErr.Operation)
	assert.Equal(t, "other", cacheErr.Key)
}

func TestMultiLevel_NilL2(t *testing.T) {
	ctx := context.Background()
	c := NewMultiLevel(NewMemoryCache(10), nil, time.Minute)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	value, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), value)
	assert.NoError(t, c.Health(ctx))
	assert.NoError(t, c.Close())
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(10)

	type payload struct {
		Name string `json:"name"`
	}

	require.NoError(t, SetJSON(ctx, c, "p", payload{Name: "IVE"}, time.Minute))

	var got payload
	ok, err := GetJSON(ctx, c, "p", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "IVE", got.Name)

	ok, err = GetJSON(ctx, c, "absent", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "bad", []byte("{"), 0))
	ok, err = GetJSON(ctx, c, "bad", &got)
	assert.False(t, ok)
	var cacheErr *CacheError
	require.ErrorAs(t, err, &cacheErr)
	assert.Equal(t, "decode", cacheErr.Operation)

	ok, err = GetJSON(ctx, nil, "p", &got)
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, SetJSON(ctx, nil, "p", got, 0))
}

func TestCacheError(t *testing.T) {
	originalErr := fmt.Errorf("connection refused")
	cacheErr := &CacheError{Operation: "set", Key: "test-key", Err: originalErr}

	assert.Equal(t, "cache set failed for key 'test-key': connection refused", cacheErr.Error())
	assert.Equal(t, originalErr, errors.Unwrap(cacheErr))

	bare := &CacheError{Operation: "get", Key: "k"}
	assert.Equal(t, "cache get failed for key 'k'", bare.Error())
}

func TestParseValkeyURL(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		addr     string
		password string
		wantErr  bool
	}{
		{"plain", "redis://localhost:6379", "localhost:6379", "", false},
		{"with password", "redis://:secret@cache:6379", "cache:6379", "secret", false},
		{"missing host", "redis://", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, password, err := parseValkeyURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.addr, addr)
			assert.Equal(t, tt.password, password)
		})
	}
}

func BenchmarkMemoryCache_Get(b *testing.B) {
	ctx := context.Background()
	c := NewMemoryCache(1000)
	_ = c.Set(ctx, "bench-key", []byte("bench-value"), time.Hour)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = c.Get(ctx, "bench-key")
	}
}
