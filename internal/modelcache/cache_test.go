package modelcache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_HitAndVersionChange(t *testing.T) {
	c := New[string](0)
	ctx := context.Background()
	var loads atomic.Int32
	load := func(v string) func(context.Context) (string, error) {
		return func(context.Context) (string, error) {
			loads.Add(1)
			return v, nil
		}
	}

	v, hit, err := c.Get(ctx, "ST", "v1", load("a"))
	require.NoError(t, err)
	assert.Equal(t, "a", v)
	assert.False(t, hit)

	v, hit, err = c.Get(ctx, "ST", "v1", load("ignored"))
	require.NoError(t, err)
	assert.Equal(t, "a", v)
	assert.True(t, hit)

	v, hit, err = c.Get(ctx, "ST", "v2", load("b"))
	require.NoError(t, err)
	assert.Equal(t, "b", v)
	assert.False(t, hit)

	assert.Equal(t, int32(2), loads.Load())
	assert.Equal(t, 1, c.Len())
}

func TestCache_TTL(t *testing.T) {
	c := New[int](time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	n := 0
	load := func(context.Context) (int, error) { n++; return n, nil }

	v, _, _ := c.Get(context.Background(), "k", "v", load)
	assert.Equal(t, 1, v)
	now = now.Add(30 * time.Second)
	v, hit, _ := c.Get(context.Background(), "k", "v", load)
	assert.True(t, hit)
	assert.Equal(t, 1, v)
	now = now.Add(time.Minute)
	v, hit, _ = c.Get(context.Background(), "k", "v", load)
	assert.False(t, hit)
	assert.Equal(t, 2, v)
}

func TestCache_ErrorsAreNotCached(t *testing.T) {
	c := New[int](0)
	boom := errors.New("boom")
	_, _, err := c.Get(context.Background(), "k", "v", func(context.Context) (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())

	v, hit, err := c.Get(context.Background(), "k", "v", func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 7, v)
}

func TestCache_SingleFlight(t *testing.T) {
	c := New[int](0)
	var loads atomic.Int32
	release := make(chan struct{})
	load := func(context.Context) (int, error) {
		loads.Add(1)
		<-release
		return 42, nil
	}

	const n = 16
	var wg sync.WaitGroup
	results := make([]int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, _, err := c.Get(context.Background(), "ST", "v1", load)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), loads.Load())
	for _, v := range results {
		assert.Equal(t, 42, v)
	}
}

func TestCache_Invalidate(t *testing.T) {
	c := New[int](0)
	_, _, _ = c.Get(context.Background(), "a", "v", func(context.Context) (int, error) { return 1, nil })
	_, _, _ = c.Get(context.Background(), "b", "v", func(context.Context) (int, error) { return 2, nil })
	c.Invalidate("a")
	assert.Equal(t, 1, c.Len())
	c.Purge()
	assert.Equal(t, 0, c.Len())
}
