package client

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"sharify/internal/querykeys"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetch_CachesAndSharesInFlight(t *testing.T) {
	cache := NewQueryCache(nil)
	var calls atomic.Int32
	release := make(chan struct{})
	fetch := func(context.Context) (string, error) {
		calls.Add(1)
		<-release
		return "feed", nil
	}

	var wg sync.WaitGroup
	results := make([]string, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := Fetch(context.Background(), cache, querykeys.PostsKey(), fetch)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		assert.Equal(t, "feed", r)
	}

	v, err := Fetch(context.Background(), cache, querykeys.PostsKey(), fetch)
	require.NoError(t, err)
	assert.Equal(t, "feed", v)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetch_ErrorsAreNotCached(t *testing.T) {
	cache := NewQueryCache(nil)
	boom := errors.New("boom")
	_, err := Fetch(context.Background(), cache, querykeys.PostKey(1), func(context.Context) (int, error) {
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, cache.Has(querykeys.PostKey(1)))
}

func TestFetch_InvalidationDuringFlightDiscardsResult(t *testing.T) {
	cache := NewQueryCache(nil)
	started := make(chan struct{})
	release := make(chan struct{})

	done := make(chan string)
	go func() {
		v, _ := Fetch(context.Background(), cache, querykeys.CommentsKey(3), func(context.Context) (string, error) {
			close(started)
			<-release
			return "stale", nil
		})
		done <- v
	}()

	<-started
	cache.InvalidateChanges(querykeys.Change{Entity: querykeys.EntityComment, PostID: 3})
	close(release)

	assert.Equal(t, "stale", <-done, "the caller still gets its answer")
	assert.False(t, cache.Has(querykeys.CommentsKey(3)), "but it is not stored")

	v, err := Fetch(context.Background(), cache, querykeys.CommentsKey(3), func(context.Context) (string, error) {
		return "fresh", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "fresh", v)
}

func TestFetch_ContextCancelled(t *testing.T) {
	cache := NewQueryCache(nil)
	ctx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})
	defer close(release)

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := Fetch(ctx, cache, querykeys.ResourcesKey(), func(context.Context) (int, error) {
		<-release
		return 1, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInvalidateChanges_FollowsGraph(t *testing.T) {
	cache := NewQueryCache(nil)
	for _, k := range []querykeys.Key{
		querykeys.PostsKey(),
		querykeys.PostKey(7),
		querykeys.PostKey(8),
		querykeys.LikeStatusKey(7),
		querykeys.LikeStatusKey(8),
		querykeys.BookmarkStatusKey(7),
		querykeys.CommentsKey(7),
		querykeys.SearchKey("google"),
		querykeys.ResourcesKey(),
		querykeys.PublicProfileKey(2),
	} {
		cache.Set(k, true)
	}

	keys := cache.InvalidateChanges(querykeys.Change{Entity: querykeys.EntityLike, PostID: 7})
	assert.NotEmpty(t, keys)

	for _, gone := range []querykeys.Key{
		querykeys.PostsKey(), querykeys.PostKey(7), querykeys.LikeStatusKey(7), querykeys.SearchKey("google"),
	} {
		assert.False(t, cache.Has(gone), gone.String())
	}
	for _, kept := range []querykeys.Key{
		querykeys.PostKey(8), querykeys.LikeStatusKey(8), querykeys.BookmarkStatusKey(7),
		querykeys.CommentsKey(7), querykeys.ResourcesKey(), querykeys.PublicProfileKey(2),
	} {
		assert.True(t, cache.Has(kept), kept.String())
	}
}

func TestInvalidate_WholeFamily(t *testing.T) {
	cache := NewQueryCache(nil)
	cache.Set(querykeys.SearchKey("a"), 1)
	cache.Set(querykeys.SearchKey("b"), 2)
	cache.Set(querykeys.PostsKey(), 3)

	cache.Invalidate(querykeys.Key{Family: querykeys.Search})

	assert.False(t, cache.Has(querykeys.SearchKey("a")))
	assert.False(t, cache.Has(querykeys.SearchKey("b")))
	assert.True(t, cache.Has(querykeys.PostsKey()))
}

func TestUpdateAndPeek(t *testing.T) {
	cache := NewQueryCache(nil)
	assert.False(t, Update(cache, querykeys.PostKey(1), func(n int) int { return n + 1 }))

	cache.Set(querykeys.PostKey(1), 41)
	assert.True(t, Update(cache, querykeys.PostKey(1), func(n int) int { return n + 1 }))

	v, ok := Peek[int](cache, querykeys.PostKey(1))
	require.True(t, ok)
	assert.Equal(t, 42, v)

	_, ok = Peek[string](cache, querykeys.PostKey(1))
	assert.False(t, ok)
}

func TestClear(t *testing.T) {
	cache := NewQueryCache(nil)
	cache.Set(querykeys.PostsKey(), 1)
	cache.Set(querykeys.ProfileKey(1), 2)
	cache.Clear()
	assert.Equal(t, 0, cache.Len())
}
