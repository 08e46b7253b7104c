package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedPost struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
}

func withTestRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { SetClient(nil) })
	return mr
}

func TestCacheAside_FetchesAndStores(t *testing.T) {
	mr := withTestRedis(t)
	ctx := context.Background()

	calls := 0
	fetch := func() (cachedPost, error) {
		calls++
		return cachedPost{ID: 7, Title: "first"}, nil
	}

	got, err := CacheAside(ctx, PostKey(7), PostTTL, fetch)
	require.NoError(t, err)
	assert.Equal(t, cachedPost{ID: 7, Title: "first"}, got)
	assert.Equal(t, 1, calls)
	assert.True(t, mr.Exists(PostKey(7)))

	// Second read is served from the cache.
	got, err = CacheAside(ctx, PostKey(7), PostTTL, fetch)
	require.NoError(t, err)
	assert.Equal(t, cachedPost{ID: 7, Title: "first"}, got)
	assert.Equal(t, 1, calls)
}

func TestCacheAside_FetchErrorNotCached(t *testing.T) {
	mr := withTestRedis(t)
	ctx := context.Background()

	fetchErr := errors.New("db down")
	_, err := CacheAside(ctx, PostKey(9), PostTTL, func() (cachedPost, error) {
		return cachedPost{}, fetchErr
	})
	assert.ErrorIs(t, err, fetchErr)
	assert.False(t, mr.Exists(PostKey(9)))
}

func TestCacheAside_CorruptEntryRefetched(t *testing.T) {
	mr := withTestRedis(t)
	ctx := context.Background()

	require.NoError(t, mr.Set(PostKey(3), "{not json"))

	got, err := CacheAside(ctx, PostKey(3), time.Minute, func() (cachedPost, error) {
		return cachedPost{ID: 3, Title: "fresh"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "fresh", got.Title)
}

func TestCacheAside_NilClientDegradesToFetch(t *testing.T) {
	SetClient(nil)

	got, err := CacheAside(context.Background(), PostKey(1), time.Minute, func() (cachedPost, error) {
		return cachedPost{ID: 1, Title: "direct"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "direct", got.Title)
}

func TestInvalidateFeedPages_DropsOnlyFeedKeys(t *testing.T) {
	mr := withTestRedis(t)
	ctx := context.Background()

	require.NoError(t, mr.Set(FeedPageKey("hot", "day", 1, 25), "{}"))
	require.NoError(t, mr.Set(FeedPageKey("top", "week", 2, 25), "{}"))
	require.NoError(t, mr.Set(PostKey(5), "{}"))

	InvalidateFeedPages(ctx)

	assert.False(t, mr.Exists(FeedPageKey("hot", "day", 1, 25)))
	assert.False(t, mr.Exists(FeedPageKey("top", "week", 2, 25)))
	assert.True(t, mr.Exists(PostKey(5)))
}

func TestInvalidatePostDropsCommentTree(t *testing.T) {
	mr := withTestRedis(t)
	ctx := context.Background()

	require.NoError(t, mr.Set(PostKey(5), "{}"))
	require.NoError(t, mr.Set(CommentTreeKey(5), "[]"))

	InvalidatePost(ctx, 5)

	assert.False(t, mr.Exists(PostKey(5)))
	assert.False(t, mr.Exists(CommentTreeKey(5)))
}
