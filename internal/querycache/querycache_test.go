package querycache

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryStore_GetSetExpire(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Date(2025, 3, 4, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Set(ctx, "auctions/detail/1", []byte(`{"id":"1"}`), time.Minute))

	value, ok, err := store.Get(ctx, "auctions/detail/1")
	require.NoError(t, err)
	require.True(t, ok)
	require.JSONEq(t, `{"id":"1"}`, string(value))

	// returned slices are copies
	value[0] = 'X'
	again, _, _ := store.Get(ctx, "auctions/detail/1")
	require.Equal(t, byte('{'), again[0])

	now = now.Add(time.Minute)
	_, ok, err = store.Get(ctx, "auctions/detail/1")
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, 0, store.Len())
}

func TestMemoryStore_DeletePrefix(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()
	for _, k := range []string{"auctions/list/page=1", "auctions/detail/7", "bids/list/7/1/10", "bids/list/8/1/10"} {
		require.NoError(t, store.Set(ctx, k, []byte("x"), time.Minute))
	}

	require.NoError(t, store.DeletePrefix(ctx, AuctionBidsPrefix("7")))
	require.Equal(t, 3, store.Len())

	require.NoError(t, store.DeletePrefix(ctx, PrefixAuctions))
	require.Equal(t, 1, store.Len())

	_, ok, _ := store.Get(ctx, "bids/list/8/1/10")
	require.True(t, ok)
}

func TestCache_FetchCachesAndDeduplicates(t *testing.T) {
	t.Parallel()

	cache := New(NewMemoryStore(), time.Minute)
	var calls atomic.Int32
	release := make(chan struct{})

	load := func(ctx context.Context) ([]byte, error) {
		calls.Add(1)
		<-release
		return []byte(`{"items":[]}`), nil
	}

	const callers = 20
	var wg sync.WaitGroup
	results := make([][]byte, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = cache.Fetch(context.Background(), "auctions/list/", load)
		}(i)
	}

	// let the callers pile up behind the first load
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		require.JSONEq(t, `{"items":[]}`, string(results[i]))
	}
	require.LessOrEqual(t, calls.Load(), int32(2))

	before := calls.Load()
	_, err := cache.Fetch(context.Background(), "auctions/list/", load)
	require.NoError(t, err)
	require.Equal(t, before, calls.Load(), "fresh value served from store")
}

func TestCache_InvalidateForcesReload(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cache := New(NewMemoryStore(), time.Minute)
	version := 0
	load := func(context.Context) ([]byte, error) {
		version++
		return []byte{byte('0' + version)}, nil
	}

	first, err := cache.Fetch(ctx, AuctionDetailKey("1"), load)
	require.NoError(t, err)
	require.Equal(t, "1", string(first))

	require.NoError(t, cache.Invalidate(ctx, AuctionDetailKey("1"), AuctionBidsPrefix("1")))

	second, err := cache.Fetch(ctx, AuctionDetailKey("1"), load)
	require.NoError(t, err)
	require.Equal(t, "2", string(second))
}

func TestCache_LoadErrorNotCached(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cache := New(NewMemoryStore(), time.Minute)
	boom := errors.New("boom")

	_, err := cache.Fetch(ctx, "k", func(context.Context) ([]byte, error) { return nil, boom })
	require.ErrorIs(t, err, boom)

	value, err := cache.Fetch(ctx, "k", func(context.Context) ([]byte, error) { return []byte("ok"), nil })
	require.NoError(t, err)
	require.Equal(t, "ok", string(value))
}

func TestCache_StaleLoadNotWrittenAfterInvalidate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()
	cache := New(store, time.Minute)

	_, err := cache.Fetch(ctx, "auctions/detail/1", func(ctx context.Context) ([]byte, error) {
		require.NoError(t, cache.Invalidate(ctx, PrefixAuctionDetail))
		return []byte("stale"), nil
	})
	require.NoError(t, err)
	require.Equal(t, 0, store.Len())
}

func TestCache_CancelledCallerDoesNotFailOthers(t *testing.T) {
	t.Parallel()

	cache := New(NewMemoryStore(), time.Minute)
	started := make(chan struct{})
	release := make(chan struct{})
	var loadErr atomic.Value

	load := func(ctx context.Context) ([]byte, error) {
		close(started)
		<-release
		if err := ctx.Err(); err != nil {
			loadErr.Store(err)
			return nil, err
		}
		return []byte(`{"id":"1"}`), nil
	}

	leaderCtx, cancel := context.WithCancel(context.Background())
	leaderDone := make(chan error, 1)
	go func() {
		_, err := cache.Fetch(leaderCtx, AuctionDetailKey("1"), load)
		leaderDone <- err
	}()
	<-started

	followerDone := make(chan []byte, 1)
	followerErr := make(chan error, 1)
	go func() {
		value, err := cache.Fetch(context.Background(), AuctionDetailKey("1"), load)
		followerErr <- err
		followerDone <- value
	}()

	// the first visitor leaves while the shared load is in flight
	cancel()
	err := <-leaderDone
	require.ErrorIs(t, err, context.Canceled)

	close(release)
	require.NoError(t, <-followerErr)
	require.JSONEq(t, `{"id":"1"}`, string(<-followerDone))
	require.Nil(t, loadErr.Load(), "shared load must not see the first caller's cancellation")

	// the detached load still populated the cache
	value, err := cache.Fetch(context.Background(), AuctionDetailKey("1"), func(context.Context) ([]byte, error) {
		return nil, errors.New("should be served from cache")
	})
	require.NoError(t, err)
	require.JSONEq(t, `{"id":"1"}`, string(value))
}

func TestCache_InvalidateDetailKeepsOtherAuctions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()
	cache := New(store, time.Minute)
	for _, id := range []string{"1", "10", "11"} {
		require.NoError(t, store.Set(ctx, AuctionDetailKey(id), []byte(id), time.Minute))
	}

	require.NoError(t, cache.Invalidate(ctx, AuctionDetailKey("1")))

	_, ok, _ := store.Get(ctx, AuctionDetailKey("1"))
	require.False(t, ok)
	for _, id := range []string{"10", "11"} {
		value, ok, err := store.Get(ctx, AuctionDetailKey(id))
		require.NoError(t, err)
		require.True(t, ok, "auction %s must stay cached", id)
		require.Equal(t, id, string(value))
	}
}

type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("connection refused")
}

func (failingStore) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("connection refused")
}

func (failingStore) DeletePrefix(context.Context, string) error {
	return errors.New("connection refused")
}

func TestCache_StoreFailureDegradesToMiss(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cache := New(failingStore{}, 0)

	value, err := cache.Fetch(ctx, "k", func(context.Context) ([]byte, error) { return []byte("live"), nil })
	require.NoError(t, err)
	require.Equal(t, "live", string(value))

	require.Error(t, cache.Invalidate(ctx, "k"))
}

func TestKeys(t *testing.T) {
	t.Parallel()

	require.Equal(t, "auctions/detail/abc/", AuctionDetailKey("abc"))
	require.Equal(t, "bids/list/abc/2/10", AuctionBidsKey("abc", 2, 10))
	require.Equal(t, "auctions/list/limit=10&page=1&status=ACTIVE",
		AuctionListKey(url.Values{"status": {"ACTIVE"}, "page": {"1"}, "limit": {"10"}}))
	require.Equal(t, "comments/auction/abc/parentId=p1", AuctionCommentsKey("abc", url.Values{"parentId": {"p1"}}))
	require.Equal(t, AuctionCommentsPrefix("abc"), AuctionCommentsKey("abc", nil))
}

func TestEscapeGlob(t *testing.T) {
	t.Parallel()
	require.Equal(t, `auctions/list/q=\*\?\[x\]`, escapeGlob("auctions/list/q=*?[x]"))
	require.Equal(t, "plain/key", escapeGlob("plain/key"))
}
