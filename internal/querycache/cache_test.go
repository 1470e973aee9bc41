package querycache

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

const window = time.Minute

func TestKey_OrderInsensitive(t *testing.T) {
	a := NewKey("transactions", "account=acc-1", "page=2")
	b := NewKey("transactions", "page=2", "account=acc-1")

	assert.Equal(t, a.String(), b.String())
	assert.Equal(t, a, b)
}

func TestSelector_Matches(t *testing.T) {
	key := KeyTransactions("acc-1", 2)

	assert.True(t, FamilyTransactions("acc-1").Matches(key))
	assert.True(t, FamilyAllTransactions().Matches(key))
	assert.False(t, FamilyTransactions("acc-2").Matches(key))
	assert.False(t, FamilyAccounts().Matches(key))
}

func TestCache_ReadFetchesOnceWhenFresh(t *testing.T) {
	c := New(nil)
	var calls int32
	fetch := func(ctx context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		return "balance", nil
	}

	v1, err := c.Read(context.Background(), KeyAccounts(), window, fetch)
	require.NoError(t, err)
	v2, err := c.Read(context.Background(), KeyAccounts(), window, fetch)
	require.NoError(t, err)

	assert.Equal(t, "balance", v1)
	assert.Equal(t, "balance", v2)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, StateFresh, c.State(KeyAccounts()))
}

func TestCache_ConcurrentReadsDeduplicated(t *testing.T) {
	c := New(nil)
	var calls int32
	release := make(chan struct{})
	fetch := func(ctx context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return "v", nil
	}

	const readers = 8
	var wg sync.WaitGroup
	results := make([]any, readers)
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.Read(context.Background(), KeyHoldings(), window, fetch)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}

	// Let every reader reach the fetch before releasing it.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "all readers must share one network call")
	for _, v := range results {
		assert.Equal(t, "v", v)
	}
}

func TestCache_StaleEntryRefetchesOnRead(t *testing.T) {
	c := New(nil)
	var calls int32
	fetch := func(ctx context.Context) (any, error) {
		return int(atomic.AddInt32(&calls, 1)), nil
	}

	v, err := c.Read(context.Background(), KeyAccountSummary(), window, fetch)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	c.Invalidate(FamilyAccountSummary())
	assert.Equal(t, StateStale, c.State(KeyAccountSummary()))

	v, err = c.Read(context.Background(), KeyAccountSummary(), window, fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, v, "stale entry must trigger a fresh fetch")
	assert.Equal(t, StateFresh, c.State(KeyAccountSummary()))
}

func TestCache_FreshnessWindowElapsedRefetches(t *testing.T) {
	c := New(nil)
	now := time.Now()
	c.SetClock(func() time.Time { return now })

	var calls int32
	fetch := func(ctx context.Context) (any, error) {
		return int(atomic.AddInt32(&calls, 1)), nil
	}

	_, err := c.Read(context.Background(), KeyPortfolioSummary(), time.Minute, fetch)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)

	v, err := c.Read(context.Background(), KeyPortfolioSummary(), time.Minute, fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestCache_StaleValueRetainedOnRefetchFailure(t *testing.T) {
	c := New(nil)
	boom := errors.New("connection refused")
	fail := false
	fetch := func(ctx context.Context) (any, error) {
		if fail {
			return nil, boom
		}
		return "old-balance", nil
	}

	_, err := c.Read(context.Background(), KeyAccountSummary(), window, fetch)
	require.NoError(t, err)

	c.Invalidate(FamilyAccountSummary())
	fail = true

	v, err := c.Read(context.Background(), KeyAccountSummary(), window, fetch)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "old-balance", v, "stale value stays readable after a failed refetch")
	assert.Equal(t, StateStale, c.State(KeyAccountSummary()))
}

func TestCache_InvalidateIdempotentAndCommutative(t *testing.T) {
	seed := func() *Cache {
		c := New(nil)
		fetch := func(v any) FetchFunc {
			return func(ctx context.Context) (any, error) { return v, nil }
		}
		_, _ = c.Read(context.Background(), KeyAccounts(), window, fetch("accounts"))
		_, _ = c.Read(context.Background(), KeyAccountSummary(), window, fetch("summary"))
		_, _ = c.Read(context.Background(), KeyTransactions("acc-1", 1), window, fetch("tx-p1"))
		_, _ = c.Read(context.Background(), KeyTransactions("acc-1", 2), window, fetch("tx-p2"))
		_, _ = c.Read(context.Background(), KeyHoldings(), window, fetch("holdings"))
		return c
	}

	states := func(c *Cache) map[string]EntryState {
		return map[string]EntryState{
			"accounts": c.State(KeyAccounts()),
			"summary":  c.State(KeyAccountSummary()),
			"tx-p1":    c.State(KeyTransactions("acc-1", 1)),
			"tx-p2":    c.State(KeyTransactions("acc-1", 2)),
			"holdings": c.State(KeyHoldings()),
		}
	}

	t.Run("invalidating twice equals once", func(t *testing.T) {
		once := seed()
		once.Invalidate(FamilyTransactions("acc-1"))

		twice := seed()
		twice.Invalidate(FamilyTransactions("acc-1"))
		twice.Invalidate(FamilyTransactions("acc-1"))

		assert.Equal(t, states(once), states(twice))
	})

	t.Run("overlapping selectors commute", func(t *testing.T) {
		ab := seed()
		ab.Invalidate(FamilyAccounts(), FamilyAccountSummary())
		ab.Invalidate(FamilyAccountSummary(), FamilyTransactions("acc-1"))

		ba := seed()
		ba.Invalidate(FamilyAccountSummary(), FamilyTransactions("acc-1"))
		ba.Invalidate(FamilyAccounts(), FamilyAccountSummary())

		want := map[string]EntryState{
			"accounts": StateStale,
			"summary":  StateStale,
			"tx-p1":    StateStale,
			"tx-p2":    StateStale,
			"holdings": StateFresh,
		}
		assert.Equal(t, want, states(ab))
		assert.Equal(t, want, states(ba))
	})
}

func TestCache_FamilyInvalidationScopedToAccount(t *testing.T) {
	c := New(nil)
	fetch := func(ctx context.Context) (any, error) { return "x", nil }
	_, _ = c.Read(context.Background(), KeyTransactions("acc-1", 1), window, fetch)
	_, _ = c.Read(context.Background(), KeyTransactions("acc-2", 1), window, fetch)

	c.Invalidate(FamilyTransactions("acc-1"))

	assert.Equal(t, StateStale, c.State(KeyTransactions("acc-1", 1)))
	assert.Equal(t, StateFresh, c.State(KeyTransactions("acc-2", 1)))
}

func TestCache_InvalidationSupersedesInFlightFetch(t *testing.T) {
	c := New(nil)
	started := make(chan struct{})
	release := make(chan struct{})
	fetch := func(ctx context.Context) (any, error) {
		close(started)
		<-release
		return "pre-mutation-balance", nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		v, err := c.Read(context.Background(), KeyAccountSummary(), window, fetch)
		// The superseded result is still handed to the caller that asked.
		assert.NoError(t, err)
		assert.Equal(t, "pre-mutation-balance", v)
	}()

	<-started
	c.Invalidate(FamilyAccountSummary())
	close(release)
	<-done

	// The fetch started before the invalidation, so its result must not have
	// been installed as fresh.
	assert.NotEqual(t, StateFresh, c.State(KeyAccountSummary()))
}

func TestCache_ReadAfterInvalidationStartsNewFetch(t *testing.T) {
	c := New(nil)
	started := make(chan struct{})
	release := make(chan struct{})
	var calls int32
	blockingFetch := func(ctx context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		close(started)
		<-release
		return "pre-mutation-balance", nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := c.Read(context.Background(), KeyAccountSummary(), window, blockingFetch)
		assert.NoError(t, err)
	}()
	<-started

	c.Invalidate(FamilyAccountSummary())

	// A read issued after the invalidation must not attach to the fetch that
	// began before it; it gets its own fetch and installs the new value.
	v, err := c.Read(context.Background(), KeyAccountSummary(), window, func(ctx context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		return "post-mutation-balance", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "post-mutation-balance", v)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, StateFresh, c.State(KeyAccountSummary()))

	close(release)
	<-done

	// The pre-invalidation result must not overwrite the fresh entry once its
	// fetch finally settles.
	got, state, _ := c.Peek(KeyAccountSummary())
	assert.Equal(t, "post-mutation-balance", got)
	assert.Equal(t, StateFresh, state)
}

func TestCache_WriteSeversInFlightFetch(t *testing.T) {
	c := New(nil)
	now := time.Now()
	c.SetClock(func() time.Time { return now })

	started := make(chan struct{})
	release := make(chan struct{})
	fetch := func(ctx context.Context) (any, error) {
		close(started)
		<-release
		return "fetched-before-seed", nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := c.Read(context.Background(), KeyAccountDetail("acc-3"), window, fetch)
		assert.NoError(t, err)
	}()
	<-started

	c.Write(KeyAccountDetail("acc-3"), "authoritative")
	now = now.Add(window + time.Second)

	// The seeded value has aged out, so this read fetches; it must get its own
	// fetch rather than attach to the one that began before the seed.
	var calls int32
	v, err := c.Read(context.Background(), KeyAccountDetail("acc-3"), window, func(ctx context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		return "post-seed-refetch", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "post-seed-refetch", v)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	close(release)
	<-done

	got, state, _ := c.Peek(KeyAccountDetail("acc-3"))
	assert.Equal(t, "post-seed-refetch", got)
	assert.Equal(t, StateFresh, state)
}

func TestCache_WriteSeedsFreshEntry(t *testing.T) {
	c := New(nil)
	c.Write(KeyAccountDetail("acc-9"), "created-account")

	v, state, hasValue := c.Peek(KeyAccountDetail("acc-9"))
	assert.True(t, hasValue)
	assert.Equal(t, StateFresh, state)
	assert.Equal(t, "created-account", v)

	var calls int32
	fetch := func(ctx context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		return "refetched", nil
	}
	got, err := c.Read(context.Background(), KeyAccountDetail("acc-9"), window, fetch)
	require.NoError(t, err)
	assert.Equal(t, "created-account", got)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls), "seeded entry must not refetch")
}

func TestCache_ClearDiscardsEverything(t *testing.T) {
	c := New(nil)
	fetch := func(ctx context.Context) (any, error) { return "v", nil }
	_, _ = c.Read(context.Background(), KeyAccounts(), window, fetch)
	_, _ = c.Read(context.Background(), KeyHoldings(), window, fetch)
	require.Equal(t, 2, c.Len())

	c.Clear()

	assert.Equal(t, 0, c.Len())
	assert.Equal(t, StateEmpty, c.State(KeyAccounts()))
}

func TestCache_ReadStaleServesOldValueWhileRevalidating(t *testing.T) {
	c := New(nil)
	var calls int32
	released := make(chan struct{})
	fetch := func(ctx context.Context) (any, error) {
		n := atomic.AddInt32(&calls, 1)
		if n > 1 {
			defer close(released)
			return "new", nil
		}
		return "old", nil
	}

	_, err := c.Read(context.Background(), KeyRecentTransactions(), window, fetch)
	require.NoError(t, err)
	c.Invalidate(FamilyRecentTransactions())

	v, err := c.ReadStale(context.Background(), KeyRecentTransactions(), window, fetch)
	require.NoError(t, err)
	assert.Equal(t, "old", v, "stale read serves the previous value immediately")

	select {
	case <-released:
	case <-time.After(2 * time.Second):
		t.Fatal("background revalidation never ran")
	}

	require.Eventually(t, func() bool {
		v, _, _ := c.Peek(KeyRecentTransactions())
		return v == "new"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestReadAs_TypedRead(t *testing.T) {
	c := New(nil)
	got, err := ReadAs(context.Background(), c, KeyAccounts(), window, func(ctx context.Context) ([]string, error) {
		return []string{"acc-1", "acc-2"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"acc-1", "acc-2"}, got)
}
