// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package geo

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/telekom/geotrace/internal/helper"
)

func newProviderMock(name string, lookup func(ctx context.Context, addr string) (Answer, error)) *ProviderMock {
	return &ProviderMock{
		NameFunc:   func() string { return name },
		LookupFunc: lookup,
	}
}

func failing(err error) func(context.Context, string) (Answer, error) {
	return func(context.Context, string) (Answer, error) {
		return Answer{}, err
	}
}

func answering(a Answer) func(context.Context, string) (Answer, error) {
	return func(context.Context, string) (Answer, error) {
		return a, nil
	}
}

var mountainView = Record{Latitude: 37.4, Longitude: -122.1, City: "Mountain View", Country: "United States", CountryCode: "US"}

func TestResolver_Fallback(t *testing.T) {
	tests := []struct {
		name    string
		primary func(context.Context, string) (Answer, error)
	}{
		{name: "primary fails in transport", primary: failing(errors.New("connection refused"))},
		{name: "primary declines", primary: answering(Decline("status %q", "fail"))},
		{name: "primary has no coordinates", primary: answering(Answer{Outcome: Accepted})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := mountainView
			primary := newProviderMock("primary", tt.primary)
			fallback := newProviderMock("fallback", answering(Accept(&rec)))

			cache := NewCache(time.Hour)
			r := NewResolver(cache, []Provider{primary, fallback}, helper.RetryConfig{})

			got := r.Resolve(context.Background(), "8.8.8.8")
			require.NotNil(t, got)
			assert.Equal(t, 37.4, got.Latitude)
			assert.Equal(t, -122.1, got.Longitude)
			assert.Equal(t, "Mountain View", got.City)
			assert.Equal(t, "fallback", got.Provider)

			entry, ok := cache.Get("8.8.8.8")
			require.True(t, ok)
			assert.Equal(t, got, entry.Record)

			again := r.Resolve(context.Background(), "8.8.8.8")
			assert.Equal(t, got, again)
			assert.Len(t, primary.LookupCalls(), 1)
			assert.Len(t, fallback.LookupCalls(), 1)
		})
	}
}

func TestResolver_PrimaryAnswers(t *testing.T) {
	rec := mountainView
	primary := newProviderMock("primary", answering(Accept(&rec)))
	fallback := newProviderMock("fallback", failing(errors.New("must not be called")))

	r := NewResolver(NewCache(time.Hour), []Provider{primary, fallback}, helper.RetryConfig{})

	got := r.Resolve(context.Background(), "8.8.8.8")
	require.NotNil(t, got)
	assert.Equal(t, "primary", got.Provider)
	assert.Empty(t, rec.Provider, "provider answer must not be modified")
	assert.Empty(t, fallback.LookupCalls())
}

func TestResolver_NegativeCache(t *testing.T) {
	primary := newProviderMock("primary", answering(Decline("no data")))
	fallback := newProviderMock("fallback", failing(errors.New("timeout")))

	cache := NewCache(time.Hour)
	r := NewResolver(cache, []Provider{primary, fallback}, helper.RetryConfig{})

	assert.Nil(t, r.Resolve(context.Background(), "192.0.2.1"))
	assert.Len(t, primary.LookupCalls(), 1)
	assert.Len(t, fallback.LookupCalls(), 1)

	entry, ok := cache.Get("192.0.2.1")
	require.True(t, ok, "exhausted resolution must be cached")
	assert.Nil(t, entry.Record)

	assert.Nil(t, r.Resolve(context.Background(), "192.0.2.1"))
	assert.Len(t, primary.LookupCalls(), 1, "negative cache hit must not query providers")
	assert.Len(t, fallback.LookupCalls(), 1, "negative cache hit must not query providers")
}

func TestResolver_NegativeCacheExpires(t *testing.T) {
	primary := newProviderMock("primary", answering(Decline("no data")))

	cache, clock := newTestCache(time.Minute)
	r := NewResolver(cache, []Provider{primary}, helper.RetryConfig{})

	assert.Nil(t, r.Resolve(context.Background(), "192.0.2.1"))
	clock.Advance(2 * time.Minute)
	assert.Nil(t, r.Resolve(context.Background(), "192.0.2.1"))

	assert.Len(t, primary.LookupCalls(), 2)
}

func TestResolver_Retry(t *testing.T) {
	var calls atomic.Int32
	rec := mountainView
	primary := newProviderMock("primary", func(context.Context, string) (Answer, error) {
		if calls.Add(1) < 3 {
			return Answer{}, errors.New("connection reset")
		}
		return Accept(&rec), nil
	})

	r := NewResolver(NewCache(time.Hour), []Provider{primary}, helper.RetryConfig{Count: 2, Delay: time.Millisecond})

	got := r.Resolve(context.Background(), "8.8.8.8")
	require.NotNil(t, got)
	assert.Len(t, primary.LookupCalls(), 3)
}

func TestResolver_DeclineIsNotRetried(t *testing.T) {
	primary := newProviderMock("primary", answering(Decline("reserved address")))

	r := NewResolver(NewCache(time.Hour), []Provider{primary}, helper.RetryConfig{Count: 3, Delay: time.Millisecond})

	assert.Nil(t, r.Resolve(context.Background(), "10.0.0.1"))
	assert.Len(t, primary.LookupCalls(), 1)
}

// waiting returns the number of callers waiting for the address.
func waiting(r *Resolver, addr string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.flights[addr]; ok {
		return f.waiters
	}
	return 0
}

func TestResolver_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var returned atomic.Bool
	primary := newProviderMock("primary", func(ctx context.Context, _ string) (Answer, error) {
		defer returned.Store(true)
		cancel()
		<-ctx.Done()
		return Answer{}, ctx.Err()
	})
	fallback := newProviderMock("fallback", answering(Decline("no data")))

	cache := NewCache(time.Hour)
	r := NewResolver(cache, []Provider{primary, fallback}, helper.RetryConfig{})

	assert.Nil(t, r.Resolve(ctx, "8.8.8.8"))
	require.Eventually(t, returned.Load, time.Second, time.Millisecond, "provider call must be canceled")
	assert.Never(t, func() bool {
		return len(fallback.LookupCalls()) > 0
	}, 50*time.Millisecond, 5*time.Millisecond, "canceled resolution must not query further providers")

	_, ok := cache.Get("8.8.8.8")
	assert.False(t, ok, "canceled resolution must not be cached")
	assert.Zero(t, waiting(r, "8.8.8.8"))
}

func TestResolver_CanceledCallerDoesNotAffectOthers(t *testing.T) {
	release := make(chan struct{})
	rec := mountainView
	primary := newProviderMock("primary", func(ctx context.Context, _ string) (Answer, error) {
		select {
		case <-release:
			return Accept(&rec), nil
		case <-ctx.Done():
			return Answer{}, ctx.Err()
		}
	})

	cache := NewCache(time.Hour)
	r := NewResolver(cache, []Provider{primary}, helper.RetryConfig{})

	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	defer cancelLeader()
	leader := make(chan *Record, 1)
	go func() { leader <- r.Resolve(leaderCtx, "8.8.8.8") }()
	require.Eventually(t, func() bool {
		return len(primary.LookupCalls()) == 1
	}, time.Second, time.Millisecond)

	follower := make(chan *Record, 1)
	go func() { follower <- r.Resolve(context.Background(), "8.8.8.8") }()
	require.Eventually(t, func() bool {
		return waiting(r, "8.8.8.8") == 2
	}, time.Second, time.Millisecond)

	cancelLeader()
	select {
	case got := <-leader:
		assert.Nil(t, got, "canceled caller must not get a record")
	case <-time.After(time.Second):
		t.Fatal("canceled caller did not return")
	}

	close(release)
	select {
	case got := <-follower:
		require.NotNil(t, got, "live caller must get the shared result")
		assert.Equal(t, "Mountain View", got.City)
	case <-time.After(time.Second):
		t.Fatal("live caller did not return")
	}

	assert.Len(t, primary.LookupCalls(), 1)
	entry, ok := cache.Get("8.8.8.8")
	require.True(t, ok)
	assert.Equal(t, "Mountain View", entry.Record.City)
}

func TestResolver_JoinsAfterCanceledFlight(t *testing.T) {
	var calls atomic.Int32
	started := make(chan struct{})
	finish := make(chan struct{})
	rec := mountainView
	primary := newProviderMock("primary", func(ctx context.Context, _ string) (Answer, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-ctx.Done()
			// Keep the canceled flight alive until the next caller joined it.
			<-finish
			return Answer{}, ctx.Err()
		}
		return Accept(&rec), nil
	})

	r := NewResolver(NewCache(time.Hour), []Provider{primary}, helper.RetryConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()
	assert.Nil(t, r.Resolve(ctx, "8.8.8.8"))

	got := make(chan *Record, 1)
	go func() { got <- r.Resolve(context.Background(), "8.8.8.8") }()
	require.Eventually(t, func() bool {
		return waiting(r, "8.8.8.8") == 1
	}, time.Second, time.Millisecond)
	close(finish)

	select {
	case res := <-got:
		require.NotNil(t, res)
		assert.Equal(t, "Mountain View", res.City)
	case <-time.After(time.Second):
		t.Fatal("caller did not return")
	}
	assert.Equal(t, int32(2), calls.Load())
}

func TestResolver_ConcurrentCallsShareLookup(t *testing.T) {
	release := make(chan struct{})
	rec := mountainView
	primary := newProviderMock("primary", func(context.Context, string) (Answer, error) {
		<-release
		return Accept(&rec), nil
	})

	r := NewResolver(NewCache(time.Hour), []Provider{primary}, helper.RetryConfig{})

	const callers = 10
	var wg sync.WaitGroup
	results := make([]*Record, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = r.Resolve(context.Background(), "8.8.8.8")
		}()
	}

	// Wait until the first lookup is in flight before letting it finish.
	require.Eventually(t, func() bool {
		return len(primary.LookupCalls()) == 1
	}, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Len(t, primary.LookupCalls(), 1)
	for _, res := range results {
		require.NotNil(t, res)
		assert.Equal(t, "Mountain View", res.City)
	}
}

func TestResolver_NoProviders(t *testing.T) {
	r := NewResolver(NewCache(time.Hour), nil, helper.RetryConfig{})
	assert.Nil(t, r.Resolve(context.Background(), "8.8.8.8"))
}

func TestResolver_GetMetricCollectors(t *testing.T) {
	r := NewResolver(NewCache(time.Hour), nil, helper.RetryConfig{})
	assert.Len(t, r.GetMetricCollectors(), 3)
}
