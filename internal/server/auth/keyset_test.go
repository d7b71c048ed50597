package auth

import (
	"context"
	"crypto/rsa"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestKeySet(t *testing.T, url string, opts ...KeySetOption) (*KeySet, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	ks := NewKeySet(url, opts...)
	ks.now = clock.Now
	return ks, clock
}

func TestKeySet_FetchesOnceAndCaches(t *testing.T) {
	key, _, _ := testKeys(t)
	srv := newJWKSServer(t, jwksBody(t, jwk{kid: "k1", key: &key.PublicKey, alg: "RS256", use: "sig"}))
	ks, _ := newTestKeySet(t, srv.URL)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		got, err := ks.Key(ctx, "k1")
		require.NoError(t, err)
		pub, ok := got.(*rsa.PublicKey)
		require.True(t, ok)
		assert.Equal(t, 0, pub.N.Cmp(key.PublicKey.N))
	}

	assert.EqualValues(t, 1, srv.hits.Load())
}

func TestKeySet_KidLookupIgnoresCase(t *testing.T) {
	key, _, _ := testKeys(t)
	srv := newJWKSServer(t, jwksBody(t, jwk{kid: "AbC-123", key: &key.PublicKey}))
	ks, _ := newTestKeySet(t, srv.URL)

	_, err := ks.Key(context.Background(), "abc-123")
	require.NoError(t, err)
	_, err = ks.Key(context.Background(), "ABC-123")
	require.NoError(t, err)
}

func TestKeySet_UnknownKidRefreshIsRateLimited(t *testing.T) {
	key, _, _ := testKeys(t)
	srv := newJWKSServer(t, jwksBody(t, jwk{kid: "k1", key: &key.PublicKey}))
	ks, clock := newTestKeySet(t, srv.URL, WithMinRefreshInterval(time.Minute), WithTTL(time.Hour))
	ctx := context.Background()

	_, err := ks.Key(ctx, "missing")
	require.ErrorIs(t, err, ErrUnknownKey)
	assert.EqualValues(t, 1, srv.hits.Load())

	_, err = ks.Key(ctx, "missing")
	require.ErrorIs(t, err, ErrUnknownKey)
	assert.EqualValues(t, 1, srv.hits.Load(), "miss within min interval must not refetch")

	clock.Advance(2 * time.Minute)
	_, err = ks.Key(ctx, "missing")
	require.ErrorIs(t, err, ErrUnknownKey)
	assert.EqualValues(t, 2, srv.hits.Load())
}

func TestKeySet_PicksUpRotatedKey(t *testing.T) {
	key, other, _ := testKeys(t)
	srv := newJWKSServer(t, jwksBody(t, jwk{kid: "k1", key: &key.PublicKey}))
	ks, clock := newTestKeySet(t, srv.URL, WithMinRefreshInterval(time.Minute))
	ctx := context.Background()

	_, err := ks.Key(ctx, "k1")
	require.NoError(t, err)

	srv.set(jwksBody(t, jwk{kid: "k1", key: &key.PublicKey}, jwk{kid: "k2", key: &other.PublicKey}), http.StatusOK)
	clock.Advance(time.Minute)

	_, err = ks.Key(ctx, "k2")
	require.NoError(t, err)
	assert.EqualValues(t, 2, srv.hits.Load())
}

func TestKeySet_RefetchesAfterTTL(t *testing.T) {
	key, _, _ := testKeys(t)
	srv := newJWKSServer(t, jwksBody(t, jwk{kid: "k1", key: &key.PublicKey}))
	ks, clock := newTestKeySet(t, srv.URL, WithTTL(5*time.Minute))
	ctx := context.Background()

	_, err := ks.Key(ctx, "k1")
	require.NoError(t, err)
	clock.Advance(4 * time.Minute)
	_, err = ks.Key(ctx, "k1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, srv.hits.Load())

	clock.Advance(2 * time.Minute)
	_, err = ks.Key(ctx, "k1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, srv.hits.Load())
}

func TestKeySet_ServesStaleKeyWhenRefreshFails(t *testing.T) {
	key, _, _ := testKeys(t)
	srv := newJWKSServer(t, jwksBody(t, jwk{kid: "k1", key: &key.PublicKey}))
	ks, clock := newTestKeySet(t, srv.URL, WithTTL(time.Minute))
	ctx := context.Background()

	_, err := ks.Key(ctx, "k1")
	require.NoError(t, err)

	srv.set([]byte("oops"), http.StatusBadGateway)
	clock.Advance(2 * time.Minute)

	_, err = ks.Key(ctx, "k1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, srv.hits.Load())
}

func TestKeySet_UpstreamFailures(t *testing.T) {
	tests := []struct {
		name   string
		body   []byte
		status int
	}{
		{name: "server error", body: []byte(`{}`), status: http.StatusInternalServerError},
		{name: "not json", body: []byte(`<html>`), status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newJWKSServer(t, tt.body)
			srv.set(tt.body, tt.status)
			ks, _ := newTestKeySet(t, srv.URL)

			_, err := ks.Key(context.Background(), "k1")
			require.ErrorIs(t, err, ErrKeySetUnavailable)
		})
	}
}

func TestKeySet_UnreachableEndpoint(t *testing.T) {
	srv := newJWKSServer(t, nil)
	url := srv.URL
	srv.Close()

	ks, _ := newTestKeySet(t, url, WithHTTPClient(&http.Client{Timeout: time.Second}))
	_, err := ks.Key(context.Background(), "k1")
	require.ErrorIs(t, err, ErrKeySetUnavailable)
}

func TestKeySet_SkipsEncryptionAndPrivateKeys(t *testing.T) {
	key, other, _ := testKeys(t)
	srv := newJWKSServer(t, jwksBody(t,
		jwk{kid: "enc", key: &key.PublicKey, use: "enc"},
		jwk{kid: "private", key: other},
		jwk{kid: "sig", key: &key.PublicKey, use: "sig"},
	))
	ks, _ := newTestKeySet(t, srv.URL, WithMinRefreshInterval(time.Hour))
	ctx := context.Background()

	_, err := ks.Key(ctx, "sig")
	require.NoError(t, err)
	_, err = ks.Key(ctx, "enc")
	require.ErrorIs(t, err, ErrUnknownKey)
	_, err = ks.Key(ctx, "private")
	require.ErrorIs(t, err, ErrUnknownKey)
}

func TestKeySet_ConcurrentColdLookupsFetchOnce(t *testing.T) {
	key, _, _ := testKeys(t)
	srv := newJWKSServer(t, jwksBody(t, jwk{kid: "k1", key: &key.PublicKey}))
	srv.delay = 50 * time.Millisecond
	ks, _ := newTestKeySet(t, srv.URL)

	var wg sync.WaitGroup
	start := make(chan struct{})
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := ks.Key(context.Background(), "k1")
			errs <- err
		}()
	}
	close(start)
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.EqualValues(t, 1, srv.hits.Load())
}

func TestKeySet_ExplicitRefresh(t *testing.T) {
	key, _, _ := testKeys(t)
	srv := newJWKSServer(t, jwksBody(t, jwk{kid: "k1", key: &key.PublicKey}))
	ks, _ := newTestKeySet(t, srv.URL)
	ctx := context.Background()

	require.NoError(t, ks.Refresh(ctx))
	require.NoError(t, ks.Refresh(ctx))
	assert.EqualValues(t, 2, srv.hits.Load())

	_, err := ks.Key(ctx, "k1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, srv.hits.Load())
}

func TestKeySet_CancelledCallerDoesNotFailSharedRefresh(t *testing.T) {
	key, _, _ := testKeys(t)
	srv := newJWKSServer(t, jwksBody(t, jwk{kid: "k1", key: &key.PublicKey}))
	srv.delay = 100 * time.Millisecond
	ks, _ := newTestKeySet(t, srv.URL)

	shortCtx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	var errA, errB error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errA = ks.Key(shortCtx, "k1")
	}()
	go func() {
		defer wg.Done()
		time.Sleep(5 * time.Millisecond)
		_, errB = ks.Key(context.Background(), "k1")
	}()
	wg.Wait()

	require.ErrorIs(t, errA, ErrKeySetUnavailable)
	require.NoError(t, errB)
	assert.EqualValues(t, 1, srv.hits.Load())
}

func TestKeySet_AbandonedRefreshStillFillsCache(t *testing.T) {
	key, _, _ := testKeys(t)
	srv := newJWKSServer(t, jwksBody(t, jwk{kid: "k1", key: &key.PublicKey}))
	srv.delay = 50 * time.Millisecond
	ks, _ := newTestKeySet(t, srv.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := ks.Key(ctx, "k1")
	require.ErrorIs(t, err, ErrKeySetUnavailable)

	require.Eventually(t, func() bool {
		_, found, _ := ks.lookup("k1")
		return found
	}, time.Second, 10*time.Millisecond)

	_, err = ks.Key(context.Background(), "k1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, srv.hits.Load())
}

func TestKeySet_NonPositiveTTLKeepsDefault(t *testing.T) {
	key, _, _ := testKeys(t)
	srv := newJWKSServer(t, jwksBody(t, jwk{kid: "k1", key: &key.PublicKey}))

	for _, ttl := range []time.Duration{0, -time.Minute} {
		ks, clock := newTestKeySet(t, srv.URL, WithTTL(ttl))
		assert.Equal(t, 10*time.Minute, ks.ttl)

		before := srv.hits.Load()
		for i := 0; i < 3; i++ {
			clock.Advance(time.Second)
			_, err := ks.Key(context.Background(), "k1")
			require.NoError(t, err)
		}
		assert.Equal(t, before+1, srv.hits.Load())
	}
}
