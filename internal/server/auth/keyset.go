package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/todos/internal/logging"
	"github.com/go-jose/go-jose/v4"
	"golang.org/x/sync/singleflight"
)

const maxKeySetSize = 1 << 20

// KeyResolver returns the public key published under a key id.
type KeyResolver interface {
	Key(ctx context.Context, kid string) (any, error)
}

// KeySet is a cached view of a remote JWKS document.
//
// The cache is refreshed when it is empty, older than the TTL, or when a
// requested kid is missing and the last fetch is older than the minimum
// refresh interval. Concurrent refreshes collapse into one request.
type KeySet struct {
	url        string
	client     *http.Client
	ttl        time.Duration
	minRefresh time.Duration
	logger     logging.Logger
	now        func() time.Time

	mu        sync.RWMutex
	keys      map[string]any
	fetchedAt time.Time

	group singleflight.Group
}

// KeySetOption configures a KeySet.
type KeySetOption func(*KeySet)

// WithHTTPClient sets the client used to fetch the key set. Its timeout
// bounds every fetch.
func WithHTTPClient(c *http.Client) KeySetOption {
	return func(k *KeySet) { k.client = c }
}

// WithTTL sets how long a fetched key set is trusted. Non-positive values
// keep the default.
func WithTTL(d time.Duration) KeySetOption {
	return func(k *KeySet) {
		if d > 0 {
			k.ttl = d
		}
	}
}

// WithMinRefreshInterval limits how often an unknown kid can trigger a fetch.
func WithMinRefreshInterval(d time.Duration) KeySetOption {
	return func(k *KeySet) { k.minRefresh = d }
}

// WithKeySetLogger sets the logger.
func WithKeySetLogger(l logging.Logger) KeySetOption {
	return func(k *KeySet) { k.logger = l }
}

// NewKeySet creates a KeySet for the JWKS document at url. Nothing is
// fetched until the first lookup or an explicit Refresh.
func NewKeySet(url string, opts ...KeySetOption) *KeySet {
	k := &KeySet{
		url:        url,
		client:     &http.Client{Timeout: 5 * time.Second},
		ttl:        10 * time.Minute,
		minRefresh: 30 * time.Second,
		logger:     logging.Nop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(k)
	}
	k.logger = k.logger.With("module", "keyset")
	return k
}

// Key returns the key for kid, fetching the key set when needed. When a
// refresh of an expired cache fails, the stale key is still served.
func (k *KeySet) Key(ctx context.Context, kid string) (any, error) {
	key, found, fetchedAt := k.lookup(kid)

	if age := k.now().Sub(fetchedAt); !fetchedAt.IsZero() && age <= k.ttl {
		if found {
			return key, nil
		}
		if age < k.minRefresh {
			return nil, fmt.Errorf("%w: kid %q", ErrUnknownKey, kid)
		}
	}

	if err := k.refreshSince(ctx, fetchedAt); err != nil {
		if found {
			k.logger.Warn(ctx, "key set refresh failed, using cached key", "kid", kid, "error", err)
			return key, nil
		}
		return nil, err
	}

	if key, found, _ = k.lookup(kid); found {
		return key, nil
	}
	return nil, fmt.Errorf("%w: kid %q", ErrUnknownKey, kid)
}

// Refresh fetches the key set unconditionally.
func (k *KeySet) Refresh(ctx context.Context) error {
	return k.shared(ctx, func(fetchCtx context.Context) error {
		return k.fetch(fetchCtx)
	})
}

// refreshSince fetches the key set unless another caller already replaced
// the snapshot observed at seen.
func (k *KeySet) refreshSince(ctx context.Context, seen time.Time) error {
	return k.shared(ctx, func(fetchCtx context.Context) error {
		k.mu.RLock()
		newer := k.fetchedAt.After(seen)
		k.mu.RUnlock()
		if newer {
			return nil
		}
		return k.fetch(fetchCtx)
	})
}

// shared runs fn once for all concurrent callers. The fetch is detached from
// the caller that started it and is bounded by the HTTP client timeout; each
// caller only stops waiting when its own context ends.
func (k *KeySet) shared(ctx context.Context, fn func(context.Context) error) error {
	fetchCtx := context.WithoutCancel(ctx)
	ch := k.group.DoChan("refresh", func() (any, error) {
		return nil, fn(fetchCtx)
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrKeySetUnavailable, ctx.Err())
	}
}

func (k *KeySet) lookup(kid string) (any, bool, time.Time) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	if key, ok := k.keys[kid]; ok {
		return key, true, k.fetchedAt
	}
	for id, key := range k.keys {
		if strings.EqualFold(id, kid) {
			return key, true, k.fetchedAt
		}
	}
	return nil, false, k.fetchedAt
}

func (k *KeySet) fetch(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, k.url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrKeySetUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := k.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrKeySetUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: unexpected status %s", ErrKeySetUnavailable, resp.Status)
	}

	var set jose.JSONWebKeySet
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxKeySetSize)).Decode(&set); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrKeySetUnavailable, err)
	}

	keys := make(map[string]any, len(set.Keys))
	for _, jwk := range set.Keys {
		if jwk.KeyID == "" || !jwk.Valid() || !jwk.IsPublic() {
			continue
		}
		if jwk.Use != "" && jwk.Use != "sig" {
			continue
		}
		keys[jwk.KeyID] = jwk.Key
	}

	k.mu.Lock()
	k.keys = keys
	k.fetchedAt = k.now()
	k.mu.Unlock()

	k.logger.Info(ctx, "key set refreshed", "keys", len(keys))
	return nil
}
