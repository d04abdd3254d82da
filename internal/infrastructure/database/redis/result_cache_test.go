package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BlockchainHB/launchfast-sub000/internal/domain/keyword"
	"github.com/BlockchainHB/launchfast-sub000/pkg/errors"
)

// fakeCache is an in-memory Cache used to verify the result cache's key
// scheme, TTL selection, and error degradation without a Redis round trip.
type fakeCache struct {
	store   map[string][]byte
	ttls    map[string]time.Duration
	getErr  error
	setErr  error
	deleted []string
	dropped []string
	loads   int
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		store: make(map[string][]byte),
		ttls:  make(map[string]time.Duration),
	}
}

func (f *fakeCache) Get(_ context.Context, key string, dest interface{}) error {
	if f.getErr != nil {
		return f.getErr
	}
	raw, ok := f.store[key]
	if !ok {
		return ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (f *fakeCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.store[key] = raw
	f.ttls[key] = ttl
	return nil
}

func (f *fakeCache) Delete(_ context.Context, keys ...string) error {
	f.deleted = append(f.deleted, keys...)
	for _, k := range keys {
		delete(f.store, k)
	}
	return nil
}

func (f *fakeCache) DeleteByPrefix(_ context.Context, prefix string) (int64, error) {
	f.dropped = append(f.dropped, prefix)
	return 0, nil
}

func (f *fakeCache) GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, loader func(context.Context) (interface{}, error)) error {
	if err := f.Get(ctx, key, dest); err == nil {
		return nil
	}
	f.loads++
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	_ = f.Set(ctx, key, value, ttl)
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

func (f *fakeCache) Ping(context.Context) error { return nil }

func TestResultCache_SessionRoundTrip(t *testing.T) {
	t.Parallel()
	fake := newFakeCache()
	rc := NewResultCache(fake, nil)
	ctx := context.Background()

	session := &keyword.ResearchSession{ID: "s1", Name: "mouse research"}
	rc.SetSession(ctx, "u1", "s1", session)

	require.Contains(t, fake.store, "research:u1:s1")
	assert.Equal(t, keyword.TTLFullResult, fake.ttls["research:u1:s1"])

	got, hit := rc.GetSession(ctx, "u1", "s1")
	require.True(t, hit)
	assert.Equal(t, "mouse research", got.Name)
}

func TestResultCache_MissAndReadErrorDegradeToMiss(t *testing.T) {
	t.Parallel()
	fake := newFakeCache()
	rc := NewResultCache(fake, nil)
	ctx := context.Background()

	_, hit := rc.GetSession(ctx, "u1", "absent")
	assert.False(t, hit)

	fake.getErr = errors.New(errors.ErrCodeCacheError, "connection reset")
	_, hit = rc.GetSession(ctx, "u1", "s1")
	assert.False(t, hit)

	var dest []keyword.GapRecord
	assert.False(t, rc.GetComponent(ctx, "u1", "s1", keyword.ComponentGaps, &dest))
}

func TestResultCache_WriteErrorIsSwallowed(t *testing.T) {
	t.Parallel()
	fake := newFakeCache()
	fake.setErr = errors.New(errors.ErrCodeCacheError, "oom")
	rc := NewResultCache(fake, nil)
	ctx := context.Background()

	rc.SetSession(ctx, "u1", "s1", &keyword.ResearchSession{ID: "s1"})
	rc.SetComponent(ctx, "u1", "s1", keyword.ComponentGaps, []string{"x"})

	assert.Empty(t, fake.store)
}

func TestResultCache_NilSessionNotStored(t *testing.T) {
	t.Parallel()
	fake := newFakeCache()
	rc := NewResultCache(fake, nil)

	rc.SetSession(context.Background(), "u1", "s1", nil)
	assert.Empty(t, fake.store)
}

func TestResultCache_ComponentKeysAndTTLs(t *testing.T) {
	t.Parallel()
	fake := newFakeCache()
	rc := NewResultCache(fake, nil)
	ctx := context.Background()

	rc.SetComponent(ctx, "u1", "s1", keyword.ComponentGaps, []string{"gap"})
	rc.SetComponent(ctx, "u1", "s1", keyword.ComponentAggregated, []string{"agg"})
	rc.SetComponent(ctx, "u1", "", keyword.ComponentSessionList, []string{"list"})

	require.Contains(t, fake.store, "research:u1:s1:gaps")
	require.Contains(t, fake.store, "research:u1:s1:aggregated")
	require.Contains(t, fake.store, "research:u1:session_list")

	assert.Equal(t, keyword.TTLGaps, fake.ttls["research:u1:s1:gaps"])
	assert.Equal(t, keyword.TTLAggregated, fake.ttls["research:u1:s1:aggregated"])
	assert.Equal(t, keyword.TTLSessionList, fake.ttls["research:u1:session_list"])

	var dest []string
	require.True(t, rc.GetComponent(ctx, "u1", "s1", keyword.ComponentGaps, &dest))
	assert.Equal(t, []string{"gap"}, dest)
}

func TestResultCache_GetOrSetSessionLoadsOnceAndCaches(t *testing.T) {
	t.Parallel()
	fake := newFakeCache()
	rc := NewResultCache(fake, nil)
	ctx := context.Background()

	loaderCalls := 0
	loader := func(context.Context) (*keyword.ResearchSession, error) {
		loaderCalls++
		return &keyword.ResearchSession{ID: "s1", Name: "rebuilt"}, nil
	}

	got, err := rc.GetOrSetSession(ctx, "u1", "s1", loader)
	require.NoError(t, err)
	assert.Equal(t, "rebuilt", got.Name)
	assert.Equal(t, 1, loaderCalls)
	require.Contains(t, fake.store, "research:u1:s1")
	assert.Equal(t, keyword.TTLFullResult, fake.ttls["research:u1:s1"])

	got, err = rc.GetOrSetSession(ctx, "u1", "s1", loader)
	require.NoError(t, err)
	assert.Equal(t, "rebuilt", got.Name)
	assert.Equal(t, 1, loaderCalls, "second read must come from the cache")
}

func TestResultCache_GetOrSetSessionLoaderErrorPropagates(t *testing.T) {
	t.Parallel()
	fake := newFakeCache()
	rc := NewResultCache(fake, nil)

	loadErr := errors.New(errors.ErrCodeSessionNotFound, "session not found")
	_, err := rc.GetOrSetSession(context.Background(), "u1", "s9",
		func(context.Context) (*keyword.ResearchSession, error) { return nil, loadErr })

	assert.Equal(t, loadErr, err)
	assert.Empty(t, fake.store)
}

func TestResultCache_InvalidateListOnly(t *testing.T) {
	t.Parallel()
	fake := newFakeCache()
	rc := NewResultCache(fake, nil)

	rc.Invalidate(context.Background(), "u1")

	assert.Equal(t, []string{"research:u1:session_list"}, fake.deleted)
	assert.Empty(t, fake.dropped)
}

func TestResultCache_InvalidateNamedSessions(t *testing.T) {
	t.Parallel()
	fake := newFakeCache()
	rc := NewResultCache(fake, nil)

	rc.Invalidate(context.Background(), "u1", "s1", "s2")

	assert.Equal(t, []string{"research:u1:session_list"}, fake.deleted)
	assert.Equal(t, []string{"research:u1:s1", "research:u1:s2"}, fake.dropped)
}
