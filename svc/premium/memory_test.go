package premium_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/t333watch/t333watch/pkg/cache"
	"github.com/t333watch/t333watch/svc/premium"
	"github.com/t333watch/t333watch/svc/user"
)

type mockUsers struct {
	mock.Mock
}

func (m *mockUsers) GetByID(ctx context.Context, id uuid.UUID) (user.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(user.User), args.Error(1)
}

func TestMemoryCache_HitAvoidsStore(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	users := &mockUsers{}
	users.On("GetByID", mock.Anything, id).Return(user.User{ID: id, PremiumFlag: true}, nil).Once()

	c := premium.NewMemoryCache(users, premium.Config{})
	for range 3 {
		ok, err := c.Get(context.Background(), id)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	users.AssertNumberOfCalls(t, "GetByID", 1)
}

func TestMemoryCache_InvalidateForcesReload(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	users := &mockUsers{}
	users.On("GetByID", mock.Anything, id).Return(user.User{ID: id, PremiumFlag: false}, nil).Once()
	users.On("GetByID", mock.Anything, id).Return(user.User{ID: id, PremiumFlag: true}, nil).Once()

	c := premium.NewMemoryCache(users, premium.Config{})
	ctx := context.Background()

	ok, err := c.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Invalidate(ctx, id))

	ok, err = c.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok, "value after invalidate must come from the store")
	users.AssertExpectations(t)
}

func TestMemoryCache_Expiry(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}

	id := uuid.New()
	users := &mockUsers{}
	users.On("GetByID", mock.Anything, id).Return(user.User{ID: id, PremiumFlag: true}, nil).Twice()

	c := premium.NewMemoryCache(users, premium.Config{TTL: time.Minute}, cache.WithClock[uuid.UUID, bool](clock))
	_, err := c.Get(context.Background(), id)
	require.NoError(t, err)

	mu.Lock()
	now = now.Add(2 * time.Minute)
	mu.Unlock()

	_, err = c.Get(context.Background(), id)
	require.NoError(t, err)
	users.AssertExpectations(t)
}

func TestMemoryCache_StoreError(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	users := &mockUsers{}
	users.On("GetByID", mock.Anything, id).Return(user.User{}, user.ErrNotFound)

	c := premium.NewMemoryCache(users, premium.Config{})
	_, err := c.Get(context.Background(), id)
	require.ErrorIs(t, err, user.ErrNotFound)
}

type blockingUsers struct {
	entered chan struct{}
	release chan struct{}
	mu      sync.Mutex
	premium bool
	calls   int
	loadCtx context.Context
}

func newBlockingUsers(flag bool) *blockingUsers {
	return &blockingUsers{entered: make(chan struct{}), release: make(chan struct{}), premium: flag}
}

// GetByID blocks the first call until release is closed.
func (b *blockingUsers) GetByID(ctx context.Context, id uuid.UUID) (user.User, error) {
	b.mu.Lock()
	b.calls++
	first := b.calls == 1
	if first {
		b.loadCtx = ctx
	}
	val := b.premium
	b.mu.Unlock()
	if first {
		close(b.entered)
		select {
		case <-b.release:
		case <-ctx.Done():
			return user.User{}, ctx.Err()
		}
	}
	return user.User{ID: id, PremiumFlag: val}, nil
}

func (b *blockingUsers) setPremium(v bool) {
	b.mu.Lock()
	b.premium = v
	b.mu.Unlock()
}

func TestMemoryCache_InvalidateDuringLoadDiscardsResult(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	users := newBlockingUsers(true)
	c := premium.NewMemoryCache(users, premium.Config{})
	ctx := context.Background()

	done := make(chan bool)
	go func() {
		v, _ := c.Get(ctx, id)
		done <- v
	}()

	<-users.entered
	users.setPremium(false) // cancellation lands while the first load is in flight
	require.NoError(t, c.Invalidate(ctx, id))
	close(users.release)
	assert.True(t, <-done, "in-flight read returns what it loaded")

	v, err := c.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, v, "stale load must not have been cached")
}

func TestMemoryCache_ReadAfterInvalidateStartsFreshLoad(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	users := newBlockingUsers(true)
	c := premium.NewMemoryCache(users, premium.Config{})

	done := make(chan bool)
	go func() {
		v, _ := c.Get(context.Background(), id)
		done <- v
	}()
	<-users.entered

	users.setPremium(false)
	require.NoError(t, c.Invalidate(context.Background(), id))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	v, err := c.Get(ctx, id)
	require.NoError(t, err, "read must not wait on the load started before invalidation")
	assert.False(t, v)

	close(users.release)
	assert.True(t, <-done)

	v, err = c.Get(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, v)
}

func TestMemoryCache_CallerCancelDoesNotAbortSharedLoad(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	users := newBlockingUsers(true)
	c := premium.NewMemoryCache(users, premium.Config{})

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error)
	go func() {
		_, err := c.Get(ctx, id)
		errc <- err
	}()
	<-users.entered

	cancel()
	require.ErrorIs(t, <-errc, context.Canceled)

	users.mu.Lock()
	loadCtx := users.loadCtx
	users.mu.Unlock()
	require.NoError(t, loadCtx.Err(), "shared load keeps running for other callers")

	joined := make(chan bool)
	go func() {
		v, _ := c.Get(context.Background(), id)
		joined <- v
	}()
	close(users.release)
	assert.True(t, <-joined)
}

func TestTiers(t *testing.T) {
	t.Parallel()

	tiers := premium.DefaultTiers()
	assert.False(t, tiers.For(false).PrivatePacks)
	assert.True(t, tiers.For(true).PrivatePacks)
	assert.Greater(t, tiers.For(true).MaxPacks, tiers.For(false).MaxPacks)

	_, err := premium.ParseTiers([]byte("free:\n  max_packs: 1\n  max_streams_per_pack: 1\n  bogus: true\n"))
	require.ErrorIs(t, err, premium.ErrInvalidTiers)

	_, err = premium.ParseTiers([]byte("free:\n  max_packs: 0\n  max_streams_per_pack: 1\npremium:\n  max_packs: 1\n  max_streams_per_pack: 1\n"))
	require.ErrorIs(t, err, premium.ErrInvalidTiers)

	_, err = premium.ParseTiers([]byte("free:\n  max_packs: 5\n  max_streams_per_pack: 4\npremium:\n  max_packs: 1\n  max_streams_per_pack: 16\n"))
	require.ErrorIs(t, err, premium.ErrInvalidTiers)

	_, err = premium.ParseTiers([]byte("{"))
	require.True(t, errors.Is(err, premium.ErrInvalidTiers))
}
