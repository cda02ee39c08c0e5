package pack_test

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/t333watch/t333watch/svc/pack"
	"github.com/t333watch/t333watch/svc/premium"
)

type memStore struct {
	mu        sync.Mutex
	packs     map[uuid.UUID]pack.Pack
	takenOnce bool
}

func newMemStore() *memStore {
	return &memStore{packs: map[uuid.UUID]pack.Pack{}}
}

func (m *memStore) Create(_ context.Context, p pack.Pack) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.takenOnce {
		m.takenOnce = false
		return pack.ErrSlugTaken
	}
	m.packs[p.ID] = p
	return nil
}

func (m *memStore) Get(_ context.Context, id uuid.UUID) (pack.Pack, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.packs[id]
	if !ok {
		return pack.Pack{}, pack.ErrNotFound
	}
	p.Streams = slices.Clone(p.Streams)
	slices.SortStableFunc(p.Streams, func(a, b pack.Stream) int { return a.DisplayOrder - b.DisplayOrder })
	return p, nil
}

func (m *memStore) GetBySlug(ctx context.Context, slug string) (pack.Pack, error) {
	m.mu.Lock()
	var id uuid.UUID
	for _, p := range m.packs {
		if p.ShareSlug == slug {
			id = p.ID
		}
	}
	m.mu.Unlock()
	return m.Get(ctx, id)
}

func (m *memStore) ListByOwner(_ context.Context, owner uuid.UUID) ([]pack.Pack, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []pack.Pack
	for _, p := range m.packs {
		if p.OwnerID == owner {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) ListPublic(_ context.Context, limit, offset int) ([]pack.Pack, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []pack.Pack
	for _, p := range m.packs {
		if p.Visibility == pack.Public {
			out = append(out, p)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	return out[:min(limit, len(out))], nil
}

func (m *memStore) CountByOwner(ctx context.Context, owner uuid.UUID) (int, error) {
	ps, _ := m.ListByOwner(ctx, owner)
	return len(ps), nil
}

func (m *memStore) Update(_ context.Context, p pack.Pack) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.packs[p.ID]; !ok {
		return pack.ErrNotFound
	}
	p.Streams = m.packs[p.ID].Streams
	m.packs[p.ID] = p
	return nil
}

func (m *memStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.packs[id]; !ok {
		return pack.ErrNotFound
	}
	delete(m.packs, id)
	return nil
}

func (m *memStore) AddStream(_ context.Context, s pack.Stream) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.packs[s.PackID]
	if !ok {
		return pack.ErrNotFound
	}
	p.Streams = append(p.Streams, s)
	m.packs[p.ID] = p
	return nil
}

func (m *memStore) RemoveStream(_ context.Context, packID, streamID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.packs[packID]
	i := slices.IndexFunc(p.Streams, func(s pack.Stream) bool { return s.ID == streamID })
	if i < 0 {
		return pack.ErrStreamNotFound
	}
	p.Streams = slices.Delete(p.Streams, i, i+1)
	m.packs[packID] = p
	return nil
}

func (m *memStore) ReorderStreams(_ context.Context, packID uuid.UUID, order []uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.packs[packID]
	for i, id := range order {
		j := slices.IndexFunc(p.Streams, func(s pack.Stream) bool { return s.ID == id })
		p.Streams[j].DisplayOrder = i
	}
	m.packs[packID] = p
	return nil
}

type fakeCache struct {
	premium bool
	err     error
}

func (c *fakeCache) Get(context.Context, uuid.UUID) (bool, error) { return c.premium, c.err }
func (c *fakeCache) Invalidate(context.Context, uuid.UUID) error  { return nil }

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newService(t *testing.T, isPremium bool) (*pack.Service, *memStore, *fakeCache) {
	t.Helper()
	store := newMemStore()
	cache := &fakeCache{premium: isPremium}
	svc := pack.NewService(store, cache, premium.DefaultTiers(), pack.Config{ShareBaseURL: "https://t333.watch/p/", ListLimit: 2},
		pack.WithClock(func() time.Time { return fixedNow }))
	return svc, store, cache
}

func TestCreate_RequiresUser(t *testing.T) {
	t.Parallel()

	svc, _, _ := newService(t, false)
	_, err := svc.Create(context.Background(), uuid.Nil, pack.CreateInput{Title: "x"})
	require.ErrorIs(t, err, pack.ErrUnauthenticated)
}

func TestCreate_FreeLimits(t *testing.T) {
	t.Parallel()

	svc, _, _ := newService(t, false)
	owner := uuid.New()
	ctx := context.Background()

	_, err := svc.Create(ctx, owner, pack.CreateInput{Title: "secret", Visibility: pack.Private})
	require.ErrorIs(t, err, pack.ErrPremiumRequired)

	for range premium.DefaultTiers().Free.MaxPacks {
		_, err := svc.Create(ctx, owner, pack.CreateInput{Title: "pack"})
		require.NoError(t, err)
	}
	_, err = svc.Create(ctx, owner, pack.CreateInput{Title: "one more"})
	require.ErrorIs(t, err, pack.ErrLimitReached)
}

func TestCreate_PremiumPrivate(t *testing.T) {
	t.Parallel()

	svc, _, _ := newService(t, true)
	p, err := svc.Create(context.Background(), uuid.New(), pack.CreateInput{Title: "secret", Visibility: pack.Private})
	require.NoError(t, err)
	assert.Equal(t, pack.Private, p.Visibility)
	assert.Equal(t, fixedNow, p.CreatedAt)
}

func TestCreate_CacheFailureAppliesFreeTier(t *testing.T) {
	t.Parallel()

	svc, _, cache := newService(t, true)
	cache.err = errors.New("redis down")

	_, err := svc.Create(context.Background(), uuid.New(), pack.CreateInput{Title: "secret", Visibility: pack.Private})
	require.ErrorIs(t, err, pack.ErrPremiumRequired)
}

func TestCreate_RetriesTakenSlug(t *testing.T) {
	t.Parallel()

	svc, store, _ := newService(t, false)
	store.takenOnce = true

	p, err := svc.Create(context.Background(), uuid.New(), pack.CreateInput{Title: "Retry"})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ShareSlug)
}

func TestGet_PrivateHiddenFromOthers(t *testing.T) {
	t.Parallel()

	svc, _, _ := newService(t, true)
	owner := uuid.New()
	ctx := context.Background()

	p, err := svc.Create(ctx, owner, pack.CreateInput{Title: "secret", Visibility: pack.Private})
	require.NoError(t, err)

	_, err = svc.Get(ctx, owner, p.ID)
	require.NoError(t, err)
	_, err = svc.Get(ctx, uuid.New(), p.ID)
	require.ErrorIs(t, err, pack.ErrNotFound)
	_, err = svc.GetByShareSlug(ctx, uuid.Nil, p.ShareSlug)
	require.ErrorIs(t, err, pack.ErrNotFound)
	_, err = svc.ShareQR(ctx, uuid.New(), p.ID, 128)
	require.ErrorIs(t, err, pack.ErrNotFound)
}

func TestUpdate(t *testing.T) {
	t.Parallel()

	svc, _, _ := newService(t, false)
	owner := uuid.New()
	ctx := context.Background()

	p, err := svc.Create(ctx, owner, pack.CreateInput{Title: "before", Description: "keep"})
	require.NoError(t, err)

	title := "after"
	_, err = svc.Update(ctx, uuid.New(), p.ID, pack.UpdateInput{Title: &title})
	require.ErrorIs(t, err, pack.ErrForbidden)
	_, err = svc.Update(ctx, uuid.Nil, p.ID, pack.UpdateInput{Title: &title})
	require.ErrorIs(t, err, pack.ErrUnauthenticated)

	priv := pack.Private
	_, err = svc.Update(ctx, owner, p.ID, pack.UpdateInput{Visibility: &priv})
	require.ErrorIs(t, err, pack.ErrPremiumRequired)

	got, err := svc.Update(ctx, owner, p.ID, pack.UpdateInput{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "after", got.Title)
	assert.Equal(t, "keep", got.Description)
	assert.Equal(t, p.ShareSlug, got.ShareSlug)
}

func TestDelete(t *testing.T) {
	t.Parallel()

	svc, _, _ := newService(t, false)
	owner := uuid.New()
	ctx := context.Background()

	p, err := svc.Create(ctx, owner, pack.CreateInput{Title: "gone"})
	require.NoError(t, err)

	require.ErrorIs(t, svc.Delete(ctx, uuid.New(), p.ID), pack.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, owner, p.ID))
	_, err = svc.Get(ctx, owner, p.ID)
	require.ErrorIs(t, err, pack.ErrNotFound)
}

func TestStreams_LimitsAndOrder(t *testing.T) {
	t.Parallel()

	svc, _, _ := newService(t, false)
	owner := uuid.New()
	ctx := context.Background()

	p, err := svc.Create(ctx, owner, pack.CreateInput{Title: "squad"})
	require.NoError(t, err)

	_, err = svc.AddStream(ctx, owner, p.ID, pack.StreamInput{ChannelName: "shroud", OffsetSeconds: 30})
	require.ErrorIs(t, err, pack.ErrPremiumRequired)

	_, err = svc.AddStream(ctx, uuid.New(), p.ID, pack.StreamInput{ChannelName: "shroud"})
	require.ErrorIs(t, err, pack.ErrForbidden)

	var ids []uuid.UUID
	for _, name := range []string{"alpha", "bravo", "charlie", "delta"} {
		st, err := svc.AddStream(ctx, owner, p.ID, pack.StreamInput{ChannelName: name})
		require.NoError(t, err)
		assert.Equal(t, len(ids), st.DisplayOrder)
		ids = append(ids, st.ID)
	}
	_, err = svc.AddStream(ctx, owner, p.ID, pack.StreamInput{ChannelName: "echo"})
	require.ErrorIs(t, err, pack.ErrLimitReached)

	_, err = svc.ReorderStreams(ctx, owner, p.ID, ids[:3])
	require.ErrorIs(t, err, pack.ErrInvalidOrder)
	_, err = svc.ReorderStreams(ctx, owner, p.ID, []uuid.UUID{ids[0], ids[0], ids[1], ids[2]})
	require.ErrorIs(t, err, pack.ErrInvalidOrder)
	_, err = svc.ReorderStreams(ctx, owner, p.ID, []uuid.UUID{ids[0], ids[1], ids[2], uuid.New()})
	require.ErrorIs(t, err, pack.ErrInvalidOrder)

	reversed := slices.Clone(ids)
	slices.Reverse(reversed)
	got, err := svc.ReorderStreams(ctx, owner, p.ID, reversed)
	require.NoError(t, err)
	names := make([]string, 0, len(got.Streams))
	for _, st := range got.Streams {
		names = append(names, st.ChannelName)
	}
	assert.Equal(t, []string{"delta", "charlie", "bravo", "alpha"}, names)

	require.NoError(t, svc.RemoveStream(ctx, owner, p.ID, ids[0]))
	require.ErrorIs(t, svc.RemoveStream(ctx, owner, p.ID, ids[0]), pack.ErrStreamNotFound)
}

func TestStreams_PremiumOffset(t *testing.T) {
	t.Parallel()

	svc, _, _ := newService(t, true)
	owner := uuid.New()
	p, err := svc.Create(context.Background(), owner, pack.CreateInput{Title: "vod"})
	require.NoError(t, err)

	st, err := svc.AddStream(context.Background(), owner, p.ID, pack.StreamInput{ChannelName: "shroud", OffsetSeconds: -45})
	require.NoError(t, err)
	assert.Equal(t, -45, st.OffsetSeconds)
}

func TestListPublicClampsLimit(t *testing.T) {
	t.Parallel()

	svc, _, _ := newService(t, true)
	ctx := context.Background()
	owner := uuid.New()
	for range 3 {
		_, err := svc.Create(ctx, owner, pack.CreateInput{Title: "open"})
		require.NoError(t, err)
	}
	_, err := svc.Create(ctx, owner, pack.CreateInput{Title: "closed", Visibility: pack.Private})
	require.NoError(t, err)

	got, err := svc.ListPublic(ctx, 100, 0)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	mine, err := svc.ListMine(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, mine, 4)

	_, err = svc.ListMine(ctx, uuid.Nil)
	require.ErrorIs(t, err, pack.ErrUnauthenticated)
}

func TestShareQR(t *testing.T) {
	t.Parallel()

	svc, _, _ := newService(t, false)
	p, err := svc.Create(context.Background(), uuid.New(), pack.CreateInput{Title: "share me"})
	require.NoError(t, err)

	assert.Equal(t, "https://t333.watch/p/"+p.ShareSlug, svc.ShareURL(p))

	png, err := svc.ShareQR(context.Background(), uuid.Nil, p.ID, 128)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}
