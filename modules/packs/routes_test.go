package packs_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/t333watch/t333watch/modules/packs"
	"github.com/t333watch/t333watch/svc/auth"
	"github.com/t333watch/t333watch/svc/pack"
	"github.com/t333watch/t333watch/svc/premium"
	"github.com/t333watch/t333watch/svc/user"
)

// store keeps packs in memory; streams are stored on the pack.
type store struct {
	mu    sync.Mutex
	packs map[uuid.UUID]pack.Pack
}

func (s *store) Create(_ context.Context, p pack.Pack) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.packs[p.ID] = p
	return nil
}

func (s *store) Get(_ context.Context, id uuid.UUID) (pack.Pack, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.packs[id]
	if !ok {
		return pack.Pack{}, pack.ErrNotFound
	}
	p.Streams = slices.Clone(p.Streams)
	slices.SortStableFunc(p.Streams, func(a, b pack.Stream) int { return a.DisplayOrder - b.DisplayOrder })
	return p, nil
}

func (s *store) GetBySlug(ctx context.Context, slug string) (pack.Pack, error) {
	s.mu.Lock()
	id := uuid.Nil
	for _, p := range s.packs {
		if p.ShareSlug == slug {
			id = p.ID
		}
	}
	s.mu.Unlock()
	return s.Get(ctx, id)
}

func (s *store) filter(keep func(pack.Pack) bool) []pack.Pack {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []pack.Pack
	for _, p := range s.packs {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

func (s *store) ListByOwner(_ context.Context, owner uuid.UUID) ([]pack.Pack, error) {
	return s.filter(func(p pack.Pack) bool { return p.OwnerID == owner }), nil
}

func (s *store) ListPublic(_ context.Context, limit, _ int) ([]pack.Pack, error) {
	out := s.filter(func(p pack.Pack) bool { return p.Visibility == pack.Public })
	return out[:min(limit, len(out))], nil
}

func (s *store) CountByOwner(ctx context.Context, owner uuid.UUID) (int, error) {
	ps, _ := s.ListByOwner(ctx, owner)
	return len(ps), nil
}

func (s *store) Update(_ context.Context, p pack.Pack) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.Streams = s.packs[p.ID].Streams
	s.packs[p.ID] = p
	return nil
}

func (s *store) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.packs, id)
	return nil
}

func (s *store) AddStream(_ context.Context, st pack.Stream) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.packs[st.PackID]
	p.Streams = append(p.Streams, st)
	s.packs[p.ID] = p
	return nil
}

func (s *store) RemoveStream(_ context.Context, packID, streamID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.packs[packID]
	n := len(p.Streams)
	p.Streams = slices.DeleteFunc(p.Streams, func(st pack.Stream) bool { return st.ID == streamID })
	if len(p.Streams) == n {
		return pack.ErrStreamNotFound
	}
	s.packs[packID] = p
	return nil
}

func (s *store) ReorderStreams(_ context.Context, packID uuid.UUID, order []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.packs[packID]
	for i, id := range order {
		j := slices.IndexFunc(p.Streams, func(st pack.Stream) bool { return st.ID == id })
		p.Streams[j].DisplayOrder = i
	}
	s.packs[packID] = p
	return nil
}

type premiumSet map[uuid.UUID]bool

func (p premiumSet) Get(_ context.Context, id uuid.UUID) (bool, error) { return p[id], nil }
func (p premiumSet) Invalidate(context.Context, uuid.UUID) error       { return nil }

type fixture struct {
	srv   *httptest.Server
	owner uuid.UUID
	other uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{owner: uuid.New(), other: uuid.New()}

	svc := pack.NewService(&store{packs: map[uuid.UUID]pack.Pack{}}, premiumSet{f.owner: true},
		premium.DefaultTiers(), pack.Config{ShareBaseURL: "https://t333.watch/p", ListLimit: 20})

	withUser := func(required bool) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				id, err := uuid.Parse(r.Header.Get("X-Test-User"))
				if err != nil {
					if required {
						w.WriteHeader(http.StatusUnauthorized)
						return
					}
					next.ServeHTTP(w, r)
					return
				}
				next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), user.User{ID: id})))
			})
		}
	}

	mod := packs.New(svc, packs.Options{RequireUser: withUser(true), OptionalUser: withUser(false)})
	f.srv = httptest.NewServer(http.StripPrefix("/api/packs", mod.Handle()))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fixture) do(t *testing.T, as uuid.UUID, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, f.srv.URL+"/api/packs"+path, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if as != uuid.Nil {
		req.Header.Set("X-Test-User", as.String())
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

type packBody struct {
	ID         uuid.UUID `json:"id"`
	Title      string    `json:"title"`
	Visibility string    `json:"visibility"`
	ShareURL   string    `json:"share_url"`
	Tags       []string  `json:"tags"`
	Streams    []struct {
		ID          uuid.UUID `json:"id"`
		ChannelName string    `json:"channel_name"`
	} `json:"streams"`
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

func (f *fixture) create(t *testing.T, body string) packBody {
	t.Helper()
	resp, data := f.do(t, f.owner, http.MethodPost, "/", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	return decode[packBody](t, data)
}

func TestCreateAndGet(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	resp, _ := f.do(t, uuid.Nil, http.MethodPost, "/", `{"title":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, data := f.do(t, f.owner, http.MethodPost, "/", `{"title":""}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(data), `"validation_error"`)

	resp, _ = f.do(t, f.owner, http.MethodPost, "/", `{"title":"x","bogus":1}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	p := f.create(t, `{"title":"Speedrun Squad","tags":["GTA"]}`)
	assert.Equal(t, "public", p.Visibility)
	assert.Equal(t, []string{"gta"}, p.Tags)
	assert.True(t, strings.HasPrefix(p.ShareURL, "https://t333.watch/p/speedrun-squad-"))

	resp, data = f.do(t, uuid.Nil, http.MethodGet, "/"+p.ID.String(), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Speedrun Squad", decode[packBody](t, data).Title)

	slug := p.ShareURL[strings.LastIndex(p.ShareURL, "/")+1:]
	resp, _ = f.do(t, uuid.Nil, http.MethodGet, "/share/"+slug, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = f.do(t, uuid.Nil, http.MethodGet, "/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = f.do(t, uuid.Nil, http.MethodGet, "/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPrivatePack(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	p := f.create(t, `{"title":"Secret","visibility":"private"}`)

	resp, _ := f.do(t, f.other, http.MethodGet, "/"+p.ID.String(), "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = f.do(t, f.owner, http.MethodGet, "/"+p.ID.String(), "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, data := f.do(t, f.other, http.MethodPost, "/", `{"title":"Mine","visibility":"private"}`)
	assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
	assert.Contains(t, string(data), `"premium_required"`)

	resp, data = f.do(t, uuid.Nil, http.MethodGet, "/public", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[struct {
		Packs []packBody `json:"packs"`
	}](t, data).Packs)
}

func TestOwnership(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	p := f.create(t, `{"title":"Owned"}`)
	id := p.ID.String()

	resp, _ := f.do(t, f.other, http.MethodPatch, "/"+id, `{"title":"Hijacked"}`)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = f.do(t, f.other, http.MethodDelete, "/"+id, "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = f.do(t, f.other, http.MethodPost, "/"+id+"/streams", `{"channel_name":"shroud"}`)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, data := f.do(t, f.owner, http.MethodPatch, "/"+id, `{"title":"Renamed"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Renamed", decode[packBody](t, data).Title)

	resp, _ = f.do(t, f.owner, http.MethodDelete, "/"+id, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = f.do(t, f.owner, http.MethodGet, "/"+id, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStreams(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	p := f.create(t, `{"title":"Squad"}`)
	base := "/" + p.ID.String() + "/streams"

	var ids []string
	for _, name := range []string{"alpha", "bravo", "charlie"} {
		resp, data := f.do(t, f.owner, http.MethodPost, base, `{"channel_name":"`+name+`","offset_seconds":5}`)
		require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
		ids = append(ids, decode[struct {
			ID string `json:"id"`
		}](t, data).ID)
	}

	resp, _ := f.do(t, f.owner, http.MethodPut, base+"/order", `{"order":["`+ids[0]+`"]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, data := f.do(t, f.owner, http.MethodPut, base+"/order", `{"order":["`+ids[2]+`","`+ids[0]+`","`+ids[1]+`"]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	got := decode[packBody](t, data)
	require.Len(t, got.Streams, 3)
	assert.Equal(t, "charlie", got.Streams[0].ChannelName)
	assert.Equal(t, "alpha", got.Streams[1].ChannelName)

	resp, _ = f.do(t, f.owner, http.MethodDelete, base+"/"+ids[1], "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = f.do(t, f.owner, http.MethodDelete, base+"/"+ids[1], "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestQR(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	p := f.create(t, `{"title":"Share"}`)
	resp, data := f.do(t, uuid.Nil, http.MethodGet, "/"+p.ID.String()+"/qr?size=128", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))
}

func TestListMine(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.create(t, `{"title":"One"}`)
	f.create(t, `{"title":"Two","visibility":"private"}`)

	resp, data := f.do(t, f.owner, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[struct {
		Packs []packBody `json:"packs"`
	}](t, data).Packs, 2)

	resp, _ = f.do(t, uuid.Nil, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
