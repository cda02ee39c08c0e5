package packs

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/t333watch/t333watch/binder"
	"github.com/t333watch/t333watch/handler"
	"github.com/t333watch/t333watch/pkg/logger"
	"github.com/t333watch/t333watch/svc/auth"
	"github.com/t333watch/t333watch/svc/pack"
)

type Options struct {
	RequireUser  func(http.Handler) http.Handler
	OptionalUser func(http.Handler) http.Handler
	Logger       *slog.Logger
}

type Module struct {
	svc  *pack.Service
	opts Options
	errs handler.ErrorHandler
}

func New(svc *pack.Service, opts Options) *Module {
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	return &Module{
		svc:  svc,
		opts: opts,
		errs: handler.NewErrorHandler(opts.Logger.With(logger.Component("packs_http"))),
	}
}

func (m *Module) Handle() http.Handler {
	r := chi.NewRouter()
	path := handler.WithBinders(binder.Path())
	query := handler.WithBinders(binder.Query())
	body := handler.WithBinders(binder.JSON())
	errs := handler.WithErrorHandler(m.errs)

	r.Group(func(r chi.Router) {
		r.Use(m.opts.OptionalUser)
		r.Get("/public", handler.Wrap(m.listPublic, query, errs))
		r.Get("/share/{slug}", handler.Wrap(m.getBySlug, path, errs))
		r.Get("/{id}", handler.Wrap(m.get, path, errs))
		r.Get("/{id}/qr", handler.Wrap(m.qr, path, query, errs))
	})

	r.Group(func(r chi.Router) {
		r.Use(m.opts.RequireUser)
		r.Get("/", handler.Wrap(m.listMine, errs))
		r.Post("/", handler.Wrap(m.create, body, errs))
		r.Patch("/{id}", handler.Wrap(m.update, body, path, errs))
		r.Delete("/{id}", handler.Wrap(m.delete, path, errs))
		r.Post("/{id}/streams", handler.Wrap(m.addStream, body, path, errs))
		r.Put("/{id}/streams/order", handler.Wrap(m.reorder, body, path, errs))
		r.Delete("/{id}/streams/{streamID}", handler.Wrap(m.removeStream, path, errs))
	})
	return r
}

// actor is the signed-in user or uuid.Nil.
func actor(ctx handler.Context) uuid.UUID {
	if u, ok := auth.UserFromContext(ctx); ok {
		return u.ID
	}
	return uuid.Nil
}

type streamJSON struct {
	ID            uuid.UUID `json:"id"`
	ChannelName   string    `json:"channel_name"`
	DisplayOrder  int       `json:"display_order"`
	OffsetSeconds int       `json:"offset_seconds"`
}

type packJSON struct {
	ID          uuid.UUID    `json:"id"`
	OwnerID     uuid.UUID    `json:"owner_id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Tags        []string     `json:"tags"`
	Visibility  string       `json:"visibility"`
	ShareURL    string       `json:"share_url"`
	Streams     []streamJSON `json:"streams,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func toStreamJSON(s pack.Stream) streamJSON {
	return streamJSON{ID: s.ID, ChannelName: s.ChannelName, DisplayOrder: s.DisplayOrder, OffsetSeconds: s.OffsetSeconds}
}

func (m *Module) toJSON(p pack.Pack) packJSON {
	out := packJSON{
		ID:          p.ID,
		OwnerID:     p.OwnerID,
		Title:       p.Title,
		Description: p.Description,
		Tags:        p.Tags,
		Visibility:  string(p.Visibility),
		ShareURL:    m.svc.ShareURL(p),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if out.Tags == nil {
		out.Tags = []string{}
	}
	for _, s := range p.Streams {
		out.Streams = append(out.Streams, toStreamJSON(s))
	}
	return out
}

type listResponse struct {
	Packs []packJSON `json:"packs"`
}

func (m *Module) list(packs []pack.Pack) handler.Response {
	out := listResponse{Packs: make([]packJSON, 0, len(packs))}
	for _, p := range packs {
		out.Packs = append(out.Packs, m.toJSON(p))
	}
	return handler.JSON(out)
}

func (m *Module) listMine(ctx handler.Context, _ struct{}) handler.Response {
	packs, err := m.svc.ListMine(ctx, actor(ctx))
	if err != nil {
		return handler.Fail(httpError(err))
	}
	return m.list(packs)
}

type pageRequest struct {
	Limit  int `query:"limit"`
	Offset int `query:"offset"`
}

func (m *Module) listPublic(ctx handler.Context, req pageRequest) handler.Response {
	packs, err := m.svc.ListPublic(ctx, req.Limit, req.Offset)
	if err != nil {
		return handler.Fail(httpError(err))
	}
	return m.list(packs)
}

type idRequest struct {
	ID uuid.UUID `path:"id"`
}

func (m *Module) get(ctx handler.Context, req idRequest) handler.Response {
	p, err := m.svc.Get(ctx, actor(ctx), req.ID)
	if err != nil {
		return handler.Fail(httpError(err))
	}
	return handler.JSON(m.toJSON(p))
}

type slugRequest struct {
	Slug string `path:"slug"`
}

func (m *Module) getBySlug(ctx handler.Context, req slugRequest) handler.Response {
	p, err := m.svc.GetByShareSlug(ctx, actor(ctx), req.Slug)
	if err != nil {
		return handler.Fail(httpError(err))
	}
	return handler.JSON(m.toJSON(p))
}

type createRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Visibility  string   `json:"visibility"`
}

func (m *Module) create(ctx handler.Context, req createRequest) handler.Response {
	p, err := m.svc.Create(ctx, actor(ctx), pack.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Tags:        req.Tags,
		Visibility:  pack.Visibility(req.Visibility),
	})
	if err != nil {
		return handler.Fail(httpError(err))
	}
	return handler.JSONWithStatus(http.StatusCreated, m.toJSON(p))
}

type updateRequest struct {
	ID          uuid.UUID        `json:"-" path:"id"`
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Tags        *[]string        `json:"tags"`
	Visibility  *pack.Visibility `json:"visibility"`
}

func (m *Module) update(ctx handler.Context, req updateRequest) handler.Response {
	p, err := m.svc.Update(ctx, actor(ctx), req.ID, pack.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Tags:        req.Tags,
		Visibility:  req.Visibility,
	})
	if err != nil {
		return handler.Fail(httpError(err))
	}
	return handler.JSON(m.toJSON(p))
}

func (m *Module) delete(ctx handler.Context, req idRequest) handler.Response {
	if err := m.svc.Delete(ctx, actor(ctx), req.ID); err != nil {
		return handler.Fail(httpError(err))
	}
	return handler.Empty()
}

type addStreamRequest struct {
	ID            uuid.UUID `json:"-" path:"id"`
	ChannelName   string    `json:"channel_name"`
	OffsetSeconds int       `json:"offset_seconds"`
}

func (m *Module) addStream(ctx handler.Context, req addStreamRequest) handler.Response {
	st, err := m.svc.AddStream(ctx, actor(ctx), req.ID, pack.StreamInput{
		ChannelName:   req.ChannelName,
		OffsetSeconds: req.OffsetSeconds,
	})
	if err != nil {
		return handler.Fail(httpError(err))
	}
	return handler.JSONWithStatus(http.StatusCreated, toStreamJSON(st))
}

type reorderRequest struct {
	ID    uuid.UUID   `json:"-" path:"id"`
	Order []uuid.UUID `json:"order"`
}

func (m *Module) reorder(ctx handler.Context, req reorderRequest) handler.Response {
	p, err := m.svc.ReorderStreams(ctx, actor(ctx), req.ID, req.Order)
	if err != nil {
		return handler.Fail(httpError(err))
	}
	return handler.JSON(m.toJSON(p))
}

type streamRequest struct {
	ID       uuid.UUID `path:"id"`
	StreamID uuid.UUID `path:"streamID"`
}

func (m *Module) removeStream(ctx handler.Context, req streamRequest) handler.Response {
	if err := m.svc.RemoveStream(ctx, actor(ctx), req.ID, req.StreamID); err != nil {
		return handler.Fail(httpError(err))
	}
	return handler.Empty()
}

type qrRequest struct {
	ID   uuid.UUID `path:"id"`
	Size int       `query:"size"`
}

func (m *Module) qr(ctx handler.Context, req qrRequest) handler.Response {
	png, err := m.svc.ShareQR(ctx, actor(ctx), req.ID, req.Size)
	if err != nil {
		return handler.Fail(httpError(err))
	}
	return handler.Bytes("image/png", png, "private, max-age=300")
}
