package pack

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/t333watch/t333watch/pkg/logger"
	"github.com/t333watch/t333watch/pkg/qrcode"
	"github.com/t333watch/t333watch/pkg/slug"
	"github.com/t333watch/t333watch/svc/premium"
)

const (
	slugMaxLength = 40
	slugSuffixLen = 6
	slugAttempts  = 3
)

type Service struct {
	store   Store
	premium premium.Cache
	tiers   premium.Tiers
	cfg     Config
	log     *slog.Logger
	now     func() time.Time
}

type ServiceOption func(*Service)

func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

func NewService(store Store, cache premium.Cache, tiers premium.Tiers, cfg Config, opts ...ServiceOption) *Service {
	s := &Service{
		store:   store,
		premium: cache,
		tiers:   tiers,
		cfg:     cfg,
		log:     logger.Discard(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cfg.ListLimit <= 0 {
		s.cfg.ListLimit = 50
	}
	s.log = s.log.With(logger.Component("pack"))
	return s
}

// features resolves the owner's tier. A cache failure falls back to the
// free tier.
func (s *Service) features(ctx context.Context, owner uuid.UUID) premium.Features {
	isPremium, err := s.premium.Get(ctx, owner)
	if err != nil {
		s.log.WarnContext(ctx, "premium lookup failed, applying free tier", logger.UserID(owner), logger.Error(err))
		return s.tiers.Free
	}
	return s.tiers.For(isPremium)
}

func (s *Service) Create(ctx context.Context, owner uuid.UUID, in CreateInput) (Pack, error) {
	if owner == uuid.Nil {
		return Pack{}, ErrUnauthenticated
	}
	if err := in.normalize(); err != nil {
		return Pack{}, err
	}

	f := s.features(ctx, owner)
	if in.Visibility == Private && !f.PrivatePacks {
		return Pack{}, ErrPremiumRequired
	}
	n, err := s.store.CountByOwner(ctx, owner)
	if err != nil {
		return Pack{}, err
	}
	if n >= f.MaxPacks {
		return Pack{}, ErrLimitReached
	}

	now := s.now().UTC()
	p := Pack{
		ID:          uuid.New(),
		OwnerID:     owner,
		Title:       in.Title,
		Description: in.Description,
		Tags:        in.Tags,
		Visibility:  in.Visibility,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for range slugAttempts {
		p.ShareSlug = slug.Make(p.Title, slug.MaxLength(slugMaxLength), slug.WithSuffix(slugSuffixLen))
		err = s.store.Create(ctx, p)
		if !errors.Is(err, ErrSlugTaken) {
			break
		}
	}
	if err != nil {
		return Pack{}, err
	}

	s.log.InfoContext(ctx, "pack created", logger.PackID(p.ID), logger.UserID(owner))
	return p, nil
}

func (s *Service) load(ctx context.Context, actor, id uuid.UUID, action Action) (Pack, error) {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return Pack{}, err
	}
	if err := Authorize(actor, p, action); err != nil {
		return Pack{}, err
	}
	return p, nil
}

// Get returns a pack with its streams. actor is uuid.Nil for anonymous reads.
func (s *Service) Get(ctx context.Context, actor, id uuid.UUID) (Pack, error) {
	return s.load(ctx, actor, id, ActionView)
}

func (s *Service) GetByShareSlug(ctx context.Context, actor uuid.UUID, shareSlug string) (Pack, error) {
	p, err := s.store.GetBySlug(ctx, strings.ToLower(strings.TrimSpace(shareSlug)))
	if err != nil {
		return Pack{}, err
	}
	if err := Authorize(actor, p, ActionView); err != nil {
		return Pack{}, err
	}
	return p, nil
}

func (s *Service) ListMine(ctx context.Context, owner uuid.UUID) ([]Pack, error) {
	if owner == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	return s.store.ListByOwner(ctx, owner)
}

// ListPublic pages through public packs, newest first. limit is clamped to
// Config.ListLimit.
func (s *Service) ListPublic(ctx context.Context, limit, offset int) ([]Pack, error) {
	if limit <= 0 || limit > s.cfg.ListLimit {
		limit = s.cfg.ListLimit
	}
	return s.store.ListPublic(ctx, limit, max(offset, 0))
}

func (s *Service) Update(ctx context.Context, actor, id uuid.UUID, in UpdateInput) (Pack, error) {
	p, err := s.load(ctx, actor, id, ActionEdit)
	if err != nil {
		return Pack{}, err
	}
	if err := in.normalize(); err != nil {
		return Pack{}, err
	}
	if in.Visibility != nil && *in.Visibility == Private && p.Visibility != Private {
		if !s.features(ctx, p.OwnerID).PrivatePacks {
			return Pack{}, ErrPremiumRequired
		}
	}

	if in.Title != nil {
		p.Title = *in.Title
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Tags != nil {
		p.Tags = *in.Tags
	}
	if in.Visibility != nil {
		p.Visibility = *in.Visibility
	}
	p.UpdatedAt = s.now().UTC()

	if err := s.store.Update(ctx, p); err != nil {
		return Pack{}, err
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, actor, id uuid.UUID) error {
	if _, err := s.load(ctx, actor, id, ActionDelete); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "pack deleted", logger.PackID(id), logger.UserID(actor))
	return nil
}

// AddStream appends a channel to the end of the pack. A non-zero offset
// requires the VOD sync feature.
func (s *Service) AddStream(ctx context.Context, actor, packID uuid.UUID, in StreamInput) (Stream, error) {
	p, err := s.load(ctx, actor, packID, ActionManageStreams)
	if err != nil {
		return Stream{}, err
	}
	if err := in.normalize(); err != nil {
		return Stream{}, err
	}

	f := s.features(ctx, p.OwnerID)
	if len(p.Streams) >= f.MaxStreamsPerPack {
		return Stream{}, ErrLimitReached
	}
	if in.OffsetSeconds != 0 && !f.VODSync {
		return Stream{}, ErrPremiumRequired
	}

	order := 0
	for _, st := range p.Streams {
		order = max(order, st.DisplayOrder+1)
	}
	st := Stream{
		ID:            uuid.New(),
		PackID:        p.ID,
		ChannelName:   in.ChannelName,
		DisplayOrder:  order,
		OffsetSeconds: in.OffsetSeconds,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.store.AddStream(ctx, st); err != nil {
		return Stream{}, err
	}
	return st, nil
}

func (s *Service) RemoveStream(ctx context.Context, actor, packID, streamID uuid.UUID) error {
	if _, err := s.load(ctx, actor, packID, ActionManageStreams); err != nil {
		return err
	}
	return s.store.RemoveStream(ctx, packID, streamID)
}

// ReorderStreams applies order, which must be a permutation of the pack's
// stream ids, and returns the reordered pack.
func (s *Service) ReorderStreams(ctx context.Context, actor, packID uuid.UUID, order []uuid.UUID) (Pack, error) {
	p, err := s.load(ctx, actor, packID, ActionManageStreams)
	if err != nil {
		return Pack{}, err
	}
	if len(order) != len(p.Streams) {
		return Pack{}, ErrInvalidOrder
	}
	seen := make(map[uuid.UUID]struct{}, len(order))
	for _, id := range order {
		if _, dup := seen[id]; dup {
			return Pack{}, ErrInvalidOrder
		}
		if !slices.ContainsFunc(p.Streams, func(st Stream) bool { return st.ID == id }) {
			return Pack{}, ErrInvalidOrder
		}
		seen[id] = struct{}{}
	}

	if err := s.store.ReorderStreams(ctx, packID, order); err != nil {
		return Pack{}, err
	}
	return s.store.Get(ctx, packID)
}

// ShareURL is the public link for p.
func (s *Service) ShareURL(p Pack) string {
	return strings.TrimRight(s.cfg.ShareBaseURL, "/") + "/" + p.ShareSlug
}

// ShareQR renders the pack's share link as a PNG.
func (s *Service) ShareQR(ctx context.Context, actor, packID uuid.UUID, size int) ([]byte, error) {
	p, err := s.load(ctx, actor, packID, ActionView)
	if err != nil {
		return nil, err
	}
	return qrcode.ShareURL(s.ShareURL(p), size)
}
