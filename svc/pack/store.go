package pack

import (
	"context"

	"github.com/google/uuid"
)

// Store persists packs. Get and GetBySlug load streams ordered by
// DisplayOrder; list methods leave Streams empty.
type Store interface {
	Create(ctx context.Context, p Pack) error
	Get(ctx context.Context, id uuid.UUID) (Pack, error)
	GetBySlug(ctx context.Context, slug string) (Pack, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Pack, error)
	ListPublic(ctx context.Context, limit, offset int) ([]Pack, error)
	CountByOwner(ctx context.Context, ownerID uuid.UUID) (int, error)
	Update(ctx context.Context, p Pack) error
	Delete(ctx context.Context, id uuid.UUID) error

	AddStream(ctx context.Context, s Stream) error
	RemoveStream(ctx context.Context, packID, streamID uuid.UUID) error
	// ReorderStreams sets DisplayOrder to each id's position in order.
	ReorderStreams(ctx context.Context, packID uuid.UUID, order []uuid.UUID) error
}
