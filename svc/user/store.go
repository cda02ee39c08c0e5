package user

import (
	"context"

	"github.com/google/uuid"
)

// Store is the User Record Store. It is the single source of truth for the
// premium flag; concurrent writers are not serialized and the last write wins.
type Store interface {
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	GetByTwitchID(ctx context.Context, twitchID string) (User, error)
	GetByCustomerID(ctx context.Context, customerID string) (User, error)
	// Upsert creates the user on first login and refreshes the profile afterwards.
	Upsert(ctx context.Context, p Profile) (User, error)
	SetPremium(ctx context.Context, id uuid.UUID, premium bool) error
	SetCustomerID(ctx context.Context, id uuid.UUID, customerID string) error
	SetTokens(ctx context.Context, id uuid.UUID, accessSealed, refreshSealed string) error
}
