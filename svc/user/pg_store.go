package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/t333watch/t333watch/pkg/pg"
)

// DB is the subset of pgxpool.Pool used by the store.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type PGStore struct {
	db DB
}

func NewPGStore(db DB) *PGStore {
	return &PGStore{db: db}
}

const userColumns = `id, twitch_id, login, display_name, coalesce(email, ''), profile_image_url,
	premium_flag, coalesce(billing_customer_id, ''), coalesce(access_token_sealed, ''),
	coalesce(refresh_token_sealed, ''), created_at, updated_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.TwitchID, &u.Login, &u.DisplayName, &u.Email, &u.ProfileImageURL,
		&u.PremiumFlag, &u.CustomerID, &u.AccessTokenSealed, &u.RefreshTokenSealed, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return User{}, ErrNotFound
		}
		return User{}, errors.Join(ErrStoreUnavailable, err)
	}
	return u, nil
}

func (s *PGStore) GetByID(ctx context.Context, id uuid.UUID) (User, error) {
	return scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (s *PGStore) GetByTwitchID(ctx context.Context, twitchID string) (User, error) {
	return scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE twitch_id = $1`, twitchID))
}

func (s *PGStore) GetByCustomerID(ctx context.Context, customerID string) (User, error) {
	if customerID == "" {
		return User{}, ErrNotFound
	}
	return scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE billing_customer_id = $1`, customerID))
}

func (s *PGStore) Upsert(ctx context.Context, p Profile) (User, error) {
	if strings.TrimSpace(p.TwitchID) == "" || strings.TrimSpace(p.Login) == "" {
		return User{}, ErrInvalidProfile
	}
	display := p.DisplayName
	if display == "" {
		display = p.Login
	}

	return scanUser(s.db.QueryRow(ctx, `
		INSERT INTO users (id, twitch_id, login, display_name, email, profile_image_url)
		VALUES ($1, $2, $3, $4, nullif($5, ''), $6)
		ON CONFLICT (twitch_id) DO UPDATE SET
			login = EXCLUDED.login,
			display_name = EXCLUDED.display_name,
			email = coalesce(EXCLUDED.email, users.email),
			profile_image_url = EXCLUDED.profile_image_url,
			updated_at = now()
		RETURNING `+userColumns,
		uuid.New(), p.TwitchID, p.Login, display, p.Email, p.ProfileImageURL,
	))
}

func (s *PGStore) SetPremium(ctx context.Context, id uuid.UUID, premium bool) error {
	return s.exec(ctx, `UPDATE users SET premium_flag = $2, updated_at = now() WHERE id = $1`, id, premium)
}

func (s *PGStore) SetCustomerID(ctx context.Context, id uuid.UUID, customerID string) error {
	err := s.exec(ctx, `UPDATE users SET billing_customer_id = $2, updated_at = now() WHERE id = $1`, id, customerID)
	if pg.IsDuplicateKeyError(err) {
		return ErrCustomerIDTaken
	}
	return err
}

func (s *PGStore) SetTokens(ctx context.Context, id uuid.UUID, accessSealed, refreshSealed string) error {
	return s.exec(ctx, `UPDATE users SET access_token_sealed = nullif($2, ''), refresh_token_sealed = nullif($3, ''), updated_at = now() WHERE id = $1`,
		id, accessSealed, refreshSealed)
}

func (s *PGStore) exec(ctx context.Context, sql string, args ...any) error {
	tag, err := s.db.Exec(ctx, sql, args...)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return err
		}
		return errors.Join(ErrStoreUnavailable, fmt.Errorf("exec: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
