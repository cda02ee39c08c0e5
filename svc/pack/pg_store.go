package pack

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/t333watch/t333watch/pkg/pg"
)

// DB is the subset of pgxpool.Pool used by the store.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type PGStore struct {
	db DB
}

func NewPGStore(db DB) *PGStore {
	return &PGStore{db: db}
}

const packColumns = `id, owner_id, title, coalesce(description, ''), tags, visibility, share_slug, created_at, updated_at`

func scanPack(row pgx.Row) (Pack, error) {
	var p Pack
	err := row.Scan(&p.ID, &p.OwnerID, &p.Title, &p.Description, &p.Tags, &p.Visibility, &p.ShareSlug, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return Pack{}, ErrNotFound
		}
		return Pack{}, storeErr("scan pack", err)
	}
	return p, nil
}

func storeErr(op string, err error) error {
	return errors.Join(ErrStoreFailure, fmt.Errorf("%s: %w", op, err))
}

func (s *PGStore) Create(ctx context.Context, p Pack) error {
	_, err := s.db.Exec(ctx, `INSERT INTO packs (id, owner_id, title, description, tags, visibility, share_slug, created_at, updated_at)
		VALUES ($1, $2, $3, nullif($4, ''), $5, $6, $7, $8, $9)`,
		p.ID, p.OwnerID, p.Title, p.Description, p.Tags, p.Visibility, p.ShareSlug, p.CreatedAt, p.UpdatedAt)
	if pg.IsDuplicateKeyError(err) {
		return ErrSlugTaken
	}
	if err != nil {
		return storeErr("insert pack", err)
	}
	return nil
}

func (s *PGStore) Get(ctx context.Context, id uuid.UUID) (Pack, error) {
	p, err := scanPack(s.db.QueryRow(ctx, `SELECT `+packColumns+` FROM packs WHERE id = $1`, id))
	if err != nil {
		return Pack{}, err
	}
	return s.withStreams(ctx, p)
}

func (s *PGStore) GetBySlug(ctx context.Context, slug string) (Pack, error) {
	p, err := scanPack(s.db.QueryRow(ctx, `SELECT `+packColumns+` FROM packs WHERE share_slug = $1`, slug))
	if err != nil {
		return Pack{}, err
	}
	return s.withStreams(ctx, p)
}

func (s *PGStore) withStreams(ctx context.Context, p Pack) (Pack, error) {
	rows, err := s.db.Query(ctx, `SELECT id, pack_id, channel_name, display_order, offset_seconds, created_at
		FROM pack_streams WHERE pack_id = $1 ORDER BY display_order, created_at`, p.ID)
	if err != nil {
		return Pack{}, storeErr("query streams", err)
	}
	p.Streams, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (Stream, error) {
		var st Stream
		err := row.Scan(&st.ID, &st.PackID, &st.ChannelName, &st.DisplayOrder, &st.OffsetSeconds, &st.CreatedAt)
		return st, err
	})
	if err != nil {
		return Pack{}, storeErr("scan streams", err)
	}
	return p, nil
}

func (s *PGStore) list(ctx context.Context, sql string, args ...any) ([]Pack, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, storeErr("query packs", err)
	}
	packs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Pack, error) {
		return scanPack(row)
	})
	if err != nil {
		return nil, err
	}
	return packs, nil
}

func (s *PGStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Pack, error) {
	return s.list(ctx, `SELECT `+packColumns+` FROM packs WHERE owner_id = $1 ORDER BY updated_at DESC`, ownerID)
}

func (s *PGStore) ListPublic(ctx context.Context, limit, offset int) ([]Pack, error) {
	return s.list(ctx, `SELECT `+packColumns+` FROM packs WHERE visibility = 'public'
		ORDER BY updated_at DESC LIMIT $1 OFFSET $2`, limit, offset)
}

func (s *PGStore) CountByOwner(ctx context.Context, ownerID uuid.UUID) (int, error) {
	var n int
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM packs WHERE owner_id = $1`, ownerID).Scan(&n); err != nil {
		return 0, storeErr("count packs", err)
	}
	return n, nil
}

func (s *PGStore) Update(ctx context.Context, p Pack) error {
	tag, err := s.db.Exec(ctx, `UPDATE packs SET title = $2, description = nullif($3, ''), tags = $4, visibility = $5, updated_at = $6
		WHERE id = $1`, p.ID, p.Title, p.Description, p.Tags, p.Visibility, p.UpdatedAt)
	if err != nil {
		return storeErr("update pack", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM packs WHERE id = $1`, id)
	if err != nil {
		return storeErr("delete pack", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) AddStream(ctx context.Context, st Stream) error {
	_, err := s.db.Exec(ctx, `INSERT INTO pack_streams (id, pack_id, channel_name, display_order, offset_seconds, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`, st.ID, st.PackID, st.ChannelName, st.DisplayOrder, st.OffsetSeconds, st.CreatedAt)
	if pg.IsForeignKeyViolationError(err) {
		return ErrNotFound
	}
	if err != nil {
		return storeErr("insert stream", err)
	}
	return s.touch(ctx, s.db, st.PackID)
}

func (s *PGStore) RemoveStream(ctx context.Context, packID, streamID uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM pack_streams WHERE id = $1 AND pack_id = $2`, streamID, packID)
	if err != nil {
		return storeErr("delete stream", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrStreamNotFound
	}
	return s.touch(ctx, s.db, packID)
}

func (s *PGStore) ReorderStreams(ctx context.Context, packID uuid.UUID, order []uuid.UUID) error {
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		for i, id := range order {
			tag, err := tx.Exec(ctx, `UPDATE pack_streams SET display_order = $3 WHERE id = $1 AND pack_id = $2`, id, packID, i)
			if err != nil {
				return storeErr("reorder stream", err)
			}
			if tag.RowsAffected() == 0 {
				return ErrStreamNotFound
			}
		}
		return s.touch(ctx, tx, packID)
	})
	return err
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (s *PGStore) touch(ctx context.Context, db execer, packID uuid.UUID) error {
	if _, err := db.Exec(ctx, `UPDATE packs SET updated_at = now() WHERE id = $1`, packID); err != nil {
		return storeErr("touch pack", err)
	}
	return nil
}
