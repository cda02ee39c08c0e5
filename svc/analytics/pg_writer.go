package analytics

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Copier is the part of pgxpool.Pool used for bulk inserts.
type Copier interface {
	CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error)
}

// PGWriter stores batches in analytics_events using COPY.
type PGWriter struct {
	db Copier
}

func NewPGWriter(db Copier) *PGWriter {
	return &PGWriter{db: db}
}

var eventColumns = []string{"id", "name", "category", "user_id", "event_ref", "properties", "occurred_at"}

func (w *PGWriter) WriteBatch(ctx context.Context, events []Event) error {
	rows := make([][]any, 0, len(events))
	for _, e := range events {
		props, err := json.Marshal(e.Properties)
		if err != nil {
			return fmt.Errorf("marshal properties of %s: %w", e.Name, err)
		}
		if e.Properties == nil {
			props = []byte("{}")
		}
		var userID any
		if e.UserID != uuid.Nil {
			userID = e.UserID
		}
		var ref any
		if e.Ref != "" {
			ref = e.Ref
		}
		rows = append(rows, []any{e.ID, e.Name, string(e.Category), userID, ref, props, e.OccurredAt})
	}

	n, err := w.db.CopyFrom(ctx, pgx.Identifier{"analytics_events"}, eventColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("copy analytics events: %w", err)
	}
	if int(n) != len(rows) {
		return fmt.Errorf("copy analytics events: wrote %d of %d", n, len(rows))
	}
	return nil
}
