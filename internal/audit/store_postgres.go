package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"tripgate/internal/domain"
	"tripgate/pkg/platform/tx"
)

// PostgresStore persists audit events in the audit_log table.
type PostgresStore struct {
	db tx.DBTX
}

func NewPostgresStore(db tx.DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	detail, err := json.Marshal(event.Detail)
	if err != nil {
		return fmt.Errorf("marshal audit detail: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_log (id, user_id, entry_id, action, detail, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		event.ID.String(), event.UserID.String(), event.EntryID.String(),
		event.Action, detail, event.At)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByEntry(ctx context.Context, entryID domain.EntryID) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, entry_id, action, detail, occurred_at
		FROM audit_log WHERE entry_id = $1 ORDER BY occurred_at`, entryID.String())
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			e            Event
			id, uid, eid string
			detail       []byte
		)
		if err := rows.Scan(&id, &uid, &eid, &e.Action, &detail, &e.At); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		if e.ID, err = uuid.Parse(id); err != nil {
			return nil, err
		}
		userID, err := domain.ParseUserID(uid)
		if err != nil {
			return nil, err
		}
		e.UserID = userID
		entry, err := domain.ParseEntryID(eid)
		if err != nil {
			return nil, err
		}
		e.EntryID = entry
		if len(detail) > 0 {
			if err := json.Unmarshal(detail, &e.Detail); err != nil {
				return nil, fmt.Errorf("unmarshal audit detail: %w", err)
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
