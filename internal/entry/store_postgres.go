package entry

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tripgate/internal/domain"
	"tripgate/pkg/platform/sentinel"
	"tripgate/pkg/platform/tx"
)

// PostgresStore persists entry records in the entry_info table.
type PostgresStore struct {
	db tx.DBTX
}

func NewPostgresStore(db tx.DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

const entryColumns = `id, user_id, passport_id, personal_info_id, travel_info_id,
	destination_id, status, completion_metrics, documents, display_status, last_updated_at`

func (s *PostgresStore) Create(ctx context.Context, record *domain.EntryRecord) error {
	metrics, err := json.Marshal(record.Completion)
	if err != nil {
		return fmt.Errorf("marshal completion metrics: %w", err)
	}
	documents, err := json.Marshal(record.Documents)
	if err != nil {
		return fmt.Errorf("marshal documents: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO entry_info (`+entryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		record.ID.String(), record.UserID.String(),
		uuidOrNil(record.PassportID), uuidOrNil(record.PersonalInfoID), uuidOrNil(record.TravelInfoID),
		string(record.DestinationID), string(record.Status), metrics, documents,
		record.DisplayStatus, record.LastUpdatedAt)
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.EntryID) (*domain.EntryRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+entryColumns+` FROM entry_info WHERE id = $1`, id.String())
	record, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find entry: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID domain.UserID) ([]*domain.EntryRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+entryColumns+` FROM entry_info
		WHERE user_id = $1
		ORDER BY last_updated_at DESC`, userID.String())
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var out []*domain.EntryRecord
	for rows.Next() {
		record, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

func (s *PostgresStore) TransitionStatus(ctx context.Context, id domain.EntryID, from, to domain.EntryStatus, now time.Time) error {
	if !from.CanTransitionTo(to) {
		return sentinel.ErrInvalidState
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE entry_info SET status = $1, last_updated_at = $2
		WHERE id = $3 AND status = $4`,
		string(to), now, id.String(), string(from))
	if err != nil {
		return fmt.Errorf("transition entry status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		// Either the row is gone or a concurrent writer won the CAS.
		if _, ferr := s.FindByID(ctx, id); errors.Is(ferr, sentinel.ErrNotFound) {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrInvalidState
	}
	return nil
}

func (s *PostgresStore) UpdateCompletion(ctx context.Context, id domain.EntryID, m domain.CompletionMetrics, displayStatus string, now time.Time) error {
	metrics, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal completion metrics: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE entry_info SET completion_metrics = $1, display_status = $2, last_updated_at = $3
		WHERE id = $4`,
		metrics, displayStatus, now, id.String())
	if err != nil {
		return fmt.Errorf("update completion: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ExpireStale(ctx context.Context, cutoff time.Time, now time.Time) ([]ExpiredEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		UPDATE entry_info SET status = 'expired', last_updated_at = $1
		WHERE status NOT IN ('completed', 'expired', 'archived')
		  AND last_updated_at < $2
		RETURNING id, user_id`,
		now, cutoff)
	if err != nil {
		return nil, fmt.Errorf("expire stale entries: %w", err)
	}
	defer rows.Close()

	var expired []ExpiredEntry
	for rows.Next() {
		var id, userID string
		if err := rows.Scan(&id, &userID); err != nil {
			return nil, fmt.Errorf("scan expired entry: %w", err)
		}
		entryID, err := domain.ParseEntryID(id)
		if err != nil {
			return nil, err
		}
		ownerID, err := domain.ParseUserID(userID)
		if err != nil {
			return nil, err
		}
		expired = append(expired, ExpiredEntry{ID: entryID, UserID: ownerID})
	}
	return expired, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*domain.EntryRecord, error) {
	var (
		record                               domain.EntryRecord
		id, userID                           string
		passportID, personalID, travelID     sql.NullString
		destinationID, status, displayStatus string
		metrics, documents                   []byte
	)
	if err := row.Scan(&id, &userID, &passportID, &personalID, &travelID,
		&destinationID, &status, &metrics, &documents, &displayStatus, &record.LastUpdatedAt); err != nil {
		return nil, err
	}

	entryID, err := domain.ParseEntryID(id)
	if err != nil {
		return nil, err
	}
	ownerID, err := domain.ParseUserID(userID)
	if err != nil {
		return nil, err
	}
	record.ID = entryID
	record.UserID = ownerID
	record.PassportID = parseNullUUID(passportID)
	record.PersonalInfoID = parseNullUUID(personalID)
	record.TravelInfoID = parseNullUUID(travelID)
	record.DestinationID = domain.DestinationID(destinationID)
	record.Status = domain.EntryStatus(status)
	record.DisplayStatus = displayStatus
	if len(metrics) > 0 {
		if err := json.Unmarshal(metrics, &record.Completion); err != nil {
			return nil, fmt.Errorf("unmarshal completion metrics: %w", err)
		}
	}
	if len(documents) > 0 {
		if err := json.Unmarshal(documents, &record.Documents); err != nil {
			return nil, fmt.Errorf("unmarshal documents: %w", err)
		}
	}
	return &record, nil
}

func uuidOrNil(id uuid.UUID) any {
	if id == uuid.Nil {
		return nil
	}
	return id.String()
}

func parseNullUUID(s sql.NullString) uuid.UUID {
	if !s.Valid {
		return uuid.Nil
	}
	u, err := uuid.Parse(s.String)
	if err != nil {
		return uuid.Nil
	}
	return u
}
