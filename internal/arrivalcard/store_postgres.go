package arrivalcard

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tripgate/internal/domain"
	"tripgate/pkg/platform/sentinel"
	"tripgate/pkg/platform/tx"
)

// PostgresStore persists submission attempts in digital_arrival_cards. The
// supersede invariant is enforced in the schema: a BEFORE INSERT trigger
// displaces prior active success rows, and a partial unique index backstops
// the at-most-one-active rule (see migrations).
type PostgresStore struct {
	db tx.DBTX
}

func NewPostgresStore(db tx.DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

const cardColumns = `id, entry_info_id, user_id, card_type, destination_id, arr_card_no,
	qr_uri, pdf_path, arrival_date, submitted_at, submission_method, status, retry_count,
	is_superseded, superseded_at, superseded_by, superseded_reason, version`

func (s *PostgresStore) Insert(ctx context.Context, submission *domain.ArrivalCardSubmission) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO digital_arrival_cards (`+cardColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		submission.ID.String(), submission.EntryID.String(), submission.UserID.String(),
		string(submission.CardType), string(submission.DestinationID),
		submission.ArrCardNo, submission.QRUri, submission.PDFPath,
		submission.ArrivalDate, submission.SubmittedAt, string(submission.Method),
		string(submission.Status), submission.RetryCount,
		submission.IsSuperseded, submission.SupersededAt, submissionIDOrNil(submission.SupersededBy),
		submission.SupersededReason, submission.Version)
	if err != nil {
		return fmt.Errorf("insert arrival card submission: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.SubmissionID) (*domain.ArrivalCardSubmission, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+cardColumns+` FROM digital_arrival_cards WHERE id = $1`, id.String())
	return s.scanOne(row)
}

func (s *PostgresStore) FindActive(ctx context.Context, entryID domain.EntryID, cardType domain.CardType) (*domain.ArrivalCardSubmission, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+cardColumns+` FROM digital_arrival_cards
		WHERE entry_info_id = $1 AND card_type = $2
		  AND status = 'success' AND is_superseded = FALSE`,
		entryID.String(), string(cardType))
	return s.scanOne(row)
}

func (s *PostgresStore) FindActiveForTrip(ctx context.Context, userID domain.UserID, dest domain.DestinationID, arrivalDate time.Time, since time.Time) (*domain.ArrivalCardSubmission, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+cardColumns+` FROM digital_arrival_cards
		WHERE user_id = $1 AND destination_id = $2
		  AND arrival_date::date = $3::date
		  AND status = 'success' AND is_superseded = FALSE
		  AND submitted_at >= $4
		ORDER BY submitted_at DESC
		LIMIT 1`,
		userID.String(), string(dest), arrivalDate.UTC(), since)
	return s.scanOne(row)
}

func (s *PostgresStore) ListByEntry(ctx context.Context, entryID domain.EntryID) ([]*domain.ArrivalCardSubmission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+cardColumns+` FROM digital_arrival_cards
		WHERE entry_info_id = $1
		ORDER BY submitted_at DESC`, entryID.String())
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	var out []*domain.ArrivalCardSubmission
	for rows.Next() {
		submission, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		out = append(out, submission)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CountAttempts(ctx context.Context, entryID domain.EntryID, cardType domain.CardType) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM digital_arrival_cards
		WHERE entry_info_id = $1 AND card_type = $2`,
		entryID.String(), string(cardType)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count attempts: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) scanOne(row *sql.Row) (*domain.ArrivalCardSubmission, error) {
	submission, err := scanSubmission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan submission: %w", err)
	}
	return submission, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row rowScanner) (*domain.ArrivalCardSubmission, error) {
	var (
		sub                     domain.ArrivalCardSubmission
		id, entryID, userID     string
		cardType, destinationID string
		method, status          string
		supersededBy            sql.NullString
		supersededAt            sql.NullTime
		supersededReason        sql.NullString
	)
	if err := row.Scan(&id, &entryID, &userID, &cardType, &destinationID,
		&sub.ArrCardNo, &sub.QRUri, &sub.PDFPath, &sub.ArrivalDate, &sub.SubmittedAt,
		&method, &status, &sub.RetryCount,
		&sub.IsSuperseded, &supersededAt, &supersededBy, &supersededReason, &sub.Version); err != nil {
		return nil, err
	}

	parsedID, err := domain.ParseEntryID(entryID)
	if err != nil {
		return nil, err
	}
	ownerID, err := domain.ParseUserID(userID)
	if err != nil {
		return nil, err
	}
	subID, err := domain.ParseSubmissionID(id)
	if err != nil {
		return nil, err
	}
	sub.ID = subID
	sub.EntryID = parsedID
	sub.UserID = ownerID
	sub.CardType = domain.CardType(cardType)
	sub.DestinationID = domain.DestinationID(destinationID)
	sub.Method = domain.SubmissionMethod(method)
	sub.Status = domain.SubmissionStatus(status)
	if supersededAt.Valid {
		t := supersededAt.Time
		sub.SupersededAt = &t
	}
	if supersededBy.Valid {
		by, err := domain.ParseSubmissionID(supersededBy.String)
		if err != nil {
			return nil, err
		}
		sub.SupersededBy = &by
	}
	sub.SupersededReason = supersededReason.String
	return &sub, nil
}

func submissionIDOrNil(id *domain.SubmissionID) any {
	if id == nil {
		return nil
	}
	return id.String()
}
