package funds

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"tripgate/internal/domain"
	"tripgate/pkg/platform/sentinel"
	"tripgate/pkg/platform/tx"
)

// PostgresStore persists fund items in the fund_items table.
type PostgresStore struct {
	db tx.DBTX
}

func NewPostgresStore(db tx.DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

const fundColumns = `id, user_id, fund_type, amount, currency, photo_uri`

func (s *PostgresStore) Create(ctx context.Context, item *domain.FundItem) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fund_items (`+fundColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		item.ID.String(), item.UserID.String(), item.Type, item.Amount, item.Currency, item.PhotoURI)
	if err != nil {
		return fmt.Errorf("insert fund item: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id domain.FundItemID) (*domain.FundItem, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+fundColumns+` FROM fund_items WHERE id = $1`, id.String())
	item, err := scanFundItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find fund item: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID domain.UserID) ([]*domain.FundItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+fundColumns+` FROM fund_items WHERE user_id = $1 ORDER BY id`, userID.String())
	if err != nil {
		return nil, fmt.Errorf("list fund items: %w", err)
	}
	defer rows.Close()

	var out []*domain.FundItem
	for rows.Next() {
		item, err := scanFundItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan fund item: %w", err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Update(ctx context.Context, item *domain.FundItem) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE fund_items
		SET fund_type = $2, amount = $3, currency = $4, photo_uri = $5
		WHERE id = $1`,
		item.ID.String(), item.Type, item.Amount, item.Currency, item.PhotoURI)
	if err != nil {
		return fmt.Errorf("update fund item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update fund item: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id domain.FundItemID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM fund_items WHERE id = $1`, id.String())
	if err != nil {
		return fmt.Errorf("delete fund item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete fund item: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFundItem(row rowScanner) (*domain.FundItem, error) {
	var (
		item   domain.FundItem
		id     string
		userID string
	)
	if err := row.Scan(&id, &userID, &item.Type, &item.Amount, &item.Currency, &item.PhotoURI); err != nil {
		return nil, err
	}
	rawID, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	item.ID = domain.FundItemID(rawID)
	uid, err := domain.ParseUserID(userID)
	if err != nil {
		return nil, err
	}
	item.UserID = uid
	return &item, nil
}
