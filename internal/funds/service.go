package funds

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/asaskevich/govalidator"

	"tripgate/internal/domain"
	"tripgate/pkg/platform/sentinel"
)

// Accepted fund item types.
var fundTypes = map[string]struct{}{
	"cash":         {},
	"bank_balance": {},
	"credit_card":  {},
	"travel_check": {},
}

// Input carries the writable fields of a fund item.
type Input struct {
	Type     string `json:"type"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	PhotoURI string `json:"photo_uri"`
}

func (in Input) validate() error {
	missing := map[string][]string{}
	var reasons []string
	if _, ok := fundTypes[in.Type]; !ok {
		reasons = append(reasons, fmt.Sprintf("type %q not recognized", in.Type))
	}
	if in.Amount <= 0 {
		reasons = append(reasons, "amount must be positive")
	}
	if !govalidator.IsISO4217(strings.ToUpper(in.Currency)) {
		reasons = append(reasons, fmt.Sprintf("currency %q is not an ISO 4217 code", in.Currency))
	}
	if len(reasons) == 0 {
		return nil
	}
	missing["funds"] = reasons
	return &domain.ValidationError{Missing: missing}
}

// Service applies ownership and validation rules on top of a Store.
type Service struct {
	store  Store
	logger *slog.Logger
}

func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

func (s *Service) Create(ctx context.Context, userID domain.UserID, in Input) (*domain.FundItem, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	item := &domain.FundItem{
		ID:       domain.NewFundItemID(),
		UserID:   userID,
		Type:     in.Type,
		Amount:   in.Amount,
		Currency: strings.ToUpper(in.Currency),
		PhotoURI: in.PhotoURI,
	}
	if err := s.store.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("create fund item: %w", err)
	}
	s.logger.InfoContext(ctx, "fund item created",
		slog.String("fund_item_id", item.ID.String()),
		slog.String("type", item.Type))
	return item, nil
}

func (s *Service) Get(ctx context.Context, userID domain.UserID, id domain.FundItemID) (*domain.FundItem, error) {
	item, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	// Ownership mismatches read as absence.
	if item.UserID != userID {
		return nil, sentinel.ErrNotFound
	}
	return item, nil
}

func (s *Service) List(ctx context.Context, userID domain.UserID) ([]*domain.FundItem, error) {
	return s.store.ListByUser(ctx, userID)
}

func (s *Service) Update(ctx context.Context, userID domain.UserID, id domain.FundItemID, in Input) (*domain.FundItem, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	item, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	item.Type = in.Type
	item.Amount = in.Amount
	item.Currency = strings.ToUpper(in.Currency)
	item.PhotoURI = in.PhotoURI
	if err := s.store.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("update fund item: %w", err)
	}
	return item, nil
}

func (s *Service) Delete(ctx context.Context, userID domain.UserID, id domain.FundItemID) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	return s.store.Delete(ctx, id)
}
