package entry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"tripgate/internal/domain"
	"tripgate/internal/traveler"
	"tripgate/pkg/platform/sentinel"
)

// Service owns entry lifecycle outside of submission: creation, reads with
// ownership checks, and keeping the denormalized completion state in step
// with the linked sub-records.
type Service struct {
	store   Store
	builder *traveler.Builder
	logger  *slog.Logger
}

func NewService(store Store, builder *traveler.Builder, logger *slog.Logger) *Service {
	return &Service{store: store, builder: builder, logger: logger}
}

// Create starts preparation of a destination trip for a user.
func (s *Service) Create(ctx context.Context, userID domain.UserID, dest domain.DestinationID) (*domain.EntryRecord, error) {
	if dest == "" {
		return nil, fmt.Errorf("destination is required: %w", sentinel.ErrInvalidState)
	}
	record := &domain.EntryRecord{
		ID:            domain.NewEntryID(),
		UserID:        userID,
		DestinationID: dest,
		Status:        domain.EntryStatusIncomplete,
		DisplayStatus: "preparation started",
		LastUpdatedAt: time.Now().UTC(),
	}
	if err := s.store.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("create entry: %w", err)
	}
	return record, nil
}

// Get returns an entry only to its owner; anything else looks like not found.
func (s *Service) Get(ctx context.Context, userID domain.UserID, id domain.EntryID) (*domain.EntryRecord, error) {
	record, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.UserID != userID {
		return nil, sentinel.ErrNotFound
	}
	return record, nil
}

// List returns all of a user's entries.
func (s *Service) List(ctx context.Context, userID domain.UserID) ([]*domain.EntryRecord, error) {
	return s.store.ListByUser(ctx, userID)
}

// RefreshCompletion re-derives the completion metrics from the linked
// sub-records and advances incomplete -> ready when every category is valid.
// Called after any edit to passport, personal, travel, or fund data.
func (s *Service) RefreshCompletion(ctx context.Context, userID domain.UserID, id domain.EntryID) (*domain.EntryRecord, error) {
	record, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	metrics, display, buildErr := s.deriveCompletion(ctx, record)
	if buildErr != nil {
		return nil, buildErr
	}

	now := time.Now().UTC()
	if err := s.store.UpdateCompletion(ctx, id, metrics, display, now); err != nil {
		return nil, fmt.Errorf("update completion: %w", err)
	}

	if metrics.Complete() && record.Status == domain.EntryStatusIncomplete {
		if err := s.store.TransitionStatus(ctx, id, domain.EntryStatusIncomplete, domain.EntryStatusReady, now); err != nil &&
			!errors.Is(err, sentinel.ErrInvalidState) {
			return nil, fmt.Errorf("advance entry to ready: %w", err)
		}
	}

	return s.store.FindByID(ctx, id)
}

// deriveCompletion runs the traveler builder purely for its validation
// verdict. A ValidationError is data, not failure, here.
func (s *Service) deriveCompletion(ctx context.Context, record *domain.EntryRecord) (domain.CompletionMetrics, string, error) {
	_, err := s.builder.Build(ctx, record.UserID, record.DestinationID)
	if err == nil {
		return domain.CompletionMetrics{Passport: true, Personal: true, Travel: true, Funds: true},
			"ready to submit", nil
	}

	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		return domain.CompletionMetrics{}, "", fmt.Errorf("derive completion: %w", err)
	}

	incomplete := make(map[string]bool, len(verr.Missing))
	for cat := range verr.Missing {
		incomplete[cat] = true
	}
	metrics := domain.CompletionMetrics{
		Passport: !incomplete[string(traveler.CategoryPassport)],
		Personal: !incomplete[string(traveler.CategoryPersonal)],
		Travel:   !incomplete[string(traveler.CategoryTravel)],
		Funds:    !incomplete[string(traveler.CategoryFunds)],
	}
	display := strings.Join(verr.Categories(), ", ") + " incomplete"
	return metrics, display, nil
}
