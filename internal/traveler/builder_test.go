package traveler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripgate/internal/domain"
	"tripgate/pkg/platform/sentinel"
)

type fakeAccessor struct {
	passport    domain.Passport
	passportErr error
	personal    domain.PersonalInfo
	personalErr error
	travel      domain.TravelInfo
	travelErr   error
	funds       []domain.FundItem
	fundsErr    error
}

func (f *fakeAccessor) GetPassport(context.Context, domain.UserID) (domain.Passport, error) {
	return f.passport, f.passportErr
}

func (f *fakeAccessor) GetPersonalInfo(context.Context, domain.UserID) (domain.PersonalInfo, error) {
	return f.personal, f.personalErr
}

func (f *fakeAccessor) GetTravelInfo(context.Context, domain.UserID, domain.DestinationID) (domain.TravelInfo, error) {
	return f.travel, f.travelErr
}

func (f *fakeAccessor) GetFundItems(context.Context, domain.UserID) ([]domain.FundItem, error) {
	return f.funds, f.fundsErr
}

func completeAccessor() *fakeAccessor {
	arrival := time.Date(2025, 12, 1, 9, 30, 0, 0, time.UTC)
	return &fakeAccessor{
		passport: domain.Passport{
			Number:      "X1234567",
			Surname:     "NOVAK",
			GivenNames:  "ANNA",
			Nationality: "CZE",
			Sex:         "F",
			DateOfBirth: time.Date(1990, 4, 2, 0, 0, 0, 0, time.UTC),
			ExpiryDate:  arrival.AddDate(2, 0, 0),
		},
		personal: domain.PersonalInfo{
			Email:              "anna@example.com",
			Phone:              "+420123456789",
			Occupation:         "engineer",
			CountryOfResidence: "CZ",
		},
		travel: domain.TravelInfo{
			DestinationID:        "TH",
			ArrivalAt:            arrival,
			DepartureAt:          arrival.AddDate(0, 0, 14),
			FlightNo:             "TG917",
			PurposeOfVisit:       "holiday",
			AccommodationAddress: "123 Sukhumvit Rd, Bangkok",
		},
		funds: []domain.FundItem{
			{ID: domain.NewFundItemID(), Type: "bank_statement", Amount: 250000, Currency: "CZK"},
		},
	}
}

func newTestBuilder(data UserDataAccessor) *Builder {
	return NewBuilder(data, StaticRuleSource{Default: DefaultRuleSet()})
}

func TestBuild_Complete(t *testing.T) {
	b := newTestBuilder(completeAccessor())
	userID := domain.NewUserID()

	payload, err := b.Build(context.Background(), userID, "TH")
	require.NoError(t, err)

	assert.Equal(t, userID, payload.UserID)
	assert.Equal(t, domain.DestinationID("TH"), payload.DestinationID)
	assert.Equal(t, "X1234567", payload.Passport.Number)
	assert.Len(t, payload.Funds, 1)
	assert.False(t, payload.BuiltAt.IsZero())
}

func TestBuild_EmptyFunds(t *testing.T) {
	data := completeAccessor()
	data.funds = nil
	b := newTestBuilder(data)

	_, err := b.Build(context.Background(), domain.NewUserID(), "TH")

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"funds"}, verr.Categories())
}

func TestBuild_MissingPassportRecord(t *testing.T) {
	data := completeAccessor()
	data.passport = domain.Passport{}
	data.passportErr = sentinel.ErrNotFound
	b := newTestBuilder(data)

	_, err := b.Build(context.Background(), domain.NewUserID(), "TH")

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"passport"}, verr.Categories())
	assert.Len(t, verr.Missing["passport"], len(DefaultRuleSet().RequiredFields(CategoryPassport)))
}

func TestBuild_FieldReasons(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*fakeAccessor)
		category string
		reason   string
	}{
		{
			name:     "blank flight number",
			mutate:   func(f *fakeAccessor) { f.travel.FlightNo = "" },
			category: "travel",
			reason:   "flight_no: field is required",
		},
		{
			name:     "invalid email",
			mutate:   func(f *fakeAccessor) { f.personal.Email = "not-an-email" },
			category: "personal",
			reason:   "email: invalid email format",
		},
		{
			name:     "departure before arrival",
			mutate:   func(f *fakeAccessor) { f.travel.DepartureAt = f.travel.ArrivalAt.AddDate(0, 0, -1) },
			category: "travel",
			reason:   "departure_date: departure precedes arrival",
		},
		{
			name:     "passport expires before arrival",
			mutate:   func(f *fakeAccessor) { f.passport.ExpiryDate = f.travel.ArrivalAt.AddDate(0, -1, 0) },
			category: "passport",
			reason:   "expiry_date: passport expires before arrival",
		},
		{
			name:     "zero fund amount",
			mutate:   func(f *fakeAccessor) { f.funds[0].Amount = 0 },
			category: "funds",
			reason:   "amount: fund amount must be positive",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := completeAccessor()
			tt.mutate(data)
			b := newTestBuilder(data)

			_, err := b.Build(context.Background(), domain.NewUserID(), "TH")

			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Missing[tt.category], tt.reason)
		})
	}
}

func TestBuild_PropagatesFetchErrors(t *testing.T) {
	data := completeAccessor()
	data.personalErr = sentinel.ErrUnavailable
	b := newTestBuilder(data)

	_, err := b.Build(context.Background(), domain.NewUserID(), "TH")
	require.ErrorIs(t, err, sentinel.ErrUnavailable)

	// A fetch failure must not masquerade as a validation outcome.
	var verr *domain.ValidationError
	assert.False(t, errors.As(err, &verr))
}

// Two builds with unchanged inputs must be structurally equal apart from the
// build timestamp.
func TestBuild_Idempotent(t *testing.T) {
	b := newTestBuilder(completeAccessor())
	userID := domain.NewUserID()

	first, err := b.Build(context.Background(), userID, "TH")
	require.NoError(t, err)
	second, err := b.Build(context.Background(), userID, "TH")
	require.NoError(t, err)

	first.BuiltAt = second.BuiltAt
	assert.Equal(t, first, second)
}
