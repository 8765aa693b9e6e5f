// Package traveler merges a user's passport, personal, travel, and fund data
// into the canonical payload one submission attempt is made from.
package traveler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/asaskevich/govalidator"
	"golang.org/x/sync/errgroup"

	"tripgate/internal/domain"
	"tripgate/pkg/platform/sentinel"
)

// UserDataAccessor is the capability the builder reads through. Implementors
// sit in front of the passport/personal/travel/fund stores.
type UserDataAccessor interface {
	GetPassport(ctx context.Context, userID domain.UserID) (domain.Passport, error)
	GetPersonalInfo(ctx context.Context, userID domain.UserID) (domain.PersonalInfo, error)
	GetTravelInfo(ctx context.Context, userID domain.UserID, dest domain.DestinationID) (domain.TravelInfo, error)
	GetFundItems(ctx context.Context, userID domain.UserID) ([]domain.FundItem, error)
}

// Builder produces TravelerPayloads. It performs no writes and holds no
// state; callers must not cache a payload beyond one submission attempt.
type Builder struct {
	data  UserDataAccessor
	rules RuleSource
}

func NewBuilder(data UserDataAccessor, rules RuleSource) *Builder {
	return &Builder{data: data, rules: rules}
}

// Build fetches the four source records in one batched read, validates
// required-field completeness against the destination's rule set, and merges
// the result. Missing data yields a *domain.ValidationError naming every
// incomplete category; gaps are never silently filled.
func (b *Builder) Build(ctx context.Context, userID domain.UserID, dest domain.DestinationID) (*domain.TravelerPayload, error) {
	ruleSet, err := b.rules.For(dest)
	if err != nil {
		return nil, fmt.Errorf("resolve rule set for %s: %w", dest, err)
	}

	var (
		passport domain.Passport
		personal domain.PersonalInfo
		travel   domain.TravelInfo
		funds    []domain.FundItem

		passportMissing, personalMissing, travelMissing bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		passport, err = b.data.GetPassport(gctx, userID)
		return ignoreNotFound(err, &passportMissing)
	})
	g.Go(func() error {
		var err error
		personal, err = b.data.GetPersonalInfo(gctx, userID)
		return ignoreNotFound(err, &personalMissing)
	})
	g.Go(func() error {
		var err error
		travel, err = b.data.GetTravelInfo(gctx, userID, dest)
		return ignoreNotFound(err, &travelMissing)
	})
	g.Go(func() error {
		var err error
		funds, err = b.data.GetFundItems(gctx, userID)
		if errors.Is(err, sentinel.ErrNotFound) {
			funds, err = nil, nil
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetch traveler data: %w", err)
	}

	v := newValidation()
	if passportMissing {
		v.categoryAbsent(CategoryPassport, ruleSet)
	} else {
		v.checkFields(CategoryPassport, ruleSet, passportFieldValues(passport))
	}
	if personalMissing {
		v.categoryAbsent(CategoryPersonal, ruleSet)
	} else {
		v.checkFields(CategoryPersonal, ruleSet, personalFieldValues(personal))
		if personal.Email != "" && !govalidator.IsEmail(personal.Email) {
			v.add(CategoryPersonal, "email", "invalid email format")
		}
	}
	if travelMissing {
		v.categoryAbsent(CategoryTravel, ruleSet)
	} else {
		v.checkFields(CategoryTravel, ruleSet, travelFieldValues(travel))
		if !travel.ArrivalAt.IsZero() && !travel.DepartureAt.IsZero() && travel.DepartureAt.Before(travel.ArrivalAt) {
			v.add(CategoryTravel, "departure_date", "departure precedes arrival")
		}
		if !passportMissing && !passport.ExpiryDate.IsZero() && !travel.ArrivalAt.IsZero() &&
			passport.ExpiryDate.Before(travel.ArrivalAt) {
			v.add(CategoryPassport, "expiry_date", "passport expires before arrival")
		}
	}
	if len(ruleSet.RequiredFields(CategoryFunds)) > 0 {
		if len(funds) == 0 {
			v.add(CategoryFunds, "items", "at least one proof-of-funds item is required")
		}
		for _, f := range funds {
			if f.Amount <= 0 {
				v.add(CategoryFunds, "amount", "fund amount must be positive")
			}
			if f.Currency == "" {
				v.add(CategoryFunds, "currency", "fund currency is required")
			}
		}
	}

	if err := v.err(); err != nil {
		return nil, err
	}

	return &domain.TravelerPayload{
		UserID:        userID,
		DestinationID: dest,
		Passport:      passport,
		Personal:      personal,
		Travel:        travel,
		Funds:         funds,
		BuiltAt:       time.Now().UTC(),
	}, nil
}

// ignoreNotFound converts a store miss into a validation fact instead of a
// fetch failure, so one report covers every gap at once.
func ignoreNotFound(err error, missing *bool) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		*missing = true
		return nil
	}
	return err
}

type validation struct {
	missing map[string][]string
}

func newValidation() *validation {
	return &validation{missing: make(map[string][]string)}
}

func (v *validation) add(cat Category, field, reason string) {
	v.missing[string(cat)] = append(v.missing[string(cat)], field+": "+reason)
}

func (v *validation) categoryAbsent(cat Category, rules RuleSet) {
	for _, field := range rules.RequiredFields(cat) {
		v.add(cat, field, "no record on file")
	}
	if len(rules.RequiredFields(cat)) == 0 {
		v.add(cat, "record", "no record on file")
	}
}

func (v *validation) checkFields(cat Category, rules RuleSet, values map[string]string) {
	for _, field := range rules.RequiredFields(cat) {
		if values[field] == "" {
			v.add(cat, field, "field is required")
		}
	}
}

func (v *validation) err() error {
	if len(v.missing) == 0 {
		return nil
	}
	return &domain.ValidationError{Missing: v.missing}
}

func passportFieldValues(p domain.Passport) map[string]string {
	return map[string]string{
		"number":          p.Number,
		"surname":         p.Surname,
		"given_names":     p.GivenNames,
		"nationality":     p.Nationality,
		"sex":             p.Sex,
		"date_of_birth":   timeValue(p.DateOfBirth),
		"issuing_country": p.IssuingCountry,
		"expiry_date":     timeValue(p.ExpiryDate),
	}
}

func personalFieldValues(p domain.PersonalInfo) map[string]string {
	return map[string]string{
		"email":                p.Email,
		"phone":                p.Phone,
		"occupation":           p.Occupation,
		"city_of_residence":    p.CityOfResidence,
		"country_of_residence": p.CountryOfResidence,
	}
}

func travelFieldValues(t domain.TravelInfo) map[string]string {
	return map[string]string{
		"arrival_date":          timeValue(t.ArrivalAt),
		"departure_date":        timeValue(t.DepartureAt),
		"flight_no":             t.FlightNo,
		"purpose_of_visit":      t.PurposeOfVisit,
		"accommodation_type":    t.AccommodationType,
		"accommodation_address": t.AccommodationAddress,
	}
}

func timeValue(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
