package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tripgate/internal/domain"
	"tripgate/pkg/platform/sentinel"
	"tripgate/pkg/platform/tx"
)

// PostgresStore persists profile records in the passport_info, personal_info,
// and travel_info tables, one row per user (per destination for travel).
type PostgresStore struct {
	db tx.DBTX
}

func NewPostgresStore(db tx.DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) GetPassport(ctx context.Context, userID domain.UserID) (domain.Passport, error) {
	var p domain.Passport
	err := s.db.QueryRowContext(ctx, `
		SELECT number, surname, given_names, nationality, sex, date_of_birth,
		       issuing_country, expiry_date
		FROM passport_info WHERE user_id = $1`, userID.String()).
		Scan(&p.Number, &p.Surname, &p.GivenNames, &p.Nationality, &p.Sex,
			&p.DateOfBirth, &p.IssuingCountry, &p.ExpiryDate)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Passport{}, sentinel.ErrNotFound
	}
	if err != nil {
		return domain.Passport{}, fmt.Errorf("get passport: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) PutPassport(ctx context.Context, userID domain.UserID, p domain.Passport) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO passport_info (user_id, number, surname, given_names, nationality,
		       sex, date_of_birth, issuing_country, expiry_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id) DO UPDATE SET
		       number = EXCLUDED.number, surname = EXCLUDED.surname,
		       given_names = EXCLUDED.given_names, nationality = EXCLUDED.nationality,
		       sex = EXCLUDED.sex, date_of_birth = EXCLUDED.date_of_birth,
		       issuing_country = EXCLUDED.issuing_country, expiry_date = EXCLUDED.expiry_date`,
		userID.String(), p.Number, p.Surname, p.GivenNames, p.Nationality,
		p.Sex, p.DateOfBirth, p.IssuingCountry, p.ExpiryDate)
	if err != nil {
		return fmt.Errorf("put passport: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetPersonalInfo(ctx context.Context, userID domain.UserID) (domain.PersonalInfo, error) {
	var p domain.PersonalInfo
	err := s.db.QueryRowContext(ctx, `
		SELECT email, phone, occupation, city_of_residence, country_of_residence
		FROM personal_info WHERE user_id = $1`, userID.String()).
		Scan(&p.Email, &p.Phone, &p.Occupation, &p.CityOfResidence, &p.CountryOfResidence)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PersonalInfo{}, sentinel.ErrNotFound
	}
	if err != nil {
		return domain.PersonalInfo{}, fmt.Errorf("get personal info: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) PutPersonalInfo(ctx context.Context, userID domain.UserID, p domain.PersonalInfo) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO personal_info (user_id, email, phone, occupation,
		       city_of_residence, country_of_residence)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
		       email = EXCLUDED.email, phone = EXCLUDED.phone,
		       occupation = EXCLUDED.occupation,
		       city_of_residence = EXCLUDED.city_of_residence,
		       country_of_residence = EXCLUDED.country_of_residence`,
		userID.String(), p.Email, p.Phone, p.Occupation, p.CityOfResidence, p.CountryOfResidence)
	if err != nil {
		return fmt.Errorf("put personal info: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetTravelInfo(ctx context.Context, userID domain.UserID, dest domain.DestinationID) (domain.TravelInfo, error) {
	var t domain.TravelInfo
	var destID string
	err := s.db.QueryRowContext(ctx, `
		SELECT destination_id, arrival_at, departure_at, flight_no,
		       purpose_of_visit, accommodation_type, accommodation_address
		FROM travel_info WHERE user_id = $1 AND destination_id = $2`,
		userID.String(), string(dest)).
		Scan(&destID, &t.ArrivalAt, &t.DepartureAt, &t.FlightNo,
			&t.PurposeOfVisit, &t.AccommodationType, &t.AccommodationAddress)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.TravelInfo{}, sentinel.ErrNotFound
	}
	if err != nil {
		return domain.TravelInfo{}, fmt.Errorf("get travel info: %w", err)
	}
	t.DestinationID = domain.DestinationID(destID)
	return t, nil
}

func (s *PostgresStore) PutTravelInfo(ctx context.Context, userID domain.UserID, t domain.TravelInfo) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO travel_info (user_id, destination_id, arrival_at, departure_at,
		       flight_no, purpose_of_visit, accommodation_type, accommodation_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, destination_id) DO UPDATE SET
		       arrival_at = EXCLUDED.arrival_at, departure_at = EXCLUDED.departure_at,
		       flight_no = EXCLUDED.flight_no, purpose_of_visit = EXCLUDED.purpose_of_visit,
		       accommodation_type = EXCLUDED.accommodation_type,
		       accommodation_address = EXCLUDED.accommodation_address`,
		userID.String(), string(t.DestinationID), t.ArrivalAt, t.DepartureAt,
		t.FlightNo, t.PurposeOfVisit, t.AccommodationType, t.AccommodationAddress)
	if err != nil {
		return fmt.Errorf("put travel info: %w", err)
	}
	return nil
}
