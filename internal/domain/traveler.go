package domain

import "time"

// Passport holds the machine-readable-zone fields captured from a scan or
// manual entry.
type Passport struct {
	Number         string
	Surname        string
	GivenNames     string
	Nationality    string
	Sex            string
	DateOfBirth    time.Time
	IssuingCountry string
	ExpiryDate     time.Time
}

// PersonalInfo is contact and residence data the arrival card asks for.
type PersonalInfo struct {
	Email              string
	Phone              string
	Occupation         string
	CityOfResidence    string
	CountryOfResidence string
}

// TravelInfo describes one trip to one destination.
type TravelInfo struct {
	DestinationID        DestinationID
	ArrivalAt            time.Time
	DepartureAt          time.Time
	FlightNo             string
	PurposeOfVisit       string
	AccommodationType    string
	AccommodationAddress string
}

// FundItem is a single proof-of-funds record. Amount is in minor units of
// Currency.
type FundItem struct {
	ID       FundItemID
	UserID   UserID
	Type     string
	Amount   int64
	Currency string
	PhotoURI string
}

// TravelerPayload is the merged view of passport, personal, travel, and fund
// data built fresh for one submission attempt. It is never persisted and must
// not be cached across attempts: if any source record changes the payload has
// to be rebuilt.
type TravelerPayload struct {
	UserID        UserID
	DestinationID DestinationID
	Passport      Passport
	Personal      PersonalInfo
	Travel        TravelInfo
	Funds         []FundItem
	BuiltAt       time.Time
}
