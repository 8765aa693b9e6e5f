// Package remote talks to a destination's arrival-card submission endpoint.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"tripgate/internal/domain"
)

// Result is what a successful remote submission returns.
type Result struct {
	ArrCardNo string `json:"arr_card_no"`
	QRUri     string `json:"qr_uri"`
	PDFPath   string `json:"pdf_path"`
}

// Client is the port the orchestrator submits through. Implementations must
// not retry internally: the orchestrator owns the attempt ledger.
type Client interface {
	Submit(ctx context.Context, payload *domain.TravelerPayload, challengeToken string) (*Result, error)
}

// HTTPClient submits arrival cards over HTTPS to the destination gateway.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type submitRequest struct {
	ChallengeToken string      `json:"challenge_token"`
	Passport       passportDTO `json:"passport"`
	Personal       personalDTO `json:"personal"`
	Travel         travelDTO   `json:"travel"`
	Funds          []fundDTO   `json:"funds"`
	Meta           submitMeta  `json:"meta"`
}

type submitMeta struct {
	BuiltAt time.Time `json:"built_at"`
}

type passportDTO struct {
	Number         string `json:"number"`
	Surname        string `json:"surname"`
	GivenNames     string `json:"given_names"`
	Nationality    string `json:"nationality"`
	Sex            string `json:"sex"`
	DateOfBirth    string `json:"date_of_birth"`
	IssuingCountry string `json:"issuing_country"`
	ExpiryDate     string `json:"expiry_date"`
}

type personalDTO struct {
	Email              string `json:"email"`
	Phone              string `json:"phone"`
	Occupation         string `json:"occupation"`
	CityOfResidence    string `json:"city_of_residence"`
	CountryOfResidence string `json:"country_of_residence"`
}

type travelDTO struct {
	ArrivalAt            time.Time `json:"arrival_at"`
	DepartureAt          time.Time `json:"departure_at"`
	FlightNo             string    `json:"flight_no"`
	PurposeOfVisit       string    `json:"purpose_of_visit"`
	AccommodationType    string    `json:"accommodation_type"`
	AccommodationAddress string    `json:"accommodation_address"`
}

type fundDTO struct {
	Type     string `json:"type"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const dateLayout = "2006-01-02"

func (c *HTTPClient) Submit(ctx context.Context, payload *domain.TravelerPayload, challengeToken string) (*Result, error) {
	req := submitRequest{
		ChallengeToken: challengeToken,
		Passport: passportDTO{
			Number:         payload.Passport.Number,
			Surname:        payload.Passport.Surname,
			GivenNames:     payload.Passport.GivenNames,
			Nationality:    payload.Passport.Nationality,
			Sex:            payload.Passport.Sex,
			DateOfBirth:    payload.Passport.DateOfBirth.Format(dateLayout),
			IssuingCountry: payload.Passport.IssuingCountry,
			ExpiryDate:     payload.Passport.ExpiryDate.Format(dateLayout),
		},
		Personal: personalDTO{
			Email:              payload.Personal.Email,
			Phone:              payload.Personal.Phone,
			Occupation:         payload.Personal.Occupation,
			CityOfResidence:    payload.Personal.CityOfResidence,
			CountryOfResidence: payload.Personal.CountryOfResidence,
		},
		Travel: travelDTO{
			ArrivalAt:            payload.Travel.ArrivalAt,
			DepartureAt:          payload.Travel.DepartureAt,
			FlightNo:             payload.Travel.FlightNo,
			PurposeOfVisit:       payload.Travel.PurposeOfVisit,
			AccommodationType:    payload.Travel.AccommodationType,
			AccommodationAddress: payload.Travel.AccommodationAddress,
		},
		Meta: submitMeta{BuiltAt: payload.BuiltAt},
	}
	for _, f := range payload.Funds {
		req.Funds = append(req.Funds, fundDTO{Type: f.Type, Amount: f.Amount, Currency: f.Currency})
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, &domain.RemoteSubmissionError{Err: fmt.Errorf("encode request: %w", err)}
	}

	url := fmt.Sprintf("%s/destinations/%s/arrival-cards", c.baseURL, payload.DestinationID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &domain.RemoteSubmissionError{Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, &domain.RemoteSubmissionError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		var remoteErr errorResponse
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if jsonErr := json.Unmarshal(raw, &remoteErr); jsonErr != nil || remoteErr.Code == "" {
			remoteErr.Code = fmt.Sprintf("http_%d", resp.StatusCode)
			remoteErr.Message = string(raw)
		}
		return nil, &domain.RemoteSubmissionError{
			Code: remoteErr.Code,
			Err:  fmt.Errorf("status %d: %s", resp.StatusCode, remoteErr.Message),
		}
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &domain.RemoteSubmissionError{Err: fmt.Errorf("decode response: %w", err)}
	}
	if result.ArrCardNo == "" {
		return nil, &domain.RemoteSubmissionError{Code: "missing_card_no", Err: fmt.Errorf("response carried no card number")}
	}
	return &result, nil
}
