package httptransport

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"tripgate/internal/domain"
	"tripgate/internal/platform/middleware"
	"tripgate/internal/profile"
)

// ProfileHandler lets the client sync the source records the payload builder
// reads: passport, personal, and travel info. Upsert semantics.
type ProfileHandler struct {
	logger       *slog.Logger
	profiles     profile.Store
	jwtValidator middleware.JWTValidator
}

func NewProfileHandler(profiles profile.Store, jwtValidator middleware.JWTValidator, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{logger: logger, profiles: profiles, jwtValidator: jwtValidator}
}

func (h *ProfileHandler) Register(r chi.Router) {
	r.Group(func(g chi.Router) {
		g.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		g.Use(middleware.ContentTypeJSON)
		g.Use(middleware.Timeout(10 * time.Second))
		g.Put("/v1/profile/passport", h.handlePutPassport)
		g.Put("/v1/profile/personal", h.handlePutPersonal)
		g.Put("/v1/profile/travel", h.handlePutTravel)
	})
}

type passportRequest struct {
	Number         string `json:"number"`
	Surname        string `json:"surname"`
	GivenNames     string `json:"given_names"`
	Nationality    string `json:"nationality"`
	Sex            string `json:"sex"`
	DateOfBirth    string `json:"date_of_birth"`
	IssuingCountry string `json:"issuing_country"`
	ExpiryDate     string `json:"expiry_date"`
}

const dateLayout = "2006-01-02"

func (h *ProfileHandler) handlePutPassport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req passportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	dob, err := parseDate(req.DateOfBirth)
	if err != nil {
		writeBadRequest(w, "invalid date_of_birth")
		return
	}
	expiry, err := parseDate(req.ExpiryDate)
	if err != nil {
		writeBadRequest(w, "invalid expiry_date")
		return
	}
	err = h.profiles.PutPassport(ctx, middleware.GetUserID(ctx), domain.Passport{
		Number:         req.Number,
		Surname:        req.Surname,
		GivenNames:     req.GivenNames,
		Nationality:    req.Nationality,
		Sex:            req.Sex,
		DateOfBirth:    dob,
		IssuingCountry: req.IssuingCountry,
		ExpiryDate:     expiry,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProfileHandler) handlePutPersonal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req domain.PersonalInfo
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if err := h.profiles.PutPersonalInfo(ctx, middleware.GetUserID(ctx), req); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type travelRequest struct {
	DestinationID        string    `json:"destination_id"`
	ArrivalAt            time.Time `json:"arrival_at"`
	DepartureAt          time.Time `json:"departure_at"`
	FlightNo             string    `json:"flight_no"`
	PurposeOfVisit       string    `json:"purpose_of_visit"`
	AccommodationType    string    `json:"accommodation_type"`
	AccommodationAddress string    `json:"accommodation_address"`
}

func (h *ProfileHandler) handlePutTravel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req travelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.DestinationID == "" {
		writeBadRequest(w, "destination_id is required")
		return
	}
	err := h.profiles.PutTravelInfo(ctx, middleware.GetUserID(ctx), domain.TravelInfo{
		DestinationID:        domain.DestinationID(req.DestinationID),
		ArrivalAt:            req.ArrivalAt,
		DepartureAt:          req.DepartureAt,
		FlightNo:             req.FlightNo,
		PurposeOfVisit:       req.PurposeOfVisit,
		AccommodationType:    req.AccommodationType,
		AccommodationAddress: req.AccommodationAddress,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(dateLayout, s)
}
