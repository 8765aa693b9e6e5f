// Package httptransport is the thin HTTP layer. Handlers delegate to domain
// services and translate their error shapes into a consistent JSON envelope.
package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	"tripgate/internal/domain"
	"tripgate/pkg/platform/sentinel"
)

type errorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Detail  map[string]any `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// writeError maps the pipeline's error shapes onto HTTP statuses. Anything
// unrecognized is a 500 with no internals leaked.
func writeError(w http.ResponseWriter, err error) {
	var (
		validationErr *domain.ValidationError
		windowErr     *domain.WindowClosedError
		duplicateErr  *domain.DuplicateBlockedError
		timeoutErr    *domain.ChallengeTimeoutError
		remoteErr     *domain.RemoteSubmissionError
	)
	switch {
	case errors.As(err, &validationErr):
		detail := make(map[string]any, len(validationErr.Missing))
		for cat, reasons := range validationErr.Missing {
			detail[cat] = reasons
		}
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{
			Code: "incomplete_data", Message: validationErr.Error(), Detail: detail,
		})
	case errors.As(err, &windowErr):
		writeJSON(w, http.StatusConflict, errorBody{
			Code: "window_closed", Message: windowErr.Error(),
			Detail: map[string]any{"opens_in": windowErr.Display},
		})
	case errors.As(err, &duplicateErr):
		writeJSON(w, http.StatusConflict, errorBody{
			Code: "duplicate_card", Message: duplicateErr.Error(),
			Detail: map[string]any{"existing": cardResponse(duplicateErr.Existing)},
		})
	case errors.As(err, &timeoutErr):
		writeJSON(w, http.StatusRequestTimeout, errorBody{
			Code: "challenge_timeout", Message: timeoutErr.Error(),
		})
	case errors.As(err, &remoteErr):
		writeJSON(w, http.StatusBadGateway, errorBody{
			Code: "remote_failed", Message: "destination gateway rejected the submission",
			Detail: map[string]any{"remote_code": remoteErr.Code},
		})
	case errors.Is(err, sentinel.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Code: "not_found", Message: "resource not found"})
	case errors.Is(err, sentinel.ErrInFlight):
		writeJSON(w, http.StatusConflict, errorBody{Code: "in_flight", Message: "a submission for this entry is already running"})
	case errors.Is(err, sentinel.ErrInvalidState), errors.Is(err, sentinel.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody{Code: "conflict", Message: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorBody{Code: "internal", Message: "internal error"})
	}
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Code: "bad_request", Message: message})
}
