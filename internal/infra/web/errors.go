package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"coupon-marketplace/internal/domain"
	"coupon-marketplace/internal/infra/logging"
)

type errorBody struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Errors  []domain.FieldError `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors to 4xx; everything else is logged and becomes a bare 500.
func writeError(w http.ResponseWriter, r *http.Request, logger *zerolog.Logger, err error) {
	var de *domain.Error
	errors.As(err, &de)

	switch {
	case errors.Is(err, domain.ErrValidation):
		body := errorBody{Code: "VALIDATION_ERROR", Message: domain.Message(err, "Invalid request")}
		if de != nil {
			body.Errors = de.Fields
		}
		writeJSON(w, http.StatusBadRequest, body)
	case errors.Is(err, domain.ErrCouponUnavailable):
		writeJSON(w, http.StatusBadRequest, errorBody{Code: "COUPON_SOLD", Message: domain.Message(err, "Coupon is no longer available")})
	case errors.Is(err, domain.ErrConflict):
		writeJSON(w, http.StatusBadRequest, errorBody{Code: "CONFLICT", Message: domain.Message(err, "Request conflicts with the current state")})
	case errors.Is(err, domain.ErrInvalidArgument):
		writeJSON(w, http.StatusBadRequest, errorBody{Code: "VALIDATION_ERROR", Message: "Invalid request"})
	case errors.Is(err, domain.ErrUnauthenticated):
		writeJSON(w, http.StatusUnauthorized, errorBody{Code: "UNAUTHENTICATED", Message: "No token, authorization denied"})
	case errors.Is(err, domain.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorBody{Code: "FORBIDDEN", Message: domain.Message(err, "Access denied")})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Code: "NOT_FOUND", Message: domain.Message(err, "Not found")})
	default:
		if logger != nil {
			logging.With(r.Context(), logger).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		}
		writeJSON(w, http.StatusInternalServerError, errorBody{Code: "SERVER_ERROR", Message: "Server error"})
	}
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Code: "VALIDATION_ERROR", Message: msg})
}
