package handlers

import (
	"encoding/json"
	"net/http"

	"portfolio-backend/internal/apperrors"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}

// respondAppError maps err to its status code and logs it at a level matching
// the kind
func respondAppError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	kind := apperrors.KindOf(err)
	status := apperrors.HTTPStatus(kind)

	var event *zerolog.Event
	if status >= http.StatusInternalServerError {
		event = hlog.FromRequest(r).Error()
	} else {
		event = hlog.FromRequest(r).Warn()
	}
	event.Err(err).Str("code", string(kind)).Msg(msg)

	respondJSON(w, status, ErrorResponse{
		Error: apperrors.PublicMessage(err),
		Code:  string(kind),
	})
}
