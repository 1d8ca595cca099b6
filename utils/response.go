package utils

import (
	"encoding/json"
	"net/http"

	"doctorsportal/apperr"
	"doctorsportal/logger"
)

func RespondWithError(w http.ResponseWriter, code int, msg string) {
	RespondWithJSON(w, code, map[string]string{"error": msg})
}

// Sends a JSON response
func RespondWithJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// RespondWithAppError writes err as {"error": message} with the status of its
// kind. Internal and upstream failures are logged and answered generically.
func RespondWithAppError(w http.ResponseWriter, r *http.Request, err error) {
	ae := apperr.As(err)
	switch ae.Kind {
	case apperr.KindInternal:
		logger.FromContext(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		RespondWithError(w, ae.Status(), "internal server error")
	case apperr.KindExternal:
		logger.FromContext(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("upstream failed")
		RespondWithError(w, ae.Status(), ae.Message)
	default:
		RespondWithError(w, ae.Status(), ae.Message)
	}
}
