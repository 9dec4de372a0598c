package utils

import (
	"encoding/json"
	"net/http"

	"veloura/apperr"
)

func RespondWithError(w http.ResponseWriter, code int, msg string) {
	RespondWithJSON(w, code, map[string]interface{}{"status": code, "message": msg})
}

// RespondWithAppError is the single boundary that converts typed core errors
// into {status, message} JSON. Untyped errors become a generic 500.
func RespondWithAppError(w http.ResponseWriter, err error) {
	code := apperr.Status(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = "Internal server error"
	}
	RespondWithError(w, code, msg)
}

// Sends a JSON response
func RespondWithJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

type M map[string]interface{}
