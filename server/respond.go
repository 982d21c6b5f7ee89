package server

import (
	"encoding/json"
	"net/http"

	"soundvault/logger"
)

// writeJSON encodes a payload with the given status.
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("failed to encode response", logger.ErrorField(err))
	}
}

// writeMessage sends a {"message": ...} body with the given status.
func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// writeServerError logs the error and sends a generic 500 body.
func writeServerError(w http.ResponseWriter, msg string, err error) {
	logger.Error(msg, logger.ErrorField(err))
	writeMessage(w, http.StatusInternalServerError, "Server error")
}
