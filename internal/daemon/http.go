package daemon

import (
	"encoding/json"
	"errors"
	"net/http"

	"kinetic/internal/usecase"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeSessionError maps coordinator errors onto HTTP statuses. Precondition
// violations are conflicts; an unknown assignment is a 404; anything else is
// a transport-level failure.
func writeSessionError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, usecase.ErrDeviceNotConnected),
		errors.Is(err, usecase.ErrSessionActive),
		errors.Is(err, usecase.ErrSessionBusy):
		status = http.StatusConflict
	case errors.Is(err, usecase.ErrAssignmentNotFound):
		status = http.StatusNotFound
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
