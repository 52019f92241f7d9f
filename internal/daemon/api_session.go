package daemon

import (
	"encoding/json"
	"net/http"
	"strings"

	"kinetic/internal/logging"
)

func (a *API) Session(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, a.Coordinator.Status())
}

func (a *API) SessionStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json body"})
		return
	}
	if strings.TrimSpace(req.AssignmentID) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "assignmentId is required"})
		return
	}
	if err := a.Coordinator.Start(r.Context(), req.AssignmentID); err != nil {
		a.Logger.Warn("session start rejected",
			logging.F("assignment_id", req.AssignmentID),
			logging.F("error", err),
		)
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.Coordinator.Status())
}

func (a *API) SessionStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if err := a.Coordinator.Stop(r.Context()); err != nil {
		a.Logger.Warn("session stop completed with errors", logging.F("error", err))
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.Coordinator.Status())
}

func (a *API) Assignments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	assignments, err := a.Records.AssignedExercises(r.Context(), a.PatientID)
	if err != nil {
		a.Logger.Error("assignment listing failed", logging.F("error", err))
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "failed to load assigned exercises"})
		return
	}
	writeJSON(w, http.StatusOK, assignments)
}
