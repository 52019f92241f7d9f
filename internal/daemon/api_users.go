package daemon

import (
	"encoding/json"
	"net/http"

	"kinetic/internal/domain"
	"kinetic/internal/logging"
)

func (a *API) UsersHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		users, err := a.Users.ListUsers(r.Context())
		if err != nil {
			a.Logger.Error("user listing failed", logging.F("error", err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load users"})
			return
		}
		writeJSON(w, http.StatusOK, users)
	case http.MethodPost:
		var user domain.User
		if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json body"})
			return
		}
		created, err := a.Users.PutUser(r.Context(), user)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusCreated, created)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}
