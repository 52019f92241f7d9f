package daemon

import (
	"context"
	"net/http"

	"kinetic/internal/domain"
	"kinetic/internal/logging"
	"kinetic/internal/ports"
	"kinetic/internal/usecase"
)

// UserStore is the slice of local persistence the API needs.
type UserStore interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
	PutUser(ctx context.Context, user domain.User) (domain.User, error)
}

// API serves the daemon's local HTTP surface.
type API struct {
	Version     string
	PatientID   string
	Coordinator *usecase.Coordinator
	Recommender *usecase.Recommender
	Records     ports.RecordStore
	Users       UserStore
	Forwarder   *Forwarder
	Hub         *Hub
	Logger      logging.Logger
}

func (a *API) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/health", a.Health)
	mux.HandleFunc("/api/users", a.UsersHandler)
	mux.HandleFunc("/api/n8n/patient-query", a.PatientQuery)
	mux.HandleFunc("/api/assignments", a.Assignments)
	mux.HandleFunc("/api/session", a.Session)
	mux.HandleFunc("/api/session/start", a.SessionStart)
	mux.HandleFunc("/api/session/stop", a.SessionStop)
	mux.HandleFunc("/api/recommendations", a.Recommendations)
	mux.HandleFunc("/api/events", a.Events)
}

type startSessionRequest struct {
	AssignmentID string `json:"assignmentId"`
}
