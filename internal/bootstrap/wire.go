// Package bootstrap assembles the daemon's runtime dependency graph.
package bootstrap

import (
	"errors"
	"strings"

	"kinetic/internal/config"
	"kinetic/internal/daemon"
	"kinetic/internal/logging"
	"kinetic/internal/providers/advisory"
	"kinetic/internal/providers/carehub"
	"kinetic/internal/providers/motionlink"
	"kinetic/internal/store"
	"kinetic/internal/usecase"
)

// Services is the assembled runtime graph.
type Services struct {
	Config      config.Config
	API         *daemon.API
	Hub         *daemon.Hub
	Device      *motionlink.Bridge
	Coordinator *usecase.Coordinator
	Recommender *usecase.Recommender
	Reconciler  *usecase.Reconciler
	Store       *store.Store
}

// Build wires all backend dependencies for the given configuration.
func Build(cfg config.Config, log logging.Logger, version string) (Services, error) {
	if strings.TrimSpace(cfg.Patient.ID) == "" {
		return Services{}, errors.New("patient id is required (set patient.id or KINETIC_PATIENT_ID)")
	}

	localStore, err := store.Open(cfg.Store.Path)
	if err != nil {
		return Services{}, err
	}

	hub := daemon.NewHub()
	device := motionlink.New(motionlink.Config{
		URL:              cfg.Device.BridgeURL,
		HandshakeTimeout: cfg.Device.HandshakeTimeout(),
	}, log.With(logging.F("component", "motionlink")))

	records := carehub.New(carehub.Config{
		BaseURL: cfg.CareHub.BaseURL,
		Token:   cfg.CareHub.Token,
	}, log.With(logging.F("component", "carehub")))

	recommender := usecase.NewRecommender(
		advisory.New(advisory.Config{URL: cfg.Advisory.URL}),
		localStore,
		hub,
		log.With(logging.F("component", "recommender")),
		usecase.RecommenderConfig{
			PatientID: cfg.Patient.ID,
			Condition: cfg.Patient.Condition,
			Interval:  cfg.Advisory.Interval(),
		},
	)

	coordinator := usecase.NewCoordinator(
		device,
		records,
		hub,
		recommender,
		log.With(logging.F("component", "coordinator")),
		usecase.Config{
			PatientID:       cfg.Patient.ID,
			CompletionDelay: cfg.Advisory.CompletionDelay(),
		},
	)

	reconciler := usecase.NewReconciler(
		records,
		coordinator,
		log.With(logging.F("component", "reconciler")),
		cfg.Patient.ID,
	)

	api := &daemon.API{
		Version:     version,
		PatientID:   cfg.Patient.ID,
		Coordinator: coordinator,
		Recommender: recommender,
		Records:     records,
		Users:       localStore,
		Forwarder:   daemon.NewForwarder(cfg.Webhook.TargetURL, nil, log.With(logging.F("component", "forwarder"))),
		Hub:         hub,
		Logger:      log.With(logging.F("component", "api")),
	}

	return Services{
		Config:      cfg,
		API:         api,
		Hub:         hub,
		Device:      device,
		Coordinator: coordinator,
		Recommender: recommender,
		Reconciler:  reconciler,
		Store:       localStore,
	}, nil
}

// Close releases resources held by the service graph.
func (s Services) Close() error {
	s.Device.Disconnect()
	return s.Store.Close()
}
