package usecase

import (
	"context"
	"sync"
	"time"

	"kinetic/internal/domain"
	"kinetic/internal/logging"
	"kinetic/internal/ports"
)

// RecommendationStore caches the last-known recommendation list locally so
// it survives daemon restarts.
type RecommendationStore interface {
	SaveRecommendations(ctx context.Context, recs []domain.Recommendation) error
	LoadRecommendations(ctx context.Context) ([]domain.Recommendation, error)
}

// RecommenderConfig controls the advisory fetch loop.
type RecommenderConfig struct {
	PatientID string
	Condition string
	Interval  time.Duration
}

// Recommender periodically fetches advisory recommendations. A failed or
// malformed fetch leaves the prior list untouched and never escapes the
// loop.
type Recommender struct {
	advisory ports.AdvisoryClient
	cache    RecommendationStore
	events   ports.EventSink
	log      logging.Logger
	cfg      RecommenderConfig

	mu      sync.Mutex
	current []domain.Recommendation
}

func NewRecommender(
	advisory ports.AdvisoryClient,
	cache RecommendationStore,
	events ports.EventSink,
	log logging.Logger,
	cfg RecommenderConfig,
) *Recommender {
	if log == nil {
		log = logging.Nop()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	r := &Recommender{
		advisory: advisory,
		cache:    cache,
		events:   events,
		log:      log,
		cfg:      cfg,
	}
	if cache != nil {
		cached, err := cache.LoadRecommendations(context.Background())
		if err != nil {
			log.Warn("recommendation cache read failed", logging.F("error", err))
		} else {
			r.current = cached
		}
	}
	return r
}

// Run fetches once immediately, then on every interval tick until the
// context is cancelled.
func (r *Recommender) Run(ctx context.Context) {
	r.Refresh(ctx)
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Refresh(ctx)
		}
	}
}

// Refresh performs a single advisory fetch. On failure the prior list is
// kept; the error is logged and surfaced as an event, never returned.
func (r *Recommender) Refresh(ctx context.Context) {
	recs, err := r.advisory.Fetch(ctx, r.cfg.PatientID, r.cfg.Condition)
	if err != nil {
		r.log.Warn("recommendation fetch failed", logging.F("error", err))
		if r.events != nil {
			r.events.SessionError(domain.ErrorCodeAdvisory, err.Error())
		}
		return
	}

	r.mu.Lock()
	r.current = recs
	r.mu.Unlock()

	if r.cache != nil {
		if err := r.cache.SaveRecommendations(ctx, recs); err != nil {
			r.log.Warn("recommendation cache write failed", logging.F("error", err))
		}
	}
	if r.events != nil {
		r.events.RecommendationsUpdated(len(recs))
	}
	r.log.Debug("recommendations refreshed", logging.F("count", len(recs)))
}

// RefreshAfter schedules a one-shot refresh, used after session completion
// so the advisory service re-evaluates the patient's progress.
func (r *Recommender) RefreshAfter(delay time.Duration) {
	time.AfterFunc(delay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		r.Refresh(ctx)
	})
}

// Current returns a copy of the last successfully fetched list.
func (r *Recommender) Current() []domain.Recommendation {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Recommendation, len(r.current))
	copy(out, r.current)
	return out
}
