package usecase

import (
	"context"

	"kinetic/internal/domain"
	"kinetic/internal/logging"
	"kinetic/internal/ports"
)

// Reconciler watches the record store's live assignment updates and forces
// the coordinator back to idle when the backend marks the active assignment
// completed out-of-band. Notifications are treated as authoritative
// snapshots, never as deltas.
type Reconciler struct {
	records   ports.RecordStore
	coord     *Coordinator
	log       logging.Logger
	patientID string
}

func NewReconciler(records ports.RecordStore, coord *Coordinator, log logging.Logger, patientID string) *Reconciler {
	if log == nil {
		log = logging.Nop()
	}
	return &Reconciler{records: records, coord: coord, log: log, patientID: patientID}
}

// Run consumes assignment updates until the context is cancelled or the
// subscription ends. A subscription failure ends this watcher only.
func (r *Reconciler) Run(ctx context.Context) error {
	updates, cancel, err := r.records.SubscribeAssignedExercises(ctx, r.patientID)
	if err != nil {
		r.log.Error("assignment subscription failed", logging.F("error", err))
		return err
	}
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case batch, ok := <-updates:
			if !ok {
				return nil
			}
			r.Apply(batch)
		}
	}
}

// Apply reconciles one update batch against the active session slot.
func (r *Reconciler) Apply(batch []domain.AssignedExercise) {
	activeID := r.coord.Slot().AssignmentID
	if activeID == "" {
		return
	}
	for _, assignment := range batch {
		if assignment.ID != activeID {
			continue
		}
		if assignment.Status == domain.StatusCompleted {
			r.log.Info("active assignment completed remotely", logging.F("assignment_id", activeID))
			r.coord.ForceIdle(activeID)
		}
		return
	}
}
