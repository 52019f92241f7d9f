package ports

import (
	"context"

	"kinetic/internal/domain"
)

// DeviceGateway exposes the connected motion-sensor device. Implementations
// own the transport; the coordinator only issues commands and reads state.
type DeviceGateway interface {
	Connect(ctx context.Context) error
	Disconnect()
	StartRecording(ctx context.Context, exerciseID string) error
	StopRecording()
	Connected() bool
	Recording() bool
	DeviceName() string
	Readings() <-chan domain.SensorReading
}

// RecordStore is the remote patient-record service. Updates take partial
// field maps so completed records are never rewritten wholesale.
type RecordStore interface {
	AssignedExercises(ctx context.Context, patientID string) ([]domain.AssignedExercise, error)
	UpdateAssignedExercise(ctx context.Context, patientID, id string, fields map[string]any) error
	CreateExerciseProgress(ctx context.Context, patientID string, progress domain.ExerciseProgress) (string, error)
	UpdateExerciseProgress(ctx context.Context, patientID, id string, fields map[string]any) error

	// SubscribeAssignedExercises delivers full snapshots of the patient's
	// assignment records whenever the backend reports a change. The channel
	// closes when the subscription ends; cancel releases it.
	SubscribeAssignedExercises(ctx context.Context, patientID string) (<-chan []domain.AssignedExercise, func(), error)
}

// AdvisoryClient fetches exercise recommendations for a patient.
type AdvisoryClient interface {
	Fetch(ctx context.Context, patientID, condition string) ([]domain.Recommendation, error)
}

// EventSink emits coordinator state and events to observers.
type EventSink interface {
	SessionStateChanged(state domain.SessionState, reason domain.SessionStateReason)
	SessionError(code domain.ErrorCode, detail string)
	RecommendationsUpdated(count int)
	Reading(reading domain.SensorReading)
}
