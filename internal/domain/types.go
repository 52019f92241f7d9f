package domain

import "time"

// AssignmentStatus tracks a prescribed exercise through its lifecycle.
type AssignmentStatus string

const (
	StatusAssigned   AssignmentStatus = "assigned"
	StatusInProgress AssignmentStatus = "in_progress"
	StatusCompleted  AssignmentStatus = "completed"
)

// AssignedExercise is a prescribed exercise instance owned by the remote
// record service. It is immutable once completed.
type AssignedExercise struct {
	ID             string           `json:"id"`
	ExerciseID     string           `json:"exerciseId"`
	Name           string           `json:"name"`
	MinAngle       float64          `json:"minAngle"`
	MaxAngle       float64          `json:"maxAngle"`
	TargetReps     int              `json:"targetReps"`
	TargetDuration int              `json:"targetDuration"`
	Status         AssignmentStatus `json:"status"`
	AssignedAt     time.Time        `json:"assignedAt"`
	CompletedAt    *time.Time       `json:"completedAt,omitempty"`
}

// ExerciseProgress records one exercise session's execution. Created once per
// session start, updated once on completion, never deleted.
type ExerciseProgress struct {
	ID                 string           `json:"id"`
	PatientID          string           `json:"patientId"`
	ExerciseID         string           `json:"exerciseId"`
	AssignedExerciseID string           `json:"assignedExerciseId"`
	SessionStartTime   time.Time        `json:"sessionStartTime"`
	SessionEndTime     *time.Time       `json:"sessionEndTime,omitempty"`
	CompletedAt        *time.Time       `json:"completedAt,omitempty"`
	Status             AssignmentStatus `json:"status,omitempty"`
}

// SensorReading is a single orientation sample from the motion sensor.
// Readings are ephemeral and never persisted.
type SensorReading struct {
	Angle float64 `json:"angle"`
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// Recommendation is advisory output produced by the external service.
type Recommendation struct {
	Feedback            string  `json:"feedback"`
	RecommendedExercise string  `json:"recommendedExercise"`
	Rationale           string  `json:"rationale"`
	AdditionalAdvice    string  `json:"additionalAdvice"`
	Confidence          float64 `json:"confidence"`
}

// IsZero reports whether the recommendation carries no content at all.
func (r Recommendation) IsZero() bool {
	return r.Feedback == "" && r.RecommendedExercise == "" &&
		r.Rationale == "" && r.AdditionalAdvice == "" && r.Confidence == 0
}

// SessionSlot is the single-occupancy record of which assignment/progress pair
// is currently active for a patient. At most one pair is non-empty at a time.
type SessionSlot struct {
	AssignmentID string `json:"assignmentId,omitempty"`
	ProgressID   string `json:"progressId,omitempty"`
}

// Empty reports whether no session currently occupies the slot.
func (s SessionSlot) Empty() bool {
	return s.AssignmentID == "" && s.ProgressID == ""
}

// SessionState models the exercise session lifecycle.
type SessionState string

const (
	SessionStateIdle       SessionState = "idle"
	SessionStateStarting   SessionState = "starting"
	SessionStateActive     SessionState = "active"
	SessionStateCompleting SessionState = "completing"
)

// SessionStateReason provides a structured reason for state transitions.
type SessionStateReason string

const (
	SessionReasonStarted     SessionStateReason = "session_started"
	SessionReasonCompleted   SessionStateReason = "session_completed"
	SessionReasonReconciled  SessionStateReason = "session_reconciled"
	SessionReasonStartFailed SessionStateReason = "session_start_failed"
)

// ErrorCode identifies non-fatal backend errors surfaced to observers.
type ErrorCode string

const (
	ErrorCodeDeviceStart    ErrorCode = "device_start"
	ErrorCodeDeviceStop     ErrorCode = "device_stop"
	ErrorCodeStoreWrite     ErrorCode = "store_write"
	ErrorCodeStoreRevert    ErrorCode = "store_revert"
	ErrorCodeStoreSubscribe ErrorCode = "store_subscribe"
	ErrorCodeAdvisory       ErrorCode = "advisory"
)

// SessionStatus summarizes the coordinator's current runtime status.
type SessionStatus struct {
	State  SessionState `json:"state"`
	Active bool         `json:"active"`
	Slot   SessionSlot  `json:"slot"`
}

// User is a locally registered account shown by the users endpoint.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Role      string    `json:"role,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
