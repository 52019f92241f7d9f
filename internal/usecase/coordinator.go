package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"kinetic/internal/domain"
	"kinetic/internal/logging"
	"kinetic/internal/ports"
)

var (
	ErrDeviceNotConnected = errors.New("motion sensor is not connected")
	ErrSessionActive      = errors.New("an exercise session is already active")
	ErrSessionBusy        = errors.New("a session request is already in flight")
	ErrAssignmentNotFound = errors.New("assigned exercise not found")
)

// RefreshScheduler schedules a deferred recommendation refresh.
type RefreshScheduler interface {
	RefreshAfter(delay time.Duration)
}

// Config controls session coordination behavior.
type Config struct {
	PatientID       string
	CompletionDelay time.Duration
}

// Coordinator owns the single active-session slot for a patient and
// arbitrates session starts and stops against device and record state.
type Coordinator struct {
	device    ports.DeviceGateway
	records   ports.RecordStore
	events    ports.EventSink
	refresher RefreshScheduler
	log       logging.Logger
	cfg       Config
	now       func() time.Time

	mu       sync.Mutex
	starting bool
	state    domain.SessionState
	slot     domain.SessionSlot
}

func NewCoordinator(
	device ports.DeviceGateway,
	records ports.RecordStore,
	events ports.EventSink,
	refresher RefreshScheduler,
	log logging.Logger,
	cfg Config,
) *Coordinator {
	if log == nil {
		log = logging.Nop()
	}
	if cfg.CompletionDelay <= 0 {
		cfg.CompletionDelay = 2 * time.Second
	}
	return &Coordinator{
		device:    device,
		records:   records,
		events:    events,
		refresher: refresher,
		log:       log,
		cfg:       cfg,
		now:       time.Now,
		state:     domain.SessionStateIdle,
	}
}

// Start begins a session for the given assignment. The device must be
// connected and the session slot empty; a start already in flight is
// rejected, not queued. On any partial failure the coordinator compensates
// and returns to idle with the slot untouched.
func (c *Coordinator) Start(ctx context.Context, assignmentID string) error {
	c.mu.Lock()
	if !c.device.Connected() {
		c.mu.Unlock()
		return ErrDeviceNotConnected
	}
	if c.starting || c.state == domain.SessionStateCompleting {
		c.mu.Unlock()
		return ErrSessionBusy
	}
	if !c.slot.Empty() {
		c.mu.Unlock()
		return ErrSessionActive
	}
	c.starting = true
	c.state = domain.SessionStateStarting
	c.mu.Unlock()

	progressID, err := c.startSequence(ctx, assignmentID)

	c.mu.Lock()
	c.starting = false
	if err != nil {
		c.state = domain.SessionStateIdle
	} else {
		c.slot = domain.SessionSlot{AssignmentID: assignmentID, ProgressID: progressID}
		c.state = domain.SessionStateActive
	}
	c.mu.Unlock()

	if err != nil {
		c.events.SessionStateChanged(domain.SessionStateIdle, domain.SessionReasonStartFailed)
		return err
	}
	c.events.SessionStateChanged(domain.SessionStateActive, domain.SessionReasonStarted)
	return nil
}

func (c *Coordinator) startSequence(ctx context.Context, assignmentID string) (string, error) {
	assignments, err := c.records.AssignedExercises(ctx, c.cfg.PatientID)
	if err != nil {
		return "", fmt.Errorf("load assigned exercises: %w", err)
	}
	var assignment *domain.AssignedExercise
	for i := range assignments {
		if assignments[i].ID == assignmentID {
			assignment = &assignments[i]
			break
		}
	}
	if assignment == nil {
		return "", ErrAssignmentNotFound
	}
	priorStatus := assignment.Status

	if err := c.device.StartRecording(ctx, assignment.ExerciseID); err != nil {
		c.events.SessionError(domain.ErrorCodeDeviceStart, err.Error())
		return "", fmt.Errorf("start device recording: %w", err)
	}

	if err := c.records.UpdateAssignedExercise(ctx, c.cfg.PatientID, assignmentID, map[string]any{
		"status": domain.StatusInProgress,
	}); err != nil {
		c.device.StopRecording()
		c.events.SessionError(domain.ErrorCodeStoreWrite, err.Error())
		return "", fmt.Errorf("mark assignment in progress: %w", err)
	}

	progress := domain.ExerciseProgress{
		PatientID:          c.cfg.PatientID,
		ExerciseID:         assignment.ExerciseID,
		AssignedExerciseID: assignmentID,
		SessionStartTime:   c.now(),
		Status:             domain.StatusInProgress,
	}
	progressID, err := c.records.CreateExerciseProgress(ctx, c.cfg.PatientID, progress)
	if err != nil {
		c.device.StopRecording()
		c.revertAssignmentStatus(ctx, assignmentID, priorStatus)
		c.events.SessionError(domain.ErrorCodeStoreWrite, err.Error())
		return "", fmt.Errorf("create progress record: %w", err)
	}
	return progressID, nil
}

// revertAssignmentStatus is best effort: a second failure during cleanup is
// logged and must not mask the original error shown to the caller.
func (c *Coordinator) revertAssignmentStatus(ctx context.Context, assignmentID string, prior domain.AssignmentStatus) {
	if err := c.records.UpdateAssignedExercise(ctx, c.cfg.PatientID, assignmentID, map[string]any{
		"status": prior,
	}); err != nil {
		c.log.Warn("assignment status revert failed",
			logging.F("assignment_id", assignmentID),
			logging.F("error", err),
		)
		c.events.SessionError(domain.ErrorCodeStoreRevert, err.Error())
	}
}

// Stop completes the active session. Every step is best effort and the slot
// is cleared unconditionally once the sequence finishes, so a new start is
// always possible afterwards. A stop while idle is a no-op.
func (c *Coordinator) Stop(ctx context.Context) error {
	c.mu.Lock()
	if c.slot.Empty() {
		c.mu.Unlock()
		return nil
	}
	if c.state == domain.SessionStateCompleting {
		c.mu.Unlock()
		return ErrSessionBusy
	}
	slot := c.slot
	c.state = domain.SessionStateCompleting
	c.mu.Unlock()

	c.device.StopRecording()

	var firstErr error
	completedAt := c.now()
	if err := c.records.UpdateAssignedExercise(ctx, c.cfg.PatientID, slot.AssignmentID, map[string]any{
		"status":      domain.StatusCompleted,
		"completedAt": completedAt,
	}); err != nil {
		firstErr = fmt.Errorf("mark assignment completed: %w", err)
		c.events.SessionError(domain.ErrorCodeStoreWrite, err.Error())
		c.log.Warn("assignment completion write failed",
			logging.F("assignment_id", slot.AssignmentID),
			logging.F("error", err),
		)
	}
	if slot.ProgressID != "" {
		if err := c.records.UpdateExerciseProgress(ctx, c.cfg.PatientID, slot.ProgressID, map[string]any{
			"status":         domain.StatusCompleted,
			"sessionEndTime": completedAt,
			"completedAt":    completedAt,
		}); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("update progress record: %w", err)
			}
			c.events.SessionError(domain.ErrorCodeStoreWrite, err.Error())
			c.log.Warn("progress completion write failed",
				logging.F("progress_id", slot.ProgressID),
				logging.F("error", err),
			)
		}
	}

	c.mu.Lock()
	c.slot = domain.SessionSlot{}
	c.state = domain.SessionStateIdle
	c.mu.Unlock()

	c.events.SessionStateChanged(domain.SessionStateIdle, domain.SessionReasonCompleted)
	if c.refresher != nil {
		c.refresher.RefreshAfter(c.cfg.CompletionDelay)
	}
	return firstErr
}

// ForceIdle drops the active session without writing to the record store;
// the remote record is already authoritative. Invoking it with an empty slot
// or a different assignment is a no-op, so repeated reconciliation
// notifications are harmless.
func (c *Coordinator) ForceIdle(assignmentID string) {
	c.mu.Lock()
	if c.slot.Empty() || c.slot.AssignmentID != assignmentID {
		c.mu.Unlock()
		return
	}
	c.slot = domain.SessionSlot{}
	c.state = domain.SessionStateIdle
	c.mu.Unlock()

	c.device.StopRecording()
	c.events.SessionStateChanged(domain.SessionStateIdle, domain.SessionReasonReconciled)
}

// Slot returns the current session slot.
func (c *Coordinator) Slot() domain.SessionSlot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.slot
}

// Status returns the current coordinator status.
func (c *Coordinator) Status() domain.SessionStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.SessionStatus{
		State:  c.state,
		Active: !c.slot.Empty(),
		Slot:   c.slot,
	}
}
