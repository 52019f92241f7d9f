// Package motionlink connects to the motion-sensor bridge over a websocket.
// The bridge greets with a hello frame carrying the device name, accepts
// start/stop recording control frames, and streams orientation readings.
package motionlink

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"kinetic/internal/domain"
	"kinetic/internal/logging"
)

const (
	frameHello          = "hello"
	frameReading        = "reading"
	frameStartRecording = "start_recording"
	frameStopRecording  = "stop_recording"
)

type frame struct {
	Type       string  `json:"type"`
	DeviceName string  `json:"deviceName,omitempty"`
	ExerciseID string  `json:"exerciseId,omitempty"`
	Angle      float64 `json:"angle,omitempty"`
	Roll       float64 `json:"roll,omitempty"`
	Pitch      float64 `json:"pitch,omitempty"`
	Yaw        float64 `json:"yaw,omitempty"`
}

// Config controls the sensor bridge connection.
type Config struct {
	URL              string
	HandshakeTimeout time.Duration
}

// Bridge implements ports.DeviceGateway over a websocket connection.
type Bridge struct {
	cfg      Config
	log      logging.Logger
	readings chan domain.SensorReading

	mu         sync.Mutex
	conn       *websocket.Conn
	connected  bool
	recording  bool
	deviceName string
}

func New(cfg Config, log logging.Logger) *Bridge {
	if log == nil {
		log = logging.Nop()
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 5 * time.Second
	}
	return &Bridge{
		cfg:      cfg,
		log:      log,
		readings: make(chan domain.SensorReading, 64),
	}
}

// Connect dials the bridge and waits for its hello frame. Connecting while
// already connected is a no-op.
func (b *Bridge) Connect(ctx context.Context) error {
	b.mu.Lock()
	if b.connected {
		b.mu.Unlock()
		return nil
	}
	b.mu.Unlock()

	if b.cfg.URL == "" {
		return errors.New("sensor bridge url is not configured")
	}

	dialer := websocket.Dialer{HandshakeTimeout: b.cfg.HandshakeTimeout}
	conn, resp, err := dialer.DialContext(ctx, b.cfg.URL, nil)
	if err != nil {
		if resp != nil {
			_ = resp.Body.Close()
		}
		return fmt.Errorf("connect to sensor bridge: %w", err)
	}

	var hello frame
	if err := conn.ReadJSON(&hello); err != nil {
		_ = conn.Close()
		return fmt.Errorf("read bridge hello: %w", err)
	}
	if hello.Type != frameHello {
		_ = conn.Close()
		return fmt.Errorf("unexpected bridge greeting %q", hello.Type)
	}

	b.mu.Lock()
	b.conn = conn
	b.connected = true
	b.deviceName = hello.DeviceName
	b.mu.Unlock()

	b.log.Info("sensor bridge connected", logging.F("device", hello.DeviceName))
	go b.readLoop(conn)
	return nil
}

func (b *Bridge) readLoop(conn *websocket.Conn) {
	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			b.mu.Lock()
			if b.conn == conn {
				b.conn = nil
				b.connected = false
				b.recording = false
			}
			b.mu.Unlock()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				b.log.Warn("sensor bridge read ended", logging.F("error", err))
			}
			return
		}
		if f.Type != frameReading {
			continue
		}
		reading := domain.SensorReading{Angle: f.Angle, Roll: f.Roll, Pitch: f.Pitch, Yaw: f.Yaw}
		// readings are display-only; drop rather than stall the read loop
		select {
		case b.readings <- reading:
		default:
		}
	}
}

// StartRecording instructs the device to begin a recording bound to the
// given exercise.
func (b *Bridge) StartRecording(_ context.Context, exerciseID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.connected || b.conn == nil {
		return errors.New("sensor bridge is not connected")
	}
	if err := b.conn.WriteJSON(frame{Type: frameStartRecording, ExerciseID: exerciseID}); err != nil {
		return fmt.Errorf("send start_recording: %w", err)
	}
	b.recording = true
	return nil
}

// StopRecording is idempotent; a send failure is logged, not returned.
func (b *Bridge) StopRecording() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.recording {
		return
	}
	if b.conn != nil {
		if err := b.conn.WriteJSON(frame{Type: frameStopRecording}); err != nil {
			b.log.Warn("send stop_recording failed", logging.F("error", err))
		}
	}
	b.recording = false
}

func (b *Bridge) Disconnect() {
	b.mu.Lock()
	conn := b.conn
	b.conn = nil
	b.connected = false
	b.recording = false
	b.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}

func (b *Bridge) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connected
}

func (b *Bridge) Recording() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.recording
}

func (b *Bridge) DeviceName() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.deviceName
}

func (b *Bridge) Readings() <-chan domain.SensorReading {
	return b.readings
}
