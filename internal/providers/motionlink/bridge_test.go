package motionlink

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// bridgeServer is a fake sensor bridge: it upgrades, sends the hello frame,
// then hands the connection to the test.
type bridgeServer struct {
	server *httptest.Server
	conns  chan *websocket.Conn
}

func newBridgeServer(t *testing.T, deviceName string) *bridgeServer {
	t.Helper()
	bs := &bridgeServer{conns: make(chan *websocket.Conn, 1)}
	upgrader := websocket.Upgrader{}
	bs.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		if err := conn.WriteJSON(frame{Type: frameHello, DeviceName: deviceName}); err != nil {
			t.Errorf("send hello failed: %v", err)
			return
		}
		bs.conns <- conn
	}))
	t.Cleanup(bs.server.Close)
	return bs
}

func (bs *bridgeServer) url() string {
	return "ws" + strings.TrimPrefix(bs.server.URL, "http")
}

func (bs *bridgeServer) conn(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case conn := <-bs.conns:
		return conn
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for bridge connection")
		return nil
	}
}

func TestConnectReadsHello(t *testing.T) {
	t.Parallel()

	bs := newBridgeServer(t, "KneeSensor-01")
	bridge := New(Config{URL: bs.url()}, nil)
	defer bridge.Disconnect()

	if err := bridge.Connect(context.Background()); err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	if !bridge.Connected() {
		t.Fatalf("expected connected state")
	}
	if name := bridge.DeviceName(); name != "KneeSensor-01" {
		t.Fatalf("expected device name from hello, got %q", name)
	}
	if bridge.Recording() {
		t.Fatalf("fresh connection must not be recording")
	}
}

func TestConnectRejectsWrongGreeting(t *testing.T) {
	t.Parallel()

	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		_ = conn.WriteJSON(frame{Type: frameReading, Angle: 10})
	}))
	defer server.Close()

	bridge := New(Config{URL: "ws" + strings.TrimPrefix(server.URL, "http")}, nil)
	err := bridge.Connect(context.Background())
	if err == nil || !strings.Contains(err.Error(), "greeting") {
		t.Fatalf("expected greeting error, got %v", err)
	}
	if bridge.Connected() {
		t.Fatalf("failed handshake must not leave the bridge connected")
	}
}

func TestStartRecordingSendsControlFrame(t *testing.T) {
	t.Parallel()

	bs := newBridgeServer(t, "KneeSensor-01")
	bridge := New(Config{URL: bs.url()}, nil)
	defer bridge.Disconnect()

	if err := bridge.Connect(context.Background()); err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	conn := bs.conn(t)

	if err := bridge.StartRecording(context.Background(), "ex-knee"); err != nil {
		t.Fatalf("start recording failed: %v", err)
	}
	if !bridge.Recording() {
		t.Fatalf("expected recording state after start")
	}

	var got frame
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("read control frame: %v", err)
	}
	if got.Type != frameStartRecording || got.ExerciseID != "ex-knee" {
		t.Fatalf("unexpected control frame: %+v", got)
	}

	bridge.StopRecording()
	if bridge.Recording() {
		t.Fatalf("expected recording cleared after stop")
	}
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("read control frame: %v", err)
	}
	if got.Type != frameStopRecording {
		t.Fatalf("unexpected control frame: %+v", got)
	}
}

func TestStartRecordingRequiresConnection(t *testing.T) {
	t.Parallel()

	bridge := New(Config{URL: "ws://127.0.0.1:1"}, nil)
	if err := bridge.StartRecording(context.Background(), "ex-knee"); err == nil {
		t.Fatalf("expected error when not connected")
	}
}

func TestStopRecordingWhileIdleIsNoop(t *testing.T) {
	t.Parallel()

	bs := newBridgeServer(t, "KneeSensor-01")
	bridge := New(Config{URL: bs.url()}, nil)
	defer bridge.Disconnect()

	if err := bridge.Connect(context.Background()); err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	conn := bs.conn(t)

	bridge.StopRecording()

	// prove no stop frame was sent: the next frame the server reads is the
	// start frame from a later call
	if err := bridge.StartRecording(context.Background(), "ex-heel"); err != nil {
		t.Fatalf("start recording failed: %v", err)
	}
	var got frame
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("read control frame: %v", err)
	}
	if got.Type != frameStartRecording {
		t.Fatalf("idle stop must not emit a frame, server saw %+v", got)
	}
}

func TestReadingsAreDelivered(t *testing.T) {
	t.Parallel()

	bs := newBridgeServer(t, "KneeSensor-01")
	bridge := New(Config{URL: bs.url()}, nil)
	defer bridge.Disconnect()

	if err := bridge.Connect(context.Background()); err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	conn := bs.conn(t)

	if err := conn.WriteJSON(frame{Type: frameReading, Angle: 42.5, Roll: 1, Pitch: 2, Yaw: 3}); err != nil {
		t.Fatalf("send reading: %v", err)
	}

	select {
	case reading := <-bridge.Readings():
		if reading.Angle != 42.5 || reading.Yaw != 3 {
			t.Fatalf("unexpected reading: %+v", reading)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for reading")
	}
}

func TestConnectionLossClearsState(t *testing.T) {
	t.Parallel()

	bs := newBridgeServer(t, "KneeSensor-01")
	bridge := New(Config{URL: bs.url()}, nil)
	defer bridge.Disconnect()

	if err := bridge.Connect(context.Background()); err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	conn := bs.conn(t)
	if err := bridge.StartRecording(context.Background(), "ex-knee"); err != nil {
		t.Fatalf("start recording failed: %v", err)
	}

	_ = conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for bridge.Connected() {
		if time.Now().After(deadline) {
			t.Fatalf("bridge did not notice connection loss")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if bridge.Recording() {
		t.Fatalf("recording flag must clear on connection loss")
	}
}
