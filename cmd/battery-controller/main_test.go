package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/sweeney/battery-controller/internal/mqtt"
	"github.com/sweeney/battery-controller/internal/service"
	"github.com/sweeney/battery-controller/internal/sim"
	"github.com/sweeney/battery-controller/internal/status"
)

var bootTime = time.Date(2026, 3, 1, 9, 20, 0, 0, time.UTC)

type loopFixture struct {
	board   *sim.Board
	svc     *service.Service
	tracker *status.Tracker
	pub     *mqtt.FakePublisher
	obs     service.Observer
}

func newLoopFixture(t *testing.T) *loopFixture {
	t.Helper()
	logger := log.New(io.Discard)
	f := &loopFixture{
		board:   sim.NewBoard(42, bootTime),
		tracker: status.NewTracker(bootTime, status.Config{BatteryID: 42, BootID: "b00t"}),
		pub:     mqtt.NewFakePublisher(),
	}
	f.pub.Connected = true
	f.obs = service.Observers(f.tracker, mqtt.NewMirror(f.pub, f.pub, f.tracker, "b00t", logger))
	f.svc = f.board.Boot(logger, f.obs)
	return f
}

// now returns the board time and advances it by one tick per call, keeping
// the RTC in step. Only called from runLoop's goroutine.
func (f *loopFixture) now() time.Time {
	t := f.board.Clock.Now()
	f.board.RTC.Time = t
	f.board.Clock.Advance(f.board.Tick)
	return t
}

// runRunLoop drives runLoop for nTicks, then sends signal.
func (f *loopFixture) runRunLoop(t *testing.T, nTicks int, signal os.Signal) error {
	t.Helper()
	tick := make(chan time.Time)
	sig := make(chan os.Signal, 1)

	errCh := make(chan error, 1)
	go func() {
		errCh <- runLoop(context.Background(), f.svc, f.tracker, f.obs, f.pub, f.now, tick, sig, log.New(io.Discard))
	}()

	for i := 0; i < nTicks; i++ {
		tick <- time.Time{}
	}
	sig <- signal

	return <-errCh
}

func (f *loopFixture) systemEvents(name string) []mqtt.SystemEvent {
	var out []mqtt.SystemEvent
	for _, e := range f.pub.SystemEvents {
		if e.Event == name {
			out = append(out, e)
		}
	}
	return out
}

func TestRunLoopStartupThenShutdown(t *testing.T) {
	f := newLoopFixture(t)

	err := f.runRunLoop(t, 5, syscall.SIGTERM)
	if err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	if len(f.pub.SystemEvents) != 2 {
		t.Fatalf("expected 2 system events, got %d", len(f.pub.SystemEvents))
	}
	if f.pub.SystemEvents[0].Event != "STARTUP" {
		t.Errorf("first event: got %q, want STARTUP", f.pub.SystemEvents[0].Event)
	}
	se := f.pub.SystemEvents[1]
	if se.Event != "SHUTDOWN" {
		t.Errorf("expected SHUTDOWN, got %q", se.Event)
	}
	if se.Reason != "SIGTERM" {
		t.Errorf("expected reason SIGTERM, got %q", se.Reason)
	}
	if !se.Retained {
		t.Error("expected Retained=true for SHUTDOWN")
	}
}

func TestRunLoopShutdownSIGINT(t *testing.T) {
	f := newLoopFixture(t)

	if err := f.runRunLoop(t, 1, syscall.SIGINT); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	got := f.systemEvents("SHUTDOWN")
	if len(got) != 1 {
		t.Fatalf("expected 1 SHUTDOWN, got %d", len(got))
	}
	if got[0].Reason != "SIGINT" {
		t.Errorf("expected reason SIGINT, got %q", got[0].Reason)
	}
}

func TestRunLoopShutdownPayloadCarriesStatus(t *testing.T) {
	f := newLoopFixture(t)

	if err := f.runRunLoop(t, 3, syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	payload := f.pub.SystemPayloads[len(f.pub.SystemPayloads)-1]
	var sj status.StatusJSON
	if err := json.Unmarshal(payload, &sj); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if sj.Status.Event != "SHUTDOWN" || sj.Status.Reason != "SIGTERM" {
		t.Errorf("event: got %q/%q", sj.Status.Event, sj.Status.Reason)
	}
	if sj.Status.BatteryID != 42 {
		t.Errorf("BatteryID: got %d, want 42", sj.Status.BatteryID)
	}
	if !sj.Status.MQTT.Connected {
		t.Error("expected MQTT connected in the shutdown snapshot")
	}
}

func TestRunLoopUpdatesTracker(t *testing.T) {
	f := newLoopFixture(t)

	if err := f.runRunLoop(t, 2, syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	snap := f.tracker.Snapshot()
	if !snap.Updated {
		t.Fatal("expected tracker to be updated")
	}
	if snap.Device.ScreenUpdatedAt.IsZero() {
		t.Error("expected the first screen to have been drawn")
	}
	if len(f.board.Panel.Shown) == 0 {
		t.Error("expected the panel to show a screen")
	}
}

func TestRunLoopMirrorsFirstLog(t *testing.T) {
	f := newLoopFixture(t)

	// 40 s of modem start-up at 100 ms per tick, plus margin.
	if err := f.runRunLoop(t, 420, syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	if len(f.pub.Telemetry) != 1 {
		t.Fatalf("expected 1 telemetry message, got %d", len(f.pub.Telemetry))
	}
	if got := f.pub.Telemetry[0].Text("id"); got != "42" {
		t.Errorf("id: got %q, want 42", got)
	}
	if f.tracker.Snapshot().Device.Logs != 1 {
		t.Errorf("tracker Logs: got %d, want 1", f.tracker.Snapshot().Device.Logs)
	}
	if len(f.board.API.Bodies) != 1 {
		t.Errorf("uploads: got %d, want 1", len(f.board.API.Bodies))
	}
}

func TestSignalName(t *testing.T) {
	tests := []struct {
		sig  os.Signal
		want string
	}{
		{syscall.SIGINT, "SIGINT"},
		{syscall.SIGTERM, "SIGTERM"},
		{syscall.SIGHUP, "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := signalName(tt.sig); got != tt.want {
			t.Errorf("signalName(%v): got %q, want %q", tt.sig, got, tt.want)
		}
	}
}

func TestClosersCloseInReverse(t *testing.T) {
	var order []int
	cl := closers{closeFunc(func() { order = append(order, 1) }), closeFunc(func() { order = append(order, 2) })}

	cl.closeAll(log.New(io.Discard))

	if len(order) != 2 || order[0] != 2 || order[1] != 1 {
		t.Errorf("close order: got %v, want [2 1]", order)
	}
}

type closeFunc func()

func (f closeFunc) Close() error {
	f()
	return nil
}
