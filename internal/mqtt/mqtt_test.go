package mqtt

import (
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/sweeney/battery-controller/internal/logic"
	"github.com/sweeney/battery-controller/internal/service"
	"github.com/sweeney/battery-controller/internal/status"
)

var eventTime = time.Date(2026, 3, 1, 9, 20, 0, 0, time.UTC)

func TestNewTopics(t *testing.T) {
	tp := NewTopics("site/nairobi", 42)
	if tp.Telemetry != "site/nairobi/42/telemetry" {
		t.Errorf("Telemetry: got %q", tp.Telemetry)
	}
	if tp.System != "site/nairobi/42/system" {
		t.Errorf("System: got %q", tp.System)
	}
}

func TestNewTopicsDefaultPrefix(t *testing.T) {
	tp := NewTopics("", 7)
	if tp.System != "battery/7/system" {
		t.Errorf("System: got %q, want battery/7/system", tp.System)
	}
}

func TestFormatTelemetryPayloadKeepsRecordOrder(t *testing.T) {
	r := logic.Reading{BatteryID: 42, Temperature: 24.5, Battery: logic.Battery{StateOfCharge: 80}}

	payload := string(FormatTelemetryPayload(logic.Record(r)))

	if !strings.HasPrefix(payload, `{"id":42,"d":"","tm":"","ci":0,`) {
		t.Errorf("payload should start with id, d, tm, ci: got %s", payload)
	}
	var parsed map[string]any
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed["soc"] != 80.0 {
		t.Errorf("soc: got %v, want 80", parsed["soc"])
	}
}

func TestFormatSystemPayload(t *testing.T) {
	event := SystemEvent{
		Timestamp: eventTime,
		Event:     "SHUTDOWN",
		Reason:    "buttons",
		BootID:    "b00t",
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := `{"system":{"timestamp":"2026-03-01T09:20:00Z","event":"SHUTDOWN","reason":"buttons","boot_id":"b00t"}}`
	if string(payload) != want {
		t.Errorf("payload:\n got %s\nwant %s", payload, want)
	}
}

func TestFormatSystemPayloadOmitsEmptyReason(t *testing.T) {
	payload, err := FormatSystemPayload(SystemEvent{Timestamp: eventTime, Event: "STARTUP"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(string(payload), "reason") {
		t.Errorf("reason should be omitted: %s", payload)
	}
	if strings.Contains(string(payload), "boot_id") {
		t.Errorf("boot_id should be omitted: %s", payload)
	}
}

func TestFormatSystemPayloadTimezoneConversion(t *testing.T) {
	eat := time.FixedZone("EAT", 3*60*60)
	payload, _ := FormatSystemPayload(SystemEvent{
		Timestamp: time.Date(2026, 3, 1, 12, 20, 0, 0, eat),
		Event:     "SLEEP",
	})

	var parsed SystemPayload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.System.Timestamp != "2026-03-01T09:20:00Z" {
		t.Errorf("timestamp: got %s, want UTC", parsed.System.Timestamp)
	}
}

func TestFormatSystemPayloadRaw(t *testing.T) {
	raw := []byte(`{"status":{}}`)
	payload, err := FormatSystemPayload(SystemEvent{Event: "STARTUP", RawPayload: raw})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(payload) != string(raw) {
		t.Errorf("payload: got %s, want raw payload", payload)
	}
}

func TestFakePublisher(t *testing.T) {
	f := NewFakePublisher()

	if err := f.PublishTelemetry(logic.Record(logic.Reading{BatteryID: 1})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.PublishSystem(SystemEvent{Timestamp: eventTime, Event: "WAKE"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.Telemetry) != 1 || len(f.Payloads) != 1 {
		t.Fatalf("expected 1 telemetry message, got %d/%d", len(f.Telemetry), len(f.Payloads))
	}
	if len(f.SystemEvents) != 1 || f.SystemEvents[0].Event != "WAKE" {
		t.Errorf("SystemEvents: got %+v", f.SystemEvents)
	}
}

func TestFakePublisherErrors(t *testing.T) {
	f := NewFakePublisher()
	f.PublishError = errors.New("broker down")
	f.PublishSystemError = errors.New("broker down")

	if err := f.PublishTelemetry(nil); err == nil {
		t.Error("expected telemetry error")
	}
	if err := f.PublishSystem(SystemEvent{}); err == nil {
		t.Error("expected system error")
	}
	if len(f.Telemetry) != 0 || len(f.SystemEvents) != 0 {
		t.Error("failed publishes should not be recorded")
	}
}

func TestFakePublisherRetainedIsLastRetainedOnTopic(t *testing.T) {
	f := NewFakePublisher()
	f.PublishSystem(SystemEvent{Event: "SLEEP", Retained: true})
	f.PublishSystem(SystemEvent{Event: "MODEM_RESET"})
	f.PublishTelemetry(logic.Record(logic.Reading{}))

	m, ok := f.Retained(f.Topics.System)
	if !ok {
		t.Fatal("expected a retained system message")
	}
	if !strings.Contains(string(m.Payload), `"SLEEP"`) {
		t.Errorf("retained payload: got %s, want SLEEP", m.Payload)
	}
	if _, ok := f.Retained(f.Topics.Telemetry); ok {
		t.Error("telemetry is never retained")
	}
	if len(f.Sent) != 3 || f.Sent[2].Topic != "battery/0/telemetry" {
		t.Errorf("Sent: got %+v", f.Sent)
	}
}

func TestFakePublisherCountsFailures(t *testing.T) {
	f := NewFakePublisher()
	f.PublishError = errors.New("down")

	f.PublishTelemetry(nil)
	f.PublishTelemetry(nil)

	if f.Failures != 2 {
		t.Errorf("Failures: got %d, want 2", f.Failures)
	}
}

func TestFakePublisherReset(t *testing.T) {
	f := NewFakePublisher()
	f.PublishTelemetry(nil)
	f.PublishSystem(SystemEvent{})
	f.Close()
	f.Connected = true

	f.Reset()

	if f.Telemetry != nil || f.SystemEvents != nil || f.Sent != nil || f.Closed || f.Connected {
		t.Errorf("Reset left state behind: %+v", f)
	}
	if f.Topics.System != "battery/0/system" {
		t.Errorf("Reset should keep Topics, got %+v", f.Topics)
	}
}

func newMirror(tr *status.Tracker) (*Mirror, *FakePublisher) {
	f := NewFakePublisher()
	return NewMirror(f, f, tr, "b00t", log.New(io.Discard)), f
}

func TestMirrorEventWithoutTracker(t *testing.T) {
	m, f := newMirror(nil)

	m.Event(service.Event{Type: service.EventShutdown, Time: eventTime, Reason: "buttons"})

	if len(f.SystemEvents) != 1 {
		t.Fatalf("expected 1 system event, got %d", len(f.SystemEvents))
	}
	ev := f.SystemEvents[0]
	if ev.Event != "SHUTDOWN" || ev.Reason != "buttons" || ev.BootID != "b00t" {
		t.Errorf("event: got %+v", ev)
	}
	if !ev.Retained {
		t.Error("SHUTDOWN should be retained")
	}
	if ev.RawPayload != nil {
		t.Error("expected no status snapshot without a tracker")
	}
}

func TestMirrorRetainsPowerStateOnly(t *testing.T) {
	tests := []struct {
		event    string
		retained bool
	}{
		{service.EventStartup, true},
		{service.EventSleep, true},
		{service.EventWake, true},
		{service.EventShutdown, true},
		{service.EventModemReset, false},
	}
	for _, tt := range tests {
		t.Run(tt.event, func(t *testing.T) {
			m, f := newMirror(nil)
			m.Event(service.Event{Type: tt.event, Time: eventTime})
			if got := f.SystemEvents[0].Retained; got != tt.retained {
				t.Errorf("Retained: got %v, want %v", got, tt.retained)
			}
		})
	}
}

func TestMirrorEventCarriesStatusSnapshot(t *testing.T) {
	tr := status.NewTracker(eventTime, status.Config{BatteryID: 42, BootID: "b00t"})
	tr.Update(service.DeviceState{Outputs: logic.Outputs{Inverter: true}})
	m, f := newMirror(tr)
	f.Connected = true

	m.Event(service.Event{Type: service.EventSleep, Time: eventTime})

	var parsed status.StatusJSON
	if err := json.Unmarshal(f.SystemPayloads[0], &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Status.Event != "SLEEP" {
		t.Errorf("Event: got %q, want SLEEP", parsed.Status.Event)
	}
	if !parsed.Status.Outputs.Inverter {
		t.Error("expected inverter on in snapshot")
	}
	if !parsed.Status.MQTT.Connected {
		t.Error("expected MQTT connected to be refreshed before the snapshot")
	}
}

func TestMirrorLoggedPublishesRecord(t *testing.T) {
	m, f := newMirror(nil)

	m.Logged(logic.Reading{BatteryID: 42, Errors: logic.ErrorFlags(0).With(logic.ErrSDCard, true)})

	if len(f.Telemetry) != 1 {
		t.Fatalf("expected 1 telemetry message, got %d", len(f.Telemetry))
	}
	if got := f.Telemetry[0].Text("err"); got != "S" {
		t.Errorf("err: got %q, want S", got)
	}
	if !strings.HasSuffix(string(f.Payloads[0]), `"err":"S"}`) {
		t.Errorf("payload: got %s", f.Payloads[0])
	}
}

func TestMirrorSwallowsPublishErrors(t *testing.T) {
	m, f := newMirror(nil)
	f.PublishError = errors.New("down")
	f.PublishSystemError = errors.New("down")

	m.Logged(logic.Reading{})
	m.Event(service.Event{Type: service.EventWake})

	if len(f.Telemetry) != 0 || len(f.SystemEvents) != 0 {
		t.Error("nothing should be recorded when publishing fails")
	}
}

func TestMirrorImplementsObserver(t *testing.T) {
	var _ service.Observer = (*Mirror)(nil)
	var _ service.Observer = (*status.Tracker)(nil)
	var _ Publisher = (*RealPublisher)(nil)
	var _ ConnectionStatus = (*RealPublisher)(nil)
}
