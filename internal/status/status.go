// Package status provides a thread-safe status tracker for the battery controller.
// It is read by the HTTP status page and by the MQTT mirror.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/battery-controller/internal/logic"
	"github.com/sweeney/battery-controller/internal/service"
)

// Config contains daemon configuration for display.
type Config struct {
	BatteryID  int
	BootID     string
	TickMs     int64
	Broker     string
	HTTPAddr   string
	APIBaseURL string
	SDPath     string
}

// EventCounts counts lifecycle events since boot.
type EventCounts struct {
	Sleep      int
	Wake       int
	ModemReset int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Device        service.DeviceState
	Updated       bool
	Counts        EventCounts
	LastEvent     *service.Event
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Ready reports whether the first-log gate has passed.
func (s Snapshot) Ready() bool {
	return s.Updated && s.Now.After(s.Device.FirstLogAt)
}

// Tracker holds mutable daemon state behind an RWMutex. It implements
// service.Observer.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
		now: time.Now,
	}
}

// Update stores the device state. Called from runLoop after every tick.
func (t *Tracker) Update(st service.DeviceState) {
	t.mu.Lock()
	t.snap.Device = st
	t.snap.Updated = true
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Event records a lifecycle event.
func (t *Tracker) Event(e service.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch e.Type {
	case service.EventSleep:
		t.snap.Counts.Sleep++
	case service.EventWake:
		t.snap.Counts.Wake++
	case service.EventModemReset:
		t.snap.Counts.ModemReset++
	}
	t.snap.LastEvent = &e
}

// Logged stores r as the latest reading before the next Update arrives.
func (t *Tracker) Logged(r logic.Reading) {
	t.mu.Lock()
	t.snap.Device.LastReading = r
	t.snap.Device.Logs++
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	if s.LastEvent != nil {
		e := *s.LastEvent
		s.LastEvent = &e
	}
	s.Now = t.now()
	return s
}
