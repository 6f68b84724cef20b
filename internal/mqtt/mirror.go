package mqtt

import (
	"github.com/charmbracelet/log"

	"github.com/sweeney/battery-controller/internal/logic"
	"github.com/sweeney/battery-controller/internal/service"
	"github.com/sweeney/battery-controller/internal/status"
)

// Mirror forwards service notifications to a Publisher. It implements
// service.Observer. When a tracker is set, lifecycle events carry a full
// status snapshot.
type Mirror struct {
	pub     Publisher
	conn    ConnectionStatus
	tracker *status.Tracker
	bootID  string
	logger  *log.Logger
}

// NewMirror creates a Mirror. tracker and conn may be nil.
func NewMirror(pub Publisher, conn ConnectionStatus, tracker *status.Tracker, bootID string, logger *log.Logger) *Mirror {
	return &Mirror{pub: pub, conn: conn, tracker: tracker, bootID: bootID, logger: logger}
}

// retained reports whether e describes the pack's current power state,
// which late subscribers should see.
func retained(e service.Event) bool {
	switch e.Type {
	case service.EventStartup, service.EventSleep, service.EventWake, service.EventShutdown:
		return true
	}
	return false
}

// Event publishes a lifecycle event.
func (m *Mirror) Event(e service.Event) {
	ev := SystemEvent{
		Timestamp: e.Time,
		Event:     e.Type,
		Reason:    e.Reason,
		BootID:    m.bootID,
		Retained:  retained(e),
	}
	if m.tracker != nil {
		if m.conn != nil {
			m.tracker.SetMQTTConnected(m.conn.IsConnected())
		}
		ev.RawPayload = status.FormatStatusEvent(m.tracker.Snapshot(), e.Type, e.Reason)
	}
	if err := m.pub.PublishSystem(ev); err != nil {
		m.logger.Warn("publish event failed", "event", e.Type, "err", err)
		return
	}
	m.logger.Debug("published event", "event", e.Type)
}

// Logged publishes the reading's canonical record.
func (m *Mirror) Logged(r logic.Reading) {
	if err := m.pub.PublishTelemetry(logic.Record(r)); err != nil {
		m.logger.Warn("publish telemetry failed", "err", err)
	}
}
