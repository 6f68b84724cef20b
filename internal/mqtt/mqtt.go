// Package mqtt mirrors logged readings and lifecycle events to an MQTT broker.
// The cloud upload remains the system of record; the mirror is best effort.
package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sweeney/battery-controller/internal/logic"
	"github.com/sweeney/battery-controller/internal/telemetry"
)

// DefaultPrefix is the topic prefix used when none is configured.
const DefaultPrefix = "battery"

// Topics are the MQTT topics for one battery.
type Topics struct {
	Telemetry string
	System    string
}

// NewTopics returns <prefix>/<id>/telemetry and <prefix>/<id>/system.
func NewTopics(prefix string, batteryID int) Topics {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	base := fmt.Sprintf("%s/%d", prefix, batteryID)
	return Topics{
		Telemetry: base + "/telemetry",
		System:    base + "/system",
	}
}

// Publisher publishes to MQTT.
type Publisher interface {
	// PublishTelemetry sends one logged record.
	// Returns error if publishing fails (should not crash the process).
	PublishTelemetry(fields logic.Fields) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent is a lifecycle event (STARTUP, SLEEP, WAKE, SHUTDOWN, MODEM_RESET).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string
	Reason     string // e.g. "SIGTERM", "buttons"
	BootID     string
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// FormatTelemetryPayload renders fields in record order, the same body the
// cloud upload carries.
func FormatTelemetryPayload(fields logic.Fields) []byte {
	return telemetry.JSON(fields)
}

// SystemPayload is the MQTT payload for system events without a status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
	BootID    string `json:"boot_id,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly.
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
			BootID:    event.BootID,
		},
	}
	return json.Marshal(payload)
}
