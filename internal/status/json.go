package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/battery-controller/internal/logic"
	"github.com/sweeney/battery-controller/internal/telemetry"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string          `json:"event,omitempty"`
	Reason        string          `json:"reason,omitempty"`
	BatteryID     int             `json:"battery_id"`
	BootID        string          `json:"boot_id,omitempty"`
	Ready         bool            `json:"ready"`
	Sleeping      bool            `json:"sleeping"`
	Finished      bool            `json:"finished"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	StartTime     string          `json:"start_time"`
	Timestamp     string          `json:"timestamp"`
	Outputs       OutputsJSON     `json:"outputs"`
	Charger       ChargerJSON     `json:"charger"`
	Screen        int             `json:"screen"`
	Display       HealthJSON      `json:"display"`
	SD            LoggerJSON      `json:"sd"`
	Uplink        UplinkJSON      `json:"uplink"`
	MQTT          MQTTStatus      `json:"mqtt"`
	Counts        CountsJSON      `json:"event_counts"`
	Logs          int             `json:"logs"`
	LastLogged    string          `json:"last_logged,omitempty"`
	Reading       json.RawMessage `json:"reading,omitempty"`
	Config        ConfigJSON      `json:"config"`
}

// OutputsJSON reports the four output-enable levels.
type OutputsJSON struct {
	USB      bool `json:"usb"`
	Charge   bool `json:"charge"`
	Fan      bool `json:"fan"`
	Inverter bool `json:"inverter"`
}

// ChargerJSON reports charger presence.
type ChargerJSON struct {
	Connected bool `json:"connected"`
	Charging  bool `json:"charging"`
}

// HealthJSON reports a single failure flag.
type HealthJSON struct {
	Failed bool `json:"failed"`
}

// LoggerJSON reports SD logging health.
type LoggerJSON struct {
	Failed      bool   `json:"failed"`
	Consecutive int    `json:"consecutive_failures"`
	LastSuccess string `json:"last_success,omitempty"`
}

// UplinkJSON reports the network uplink.
type UplinkJSON struct {
	State       string `json:"state"`
	Failed      bool   `json:"failed"`
	Consecutive int    `json:"consecutive_failures"`
	LastSuccess string `json:"last_success,omitempty"`
	Resets      int    `json:"modem_resets"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	Sleep      int `json:"sleep"`
	Wake       int `json:"wake"`
	ModemReset int `json:"modem_reset"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	TickMs     int64  `json:"tick_ms"`
	Broker     string `json:"broker,omitempty"`
	HTTPAddr   string `json:"http_addr,omitempty"`
	APIBaseURL string `json:"api_base_url"`
	SDPath     string `json:"sd_path"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func buildInner(snap Snapshot) StatusInner {
	d := snap.Device
	inner := StatusInner{
		BatteryID:     snap.Config.BatteryID,
		BootID:        snap.Config.BootID,
		Ready:         snap.Ready(),
		Sleeping:      d.Sleeping,
		Finished:      d.Finished,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		Outputs: OutputsJSON{
			USB:      d.Outputs.USB,
			Charge:   d.Outputs.Charge,
			Fan:      d.Outputs.Fan,
			Inverter: d.Outputs.Inverter,
		},
		Charger: ChargerJSON{Connected: d.ChargerConnected, Charging: d.Charging},
		Screen:  d.Screen,
		Display: HealthJSON{Failed: d.DisplayFailed},
		SD: LoggerJSON{
			Failed:      d.SDFailed,
			Consecutive: d.SDConsecutive,
			LastSuccess: formatTime(d.SDLastSuccess),
		},
		Uplink: UplinkJSON{
			State:       d.ModemState.String(),
			Failed:      d.NetFailed,
			Consecutive: d.NetConsecutive,
			LastSuccess: formatTime(d.NetLastSuccess),
			Resets:      d.ModemResets,
		},
		MQTT: MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Sleep:      snap.Counts.Sleep,
			Wake:       snap.Counts.Wake,
			ModemReset: snap.Counts.ModemReset,
		},
		Logs:       d.Logs,
		LastLogged: formatTime(d.LastLogged),
		Config: ConfigJSON{
			TickMs:     snap.Config.TickMs,
			Broker:     snap.Config.Broker,
			HTTPAddr:   snap.Config.HTTPAddr,
			APIBaseURL: snap.Config.APIBaseURL,
			SDPath:     snap.Config.SDPath,
		},
	}
	if d.Logs > 0 {
		inner.Reading = telemetry.JSON(logic.Record(d.LastReading))
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
