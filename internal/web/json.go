package web

import (
	"bytes"
	"encoding/csv"

	"github.com/sweeney/battery-controller/internal/logic"
	"github.com/sweeney/battery-controller/internal/status"
	"github.com/sweeney/battery-controller/internal/telemetry"
)

// formatReading returns the last logged reading as the upload body would
// carry it. ok is false until the first log.
func formatReading(snap status.Snapshot) (body []byte, ok bool) {
	if snap.Device.Logs == 0 {
		return nil, false
	}
	return telemetry.JSON(logic.Record(snap.Device.LastReading)), true
}

// formatReadingCSV returns the header and value rows the SD card would hold
// for the last logged reading.
func formatReadingCSV(snap status.Snapshot) (body []byte, ok bool) {
	if snap.Device.Logs == 0 {
		return nil, false
	}
	fields := logic.Record(snap.Device.LastReading)
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write(telemetry.HeaderRow(fields))
	w.Write(telemetry.ValueRow(fields))
	w.Flush()
	return buf.Bytes(), true
}
