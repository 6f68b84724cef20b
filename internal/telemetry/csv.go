// Package telemetry persists readings: an append-only CSV log on the SD
// card and the ordered JSON body uploaded to the cloud API.
package telemetry

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/sweeney/battery-controller/internal/logic"
)

// CSVLogger appends records to a CSV file. The file is opened and closed
// for every write so nothing is held open across a power cut.
type CSVLogger struct {
	path string
}

// NewCSVLogger creates a logger writing to path.
func NewCSVLogger(path string) *CSVLogger {
	return &CSVLogger{path: path}
}

// Path returns the log file path.
func (l *CSVLogger) Path() string {
	return l.path
}

// Log appends one row. If the file does not exist yet the header row is
// written first. Every line ends with a trailing comma.
func (l *CSVLogger) Log(fields logic.Fields) error {
	_, err := os.Stat(l.path)
	needHeader := errors.Is(err, fs.ErrNotExist)
	if err != nil && !needHeader {
		return fmt.Errorf("stat log file: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	w := csv.NewWriter(f)
	if needHeader {
		_ = w.Write(HeaderRow(fields))
	}
	_ = w.Write(ValueRow(fields))
	w.Flush()

	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("write log file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close log file: %w", err)
	}
	return nil
}

// HeaderRow returns the keys plus an empty last cell, which renders as a trailing comma.
func HeaderRow(fields logic.Fields) []string {
	row := make([]string, 0, len(fields)+1)
	for _, f := range fields {
		row = append(row, f.Key)
	}
	return append(row, "")
}

// ValueRow returns the formatted values plus an empty last cell.
func ValueRow(fields logic.Fields) []string {
	row := make([]string, 0, len(fields)+1)
	for _, f := range fields {
		row = append(row, logic.FormatValue(f.Value))
	}
	return append(row, "")
}
