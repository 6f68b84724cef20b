package telemetry

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/battery-controller/internal/logic"
)

func sampleFields() logic.Fields {
	return logic.Record(logic.Reading{
		BatteryID:   7,
		Date:        "2026-03-01",
		Time:        "10:05:00",
		Temperature: 21.5,
		Outputs:     logic.Outputs{USB: true},
		Battery:     logic.Battery{StateOfCharge: 80, MinutesRemaining: -1},
		Errors:      logic.ErrorFlags(0).With(logic.ErrGPS, true),
	})
}

func TestCSVHeaderWrittenOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	l := NewCSVLogger(path)
	assert.Equal(t, path, l.Path())

	for i := 0; i < 3; i++ {
		require.NoError(t, l.Log(sampleFields()))
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, lines, 4)

	header := strings.Join(logic.Keys, ",") + ","
	assert.Equal(t, header, lines[0])
	assert.Equal(t, 1, strings.Count(string(data), header))
	for _, row := range lines[1:] {
		assert.True(t, strings.HasPrefix(row, "7,2026-03-01,10:05:00,0.0,"), row)
		assert.True(t, strings.HasSuffix(row, ",G,"), row)
	}
}

func TestCSVExistingFileGetsNoHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("old,\n"), 0o644))

	require.NoError(t, NewCSVLogger(path).Log(sampleFields()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "old,\n7,"))
}

func TestCSVMissingDirectoryFails(t *testing.T) {
	l := NewCSVLogger(filepath.Join(t.TempDir(), "unmounted", "data.csv"))
	assert.Error(t, l.Log(sampleFields()))
}

type failingWriter struct {
	err   error
	calls int
}

func (f *failingWriter) Log(logic.Fields) error {
	f.calls++
	return f.err
}

func TestSDLoggerTracksFailures(t *testing.T) {
	w := &failingWriter{err: errors.New("no card")}
	sd := NewSDLogger(w, log.New(io.Discard))
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for i := 1; i <= 3; i++ {
		assert.False(t, sd.Log(sampleFields(), now))
		assert.True(t, sd.Failed())
		assert.Equal(t, i, sd.Consecutive())
	}
	assert.True(t, sd.LastSuccess().IsZero())

	w.err = nil
	assert.True(t, sd.Log(sampleFields(), now))
	assert.False(t, sd.Failed())
	assert.Zero(t, sd.Consecutive())
	assert.Equal(t, now, sd.LastSuccess())
}

func TestJSONKeyOrder(t *testing.T) {
	body := JSON(sampleFields())

	require.True(t, json.Valid(body), string(body))
	dec := json.NewDecoder(strings.NewReader(string(body)))
	_, err := dec.Token() // {
	require.NoError(t, err)

	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		require.NoError(t, err)
		keys = append(keys, tok.(string))
		var v any
		require.NoError(t, dec.Decode(&v))
	}
	assert.Equal(t, logic.Keys, keys)
}

func TestJSONValues(t *testing.T) {
	var got map[string]any
	require.NoError(t, json.Unmarshal(JSON(sampleFields()), &got))

	assert.Equal(t, 7.0, got["id"])
	assert.Equal(t, "2026-03-01", got["d"])
	assert.Equal(t, 21.5, got["t"])
	assert.Equal(t, 1.0, got["eu"])
	assert.Equal(t, -1.0, got["tr"])
	assert.Equal(t, "G", got["err"])
}

func TestJSONNonFinite(t *testing.T) {
	body := JSON(logic.Fields{{Key: "t", Value: math.NaN()}})
	assert.Equal(t, `{"t":null}`, string(body))
}
