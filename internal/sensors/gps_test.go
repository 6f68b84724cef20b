package sensors

import (
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedSentences replays sentences, then blocks until block is closed.
type scriptedSentences struct {
	sentences []string
	errs      []error
	block     chan struct{}
	calls     atomic.Int32
}

func (s *scriptedSentences) NextSentence() (string, error) {
	i := int(s.calls.Add(1)) - 1
	if i < len(s.sentences) {
		var err error
		if i < len(s.errs) {
			err = s.errs[i]
		}
		return s.sentences[i], err
	}
	if s.block != nil {
		<-s.block
	}
	return "", errors.New("exhausted")
}

func nmea(body string) string {
	var cs byte
	for i := 0; i < len(body); i++ {
		cs ^= body[i]
	}
	return fmt.Sprintf("$%s*%02X", body, cs)
}

func TestNMEAReceiverGGAAndRMC(t *testing.T) {
	src := &scriptedSentences{sentences: []string{
		nmea("GPGSV,3,1,11,10,63,137,17,07,61,098,15,05,59,290,20,08,54,157,30"),
		nmea("GPGGA,123519,0117.52600,S,03649.12800,E,1,08,0.9,1661.4,M,46.9,M,,"),
		nmea("GPRMC,123520,A,0117.52600,S,03649.12800,E,000.0,000.0,010326,,,A"),
	}}
	g := NewNMEAReceiver(src, time.Second)

	require.NoError(t, g.Update(), "GSV is skipped, GGA applied")
	fix := g.Fix()
	assert.InDelta(t, -1.2921, fix.Latitude, 1e-3)
	assert.InDelta(t, 36.8188, fix.Longitude, 1e-3)
	assert.Equal(t, 1661.0, fix.Altitude)
	assert.Equal(t, 8, fix.Satellites)
	assert.Equal(t, 1, fix.FixQuality)
	assert.Equal(t, "12:35:19", fix.Time)
	assert.Equal(t, "00-00-00", fix.Date, "no date before an RMC sentence")

	require.NoError(t, g.Update())
	fix = g.Fix()
	assert.Equal(t, "2026-03-01", fix.Date)
	assert.Equal(t, "12:35:20", fix.Time)
	assert.Equal(t, 1661.0, fix.Altitude, "RMC keeps the GGA altitude")
}

func TestNMEAReceiverTimeout(t *testing.T) {
	src := &scriptedSentences{block: make(chan struct{})}
	defer close(src.block)
	g := NewNMEAReceiver(src, 20*time.Millisecond)

	err := g.Update()
	assert.ErrorIs(t, err, ErrGPSTimeout)

	// The stuck read is still in flight; no second read is started.
	err = g.Update()
	assert.ErrorIs(t, err, ErrGPSTimeout)
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestNMEAReceiverBadSentences(t *testing.T) {
	src := &scriptedSentences{}
	for i := 0; i < maxSentencesPerUpdate; i++ {
		src.sentences = append(src.sentences, "")
		src.errs = append(src.errs, errors.New("invalid NMEA sentence length"))
	}
	g := NewNMEAReceiver(src, time.Second)

	assert.Error(t, g.Update())
	assert.Equal(t, int32(maxSentencesPerUpdate), src.calls.Load())
}
