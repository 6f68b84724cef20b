package sensors

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/gps"

	"github.com/sweeney/battery-controller/internal/logic"
)

// ErrGPSTimeout is returned when no NMEA sentence arrives within the read timeout.
var ErrGPSTimeout = errors.New("gps read timed out")

const (
	// DefaultGPSReadTimeout bounds one sentence read.
	DefaultGPSReadTimeout = 2 * time.Second

	// maxSentencesPerUpdate bounds how many sentences one Update consumes
	// looking for a GGA or RMC sentence.
	maxSentencesPerUpdate = 8
)

// SentenceSource yields NMEA sentences. gps.Device satisfies it.
type SentenceSource interface {
	NextSentence() (string, error)
}

type sentenceResult struct {
	sentence string
	err      error
}

// NMEAReceiver is a GPS fed by an NMEA sentence source.
//
// The driver's read loop waits for data without a deadline, so each read
// runs in its own goroutine and Update gives up after the read timeout. At
// most one read is in flight; a late sentence is picked up by the next Update.
type NMEAReceiver struct {
	src     SentenceSource
	parser  gps.Parser
	timeout time.Duration
	pending chan sentenceResult

	fix    logic.GPSFix
	date   time.Time
	clock  time.Time
	gotFix bool
}

// NewI2CGPS creates a receiver on the I²C bus at the driver's default address.
func NewI2CGPS(bus drivers.I2C, timeout time.Duration) *NMEAReceiver {
	dev := gps.NewI2C(bus)
	return NewNMEAReceiver(&dev, timeout)
}

// NewNMEAReceiver creates a receiver reading from src.
func NewNMEAReceiver(src SentenceSource, timeout time.Duration) *NMEAReceiver {
	if timeout <= 0 {
		timeout = DefaultGPSReadTimeout
	}
	return &NMEAReceiver{src: src, parser: gps.NewParser(), timeout: timeout}
}

// Update reads sentences until a GGA or RMC sentence has been applied.
func (g *NMEAReceiver) Update() error {
	var lastErr error
	for i := 0; i < maxSentencesPerUpdate; i++ {
		sentence, err := g.next()
		if errors.Is(err, ErrGPSTimeout) {
			return err
		}
		if err != nil {
			lastErr = err
			continue
		}
		applied, err := g.apply(sentence)
		if err != nil {
			lastErr = err
			continue
		}
		if applied {
			return nil
		}
	}
	if lastErr == nil {
		lastErr = errors.New("no position sentence")
	}
	return fmt.Errorf("update gps: %w", lastErr)
}

func (g *NMEAReceiver) next() (string, error) {
	if g.pending == nil {
		ch := make(chan sentenceResult, 1)
		g.pending = ch
		go func() {
			s, err := g.src.NextSentence()
			ch <- sentenceResult{sentence: s, err: err}
		}()
	}
	timer := time.NewTimer(g.timeout)
	defer timer.Stop()
	select {
	case r := <-g.pending:
		g.pending = nil
		return r.sentence, r.err
	case <-timer.C:
		return "", ErrGPSTimeout
	}
}

// apply folds a sentence into the fix. It reports false for sentence
// types that carry no position.
func (g *NMEAReceiver) apply(sentence string) (bool, error) {
	if len(sentence) < 6 {
		return false, nil
	}
	switch sentence[3:6] {
	case "GGA", "RMC":
	default:
		return false, nil
	}

	fix, err := g.parser.Parse(sentence)
	if err != nil {
		return false, err
	}

	g.fix.Latitude = float64(fix.Latitude)
	g.fix.Longitude = float64(fix.Longitude)
	if sentence[3:6] == "GGA" {
		if fix.Altitude != -99999 {
			g.fix.Altitude = float64(fix.Altitude)
		}
		g.fix.Satellites = int(fix.Satellites)
		g.fix.FixQuality = ggaQuality(sentence)
		g.clock = fix.Time
	} else {
		g.date = fix.Time
		g.clock = fix.Time
	}
	g.gotFix = true
	return true, nil
}

// Fix returns the accumulated fix. Date and time read 00-00-00 and
// 00:00:00 until the receiver has reported them.
func (g *NMEAReceiver) Fix() logic.GPSFix {
	fix := g.fix
	fix.Date = "00-00-00"
	fix.Time = "00:00:00"
	if !g.date.IsZero() && g.date.Year() > 1 {
		fix.Date = g.date.Format("2006-01-02")
	}
	if g.gotFix {
		fix.Time = g.clock.Format("15:04:05")
	}
	return fix
}

// ggaQuality returns the fix-quality field of a GGA sentence.
func ggaQuality(sentence string) int {
	fields := strings.Split(sentence, ",")
	if len(fields) < 7 {
		return 0
	}
	q, err := strconv.Atoi(fields[6])
	if err != nil {
		return 0
	}
	return q
}
