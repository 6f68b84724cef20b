package telemetry

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/sweeney/battery-controller/internal/logic"
)

// MaxConsecutiveSDFailures is the count at which SD failures are reported as critical.
const MaxConsecutiveSDFailures = 5

// Writer writes one record. CSVLogger satisfies it.
type Writer interface {
	Log(fields logic.Fields) error
}

// SDLogger tracks the health of the SD card log. Errors never escape: a
// failed write sets the S flag and bumps the consecutive-failure count.
type SDLogger struct {
	w      Writer
	logger *log.Logger

	failed      bool
	consecutive int
	lastSuccess time.Time
}

// NewSDLogger wraps w.
func NewSDLogger(w Writer, logger *log.Logger) *SDLogger {
	return &SDLogger{w: w, logger: logger}
}

// Log writes fields and reports whether the write succeeded.
func (s *SDLogger) Log(fields logic.Fields, now time.Time) bool {
	if err := s.w.Log(fields); err != nil {
		s.failed = true
		s.consecutive++
		s.logger.Error("sd write failed", "consecutive", s.consecutive, "err", err)
		if s.consecutive >= MaxConsecutiveSDFailures {
			s.logger.Error("sd card may need attention", "consecutive", s.consecutive)
		}
		return false
	}
	s.failed = false
	s.consecutive = 0
	s.lastSuccess = now
	s.logger.Debug("sd write ok")
	return true
}

// Failed reports whether the last write failed.
func (s *SDLogger) Failed() bool { return s.failed }

// Consecutive returns the number of failed writes since the last success.
func (s *SDLogger) Consecutive() int { return s.consecutive }

// LastSuccess returns the time of the last successful write.
func (s *SDLogger) LastSuccess() time.Time { return s.lastSuccess }
