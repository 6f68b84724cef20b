package service

import (
	"time"

	"github.com/sweeney/battery-controller/internal/display"
	"github.com/sweeney/battery-controller/internal/logic"
)

func (s *Service) nextScreen() {
	s.screen = display.Next(s.screen)
	if err := s.hw.Store.SetScreenIndex(s.screen); err != nil {
		s.logger.Warn("screen index not saved", "err", err)
	}
	s.needScreen = true
}

// refreshScreen redraws the current screen from a fresh status read. The
// GPS fields come from the last logged reading.
func (s *Service) refreshScreen(now time.Time) {
	r := s.hw.Sensors.ReadStatus()
	r.GPS = s.lastReading.GPS
	r.Errors = r.Errors.
		With(logic.ErrGPS, s.lastReading.Errors.Has(logic.ErrGPS)).
		Union(s.statusFlags())

	s.show(display.Screen(s.screen, r))
	s.screenAt = now
	s.needScreen = false
}

// show writes lines to the panel, tracking the D flag.
func (s *Service) show(lines []string) {
	if err := s.hw.Panel.Show(lines); err != nil {
		if !s.displayFailed {
			s.logger.Error("display write failed", "err", err)
		}
		s.displayFailed = true
		return
	}
	s.displayFailed = false
}
