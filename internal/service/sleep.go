package service

import (
	"time"

	"github.com/sweeney/battery-controller/internal/gpio"
)

// sleepStep moves an idle pack toward sleep. The first idle tick arms the
// settle window; once it has passed the pack sleeps, once. Any activity
// cancels both.
func (s *Service) sleepStep(now time.Time) {
	if s.sleeping {
		connected := s.hw.Power.ChargerConnected()
		if s.hw.Power.Active() || (connected && !s.chargerAtSleep) {
			s.wake(now)
		}
		s.chargerAtSleep = s.chargerAtSleep && connected
	}
	if s.hw.Power.Active() {
		s.finishedSetup = false
		s.sleeping = false
		return
	}

	if !s.finishedSetup {
		s.sleepAt = now.Add(SettleWindow)
		s.finishedSetup = true
		s.logger.Debug("idle, sleeping soon", "at", s.sleepAt.Format(time.TimeOnly))
	}
	if s.sleeping || !now.After(s.sleepAt) {
		return
	}

	s.refreshScreen(now)
	s.sleeping = true
	s.goToSleep(now)
}

// goToSleep switches everything off, clears (without disabling) the RTC
// alarm so the next hour still wakes the pack, and releases stay-awake.
func (s *Service) goToSleep(now time.Time) {
	s.logger.Info("entering sleep")
	s.hw.Power.SetChargeAllowed(false)
	s.hw.Power.AllOff()
	s.chargerAtSleep = s.hw.Power.ChargerConnected()

	s.hw.Watchdog.Feed()
	s.hw.Uplink.PowerOff()
	s.hw.Watchdog.Feed()

	rtc := s.hw.Sensors.RTC()
	if err := rtc.ClearAlarm(); err != nil {
		s.logger.Warn("rtc alarm clear failed, retrying", "err", err)
		if err := rtc.ClearAlarm(); err != nil {
			s.logger.Error("rtc alarm clear failed", "err", err)
		}
	}

	s.hw.Clock.Sleep(SleepSettle)
	s.hw.Watchdog.Feed()

	if err := s.hw.Pins.Set(gpio.StayAwake, false); err != nil {
		s.logger.Error("stay-awake release failed", "err", err)
	}
	s.observer.Event(Event{Type: EventSleep, Time: now})
	s.logger.Info("stay-awake released, pack should sleep now")
}

// wake undoes goToSleep when the pack stayed powered and a button or a
// newly connected charger made it active again.
func (s *Service) wake(now time.Time) {
	s.logger.Info("activity after sleep, staying awake")
	s.sleeping = false
	s.finishedSetup = false
	s.hw.Power.SetChargeAllowed(true)
	if err := s.hw.Pins.Set(gpio.StayAwake, true); err != nil {
		s.logger.Error("stay-awake hold failed", "err", err)
	}
	s.hw.Uplink.PowerOn()
	s.observer.Event(Event{Type: EventWake, Time: now})
}

// shutdown is the three-button hard stop: the RTC alarm is disabled and
// cleared so nothing wakes the pack, then stay-awake is released.
func (s *Service) shutdown(now time.Time) {
	s.logger.Warn("shutdown requested")
	rtc := s.hw.Sensors.RTC()
	if err := rtc.DisableAlarm(); err != nil {
		s.logger.Error("rtc alarm disable failed", "err", err)
	}
	if err := rtc.ClearAlarm(); err != nil {
		s.logger.Error("rtc alarm clear failed", "err", err)
	}
	if err := s.hw.Pins.Set(gpio.StayAwake, false); err != nil {
		s.logger.Error("stay-awake release failed", "err", err)
	}
	s.finished = true
	s.observer.Event(Event{Type: EventShutdown, Time: now, Reason: "buttons"})
}
