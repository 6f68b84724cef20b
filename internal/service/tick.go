package service

import (
	"context"
	"errors"
	"time"

	"github.com/sweeney/battery-controller/internal/display"
	"github.com/sweeney/battery-controller/internal/gpio"
	"github.com/sweeney/battery-controller/internal/logic"
	"github.com/sweeney/battery-controller/internal/power"
	"github.com/sweeney/battery-controller/internal/telemetry"
)

// errModemAsleep stands in for the upload while the modem is powered off
// for sleep.
var errModemAsleep = errors.New("modem off while asleep")

// Tick runs one pass of the loop at now. Nothing in it blocks beyond the
// bounded waits of the components it calls.
func (s *Service) Tick(ctx context.Context, now time.Time) {
	s.hw.Watchdog.Feed()

	presses := s.debouncer.Process(s.sampleButtons(now))
	if presses.Any() {
		s.logger.Debug("buttons released", "usb", presses.USB, "info", presses.Info, "inverter", presses.Inverter)
	}
	switch s.hw.Power.HandlePresses(presses) {
	case power.ActionShutdown:
		s.shutdown(now)
		return
	case power.ActionNextScreen:
		s.nextScreen()
	}

	s.hw.Power.ServiceCharge()
	if s.hw.Power.TakeChanged() {
		s.needScreen = true
	}

	if s.needScreen || now.Sub(s.screenAt) > ScreenRefreshInterval {
		s.refreshScreen(now)
	}

	if !now.After(s.firstLogAt) {
		return
	}

	wall, ok := s.hw.Sensors.Now(now)
	if !ok {
		s.logger.Debug("rtc unreadable, using system time for cadence")
	}
	if logic.LogDue(wall, s.lastLogged, s.hw.Power.Active()) {
		s.logCycle(ctx, now, wall)
	}

	if err := s.hw.Sensors.RTC().ClearAlarm(); err != nil {
		s.logger.Debug("rtc alarm clear failed", "err", err)
	}

	s.sleepStep(now)
}

// logCycle reads every sensor and logs the reading to the SD card, then
// to the cloud. The last-logged time advances if either succeeded.
func (s *Service) logCycle(ctx context.Context, now, wall time.Time) {
	s.logger.Info("logging",
		"net_failures", s.hw.Uplink.Consecutive(),
		"sd_failures", s.hw.SD.Consecutive())

	s.show(display.PleaseWait)

	s.hw.Watchdog.Feed()
	r := s.hw.Sensors.ReadAll()
	r.Errors = r.Errors.Union(s.statusFlags())
	s.hw.Watchdog.Feed()

	sdOK := s.hw.SD.Log(logic.Record(r), now)
	s.hw.Watchdog.Feed()

	netErr := errModemAsleep
	if s.sleeping {
		s.logger.Info("modem is off, skipping upload")
	} else {
		// The body is built once the session is up, so it carries this
		// tick's SD result and no stale cellular failure.
		netErr = s.hw.Uplink.LogToInternet(ctx, func() []byte {
			body := r
			body.Errors = body.Errors.
				With(logic.ErrSDCard, s.hw.SD.Failed()).
				With(logic.ErrCellular, false).
				With(logic.ErrDisplay, s.displayFailed)
			return telemetry.JSON(logic.Record(body))
		})
		s.hw.Watchdog.Feed()

		if netErr != nil && s.hw.Uplink.RecoverIfStuck() {
			s.observer.Event(Event{Type: EventModemReset, Time: now})
		}
	}

	r.Errors = r.Errors.
		With(logic.ErrSDCard, !sdOK).
		With(logic.ErrCellular, netErr != nil)
	s.lastReading = r
	s.logs++
	s.observer.Logged(r)

	s.refreshScreen(now)

	if sdOK || netErr == nil {
		s.lastLogged = wall
		s.logger.Info("logged", "sd", sdOK, "net", netErr == nil, "next", logic.NextLogTime(wall, s.hw.Power.Active()).Format(time.DateTime))
		return
	}
	s.logger.Warn("both sd and internet logging failed")
	if s.hw.SD.Consecutive() >= telemetry.MaxConsecutiveSDFailures {
		s.logger.Error("sd card may need attention", "consecutive", s.hw.SD.Consecutive())
	}
}

// sampleButtons reads the three buttons. An unreadable button is left out
// of the sample.
func (s *Service) sampleButtons(now time.Time) logic.ButtonSample {
	sample := logic.ButtonSample{Time: now}
	lines := [...]gpio.Line{gpio.ButtonUSB, gpio.ButtonInfo, gpio.ButtonInverter}
	for i, l := range lines {
		v, err := s.hw.Pins.Get(l)
		if err != nil {
			s.logger.Debug("button read failed", "line", l, "err", err)
			continue
		}
		sample.Levels[i] = v
		sample.Valid[i] = true
	}
	return sample
}
