// Package service ties the controller's components into one cooperative
// tick: buttons, outputs, screen, logging, network and sleep.
package service

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/sweeney/battery-controller/internal/clock"
	"github.com/sweeney/battery-controller/internal/display"
	"github.com/sweeney/battery-controller/internal/gpio"
	"github.com/sweeney/battery-controller/internal/logic"
	"github.com/sweeney/battery-controller/internal/nvram"
	"github.com/sweeney/battery-controller/internal/power"
	"github.com/sweeney/battery-controller/internal/sensors"
	"github.com/sweeney/battery-controller/internal/telemetry"
	"github.com/sweeney/battery-controller/internal/uplink"
	"github.com/sweeney/battery-controller/internal/watchdog"
)

const (
	// SettleWindow is how long the pack stays awake after going idle.
	SettleWindow = 5 * time.Second

	// ScreenRefreshInterval is the longest a screen is left without a redraw.
	ScreenRefreshInterval = 60 * time.Second

	// SleepSettle is the wait between powering everything down and releasing stay-awake.
	SleepSettle = 10 * time.Second
)

// Lifecycle event names.
const (
	EventStartup    = "STARTUP"
	EventSleep      = "SLEEP"
	EventWake       = "WAKE"
	EventShutdown   = "SHUTDOWN"
	EventModemReset = "MODEM_RESET"
)

// Event is a lifecycle transition.
type Event struct {
	Type   string
	Time   time.Time
	Reason string
}

// Observer is told about lifecycle events and logged readings. The MQTT
// mirror and the status tracker implement it.
type Observer interface {
	Event(e Event)
	Logged(r logic.Reading)
}

type nopObserver struct{}

func (nopObserver) Event(Event)          {}
func (nopObserver) Logged(logic.Reading) {}

type observers []Observer

// Observers fans every notification out to obs in order. Nil entries are skipped.
func Observers(obs ...Observer) Observer {
	var out observers
	for _, o := range obs {
		if o != nil {
			out = append(out, o)
		}
	}
	return out
}

func (o observers) Event(e Event) {
	for _, ob := range o {
		ob.Event(e)
	}
}

func (o observers) Logged(r logic.Reading) {
	for _, ob := range o {
		ob.Logged(r)
	}
}

// Hardware is every component the loop drives, built once at boot.
type Hardware struct {
	Pins     gpio.Pins
	Sensors  *sensors.Hub
	Power    *power.Controller
	SD       *telemetry.SDLogger
	Uplink   *uplink.Uplink
	Panel    display.Panel
	Store    nvram.Store
	Watchdog watchdog.Watchdog
	Clock    clock.Clock
}

// DeviceState is a copy of the loop's state.
type DeviceState struct {
	Boot       time.Time
	FirstLogAt time.Time

	Buttons          [3]logic.ButtonState
	Outputs          logic.Outputs
	ChargerConnected bool
	Charging         bool

	Screen          int
	ScreenUpdatedAt time.Time
	DisplayFailed   bool

	SDFailed       bool
	SDConsecutive  int
	SDLastSuccess  time.Time
	NetFailed      bool
	NetConsecutive int
	NetLastSuccess time.Time
	ModemReadyAt   time.Time
	ModemState     uplink.State
	ModemResets    int

	LastLogged  time.Time
	LastReading logic.Reading
	Logs        int

	FinishedSetup bool
	SleepAt       time.Time
	Sleeping      bool
	Finished      bool
}

// Service owns DeviceState and runs one tick at a time. It is not safe for
// concurrent use.
type Service struct {
	hw       Hardware
	logger   *log.Logger
	observer Observer

	debouncer *logic.Debouncer

	boot          time.Time
	firstLogAt    time.Time
	screen        int
	screenAt      time.Time
	needScreen    bool
	displayFailed bool
	lastLogged    time.Time
	lastReading   logic.Reading
	logs          int

	finishedSetup  bool
	sleepAt        time.Time
	sleeping       bool
	chargerAtSleep bool
	finished       bool
}

// New boots the loop at now: it baselines the buttons, restores the screen
// index, arms the hourly RTC alarm and powers the modem on. Logging and
// sleeping wait until the modem has had ModemStartupTime to start.
func New(hw Hardware, now time.Time, logger *log.Logger, observer Observer) *Service {
	if observer == nil {
		observer = nopObserver{}
	}
	s := &Service{
		hw:         hw,
		logger:     logger,
		observer:   observer,
		boot:       now,
		firstLogAt: now.Add(uplink.ModemStartupTime),
		screenAt:   now,
		needScreen: true,
	}
	s.debouncer = logic.NewDebouncer(logic.DebounceWindow, s.sampleButtons(now))

	if i, err := hw.Store.ScreenIndex(); err != nil {
		logger.Warn("screen index unavailable, starting at 0", "err", err)
	} else {
		s.screen = i
	}

	if err := hw.Sensors.RTC().ArmHourlyAlarm(); err != nil {
		logger.Error("rtc alarm not armed", "err", err)
	}
	hw.Uplink.PowerOn()

	logger.Info("booted", "first_log_at", s.firstLogAt.Format(time.TimeOnly), "screen", s.screen)
	observer.Event(Event{Type: EventStartup, Time: now})
	return s
}

// State returns a copy of the device state.
func (s *Service) State() DeviceState {
	return DeviceState{
		Boot:       s.boot,
		FirstLogAt: s.firstLogAt,
		Buttons: [3]logic.ButtonState{
			s.debouncer.State(logic.ButtonUSB),
			s.debouncer.State(logic.ButtonInfo),
			s.debouncer.State(logic.ButtonInverter),
		},
		Outputs:          s.hw.Power.Outputs(),
		ChargerConnected: s.hw.Power.ChargerConnected(),
		Charging:         s.hw.Power.Charging(),
		Screen:           s.screen,
		ScreenUpdatedAt:  s.screenAt,
		DisplayFailed:    s.displayFailed,
		SDFailed:         s.hw.SD.Failed(),
		SDConsecutive:    s.hw.SD.Consecutive(),
		SDLastSuccess:    s.hw.SD.LastSuccess(),
		NetFailed:        s.hw.Uplink.Failed(),
		NetConsecutive:   s.hw.Uplink.Consecutive(),
		NetLastSuccess:   s.hw.Uplink.LastSuccess(),
		ModemReadyAt:     s.hw.Uplink.ReadyAt(),
		ModemState:       s.hw.Uplink.State(),
		ModemResets:      s.hw.Uplink.Resets(),
		LastLogged:       s.lastLogged,
		LastReading:      s.lastReading,
		Logs:             s.logs,
		FinishedSetup:    s.finishedSetup,
		SleepAt:          s.sleepAt,
		Sleeping:         s.sleeping,
		Finished:         s.finished,
	}
}

// statusFlags returns the S, L and D codes from the last SD write, network
// attempt and screen refresh.
func (s *Service) statusFlags() logic.ErrorFlags {
	var f logic.ErrorFlags
	f = f.With(logic.ErrSDCard, s.hw.SD.Failed())
	f = f.With(logic.ErrCellular, s.hw.Uplink.Failed())
	f = f.With(logic.ErrDisplay, s.displayFailed)
	return f
}
