// Package sim assembles the controller from fake peripherals, for the host
// simulator and for end-to-end tests. Nothing here is safe for concurrent use.
package sim

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"

	"github.com/sweeney/battery-controller/internal/clock"
	"github.com/sweeney/battery-controller/internal/display"
	"github.com/sweeney/battery-controller/internal/gpio"
	"github.com/sweeney/battery-controller/internal/logic"
	"github.com/sweeney/battery-controller/internal/nvram"
	"github.com/sweeney/battery-controller/internal/power"
	"github.com/sweeney/battery-controller/internal/sensors"
	"github.com/sweeney/battery-controller/internal/service"
	"github.com/sweeney/battery-controller/internal/telemetry"
	"github.com/sweeney/battery-controller/internal/uplink"
	"github.com/sweeney/battery-controller/internal/watchdog"
)

// DefaultTick is the simulated loop period.
const DefaultTick = 100 * time.Millisecond

// Charger levels used by SetCharger.
var (
	ChargerCharging  = logic.PowerSample{Voltage: 18.5, Current: 2.1, Power: 38.9}
	ChargerConnected = logic.PowerSample{Voltage: 18.5, Current: 0.02, Power: 0.4}
)

// Board is a battery pack made of fakes. Every field can be scripted
// between steps.
type Board struct {
	Clock    *clock.Fake
	Pins     *gpio.Fake
	Charge   *sensors.FakePower
	USB      *sensors.FakePower
	Temp     *sensors.FakeTemperature
	GPS      *sensors.FakeGPS
	Gauge    *sensors.FakeGauge
	RTC      *sensors.FakeRTC
	SD       *telemetry.MemoryLog
	Modem    *uplink.FakeModem
	PPP      *uplink.FakeSession
	API      *uplink.FakeAPI
	Panel    *display.FakePanel
	Store    *nvram.Memory
	Watchdog *watchdog.Fake

	// RTCFollows keeps the RTC in step with Clock before every step.
	RTCFollows bool
	Tick       time.Duration

	batteryID int
}

// NewBoard returns a healthy, idle pack at start.
func NewBoard(batteryID int, start time.Time) *Board {
	return &Board{
		Clock:  clock.NewFake(start),
		Pins:   gpio.NewFake(),
		Charge: &sensors.FakePower{},
		USB:    &sensors.FakePower{Sample: logic.PowerSample{Voltage: 5.1}},
		Temp:   &sensors.FakeTemperature{Values: []float64{25}},
		GPS: &sensors.FakeGPS{Current: logic.GPSFix{
			Latitude: -1.2921, Longitude: 36.8219, Altitude: 1661,
			FixQuality: 1, Satellites: 8,
		}},
		Gauge: &sensors.FakeGauge{Batteries: []logic.Battery{{
			Voltage: 12.9, Current: -0.4, Power: -5.2,
			StateOfCharge: 82.5, MinutesRemaining: 1450,
			ChargeCycles: 12, TotalChargeConsumed: 340,
		}}},
		RTC:        &sensors.FakeRTC{Time: start},
		SD:         &telemetry.MemoryLog{},
		Modem:      &uplink.FakeModem{},
		PPP:        &uplink.FakeSession{},
		API:        &uplink.FakeAPI{Token: "sim-token"},
		Panel:      &display.FakePanel{},
		Store:      &nvram.Memory{},
		Watchdog:   &watchdog.Fake{},
		RTCFollows: true,
		Tick:       DefaultTick,
		batteryID:  batteryID,
	}
}

// Hardware wires the fakes the way the daemon wires real devices.
func (b *Board) Hardware(logger *log.Logger) service.Hardware {
	hub := sensors.NewHub(b.batteryID, sensors.Devices{
		Charge:      b.Charge,
		USB:         b.USB,
		Temperature: b.Temp,
		GPS:         b.GPS,
		Gauge:       b.Gauge,
		RTC:         b.RTC,
	}, b.Pins, logger.WithPrefix("sensors"))
	return service.Hardware{
		Pins:     b.Pins,
		Sensors:  hub,
		Power:    power.New(b.Pins, hub, b.Clock, logger.WithPrefix("power")),
		SD:       telemetry.NewSDLogger(b.SD, logger.WithPrefix("sd")),
		Uplink:   uplink.New(b.Modem, b.PPP, b.API, b.Clock, b.Watchdog, logger.WithPrefix("uplink")),
		Panel:    b.Panel,
		Store:    b.Store,
		Watchdog: b.Watchdog,
		Clock:    b.Clock,
	}
}

// Boot builds the service at the board's current time.
func (b *Board) Boot(logger *log.Logger, observer service.Observer) *service.Service {
	return service.New(b.Hardware(logger), b.Clock.Now(), logger.WithPrefix("service"), observer)
}

// Step runs one tick and advances the clock by the tick period.
func (b *Board) Step(ctx context.Context, svc *service.Service) {
	if b.RTCFollows {
		b.RTC.Time = b.Clock.Now()
	}
	svc.Tick(ctx, b.Clock.Now())
	b.Clock.Advance(b.Tick)
}

// Run steps for at least d of simulated time. Sleeps inside a tick count
// towards d. It returns the number of ticks run.
func (b *Board) Run(ctx context.Context, svc *service.Service, d time.Duration) int {
	end := b.Clock.Now().Add(d)
	n := 0
	for b.Clock.Now().Before(end) {
		if ctx.Err() != nil {
			break
		}
		b.Step(ctx, svc)
		n++
	}
	return n
}

// Press holds the buttons down for two ticks, long enough to pass the
// debounce window, then releases them on a third.
func (b *Board) Press(ctx context.Context, svc *service.Service, buttons ...gpio.Line) {
	for _, l := range buttons {
		b.Pins.SetInput(l, true)
	}
	b.Step(ctx, svc)
	b.Step(ctx, svc)
	for _, l := range buttons {
		b.Pins.SetInput(l, false)
	}
	b.Step(ctx, svc)
}

// SetCharger plugs a charger in (charging or merely connected) or unplugs it.
func (b *Board) SetCharger(connected, charging bool) {
	switch {
	case charging:
		b.Charge.Sample = ChargerCharging
	case connected:
		b.Charge.Sample = ChargerConnected
	default:
		b.Charge.Sample = logic.PowerSample{}
	}
}

// SetTemperature fixes the temperature sensor at c.
func (b *Board) SetTemperature(c float64) {
	b.Temp.Values = []float64{c}
	b.Temp.Reads = 0
}

// SetTilted sets the tilt switch.
func (b *Board) SetTilted(tilted bool) {
	b.Pins.SetInput(gpio.Tilt, tilted)
}

// SetNetwork makes uploads succeed or fail at login.
func (b *Board) SetNetwork(up bool) {
	if up {
		b.API.LoginErr = nil
		return
	}
	b.API.LoginErr = errNetworkDown
}

var errNetworkDown = errors.New("simulated network outage")
