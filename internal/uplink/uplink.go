// Package uplink owns the cellular modem and its PPP session and uploads
// readings to the cloud API. Every wait is bounded by a timeout or an
// iteration cap so a stuck modem cannot hang the service loop.
package uplink

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/sweeney/battery-controller/internal/clock"
)

const (
	// ModemStartupTime is how long the modem needs after power-on.
	ModemStartupTime = 40 * time.Second

	// MaxWarmupIterations caps the 1 s polls waiting for the modem.
	MaxWarmupIterations = 120

	// MaxUARTFlushIterations caps the stale-input drain.
	MaxUARTFlushIterations = 10

	// MaxConsecutiveFailures triggers a modem power cycle.
	MaxConsecutiveFailures = 5

	// HTTPTimeout bounds each API request.
	HTTPTimeout = 30 * time.Second

	warmupPoll    = time.Second
	pppRetryDelay = 2 * time.Second
	authDelay     = 2 * time.Second
)

var (
	// ErrModemNotReady is returned when the modem is still warming up after MaxWarmupIterations polls.
	ErrModemNotReady = errors.New("modem not ready")

	// ErrNoToken is returned when the auth response carries no access token.
	ErrNoToken = errors.New("no access token in auth response")
)

// State is the uplink's position in one upload attempt.
type State int

const (
	StateModemOff State = iota
	StateModemWarming
	StatePPPStarting
	StateAuthenticating
	StateUploading
	StateIdle
)

func (s State) String() string {
	switch s {
	case StateModemOff:
		return "modem-off"
	case StateModemWarming:
		return "modem-warming"
	case StatePPPStarting:
		return "ppp-starting"
	case StateAuthenticating:
		return "authenticating"
	case StateUploading:
		return "uploading"
	case StateIdle:
		return "idle"
	}
	return "unknown"
}

// Modem is the cellular modem's power control and serial line.
type Modem interface {
	PowerOn() error
	PowerOff() error
	// Reset power-cycles the modem.
	Reset() error
	// Flush discards stale serial input, reading at most MaxUARTFlushIterations
	// times. It returns the number of reads that returned data.
	Flush() (int, error)
}

// Session is a PPP data session over the modem.
type Session interface {
	Start(ctx context.Context) error
	// Abort tears down a session whose Start failed.
	Abort() error
	Stop() error
}

// API is the cloud ingestion endpoint.
type API interface {
	Login(ctx context.Context) (string, error)
	Upload(ctx context.Context, token string, body []byte) error
}

// Feeder is fed before and after every slow step. watchdog.Watchdog satisfies it.
type Feeder interface {
	Feed()
}

// Uplink runs upload attempts and tracks their health.
type Uplink struct {
	modem  Modem
	ppp    Session
	api    API
	clock  clock.Clock
	wd     Feeder
	logger *log.Logger

	state       State
	readyAt     time.Time
	failed      bool
	consecutive int
	lastSuccess time.Time
	resets      int
}

// New creates an uplink with the modem off.
func New(modem Modem, ppp Session, api API, clk clock.Clock, wd Feeder, logger *log.Logger) *Uplink {
	return &Uplink{
		modem:  modem,
		ppp:    ppp,
		api:    api,
		clock:  clk,
		wd:     wd,
		logger: logger,
		state:  StateModemOff,
	}
}

// PowerOn switches the modem on and arms the warm-up deadline.
func (u *Uplink) PowerOn() {
	if err := u.modem.PowerOn(); err != nil {
		u.logger.Error("modem power on failed", "err", err)
		u.failed = true
		return
	}
	u.readyAt = u.clock.Now().Add(ModemStartupTime)
	u.state = StateModemWarming
	u.logger.Info("modem starting", "ready_at", u.readyAt.Format(time.TimeOnly))
}

// PowerOff switches the modem off.
func (u *Uplink) PowerOff() {
	if err := u.modem.PowerOff(); err != nil {
		u.logger.Error("modem power off failed", "err", err)
	}
	u.state = StateModemOff
}

// LogToInternet makes one upload attempt. build is called after
// authentication so the body reflects the latest error flags. The PPP
// session is stopped on the way out if and only if it was started.
func (u *Uplink) LogToInternet(ctx context.Context, build func() []byte) error {
	pppStarted := false
	defer func() {
		if pppStarted {
			if err := u.ppp.Stop(); err != nil {
				u.logger.Error("ppp stop failed", "err", err)
				u.failed = true
			}
		}
		u.state = StateIdle
	}()

	err := u.attempt(ctx, build, &pppStarted)
	if err != nil {
		u.failed = true
		u.consecutive++
		u.logger.Error("internet logging failed", "consecutive", u.consecutive, "err", err)
		return err
	}
	u.failed = false
	u.consecutive = 0
	u.lastSuccess = u.clock.Now()
	u.logger.Info("internet logging ok")
	return nil
}

func (u *Uplink) attempt(ctx context.Context, build func() []byte, pppStarted *bool) error {
	u.wd.Feed()
	u.state = StateModemWarming
	if err := u.waitReady(); err != nil {
		return err
	}

	n, err := u.modem.Flush()
	if err != nil {
		return fmt.Errorf("flush uart: %w", err)
	}
	if n >= MaxUARTFlushIterations {
		u.logger.Warn("uart flush hit iteration cap, continuing", "iterations", n)
	}
	u.wd.Feed()

	u.state = StatePPPStarting
	if err := u.startPPP(ctx); err != nil {
		return err
	}
	*pppStarted = true
	u.wd.Feed()

	u.state = StateAuthenticating
	u.clock.Sleep(authDelay)
	token, err := u.login(ctx)
	if err != nil {
		return err
	}
	u.wd.Feed()

	u.state = StateUploading
	body := build()
	u.wd.Feed()
	if err := u.upload(ctx, token, body); err != nil {
		return err
	}
	u.wd.Feed()
	return nil
}

func (u *Uplink) waitReady() error {
	for i := 0; u.clock.Now().Before(u.readyAt); i++ {
		if i >= MaxWarmupIterations {
			return ErrModemNotReady
		}
		u.logger.Debug("waiting for modem", "seconds", i)
		u.clock.Sleep(warmupPoll)
		u.wd.Feed()
	}
	return nil
}

func (u *Uplink) startPPP(ctx context.Context) error {
	err := u.ppp.Start(ctx)
	if err == nil {
		return nil
	}
	u.logger.Warn("ppp start failed, retrying once", "err", err)
	u.wd.Feed()
	if err := u.ppp.Abort(); err != nil {
		u.logger.Debug("ppp abort failed", "err", err)
	}
	u.wd.Feed()
	u.clock.Sleep(pppRetryDelay)
	u.wd.Feed()
	if err := u.ppp.Start(ctx); err != nil {
		return fmt.Errorf("start ppp: %w", err)
	}
	return nil
}

func (u *Uplink) login(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, HTTPTimeout)
	defer cancel()
	token, err := u.api.Login(ctx)
	if err != nil {
		return "", fmt.Errorf("get token: %w", err)
	}
	return token, nil
}

func (u *Uplink) upload(ctx context.Context, token string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, HTTPTimeout)
	defer cancel()
	if err := u.api.Upload(ctx, token, body); err != nil {
		return fmt.Errorf("send data: %w", err)
	}
	return nil
}

// RecoverIfStuck power-cycles the modem once consecutive failures reach
// MaxConsecutiveFailures, re-arms the warm-up deadline and zeroes the count.
// It reports whether a reset was done.
func (u *Uplink) RecoverIfStuck() bool {
	if u.consecutive < MaxConsecutiveFailures {
		return false
	}
	u.logger.Error("resetting modem", "consecutive", u.consecutive)
	u.wd.Feed()
	if err := u.modem.Reset(); err != nil {
		u.logger.Error("modem reset failed", "err", err)
	}
	u.wd.Feed()
	u.readyAt = u.clock.Now().Add(ModemStartupTime)
	u.state = StateModemWarming
	u.consecutive = 0
	u.resets++
	return true
}

// State returns the current state.
func (u *Uplink) State() State { return u.state }

// Failed reports whether the last attempt failed.
func (u *Uplink) Failed() bool { return u.failed }

// Consecutive returns failed attempts since the last success or reset.
func (u *Uplink) Consecutive() int { return u.consecutive }

// LastSuccess returns the time of the last successful upload.
func (u *Uplink) LastSuccess() time.Time { return u.lastSuccess }

// ReadyAt returns the modem warm-up deadline.
func (u *Uplink) ReadyAt() time.Time { return u.readyAt }

// Resets returns how many times the modem has been power-cycled.
func (u *Uplink) Resets() int { return u.resets }
