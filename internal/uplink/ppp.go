package uplink

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/exec"
	"time"

	"github.com/charmbracelet/log"

	"github.com/sweeney/battery-controller/internal/clock"
)

const (
	// DefaultPPPConnectTimeout bounds the wait for the PPP interface to come up.
	DefaultPPPConnectTimeout = 60 * time.Second

	pppPoll        = 500 * time.Millisecond
	pppCommandWait = 15 * time.Second
)

// PPPConfig describes how the PPP session is brought up and down.
type PPPConfig struct {
	Start          []string // e.g. pon cellular
	Stop           []string // e.g. poff cellular
	Interface      string   // e.g. ppp0
	ConnectTimeout time.Duration
}

// PPPD runs pppd through the pon/poff helpers and waits for the interface.
type PPPD struct {
	start   []string
	stop    []string
	iface   string
	timeout time.Duration
	clock   clock.Clock
	wd      Feeder
	logger  *log.Logger

	// lookup reports whether the interface is up with an address.
	lookup func(name string) (bool, error)
	// run executes a command.
	run func(ctx context.Context, argv []string) error
}

// NewPPPD creates the session. wd is fed on every interface poll.
func NewPPPD(cfg PPPConfig, clk clock.Clock, wd Feeder, logger *log.Logger) *PPPD {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = DefaultPPPConnectTimeout
	}
	return &PPPD{
		start:   cfg.Start,
		stop:    cfg.Stop,
		iface:   cfg.Interface,
		timeout: timeout,
		clock:   clk,
		wd:      wd,
		logger:  logger,
		lookup:  interfaceUp,
		run:     runCommand,
	}
}

// Start launches pppd and waits until the interface has an address.
func (p *PPPD) Start(ctx context.Context) error {
	if err := p.run(ctx, p.start); err != nil {
		return fmt.Errorf("start ppp: %w", err)
	}
	p.wd.Feed()
	deadline := p.clock.Now().Add(p.timeout)
	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("wait for %s: %w", p.iface, err)
		}
		up, err := p.lookup(p.iface)
		if err != nil {
			p.logger.Debug("interface lookup failed", "iface", p.iface, "err", err)
		}
		if up {
			p.logger.Info("ppp up", "iface", p.iface)
			return nil
		}
		if !p.clock.Now().Before(deadline) {
			return fmt.Errorf("wait for %s: timed out after %s", p.iface, p.timeout)
		}
		p.clock.Sleep(pppPoll)
		p.wd.Feed()
	}
}

// Abort stops a half-started pppd.
func (p *PPPD) Abort() error {
	return p.Stop()
}

// Stop hangs up the session.
func (p *PPPD) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), pppCommandWait)
	defer cancel()
	if err := p.run(ctx, p.stop); err != nil {
		return fmt.Errorf("stop ppp: %w", err)
	}
	return nil
}

func runCommand(ctx context.Context, argv []string) error {
	if len(argv) == 0 {
		return errors.New("empty command")
	}
	ctx, cancel := context.WithTimeout(ctx, pppCommandWait)
	defer cancel()
	out, err := exec.CommandContext(ctx, argv[0], argv[1:]...).CombinedOutput()
	if err != nil {
		if len(out) > 0 {
			return fmt.Errorf("%s: %w: %s", argv[0], err, out)
		}
		return fmt.Errorf("%s: %w", argv[0], err)
	}
	return nil
}

func interfaceUp(name string) (bool, error) {
	ifi, err := net.InterfaceByName(name)
	if err != nil {
		return false, err
	}
	if ifi.Flags&net.FlagUp == 0 {
		return false, nil
	}
	addrs, err := ifi.Addrs()
	if err != nil {
		return false, err
	}
	return len(addrs) > 0, nil
}
