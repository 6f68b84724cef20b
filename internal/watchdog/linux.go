//go:build linux

package watchdog

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sys/unix"
)

// Device is the Linux /dev/watchdog driver.
type Device struct {
	mu     sync.Mutex
	f      *os.File
	logger *log.Logger
	failed bool
}

// Open opens the watchdog device and programs its timeout. The device
// starts counting as soon as it is opened.
func Open(path string, timeout time.Duration, logger *log.Logger) (*Device, error) {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("open watchdog %s: %w", path, err)
	}
	secs := int(timeout / time.Second)
	if err := unix.IoctlSetPointerInt(int(f.Fd()), unix.WDIOC_SETTIMEOUT, secs); err != nil {
		logger.Warn("could not set watchdog timeout, using device default", "seconds", secs, "err", err)
	}
	return &Device{f: f, logger: logger}, nil
}

// Feed pets the watchdog. Failures are logged once until a feed succeeds again.
func (d *Device) Feed() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.f == nil {
		return
	}
	if err := unix.IoctlWatchdogKeepalive(int(d.f.Fd())); err != nil {
		if !d.failed {
			d.logger.Error("watchdog keepalive failed", "err", err)
		}
		d.failed = true
		return
	}
	d.failed = false
}

// Close disarms the watchdog with the magic close character.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.f == nil {
		return nil
	}
	_, werr := d.f.Write([]byte("V"))
	cerr := d.f.Close()
	d.f = nil
	if werr != nil {
		return fmt.Errorf("disarm watchdog: %w", werr)
	}
	return cerr
}
