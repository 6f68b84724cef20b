package watchdog

import "github.com/charmbracelet/log"

// OpenOrNop opens the device at path. When it cannot be opened, a warning is
// logged and a Nop is returned so boot continues.
func OpenOrNop(path string, logger *log.Logger) Watchdog {
	if path == "" {
		logger.Info("watchdog disabled")
		return Nop{}
	}
	d, err := Open(path, DefaultTimeout, logger)
	if err != nil {
		logger.Warn("watchdog unavailable, continuing without it", "err", err)
		return Nop{}
	}
	logger.Info("watchdog armed", "device", path, "timeout", DefaultTimeout)
	return d
}
