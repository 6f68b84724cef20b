// Command battery-sim runs the controller against simulated peripherals and
// reads commands from an interactive prompt.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chzyer/readline"
	"github.com/google/uuid"

	"github.com/sweeney/battery-controller/internal/mqtt"
	"github.com/sweeney/battery-controller/internal/service"
	"github.com/sweeney/battery-controller/internal/sim"
	"github.com/sweeney/battery-controller/internal/status"
	"github.com/sweeney/battery-controller/internal/web"
)

// readlineWriter keeps log lines from tearing the prompt.
type readlineWriter struct {
	rl *readline.Instance
}

func (w *readlineWriter) Write(p []byte) (int, error) {
	if w.rl != nil {
		w.rl.Clean()
	}
	n, err := os.Stderr.Write(p)
	if w.rl != nil {
		w.rl.Refresh()
	}
	return n, err
}

func main() {
	batteryID := flag.Int("id", 1, "Simulated battery ID")
	startAt := flag.String("start", "", "Simulated start time (RFC 3339, default now)")
	httpAddr := flag.String("http", "", "Serve the status page on this address")
	broker := flag.String("broker", "", "Mirror events and records to this MQTT broker")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")

	flag.Parse()

	rw := &readlineWriter{}
	logger := log.NewWithOptions(rw, log.Options{ReportTimestamp: true})
	level, err := log.ParseLevel(*logLevel)
	if err != nil {
		logger.Fatal("bad log level", "level", *logLevel, "err", err)
	}
	logger.SetLevel(level)

	start := time.Now().UTC().Truncate(time.Second)
	if *startAt != "" {
		if start, err = time.Parse(time.RFC3339, *startAt); err != nil {
			logger.Fatal("bad start time", "start", *startAt, "err", err)
		}
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:      "battery> ",
		HistoryFile: historyFile(),
	})
	if err != nil {
		logger.Fatal("readline init failed", "err", err)
	}
	defer rl.Close()
	rw.rl = rl

	if err := run(rl, *batteryID, start, *httpAddr, *broker, logger); err != nil {
		logger.Fatal("fatal", "err", err)
	}
}

func run(rl *readline.Instance, batteryID int, start time.Time, httpAddr, broker string, logger *log.Logger) error {
	bootID := uuid.NewString()
	tracker := status.NewTracker(time.Now(), status.Config{
		BatteryID: batteryID,
		BootID:    bootID,
		TickMs:    sim.DefaultTick.Milliseconds(),
		Broker:    broker,
		HTTPAddr:  httpAddr,
	})
	observers := []service.Observer{tracker}

	var conn mqtt.ConnectionStatus
	if broker != "" {
		mlog := logger.WithPrefix("mqtt")
		pub, err := mqtt.NewRealPublisher(mqtt.Options{
			Broker:   broker,
			ClientID: fmt.Sprintf("battery-sim-%d", batteryID),
			BootID:   bootID,
			Topics:   mqtt.NewTopics(mqtt.DefaultPrefix, batteryID),
		}, mlog)
		if err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
		defer pub.Close()
		conn = pub
		observers = append(observers, mqtt.NewMirror(pub, pub, tracker, bootID, mlog))
	}

	if httpAddr != "" {
		srv := web.New(httpAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("http server error", "err", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		logger.Info("http status server listening", "addr", httpAddr)
	}

	board := sim.NewBoard(batteryID, start)
	svc := board.Boot(logger, service.Observers(observers...))

	c := &console{
		ctx:   context.Background(),
		board: board,
		svc:   svc,
		out:   rl.Stdout(),
		after: func() {
			if conn != nil {
				tracker.SetMQTTConnected(conn.IsConnected())
			}
			tracker.Update(svc.State())
		},
	}
	c.moved()

	fmt.Fprintln(c.out, "Simulated battery ready (type 'help' for commands)")
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return nil
			}
			continue
		}
		if err != nil {
			return nil
		}
		if err := c.exec(strings.TrimSpace(line)); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			fmt.Fprintln(c.out, "error:", err)
		}
	}
}

func historyFile() string {
	cacheDir := os.Getenv("XDG_CACHE_HOME")
	if cacheDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		cacheDir = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(cacheDir, "battery-sim")
	_ = os.MkdirAll(dir, 0750)
	return filepath.Join(dir, "history")
}
