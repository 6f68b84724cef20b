// Command battery-controller runs the battery pack's control loop: buttons,
// outputs, info screens, SD and cloud logging, and sleep.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/sweeney/battery-controller/internal/clock"
	"github.com/sweeney/battery-controller/internal/config"
	"github.com/sweeney/battery-controller/internal/logic"
	"github.com/sweeney/battery-controller/internal/mqtt"
	"github.com/sweeney/battery-controller/internal/service"
	"github.com/sweeney/battery-controller/internal/status"
	"github.com/sweeney/battery-controller/internal/telemetry"
	"github.com/sweeney/battery-controller/internal/web"
)

func main() {
	configPath := flag.String("config", "/etc/battery-controller/config.yaml", "YAML config file (empty for defaults)")
	envFile := flag.String("env-file", "/etc/battery-controller/battery.env", "env file holding BATTERY_SECRET and MQTT_PASSWORD, loaded if present")
	logLevel := flag.String("log-level", "", "override the configured log level (debug, info, warn, error)")
	printReading := flag.Bool("print-reading", false, "Read every sensor once, print the record and exit")

	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})

	cfg, err := config.Load(*configPath, *envFile)
	if err != nil {
		logger.Fatal("load config", "err", err)
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Fatal("bad log level", "level", cfg.LogLevel, "err", err)
	}
	logger.SetLevel(level)

	if err := run(cfg, *printReading, logger); err != nil {
		logger.Fatal("fatal", "err", err)
	}
}

func run(cfg *config.Config, printReading bool, logger *log.Logger) error {
	clk := clock.Real{}
	hw, cl, err := openHardware(cfg, clk, logger)
	if err != nil {
		return err
	}
	defer cl.closeAll(logger)

	if printReading {
		r := hw.Sensors.ReadAll()
		fmt.Println(string(telemetry.JSON(logic.Record(r))))
		return nil
	}

	bootID := uuid.NewString()
	tracker := status.NewTracker(time.Now(), status.Config{
		BatteryID:  cfg.BatteryID,
		BootID:     bootID,
		TickMs:     cfg.Tick.Milliseconds(),
		Broker:     cfg.MQTT.Broker,
		HTTPAddr:   cfg.HTTP.Addr,
		APIBaseURL: cfg.API.BaseURL,
		SDPath:     cfg.SD.Path,
	})
	observers := []service.Observer{tracker}

	var conn mqtt.ConnectionStatus
	if cfg.MQTT.Broker != "" {
		mlog := logger.WithPrefix("mqtt")
		pub, err := mqtt.NewRealPublisher(mqtt.Options{
			Broker:   cfg.MQTT.Broker,
			ClientID: fmt.Sprintf("battery-%d", cfg.BatteryID),
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
			BootID:   bootID,
			Topics:   mqtt.NewTopics(cfg.MQTT.TopicPrefix, cfg.BatteryID),
		}, mlog)
		if err != nil {
			logger.Warn("mqtt mirror disabled", "err", err)
		} else {
			defer pub.Close()
			conn = pub
			observers = append(observers, mqtt.NewMirror(pub, pub, tracker, bootID, mlog))
		}
	}
	observer := service.Observers(observers...)

	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("http server error", "err", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		logger.Info("http status server listening", "addr", cfg.HTTP.Addr)
	}

	svc := service.New(hw, time.Now(), logger.WithPrefix("service"), observer)
	tracker.Update(svc.State())

	logger.Info("started", "battery_id", cfg.BatteryID, "boot_id", bootID, "tick", cfg.Tick)

	ticker := time.NewTicker(cfg.Tick)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(context.Background(), svc, tracker, observer, conn, time.Now, ticker.C, sigCh, logger)
}

// runLoop ticks svc until a signal arrives. After every tick the tracker is
// given the new state.
func runLoop(ctx context.Context, svc *service.Service, tracker *status.Tracker, observer service.Observer, conn mqtt.ConnectionStatus, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal, logger *log.Logger) error {
	for {
		select {
		case s := <-sig:
			logger.Info("shutting down", "signal", s)
			if tracker != nil {
				if conn != nil {
					tracker.SetMQTTConnected(conn.IsConnected())
				}
				tracker.Update(svc.State())
			}
			observer.Event(service.Event{
				Type:   service.EventShutdown,
				Time:   now(),
				Reason: signalName(s),
			})
			return nil

		case <-tick:
			svc.Tick(ctx, now())
			if tracker != nil {
				tracker.Update(svc.State())
				if conn != nil {
					tracker.SetMQTTConnected(conn.IsConnected())
				}
			}
		}
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}
