package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/shlex"

	"github.com/sweeney/battery-controller/internal/gpio"
	"github.com/sweeney/battery-controller/internal/service"
	"github.com/sweeney/battery-controller/internal/sim"
	"github.com/sweeney/battery-controller/internal/telemetry"
)

var errQuit = errors.New("quit")

const helpText = `Commands:
  step [n]                       - Run n ticks (default 1)
  run <duration>                 - Run for simulated time, e.g. run 5m
  press <usb|info|inverter>...   - Press and release buttons together
  charger <off|connected|charging>
  temp <celsius>                 - Fix the temperature sensor
  tilt <on|off>                  - Set the tilt switch
  net <up|down>                  - Make uploads succeed or fail
  soc <percent>                  - Set the fuel gauge state of charge
  state                          - Show outputs, logging and modem state
  screen                         - Show the last info screen
  last                           - Show the last logged record
  help                           - Show this help
  quit                           - Exit`

// console applies typed commands to a simulated pack.
type console struct {
	ctx   context.Context
	board *sim.Board
	svc   *service.Service
	out   io.Writer

	// after is called when simulated time has moved.
	after func()
}

var buttonNames = map[string]gpio.Line{
	"usb":      gpio.ButtonUSB,
	"info":     gpio.ButtonInfo,
	"inverter": gpio.ButtonInverter,
}

// exec runs one command line. It returns errQuit when the user asks to leave.
func (c *console) exec(line string) error {
	args, err := shlex.Split(line)
	if err != nil {
		return fmt.Errorf("parse %q: %w", line, err)
	}
	if len(args) == 0 {
		return nil
	}

	switch cmd, args := args[0], args[1:]; cmd {
	case "step":
		n := 1
		if len(args) > 0 {
			if n, err = strconv.Atoi(args[0]); err != nil || n < 1 {
				return fmt.Errorf("step: bad tick count %q", args[0])
			}
		}
		for i := 0; i < n; i++ {
			c.board.Step(c.ctx, c.svc)
		}
		c.moved()

	case "run":
		if len(args) != 1 {
			return errors.New("usage: run <duration>")
		}
		d, err := time.ParseDuration(args[0])
		if err != nil || d <= 0 {
			return fmt.Errorf("run: bad duration %q", args[0])
		}
		n := c.board.Run(c.ctx, c.svc, d)
		c.moved()
		fmt.Fprintf(c.out, "%d ticks, now %s\n", n, c.board.Clock.Now().Format(time.DateTime))

	case "press":
		if len(args) == 0 {
			return errors.New("usage: press <usb|info|inverter>...")
		}
		lines := make([]gpio.Line, 0, len(args))
		for _, a := range args {
			l, ok := buttonNames[a]
			if !ok {
				return fmt.Errorf("press: unknown button %q", a)
			}
			lines = append(lines, l)
		}
		c.board.Press(c.ctx, c.svc, lines...)
		c.moved()

	case "charger":
		if len(args) != 1 {
			return errors.New("usage: charger <off|connected|charging>")
		}
		switch args[0] {
		case "off":
			c.board.SetCharger(false, false)
		case "connected":
			c.board.SetCharger(true, false)
		case "charging":
			c.board.SetCharger(true, true)
		default:
			return fmt.Errorf("charger: unknown state %q", args[0])
		}

	case "temp":
		if len(args) != 1 {
			return errors.New("usage: temp <celsius>")
		}
		v, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("temp: %w", err)
		}
		c.board.SetTemperature(v)

	case "tilt":
		on, err := onOff(args)
		if err != nil {
			return fmt.Errorf("tilt: %w", err)
		}
		c.board.SetTilted(on)

	case "net":
		if len(args) != 1 || (args[0] != "up" && args[0] != "down") {
			return errors.New("usage: net <up|down>")
		}
		c.board.SetNetwork(args[0] == "up")

	case "soc":
		if len(args) != 1 {
			return errors.New("usage: soc <percent>")
		}
		v, err := strconv.ParseFloat(args[0], 64)
		if err != nil || v < 0 || v > 100 {
			return fmt.Errorf("soc: bad percentage %q", args[0])
		}
		for i := range c.board.Gauge.Batteries {
			c.board.Gauge.Batteries[i].StateOfCharge = v
		}

	case "state":
		c.printState()

	case "screen":
		shown := c.board.Panel.Shown
		if len(shown) == 0 {
			fmt.Fprintln(c.out, "(nothing drawn yet)")
			return nil
		}
		for _, l := range shown[len(shown)-1] {
			fmt.Fprintln(c.out, l)
		}

	case "last":
		rows := c.board.SD.Rows
		if len(rows) == 0 {
			fmt.Fprintln(c.out, "(nothing logged yet)")
			return nil
		}
		fmt.Fprintln(c.out, string(telemetry.JSON(rows[len(rows)-1])))

	case "help":
		fmt.Fprintln(c.out, helpText)

	case "quit", "exit":
		return errQuit

	default:
		return fmt.Errorf("unknown command %q (try 'help')", cmd)
	}
	return nil
}

func (c *console) moved() {
	if c.after != nil {
		c.after()
	}
}

func (c *console) printState() {
	st := c.svc.State()
	o := st.Outputs
	fmt.Fprintf(c.out, "time      %s\n", c.board.Clock.Now().Format(time.DateTime))
	fmt.Fprintf(c.out, "outputs   usb=%s inverter=%s charge=%s fan=%s\n", word(o.USB), word(o.Inverter), word(o.Charge), word(o.Fan))
	fmt.Fprintf(c.out, "charger   connected=%s charging=%s\n", word(st.ChargerConnected), word(st.Charging))
	fmt.Fprintf(c.out, "screen    %d\n", st.Screen)
	fmt.Fprintf(c.out, "logs      %d sd=%d uploads=%d\n", st.Logs, len(c.board.SD.Rows), len(c.board.API.Bodies))
	fmt.Fprintf(c.out, "modem     %s resets=%d\n", st.ModemState, st.ModemResets)
	switch {
	case st.Finished:
		fmt.Fprintln(c.out, "power     shut down")
	case st.Sleeping:
		fmt.Fprintln(c.out, "power     asleep")
	default:
		fmt.Fprintln(c.out, "power     awake")
	}
	if st.Logs > 0 {
		fmt.Fprintf(c.out, "errors    %q\n", st.LastReading.Errors.String())
	}
}

func onOff(args []string) (bool, error) {
	if len(args) != 1 {
		return false, errors.New("want on or off")
	}
	switch args[0] {
	case "on":
		return true, nil
	case "off":
		return false, nil
	}
	return false, fmt.Errorf("want on or off, got %q", args[0])
}

func word(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
