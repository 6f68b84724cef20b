// Package display renders the three info screens and drives the e-paper panel.
package display

import (
	"fmt"

	"github.com/sweeney/battery-controller/internal/logic"
)

// NumScreens is the number of info screens the Info button cycles through.
const NumScreens = 3

// PleaseWait is shown while a logging cycle runs.
var PleaseWait = []string{"", "  writing to internet", "   - please wait"}

var (
	statusKeys = []string{"id", "d", "tm", "t", "ts", "err", "eu", "ec", "ef", "ei", "v", "i", "p", "soc", "tr", "cc", "nc", "tcc"}
	inputKeys  = []string{"ci", "cv", "cp", "ui", "uv", "up", "lat", "lon", "alt", "gf", "gs", "gd", "gt"}
)

// Next returns the screen after index, wrapping to 0.
func Next(index int) int {
	return (index + 1) % NumScreens
}

// Screen builds the lines of screen index for a reading.
func Screen(index int, r logic.Reading) []string {
	switch index {
	case 1:
		return keyValues(logic.Record(r), statusKeys)
	case 2:
		return keyValues(logic.Record(r), inputKeys)
	}
	return summary(r)
}

func summary(r logic.Reading) []string {
	lines := []string{"", "", " Charge remaining:", "", fmt.Sprintf("   %.1f%%", r.Battery.StateOfCharge)}
	if !r.ChargerConnected && r.Battery.MinutesRemaining != -1 {
		lines = append(lines, "", " Time remaining:", "", "   "+TimeRemaining(r.Battery.MinutesRemaining))
	}
	if r.ChargerConnected && r.Charging {
		lines = append(lines, "", "Charging",
			fmt.Sprintf("   %.2fV %.1fA %.1fW", r.Charge.Voltage, r.Charge.Current, r.Charge.Power))
	}
	if r.Outputs.USB {
		lines = append(lines, "", "USB enabled",
			fmt.Sprintf("   %.2fV %.3fA %.2fW", r.USB.Voltage, r.USB.Current, r.USB.Power))
	}
	if r.Outputs.Inverter {
		lines = append(lines, "", "230V AC enabled")
	}
	return lines
}

// TimeRemaining formats a minutes-remaining estimate as days and hours,
// hours and minutes, or minutes.
func TimeRemaining(minutes float64) string {
	total := int(minutes)
	if days := total / 60 / 24; days > 0 {
		return fmt.Sprintf("%d days %d hours", days, total/60%24)
	}
	if hours := total / 60; hours > 0 {
		return fmt.Sprintf("%d hours %d minutes", hours, total%60)
	}
	return fmt.Sprintf("%d minutes", total%60)
}

func keyValues(f logic.Fields, keys []string) []string {
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+": "+f.Text(k))
	}
	return lines
}
