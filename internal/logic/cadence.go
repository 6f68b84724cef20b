package logic

import "time"

const (
	// ActiveLogInterval is the logging cadence while any output is active.
	ActiveLogInterval = 5 * time.Minute

	// IdleLogInterval is the logging cadence while fully idle.
	IdleLogInterval = time.Hour
)

// NextFiveMinutes returns the first 5-minute mark strictly after t, with
// seconds zeroed. A time exactly on a mark advances by five minutes.
func NextFiveMinutes(t time.Time) time.Time {
	m := 5 * (t.Minute()/5 + 1)
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), m, 0, 0, t.Location())
}

// NextHour returns the first hour mark strictly after t.
func NextHour(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour()+1, 0, 0, 0, t.Location())
}

// NextLogTime returns when the next log is due after last. Active devices
// log on 5-minute marks, idle ones on the hour.
func NextLogTime(last time.Time, active bool) time.Time {
	if active {
		return NextFiveMinutes(last)
	}
	return NextHour(last)
}

// LogDue reports whether now is on or after the next log time.
func LogDue(now, last time.Time, active bool) bool {
	return !now.Before(NextLogTime(last, active))
}

// IsActive reports whether anything is drawing or receiving power: charging
// with charge enabled, USB on, or inverter on.
func IsActive(o Outputs, charging bool) bool {
	return (o.Charge && charging) || o.USB || o.Inverter
}
