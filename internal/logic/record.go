package logic

import (
	"strconv"
	"strings"
)

// Keys is the canonical field order shared by the CSV log, the upload
// body and the info screens.
var Keys = []string{
	"id", "d", "tm",
	"ci", "cv", "cp",
	"ui", "uv", "up",
	"t",
	"eu", "ec", "ef", "ei",
	"ts",
	"v", "i", "p", "soc", "tr", "cc", "nc", "tcc",
	"lat", "lon", "alt", "gf", "gs", "gd", "gt",
	"err",
}

// Field is one key/value pair of a record. Value is an int, float64 or string.
type Field struct {
	Key   string
	Value any
}

// Fields is an ordered record.
type Fields []Field

// Record converts a reading into its canonical ordered fields.
// Booleans are emitted as 0/1.
func Record(r Reading) Fields {
	return Fields{
		{"id", r.BatteryID},
		{"d", r.Date},
		{"tm", r.Time},
		{"ci", r.Charge.Current},
		{"cv", r.Charge.Voltage},
		{"cp", r.Charge.Power},
		{"ui", r.USB.Current},
		{"uv", r.USB.Voltage},
		{"up", r.USB.Power},
		{"t", r.Temperature},
		{"eu", boolToInt(r.Outputs.USB)},
		{"ec", boolToInt(r.Outputs.Charge)},
		{"ef", boolToInt(r.Outputs.Fan)},
		{"ei", boolToInt(r.Outputs.Inverter)},
		{"ts", boolToInt(r.Tilted)},
		{"v", r.Battery.Voltage},
		{"i", r.Battery.Current},
		{"p", r.Battery.Power},
		{"soc", r.Battery.StateOfCharge},
		{"tr", r.Battery.MinutesRemaining},
		{"cc", r.Battery.ChargeConsumed},
		{"nc", r.Battery.ChargeCycles},
		{"tcc", r.Battery.TotalChargeConsumed},
		{"lat", r.GPS.Latitude},
		{"lon", r.GPS.Longitude},
		{"alt", r.GPS.Altitude},
		{"gf", r.GPS.FixQuality},
		{"gs", r.GPS.Satellites},
		{"gd", r.GPS.Date},
		{"gt", r.GPS.Time},
		{"err", r.Errors.String()},
	}
}

// Get returns the value stored under key.
func (f Fields) Get(key string) (any, bool) {
	for _, kv := range f {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return nil, false
}

// Text returns the formatted value stored under key, or "" if absent.
func (f Fields) Text(key string) string {
	v, ok := f.Get(key)
	if !ok {
		return ""
	}
	return FormatValue(v)
}

// Float returns the numeric value stored under key, or 0 if absent or not numeric.
func (f Fields) Float(key string) float64 {
	v, _ := f.Get(key)
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	}
	return 0
}

// FormatValue renders a field value the way it appears in the CSV log.
// Floats always carry a decimal point so integral values read as 12.0.
func FormatValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case float64:
		s := strconv.FormatFloat(x, 'f', -1, 64)
		if !strings.ContainsAny(s, ".eEnN") {
			s += ".0"
		}
		return s
	case bool:
		return strconv.Itoa(boolToInt(x))
	}
	return ""
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
