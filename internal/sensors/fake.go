package sensors

import (
	"time"

	"github.com/sweeney/battery-controller/internal/logic"
)

// FakePower is a scripted power sensor.
type FakePower struct {
	Sample logic.PowerSample
	Err    error
	Reads  int
}

func (f *FakePower) Read() (logic.PowerSample, error) {
	f.Reads++
	if f.Err != nil {
		return logic.PowerSample{}, f.Err
	}
	return f.Sample, nil
}

// FakeTemperature returns successive Values, repeating the last one.
type FakeTemperature struct {
	Values []float64
	Err    error
	Reads  int
}

func (f *FakeTemperature) Temperature() (float64, error) {
	f.Reads++
	if f.Err != nil {
		return 0, f.Err
	}
	if len(f.Values) == 0 {
		return 20, nil
	}
	i := f.Reads - 1
	if i >= len(f.Values) {
		i = len(f.Values) - 1
	}
	return f.Values[i], nil
}

// FakeGPS fails the Update calls whose index is in FailOn, or every call when Err is set.
type FakeGPS struct {
	Current logic.GPSFix
	Err     error
	FailOn  map[int]bool
	Updates int
}

func (f *FakeGPS) Update() error {
	i := f.Updates
	f.Updates++
	if f.Err != nil {
		return f.Err
	}
	if f.FailOn[i] {
		return ErrGPSTimeout
	}
	return nil
}

func (f *FakeGPS) Fix() logic.GPSFix {
	return f.Current
}

// FakeGauge returns successive Batteries, repeating the last one.
type FakeGauge struct {
	Batteries []logic.Battery
	Err       error
	Reads     int
}

func (f *FakeGauge) Read() (logic.Battery, error) {
	f.Reads++
	if f.Err != nil {
		return logic.Battery{}, f.Err
	}
	if len(f.Batteries) == 0 {
		return logic.Battery{}, nil
	}
	i := f.Reads - 1
	if i >= len(f.Batteries) {
		i = len(f.Batteries) - 1
	}
	return f.Batteries[i], nil
}

// FakeRTC is a settable clock with alarm bookkeeping.
type FakeRTC struct {
	Time   time.Time
	NowErr error
	// ClearErrs is consumed one entry per ClearAlarm call.
	ClearErrs  []error
	DisableErr error

	Armed    bool
	Enabled  bool
	Clears   int
	Disables int
}

func (f *FakeRTC) Now() (time.Time, error) {
	if f.NowErr != nil {
		return time.Time{}, f.NowErr
	}
	return f.Time, nil
}

func (f *FakeRTC) ArmHourlyAlarm() error {
	f.Armed = true
	f.Enabled = true
	return nil
}

func (f *FakeRTC) ClearAlarm() error {
	f.Clears++
	if len(f.ClearErrs) > 0 {
		err := f.ClearErrs[0]
		f.ClearErrs = f.ClearErrs[1:]
		return err
	}
	return nil
}

func (f *FakeRTC) DisableAlarm() error {
	f.Disables++
	if f.DisableErr != nil {
		return f.DisableErr
	}
	f.Enabled = false
	return nil
}
