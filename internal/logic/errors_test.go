package logic

import "testing"

func TestErrorFlagsOrder(t *testing.T) {
	var f ErrorFlags
	f = f.With(ErrDisplay, true).With(ErrGPS, true).With(ErrRTC, true).With(ErrSDCard, true)

	if got := f.String(); got != "RGSD" {
		t.Errorf("got %q, want %q", got, "RGSD")
	}
}

func TestErrorFlagsEachCodeOnce(t *testing.T) {
	var f ErrorFlags
	f = f.With(ErrGPS, true).With(ErrGPS, true)

	if got := f.String(); got != "G" {
		t.Errorf("got %q, want %q", got, "G")
	}
}

func TestErrorFlagsClear(t *testing.T) {
	f := ErrorFlags(0).With(ErrCellular, true).With(ErrChargeSensor, true)
	f = f.With(ErrCellular, false)

	if f.Has(ErrCellular) {
		t.Error("L should be cleared")
	}
	if !f.Has(ErrChargeSensor) {
		t.Error("C should remain")
	}
	if got := f.String(); got != "C" {
		t.Errorf("got %q, want %q", got, "C")
	}
}

func TestErrorFlagsAllCodes(t *testing.T) {
	var f ErrorFlags
	for _, c := range []ErrorCode{ErrDisplay, ErrCellular, ErrSDCard, ErrGPS, ErrFuelGauge, ErrTemperature, ErrUSBSensor, ErrChargeSensor, ErrRTC} {
		f = f.With(c, true)
	}
	if got := f.String(); got != "RCUTBGSLD" {
		t.Errorf("got %q, want %q", got, "RCUTBGSLD")
	}
}

func TestErrorFlagsUnion(t *testing.T) {
	sensors := ErrorFlags(0).With(ErrTemperature, true)
	state := ErrorFlags(0).With(ErrSDCard, true)

	if got := sensors.Union(state).String(); got != "TS" {
		t.Errorf("got %q, want %q", got, "TS")
	}
}
