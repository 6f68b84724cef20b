package display

import (
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/battery-controller/internal/logic"
)

func sampleReading() logic.Reading {
	return logic.Reading{
		BatteryID:   7,
		Date:        "2026-03-01",
		Time:        "09:15:00",
		Charge:      logic.PowerSample{Current: 1.5, Voltage: 18.25, Power: 27.4},
		USB:         logic.PowerSample{Current: 0.512, Voltage: 5.1, Power: 2.61},
		Temperature: 24.5,
		Outputs:     logic.Outputs{USB: true, Fan: true},
		Battery:     logic.Battery{StateOfCharge: 76.3, MinutesRemaining: 185},
	}
}

func TestNextWraps(t *testing.T) {
	assert.Equal(t, 1, Next(0))
	assert.Equal(t, 2, Next(1))
	assert.Equal(t, 0, Next(2))
}

func TestTimeRemaining(t *testing.T) {
	tests := []struct {
		minutes float64
		want    string
	}{
		{45, "45 minutes"},
		{60, "1 hours 0 minutes"},
		{185, "3 hours 5 minutes"},
		{1439, "23 hours 59 minutes"},
		{1440, "1 days 0 hours"},
		{3000, "2 days 2 hours"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TimeRemaining(tt.minutes), "minutes=%v", tt.minutes)
	}
}

func TestSummaryScreenOnBattery(t *testing.T) {
	lines := Screen(0, sampleReading())

	assert.Equal(t, []string{
		"", "", " Charge remaining:", "", "   76.3%",
		"", " Time remaining:", "", "   3 hours 5 minutes",
		"", "USB enabled", "   5.10V 0.512A 2.61W",
	}, lines)
}

func TestSummaryScreenCharging(t *testing.T) {
	r := sampleReading()
	r.ChargerConnected = true
	r.Charging = true
	r.Outputs = logic.Outputs{Inverter: true}

	lines := Screen(0, r)

	assert.NotContains(t, lines, " Time remaining:")
	assert.Contains(t, lines, "Charging")
	assert.Contains(t, lines, "   18.25V 1.5A 27.4W")
	assert.Contains(t, lines, "230V AC enabled")
	assert.NotContains(t, lines, "USB enabled")
}

func TestSummaryScreenUnknownTimeRemaining(t *testing.T) {
	r := sampleReading()
	r.Battery.MinutesRemaining = -1

	assert.NotContains(t, Screen(0, r), " Time remaining:")
}

func TestDetailScreens(t *testing.T) {
	r := sampleReading()
	r.Errors = r.Errors.With(logic.ErrGPS, true)

	status := Screen(1, r)
	require.Len(t, status, len(statusKeys))
	assert.Equal(t, "id: 7", status[0])
	assert.Equal(t, "t: 24.5", status[3])
	assert.Equal(t, "err: G", status[5])
	assert.Equal(t, "eu: 1", status[6])

	inputs := Screen(2, r)
	require.Len(t, inputs, len(inputKeys))
	assert.Equal(t, "ci: 1.5", inputs[0])
	assert.Equal(t, "lat: 0.0", inputs[6])
}

func TestRenderDrawsText(t *testing.T) {
	bounds := image.Rect(0, 0, 122, 250)

	blank := Render(nil, bounds)
	text := Render([]string{"USB enabled"}, bounds)

	assert.Zero(t, darkPixels(blank))
	assert.Positive(t, darkPixels(text))
}

func TestRenderDropsOverflow(t *testing.T) {
	bounds := image.Rect(0, 0, 122, 26)
	lines := []string{"a", "b", "c", "d"}

	img := Render(lines, bounds)

	assert.Equal(t, bounds, img.Bounds())
}

func darkPixels(img *image.Gray) int {
	n := 0
	for _, p := range img.Pix {
		if p < 128 {
			n++
		}
	}
	return n
}

func TestFakePanel(t *testing.T) {
	p := &FakePanel{}
	require.NoError(t, p.Show([]string{"a"}))
	assert.Equal(t, []string{"a"}, p.Last())

	p.Err = errors.New("spi")
	assert.Error(t, p.Show([]string{"b"}))
	assert.Len(t, p.Shown, 1)
}

func TestMissingPanel(t *testing.T) {
	assert.ErrorIs(t, Missing{}.Show(nil), ErrNoPanel)
}
