package display

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/devices/v3/waveshare2in13v4"
	"periph.io/x/host/v3"

	"github.com/sweeney/battery-controller/internal/clock"
	"github.com/sweeney/battery-controller/internal/gpio"
)

const (
	lineHeight   = 13
	marginLeft   = 1
	enableSettle = 500 * time.Millisecond
)

// epd is the subset of the waveshare driver used here.
type epd interface {
	Init() error
	Clear(c color.Color) error
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
	Bounds() image.Rectangle
	Sleep() error
}

// EPaper is a Waveshare 2.13" e-paper panel behind an active-low enable line.
type EPaper struct {
	dev   epd
	port  spi.PortCloser
	pins  gpio.Pins
	clock clock.Clock
}

// OpenEPaper opens the SPI port by name ("" picks the first) and the panel on it.
func OpenEPaper(spiName string, pins gpio.Pins, clk clock.Clock) (*EPaper, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init host: %w", err)
	}
	port, err := spireg.Open(spiName)
	if err != nil {
		return nil, fmt.Errorf("open spi %q: %w", spiName, err)
	}
	opts := waveshare2in13v4.EPD2in13v4
	dev, err := waveshare2in13v4.NewHat(port, &opts)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("open e-paper: %w", err)
	}
	return &EPaper{dev: dev, port: port, pins: pins, clock: clk}, nil
}

// Show enables the panel, redraws it with lines and puts it to sleep.
func (e *EPaper) Show(lines []string) error {
	if err := e.pins.Set(gpio.DisplayEnable, false); err != nil {
		return fmt.Errorf("enable display: %w", err)
	}
	e.clock.Sleep(enableSettle)
	if err := e.dev.Init(); err != nil {
		return fmt.Errorf("init e-paper: %w", err)
	}
	bounds := e.dev.Bounds()
	img := image1bit.NewVerticalLSB(bounds)
	draw.Draw(img, bounds, Render(lines, bounds), image.Point{}, draw.Src)
	if err := e.dev.Draw(bounds, img, image.Point{}); err != nil {
		return fmt.Errorf("draw e-paper: %w", err)
	}
	if err := e.dev.Sleep(); err != nil {
		return fmt.Errorf("sleep e-paper: %w", err)
	}
	return nil
}

// Close releases the SPI port.
func (e *EPaper) Close() error {
	return e.port.Close()
}

// Render draws lines top to bottom in black on white. Lines past the bottom
// edge are dropped.
func Render(lines []string, bounds image.Rectangle) *image.Gray {
	img := image.NewGray(bounds)
	draw.Draw(img, bounds, image.White, image.Point{}, draw.Src)
	d := font.Drawer{
		Dst:  img,
		Src:  image.Black,
		Face: basicfont.Face7x13,
	}
	for i, line := range lines {
		baseline := bounds.Min.Y + (i+1)*lineHeight - 3
		if baseline > bounds.Max.Y {
			break
		}
		d.Dot = fixed.P(bounds.Min.X+marginLeft, baseline)
		d.DrawString(line)
	}
	return img
}
