package sensors

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
	"tinygo.org/x/drivers"
)

// OpenI2C initialises the host drivers and opens an I²C bus by name
// ("" picks the first bus). The returned bus satisfies drivers.I2C.
func OpenI2C(name string) (i2c.BusCloser, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init host: %w", err)
	}
	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", name, err)
	}
	return bus, nil
}

// errBus records the first transaction error since the last take.
// Some drivers discard bus errors; wrapping their bus lets a read report them.
type errBus struct {
	bus drivers.I2C
	err error
}

func (b *errBus) Tx(addr uint16, w, r []byte) error {
	err := b.bus.Tx(addr, w, r)
	if err != nil && b.err == nil {
		b.err = err
	}
	return err
}

// take returns and clears the recorded error.
func (b *errBus) take() error {
	err := b.err
	b.err = nil
	return err
}
