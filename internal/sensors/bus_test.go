package sensors

import (
	"errors"
)

// regBus is an in-memory I²C bus with 8-bit register addressing. A read
// starting at a register returns consecutive register bytes.
type regBus struct {
	regs map[uint16]map[byte]byte
	err  error
	txs  int
}

func newRegBus() *regBus {
	return &regBus{regs: make(map[uint16]map[byte]byte)}
}

func (b *regBus) set(addr uint16, reg byte, data ...byte) {
	if b.regs[addr] == nil {
		b.regs[addr] = make(map[byte]byte)
	}
	for i, v := range data {
		b.regs[addr][reg+byte(i)] = v
	}
}

func (b *regBus) get(addr uint16, reg byte) byte {
	return b.regs[addr][reg]
}

func (b *regBus) Tx(addr uint16, w, r []byte) error {
	b.txs++
	if b.err != nil {
		return b.err
	}
	if _, ok := b.regs[addr]; !ok {
		return errors.New("nack")
	}
	if len(w) == 0 {
		return nil
	}
	reg := w[0]
	if len(w) > 1 {
		b.set(addr, reg, w[1:]...)
	}
	for i := range r {
		r[i] = b.regs[addr][reg+byte(i)]
	}
	return nil
}
