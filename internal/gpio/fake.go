package gpio

import "fmt"

// Change records a single Set call on a Fake.
type Change struct {
	Line  Line
	Level bool
}

// Fake is a test double holding line levels in memory.
type Fake struct {
	// Levels holds the current level of each line.
	Levels map[Line]bool

	// Scripts, if set for a line, supplies successive Get results.
	// The last value repeats once the script is exhausted.
	Scripts map[Line][]bool

	// Errors, if set for a line, is returned by Get and Set.
	Errors map[Line]error

	// History records every successful Set in call order.
	History []Change

	// Closed tracks if Close was called.
	Closed bool

	index map[Line]int
}

// NewFake creates a Fake with every output at its power-on level.
func NewFake() *Fake {
	f := &Fake{
		Levels:  make(map[Line]bool),
		Scripts: make(map[Line][]bool),
		Errors:  make(map[Line]error),
		index:   make(map[Line]int),
	}
	for _, l := range Lines() {
		if !l.IsInput() {
			f.Levels[l] = initialLevel(l)
		}
	}
	return f
}

// Get returns the scripted or stored level of a line.
func (f *Fake) Get(l Line) (bool, error) {
	if err := f.Errors[l]; err != nil {
		return false, fmt.Errorf("read %s: %w", l, err)
	}
	if script := f.Scripts[l]; len(script) > 0 {
		i := f.index[l]
		v := script[i]
		if i < len(script)-1 {
			f.index[l] = i + 1
		}
		return v, nil
	}
	return f.Levels[l], nil
}

// Set stores the level and records the change.
func (f *Fake) Set(l Line, level bool) error {
	if err := f.Errors[l]; err != nil {
		return fmt.Errorf("set %s: %w", l, err)
	}
	f.Levels[l] = level
	f.History = append(f.History, Change{Line: l, Level: level})
	return nil
}

// Close marks the fake as closed.
func (f *Fake) Close() error {
	f.Closed = true
	return nil
}

// SetInput sets an input level directly, dropping any script for it.
func (f *Fake) SetInput(l Line, level bool) {
	delete(f.Scripts, l)
	f.Levels[l] = level
}

// ChangesFor returns the recorded levels written to one line.
func (f *Fake) ChangesFor(l Line) []bool {
	var out []bool
	for _, c := range f.History {
		if c.Line == l {
			out = append(out, c.Level)
		}
	}
	return out
}
