package display

import "errors"

// Panel shows lines of text.
type Panel interface {
	Show(lines []string) error
}

// ErrNoPanel is returned by Missing.
var ErrNoPanel = errors.New("display not available")

// Missing stands in for a panel that failed to initialise.
type Missing struct{}

func (Missing) Show([]string) error { return ErrNoPanel }

// FakePanel records every screen shown.
type FakePanel struct {
	Err   error
	Shown [][]string
}

func (p *FakePanel) Show(lines []string) error {
	if p.Err != nil {
		return p.Err
	}
	p.Shown = append(p.Shown, append([]string(nil), lines...))
	return nil
}

// Last returns the most recent screen, or nil.
func (p *FakePanel) Last() []string {
	if len(p.Shown) == 0 {
		return nil
	}
	return p.Shown[len(p.Shown)-1]
}
