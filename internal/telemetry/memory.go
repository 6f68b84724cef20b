package telemetry

import "github.com/sweeney/battery-controller/internal/logic"

// MemoryLog keeps rows in memory. The simulator uses it in place of the SD card.
type MemoryLog struct {
	Rows []logic.Fields
	Err  error
}

func (m *MemoryLog) Log(fields logic.Fields) error {
	if m.Err != nil {
		return m.Err
	}
	m.Rows = append(m.Rows, fields)
	return nil
}
