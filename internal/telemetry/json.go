package telemetry

import (
	"bytes"
	"encoding/json"
	"math"

	"github.com/sweeney/battery-controller/internal/logic"
)

// JSON renders fields as a JSON object with keys in record order.
// Non-finite floats are written as null.
func JSON(fields logic.Fields) []byte {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, _ := json.Marshal(f.Key)
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(jsonValue(f.Value))
	}
	buf.WriteByte('}')
	return buf.Bytes()
}

func jsonValue(v any) []byte {
	if x, ok := v.(float64); ok && (math.IsNaN(x) || math.IsInf(x, 0)) {
		return []byte("null")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return []byte("null")
	}
	return b
}
