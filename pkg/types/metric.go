package types

import "encoding/json"

// Metric is the result of a ratio-style aggregate. Valid is false when the
// value is undefined (division by zero, no prior period), which callers
// must be able to distinguish from a real zero. An undefined Metric
// JSON-marshals to null.
type Metric struct {
	Float64 float64
	Valid   bool
}

// Defined returns a Metric carrying the given value.
func Defined(v float64) Metric {
	return Metric{Float64: v, Valid: true}
}

// Undefined returns the undefined Metric marker.
func Undefined() Metric {
	return Metric{}
}

// MarshalJSON encodes undefined metrics as null, never as zero.
func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(m.Float64)
}

// UnmarshalJSON decodes null as the undefined marker.
func (m *Metric) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = Metric{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*m = Metric{Float64: v, Valid: true}
	return nil
}
