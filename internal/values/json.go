package values

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Non-finite floats have no JSON number form; they are written as strings.
const (
	jsonNaN    = "NaN"
	jsonPosInf = "Infinity"
	jsonNegInf = "-Infinity"
)

// jsonFloat is a float64 that survives JSON encoding when it is NaN or ±Inf.
type jsonFloat float64

// MarshalJSON writes finite values as numbers and the rest as strings.
func (f jsonFloat) MarshalJSON() ([]byte, error) {
	x := float64(f)
	switch {
	case math.IsNaN(x):
		return []byte(`"` + jsonNaN + `"`), nil
	case math.IsInf(x, 1):
		return []byte(`"` + jsonPosInf + `"`), nil
	case math.IsInf(x, -1):
		return []byte(`"` + jsonNegInf + `"`), nil
	}
	return json.Marshal(x)
}

// UnmarshalJSON accepts numbers and the strings written by MarshalJSON.
func (f *jsonFloat) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		switch s {
		case jsonNaN:
			*f = jsonFloat(math.NaN())
		case jsonPosInf:
			*f = jsonFloat(math.Inf(1))
		case jsonNegInf:
			*f = jsonFloat(math.Inf(-1))
		default:
			return fmt.Errorf("invalid float %q", s)
		}
		return nil
	}
	x, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("invalid float %s: %w", b, err)
	}
	*f = jsonFloat(x)
	return nil
}

// MarshalJSON encodes the record with non-finite floats kept as strings.
func (v ValueRecord) MarshalJSON() ([]byte, error) {
	type plain ValueRecord
	return json.Marshal(struct {
		plain
		F jsonFloat `json:"f,omitempty"`
	}{plain: plain(v), F: jsonFloat(v.F)})
}

// UnmarshalJSON decodes the layout produced by MarshalJSON.
func (v *ValueRecord) UnmarshalJSON(b []byte) error {
	type plain ValueRecord
	aux := struct {
		*plain
		F jsonFloat `json:"f,omitempty"`
	}{plain: (*plain)(v)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	v.F = float64(aux.F)
	return nil
}
