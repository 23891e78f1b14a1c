package metrics

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Field names used by the entry form and the stored records.
const (
	FieldOperatingHours = "operatingHours"
	FieldDowntime       = "downtime"
	FieldDepth          = "depth"
	FieldHoleCount      = "holeCount"
	FieldLength         = "length"
	FieldWidth          = "width"
)

// Number is a form value that decodes from whatever the client sent.
// Missing, empty or non-numeric payloads decode to 0 without an error.
type Number float64

// UnmarshalJSON accepts JSON numbers, numeric strings and null.
func (n *Number) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		*n = 0
		return nil
	}
	*n = Number(ParseNumber(raw))
	return nil
}

// Float returns the value as a float64.
func (n Number) Float() float64 {
	return float64(n)
}

// ParseNumber normalizes a loosely typed value to a finite float64.
// Anything that cannot be read as a number yields 0.
func ParseNumber(v any) float64 {
	var f float64
	switch t := v.(type) {
	case nil:
		return 0
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int8:
		f = float64(t)
	case int16:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case uint:
		f = float64(t)
	case uint8:
		f = float64(t)
	case uint16:
		f = float64(t)
	case uint32:
		f = float64(t)
	case uint64:
		f = float64(t)
	case Number:
		f = float64(t)
	case json.Number:
		return ParseNumber(t.String())
	case string:
		return parseString(t)
	case fmt.Stringer:
		return parseString(t.String())
	default:
		return 0
	}
	return finiteOrZero(f)
}

func parseString(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	s = strings.ReplaceAll(s, " ", "")
	// Comma decimal separator is common in French-keyed entries.
	if !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return finiteOrZero(f)
}

// ParseInput builds an Input from a field map keyed by the form field names.
// Absent fields read as 0. The hole count is truncated to a whole number.
func ParseInput(fields map[string]any) Input {
	return Input{
		OperatingHours: ParseNumber(fields[FieldOperatingHours]),
		Downtime:       ParseNumber(fields[FieldDowntime]),
		Depth:          ParseNumber(fields[FieldDepth]),
		HoleCount:      math.Trunc(ParseNumber(fields[FieldHoleCount])),
		Length:         ParseNumber(fields[FieldLength]),
		Width:          ParseNumber(fields[FieldWidth]),
	}
}
