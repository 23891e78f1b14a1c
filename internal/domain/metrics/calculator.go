package metrics

import "math"

// Input holds the raw figures of one décapage operation. The zero value
// stands for "nothing entered yet".
type Input struct {
	OperatingHours float64 `json:"operatingHours" bson:"operating_hours"`
	Downtime       float64 `json:"downtime" bson:"downtime"`
	Depth          float64 `json:"depth" bson:"depth"`
	HoleCount      float64 `json:"holeCount" bson:"hole_count"`
	Length         float64 `json:"length" bson:"length"`
	Width          float64 `json:"width" bson:"width"`
}

// Result is the set of metrics derived from an Input. Values keep full
// precision; rounding belongs to whoever renders them.
type Result struct {
	LineMeters      float64 `json:"lineMeters"`
	YieldRate       float64 `json:"yieldRate"`
	ExcavatedVolume float64 `json:"excavatedVolume"`
	Availability    float64 `json:"availability"`
	WorkCycleLabel  string  `json:"workCycleLabel"`
}

// Compute derives the operation metrics. It never fails: non-finite inputs
// and products are treated as zero and every division goes through SafeDiv.
func Compute(in Input) Result {
	in = in.normalized()

	lineMeters := finiteOrZero(in.Depth * in.HoleCount)

	return Result{
		LineMeters:      lineMeters,
		YieldRate:       SafeDiv(lineMeters, in.OperatingHours),
		ExcavatedVolume: finiteOrZero(in.Length * in.Width * in.Depth),
		Availability:    SafeDiv(in.OperatingHours, in.OperatingHours+in.Downtime),
		WorkCycleLabel:  FormatWorkCycle(in.OperatingHours, in.Downtime, LabelCompact),
	}
}

// SafeDiv returns num/den, or 0 when den is zero or the quotient is not a
// finite number.
func SafeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	q := num / den
	if !isFinite(q) {
		return 0
	}
	return q
}

func (in Input) normalized() Input {
	return Input{
		OperatingHours: finiteOrZero(in.OperatingHours),
		Downtime:       finiteOrZero(in.Downtime),
		Depth:          finiteOrZero(in.Depth),
		HoleCount:      finiteOrZero(in.HoleCount),
		Length:         finiteOrZero(in.Length),
		Width:          finiteOrZero(in.Width),
	}
}

func finiteOrZero(v float64) float64 {
	if !isFinite(v) {
		return 0
	}
	return v
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
