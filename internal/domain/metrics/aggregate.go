package metrics

// Record pairs the figures of one operation with its computed metrics.
type Record struct {
	Input  Input
	Result Result
}

// NewRecord computes the metrics for in.
func NewRecord(in Input) Record {
	return Record{Input: in, Result: Compute(in)}
}

// Summary aggregates records by plain summation and averaging.
type Summary struct {
	Count                int     `json:"count" bson:"count"`
	TotalOperatingHours  float64 `json:"totalOperatingHours" bson:"total_operating_hours"`
	TotalDowntime        float64 `json:"totalDowntime" bson:"total_downtime"`
	TotalLineMeters      float64 `json:"totalLineMeters" bson:"total_line_meters"`
	TotalExcavatedVolume float64 `json:"totalExcavatedVolume" bson:"total_excavated_volume"`
	AverageHours         float64 `json:"averageHours" bson:"average_hours"`
	AverageLineMeters    float64 `json:"averageLineMeters" bson:"average_line_meters"`
	AverageYield         float64 `json:"averageYield" bson:"average_yield"`
	Availability         float64 `json:"availability" bson:"availability"`
}

// Aggregate sums the records in order and derives the averages. The overall
// yield and availability are ratios of totals, not means of per-record ratios.
// A total that overflows is reported as 0, like an overflowing product in
// Compute, so no field of the summary is ever NaN or infinite.
func Aggregate(records []Record) Summary {
	var s Summary
	for _, r := range records {
		in := r.Input.normalized()
		s.Count++
		s.TotalOperatingHours += in.OperatingHours
		s.TotalDowntime += in.Downtime
		s.TotalLineMeters += r.Result.LineMeters
		s.TotalExcavatedVolume += r.Result.ExcavatedVolume
	}

	s.TotalOperatingHours = finiteOrZero(s.TotalOperatingHours)
	s.TotalDowntime = finiteOrZero(s.TotalDowntime)
	s.TotalLineMeters = finiteOrZero(s.TotalLineMeters)
	s.TotalExcavatedVolume = finiteOrZero(s.TotalExcavatedVolume)

	n := float64(s.Count)
	s.AverageHours = SafeDiv(s.TotalOperatingHours, n)
	s.AverageLineMeters = SafeDiv(s.TotalLineMeters, n)
	s.AverageYield = SafeDiv(s.TotalLineMeters, s.TotalOperatingHours)
	s.Availability = SafeDiv(s.TotalOperatingHours, s.TotalOperatingHours+s.TotalDowntime)
	return s
}
