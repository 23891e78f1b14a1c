package models

import (
	"math"
	"strings"
	"time"

	"github.com/mamadbah2/decapage/internal/domain/metrics"
)

// DayOf returns the calendar day of t, read in t's own location, as midnight
// UTC. Operation dates and report periods are compared in this form.
func DayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Operation is a logged décapage operation as stored in MongoDB. Date is a
// calendar day at midnight UTC.
type Operation struct {
	ID        string         `bson:"_id" json:"id"`
	Fiche     string         `bson:"fiche" json:"fiche"`
	Machine   string         `bson:"machine" json:"machine"`
	Operator  string         `bson:"operator,omitempty" json:"operator,omitempty"`
	Site      string         `bson:"site,omitempty" json:"site,omitempty"`
	Date      time.Time      `bson:"date" json:"date"`
	Input     metrics.Input  `bson:"input" json:"input"`
	Metrics   *StoredMetrics `bson:"metrics,omitempty" json:"metrics,omitempty"`
	Notes     string         `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt time.Time      `bson:"created_at" json:"createdAt"`
}

// StoredMetrics is the snapshot of derived metrics persisted at submit time.
type StoredMetrics struct {
	LineMeters      float64 `bson:"line_meters" json:"lineMeters"`
	YieldRate       float64 `bson:"yield_rate" json:"yieldRate"`
	ExcavatedVolume float64 `bson:"excavated_volume" json:"excavatedVolume"`
	Availability    float64 `bson:"availability" json:"availability"`
	WorkCycleLabel  string  `bson:"work_cycle_label" json:"workCycleLabel"`
}

// NewStoredMetrics snapshots a computed result.
func NewStoredMetrics(r metrics.Result) *StoredMetrics {
	return &StoredMetrics{
		LineMeters:      r.LineMeters,
		YieldRate:       r.YieldRate,
		ExcavatedVolume: r.ExcavatedVolume,
		Availability:    r.Availability,
		WorkCycleLabel:  r.WorkCycleLabel,
	}
}

// Result converts the snapshot back to a metrics.Result.
func (m StoredMetrics) Result() metrics.Result {
	return metrics.Result{
		LineMeters:      m.LineMeters,
		YieldRate:       m.YieldRate,
		ExcavatedVolume: m.ExcavatedVolume,
		Availability:    m.Availability,
		WorkCycleLabel:  m.WorkCycleLabel,
	}
}

// OperationForm is the payload of the operation entry form. Numeric fields
// tolerate strings, nulls and garbage.
type OperationForm struct {
	Fiche          string         `json:"fiche"`
	Machine        string         `json:"machine"`
	Operator       string         `json:"operator"`
	Site           string         `json:"site"`
	Date           string         `json:"date"`
	Notes          string         `json:"notes"`
	OperatingHours metrics.Number `json:"operatingHours"`
	Downtime       metrics.Number `json:"downtime"`
	Depth          metrics.Number `json:"depth"`
	HoleCount      metrics.Number `json:"holeCount"`
	Length         metrics.Number `json:"length"`
	Width          metrics.Number `json:"width"`
}

// Input extracts the calculator input from the form.
func (f OperationForm) Input() metrics.Input {
	return metrics.Input{
		OperatingHours: f.OperatingHours.Float(),
		Downtime:       f.Downtime.Float(),
		Depth:          f.Depth.Float(),
		HoleCount:      math.Trunc(f.HoleCount.Float()),
		Length:         f.Length.Float(),
		Width:          f.Width.Float(),
	}
}

// Normalize trims the text fields in place.
func (f *OperationForm) Normalize() {
	f.Fiche = strings.TrimSpace(f.Fiche)
	f.Machine = strings.TrimSpace(f.Machine)
	f.Operator = strings.TrimSpace(f.Operator)
	f.Site = strings.TrimSpace(f.Site)
	f.Date = strings.TrimSpace(f.Date)
	f.Notes = strings.TrimSpace(f.Notes)
}

// OperationFilter narrows operation listings. Zero fields are ignored.
type OperationFilter struct {
	From    time.Time
	To      time.Time
	Machine string
	Limit   int64
}
