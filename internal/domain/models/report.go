package models

import (
	"time"

	"github.com/mamadbah2/decapage/internal/domain/metrics"
)

// OperationsReport is the aggregated view of a period, stored in MongoDB.
type OperationsReport struct {
	From        time.Time        `bson:"from" json:"from"`
	To          time.Time        `bson:"to" json:"to"`
	Summary     metrics.Summary  `bson:"summary" json:"summary"`
	Machines    []MachineSummary `bson:"machines" json:"machines"`
	GeneratedAt time.Time        `bson:"generated_at" json:"generatedAt"`
}

// MachineSummary is the aggregate for a single machine.
type MachineSummary struct {
	Machine string          `bson:"machine" json:"machine"`
	Summary metrics.Summary `bson:"summary" json:"summary"`
}
