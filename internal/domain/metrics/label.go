package metrics

import (
	"fmt"
	"strconv"
)

// LabelStyle selects how the work cycle is rendered.
type LabelStyle int

const (
	// LabelCompact renders "8/2".
	LabelCompact LabelStyle = iota
	// LabelVerbose renders "8h marche / 2h arrêt".
	LabelVerbose
)

// FormatWorkCycle renders operating hours against downtime. Zero values
// produce the zero-state label ("0/0") rather than an empty string.
func FormatWorkCycle(hours, downtime float64, style LabelStyle) string {
	h := formatHours(finiteOrZero(hours))
	d := formatHours(finiteOrZero(downtime))

	if style == LabelVerbose {
		return fmt.Sprintf("%sh marche / %sh arrêt", h, d)
	}
	return h + "/" + d
}

func formatHours(v float64) string {
	if v == 0 {
		// Avoids "-0".
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
