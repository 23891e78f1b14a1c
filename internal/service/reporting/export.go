package reporting

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/mamadbah2/decapage/internal/domain/metrics"
	"github.com/mamadbah2/decapage/internal/domain/models"
)

var csvHeader = []string{
	"fiche", "date", "machine", "operateur",
	"heures_marche", "heures_arret", "profondeur", "nombre_trous", "longueur", "largeur",
	"metrage", "rendement", "volume_decape", "disponibilite_pct", "cycle_travail",
}

// WriteCSV writes one row per operation followed by a totals row. Metrics are
// recomputed per record and the totals are sums of those per-record values.
func WriteCSV(w io.Writer, ops []models.Operation) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	records := make([]metrics.Record, 0, len(ops))
	for _, op := range ops {
		record := metrics.NewRecord(op.Input)
		records = append(records, record)

		in, res := record.Input, record.Result
		row := []string{
			op.Fiche,
			op.Date.Format(dateLayout),
			op.Machine,
			op.Operator,
			formatNumber(in.OperatingHours),
			formatNumber(in.Downtime),
			formatNumber(in.Depth),
			formatNumber(in.HoleCount),
			formatNumber(in.Length),
			formatNumber(in.Width),
			formatNumber(res.LineMeters),
			formatNumber(res.YieldRate),
			formatNumber(res.ExcavatedVolume),
			formatNumber(Percent(res.Availability)),
			res.WorkCycleLabel,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %s: %w", op.Fiche, err)
		}
	}

	sum := metrics.Aggregate(records)
	totals := []string{
		"TOTAL", "", "", strconv.Itoa(sum.Count),
		formatNumber(sum.TotalOperatingHours),
		formatNumber(sum.TotalDowntime),
		"", "", "", "",
		formatNumber(sum.TotalLineMeters),
		formatNumber(sum.AverageYield),
		formatNumber(sum.TotalExcavatedVolume),
		formatNumber(Percent(sum.Availability)),
		metrics.FormatWorkCycle(Round2(sum.TotalOperatingHours), Round2(sum.TotalDowntime), metrics.LabelCompact),
	}
	if err := cw.Write(totals); err != nil {
		return fmt.Errorf("write csv totals: %w", err)
	}

	cw.Flush()
	return cw.Error()
}

// SheetRows renders the report as spreadsheet rows: one per machine and a
// totals row. Columns: Du | Au | Machine | Opérations | Heures marche |
// Heures arrêt | Métrage | Volume | Rendement | Disponibilité %
func SheetRows(report models.OperationsReport) [][]interface{} {
	from := report.From.Format(dateLayout)
	to := report.To.Format(dateLayout)

	row := func(label string, s metrics.Summary) []interface{} {
		return []interface{}{
			from, to, label, s.Count,
			Round2(s.TotalOperatingHours),
			Round2(s.TotalDowntime),
			Round2(s.TotalLineMeters),
			Round2(s.TotalExcavatedVolume),
			Round2(s.AverageYield),
			Round2(Percent(s.Availability)),
		}
	}

	rows := make([][]interface{}, 0, len(report.Machines)+1)
	for _, m := range report.Machines {
		rows = append(rows, row(m.Machine, m.Summary))
	}
	rows = append(rows, row("TOTAL", report.Summary))
	return rows
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(Round2(v), 'f', 2, 64)
}
