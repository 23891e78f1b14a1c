package operations

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/decapage/internal/domain/metrics"
	"github.com/mamadbah2/decapage/internal/domain/models"
	"github.com/mamadbah2/decapage/internal/repository/mongodb"
)

// importNamespace seeds the IDs of imported rows.
var importNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("decapage/sheet-import"))

// RangeReader reads a rectangular range of cells.
type RangeReader interface {
	ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error)
}

// Import columns: Fiche | Date | Machine | Opérateur | Heures marche |
// Heures arrêt | Profondeur | Nombre trous | Longueur | Largeur
const (
	colFiche = iota
	colDate
	colMachine
	colOperator
	colOperatingHours
	colDowntime
	colDepth
	colHoleCount
	colLength
	colWidth
)

// ImportResult summarizes a sheet import.
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// ImportFromSheet backfills operations logged in a spreadsheet. Rows without
// a fiche, a machine or a readable date are skipped; numeric cells are read
// defensively, so blank or garbled cells count as 0. A row's ID derives from
// its fiche, date and machine, so rows already imported are skipped and the
// import can be rerun.
func (s *Service) ImportFromSheet(ctx context.Context, reader RangeReader, sheetRange string) (ImportResult, error) {
	var result ImportResult
	if reader == nil {
		return result, fmt.Errorf("no sheet source configured")
	}

	rows, err := reader.ReadRange(ctx, sheetRange)
	if err != nil {
		return result, fmt.Errorf("load import range: %w", err)
	}

	for i, row := range rows {
		op, ok := s.operationFromRow(row)
		if !ok {
			s.logger.Debug("skip import row", zap.Int("row", i), zap.Any("values", row))
			result.Skipped++
			continue
		}

		err := s.repo.InsertOperation(ctx, op)
		if errors.Is(err, mongodb.ErrDuplicate) {
			s.logger.Debug("skip imported row", zap.Int("row", i), zap.String("id", op.ID))
			result.Skipped++
			continue
		}
		if err != nil {
			return result, fmt.Errorf("import row %d: %w", i, err)
		}
		result.Imported++
	}

	s.logger.Info("sheet import finished",
		zap.String("range", sheetRange),
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped))

	return result, nil
}

func (s *Service) operationFromRow(row []interface{}) (models.Operation, bool) {
	fiche := cellString(row, colFiche)
	machine := cellString(row, colMachine)
	if fiche == "" || machine == "" {
		return models.Operation{}, false
	}

	date, err := parseDate(cellString(row, colDate))
	if err != nil {
		return models.Operation{}, false
	}

	input := metrics.Input{
		OperatingHours: cellNumber(row, colOperatingHours),
		Downtime:       cellNumber(row, colDowntime),
		Depth:          cellNumber(row, colDepth),
		HoleCount:      math.Trunc(cellNumber(row, colHoleCount)),
		Length:         cellNumber(row, colLength),
		Width:          cellNumber(row, colWidth),
	}

	return models.Operation{
		ID:        importID(fiche, date, machine),
		Fiche:     fiche,
		Machine:   machine,
		Operator:  cellString(row, colOperator),
		Date:      date,
		Input:     input,
		Metrics:   models.NewStoredMetrics(metrics.Compute(input)),
		CreatedAt: s.now().UTC(),
	}, true
}

func importID(fiche string, date time.Time, machine string) string {
	key := strings.Join([]string{fiche, date.Format(dateLayout), machine}, "\x00")
	return uuid.NewSHA1(importNamespace, []byte(key)).String()
}

func cellString(row []interface{}, idx int) string {
	if idx >= len(row) || row[idx] == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(row[idx]))
}

func cellNumber(row []interface{}, idx int) float64 {
	if idx >= len(row) {
		return 0
	}
	return metrics.ParseNumber(row[idx])
}

func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if len(value) > 10 {
		value = value[:10]
	}
	if t, err := time.Parse(dateLayout, value); err == nil {
		return t, nil
	}
	return time.Parse("02/01/2006", value)
}

// SheetImporter binds a sheet source and range to the service.
type SheetImporter struct {
	svc        *Service
	reader     RangeReader
	sheetRange string
}

// NewSheetImporter constructs an importer reading sheetRange from reader.
func NewSheetImporter(svc *Service, reader RangeReader, sheetRange string) *SheetImporter {
	return &SheetImporter{svc: svc, reader: reader, sheetRange: sheetRange}
}

// Import runs the backfill.
func (i *SheetImporter) Import(ctx context.Context) (ImportResult, error) {
	return i.svc.ImportFromSheet(ctx, i.reader, i.sheetRange)
}
