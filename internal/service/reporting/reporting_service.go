package reporting

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/decapage/internal/domain/metrics"
	"github.com/mamadbah2/decapage/internal/domain/models"
)

const (
	dateLayout = "2006-01-02"
	// reportLabelLayout is the French day/month/year layout used in summaries.
	reportLabelLayout = "02/01/2006"
)

// ErrExportDisabled indicates no spreadsheet is configured for export.
var ErrExportDisabled = errors.New("sheet export is not configured")

// OperationLister loads the operations of a period.
type OperationLister interface {
	ListOperations(ctx context.Context, filter models.OperationFilter) ([]models.Operation, error)
}

// ReportStore persists generated reports.
type ReportStore interface {
	SaveReport(ctx context.Context, report models.OperationsReport) error
}

// RowAppender appends rows to a spreadsheet range.
type RowAppender interface {
	AppendRows(ctx context.Context, sheetRange string, rows [][]interface{}) error
}

// Service builds period reports over logged operations.
type Service struct {
	operations OperationLister
	store      ReportStore
	sheet      RowAppender
	sheetRange string
	location   *time.Location
	logger     *zap.Logger
	now        func() time.Time
}

// Option customizes the reporting service.
type Option func(*Service)

// WithSheetExport enables export of report rows to the given sheet range.
func WithSheetExport(sheet RowAppender, sheetRange string) Option {
	return func(s *Service) {
		s.sheet = sheet
		s.sheetRange = sheetRange
	}
}

// WithLocation sets the timezone in which "today" is read for week boundaries.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

// NewService wires a new reporting service instance.
func NewService(operations OperationLister, store ReportStore, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		operations: operations,
		store:      store,
		location:   time.UTC,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Operations loads the operations of [from, to].
func (s *Service) Operations(ctx context.Context, from, to time.Time) ([]models.Operation, error) {
	ops, err := s.operations.ListOperations(ctx, models.OperationFilter{From: from, To: to})
	if err != nil {
		return nil, fmt.Errorf("load operations: %w", err)
	}
	return ops, nil
}

// BuildReport aggregates the operations of [from, to] overall and per machine.
// Every record is recomputed from its inputs.
func (s *Service) BuildReport(ctx context.Context, from, to time.Time) (models.OperationsReport, error) {
	ops, err := s.Operations(ctx, from, to)
	if err != nil {
		return models.OperationsReport{}, err
	}
	return s.aggregate(ops, from, to), nil
}

func (s *Service) aggregate(ops []models.Operation, from, to time.Time) models.OperationsReport {
	all := make([]metrics.Record, 0, len(ops))
	byMachine := make(map[string][]metrics.Record)
	for _, op := range ops {
		record := metrics.NewRecord(op.Input)
		all = append(all, record)
		byMachine[op.Machine] = append(byMachine[op.Machine], record)
	}

	machines := make([]string, 0, len(byMachine))
	for name := range byMachine {
		machines = append(machines, name)
	}
	sort.Strings(machines)

	summaries := make([]models.MachineSummary, 0, len(machines))
	for _, name := range machines {
		summaries = append(summaries, models.MachineSummary{
			Machine: name,
			Summary: metrics.Aggregate(byMachine[name]),
		})
	}

	return models.OperationsReport{
		From:        from,
		To:          to,
		Summary:     metrics.Aggregate(all),
		Machines:    summaries,
		GeneratedAt: s.now().UTC(),
	}
}

// ExportToSheet appends the report's machine rows and a totals row.
func (s *Service) ExportToSheet(ctx context.Context, report models.OperationsReport) error {
	if s.sheet == nil {
		return ErrExportDisabled
	}

	rows := SheetRows(report)
	if err := s.sheet.AppendRows(ctx, s.sheetRange, rows); err != nil {
		return fmt.Errorf("export report to sheet: %w", err)
	}

	s.logger.Info("report exported to sheet", zap.String("range", s.sheetRange), zap.Int("rows", len(rows)))
	return nil
}

// WeekBounds returns the Monday of the week containing now and the end of
// now's day. Days are taken from the service timezone and expressed as UTC
// calendar days, the same form operation dates are stored in.
func (s *Service) WeekBounds(now time.Time) (time.Time, time.Time) {
	today := models.DayOf(now.In(s.location))
	return mondayStart(today), today.Add(24*time.Hour - time.Nanosecond)
}

// GenerateWeeklyReport builds, stores and formats the report of the current week.
func (s *Service) GenerateWeeklyReport(ctx context.Context, now time.Time) (models.OperationsReport, string, error) {
	from, to := s.WeekBounds(now)

	report, err := s.BuildReport(ctx, from, to)
	if err != nil {
		return models.OperationsReport{}, "", err
	}

	if s.store != nil {
		if err := s.store.SaveReport(ctx, report); err != nil {
			return models.OperationsReport{}, "", fmt.Errorf("save weekly report: %w", err)
		}
	}

	s.logger.Info("weekly report generated",
		zap.Time("from", from),
		zap.Time("to", to),
		zap.Int("operations", report.Summary.Count))

	return report, FormatSummary(report), nil
}

// FormatSummary renders the report as a short French text message.
func FormatSummary(report models.OperationsReport) string {
	var b strings.Builder
	period := fmt.Sprintf("%s - %s", report.From.Format(reportLabelLayout), report.To.Format(reportLabelLayout))

	if report.Summary.Count == 0 {
		fmt.Fprintf(&b, "Rapport décapage (%s) : aucune opération enregistrée.", period)
		return b.String()
	}

	sum := report.Summary
	fmt.Fprintf(&b, "Rapport décapage (%s)\n", period)
	fmt.Fprintf(&b, "Opérations : %d\n", sum.Count)
	fmt.Fprintf(&b, "Cycle de travail : %s\n", metrics.FormatWorkCycle(Round2(sum.TotalOperatingHours), Round2(sum.TotalDowntime), metrics.LabelVerbose))
	fmt.Fprintf(&b, "Heures moyennes par opération : %.2f h\n", sum.AverageHours)
	fmt.Fprintf(&b, "Métrage total : %.2f m\n", sum.TotalLineMeters)
	fmt.Fprintf(&b, "Volume décapé : %.2f m³\n", sum.TotalExcavatedVolume)
	fmt.Fprintf(&b, "Rendement : %.2f m/h\n", sum.AverageYield)
	fmt.Fprintf(&b, "Disponibilité : %.2f %%", Percent(sum.Availability))

	for _, m := range report.Machines {
		fmt.Fprintf(&b, "\n- %s : %d op., %.2f m, dispo %.2f %%", m.Machine, m.Summary.Count, m.Summary.TotalLineMeters, Percent(m.Summary.Availability))
	}

	return b.String()
}

// Percent converts a fraction to a percentage for display.
func Percent(fraction float64) float64 {
	return fraction * 100
}

// Round2 rounds to two decimals for display.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func mondayStart(t time.Time) time.Time {
	weekday := int(t.Weekday())
	daysSinceMonday := (weekday + 6) % 7
	start := t.AddDate(0, 0, -daysSinceMonday)
	return time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, t.Location())
}
