package reporting

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/decapage/internal/domain/metrics"
	"github.com/mamadbah2/decapage/internal/domain/models"
)

type fakeLister struct {
	ops        []models.Operation
	err        error
	lastFilter models.OperationFilter
}

func (f *fakeLister) ListOperations(_ context.Context, filter models.OperationFilter) ([]models.Operation, error) {
	f.lastFilter = filter
	return f.ops, f.err
}

type fakeStore struct {
	saved []models.OperationsReport
	err   error
}

func (f *fakeStore) SaveReport(_ context.Context, report models.OperationsReport) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, report)
	return nil
}

type fakeSheet struct {
	sheetRange string
	rows       [][]interface{}
}

func (f *fakeSheet) AppendRows(_ context.Context, sheetRange string, rows [][]interface{}) error {
	f.sheetRange = sheetRange
	f.rows = append(f.rows, rows...)
	return nil
}

var fixedNow = time.Date(2026, 10, 16, 20, 0, 0, 0, time.UTC) // Friday

func newTestService(lister *fakeLister, store *fakeStore, opts ...Option) *Service {
	svc := NewService(lister, store, nil, opts...)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func sampleOperations() []models.Operation {
	day := func(d int) time.Time { return time.Date(2026, 10, d, 0, 0, 0, 0, time.UTC) }
	return []models.Operation{
		{Fiche: "F-1", Machine: "D85", Date: day(12), Input: metrics.Input{OperatingHours: 10, Downtime: 2, Depth: 1.5, HoleCount: 4, Length: 5, Width: 2}},
		{Fiche: "F-2", Machine: "D65", Date: day(13), Input: metrics.Input{OperatingHours: 20, Depth: 2.5, HoleCount: 8}},
		{Fiche: "F-3", Machine: "D85", Date: day(14), Input: metrics.Input{OperatingHours: 30, Downtime: 8, Depth: 0.75, HoleCount: 11, Length: 3, Width: 3}},
	}
}

func TestBuildReportAggregates(t *testing.T) {
	ops := sampleOperations()
	lister := &fakeLister{ops: ops}
	svc := newTestService(lister, nil)

	from := time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)
	report, err := svc.BuildReport(context.Background(), from, fixedNow)
	require.NoError(t, err)

	var wantLineMeters float64
	for _, op := range ops {
		wantLineMeters += metrics.Compute(op.Input).LineMeters
	}

	assert.Equal(t, from, lister.lastFilter.From)
	assert.Equal(t, fixedNow, lister.lastFilter.To)
	assert.Equal(t, 3, report.Summary.Count)
	assert.Equal(t, 20.0, report.Summary.AverageHours)
	assert.Equal(t, wantLineMeters, report.Summary.TotalLineMeters)
	assert.Equal(t, fixedNow, report.GeneratedAt)

	require.Len(t, report.Machines, 2)
	assert.Equal(t, "D65", report.Machines[0].Machine)
	assert.Equal(t, "D85", report.Machines[1].Machine)
	assert.Equal(t, 2, report.Machines[1].Summary.Count)
	assert.Equal(t, 40.0/50.0, report.Machines[1].Summary.Availability)
}

func TestBuildReportError(t *testing.T) {
	boom := errors.New("mongo down")
	svc := newTestService(&fakeLister{err: boom}, nil)

	_, err := svc.BuildReport(context.Background(), time.Time{}, fixedNow)
	assert.ErrorIs(t, err, boom)
}

func TestGenerateWeeklyReport(t *testing.T) {
	loc, err := time.LoadLocation("Africa/Conakry")
	require.NoError(t, err)

	lister := &fakeLister{ops: sampleOperations()}
	store := &fakeStore{}
	svc := newTestService(lister, store, WithLocation(loc))

	report, text, err := svc.GenerateWeeklyReport(context.Background(), fixedNow)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC), lister.lastFilter.From)
	assert.Equal(t, time.Date(2026, 10, 16, 23, 59, 59, 999999999, time.UTC), lister.lastFilter.To)
	require.Len(t, store.saved, 1)
	assert.Equal(t, report, store.saved[0])

	assert.Contains(t, text, "Rapport décapage (12/10/2026 - 16/10/2026)")
	assert.Contains(t, text, "Opérations : 3")
	assert.Contains(t, text, "Cycle de travail : 60h marche / 10h arrêt")
	assert.Contains(t, text, "Heures moyennes par opération : 20.00 h")
	assert.Contains(t, text, "Disponibilité : 85.71 %")
	assert.Contains(t, text, "- D65 : 1 op.")
}

func TestGenerateWeeklyReportStoreError(t *testing.T) {
	boom := errors.New("write concern")
	svc := newTestService(&fakeLister{}, &fakeStore{err: boom})

	_, _, err := svc.GenerateWeeklyReport(context.Background(), fixedNow)
	assert.ErrorIs(t, err, boom)
}

func TestFormatSummaryEmpty(t *testing.T) {
	report := models.OperationsReport{
		From: time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC),
		To:   fixedNow,
	}
	assert.Equal(t, "Rapport décapage (12/10/2026 - 16/10/2026) : aucune opération enregistrée.", FormatSummary(report))
}

func TestWeekBounds(t *testing.T) {
	svc := newTestService(&fakeLister{}, nil)

	sunday := time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)
	from, to := svc.WeekBounds(sunday)
	assert.Equal(t, time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, 10, 18, 23, 59, 59, 999999999, time.UTC), to)

	monday := time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)
	from, _ = svc.WeekBounds(monday)
	assert.Equal(t, monday, from)
}

func TestWeekBoundsFollowLocalCalendarDays(t *testing.T) {
	inWindow := func(op models.Operation, from, to time.Time) bool {
		return !op.Date.Before(from) && !op.Date.After(to)
	}
	opOn := func(day string) models.Operation {
		d, err := time.Parse(dateLayout, day)
		require.NoError(t, err)
		return models.Operation{Fiche: "F-" + day, Date: d}
	}

	newYork, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	tests := []struct {
		name     string
		loc      *time.Location
		now      time.Time
		wantFrom time.Time
		wantTo   time.Time
		included []string
		excluded []string
	}{
		{
			name:     "monday morning west of utc",
			loc:      newYork,
			now:      time.Date(2026, 10, 12, 15, 0, 0, 0, time.UTC),
			wantFrom: time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC),
			wantTo:   time.Date(2026, 10, 12, 23, 59, 59, 999999999, time.UTC),
			included: []string{"2026-10-12"},
			excluded: []string{"2026-10-11", "2026-10-13"},
		},
		{
			name:     "still sunday locally",
			loc:      newYork,
			now:      time.Date(2026, 10, 12, 2, 0, 0, 0, time.UTC),
			wantFrom: time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC),
			wantTo:   time.Date(2026, 10, 11, 23, 59, 59, 999999999, time.UTC),
			included: []string{"2026-10-05", "2026-10-11"},
			excluded: []string{"2026-10-12"},
		},
		{
			name:     "already tomorrow east of utc",
			loc:      tokyo,
			now:      time.Date(2026, 10, 13, 20, 0, 0, 0, time.UTC),
			wantFrom: time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC),
			wantTo:   time.Date(2026, 10, 14, 23, 59, 59, 999999999, time.UTC),
			included: []string{"2026-10-12", "2026-10-14"},
			excluded: []string{"2026-10-15"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(&fakeLister{}, nil, WithLocation(tt.loc))
			from, to := svc.WeekBounds(tt.now)

			assert.Equal(t, tt.wantFrom, from)
			assert.Equal(t, tt.wantTo, to)
			for _, day := range tt.included {
				assert.True(t, inWindow(opOn(day), from, to), day)
			}
			for _, day := range tt.excluded {
				assert.False(t, inWindow(opOn(day), from, to), day)
			}
		})
	}
}

func TestExportToSheet(t *testing.T) {
	sheet := &fakeSheet{}
	svc := newTestService(&fakeLister{ops: sampleOperations()}, nil, WithSheetExport(sheet, "Rapports!A:J"))

	report, err := svc.BuildReport(context.Background(), time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC), fixedNow)
	require.NoError(t, err)
	require.NoError(t, svc.ExportToSheet(context.Background(), report))

	assert.Equal(t, "Rapports!A:J", sheet.sheetRange)
	require.Len(t, sheet.rows, 3)
	assert.Equal(t, []interface{}{"2026-10-12", "2026-10-16", "D65", 1, 20.0, 0.0, 20.0, 0.0, 1.0, 100.0}, sheet.rows[0])
	assert.Equal(t, "TOTAL", sheet.rows[2][2])
	assert.Equal(t, 3, sheet.rows[2][3])
}

func TestExportToSheetDisabled(t *testing.T) {
	svc := newTestService(&fakeLister{}, nil)
	assert.ErrorIs(t, svc.ExportToSheet(context.Background(), models.OperationsReport{}), ErrExportDisabled)
}

func TestWriteCSV(t *testing.T) {
	ops := []models.Operation{
		{Fiche: "F-1", Machine: "D65", Date: time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC),
			Input: metrics.Input{OperatingHours: 10, Depth: 2, HoleCount: 5, Length: 4, Width: 3}},
		{Fiche: "F-2", Machine: "D85", Operator: "Awa", Date: time.Date(2026, 10, 13, 0, 0, 0, 0, time.UTC),
			Input: metrics.Input{OperatingHours: 8, Downtime: 2}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, ops))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, strings.Join(csvHeader, ";"), lines[0])
	assert.Equal(t, "F-1;2026-10-12;D65;;10.00;0.00;2.00;5.00;4.00;3.00;10.00;1.00;24.00;100.00;10/0", lines[1])
	assert.Equal(t, "F-2;2026-10-13;D85;Awa;8.00;2.00;0.00;0.00;0.00;0.00;0.00;0.00;0.00;80.00;8/2", lines[2])
	assert.Equal(t, "TOTAL;;;2;18.00;2.00;;;;;10.00;0.56;24.00;90.00;18/2", lines[3])
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "TOTAL;;;0;0.00;0.00;;;;;0.00;0.00;0.00;0.00;0/0", lines[1])
}

func TestPercentAndRound(t *testing.T) {
	assert.Equal(t, 80.0, Round2(Percent(0.8)))
	assert.Equal(t, 0.56, Round2(5.0/9.0))
}
