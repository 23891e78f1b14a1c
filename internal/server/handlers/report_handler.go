package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/decapage/internal/domain/models"
	"github.com/mamadbah2/decapage/internal/service/reporting"
)

const dateLayout = "2006-01-02"

// ReportService describes the reporting use cases exposed over HTTP.
type ReportService interface {
	WeekBounds(now time.Time) (time.Time, time.Time)
	Operations(ctx context.Context, from, to time.Time) ([]models.Operation, error)
	BuildReport(ctx context.Context, from, to time.Time) (models.OperationsReport, error)
}

// ReportHandler serves report summaries and CSV exports.
type ReportHandler struct {
	svc    ReportService
	logger *zap.Logger
	now    func() time.Time
}

// NewReportHandler constructs the HTTP handler adapter.
func NewReportHandler(svc ReportService, logger *zap.Logger) *ReportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportHandler{svc: svc, logger: logger, now: time.Now}
}

type summaryResponse struct {
	models.OperationsReport
	AvailabilityPct float64 `json:"availabilityPct"`
	Text            string  `json:"text"`
}

// Summary returns the aggregated report of a period (current week by default).
func (h *ReportHandler) Summary(c *gin.Context) {
	from, to, ok := h.period(c)
	if !ok {
		return
	}

	report, err := h.svc.BuildReport(c.Request.Context(), from, to)
	if err != nil {
		h.logger.Error("failed building report", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build report"})
		return
	}

	c.JSON(http.StatusOK, summaryResponse{
		OperationsReport: report,
		AvailabilityPct:  reporting.Round2(reporting.Percent(report.Summary.Availability)),
		Text:             reporting.FormatSummary(report),
	})
}

// ExportCSV streams the operations of a period as a CSV file.
func (h *ReportHandler) ExportCSV(c *gin.Context) {
	from, to, ok := h.period(c)
	if !ok {
		return
	}

	ops, err := h.svc.Operations(c.Request.Context(), from, to)
	if err != nil {
		h.logger.Error("failed loading operations for export", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to export operations"})
		return
	}

	filename := fmt.Sprintf("operations_%s_%s.csv", from.Format(dateLayout), to.Format(dateLayout))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Status(http.StatusOK)

	if err := reporting.WriteCSV(c.Writer, ops); err != nil {
		h.logger.Error("failed writing csv export", zap.Error(err))
	}
}

func (h *ReportHandler) period(c *gin.Context) (time.Time, time.Time, bool) {
	from, to, err := parsePeriod(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return time.Time{}, time.Time{}, false
	}

	weekFrom, weekTo := h.svc.WeekBounds(h.now())
	if from.IsZero() {
		from = weekFrom
	}
	if to.IsZero() {
		to = weekTo
	}
	if to.Before(from) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to must not be before from"})
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

// parsePeriod reads the optional from/to query dates as UTC calendar days,
// matching stored operation dates. The to date is inclusive and covers the
// whole day.
func parsePeriod(c *gin.Context) (time.Time, time.Time, error) {
	var from, to time.Time

	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			return from, to, fmt.Errorf("from must use format %s", dateLayout)
		}
		from = parsed
	}

	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			return from, to, fmt.Errorf("to must use format %s", dateLayout)
		}
		to = parsed.Add(24*time.Hour - time.Nanosecond)
	}

	return from, to, nil
}
