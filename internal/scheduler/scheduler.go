package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/decapage/internal/domain/models"
	"github.com/mamadbah2/decapage/internal/service/reporting"
)

// ReportGenerator produces the weekly report.
type ReportGenerator interface {
	GenerateWeeklyReport(ctx context.Context, now time.Time) (models.OperationsReport, string, error)
	ExportToSheet(ctx context.Context, report models.OperationsReport) error
}

// Notifier delivers the report text.
type Notifier interface {
	SendText(ctx context.Context, to, body string) (string, error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron      *cron.Cron
	schedule  string
	reporting ReportGenerator
	notifier  Notifier
	recipient string
	logger    *zap.Logger
	now       func() time.Time
}

// NewScheduler creates a new scheduler instance. notifier may be nil, in which
// case reports are generated and exported but not delivered.
func NewScheduler(schedule string, loc *time.Location, reportingSvc ReportGenerator, notifier Notifier, recipient string, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}

	return &Scheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		schedule:  schedule,
		reporting: reportingSvc,
		notifier:  notifier,
		recipient: recipient,
		logger:    logger,
		now:       time.Now,
	}
}

// Start registers the weekly report job and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler", zap.String("schedule", s.schedule))

	if _, err := s.cron.AddFunc(s.schedule, s.sendWeeklyReport); err != nil {
		return fmt.Errorf("schedule weekly report: %w", err)
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) sendWeeklyReport() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := s.RunWeeklyReport(ctx); err != nil {
		s.logger.Error("weekly report run failed", zap.Error(err))
	}
}

// RunWeeklyReport generates the weekly report, exports it and delivers it.
// Export and delivery failures are logged and do not abort the run.
func (s *Scheduler) RunWeeklyReport(ctx context.Context) error {
	s.logger.Info("generating weekly report")

	report, text, err := s.reporting.GenerateWeeklyReport(ctx, s.now())
	if err != nil {
		return fmt.Errorf("generate weekly report: %w", err)
	}

	if err := s.reporting.ExportToSheet(ctx, report); err != nil {
		if errors.Is(err, reporting.ErrExportDisabled) {
			s.logger.Debug("sheet export disabled")
		} else {
			s.logger.Error("failed to export weekly report", zap.Error(err))
		}
	}

	if s.notifier == nil {
		s.logger.Debug("no notifier configured, weekly report not delivered")
		return nil
	}

	if _, err := s.notifier.SendText(ctx, s.recipient, text); err != nil {
		s.logger.Error("failed to send weekly report", zap.Error(err))
	} else {
		s.logger.Info("weekly report sent successfully", zap.String("to", s.recipient))
	}

	return nil
}
