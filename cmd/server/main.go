package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/decapage/internal/config"
	"github.com/mamadbah2/decapage/internal/repository/mongodb"
	"github.com/mamadbah2/decapage/internal/repository/sheets"
	"github.com/mamadbah2/decapage/internal/scheduler"
	"github.com/mamadbah2/decapage/internal/server/handlers"
	"github.com/mamadbah2/decapage/internal/server/router"
	operationssvc "github.com/mamadbah2/decapage/internal/service/operations"
	reportingsvc "github.com/mamadbah2/decapage/internal/service/reporting"
	whatsappclient "github.com/mamadbah2/decapage/pkg/clients/whatsapp"
	"github.com/mamadbah2/decapage/pkg/logger"
)

func main() {
	cfg, err := config.Load(os.Getenv("ENV_FILE"))
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Server.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	loc, err := cfg.Reporting.Location()
	if err != nil {
		baseLogger.Fatal("invalid timezone", zap.Error(err))
	}

	connectCtx, cancelConnect := context.WithTimeout(context.Background(), 15*time.Second)
	mongoRepo, err := mongodb.NewMongoDBRepository(connectCtx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
	cancelConnect()
	if err != nil {
		baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
	}
	defer func() {
		if err := mongoRepo.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()

	operationSvc := operationssvc.NewService(mongoRepo, logger.Named(baseLogger, "svc.operations"), operationssvc.WithLocation(loc))

	reportingOpts := []reportingsvc.Option{reportingsvc.WithLocation(loc)}
	var importHandler *handlers.ImportHandler
	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, logger.Named(baseLogger, "repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		reportingOpts = append(reportingOpts, reportingsvc.WithSheetExport(sheetsRepo, cfg.Sheets.ReportRange))
		importer := operationssvc.NewSheetImporter(operationSvc, sheetsRepo, cfg.Sheets.ImportRange)
		importHandler = handlers.NewImportHandler(importer, logger.Named(baseLogger, "handlers.import"))
	} else {
		baseLogger.Warn("google sheets not configured, export and import disabled")
	}

	reportingSvc := reportingsvc.NewService(mongoRepo, mongoRepo, logger.Named(baseLogger, "svc.reporting"), reportingOpts...)

	engine := router.New(router.Handlers{
		Operations: handlers.NewOperationHandler(operationSvc, logger.Named(baseLogger, "handlers.operations")),
		Reports:    handlers.NewReportHandler(reportingSvc, logger.Named(baseLogger, "handlers.reports")),
		Import:     importHandler,
	}, cfg.Server.APIToken, logger.Named(baseLogger, "router"))

	var notifier scheduler.Notifier
	if cfg.WhatsApp.Enabled() {
		notifier = whatsappclient.NewClient(cfg.WhatsApp)
		baseLogger.Info("whatsapp report delivery enabled")
	} else {
		baseLogger.Warn("whatsapp token missing, weekly report delivery disabled")
	}

	sched := scheduler.NewScheduler(cfg.Reporting.CronSchedule, loc, reportingSvc, notifier, cfg.WhatsApp.ReportTo, logger.Named(baseLogger, "scheduler"))
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
