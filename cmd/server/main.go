package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/bdimitrov/skladov/internal/config"
	"github.com/bdimitrov/skladov/internal/repository/csvfile"
	"github.com/bdimitrov/skladov/internal/repository/mongodb"
	"github.com/bdimitrov/skladov/internal/repository/sheets"
	"github.com/bdimitrov/skladov/internal/scheduler"
	"github.com/bdimitrov/skladov/internal/server/handlers"
	"github.com/bdimitrov/skladov/internal/server/router"
	querysvc "github.com/bdimitrov/skladov/internal/service/query"
	reconcilesvc "github.com/bdimitrov/skladov/internal/service/reconcile"
	reportsvc "github.com/bdimitrov/skladov/internal/service/report"
	"github.com/bdimitrov/skladov/internal/store"
	"github.com/bdimitrov/skladov/pkg/clients/gemini"
	"github.com/bdimitrov/skladov/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	ctx := context.Background()

	var ledgerSrc, inventorySrc store.Source
	switch cfg.Storage.Backend {
	case config.BackendSheets:
		service, err := sheets.NewService(ctx, cfg.Sheets.CredentialsPath)
		if err != nil {
			baseLogger.Fatal("failed to init sheets client", zap.Error(err))
		}
		ledgerSrc = sheets.NewSource(service, cfg.Sheets.SpreadsheetID, cfg.Sheets.SalesRange, baseLogger.Named("repo.sheets"))
		inventorySrc = sheets.NewSource(service, cfg.Sheets.SpreadsheetID, cfg.Sheets.InventoryRange, baseLogger.Named("repo.sheets"))
	case config.BackendCSV:
		ledgerSrc = csvfile.New(cfg.Storage.LedgerCSVPath, baseLogger.Named("repo.csv"))
		inventorySrc = csvfile.New(cfg.Storage.InventoryCSVPath, baseLogger.Named("repo.csv"))
	}

	st := store.New(ledgerSrc, inventorySrc, baseLogger.Named("store"))
	if err := st.Load(ctx); err != nil {
		baseLogger.Fatal("failed to load store", zap.Error(err))
	}

	var auditor reconcilesvc.Auditor
	var archiver scheduler.Archiver
	if cfg.MongoDB.URI != "" {
		mongoRepo, err := mongodb.NewMongoDBRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		auditor = mongoRepo
		archiver = mongoRepo
		baseLogger.Info("mongodb audit archive enabled")
	} else {
		baseLogger.Warn("mongodb uri missing, audit archiving disabled")
	}

	var matcher querysvc.Matcher
	if cfg.AI.GeminiKey != "" {
		matcher = gemini.NewClient(cfg.AI.GeminiKey, cfg.AI.Timeout)
		baseLogger.Info("gemini matching client enabled")
	} else {
		baseLogger.Warn("gemini api key missing, document search is exact-match only")
	}

	reconciler := reconcilesvc.NewService(st, auditor, baseLogger.Named("svc.reconcile"))
	resolver := querysvc.NewService(st, matcher, cfg.AI.MinConfidence, cfg.AI.Timeout, baseLogger.Named("svc.query"))
	reports := reportsvc.NewService(st, baseLogger.Named("svc.report"))

	apiHandler := handlers.NewAPIHandler(reconciler, resolver, reports, baseLogger.Named("handlers.api"))
	engine := router.New(apiHandler, baseLogger.Named("router"))

	sched := scheduler.NewScheduler(cfg.Refresh, st, reports, archiver, baseLogger.Named("scheduler"))
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-runCtx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
