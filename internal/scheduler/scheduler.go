package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/bdimitrov/skladov/internal/config"
	"github.com/bdimitrov/skladov/internal/domain/models"
	"github.com/bdimitrov/skladov/internal/service/report"
	"github.com/bdimitrov/skladov/internal/store"
)

// Archiver stores daily summaries. Implemented by the MongoDB repository.
type Archiver interface {
	SaveDailySummary(ctx context.Context, summary models.SalesSummary) error
}

// Scheduler manages the periodic store refresh (so external spreadsheet
// edits show up without a restart) and the daily summary archival.
type Scheduler struct {
	cron      *cron.Cron
	store     *store.Store
	reportSvc *report.Service
	archiver  Archiver // may be nil
	cfg       config.RefreshConfig
	logger    *zap.Logger
}

// NewScheduler creates a new scheduler instance. archiver may be nil, which
// disables the summary job.
func NewScheduler(cfg config.RefreshConfig, st *store.Store, reportSvc *report.Service, archiver Archiver, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Warn("unknown timezone, falling back to local", zap.String("timezone", cfg.Timezone))
		loc = time.Local
	}

	return &Scheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		store:     st,
		reportSvc: reportSvc,
		archiver:  archiver,
		cfg:       cfg,
		logger:    logger,
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler")

	if _, err := s.cron.AddFunc(s.cfg.StoreSchedule, s.refreshStore); err != nil {
		s.logger.Error("failed to schedule store refresh", zap.Error(err))
	}

	if s.archiver != nil {
		if _, err := s.cron.AddFunc(s.cfg.SummarySchedule, s.archiveDailySummary); err != nil {
			s.logger.Error("failed to schedule daily summary", zap.Error(err))
		}
	}

	s.cron.Start()
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	s.cron.Stop()
}

func (s *Scheduler) refreshStore() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := s.store.Load(ctx); err != nil {
		s.logger.Error("store refresh failed, keeping previous snapshot", zap.Error(err))
	}
}

func (s *Scheduler) archiveDailySummary() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	summary, err := s.reportSvc.SalesSummary(ctx, midnight, now)
	if err != nil {
		s.logger.Error("failed to compute daily summary", zap.Error(err))
		return
	}

	if err := s.archiver.SaveDailySummary(ctx, summary); err != nil {
		s.logger.Error("failed to archive daily summary", zap.Error(err))
		return
	}

	s.logger.Info("daily summary archived",
		zap.Int("entries", summary.Entries),
		zap.String("revenue", summary.TotalRevenue))
}
