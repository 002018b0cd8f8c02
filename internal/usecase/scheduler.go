package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"

	"adsync/internal/domain"
	"adsync/pkg/logger"
)

// Scheduler runs the daily cron-driven sync across all connections.
// Per-connection runs are independent and execute concurrently; the sync
// lock keeps overlapping runs for the same connection from racing.
type Scheduler struct {
	cron        *cron.Cron
	sync        *SyncService
	connections domain.ConnectionRepository
	logger      *logger.Logger
}

func NewScheduler(sync *SyncService, connections domain.ConnectionRepository, logger *logger.Logger) *Scheduler {
	return &Scheduler{
		cron:        cron.New(),
		sync:        sync,
		connections: connections,
		logger:      logger,
	}
}

// Start registers the schedule and starts the cron loop.
func (s *Scheduler) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.runAll); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.WithField("cron", spec).Info("Sync scheduler started")
	return nil
}

// Stop stops the cron loop; running syncs finish on their own.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info("Sync scheduler stopped")
}

// runAll syncs yesterday's stats for every connection.
func (s *Scheduler) runAll() {
	ctx := context.Background()

	conns, err := s.connections.ListAll(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Scheduled sync could not list connections")
		return
	}

	yesterday := time.Now().UTC().AddDate(0, 0, -1).Format(domain.DateFormat)
	r := domain.DateRange{Since: yesterday, Until: yesterday}

	for _, conn := range conns {
		conn := conn
		go func() {
			_, err := s.sync.SyncOnce(ctx, conn.WorkspaceID, r, domain.ModeStatSync, SyncOptions{Source: conn.Source})
			var busy *domain.SyncBusyError
			if errors.As(err, &busy) {
				s.logger.WithField("connection_id", conn.ID).Warn("Scheduled sync skipped, connection busy")
				return
			}
			if err != nil {
				s.logger.WithError(err).WithField("connection_id", conn.ID).Error("Scheduled sync failed")
			}
		}()
	}
}
