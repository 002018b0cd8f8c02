package usecase

import (
	"context"
	"fmt"
	"time"

	"adsync/internal/domain"
	"adsync/internal/ingest"
	"adsync/pkg/logger"
	"adsync/pkg/metrics"
)

// DefaultSource identifies the search-ad platform connection this
// pipeline syncs by default.
const DefaultSource = "naver_sa"

// SyncService orchestrates one connection's sync: create the report job,
// poll it, download, parse, roll up, upsert, and record the outcome on
// the connection. The connection record is an audit trail; failures are
// written there and then re-raised, never swallowed.
type SyncService struct {
	connections domain.ConnectionRepository
	metricRepo  domain.MetricRepository
	client      domain.PlatformClient
	poller      *Poller
	lock        domain.SyncLock
	logger      *logger.Logger
	metrics     *metrics.Metrics
	reportTp    string
	now         func() time.Time
}

func NewSyncService(
	connections domain.ConnectionRepository,
	metricRepo domain.MetricRepository,
	client domain.PlatformClient,
	poller *Poller,
	lock domain.SyncLock,
	logger *logger.Logger,
	metrics *metrics.Metrics,
	reportTp string,
) *SyncService {
	return &SyncService{
		connections: connections,
		metricRepo:  metricRepo,
		client:      client,
		poller:      poller,
		lock:        lock,
		logger:      logger,
		metrics:     metrics,
		reportTp:    reportTp,
		now:         time.Now,
	}
}

// SyncOptions tune one SyncOnce invocation.
type SyncOptions struct {
	// Source defaults to DefaultSource.
	Source string
	// MaxAttempts / IntervalMs override the poll bounds when positive.
	MaxAttempts int
	IntervalMs  int
}

// SyncOnce runs one sync for the workspace's connection in the given
// mode. Errors are returned alongside the structured result; a not-ready
// report is a non-fatal result with retry hints, not an error.
func (s *SyncService) SyncOnce(ctx context.Context, workspaceID string, r domain.DateRange, mode domain.SyncMode, opts SyncOptions) (domain.SyncResult, error) {
	start := s.now()
	s.metrics.IncSyncsInProgress()
	defer s.metrics.DecSyncsInProgress()

	result, err := s.syncOnce(ctx, workspaceID, r, mode, opts)

	outcome := "success"
	switch {
	case err != nil:
		outcome = "failure"
	case !result.OK:
		outcome = "deferred"
	}
	s.metrics.RecordSyncRun(string(mode), outcome, s.now().Sub(start))
	return result, err
}

func (s *SyncService) syncOnce(ctx context.Context, workspaceID string, r domain.DateRange, mode domain.SyncMode, opts SyncOptions) (domain.SyncResult, error) {
	source := opts.Source
	if source == "" {
		source = DefaultSource
	}

	log := s.logger.WithContext(ctx).WithFields(map[string]any{
		"workspace_id": workspaceID,
		"source":       source,
		"mode":         mode,
		"since":        r.Since,
		"until":        r.Until,
	})
	log.Info("Starting sync")

	conn, err := s.connections.Latest(ctx, workspaceID, source)
	if err != nil {
		return s.fail(ctx, nil, r, "connection", err)
	}

	if mode != domain.ModeAuthCheck {
		if err := r.Validate(); err != nil {
			return s.fail(ctx, conn, r, "validate", err)
		}
	}

	release, err := s.lock.Acquire(ctx, conn.ID)
	if err != nil {
		return s.fail(ctx, nil, r, "lock", err)
	}
	defer release()

	if missing := conn.MissingCredentialFields(); len(missing) > 0 {
		return s.fail(ctx, conn, r, "credentials", &domain.MissingCredentialsError{ConnectionID: conn.ID, Missing: missing})
	}
	creds := conn.Credentials()

	switch mode {
	case domain.ModeAuthCheck:
		campaigns, err := s.client.ListCampaigns(ctx, creds)
		if err != nil {
			return s.fail(ctx, conn, r, "auth_check", err)
		}
		s.succeed(ctx, conn, domain.DateRange{})
		log.WithField("campaigns", campaigns).Info("Auth check passed")
		return domain.SyncResult{OK: true, Step: "auth_check", Campaigns: campaigns}, nil

	case domain.ModeStatReport:
		job, err := s.createJob(ctx, creds, r)
		if err != nil {
			return s.fail(ctx, conn, r, "create_report", err)
		}
		log.WithField("report_job_id", job.ID).Info("Report job created")
		return domain.SyncResult{OK: true, Step: "create_report", Since: r.Since, Until: r.Until, ReportJobID: job.ID}, nil
	}

	// stat_sync: the full pipeline.
	job, err := s.createJob(ctx, creds, r)
	if err != nil {
		return s.fail(ctx, conn, r, "create_report", err)
	}
	log = log.WithField("report_job_id", job.ID)

	poll, err := s.poller.Wait(ctx, creds, job, PollOptions{
		MaxAttempts: opts.MaxAttempts,
		Interval:    time.Duration(opts.IntervalMs) * time.Millisecond,
	})
	if err != nil {
		return s.fail(ctx, conn, r, "poll", err)
	}
	if !poll.Ready {
		// Deferred, not failed: the report is still being generated.
		// Leave the connection record untouched and hand back retry hints.
		log.WithFields(map[string]any{
			"attempts":    poll.Attempts,
			"last_status": poll.LastStatus,
		}).Warn("Report not ready, deferring")
		return domain.SyncResult{
			Step:        "poll",
			Since:       r.Since,
			Until:       r.Until,
			ReportJobID: job.ID,
			Error:       fmt.Sprintf("report job %s not ready after %d attempts (status %s)", job.ID, poll.Attempts, poll.LastStatus),
			Retry:       poll.Retry,
		}, nil
	}

	csvText, err := s.client.Download(ctx, creds, poll.Job.DownloadURL)
	if err != nil {
		return s.fail(ctx, conn, r, "download", err)
	}

	parsed, err := ingest.Parse(csvText)
	if err != nil {
		return s.fail(ctx, conn, r, "parse", err)
	}
	for i := 0; i < parsed.Dropped; i++ {
		s.metrics.RecordRowDropped("no_date")
	}

	metricRows := ingest.Rollup(parsed.Rows, workspaceID, source, domain.EntityTypeAccount, conn.CustomerID)
	if err := s.metricRepo.UpsertBatch(ctx, metricRows); err != nil {
		return s.fail(ctx, conn, r, "upsert", err)
	}
	s.metrics.RecordRowsUpserted(source, len(metricRows))

	s.succeed(ctx, conn, r)

	log.WithFields(map[string]any{
		"parsed_rows":   len(parsed.Rows),
		"dropped_rows":  parsed.Dropped,
		"upserted_days": len(metricRows),
	}).Info("Sync completed")

	return domain.SyncResult{
		OK:           true,
		Step:         "complete",
		Since:        r.Since,
		Until:        r.Until,
		ReportJobID:  job.ID,
		UpsertedDays: len(metricRows),
	}, nil
}

// IngestCSV feeds uploaded report text through the same parse -> rollup ->
// upsert path the platform sync uses. Returns the number of upserted days.
func (s *SyncService) IngestCSV(ctx context.Context, workspaceID, source, csvText string) (int, error) {
	if source == "" {
		source = "csv_upload"
	}

	parsed, err := ingest.Parse(csvText)
	if err != nil {
		return 0, err
	}
	for i := 0; i < parsed.Dropped; i++ {
		s.metrics.RecordRowDropped("no_date")
	}

	rows := ingest.Rollup(parsed.Rows, workspaceID, source, domain.EntityTypeAccount, "upload")
	if err := s.metricRepo.UpsertBatch(ctx, rows); err != nil {
		return 0, err
	}
	s.metrics.RecordRowsUpserted(source, len(rows))

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"workspace_id":  workspaceID,
		"source":        source,
		"parsed_rows":   len(parsed.Rows),
		"upserted_days": len(rows),
	}).Info("CSV upload ingested")
	return len(rows), nil
}

func (s *SyncService) createJob(ctx context.Context, creds domain.Credentials, r domain.DateRange) (domain.StatReportJob, error) {
	job, err := s.client.CreateStatReport(ctx, creds, s.reportTp, r)
	if err != nil {
		return domain.StatReportJob{}, err
	}
	if job.ID == "" {
		return domain.StatReportJob{}, &domain.MalformedResponseError{Reason: "stat-report create response has no job id"}
	}
	return job, nil
}

// fail records the failure on the connection audit trail, then re-raises.
// A nil conn means the failure happened before (or while) loading it.
func (s *SyncService) fail(ctx context.Context, conn *domain.Connection, r domain.DateRange, step string, err error) (domain.SyncResult, error) {
	log := s.logger.WithContext(ctx).WithField("step", step).WithError(err)

	if conn != nil {
		conn.Status = domain.StatusError
		conn.LastError = err.Error()
		conn.LastSyncSince = r.Since
		conn.LastSyncUntil = r.Until
		conn.UpdatedAt = s.now()
		if saveErr := s.connections.Save(ctx, conn); saveErr != nil {
			log.WithField("save_error", saveErr.Error()).Error("Failed to record sync failure on connection")
		}
	}

	log.Error("Sync step failed")
	return domain.SyncResult{
		OK:    false,
		Step:  step,
		Since: r.Since,
		Until: r.Until,
		Error: err.Error(),
	}, fmt.Errorf("sync step %s: %w", step, err)
}

func (s *SyncService) succeed(ctx context.Context, conn *domain.Connection, r domain.DateRange) {
	conn.Status = domain.StatusConnected
	conn.LastError = ""
	if r.Since != "" {
		conn.LastSyncSince = r.Since
		conn.LastSyncUntil = r.Until
	}
	conn.UpdatedAt = s.now()
	if err := s.connections.Save(ctx, conn); err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to record sync success on connection")
	}
}
