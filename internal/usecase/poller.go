package usecase

import (
	"context"
	"time"

	"adsync/internal/domain"
	"adsync/pkg/logger"
	"adsync/pkg/metrics"
)

// Poller drives the create -> poll -> ready state machine for stat-report
// jobs: fixed interval, bounded attempts, stop on the first terminal state.
type Poller struct {
	client      domain.PlatformClient
	logger      *logger.Logger
	metrics     *metrics.Metrics
	interval    time.Duration
	maxAttempts int
}

func NewPoller(client domain.PlatformClient, interval time.Duration, maxAttempts int, logger *logger.Logger, metrics *metrics.Metrics) *Poller {
	return &Poller{
		client:      client,
		logger:      logger,
		metrics:     metrics,
		interval:    interval,
		maxAttempts: maxAttempts,
	}
}

// PollOptions override the poller defaults for one wait. Zero values keep
// the defaults.
type PollOptions struct {
	MaxAttempts int
	Interval    time.Duration
}

// PollResult is the outcome of waiting on a job. Ready=false is NOT a
// failure: it means the report was not generated within the bounds and
// the caller should retry later with the suggested larger ones.
type PollResult struct {
	Ready      bool
	Job        domain.StatReportJob
	Attempts   int
	LastStatus string
	Retry      *domain.RetryHint
}

// Wait polls the job until it reaches a terminal state, the attempt bound
// is exhausted, or ctx is cancelled. Terminal failure returns a
// JobFailedError; a success state without a download locator is a
// MalformedResponseError, since the report would be unreachable. The
// interval is deliberately fixed rather than exponential: report
// generation time on the platform is roughly known.
func (p *Poller) Wait(ctx context.Context, creds domain.Credentials, job domain.StatReportJob, opts PollOptions) (PollResult, error) {
	maxAttempts := p.maxAttempts
	if opts.MaxAttempts > 0 {
		maxAttempts = opts.MaxAttempts
	}
	interval := p.interval
	if opts.Interval > 0 {
		interval = opts.Interval
	}

	log := p.logger.WithContext(ctx).WithField("report_job_id", job.ID)

	// The create response may already carry a terminal state.
	if result, done, err := p.resolve(job, 0); done {
		return result, err
	}

	current := job
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			log.WithField("attempts", attempt-1).Warn("Poll cancelled")
			p.metrics.RecordPollAttempts("cancelled", attempt-1)
			return p.notReady(current, attempt-1, maxAttempts, interval), nil
		case <-time.After(interval):
		}

		polled, err := p.client.GetStatReport(ctx, creds, job.ID)
		if err != nil {
			p.metrics.RecordPollAttempts("error", attempt)
			return PollResult{Job: current, Attempts: attempt, LastStatus: current.Status}, err
		}
		current = polled

		log.WithFields(map[string]any{
			"attempt": attempt,
			"status":  current.Status,
		}).Debug("Polled report job")

		if result, done, err := p.resolve(current, attempt); done {
			if err != nil {
				p.metrics.RecordPollAttempts("failed", attempt)
			} else {
				p.metrics.RecordPollAttempts("ready", attempt)
			}
			return result, err
		}
	}

	log.WithFields(map[string]any{
		"attempts":    maxAttempts,
		"last_status": current.Status,
	}).Warn("Report job not ready within attempt bound")
	p.metrics.RecordPollAttempts("exhausted", maxAttempts)
	return p.notReady(current, maxAttempts, maxAttempts, interval), nil
}

// resolve classifies a job snapshot. done=true means polling stops here.
func (p *Poller) resolve(job domain.StatReportJob, attempts int) (PollResult, bool, error) {
	switch {
	case job.Failed():
		return PollResult{Job: job, Attempts: attempts, LastStatus: job.Status}, true, &domain.JobFailedError{Job: job}
	case job.Succeeded():
		if job.DownloadURL == "" {
			return PollResult{Job: job, Attempts: attempts, LastStatus: job.Status}, true,
				&domain.MalformedResponseError{Reason: "job " + job.ID + " reported " + job.Status + " without a download url"}
		}
		return PollResult{Ready: true, Job: job, Attempts: attempts, LastStatus: job.Status}, true, nil
	}
	return PollResult{}, false, nil
}

func (p *Poller) notReady(job domain.StatReportJob, attempts, maxAttempts int, interval time.Duration) PollResult {
	return PollResult{
		Job:        job,
		Attempts:   attempts,
		LastStatus: job.Status,
		Retry: &domain.RetryHint{
			MaxAttempts: maxAttempts * 2,
			IntervalMs:  int(interval / time.Millisecond),
		},
	}
}
