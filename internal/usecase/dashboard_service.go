package usecase

import (
	"context"
	"fmt"

	"adsync/internal/aggregate"
	"adsync/internal/domain"
	"adsync/pkg/logger"
	"adsync/pkg/metrics"
)

// DashboardService loads stored metric rows and serves the aggregation
// views consumed by the presentation layer.
type DashboardService struct {
	metricRepo domain.MetricRepository
	logger     *logger.Logger
	metrics    *metrics.Metrics
}

func NewDashboardService(metricRepo domain.MetricRepository, logger *logger.Logger, metrics *metrics.Metrics) *DashboardService {
	return &DashboardService{
		metricRepo: metricRepo,
		logger:     logger,
		metrics:    metrics,
	}
}

func (s *DashboardService) loadRows(ctx context.Context, workspaceID, since, until string) ([]domain.Row, error) {
	stored, err := s.metricRepo.ListRange(ctx, workspaceID, since, until)
	if err != nil {
		return nil, fmt.Errorf("failed to load metric rows: %w", err)
	}
	rows := make([]domain.Row, len(stored))
	for i, m := range stored {
		rows[i] = m.AggregationRow()
	}
	return rows, nil
}

func (s *DashboardService) Summary(ctx context.Context, workspaceID, since, until string) (aggregate.Totals, error) {
	rows, err := s.loadRows(ctx, workspaceID, since, until)
	if err != nil {
		return aggregate.Totals{}, err
	}
	s.metrics.RecordAggregationQuery("summary")
	return aggregate.Summarize(rows), nil
}

func (s *DashboardService) BySource(ctx context.Context, workspaceID, since, until string) ([]aggregate.GroupRow, error) {
	rows, err := s.loadRows(ctx, workspaceID, since, until)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordAggregationQuery("by_source")
	return aggregate.GroupBySource(rows), nil
}

func (s *DashboardService) ByDevice(ctx context.Context, workspaceID, since, until string) ([]aggregate.GroupRow, error) {
	rows, err := s.loadRows(ctx, workspaceID, since, until)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordAggregationQuery("by_device")
	return aggregate.GroupByDevice(rows), nil
}

func (s *DashboardService) ByCampaign(ctx context.Context, workspaceID, since, until string) ([]aggregate.GroupRow, error) {
	rows, err := s.loadRows(ctx, workspaceID, since, until)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordAggregationQuery("by_campaign")
	return aggregate.GroupByCampaign(rows), nil
}

func (s *DashboardService) ByKeyword(ctx context.Context, workspaceID, since, until string) ([]aggregate.GroupRow, error) {
	rows, err := s.loadRows(ctx, workspaceID, since, until)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordAggregationQuery("by_keyword")
	return aggregate.GroupByKeyword(rows), nil
}

func (s *DashboardService) ByCreative(ctx context.Context, workspaceID, since, until string) ([]aggregate.GroupRow, error) {
	rows, err := s.loadRows(ctx, workspaceID, since, until)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordAggregationQuery("by_creative")
	return aggregate.GroupByCreative(rows), nil
}

func (s *DashboardService) Weekly(ctx context.Context, workspaceID, since, until string) ([]aggregate.WeekRow, error) {
	rows, err := s.loadRows(ctx, workspaceID, since, until)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordAggregationQuery("weekly")
	return aggregate.GroupByWeekRecent5(rows), nil
}

func (s *DashboardService) Monthly(ctx context.Context, workspaceID, since, until string, filters aggregate.MonthFilters) ([]aggregate.MonthRow, error) {
	rows, err := s.loadRows(ctx, workspaceID, since, until)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordAggregationQuery("monthly")
	return aggregate.GroupByMonthRecent3(rows, filters), nil
}

func (s *DashboardService) GoalProgress(ctx context.Context, workspaceID, since, until string, goal domain.GoalState) (aggregate.GoalProgress, error) {
	rows, err := s.loadRows(ctx, workspaceID, since, until)
	if err != nil {
		return aggregate.GoalProgress{}, err
	}
	s.metrics.RecordAggregationQuery("goal_progress")
	return aggregate.Progress(rows, goal), nil
}
