package infrastructure

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adsync/internal/domain"
	"adsync/pkg/logger"
)

func metricRow(date string, impressions, clicks float64) domain.MetricRow {
	return domain.MetricRow{
		WorkspaceID: "ws-1",
		Source:      "naver_sa",
		Date:        date,
		EntityType:  domain.EntityTypeAccount,
		EntityID:    "cust-1",
		Impressions: impressions,
		Clicks:      clicks,
	}
}

func TestUpsertBatchIsIdempotent(t *testing.T) {
	repo := NewMemoryMetricRepository(logger.New("error"))
	ctx := context.Background()

	batch := []domain.MetricRow{
		metricRow("2024-06-01", 100, 10),
		metricRow("2024-06-02", 200, 20),
	}

	require.NoError(t, repo.UpsertBatch(ctx, batch))
	require.NoError(t, repo.UpsertBatch(ctx, batch))

	rows, err := repo.ListRange(ctx, "ws-1", "", "")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 100.0, rows[0].Impressions)
	assert.Equal(t, 200.0, rows[1].Impressions)
}

func TestUpsertReplacesOverlappingDates(t *testing.T) {
	repo := NewMemoryMetricRepository(logger.New("error"))
	ctx := context.Background()

	require.NoError(t, repo.UpsertBatch(ctx, []domain.MetricRow{metricRow("2024-06-01", 100, 10)}))
	require.NoError(t, repo.UpsertBatch(ctx, []domain.MetricRow{metricRow("2024-06-01", 150, 12)}))

	rows, err := repo.ListRange(ctx, "ws-1", "2024-06-01", "2024-06-01")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 150.0, rows[0].Impressions)
	assert.Equal(t, 12.0, rows[0].Clicks)
}

func TestListRangeFiltersByWorkspaceAndDates(t *testing.T) {
	repo := NewMemoryMetricRepository(logger.New("error"))
	ctx := context.Background()

	other := metricRow("2024-06-01", 1, 1)
	other.WorkspaceID = "ws-2"

	require.NoError(t, repo.UpsertBatch(ctx, []domain.MetricRow{
		metricRow("2024-05-31", 1, 1),
		metricRow("2024-06-01", 2, 2),
		metricRow("2024-06-02", 3, 3),
		other,
	}))

	rows, err := repo.ListRange(ctx, "ws-1", "2024-06-01", "2024-06-02")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2024-06-01", rows[0].Date)
	assert.Equal(t, "2024-06-02", rows[1].Date)
}

func TestLatestReturnsMostRecentlyUpdated(t *testing.T) {
	repo := NewMemoryConnectionRepository(logger.New("error"))
	ctx := context.Background()

	older := &domain.Connection{
		ID: "conn-1", WorkspaceID: "ws-1", Source: "naver_sa",
		UpdatedAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	newer := &domain.Connection{
		ID: "conn-2", WorkspaceID: "ws-1", Source: "naver_sa",
		UpdatedAt: time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Save(ctx, older))
	require.NoError(t, repo.Save(ctx, newer))

	got, err := repo.Latest(ctx, "ws-1", "naver_sa")
	require.NoError(t, err)
	assert.Equal(t, "conn-2", got.ID)
}

func TestLatestWithoutConnectionIsTyped(t *testing.T) {
	repo := NewMemoryConnectionRepository(logger.New("error"))

	_, err := repo.Latest(context.Background(), "ws-none", "naver_sa")
	var noConn *domain.NoConnectionError
	require.ErrorAs(t, err, &noConn)
	assert.Equal(t, "ws-none", noConn.WorkspaceID)
}
