package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adsync/internal/domain"
	"adsync/internal/infrastructure"
)

type syncFixture struct {
	service     *SyncService
	connections *infrastructure.MemoryConnectionRepository
	metricRepo  *infrastructure.MemoryMetricRepository
	lock        *infrastructure.MemorySyncLock
	client      *fakeClient
}

func newSyncFixture(t *testing.T, client *fakeClient) *syncFixture {
	t.Helper()
	log := testLogger()
	f := &syncFixture{
		connections: infrastructure.NewMemoryConnectionRepository(log),
		metricRepo:  infrastructure.NewMemoryMetricRepository(log),
		lock:        infrastructure.NewMemorySyncLock(),
		client:      client,
	}
	poller := NewPoller(client, 10*time.Millisecond, 5, log, testMetrics)
	f.service = NewSyncService(f.connections, f.metricRepo, client, poller, f.lock, log, testMetrics, "AD")
	return f
}

func (f *syncFixture) seedConnection(t *testing.T) *domain.Connection {
	t.Helper()
	conn := &domain.Connection{
		ID:          "conn-1",
		WorkspaceID: "ws-1",
		Source:      DefaultSource,
		Status:      domain.StatusConnected,
		APIKey:      "key",
		APISecret:   "secret",
		CustomerID:  "cust-77",
		UpdatedAt:   time.Now(),
	}
	require.NoError(t, f.connections.Save(context.Background(), conn))
	return conn
}

func juneRange() domain.DateRange {
	return domain.DateRange{Since: "2024-06-01", Until: "2024-06-02"}
}

func TestSyncOnceFullPipeline(t *testing.T) {
	f := newSyncFixture(t, &fakeClient{
		createJob:    domain.StatReportJob{ID: "1001", Status: "BUILT", DownloadURL: "https://dl.example.com/r/1001"},
		downloadBody: "date,imp,clk,cost\n2024-06-01,100,10,5000",
	})
	f.seedConnection(t)

	result, err := f.service.SyncOnce(context.Background(), "ws-1", juneRange(), domain.ModeStatSync, SyncOptions{})
	require.NoError(t, err)

	assert.True(t, result.OK)
	assert.Equal(t, "complete", result.Step)
	assert.Equal(t, "1001", result.ReportJobID)
	assert.Equal(t, 1, result.UpsertedDays)
	assert.Equal(t, 1, f.client.downloadCalls)

	rows, err := f.metricRepo.ListRange(context.Background(), "ws-1", "2024-06-01", "2024-06-02")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	row := rows[0]
	assert.Equal(t, "2024-06-01", row.Date)
	assert.Equal(t, DefaultSource, row.Source)
	assert.Equal(t, domain.EntityTypeAccount, row.EntityType)
	assert.Equal(t, "cust-77", row.EntityID)
	assert.Equal(t, 100.0, row.Impressions)
	assert.Equal(t, 10.0, row.Clicks)
	assert.Equal(t, 5000.0, row.Cost)
	assert.Equal(t, 0.0, row.Conversions)
	assert.Equal(t, 0.0, row.Revenue)

	conn, err := f.connections.Latest(context.Background(), "ws-1", DefaultSource)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConnected, conn.Status)
	assert.Empty(t, conn.LastError)
	assert.Equal(t, "2024-06-01", conn.LastSyncSince)
	assert.Equal(t, "2024-06-02", conn.LastSyncUntil)
}

func TestSyncOnceIsIdempotentPerDay(t *testing.T) {
	f := newSyncFixture(t, &fakeClient{
		createJob:    domain.StatReportJob{ID: "1001", Status: "BUILT", DownloadURL: "https://dl.example.com/r/1001"},
		downloadBody: "date,imp,clk,cost\n2024-06-01,100,10,5000",
	})
	f.seedConnection(t)

	for i := 0; i < 2; i++ {
		_, err := f.service.SyncOnce(context.Background(), "ws-1", juneRange(), domain.ModeStatSync, SyncOptions{})
		require.NoError(t, err)
	}

	rows, err := f.metricRepo.ListRange(context.Background(), "ws-1", "2024-06-01", "2024-06-02")
	require.NoError(t, err)
	require.Len(t, rows, 1, "re-syncing the same day replaces, never duplicates")
	assert.Equal(t, 100.0, rows[0].Impressions)
}

func TestSyncOnceNoConnection(t *testing.T) {
	f := newSyncFixture(t, &fakeClient{})

	result, err := f.service.SyncOnce(context.Background(), "ws-missing", juneRange(), domain.ModeStatSync, SyncOptions{})

	var noConn *domain.NoConnectionError
	require.ErrorAs(t, err, &noConn)
	assert.False(t, result.OK)
	assert.Equal(t, "connection", result.Step)
}

func TestSyncOnceInvalidRange(t *testing.T) {
	f := newSyncFixture(t, &fakeClient{})
	f.seedConnection(t)

	result, err := f.service.SyncOnce(context.Background(), "ws-1", domain.DateRange{Since: "2024-06-02", Until: "2024-06-01"}, domain.ModeStatSync, SyncOptions{})
	require.Error(t, err)
	assert.Equal(t, "validate", result.Step)

	// Even a caller-input failure lands on the connection audit trail.
	conn, err := f.connections.Latest(context.Background(), "ws-1", DefaultSource)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusError, conn.Status)
	assert.NotEmpty(t, conn.LastError)
}

func TestSyncOnceMissingCredentials(t *testing.T) {
	f := newSyncFixture(t, &fakeClient{})
	conn := f.seedConnection(t)
	conn.APISecret = ""
	require.NoError(t, f.connections.Save(context.Background(), conn))

	result, err := f.service.SyncOnce(context.Background(), "ws-1", juneRange(), domain.ModeStatSync, SyncOptions{})

	var missing *domain.MissingCredentialsError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"api_secret"}, missing.Missing)
	assert.Equal(t, "credentials", result.Step)

	// The failure is recorded on the connection audit trail.
	saved, err := f.connections.Latest(context.Background(), "ws-1", DefaultSource)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusError, saved.Status)
	assert.NotEmpty(t, saved.LastError)
}

func TestSyncOnceReportNotReady(t *testing.T) {
	f := newSyncFixture(t, &fakeClient{
		createJob: domain.StatReportJob{ID: "55", Status: "REGIST"},
		polls:     []domain.StatReportJob{{ID: "55", Status: "RUNNING"}},
	})
	f.seedConnection(t)

	result, err := f.service.SyncOnce(context.Background(), "ws-1", juneRange(), domain.ModeStatSync, SyncOptions{
		MaxAttempts: 2,
		IntervalMs:  1,
	})

	// Deferred outcome: no error, retry hints, connection left untouched.
	require.NoError(t, err)
	assert.False(t, result.OK)
	assert.Equal(t, "poll", result.Step)
	assert.Equal(t, "55", result.ReportJobID)
	assert.NotEmpty(t, result.Error)
	require.NotNil(t, result.Retry)
	assert.Equal(t, 4, result.Retry.MaxAttempts)
	assert.Equal(t, 1, result.Retry.IntervalMs)

	conn, err := f.connections.Latest(context.Background(), "ws-1", DefaultSource)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConnected, conn.Status)
	assert.Empty(t, conn.LastError)
}

func TestSyncOnceJobFailed(t *testing.T) {
	f := newSyncFixture(t, &fakeClient{
		createJob: domain.StatReportJob{ID: "55", Status: "REGIST"},
		polls:     []domain.StatReportJob{{ID: "55", Status: "FAILED"}},
	})
	f.seedConnection(t)

	result, err := f.service.SyncOnce(context.Background(), "ws-1", juneRange(), domain.ModeStatSync, SyncOptions{IntervalMs: 1})

	var jobErr *domain.JobFailedError
	require.ErrorAs(t, err, &jobErr)
	assert.Equal(t, "poll", result.Step)

	conn, err := f.connections.Latest(context.Background(), "ws-1", DefaultSource)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusError, conn.Status)
}

func TestSyncOnceCreateWithoutJobID(t *testing.T) {
	f := newSyncFixture(t, &fakeClient{createJob: domain.StatReportJob{Status: "REGIST"}})
	f.seedConnection(t)

	result, err := f.service.SyncOnce(context.Background(), "ws-1", juneRange(), domain.ModeStatSync, SyncOptions{})

	var malformed *domain.MalformedResponseError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "create_report", result.Step)
}

func TestSyncOnceLockBusy(t *testing.T) {
	f := newSyncFixture(t, &fakeClient{})
	f.seedConnection(t)

	release, err := f.lock.Acquire(context.Background(), "conn-1")
	require.NoError(t, err)
	defer release()

	result, err := f.service.SyncOnce(context.Background(), "ws-1", juneRange(), domain.ModeStatSync, SyncOptions{})

	var busy *domain.SyncBusyError
	require.ErrorAs(t, err, &busy)
	assert.Equal(t, "lock", result.Step)
}

func TestSyncOnceAuthCheck(t *testing.T) {
	f := newSyncFixture(t, &fakeClient{campaigns: 3})
	f.seedConnection(t)

	// Auth check needs no date range.
	result, err := f.service.SyncOnce(context.Background(), "ws-1", domain.DateRange{}, domain.ModeAuthCheck, SyncOptions{})
	require.NoError(t, err)

	assert.True(t, result.OK)
	assert.Equal(t, "auth_check", result.Step)
	assert.Equal(t, 3, result.Campaigns)
}

func TestSyncOnceStatReportMode(t *testing.T) {
	f := newSyncFixture(t, &fakeClient{createJob: domain.StatReportJob{ID: "88", Status: "REGIST"}})
	f.seedConnection(t)

	result, err := f.service.SyncOnce(context.Background(), "ws-1", juneRange(), domain.ModeStatReport, SyncOptions{})
	require.NoError(t, err)

	assert.True(t, result.OK)
	assert.Equal(t, "create_report", result.Step)
	assert.Equal(t, "88", result.ReportJobID)
	assert.Equal(t, 0, f.client.pollCalls, "stat_report mode returns without polling")
}

func TestIngestCSV(t *testing.T) {
	f := newSyncFixture(t, &fakeClient{})

	days, err := f.service.IngestCSV(context.Background(), "ws-1", "", "일자,노출수,클릭수,총비용\n2024-06-01,100,10,5000\n2024-06-02,200,20,9000")
	require.NoError(t, err)
	assert.Equal(t, 2, days)

	rows, err := f.metricRepo.ListRange(context.Background(), "ws-1", "2024-06-01", "2024-06-02")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "csv_upload", rows[0].Source)
	assert.Equal(t, "upload", rows[0].EntityID)
}

func TestIngestCSVMalformed(t *testing.T) {
	f := newSyncFixture(t, &fakeClient{})

	_, err := f.service.IngestCSV(context.Background(), "ws-1", "", "imp,clk\n100,10")

	var parseErr *domain.ParseError
	require.ErrorAs(t, err, &parseErr)
}
