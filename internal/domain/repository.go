package domain

import "context"

// interface for connection records
type ConnectionRepository interface {
	// Latest returns the most recently updated connection for the pair,
	// or a NoConnectionError if none exists.
	Latest(ctx context.Context, workspaceID, source string) (*Connection, error)
	Save(ctx context.Context, conn *Connection) error
	ListAll(ctx context.Context) ([]*Connection, error)
}

// interface for the persisted metrics table
type MetricRepository interface {
	// UpsertBatch writes the batch keyed on each row's natural key,
	// all-or-nothing. Existing rows for the same key are replaced.
	UpsertBatch(ctx context.Context, rows []MetricRow) error
	ListRange(ctx context.Context, workspaceID, since, until string) ([]MetricRow, error)
}

// interface for signed calls to the external ad platform
type PlatformClient interface {
	// ListCampaigns is the lightweight credential check; returns the
	// number of campaigns visible to the account.
	ListCampaigns(ctx context.Context, creds Credentials) (int, error)
	CreateStatReport(ctx context.Context, creds Credentials, reportTp string, r DateRange) (StatReportJob, error)
	GetStatReport(ctx context.Context, creds Credentials, jobID string) (StatReportJob, error)
	// Download fetches the report body behind the job's download locator
	// and returns it as raw text.
	Download(ctx context.Context, creds Credentials, downloadURL string) (string, error)
}

// SyncLock serializes syncs per connection. Acquire returns a release
// func on success and a SyncBusyError when the lock is already held.
type SyncLock interface {
	Acquire(ctx context.Context, connectionID string) (func(), error)
}
