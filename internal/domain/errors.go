package domain

import (
	"fmt"
	"strings"
)

// NoConnectionError: the workspace has no connection for the source.
type NoConnectionError struct {
	WorkspaceID string
	Source      string
}

func (e *NoConnectionError) Error() string {
	return fmt.Sprintf("no %s connection for workspace %s", e.Source, e.WorkspaceID)
}

// MissingCredentialsError: the connection exists but credential fields are empty.
type MissingCredentialsError struct {
	ConnectionID string
	Missing      []string
}

func (e *MissingCredentialsError) Error() string {
	return fmt.Sprintf("connection %s is missing credentials: %s", e.ConnectionID, strings.Join(e.Missing, ", "))
}

// ExternalAPIError: the ad platform answered with a non-2xx status.
// Body carries the raw response so the orchestrator can log diagnostics.
type ExternalAPIError struct {
	Status int
	Body   string
}

func (e *ExternalAPIError) Error() string {
	return fmt.Sprintf("ad platform returned status %d: %s", e.Status, e.Body)
}

// JobFailedError: the external report generation reached a terminal failure.
type JobFailedError struct {
	Job StatReportJob
}

func (e *JobFailedError) Error() string {
	return fmt.Sprintf("stat report job %s failed with status %s", e.Job.ID, NormalizeJobStatus(e.Job.Status))
}

// MalformedResponseError: the platform answered 2xx but the payload is
// missing a field the pipeline cannot proceed without.
type MalformedResponseError struct {
	Reason string
}

func (e *MalformedResponseError) Error() string {
	return "malformed platform response: " + e.Reason
}

// ParseError: the downloaded report could not be interpreted at all.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "report parse failed: " + e.Reason
}

// PersistenceError wraps a storage failure during the upsert batch.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// SyncBusyError: another sync already holds the per-connection lock.
type SyncBusyError struct {
	ConnectionID string
}

func (e *SyncBusyError) Error() string {
	return fmt.Sprintf("sync already in progress for connection %s", e.ConnectionID)
}
