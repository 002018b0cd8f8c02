package domain

import (
	"fmt"
	"time"
)

type ConnectionStatus string

const (
	StatusConnected ConnectionStatus = "connected"
	StatusError     ConnectionStatus = "error"
)

// Connection links one workspace to one external ad-data source.
// The sync pipeline mutates status, last-sync range and last error after
// every attempt; it never creates or deletes connections.
type Connection struct {
	ID          string           `json:"id"`
	WorkspaceID string           `json:"workspace_id"`
	Source      string           `json:"source"`
	Status      ConnectionStatus `json:"status"`

	APIKey     string `json:"-"`
	APISecret  string `json:"-"`
	CustomerID string `json:"-"`

	LastSyncSince string    `json:"last_sync_since,omitempty"`
	LastSyncUntil string    `json:"last_sync_until,omitempty"`
	LastError     string    `json:"last_error,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Credentials returns the credential triple used for signed API calls.
func (c *Connection) Credentials() Credentials {
	return Credentials{APIKey: c.APIKey, Secret: c.APISecret, CustomerID: c.CustomerID}
}

// MissingCredentialFields lists which of the three credential fields are empty.
func (c *Connection) MissingCredentialFields() []string {
	var missing []string
	if c.APIKey == "" {
		missing = append(missing, "api_key")
	}
	if c.APISecret == "" {
		missing = append(missing, "api_secret")
	}
	if c.CustomerID == "" {
		missing = append(missing, "customer_id")
	}
	return missing
}

// Credentials is the triple required to sign requests to the ad platform.
type Credentials struct {
	APIKey     string
	Secret     string
	CustomerID string
}

// DateRange is an inclusive calendar-day range in YYYY-MM-DD form.
type DateRange struct {
	Since string `json:"since"`
	Until string `json:"until"`
}

const DateFormat = "2006-01-02"

func (r DateRange) Validate() error {
	since, err := time.Parse(DateFormat, r.Since)
	if err != nil {
		return fmt.Errorf("invalid since date %q: %w", r.Since, err)
	}
	until, err := time.Parse(DateFormat, r.Until)
	if err != nil {
		return fmt.Errorf("invalid until date %q: %w", r.Until, err)
	}
	if until.Before(since) {
		return fmt.Errorf("until %s is before since %s", r.Until, r.Since)
	}
	return nil
}

type SyncMode string

const (
	// ModeAuthCheck verifies credentials by listing campaigns; no data pull.
	ModeAuthCheck SyncMode = "auth_check"
	// ModeStatReport creates the report job and returns without waiting.
	ModeStatReport SyncMode = "stat_report"
	// ModeStatSync runs the full create, poll, download, parse, upsert chain.
	ModeStatSync SyncMode = "stat_sync"
)

func ParseSyncMode(s string) (SyncMode, error) {
	switch SyncMode(s) {
	case ModeAuthCheck, ModeStatReport, ModeStatSync:
		return SyncMode(s), nil
	case "":
		return ModeStatSync, nil
	}
	return "", fmt.Errorf("unknown sync mode %q", s)
}

// RetryHint tells the caller how to retry a deferred (not-ready) sync.
type RetryHint struct {
	MaxAttempts int `json:"max_attempts"`
	IntervalMs  int `json:"interval_ms"`
}

// SyncResult is the public outcome of a single SyncOnce invocation.
type SyncResult struct {
	OK           bool       `json:"ok"`
	Step         string     `json:"step"`
	Since        string     `json:"since"`
	Until        string     `json:"until"`
	ReportJobID  string     `json:"report_job_id,omitempty"`
	UpsertedDays int        `json:"upserted_days,omitempty"`
	Campaigns    int        `json:"campaigns,omitempty"`
	Error        string     `json:"error,omitempty"`
	Retry        *RetryHint `json:"retry,omitempty"`
}
