package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"adsync/internal/domain"
	"adsync/pkg/logger"
	"adsync/pkg/metrics"

	"golang.org/x/time/rate"
)

// implements domain.PlatformClient against the ad platform's signed REST API
type PlatformClient struct {
	client      *http.Client
	baseURL     string
	logger      *logger.Logger
	metrics     *metrics.Metrics
	rateLimiter *rate.Limiter
}

// creates a new platform client
func NewPlatformClient(baseURL string, timeout time.Duration, ratePerSecond int, logger *logger.Logger, metrics *metrics.Metrics) *PlatformClient {
	return &PlatformClient{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL:     baseURL,
		logger:      logger,
		metrics:     metrics,
		rateLimiter: rate.NewLimiter(rate.Limit(ratePerSecond), 10),
	}
}

// statReportPayload is the wire shape of the platform's stat-report
// responses. reportJobId arrives as a JSON number on some accounts and as
// a string on others, hence json.Number.
type statReportPayload struct {
	ReportJobID json.Number `json:"reportJobId"`
	Status      string      `json:"status"`
	DownloadURL string      `json:"downloadUrl"`
	ReportTp    string      `json:"reportTp"`
	StatDt      string      `json:"statDt"`
	StatDtTo    string      `json:"statDtTo"`
}

func (p statReportPayload) job() domain.StatReportJob {
	return domain.StatReportJob{
		ID:          p.ReportJobID.String(),
		Status:      domain.NormalizeJobStatus(p.Status),
		DownloadURL: p.DownloadURL,
		ReportTp:    p.ReportTp,
		StatDt:      p.StatDt,
		StatDtTo:    p.StatDtTo,
	}
}

// ListCampaigns performs the lightweight credential check.
func (c *PlatformClient) ListCampaigns(ctx context.Context, creds domain.Credentials) (int, error) {
	raw, err := c.call(ctx, "campaigns", creds, http.MethodGet, "/ncc/campaigns", "/ncc/campaigns", nil)
	if err != nil {
		return 0, err
	}

	var campaigns []json.RawMessage
	if err := json.Unmarshal(raw, &campaigns); err != nil {
		return 0, &domain.MalformedResponseError{Reason: fmt.Sprintf("campaign list is not a JSON array: %v", err)}
	}
	return len(campaigns), nil
}

// CreateStatReport requests a new report-generation job.
func (c *PlatformClient) CreateStatReport(ctx context.Context, creds domain.Credentials, reportTp string, r domain.DateRange) (domain.StatReportJob, error) {
	body := map[string]string{
		"reportTp": reportTp,
		"statDt":   r.Since,
		"statDtTo": r.Until,
	}

	raw, err := c.call(ctx, "create_report", creds, http.MethodPost, "/stat-reports", "/stat-reports", body)
	if err != nil {
		return domain.StatReportJob{}, err
	}

	var payload statReportPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return domain.StatReportJob{}, &domain.MalformedResponseError{Reason: fmt.Sprintf("stat-report create response: %v", err)}
	}
	return payload.job(), nil
}

// GetStatReport fetches the current state of a report job.
func (c *PlatformClient) GetStatReport(ctx context.Context, creds domain.Credentials, jobID string) (domain.StatReportJob, error) {
	path := "/stat-reports/" + jobID

	raw, err := c.call(ctx, "get_report", creds, http.MethodGet, path, path, nil)
	if err != nil {
		return domain.StatReportJob{}, err
	}

	var payload statReportPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return domain.StatReportJob{}, &domain.MalformedResponseError{Reason: fmt.Sprintf("stat-report status response: %v", err)}
	}
	return payload.job(), nil
}

// Download fetches the generated report as raw text. The download locator
// may be an absolute URL; the request carries its path and query while the
// signature covers the path alone, which is what the platform verifies.
func (c *PlatformClient) Download(ctx context.Context, creds domain.Credentials, downloadURL string) (string, error) {
	u, err := url.Parse(downloadURL)
	if err != nil {
		return "", &domain.MalformedResponseError{Reason: fmt.Sprintf("download url %q: %v", downloadURL, err)}
	}

	requestPath := u.Path
	if u.RawQuery != "" {
		requestPath += "?" + u.RawQuery
	}

	raw, err := c.call(ctx, "download", creds, http.MethodGet, requestPath, u.Path, nil)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// call issues one signed request and returns the raw 2xx body. Non-2xx
// statuses surface as ExternalAPIError with the body preserved verbatim.
// Retry policy belongs to the poller, not here.
func (c *PlatformClient) call(ctx context.Context, operation string, creds domain.Credentials, method, requestPath, signPath string, body any) ([]byte, error) {
	start := time.Now()

	// Apply rate limiting
	if err := c.rateLimiter.Wait(ctx); err != nil {
		c.metrics.RecordPlatformFailure(operation, "rate_limit")
		return nil, fmt.Errorf("rate limit exceeded: %w", err)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			c.metrics.RecordPlatformFailure(operation, "json_marshal")
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+requestPath, reader)
	if err != nil {
		c.metrics.RecordPlatformFailure(operation, "request_creation")
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	timestamp := strconv.FormatInt(time.Now().UnixMilli(), 10)
	req.Header.Set("X-Timestamp", timestamp)
	req.Header.Set("X-API-KEY", creds.APIKey)
	req.Header.Set("X-Customer", creds.CustomerID)
	req.Header.Set("X-Signature", Sign(timestamp, method, signPath, creds.Secret))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.metrics.RecordPlatformFailure(operation, "network_error")
		return nil, fmt.Errorf("platform request failed: %w", err)
	}
	defer resp.Body.Close()

	duration := time.Since(start)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.RecordPlatformFailure(operation, "read_body")
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.metrics.RecordPlatformCall(operation, fmt.Sprintf("error_%d", resp.StatusCode), duration)
		return nil, &domain.ExternalAPIError{Status: resp.StatusCode, Body: string(raw)}
	}

	c.metrics.RecordPlatformCall(operation, "success", duration)

	c.logger.WithContext(ctx).WithFields(map[string]any{
		"operation": operation,
		"path":      requestPath,
		"duration":  duration,
		"bytes":     len(raw),
	}).Debug("Platform call succeeded")

	return raw, nil
}
