package delivery

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"adsync/internal/aggregate"
	"adsync/internal/domain"
	"adsync/internal/usecase"
	"adsync/pkg/logger"
	"adsync/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// handles HTTP requests
type HTTPHandlers struct {
	syncService      *usecase.SyncService
	dashboardService *usecase.DashboardService
	connections      domain.ConnectionRepository
	logger           *logger.Logger
	metrics          *metrics.Metrics
}

// creates new HTTP handlers
func NewHTTPHandlers(
	syncService *usecase.SyncService,
	dashboardService *usecase.DashboardService,
	connections domain.ConnectionRepository,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *HTTPHandlers {
	return &HTTPHandlers{
		syncService:      syncService,
		dashboardService: dashboardService,
		connections:      connections,
		logger:           logger,
		metrics:          metrics,
	}
}

type syncRunRequest struct {
	WorkspaceID string `json:"workspace_id" binding:"required"`
	Since       string `json:"since"`
	Until       string `json:"until"`
	Mode        string `json:"mode"`
	Source      string `json:"source"`
	MaxAttempts int    `json:"max_attempts"`
	IntervalMs  int    `json:"interval_ms"`
}

// SyncRun triggers one sync for a workspace connection.
func (h *HTTPHandlers) SyncRun(c *gin.Context) {
	ctx := c.Request.Context()

	var req syncRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"ok":    false,
			"step":  "validate",
			"error": err.Error(),
		})
		return
	}

	mode, err := domain.ParseSyncMode(req.Mode)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"ok":    false,
			"step":  "validate",
			"error": err.Error(),
		})
		return
	}

	result, err := h.syncService.SyncOnce(ctx, req.WorkspaceID,
		domain.DateRange{Since: req.Since, Until: req.Until}, mode,
		usecase.SyncOptions{
			Source:      req.Source,
			MaxAttempts: req.MaxAttempts,
			IntervalMs:  req.IntervalMs,
		})

	switch {
	case err != nil:
		h.logger.WithContext(ctx).WithError(err).WithField("step", result.Step).Error("Sync run failed")
		c.JSON(statusForStep(result.Step), result)
	case !result.OK:
		// Report not ready yet: bad-gateway semantics plus retry hints.
		c.JSON(http.StatusBadGateway, result)
	default:
		c.JSON(http.StatusOK, result)
	}
}

// statusForStep maps the failed step onto the public status contract:
// configuration problems are the caller's to fix (400), lock contention
// is a conflict, everything else is an internal failure.
func statusForStep(step string) int {
	switch step {
	case "connection", "validate", "credentials":
		return http.StatusBadRequest
	case "lock":
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// UploadCSV ingests an uploaded report through the sync pipeline's
// parse/rollup/upsert path.
func (h *HTTPHandlers) UploadCSV(c *gin.Context) {
	ctx := c.Request.Context()

	workspaceID := c.Query("workspace_id")
	if workspaceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "workspace_id parameter is required"})
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil || len(body) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must contain CSV text"})
		return
	}

	days, err := h.syncService.IngestCSV(ctx, workspaceID, c.Query("source"), string(body))
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("CSV upload failed")
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "upserted_days": days})
}

// GetConnections returns the audit-trail view of a workspace's connections.
func (h *HTTPHandlers) GetConnections(c *gin.Context) {
	ctx := c.Request.Context()
	workspaceID := c.Param("workspace")

	conns, err := h.connections.ListAll(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var out []*domain.Connection
	for _, conn := range conns {
		if conn.WorkspaceID == workspaceID {
			out = append(out, conn)
		}
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

func (h *HTTPHandlers) GetSummary(c *gin.Context) {
	ws, since, until, ok := h.dashboardParams(c)
	if !ok {
		return
	}
	totals, err := h.dashboardService.Summary(c.Request.Context(), ws, since, until)
	if err != nil {
		h.dashboardError(c, err)
		return
	}
	c.JSON(http.StatusOK, totals)
}

func (h *HTTPHandlers) GetBySource(c *gin.Context) {
	h.groupEndpoint(c, h.dashboardService.BySource)
}

func (h *HTTPHandlers) GetByDevice(c *gin.Context) {
	h.groupEndpoint(c, h.dashboardService.ByDevice)
}

func (h *HTTPHandlers) GetByCampaign(c *gin.Context) {
	h.groupEndpoint(c, h.dashboardService.ByCampaign)
}

func (h *HTTPHandlers) GetByKeyword(c *gin.Context) {
	h.groupEndpoint(c, h.dashboardService.ByKeyword)
}

func (h *HTTPHandlers) GetByCreative(c *gin.Context) {
	h.groupEndpoint(c, h.dashboardService.ByCreative)
}

func (h *HTTPHandlers) groupEndpoint(c *gin.Context, load func(ctx context.Context, ws, since, until string) ([]aggregate.GroupRow, error)) {
	ws, since, until, ok := h.dashboardParams(c)
	if !ok {
		return
	}
	groups, err := load(c.Request.Context(), ws, since, until)
	if err != nil {
		h.dashboardError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": groups})
}

func (h *HTTPHandlers) GetWeekly(c *gin.Context) {
	ws, since, until, ok := h.dashboardParams(c)
	if !ok {
		return
	}
	weeks, err := h.dashboardService.Weekly(c.Request.Context(), ws, since, until)
	if err != nil {
		h.dashboardError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": weeks})
}

func (h *HTTPHandlers) GetMonthly(c *gin.Context) {
	ws, since, until, ok := h.dashboardParams(c)
	if !ok {
		return
	}
	filters := aggregate.MonthFilters{
		Device:  c.Query("device"),
		Channel: c.Query("channel"),
	}
	months, err := h.dashboardService.Monthly(c.Request.Context(), ws, since, until, filters)
	if err != nil {
		h.dashboardError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": months})
}

func (h *HTTPHandlers) GetGoalProgress(c *gin.Context) {
	ws, since, until, ok := h.dashboardParams(c)
	if !ok {
		return
	}
	goal := domain.GoalState{
		Impressions: queryFloat(c, "goal_impressions"),
		Clicks:      queryFloat(c, "goal_clicks"),
		Cost:        queryFloat(c, "goal_cost"),
		Conversions: queryFloat(c, "goal_conversions"),
		Revenue:     queryFloat(c, "goal_revenue"),
	}
	progress, err := h.dashboardService.GoalProgress(c.Request.Context(), ws, since, until, goal)
	if err != nil {
		h.dashboardError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

// HealthCheck returns the health status of the service
func (h *HTTPHandlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "adsync",
	})
}

func (h *HTTPHandlers) dashboardParams(c *gin.Context) (workspaceID, since, until string, ok bool) {
	workspaceID = c.Query("workspace_id")
	if workspaceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "workspace_id parameter is required"})
		return "", "", "", false
	}
	since = c.Query("since")
	until = c.Query("until")
	for _, d := range []string{since, until} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(domain.DateFormat, d); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "dates must be in YYYY-MM-DD format"})
			return "", "", "", false
		}
	}
	return workspaceID, since, until, true
}

func (h *HTTPHandlers) dashboardError(c *gin.Context, err error) {
	h.logger.WithContext(c.Request.Context()).WithError(err).Error("Dashboard query failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func queryFloat(c *gin.Context, key string) float64 {
	v, err := strconv.ParseFloat(c.Query(key), 64)
	if err != nil {
		return 0
	}
	return v
}
