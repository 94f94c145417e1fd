package delivery

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"adsight/internal/domain"
	"adsight/internal/usecase"
	"adsight/pkg/logger"
	"adsight/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// handles HTTP requests
type HTTPHandlers struct {
	sessions *usecase.SessionRegistry
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

// creates new HTTP handlers
func NewHTTPHandlers(sessions *usecase.SessionRegistry, logger *logger.Logger, metrics *metrics.Metrics) *HTTPHandlers {
	return &HTTPHandlers{
		sessions: sessions,
		logger:   logger,
		metrics:  metrics,
	}
}

// CreateSession allocates a dashboard session for one page lifetime
func (h *HTTPHandlers) CreateSession(c *gin.Context) {
	start := time.Now()
	h.metrics.IncHTTPRequestsInFlight()
	defer h.metrics.DecHTTPRequestsInFlight()

	requestID := uuid.New().String()
	id, _ := h.sessions.Create()

	h.metrics.RecordHTTPRequest("POST", "/dashboards", "201", time.Since(start))
	c.JSON(http.StatusCreated, gin.H{
		"session_id": id,
		"request_id": requestID,
	})
}

// GetSnapshot returns the derived view model for a session
func (h *HTTPHandlers) GetSnapshot(c *gin.Context) {
	start := time.Now()
	h.metrics.IncHTTPRequestsInFlight()
	defer h.metrics.DecHTTPRequestsInFlight()

	requestID := uuid.New().String()

	dash, ok := h.sessions.Get(c.Param("id"))
	if !ok {
		h.metrics.RecordHTTPRequest("GET", "/dashboards/:id", "404", time.Since(start))
		c.JSON(http.StatusNotFound, gin.H{
			"error":      "Unknown session",
			"request_id": requestID,
		})
		return
	}

	snapshot := dash.Snapshot()

	h.metrics.RecordHTTPRequest("GET", "/dashboards/:id", "200", time.Since(start))
	c.JSON(http.StatusOK, gin.H{
		"snapshot":   snapshot,
		"request_id": requestID,
	})
}

type filtersRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	CityID    string `json:"city_id"`
}

// ApplyFilters replaces the global filters and refetches
func (h *HTTPHandlers) ApplyFilters(c *gin.Context) {
	h.mutateSession(c, "PUT", "/dashboards/:id/filters", func(ctx context.Context, dash *usecase.Dashboard) error {
		var req filtersRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return errBadPayload(err)
		}
		return dash.ApplyFilters(ctx, domain.Filters{
			StartDate: req.StartDate,
			EndDate:   req.EndDate,
			CityID:    req.CityID,
		})
	})
}

type tabRequest struct {
	Tab string `json:"tab"`
}

// SetTab switches the active view
func (h *HTTPHandlers) SetTab(c *gin.Context) {
	h.mutateSession(c, "PUT", "/dashboards/:id/tab", func(ctx context.Context, dash *usecase.Dashboard) error {
		var req tabRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return errBadPayload(err)
		}
		return dash.SetTab(ctx, domain.Tab(req.Tab))
	})
}

type compareRequest struct {
	Mode   string         `json:"mode"`
	Window *domain.Window `json:"window,omitempty"`
}

// SetCompareMode changes the period-over-period comparison mode
func (h *HTTPHandlers) SetCompareMode(c *gin.Context) {
	h.mutateSession(c, "PUT", "/dashboards/:id/compare", func(ctx context.Context, dash *usecase.Dashboard) error {
		var req compareRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return errBadPayload(err)
		}
		return dash.SetCompareMode(ctx, domain.CompareMode(req.Mode), req.Window)
	})
}

type widgetFilterRequest struct {
	Field string `json:"field"`
	Value any    `json:"value"`
}

// SetWidgetFilter records a per-widget mini-filter override
func (h *HTTPHandlers) SetWidgetFilter(c *gin.Context) {
	h.mutateSession(c, "PUT", "/dashboards/:id/widgets/:key/filter", func(ctx context.Context, dash *usecase.Dashboard) error {
		var req widgetFilterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return errBadPayload(err)
		}
		return dash.SetWidgetLocalFilter(ctx, c.Param("key"), req.Field, req.Value)
	})
}

// ToggleShowAll flips a table section between collapsed and expanded
func (h *HTTPHandlers) ToggleShowAll(c *gin.Context) {
	h.mutateSession(c, "POST", "/dashboards/:id/sections/:key/toggle", func(ctx context.Context, dash *usecase.Dashboard) error {
		return dash.ToggleShowAll(ctx, c.Param("key"))
	})
}

type searchRequest struct {
	Query string `json:"query"`
}

// SetSearch updates the debounced text filter; the refetch happens after the
// debounce interval, so the response is an acknowledgement only
func (h *HTTPHandlers) SetSearch(c *gin.Context) {
	start := time.Now()
	h.metrics.IncHTTPRequestsInFlight()
	defer h.metrics.DecHTTPRequestsInFlight()

	requestID := uuid.New().String()

	dash, ok := h.sessions.Get(c.Param("id"))
	if !ok {
		h.metrics.RecordHTTPRequest("PUT", "/dashboards/:id/search", "404", time.Since(start))
		c.JSON(http.StatusNotFound, gin.H{
			"error":      "Unknown session",
			"request_id": requestID,
		})
		return
	}

	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.metrics.RecordHTTPRequest("PUT", "/dashboards/:id/search", "400", time.Since(start))
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "Invalid payload",
			"message":    err.Error(),
			"request_id": requestID,
		})
		return
	}

	dash.SetSearch(req.Query)

	h.metrics.RecordHTTPRequest("PUT", "/dashboards/:id/search", "202", time.Since(start))
	c.JSON(http.StatusAccepted, gin.H{
		"message":    "Search filter scheduled",
		"request_id": requestID,
	})
}

// HealthCheck returns the health status of the service
func (h *HTTPHandlers) HealthCheck(c *gin.Context) {
	start := time.Now()
	h.metrics.IncHTTPRequestsInFlight()
	defer h.metrics.DecHTTPRequestsInFlight()

	requestID := uuid.New().String()

	health := gin.H{
		"status":     "healthy",
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"service":    "adsight",
		"version":    "1.0.0",
		"sessions":   h.sessions.Len(),
		"request_id": requestID,
	}

	h.metrics.RecordHTTPRequest("GET", "/health", "200", time.Since(start))
	c.JSON(http.StatusOK, health)
}

// GetAPIInfo returns API v1 information and available endpoints
func (h *HTTPHandlers) GetAPIInfo(c *gin.Context) {
	start := time.Now()
	h.metrics.IncHTTPRequestsInFlight()
	defer h.metrics.DecHTTPRequestsInFlight()

	requestID := uuid.New().String()

	apiInfo := gin.H{
		"api_version": "v1",
		"service":     "Ads Analytics Widget Engine",
		"version":     "1.0.0",
		"description": "Batch widget aggregation, KPI derivation and period comparison for ads dashboards",
		"endpoints": gin.H{
			"dashboards": gin.H{
				"create":        "POST /api/v1/dashboards",
				"snapshot":      "GET /api/v1/dashboards/:id",
				"filters":       "PUT /api/v1/dashboards/:id/filters",
				"tab":           "PUT /api/v1/dashboards/:id/tab",
				"compare":       "PUT /api/v1/dashboards/:id/compare",
				"widget_filter": "PUT /api/v1/dashboards/:id/widgets/:key/filter",
				"toggle":        "POST /api/v1/dashboards/:id/sections/:key/toggle",
				"search":        "PUT /api/v1/dashboards/:id/search",
			},
		},
		"kpi_metrics": gin.H{
			"ctr":     "Click-Through Rate (clicks / impressions)",
			"cpc":     "Cost Per Click (spend / clicks)",
			"cpa":     "Cost Per Acquisition (spend / leads)",
			"cpm":     "Cost Per Mille (spend / impressions * 1000)",
			"roas":    "Return on Ad Spend (revenue / spend)",
			"cac":     "Customer Acquisition Cost (spend / contracts)",
			"payback": "Payback rate (payments / revenue)",
		},
		"request_id": requestID,
	}

	h.metrics.RecordHTTPRequest("GET", "/api/v1", "200", time.Since(start))
	c.JSON(http.StatusOK, apiInfo)
}

// badPayloadError tags body-decode failures so mutateSession maps them to 400
type badPayloadError struct{ err error }

func (e badPayloadError) Error() string { return e.err.Error() }

func errBadPayload(err error) error { return badPayloadError{err: err} }

// mutateSession wraps the shared flow of every state-changing endpoint:
// session lookup, the mutation itself, error mapping, snapshot reply
func (h *HTTPHandlers) mutateSession(c *gin.Context, method, endpoint string, mutate func(context.Context, *usecase.Dashboard) error) {
	start := time.Now()
	h.metrics.IncHTTPRequestsInFlight()
	defer h.metrics.DecHTTPRequestsInFlight()

	requestID := uuid.New().String()
	ctx := context.WithValue(c.Request.Context(), logger.RequestIDKey, requestID)

	dash, ok := h.sessions.Get(c.Param("id"))
	if !ok {
		h.metrics.RecordHTTPRequest(method, endpoint, "404", time.Since(start))
		c.JSON(http.StatusNotFound, gin.H{
			"error":      "Unknown session",
			"request_id": requestID,
		})
		return
	}

	if err := mutate(ctx, dash); err != nil {
		var payloadErr badPayloadError
		status := http.StatusInternalServerError
		message := "Dashboard update failed"
		switch {
		case errors.As(err, &payloadErr):
			status = http.StatusBadRequest
			message = "Invalid payload"
		case errors.Is(err, usecase.ErrIncompleteRange):
			status = http.StatusUnprocessableEntity
			message = "Validation failed"
		}

		if status == http.StatusInternalServerError {
			h.logger.WithContext(ctx).WithError(err).Error("Dashboard update failed")
		}

		h.metrics.RecordHTTPRequest(method, endpoint, strconv.Itoa(status), time.Since(start))
		c.JSON(status, gin.H{
			"error":      message,
			"message":    err.Error(),
			"request_id": requestID,
		})
		return
	}

	h.metrics.RecordHTTPRequest(method, endpoint, "200", time.Since(start))
	c.JSON(http.StatusOK, gin.H{
		"snapshot":   dash.Snapshot(),
		"request_id": requestID,
	})
}
