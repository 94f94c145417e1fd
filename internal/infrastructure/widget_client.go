package infrastructure

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"context"

	"adsight/internal/domain"
	"adsight/pkg/logger"
	"adsight/pkg/metrics"

	"golang.org/x/time/rate"
)

// implements domain.WidgetClient over the upstream REST aggregation API
type WidgetHTTPClient struct {
	client      *http.Client
	baseURL     string
	apiKey      string
	logger      *logger.Logger
	metrics     *metrics.Metrics
	rateLimiter *rate.Limiter
}

// creates a new widget API client
func NewWidgetHTTPClient(baseURL, apiKey string, timeout time.Duration, ratePerSecond int, logger *logger.Logger, metrics *metrics.Metrics) *WidgetHTTPClient {
	if ratePerSecond <= 0 {
		ratePerSecond = 100
	}
	return &WidgetHTTPClient{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL:     baseURL,
		apiKey:      apiKey,
		logger:      logger,
		metrics:     metrics,
		rateLimiter: rate.NewLimiter(rate.Limit(ratePerSecond), 10),
	}
}

type batchRequestPayload struct {
	Widgets []domain.WidgetRequest `json:"widgets"`
}

type batchResponsePayload struct {
	Widgets map[string]domain.WidgetResponse `json:"widgets"`
}

// FetchBatch issues the whole widget set as one call; the response is keyed
// by alias when set, otherwise by widget key
func (c *WidgetHTTPClient) FetchBatch(ctx context.Context, widgets []domain.WidgetRequest) (map[string]domain.WidgetResponse, error) {
	start := time.Now()

	if err := c.rateLimiter.Wait(ctx); err != nil {
		c.metrics.RecordWidgetFetchFailure("batch", "rate_limit")
		return nil, fmt.Errorf("rate limit exceeded: %w", err)
	}

	var payload batchResponsePayload
	if err := c.post(ctx, "/api/v1/widgets/batch", batchRequestPayload{Widgets: widgets}, &payload); err != nil {
		c.metrics.RecordWidgetFetch("batch", "error", time.Since(start))
		return nil, fmt.Errorf("batch widget fetch: %w", err)
	}

	c.metrics.RecordWidgetFetch("batch", "success", time.Since(start))

	c.logger.WithContext(ctx).WithFields(map[string]any{
		"widgets":  len(widgets),
		"returned": len(payload.Widgets),
		"duration": time.Since(start),
	}).Info("Fetched widget batch")

	return payload.Widgets, nil
}

// FetchWidget issues a single widget request, the per-widget fallback path
func (c *WidgetHTTPClient) FetchWidget(ctx context.Context, req domain.WidgetRequest) (domain.WidgetResponse, error) {
	start := time.Now()
	name := req.Name()

	if err := c.rateLimiter.Wait(ctx); err != nil {
		c.metrics.RecordWidgetFetchFailure(name, "rate_limit")
		return domain.WidgetResponse{}, fmt.Errorf("rate limit exceeded: %w", err)
	}

	var resp domain.WidgetResponse
	if err := c.post(ctx, "/api/v1/widgets/query", req, &resp); err != nil {
		c.metrics.RecordWidgetFetch(name, "error", time.Since(start))
		return domain.WidgetResponse{}, fmt.Errorf("widget %s fetch: %w", name, err)
	}

	c.metrics.RecordWidgetFetch(name, "success", time.Since(start))

	c.logger.WithContext(ctx).WithFields(map[string]any{
		"widget":   name,
		"rows":     len(resp.Rows),
		"missing":  resp.MissingSource,
		"duration": time.Since(start),
	}).Debug("Fetched widget")

	return resp, nil
}

func (c *WidgetHTTPClient) post(ctx context.Context, path string, body, target any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		c.metrics.RecordWidgetFetchFailure(path, "json_marshal")
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		c.metrics.RecordWidgetFetchFailure(path, "request_creation")
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.metrics.RecordWidgetFetchFailure(path, "network_error")
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.RecordWidgetFetchFailure(path, fmt.Sprintf("status_%d", resp.StatusCode))
		return fmt.Errorf("widget API returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.RecordWidgetFetchFailure(path, "read_body")
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if err := json.Unmarshal(raw, target); err != nil {
		c.metrics.RecordWidgetFetchFailure(path, "json_parse")
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return nil
}
