package infrastructure

import (
	"context"
	"sync"

	"adsight/internal/domain"
)

// MemoryWidgetClient implements domain.WidgetClient from in-memory fixtures,
// for tests and the local demo mode. Rows are keyed by widget key; aliases
// resolve against the underlying key so comparison requests reuse the same
// fixture with their own window filter applied.
type MemoryWidgetClient struct {
	mu      sync.RWMutex
	rows    map[string][]domain.Row
	missing map[string]bool
	meta    map[string]*domain.WidgetMeta
}

// NewMemoryWidgetClient creates an empty fixture client
func NewMemoryWidgetClient() *MemoryWidgetClient {
	return &MemoryWidgetClient{
		rows:    make(map[string][]domain.Row),
		missing: make(map[string]bool),
		meta:    make(map[string]*domain.WidgetMeta),
	}
}

// Seed replaces the fixture rows for one widget key
func (c *MemoryWidgetClient) Seed(key string, rows []domain.Row) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rows[key] = rows
}

// SetMissing marks a widget key as having no server-side source
func (c *MemoryWidgetClient) SetMissing(key string, missing bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.missing[key] = missing
}

// SetMeta attaches response metadata for one widget key
func (c *MemoryWidgetClient) SetMeta(key string, meta *domain.WidgetMeta) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.meta[key] = meta
}

// FetchBatch resolves every request against the fixtures
func (c *MemoryWidgetClient) FetchBatch(ctx context.Context, widgets []domain.WidgetRequest) (map[string]domain.WidgetResponse, error) {
	out := make(map[string]domain.WidgetResponse, len(widgets))
	for _, req := range widgets {
		resp, err := c.FetchWidget(ctx, req)
		if err != nil {
			return nil, err
		}
		out[req.Name()] = resp
	}
	return out, nil
}

// FetchWidget resolves one request, honoring the request's date window
// filters and row limit
func (c *MemoryWidgetClient) FetchWidget(ctx context.Context, req domain.WidgetRequest) (domain.WidgetResponse, error) {
	if err := ctx.Err(); err != nil {
		return domain.WidgetResponse{}, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	resp := domain.WidgetResponse{
		Key:           req.Key,
		MissingSource: c.missing[req.Key],
		Meta:          c.meta[req.Key],
	}
	if resp.MissingSource {
		return resp, nil
	}

	start, _ := req.Filters["start_date"].(string)
	end, _ := req.Filters["end_date"].(string)

	for _, row := range c.rows[req.Key] {
		if date := row.DateKey(); date != "" && start != "" && end != "" {
			if date < start || date > end {
				continue
			}
		}
		resp.Rows = append(resp.Rows, cloneRow(row))
		if req.Limit > 0 && len(resp.Rows) >= req.Limit {
			break
		}
	}
	return resp, nil
}

func cloneRow(row domain.Row) domain.Row {
	out := make(domain.Row, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}
