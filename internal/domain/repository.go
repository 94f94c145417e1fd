package domain

import "context"

// interface for the upstream widget aggregation API
type WidgetClient interface {
	// FetchBatch issues every request in one call; the response map is keyed
	// by each widget's alias when set, otherwise its key.
	FetchBatch(ctx context.Context, widgets []WidgetRequest) (map[string]WidgetResponse, error)

	// FetchWidget issues a single widget request.
	FetchWidget(ctx context.Context, req WidgetRequest) (WidgetResponse, error)
}
