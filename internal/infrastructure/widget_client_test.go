package infrastructure

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adsight/internal/domain"
	"adsight/pkg/logger"
	"adsight/pkg/metrics"
)

func newTestClient(t *testing.T, baseURL string) *WidgetHTTPClient {
	t.Helper()
	return NewWidgetHTTPClient(baseURL, "test-key", 5*time.Second, 100, logger.New("error"), metrics.NewWith(prometheus.NewRegistry()))
}

func TestFetchBatchRoundTrip(t *testing.T) {
	var captured batchRequestPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/widgets/batch", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		json.NewEncoder(w).Encode(batchResponsePayload{Widgets: map[string]domain.WidgetResponse{
			domain.WidgetKPITotal: {Key: domain.WidgetKPITotal, Rows: []domain.Row{{"spend": 42.5}}},
			"compare." + domain.WidgetKPIDaily: {Key: domain.WidgetKPIDaily},
		}})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	requests := []domain.WidgetRequest{
		{Key: domain.WidgetKPITotal, Filters: map[string]any{"start_date": "2024-01-01", "end_date": "2024-01-07"}},
		{Key: domain.WidgetKPIDaily, Alias: "compare." + domain.WidgetKPIDaily},
	}

	responses, err := client.FetchBatch(context.Background(), requests)
	require.NoError(t, err)

	require.Len(t, captured.Widgets, 2)
	assert.Equal(t, "2024-01-01", captured.Widgets[0].Filters["start_date"])

	require.Contains(t, responses, domain.WidgetKPITotal)
	require.Len(t, responses[domain.WidgetKPITotal].Rows, 1)
	assert.Equal(t, 42.5, responses[domain.WidgetKPITotal].Rows[0].Float("spend"))
	assert.Contains(t, responses, "compare."+domain.WidgetKPIDaily)
}

func TestFetchWidgetRoundTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/widgets/query", r.URL.Path)

		var req domain.WidgetRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, domain.WidgetGoogleKeywords, req.Key)
		assert.Equal(t, 25, req.Limit)

		json.NewEncoder(w).Encode(domain.WidgetResponse{
			Key:  req.Key,
			Rows: []domain.Row{{"keyword": "running shoes", "clicks": 120.0}},
			Meta: &domain.WidgetMeta{Currency: "USD"},
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	resp, err := client.FetchWidget(context.Background(), domain.WidgetRequest{
		Key:   domain.WidgetGoogleKeywords,
		Limit: 25,
	})
	require.NoError(t, err)

	require.Len(t, resp.Rows, 1)
	assert.Equal(t, "running shoes", resp.Rows[0].String("keyword"))
	require.NotNil(t, resp.Meta)
	assert.Equal(t, "USD", resp.Meta.Currency)
}

func TestFetchWidgetMissingSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(domain.WidgetResponse{Key: domain.WidgetKPITotal, MissingSource: true})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	resp, err := client.FetchWidget(context.Background(), domain.WidgetRequest{Key: domain.WidgetKPITotal})
	require.NoError(t, err)
	assert.True(t, resp.MissingSource)
	assert.Empty(t, resp.Rows)
}

func TestFetchBatchUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.FetchBatch(context.Background(), []domain.WidgetRequest{{Key: domain.WidgetKPITotal}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestFetchWidgetMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.FetchWidget(context.Background(), domain.WidgetRequest{Key: domain.WidgetKPITotal})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse")
}

func TestFetchWidgetNoAuthHeaderWithoutKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(domain.WidgetResponse{Key: domain.WidgetKPITotal})
	}))
	defer server.Close()

	client := NewWidgetHTTPClient(server.URL, "", 5*time.Second, 100, logger.New("error"), metrics.NewWith(prometheus.NewRegistry()))

	_, err := client.FetchWidget(context.Background(), domain.WidgetRequest{Key: domain.WidgetKPITotal})
	require.NoError(t, err)
}

func TestFetchWidgetContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.FetchWidget(ctx, domain.WidgetRequest{Key: domain.WidgetKPITotal})
	require.Error(t, err)
}
