package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adsight/internal/domain"
)

func newTestDashboard(t *testing.T, client domain.WidgetClient) *Dashboard {
	t.Helper()
	log := testLogger()
	m := testMetrics()
	orch := NewOrchestrator(NewBatchStrategy(client, log, m), log, m)
	return NewDashboard(NewPlanner(0, 0), orch, log, m, 10*time.Millisecond, time.Second)
}

func seededClient() *fakeClient {
	return &fakeClient{responses: map[string]domain.WidgetResponse{
		domain.WidgetKPITotal: {
			Key:  domain.WidgetKPITotal,
			Rows: []domain.Row{{"spend": 100.0, "clicks": 40.0, "impressions": 2000.0}},
			Meta: &domain.WidgetMeta{Currency: "EUR"},
		},
		domain.WidgetKPIDaily: {
			Key: domain.WidgetKPIDaily,
			Rows: []domain.Row{
				{"date": "2024-01-01", "spend": 40.0},
				{"date": "2024-01-02", "spend": 60.0},
			},
		},
		domain.CompareAliasPrefix + domain.WidgetKPIDaily: {
			Key: domain.WidgetKPIDaily,
			Rows: []domain.Row{
				{"date": "2023-12-25", "spend": 80.0},
			},
		},
		domain.WidgetCampaigns: {
			Key: domain.WidgetCampaigns,
			Rows: []domain.Row{
				{"ad_id": "1", "campaign_name": "Spring Sale", "spend": 60.0},
				{"ad_id": "2", "campaign_name": "Brand", "spend": 40.0},
			},
		},
	}}
}

func TestDashboardApplyFiltersRejectsIncompleteRange(t *testing.T) {
	d := newTestDashboard(t, seededClient())

	err := d.ApplyFilters(context.Background(), domain.Filters{StartDate: "2024-01-01"})

	assert.ErrorIs(t, err, ErrIncompleteRange)
	assert.Equal(t, uint64(0), d.Snapshot().Generation)
}

func TestDashboardApplyFiltersFetchesAndDerives(t *testing.T) {
	d := newTestDashboard(t, seededClient())

	err := d.ApplyFilters(context.Background(), testFilters())
	require.NoError(t, err)

	snap := d.Snapshot()
	assert.Equal(t, domain.TabSummary, snap.Tab)
	assert.Equal(t, 100.0, snap.Summary.Totals.Spend)
	assert.Equal(t, "EUR", snap.Currency)
	require.Len(t, snap.Summary.Trend, 2)
	require.Len(t, snap.Entities, 2)
	assert.Equal(t, "Spring Sale", snap.Entities[0].CampaignName)
}

func TestDashboardSetTabValidation(t *testing.T) {
	d := newTestDashboard(t, seededClient())

	assert.Error(t, d.SetTab(context.Background(), domain.Tab("billing")))
}

func TestDashboardSetCompareModeRequiresCompleteRange(t *testing.T) {
	d := newTestDashboard(t, seededClient())

	err := d.SetCompareMode(context.Background(), domain.CompareWoW, nil)
	assert.ErrorIs(t, err, ErrIncompleteRange)
}

func TestDashboardSetCompareModeCustomRequiresWindow(t *testing.T) {
	d := newTestDashboard(t, seededClient())
	require.NoError(t, d.ApplyFilters(context.Background(), testFilters()))

	assert.Error(t, d.SetCompareMode(context.Background(), domain.CompareCustom, nil))
	assert.Error(t, d.SetCompareMode(context.Background(), domain.CompareCustom, &domain.Window{Start: "2023-11-01"}))
}

func TestDashboardCompareDeltasPresent(t *testing.T) {
	d := newTestDashboard(t, seededClient())
	require.NoError(t, d.ApplyFilters(context.Background(), testFilters()))
	require.NoError(t, d.SetCompareMode(context.Background(), domain.CompareWoW, nil))

	snap := d.Snapshot()
	require.NotNil(t, snap.Compare)
	require.NotNil(t, snap.Compare["spend"].Delta)
	assert.InDelta(t, 20.0, *snap.Compare["spend"].Delta, 1e-9)
	assert.InDelta(t, 0.25, *snap.Compare["spend"].DeltaPct, 1e-9)
}

func TestDashboardCompareAbsentWhenComparisonWidgetFails(t *testing.T) {
	client := seededClient()
	delete(client.responses, domain.CompareAliasPrefix+domain.WidgetKPIDaily)

	d := newTestDashboard(t, client)
	require.NoError(t, d.ApplyFilters(context.Background(), testFilters()))
	require.NoError(t, d.SetCompareMode(context.Background(), domain.CompareWoW, nil))

	snap := d.Snapshot()
	// the comparison widget degraded, so no partial delta display
	assert.Nil(t, snap.Compare)
	assert.True(t, snap.Failed[domain.CompareAliasPrefix+domain.WidgetKPIDaily])
	// primary widgets still rendered
	assert.Equal(t, 100.0, snap.Summary.Totals.Spend)
}

func TestDashboardSnapshotMemoized(t *testing.T) {
	d := newTestDashboard(t, seededClient())
	require.NoError(t, d.ApplyFilters(context.Background(), testFilters()))

	first := d.Snapshot()
	second := d.Snapshot()
	assert.Same(t, first, second)

	// any state change invalidates the memo
	require.NoError(t, d.SetTab(context.Background(), domain.TabSummary))
	third := d.Snapshot()
	assert.NotSame(t, first, third)
}

func TestDashboardMissingSourceFlagged(t *testing.T) {
	client := seededClient()
	client.responses[domain.WidgetKPITotal] = domain.WidgetResponse{
		Key:           domain.WidgetKPITotal,
		MissingSource: true,
	}

	d := newTestDashboard(t, client)
	require.NoError(t, d.ApplyFilters(context.Background(), testFilters()))

	snap := d.Snapshot()
	assert.True(t, snap.Missing[domain.WidgetKPITotal])
	assert.True(t, snap.Summary.KPIDegraded)
	// totals rebuilt from daily rows
	assert.Equal(t, 100.0, snap.Summary.Totals.Spend)
}

func TestDashboardToggleShowAllExpandsLimit(t *testing.T) {
	d := newTestDashboard(t, seededClient())
	require.NoError(t, d.ApplyFilters(context.Background(), testFilters()))

	require.NoError(t, d.ToggleShowAll(context.Background(), "campaigns"))
	assert.True(t, d.State().ShowAll["campaigns"])

	require.NoError(t, d.ToggleShowAll(context.Background(), "campaigns"))
	assert.False(t, d.State().ShowAll["campaigns"])
}

func TestDashboardWidgetLocalFilterLifecycle(t *testing.T) {
	d := newTestDashboard(t, seededClient())
	require.NoError(t, d.ApplyFilters(context.Background(), testFilters()))

	require.NoError(t, d.SetWidgetLocalFilter(context.Background(), domain.WidgetCampaigns, "platform", "meta"))
	assert.Equal(t, "meta", d.State().Local[domain.WidgetCampaigns]["platform"])

	require.NoError(t, d.SetWidgetLocalFilter(context.Background(), domain.WidgetCampaigns, "platform", nil))
	_, present := d.State().Local[domain.WidgetCampaigns]["platform"]
	assert.False(t, present)

	assert.Error(t, d.SetWidgetLocalFilter(context.Background(), "", "platform", "meta"))
}

func TestDashboardSearchDebounce(t *testing.T) {
	d := newTestDashboard(t, seededClient())
	require.NoError(t, d.ApplyFilters(context.Background(), testFilters()))

	// rapid edits; only the last survives the debounce interval
	d.SetSearch("spr")
	d.SetSearch("spri")
	d.SetSearch("spring")

	require.Eventually(t, func() bool {
		return d.State().Search == "spring"
	}, time.Second, 5*time.Millisecond)

	snap := d.Snapshot()
	require.Len(t, snap.Entities, 1)
	assert.Equal(t, "Spring Sale", snap.Entities[0].CampaignName)
}

func TestDashboardSearchFilterCaseInsensitive(t *testing.T) {
	entities := []domain.MergedEntity{
		{Key: "1", Title: "Launch Video", CampaignName: "Spring Sale"},
		{Key: "2", Title: "Other", CampaignName: "Brand", AdsetName: "Broad Match"},
	}

	assert.Len(t, filterEntities(entities, "SPRING"), 1)
	assert.Len(t, filterEntities(entities, "broad"), 1)
	assert.Len(t, filterEntities(entities, ""), 2)
	assert.Empty(t, filterEntities(entities, "nonexistent"))
}
