package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTotalsAddDefaultsMissingFieldsToZero(t *testing.T) {
	var totals Totals
	totals.Add(Row{"spend": 100.0, "clicks": 10.0})
	totals.Add(Row{"cost": 50.0, "impressions": 1000.0, "revenue": "300"})

	assert.Equal(t, 150.0, totals.Spend)
	assert.Equal(t, 10.0, totals.Clicks)
	assert.Equal(t, 1000.0, totals.Impressions)
	assert.Equal(t, 300.0, totals.Revenue)
	assert.False(t, math.IsNaN(totals.Leads))
	assert.Equal(t, 0.0, totals.Leads)
}

func TestDeriveRatiosZeroDenominators(t *testing.T) {
	// everything zero: every ratio is unavailable, never 0 or Inf
	ratios := DeriveRatios(Totals{})

	assert.Nil(t, ratios.CTR)
	assert.Nil(t, ratios.CPC)
	assert.Nil(t, ratios.CPA)
	assert.Nil(t, ratios.CPM)
	assert.Nil(t, ratios.ROAS)
	assert.Nil(t, ratios.CAC)
	assert.Nil(t, ratios.Payback)
	assert.Nil(t, ratios.LinkRate)
	assert.Nil(t, ratios.RequestToContract)
}

func TestDeriveRatios(t *testing.T) {
	ratios := DeriveRatios(Totals{
		Spend:         200,
		Clicks:        100,
		Impressions:   10000,
		Leads:         20,
		PlatformLeads: 25,
		CRMRequests:   10,
		Contracts:     4,
		Revenue:       1000,
		Payments:      400,
	})

	require.NotNil(t, ratios.CTR)
	assert.InDelta(t, 0.01, *ratios.CTR, 1e-9)
	require.NotNil(t, ratios.CPC)
	assert.InDelta(t, 2.0, *ratios.CPC, 1e-9)
	require.NotNil(t, ratios.CPA)
	assert.InDelta(t, 10.0, *ratios.CPA, 1e-9)
	require.NotNil(t, ratios.CPM)
	assert.InDelta(t, 20.0, *ratios.CPM, 1e-9)
	require.NotNil(t, ratios.ROAS)
	assert.InDelta(t, 5.0, *ratios.ROAS, 1e-9)
	require.NotNil(t, ratios.CAC)
	assert.InDelta(t, 50.0, *ratios.CAC, 1e-9)
	require.NotNil(t, ratios.Payback)
	assert.InDelta(t, 0.4, *ratios.Payback, 1e-9)
	require.NotNil(t, ratios.LinkRate)
	assert.InDelta(t, 0.4, *ratios.LinkRate, 1e-9)
	require.NotNil(t, ratios.RequestToContract)
	assert.InDelta(t, 0.4, *ratios.RequestToContract, 1e-9)

	for _, v := range []*float64{ratios.CTR, ratios.CPC, ratios.CPA, ratios.CPM, ratios.ROAS} {
		assert.False(t, math.IsNaN(*v))
		assert.False(t, math.IsInf(*v, 0))
	}
}

func TestTotalsMetric(t *testing.T) {
	totals := Totals{Spend: 12, Revenue: 30}

	spend, ok := totals.Metric("spend")
	assert.True(t, ok)
	assert.Equal(t, 12.0, spend)

	_, ok = totals.Metric("unknown")
	assert.False(t, ok)

	// every listed metric name resolves
	for _, name := range TotalMetricNames {
		_, ok := totals.Metric(name)
		assert.True(t, ok, name)
	}
}
