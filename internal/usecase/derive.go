package usecase

import (
	"math"
	"sort"

	"adsight/internal/domain"
)

// tolerance below which a lead count is considered a whole number
const fractionEpsilon = 1e-9

// TrendPoint is one date bucket of the trend series
type TrendPoint struct {
	Date        string  `json:"date"`
	Spend       float64 `json:"spend"`
	Clicks      float64 `json:"clicks"`
	Impressions float64 `json:"impressions"`
	Leads       float64 `json:"leads"`
	Revenue     float64 `json:"revenue"`
}

// Sparklines are per-metric value arrays aligned with the trend series,
// ready for inline chart rendering
type Sparklines struct {
	Spend       []float64 `json:"spend"`
	Clicks      []float64 `json:"clicks"`
	Impressions []float64 `json:"impressions"`
	Leads       []float64 `json:"leads"`
	Revenue     []float64 `json:"revenue"`
}

// Summary is the derived KPI view model for one period
type Summary struct {
	Totals domain.Totals `json:"totals"`
	Ratios domain.Ratios `json:"ratios"`
	Trend  []TrendPoint  `json:"trend"`
	Spark  Sparklines    `json:"sparklines"`

	// KPIDegraded marks totals rebuilt from daily-grain rows because the
	// primary KPI source is missing server-side
	KPIDegraded bool `json:"kpi_degraded"`

	// ModelledLeads marks fractional platform lead counts (attribution
	// splits) so the UI can annotate instead of silently rounding
	ModelledLeads bool `json:"modelled_leads"`
}

// DeriveSummary computes totals, ratio KPIs and the time-bucketed trend from
// the primary KPI widget and the daily-grain widget. When the KPI source
// reports missing, totals fall back to the daily rows with KPIDegraded set;
// the view keeps rendering from the lower-granularity fields.
func DeriveSummary(kpi, daily *domain.WidgetResponse) Summary {
	var summary Summary

	kpiRows := responseRows(kpi)
	dailyRows := responseRows(daily)

	switch {
	case kpi != nil && !kpi.MissingSource:
		summary.Totals = reduceTotals(kpiRows)
		summary.ModelledLeads = hasFractionalLeads(kpiRows)
	default:
		summary.Totals = reduceTotals(dailyRows)
		summary.ModelledLeads = hasFractionalLeads(dailyRows)
		summary.KPIDegraded = true
	}

	summary.Ratios = domain.DeriveRatios(summary.Totals)
	summary.Trend = deriveTrend(dailyRows)
	summary.Spark = deriveSparklines(summary.Trend)
	return summary
}

func responseRows(resp *domain.WidgetResponse) []domain.Row {
	if resp == nil {
		return nil
	}
	return resp.Rows
}

func reduceTotals(rows []domain.Row) domain.Totals {
	var totals domain.Totals
	for _, row := range rows {
		totals.Add(row)
	}
	return totals
}

// deriveTrend buckets rows by their date key, summing fields per bucket and
// sorting ascending by string comparison. Date keys are taken as delivered;
// no timezone normalization happens past the upstream ISO date.
func deriveTrend(rows []domain.Row) []TrendPoint {
	buckets := make(map[string]*TrendPoint)
	for _, row := range rows {
		key := row.DateKey()
		if key == "" {
			continue
		}
		point, ok := buckets[key]
		if !ok {
			point = &TrendPoint{Date: key}
			buckets[key] = point
		}
		point.Spend += row.Float("spend", "cost")
		point.Clicks += row.Float("clicks")
		point.Impressions += row.Float("impressions")
		point.Leads += row.Float("leads", "conversions")
		point.Revenue += row.Float("revenue")
	}

	trend := make([]TrendPoint, 0, len(buckets))
	for _, point := range buckets {
		trend = append(trend, *point)
	}
	sort.Slice(trend, func(i, j int) bool {
		return trend[i].Date < trend[j].Date
	})
	return trend
}

func deriveSparklines(trend []TrendPoint) Sparklines {
	spark := Sparklines{
		Spend:       make([]float64, len(trend)),
		Clicks:      make([]float64, len(trend)),
		Impressions: make([]float64, len(trend)),
		Leads:       make([]float64, len(trend)),
		Revenue:     make([]float64, len(trend)),
	}
	for i, point := range trend {
		spark.Spend[i] = point.Spend
		spark.Clicks[i] = point.Clicks
		spark.Impressions[i] = point.Impressions
		spark.Leads[i] = point.Leads
		spark.Revenue[i] = point.Revenue
	}
	return spark
}

// hasFractionalLeads detects attribution-modelled lead counts
func hasFractionalLeads(rows []domain.Row) bool {
	for _, row := range rows {
		leads := row.Float("leads", "conversions")
		if math.Abs(math.Mod(leads, 1)) > fractionEpsilon {
			return true
		}
	}
	return false
}
