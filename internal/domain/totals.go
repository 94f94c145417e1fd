package domain

// Totals are running sums over a widget row set. Built by linear reduction;
// absent fields contribute 0 so a partially-populated row never poisons the
// accumulator with NaN.
type Totals struct {
	Spend           float64 `json:"spend"`
	Clicks          float64 `json:"clicks"`
	Impressions     float64 `json:"impressions"`
	Leads           float64 `json:"leads"`
	PlatformLeads   float64 `json:"platform_leads"`
	CRMRequests     float64 `json:"crm_requests"`
	Contracts       float64 `json:"contracts"`
	Revenue         float64 `json:"revenue"`
	Payments        float64 `json:"payments"`
	ConversionValue float64 `json:"conversion_value"`
}

// Add folds one row into the accumulator
func (t *Totals) Add(row Row) {
	t.Spend += row.Float("spend", "cost")
	t.Clicks += row.Float("clicks")
	t.Impressions += row.Float("impressions")
	t.Leads += row.Float("leads", "conversions")
	t.PlatformLeads += row.Float("platform_leads")
	t.CRMRequests += row.Float("crm_requests", "requests")
	t.Contracts += row.Float("contracts")
	t.Revenue += row.Float("revenue")
	t.Payments += row.Float("payments")
	t.ConversionValue += row.Float("conversion_value")
}

// IsZero reports whether nothing has been accumulated
func (t Totals) IsZero() bool {
	return t == Totals{}
}

// Metric returns a named field of the accumulator. Unknown names return
// 0 and false.
func (t Totals) Metric(name string) (float64, bool) {
	switch name {
	case "spend":
		return t.Spend, true
	case "clicks":
		return t.Clicks, true
	case "impressions":
		return t.Impressions, true
	case "leads":
		return t.Leads, true
	case "platform_leads":
		return t.PlatformLeads, true
	case "crm_requests":
		return t.CRMRequests, true
	case "contracts":
		return t.Contracts, true
	case "revenue":
		return t.Revenue, true
	case "payments":
		return t.Payments, true
	case "conversion_value":
		return t.ConversionValue, true
	}
	return 0, false
}

// TotalMetricNames lists the accumulator fields in stable presentation order
var TotalMetricNames = []string{
	"spend",
	"clicks",
	"impressions",
	"leads",
	"platform_leads",
	"crm_requests",
	"contracts",
	"revenue",
	"payments",
	"conversion_value",
}

// Ratios are the derived KPI set. A nil field means the denominator was zero
// and the metric is unavailable, never 0 and never Inf.
type Ratios struct {
	CTR               *float64 `json:"ctr"`
	CPC               *float64 `json:"cpc"`
	CPA               *float64 `json:"cpa"`
	CPM               *float64 `json:"cpm"`
	ROAS              *float64 `json:"roas"`
	CAC               *float64 `json:"cac"`
	Payback           *float64 `json:"payback"`
	LinkRate          *float64 `json:"link_rate"`
	RequestToContract *float64 `json:"request_to_contract"`
}

// Ratio divides num by den with a divide-by-zero guard
func Ratio(num, den float64) *float64 {
	if den == 0 {
		return nil
	}
	v := num / den
	return &v
}

// DeriveRatios computes the KPI set from raw totals
func DeriveRatios(t Totals) Ratios {
	return Ratios{
		CTR:               Ratio(t.Clicks, t.Impressions),
		CPC:               Ratio(t.Spend, t.Clicks),
		CPA:               Ratio(t.Spend, t.Leads),
		CPM:               scale(Ratio(t.Spend, t.Impressions), 1000),
		ROAS:              Ratio(t.Revenue, t.Spend),
		CAC:               Ratio(t.Spend, t.Contracts),
		Payback:           Ratio(t.Payments, t.Revenue),
		LinkRate:          Ratio(t.CRMRequests, t.PlatformLeads),
		RequestToContract: Ratio(t.Contracts, t.CRMRequests),
	}
}

func scale(v *float64, factor float64) *float64 {
	if v == nil {
		return nil
	}
	scaled := *v * factor
	return &scaled
}

// Delta is a period-over-period change for one metric. Both fields are nil
// when the previous value is missing or zero; the engine reports the change
// as unavailable instead of dividing by zero.
type Delta struct {
	Delta    *float64 `json:"delta"`
	DeltaPct *float64 `json:"delta_pct"`
}
