package domain

// Tab identifies one of the ads-analytics dashboard views
type Tab string

const (
	TabSummary Tab = "summary"
	TabMeta    Tab = "meta"
	TabGoogle  Tab = "google"
	TabPmax    Tab = "pmax"
)

// ValidTab reports whether t names a known dashboard tab
func ValidTab(t Tab) bool {
	switch t {
	case TabSummary, TabMeta, TabGoogle, TabPmax:
		return true
	}
	return false
}

// CompareMode selects how the previous-period window is derived
type CompareMode string

const (
	CompareNone   CompareMode = "none"
	CompareWoW    CompareMode = "wow"
	CompareMoM    CompareMode = "mom"
	CompareCustom CompareMode = "custom"
)

// ValidCompareMode reports whether m is a supported comparison mode
func ValidCompareMode(m CompareMode) bool {
	switch m {
	case CompareNone, CompareWoW, CompareMoM, CompareCustom:
		return true
	}
	return false
}

// Widget keys served by the upstream aggregation API
const (
	WidgetKPITotal        = "ads.kpi_total"
	WidgetKPIDaily        = "ads.kpi_daily"
	WidgetCampaigns       = "ads.campaigns"
	WidgetFunnel          = "ads.funnel"
	WidgetMetaCreatives   = "meta.creatives"
	WidgetMetaLibrary     = "meta.creative_library"
	WidgetMetaCampaigns   = "meta.campaigns"
	WidgetMetaAdsets      = "meta.adsets"
	WidgetGoogleCampaigns = "google.campaigns"
	WidgetGoogleKeywords  = "google.keywords"
	WidgetGoogleQuality   = "google.quality"
	WidgetPmaxCampaigns   = "pmax.campaigns"
	WidgetPmaxGroups      = "pmax.asset_groups"
)

// CompareAliasPrefix marks a widget requested over the shifted window
const CompareAliasPrefix = "compare."

// WidgetRequest asks for one named server-side aggregate
type WidgetRequest struct {
	Key     string         `json:"key"`
	Alias   string         `json:"alias,omitempty"`
	Filters map[string]any `json:"filters"`
	OrderBy string         `json:"order_by,omitempty"`
	Limit   int            `json:"limit,omitempty"`
}

// Name returns the identifier a response is keyed by in a batch
func (r WidgetRequest) Name() string {
	if r.Alias != "" {
		return r.Alias
	}
	return r.Key
}

// WidgetMeta carries optional metadata attached by the upstream API
type WidgetMeta struct {
	SupportedFilters []string `json:"supported_filters,omitempty"`
	Currency         string   `json:"currency,omitempty"`
}

// WidgetResponse is the result of a single widget request.
// MissingSource means the server-side aggregate does not exist, which is a
// degraded state distinct from an existing aggregate with zero rows.
type WidgetResponse struct {
	Key           string      `json:"key"`
	Rows          []Row       `json:"rows"`
	MissingSource bool        `json:"missing_source"`
	Meta          *WidgetMeta `json:"meta,omitempty"`

	// Failed is set locally when the fetch itself failed; the widget degrades
	// to empty rows without aborting its siblings
	Failed bool `json:"-"`
}

// BatchPlan is the ordered widget set to issue for one view render
type BatchPlan struct {
	Widgets       []WidgetRequest
	GlobalFilters map[string]any
	Tab           Tab
}

// Names returns the response keys of every planned widget, in plan order
func (p *BatchPlan) Names() []string {
	names := make([]string, len(p.Widgets))
	for i, w := range p.Widgets {
		names[i] = w.Name()
	}
	return names
}

// Window is an inclusive ISO date range
type Window struct {
	Start string `json:"start_date"`
	End   string `json:"end_date"`
}

// Complete reports whether both ends of the range are set
func (w Window) Complete() bool {
	return w.Start != "" && w.End != ""
}

// Filters are the global dashboard filters shared by every widget
type Filters struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	CityID    string `json:"city_id,omitempty"`
}

// Window returns the applied date range
func (f Filters) Window() Window {
	return Window{Start: f.StartDate, End: f.EndDate}
}
