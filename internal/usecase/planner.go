package usecase

import (
	"adsight/internal/domain"
)

// row limits for table widgets; snapshot widgets carry their own fixed limits
const (
	DefaultCollapsedLimit = 50
	DefaultExpandedLimit  = 200

	keywordSnapshotLimit = 25
	funnelSnapshotLimit  = 20
	qualitySnapshotLimit = 10
)

// Toggles are the per-section "show all" switches keyed by section name
type Toggles map[string]bool

// tabWidget describes one tab-specific widget the planner appends
type tabWidget struct {
	key     string
	section string // section whose toggle controls the limit; "" = fixed
	fixed   int
	orderBy string
}

// ordered widget sets per tab; order is part of the planner contract
var tabWidgets = map[domain.Tab][]tabWidget{
	domain.TabSummary: {
		{key: domain.WidgetCampaigns, section: "campaigns", orderBy: "spend desc"},
		{key: domain.WidgetFunnel, fixed: funnelSnapshotLimit},
	},
	domain.TabMeta: {
		{key: domain.WidgetMetaCreatives, section: "creatives", orderBy: "spend desc"},
		{key: domain.WidgetMetaLibrary, fixed: DefaultExpandedLimit},
		{key: domain.WidgetMetaCampaigns, section: "meta_campaigns", orderBy: "spend desc"},
		{key: domain.WidgetMetaAdsets, section: "meta_adsets", orderBy: "spend desc"},
	},
	domain.TabGoogle: {
		{key: domain.WidgetGoogleCampaigns, section: "google_campaigns", orderBy: "spend desc"},
		{key: domain.WidgetGoogleKeywords, fixed: keywordSnapshotLimit, orderBy: "clicks desc"},
		{key: domain.WidgetGoogleQuality, fixed: qualitySnapshotLimit},
	},
	domain.TabPmax: {
		{key: domain.WidgetPmaxCampaigns, section: "pmax_campaigns", orderBy: "spend desc"},
		{key: domain.WidgetPmaxGroups, section: "pmax_groups", orderBy: "spend desc"},
	},
}

// Planner builds the ordered widget request set for one view render
type Planner struct {
	collapsedLimit int
	expandedLimit  int
}

// NewPlanner creates a planner; non-positive limits fall back to defaults
func NewPlanner(collapsedLimit, expandedLimit int) *Planner {
	if collapsedLimit <= 0 {
		collapsedLimit = DefaultCollapsedLimit
	}
	if expandedLimit <= 0 {
		expandedLimit = DefaultExpandedLimit
	}
	return &Planner{collapsedLimit: collapsedLimit, expandedLimit: expandedLimit}
}

// Plan assembles the widget batch for the active tab under the applied
// filters. Returns nil when the date range is incomplete: no fetch may be
// issued without both ends of the window. For identical inputs the returned
// widget list is structurally identical, which request deduplication and
// fixtures rely on.
func (p *Planner) Plan(tab domain.Tab, filters domain.Filters, mode domain.CompareMode, compareWindow *domain.Window, toggles Toggles, local map[string]map[string]any) *domain.BatchPlan {
	if !filters.Window().Complete() {
		return nil
	}

	global := ResolveFilters(filters, nil)
	plan := &domain.BatchPlan{Tab: tab, GlobalFilters: global}

	// base widgets present on every tab
	plan.Widgets = append(plan.Widgets, domain.WidgetRequest{
		Key:     domain.WidgetKPITotal,
		Filters: ResolveFilters(filters, local[domain.WidgetKPITotal]),
	})
	plan.Widgets = append(plan.Widgets, domain.WidgetRequest{
		Key:     domain.WidgetKPIDaily,
		Filters: ResolveFilters(filters, local[domain.WidgetKPIDaily]),
		OrderBy: "spend desc",
	})

	// comparison request: same daily-grain key over the shifted window, the
	// only widget whose window differs from the applied filters
	if mode != domain.CompareNone {
		if window, ok := previousWindow(mode, filters.Window(), compareWindow); ok {
			shifted := filters
			shifted.StartDate = window.Start
			shifted.EndDate = window.End
			plan.Widgets = append(plan.Widgets, domain.WidgetRequest{
				Key:     domain.WidgetKPIDaily,
				Alias:   domain.CompareAliasPrefix + domain.WidgetKPIDaily,
				Filters: ResolveFilters(shifted, local[domain.WidgetKPIDaily]),
				OrderBy: "spend desc",
			})
		}
	}

	for _, tw := range tabWidgets[tab] {
		limit := tw.fixed
		if tw.section != "" {
			limit = p.collapsedLimit
			if toggles[tw.section] {
				limit = p.expandedLimit
			}
		}
		plan.Widgets = append(plan.Widgets, domain.WidgetRequest{
			Key:     tw.key,
			Filters: ResolveFilters(filters, local[tw.key]),
			OrderBy: tw.orderBy,
			Limit:   limit,
		})
	}

	return plan
}

// previousWindow resolves the comparison window: an explicit custom window
// when supplied, otherwise the applied range shifted by the mode offset
func previousWindow(mode domain.CompareMode, applied domain.Window, custom *domain.Window) (domain.Window, bool) {
	if mode == domain.CompareCustom {
		if custom != nil && custom.Complete() {
			return *custom, true
		}
		return domain.Window{}, false
	}
	window, err := ShiftWindow(mode, applied)
	if err != nil {
		return domain.Window{}, false
	}
	return window, true
}
