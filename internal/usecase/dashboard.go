package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"adsight/internal/domain"
	"adsight/pkg/logger"
	"adsight/pkg/metrics"
)

// ErrIncompleteRange rejects any operation that would fire a fetch without
// both ends of the date range set
var ErrIncompleteRange = errors.New("date range must include both start and end dates")

// DefaultSearchDebounce is the delay before a text-filter edit replans,
// the only timer in the engine
const DefaultSearchDebounce = 300 * time.Millisecond

// DashboardState is the explicit planner input owned by one controller
type DashboardState struct {
	Filters       domain.Filters
	Tab           domain.Tab
	CompareMode   domain.CompareMode
	CompareWindow *domain.Window
	Local         map[string]map[string]any // widget key -> local filter overrides
	ShowAll       Toggles
	Search        string
}

// entity row sources per tab: the primary table widget and, when one exists,
// the richer companion dataset used for preview/title backfill
var tabEntitySources = map[domain.Tab]struct{ primary, companion string }{
	domain.TabSummary: {primary: domain.WidgetCampaigns},
	domain.TabMeta:    {primary: domain.WidgetMetaCreatives, companion: domain.WidgetMetaLibrary},
	domain.TabGoogle:  {primary: domain.WidgetGoogleCampaigns},
	domain.TabPmax:    {primary: domain.WidgetPmaxCampaigns},
}

// Snapshot is the derived, read-only view model handed to presentation
type Snapshot struct {
	Tab         domain.Tab              `json:"tab"`
	CompareMode domain.CompareMode      `json:"compare_mode"`
	Filters     domain.Filters          `json:"filters"`
	Summary     Summary                 `json:"summary"`
	Compare     map[string]domain.Delta `json:"compare,omitempty"`
	Entities    []domain.MergedEntity   `json:"entities"`
	Loading     map[string]bool         `json:"loading"`
	Missing     map[string]bool         `json:"missing"`
	Failed      map[string]bool         `json:"failed"`
	Currency    string                  `json:"currency,omitempty"`
	Generation  uint64                  `json:"generation"`
}

// Dashboard owns one page's view state and its derived snapshot. All state
// lives for a single browsing session; every filter or tab change replans
// and refetches from scratch under a fresh generation.
type Dashboard struct {
	planner *Planner
	orch    *Orchestrator
	logger  *logger.Logger
	metrics *metrics.Metrics

	debounce       time.Duration
	refreshTimeout time.Duration

	mu        sync.Mutex
	state     DashboardState
	stateRev  uint64
	responses map[string]domain.WidgetResponse
	respGen   uint64

	snapshot    *Snapshot
	snapKey     string
	searchTimer *time.Timer
}

// NewDashboard creates a controller with default summary-tab state
func NewDashboard(planner *Planner, orch *Orchestrator, logger *logger.Logger, metrics *metrics.Metrics, debounce, refreshTimeout time.Duration) *Dashboard {
	if debounce <= 0 {
		debounce = DefaultSearchDebounce
	}
	if refreshTimeout <= 0 {
		refreshTimeout = 30 * time.Second
	}
	return &Dashboard{
		planner:        planner,
		orch:           orch,
		logger:         logger,
		metrics:        metrics,
		debounce:       debounce,
		refreshTimeout: refreshTimeout,
		state: DashboardState{
			Tab:         domain.TabSummary,
			CompareMode: domain.CompareNone,
			Local:       make(map[string]map[string]any),
			ShowAll:     make(Toggles),
		},
		responses: make(map[string]domain.WidgetResponse),
	}
}

// State returns a copy of the current planner input
func (d *Dashboard) State() DashboardState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// ApplyFilters replaces the global filters and refetches. An incomplete date
// range is rejected before any network call happens.
func (d *Dashboard) ApplyFilters(ctx context.Context, filters domain.Filters) error {
	if !filters.Window().Complete() {
		return ErrIncompleteRange
	}
	d.mutate(func(s *DashboardState) {
		s.Filters = filters
	})
	return d.Refresh(ctx)
}

// SetTab switches the active view and refetches its widget set
func (d *Dashboard) SetTab(ctx context.Context, tab domain.Tab) error {
	if !domain.ValidTab(tab) {
		return fmt.Errorf("unknown tab %q", tab)
	}
	d.mutate(func(s *DashboardState) {
		s.Tab = tab
	})
	return d.Refresh(ctx)
}

// SetCompareMode changes the comparison mode. Custom mode carries an
// explicit previous window; derived modes require a complete applied range.
func (d *Dashboard) SetCompareMode(ctx context.Context, mode domain.CompareMode, custom *domain.Window) error {
	if !domain.ValidCompareMode(mode) {
		return fmt.Errorf("unknown compare mode %q", mode)
	}
	if mode == domain.CompareCustom && (custom == nil || !custom.Complete()) {
		return fmt.Errorf("custom compare mode requires an explicit previous window")
	}
	if mode != domain.CompareNone {
		d.mu.Lock()
		complete := d.state.Filters.Window().Complete()
		d.mu.Unlock()
		if !complete {
			return ErrIncompleteRange
		}
	}
	d.mutate(func(s *DashboardState) {
		s.CompareMode = mode
		s.CompareWindow = custom
	})
	return d.Refresh(ctx)
}

// SetWidgetLocalFilter records a per-widget mini-filter override and
// refetches. A nil value clears the field.
func (d *Dashboard) SetWidgetLocalFilter(ctx context.Context, widgetKey, field string, value any) error {
	if widgetKey == "" || field == "" {
		return fmt.Errorf("widget key and field are required")
	}
	d.mutate(func(s *DashboardState) {
		overrides := s.Local[widgetKey]
		if overrides == nil {
			overrides = make(map[string]any)
			s.Local[widgetKey] = overrides
		}
		if value == nil {
			delete(overrides, field)
		} else {
			overrides[field] = value
		}
	})
	return d.Refresh(ctx)
}

// ToggleShowAll flips a section between its collapsed and expanded row limit
func (d *Dashboard) ToggleShowAll(ctx context.Context, section string) error {
	if section == "" {
		return fmt.Errorf("section key is required")
	}
	d.mutate(func(s *DashboardState) {
		s.ShowAll[section] = !s.ShowAll[section]
	})
	return d.Refresh(ctx)
}

// SetSearch updates the text filter after the debounce interval elapses;
// rapid edits reset the timer and only the last value replans
func (d *Dashboard) SetSearch(query string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.searchTimer != nil {
		d.searchTimer.Stop()
	}
	d.searchTimer = time.AfterFunc(d.debounce, func() {
		d.mutate(func(s *DashboardState) {
			s.Search = strings.TrimSpace(query)
		})
		ctx, cancel := context.WithTimeout(context.Background(), d.refreshTimeout)
		defer cancel()
		if err := d.Refresh(ctx); err != nil && !errors.Is(err, ErrIncompleteRange) {
			d.logger.WithError(err).Warn("Search-triggered refresh failed")
		}
	})
}

// Refresh replans and refetches under a fresh generation. Results from an
// execution that was superseded mid-flight are dropped without touching
// state. Returns ErrIncompleteRange when no plan can be built.
func (d *Dashboard) Refresh(ctx context.Context) error {
	d.mu.Lock()
	state := d.state
	state.ShowAll = make(Toggles, len(d.state.ShowAll))
	for k, v := range d.state.ShowAll {
		state.ShowAll[k] = v
	}
	state.Local = make(map[string]map[string]any, len(d.state.Local))
	for widget, overrides := range d.state.Local {
		copied := make(map[string]any, len(overrides))
		for k, v := range overrides {
			copied[k] = v
		}
		state.Local[widget] = copied
	}
	d.mu.Unlock()

	plan := d.planner.Plan(state.Tab, state.Filters, state.CompareMode, state.CompareWindow, state.ShowAll, state.Local)
	if plan == nil {
		return ErrIncompleteRange
	}

	result, err := d.orch.Execute(ctx, plan)
	if errors.Is(err, ErrStalePlan) {
		return nil
	}
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if result.Generation < d.respGen {
		// a later execution already committed
		return nil
	}
	d.responses = result.Responses
	d.respGen = result.Generation
	d.snapshot = nil
	return nil
}

// mutate applies a state change and invalidates the memoized snapshot
func (d *Dashboard) mutate(apply func(*DashboardState)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	apply(&d.state)
	d.stateRev++
	d.snapshot = nil
}

// Snapshot derives the read-only view model from the current state and the
// last committed rows. The result is memoized on (state revision, committed
// generation); repeated reads between changes return the cached model.
func (d *Dashboard) Snapshot() *Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := fmt.Sprintf("%d.%d", d.stateRev, d.respGen)
	if d.snapshot != nil && d.snapKey == key {
		return d.snapshot
	}

	snap := d.buildSnapshot()
	d.snapshot = snap
	d.snapKey = key
	return snap
}

func (d *Dashboard) buildSnapshot() *Snapshot {
	snap := &Snapshot{
		Tab:         d.state.Tab,
		CompareMode: d.state.CompareMode,
		Filters:     d.state.Filters,
		Loading:     d.orch.LoadingFlags(),
		Missing:     make(map[string]bool),
		Failed:      make(map[string]bool),
		Generation:  d.respGen,
	}

	for name, resp := range d.responses {
		if resp.MissingSource {
			snap.Missing[name] = true
		}
		if resp.Failed {
			snap.Failed[name] = true
		}
	}

	kpi := d.response(domain.WidgetKPITotal)
	daily := d.response(domain.WidgetKPIDaily)
	snap.Summary = DeriveSummary(kpi, daily)

	if kpi != nil && kpi.Meta != nil {
		snap.Currency = kpi.Meta.Currency
	}

	// deltas render only once both the primary and the comparison widget of
	// the same committed generation are in; no partial display
	if d.state.CompareMode != domain.CompareNone {
		if prev := d.response(domain.CompareAliasPrefix + domain.WidgetKPIDaily); prev != nil && !prev.Failed {
			prevTotals := reduceTotals(prev.Rows)
			snap.Compare = CompareTotals(snap.Summary.Totals, &prevTotals)
		}
	}

	sources := tabEntitySources[d.state.Tab]
	if primary := d.response(sources.primary); primary != nil {
		entities := Reconcile(primary.Rows)
		if companion := d.response(sources.companion); companion != nil {
			BackfillEntities(entities, companion.Rows)
		}
		snap.Entities = filterEntities(entities, d.state.Search)
	}

	return snap
}

func (d *Dashboard) response(name string) *domain.WidgetResponse {
	if name == "" {
		return nil
	}
	resp, ok := d.responses[name]
	if !ok {
		return nil
	}
	return &resp
}

// filterEntities applies the debounced text filter against title and
// campaign fields, case-insensitively
func filterEntities(entities []domain.MergedEntity, query string) []domain.MergedEntity {
	if query == "" {
		return entities
	}
	needle := strings.ToLower(query)
	filtered := make([]domain.MergedEntity, 0, len(entities))
	for _, e := range entities {
		if strings.Contains(strings.ToLower(e.Title), needle) ||
			strings.Contains(strings.ToLower(e.CampaignName), needle) ||
			strings.Contains(strings.ToLower(e.AdsetName), needle) {
			filtered = append(filtered, e)
		}
	}
	return filtered
}
