package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"adsight/internal/domain"
	"adsight/pkg/logger"
	"adsight/pkg/metrics"
)

// ErrStalePlan is returned when a newer plan superseded this execution
// before its results could commit; the caller discards them.
var ErrStalePlan = errors.New("plan superseded by a newer generation")

// FetchStrategy executes a batch plan against the upstream API. Both
// implementations tolerate any subset of widgets failing: a failed widget
// resolves to empty rows marked Failed, never a failed plan.
type FetchStrategy interface {
	Name() string
	Fetch(ctx context.Context, plan *domain.BatchPlan) map[string]domain.WidgetResponse
}

// FetchResult is the outcome of one plan execution
type FetchResult struct {
	Generation uint64
	Responses  map[string]domain.WidgetResponse
}

// Orchestrator executes batch plans and keeps per-widget loading state.
// Every execution draws a fresh generation id; only results matching the
// latest generation may commit, which is how stale responses are dropped
// when filters change mid-flight.
type Orchestrator struct {
	strategy FetchStrategy
	logger   *logger.Logger
	metrics  *metrics.Metrics

	generation atomic.Uint64

	mu      sync.RWMutex
	loading map[string]uint64 // widget name -> generation that marked it
}

// NewOrchestrator creates an orchestrator using the given strategy
func NewOrchestrator(strategy FetchStrategy, logger *logger.Logger, metrics *metrics.Metrics) *Orchestrator {
	return &Orchestrator{
		strategy: strategy,
		logger:   logger,
		metrics:  metrics,
		loading:  make(map[string]uint64),
	}
}

// Execute runs the plan and returns its responses, or ErrStalePlan when a
// newer execution started in the meantime. Loading flags are set per widget
// before dispatch and always cleared afterwards, success or not.
func (o *Orchestrator) Execute(ctx context.Context, plan *domain.BatchPlan) (*FetchResult, error) {
	start := time.Now()
	gen := o.generation.Add(1)
	names := plan.Names()

	o.markLoading(names, gen)
	defer o.clearLoading(names, gen)

	log := o.logger.WithContext(ctx)
	log.WithFields(map[string]any{
		"generation": gen,
		"strategy":   o.strategy.Name(),
		"tab":        plan.Tab,
		"widgets":    len(plan.Widgets),
	}).Info("Executing batch plan")

	responses := o.strategy.Fetch(ctx, plan)

	if gen != o.generation.Load() {
		o.metrics.RecordStalePlan()
		o.metrics.RecordPlanExecution(o.strategy.Name(), "stale", time.Since(start))
		log.WithField("generation", gen).Debug("Discarding stale plan results")
		return nil, ErrStalePlan
	}

	failed := 0
	for _, resp := range responses {
		if resp.Failed {
			failed++
		}
	}

	status := "success"
	if failed > 0 {
		status = "partial"
	}
	o.metrics.RecordPlanExecution(o.strategy.Name(), status, time.Since(start))

	log.WithFields(map[string]any{
		"generation": gen,
		"widgets":    len(responses),
		"failed":     failed,
		"duration":   time.Since(start),
	}).Info("Batch plan completed")

	return &FetchResult{Generation: gen, Responses: responses}, nil
}

// Generation returns the latest generation id issued
func (o *Orchestrator) Generation() uint64 {
	return o.generation.Load()
}

// IsLoading reports whether the named widget has an in-flight fetch
func (o *Orchestrator) IsLoading(name string) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	_, ok := o.loading[name]
	return ok
}

// LoadingFlags snapshots the per-widget loading state
func (o *Orchestrator) LoadingFlags() map[string]bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	flags := make(map[string]bool, len(o.loading))
	for name := range o.loading {
		flags[name] = true
	}
	return flags
}

func (o *Orchestrator) markLoading(names []string, gen uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, name := range names {
		o.loading[name] = gen
	}
}

// clearLoading drops only the flags this generation set; a newer execution
// that re-marked a widget keeps its flag
func (o *Orchestrator) clearLoading(names []string, gen uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, name := range names {
		if o.loading[name] == gen {
			delete(o.loading, name)
		}
	}
}

// BatchStrategy issues the whole plan as one upstream call
type BatchStrategy struct {
	client  domain.WidgetClient
	logger  *logger.Logger
	metrics *metrics.Metrics
}

// NewBatchStrategy creates the primary, single-call strategy
func NewBatchStrategy(client domain.WidgetClient, logger *logger.Logger, metrics *metrics.Metrics) *BatchStrategy {
	return &BatchStrategy{client: client, logger: logger, metrics: metrics}
}

func (s *BatchStrategy) Name() string { return "batch" }

// Fetch executes one batch call. A transport failure degrades every planned
// widget to an empty Failed response; widgets absent from the upstream reply
// degrade individually.
func (s *BatchStrategy) Fetch(ctx context.Context, plan *domain.BatchPlan) map[string]domain.WidgetResponse {
	responses, err := s.client.FetchBatch(ctx, plan.Widgets)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Batch widget fetch failed")
		responses = nil
	}

	out := make(map[string]domain.WidgetResponse, len(plan.Widgets))
	for _, req := range plan.Widgets {
		name := req.Name()
		if resp, ok := responses[name]; ok {
			out[name] = resp
			continue
		}
		out[name] = domain.WidgetResponse{Key: req.Key, Failed: true}
	}
	return out
}

// SequentialStrategy issues one request per widget, used when the upstream
// batch endpoint is disabled or unsupported. Requests within a plan run
// concurrently through a bounded worker pool; there is no ordering
// dependency between widgets.
type SequentialStrategy struct {
	client  domain.WidgetClient
	logger  *logger.Logger
	metrics *metrics.Metrics
	workers int

	// Visible gates each widget so hidden views do not fetch; nil means
	// everything is visible
	Visible func(domain.WidgetRequest) bool
}

// NewSequentialStrategy creates the per-widget fallback strategy
func NewSequentialStrategy(client domain.WidgetClient, logger *logger.Logger, metrics *metrics.Metrics, workers int) *SequentialStrategy {
	if workers <= 0 {
		workers = 4
	}
	return &SequentialStrategy{client: client, logger: logger, metrics: metrics, workers: workers}
}

func (s *SequentialStrategy) Name() string { return "sequential" }

func (s *SequentialStrategy) Fetch(ctx context.Context, plan *domain.BatchPlan) map[string]domain.WidgetResponse {
	log := s.logger.WithContext(ctx)

	jobs := make(chan domain.WidgetRequest, len(plan.Widgets))
	type outcome struct {
		name string
		resp domain.WidgetResponse
	}
	results := make(chan outcome, len(plan.Widgets))

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for req := range jobs {
				resp, err := s.client.FetchWidget(ctx, req)
				if err != nil {
					log.WithError(err).WithField("widget", req.Name()).Warn("Widget fetch failed, degrading to empty rows")
					resp = domain.WidgetResponse{Key: req.Key, Failed: true}
				}
				results <- outcome{name: req.Name(), resp: resp}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, req := range plan.Widgets {
			if s.Visible != nil && !s.Visible(req) {
				continue
			}
			jobs <- req
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	out := make(map[string]domain.WidgetResponse, len(plan.Widgets))
	for res := range results {
		out[res.name] = res.resp
	}
	return out
}
