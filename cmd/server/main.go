package main

import (
	"fmt"
	"os"

	"adsight/internal/delivery"
	"adsight/internal/domain"
	"adsight/internal/infrastructure"
	"adsight/internal/usecase"
	"adsight/pkg/config"
	"adsight/pkg/logger"
	"adsight/pkg/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level)
	m := metrics.New()

	var client domain.WidgetClient
	if cfg.Upstream.BaseURL != "" {
		client = infrastructure.NewWidgetHTTPClient(
			cfg.Upstream.BaseURL,
			cfg.Upstream.APIKey,
			cfg.Upstream.RequestTimeout,
			cfg.Upstream.RateLimitPerSecond,
			log,
			m,
		)
	} else {
		// no upstream configured, serve seeded fixtures for local work
		log.Warn("WIDGET_API_URL not set, using in-memory fixtures")
		client = infrastructure.NewMemoryWidgetClient()
	}

	var strategy usecase.FetchStrategy
	if cfg.Dashboard.BatchEnabled {
		strategy = usecase.NewBatchStrategy(client, log, m)
	} else {
		strategy = usecase.NewSequentialStrategy(client, log, m, cfg.Dashboard.FetchWorkers)
	}

	planner := usecase.NewPlanner(cfg.Dashboard.CollapsedLimit, cfg.Dashboard.ExpandedLimit)

	sessions := usecase.NewSessionRegistry(func() *usecase.Dashboard {
		orch := usecase.NewOrchestrator(strategy, log, m)
		return usecase.NewDashboard(planner, orch, log, m, cfg.Dashboard.SearchDebounce, cfg.Dashboard.RefreshTimeout)
	}, cfg.Dashboard.SessionTTL, log, m)

	handlers := delivery.NewHTTPHandlers(sessions, log, m)
	router := delivery.NewHTTPRouter(handlers, log, m)

	engine := router.SetupRoutes()

	log.WithFields(map[string]any{
		"port":          cfg.Server.Port,
		"batch_enabled": cfg.Dashboard.BatchEnabled,
	}).Info("Starting widget engine server")

	if err := engine.Run(":" + cfg.Server.Port); err != nil {
		log.WithError(err).Error("Server stopped")
		os.Exit(1)
	}
}
