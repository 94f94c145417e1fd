package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 50, cfg.Dashboard.CollapsedLimit)
	assert.Equal(t, 200, cfg.Dashboard.ExpandedLimit)
	assert.Equal(t, 4, cfg.Dashboard.FetchWorkers)
	assert.Equal(t, 300*time.Millisecond, cfg.Dashboard.SearchDebounce)
	assert.Equal(t, 30*time.Minute, cfg.Dashboard.SessionTTL)
	assert.True(t, cfg.Dashboard.BatchEnabled)
	assert.Empty(t, cfg.Upstream.BaseURL)
	assert.Equal(t, 100, cfg.Upstream.RateLimitPerSecond)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("WIDGET_COLLAPSED_LIMIT", "25")
	t.Setenv("SEARCH_DEBOUNCE", "150ms")
	t.Setenv("BATCH_ENABLED", "false")
	t.Setenv("WIDGET_API_URL", "https://widgets.internal.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 25, cfg.Dashboard.CollapsedLimit)
	assert.Equal(t, 150*time.Millisecond, cfg.Dashboard.SearchDebounce)
	assert.False(t, cfg.Dashboard.BatchEnabled)
	assert.Equal(t, "https://widgets.internal.example.com", cfg.Upstream.BaseURL)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("WIDGET_COLLAPSED_LIMIT", "lots")
	t.Setenv("SEARCH_DEBOUNCE", "soon")
	t.Setenv("BATCH_ENABLED", "maybe")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.Dashboard.CollapsedLimit)
	assert.Equal(t, 300*time.Millisecond, cfg.Dashboard.SearchDebounce)
	assert.True(t, cfg.Dashboard.BatchEnabled)
}
