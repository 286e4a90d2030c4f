package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nakanaka07/kueccha/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "https://sheets.googleapis.com/v4/spreadsheets", cfg.Sheets.BaseURL)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, []string{"restaurants.csv", "parkings.csv", "toilets.csv"}, cfg.CSV.Files)
	assert.False(t, cfg.Redis.Enabled())
	assert.False(t, cfg.OTEL.Enabled)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SHEETS_SPREADSHEET_ID", "sheet-xyz")
	t.Setenv("SHEETS_TIMEOUT", "3s")
	t.Setenv("CACHE_TTL", "1h")
	t.Setenv("CSV_FILES", "a.csv, b.csv ,")
	t.Setenv("REDIS_HOST", "cache.internal")
	t.Setenv("OTEL_ENABLED", "true")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "sheet-xyz", cfg.Sheets.SpreadsheetID)
	assert.Equal(t, 3*time.Second, cfg.Sheets.Timeout)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, []string{"a.csv", "b.csv"}, cfg.CSV.Files)
	assert.Equal(t, "cache.internal:6379", cfg.Redis.RedisAddr())
	assert.True(t, cfg.Redis.Enabled())
	assert.True(t, cfg.OTEL.Enabled)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-number")
	t.Setenv("CACHE_TTL", "soon")
	t.Setenv("OTEL_ENABLED", "yep")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
	assert.False(t, cfg.OTEL.Enabled)
}
