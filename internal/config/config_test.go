package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "listings.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)

	assert.Equal(t, "criteria.yaml", cfg.Scoring.CriteriaFile)
	assert.InDelta(t, 1.0, cfg.Scoring.PrimaryConfidence, 0.001)
	assert.InDelta(t, 0.7, cfg.Scoring.SynonymConfidence, 0.001)
	assert.InDelta(t, 0.6, cfg.Scoring.FuzzyConfidence, 0.001)
	assert.InDelta(t, 0.7, cfg.Scoring.FuzzyMinScore, 0.001)

	assert.InDelta(t, 0.8, cfg.Geo.FullBonusKM, 0.001)
	assert.InDelta(t, 1.5, cfg.Geo.HalfBonusKM, 0.001)
	assert.InDelta(t, 5, cfg.Geo.ZipMatchBonus, 0.001)
	require.Len(t, cfg.Geo.PreferredAreas, 6)
	assert.Equal(t, "Dolores Heights", cfg.Geo.PreferredAreas[0].Name)
	assert.InDelta(t, 30, cfg.Geo.PreferredAreas[0].Weight, 0.001)
	assert.Equal(t, "94110", cfg.Geo.PreferredAreas[0].Zip)

	assert.InDelta(t, 55, cfg.Valuation.MedianDaysOnMarket, 0.001)
	assert.InDelta(t, 0.1, cfg.Valuation.NotifyThreshold, 0.001)
	assert.Equal(t, 3, cfg.Valuation.MaxParallelExtracts)
	assert.InDelta(t, -1.0, cfg.Valuation.Weights[SignalDeltaZ], 0.001)
	assert.InDelta(t, -0.6, cfg.Valuation.Weights[SignalDOMPct], 0.001)
	assert.InDelta(t, -0.4, cfg.Valuation.Weights[SignalRecentCut], 0.001)
	assert.InDelta(t, 0.5, cfg.Valuation.Weights[SignalHotFlag], 0.001)
	assert.InDelta(t, 0.05, cfg.Valuation.Stats[SignalDeltaZ].Mean, 0.001)
	assert.InDelta(t, 0.15, cfg.Valuation.Stats[SignalDeltaZ].StdDev, 0.001)
	assert.InDelta(t, 1.0, cfg.Valuation.Stats[SignalDOMPct].Mean, 0.001)
	assert.InDelta(t, 0.5, cfg.Valuation.Stats[SignalDOMPct].StdDev, 0.001)

	assert.Equal(t, "https://api.zenrows.com/v1", cfg.Zillow.BaseURL)
	assert.InDelta(t, 2, cfg.Zillow.RequestsPerSec, 0.001)
	assert.Equal(t, 5, cfg.Zillow.CacheTTLMinutes)
	assert.Equal(t, 1000, cfg.Zillow.CacheMaxEntries)
	assert.Equal(t, 30, cfg.Zillow.TimeoutSecs)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/listings
log:
  level: debug
  format: console
scoring:
  fuzzy_min_score: 0.8
geo:
  preferred_areas:
    - name: Test Area
      centroid: [-122.4, 37.75]
      weight: 40
      zip: "94100"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.InDelta(t, 0.8, cfg.Scoring.FuzzyMinScore, 0.001)
	// Defaults still apply for unset values
	assert.InDelta(t, 0.7, cfg.Scoring.SynonymConfidence, 0.001)

	// Configured areas replace the built-in list.
	require.Len(t, cfg.Geo.PreferredAreas, 1)
	assert.Equal(t, "Test Area", cfg.Geo.PreferredAreas[0].Name)
	assert.InDelta(t, 40, cfg.Geo.PreferredAreas[0].Weight, 0.001)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("HOMESCOUT_STORE_DRIVER", "postgres")
	t.Setenv("HOMESCOUT_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("HOMESCOUT_VALUATION_MAX_PARALLEL_EXTRACTS", "8")
	t.Setenv("HOMESCOUT_ZILLOW_API_KEY", "key-from-env")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Valuation.MaxParallelExtracts)
	assert.Equal(t, "key-from-env", cfg.Zillow.APIKey)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}
