package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const minimalConfig = `
Name: gridpulse-test
Host: 127.0.0.1
Port: 8888
`

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "gridpulse.yaml", minimalConfig)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Env)
	assert.True(t, cfg.IsTestEnv())
	assert.Equal(t, "alberta", cfg.Market)
	assert.Equal(t, "America/Edmonton", cfg.Timezone)
	assert.Equal(t, "America/Edmonton", cfg.Location().String())
	assert.Equal(t, 30, cfg.TTL.Short)
	assert.Equal(t, 300, cfg.TTL.Medium)
	assert.Equal(t, 3600, cfg.TTL.Long)
	assert.Equal(t, 7, cfg.Backfill.WindowDays)
	assert.Equal(t, 50, cfg.Backfill.SubBatchSize)
	assert.Equal(t, 500, cfg.Backfill.DefaultBatchSize)
	assert.Equal(t, 168, cfg.Forecast.ContextHours)
	assert.Equal(t, []int{1, 6, 12, 24}, cfg.ForecastHorizons())
	assert.Equal(t, dir, cfg.BaseDir())
}

func TestLoadRejectsBadEnv(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "gridpulse.yaml", minimalConfig+"Env: staging\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "env must be one of")
}

func TestLoadRejectsBadTimezone(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "gridpulse.yaml", minimalConfig+"Timezone: mars/olympus\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timezone")
}

func TestLocationFallsBackToUTC(t *testing.T) {
	cfg := Config{Timezone: "not/a/zone"}
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestLoadRejectsBadHorizon(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "gridpulse.yaml", minimalConfig+`
Forecast:
  Horizons: [1, -6]
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "horizon")
}

func TestLoadHydratesSections(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "weather.yaml", `
clusters:
  - name: south
    latitude: 50.0
    longitude: -112.0
    weight_mw: 2000
`)
	writeConfig(t, dir, "estimator.yaml", `
capacity:
  2024:
    wind: 4000
    solar: 1500
    coal: 0
    hydro: 900
`)
	path := writeConfig(t, dir, "gridpulse.yaml", minimalConfig+`
Weather:
  File: weather.yaml
Estimator:
  File: estimator.yaml
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Weather.Value)
	require.NotNil(t, cfg.Estimator.Value)
	assert.Len(t, cfg.Weather.Value.Clusters, 1)
	assert.InDelta(t, 4000, cfg.Estimator.Value.CapacityByYear[2024].Wind, 1e-9)
	assert.Nil(t, cfg.LLM.Value, "absent sections stay nil")
}

func TestLoadFailsOnMissingSectionFile(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "gridpulse.yaml", minimalConfig+`
Weather:
  File: nope.yaml
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weather")
}

func TestCustomForecastHorizons(t *testing.T) {
	cfg := Config{Forecast: ForecastConf{Horizons: []int{2, 4}}}
	assert.Equal(t, []int{2, 4}, cfg.ForecastHorizons())
}
