package estimator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfigYAML = `
panel_efficiency: 0.85
min_gas_mw: 1500
max_gas_mw: 8000
nominal_demand_mw: 9500
capacity:
  2022:
    wind: 2269
    solar: 736
    coal: 846
    hydro: 894
  2024:
    wind: 4481
    solar: 1650
    coal: 0
    hydro: 894
`

func TestLoadConfigFromReader(t *testing.T) {
	cfg, err := LoadConfigFromReader(strings.NewReader(sampleConfigYAML))
	require.NoError(t, err)

	assert.InDelta(t, 0.85, cfg.PanelEfficiency, 1e-9)
	assert.InDelta(t, 1500, cfg.MinGasMW, 1e-9)
	assert.Equal(t, []int{2022, 2024}, cfg.Timeline().Years())
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	cfg, err := LoadConfigFromReader(strings.NewReader(`
capacity:
  2023: {wind: 1000, solar: 100, coal: 0, hydro: 500}
`))
	require.NoError(t, err)

	assert.InDelta(t, defaultPanelEfficiency, cfg.PanelEfficiency, 1e-9)
	assert.InDelta(t, defaultMinGasMW, cfg.MinGasMW, 1e-9)
	assert.InDelta(t, defaultMaxGasMW, cfg.MaxGasMW, 1e-9)
	assert.InDelta(t, defaultNominalDemandMW, cfg.NominalDemandMW, 1e-9)
}

func TestLoadConfigRejectsEmptyTimeline(t *testing.T) {
	_, err := LoadConfigFromReader(strings.NewReader(`panel_efficiency: 0.85`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "capacity timeline")
}

func TestLoadConfigRejectsInvertedGasBand(t *testing.T) {
	_, err := LoadConfigFromReader(strings.NewReader(`
min_gas_mw: 5000
max_gas_mw: 1000
capacity:
  2023: {wind: 1000, solar: 100, coal: 0, hydro: 500}
`))
	require.Error(t, err)
}

func TestTimelineForYear(t *testing.T) {
	timeline := NewTimeline(map[int]Capacity{
		2020: {Wind: 1800, Coal: 1400},
		2023: {Wind: 3000, Coal: 400},
		2025: {Wind: 4500, Coal: 0},
	})

	tests := []struct {
		name     string
		year     int
		wantWind float64
	}{
		{name: "exact year", year: 2023, wantWind: 3000},
		{name: "gap year uses previous", year: 2024, wantWind: 3000},
		{name: "future year uses latest", year: 2031, wantWind: 4500},
		{name: "year before timeline uses earliest", year: 2015, wantWind: 1800},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.wantWind, timeline.ForYear(tt.year).Wind, 1e-9)
		})
	}
}

func TestTimelineEmpty(t *testing.T) {
	var timeline *Timeline
	assert.Equal(t, Capacity{}, timeline.ForYear(2024))
	assert.Equal(t, Capacity{}, NewTimeline(nil).ForYear(2024))
}
