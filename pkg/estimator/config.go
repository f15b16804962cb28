package estimator

import (
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"gridpulse-api/pkg/confkit"
)

const (
	defaultPanelEfficiency = 0.85
	defaultMinGasMW        = 1500.0
	defaultMaxGasMW        = 8000.0
	defaultNominalDemandMW = 9500.0
)

// Capacity holds the installed nameplate capacity (MW) per fuel for one year.
type Capacity struct {
	Wind  float64 `yaml:"wind"`
	Solar float64 `yaml:"solar"`
	Coal  float64 `yaml:"coal"`
	Hydro float64 `yaml:"hydro"`
}

// Timeline maps calendar years to the installed capacity mix. It is immutable
// reference data; lookups for undefined years fall back to the nearest
// defined year.
type Timeline struct {
	byYear map[int]Capacity
	years  []int // sorted ascending
}

// NewTimeline builds a Timeline from a year-keyed capacity map.
func NewTimeline(byYear map[int]Capacity) *Timeline {
	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)
	copied := make(map[int]Capacity, len(byYear))
	for y, c := range byYear {
		copied[y] = c
	}
	return &Timeline{byYear: copied, years: years}
}

// ForYear returns the capacity mix for the given year. Undefined years
// resolve to the latest defined year at or before the requested one; years
// before the first entry resolve to the first entry. An empty timeline
// returns a zero capacity mix.
func (t *Timeline) ForYear(year int) Capacity {
	if t == nil || len(t.years) == 0 {
		return Capacity{}
	}
	if c, ok := t.byYear[year]; ok {
		return c
	}
	if year < t.years[0] {
		return t.byYear[t.years[0]]
	}
	best := t.years[0]
	for _, y := range t.years {
		if y > year {
			break
		}
		best = y
	}
	return t.byYear[best]
}

// Years returns the defined years in ascending order.
func (t *Timeline) Years() []int {
	out := make([]int, len(t.years))
	copy(out, t.years)
	return out
}

// Config carries the reference data and tuning constants for the generation
// estimator. It is loaded from yaml and passed in explicitly so tests can
// substitute alternative grids.
type Config struct {
	PanelEfficiency float64          `yaml:"panel_efficiency"`
	MinGasMW        float64          `yaml:"min_gas_mw"`
	MaxGasMW        float64          `yaml:"max_gas_mw"`
	NominalDemandMW float64          `yaml:"nominal_demand_mw"`
	CapacityByYear  map[int]Capacity `yaml:"capacity"`

	timeline *Timeline
}

// Timeline returns the parsed capacity timeline.
func (c *Config) Timeline() *Timeline {
	if c.timeline == nil {
		c.timeline = NewTimeline(c.CapacityByYear)
	}
	return c.timeline
}

// LoadConfig reads estimator configuration from disk.
func LoadConfig(path string) (*Config, error) {
	confkit.LoadDotenvOnce()
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open estimator config: %w", err)
	}
	defer file.Close()
	return LoadConfigFromReader(file)
}

// MustLoad reads estimator configuration from the default project location
// and panics on error.
func MustLoad() *Config {
	cfg, err := LoadConfig(confkit.MustProjectPath("etc/estimator.yaml"))
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadConfigFromReader constructs a Config from an io.Reader.
func LoadConfigFromReader(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read estimator config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal estimator config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.PanelEfficiency <= 0 {
		c.PanelEfficiency = defaultPanelEfficiency
	}
	if c.MinGasMW <= 0 {
		c.MinGasMW = defaultMinGasMW
	}
	if c.MaxGasMW <= 0 {
		c.MaxGasMW = defaultMaxGasMW
	}
	if c.NominalDemandMW <= 0 {
		c.NominalDemandMW = defaultNominalDemandMW
	}
}

// Validate rejects configurations the estimator cannot operate on.
func (c *Config) Validate() error {
	if len(c.CapacityByYear) == 0 {
		return fmt.Errorf("estimator config: capacity timeline requires at least one year")
	}
	if c.MaxGasMW < c.MinGasMW {
		return fmt.Errorf("estimator config: max_gas_mw %.0f below min_gas_mw %.0f", c.MaxGasMW, c.MinGasMW)
	}
	if c.PanelEfficiency > 1 {
		return fmt.Errorf("estimator config: panel_efficiency must be <= 1")
	}
	for year, cap := range c.CapacityByYear {
		if cap.Wind < 0 || cap.Solar < 0 || cap.Coal < 0 || cap.Hydro < 0 {
			return fmt.Errorf("estimator config: negative capacity for year %d", year)
		}
	}
	return nil
}
