package weather

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"gridpulse-api/pkg/confkit"
)

// Cluster is one geographic concentration of installed capacity. Fetches are
// issued for a single capacity-weighted centroid of all clusters rather than
// per cluster, to keep one upstream call per date window.
type Cluster struct {
	Name      string  `yaml:"name"`
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
	WeightMW  float64 `yaml:"weight_mw"`
}

// Config describes the upstream weather archive and the cluster geography.
type Config struct {
	BaseURL    string        `yaml:"base_url"`
	TimeoutRaw string        `yaml:"timeout"`
	Timeout    time.Duration `yaml:"-"`
	MaxRetries int           `yaml:"max_retries"`
	Clusters   []Cluster     `yaml:"clusters"`
}

// LoadConfig reads weather configuration from disk.
func LoadConfig(path string) (*Config, error) {
	confkit.LoadDotenvOnce()
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open weather config: %w", err)
	}
	defer file.Close()
	return LoadConfigFromReader(file)
}

// MustLoad reads weather configuration from the default project location and
// panics on error.
func MustLoad() *Config {
	cfg, err := LoadConfig(confkit.MustProjectPath("etc/weather.yaml"))
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadConfigFromReader constructs a Config from an io.Reader.
func LoadConfigFromReader(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read weather config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal weather config: %w", err)
	}
	if err := cfg.normalise(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalise() error {
	if raw := strings.TrimSpace(c.TimeoutRaw); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("weather config: parse timeout %q: %w", raw, err)
		}
		c.Timeout = d
	}
	return nil
}

// Validate rejects configurations without usable cluster geography.
func (c *Config) Validate() error {
	if len(c.Clusters) == 0 {
		return fmt.Errorf("weather config: at least one cluster is required")
	}
	var totalWeight float64
	for i, cluster := range c.Clusters {
		if cluster.Latitude < -90 || cluster.Latitude > 90 {
			return fmt.Errorf("weather config: cluster %d latitude out of range", i)
		}
		if cluster.Longitude < -180 || cluster.Longitude > 180 {
			return fmt.Errorf("weather config: cluster %d longitude out of range", i)
		}
		if cluster.WeightMW < 0 {
			return fmt.Errorf("weather config: cluster %d weight must be non-negative", i)
		}
		totalWeight += cluster.WeightMW
	}
	if totalWeight <= 0 {
		return fmt.Errorf("weather config: total cluster weight must be positive")
	}
	return nil
}

// Centroid resolves the cluster set to a single capacity-weighted point.
func (c *Config) Centroid() (lat, lon float64) {
	var totalWeight float64
	for _, cluster := range c.Clusters {
		lat += cluster.Latitude * cluster.WeightMW
		lon += cluster.Longitude * cluster.WeightMW
		totalWeight += cluster.WeightMW
	}
	if totalWeight == 0 {
		return 0, 0
	}
	return lat / totalWeight, lon / totalWeight
}
