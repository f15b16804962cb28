package cache

import (
	"strings"
	"time"

	"gridpulse-api/internal/config"
)

// Namespace is the Redis key prefix for the GridPulse application.
const Namespace = "gridpulse"

// TTLClass represents a config-driven TTL bucket.
type TTLClass string

const (
	TTLShort  TTLClass = "short"
	TTLMedium TTLClass = "medium"
	TTLLong   TTLClass = "long"
)

// TTLSet normalises cache TTLs from config into time.Duration values.
type TTLSet struct {
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
}

// NewTTLSet converts config TTLs (in seconds) into durations.
func NewTTLSet(cfg config.CacheTTL) TTLSet {
	return TTLSet{
		Short:  durationOrDefault(cfg.Short, 30*time.Second),
		Medium: durationOrDefault(cfg.Medium, 5*time.Minute),
		Long:   durationOrDefault(cfg.Long, time.Hour),
	}
}

func durationOrDefault(seconds int, fallback time.Duration) time.Duration {
	if seconds < 0 {
		return 0
	}
	if seconds == 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}

// Duration returns the configured duration for the given TTL class.
func (t TTLSet) Duration(class TTLClass) time.Duration {
	switch class {
	case TTLShort:
		return t.Short
	case TTLMedium:
		return t.Medium
	case TTLLong:
		return t.Long
	default:
		return 0
	}
}

func formatKey(parts ...string) string {
	values := make([]string, 0, len(parts)+1)
	values = append(values, Namespace)
	for _, part := range parts {
		clean := strings.TrimSpace(part)
		if clean == "" {
			continue
		}
		values = append(values, clean)
	}
	return strings.Join(values, ":")
}

// MarketContextKey stores the aggregated price-context snapshot per market.
func MarketContextKey(market string) string {
	return formatKey("market", "context", market)
}

// PredictionsRecentKey stores the latest banded forecasts per market.
func PredictionsRecentKey(market string) string {
	return formatKey("predictions", "recent", market)
}

// WeatherWindowKey stores a fetched weather window keyed by centroid and the
// inclusive date range.
func WeatherWindowKey(lat, lon string, start, end time.Time) string {
	return formatKey("weather", "window", lat, lon,
		start.UTC().Format("2006-01-02"), end.UTC().Format("2006-01-02"))
}

// MarketContextTTL returns the TTL for price-context snapshots; prices settle
// hourly so a medium TTL is enough.
func MarketContextTTL(ttl TTLSet) time.Duration {
	return ttl.Duration(TTLMedium)
}

// PredictionsRecentTTL returns the TTL for recent forecast payloads.
func PredictionsRecentTTL(ttl TTLSet) time.Duration {
	return ttl.Duration(TTLMedium)
}

// WeatherWindowTTL returns the TTL for archived weather windows. Historical
// archive data never changes, so these live on the long bucket.
func WeatherWindowTTL(ttl TTLSet) time.Duration {
	return ttl.Duration(TTLLong)
}
