// Package estimator fills in missing generation-by-fuel values using
// physically-motivated capacity-factor models driven by weather and the
// installed capacity mix for the observation's year.
package estimator

import (
	"math"
	"math/rand"
	"time"
)

// Wind turbine operating thresholds (m/s).
const (
	windCutInSpeed  = 3.0
	windRatedSpeed  = 12.0
	windCutOutSpeed = 25.0
)

// Solar daylight window, hours of day inclusive.
const (
	daylightStartHour = 7
	daylightEndHour   = 19
)

const (
	hydroBaselineFactor   = 0.40
	hydroSummerMultiplier = 1.15
	hydroWinterMultiplier = 0.90
	coalBaseloadFactor    = 0.70

	windJitterSpread = 0.15 // +/- around 1.0
	otherFloorMW     = 300.0
	otherCeilMW      = 500.0
)

// Inputs is one hour's worth of conditions for a single observation.
type Inputs struct {
	Year  int
	Month time.Month
	Hour  int // local hour of day, 0-23

	WindSpeed      float64 // m/s at 100m
	SolarRadiation float64 // W/m^2 shortwave
	CloudCover     float64 // percent, 0-100

	Demand      float64 // MW (AIL); used only when DemandValid
	DemandValid bool
}

// Generation is the estimated output per fuel type in MW.
type Generation struct {
	Gas   float64
	Wind  float64
	Solar float64
	Hydro float64
	Coal  float64
	Other float64
}

// Total sums all fuel contributions.
func (g Generation) Total() float64 {
	return g.Gas + g.Wind + g.Solar + g.Hydro + g.Coal + g.Other
}

// Estimator computes generation estimates. Randomness (wind jitter, residual
// "other" supply) comes from an injected source so tests can seed it and
// assert exact outputs.
type Estimator struct {
	cfg *Config
	rng *rand.Rand
}

// New constructs an Estimator. A nil rng gets a time-seeded source.
func New(cfg *Config, rng *rand.Rand) *Estimator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Estimator{cfg: cfg, rng: rng}
}

// Estimate is total over its domain: out-of-range or missing inputs resolve
// to documented nominal defaults, never to an error.
//
// Gas is the residual merit-order term: it fills whatever demand is left
// after the weather-driven and baseload fuels, clamped to the fleet operating
// band. By construction it absorbs the estimation error of every other term;
// that is a deliberate simplification carried over from the source model, so
// estimated gas output is not independently validated.
func (e *Estimator) Estimate(in Inputs) Generation {
	cap := e.cfg.Timeline().ForYear(in.Year)

	var gen Generation
	gen.Wind = e.estimateWind(in.WindSpeed, cap.Wind)
	gen.Solar = e.estimateSolar(in.Hour, in.SolarRadiation, in.CloudCover, cap.Solar)
	gen.Hydro = estimateHydro(in.Month, cap.Hydro)
	gen.Coal = estimateCoal(cap.Coal)
	gen.Other = otherFloorMW + e.rng.Float64()*(otherCeilMW-otherFloorMW)

	demand := in.Demand
	if !in.DemandValid {
		demand = e.cfg.NominalDemandMW
	}
	residual := demand - (gen.Wind + gen.Solar + gen.Hydro) - gen.Coal - gen.Other
	gen.Gas = clamp(residual, e.cfg.MinGasMW, e.cfg.MaxGasMW)

	return gen
}

func (e *Estimator) estimateWind(speed, installedMW float64) float64 {
	factor := WindCapacityFactor(speed)
	if factor <= 0 || installedMW <= 0 {
		return 0
	}
	jitter := 1 - windJitterSpread + e.rng.Float64()*2*windJitterSpread
	out := installedMW * factor * jitter
	if out < 0 {
		return 0
	}
	return out
}

// WindCapacityFactor is the piecewise turbine power curve: zero below cut-in
// and at/above cut-out, a cubic ramp between cut-in and rated speed, and
// full output between rated and cut-out.
func WindCapacityFactor(speed float64) float64 {
	switch {
	case speed < windCutInSpeed:
		return 0
	case speed < windRatedSpeed:
		ramp := (speed - windCutInSpeed) / (windRatedSpeed - windCutInSpeed)
		return ramp * ramp * ramp
	case speed < windCutOutSpeed:
		return 1
	default:
		return 0
	}
}

func (e *Estimator) estimateSolar(hour int, radiation, cloudCover float64, installedMW float64) float64 {
	if hour < daylightStartHour || hour > daylightEndHour || installedMW <= 0 {
		return 0
	}
	if radiation < 0 {
		radiation = 0
	}
	cloudCover = clamp(cloudCover, 0, 100)

	factor := radiation / 1000 * (1 - cloudCover/200)
	if factor > 1 {
		factor = 1
	}
	// Sine shaping over the daylight span models the sunrise/sunset ramp.
	span := float64(daylightEndHour - daylightStartHour)
	shape := math.Sin(math.Pi * float64(hour-daylightStartHour) / span)
	out := installedMW * factor * shape * e.cfg.PanelEfficiency
	if out < 0 {
		return 0
	}
	return out
}

func estimateHydro(month time.Month, installedMW float64) float64 {
	if installedMW <= 0 {
		return 0
	}
	multiplier := hydroWinterMultiplier
	if month >= time.April && month <= time.September {
		multiplier = hydroSummerMultiplier
	}
	return installedMW * hydroBaselineFactor * multiplier
}

// estimateCoal models fleet retirement: a zero installed capacity means the
// units are gone, otherwise coal runs as weather-insensitive baseload.
func estimateCoal(installedMW float64) float64 {
	if installedMW <= 0 {
		return 0
	}
	return installedMW * coalBaseloadFactor
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
