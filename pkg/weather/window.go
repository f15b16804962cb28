package weather

import "time"

// Nominal fallbacks for hours absent from the upstream response.
const (
	DefaultWindSpeed      = 8.0
	DefaultSolarRadiation = 0.0
	DefaultCloudCover     = 50.0
)

// Observation is one hour of weather at the cluster centroid.
type Observation struct {
	WindSpeed100m      float64 `msgpack:"w"`
	ShortwaveRadiation float64 `msgpack:"r"`
	CloudCover         float64 `msgpack:"c"`
}

// Window is an hour-indexed series covering an inclusive date range. Hours
// are keyed by Unix seconds truncated to the hour, in UTC. Consumers treat a
// Window as read-only.
type Window struct {
	Start time.Time
	End   time.Time
	Hours map[int64]Observation
}

// NewWindow builds a Window over the inclusive [start, end] date range.
func NewWindow(start, end time.Time, hours map[int64]Observation) *Window {
	if hours == nil {
		hours = make(map[int64]Observation)
	}
	return &Window{Start: start, End: end, Hours: hours}
}

// At returns the observation for the hour containing ts. Hours missing from
// the upstream payload degrade to nominal defaults instead of failing the
// caller's estimate.
func (w *Window) At(ts time.Time) Observation {
	if w != nil {
		if obs, ok := w.Hours[ts.UTC().Truncate(time.Hour).Unix()]; ok {
			return obs
		}
	}
	return Observation{
		WindSpeed100m:      DefaultWindSpeed,
		ShortwaveRadiation: DefaultSolarRadiation,
		CloudCover:         DefaultCloudCover,
	}
}

// Len reports how many hours the upstream actually returned.
func (w *Window) Len() int {
	if w == nil {
		return 0
	}
	return len(w.Hours)
}
