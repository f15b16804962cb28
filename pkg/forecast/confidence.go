package forecast

// Interval is an asymmetric confidence band around a point prediction. Lower
// is clamped at zero; prices cannot go negative in this model.
type Interval struct {
	Lower float64
	Upper float64
	Width float64
}

// ConfidenceInterval computes the band for one horizon. The width grows with
// horizon and shrinks with the scorer's confidence:
//
//	width = stddev * 1.5 * (1 + horizon/24 * 0.5) * (2 - confidence/100)
//
// Confidence is clamped into [0, 100] and negative horizons are treated as 0.
func ConfidenceInterval(predicted, stddev float64, horizonHours int, confidence float64) Interval {
	if horizonHours < 0 {
		horizonHours = 0
	}
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 100 {
		confidence = 100
	}
	if stddev < 0 {
		stddev = 0
	}

	horizonDecay := 1 + float64(horizonHours)/24*0.5
	width := stddev * 1.5 * horizonDecay * (2 - confidence/100)

	lower := predicted - width
	if lower < 0 {
		lower = 0
	}
	return Interval{
		Lower: lower,
		Upper: predicted + width,
		Width: width,
	}
}
