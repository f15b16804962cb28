package types

// BackfillRequest bounds one backfill run. A nil BatchSize falls back to the
// configured default; an explicit 0 is a no-op probe.
type BackfillRequest struct {
	Year      int  `json:"year,optional"`
	Month     int  `json:"month,optional"`
	BatchSize *int `json:"batchSize,optional"`
}

type BackfillResponse struct {
	Success          bool     `json:"success"`
	RecordsUpdated   int      `json:"recordsUpdated"`
	DatesProcessed   int      `json:"datesProcessed"`
	RemainingRecords int64    `json:"remainingRecords"`
	IsComplete       bool     `json:"isComplete"`
	Errors           []string `json:"errors,omitempty"`
}

// ForecastRequest asks for fresh banded price forecasts.
type ForecastRequest struct {
	Market   string `json:"market,optional"`
	Horizons []int  `json:"horizons,optional"`
}

type ForecastItem struct {
	HorizonHours   int     `json:"horizonHours"`
	TargetTs       string  `json:"targetTs"`
	PredictedPrice float64 `json:"predictedPrice"`
	Confidence     float64 `json:"confidence"`
	LowerBound     float64 `json:"lowerBound"`
	UpperBound     float64 `json:"upperBound"`
}

type ForecastResponse struct {
	Success      bool           `json:"success"`
	Market       string         `json:"market"`
	PredictionTs string         `json:"predictionTs"`
	Model        string         `json:"model,omitempty"`
	FeaturesUsed []string       `json:"featuresUsed,omitempty"`
	Forecasts    []ForecastItem `json:"forecasts"`
}

// MarketContextRequest fetches the aggregated price statistics for a market.
type MarketContextRequest struct {
	Market string `form:"market,optional"`
}

type MarketContextResponse struct {
	Market      string      `json:"market"`
	Current     float64     `json:"current"`
	Mean        float64     `json:"mean"`
	Min         float64     `json:"min"`
	Max         float64     `json:"max"`
	StdDev      float64     `json:"stdDev"`
	TrendPct    float64     `json:"trendPct"`
	HourlyAvg   [24]float64 `json:"hourlyAvg"`
	SampleCount int         `json:"sampleCount"`
	WindowStart string      `json:"windowStart,omitempty"`
	WindowEnd   string      `json:"windowEnd,omitempty"`
}

// PredictionsRequest lists recently persisted forecasts.
type PredictionsRequest struct {
	Market string `form:"market,optional"`
	Limit  int    `form:"limit,optional"`
}

type PredictionRecord struct {
	Market         string   `json:"market"`
	PredictionTs   string   `json:"predictionTs"`
	TargetTs       string   `json:"targetTs"`
	HorizonHours   int      `json:"horizonHours"`
	PredictedPrice float64  `json:"predictedPrice"`
	Confidence     float64  `json:"confidence"`
	LowerBound     float64  `json:"lowerBound"`
	UpperBound     float64  `json:"upperBound"`
	Model          string   `json:"model,omitempty"`
	FeaturesUsed   []string `json:"featuresUsed,omitempty"`
}

type PredictionsResponse struct {
	Market      string             `json:"market"`
	Predictions []PredictionRecord `json:"predictions"`
}
