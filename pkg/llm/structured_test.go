package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type forecastRow struct {
	HorizonHours   int     `json:"horizon_hours"`
	PredictedPrice float64 `json:"predicted_price"`
	Confidence     float64 `json:"confidence"`
	Note           string  `json:"note,omitempty"`
}

type forecastSet struct {
	Forecasts []forecastRow `json:"forecasts"`
}

func TestGenerateSchemaFromNestedStruct(t *testing.T) {
	schema, err := GenerateSchema(&forecastSet{})
	require.NoError(t, err)
	assert.Equal(t, "object", schema["type"])

	props := schema["properties"].(map[string]interface{})
	forecasts := props["forecasts"].(map[string]interface{})
	assert.Equal(t, "array", forecasts["type"])

	items := forecasts["items"].(map[string]interface{})
	itemProps := items["properties"].(map[string]interface{})
	assert.Equal(t, map[string]interface{}{"type": "integer"}, itemProps["horizon_hours"])
	assert.Equal(t, map[string]interface{}{"type": "number"}, itemProps["predicted_price"])

	required := items["required"].([]string)
	assert.Contains(t, required, "confidence")
	assert.NotContains(t, required, "note", "omitempty fields are optional")
}

func TestGenerateSchemaRejectsNonStruct(t *testing.T) {
	_, err := GenerateSchema(42)
	assert.Error(t, err)

	_, err = GenerateSchema(nil)
	assert.Error(t, err)
}

func TestParseStructured(t *testing.T) {
	var out forecastSet
	err := ParseStructured(`{"forecasts":[{"horizon_hours":6,"predicted_price":52.5,"confidence":70}]}`, &out)
	require.NoError(t, err)
	require.Len(t, out.Forecasts, 1)
	assert.Equal(t, 6, out.Forecasts[0].HorizonHours)
	assert.InDelta(t, 52.5, out.Forecasts[0].PredictedPrice, 1e-9)
}

func TestParseStructuredRejectsBadInput(t *testing.T) {
	var out forecastSet
	assert.Error(t, ParseStructured(`not json`, &out))
	assert.Error(t, ParseStructured(`{}`, nil))
	assert.Error(t, ParseStructured(`{}`, forecastSet{}))
}
