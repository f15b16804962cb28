package llm

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigAppliesDefaults(t *testing.T) {
	cfg, err := LoadConfigFromReader(strings.NewReader(`
api_key: test-key
default_model: gpt-4o-mini
`))
	require.NoError(t, err)
	assert.Equal(t, defaultBaseURL, cfg.BaseURL)
	assert.Equal(t, defaultTimeout, cfg.Timeout)
	assert.Equal(t, defaultMaxRetries, cfg.MaxRetries)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadConfigParsesTimeout(t *testing.T) {
	cfg, err := LoadConfigFromReader(strings.NewReader(`
api_key: test-key
default_model: gpt-4o-mini
timeout: 90s
`))
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, cfg.Timeout)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv(envAPIKey, "env-key")
	t.Setenv(envDefaultModel, "env-model")

	cfg, err := LoadConfigFromReader(strings.NewReader(`
api_key: file-key
default_model: file-model
`))
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.APIKey)
	assert.Equal(t, "env-model", cfg.DefaultModel)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "missing api key", yaml: "default_model: m"},
		{name: "missing model", yaml: "api_key: k"},
		{name: "bad timeout", yaml: "api_key: k\ndefault_model: m\ntimeout: never"},
		{name: "negative timeout", yaml: "api_key: k\ndefault_model: m\ntimeout: -5s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfigFromReader(strings.NewReader(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestNewClientValidatesConfig(t *testing.T) {
	_, err := NewClient(nil)
	assert.Error(t, err)

	_, err = NewClient(&Config{})
	assert.Error(t, err)
}
