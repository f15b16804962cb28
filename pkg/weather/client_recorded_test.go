package weather

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dnaeon/go-vcr/recorder"
	"github.com/stretchr/testify/assert"
)

// This test uses go-vcr to record/replay a real archive call for one day at
// the Alberta wind-corridor centroid. It skips by default if the cassette is
// absent and RECORD_CASSETTES != 1.
func TestClient_Window_Recorded(t *testing.T) {
	cassette := filepath.Join("testdata", "cassettes", "openmeteo_archive.yaml")
	if _, err := os.Stat(cassette); os.IsNotExist(err) {
		if os.Getenv("RECORD_CASSETTES") != "1" {
			t.Skipf("cassette missing; set RECORD_CASSETTES=1 to record: %s", cassette)
		}
		err := os.MkdirAll(filepath.Dir(cassette), 0o755)
		assert.NoError(t, err, "mkdir cassettes dir should succeed")
	}

	r, err := recorder.New(cassette)
	assert.NoError(t, err, "recorder.New should not error")
	assert.NotNil(t, r, "recorder should not be nil")
	defer func() { _ = r.Stop() }()

	httpClient := &http.Client{Transport: r}
	client := NewClient(50.56, -112.77, WithHTTPClient(httpClient), WithMaxRetries(0))

	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	window, err := client.Window(context.Background(), day, day)
	assert.NoError(t, err, "Window should not error")
	assert.NotNil(t, window, "window should not be nil")
	assert.Equal(t, 24, window.Len(), "one day should carry 24 hourly points")
}
