// Package weather retrieves hourly historical observations (wind speed,
// shortwave radiation, cloud cover) from the Open-Meteo archive for the
// capacity-weighted centroid of the configured clusters.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultBaseURL          = "https://archive-api.open-meteo.com/v1/archive"
	defaultHTTPTimeout      = 15 * time.Second
	defaultMaxRetries       = 3
	defaultRetryBackoffBase = 250 * time.Millisecond

	hourlyFields = "wind_speed_100m,shortwave_radiation,cloudcover"
	dateLayout   = "2006-01-02"
	hourLayout   = "2006-01-02T15:04"
)

// Client fetches hourly archive data for a fixed geographic point.
type Client struct {
	baseURL    string
	latitude   float64
	longitude  float64
	httpClient *http.Client
	maxRetries int
	logger     *log.Logger
}

// Option configures a new Client.
type Option func(*Client)

// WithHTTPClient injects a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithBaseURL overrides the default archive endpoint URL.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithMaxRetries adjusts the retry budget.
func WithMaxRetries(max int) Option {
	return func(c *Client) {
		if max >= 0 {
			c.maxRetries = max
		}
	}
}

// WithLogger injects a custom logger (defaults to log.Default()).
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient constructs a weather archive client for the given point.
func NewClient(latitude, longitude float64, opts ...Option) *Client {
	client := &Client{
		baseURL:    defaultBaseURL,
		latitude:   latitude,
		longitude:  longitude,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		maxRetries: defaultMaxRetries,
		logger:     log.Default(),
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if client.logger == nil {
		client.logger = log.Default()
	}
	return client
}

// NewClientFromConfig builds a Client at the config's cluster centroid.
func NewClientFromConfig(cfg *Config, opts ...Option) *Client {
	lat, lon := cfg.Centroid()
	base := []Option{}
	if cfg.BaseURL != "" {
		base = append(base, WithBaseURL(cfg.BaseURL))
	}
	if cfg.MaxRetries > 0 {
		base = append(base, WithMaxRetries(cfg.MaxRetries))
	}
	if cfg.Timeout > 0 {
		base = append(base, WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))
	}
	return NewClient(lat, lon, append(base, opts...)...)
}

// archiveResponse mirrors the upstream payload: parallel hourly arrays.
type archiveResponse struct {
	Hourly struct {
		Time               []string  `json:"time"`
		WindSpeed100m      []float64 `json:"wind_speed_100m"`
		ShortwaveRadiation []float64 `json:"shortwave_radiation"`
		Cloudcover         []float64 `json:"cloudcover"`
	} `json:"hourly"`
}

// Window retrieves hourly observations covering the inclusive [start, end]
// date range. Sub-year ranges of any length are accepted; callers that care
// about payload size cap their own requests. Failures after the retry budget
// surface as an error the caller is expected to treat as a skippable window.
func (c *Client) Window(ctx context.Context, start, end time.Time) (*Window, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("weather: window end %s before start %s", end.Format(dateLayout), start.Format(dateLayout))
	}

	query := url.Values{}
	query.Set("latitude", fmt.Sprintf("%.4f", c.latitude))
	query.Set("longitude", fmt.Sprintf("%.4f", c.longitude))
	query.Set("start_date", start.UTC().Format(dateLayout))
	query.Set("end_date", end.UTC().Format(dateLayout))
	query.Set("hourly", hourlyFields)
	query.Set("timezone", "UTC")
	requestURL := c.baseURL + "?" + query.Encode()

	var parsed archiveResponse
	if err := c.get(ctx, requestURL, &parsed); err != nil {
		return nil, err
	}

	hours := make(map[int64]Observation, len(parsed.Hourly.Time))
	for i, raw := range parsed.Hourly.Time {
		ts, err := time.ParseInLocation(hourLayout, raw, time.UTC)
		if err != nil {
			c.logger.Printf("[weather] skipping unparseable hour %q: %v", raw, err)
			continue
		}
		obs := Observation{
			WindSpeed100m:      DefaultWindSpeed,
			ShortwaveRadiation: DefaultSolarRadiation,
			CloudCover:         DefaultCloudCover,
		}
		if i < len(parsed.Hourly.WindSpeed100m) {
			obs.WindSpeed100m = parsed.Hourly.WindSpeed100m[i]
		}
		if i < len(parsed.Hourly.ShortwaveRadiation) {
			obs.ShortwaveRadiation = parsed.Hourly.ShortwaveRadiation[i]
		}
		if i < len(parsed.Hourly.Cloudcover) {
			obs.CloudCover = parsed.Hourly.Cloudcover[i]
		}
		hours[ts.Unix()] = obs
	}

	return NewWindow(start, end, hours), nil
}

// get issues a GET with retry/backoff and decodes the JSON body into result.
func (c *Client) get(ctx context.Context, requestURL string, result interface{}) error {
	var lastErr error
	backoff := defaultRetryBackoffBase
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return fmt.Errorf("weather: build request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
		} else {
			body, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("weather: read response: %w", readErr)
			case resp.StatusCode != http.StatusOK:
				lastErr = fmt.Errorf("weather: upstream status %d", resp.StatusCode)
			default:
				if err := json.Unmarshal(body, result); err != nil {
					return fmt.Errorf("weather: decode response: %w", err)
				}
				return nil
			}
		}

		if attempt < c.maxRetries {
			c.logger.Printf("[weather] attempt %d/%d failed: %v", attempt+1, c.maxRetries+1, lastErr)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff *= 2
		}
	}
	return fmt.Errorf("weather: request failed after %d attempts: %w", c.maxRetries+1, lastErr)
}
