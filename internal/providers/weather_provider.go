package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// HourlyPoint is one hour of forecast precipitation in UTC, the provider's
// wire-level unit before the weather scraper buckets it into per-day rows.
type HourlyPoint struct {
	Time            time.Time
	PrecipitationMm float64
}

// WeatherProvider fetches hourly precipitation forecasts from a
// third-party weather API.
type WeatherProvider struct {
	BaseURL string
	Client  *http.Client
}

// NewWeatherProvider builds a provider reading its base URL from
// WEATHER_API_BASE_URL, falling back to the public Open-Meteo endpoint.
func NewWeatherProvider() *WeatherProvider {
	baseURL := os.Getenv("WEATHER_API_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.open-meteo.com/v1/forecast"
	}
	return &WeatherProvider{
		BaseURL: baseURL,
		Client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type hourlyPrecipResponse struct {
	Hourly struct {
		Time          []string  `json:"time"`
		Precipitation []float64 `json:"precipitation"`
	} `json:"hourly"`
}

// FetchHourlyPrecipitation returns 8 days of hourly precipitation (UTC) for
// a single point. Non-fatal on failure — callers log and skip the city,
// keeping one bad city from aborting the whole run.
func (p *WeatherProvider) FetchHourlyPrecipitation(ctx context.Context, lat, lng float64) ([]HourlyPoint, error) {
	url := fmt.Sprintf(
		"%s?latitude=%f&longitude=%f&hourly=precipitation&forecast_days=8&timezone=UTC",
		p.BaseURL, lat, lng,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &ProviderError{Code: ErrCodeNetworkError, Message: "failed to build weather request", Err: err}
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, &ProviderError{Code: ErrCodeNetworkError, Message: "weather request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, &ProviderError{
			Code:    ErrCodeNetworkError,
			Message: fmt.Sprintf("weather provider returned HTTP %d", resp.StatusCode),
			Details: string(body),
		}
	}

	var parsed hourlyPrecipResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &ProviderError{Code: ErrCodeInvalidResponse, Message: "failed to decode weather response", Err: err}
	}

	n := len(parsed.Hourly.Time)
	if len(parsed.Hourly.Precipitation) < n {
		n = len(parsed.Hourly.Precipitation)
	}
	points := make([]HourlyPoint, 0, n)
	for i := 0; i < n; i++ {
		ts, err := time.Parse("2006-01-02T15:04", parsed.Hourly.Time[i])
		if err != nil {
			continue
		}
		points = append(points, HourlyPoint{
			Time:            ts.UTC(),
			PrecipitationMm: parsed.Hourly.Precipitation[i],
		})
	}
	return points, nil
}
