// Package weather fetches the daily forecast from Open-Meteo.
package weather

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/xxSohoxx/scheduler-bot/internal/domain/forecast"
)

// DefaultBaseURL is the public Open-Meteo forecast endpoint.
const DefaultBaseURL = "https://api.open-meteo.com/v1/forecast"

// OpenMeteoClient implements forecast.Provider for one location.
type OpenMeteoClient struct {
	BaseURL    string
	Latitude   float64
	Longitude  float64
	Timezone   string
	HTTPClient *http.Client
}

func NewOpenMeteoClient(latitude, longitude float64, timezone string) *OpenMeteoClient {
	return &OpenMeteoClient{
		BaseURL:    DefaultBaseURL,
		Latitude:   latitude,
		Longitude:  longitude,
		Timezone:   timezone,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type openMeteoResponse struct {
	Hourly struct {
		Temperature []float64 `json:"temperature_2m"`
		WeatherCode []int     `json:"weather_code"`
	} `json:"hourly"`
	Daily struct {
		WindSpeedMax       []float64 `json:"wind_speed_10m_max"`
		UVIndexClearSkyMax []float64 `json:"uv_index_clear_sky_max"`
	} `json:"daily"`
}

// Fetch requests today's forecast. Transport failures, non-2xx answers and
// payloads without daily values are all forecast.ErrForecastUnavailable.
func (c *OpenMeteoClient) Fetch(ctx context.Context) (*forecast.Forecast, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "build forecast request")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "request forecast"), forecast.ErrForecastUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Wrapf(forecast.ErrForecastUnavailable, "open-meteo answered %s", resp.Status)
	}

	var payload openMeteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "decode forecast"), forecast.ErrForecastUnavailable)
	}
	if len(payload.Daily.WindSpeedMax) == 0 || len(payload.Daily.UVIndexClearSkyMax) == 0 {
		return nil, errors.Wrap(forecast.ErrForecastUnavailable, "forecast has no daily values")
	}

	return &forecast.Forecast{
		HourlyTemperature: payload.Hourly.Temperature,
		HourlyCode:        payload.Hourly.WeatherCode,
		WindSpeedMax:      payload.Daily.WindSpeedMax[0],
		UVIndexClearSky:   payload.Daily.UVIndexClearSkyMax[0],
	}, nil
}

func (c *OpenMeteoClient) requestURL() string {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(c.Latitude, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(c.Longitude, 'f', -1, 64))
	q.Set("hourly", "temperature_2m,weather_code")
	q.Set("daily", "wind_speed_10m_max,uv_index_clear_sky_max")
	q.Set("timezone", c.Timezone)
	q.Set("forecast_days", "1")
	return c.BaseURL + "?" + q.Encode()
}
