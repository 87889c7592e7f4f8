package forecast

import (
	"context"

	"github.com/cockroachdb/errors"
)

// ErrForecastUnavailable is returned when the provider has no usable payload.
var ErrForecastUnavailable = errors.New("forecast unavailable")

// Forecast is the subset of a one-day forecast the digest needs.
// Hourly slices are indexed by local hour of the day.
type Forecast struct {
	HourlyTemperature []float64
	HourlyCode        []int
	WindSpeedMax      float64 // km/h
	UVIndexClearSky   float64
}

// Provider fetches today's forecast.
type Provider interface {
	Fetch(ctx context.Context) (*Forecast, error)
}
