package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"

	"github.com/xxSohoxx/scheduler-bot/internal/domain/forecast"
	"github.com/xxSohoxx/scheduler-bot/internal/domain/messaging"
)

// WMO weather interpretation codes.
var weatherCodes = map[int]string{
	0:  "Clear sky",
	1:  "Mainly clear",
	2:  "Partly cloudy",
	3:  "Overcast",
	45: "Fog",
	48: "Depositing rime fog",
	51: "Drizzle: Light intensity",
	53: "Drizzle: Moderate intensity",
	55: "Drizzle: Dense intensity",
	56: "Freezing Drizzle: Light intensity",
	57: "Freezing Drizzle: Dense intensity",
	61: "Rain: Slight intensity",
	63: "Rain: Moderate intensity",
	65: "Rain: Heavy intensity",
	66: "Freezing Rain: Light intensity",
	67: "Freezing Rain: Heavy intensity",
	71: "Snowfall: Slight intensity",
	73: "Snowfall: Moderate intensity",
	75: "Snowfall: Heavy intensity",
	77: "Snow grains",
	80: "Rain showers: Slight intensity",
	81: "Rain showers: Moderate intensity",
	82: "Rain showers: Violent intensity",
	85: "Snow showers: Slight intensity",
	86: "Snow showers: Heavy intensity",
	95: "Thunderstorm: Slight intensity",
	96: "Thunderstorm: Slight hail",
	99: "Thunderstorm: Heavy hail",
}

type windBand struct {
	from    float64 // km/h, inclusive
	name    string
	effects string
}

// Beaufort bands from moderate breeze up, ascending.
var windBands = []windBand{
	{20, "Moderate breeze", "Raises dust and loose paper; small branches moved"},
	{29, "Fresh breeze", "Small trees in leaf begin to sway; crested wavelets form on inland waters"},
	{39, "Strong breeze", "Large branches in motion; whistling heard in telegraph wires; umbrellas used with difficulty"},
	{50, "High wind, moderate gale, near gale", "Whole trees in motion; inconvenience felt when walking against the wind"},
	{62, "Gale, fresh gale", "Twigs break off trees; generally impedes progress"},
	{75, "Strong/severe gale", "Slight structural damage (chimney pots and slates removed)"},
	{89, "Storm, whole gale", "Considerable structural damage; trees uprooted; very rarely experienced"},
	{103, "Violent storm", "Very rarely experienced; accompanied by widespread damage"},
	{118, "Hurricane-force", "Devastation"},
}

// Hours of the day sampled for the digest.
const (
	hourMorning = 8
	hourDay     = 13
	hourEvening = 18
	hourNight   = 23
)

// uvWarnAbove is the clear-sky UV index above which the digest warns.
const uvWarnAbove = 3

// WeatherService builds and sends the daily weather digest.
type WeatherService struct {
	provider forecast.Provider
	gateway  messaging.Gateway
	logger   *logrus.Entry
}

func NewWeatherService(provider forecast.Provider, gateway messaging.Gateway, logger *logrus.Entry) *WeatherService {
	return &WeatherService{provider: provider, gateway: gateway, logger: logger}
}

// Digest fetches today's forecast and renders it.
func (s *WeatherService) Digest(ctx context.Context) (string, error) {
	f, err := s.provider.Fetch(ctx)
	if err != nil {
		return "", err
	}
	return FormatForecast(f)
}

// SendDigest is the daily job. A missing forecast skips the day.
func (s *WeatherService) SendDigest(ctx context.Context) error {
	digest, err := s.Digest(ctx)
	if err != nil {
		if errors.Is(err, forecast.ErrForecastUnavailable) {
			s.logger.WithError(err).Warn("No forecast today, skipping weather digest")
			return nil
		}
		return err
	}
	if err := s.gateway.Send(ctx, digest); err != nil {
		return err
	}
	s.logger.Info("Weather digest sent")
	return nil
}

// FormatForecast renders f as the digest text.
func FormatForecast(f *forecast.Forecast) (string, error) {
	if f == nil || len(f.HourlyTemperature) <= hourNight || len(f.HourlyCode) <= hourEvening {
		return "", errors.Wrap(forecast.ErrForecastUnavailable, "hourly series too short")
	}

	temps := f.HourlyTemperature
	var b strings.Builder
	fmt.Fprintf(&b, "Morning temperature: %v°C\n", temps[hourMorning])
	fmt.Fprintf(&b, "Day temperature: %v°C\n", temps[hourDay])
	fmt.Fprintf(&b, "Evening temperature: %v°C\n", temps[hourEvening])
	fmt.Fprintf(&b, "Night temperature: %v°C\n", temps[hourNight])
	b.WriteString("\n")
	fmt.Fprintf(&b, "Morning weather: %s\n", describeCode(f.HourlyCode[hourMorning]))
	fmt.Fprintf(&b, "Day weather: %s\n", describeCode(f.HourlyCode[hourDay]))
	fmt.Fprintf(&b, "Evening weather: %s\n", describeCode(f.HourlyCode[hourEvening]))

	if f.UVIndexClearSky > uvWarnAbove {
		fmt.Fprintf(&b, "\nUV index with clear sky today is %v\n", f.UVIndexClearSky)
		b.WriteString("Seek shade during midday hours! Slip on a shirt, slop on sunscreen and slap on a hat!\n")
	}

	if band, ok := windBandFor(f.WindSpeedMax); ok {
		fmt.Fprintf(&b, "\nMaximum wind speed today is %v km/h\n", f.WindSpeedMax)
		fmt.Fprintf(&b, "It is qualified as %s. Possible effects: %s\n", band.name, band.effects)
	}

	return strings.TrimRight(b.String(), "\n"), nil
}

func describeCode(code int) string {
	if d, ok := weatherCodes[code]; ok {
		return d
	}
	return fmt.Sprintf("Unknown (code %d)", code)
}

func windBandFor(speed float64) (windBand, bool) {
	var found windBand
	ok := false
	for _, band := range windBands {
		if speed >= band.from {
			found, ok = band, true
		}
	}
	return found, ok
}
