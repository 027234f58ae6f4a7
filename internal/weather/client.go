package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const DefaultBaseURL = "https://api.open-meteo.com/v1"

// Forecast is the current condition plus a short daily outlook.
type Forecast struct {
	Temperature float64 `json:"temperature"`
	Code        int     `json:"code"`
	Description string  `json:"description"`
	Days        []Day   `json:"days"`
}

type Day struct {
	Date        string  `json:"date"`
	Code        int     `json:"code"`
	Description string  `json:"description"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
}

// Client fetches forecasts from Open-Meteo.
type Client struct {
	httpClient *http.Client
	BaseURL    string
	Days       int
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		BaseURL:    baseURL,
		Days:       3,
	}
}

type forecastResponse struct {
	Current struct {
		Temperature float64 `json:"temperature_2m"`
		WeatherCode int     `json:"weather_code"`
	} `json:"current"`
	Daily struct {
		Time        []string  `json:"time"`
		WeatherCode []int     `json:"weather_code"`
		Max         []float64 `json:"temperature_2m_max"`
		Min         []float64 `json:"temperature_2m_min"`
	} `json:"daily"`
}

func (c *Client) Forecast(ctx context.Context, lat, lon float64) (Forecast, error) {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(lat, 'f', 4, 64))
	params.Set("longitude", strconv.FormatFloat(lon, 'f', 4, 64))
	params.Set("current", "temperature_2m,weather_code")
	params.Set("daily", "weather_code,temperature_2m_max,temperature_2m_min")
	params.Set("forecast_days", strconv.Itoa(c.Days))
	params.Set("timezone", "auto")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/forecast?"+params.Encode(), nil)
	if err != nil {
		return Forecast{}, fmt.Errorf("weather: build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Forecast{}, fmt.Errorf("weather: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Forecast{}, fmt.Errorf("weather: status %d: %s", resp.StatusCode, string(body))
	}

	var raw forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return Forecast{}, fmt.Errorf("weather: decode response: %w", err)
	}

	f := Forecast{
		Temperature: raw.Current.Temperature,
		Code:        raw.Current.WeatherCode,
		Description: Describe(raw.Current.WeatherCode),
	}
	for i, date := range raw.Daily.Time {
		if i >= len(raw.Daily.WeatherCode) || i >= len(raw.Daily.Max) || i >= len(raw.Daily.Min) {
			break
		}
		f.Days = append(f.Days, Day{
			Date:        date,
			Code:        raw.Daily.WeatherCode[i],
			Description: Describe(raw.Daily.WeatherCode[i]),
			Min:         raw.Daily.Min[i],
			Max:         raw.Daily.Max[i],
		})
	}
	return f, nil
}

// Describe maps a WMO weather interpretation code to a short label.
func Describe(code int) string {
	switch {
	case code == 0:
		return "Clear sky"
	case code <= 2:
		return "Partly cloudy"
	case code == 3:
		return "Overcast"
	case code == 45 || code == 48:
		return "Fog"
	case code >= 51 && code <= 57:
		return "Drizzle"
	case code >= 61 && code <= 67:
		return "Rain"
	case code >= 71 && code <= 77:
		return "Snow"
	case code >= 80 && code <= 82:
		return "Showers"
	case code == 85 || code == 86:
		return "Snow showers"
	case code >= 95:
		return "Thunderstorm"
	}
	return "Unknown"
}
