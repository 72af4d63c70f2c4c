// Package weather looks up the current temperature for a city. Lookups never
// fail from the caller's point of view: every failure mode maps to a
// documented fallback temperature.
package weather

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	// FallbackTempC is returned when the service responds but the response
	// is unusable (non-200 status or missing temperature field).
	FallbackTempC = 15.0

	// TransportFallbackTempC is returned when the call fails before any
	// response is received. The asymmetry with FallbackTempC is inherited
	// behavior and kept as-is.
	TransportFallbackTempC = 20.0
)

// Client calls the external weather service.
type Client struct {
	http   *resty.Client
	apiKey string
}

// NewClient creates a weather client against the given base URL.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)

	return &Client{http: c, apiKey: apiKey}
}

type weatherResponse struct {
	Main *struct {
		Temp *float64 `json:"temp"`
	} `json:"main"`
}

// CurrentTemperature returns the current temperature in °C for a city, or a
// fallback value on any failure. It never returns an error.
func (c *Client) CurrentTemperature(ctx context.Context, city string) float64 {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":     city,
			"appid": c.apiKey,
			"units": "metric",
		}).
		Get("/weather")
	if err != nil {
		slog.Error("WEATHER: Lookup failed before a response was received", "city", city, "error", err)
		return TransportFallbackTempC
	}
	if resp.StatusCode() != http.StatusOK {
		slog.Error("WEATHER: Lookup returned non-success status", "city", city, "status", resp.StatusCode())
		return FallbackTempC
	}

	var body weatherResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil || body.Main == nil || body.Main.Temp == nil {
		slog.Error("WEATHER: Response is missing the temperature field", "city", city)
		return FallbackTempC
	}

	return *body.Main.Temp
}
