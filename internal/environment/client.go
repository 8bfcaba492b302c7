// Package environment fetches the home dashboard widgets: current weather,
// reverse-geocoded place name and daily prayer times.
package environment

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

const (
	OpenMeteoURL = "https://api.open-meteo.com"
	NominatimURL = "https://nominatim.openstreetmap.org"
	AladhanURL   = "https://api.aladhan.com"

	userAgent = "saadSocialAPI/1.0"
)

type Weather struct {
	Temp      int    `json:"temp"`
	Condition string `json:"condition"`
}

type Location struct {
	City    string `json:"city"`
	Country string `json:"country"`
}

type PrayerTimes struct {
	Timings  map[string]string `json:"timings"`
	Timezone string            `json:"timezone,omitempty"`
}

type Endpoints struct {
	Weather string
	Geocode string
	Prayer  string
}

func DefaultEndpoints() Endpoints {
	return Endpoints{Weather: OpenMeteoURL, Geocode: NominatimURL, Prayer: AladhanURL}
}

type Client struct {
	weather *resty.Client
	geocode *resty.Client
	prayer  *resty.Client
}

func NewClient(ep Endpoints, timeout time.Duration) *Client {
	build := func(base string) *resty.Client {
		return resty.New().
			SetBaseURL(base).
			SetTimeout(timeout).
			SetHeader("User-Agent", userAgent).
			SetHeader("Accept", "application/json")
	}
	return &Client{
		weather: build(ep.Weather),
		geocode: build(ep.Geocode),
		prayer:  build(ep.Prayer),
	}
}

func coord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

type openMeteoResponse struct {
	CurrentWeather *struct {
		Temperature float64 `json:"temperature"`
		WeatherCode int     `json:"weathercode"`
	} `json:"current_weather"`
}

func (c *Client) Weather(ctx context.Context, lat, lon float64) (*Weather, error) {
	var out openMeteoResponse
	resp, err := c.weather.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"latitude":        coord(lat),
			"longitude":       coord(lon),
			"current_weather": "true",
		}).
		SetResult(&out).
		Get("/v1/forecast")
	if err := checkResponse("weather", resp, err); err != nil {
		return nil, err
	}
	if out.CurrentWeather == nil {
		return nil, errors.New("weather: response has no current_weather")
	}
	return &Weather{
		Temp:      int(math.Round(out.CurrentWeather.Temperature)),
		Condition: ConditionFor(out.CurrentWeather.WeatherCode),
	}, nil
}

// ConditionFor maps a WMO weather code to the dashboard label.
func ConditionFor(code int) string {
	switch {
	case code == 0:
		return "Clear"
	case code <= 3:
		return "Partly Cloudy"
	case code >= 45 && code <= 48:
		return "Foggy"
	case code >= 51 && code <= 67:
		return "Rain"
	}
	return "Overcast"
}

type nominatimResponse struct {
	Address struct {
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
		Country string `json:"country"`
	} `json:"address"`
}

func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (*Location, error) {
	var out nominatimResponse
	resp, err := c.geocode.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"lat":    coord(lat),
			"lon":    coord(lon),
			"format": "json",
		}).
		SetResult(&out).
		Get("/reverse")
	if err := checkResponse("reverse geocode", resp, err); err != nil {
		return nil, err
	}
	city := out.Address.City
	if city == "" {
		city = out.Address.Town
	}
	if city == "" {
		city = out.Address.Village
	}
	if city == "" {
		city = "Nearby"
	}
	return &Location{City: city, Country: out.Address.Country}, nil
}

type aladhanResponse struct {
	Data *struct {
		Timings map[string]string `json:"timings"`
		Meta    struct {
			Timezone string `json:"timezone"`
		} `json:"meta"`
	} `json:"data"`
}

func (c *Client) PrayerTimes(ctx context.Context, lat, lon float64) (*PrayerTimes, error) {
	var out aladhanResponse
	resp, err := c.prayer.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"latitude":  coord(lat),
			"longitude": coord(lon),
			"method":    "2",
		}).
		SetResult(&out).
		Get("/v1/timings")
	if err := checkResponse("prayer times", resp, err); err != nil {
		return nil, err
	}
	if out.Data == nil || len(out.Data.Timings) == 0 {
		return nil, errors.New("prayer times: response has no timings")
	}
	timings := make(map[string]string, len(Prayers))
	for _, name := range Prayers {
		t, ok := out.Data.Timings[name]
		if !ok {
			return nil, errors.Errorf("prayer times: missing %s", name)
		}
		timings[name] = t
	}
	return &PrayerTimes{Timings: timings, Timezone: out.Data.Meta.Timezone}, nil
}

func checkResponse(what string, resp *resty.Response, err error) error {
	if err != nil {
		return errors.Wrap(err, what)
	}
	if resp.IsError() {
		return fmt.Errorf("%s: unexpected status %d", what, resp.StatusCode())
	}
	return nil
}
