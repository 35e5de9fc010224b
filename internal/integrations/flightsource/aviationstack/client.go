// Package aviationstack is the structured aviation API source.
package aviationstack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/BearBump/FlightBox/internal/integrations/flightsource"
	"github.com/BearBump/FlightBox/internal/models"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

const DefaultBaseURL = "http://api.aviationstack.com"

type Config struct {
	BaseURL           string
	AccessKey         string
	RequestsPerMinute int
	Timeout           time.Duration
}

type Client struct {
	baseURL   string
	accessKey string
	limiter   *rate.Limiter
	httpc     *http.Client
}

func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 60
	}
	return &Client{
		baseURL:   cfg.BaseURL,
		accessKey: cfg.AccessKey,
		limiter:   rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), 1),
		httpc: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

func (c *Client) Name() models.Source { return models.SourceStructuredAPI }

type endpoint struct {
	Airport   string     `json:"airport"`
	IATA      string     `json:"iata"`
	ICAO      string     `json:"icao"`
	Scheduled *time.Time `json:"scheduled"`
	Estimated *time.Time `json:"estimated"`
	Delay     *int       `json:"delay"`
}

type flightData struct {
	FlightDate   string   `json:"flight_date"`
	FlightStatus string   `json:"flight_status"`
	Departure    endpoint `json:"departure"`
	Arrival      endpoint `json:"arrival"`
	Airline      struct {
		Name string `json:"name"`
		IATA string `json:"iata"`
		ICAO string `json:"icao"`
	} `json:"airline"`
	Flight struct {
		Number string `json:"number"`
		IATA   string `json:"iata"`
	} `json:"flight"`
	Aircraft *struct {
		Registration string `json:"registration"`
		IATA         string `json:"iata"`
		ICAO         string `json:"icao"`
	} `json:"aircraft"`
	Live *struct {
		Updated         time.Time `json:"updated"`
		Latitude        float64   `json:"latitude"`
		Longitude       float64   `json:"longitude"`
		Altitude        float64   `json:"altitude"`
		SpeedHorizontal float64   `json:"speed_horizontal"`
		IsGround        bool      `json:"is_ground"`
	} `json:"live"`
}

type respBody struct {
	Data  []flightData `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) Lookup(ctx context.Context, flightNumber, date string) (*flightsource.PartialFlight, error) {
	if c.accessKey == "" {
		return nil, flightsource.ErrNotConfigured
	}
	if !c.limiter.Allow() {
		return nil, errors.Wrap(flightsource.ErrRateLimited, "aviationstack local quota")
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse base url")
	}
	u.Path = "/v1/flights"
	q := u.Query()
	q.Set("access_key", c.accessKey)
	q.Set("flight_iata", flightNumber)
	if date != "" {
		q.Set("flight_date", date)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "new request")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, flightsource.Transient(errors.Wrap(err, "do request"))
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, flightsource.StatusError("aviationstack", resp.StatusCode)
	}

	var rb respBody
	if err := json.NewDecoder(resp.Body).Decode(&rb); err != nil {
		return nil, errors.Wrap(err, "decode")
	}
	if rb.Error != nil {
		// API отдаёт ошибки ключа/квоты с кодом 200.
		switch rb.Error.Code {
		case "invalid_access_key", "missing_access_key", "inactive_user":
			return nil, errors.Wrap(flightsource.ErrNotConfigured, rb.Error.Code)
		case "usage_limit_reached", "rate_limit_reached":
			return nil, errors.Wrap(flightsource.ErrRateLimited, rb.Error.Code)
		default:
			return nil, errors.Errorf("aviationstack: %s: %s", rb.Error.Code, rb.Error.Message)
		}
	}
	if len(rb.Data) == 0 {
		return nil, flightsource.ErrNotFound
	}

	return toPartial(flightNumber, rb.Data[0]), nil
}

func toPartial(flightNumber string, d flightData) *flightsource.PartialFlight {
	p := &flightsource.PartialFlight{
		Source:        models.SourceStructuredAPI,
		FlightNumber:  flightNumber,
		AirlineCode:   d.Airline.IATA,
		AirlineName:   d.Airline.Name,
		DepartureCode: firstNonEmpty(d.Departure.IATA, d.Departure.ICAO),
		ArrivalCode:   firstNonEmpty(d.Arrival.IATA, d.Arrival.ICAO),
		DepartureName: d.Departure.Airport,
		ArrivalName:   d.Arrival.Airport,
		Status:        mapStatus(d.FlightStatus),
	}
	if d.Aircraft != nil {
		p.AircraftType = firstNonEmpty(d.Aircraft.ICAO, d.Aircraft.IATA)
		p.Registration = d.Aircraft.Registration
	}
	p.DepartureTime = firstTime(d.Departure.Estimated, d.Departure.Scheduled)
	p.ArrivalTime = firstTime(d.Arrival.Estimated, d.Arrival.Scheduled)
	if d.Departure.Delay != nil && *d.Departure.Delay > 15 {
		p.Delayed = true
	}
	if d.Live != nil {
		p.Position = &models.Position{
			Lat:        d.Live.Latitude,
			Lon:        d.Live.Longitude,
			AltitudeM:  d.Live.Altitude,
			VelocityMS: d.Live.SpeedHorizontal / 3.6,
			OnGround:   d.Live.IsGround,
			ReportedAt: d.Live.Updated,
		}
	}
	return p
}

func mapStatus(s string) models.FlightStatus {
	switch strings.ToLower(s) {
	case "scheduled":
		return models.FlightStatusScheduled
	case "active", "diverted":
		return models.FlightStatusAirborne
	case "landed":
		return models.FlightStatusLanded
	case "cancelled":
		return models.FlightStatusCancelled
	default:
		return ""
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstTime(ts ...*time.Time) *time.Time {
	for _, t := range ts {
		if t != nil && !t.IsZero() {
			v := t.UTC()
			return &v
		}
	}
	return nil
}
