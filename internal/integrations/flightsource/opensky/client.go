// Package opensky is the network-tracking source. It knows the airport pair
// for a callsign and live state vectors, but nothing about the aircraft type.
package opensky

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/BearBump/FlightBox/internal/integrations/flightsource"
	"github.com/BearBump/FlightBox/internal/models"
	"github.com/BearBump/FlightBox/internal/refdata"
	"github.com/pkg/errors"
)

type Client struct {
	baseURL  string
	username string
	password string
	httpc    *http.Client
}

// New returns a client; an empty baseURL leaves the source unconfigured.
func New(baseURL, username, password string) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		password: password,
		httpc: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) Name() models.Source { return models.SourceNetworkTracking }

type routeResp struct {
	Callsign string   `json:"callsign"`
	Route    []string `json:"route"`
}

type statesResp struct {
	Time   int64   `json:"time"`
	States [][]any `json:"states"`
}

func (c *Client) Lookup(ctx context.Context, flightNumber, date string) (*flightsource.PartialFlight, error) {
	if c.baseURL == "" {
		return nil, flightsource.ErrNotConfigured
	}
	airline, number, ok := flightsource.SplitFlightNumber(flightNumber)
	if !ok {
		return nil, flightsource.ErrNotFound
	}
	callsign := refdata.Callsign(airline, number)
	if callsign == "" {
		callsign = flightNumber
	}

	p := &flightsource.PartialFlight{
		Source:       models.SourceNetworkTracking,
		FlightNumber: flightNumber,
		AirlineCode:  airline,
	}

	route, err := c.route(ctx, callsign)
	if err != nil && !errors.Is(err, flightsource.ErrNotFound) {
		return nil, err
	}
	if len(route) >= 2 {
		p.DepartureCode = route[0]
		p.ArrivalCode = route[len(route)-1]
	}

	// Живые координаты есть только у рейсов "сегодня".
	if date == "" || date == time.Now().UTC().Format(time.DateOnly) {
		pos, err := c.position(ctx, callsign)
		if err != nil && !errors.Is(err, flightsource.ErrNotFound) {
			return nil, err
		}
		if pos != nil {
			p.Position = pos
			if !pos.OnGround {
				p.Status = models.FlightStatusAirborne
			}
		}
	}

	if !p.HasRoute() && p.Position == nil {
		return nil, flightsource.ErrNotFound
	}
	return p, nil
}

func (c *Client) route(ctx context.Context, callsign string) ([]string, error) {
	var rr routeResp
	if err := c.getJSON(ctx, "/api/routes", url.Values{"callsign": {callsign}}, &rr); err != nil {
		return nil, err
	}
	return rr.Route, nil
}

func (c *Client) position(ctx context.Context, callsign string) (*models.Position, error) {
	var sr statesResp
	if err := c.getJSON(ctx, "/api/states/all", nil, &sr); err != nil {
		return nil, err
	}
	for _, s := range sr.States {
		if pos, ok := parseState(s, callsign); ok {
			return pos, nil
		}
	}
	return nil, flightsource.ErrNotFound
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, dst any) error {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return errors.Wrap(err, "parse base url")
	}
	u.Path = path
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return errors.Wrap(err, "new request")
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return flightsource.Transient(errors.Wrap(err, "do request"))
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return flightsource.StatusError("opensky", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return errors.Wrap(err, "decode")
	}
	return nil
}

// State vector layout:
// 0 icao24, 1 callsign, 5 longitude, 6 latitude, 7 baro_altitude,
// 8 on_ground, 9 velocity, 4 last_contact.
func parseState(s []any, callsign string) (*models.Position, bool) {
	if len(s) < 10 {
		return nil, false
	}
	cs, _ := s[1].(string)
	if !strings.EqualFold(strings.TrimSpace(cs), callsign) {
		return nil, false
	}
	lon, okLon := s[5].(float64)
	lat, okLat := s[6].(float64)
	if !okLon || !okLat {
		return nil, false
	}
	pos := &models.Position{Lat: lat, Lon: lon}
	pos.AltitudeM, _ = s[7].(float64)
	pos.OnGround, _ = s[8].(bool)
	pos.VelocityMS, _ = s[9].(float64)
	if lc, ok := s[4].(float64); ok {
		pos.ReportedAt = time.Unix(int64(lc), 0).UTC()
	}
	return pos, true
}
