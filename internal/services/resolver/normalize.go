package resolver

import (
	"strings"
	"time"

	"github.com/BearBump/FlightBox/internal/geo"
	"github.com/BearBump/FlightBox/internal/integrations/flightsource"
	"github.com/BearBump/FlightBox/internal/models"
	"github.com/BearBump/FlightBox/internal/refdata"
	"github.com/BearBump/FlightBox/internal/services/aircraft"
)

type endpoint struct {
	models.Endpoint
	lat, lon float64
	hasCoord bool
}

// Normalize turns a source result into the canonical shape. It reports false
// when the result has no usable pair of endpoints or no way to get a distance.
func Normalize(p *flightsource.PartialFlight) (*models.NormalizedFlight, bool) {
	if p == nil || !p.HasRoute() {
		return nil, false
	}
	dep, ok := resolveEndpoint(p.DepartureCode, p.DepartureName)
	if !ok {
		return nil, false
	}
	arr, ok := resolveEndpoint(p.ArrivalCode, p.ArrivalName)
	if !ok || arr.IATA == dep.IATA {
		return nil, false
	}

	var dist geo.Distance
	switch {
	case p.DistanceKm != nil && *p.DistanceKm > 0:
		dist = geo.FromKm(*p.DistanceKm)
	case dep.hasCoord && arr.hasCoord:
		dist = geo.HaversineDistance(dep.lat, dep.lon, arr.lat, arr.lon)
	default:
		return nil, false
	}

	duration := 0
	if p.DurationMinutes != nil && *p.DurationMinutes > 0 {
		duration = *p.DurationMinutes
	} else {
		duration = geo.EstimateDurationMinutes(float64(dist.Km), p.AircraftType)
	}

	f := &models.NormalizedFlight{
		FlightNumber: flightsource.NormalizeFlightNumber(p.FlightNumber),
		Airline:      normalizeAirline(p),
		Aircraft: models.Aircraft{
			Type:         strings.TrimSpace(p.AircraftType),
			Manufacturer: p.AircraftManufacturer,
			Registration: p.Registration,
		},
		Route: models.Route{
			Departure:       dep.Endpoint,
			Arrival:         arr.Endpoint,
			DistanceKm:      dist.Km,
			DistanceMi:      dist.Mi,
			DurationMinutes: duration,
		},
		Status: models.Status{
			Current:  models.FlightStatusScheduled,
			Delayed:  p.Delayed,
			Position: p.Position,
		},
		Source: p.Source,
	}
	if f.Aircraft.Manufacturer == "" {
		f.Aircraft.Manufacturer = aircraft.Manufacturer(f.Aircraft.Type)
	}
	if p.Status.Valid() {
		f.Status.Current = p.Status
	}
	if p.DepartureTime != nil {
		f.Schedule.Departure = p.DepartureTime.UTC()
	}
	switch {
	case p.ArrivalTime != nil:
		f.Schedule.Arrival = p.ArrivalTime.UTC()
	case !f.Schedule.Departure.IsZero():
		f.Schedule.Arrival = f.Schedule.Departure.Add(time.Duration(duration) * time.Minute)
	}
	return f, true
}

func resolveEndpoint(code, name string) (endpoint, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if a, ok := refdata.LookupAirport(code); ok {
		return endpoint{
			Endpoint: models.Endpoint{AirportName: a.Name, IATA: a.IATA, City: a.City, Country: a.Country},
			lat:      a.Lat,
			lon:      a.Lon,
			hasCoord: true,
		}, true
	}
	// Неизвестный аэропорт принимаем только по IATA-коду.
	if len(code) != 3 {
		return endpoint{}, false
	}
	if name == "" {
		name = code
	}
	return endpoint{Endpoint: models.Endpoint{AirportName: name, IATA: code}}, true
}

func normalizeAirline(p *flightsource.PartialFlight) models.Airline {
	code := strings.ToUpper(strings.TrimSpace(p.AirlineCode))
	if code == "" {
		code, _, _ = flightsource.SplitFlightNumber(flightsource.NormalizeFlightNumber(p.FlightNumber))
	}
	out := models.Airline{Code: code, Name: p.AirlineName, Country: p.AirlineCountry}
	if a, ok := refdata.LookupAirline(code); ok {
		out.Code = a.Code
		if out.Name == "" {
			out.Name = a.Name
		}
		if out.Country == "" {
			out.Country = a.Country
		}
	}
	if out.Name == "" {
		out.Name = out.Code
	}
	return out
}
