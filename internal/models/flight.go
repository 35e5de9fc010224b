package models

import "time"

// Source: происхождение нормализованного рейса.
type Source string

const (
	SourceStructuredAPI   Source = "structured-api"
	SourceLiveScrape      Source = "live-scrape"
	SourceNetworkTracking Source = "network-tracking"
	SourceSynthetic       Source = "synthetic"
)

type FlightStatus string

const (
	FlightStatusScheduled FlightStatus = "scheduled"
	FlightStatusBoarding  FlightStatus = "boarding"
	FlightStatusDeparted  FlightStatus = "departed"
	FlightStatusAirborne  FlightStatus = "airborne"
	FlightStatusLanded    FlightStatus = "landed"
	FlightStatusCancelled FlightStatus = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s FlightStatus) Valid() bool {
	switch s {
	case FlightStatusScheduled, FlightStatusBoarding, FlightStatusDeparted,
		FlightStatusAirborne, FlightStatusLanded, FlightStatusCancelled:
		return true
	}
	return false
}

// Final statuses are not polled anymore.
func (s FlightStatus) Final() bool {
	return s == FlightStatusLanded || s == FlightStatusCancelled
}

type Airline struct {
	Name    string `json:"name" msgpack:"name"`
	Code    string `json:"code" msgpack:"code"`
	Country string `json:"country" msgpack:"country"`
}

type Aircraft struct {
	Type         string `json:"type" msgpack:"type"`
	Manufacturer string `json:"manufacturer" msgpack:"manufacturer"`
	Registration string `json:"registration,omitempty" msgpack:"registration,omitempty"`
}

type Endpoint struct {
	AirportName string `json:"airportName" msgpack:"airportName"`
	IATA        string `json:"iata" msgpack:"iata"`
	City        string `json:"city" msgpack:"city"`
	Country     string `json:"country" msgpack:"country"`
}

type Route struct {
	Departure       Endpoint `json:"departure" msgpack:"departure"`
	Arrival         Endpoint `json:"arrival" msgpack:"arrival"`
	DistanceKm      int      `json:"distanceKm" msgpack:"distanceKm"`
	DistanceMi      int      `json:"distanceMi" msgpack:"distanceMi"`
	DurationMinutes int      `json:"durationMinutes" msgpack:"durationMinutes"`
}

type Schedule struct {
	Departure time.Time `json:"departureIso" msgpack:"departure"`
	Arrival   time.Time `json:"arrivalIso" msgpack:"arrival"`
}

type Position struct {
	Lat        float64   `json:"lat" msgpack:"lat"`
	Lon        float64   `json:"lon" msgpack:"lon"`
	AltitudeM  float64   `json:"altitudeM" msgpack:"altitudeM"`
	VelocityMS float64   `json:"velocityMs" msgpack:"velocityMs"`
	OnGround   bool      `json:"onGround" msgpack:"onGround"`
	ReportedAt time.Time `json:"reportedAt" msgpack:"reportedAt"`
}

type Status struct {
	Current  FlightStatus `json:"current" msgpack:"current"`
	Delayed  bool         `json:"delayed,omitempty" msgpack:"delayed,omitempty"`
	Position *Position    `json:"position,omitempty" msgpack:"position,omitempty"`
}

// NormalizedFlight is the canonical flight shape produced by the resolver.
type NormalizedFlight struct {
	FlightNumber string   `json:"flightNumber" msgpack:"flightNumber"`
	Airline      Airline  `json:"airline" msgpack:"airline"`
	Aircraft     Aircraft `json:"aircraft" msgpack:"aircraft"`
	Route        Route    `json:"route" msgpack:"route"`
	Schedule     Schedule `json:"schedule" msgpack:"schedule"`
	Status       Status   `json:"status" msgpack:"status"`
	Source       Source   `json:"source" msgpack:"source"`
}
