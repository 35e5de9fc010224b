package messages

import "time"

const (
	TopicFlightLogged        = "flight.logged"
	TopicFlightStatusUpdated = "flight.status_updated"
)

// FlightLogged is published after a flight has been committed.
type FlightLogged struct {
	FlightID     string `json:"flight_id"`
	UserID       string `json:"user_id"`
	FlightNumber string `json:"flight_number"`
	FlightDate   string `json:"flight_date,omitempty"`
	Airline      string `json:"airline"`
	Aircraft     string `json:"aircraft,omitempty"`

	Departure  string `json:"departure"`
	Arrival    string `json:"arrival"`
	DistanceKm int    `json:"distance_km"`

	CabinClass string `json:"cabin_class"`
	Source     string `json:"source"`
	XPAwarded  int    `json:"xp_awarded"`

	LoggedAt time.Time `json:"logged_at"`
}
