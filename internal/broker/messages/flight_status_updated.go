package messages

import "time"

type FlightStatusUpdated struct {
	FlightID  string    `json:"flight_id"`
	CheckedAt time.Time `json:"checked_at"`

	Status   string    `json:"status,omitempty"`
	Position *Position `json:"position,omitempty"`

	NextCheckAt time.Time `json:"next_check_at"`

	Error *string `json:"error,omitempty"`
}

type Position struct {
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	AltitudeM  float64   `json:"altitude_m"`
	VelocityMS float64   `json:"velocity_ms"`
	OnGround   bool      `json:"on_ground"`
	ReportedAt time.Time `json:"reported_at"`
}
