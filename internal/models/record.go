package models

import "time"

type CabinClass string

const (
	CabinEconomy  CabinClass = "economy"
	CabinPremium  CabinClass = "premium"
	CabinBusiness CabinClass = "business"
	CabinFirst    CabinClass = "first"
)

func (c CabinClass) Valid() bool {
	switch c {
	case CabinEconomy, CabinPremium, CabinBusiness, CabinFirst:
		return true
	}
	return false
}

type TimeOfDay string

const (
	TimeOfDayDay   TimeOfDay = "day"
	TimeOfDayNight TimeOfDay = "night"
)

func (t TimeOfDay) Valid() bool {
	return t == TimeOfDayDay || t == TimeOfDayNight
}

type Photo struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// FlightRecord is a logged flight as it is persisted.
type FlightRecord struct {
	ID         string           `json:"id"`
	UserID     string           `json:"userId"`
	FlightDate string           `json:"flightDate,omitempty"`
	Flight     NormalizedFlight `json:"flight"`
	CabinClass CabinClass       `json:"cabinClass"`
	TimeOfDay  TimeOfDay        `json:"timeOfDay,omitempty"`
	IsDomestic bool             `json:"isDomestic"`
	Photos     []Photo          `json:"photos"`
	ReviewText string           `json:"reviewText,omitempty"`
	XPAwarded  int              `json:"xpAwarded"`
	Likes      int              `json:"likes"`

	NextStatusCheckAt *time.Time `json:"nextStatusCheckAt,omitempty"`
	StatusCheckFails  int32      `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// StatusUpdate is applied to a logged flight when fresh telemetry arrives.
type StatusUpdate struct {
	FlightID    string
	CheckedAt   time.Time
	Status      FlightStatus
	Position    *Position
	NextCheckAt time.Time
	Error       *string
}
