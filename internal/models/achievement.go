package models

import "time"

type ConditionType string

const (
	CondTotalFlights         ConditionType = "total_flights"
	CondTotalMiles           ConditionType = "total_miles"
	CondTotalKm              ConditionType = "total_km"
	CondAirports             ConditionType = "airports"
	CondCountries            ConditionType = "countries"
	CondContinents           ConditionType = "continents"
	CondAirlines             ConditionType = "airlines"
	CondAircraftTypes        ConditionType = "aircraft_types"
	CondInternationalFlights ConditionType = "international_flights"
	CondDomesticFlights      ConditionType = "domestic_flights"
	CondLongHaulFlights      ConditionType = "long_haul_flights"
	CondTotalHours           ConditionType = "total_hours"
	CondBusinessFlights      ConditionType = "business_flights"
	CondFirstClassFlights    ConditionType = "first_class_flights"
	CondNightFlights         ConditionType = "night_flights"
	CondWeekendFlights       ConditionType = "weekend_flights"
	CondLongestFlightKm      ConditionType = "longest_flight_km"
)

type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

type Condition struct {
	Type   ConditionType `json:"type"`
	Target float64       `json:"target"`
}

// Achievement is a catalog entry. Catalog entries carry no per-user state.
type Achievement struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Rarity      Rarity    `json:"rarity"`
	XP          int       `json:"xp"`
	Condition   Condition `json:"condition"`
}

type UnlockedAchievement struct {
	AchievementID string    `json:"achievementId"`
	UnlockedAt    time.Time `json:"unlockedAt"`
}

// AircraftAchievement is derived from an aircraft type string, not from the catalog.
type AircraftAchievement struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	XP          int    `json:"xp"`
	Rarity      Rarity `json:"rarity"`
	Category    string `json:"category"`
}
