package models

import (
	"math"
	"sort"
)

// ShortestUnset seeds UserStats.Shortest so the first flight always replaces it.
const ShortestUnset = math.MaxInt32

// CodeSet is a sorted set of unique codes. Only its cardinality is scored.
type CodeSet []string

// Add returns a set that contains code; the receiver is never modified.
func (s CodeSet) Add(code string) CodeSet {
	if code == "" {
		return s
	}
	i := sort.SearchStrings(s, code)
	if i < len(s) && s[i] == code {
		return s
	}
	out := make(CodeSet, 0, len(s)+1)
	out = append(out, s[:i]...)
	out = append(out, code)
	out = append(out, s[i:]...)
	return out
}

func (s CodeSet) Has(code string) bool {
	i := sort.SearchStrings(s, code)
	return i < len(s) && s[i] == code
}

func (s CodeSet) Len() int { return len(s) }

func (s CodeSet) Clone() CodeSet {
	if s == nil {
		return CodeSet{}
	}
	out := make(CodeSet, len(s))
	copy(out, s)
	return out
}

type Extremum struct {
	Km int `json:"km"`
	Mi int `json:"mi"`
}

type SeatClassBreakdown struct {
	Economy  int `json:"economy"`
	Premium  int `json:"premium"`
	Business int `json:"business"`
	First    int `json:"first"`
}

type DayNightRatio struct {
	Day   int `json:"day"`
	Night int `json:"night"`
}

type WeekdayWeekend struct {
	Weekday int `json:"weekday"`
	Weekend int `json:"weekend"`
}

type DomesticInternational struct {
	Domestic      int `json:"domestic"`
	International int `json:"international"`
}

// UserStats is the per-user lifetime snapshot. Level is not stored here:
// it is always derived from XP.
type UserStats struct {
	Flights int     `json:"flights"`
	MilesKm int     `json:"milesKm"`
	MilesMi int     `json:"milesMi"`
	Hours   float64 `json:"hours"`

	Airports   CodeSet `json:"airports"`
	Airlines   CodeSet `json:"airlines"`
	Aircraft   CodeSet `json:"aircraft"`
	Countries  CodeSet `json:"countries"`
	Continents CodeSet `json:"continents"`

	// AircraftTypes keeps the raw type strings for family achievements.
	AircraftTypes CodeSet `json:"aircraftTypes"`

	Longest  Extremum `json:"longest"`
	Shortest Extremum `json:"shortest"`

	SeatClassBreakdown    SeatClassBreakdown    `json:"seatClassBreakdown"`
	DayNightRatio         DayNightRatio         `json:"dayNightRatio"`
	WeekdayWeekend        WeekdayWeekend        `json:"weekdayWeekend"`
	DomesticInternational DomesticInternational `json:"domesticInternational"`

	LongHaulFlights   int `json:"longHaulFlights"`
	BusinessFlights   int `json:"businessFlights"`
	FirstClassFlights int `json:"firstClassFlights"`

	XP int `json:"xp"`
}

// EmptyUserStats is the snapshot of a user with no flights.
func EmptyUserStats() UserStats {
	return UserStats{
		Airports:      CodeSet{},
		Airlines:      CodeSet{},
		Aircraft:      CodeSet{},
		Countries:     CodeSet{},
		Continents:    CodeSet{},
		AircraftTypes: CodeSet{},
		Shortest:      Extremum{Km: ShortestUnset, Mi: ShortestUnset},
	}
}

// Clone returns a deep copy.
func (s UserStats) Clone() UserStats {
	out := s
	out.Airports = s.Airports.Clone()
	out.Airlines = s.Airlines.Clone()
	out.Aircraft = s.Aircraft.Clone()
	out.Countries = s.Countries.Clone()
	out.Continents = s.Continents.Clone()
	out.AircraftTypes = s.AircraftTypes.Clone()
	return out
}

type LeaderboardMetric string

const (
	LeaderboardXP       LeaderboardMetric = "xp"
	LeaderboardFlights  LeaderboardMetric = "flights"
	LeaderboardDistance LeaderboardMetric = "distance"
)

func (m LeaderboardMetric) Valid() bool {
	return m == LeaderboardXP || m == LeaderboardFlights || m == LeaderboardDistance
}

type LeaderboardEntry struct {
	Rank    int    `json:"rank"`
	UserID  string `json:"userId"`
	XP      int    `json:"xp"`
	Level   int    `json:"level"`
	Flights int    `json:"flights"`
	MilesKm int    `json:"milesKm"`
}
