// Package stats merges logged flights into a user's lifetime snapshot.
// Everything here is pure; persistence and locking belong to the caller.
package stats

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/BearBump/FlightBox/internal/geo"
	"github.com/BearBump/FlightBox/internal/models"
	"github.com/BearBump/FlightBox/internal/refdata"
)

// LongHaulKm is the distance from which a flight counts as long-haul.
const LongHaulKm = 4000

type MergeInput struct {
	CabinClass models.CabinClass
	TimeOfDay  models.TimeOfDay // empty: not counted in the day/night ratio
	IsDomestic bool
	FlightDate time.Time // zero: not counted in weekday/weekend
}

// New returns the snapshot of a user with no flights.
func New() models.UserStats {
	return models.EmptyUserStats()
}

// Merge returns a new snapshot with f added. current is not modified.
func Merge(current models.UserStats, f models.NormalizedFlight, in MergeInput) models.UserStats {
	s := current.Clone()
	firstFlight := current.Flights == 0

	km := f.Route.DistanceKm
	if km < 0 {
		km = 0
	}
	mi := f.Route.DistanceMi
	if mi <= 0 && km > 0 {
		mi = geo.KmToMi(km)
	}

	s.Flights++
	s.MilesKm += km
	s.MilesMi += mi
	s.Hours = math.Round((s.Hours+float64(f.Route.DurationMinutes)/60)*100) / 100

	s.Airports = s.Airports.Add(f.Route.Departure.IATA).Add(f.Route.Arrival.IATA)
	s.Airlines = s.Airlines.Add(f.Airline.Code)
	s.Aircraft = s.Aircraft.Add(refdata.AircraftCode(f.Aircraft.Type))
	s.AircraftTypes = s.AircraftTypes.Add(strings.TrimSpace(f.Aircraft.Type))
	for _, c := range []string{f.Route.Departure.Country, f.Route.Arrival.Country} {
		if c == "" {
			continue
		}
		s.Countries = s.Countries.Add(c)
		s.Continents = s.Continents.Add(refdata.ContinentOf(c))
	}

	if km > s.Longest.Km {
		s.Longest = models.Extremum{Km: km, Mi: mi}
	}
	if firstFlight || km < s.Shortest.Km {
		s.Shortest = models.Extremum{Km: km, Mi: mi}
	}

	switch in.CabinClass {
	case models.CabinPremium:
		s.SeatClassBreakdown.Premium++
	case models.CabinBusiness:
		s.SeatClassBreakdown.Business++
		s.BusinessFlights++
	case models.CabinFirst:
		s.SeatClassBreakdown.First++
		s.FirstClassFlights++
	default:
		s.SeatClassBreakdown.Economy++
	}

	switch in.TimeOfDay {
	case models.TimeOfDayDay:
		s.DayNightRatio.Day++
	case models.TimeOfDayNight:
		s.DayNightRatio.Night++
	}

	if !in.FlightDate.IsZero() {
		if IsWeekend(in.FlightDate) {
			s.WeekdayWeekend.Weekend++
		} else {
			s.WeekdayWeekend.Weekday++
		}
	}

	if in.IsDomestic {
		s.DomesticInternational.Domestic++
	} else {
		s.DomesticInternational.International++
	}

	if km >= LongHaulKm {
		s.LongHaulFlights++
	}
	return s
}

// Recompute rebuilds a snapshot from logged records, oldest first. XP is not
// derived from records; the caller carries it over.
func Recompute(records []models.FlightRecord) models.UserStats {
	sorted := make([]models.FlightRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CreatedAt.Before(sorted[j].CreatedAt) })

	s := New()
	for _, r := range sorted {
		s = Merge(s, r.Flight, InputFor(r))
	}
	return s
}

// InputFor rebuilds the merge input stored with a record.
func InputFor(r models.FlightRecord) MergeInput {
	in := MergeInput{
		CabinClass: r.CabinClass,
		TimeOfDay:  r.TimeOfDay,
		IsDomestic: r.IsDomestic,
	}
	if d, err := time.Parse(time.DateOnly, r.FlightDate); err == nil {
		in.FlightDate = d
	}
	return in
}

// IsDomestic is true when both endpoints are in the same known country.
func IsDomestic(f models.NormalizedFlight) bool {
	dep, arr := f.Route.Departure.Country, f.Route.Arrival.Country
	return dep != "" && dep == arr
}

// TimeOfDay: departures from 06:00 to 17:59 are day flights.
func TimeOfDay(t time.Time) models.TimeOfDay {
	if h := t.Hour(); h >= 6 && h < 18 {
		return models.TimeOfDayDay
	}
	return models.TimeOfDayNight
}

func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
