// Package achievements evaluates the achievement catalog against a user's
// stats. Unlock state is never kept here: the caller passes what the user
// already has.
package achievements

import (
	"math"

	"github.com/BearBump/FlightBox/internal/models"
)

// Check returns achievements whose condition is met and which are not in
// unlocked, in catalog order.
func Check(stats models.UserStats, unlocked map[string]struct{}) []models.Achievement {
	var out []models.Achievement
	for _, c := range catalog {
		if _, ok := unlocked[c.ID]; ok {
			continue
		}
		if Satisfied(c.Condition, stats) {
			out = append(out, c)
		}
	}
	return out
}

// Satisfied is current >= target. Unknown condition types are never satisfied.
func Satisfied(cond models.Condition, stats models.UserStats) bool {
	v, ok := Value(cond.Type, stats)
	if !ok {
		return false
	}
	return v >= cond.Target
}

// Value reads the stat a condition type refers to.
func Value(t models.ConditionType, s models.UserStats) (float64, bool) {
	switch t {
	case models.CondTotalFlights:
		return float64(s.Flights), true
	case models.CondTotalMiles:
		return float64(s.MilesMi), true
	case models.CondTotalKm:
		return float64(s.MilesKm), true
	case models.CondAirports:
		return float64(s.Airports.Len()), true
	case models.CondCountries:
		return float64(s.Countries.Len()), true
	case models.CondContinents:
		return float64(s.Continents.Len()), true
	case models.CondAirlines:
		return float64(s.Airlines.Len()), true
	case models.CondAircraftTypes:
		return float64(s.Aircraft.Len()), true
	case models.CondInternationalFlights:
		return float64(s.DomesticInternational.International), true
	case models.CondDomesticFlights:
		return float64(s.DomesticInternational.Domestic), true
	case models.CondLongHaulFlights:
		return float64(s.LongHaulFlights), true
	case models.CondTotalHours:
		return s.Hours, true
	case models.CondBusinessFlights:
		return float64(s.BusinessFlights), true
	case models.CondFirstClassFlights:
		return float64(s.FirstClassFlights), true
	case models.CondNightFlights:
		return float64(s.DayNightRatio.Night), true
	case models.CondWeekendFlights:
		return float64(s.WeekdayWeekend.Weekend), true
	case models.CondLongestFlightKm:
		return float64(s.Longest.Km), true
	default:
		return 0, false
	}
}

// Level is the only place the level is computed: floor(sqrt(xp/100)) + 1.
func Level(xp int) int {
	if xp <= 0 {
		return 1
	}
	return int(math.Floor(math.Sqrt(float64(xp)/100))) + 1
}

// XPForLevel is the minimum XP of a level.
func XPForLevel(level int) int {
	if level <= 1 {
		return 0
	}
	return (level - 1) * (level - 1) * 100
}

type LevelProgress struct {
	Level        int     `json:"level"`
	XP           int     `json:"xp"`
	LevelStartXP int     `json:"levelStartXp"`
	NextLevelXP  int     `json:"nextLevelXp"`
	Percent      float64 `json:"percent"`
}

func Progress(xp int) LevelProgress {
	if xp < 0 {
		xp = 0
	}
	lvl := Level(xp)
	start, next := XPForLevel(lvl), XPForLevel(lvl+1)
	pct := float64(xp-start) / float64(next-start) * 100
	return LevelProgress{
		Level:        lvl,
		XP:           xp,
		LevelStartXP: start,
		NextLevelXP:  next,
		Percent:      math.Round(pct*10) / 10,
	}
}
