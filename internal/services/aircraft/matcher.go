// Package aircraft maps aircraft type strings to type badges and bonuses.
package aircraft

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/BearBump/FlightBox/internal/models"
)

const Category = "aircraft"

type rule struct {
	needles []string
	re      *regexp.Regexp // по сырой строке в нижнем регистре
	badge   models.AircraftAchievement
}

func badge(id, name, desc string, xp int, rarity models.Rarity) models.AircraftAchievement {
	return models.AircraftAchievement{ID: id, Name: name, Description: desc, XP: xp, Rarity: rarity, Category: Category}
}

// rules are ordered from the most to the least specific; the first match wins.
// Moving an entry changes which badge a type gets.
var rules = []rule{
	{[]string{"a380", "a388"}, nil, badge("aircraft_a380", "Superjumbo", "Flew on the double-deck Airbus A380", 150, models.RarityEpic)},
	{[]string{"a350", "a359", "a35k"}, nil, badge("aircraft_a350", "XWB Pioneer", "Flew on the Airbus A350 XWB", 100, models.RarityRare)},
	{[]string{"a340", "a342", "a343", "a345", "a346"}, nil, badge("aircraft_a340", "Four-Engine Airbus", "Flew on the quad-engine Airbus A340", 90, models.RarityRare)},
	{[]string{"a330", "a332", "a333", "a338", "a339"}, nil, badge("aircraft_a330", "Twin Wide", "Flew on the Airbus A330 widebody", 70, models.RarityUncommon)},
	{[]string{"a321", "a21n"}, nil, badge("aircraft_a321", "Stretched Narrowbody", "Flew on the Airbus A321", 50, models.RarityCommon)},
	{[]string{"a320neo", "a20n"}, nil, badge("aircraft_a320neo", "Neo Generation", "Flew on the re-engined Airbus A320neo", 55, models.RarityUncommon)},
	{[]string{"a320"}, nil, badge("aircraft_a320", "Airbus Classic", "Flew on the Airbus A320", 45, models.RarityCommon)},
	{[]string{"a319", "a19n"}, nil, badge("aircraft_a319", "Compact Airbus", "Flew on the Airbus A319", 45, models.RarityCommon)},
	{[]string{"7478", "b748"}, nil, badge("aircraft_b747_8", "Intercontinental", "Flew on the Boeing 747-8, the longest 747 ever built", 160, models.RarityLegendary)},
	{[]string{"747", "b74"}, nil, badge("aircraft_b747", "Queen of the Skies", "Flew on the Boeing 747 jumbo jet", 140, models.RarityEpic)},
	{[]string{"787", "b78"}, nil, badge("aircraft_b787", "Dreamliner", "Flew on the Boeing 787 Dreamliner", 100, models.RarityRare)},
	{[]string{"777300er", "77w", "b77w"}, nil, badge("aircraft_b777_300er", "Triple Seven ER", "Flew on the Boeing 777-300ER", 95, models.RarityRare)},
	{[]string{"777", "b77"}, nil, badge("aircraft_b777", "Triple Seven", "Flew on the Boeing 777", 85, models.RarityUncommon)},
	{[]string{"767", "b76"}, nil, badge("aircraft_b767", "Boeing 767", "Flew on the Boeing 767", 75, models.RarityUncommon)},
	{[]string{"757", "b75"}, nil, badge("aircraft_b757", "Pencil Jet", "Flew on the Boeing 757", 75, models.RarityUncommon)},
	{[]string{"737max", "b37m", "b38m", "b39m", "b3xm"}, reMaxModel, badge("aircraft_b737_max", "MAX Flyer", "Flew on the Boeing 737 MAX", 55, models.RarityUncommon)},
	{[]string{"737800", "b738"}, nil, badge("aircraft_b737_800", "Next Generation", "Flew on the Boeing 737-800", 45, models.RarityCommon)},
	{[]string{"737", "b73"}, nil, badge("aircraft_b737", "Boeing 737", "Flew on a Boeing 737", 40, models.RarityCommon)},
	{[]string{"embraer", "e170", "e175", "e190", "e195", "e290", "e295", "erj"}, nil, badge("aircraft_ejet", "E-Jet Explorer", "Flew on an Embraer regional jet", 60, models.RarityUncommon)},
	{[]string{"crj"}, nil, badge("aircraft_crj", "Regional Jet Rider", "Flew on a Bombardier CRJ", 60, models.RarityUncommon)},
	{[]string{"dash8", "dhc8", "q400", "dh8"}, nil, badge("aircraft_dash8", "Dash 8", "Flew on the De Havilland Dash 8 / Q400 turboprop", 65, models.RarityUncommon)},
	{[]string{"atr"}, nil, badge("aircraft_atr", "Turboprop Traveler", "Flew on an ATR turboprop", 65, models.RarityUncommon)},
	{[]string{"md11"}, nil, badge("aircraft_md11", "Tri-Jet Legend", "Flew on the McDonnell Douglas MD-11", 130, models.RarityEpic)},
	{[]string{"md8", "md9"}, nil, badge("aircraft_md80", "Mad Dog", "Flew on the McDonnell Douglas MD-80 series", 110, models.RarityRare)},
	{[]string{"dc10"}, nil, badge("aircraft_dc10", "DC-10 Veteran", "Flew on the McDonnell Douglas DC-10", 140, models.RarityEpic)},
	{[]string{"concorde"}, nil, badge("aircraft_concorde", "Supersonic", "Flew faster than sound on Concorde", 500, models.RarityLegendary)},
	{[]string{"cargo", "freighter"}, nil, badge("aircraft_cargo", "Cargo Hauler", "Rode along on a freighter", 80, models.RarityRare)},
}

// reMaxModel catches Boeing's own MAX names: 737-7, 737-8, 737-8200, 737-9, 737-10.
var reMaxModel = regexp.MustCompile(`\b737-?(7|8|9|10)(200)?\b`)

const defaultID = "aircraft_explorer"

// Match never fails: unknown types get the "Aircraft Explorer" badge.
func Match(aircraftType string) models.AircraftAchievement {
	s, marks := squashMarks(aircraftType)
	if s != "" {
		lower := strings.ToLower(aircraftType)
		for _, r := range rules {
			if r.re != nil && r.re.MatchString(lower) {
				return r.badge
			}
			for _, n := range r.needles {
				if containsNeedle(s, marks, n) {
					return r.badge
				}
			}
		}
	}
	name := strings.TrimSpace(aircraftType)
	if name == "" {
		name = "an unknown aircraft"
	}
	return badge(defaultID, "Aircraft Explorer", fmt.Sprintf("Flew on %s", name), 40, models.RarityCommon)
}

// BadgeByID returns the catalog form of an unlocked badge.
func BadgeByID(id string) (models.AircraftAchievement, bool) {
	for _, r := range rules {
		if r.badge.ID == id {
			return r.badge, true
		}
	}
	if id == defaultID {
		return badge(defaultID, "Aircraft Explorer", "Flew on an aircraft type without a dedicated badge", 40, models.RarityCommon), true
	}
	return models.AircraftAchievement{}, false
}

var manufacturerBonus = map[string]int{
	"Airbus":            10,
	"Boeing":            10,
	"Embraer":           15,
	"Bombardier":        15,
	"ATR":               20,
	"McDonnell Douglas": 25,
	"Lockheed":          30,
	"Tupolev":           40,
	"Antonov":           50,
}

const defaultManufacturerBonus = 5

func ManufacturerBonus(manufacturer string) int {
	for k, v := range manufacturerBonus {
		if strings.EqualFold(k, strings.TrimSpace(manufacturer)) {
			return v
		}
	}
	return defaultManufacturerBonus
}

var manufacturerRules = []struct {
	needles []string
	name    string
}{
	{[]string{"airbus", "a3", "a2", "a19n"}, "Airbus"},
	{[]string{"boeing", "b7", "b3", "707", "717", "727", "737", "747", "757", "767", "777", "787"}, "Boeing"},
	{[]string{"embraer", "erj", "e170", "e175", "e190", "e195", "e290", "e295"}, "Embraer"},
	{[]string{"bombardier", "crj", "dash8", "dhc8", "q400", "dh8", "dehavilland"}, "Bombardier"},
	{[]string{"atr"}, "ATR"},
	{[]string{"mcdonnell", "md11", "md8", "md9", "dc10", "dc9"}, "McDonnell Douglas"},
	{[]string{"lockheed", "l1011", "tristar"}, "Lockheed"},
	{[]string{"tupolev", "tu154", "tu204", "tu214"}, "Tupolev"},
	{[]string{"antonov", "an124", "an148", "an225"}, "Antonov"},
}

// Manufacturer is best-effort; "" when nothing matches.
func Manufacturer(aircraftType string) string {
	s := squash(aircraftType)
	if s == "" {
		return ""
	}
	for _, r := range manufacturerRules {
		for _, n := range r.needles {
			if strings.HasPrefix(s, n) || (len(n) > 3 && strings.Contains(s, n)) {
				return r.name
			}
		}
	}
	return ""
}

// squashMarks squashes s and marks the bytes that start a token: the first
// byte after a separator and every switch between digits and non-digits.
func squashMarks(s string) (string, []bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	var (
		b       strings.Builder
		marks   = make([]bool, 0, len(s))
		sep     = true
		prevDig bool
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == ' ' || c == '-' || c == '_' {
			sep = true
			continue
		}
		dig := c >= '0' && c <= '9'
		marks = append(marks, sep || (b.Len() > 0 && dig != prevDig))
		b.WriteByte(c)
		sep, prevDig = false, dig
	}
	return b.String(), marks
}

// containsNeedle: needles of up to three bytes ("erj", "atr", "737") match
// only at a token start, longer ones anywhere.
func containsNeedle(s string, marks []bool, n string) bool {
	if len(n) > 3 {
		return strings.Contains(s, n)
	}
	for i := 0; i+len(n) <= len(s); {
		j := strings.Index(s[i:], n)
		if j < 0 {
			return false
		}
		if marks[i+j] {
			return true
		}
		i += j + 1
	}
	return false
}

func squash(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(s)
}
