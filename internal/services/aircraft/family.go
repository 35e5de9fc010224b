package aircraft

import (
	"regexp"
	"strings"

	"github.com/BearBump/FlightBox/internal/models"
)

const (
	Family737Collector       = "family_737_collector"
	FamilyA320Master         = "family_a320_master"
	FamilyWidebodyEnthusiast = "family_widebody_enthusiast"
)

var familyCatalog = []familyRule{
	{
		achievement: models.Achievement{
			ID: Family737Collector, Name: "737 Family Collector",
			Description: "Flew on 5 different Boeing 737 variants",
			Category:    Category, Rarity: models.RarityEpic, XP: 200,
			Condition: models.Condition{Type: "distinct_737_variants", Target: 5},
		},
		count: func(h []string) int { return distinct(h, variant737) },
	},
	{
		achievement: models.Achievement{
			ID: FamilyA320Master, Name: "A320 Family Master",
			Description: "Flew on 4 different Airbus A320 family variants",
			Category:    Category, Rarity: models.RarityRare, XP: 150,
			Condition: models.Condition{Type: "distinct_a32x_variants", Target: 4},
		},
		count: func(h []string) int { return distinct(h, variantA32x) },
	},
	{
		achievement: models.Achievement{
			ID: FamilyWidebodyEnthusiast, Name: "Wide-Body Enthusiast",
			Description: "Flew on 10 different wide-body aircraft types",
			Category:    Category, Rarity: models.RarityLegendary, XP: 300,
			Condition: models.Condition{Type: "distinct_widebody_types", Target: 10},
		},
		count: func(h []string) int { return distinct(h, widebodyType) },
	},
}

type familyRule struct {
	achievement models.Achievement
	count       func(history []string) int
}

// FamilyCatalog returns a copy of the family achievements.
func FamilyCatalog() []models.Achievement {
	out := make([]models.Achievement, 0, len(familyCatalog))
	for _, r := range familyCatalog {
		out = append(out, r.achievement)
	}
	return out
}

// FamilyAchievements evaluates the whole aircraft history of a user and
// returns family achievements that are reached and not yet unlocked.
func FamilyAchievements(history []string, unlocked map[string]struct{}) []models.Achievement {
	var out []models.Achievement
	for _, r := range familyCatalog {
		if _, ok := unlocked[r.achievement.ID]; ok {
			continue
		}
		if float64(r.count(history)) >= r.achievement.Condition.Target {
			out = append(out, r.achievement)
		}
	}
	return out
}

func distinct(history []string, key func(string) string) int {
	seen := make(map[string]struct{}, len(history))
	for _, h := range history {
		if k := key(h); k != "" {
			seen[k] = struct{}{}
		}
	}
	return len(seen)
}

var (
	re737  = regexp.MustCompile(`737(max\d*|\d{3})?`)
	reA32x = regexp.MustCompile(`a3(18|19|20|21)(neo)?`)

	icao737 = map[string]string{
		"b732": "737200", "b733": "737300", "b734": "737400", "b735": "737500",
		"b736": "737600", "b737": "737700", "b738": "737800", "b739": "737900",
		"b37m": "737max7", "b38m": "737max8", "b39m": "737max9", "b3xm": "737max10",
	}
	icaoA32x = map[string]string{
		"a318": "a318", "a319": "a319", "a320": "a320", "a321": "a321",
		"a19n": "a319neo", "a20n": "a320neo", "a21n": "a321neo",
	}

	reBoeingWide = regexp.MustCompile(`(747|767|777|787)(\d*)(er|lr)?`)
	reAirbusWide = regexp.MustCompile(`a3(30|40|50|80)(\d*)`)
	reNonAlnum   = regexp.MustCompile(`[^a-z0-9]+`)

	icaoWide = map[string]string{
		"b741": "747-100", "b742": "747-200", "b743": "747-300", "b744": "747-400", "b748": "747-8",
		"b762": "767-200", "b763": "767-300", "b764": "767-400",
		"b772": "777-200", "b77l": "777-200lr", "b773": "777-300", "b77w": "777-300er",
		"b778": "777-8", "b779": "777-9",
		"b788": "787-8", "b789": "787-9", "b78x": "787-10",
		"a332": "a330-200", "a333": "a330-300", "a337": "a330-700", "a338": "a330-800", "a339": "a330-900",
		"a342": "a340-200", "a343": "a340-300", "a345": "a340-500", "a346": "a340-600",
		"a359": "a350-900", "a35k": "a350-1000", "a388": "a380-800",
		"md11": "md11", "dc10": "dc10", "l101": "l1011",
	}
	otherWide = []struct{ needle, key string }{
		{"md11", "md11"}, {"dc10", "dc10"}, {"l1011", "l1011"}, {"tristar", "l1011"},
	}
)

func variant737(t string) string {
	s := squash(t)
	if v, ok := icao737[s]; ok {
		return v
	}
	// "737-8" это MAX 8, а не 737-800
	if m := reMaxModel.FindStringSubmatch(strings.ToLower(t)); m != nil {
		return "737max" + m[1]
	}
	return re737.FindString(s)
}

func variantA32x(t string) string {
	s := squash(t)
	if v, ok := icaoA32x[s]; ok {
		return v
	}
	return reA32x.FindString(s)
}

// widebodyType returns a canonical family-variant key ("787-9", "a350-1000",
// "777-300er") so that ICAO codes and marketing names of one type count once.
// Names without a variant collapse to the family ("787").
func widebodyType(t string) string {
	lower := strings.ToLower(strings.TrimSpace(t))
	s := reNonAlnum.ReplaceAllString(lower, "")
	if s == "" {
		return ""
	}
	if k, ok := icaoWide[s]; ok {
		return k
	}
	if m := reBoeingWide.FindStringSubmatch(s); m != nil {
		return joinVariant(m[1], boeingVariant(m[1], m[2]), m[3])
	}
	if m := reAirbusWide.FindStringSubmatch(s); m != nil {
		return joinVariant("a3"+m[1], airbusVariant(m[2]), "")
	}
	for _, o := range otherWide {
		if strings.Contains(s, o.needle) {
			return o.key
		}
	}
	// "Boeing B789" и подобные: ICAO-код отдельным словом
	for _, tok := range reNonAlnum.Split(lower, -1) {
		if k, ok := icaoWide[tok]; ok {
			return k
		}
	}
	return ""
}

func joinVariant(family, variant, suffix string) string {
	if variant == "" {
		return family
	}
	return family + "-" + variant + suffix
}

// boeingVariant: 787 is named by one digit (787-9, 787-10), the rest by
// hundreds (777-300) except the single-digit 747-8 and 777-8/9.
func boeingVariant(family, d string) string {
	switch {
	case d == "":
		return ""
	case family == "787" && strings.HasPrefix(d, "10"):
		return "10"
	case family == "787", len(d) == 1:
		return d[:1]
	}
	return d[:1] + "00"
}

// airbusVariant drops the engine/customer digits: a330-343 is a330-300.
func airbusVariant(d string) string {
	switch {
	case d == "":
		return ""
	case len(d) >= 4:
		return "1000"
	}
	return d[:1] + "00"
}
