package achievements

import (
	"testing"

	"github.com/BearBump/FlightBox/internal/models"
	"github.com/stretchr/testify/require"
)

func idsOf(list []models.Achievement) []string {
	out := make([]string, 0, len(list))
	for _, a := range list {
		out = append(out, a.ID)
	}
	return out
}

func TestCheck_FirstFlight(t *testing.T) {
	s := models.UserStats{Flights: 1, MilesKm: 865, MilesMi: 537}
	got := idsOf(Check(s, nil))
	require.Equal(t, []string{"first_flight"}, got)
}

func TestCheck_Idempotent(t *testing.T) {
	s := models.UserStats{Flights: 12, MilesMi: 1500, MilesKm: 2400}
	first := Check(s, map[string]struct{}{})
	require.Equal(t, []string{"first_flight", "frequent_flyer", "miles_1k"}, idsOf(first))

	unlocked := map[string]struct{}{}
	for _, a := range first {
		unlocked[a.ID] = struct{}{}
	}
	require.Empty(t, Check(s, unlocked))
	require.Empty(t, Check(s, unlocked))
}

func TestCheck_CatalogOrderAndThreshold(t *testing.T) {
	s := models.UserStats{
		Flights:               1,
		LongHaulFlights:       1,
		Longest:               models.Extremum{Km: 12_000},
		BusinessFlights:       1,
		DomesticInternational: models.DomesticInternational{International: 1},
		Airports:              models.CodeSet{"DXB", "JFK"},
	}
	got := idsOf(Check(s, nil))
	require.Equal(t, []string{"first_flight", "long_hauler", "ultra_long_haul", "international_debut", "business_class"}, got)
}

func TestCheck_DoesNotMutateCatalog(t *testing.T) {
	before := Catalog()
	list := Check(models.UserStats{Flights: 100}, nil)
	require.NotEmpty(t, list)
	list[0].XP = 999_999
	list[0].Name = "changed"
	require.Equal(t, before, Catalog())
}

func TestSatisfied_UnknownTypeFailsClosed(t *testing.T) {
	s := models.UserStats{Flights: 1_000_000}
	require.False(t, Satisfied(models.Condition{Type: "lunar_landings", Target: 0}, s))
	_, ok := Value("lunar_landings", s)
	require.False(t, ok)
}

func TestValue_AllKnownTypes(t *testing.T) {
	for _, c := range Catalog() {
		_, ok := Value(c.Condition.Type, models.UserStats{})
		require.True(t, ok, c.ID)
	}
}

func TestCatalog_UniqueIDs(t *testing.T) {
	seen := map[string]bool{}
	for _, c := range Catalog() {
		require.False(t, seen[c.ID], c.ID)
		seen[c.ID] = true
		require.Positive(t, c.XP, c.ID)
	}
	_, ok := Lookup("first_flight")
	require.True(t, ok)
	_, ok = Lookup("nope")
	require.False(t, ok)
}

func TestLevel(t *testing.T) {
	cases := map[int]int{
		-10:   1,
		0:     1,
		99:    1,
		100:   2,
		399:   2,
		400:   3,
		899:   3,
		900:   4,
		10000: 11,
	}
	for xp, want := range cases {
		require.Equal(t, want, Level(xp), xp)
	}
}

func TestLevel_Monotonic(t *testing.T) {
	prev := Level(0)
	for xp := 0; xp <= 50_000; xp += 7 {
		l := Level(xp)
		require.GreaterOrEqual(t, l, prev)
		prev = l
	}
}

func TestXPForLevelAndProgress(t *testing.T) {
	require.Equal(t, 0, XPForLevel(1))
	require.Equal(t, 100, XPForLevel(2))
	require.Equal(t, 400, XPForLevel(3))
	for lvl := 1; lvl < 30; lvl++ {
		require.Equal(t, lvl, Level(XPForLevel(lvl)))
	}

	p := Progress(250)
	require.Equal(t, 2, p.Level)
	require.Equal(t, 100, p.LevelStartXP)
	require.Equal(t, 400, p.NextLevelXP)
	require.Equal(t, 50.0, p.Percent)
}
