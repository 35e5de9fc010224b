package flights

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/BearBump/FlightBox/internal/models"
)

func TestScore_CabinMultipliers(t *testing.T) {
	f := models.NormalizedFlight{Route: models.Route{DistanceKm: 1000}}
	cases := map[models.CabinClass]int{
		models.CabinEconomy:  125,
		models.CabinPremium:  150,
		models.CabinBusiness: 250,
		models.CabinFirst:    375,
		"":                   125,
	}
	for cabin, want := range cases {
		require.Equal(t, want, Score(f, cabin, nil, "", nil).Distance, cabin)
	}
}

func TestScore_NewAirportsOnlyOnce(t *testing.T) {
	f := models.NormalizedFlight{Route: models.Route{
		Departure: models.Endpoint{IATA: "BOM"},
		Arrival:   models.Endpoint{IATA: "DEL"},
	}}
	require.Equal(t, 40, Score(f, models.CabinEconomy, nil, "", nil).NewAirports)
	require.Equal(t, 20, Score(f, models.CabinEconomy, nil, "", models.CodeSet{"BOM"}).NewAirports)
	require.Zero(t, Score(f, models.CabinEconomy, nil, "", models.CodeSet{"BOM", "DEL"}).NewAirports)
}

func TestScore_AircraftAndManufacturerAlwaysScored(t *testing.T) {
	b := Score(models.NormalizedFlight{}, models.CabinEconomy, nil, "", nil)
	require.Equal(t, 40, b.Aircraft)
	require.Equal(t, 5, b.Manufacturer)
	require.Equal(t, 25+40+5, b.Total())

	cases := []struct {
		ac           models.Aircraft
		aircraftXP   int
		manufacturer int
	}{
		{models.Aircraft{Type: "Sukhoi Superjet 100"}, 40, 5},
		{models.Aircraft{Type: "Boeing 787-9"}, 100, 10},
		{models.Aircraft{Type: "Boeing 787-9", Manufacturer: "Antonov"}, 100, 50},
		{models.Aircraft{Type: "ATR 72-600", Manufacturer: " "}, 65, 20},
	}
	for _, c := range cases {
		b := Score(models.NormalizedFlight{Aircraft: c.ac}, models.CabinEconomy, nil, "", nil)
		require.Equal(t, c.aircraftXP, b.Aircraft, c.ac.Type)
		require.Equal(t, c.manufacturer, b.Manufacturer, c.ac.Type)
	}
}

func TestPhotoXP(t *testing.T) {
	ok := models.Photo{URL: "x", Width: 800, Height: 600}
	require.Zero(t, PhotoXP(nil))
	require.Zero(t, PhotoXP([]models.Photo{{URL: "x"}}))
	require.Equal(t, 20, PhotoXP([]models.Photo{ok, ok, {URL: "y", Width: 10}}))
	require.Equal(t, 50, PhotoXP([]models.Photo{ok, ok, ok, ok, ok, ok, ok}))
}

func TestUploadedPhotos(t *testing.T) {
	const base = "https://cdn.example.com/photos/"
	own := models.Photo{URL: "https://cdn.example.com/photos/flights/a.png", Width: 800, Height: 600}
	photos := []models.Photo{
		own,
		{URL: "https://evil.example.com/a.png", Width: 800, Height: 600},
		{URL: "https://cdn.example.com/photos.evil.com/a.png", Width: 800, Height: 600},
		{URL: "https://cdn.example.com/photos/../secret.png", Width: 800, Height: 600},
		{URL: "https://cdn.example.com/photos/", Width: 800, Height: 600},
	}

	require.Equal(t, []models.Photo{own}, uploadedPhotos(photos, base))
	require.Equal(t, 10, PhotoXP(uploadedPhotos(photos, base)))
	// хранилище фото не настроено
	require.Empty(t, uploadedPhotos(photos, ""))
	require.Zero(t, PhotoXP(uploadedPhotos(photos, "")))
}

func TestReviewXP(t *testing.T) {
	require.Zero(t, ReviewXP("   "))
	require.Equal(t, 5, ReviewXP("ok"))
	require.Equal(t, 15, ReviewXP(strings.Repeat("a", 50)))
	require.Equal(t, 25, ReviewXP(strings.Repeat("я", 200)))
}
