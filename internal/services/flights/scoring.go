package flights

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/BearBump/FlightBox/internal/models"
	"github.com/BearBump/FlightBox/internal/services/aircraft"
)

const (
	baseXP          = 25
	photoXP         = 10
	maxScoredPhotos = 5
	newAirportXP    = 20
)

var cabinMultiplier = map[models.CabinClass]float64{
	models.CabinEconomy:  1.0,
	models.CabinPremium:  1.2,
	models.CabinBusiness: 2.0,
	models.CabinFirst:    3.0,
}

// XPBreakdown is the XP a single flight earned, per component.
type XPBreakdown struct {
	Distance     int `json:"distance"`
	Photos       int `json:"photos"`
	Review       int `json:"review"`
	NewAirports  int `json:"newAirports"`
	Aircraft     int `json:"aircraft"`
	Manufacturer int `json:"manufacturer"`
	Achievements int `json:"achievements"`
}

func (b XPBreakdown) Total() int {
	return b.Distance + b.Photos + b.Review + b.NewAirports + b.Aircraft + b.Manufacturer + b.Achievements
}

// Score computes flight XP before achievements. seen is the set of airports
// the user had visited before this flight.
func Score(f models.NormalizedFlight, cabin models.CabinClass, photos []models.Photo, review string, seen models.CodeSet) XPBreakdown {
	mult, ok := cabinMultiplier[cabin]
	if !ok {
		mult = 1.0
	}
	km := math.Max(float64(f.Route.DistanceKm), 0)

	manufacturer := f.Aircraft.Manufacturer
	if strings.TrimSpace(manufacturer) == "" {
		manufacturer = aircraft.Manufacturer(f.Aircraft.Type)
	}

	// Match всегда что-то находит, бонус производителя по умолчанию 5.
	return XPBreakdown{
		Distance:     int(math.Round((baseXP + km/10) * mult)),
		Photos:       PhotoXP(photos),
		Review:       ReviewXP(review),
		NewAirports:  len(newAirports(f, seen)) * newAirportXP,
		Aircraft:     aircraft.Match(f.Aircraft.Type).XP,
		Manufacturer: aircraft.ManufacturerBonus(manufacturer),
	}
}

// uploadedPhotos keeps photos stored under base, i.e. uploaded through
// POST /photos. Without photo storage nothing is credited.
func uploadedPhotos(photos []models.Photo, base string) []models.Photo {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		return nil
	}
	var out []models.Photo
	for _, p := range photos {
		rest, ok := strings.CutPrefix(p.URL, base+"/")
		if !ok || rest == "" || strings.Contains(rest, "..") {
			continue
		}
		out = append(out, p)
	}
	return out
}

// PhotoXP counts only photos with known dimensions, up to maxScoredPhotos.
func PhotoXP(photos []models.Photo) int {
	n := 0
	for _, p := range photos {
		if p.Width > 0 && p.Height > 0 {
			n++
		}
	}
	return min(n, maxScoredPhotos) * photoXP
}

func ReviewXP(text string) int {
	n := utf8.RuneCountInString(strings.TrimSpace(text))
	switch {
	case n >= 200:
		return 25
	case n >= 50:
		return 15
	case n > 0:
		return 5
	}
	return 0
}

func newAirports(f models.NormalizedFlight, seen models.CodeSet) []string {
	var out []string
	for _, code := range []string{f.Route.Departure.IATA, f.Route.Arrival.IATA} {
		if code == "" || seen.Has(code) {
			continue
		}
		if len(out) == 1 && out[0] == code {
			continue
		}
		out = append(out, code)
	}
	return out
}
