// Package geo computes great-circle distances and flight duration estimates.
package geo

import (
	"math"

	"github.com/BearBump/FlightBox/internal/refdata"
)

const (
	earthRadiusKm = 6371.0
	kmToMi        = 0.621371
)

type Distance struct {
	Km int `json:"km"`
	Mi int `json:"mi"`
}

// HaversineDistance returns the great-circle distance. Km and Mi are rounded
// independently from the raw value.
func HaversineDistance(lat1, lon1, lat2, lon2 float64) Distance {
	return FromKm(haversine(lat1, lon1, lat2, lon2))
}

// FromKm rounds a raw kilometre value into a Distance.
func FromKm(km float64) Distance {
	if km < 0 {
		km = 0
	}
	return Distance{
		Km: int(math.Round(km)),
		Mi: int(math.Round(km * kmToMi)),
	}
}

func KmToMi(km int) int {
	return int(math.Round(float64(km) * kmToMi))
}

// EstimateDurationMinutes divides distance by the cruise speed of the aircraft
// family (850 km/h when unknown). Hours are rounded to 2 decimals first.
func EstimateDurationMinutes(distanceKm float64, aircraft string) int {
	if distanceKm <= 0 {
		return 0
	}
	hours := distanceKm / refdata.CruiseSpeedKmh(aircraft)
	hours = math.Round(hours*100) / 100
	return int(math.Round(hours * 60))
}

func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
