// Package synthetic invents a plausible flight when no live source knows it.
// Route and aircraft are picked by the flight number alone, so the same
// number always resolves to the same route.
package synthetic

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/BearBump/FlightBox/internal/geo"
	"github.com/BearBump/FlightBox/internal/integrations/flightsource"
	"github.com/BearBump/FlightBox/internal/models"
	"github.com/BearBump/FlightBox/internal/refdata"
	"github.com/pkg/errors"
)

type Rand interface {
	Float64() float64
}

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }

// Generator is the last source of the chain.
type Generator struct {
	now          func() time.Time
	r            Rand
	delayedShare float64
}

func New() *Generator {
	return &Generator{
		now:          time.Now,
		r:            globalRand{},
		delayedShare: 0.1,
	}
}

func (g *Generator) WithClock(now func() time.Time) *Generator {
	if now != nil {
		g.now = now
	}
	return g
}

func (g *Generator) WithRand(r Rand) *Generator {
	if r != nil {
		g.r = r
	}
	return g
}

func (g *Generator) Name() models.Source { return models.SourceSynthetic }

func (g *Generator) Lookup(ctx context.Context, flightNumber, date string) (*flightsource.PartialFlight, error) {
	fn := flightsource.NormalizeFlightNumber(flightNumber)
	code, number, ok := flightsource.SplitFlightNumber(fn)
	if !ok {
		return nil, errors.Wrapf(flightsource.ErrNotFound, "synthetic: bad flight number %q", flightNumber)
	}

	meta, hasMeta := refdata.LookupAirline(code)
	if hasMeta {
		code = meta.Code
	}

	var (
		name, country string
		rt            route
		aircraft      string
	)
	if al, ok := knownAirlines[code]; ok {
		name, country = al.name, al.country
		rt = al.routes[mod(number, len(al.routes))]
		aircraft = al.fleet[mod(number, len(al.fleet))]
	} else if al, ok := genericAirlines[code]; ok {
		name, country = al.name, al.country
		rt = al.routes[mod(number, len(al.routes))]
		aircraft = al.fleet[mod(number, len(al.fleet))]
	} else {
		rt = lastResortRoutes[mod(number, len(lastResortRoutes))]
		aircraft = lastResortFleet[mod(number, len(lastResortFleet))]
		name = code
		if hasMeta {
			name, country = meta.Name, meta.Country
		}
	}

	distance := rt.distanceKm
	duration := geo.EstimateDurationMinutes(distance, aircraft)
	dep := g.departure(number, date)
	arr := dep.Add(time.Duration(duration) * time.Minute)

	return &flightsource.PartialFlight{
		Source:          models.SourceSynthetic,
		FlightNumber:    fn,
		AirlineCode:     code,
		AirlineName:     name,
		AirlineCountry:  country,
		AircraftType:    aircraft,
		DepartureCode:   rt.from,
		ArrivalCode:     rt.to,
		DistanceKm:      &distance,
		DurationMinutes: &duration,
		DepartureTime:   &dep,
		ArrivalTime:     &arr,
		Status:          models.FlightStatusScheduled,
		// Чисто косметика, в подсчёт XP не идёт.
		Delayed: g.r.Float64() < g.delayedShare,
	}, nil
}

// departure is within 24h from now, or on the requested date.
func (g *Generator) departure(number, date string) time.Time {
	offset := time.Duration(mod(number, 24*60)) * time.Minute
	if date != "" {
		if d, err := time.Parse(time.DateOnly, date); err == nil {
			return d.UTC().Add(offset)
		}
	}
	return g.now().UTC().Truncate(time.Minute).Add(offset)
}

// mod computes digits mod n without parsing the whole number, so very long
// flight numbers do not overflow.
func mod(digits string, n int) int {
	if n <= 0 {
		return 0
	}
	r := 0
	for _, c := range digits {
		if c < '0' || c > '9' {
			continue
		}
		r = (r*10 + int(c-'0')) % n
	}
	return r
}
