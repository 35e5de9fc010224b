// Package flightsource defines the contract of a flight data source used by
// the resolver chain. Concrete sources live in sub-packages.
package flightsource

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/BearBump/FlightBox/internal/models"
	"github.com/pkg/errors"
)

var (
	// ErrNotConfigured means the source has no credentials; the chain skips it silently.
	ErrNotConfigured = errors.New("source not configured")
	ErrNotFound      = errors.New("source has no data for flight")
	ErrRateLimited   = errors.New("source rate limited")
)

// PartialFlight is what a single source managed to find. Any field may be
// empty; nothing here is trusted until the resolver normalizes it.
type PartialFlight struct {
	Source       models.Source
	FlightNumber string

	AirlineCode    string
	AirlineName    string
	AirlineCountry string

	AircraftType         string
	AircraftManufacturer string
	Registration         string

	// IATA or ICAO codes.
	DepartureCode string
	ArrivalCode   string
	DepartureName string
	ArrivalName   string

	DistanceKm      *float64
	DurationMinutes *int

	DepartureTime *time.Time
	ArrivalTime   *time.Time

	Status   models.FlightStatus
	Delayed  bool
	Position *models.Position
}

// HasRoute reports whether both endpoints are present.
func (p *PartialFlight) HasRoute() bool {
	return p != nil && p.DepartureCode != "" && p.ArrivalCode != ""
}

type Source interface {
	Name() models.Source
	Lookup(ctx context.Context, flightNumber, date string) (*PartialFlight, error)
}

type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Transient marks err as worth one retry.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

func IsTransient(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}

// StatusError maps a non-2xx upstream response to the source error taxonomy.
func StatusError(source string, code int) error {
	switch {
	case code == http.StatusTooManyRequests:
		return errors.Wrapf(ErrRateLimited, "%s http 429", source)
	case code == http.StatusNotFound:
		return errors.Wrapf(ErrNotFound, "%s http 404", source)
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return errors.Wrapf(ErrNotConfigured, "%s http %d", source, code)
	case code >= 500:
		return Transient(errors.Errorf("%s http %d", source, code))
	default:
		return errors.Errorf("%s http %d", source, code)
	}
}

var (
	flightNumberRe = regexp.MustCompile(`^[A-Z0-9]{2,3}\d+$`)
	// Третий символ кода только буква, иначе "QP1457" разобралось бы как "QP1"+"457".
	flightPartsRe = regexp.MustCompile(`^([A-Z0-9]{2}[A-Z]?)(\d+)$`)
)

// NormalizeFlightNumber uppercases and strips spaces and hyphens.
func NormalizeFlightNumber(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "", "-", "", "\t", "").Replace(s)
}

func ValidFlightNumber(fn string) bool {
	return flightNumberRe.MatchString(fn)
}

// SplitFlightNumber splits a normalized flight number into the airline
// designator and the numeric part.
func SplitFlightNumber(fn string) (airline, number string, ok bool) {
	m := flightPartsRe.FindStringSubmatch(fn)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}
