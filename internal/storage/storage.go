// Package storage holds the contract shared by the flight stores.
package storage

import (
	"context"

	"github.com/BearBump/FlightBox/internal/models"
)

// UserTx is a unit of work scoped to one user. The stats row is locked for
// the lifetime of the transaction; all writes commit together or not at all.
type UserTx interface {
	// GetStats returns the locked snapshot, or an empty one for a new user.
	GetStats(ctx context.Context) (models.UserStats, error)
	SaveStats(ctx context.Context, s models.UserStats) error

	UnlockedAchievements(ctx context.Context) (map[string]struct{}, error)
	// UnlockAchievements ignores ids that are already unlocked.
	UnlockAchievements(ctx context.Context, items []models.UnlockedAchievement) error

	InsertFlight(ctx context.Context, rec *models.FlightRecord) error
	// DeleteFlight reports false when the user has no such flight.
	DeleteFlight(ctx context.Context, flightID string) (bool, error)
	ListAllFlights(ctx context.Context) ([]models.FlightRecord, error)
}

type UserTxFunc func(ctx context.Context, tx UserTx) error
