// Package flights logs flights for users: it resolves the flight, scores it,
// merges it into the user's stats and unlocks achievements in one
// transaction.
package flights

import (
	"context"
	"time"

	"github.com/BearBump/FlightBox/internal/broker/messages"
	"github.com/BearBump/FlightBox/internal/cache"
	"github.com/BearBump/FlightBox/internal/models"
	"github.com/BearBump/FlightBox/internal/storage"
	"github.com/google/uuid"
)

type Store interface {
	InUserTx(ctx context.Context, userID string, fn storage.UserTxFunc) error

	GetUserStats(ctx context.Context, userID string) (models.UserStats, error)
	ListUnlocked(ctx context.Context, userID string) ([]models.UnlockedAchievement, error)
	ListFlights(ctx context.Context, userID string, limit, offset int) ([]models.FlightRecord, error)
	GetFlight(ctx context.Context, id string) (*models.FlightRecord, error)

	// SetLike returns the like count after the change.
	SetLike(ctx context.Context, flightID, userID string, liked bool) (int, error)
	Leaderboard(ctx context.Context, metric models.LeaderboardMetric, limit int) ([]models.LeaderboardEntry, error)
	ApplyStatusUpdate(ctx context.Context, upd models.StatusUpdate) error
}

type Resolver interface {
	Resolve(ctx context.Context, flightNumber, date string) (*models.NormalizedFlight, error)
}

type Producer interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

type Options struct {
	StatsTTL       time.Duration // 0: stats are not cached
	LeaderboardTTL time.Duration // 0: leaderboard is not cached

	MaxTxAttempts  int           // default: 5
	RetryInitial   time.Duration // default: 25ms
	RetryMax       time.Duration // default: 500ms
	LoggedTopic    string        // default: flight.logged
	StatusCheckLag time.Duration // first live status check after logging; default: 1m

	// PhotoBaseURL is the public prefix of uploaded photos. Only photos under
	// it earn XP; empty means photo storage is off and photos earn nothing.
	PhotoBaseURL string
}

type Service struct {
	store    Store
	resolver Resolver
	cache    cache.BytesCache
	producer Producer
	opts     Options

	now   func() time.Time
	newID func() string
}

// New wires the service. cache and producer may be nil.
func New(store Store, resolver Resolver, c cache.BytesCache, producer Producer, opts Options) *Service {
	if opts.MaxTxAttempts <= 0 {
		opts.MaxTxAttempts = 5
	}
	if opts.RetryInitial <= 0 {
		opts.RetryInitial = 25 * time.Millisecond
	}
	if opts.RetryMax <= 0 {
		opts.RetryMax = 500 * time.Millisecond
	}
	if opts.LoggedTopic == "" {
		opts.LoggedTopic = messages.TopicFlightLogged
	}
	if opts.StatusCheckLag <= 0 {
		opts.StatusCheckLag = time.Minute
	}
	return &Service{
		store:    store,
		resolver: resolver,
		cache:    c,
		producer: producer,
		opts:     opts,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}
