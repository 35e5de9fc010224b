package sqliteflights

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/BearBump/FlightBox/internal/models"
	"github.com/BearBump/FlightBox/internal/storage"
)

func openTemp(t *testing.T) *Storage {
	t.Helper()
	st, err := New(filepath.Join(t.TempDir(), "flightbox.db"))
	require.NoError(t, err)
	t.Cleanup(st.Close)
	return st
}

func record(id, userID string, created time.Time) *models.FlightRecord {
	return &models.FlightRecord{
		ID:     id,
		UserID: userID,
		Flight: models.NormalizedFlight{
			FlightNumber: "6E201",
			Route: models.Route{
				Departure:  models.Endpoint{IATA: "DEL", Country: "IN"},
				Arrival:    models.Endpoint{IATA: "BOM", Country: "IN"},
				DistanceKm: 1138,
			},
			Status: models.Status{Current: models.FlightStatusScheduled},
			Source: models.SourceSynthetic,
		},
		CabinClass: models.CabinEconomy,
		Photos:     []models.Photo{},
		CreatedAt:  created,
		UpdatedAt:  created,
	}
}

func TestSQLite_UserTxCommitsAndRollsBack(t *testing.T) {
	st := openTemp(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 11, 8, 30, 0, 0, time.UTC)

	err := st.InUserTx(ctx, "u1", func(ctx context.Context, tx storage.UserTx) error {
		cur, err := tx.GetStats(ctx)
		if err != nil {
			return err
		}
		require.Equal(t, models.ShortestUnset, cur.Shortest.Km)
		cur.Flights, cur.XP, cur.MilesKm = 1, 100, 1138
		if err := tx.InsertFlight(ctx, record("f1", "u1", now)); err != nil {
			return err
		}
		for i := 0; i < 2; i++ {
			if err := tx.UnlockAchievements(ctx, []models.UnlockedAchievement{{AchievementID: "first_flight", UnlockedAt: now}}); err != nil {
				return err
			}
		}
		return tx.SaveStats(ctx, cur)
	})
	require.NoError(t, err)

	got, err := st.GetUserStats(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 1, got.Flights)
	require.Equal(t, 100, got.XP)

	unlocked, err := st.ListUnlocked(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, []models.UnlockedAchievement{{AchievementID: "first_flight", UnlockedAt: now}}, unlocked)

	err = st.InUserTx(ctx, "u1", func(ctx context.Context, tx storage.UserTx) error {
		require.NoError(t, tx.InsertFlight(ctx, record("f2", "u1", now)))
		cur, _ := tx.GetStats(ctx)
		cur.Flights = 99
		require.NoError(t, tx.SaveStats(ctx, cur))
		return models.ErrValidation
	})
	require.ErrorIs(t, err, models.ErrValidation)

	got, err = st.GetUserStats(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 1, got.Flights)
	_, err = st.GetFlight(ctx, "f2")
	require.ErrorIs(t, err, models.ErrRecordNotFound)

	err = st.InUserTx(ctx, "u2", func(ctx context.Context, tx storage.UserTx) error {
		return tx.InsertFlight(ctx, record("f3", "u1", now))
	})
	require.ErrorIs(t, err, models.ErrForbidden)

	list, err := st.ListFlights(ctx, "u1", 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "DEL", list[0].Flight.Route.Departure.IATA)
}

func TestSQLite_GetUserStatsUnknownUser(t *testing.T) {
	st := openTemp(t)

	got, err := st.GetUserStats(context.Background(), "ghost")
	require.NoError(t, err)
	require.Zero(t, got.Flights)
	require.Equal(t, models.ShortestUnset, got.Shortest.Km)
}

func TestSQLite_ConcurrentWritersSerialize(t *testing.T) {
	st := openTemp(t)
	ctx := context.Background()

	const n = 10
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// двое пользователей, чтобы проверить и разные строки
			user := []string{"a", "b"}[i%2]
			errs[i] = st.InUserTx(ctx, user, func(ctx context.Context, tx storage.UserTx) error {
				cur, err := tx.GetStats(ctx)
				if err != nil {
					return err
				}
				cur.Flights++
				return tx.SaveStats(ctx, cur)
			})
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			require.ErrorIs(t, err, models.ErrConflict)
		}
	}

	a, err := st.GetUserStats(ctx, "a")
	require.NoError(t, err)
	b, err := st.GetUserStats(ctx, "b")
	require.NoError(t, err)

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}
	require.Equal(t, n-failed, a.Flights+b.Flights)
}

func TestSQLite_DeleteFlightCascadesLikes(t *testing.T) {
	st := openTemp(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, st.InUserTx(ctx, "owner", func(ctx context.Context, tx storage.UserTx) error {
		return tx.InsertFlight(ctx, record("f1", "owner", now))
	}))

	n, err := st.SetLike(ctx, "f1", "fan", true)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	n, err = st.SetLike(ctx, "f1", "fan", true)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	n, err = st.SetLike(ctx, "f1", "other", true)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	require.NoError(t, st.InUserTx(ctx, "fan", func(ctx context.Context, tx storage.UserTx) error {
		ok, err := tx.DeleteFlight(ctx, "f1")
		require.False(t, ok)
		return err
	}))

	require.NoError(t, st.InUserTx(ctx, "owner", func(ctx context.Context, tx storage.UserTx) error {
		ok, err := tx.DeleteFlight(ctx, "f1")
		require.True(t, ok)
		return err
	}))

	var left int
	require.NoError(t, st.db.QueryRow(`SELECT count(*) FROM flight_likes`).Scan(&left))
	require.Zero(t, left)

	_, err = st.SetLike(ctx, "f1", "fan", false)
	require.ErrorIs(t, err, models.ErrRecordNotFound)
}

func TestSQLite_StatusChecks(t *testing.T) {
	st := openTemp(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 11, 8, 30, 0, 0, time.UTC)

	due := now.Add(-time.Minute)
	later := now.Add(time.Hour)
	require.NoError(t, st.InUserTx(ctx, "u", func(ctx context.Context, tx storage.UserTx) error {
		r1 := record("due", "u", now)
		r1.NextStatusCheckAt = &due
		r2 := record("later", "u", now)
		r2.NextStatusCheckAt = &later
		r3 := record("landed", "u", now)
		r3.Flight.Status.Current = models.FlightStatusLanded
		r3.NextStatusCheckAt = &due
		for _, r := range []*models.FlightRecord{r1, r2, r3} {
			if err := tx.InsertFlight(ctx, r); err != nil {
				return err
			}
		}
		return nil
	}))

	claimed, err := st.ClaimDueStatusChecks(ctx, now, 10, 30*time.Second)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	require.Equal(t, "due", claimed[0].ID)
	require.Equal(t, now.Add(30*time.Second), *claimed[0].NextStatusCheckAt)

	again, err := st.ClaimDueStatusChecks(ctx, now, 10, 30*time.Second)
	require.NoError(t, err)
	require.Empty(t, again)

	msg := "opensky: 429"
	require.NoError(t, st.ApplyStatusUpdate(ctx, models.StatusUpdate{
		FlightID: "due", CheckedAt: now, NextCheckAt: now.Add(5 * time.Minute), Error: &msg,
	}))
	rec, err := st.GetFlight(ctx, "due")
	require.NoError(t, err)
	require.EqualValues(t, 1, rec.StatusCheckFails)
	require.Equal(t, now.Add(5*time.Minute), *rec.NextStatusCheckAt)

	pos := &models.Position{Lat: 19.09, Lon: 72.87, AltitudeM: 10_000, ReportedAt: now}
	require.NoError(t, st.ApplyStatusUpdate(ctx, models.StatusUpdate{
		FlightID: "due", CheckedAt: now, Status: models.FlightStatusAirborne, Position: pos, NextCheckAt: now.Add(10 * time.Minute),
	}))
	rec, err = st.GetFlight(ctx, "due")
	require.NoError(t, err)
	require.Equal(t, models.FlightStatusAirborne, rec.Flight.Status.Current)
	require.Equal(t, pos.Lat, rec.Flight.Status.Position.Lat)
	require.Zero(t, rec.StatusCheckFails)

	require.NoError(t, st.ApplyStatusUpdate(ctx, models.StatusUpdate{
		FlightID: "due", CheckedAt: now, Status: models.FlightStatusLanded, NextCheckAt: now.Add(10 * time.Minute),
	}))
	rec, err = st.GetFlight(ctx, "due")
	require.NoError(t, err)
	require.Nil(t, rec.NextStatusCheckAt)

	err = st.ApplyStatusUpdate(ctx, models.StatusUpdate{FlightID: "nope", CheckedAt: now, Status: models.FlightStatusLanded})
	require.ErrorIs(t, err, models.ErrRecordNotFound)
}

func TestSQLite_Leaderboard(t *testing.T) {
	st := openTemp(t)
	ctx := context.Background()

	set := func(user string, xp, flights, km int) {
		require.NoError(t, st.InUserTx(ctx, user, func(ctx context.Context, tx storage.UserTx) error {
			cur, err := tx.GetStats(ctx)
			if err != nil {
				return err
			}
			cur.XP, cur.Flights, cur.MilesKm = xp, flights, km
			return tx.SaveStats(ctx, cur)
		}))
	}
	set("alice", 500, 2, 9000)
	set("bob", 900, 1, 1000)
	set("carol", 100, 7, 3000)
	set("idle", 0, 0, 0)

	byXP, err := st.Leaderboard(ctx, models.LeaderboardXP, 10)
	require.NoError(t, err)
	require.Len(t, byXP, 3)
	require.Equal(t, []string{"bob", "alice", "carol"}, []string{byXP[0].UserID, byXP[1].UserID, byXP[2].UserID})

	byFlights, err := st.Leaderboard(ctx, models.LeaderboardFlights, 1)
	require.NoError(t, err)
	require.Equal(t, "carol", byFlights[0].UserID)

	byDist, err := st.Leaderboard(ctx, models.LeaderboardDistance, 1)
	require.NoError(t, err)
	require.Equal(t, "alice", byDist[0].UserID)
}
