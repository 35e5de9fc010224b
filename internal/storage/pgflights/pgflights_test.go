package pgflights

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/BearBump/FlightBox/internal/models"
	"github.com/BearBump/FlightBox/internal/storage"
)

func startPG(t *testing.T) *Storage {
	t.Helper()
	if testing.Short() {
		t.Skip("needs docker")
	}
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "admin",
			"POSTGRES_PASSWORD": "admin",
			"POSTGRES_DB":       "flightbox_test",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	dsn := "postgres://admin:admin@" + host + ":" + port.Port() + "/flightbox_test?sslmode=disable"
	var st *Storage
	// порт слушается чуть раньше, чем postgres принимает подключения
	require.Eventually(t, func() bool {
		st, err = New(dsn)
		return err == nil
	}, 30*time.Second, 500*time.Millisecond)
	t.Cleanup(st.Close)
	return st
}

func record(id, userID string, km int, created time.Time) *models.FlightRecord {
	return &models.FlightRecord{
		ID:     id,
		UserID: userID,
		Flight: models.NormalizedFlight{
			FlightNumber: "QP1457",
			Route: models.Route{
				Departure:  models.Endpoint{IATA: "BOM", Country: "IN"},
				Arrival:    models.Endpoint{IATA: "BLR", Country: "IN"},
				DistanceKm: km,
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

func TestPGFlights_UserTxFlow(t *testing.T) {
	st := startPG(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	empty, err := st.GetUserStats(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, models.ShortestUnset, empty.Shortest.Km)

	err = st.InUserTx(ctx, "u1", func(ctx context.Context, tx storage.UserTx) error {
		cur, err := tx.GetStats(ctx)
		if err != nil {
			return err
		}
		require.Zero(t, cur.Flights)
		cur.Flights, cur.XP, cur.MilesKm = 1, 267, 865
		cur.Airports = cur.Airports.Add("BOM").Add("BLR")

		if err := tx.InsertFlight(ctx, record("f1", "u1", 865, now)); err != nil {
			return err
		}
		if err := tx.UnlockAchievements(ctx, []models.UnlockedAchievement{
			{AchievementID: "first_flight", UnlockedAt: now},
			{AchievementID: "first_flight", UnlockedAt: now},
		}); err != nil {
			return err
		}
		return tx.SaveStats(ctx, cur)
	})
	require.NoError(t, err)

	got, err := st.GetUserStats(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 1, got.Flights)
	require.Equal(t, models.CodeSet{"BLR", "BOM"}, got.Airports)

	unlocked, err := st.ListUnlocked(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, unlocked, 1)

	rec, err := st.GetFlight(ctx, "f1")
	require.NoError(t, err)
	require.Equal(t, "BOM", rec.Flight.Route.Departure.IATA)

	_, err = st.GetFlight(ctx, "nope")
	require.ErrorIs(t, err, models.ErrRecordNotFound)

	// откат: ошибка внутри fn не оставляет следов
	boom := models.ErrForbidden
	err = st.InUserTx(ctx, "u1", func(ctx context.Context, tx storage.UserTx) error {
		if err := tx.InsertFlight(ctx, record("f2", "u1", 100, now)); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	_, err = st.GetFlight(ctx, "f2")
	require.ErrorIs(t, err, models.ErrRecordNotFound)

	// удаление чужого рейса не проходит
	err = st.InUserTx(ctx, "u2", func(ctx context.Context, tx storage.UserTx) error {
		ok, err := tx.DeleteFlight(ctx, "f1")
		require.False(t, ok)
		return err
	})
	require.NoError(t, err)

	err = st.InUserTx(ctx, "u1", func(ctx context.Context, tx storage.UserTx) error {
		ok, err := tx.DeleteFlight(ctx, "f1")
		require.True(t, ok)
		if err != nil {
			return err
		}
		rest, err := tx.ListAllFlights(ctx)
		require.Empty(t, rest)
		return err
	})
	require.NoError(t, err)
}

func TestPGFlights_ConcurrentSameUserSerializes(t *testing.T) {
	st := startPG(t)
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = st.InUserTx(ctx, "racer", func(ctx context.Context, tx storage.UserTx) error {
				cur, err := tx.GetStats(ctx)
				if err != nil {
					return err
				}
				time.Sleep(10 * time.Millisecond)
				cur.Flights++
				return tx.SaveStats(ctx, cur)
			})
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	got, err := st.GetUserStats(ctx, "racer")
	require.NoError(t, err)
	require.Equal(t, n, got.Flights)
}

func TestPGFlights_LikesLeaderboardAndStatus(t *testing.T) {
	st := startPG(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for i, u := range []string{"a", "b"} {
		u := u
		xp := (i + 1) * 100
		err := st.InUserTx(ctx, u, func(ctx context.Context, tx storage.UserTx) error {
			rec := record("f-"+u, u, 500, now)
			due := now.Add(-time.Minute)
			rec.NextStatusCheckAt = &due
			if err := tx.InsertFlight(ctx, rec); err != nil {
				return err
			}
			cur, _ := tx.GetStats(ctx)
			cur.Flights, cur.XP = 1, xp
			return tx.SaveStats(ctx, cur)
		})
		require.NoError(t, err)
	}

	n, err := st.SetLike(ctx, "f-a", "b", true)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	n, err = st.SetLike(ctx, "f-a", "b", true)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	n, err = st.SetLike(ctx, "f-a", "b", false)
	require.NoError(t, err)
	require.Zero(t, n)
	_, err = st.SetLike(ctx, "missing", "b", true)
	require.ErrorIs(t, err, models.ErrRecordNotFound)

	top, err := st.Leaderboard(ctx, models.LeaderboardXP, 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	require.Equal(t, "b", top[0].UserID)

	lease := 30 * time.Second
	due, err := st.ClaimDueStatusChecks(ctx, now, 10, lease)
	require.NoError(t, err)
	require.Len(t, due, 2)
	require.WithinDuration(t, now.Add(lease), *due[0].NextStatusCheckAt, 2*time.Second)

	again, err := st.ClaimDueStatusChecks(ctx, now, 10, lease)
	require.NoError(t, err)
	require.Empty(t, again)

	err = st.ApplyStatusUpdate(ctx, models.StatusUpdate{
		FlightID:    "f-a",
		CheckedAt:   now,
		Status:      models.FlightStatusAirborne,
		Position:    &models.Position{Lat: 15, Lon: 75},
		NextCheckAt: now.Add(10 * time.Minute),
	})
	require.NoError(t, err)
	rec, err := st.GetFlight(ctx, "f-a")
	require.NoError(t, err)
	require.Equal(t, models.FlightStatusAirborne, rec.Flight.Status.Current)
	require.NotNil(t, rec.NextStatusCheckAt)

	err = st.ApplyStatusUpdate(ctx, models.StatusUpdate{
		FlightID:    "f-a",
		CheckedAt:   now,
		Status:      models.FlightStatusLanded,
		NextCheckAt: now.Add(10 * time.Minute),
	})
	require.NoError(t, err)
	rec, err = st.GetFlight(ctx, "f-a")
	require.NoError(t, err)
	require.Equal(t, models.FlightStatusLanded, rec.Flight.Status.Current)
	require.Nil(t, rec.NextStatusCheckAt)
	require.NotNil(t, rec.Flight.Status.Position)

	msg := "upstream 503"
	err = st.ApplyStatusUpdate(ctx, models.StatusUpdate{FlightID: "f-b", CheckedAt: now, NextCheckAt: now.Add(time.Minute), Error: &msg})
	require.NoError(t, err)
	rec, err = st.GetFlight(ctx, "f-b")
	require.NoError(t, err)
	require.EqualValues(t, 1, rec.StatusCheckFails)
}
