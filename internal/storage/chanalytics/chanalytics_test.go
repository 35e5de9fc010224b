package chanalytics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/BearBump/FlightBox/internal/broker/messages"
)

func startClickHouse(t *testing.T) *Storage {
	t.Helper()
	if testing.Short() {
		t.Skip("needs docker")
	}
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "clickhouse/clickhouse-server:24.8-alpine",
		ExposedPorts: []string{"9000/tcp", "8123/tcp"},
		Env: map[string]string{
			"CLICKHOUSE_USER":     "admin",
			"CLICKHOUSE_PASSWORD": "admin",
			"CLICKHOUSE_DB":       "flightbox_test",
		},
		WaitingFor: wait.ForHTTP("/ping").WithPort("8123/tcp").WithStartupTimeout(90 * time.Second),
	}
	chC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = chC.Terminate(ctx) })

	host, err := chC.Host(ctx)
	require.NoError(t, err)
	port, err := chC.MappedPort(ctx, "9000/tcp")
	require.NoError(t, err)

	st, err := New(ctx, Config{Host: host, Port: port.Int(), Database: "flightbox_test", User: "admin", Password: "admin"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestTopRoutes(t *testing.T) {
	st := startClickHouse(t)
	ctx := context.Background()
	now := time.Now().UTC()

	ev := func(id, user, dep, arr string) messages.FlightLogged {
		return messages.FlightLogged{
			FlightID: id, UserID: user, FlightNumber: "QP1457", Airline: "Akasa Air",
			Departure: dep, Arrival: arr, DistanceKm: 865, CabinClass: "economy",
			Source: "synthetic", XPAwarded: 267, LoggedAt: now,
		}
	}
	require.NoError(t, st.InsertBatch(ctx, []messages.FlightLogged{
		ev("f1", "u1", "BOM", "BLR"),
		ev("f2", "u2", "BOM", "BLR"),
		ev("f3", "u1", "BOM", "BLR"),
		ev("f4", "u1", "LHR", "JFK"),
	}))
	require.NoError(t, st.Insert(ctx, ev("f5", "u3", "LHR", "JFK")))
	require.NoError(t, st.InsertBatch(ctx, nil))

	top, err := st.TopRoutes(ctx, now.Add(-time.Hour), 10)
	require.NoError(t, err)
	require.Equal(t, []RouteCount{
		{Departure: "BOM", Arrival: "BLR", Flights: 3, Travelers: 2},
		{Departure: "LHR", Arrival: "JFK", Flights: 2, Travelers: 2},
	}, top)

	none, err := st.TopRoutes(ctx, now.Add(time.Hour), 10)
	require.NoError(t, err)
	require.Empty(t, none)
}
