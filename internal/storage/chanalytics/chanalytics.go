// Package chanalytics appends logged flights to ClickHouse for route statistics.
package chanalytics

import (
	"context"
	"fmt"
	"time"

	"github.com/BearBump/FlightBox/internal/broker/messages"
	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/pkg/errors"
)

type Config struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

type Storage struct {
	conn driver.Conn
}

func New(ctx context.Context, cfg Config) (*Storage, error) {
	if cfg.Port == 0 {
		cfg.Port = 9000
	}
	if cfg.Database == "" {
		cfg.Database = "default"
	}
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout:     10 * time.Second,
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Hour,
	})
	if err != nil {
		return nil, errors.Wrap(err, "open clickhouse")
	}
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "ping clickhouse")
	}

	s := &Storage{conn: conn}
	if err := s.createSchema(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return s, nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return errors.Wrap(s.conn.Ping(ctx), "ping clickhouse")
}

func (s *Storage) Close() error {
	return s.conn.Close()
}

func (s *Storage) createSchema(ctx context.Context) error {
	// ReplacingMergeTree по flight_id: повторная доставка из kafka не плодит дубли после мержа.
	err := s.conn.Exec(ctx, `
CREATE TABLE IF NOT EXISTS flight_events (
  flight_id     String,
  user_id       String,
  flight_number LowCardinality(String),
  flight_date   String,
  airline       LowCardinality(String),
  aircraft      LowCardinality(String),
  departure     LowCardinality(String),
  arrival       LowCardinality(String),
  distance_km   UInt32,
  cabin_class   LowCardinality(String),
  source        LowCardinality(String),
  xp_awarded    UInt32,
  logged_at     DateTime64(3)
)
ENGINE = ReplacingMergeTree()
PARTITION BY toYYYYMM(logged_at)
ORDER BY (departure, arrival, flight_id)`)
	return errors.Wrap(err, "create flight_events")
}

// InsertBatch appends events in one round-trip.
func (s *Storage) InsertBatch(ctx context.Context, events []messages.FlightLogged) error {
	if len(events) == 0 {
		return nil
	}
	batch, err := s.conn.PrepareBatch(ctx, `
INSERT INTO flight_events (
  flight_id, user_id, flight_number, flight_date, airline, aircraft,
  departure, arrival, distance_km, cabin_class, source, xp_awarded, logged_at
)`)
	if err != nil {
		return errors.Wrap(err, "prepare batch")
	}
	for _, e := range events {
		err := batch.Append(
			e.FlightID, e.UserID, e.FlightNumber, e.FlightDate, e.Airline, e.Aircraft,
			e.Departure, e.Arrival, uint32(max(e.DistanceKm, 0)), e.CabinClass, e.Source,
			uint32(max(e.XPAwarded, 0)), e.LoggedAt.UTC(),
		)
		if err != nil {
			return errors.Wrap(err, "append event")
		}
	}
	return errors.Wrap(batch.Send(), "send batch")
}

func (s *Storage) Insert(ctx context.Context, e messages.FlightLogged) error {
	return s.InsertBatch(ctx, []messages.FlightLogged{e})
}

type RouteCount struct {
	Departure string `json:"departure"`
	Arrival   string `json:"arrival"`
	Flights   uint64 `json:"flights"`
	Travelers uint64 `json:"travelers"`
}

// TopRoutes returns the most logged routes since the given moment.
func (s *Storage) TopRoutes(ctx context.Context, since time.Time, limit int) ([]RouteCount, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := s.conn.Query(ctx, `
SELECT departure, arrival, count() AS flights, uniqExact(user_id) AS travelers
FROM flight_events FINAL
WHERE logged_at >= ?
GROUP BY departure, arrival
ORDER BY flights DESC, departure ASC, arrival ASC
LIMIT ?`, since.UTC(), limit)
	if err != nil {
		return nil, errors.Wrap(err, "select top routes")
	}
	defer rows.Close()

	out := []RouteCount{}
	for rows.Next() {
		var r RouteCount
		if err := rows.Scan(&r.Departure, &r.Arrival, &r.Flights, &r.Travelers); err != nil {
			return nil, errors.Wrap(err, "scan route")
		}
		out = append(out, r)
	}
	return out, errors.Wrap(rows.Err(), "rows")
}
