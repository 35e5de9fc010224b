package pgflights

import (
	"context"

	"github.com/pkg/errors"
)

func (s *Storage) initSchema(ctx context.Context) error {
	stmts := []string{
		`
CREATE TABLE IF NOT EXISTS user_stats (
  user_id TEXT PRIMARY KEY,
  doc JSONB NOT NULL,
  xp INT NOT NULL DEFAULT 0,
  flights INT NOT NULL DEFAULT 0,
  miles_km BIGINT NOT NULL DEFAULT 0,
  updated_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_user_stats_xp ON user_stats(xp DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_user_stats_flights ON user_stats(flights DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_user_stats_miles_km ON user_stats(miles_km DESC)`,
		`
CREATE TABLE IF NOT EXISTS flights (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  doc JSONB NOT NULL,
  status TEXT NOT NULL,
  likes INT NOT NULL DEFAULT 0,
  next_status_check_at TIMESTAMPTZ NULL,
  status_check_fails INT NOT NULL DEFAULT 0,
  last_status_error TEXT NULL,
  last_status_check_at TIMESTAMPTZ NULL,
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_flights_user_created ON flights(user_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_flights_next_status_check ON flights(next_status_check_at) WHERE next_status_check_at IS NOT NULL`,
		`
CREATE TABLE IF NOT EXISTS user_achievements (
  user_id TEXT NOT NULL,
  achievement_id TEXT NOT NULL,
  unlocked_at TIMESTAMPTZ NOT NULL,
  PRIMARY KEY (user_id, achievement_id)
)`,
		`
CREATE TABLE IF NOT EXISTS flight_likes (
  flight_id TEXT NOT NULL REFERENCES flights(id) ON DELETE CASCADE,
  user_id TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL,
  PRIMARY KEY (flight_id, user_id)
)`,
	}

	for _, q := range stmts {
		if _, err := s.db.Exec(ctx, q); err != nil {
			return errors.Wrap(err, "init schema")
		}
	}
	return nil
}
