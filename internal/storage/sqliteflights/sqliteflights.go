// Package sqliteflights is the embedded flight store for single-node setups.
// It keeps the same documents as pgflights; every write transaction starts
// with BEGIN IMMEDIATE, so writers are serialized by the database file lock.
package sqliteflights

import (
	"context"
	"database/sql"
	"net/url"
	"time"

	"github.com/BearBump/FlightBox/internal/models"
	"github.com/pkg/errors"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type Storage struct {
	db *sql.DB
}

// New opens (or creates) the database at path.
func New(path string) (*Storage, error) {
	q := url.Values{}
	q.Set("_txlock", "immediate")
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "foreign_keys(1)")

	db, err := sql.Open("sqlite", "file:"+path+"?"+q.Encode())
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}

	s := &Storage{db: db}
	if err := s.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return errors.Wrap(s.db.PingContext(ctx), "ping sqlite")
}

func (s *Storage) Close() {
	if s.db != nil {
		_ = s.db.Close()
	}
}

func (s *Storage) initSchema(ctx context.Context) error {
	stmts := []string{
		`
CREATE TABLE IF NOT EXISTS user_stats (
  user_id TEXT PRIMARY KEY,
  doc TEXT NOT NULL,
  xp INTEGER NOT NULL DEFAULT 0,
  flights INTEGER NOT NULL DEFAULT 0,
  miles_km INTEGER NOT NULL DEFAULT 0,
  updated_at INTEGER NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_user_stats_xp ON user_stats(xp DESC)`,
		`
CREATE TABLE IF NOT EXISTS flights (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  doc TEXT NOT NULL,
  status TEXT NOT NULL,
  likes INTEGER NOT NULL DEFAULT 0,
  next_status_check_at INTEGER NULL,
  status_check_fails INTEGER NOT NULL DEFAULT 0,
  last_status_error TEXT NULL,
  last_status_check_at INTEGER NULL,
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_flights_user_created ON flights(user_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_flights_next_status_check ON flights(next_status_check_at) WHERE next_status_check_at IS NOT NULL`,
		`
CREATE TABLE IF NOT EXISTS user_achievements (
  user_id TEXT NOT NULL,
  achievement_id TEXT NOT NULL,
  unlocked_at INTEGER NOT NULL,
  PRIMARY KEY (user_id, achievement_id)
)`,
		`
CREATE TABLE IF NOT EXISTS flight_likes (
  flight_id TEXT NOT NULL REFERENCES flights(id) ON DELETE CASCADE,
  user_id TEXT NOT NULL,
  created_at INTEGER NOT NULL,
  PRIMARY KEY (flight_id, user_id)
)`,
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return errors.Wrap(err, "init schema")
		}
	}
	return nil
}

// mapErr turns SQLITE_BUSY and SQLITE_LOCKED into models.ErrConflict.
func mapErr(err error, msg string) error {
	if err == nil {
		return nil
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return errors.Wrapf(models.ErrConflict, "%s: %s", msg, se.Error())
		}
	}
	return errors.Wrap(err, msg)
}

// Время хранится в миллисекундах UTC, так сравнения в WHERE работают без парсинга.
func ms(t time.Time) int64 { return t.UTC().UnixMilli() }

func fromMs(v int64) time.Time { return time.UnixMilli(v).UTC() }

func msPtr(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: ms(*t), Valid: true}
}
