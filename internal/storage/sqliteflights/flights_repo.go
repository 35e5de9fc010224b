package sqliteflights

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/BearBump/FlightBox/internal/models"
	"github.com/pkg/errors"
)

const flightColumns = `id, doc, likes, next_status_check_at, status_check_fails`

type scanner interface {
	Scan(dest ...any) error
}

func scanFlight(row scanner) (models.FlightRecord, error) {
	var (
		rec       models.FlightRecord
		id, doc   string
		likes     int
		nextCheck sql.NullInt64
		fails     int32
	)
	if err := row.Scan(&id, &doc, &likes, &nextCheck, &fails); err != nil {
		return rec, err
	}
	if err := json.Unmarshal([]byte(doc), &rec); err != nil {
		return rec, errors.Wrapf(err, "decode flight %s", id)
	}
	rec.ID = id
	rec.Likes = likes
	rec.NextStatusCheckAt = nil
	if nextCheck.Valid {
		t := fromMs(nextCheck.Int64)
		rec.NextStatusCheckAt = &t
	}
	rec.StatusCheckFails = fails
	return rec, nil
}

func collectFlights(rows *sql.Rows) ([]models.FlightRecord, error) {
	defer rows.Close()
	out := []models.FlightRecord{}
	for rows.Next() {
		rec, err := scanFlight(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan flight")
		}
		out = append(out, rec)
	}
	if rows.Err() != nil {
		return nil, mapErr(rows.Err(), "rows")
	}
	return out, nil
}

func (s *Storage) GetUserStats(ctx context.Context, userID string) (models.UserStats, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM user_stats WHERE user_id = ?`, userID).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return models.EmptyUserStats(), nil
	}
	if err != nil {
		return models.UserStats{}, errors.Wrap(err, "select user stats")
	}
	return decodeStats([]byte(doc))
}

func (s *Storage) ListUnlocked(ctx context.Context, userID string) ([]models.UnlockedAchievement, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT achievement_id, unlocked_at
FROM user_achievements
WHERE user_id = ?
ORDER BY unlocked_at ASC, achievement_id ASC
`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "select achievements")
	}
	defer rows.Close()

	out := []models.UnlockedAchievement{}
	for rows.Next() {
		var (
			u  models.UnlockedAchievement
			at int64
		)
		if err := rows.Scan(&u.AchievementID, &at); err != nil {
			return nil, errors.Wrap(err, "scan achievement")
		}
		u.UnlockedAt = fromMs(at)
		out = append(out, u)
	}
	return out, errors.Wrap(rows.Err(), "rows")
}

func (s *Storage) ListFlights(ctx context.Context, userID string, limit, offset int) ([]models.FlightRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT `+flightColumns+`
FROM flights
WHERE user_id = ?
ORDER BY created_at DESC
LIMIT ? OFFSET ?
`, userID, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "select flights")
	}
	return collectFlights(rows)
}

func (s *Storage) GetFlight(ctx context.Context, id string) (*models.FlightRecord, error) {
	rec, err := scanFlight(s.db.QueryRowContext(ctx, `SELECT `+flightColumns+` FROM flights WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrRecordNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select flight")
	}
	return &rec, nil
}

func (s *Storage) SetLike(ctx context.Context, flightID, userID string, liked bool) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, mapErr(err, "begin tx")
	}
	defer func() { _ = tx.Rollback() }()

	var one int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM flights WHERE id = ?`, flightID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, models.ErrRecordNotFound
	}
	if err != nil {
		return 0, mapErr(err, "select flight")
	}

	if liked {
		_, err = tx.ExecContext(ctx, `
INSERT INTO flight_likes (flight_id, user_id, created_at)
VALUES (?, ?, ?)
ON CONFLICT (flight_id, user_id) DO NOTHING
`, flightID, userID, ms(time.Now()))
	} else {
		_, err = tx.ExecContext(ctx, `DELETE FROM flight_likes WHERE flight_id = ? AND user_id = ?`, flightID, userID)
	}
	if err != nil {
		return 0, mapErr(err, "toggle like")
	}

	var likes int
	err = tx.QueryRowContext(ctx, `
UPDATE flights
SET likes = (SELECT count(*) FROM flight_likes WHERE flight_id = ?1), updated_at = ?2
WHERE id = ?1
RETURNING likes
`, flightID, ms(time.Now())).Scan(&likes)
	if err != nil {
		return 0, mapErr(err, "update likes")
	}

	if err := tx.Commit(); err != nil {
		return 0, mapErr(err, "commit tx")
	}
	return likes, nil
}

func (s *Storage) Leaderboard(ctx context.Context, metric models.LeaderboardMetric, limit int) ([]models.LeaderboardEntry, error) {
	order := "xp"
	switch metric {
	case models.LeaderboardFlights:
		order = "flights"
	case models.LeaderboardDistance:
		order = "miles_km"
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT user_id, xp, flights, miles_km
FROM user_stats
WHERE flights > 0
ORDER BY `+order+` DESC, user_id ASC
LIMIT ?
`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "select leaderboard")
	}
	defer rows.Close()

	out := []models.LeaderboardEntry{}
	for rows.Next() {
		var e models.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.XP, &e.Flights, &e.MilesKm); err != nil {
			return nil, errors.Wrap(err, "scan leaderboard")
		}
		out = append(out, e)
	}
	return out, errors.Wrap(rows.Err(), "rows")
}
