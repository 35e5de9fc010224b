package pgflights

import (
	"context"
	"encoding/json"
	"time"

	"github.com/BearBump/FlightBox/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

const flightColumns = `id, doc, likes, next_status_check_at, status_check_fails`

func scanFlight(row pgx.Row) (models.FlightRecord, error) {
	var (
		rec       models.FlightRecord
		id        string
		doc       []byte
		likes     int
		nextCheck *time.Time
		fails     int32
	)
	if err := row.Scan(&id, &doc, &likes, &nextCheck, &fails); err != nil {
		return rec, err
	}
	if err := json.Unmarshal(doc, &rec); err != nil {
		return rec, errors.Wrapf(err, "decode flight %s", id)
	}
	rec.ID = id
	rec.Likes = likes
	rec.NextStatusCheckAt = nextCheck
	rec.StatusCheckFails = fails
	return rec, nil
}

func collectFlights(rows pgx.Rows) ([]models.FlightRecord, error) {
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
	var doc []byte
	err := s.db.QueryRow(ctx, `SELECT doc FROM user_stats WHERE user_id = $1`, userID).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.EmptyUserStats(), nil
	}
	if err != nil {
		return models.UserStats{}, errors.Wrap(err, "select user stats")
	}
	return decodeStats(doc)
}

func (s *Storage) ListUnlocked(ctx context.Context, userID string) ([]models.UnlockedAchievement, error) {
	rows, err := s.db.Query(ctx, `
SELECT achievement_id, unlocked_at
FROM user_achievements
WHERE user_id = $1
ORDER BY unlocked_at ASC, achievement_id ASC
`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "select achievements")
	}
	defer rows.Close()

	out := []models.UnlockedAchievement{}
	for rows.Next() {
		var u models.UnlockedAchievement
		if err := rows.Scan(&u.AchievementID, &u.UnlockedAt); err != nil {
			return nil, errors.Wrap(err, "scan achievement")
		}
		out = append(out, u)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

func (s *Storage) ListFlights(ctx context.Context, userID string, limit, offset int) ([]models.FlightRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.db.Query(ctx, `
SELECT `+flightColumns+`
FROM flights
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`, userID, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "select flights")
	}
	return collectFlights(rows)
}

func (s *Storage) GetFlight(ctx context.Context, id string) (*models.FlightRecord, error) {
	rec, err := scanFlight(s.db.QueryRow(ctx, `SELECT `+flightColumns+` FROM flights WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrRecordNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select flight")
	}
	return &rec, nil
}

// SetLike is idempotent in both directions.
func (s *Storage) SetLike(ctx context.Context, flightID, userID string, liked bool) (int, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var one int
	err = tx.QueryRow(ctx, `SELECT 1 FROM flights WHERE id = $1 FOR UPDATE`, flightID).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, models.ErrRecordNotFound
	}
	if err != nil {
		return 0, errors.Wrap(err, "lock flight")
	}

	if liked {
		_, err = tx.Exec(ctx, `
INSERT INTO flight_likes (flight_id, user_id, created_at)
VALUES ($1, $2, now())
ON CONFLICT (flight_id, user_id) DO NOTHING
`, flightID, userID)
	} else {
		_, err = tx.Exec(ctx, `DELETE FROM flight_likes WHERE flight_id = $1 AND user_id = $2`, flightID, userID)
	}
	if err != nil {
		return 0, errors.Wrap(err, "toggle like")
	}

	var likes int
	err = tx.QueryRow(ctx, `
UPDATE flights
SET likes = (SELECT count(*) FROM flight_likes WHERE flight_id = $1), updated_at = now()
WHERE id = $1
RETURNING likes
`, flightID).Scan(&likes)
	if err != nil {
		return 0, errors.Wrap(err, "update likes")
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, errors.Wrap(err, "commit tx")
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
	rows, err := s.db.Query(ctx, `
SELECT user_id, xp, flights, miles_km
FROM user_stats
WHERE flights > 0
ORDER BY `+order+` DESC, user_id ASC
LIMIT $1
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
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}
