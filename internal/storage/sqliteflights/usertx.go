package sqliteflights

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/BearBump/FlightBox/internal/models"
	"github.com/BearBump/FlightBox/internal/storage"
	"github.com/pkg/errors"
)

// InUserTx runs fn inside one immediate transaction. SQLite has no row
// locks, so the whole database is held for writing until commit.
func (s *Storage) InUserTx(ctx context.Context, userID string, fn storage.UserTxFunc) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapErr(err, "begin tx")
	}
	defer func() { _ = tx.Rollback() }()

	empty, err := json.Marshal(models.EmptyUserStats())
	if err != nil {
		return errors.Wrap(err, "marshal empty stats")
	}
	_, err = tx.ExecContext(ctx, `
INSERT INTO user_stats (user_id, doc, updated_at)
VALUES (?, ?, ?)
ON CONFLICT (user_id) DO NOTHING
`, userID, string(empty), ms(time.Now()))
	if err != nil {
		return mapErr(err, "ensure user stats")
	}

	if err := fn(ctx, &userTx{tx: tx, userID: userID}); err != nil {
		return err
	}
	return mapErr(tx.Commit(), "commit tx")
}

type userTx struct {
	tx     *sql.Tx
	userID string
}

func (t *userTx) GetStats(ctx context.Context) (models.UserStats, error) {
	var doc string
	err := t.tx.QueryRowContext(ctx, `SELECT doc FROM user_stats WHERE user_id = ?`, t.userID).Scan(&doc)
	if err != nil {
		return models.UserStats{}, mapErr(err, "select user stats")
	}
	return decodeStats([]byte(doc))
}

func (t *userTx) SaveStats(ctx context.Context, st models.UserStats) error {
	doc, err := json.Marshal(st)
	if err != nil {
		return errors.Wrap(err, "marshal stats")
	}
	_, err = t.tx.ExecContext(ctx, `
UPDATE user_stats
SET doc = ?, xp = ?, flights = ?, miles_km = ?, updated_at = ?
WHERE user_id = ?
`, string(doc), st.XP, st.Flights, st.MilesKm, ms(time.Now()), t.userID)
	return mapErr(err, "save user stats")
}

func (t *userTx) UnlockedAchievements(ctx context.Context) (map[string]struct{}, error) {
	rows, err := t.tx.QueryContext(ctx, `SELECT achievement_id FROM user_achievements WHERE user_id = ?`, t.userID)
	if err != nil {
		return nil, mapErr(err, "select achievements")
	}
	defer rows.Close()

	out := map[string]struct{}{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "scan achievement")
		}
		out[id] = struct{}{}
	}
	return out, mapErr(rows.Err(), "rows")
}

func (t *userTx) UnlockAchievements(ctx context.Context, items []models.UnlockedAchievement) error {
	for _, it := range items {
		_, err := t.tx.ExecContext(ctx, `
INSERT INTO user_achievements (user_id, achievement_id, unlocked_at)
VALUES (?, ?, ?)
ON CONFLICT (user_id, achievement_id) DO NOTHING
`, t.userID, it.AchievementID, ms(it.UnlockedAt))
		if err != nil {
			return mapErr(err, "insert achievement")
		}
	}
	return nil
}

func (t *userTx) InsertFlight(ctx context.Context, rec *models.FlightRecord) error {
	if rec.UserID != t.userID {
		return errors.Wrapf(models.ErrForbidden, "flight belongs to %s", rec.UserID)
	}
	doc, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "marshal flight")
	}
	_, err = t.tx.ExecContext(ctx, `
INSERT INTO flights (
  id, user_id, doc, status, likes, next_status_check_at, created_at, updated_at
)
VALUES (?,?,?,?,?,?,?,?)
`, rec.ID, rec.UserID, string(doc), string(rec.Flight.Status.Current), rec.Likes,
		msPtr(rec.NextStatusCheckAt), ms(rec.CreatedAt), ms(rec.UpdatedAt))
	return mapErr(err, "insert flight")
}

func (t *userTx) DeleteFlight(ctx context.Context, flightID string) (bool, error) {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM flights WHERE id = ? AND user_id = ?`, flightID, t.userID)
	if err != nil {
		return false, mapErr(err, "delete flight")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "rows affected")
	}
	return n == 1, nil
}

func (t *userTx) ListAllFlights(ctx context.Context) ([]models.FlightRecord, error) {
	rows, err := t.tx.QueryContext(ctx, `
SELECT `+flightColumns+`
FROM flights
WHERE user_id = ?
ORDER BY created_at ASC
`, t.userID)
	if err != nil {
		return nil, mapErr(err, "select user flights")
	}
	return collectFlights(rows)
}

func decodeStats(doc []byte) (models.UserStats, error) {
	st := models.EmptyUserStats()
	if err := json.Unmarshal(doc, &st); err != nil {
		return models.UserStats{}, errors.Wrap(err, "decode stats")
	}
	return st.Clone(), nil
}
