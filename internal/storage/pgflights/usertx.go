package pgflights

import (
	"context"
	"encoding/json"
	"time"

	"github.com/BearBump/FlightBox/internal/models"
	"github.com/BearBump/FlightBox/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// InUserTx runs fn with the user's stats row locked (SELECT ... FOR UPDATE).
// Different users lock different rows and never wait on each other.
func (s *Storage) InUserTx(ctx context.Context, userID string, fn storage.UserTxFunc) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return mapErr(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	empty, err := json.Marshal(models.EmptyUserStats())
	if err != nil {
		return errors.Wrap(err, "marshal empty stats")
	}
	// Строка нужна до FOR UPDATE, иначе первые два запроса нового пользователя не сериализуются.
	_, err = tx.Exec(ctx, `
INSERT INTO user_stats (user_id, doc, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (user_id) DO NOTHING
`, userID, empty)
	if err != nil {
		return mapErr(err, "ensure user stats")
	}

	if err := fn(ctx, &userTx{tx: tx, userID: userID}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return mapErr(err, "commit tx")
	}
	return nil
}

type userTx struct {
	tx     pgx.Tx
	userID string
}

func (t *userTx) GetStats(ctx context.Context) (models.UserStats, error) {
	var doc []byte
	err := t.tx.QueryRow(ctx, `SELECT doc FROM user_stats WHERE user_id = $1 FOR UPDATE`, t.userID).Scan(&doc)
	if err != nil {
		return models.UserStats{}, mapErr(err, "lock user stats")
	}
	return decodeStats(doc)
}

func (t *userTx) SaveStats(ctx context.Context, st models.UserStats) error {
	doc, err := json.Marshal(st)
	if err != nil {
		return errors.Wrap(err, "marshal stats")
	}
	_, err = t.tx.Exec(ctx, `
UPDATE user_stats
SET doc = $2, xp = $3, flights = $4, miles_km = $5, updated_at = now()
WHERE user_id = $1
`, t.userID, doc, st.XP, st.Flights, st.MilesKm)
	return mapErr(err, "save user stats")
}

func (t *userTx) UnlockedAchievements(ctx context.Context) (map[string]struct{}, error) {
	rows, err := t.tx.Query(ctx, `SELECT achievement_id FROM user_achievements WHERE user_id = $1`, t.userID)
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
	if rows.Err() != nil {
		return nil, mapErr(rows.Err(), "rows")
	}
	return out, nil
}

func (t *userTx) UnlockAchievements(ctx context.Context, items []models.UnlockedAchievement) error {
	for _, it := range items {
		_, err := t.tx.Exec(ctx, `
INSERT INTO user_achievements (user_id, achievement_id, unlocked_at)
VALUES ($1, $2, $3)
ON CONFLICT (user_id, achievement_id) DO NOTHING
`, t.userID, it.AchievementID, it.UnlockedAt.UTC())
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
	_, err = t.tx.Exec(ctx, `
INSERT INTO flights (
  id, user_id, doc, status, likes, next_status_check_at, created_at, updated_at
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`, rec.ID, rec.UserID, doc, string(rec.Flight.Status.Current), rec.Likes,
		utcPtr(rec.NextStatusCheckAt), rec.CreatedAt.UTC(), rec.UpdatedAt.UTC())
	return mapErr(err, "insert flight")
}

func (t *userTx) DeleteFlight(ctx context.Context, flightID string) (bool, error) {
	tag, err := t.tx.Exec(ctx, `DELETE FROM flights WHERE id = $1 AND user_id = $2`, flightID, t.userID)
	if err != nil {
		return false, mapErr(err, "delete flight")
	}
	return tag.RowsAffected() == 1, nil
}

func (t *userTx) ListAllFlights(ctx context.Context) ([]models.FlightRecord, error) {
	rows, err := t.tx.Query(ctx, `
SELECT `+flightColumns+`
FROM flights
WHERE user_id = $1
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

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
