package sqliteflights

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/BearBump/FlightBox/internal/models"
	"github.com/pkg/errors"
)

// ClaimDueStatusChecks picks flights whose status check is due and pushes
// their next check forward by lease. The immediate transaction already
// excludes other claimers.
func (s *Storage) ClaimDueStatusChecks(ctx context.Context, now time.Time, limit int, lease time.Duration) ([]models.FlightRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, mapErr(err, "begin tx")
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, `
SELECT `+flightColumns+`
FROM flights
WHERE next_status_check_at IS NOT NULL
  AND next_status_check_at <= ?
  AND status NOT IN (?, ?)
ORDER BY next_status_check_at ASC
LIMIT ?
`, ms(now), string(models.FlightStatusLanded), string(models.FlightStatusCancelled), limit)
	if err != nil {
		return nil, mapErr(err, "select due flights")
	}
	picked, err := collectFlights(rows)
	if err != nil {
		return nil, err
	}

	leaseUntil := fromMs(ms(now.Add(lease)))
	for i := range picked {
		_, err := tx.ExecContext(ctx, `UPDATE flights SET next_status_check_at = ?, updated_at = ? WHERE id = ?`,
			ms(leaseUntil), ms(now), picked[i].ID)
		if err != nil {
			return nil, mapErr(err, "lease flight")
		}
		picked[i].NextStatusCheckAt = &leaseUntil
	}

	if err := tx.Commit(); err != nil {
		return nil, mapErr(err, "commit tx")
	}
	return picked, nil
}

func (s *Storage) ApplyStatusUpdate(ctx context.Context, upd models.StatusUpdate) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapErr(err, "begin tx")
	}
	defer func() { _ = tx.Rollback() }()

	if upd.Error != nil && *upd.Error != "" {
		res, err := tx.ExecContext(ctx, `
UPDATE flights
SET
  last_status_check_at = ?,
  status_check_fails = status_check_fails + 1,
  last_status_error = ?,
  next_status_check_at = ?,
  updated_at = ?
WHERE id = ?
`, ms(upd.CheckedAt), *upd.Error, ms(upd.NextCheckAt), ms(upd.CheckedAt), upd.FlightID)
		if err != nil {
			return mapErr(err, "update flight (error)")
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return models.ErrRecordNotFound
		}
		return mapErr(tx.Commit(), "commit tx")
	}

	rec, err := scanFlight(tx.QueryRowContext(ctx, `SELECT `+flightColumns+` FROM flights WHERE id = ?`, upd.FlightID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrRecordNotFound
	}
	if err != nil {
		return mapErr(err, "select flight")
	}

	if upd.Status != "" {
		rec.Flight.Status.Current = upd.Status
	}
	if upd.Position != nil {
		rec.Flight.Status.Position = upd.Position
	}
	rec.UpdatedAt = upd.CheckedAt.UTC()

	var next *time.Time
	if !rec.Flight.Status.Current.Final() {
		t := upd.NextCheckAt.UTC()
		next = &t
	}
	rec.NextStatusCheckAt = next

	doc, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "marshal flight")
	}
	_, err = tx.ExecContext(ctx, `
UPDATE flights
SET
  doc = ?,
  status = ?,
  last_status_check_at = ?,
  status_check_fails = 0,
  last_status_error = NULL,
  next_status_check_at = ?,
  updated_at = ?
WHERE id = ?
`, string(doc), string(rec.Flight.Status.Current), ms(upd.CheckedAt), msPtr(next), ms(upd.CheckedAt), upd.FlightID)
	if err != nil {
		return mapErr(err, "update flight (ok)")
	}
	return mapErr(tx.Commit(), "commit tx")
}
