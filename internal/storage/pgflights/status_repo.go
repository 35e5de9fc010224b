package pgflights

import (
	"context"
	"encoding/json"
	"time"

	"github.com/BearBump/FlightBox/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// ClaimDueStatusChecks выбирает рейсы, которым пора обновить статус, и
// продлевает им next_status_check_at на lease, чтобы другой воркер их не взял.
// Использует SELECT ... FOR UPDATE SKIP LOCKED.
func (s *Storage) ClaimDueStatusChecks(ctx context.Context, now time.Time, limit int, lease time.Duration) ([]models.FlightRecord, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `
SELECT `+flightColumns+`
FROM flights
WHERE next_status_check_at IS NOT NULL
  AND next_status_check_at <= $1
  AND status NOT IN ($2, $3)
ORDER BY next_status_check_at ASC
LIMIT $4
FOR UPDATE SKIP LOCKED
`, now.UTC(), string(models.FlightStatusLanded), string(models.FlightStatusCancelled), limit)
	if err != nil {
		return nil, errors.Wrap(err, "select due flights")
	}
	picked, err := collectFlights(rows)
	if err != nil {
		return nil, err
	}

	leaseUntil := now.UTC().Add(lease)
	for i := range picked {
		_, err := tx.Exec(ctx, `UPDATE flights SET next_status_check_at = $2, updated_at = now() WHERE id = $1`, picked[i].ID, leaseUntil)
		if err != nil {
			return nil, errors.Wrap(err, "lease flight")
		}
		picked[i].NextStatusCheckAt = &leaseUntil
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, "commit tx")
	}
	return picked, nil
}

// ApplyStatusUpdate writes telemetry into the flight document. A final status
// stops further checks.
func (s *Storage) ApplyStatusUpdate(ctx context.Context, upd models.StatusUpdate) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if upd.Error != nil && *upd.Error != "" {
		tag, err := tx.Exec(ctx, `
UPDATE flights
SET
  last_status_check_at = $2,
  status_check_fails = status_check_fails + 1,
  last_status_error = $3,
  next_status_check_at = $4,
  updated_at = now()
WHERE id = $1
`, upd.FlightID, upd.CheckedAt.UTC(), *upd.Error, upd.NextCheckAt.UTC())
		if err != nil {
			return errors.Wrap(err, "update flight (error)")
		}
		if tag.RowsAffected() == 0 {
			return models.ErrRecordNotFound
		}
		return errors.Wrap(tx.Commit(ctx), "commit tx")
	}

	rec, err := scanFlight(tx.QueryRow(ctx, `SELECT `+flightColumns+` FROM flights WHERE id = $1 FOR UPDATE`, upd.FlightID))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ErrRecordNotFound
	}
	if err != nil {
		return errors.Wrap(err, "lock flight")
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
	_, err = tx.Exec(ctx, `
UPDATE flights
SET
  doc = $2,
  status = $3,
  last_status_check_at = $4,
  status_check_fails = 0,
  last_status_error = NULL,
  next_status_check_at = $5,
  updated_at = now()
WHERE id = $1
`, upd.FlightID, doc, string(rec.Flight.Status.Current), upd.CheckedAt.UTC(), next)
	if err != nil {
		return errors.Wrap(err, "update flight (ok)")
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "commit tx")
	}
	return nil
}
