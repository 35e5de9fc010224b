package flights

import (
	"context"
	"time"

	"github.com/BearBump/FlightBox/internal/broker/messages"
	"github.com/BearBump/FlightBox/internal/models"
)

// ApplyStatusUpdate stores fresh telemetry that the worker published for a
// logged flight.
func (s *Service) ApplyStatusUpdate(ctx context.Context, msg messages.FlightStatusUpdated) error {
	if msg.FlightID == "" {
		return models.Validationf("flight_id is required")
	}
	if msg.CheckedAt.IsZero() {
		msg.CheckedAt = s.now().UTC()
	}
	if msg.NextCheckAt.IsZero() {
		// воркер не прислал next_check_at: проверим через час
		msg.NextCheckAt = msg.CheckedAt.Add(60 * time.Minute)
	}

	status := models.FlightStatus(msg.Status)
	if status != "" && !status.Valid() {
		return models.Validationf("unknown flight status %q", msg.Status)
	}

	upd := models.StatusUpdate{
		FlightID:    msg.FlightID,
		CheckedAt:   msg.CheckedAt,
		Status:      status,
		NextCheckAt: msg.NextCheckAt,
		Error:       msg.Error,
	}
	if p := msg.Position; p != nil {
		upd.Position = &models.Position{
			Lat:        p.Lat,
			Lon:        p.Lon,
			AltitudeM:  p.AltitudeM,
			VelocityMS: p.VelocityMS,
			OnGround:   p.OnGround,
			ReportedAt: p.ReportedAt,
		}
	}
	return s.store.ApplyStatusUpdate(ctx, upd)
}
