package flights

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/BearBump/FlightBox/internal/broker/messages"
	"github.com/BearBump/FlightBox/internal/models"
	"github.com/BearBump/FlightBox/internal/services/achievements"
	"github.com/BearBump/FlightBox/internal/services/aircraft"
	"github.com/BearBump/FlightBox/internal/services/stats"
	"github.com/BearBump/FlightBox/internal/storage"
	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
)

const (
	maxPhotos       = 20
	maxReviewLength = 5000
)

type LogFlightInput struct {
	FlightNumber string            `json:"flightNumber"`
	Date         string            `json:"date,omitempty"`
	CabinClass   models.CabinClass `json:"cabinClass"`
	Photos       []models.Photo    `json:"photos,omitempty"`
	ReviewText   string            `json:"reviewText,omitempty"`
	TimeOfDay    models.TimeOfDay  `json:"timeOfDay,omitempty"`
}

type LogFlightResult struct {
	Flight          models.NormalizedFlight     `json:"flight"`
	Record          models.FlightRecord         `json:"record"`
	Stats           models.UserStats            `json:"stats"`
	XPAwarded       int                         `json:"xpAwarded"`
	XPBreakdown     XPBreakdown                 `json:"xpBreakdown"`
	NewAchievements []models.Achievement        `json:"newAchievements"`
	AircraftBadge   *models.AircraftAchievement `json:"aircraftBadge,omitempty"`
	Level           int                         `json:"level"`
	LeveledUp       bool                        `json:"leveledUp"`
}

// LogFlight resolves and scores a flight and commits it together with the
// stats and achievement changes. Resolution failures come back as
// validation/not-found errors; anything the store could not commit comes back
// as models.ErrFatalPersistence.
func (s *Service) LogFlight(ctx context.Context, userID string, in LogFlightInput) (*LogFlightResult, error) {
	if userID == "" {
		return nil, models.ErrUnauthorized
	}
	if err := normalizeInput(&in); err != nil {
		return nil, err
	}

	flight, err := s.resolver.Resolve(ctx, in.FlightNumber, in.Date)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	rec := s.newRecord(userID, *flight, in, now)
	var res *LogFlightResult
	err = s.inUserTx(ctx, userID, func(ctx context.Context, tx storage.UserTx) error {
		r, err := s.logInTx(ctx, tx, rec, in, now)
		if err != nil {
			return err
		}
		res = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("flight logged",
		"user", userID, "flight", res.Flight.FlightNumber, "source", res.Flight.Source,
		"xp", res.XPAwarded, "achievements", len(res.NewAchievements), "level", res.Level)

	s.invalidateStats(ctx, userID)
	s.publishLogged(ctx, res)
	return res, nil
}

func (s *Service) logInTx(ctx context.Context, tx storage.UserTx, rec models.FlightRecord, in LogFlightInput, now time.Time) (*LogFlightResult, error) {
	cur, err := tx.GetStats(ctx)
	if err != nil {
		return nil, err
	}
	unlocked, err := tx.UnlockedAchievements(ctx)
	if err != nil {
		return nil, err
	}

	breakdown := Score(rec.Flight, rec.CabinClass, uploadedPhotos(rec.Photos, s.opts.PhotoBaseURL), rec.ReviewText, cur.Airports)
	next := stats.Merge(cur, rec.Flight, stats.InputFor(rec))

	// Достижения проверяем по снимку после слияния.
	var (
		newAch  []models.Achievement
		unlocks []models.UnlockedAchievement
		badge   *models.AircraftAchievement
	)
	newAch = append(newAch, achievements.Check(next, unlocked)...)
	newAch = append(newAch, aircraft.FamilyAchievements(next.AircraftTypes, unlocked)...)
	for _, a := range newAch {
		breakdown.Achievements += a.XP
		unlocks = append(unlocks, models.UnlockedAchievement{AchievementID: a.ID, UnlockedAt: now})
	}
	// без типа это "Aircraft Explorer"
	b := aircraft.Match(rec.Flight.Aircraft.Type)
	if _, ok := unlocked[b.ID]; !ok {
		badge = &b
		unlocks = append(unlocks, models.UnlockedAchievement{AchievementID: b.ID, UnlockedAt: now})
	}

	rec.XPAwarded = breakdown.Total()
	next.XP = cur.XP + rec.XPAwarded

	if err := tx.InsertFlight(ctx, &rec); err != nil {
		return nil, err
	}
	if len(unlocks) > 0 {
		if err := tx.UnlockAchievements(ctx, unlocks); err != nil {
			return nil, err
		}
	}
	if err := tx.SaveStats(ctx, next); err != nil {
		return nil, err
	}

	if newAch == nil {
		newAch = []models.Achievement{}
	}
	level := achievements.Level(next.XP)
	return &LogFlightResult{
		Flight:          rec.Flight,
		Record:          rec,
		Stats:           next,
		XPAwarded:       rec.XPAwarded,
		XPBreakdown:     breakdown,
		NewAchievements: newAch,
		AircraftBadge:   badge,
		Level:           level,
		LeveledUp:       level > achievements.Level(cur.XP),
	}, nil
}

func normalizeInput(in *LogFlightInput) error {
	in.FlightNumber = strings.TrimSpace(in.FlightNumber)
	in.Date = strings.TrimSpace(in.Date)
	if in.CabinClass == "" {
		in.CabinClass = models.CabinEconomy
	}
	in.CabinClass = models.CabinClass(strings.ToLower(string(in.CabinClass)))
	if !in.CabinClass.Valid() {
		return models.Validationf("invalid cabinClass %q: expected economy, premium, business or first", in.CabinClass)
	}
	if in.TimeOfDay != "" && !in.TimeOfDay.Valid() {
		return models.Validationf("invalid timeOfDay %q: expected day or night", in.TimeOfDay)
	}
	if len(in.Photos) > maxPhotos {
		return models.Validationf("too many photos (max %d)", maxPhotos)
	}
	for _, p := range in.Photos {
		if strings.TrimSpace(p.URL) == "" {
			return models.Validationf("photo url is required")
		}
	}
	if utf8.RuneCountInString(in.ReviewText) > maxReviewLength {
		return models.Validationf("reviewText is too long (max %d characters)", maxReviewLength)
	}
	return nil
}

func (s *Service) newRecord(userID string, f models.NormalizedFlight, in LogFlightInput, now time.Time) models.FlightRecord {
	rec := models.FlightRecord{
		ID:         s.newID(),
		UserID:     userID,
		FlightDate: in.Date,
		Flight:     f,
		CabinClass: in.CabinClass,
		TimeOfDay:  in.TimeOfDay,
		IsDomestic: stats.IsDomestic(f),
		Photos:     in.Photos,
		ReviewText: strings.TrimSpace(in.ReviewText),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if rec.Photos == nil {
		rec.Photos = []models.Photo{}
	}
	dep := f.Schedule.Departure
	if rec.FlightDate == "" && !dep.IsZero() {
		rec.FlightDate = dep.Format(time.DateOnly)
	}
	// Время вылета синтетического рейса выдуманное, день/ночь по нему не считаем.
	if rec.TimeOfDay == "" && f.Source != models.SourceSynthetic && !dep.IsZero() {
		rec.TimeOfDay = stats.TimeOfDay(dep)
	}
	if !f.Status.Current.Final() && (dep.IsZero() || dep.After(now.Add(-24*time.Hour))) {
		next := now.Add(s.opts.StatusCheckLag)
		rec.NextStatusCheckAt = &next
	}
	return rec
}

// DeleteFlight removes a flight and rebuilds the user's stats from the
// flights that remain. Earned XP and unlocked achievements are kept.
func (s *Service) DeleteFlight(ctx context.Context, userID, flightID string) error {
	if userID == "" {
		return models.ErrUnauthorized
	}
	if flightID == "" {
		return models.Validationf("flight id is required")
	}
	err := s.inUserTx(ctx, userID, func(ctx context.Context, tx storage.UserTx) error {
		cur, err := tx.GetStats(ctx)
		if err != nil {
			return err
		}
		ok, err := tx.DeleteFlight(ctx, flightID)
		if err != nil {
			return err
		}
		if !ok {
			return models.ErrRecordNotFound
		}
		rest, err := tx.ListAllFlights(ctx)
		if err != nil {
			return err
		}
		next := stats.Recompute(rest)
		next.XP = cur.XP
		return tx.SaveStats(ctx, next)
	})
	if err != nil {
		return err
	}
	slog.Info("flight deleted", "user", userID, "flight_id", flightID)
	s.invalidateStats(ctx, userID)
	return nil
}

// inUserTx retries store conflicts with exponential backoff. Domain errors
// returned by fn pass through untouched.
func (s *Service) inUserTx(ctx context.Context, userID string, fn storage.UserTxFunc) error {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = s.opts.RetryInitial
	eb.MaxInterval = s.opts.RetryMax
	eb.MaxElapsedTime = 0
	b := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(s.opts.MaxTxAttempts-1)), ctx)

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		err := s.store.InUserTx(ctx, userID, fn)
		if err == nil {
			return nil
		}
		if errors.Is(err, models.ErrConflict) {
			slog.Warn("user transaction conflict", "user", userID, "attempt", attempt)
			return err
		}
		return backoff.Permanent(err)
	}, b)
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, models.ErrValidation),
		errors.Is(err, models.ErrRecordNotFound),
		errors.Is(err, models.ErrForbidden),
		errors.Is(err, context.Canceled):
		return err
	}
	slog.Error("user transaction failed", "user", userID, "attempts", attempt, "error", err.Error())
	return errors.Wrap(models.ErrFatalPersistence, err.Error())
}

func (s *Service) publishLogged(ctx context.Context, res *LogFlightResult) {
	if s.producer == nil {
		return
	}
	f, rec := res.Flight, res.Record
	msg := messages.FlightLogged{
		FlightID:     rec.ID,
		UserID:       rec.UserID,
		FlightNumber: f.FlightNumber,
		FlightDate:   rec.FlightDate,
		Airline:      f.Airline.Code,
		Aircraft:     f.Aircraft.Type,
		Departure:    f.Route.Departure.IATA,
		Arrival:      f.Route.Arrival.IATA,
		DistanceKm:   f.Route.DistanceKm,
		CabinClass:   string(rec.CabinClass),
		Source:       string(f.Source),
		XPAwarded:    res.XPAwarded,
		LoggedAt:     rec.CreatedAt,
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return
	}
	// Коммит уже случился, аналитика может и подождать.
	if err := s.producer.Publish(context.WithoutCancel(ctx), s.opts.LoggedTopic, []byte(rec.UserID), b); err != nil {
		slog.Warn("publish flight.logged", "flight_id", rec.ID, "error", err.Error())
	}
}
