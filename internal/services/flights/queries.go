package flights

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/BearBump/FlightBox/internal/models"
	"github.com/BearBump/FlightBox/internal/services/achievements"
	"github.com/BearBump/FlightBox/internal/services/aircraft"
)

const (
	defaultPageSize  = 20
	maxPageSize      = 100
	maxLeaderboard   = 100
	defaultBoardSize = 20
)

type StatsView struct {
	models.UserStats
	Level achievements.LevelProgress `json:"level"`
}

type AchievementView struct {
	models.Achievement
	Unlocked   bool       `json:"unlocked"`
	UnlockedAt *time.Time `json:"unlockedAt,omitempty"`
	// Progress is 0..1; family achievements only report 0 or 1.
	Progress float64 `json:"progress"`
}

type AchievementsView struct {
	Achievements []AchievementView       `json:"achievements"`
	Aircraft     []UnlockedAircraftBadge `json:"aircraft"`
}

type UnlockedAircraftBadge struct {
	models.AircraftAchievement
	UnlockedAt time.Time `json:"unlockedAt"`
}

func (s *Service) GetStats(ctx context.Context, userID string) (*StatsView, error) {
	if userID == "" {
		return nil, models.ErrUnauthorized
	}
	key := statsKey(userID)
	if s.cache != nil && s.opts.StatsTTL > 0 {
		if b, ok, err := s.cache.Get(ctx, key); err == nil && ok {
			var v StatsView
			if json.Unmarshal(b, &v) == nil {
				return &v, nil
			}
		}
	}

	st, err := s.store.GetUserStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	v := &StatsView{UserStats: st, Level: achievements.Progress(st.XP)}

	if s.cache != nil && s.opts.StatsTTL > 0 {
		if b, err := json.Marshal(v); err == nil {
			_ = s.cache.Set(ctx, key, b, s.opts.StatsTTL)
		}
	}
	return v, nil
}

// ListAchievements returns the whole catalog with the user's unlock state.
func (s *Service) ListAchievements(ctx context.Context, userID string) (*AchievementsView, error) {
	if userID == "" {
		return nil, models.ErrUnauthorized
	}
	st, err := s.store.GetUserStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	unlocked, err := s.store.ListUnlocked(ctx, userID)
	if err != nil {
		return nil, err
	}
	at := make(map[string]time.Time, len(unlocked))
	for _, u := range unlocked {
		at[u.AchievementID] = u.UnlockedAt
	}

	out := &AchievementsView{Achievements: []AchievementView{}, Aircraft: []UnlockedAircraftBadge{}}
	for _, a := range achievements.Catalog() {
		v := AchievementView{Achievement: a}
		if val, ok := achievements.Value(a.Condition.Type, st); ok && a.Condition.Target > 0 {
			v.Progress = math.Min(val/a.Condition.Target, 1)
		}
		if t, ok := at[a.ID]; ok {
			v.Unlocked, v.UnlockedAt, v.Progress = true, &t, 1
		}
		out.Achievements = append(out.Achievements, v)
	}
	for _, a := range aircraft.FamilyCatalog() {
		v := AchievementView{Achievement: a}
		if t, ok := at[a.ID]; ok {
			v.Unlocked, v.UnlockedAt, v.Progress = true, &t, 1
		}
		out.Achievements = append(out.Achievements, v)
	}
	for id, t := range at {
		if b, ok := aircraft.BadgeByID(id); ok {
			out.Aircraft = append(out.Aircraft, UnlockedAircraftBadge{AircraftAchievement: b, UnlockedAt: t})
		}
	}
	sort.Slice(out.Aircraft, func(i, j int) bool {
		if !out.Aircraft[i].UnlockedAt.Equal(out.Aircraft[j].UnlockedAt) {
			return out.Aircraft[i].UnlockedAt.Before(out.Aircraft[j].UnlockedAt)
		}
		return out.Aircraft[i].ID < out.Aircraft[j].ID
	})
	return out, nil
}

func (s *Service) ListFlights(ctx context.Context, userID string, limit, offset int) ([]models.FlightRecord, error) {
	if userID == "" {
		return nil, models.ErrUnauthorized
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.ListFlights(ctx, userID, limit, offset)
}

func (s *Service) GetFlight(ctx context.Context, id string) (*models.FlightRecord, error) {
	if id == "" {
		return nil, models.Validationf("flight id is required")
	}
	return s.store.GetFlight(ctx, id)
}

// LookupFlight resolves a flight without logging it.
func (s *Service) LookupFlight(ctx context.Context, flightNumber, date string) (*models.NormalizedFlight, error) {
	return s.resolver.Resolve(ctx, flightNumber, date)
}

// Like and Unlike are idempotent; both return the server-side like count.
func (s *Service) Like(ctx context.Context, flightID, userID string) (int, error) {
	return s.setLike(ctx, flightID, userID, true)
}

func (s *Service) Unlike(ctx context.Context, flightID, userID string) (int, error) {
	return s.setLike(ctx, flightID, userID, false)
}

func (s *Service) setLike(ctx context.Context, flightID, userID string, liked bool) (int, error) {
	if userID == "" {
		return 0, models.ErrUnauthorized
	}
	if flightID == "" {
		return 0, models.Validationf("flight id is required")
	}
	return s.store.SetLike(ctx, flightID, userID, liked)
}

func (s *Service) Leaderboard(ctx context.Context, metric models.LeaderboardMetric, limit int) ([]models.LeaderboardEntry, error) {
	if metric == "" {
		metric = models.LeaderboardXP
	}
	if !metric.Valid() {
		return nil, models.Validationf("invalid metric %q: expected xp, flights or distance", metric)
	}
	if limit <= 0 {
		limit = defaultBoardSize
	}
	if limit > maxLeaderboard {
		limit = maxLeaderboard
	}

	key := fmt.Sprintf("leaderboard:%s:%d", metric, limit)
	if s.cache != nil && s.opts.LeaderboardTTL > 0 {
		if b, ok, err := s.cache.Get(ctx, key); err == nil && ok {
			var out []models.LeaderboardEntry
			if json.Unmarshal(b, &out) == nil {
				return out, nil
			}
		}
	}

	out, err := s.store.Leaderboard(ctx, metric, limit)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Rank = i + 1
		out[i].Level = achievements.Level(out[i].XP)
	}
	if out == nil {
		out = []models.LeaderboardEntry{}
	}

	if s.cache != nil && s.opts.LeaderboardTTL > 0 {
		if b, err := json.Marshal(out); err == nil {
			_ = s.cache.Set(ctx, key, b, s.opts.LeaderboardTTL)
		}
	}
	return out, nil
}

func (s *Service) invalidateStats(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Delete(context.WithoutCancel(ctx), statsKey(userID))
}

func statsKey(userID string) string {
	return fmt.Sprintf("stats:%s", userID)
}
