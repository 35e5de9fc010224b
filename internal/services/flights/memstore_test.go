package flights

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/BearBump/FlightBox/internal/models"
	"github.com/BearBump/FlightBox/internal/services/stats"
	"github.com/BearBump/FlightBox/internal/storage"
)

// memStore serializes transactions per user and commits staged writes only
// when fn succeeds.
type memStore struct {
	mu        sync.Mutex
	userLocks map[string]*sync.Mutex

	stats    map[string]models.UserStats
	unlocked map[string]map[string]time.Time
	flights  map[string]models.FlightRecord
	likes    map[string]map[string]struct{}
	updates  []models.StatusUpdate

	// conflicts is the number of upcoming transactions that fail with ErrConflict.
	conflicts int
	failSave  error
	txCalls   int
}

func newMemStore() *memStore {
	return &memStore{
		userLocks: map[string]*sync.Mutex{},
		stats:     map[string]models.UserStats{},
		unlocked:  map[string]map[string]time.Time{},
		flights:   map[string]models.FlightRecord{},
		likes:     map[string]map[string]struct{}{},
	}
}

func (m *memStore) lockUser(userID string) func() {
	m.mu.Lock()
	l, ok := m.userLocks[userID]
	if !ok {
		l = &sync.Mutex{}
		m.userLocks[userID] = l
	}
	m.mu.Unlock()
	l.Lock()
	return l.Unlock
}

func (m *memStore) InUserTx(ctx context.Context, userID string, fn storage.UserTxFunc) error {
	unlock := m.lockUser(userID)
	defer unlock()

	m.mu.Lock()
	m.txCalls++
	if m.conflicts > 0 {
		m.conflicts--
		m.mu.Unlock()
		return models.ErrConflict
	}
	tx := &memTx{store: m, userID: userID, deleted: map[string]struct{}{}, failSave: m.failSave}
	if st, ok := m.stats[userID]; ok {
		tx.stats = st.Clone()
	} else {
		tx.stats = stats.New()
	}
	tx.unlocked = map[string]struct{}{}
	for id := range m.unlocked[userID] {
		tx.unlocked[id] = struct{}{}
	}
	m.mu.Unlock()

	if err := fn(ctx, tx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if tx.saved {
		m.stats[userID] = tx.stats
	}
	if m.unlocked[userID] == nil {
		m.unlocked[userID] = map[string]time.Time{}
	}
	for _, u := range tx.unlocks {
		if _, ok := m.unlocked[userID][u.AchievementID]; !ok {
			m.unlocked[userID][u.AchievementID] = u.UnlockedAt
		}
	}
	for _, r := range tx.inserted {
		m.flights[r.ID] = r
	}
	for id := range tx.deleted {
		delete(m.flights, id)
	}
	return nil
}

func (m *memStore) GetUserStats(ctx context.Context, userID string) (models.UserStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok := m.stats[userID]; ok {
		return st.Clone(), nil
	}
	return stats.New(), nil
}

func (m *memStore) ListUnlocked(ctx context.Context, userID string) ([]models.UnlockedAchievement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.UnlockedAchievement
	for id, at := range m.unlocked[userID] {
		out = append(out, models.UnlockedAchievement{AchievementID: id, UnlockedAt: at})
	}
	return out, nil
}

func (m *memStore) userFlights(userID string) []models.FlightRecord {
	var out []models.FlightRecord
	for _, r := range m.flights {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *memStore) ListFlights(ctx context.Context, userID string, limit, offset int) ([]models.FlightRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.userFlights(userID)
	if offset >= len(all) {
		return []models.FlightRecord{}, nil
	}
	end := min(offset+limit, len(all))
	return all[offset:end], nil
}

func (m *memStore) GetFlight(ctx context.Context, id string) (*models.FlightRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.flights[id]
	if !ok {
		return nil, models.ErrRecordNotFound
	}
	return &r, nil
}

func (m *memStore) SetLike(ctx context.Context, flightID, userID string, liked bool) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.flights[flightID]
	if !ok {
		return 0, models.ErrRecordNotFound
	}
	if m.likes[flightID] == nil {
		m.likes[flightID] = map[string]struct{}{}
	}
	if liked {
		m.likes[flightID][userID] = struct{}{}
	} else {
		delete(m.likes[flightID], userID)
	}
	r.Likes = len(m.likes[flightID])
	m.flights[flightID] = r
	return r.Likes, nil
}

func (m *memStore) Leaderboard(ctx context.Context, metric models.LeaderboardMetric, limit int) ([]models.LeaderboardEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.LeaderboardEntry
	for id, st := range m.stats {
		out = append(out, models.LeaderboardEntry{UserID: id, XP: st.XP, Flights: st.Flights, MilesKm: st.MilesKm})
	}
	value := func(e models.LeaderboardEntry) int {
		switch metric {
		case models.LeaderboardFlights:
			return e.Flights
		case models.LeaderboardDistance:
			return e.MilesKm
		}
		return e.XP
	}
	sort.Slice(out, func(i, j int) bool {
		if value(out[i]) != value(out[j]) {
			return value(out[i]) > value(out[j])
		}
		return out[i].UserID < out[j].UserID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) ApplyStatusUpdate(ctx context.Context, upd models.StatusUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates = append(m.updates, upd)
	return nil
}

type memTx struct {
	store  *memStore
	userID string

	stats    models.UserStats
	saved    bool
	unlocked map[string]struct{}
	unlocks  []models.UnlockedAchievement
	inserted []models.FlightRecord
	deleted  map[string]struct{}

	failSave error
}

func (t *memTx) GetStats(ctx context.Context) (models.UserStats, error) {
	return t.stats.Clone(), nil
}

func (t *memTx) SaveStats(ctx context.Context, s models.UserStats) error {
	if t.failSave != nil {
		return t.failSave
	}
	t.stats, t.saved = s.Clone(), true
	return nil
}

func (t *memTx) UnlockedAchievements(ctx context.Context) (map[string]struct{}, error) {
	out := make(map[string]struct{}, len(t.unlocked))
	for k := range t.unlocked {
		out[k] = struct{}{}
	}
	return out, nil
}

func (t *memTx) UnlockAchievements(ctx context.Context, items []models.UnlockedAchievement) error {
	t.unlocks = append(t.unlocks, items...)
	return nil
}

func (t *memTx) InsertFlight(ctx context.Context, rec *models.FlightRecord) error {
	t.inserted = append(t.inserted, *rec)
	return nil
}

func (t *memTx) DeleteFlight(ctx context.Context, flightID string) (bool, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	r, ok := t.store.flights[flightID]
	if !ok || r.UserID != t.userID {
		return false, nil
	}
	t.deleted[flightID] = struct{}{}
	return true, nil
}

func (t *memTx) ListAllFlights(ctx context.Context) ([]models.FlightRecord, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	var out []models.FlightRecord
	for _, r := range t.store.userFlights(t.userID) {
		if _, gone := t.deleted[r.ID]; !gone {
			out = append(out, r)
		}
	}
	return out, nil
}
