// Package resolver turns a flight number into a NormalizedFlight by walking
// the live sources in priority order and falling back to the synthetic one.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/BearBump/FlightBox/internal/cache"
	"github.com/BearBump/FlightBox/internal/integrations/flightsource"
	"github.com/BearBump/FlightBox/internal/models"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/singleflight"
)

type Config struct {
	PerSourceTimeout time.Duration // default: 3s
	LiveBudget       time.Duration // default: 8s
	CacheTTL         time.Duration // default: 30m
	// Per source, per minute. 0 disables the limiter.
	RateLimitPerMinute int64
}

func DefaultConfig() Config {
	return Config{
		PerSourceTimeout:   3 * time.Second,
		LiveBudget:         8 * time.Second,
		CacheTTL:           30 * time.Minute,
		RateLimitPerMinute: 60,
	}
}

type Resolver struct {
	live     []flightsource.Source
	fallback flightsource.Source
	cache    cache.BytesCache
	rl       cache.RateLimiter
	cfg      Config

	group singleflight.Group
	now   func() time.Time
}

// New builds a resolver. live is tried in order; fallback runs last, outside
// the live budget. cache and rl may be nil.
func New(live []flightsource.Source, fallback flightsource.Source, c cache.BytesCache, rl cache.RateLimiter, cfg Config) *Resolver {
	def := DefaultConfig()
	if cfg.PerSourceTimeout <= 0 {
		cfg.PerSourceTimeout = def.PerSourceTimeout
	}
	if cfg.LiveBudget <= 0 {
		cfg.LiveBudget = def.LiveBudget
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = def.CacheTTL
	}
	return &Resolver{
		live:     live,
		fallback: fallback,
		cache:    c,
		rl:       rl,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Resolve validates input before any source is touched. A flight nobody knows
// comes back as *models.NotFoundError (errors.Is ErrFlightNotFound).
func (r *Resolver) Resolve(ctx context.Context, flightNumber, date string) (*models.NormalizedFlight, error) {
	fn := flightsource.NormalizeFlightNumber(flightNumber)
	if !flightsource.ValidFlightNumber(fn) {
		return nil, models.Validationf("invalid flight number %q: expected airline code and digits, e.g. QP1457", flightNumber)
	}
	if date != "" {
		if _, err := time.Parse(time.DateOnly, date); err != nil {
			return nil, models.Validationf("invalid date %q: expected YYYY-MM-DD", date)
		}
	}

	key := cacheKey(fn, date)
	if f, ok := r.fromCache(ctx, key); ok {
		return f, nil
	}

	ch := r.group.DoChan(key, func() (any, error) {
		// Результат общий для всех ждущих, поэтому не зависим от отмены первого запроса.
		f, err := r.resolve(context.WithoutCancel(ctx), fn, date)
		if err != nil {
			return nil, err
		}
		r.toCache(ctx, key, f)
		return f, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		f := *res.Val.(*models.NormalizedFlight)
		return &f, nil
	}
}

func (r *Resolver) resolve(ctx context.Context, fn, date string) (*models.NormalizedFlight, error) {
	liveCtx, cancel := context.WithTimeout(ctx, r.cfg.LiveBudget)
	defer cancel()

	var (
		winner    *models.NormalizedFlight
		telemetry []*flightsource.PartialFlight
	)
	for _, src := range r.live {
		if liveCtx.Err() != nil {
			slog.Warn("live budget exhausted", "flight", fn)
			break
		}
		if !r.allow(liveCtx, src.Name()) {
			continue
		}

		p, err := r.attempt(liveCtx, src, fn, date)
		if err != nil {
			logSourceError(src.Name(), fn, err)
			continue
		}
		if f, ok := Normalize(p); ok {
			f.FlightNumber = fn
			winner = f
			break
		}
		if p.Position != nil || p.Status.Valid() {
			telemetry = append(telemetry, p)
		}
	}

	if winner == nil && r.fallback != nil {
		p, err := r.fallback.Lookup(ctx, fn, date)
		if err != nil {
			logSourceError(r.fallback.Name(), fn, err)
		} else if f, ok := Normalize(p); ok {
			f.FlightNumber = fn
			winner = f
		}
	}
	if winner == nil {
		return nil, &models.NotFoundError{FlightNumber: fn, Date: date}
	}

	mergeTelemetry(winner, telemetry)
	slog.Debug("flight resolved", "flight", fn, "date", date, "source", winner.Source)
	return winner, nil
}

// attempt runs one source under its own timeout; transient failures get one retry.
func (r *Resolver) attempt(ctx context.Context, src flightsource.Source, fn, date string) (*flightsource.PartialFlight, error) {
	var lastErr error
	for i := 0; i < 2; i++ {
		if i > 0 && ctx.Err() != nil {
			break
		}
		p, err := r.lookupOnce(ctx, src, fn, date)
		if err == nil {
			return p, nil
		}
		lastErr = err
		if !flightsource.IsTransient(err) && !errors.Is(err, context.DeadlineExceeded) {
			break
		}
	}
	return nil, lastErr
}

func (r *Resolver) lookupOnce(ctx context.Context, src flightsource.Source, fn, date string) (p *flightsource.PartialFlight, err error) {
	sctx, cancel := context.WithTimeout(ctx, r.cfg.PerSourceTimeout)
	defer cancel()

	// Один источник не должен ронять всю цепочку.
	defer func() {
		if rec := recover(); rec != nil {
			p, err = nil, errors.Errorf("source %s panicked: %v", src.Name(), rec)
		}
	}()

	p, err = src.Lookup(sctx, fn, date)
	if err == nil && p == nil {
		err = flightsource.ErrNotFound
	}
	if err == nil && p.Source == "" {
		p.Source = src.Name()
	}
	if p != nil && p.FlightNumber == "" {
		p.FlightNumber = fn
	}
	return p, err
}

func (r *Resolver) allow(ctx context.Context, name models.Source) bool {
	if r.rl == nil || r.cfg.RateLimitPerMinute <= 0 {
		return true
	}
	key := fmt.Sprintf("rl:source:%s:%s", name, r.now().UTC().Format("200601021504"))
	allowed, n, err := r.rl.Allow(ctx, key, r.cfg.RateLimitPerMinute, 70*time.Second)
	if err != nil {
		// Без Redis всё равно пробуем источник.
		slog.Warn("source rate limiter", "source", name, "error", err.Error())
		return true
	}
	if !allowed {
		slog.Warn("source rate limit exceeded", "source", name, "count", n)
	}
	return allowed
}

// mergeTelemetry copies live position/status from tracking-only partials.
func mergeTelemetry(f *models.NormalizedFlight, telemetry []*flightsource.PartialFlight) {
	for _, t := range telemetry {
		if t.Position != nil && f.Status.Position == nil {
			pos := *t.Position
			f.Status.Position = &pos
		}
		if t.Status.Valid() && f.Status.Current == models.FlightStatusScheduled {
			f.Status.Current = t.Status
		}
	}
}

func logSourceError(name models.Source, fn string, err error) {
	switch {
	case errors.Is(err, flightsource.ErrNotConfigured):
	case errors.Is(err, flightsource.ErrNotFound):
		slog.Debug("source has no data", "source", name, "flight", fn)
	default:
		slog.Warn("source lookup failed", "source", name, "flight", fn, "error", err.Error())
	}
}

func (r *Resolver) fromCache(ctx context.Context, key string) (*models.NormalizedFlight, bool) {
	if r.cache == nil {
		return nil, false
	}
	b, ok, err := r.cache.Get(ctx, key)
	if err != nil || !ok {
		return nil, false
	}
	var f models.NormalizedFlight
	if err := msgpack.Unmarshal(b, &f); err != nil {
		slog.Warn("bad flight cache entry", "key", key, "error", err.Error())
		return nil, false
	}
	f.Schedule.Departure = utc(f.Schedule.Departure)
	f.Schedule.Arrival = utc(f.Schedule.Arrival)
	return &f, true
}

func (r *Resolver) toCache(ctx context.Context, key string, f *models.NormalizedFlight) {
	if r.cache == nil {
		return
	}
	b, err := msgpack.Marshal(f)
	if err != nil {
		return
	}
	_ = r.cache.Set(context.WithoutCancel(ctx), key, b, r.cfg.CacheTTL)
}

// msgpack decodes timestamps in the local zone.
func utc(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	return t.UTC()
}

func cacheKey(fn, date string) string {
	return fmt.Sprintf("flight:%s:%s", fn, date)
}
