// Package poller refreshes the live status of logged flights. It claims
// flights that are due, asks the network tracker and publishes the result;
// the API side applies it to the stored record.
package poller

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/BearBump/FlightBox/internal/broker/messages"
	"github.com/BearBump/FlightBox/internal/integrations/flightsource"
	"github.com/BearBump/FlightBox/internal/models"
	"github.com/pkg/errors"
)

type Repository interface {
	ClaimDueStatusChecks(ctx context.Context, now time.Time, limit int, lease time.Duration) ([]models.FlightRecord, error)
}

type Tracker interface {
	Name() models.Source
	Lookup(ctx context.Context, flightNumber, date string) (*flightsource.PartialFlight, error)
}

type Producer interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error)
}

type Poller struct {
	repo     Repository
	tracker  Tracker
	producer Producer
	rl       RateLimiter

	topic string

	planner *Planner
	now     func() time.Time

	pollInterval       time.Duration
	batchSize          int
	concurrency        int
	lease              time.Duration
	rateLimitPerMinute int64
	publishAttempts    int

	triggerCh chan struct{}

	startedAtUnixNano   int64
	lastCycleUnixNano   atomic.Int64
	lastTriggerUnixNano atomic.Int64
	totalClaimed        atomic.Int64
	totalProcessed      atomic.Int64
	totalErrors         atomic.Int64
	totalLanded         atomic.Int64
	inFlight            atomic.Int64
	lastErrorMu         sync.Mutex
	lastError           string
}

func New(repo Repository, tracker Tracker, producer Producer, rl RateLimiter, topic string) *Poller {
	if topic == "" {
		topic = messages.TopicFlightStatusUpdated
	}
	return &Poller{
		repo: repo, tracker: tracker, producer: producer, rl: rl, topic: topic,
		planner:            DefaultPlanner(),
		now:                func() time.Time { return time.Now().UTC() },
		pollInterval:       10 * time.Second,
		batchSize:          100,
		concurrency:        10,
		lease:              120 * time.Second,
		rateLimitPerMinute: 60,
		publishAttempts:    10,
		triggerCh:          make(chan struct{}, 1),
		startedAtUnixNano:  time.Now().UTC().UnixNano(),
	}
}

func DefaultPlanner() *Planner {
	return NewPlanner(DefaultPlannerConfig(), nil)
}

func (p *Poller) WithSettings(pollInterval time.Duration, batchSize, concurrency int, lease time.Duration, rlPerMin int64) *Poller {
	if pollInterval > 0 {
		p.pollInterval = pollInterval
	}
	if batchSize > 0 {
		p.batchSize = batchSize
	}
	if concurrency > 0 {
		p.concurrency = concurrency
	}
	if lease > 0 {
		p.lease = lease
	}
	if rlPerMin > 0 {
		p.rateLimitPerMinute = rlPerMin
	}
	return p
}

func (p *Poller) WithPlanner(cfg PlannerConfig) *Poller {
	p.planner = NewPlanner(cfg, nil)
	return p
}

// Trigger forces an immediate poll cycle (best-effort, non-blocking).
func (p *Poller) Trigger() {
	p.lastTriggerUnixNano.Store(time.Now().UTC().UnixNano())
	select {
	case p.triggerCh <- struct{}{}:
	default:
	}
}

type Stats struct {
	StartedAt      time.Time  `json:"startedAt"`
	LastCycleAt    *time.Time `json:"lastCycleAt,omitempty"`
	LastTriggerAt  *time.Time `json:"lastTriggerAt,omitempty"`
	TotalClaimed   int64      `json:"totalClaimed"`
	TotalProcessed int64      `json:"totalProcessed"`
	TotalErrors    int64      `json:"totalErrors"`
	TotalLanded    int64      `json:"totalLanded"`
	InFlight       int64      `json:"inFlight"`
	LastError      string     `json:"lastError,omitempty"`
}

func (p *Poller) Stats() Stats {
	st := Stats{
		StartedAt:      time.Unix(0, p.startedAtUnixNano).UTC(),
		TotalClaimed:   p.totalClaimed.Load(),
		TotalProcessed: p.totalProcessed.Load(),
		TotalErrors:    p.totalErrors.Load(),
		TotalLanded:    p.totalLanded.Load(),
		InFlight:       p.inFlight.Load(),
	}
	if n := p.lastCycleUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastCycleAt = &t
	}
	if n := p.lastTriggerUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastTriggerAt = &t
	}
	p.lastErrorMu.Lock()
	st.LastError = p.lastError
	p.lastErrorMu.Unlock()
	return st
}

func (p *Poller) Run(ctx context.Context) error {
	t := time.NewTicker(p.pollInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			p.runOnce(ctx)
		case <-p.triggerCh:
			p.runOnce(ctx)
		}
	}
}

func (p *Poller) setLastError(err error) {
	p.lastErrorMu.Lock()
	p.lastError = err.Error()
	p.lastErrorMu.Unlock()
}

func (p *Poller) runOnce(ctx context.Context) {
	now := p.now()
	p.lastCycleUnixNano.Store(now.UnixNano())

	items, err := p.repo.ClaimDueStatusChecks(ctx, now, p.batchSize, p.lease)
	if err != nil {
		slog.Error("claim due status checks", "error", err.Error())
		p.setLastError(err)
		return
	}
	p.totalClaimed.Add(int64(len(items)))

	sem := make(chan struct{}, p.concurrency)
	var wg sync.WaitGroup
	for i := range items {
		rec := &items[i]
		sem <- struct{}{}
		wg.Add(1)
		p.inFlight.Add(1)
		go func() {
			defer func() {
				p.inFlight.Add(-1)
				<-sem
				wg.Done()
			}()
			if err := p.processOne(ctx, rec); err != nil {
				p.totalErrors.Add(1)
				p.setLastError(err)
				slog.Error("process status check", "flight_id", rec.ID, "flight_number", rec.Flight.FlightNumber, "error", err.Error())
			}
			p.totalProcessed.Add(1)
		}()
	}
	wg.Wait()
}

func (p *Poller) processOne(ctx context.Context, rec *models.FlightRecord) error {
	now := p.now()

	if p.rl != nil && p.rateLimitPerMinute > 0 {
		minuteKey := fmt.Sprintf("rl:tracker:%s:%s", p.tracker.Name(), now.Format("200601021504"))
		allowed, n, err := p.rl.Allow(ctx, minuteKey, p.rateLimitPerMinute, 70*time.Second)
		if err != nil {
			return err
		}
		if !allowed {
			// Слишком много запросов в минуту: подождём немного, чтобы разгрузить источник.
			slog.Warn("rate limit exceeded", "tracker", p.tracker.Name(), "count", n)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(500 * time.Millisecond):
			}
		}
	}

	msg := messages.FlightStatusUpdated{
		FlightID:  rec.ID,
		CheckedAt: now,
	}

	current := rec.Flight.Status.Current
	sched := rec.Flight.Schedule
	pf, err := p.tracker.Lookup(ctx, rec.Flight.FlightNumber, rec.FlightDate)
	switch {
	case err != nil && !errors.Is(err, flightsource.ErrNotFound):
		e := err.Error()
		msg.Error = &e
		msg.NextCheckAt = now.Add(p.planner.BackoffDelay(rec.StatusCheckFails + 1))
	default:
		var (
			observed models.FlightStatus
			pos      *models.Position
		)
		if pf != nil {
			observed, pos = pf.Status, pf.Position
		}
		status := p.planner.Settle(current, observed, pos, sched.Arrival, now)
		msg.Status = string(status)
		if pos != nil {
			msg.Position = &messages.Position{
				Lat:        pos.Lat,
				Lon:        pos.Lon,
				AltitudeM:  pos.AltitudeM,
				VelocityMS: pos.VelocityMS,
				OnGround:   pos.OnGround,
				ReportedAt: pos.ReportedAt,
			}
		}
		msg.NextCheckAt = now.Add(p.planner.NextCheckDelay(status, sched.Departure, now))
		if status.Final() {
			p.totalLanded.Add(1)
		}
	}

	b, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "marshal kafka msg")
	}

	key := []byte(rec.ID)
	// Kafka может быть не готова сразу после старта docker compose.
	var pubErr error
	for i := 0; i < p.publishAttempts; i++ {
		if pubErr = p.producer.Publish(ctx, p.topic, key, b); pubErr == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(150*(i+1)) * time.Millisecond):
		}
	}
	return pubErr
}
