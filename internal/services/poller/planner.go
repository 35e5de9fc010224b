package poller

import (
	"math/rand"
	"time"

	"github.com/BearBump/FlightBox/internal/models"
)

type Rand interface {
	Intn(n int) int
}

type PlannerConfig struct {
	// Рейс в воздухе: позиция меняется быстро.
	AirborneDelay time.Duration // default: 2 minutes

	// До вылета меньше NearWindow: проверяем часто, с джиттером.
	NearWindow   time.Duration // default: 6 hours
	NearMinDelay time.Duration // default: 5 minutes
	NearMaxDelay time.Duration // default: 15 minutes

	FarDelay time.Duration // default: 60 minutes

	// Через столько после планового прилёта рейс без телеметрии считаем севшим.
	LandedGrace time.Duration // default: 6 hours

	Backoff1 time.Duration // default: 5 minutes
	Backoff2 time.Duration // default: 15 minutes
	Backoff3 time.Duration // default: 30 minutes
	Backoff4 time.Duration // default: 60 minutes
}

func DefaultPlannerConfig() PlannerConfig {
	return PlannerConfig{
		AirborneDelay: 2 * time.Minute,

		NearWindow:   6 * time.Hour,
		NearMinDelay: 5 * time.Minute,
		NearMaxDelay: 15 * time.Minute,

		FarDelay: 60 * time.Minute,

		LandedGrace: 6 * time.Hour,

		Backoff1: 5 * time.Minute,
		Backoff2: 15 * time.Minute,
		Backoff3: 30 * time.Minute,
		Backoff4: 60 * time.Minute,
	}
}

type Planner struct {
	cfg PlannerConfig
	r   Rand
}

func NewPlanner(cfg PlannerConfig, r Rand) *Planner {
	def := DefaultPlannerConfig()
	if cfg.AirborneDelay <= 0 {
		cfg.AirborneDelay = def.AirborneDelay
	}
	if cfg.NearWindow <= 0 {
		cfg.NearWindow = def.NearWindow
	}
	if cfg.NearMinDelay <= 0 {
		cfg.NearMinDelay = def.NearMinDelay
	}
	if cfg.NearMaxDelay <= 0 {
		cfg.NearMaxDelay = def.NearMaxDelay
	}
	if cfg.NearMaxDelay < cfg.NearMinDelay {
		cfg.NearMaxDelay = cfg.NearMinDelay
	}
	if cfg.FarDelay <= 0 {
		cfg.FarDelay = def.FarDelay
	}
	if cfg.LandedGrace <= 0 {
		cfg.LandedGrace = def.LandedGrace
	}
	if cfg.Backoff1 <= 0 {
		cfg.Backoff1 = def.Backoff1
	}
	if cfg.Backoff2 <= 0 {
		cfg.Backoff2 = def.Backoff2
	}
	if cfg.Backoff3 <= 0 {
		cfg.Backoff3 = def.Backoff3
	}
	if cfg.Backoff4 <= 0 {
		cfg.Backoff4 = def.Backoff4
	}
	if r == nil {
		r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Planner{cfg: cfg, r: r}
}

// NextCheckDelay picks the delay until the next status check. Final statuses
// return zero; the store stops polling them anyway.
func (p *Planner) NextCheckDelay(status models.FlightStatus, departure, now time.Time) time.Duration {
	switch {
	case status.Final():
		return 0
	case status == models.FlightStatusAirborne || status == models.FlightStatusDeparted:
		return p.cfg.AirborneDelay
	case departure.IsZero() || departure.Sub(now) <= p.cfg.NearWindow:
		lo, hi := p.cfg.NearMinDelay, p.cfg.NearMaxDelay
		if hi == lo {
			return lo
		}
		secMin := int(lo.Seconds())
		secMax := int(hi.Seconds())
		return time.Duration(secMin+p.r.Intn(secMax-secMin+1)) * time.Second
	default:
		return p.cfg.FarDelay
	}
}

// Settle decides the status to publish from what the tracker saw.
// Without fresh telemetry a flight long past its scheduled arrival is
// considered landed, so it leaves the polling queue.
func (p *Planner) Settle(current, observed models.FlightStatus, pos *models.Position, arrival, now time.Time) models.FlightStatus {
	if observed.Valid() {
		return observed
	}
	if pos != nil && pos.OnGround && (current == models.FlightStatusAirborne || current == models.FlightStatusDeparted) {
		return models.FlightStatusLanded
	}
	if !arrival.IsZero() && now.Sub(arrival) > p.cfg.LandedGrace {
		return models.FlightStatusLanded
	}
	return current
}

func (p *Planner) BackoffDelay(nextFailCount int32) time.Duration {
	switch {
	case nextFailCount <= 1:
		return p.cfg.Backoff1
	case nextFailCount == 2:
		return p.cfg.Backoff2
	case nextFailCount == 3:
		return p.cfg.Backoff3
	default:
		return p.cfg.Backoff4
	}
}
