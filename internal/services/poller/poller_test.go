package poller

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/BearBump/FlightBox/internal/broker/messages"
	"github.com/BearBump/FlightBox/internal/integrations/flightsource"
	"github.com/BearBump/FlightBox/internal/models"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 11, 8, 30, 0, 0, time.UTC)

type fakeProducer struct {
	mu    sync.Mutex
	topic string
	key   []byte
	value []byte
	calls int
	errs  []error
}

func (p *fakeProducer) Publish(ctx context.Context, topic string, key, value []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.topic, p.key, p.value = topic, key, value
	if len(p.errs) > 0 {
		err := p.errs[0]
		p.errs = p.errs[1:]
		return err
	}
	return nil
}

func (p *fakeProducer) decode(t *testing.T) messages.FlightStatusUpdated {
	t.Helper()
	var m messages.FlightStatusUpdated
	require.NoError(t, json.Unmarshal(p.value, &m))
	return m
}

type fakeRL struct {
	allowed bool
	count   int64
	err     error
	key     string
}

func (r *fakeRL) Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error) {
	r.key = key
	return r.allowed, r.count, r.err
}

type fakeTracker struct {
	mu  sync.Mutex
	pf  *flightsource.PartialFlight
	err error

	gotNumber, gotDate string
}

func (f *fakeTracker) Name() models.Source { return models.SourceNetworkTracking }

func (f *fakeTracker) Lookup(ctx context.Context, flightNumber, date string) (*flightsource.PartialFlight, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gotNumber, f.gotDate = flightNumber, date
	return f.pf, f.err
}

func newTestPoller(tr Tracker, fp Producer, rl RateLimiter) *Poller {
	p := New(nil, tr, fp, rl, "")
	p.now = func() time.Time { return testNow }
	p.planner = NewPlanner(PlannerConfig{NearMinDelay: 10 * time.Minute, NearMaxDelay: 10 * time.Minute}, nil)
	return p
}

func scheduled(dep time.Time) *models.FlightRecord {
	return &models.FlightRecord{
		ID:         "f1",
		UserID:     "u1",
		FlightDate: "2025-06-11",
		Flight: models.NormalizedFlight{
			FlightNumber: "QP1457",
			Schedule:     models.Schedule{Departure: dep, Arrival: dep.Add(75 * time.Minute)},
			Status:       models.Status{Current: models.FlightStatusScheduled},
		},
	}
}

func TestPoller_processOne_airbornePublishes(t *testing.T) {
	fp := &fakeProducer{}
	rl := &fakeRL{allowed: true}
	tr := &fakeTracker{pf: &flightsource.PartialFlight{
		Status:   models.FlightStatusAirborne,
		Position: &models.Position{Lat: 15.1, Lon: 75.2, AltitudeM: 11000, ReportedAt: testNow},
	}}
	p := newTestPoller(tr, fp, rl)

	require.NoError(t, p.processOne(context.Background(), scheduled(testNow.Add(-30*time.Minute))))
	require.Equal(t, "QP1457", tr.gotNumber)
	require.Equal(t, "2025-06-11", tr.gotDate)
	require.Equal(t, "rl:tracker:network-tracking:202506110830", rl.key)

	require.Equal(t, 1, fp.calls)
	require.Equal(t, messages.TopicFlightStatusUpdated, fp.topic)
	require.Equal(t, []byte("f1"), fp.key)

	msg := fp.decode(t)
	require.Equal(t, "airborne", msg.Status)
	require.NotNil(t, msg.Position)
	require.Equal(t, 15.1, msg.Position.Lat)
	require.Equal(t, testNow.Add(2*time.Minute), msg.NextCheckAt)
	require.Nil(t, msg.Error)
}

func TestPoller_processOne_notFoundKeepsStatus(t *testing.T) {
	fp := &fakeProducer{}
	p := newTestPoller(&fakeTracker{err: flightsource.ErrNotFound}, fp, nil)

	require.NoError(t, p.processOne(context.Background(), scheduled(testNow.Add(3*time.Hour))))
	msg := fp.decode(t)
	require.Equal(t, "scheduled", msg.Status)
	require.Nil(t, msg.Error)
	require.Equal(t, testNow.Add(10*time.Minute), msg.NextCheckAt)
}

func TestPoller_processOne_pastArrivalLands(t *testing.T) {
	fp := &fakeProducer{}
	p := newTestPoller(&fakeTracker{err: flightsource.ErrNotFound}, fp, nil)

	require.NoError(t, p.processOne(context.Background(), scheduled(testNow.Add(-12*time.Hour))))
	msg := fp.decode(t)
	require.Equal(t, "landed", msg.Status)
	require.EqualValues(t, 1, p.Stats().TotalLanded)
}

func TestPoller_processOne_errorBackoff(t *testing.T) {
	fp := &fakeProducer{}
	p := newTestPoller(&fakeTracker{err: errors.New("opensky http 500")}, fp, nil)
	rec := scheduled(testNow)
	rec.StatusCheckFails = 2

	require.NoError(t, p.processOne(context.Background(), rec))
	msg := fp.decode(t)
	require.NotNil(t, msg.Error)
	require.Contains(t, *msg.Error, "500")
	require.Empty(t, msg.Status)
	require.Equal(t, testNow.Add(30*time.Minute), msg.NextCheckAt)
}

func TestPoller_processOne_rateLimiterError(t *testing.T) {
	fp := &fakeProducer{}
	p := newTestPoller(&fakeTracker{}, fp, &fakeRL{err: errors.New("redis down")})

	require.Error(t, p.processOne(context.Background(), scheduled(testNow)))
	require.Zero(t, fp.calls)
}

func TestPoller_processOne_publishRetries(t *testing.T) {
	fp := &fakeProducer{errs: []error{errors.New("leader not available"), errors.New("leader not available")}}
	p := newTestPoller(&fakeTracker{err: flightsource.ErrNotFound}, fp, nil)

	require.NoError(t, p.processOne(context.Background(), scheduled(testNow)))
	require.Equal(t, 3, fp.calls)
}

func TestPoller_processOne_publishGivesUp(t *testing.T) {
	want := errors.New("no brokers")
	fp := &fakeProducer{errs: []error{want, want}}
	p := newTestPoller(&fakeTracker{err: flightsource.ErrNotFound}, fp, nil)
	p.publishAttempts = 2

	require.ErrorIs(t, p.processOne(context.Background(), scheduled(testNow)), want)
	require.Equal(t, 2, fp.calls)
}

func TestPoller_WithSettings(t *testing.T) {
	p := New(nil, &fakeTracker{}, &fakeProducer{}, nil, "t").
		WithSettings(5*time.Second, 7, 9, 11*time.Second, 13)
	require.Equal(t, 5*time.Second, p.pollInterval)
	require.Equal(t, 7, p.batchSize)
	require.Equal(t, 9, p.concurrency)
	require.Equal(t, 11*time.Second, p.lease)
	require.EqualValues(t, 13, p.rateLimitPerMinute)
	require.Equal(t, "t", p.topic)
}

func TestPoller_TriggerIsNonBlocking(t *testing.T) {
	p := New(nil, &fakeTracker{}, &fakeProducer{}, nil, "")
	p.Trigger()
	p.Trigger()
	require.NotNil(t, p.Stats().LastTriggerAt)
	require.Len(t, p.triggerCh, 1)
}
