package main

import (
	"context"
	"net/http"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/BearBump/FlightBox/config"
	"github.com/BearBump/FlightBox/internal/broker/kafka"
	"github.com/BearBump/FlightBox/internal/broker/messages"
	"github.com/BearBump/FlightBox/internal/cache/lrucache"
	"github.com/BearBump/FlightBox/internal/integrations/flightsource/aviationstack"
	"github.com/BearBump/FlightBox/internal/integrations/flightsource/opensky"
	"github.com/BearBump/FlightBox/internal/integrations/identity"
	"github.com/BearBump/FlightBox/internal/models"
	"github.com/BearBump/FlightBox/internal/storage/sqliteflights"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type fakeApplier struct {
	err  error
	last messages.FlightStatusUpdated
}

func (f *fakeApplier) ApplyStatusUpdate(_ context.Context, msg messages.FlightStatusUpdated) error {
	f.last = msg
	return f.err
}

type fakeConsumer struct {
	calls atomic.Int32
	fail  int32
}

func (c *fakeConsumer) Consume(ctx context.Context, _ kafka.Handler) error {
	if c.calls.Add(1) <= c.fail {
		return errors.New("broker went away")
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestStatusHandler(t *testing.T) {
	ctx := context.Background()

	ok := &fakeApplier{}
	h := statusHandler(ok)
	require.NoError(t, h(ctx, []byte("f1"), []byte(`{"flight_id":"f1","status":"airborne"}`)))
	require.Equal(t, "f1", ok.last.FlightID)
	require.Equal(t, "airborne", ok.last.Status)

	err := h(ctx, nil, []byte(`{not json`))
	require.ErrorIs(t, err, kafka.ErrSkipMessage)

	gone := statusHandler(&fakeApplier{err: models.ErrRecordNotFound})
	require.ErrorIs(t, gone(ctx, nil, []byte(`{"flight_id":"f2"}`)), kafka.ErrSkipMessage)

	bad := statusHandler(&fakeApplier{err: models.Validationf("unknown flight status")})
	require.ErrorIs(t, bad(ctx, nil, []byte(`{"flight_id":"f3"}`)), kafka.ErrSkipMessage)

	// временная ошибка БД: сообщение не коммитим
	transient := statusHandler(&fakeApplier{err: errors.New("connection reset")})
	err = transient(ctx, nil, []byte(`{"flight_id":"f4"}`))
	require.Error(t, err)
	require.NotErrorIs(t, err, kafka.ErrSkipMessage)
}

func TestConsumeForever_Restarts(t *testing.T) {
	c := &fakeConsumer{fail: 1}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		consumeForever(ctx, c, func(context.Context, []byte, []byte) error { return nil })
		close(done)
	}()

	require.Eventually(t, func() bool { return c.calls.Load() >= 2 }, 5*time.Second, 10*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer loop did not stop")
	}
}

func TestRunFlightAPI_ServesAndStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	addrCh := make(chan string, 1)
	opts := flightAPIOpts{
		httpAddr:      "127.0.0.1:0",
		topic:         "t",
		consumerGroup: "g",
		onListen:      func(httpAddr string) { addrCh <- httpAddr },
	}
	cons := &fakeConsumer{}
	errCh := make(chan error, 1)
	go func() { errCh <- runFlightAPI(ctx, opts, mux, &fakeApplier{}, cons) }()

	addr := <-addrCh
	resp, err := http.Get("http://" + addr + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Eventually(t, func() bool { return cons.calls.Load() == 1 }, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting api to stop")
	}
}

func TestOpenStore(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "fb.db"),
	}}
	st, err := openStore(cfg)
	require.NoError(t, err)
	defer st.Close()
	_, isSQLite := st.(*sqliteflights.Storage)
	require.True(t, isSQLite)

	_, err = openStore(&config.Config{Storage: config.StorageConfig{Driver: "mongo"}})
	require.Error(t, err)
}

func TestLiveSources_Order(t *testing.T) {
	require.Empty(t, liveSources(&config.Config{}))

	cfg := &config.Config{Sources: config.SourcesConfig{
		AviationStackKey: "k",
		OpenSkyBaseURL:   "http://opensky.local",
	}}
	live := liveSources(cfg)
	require.Len(t, live, 2)
	_, ok := live[0].(*aviationstack.Client)
	require.True(t, ok)
	_, ok = live[1].(*opensky.Client)
	require.True(t, ok)
}

func TestNewCachesAndVerifier(t *testing.T) {
	bc, rl, closeFn := newCaches(&config.Config{})
	defer closeFn()
	_, ok := bc.(*lrucache.Cache)
	require.True(t, ok)
	require.Nil(t, rl)

	v := newVerifier(&config.Config{Identity: config.IdentityConfig{
		StaticTokens: map[string]string{"dev": "u1"},
	}}, bc)
	_, ok = v.(*identity.Static)
	require.True(t, ok)
	user, err := v.Verify(context.Background(), "dev")
	require.NoError(t, err)
	require.Equal(t, "u1", user)

	v = newVerifier(&config.Config{Identity: config.IdentityConfig{UserInfoURL: "http://idp.local/userinfo"}}, bc)
	_, ok = v.(*identity.UserInfo)
	require.True(t, ok)
}
