package opensky

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BearBump/FlightBox/internal/integrations/flightsource"
	"github.com/BearBump/FlightBox/internal/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, routes, states string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/routes":
			require.Equal(t, "AKJ1457", r.URL.Query().Get("callsign"))
			if routes == "" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_, _ = w.Write([]byte(routes))
		case "/api/states/all":
			_, _ = w.Write([]byte(states))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Lookup_RouteAndPosition(t *testing.T) {
	srv := newServer(t,
		`{"callsign":"AKJ1457","route":["VABB","VOBL"],"updateTime":1700000000}`,
		`{"time":1700000000,"states":[
			["abc123","UAL1    ","United States",1700000000,1700000000,-80.1,25.7,1000.0,false,200.0,90.0,0.0,null,1100.0,"1234",false,0],
			["800abc","AKJ1457 ","India",1700000000,1700000100,75.5,16.2,11000.0,false,230.5,150.0,0.0,null,11200.0,"2211",false,0]
		]}`)

	c := New(srv.URL, "", "")
	require.Equal(t, models.SourceNetworkTracking, c.Name())

	p, err := c.Lookup(context.Background(), "QP1457", "")
	require.NoError(t, err)
	require.Equal(t, "VABB", p.DepartureCode)
	require.Equal(t, "VOBL", p.ArrivalCode)
	require.NotNil(t, p.Position)
	require.InDelta(t, 16.2, p.Position.Lat, 1e-9)
	require.InDelta(t, 230.5, p.Position.VelocityMS, 1e-9)
	require.False(t, p.Position.OnGround)
	require.Equal(t, models.FlightStatusAirborne, p.Status)
	require.EqualValues(t, 1700000100, p.Position.ReportedAt.Unix())
}

func TestClient_Lookup_TelemetryOnly(t *testing.T) {
	srv := newServer(t, "",
		`{"time":1,"states":[["800abc","AKJ1457","India",1,1,75.5,16.2,null,true,0.0,0.0,0.0,null,null,null,false,0]]}`)

	p, err := New(srv.URL, "", "").Lookup(context.Background(), "QP1457", "")
	require.NoError(t, err)
	require.False(t, p.HasRoute())
	require.NotNil(t, p.Position)
	require.True(t, p.Position.OnGround)
	require.Equal(t, models.FlightStatus(""), p.Status)
}

func TestClient_Lookup_NothingKnown(t *testing.T) {
	srv := newServer(t, "", `{"time":1,"states":null}`)

	_, err := New(srv.URL, "", "").Lookup(context.Background(), "QP1457", "")
	require.True(t, errors.Is(err, flightsource.ErrNotFound))
}

func TestClient_Lookup_NotConfigured(t *testing.T) {
	_, err := New("", "", "").Lookup(context.Background(), "QP1457", "")
	require.True(t, errors.Is(err, flightsource.ErrNotConfigured))
}

func TestParseState_ShortOrMismatched(t *testing.T) {
	_, ok := parseState([]any{"a", "b"}, "b")
	require.False(t, ok)
	_, ok = parseState([]any{"a", "OTHER", nil, nil, nil, 1.0, 2.0, nil, false, nil}, "AKJ1")
	require.False(t, ok)
	_, ok = parseState([]any{"a", "AKJ1", nil, nil, nil, nil, 2.0, nil, false, nil}, "AKJ1")
	require.False(t, ok)
}
