package flights_api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/BearBump/FlightBox/internal/integrations/identity"
	"github.com/BearBump/FlightBox/internal/models"
	"github.com/BearBump/FlightBox/internal/services/flights"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Service interface {
	LogFlight(ctx context.Context, userID string, in flights.LogFlightInput) (*flights.LogFlightResult, error)
	DeleteFlight(ctx context.Context, userID, flightID string) error
	GetFlight(ctx context.Context, id string) (*models.FlightRecord, error)
	LookupFlight(ctx context.Context, flightNumber, date string) (*models.NormalizedFlight, error)
	Like(ctx context.Context, flightID, userID string) (int, error)
	Unlike(ctx context.Context, flightID, userID string) (int, error)
	GetStats(ctx context.Context, userID string) (*flights.StatsView, error)
	ListAchievements(ctx context.Context, userID string) (*flights.AchievementsView, error)
	ListFlights(ctx context.Context, userID string, limit, offset int) ([]models.FlightRecord, error)
	Leaderboard(ctx context.Context, metric models.LeaderboardMetric, limit int) ([]models.LeaderboardEntry, error)
}

type PhotoUploader interface {
	Upload(ctx context.Context, folder string, r io.Reader) (models.Photo, error)
}

type Options struct {
	SwaggerPath    string        // "": /swagger.json and /docs are not mounted
	RequestTimeout time.Duration // default: 30s
	MaxUploadBytes int64         // multipart body limit; default: 12MB
}

type FlightsAPI struct {
	svc      Service
	verifier identity.Verifier
	photos   PhotoUploader
	opts     Options
}

// New builds the API. photos may be nil, then uploads answer 503.
func New(svc Service, verifier identity.Verifier, photos PhotoUploader, opts Options) *FlightsAPI {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 12 << 20
	}
	return &FlightsAPI{svc: svc, verifier: verifier, photos: photos, opts: opts}
}

func (a *FlightsAPI) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	if a.opts.SwaggerPath != "" {
		r.Get("/swagger.json", func(w http.ResponseWriter, r *http.Request) {
			http.ServeFile(w, r, a.opts.SwaggerPath)
		})
		r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL("/swagger.json")))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(a.opts.RequestTimeout))
		r.Use(a.auth)

		r.Post("/flights", a.logFlight)
		r.Get("/flights/lookup/{flightNumber}", a.lookupFlight)
		r.Get("/flights/{id}", a.getFlight)
		r.Delete("/flights/{id}", a.deleteFlight)
		r.Put("/flights/{id}/like", a.like)
		r.Delete("/flights/{id}/like", a.unlike)

		r.Get("/me/stats", a.myStats)
		r.Get("/me/achievements", a.myAchievements)
		r.Get("/me/flights", a.myFlights)

		r.Get("/leaderboard", a.leaderboard)
		r.Post("/photos", a.uploadPhoto)
	})
	return r
}

type ctxKey struct{}

func userFrom(ctx context.Context) string {
	s, _ := ctx.Value(ctxKey{}).(string)
	return s
}

func (a *FlightsAPI) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(h, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			writeError(w, r, errors.Wrap(models.ErrUnauthorized, "missing bearer token"))
			return
		}
		userID, err := a.verifier.Verify(r.Context(), token)
		if err != nil {
			writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, userID)))
	})
}

func (a *FlightsAPI) logFlight(w http.ResponseWriter, r *http.Request) {
	var in flights.LogFlightInput
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		writeError(w, r, models.Validationf("invalid request body: %v", err))
		return
	}
	res, err := a.svc.LogFlight(r.Context(), userFrom(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (a *FlightsAPI) lookupFlight(w http.ResponseWriter, r *http.Request) {
	f, err := a.svc.LookupFlight(r.Context(), chi.URLParam(r, "flightNumber"), r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (a *FlightsAPI) getFlight(w http.ResponseWriter, r *http.Request) {
	rec, err := a.svc.GetFlight(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (a *FlightsAPI) deleteFlight(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.DeleteFlight(r.Context(), userFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *FlightsAPI) like(w http.ResponseWriter, r *http.Request) {
	a.setLike(w, r, a.svc.Like)
}

func (a *FlightsAPI) unlike(w http.ResponseWriter, r *http.Request) {
	a.setLike(w, r, a.svc.Unlike)
}

func (a *FlightsAPI) setLike(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, flightID, userID string) (int, error)) {
	id := chi.URLParam(r, "id")
	n, err := fn(r.Context(), id, userFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"flightId": id, "likes": n})
}

func (a *FlightsAPI) myStats(w http.ResponseWriter, r *http.Request) {
	st, err := a.svc.GetStats(r.Context(), userFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (a *FlightsAPI) myAchievements(w http.ResponseWriter, r *http.Request) {
	v, err := a.svc.ListAchievements(r.Context(), userFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (a *FlightsAPI) myFlights(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := a.svc.ListFlights(r.Context(), userFrom(r.Context()), limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"flights": out})
}

func (a *FlightsAPI) leaderboard(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, r, err)
		return
	}
	metric := models.LeaderboardMetric(r.URL.Query().Get("metric"))
	out, err := a.svc.Leaderboard(r.Context(), metric, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": out})
}

func (a *FlightsAPI) uploadPhoto(w http.ResponseWriter, r *http.Request) {
	if a.photos == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "photo storage is not configured"})
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, a.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(a.opts.MaxUploadBytes); err != nil {
		writeError(w, r, models.Validationf("invalid multipart body: %v", err))
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, models.Validationf("file is required"))
		return
	}
	defer file.Close()

	p, err := a.photos.Upload(r.Context(), r.FormValue("folder"), file)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func queryInt(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, models.Validationf("%s must be an integer", name)
	}
	return n, nil
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the error taxonomy onto HTTP codes. Internal details of
// 500s are logged, not returned.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := http.StatusInternalServerError, "internal"
	msg := "internal error"
	switch {
	case errors.Is(err, models.ErrValidation):
		status, code, msg = http.StatusBadRequest, "validation", err.Error()
	case errors.Is(err, models.ErrUnauthorized):
		status, code, msg = http.StatusUnauthorized, "unauthorized", "unauthorized"
	case errors.Is(err, models.ErrForbidden):
		status, code, msg = http.StatusForbidden, "forbidden", "forbidden"
	case errors.Is(err, models.ErrFlightNotFound):
		status, code, msg = http.StatusNotFound, "flight_not_found", err.Error()
	case errors.Is(err, models.ErrRecordNotFound):
		status, code, msg = http.StatusNotFound, "not_found", "not found"
	case errors.Is(err, models.ErrFatalPersistence):
		code, msg = "not_saved", models.ErrFatalPersistence.Error()
	}
	if status >= 500 {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()), "err", err)
	}
	writeJSON(w, status, errorBody{Error: msg, Code: code})
}
