package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BearBump/FlightBox/config"
	flightsapi "github.com/BearBump/FlightBox/internal/api/flights_api"
	"github.com/BearBump/FlightBox/internal/broker/kafka"
	"github.com/BearBump/FlightBox/internal/broker/messages"
	"github.com/BearBump/FlightBox/internal/cache"
	"github.com/BearBump/FlightBox/internal/cache/lrucache"
	"github.com/BearBump/FlightBox/internal/cache/rediscache"
	"github.com/BearBump/FlightBox/internal/integrations/flightsource"
	"github.com/BearBump/FlightBox/internal/integrations/flightsource/aviationstack"
	"github.com/BearBump/FlightBox/internal/integrations/flightsource/livescrape"
	"github.com/BearBump/FlightBox/internal/integrations/flightsource/opensky"
	"github.com/BearBump/FlightBox/internal/integrations/flightsource/synthetic"
	"github.com/BearBump/FlightBox/internal/integrations/identity"
	"github.com/BearBump/FlightBox/internal/integrations/photostore"
	"github.com/BearBump/FlightBox/internal/logging"
	"github.com/BearBump/FlightBox/internal/services/flights"
	"github.com/BearBump/FlightBox/internal/services/resolver"
	"github.com/BearBump/FlightBox/internal/storage/pgflights"
	"github.com/BearBump/FlightBox/internal/storage/sqliteflights"
)

type flightStore interface {
	flights.Store
	Close()
}

type flightAPIApp struct {
	ctx      context.Context
	cancel   context.CancelFunc
	opts     flightAPIOpts
	handler  http.Handler
	svc      *flights.Service
	consumer *kafka.Consumer
	closers  []func()
}

func mustBootstrapFlightAPI() *flightAPIApp {
	config.LoadDotEnv(".env")

	cfgPath := os.Getenv("configPath")
	if cfgPath == "" {
		panic("configPath env var is required")
	}
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		panic(fmt.Sprintf("ошибка парсинга конфига, %v", err))
	}

	logCloser := logging.Setup(logging.Options{
		Level:      cfg.Logging.Level,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		Service:    "flight-api",
	})

	app := &flightAPIApp{}
	app.closers = append(app.closers, func() { _ = logCloser.Close() })

	httpAddr := cfg.FlightBox.HTTPAddr
	if httpAddr == "" {
		httpAddr = ":8080"
	}
	consumerGroup := cfg.FlightBox.KafkaConsumerGroup
	if consumerGroup == "" {
		consumerGroup = "flight-api"
	}
	statusTopic := cfg.Kafka.StatusUpdatedTopicName
	if statusTopic == "" {
		statusTopic = messages.TopicFlightStatusUpdated
	}
	loggedTopic := cfg.Kafka.FlightLoggedTopicName
	if loggedTopic == "" {
		loggedTopic = messages.TopicFlightLogged
	}

	st := mustOpenStoreWithRetry(cfg, 60*time.Second)
	app.closers = append(app.closers, st.Close)

	bc, rl, closeCache := newCaches(cfg)
	app.closers = append(app.closers, closeCache)

	brokers := []string{fmt.Sprintf("%s:%d", cfg.Kafka.Host, cfg.Kafka.Port)}
	var producer flights.Producer
	if cfg.Kafka.Host != "" {
		p := kafka.NewProducer(brokers)
		producer = p
		app.closers = append(app.closers, func() { _ = p.Close() })
		app.consumer = kafka.NewConsumer(brokers, statusTopic, consumerGroup)
	} else {
		slog.Warn("kafka is not configured: flight.logged is not published, live status is not applied")
	}

	var (
		photos    flightsapi.PhotoUploader
		photoBase string
	)
	if cfg.S3.Bucket != "" {
		ps, err := photostore.New(context.Background(), photostore.Config{
			Endpoint:        cfg.S3.Endpoint,
			Region:          cfg.S3.Region,
			Bucket:          cfg.S3.Bucket,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			PublicBaseURL:   cfg.S3.PublicBaseURL,
			UsePathStyle:    cfg.S3.UsePathStyle,
			MaxBytes:        cfg.S3.MaxUploadBytes,
		})
		if err != nil {
			panic(fmt.Sprintf("photo storage: %v", err))
		}
		photos = ps
		photoBase = ps.BaseURL()
	} else {
		slog.Warn("s3 is not configured: photo upload is off, photos earn no xp")
	}

	res := newResolver(cfg, bc, rl)
	app.svc = flights.New(st, res, bc, producer, flights.Options{
		StatsTTL:       seconds(cfg.FlightBox.StatsTTLSeconds, 30*time.Second),
		LeaderboardTTL: seconds(cfg.FlightBox.LeaderboardTTLSeconds, 60*time.Second),
		MaxTxAttempts:  cfg.FlightBox.MaxTxAttempts,
		LoggedTopic:    loggedTopic,
		PhotoBaseURL:   photoBase,
	})

	api := flightsapi.New(app.svc, newVerifier(cfg, bc), photos, flightsapi.Options{
		SwaggerPath:    os.Getenv("swaggerPath"),
		MaxUploadBytes: cfg.S3.MaxUploadBytes,
	})
	app.handler = api.Handler()

	app.ctx, app.cancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	app.opts = flightAPIOpts{
		httpAddr:      httpAddr,
		topic:         statusTopic,
		consumerGroup: consumerGroup,
	}
	return app
}

func seconds(v int, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return time.Duration(v) * time.Second
}

func openStore(cfg *config.Config) (flightStore, error) {
	switch cfg.Storage.Driver {
	case "sqlite":
		path := cfg.Storage.SQLitePath
		if path == "" {
			path = "flightbox.db"
		}
		return sqliteflights.New(path)
	case "", "postgres":
		sslMode := cfg.Database.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		connString := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
			cfg.Database.Username, cfg.Database.Password, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName, sslMode)
		return pgflights.New(connString)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func mustOpenStoreWithRetry(cfg *config.Config, wait time.Duration) flightStore {
	deadline := time.Now().Add(wait)
	var lastErr error
	for time.Now().Before(deadline) {
		st, err := openStore(cfg)
		if err == nil {
			return st
		}
		lastErr = err
		slog.Warn("storage is not ready", "driver", cfg.Storage.Driver, "err", err)
		time.Sleep(1 * time.Second)
	}
	panic(fmt.Sprintf("storage is not ready after %s: %v", wait, lastErr))
}

// newCaches uses Redis when it is configured, otherwise an in-process LRU
// without rate limiting.
func newCaches(cfg *config.Config) (cache.BytesCache, cache.RateLimiter, func()) {
	if cfg.Redis.Host == "" {
		slog.Warn("redis is not configured: using in-process cache")
		return lrucache.New(50_000, time.Hour), nil, func() {}
	}
	addr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
	rc := rediscache.New(addr)
	rl := rediscache.NewRateLimiter(addr)
	return rc, rl, func() {
		_ = rc.Close()
		_ = rl.Close()
	}
}

// liveSources returns the live lookups in priority order; a source without
// its config is left out.
func liveSources(cfg *config.Config) []flightsource.Source {
	var live []flightsource.Source
	if cfg.Sources.AviationStackKey != "" {
		live = append(live, aviationstack.New(aviationstack.Config{
			BaseURL:           cfg.Sources.AviationStackBaseURL,
			AccessKey:         cfg.Sources.AviationStackKey,
			RequestsPerMinute: cfg.Sources.AviationStackPerMinute,
		}))
	}
	if cfg.Sources.LiveScrapeBaseURL != "" {
		live = append(live, livescrape.New(cfg.Sources.LiveScrapeBaseURL, cfg.Sources.LiveScrapeUserAgent))
	}
	if cfg.Sources.OpenSkyBaseURL != "" {
		live = append(live, opensky.New(cfg.Sources.OpenSkyBaseURL, cfg.Sources.OpenSkyUsername, cfg.Sources.OpenSkyPassword))
	}
	return live
}

func newResolver(cfg *config.Config, bc cache.BytesCache, rl cache.RateLimiter) *resolver.Resolver {
	live := liveSources(cfg)
	slog.Info("flight sources", "live", len(live))
	return resolver.New(live, synthetic.New(), bc, rl, resolver.Config{
		PerSourceTimeout:   time.Duration(cfg.Sources.PerSourceTimeoutMs) * time.Millisecond,
		LiveBudget:         time.Duration(cfg.Sources.LiveBudgetMs) * time.Millisecond,
		CacheTTL:           time.Duration(cfg.Sources.CacheTTLSeconds) * time.Second,
		RateLimitPerMinute: int64(cfg.Sources.RateLimitPerMinute),
	})
}

func newVerifier(cfg *config.Config, bc cache.BytesCache) identity.Verifier {
	if cfg.Identity.UserInfoURL != "" {
		return identity.NewUserInfo(cfg.Identity.UserInfoURL, bc, seconds(cfg.Identity.CacheTTLSeconds, 5*time.Minute))
	}
	slog.Warn("identity provider is not configured: using static tokens", "tokens", len(cfg.Identity.StaticTokens))
	return identity.NewStatic(cfg.Identity.StaticTokens)
}

func (a *flightAPIApp) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.consumer != nil {
		_ = a.consumer.Close()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func (a *flightAPIApp) Run() error {
	var consumer kafkaConsumer
	if a.consumer != nil {
		consumer = a.consumer
	}
	return runFlightAPI(a.ctx, a.opts, a.handler, a.svc, consumer)
}
