package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/BearBump/FlightBox/config"
	"github.com/BearBump/FlightBox/internal/broker/kafka"
	"github.com/BearBump/FlightBox/internal/broker/messages"
	"github.com/BearBump/FlightBox/internal/cache/rediscache"
	"github.com/BearBump/FlightBox/internal/integrations/flightsource/opensky"
	"github.com/BearBump/FlightBox/internal/services/poller"
	"github.com/BearBump/FlightBox/internal/storage/chanalytics"
	"github.com/BearBump/FlightBox/internal/storage/pgflights"
	"github.com/BearBump/FlightBox/internal/storage/sqliteflights"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

const defaultOpenSkyBaseURL = "https://opensky-network.org"

type analyticsSink interface {
	Insert(ctx context.Context, e messages.FlightLogged) error
	TopRoutes(ctx context.Context, since time.Time, limit int) ([]chanalytics.RouteCount, error)
}

type kafkaConsumer interface {
	Consume(ctx context.Context, handler kafka.Handler) error
}

type workerFactories struct {
	newStorage     func(cfg *config.Config) (repo poller.Repository, closeFn func(), err error)
	newProducer    func(cfg *config.Config) poller.Producer
	newRateLimiter func(cfg *config.Config) poller.RateLimiter
	newTracker     func(cfg *config.Config) poller.Tracker
	// newAnalytics returns a nil sink when ClickHouse is not configured.
	newAnalytics func(ctx context.Context, cfg *config.Config) (analyticsSink, func(), error)
	newConsumer  func(cfg *config.Config, topic, group string) kafkaConsumer
}

func defaultWorkerFactories() workerFactories {
	return workerFactories{
		newStorage: func(cfg *config.Config) (poller.Repository, func(), error) {
			if cfg.Storage.Driver == "sqlite" {
				path := cfg.Storage.SQLitePath
				if path == "" {
					path = "flightbox.db"
				}
				st, err := sqliteflights.New(path)
				if err != nil {
					return nil, nil, err
				}
				return st, st.Close, nil
			}
			sslMode := cfg.Database.SSLMode
			if sslMode == "" {
				sslMode = "disable"
			}
			connString := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
				cfg.Database.Username, cfg.Database.Password, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName, sslMode)
			st, err := pgflights.New(connString)
			if err != nil {
				return nil, nil, err
			}
			return st, st.Close, nil
		},
		newProducer: func(cfg *config.Config) poller.Producer {
			brokers := []string{fmt.Sprintf("%s:%d", cfg.Kafka.Host, cfg.Kafka.Port)}
			return kafka.NewProducer(brokers)
		},
		newRateLimiter: func(cfg *config.Config) poller.RateLimiter {
			redisAddr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
			return rediscache.NewRateLimiter(redisAddr)
		},
		newTracker: func(cfg *config.Config) poller.Tracker {
			base := cfg.Sources.OpenSkyBaseURL
			if base == "" {
				base = defaultOpenSkyBaseURL
			}
			return opensky.New(base, cfg.Sources.OpenSkyUsername, cfg.Sources.OpenSkyPassword)
		},
		newAnalytics: func(ctx context.Context, cfg *config.Config) (analyticsSink, func(), error) {
			if cfg.ClickHouse.Host == "" {
				return nil, func() {}, nil
			}
			st, err := chanalytics.New(ctx, chanalytics.Config{
				Host:     cfg.ClickHouse.Host,
				Port:     cfg.ClickHouse.Port,
				Database: cfg.ClickHouse.Database,
				User:     cfg.ClickHouse.Username,
				Password: cfg.ClickHouse.Password,
			})
			if err != nil {
				return nil, nil, err
			}
			return st, func() { _ = st.Close() }, nil
		},
		newConsumer: func(cfg *config.Config, topic, group string) kafkaConsumer {
			brokers := []string{fmt.Sprintf("%s:%d", cfg.Kafka.Host, cfg.Kafka.Port)}
			return kafka.NewConsumer(brokers, topic, group)
		},
	}
}

func plannerConfig(cfg *config.Config) poller.PlannerConfig {
	fb := cfg.FlightBox
	sec := func(v int) time.Duration { return time.Duration(v) * time.Second }
	// нули заменит NewPlanner
	return poller.PlannerConfig{
		AirborneDelay: sec(fb.WorkerAirborneDelaySeconds),
		NearMinDelay:  sec(fb.WorkerNearMinDelaySeconds),
		NearMaxDelay:  sec(fb.WorkerNearMaxDelaySeconds),
		FarDelay:      sec(fb.WorkerFarDelaySeconds),
		Backoff1:      sec(fb.WorkerBackoff1Seconds),
		Backoff2:      sec(fb.WorkerBackoff2Seconds),
		Backoff3:      sec(fb.WorkerBackoff3Seconds),
		Backoff4:      sec(fb.WorkerBackoff4Seconds),
	}
}

func RunFlightWorker(ctx context.Context, cfg *config.Config, f workerFactories, httpOpts workerHTTPOpts) error {
	statusTopic := cfg.Kafka.StatusUpdatedTopicName
	if statusTopic == "" {
		statusTopic = messages.TopicFlightStatusUpdated
	}
	loggedTopic := cfg.Kafka.FlightLoggedTopicName
	if loggedTopic == "" {
		loggedTopic = messages.TopicFlightLogged
	}
	group := cfg.FlightBox.WorkerConsumerGroup
	if group == "" {
		group = "flight-worker"
	}

	pollInterval := time.Duration(cfg.FlightBox.WorkerPollIntervalSeconds) * time.Second
	if pollInterval <= 0 {
		pollInterval = 10 * time.Second
	}
	batchSize := cfg.FlightBox.WorkerBatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	concurrency := cfg.FlightBox.WorkerConcurrency
	if concurrency <= 0 {
		concurrency = 10
	}
	lease := time.Duration(cfg.FlightBox.WorkerLeaseSeconds) * time.Second
	if lease <= 0 {
		lease = 120 * time.Second
	}
	rlPerMin := int64(cfg.FlightBox.WorkerRateLimitPerMinute)
	if rlPerMin <= 0 {
		rlPerMin = 60
	}

	repo, closeFn, err := f.newStorage(cfg)
	if err != nil {
		return err
	}
	if closeFn != nil {
		defer closeFn()
	}

	sink, closeSink, err := f.newAnalytics(ctx, cfg)
	if err != nil {
		return errors.Wrap(err, "analytics storage")
	}
	if closeSink != nil {
		defer closeSink()
	}

	p := poller.New(repo, f.newTracker(cfg), f.newProducer(cfg), f.newRateLimiter(cfg), statusTopic).
		WithSettings(pollInterval, batchSize, concurrency, lease, rlPerMin).
		WithPlanner(plannerConfig(cfg))

	httpOpts.poller = p
	httpOpts.cfg = cfg
	httpOpts.analytics = sink

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return p.Run(gctx) })
	if httpOpts.httpAddr != "" || httpOpts.swaggerPath != "" {
		g.Go(func() error { return runWorkerHTTPServer(gctx, httpOpts) })
	}
	if sink != nil {
		consumer := f.newConsumer(cfg, loggedTopic, group)
		g.Go(func() error {
			slog.Info("analytics consumer started", "topic", loggedTopic, "group", group)
			for {
				err := consumer.Consume(gctx, analyticsHandler(sink))
				if gctx.Err() != nil {
					return nil
				}
				slog.Error("analytics consumer stopped, restarting", "err", err)
				select {
				case <-gctx.Done():
					return nil
				case <-time.After(5 * time.Second):
				}
			}
		})
	}
	return g.Wait()
}

func analyticsHandler(sink analyticsSink) kafka.Handler {
	return func(ctx context.Context, _ []byte, value []byte) error {
		var e messages.FlightLogged
		if err := json.Unmarshal(value, &e); err != nil {
			return errors.Wrapf(kafka.ErrSkipMessage, "decode flight.logged: %v", err)
		}
		if e.FlightID == "" {
			return errors.Wrap(kafka.ErrSkipMessage, "flight.logged without flight_id")
		}
		return sink.Insert(ctx, e)
	}
}
