package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/BearBump/FlightBox/internal/broker/kafka"
	"github.com/BearBump/FlightBox/internal/broker/messages"
	"github.com/BearBump/FlightBox/internal/models"
	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

type flightAPIOpts struct {
	httpAddr string

	topic         string
	consumerGroup string

	onListen func(httpAddr string)
}

type kafkaConsumer interface {
	Consume(ctx context.Context, handler kafka.Handler) error
}

type statusApplier interface {
	ApplyStatusUpdate(ctx context.Context, msg messages.FlightStatusUpdated) error
}

// runFlightAPI serves HTTP and applies status updates from Kafka until ctx is
// done or the HTTP server fails.
func runFlightAPI(ctx context.Context, opts flightAPIOpts, handler http.Handler, svc statusApplier, consumer kafkaConsumer) error {
	lis, err := net.Listen("tcp", opts.httpAddr)
	if err != nil {
		return errors.Wrap(err, "listen")
	}
	if opts.onListen != nil {
		opts.onListen(lis.Addr().String())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return runHTTPServer(gctx, lis, handler)
	})
	if consumer != nil {
		g.Go(func() error {
			slog.Info("kafka consumer started", "topic", opts.topic, "group", opts.consumerGroup)
			consumeForever(gctx, consumer, statusHandler(svc))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func runHTTPServer(ctx context.Context, lis net.Listener, handler http.Handler) error {
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("HTTP server listening", "addr", lis.Addr().String())
	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// consumeForever restarts the consumer after failures; an uncommitted message
// is fetched again on restart.
func consumeForever(ctx context.Context, consumer kafkaConsumer, h kafka.Handler) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0

	for {
		err := consumer.Consume(ctx, h)
		if ctx.Err() != nil {
			return
		}
		wait := b.NextBackOff()
		slog.Error("kafka consumer stopped, restarting", "err", err, "in", wait)
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

func statusHandler(svc statusApplier) kafka.Handler {
	return func(ctx context.Context, _ []byte, value []byte) error {
		var m messages.FlightStatusUpdated
		if err := json.Unmarshal(value, &m); err != nil {
			return errors.Wrapf(kafka.ErrSkipMessage, "decode status update: %v", err)
		}
		err := svc.ApplyStatusUpdate(ctx, m)
		switch {
		case errors.Is(err, models.ErrRecordNotFound):
			// рейс удалён, пока воркер его опрашивал
			return errors.Wrapf(kafka.ErrSkipMessage, "flight %s is gone", m.FlightID)
		case errors.Is(err, models.ErrValidation):
			return errors.Wrapf(kafka.ErrSkipMessage, "status update: %v", err)
		}
		return err
	}
}
