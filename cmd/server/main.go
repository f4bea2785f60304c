package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	coursehandler "campus/internal/course/handler"
	courseservice "campus/internal/course/service"
	enrollmenthandler "campus/internal/enrollment/handler"
	enrollmentmetrics "campus/internal/enrollment/metrics"
	enrollmentservice "campus/internal/enrollment/service"
	"campus/internal/outbox"
	"campus/internal/platform/config"
	"campus/internal/platform/httpserver"
	"campus/internal/platform/logger"
	"campus/internal/platform/metrics"
	httptransport "campus/internal/transport/http"
)

const shutdownTimeout = 10 * time.Second

// main wires dependencies and keeps the process lifecycle small. Business
// logic lives in the internal service packages.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "campus: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	infra, err := buildInfra(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer infra.Close()

	enrollmentOpts := []enrollmentservice.Option{
		enrollmentservice.WithLogger(log),
		enrollmentservice.WithMetrics(enrollmentmetrics.New(reg)),
		enrollmentservice.WithReadTimeout(cfg.Server.TxTimeout),
	}
	if infra.cache != nil {
		enrollmentOpts = append(enrollmentOpts, enrollmentservice.WithCache(infra.cache))
	}
	enrollments := enrollmentservice.New(infra.tx, infra.enrollmentReader, enrollmentOpts...)
	catalogue := courseservice.New(infra.courses, courseservice.WithLogger(log))

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Logger:         log,
		Metrics:        metrics.New(reg),
		Gatherer:       reg,
		RequestTimeout: cfg.Server.RequestTimeout,
		HealthChecks:   infra.health,
	},
		coursehandler.New(catalogue, log),
		enrollmenthandler.New(enrollments, log),
	)
	srv := httpserver.New(cfg.Server.Addr, router)

	worker := outbox.NewWorker(infra.outbox, infra.publisher,
		outbox.WithPollInterval(cfg.Outbox.PollInterval),
		outbox.WithBatchSize(cfg.Outbox.BatchSize),
		outbox.WithLogger(log),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting campus", "addr", cfg.Server.Addr, "storage", infra.kind)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := worker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("outbox worker: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		if _, err := worker.Drain(shutdownCtx); err != nil {
			log.Warn("final outbox drain failed", "error", err.Error())
		}
		return nil
	})
	return g.Wait()
}
