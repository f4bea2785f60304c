package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	courseservice "campus/internal/course/service"
	coursestore "campus/internal/course/store"
	"campus/internal/enrollment/cache"
	enrollmentservice "campus/internal/enrollment/service"
	enrollmentstore "campus/internal/enrollment/store"
	"campus/internal/outbox"
	"campus/internal/outbox/kafka"
	"campus/internal/platform/config"
	"campus/internal/platform/postgres"
	"campus/internal/platform/redis"
	httptransport "campus/internal/transport/http"
)

// outboxStore is what both the service transaction and the relay worker
// need from the outbox table.
type outboxStore interface {
	enrollmentservice.OutboxAppender
	outbox.Store
}

// infra holds the storage, cache and messaging clients selected by config.
type infra struct {
	kind             string
	tx               enrollmentservice.StoreTx
	enrollmentReader enrollmentservice.EnrollmentStore
	courses          courseservice.Store
	outbox           outboxStore
	publisher        outbox.Publisher
	cache            *cache.RedisCache
	health           map[string]httptransport.HealthCheck
	closers          []func()
}

func buildInfra(ctx context.Context, cfg config.Config, log *slog.Logger) (*infra, error) {
	in := &infra{health: map[string]httptransport.HealthCheck{}}

	if cfg.Database.URL == "" {
		courses := coursestore.NewInMemory()
		enrollments := enrollmentstore.NewInMemory()
		events := outbox.NewInMemory()
		in.kind = "memory"
		in.courses = courses
		in.enrollmentReader = enrollments
		in.outbox = events
		in.tx = enrollmentservice.NewInMemoryTx(courses, enrollments, events)
		log.Warn("DB_URL not set; using in-memory stores")
	} else {
		db, err := postgres.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		in.closers = append(in.closers, func() { _ = db.Close() })
		if cfg.Database.Migrate {
			if err := postgres.Migrate(ctx, db); err != nil {
				in.Close()
				return nil, err
			}
		}
		in.usePostgres(db, cfg)
		in.health["postgres"] = db.PingContext
	}

	client, err := redis.Open(ctx, cfg.Redis)
	if err != nil {
		in.Close()
		return nil, err
	}
	if client != nil {
		in.cache = cache.New(client, cfg.Redis.CacheTTL)
		in.closers = append(in.closers, func() { _ = client.Close() })
		in.health["redis"] = client.Health
	}

	if len(cfg.Kafka.Brokers) == 0 {
		in.publisher = outbox.NewLogPublisher(log)
		return in, nil
	}
	producer, err := kafka.New(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	if err != nil {
		in.Close()
		return nil, err
	}
	in.closers = append(in.closers, producer.Close)
	if err := producer.EnsureTopic(ctx, cfg.Kafka.Partitions, cfg.Kafka.ReplicationFactor); err != nil {
		in.Close()
		return nil, fmt.Errorf("ensure outbox topic: %w", err)
	}
	in.publisher = producer
	in.health["kafka"] = producer.Ping
	return in, nil
}

func (in *infra) usePostgres(db *sql.DB, cfg config.Config) {
	courses := coursestore.NewPostgres(db)
	enrollments := enrollmentstore.NewPostgres(db)
	events := outbox.NewPostgres(db)
	in.kind = "postgres"
	in.courses = courses
	in.enrollmentReader = enrollments
	in.outbox = events
	in.tx = enrollmentservice.NewPostgresTx(db, enrollmentservice.Stores{
		Courses:     courses,
		Enrollments: enrollments,
		Outbox:      events,
	}, cfg.Server.TxTimeout)
}

// Close releases clients in reverse order of creation.
func (in *infra) Close() {
	for i := len(in.closers) - 1; i >= 0; i-- {
		in.closers[i]()
	}
	in.closers = nil
}
