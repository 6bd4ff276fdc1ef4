package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"

	compliancehandler "listingwatch/internal/compliance/handler"
	compliancemetrics "listingwatch/internal/compliance/metrics"
	"listingwatch/internal/compliance/outbox"
	"listingwatch/internal/compliance/service"
	"listingwatch/internal/compliance/store"
	"listingwatch/internal/platform/config"
	"listingwatch/internal/platform/httpserver"
	"listingwatch/internal/platform/kafka"
	"listingwatch/internal/platform/logger"
	"listingwatch/internal/platform/metrics"
	"listingwatch/internal/platform/postgres"
	platformredis "listingwatch/internal/platform/redis"
	"listingwatch/internal/registry"
	"listingwatch/pkg/platform/httputil"
)

const shutdownTimeout = 10 * time.Second

// main wires configuration, storage and the HTTP router. Business logic lives
// in internal/compliance.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Server.Env, cfg.Server.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("listingwatch stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Threshold coverage errors surface here and abort startup.
	reg, err := registry.Load(cfg.Compliance.ReferenceDataFile)
	if err != nil {
		return fmt.Errorf("load reference data: %w", err)
	}

	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	var (
		graph store.Store
		tx    store.Tx
	)
	if db != nil {
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			return err
		}
		if err := postgres.SeedReferenceData(ctx, db, reg); err != nil {
			return err
		}
		graph = store.NewPostgres(db)
		tx = newCompliancePostgresTx(db, cfg.Compliance.TxTimeout)
		log.Info("using postgres compliance store")
	} else {
		mem := store.NewInMemory().WithTimeout(cfg.Compliance.TxTimeout)
		graph, tx = mem, mem
		log.Warn("DATABASE_URL not set, using in-memory compliance store")
	}

	redisClient, err := platformredis.Open(ctx, cfg.Redis)
	if err != nil {
		return err
	}

	complianceMetrics := compliancemetrics.New()
	opts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(complianceMetrics),
		service.WithBatchConcurrency(cfg.Compliance.BatchConcurrency),
	}
	if redisClient != nil {
		defer redisClient.Close()
		opts = append(opts, service.WithCache(
			store.NewRedisCheckCache(redisClient, store.WithCacheTTL(cfg.Compliance.CheckCacheTTL)),
		))
		log.Info("check cache enabled", "ttl", cfg.Compliance.CheckCacheTTL.String())
	}
	svc := service.New(reg, graph, tx, opts...)

	producer, err := kafka.NewProducer(cfg.Kafka)
	if err != nil {
		return err
	}
	if producer != nil {
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := producer.Close(closeCtx); err != nil {
				log.Warn("kafka producer flush failed", "error", err)
			}
		}()
		if err := producer.EnsureTopic(ctx, 3, 1); err != nil {
			log.Warn("could not ensure complaint pack topic", "error", err)
		}
		relay := outbox.New(graph, producer,
			outbox.WithPollInterval(cfg.Kafka.OutboxPollInterval),
			outbox.WithBatchSize(cfg.Kafka.OutboxBatchSize),
			outbox.WithLogger(log),
			outbox.WithMetrics(complianceMetrics),
		)
		go func() {
			if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("outbox relay stopped", "error", err)
			}
		}()
		log.Info("complaint pack relay started", "topic", cfg.Kafka.ComplaintPackTopic)
	}

	r := chi.NewRouter()
	r.Get("/healthz", healthHandler(db, redisClient))
	r.Handle("/metrics", promhttp.Handler())
	compliancehandler.New(svc, log, metrics.New()).Register(r)

	srv := httpserver.New(cfg.Server.Addr, r)
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting listingwatch", "addr", cfg.Server.Addr, "env", cfg.Server.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// healthHandler reports 503 when a configured dependency is unreachable.
func healthHandler(db *sql.DB, redisClient *goredis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := map[string]string{"status": "ok"}
		code := http.StatusOK
		if db != nil {
			if err := db.PingContext(ctx); err != nil {
				status["postgres"] = "unreachable"
				code = http.StatusServiceUnavailable
			}
		}
		if redisClient != nil {
			if err := redisClient.Ping(ctx).Err(); err != nil {
				status["redis"] = "unreachable"
				code = http.StatusServiceUnavailable
			}
		}
		if code != http.StatusOK {
			status["status"] = "degraded"
		}
		httputil.WriteJSON(w, code, status)
	}
}
