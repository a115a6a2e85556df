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

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"tradelane/internal/audit"
	doccache "tradelane/internal/document/cache"
	dochandler "tradelane/internal/document/handler"
	docmetrics "tradelane/internal/document/metrics"
	docservice "tradelane/internal/document/service"
	docstore "tradelane/internal/document/store"
	exphandler "tradelane/internal/exporter/handler"
	expmetrics "tradelane/internal/exporter/metrics"
	expservice "tradelane/internal/exporter/service"
	expstore "tradelane/internal/exporter/store"
	"tradelane/internal/jwt_token"
	"tradelane/internal/platform/config"
	"tradelane/internal/platform/httpserver"
	"tradelane/internal/platform/logger"
	"tradelane/internal/platform/middleware"
	platformredis "tradelane/internal/platform/redis"
	httptransport "tradelane/internal/transport/http"
	"tradelane/migrations"
	"tradelane/pkg/domain"
	"tradelane/pkg/platform/tx"
)

// main wires the registries' dependencies and keeps the server lifecycle
// small. Business logic lives in the internal service packages.
func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	admin := domain.Principal(cfg.AdminPrincipal)

	// Storage. With a database URL the registries share one Postgres pool and
	// a serializable transaction runner; without one everything lives in
	// process memory behind a mutex runner.
	var (
		documentStore docservice.DocumentStore
		exporterStore expservice.ExporterStore
		runner        tx.Runner
	)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("ping database: %w", err)
		}
		if err := migrations.Apply(ctx, db); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}

		pgExporters := expstore.NewPostgres(db)
		if err := pgExporters.SeedAdmin(ctx, admin); err != nil {
			return fmt.Errorf("seed registry admin: %w", err)
		}

		documentStore = docstore.NewPostgres(db)
		exporterStore = pgExporters
		runner = tx.NewSQL(db)
		log.Info("storage configured", "backend", "postgres")
	} else {
		documentStore = docstore.NewInMemory()
		exporterStore = expstore.NewInMemory(admin)
		runner = tx.NewMemory()
		log.Info("storage configured", "backend", "memory")
	}

	// Audit trail. With brokers configured events flow through a background
	// worker into Kafka; otherwise they land in the in-memory store.
	var (
		auditPublisher docservice.AuditPublisher
		auditWorker    *audit.Worker
		kafkaStore     *audit.KafkaStore
	)
	if len(cfg.Kafka.Brokers) > 0 {
		store, err := audit.NewKafkaStore(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return fmt.Errorf("create kafka audit store: %w", err)
		}
		kafkaStore = store
		inbox := make(chan audit.Event, 256)
		auditPublisher = audit.NewAsyncPublisher(inbox)
		auditWorker = audit.NewWorker(store, inbox, log)
		log.Info("audit configured", "sink", "kafka", "topic", cfg.Kafka.Topic)
	} else {
		auditPublisher = audit.NewPublisher(audit.NewInMemory())
		log.Info("audit configured", "sink", "memory")
	}

	documentOpts := []docservice.Option{
		docservice.WithLogger(log),
		docservice.WithAuditPublisher(auditPublisher),
		docservice.WithMetrics(docmetrics.New()),
	}

	// Optional document cache.
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		documentOpts = append(documentOpts,
			docservice.WithCache(doccache.NewRedis(redisClient.Client, cfg.DocumentCacheTTL)))
		log.Info("document cache configured", "ttl", cfg.DocumentCacheTTL)
	}

	documentService := docservice.New(documentStore, runner, documentOpts...)
	exporterService := expservice.New(exporterStore, runner,
		expservice.WithLogger(log),
		expservice.WithAuditPublisher(auditPublisher),
		expservice.WithMetrics(expmetrics.New()),
	)

	validator := jwt_token.NewValidator(cfg.JWTSigningKey)
	requireAuth := middleware.RequireAuth(validator, log)

	router := httptransport.NewRouter(log, requireAuth,
		dochandler.New(documentService, log),
		exphandler.New(exporterService, log),
	)
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	if auditWorker != nil {
		g.Go(func() error {
			if err := auditWorker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("audit worker: %w", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		if kafkaStore != nil {
			if err := kafkaStore.Close(shutdownCtx); err != nil {
				log.Error("kafka close failed", "error", err)
			}
		}
		return nil
	})

	return g.Wait()
}
