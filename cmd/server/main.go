package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	auditstore "teampulse/internal/audit"
	"teampulse/internal/directory"
	exportservice "teampulse/internal/export"
	exporthandler "teampulse/internal/export/handler"
	"teampulse/internal/export/ratelimit"
	feedbackhandler "teampulse/internal/feedback/handler"
	"teampulse/internal/feedback/scope"
	feedbackservice "teampulse/internal/feedback/service"
	feedbackstore "teampulse/internal/feedback/store"
	"teampulse/internal/jwttoken"
	"teampulse/internal/platform/config"
	"teampulse/internal/platform/httpserver"
	"teampulse/internal/platform/logger"
	"teampulse/internal/platform/metrics"
	httptransport "teampulse/internal/transport/http"
	"teampulse/migrations"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	stores := feedbackservice.Stores{
		Feedback: feedbackstore.NewInMemoryStore(),
		Audit:    auditstore.NewInMemoryStore(),
	}
	var (
		dir directory.Directory = directory.NewInMemoryDirectory()
		tx  feedbackservice.StoreTx
	)

	if cfg.PostgresDSN != "" {
		db, err := openPostgres(cfg.PostgresDSN)
		if err != nil {
			log.Error("failed to open postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := migrate(db); err != nil {
			log.Error("failed to apply migrations", "error", err)
			os.Exit(1)
		}
		stores = feedbackservice.Stores{
			Feedback: feedbackstore.NewPostgres(db),
			Audit:    auditstore.NewPostgres(db),
		}
		dir = directory.NewPostgresDirectory(db)
		tx = newFeedbackPostgresTx(db)
		log.Info("storage backend ready", "backend", "postgres")
	} else {
		log.Warn("TEAMPULSE_POSTGRES_DSN not set; using in-memory storage")
	}

	resolver := scope.NewResolver(dir)
	feedback := feedbackservice.New(stores, resolver, tx,
		feedbackservice.WithLogger(log),
		feedbackservice.WithMetrics(m),
	)

	var counters ratelimit.CounterStore = ratelimit.NewInMemoryCounterStore()
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Error("failed to parse redis url", "error", err)
			os.Exit(1)
		}
		counters = ratelimit.NewRedisCounterStore(redis.NewClient(redisOpts))
		log.Info("export counters ready", "backend", "redis")
	}
	limiter := ratelimit.New(counters, cfg.ExportWindowLimit, cfg.ExportWindow)
	exporter := exportservice.New(feedback, limiter,
		exportservice.WithLogger(log),
		exportservice.WithMetrics(m),
	)

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, "teampulse")
	router := httptransport.NewRouter(log, m, jwtService,
		feedbackhandler.New(feedback, log),
		exporthandler.New(exporter, log),
	)

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting teampulse", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func openPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

func migrate(db *sql.DB) error {
	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	results, err := provider.Up(ctx)
	if err != nil {
		return err
	}
	for _, result := range results {
		slog.Info("applied migration", "source", result.Source.Path)
	}
	return nil
}
