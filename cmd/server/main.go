// Command server runs the patrimonio API: community reporting of
// archaeological sites, the review pipeline, and the visibility-filtered map.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"patrimonio/internal/audit"
	"patrimonio/internal/mapapi"
	mapmetrics "patrimonio/internal/mapapi/metrics"
	"patrimonio/internal/maprender"
	"patrimonio/internal/platform/config"
	"patrimonio/internal/platform/httpserver"
	"patrimonio/internal/platform/logger"
	platformmetrics "patrimonio/internal/platform/metrics"
	"patrimonio/internal/platform/redis"
	"patrimonio/internal/report"
	reporthandler "patrimonio/internal/report/handler"
	reportmetrics "patrimonio/internal/report/metrics"
	"patrimonio/internal/token"
	httptransport "patrimonio/internal/transport/http"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stores. Without a database URL everything lives in process memory,
	// which only makes sense for local development.
	var (
		reportStore report.Store
		auditStore  audit.Store
	)
	checks := map[string]httptransport.HealthChecker{}
	if cfg.Database.URL != "" {
		db, err := sql.Open("postgres", cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("ping database: %w", err)
		}
		reportStore = report.NewPostgres(db)
		auditStore = audit.NewPostgres(db)
		checks["database"] = dbChecker{db}
	} else {
		log.Warn("no DATABASE_URL configured, using in-memory stores")
		reportStore = report.NewInMemoryStore()
		auditStore = audit.NewInMemoryStore()
	}

	// Offset cache. Redis keeps fuzzy offsets session-stable across
	// instances; without it each instance memoizes locally.
	var offsets maprender.OffsetCache = maprender.NewInMemoryOffsetCache()
	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		offsets = maprender.NewRedisOffsetCache(redisClient.Client, cfg.Map.OffsetTTL)
		checks["redis"] = redisClient
	}

	// Audit pipeline: synchronous store writes, plus an optional Kafka
	// stream drained by a background worker.
	sink, err := audit.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
	if err != nil {
		return fmt.Errorf("connect kafka: %w", err)
	}
	var outbox chan audit.Event
	if sink != nil {
		defer sink.Close()
		outbox = make(chan audit.Event, 256)
	}
	auditPublisher := audit.NewPublisher(auditStore, outbox, log)

	reportService, err := report.NewService(reportStore, auditPublisher, reportmetrics.New(), log)
	if err != nil {
		return fmt.Errorf("build report service: %w", err)
	}

	generator := maprender.NewGenerator(maprender.FuzzyRadiusMeters, rand.NewSource(time.Now().UnixNano()))
	mapService, err := mapapi.NewService(reportStore, offsets, generator, mapmetrics.New(), log)
	if err != nil {
		return fmt.Errorf("build map service: %w", err)
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Reports:   reporthandler.New(reportService, log),
		Map:       mapapi.NewHandler(mapService, log),
		Validator: token.NewService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, cfg.Auth.Audience),
		HTTP:      platformmetrics.NewHTTP(),
		Logger:    log,
		Checks:    checks,
	})
	srv := httpserver.New(cfg.Server.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if sink != nil {
		worker := audit.NewWorker(sink, outbox, log)
		g.Go(func() error {
			if err := worker.Run(ctx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("server stopped")
	return nil
}

type dbChecker struct{ db *sql.DB }

func (c dbChecker) Health(ctx context.Context) error {
	return c.db.PingContext(ctx)
}
