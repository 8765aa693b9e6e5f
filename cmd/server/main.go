package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"tripgate/internal/arrivalcard"
	"tripgate/internal/audit"
	"tripgate/internal/challenge"
	"tripgate/internal/entry"
	"tripgate/internal/funds"
	"tripgate/internal/jwttoken"
	"tripgate/internal/platform/config"
	"tripgate/internal/platform/httpserver"
	"tripgate/internal/platform/logger"
	"tripgate/internal/platform/metrics"
	platformredis "tripgate/internal/platform/redis"
	"tripgate/internal/profile"
	"tripgate/internal/remote"
	"tripgate/internal/submission"
	httptransport "tripgate/internal/transport/http"
	"tripgate/internal/traveler"
	"tripgate/migrations"
	"tripgate/pkg/platform/circuit"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stores: Postgres when configured, in-memory for local development.
	var (
		db           *sql.DB
		entryStore   entry.Store
		cardStore    arrivalcard.Store
		fundStore    funds.Store
		profileStore profile.Store
		auditStore   audit.Store
	)
	if cfg.DatabaseURL != "" {
		var err error
		db, err = sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		goose.SetBaseFS(migrations.Migrations)
		if err := goose.SetDialect("pgx"); err != nil {
			return err
		}
		if err := goose.UpContext(ctx, db, "."); err != nil {
			return err
		}
		entryStore = entry.NewPostgresStore(db)
		cardStore = arrivalcard.NewPostgresStore(db)
		fundStore = funds.NewPostgresStore(db)
		profileStore = profile.NewPostgresStore(db)
		auditStore = audit.NewPostgresStore(db)
	} else {
		log.Warn("TRIPGATE_DATABASE_URL not set, using in-memory stores")
		entryStore = entry.NewInMemoryStore()
		cardStore = arrivalcard.NewInMemoryStore()
		fundStore = funds.NewInMemoryStore()
		profileStore = profile.NewInMemoryStore()
		auditStore = audit.NewInMemoryStore()
	}

	redisClient, err := platformredis.Connect(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	var (
		sessions challenge.SessionStore
		locker   submission.Locker
	)
	if redisClient != nil {
		defer redisClient.Close()
		sessions = challenge.NewRedisSessionStore(redisClient.Client)
		locker = submission.NewRedisLocker(redisClient.Client)
	} else {
		log.Warn("TRIPGATE_REDIS_URL not set, challenge sessions and locks are process-local")
		sessions = challenge.NewInMemorySessionStore()
		locker = submission.NewLocalLocker()
	}

	// Audit: optional Kafka mirror behind the local store.
	var publisher audit.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := audit.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaAuditTopic)
		if err != nil {
			return err
		}
		defer kafka.Close()
		publisher = kafka
	}
	recorder := audit.NewRecorder(auditStore, publisher, log)
	recorderCtx, stopRecorder := context.WithCancel(context.Background())
	go recorder.Run(recorderCtx)
	defer func() {
		stopRecorder()
		recorder.Close()
	}()

	builder := traveler.NewBuilder(
		profile.NewAccessor(profileStore, fundStore),
		traveler.StaticRuleSource{Default: traveler.DefaultRuleSet()},
	)
	entryService := entry.NewService(entryStore, builder, log)
	fundService := funds.NewService(fundStore, log)
	submitter := submission.NewService(
		entryStore,
		builder,
		arrivalcard.NewGuard(cardStore, cfg.Submission.DuplicateLookback),
		cardStore,
		sessions,
		challenge.NewExtractor(log),
		remote.NewBreakerClient(
			remote.NewHTTPClient(cfg.RemoteBaseURL, cfg.RemoteTimeout),
			circuit.New("destination-gateway"),
			log,
		),
		recorder,
		locker,
		cfg.Submission,
		log,
		submission.NewMetrics(),
	)

	sweeper := entry.NewSweeper(entryStore, recorder, log, time.Hour, 90*24*time.Hour)
	go func() {
		if err := sweeper.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("sweeper stopped", slog.String("error", err.Error()))
		}
	}()

	validator := jwttoken.NewValidator(cfg.JWTSigningKey)
	checks := map[string]httptransport.HealthCheck{}
	if db != nil {
		checks["postgres"] = db.PingContext
	}
	if redisClient != nil {
		checks["redis"] = redisClient.Health
	}
	router := httptransport.NewRouter(log, metrics.New(), checks,
		httptransport.NewEntryHandler(entryService, submitter, cardStore, auditStore, validator, log),
		httptransport.NewChallengeHandler(sessions, entryService, validator, log),
		httptransport.NewFundsHandler(fundService, validator, log),
		httptransport.NewProfileHandler(profileStore, validator, log),
	)

	srv := httpserver.New(cfg.Addr, router)
	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", slog.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
