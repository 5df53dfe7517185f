package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/vitalmed/staff-registry/internal/core/service"
	"github.com/vitalmed/staff-registry/internal/infrastructure/config"
	mongodb "github.com/vitalmed/staff-registry/internal/infrastructure/db/mongo"
	redisdb "github.com/vitalmed/staff-registry/internal/infrastructure/db/redis"
	"github.com/vitalmed/staff-registry/internal/jobs"
	"github.com/vitalmed/staff-registry/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		logger.Init(logger.Options{}).Fatal().Err(err).Msg("load config")
	}

	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.Env == "development"})

	client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		log.Fatal().Err(err).Msg("connect mongo")
	}
	defer func() {
		if err := mongodb.Close(client); err != nil {
			log.Warn().Err(err).Msg("close mongo")
		}
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect redis")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Warn().Err(err).Msg("close redis")
		}
	}()

	users := mongodb.NewUserRepository(db)
	sessions := redisdb.NewSessionRegistry(rdb)
	tokens := service.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	// The purge job only sweeps storage, so it runs without the login
	// throttle and the activity trail.
	auth := service.NewAuthService(users, sessions, tokens, nil, nil, log.With().Str("component", "auth").Logger())

	purge := jobs.NewPurgeResetTokensJob(auth, log.With().Str("component", "jobs").Logger())

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		Concurrency: cfg.Worker.Concurrency,
		Logger:      log,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskPurgeResetTokens, Handler: purge.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.Worker.PurgeSchedule, Task: jobs.NewPurgeResetTokensTask()},
		},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("build worker")
	}

	log.Info().Int("concurrency", cfg.Worker.Concurrency).Str("purge_schedule", cfg.Worker.PurgeSchedule).Msg("starting worker")
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("worker stopped")
	}
}
