package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/vitalmed/staff-registry/internal/api"
	"github.com/vitalmed/staff-registry/internal/core/service"
	"github.com/vitalmed/staff-registry/internal/infrastructure/config"
	mongodb "github.com/vitalmed/staff-registry/internal/infrastructure/db/mongo"
	redisdb "github.com/vitalmed/staff-registry/internal/infrastructure/db/redis"
	"github.com/vitalmed/staff-registry/internal/infrastructure/queue"
	"github.com/vitalmed/staff-registry/pkg/logger"
)

// @title Staff Registry API
// @version 1.0
// @description Authentication, accounts, and the doctor directory for hospital deployments.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// A missing .env file is fine; real deployments set the environment.
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

	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("ensure indexes")
	}

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

	// The activity trail is written off the request path by a small
	// sharded worker pool. Its workers stop with the server context.
	auditService := service.NewAuditService(mongodb.NewAuditRepository(db), log.With().Str("component", "audit").Logger())
	audit := queue.NewDispatcher(0, auditService, log.With().Str("component", "audit").Logger())
	audit.Start(ctx)

	e := api.NewRouter(db, rdb, api.RouterConfig{JWTSecret: cfg.JWTSecret, TokenTTL: cfg.TokenTTL}, audit, log)

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("starting http server")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown")
	}
}
