package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taskhub/platform/internal/api"
	"github.com/taskhub/platform/internal/api/handler"
	"github.com/taskhub/platform/internal/core/service"
	"github.com/taskhub/platform/internal/core/token"
	mongostore "github.com/taskhub/platform/internal/infrastructure/db/mongo"
	redisstore "github.com/taskhub/platform/internal/infrastructure/db/redis"
	"github.com/taskhub/platform/internal/infrastructure/identity"
	"github.com/taskhub/platform/internal/pkg/config"
	"github.com/taskhub/platform/pkg/logger"
)

func main() {
	cfg := config.MustLoad[config.TaskConfig]()
	logger.Init(logger.Options{Service: "tasks", Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	codec, err := token.NewCodec(cfg.JWTSecret)
	if err != nil {
		log.Fatal().Err(err).Msg("token codec")
	}

	mongoClient, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoClient.Disconnect(disconnectCtx); err != nil {
			log.Error().Err(err).Msg("mongo disconnect")
		}
	}()

	rdb, err := redisstore.Connect(ctx, redisstore.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err != nil {
		log.Fatal().Err(err).Msg("redis")
	}
	defer rdb.Close()

	tasks := mongostore.NewTaskRepository(db)
	if err := tasks.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("mongo indexes")
	}

	lookup := identity.NewClient(cfg.IdentityURL, &http.Client{
		Transport: &http.Transport{
			MaxIdleConnsPerHost: 32,
			IdleConnTimeout:     90 * time.Second,
		},
	})

	e := api.NewTaskRouter(api.TaskDeps{
		Verifier: token.NewVerifier(codec, nil),
		Tasks:    service.NewTaskService(tasks, redisstore.NewIdempotencyStore(rdb), log),
		Resolver: service.NewIdentityResolver(codec, lookup, cfg.LookupTimeout, log),
		Health:   []handler.Pinger{mongostore.NewPinger(db), redisstore.NewPinger(rdb)},
		Log:      log,
	})

	log.Info().
		Str("env", cfg.Env).
		Str("identity_url", cfg.IdentityURL).
		Dur("lookup_timeout", cfg.LookupTimeout).
		Msg("task service starting")
	if err := api.Serve(ctx, e, cfg.Port, log); err != nil {
		log.Error().Err(err).Msg("task service stopped")
	}
}
