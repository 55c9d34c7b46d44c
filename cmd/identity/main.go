// @title                       taskhub API
// @version                     1.0
// @description                 Identity and task services behind the taskhub gateway.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the token.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taskhub/platform/internal/api"
	"github.com/taskhub/platform/internal/api/handler"
	"github.com/taskhub/platform/internal/core/service"
	"github.com/taskhub/platform/internal/core/token"
	mongostore "github.com/taskhub/platform/internal/infrastructure/db/mongo"
	"github.com/taskhub/platform/internal/pkg/config"
	"github.com/taskhub/platform/pkg/logger"
)

func main() {
	cfg := config.MustLoad[config.IdentityConfig]()
	logger.Init(logger.Options{Service: "identity", Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	codec, err := token.NewCodec(cfg.JWTSecret)
	if err != nil {
		log.Fatal().Err(err).Msg("token codec")
	}

	client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(disconnectCtx); err != nil {
			log.Error().Err(err).Msg("mongo disconnect")
		}
	}()

	users := mongostore.NewAuthRepository(db)
	if err := users.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("mongo indexes")
	}

	e := api.NewIdentityRouter(api.IdentityDeps{
		Verifier: token.NewVerifier(codec, nil),
		Auth:     service.NewAuthService(users, codec, log),
		Users:    service.NewUserService(users, log),
		Health:   []handler.Pinger{mongostore.NewPinger(db)},
		Log:      log,
	})

	log.Info().Str("env", cfg.Env).Str("mongo_db", cfg.Mongo.Database).Msg("identity service starting")
	if err := api.Serve(ctx, e, cfg.Port, log); err != nil {
		log.Error().Err(err).Msg("identity service stopped")
	}
}
