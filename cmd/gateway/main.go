package main

import (
	"context"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/taskhub/platform/internal/api"
	"github.com/taskhub/platform/internal/core/token"
	"github.com/taskhub/platform/internal/pkg/config"
	"github.com/taskhub/platform/pkg/logger"
)

func main() {
	cfg := config.MustLoad[config.GatewayConfig]()
	logger.Init(logger.Options{Service: "gateway", Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	log := logger.Get()

	codec, err := token.NewCodec(cfg.JWTSecret)
	if err != nil {
		log.Fatal().Err(err).Msg("token codec")
	}

	identityURLs, err := parseURLs(cfg.IdentityURLs)
	if err != nil {
		log.Fatal().Err(err).Msg("GATEWAY_IDENTITY_URLS")
	}
	taskURLs, err := parseURLs(cfg.TaskURLs)
	if err != nil {
		log.Fatal().Err(err).Msg("GATEWAY_TASK_URLS")
	}

	e := api.NewGatewayRouter(api.GatewayDeps{
		Verifier:     token.NewVerifier(codec, nil),
		IdentityURLs: identityURLs,
		TaskURLs:     taskURLs,
		Log:          log,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("env", cfg.Env).Int("identity_backends", len(identityURLs)).Int("task_backends", len(taskURLs)).Msg("gateway starting")
	if err := api.Serve(ctx, e, cfg.Port, log); err != nil {
		log.Fatal().Err(err).Msg("gateway stopped")
	}
}

func parseURLs(raw []string) ([]*url.URL, error) {
	out := make([]*url.URL, 0, len(raw))
	for _, r := range raw {
		u, err := url.Parse(r)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}
