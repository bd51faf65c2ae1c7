package main

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/yabdellah/live-cli-chat/pkg/config"
	"github.com/yabdellah/live-cli-chat/pkg/gateway"
	"github.com/yabdellah/live-cli-chat/pkg/identity"
	"github.com/yabdellah/live-cli-chat/pkg/log"
	"github.com/yabdellah/live-cli-chat/pkg/ui"
)

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		l := log.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}
	log.Init(cfg.Log)
	logger := log.L().With().Str("instance", uuid.NewString()).Logger()

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Fatal().Err(err).Str("address", cfg.Redis.Address).Msg("cannot connect to sync backend")
	}

	gw := gateway.NewRedisGateway(client, logger)
	provider := identity.NewRedisProvider(client, gw, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, logger)

	logger.Info().Str("address", cfg.Redis.Address).Msg("starting chat client")
	app := ui.New(context.Background(), gw, provider, logger)
	if err := app.Run(); err != nil {
		logger.Fatal().Err(err).Msg("terminal application failed")
	}
}
