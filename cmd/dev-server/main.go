package main

import (
	"context"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/yabdellah/live-cli-chat/pkg/chat"
	"github.com/yabdellah/live-cli-chat/pkg/gateway"
	"github.com/yabdellah/live-cli-chat/pkg/identity"
	"github.com/yabdellah/live-cli-chat/pkg/log"
)

// Temporary redis backend for development: boots an embedded server and
// seeds a demo account and chat so the client has something to show.
func main() {
	log.Init(log.Config{Level: "info", Pretty: true})
	logger := log.L()

	mr, err := miniredis.Run()
	if err != nil {
		logger.Fatal().Err(err).Msg("error creating redis db")
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("cannot connect to redis db")
	}

	gw := gateway.NewRedisGateway(client, logger)
	provider := identity.NewRedisProvider(client, gw, "insecure-dev-secret", 0, logger)
	if _, err := provider.SignUp(ctx, "demo@example.com", "password", "demo"); err != nil {
		logger.Fatal().Err(err).Msg("failed to seed demo account")
	}

	roster := chat.NewRoster(gw, logger)
	if err := roster.CreateChat(ctx, "general", "0000"); err != nil {
		logger.Fatal().Err(err).Msg("failed to seed demo chat")
	}

	logger.Info().Str("address", mr.Addr()).Msg("dev backend ready, point REDIS_ADDRESS at it")
	logger.Info().Msg("demo account: demo@example.com / password")
	select {}
}
