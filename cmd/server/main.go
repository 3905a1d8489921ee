package main

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v3"

	"github.com/orthrauku-dev/yt-sus/internal/config"
	"github.com/orthrauku-dev/yt-sus/internal/db"
	"github.com/orthrauku-dev/yt-sus/internal/handler"
	"github.com/orthrauku-dev/yt-sus/internal/middleware"
	"github.com/orthrauku-dev/yt-sus/internal/repository"
	"github.com/orthrauku-dev/yt-sus/internal/router"
	"github.com/orthrauku-dev/yt-sus/internal/service"
)

func main() {
	cfg := config.LoadServer()
	middleware.InitLogger(cfg.LogLevel, "ytsus-api")

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer pool.Close()

	repo := repository.NewChannelRepo(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Fatalf("failed to ensure schema: %v", err)
	}

	cache := service.NewCacheService(cfg.RedisURL)
	defer cache.Close()

	handler.InitMetrics(pool)

	h := &router.Handlers{
		Channel: handler.NewChannelHandler(service.NewChannelService(repo, cache)),
		Vote:    handler.NewVoteHandler(service.NewVoteService(repo, cache, cfg.VoteThreshold), cfg.VoterSalt),
		Stats:   handler.NewStatsHandler(service.NewStatsService(repo)),
		Health:  handler.NewHealthHandler(pool, cache.Client()),
	}

	app := fiber.New(fiber.Config{
		AppName:      "ytsus API",
		ServerHeader: "ytsus",
	})
	router.Setup(app, h, cfg.CORSOrigins)

	log.Printf("ytsus API starting on :%s (env=%s, threshold=%d)", cfg.Port, cfg.Environment, cfg.VoteThreshold)
	log.Fatal(app.Listen(":" + cfg.Port))
}
