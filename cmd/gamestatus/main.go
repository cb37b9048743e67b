package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gamestatus/gamestatus-bot/internal/bot"
	"github.com/gamestatus/gamestatus-bot/internal/config"
	"github.com/gamestatus/gamestatus-bot/internal/database"
	"github.com/gamestatus/gamestatus-bot/internal/gamequery"
	"github.com/gamestatus/gamestatus-bot/internal/health"
	"github.com/gamestatus/gamestatus-bot/internal/logging"
	"github.com/gamestatus/gamestatus-bot/internal/publisher"
	"github.com/gamestatus/gamestatus-bot/internal/registry"
	"github.com/gamestatus/gamestatus-bot/internal/scheduler"
)

const version = "v1.0.0"

func main() {
	config.Load()

	log := logging.New(config.LogLevel, config.LogFormat)
	log.Info().Str("version", version).Msg("starting gamestatus")

	if err := config.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	store, err := database.Open(config.StorageDriver, config.GetDatabaseConnectionString(), log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", config.StorageDriver).Msg("error initializing storage")
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := registry.Load(ctx, store, log)

	aggregator := health.NewAggregator(log)
	aggregator.Start(ctx, time.Duration(config.HealthFlushSeconds)*time.Second)

	session, err := bot.NewSession()
	if err != nil {
		log.Fatal().Err(err).Msg("error creating discord session")
	}

	queries := gamequery.NewClient(gamequery.DefaultCatalog(), config.QueryTimeout(), log)
	pub := publisher.New(reg, bot.NewChat(session, config.DiscordRatePerSecond, log), queries, log,
		publisher.WithAggregator(aggregator),
		publisher.WithDisplayHost(config.DisplayHost),
	)
	sched := scheduler.New(reg, pub, config.MonitorInterval(), log,
		scheduler.WithCycleTimeout(config.CycleTimeout()),
	)

	b := bot.New(session, sched, pub, reg, log)
	if err := b.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("error starting bot")
	}

	// Wait for a SIGINT or SIGTERM signal
	<-ctx.Done()
	log.Info().Msg("shutting down")

	b.Stop()
}
