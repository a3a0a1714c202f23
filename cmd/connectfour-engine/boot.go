package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"connectfour-engine/internal/bus"
	"connectfour-engine/internal/command"
	"connectfour-engine/internal/config"
	"connectfour-engine/internal/logging"
	"connectfour-engine/internal/relay"
	"connectfour-engine/internal/scheduler"
	"connectfour-engine/internal/store"
)

// app is every long-lived dependency a run subcommand or admin one-shot
// needs, wired once at the worker-boot boundary (spec.md §9) rather than
// through a DI container or package-level singleton.
type app struct {
	cfg        *config.Config
	logger     *zap.Logger
	store      *store.Store
	scheduler  *scheduler.Scheduler
	bus        *bus.Bus
	relay      *relay.Relay
	processors *command.Processors
}

func bootApp(ctx context.Context) (*app, error) {
	cfg := config.Load()

	logger, err := logging.New(cfg.LoggingMode, cfg.LoggingLevel)
	if err != nil {
		return nil, fmt.Errorf("boot: logger: %w", err)
	}

	redisClient, err := store.NewRedisClient(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("boot: redis: %w", err)
	}

	gameStore := store.New(redisClient, cfg.GameExpiresIn, cfg.LockExpiresIn)
	taskScheduler := scheduler.New(redisClient)

	eventBus, err := bus.Connect(ctx, cfg.NATSURL, cfg.NATSStreamName)
	if err != nil {
		return nil, fmt.Errorf("boot: bus: %w", err)
	}

	realtimeRelay := relay.New(cfg.CentrifugoURL, cfg.CentrifugoAPIKey)

	processors := command.New(gameStore, taskScheduler, eventBus, realtimeRelay, logger)

	return &app{
		cfg:        cfg,
		logger:     logger,
		store:      gameStore,
		scheduler:  taskScheduler,
		bus:        eventBus,
		relay:      realtimeRelay,
		processors: processors,
	}, nil
}

