package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KirkDiggler/hotdice/internal/common/clock"
	"github.com/KirkDiggler/hotdice/internal/common/logging"
	"github.com/KirkDiggler/hotdice/internal/common/uuid"
	"github.com/KirkDiggler/hotdice/internal/config"
	"github.com/KirkDiggler/hotdice/internal/dice"
	"github.com/KirkDiggler/hotdice/internal/handlers/discord"
	"github.com/KirkDiggler/hotdice/internal/handlers/httpapi"
	"github.com/KirkDiggler/hotdice/internal/metrics"
	"github.com/KirkDiggler/hotdice/internal/realtime"
	"github.com/KirkDiggler/hotdice/internal/repositories/history"
	"github.com/KirkDiggler/hotdice/internal/repositories/lobby"
	gameService "github.com/KirkDiggler/hotdice/internal/services/game"
	"github.com/KirkDiggler/hotdice/internal/services/live"
	"github.com/KirkDiggler/hotdice/internal/services/messaging"
	"github.com/KirkDiggler/hotdice/internal/turn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(&logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("hotdice stopped", zap.Error(err))
	}
	logger.Info("hotdice has been shut down")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisClient.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err := redisClient.Ping(ctx).Err()
	cancel()
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m, err := metrics.New(registry)
	if err != nil {
		return err
	}

	// Initialize repositories
	clk := clock.New()
	lobbyRepo, err := lobby.NewRedis(&lobby.Config{
		RedisClient: redisClient,
		Clock:       clk,
		Logger:      logger.Named("lobby"),
	})
	if err != nil {
		return err
	}
	historyRepo, err := history.NewRedis(&history.Config{
		RedisClient: redisClient,
	})
	if err != nil {
		return err
	}

	// Live sync is built first so the game service can show planned
	// actions through the hub
	channel, err := realtime.New(&realtime.Config{
		Repository:   lobbyRepo,
		PollInterval: cfg.PollInterval,
		PushRetry:    cfg.PushRetry,
		Clock:        clk,
		Logger:       logger.Named("realtime"),
		Metrics:      m,
	})
	if err != nil {
		return err
	}
	defer channel.Close()

	hub, err := live.New(&live.Config{
		Subscriber:     channel,
		ConfirmTimeout: cfg.ConfirmTimeout,
		Clock:          clk,
		Logger:         logger.Named("live"),
		Metrics:        m,
	})
	if err != nil {
		return err
	}
	defer hub.Close()

	// Initialize services
	roller := dice.New(&dice.Config{Seed: cfg.DiceSeed})
	machine, err := turn.New(&turn.Config{Roller: roller})
	if err != nil {
		return err
	}
	gameSvc, err := gameService.New(&gameService.Config{
		LobbyRepo:     lobbyRepo,
		HistoryRepo:   historyRepo,
		Machine:       machine,
		Clock:         clk,
		UUIDGenerator: uuid.New(),
		Logger:        logger.Named("game"),
		Metrics:       m,
		Overlay:       hub,
		MaxAttempts:   cfg.ConflictRetries,
	})
	if err != nil {
		return err
	}
	messagingSvc, err := messaging.New(&messaging.Config{Roller: roller})
	if err != nil {
		return err
	}

	errs := make(chan error, 1)

	var server *http.Server
	if cfg.HTTPAddr != "" {
		api, err := httpapi.New(&httpapi.Config{
			GameService:      gameSvc,
			MessagingService: messagingSvc,
			Feed:             hub,
			Gatherer:         registry,
			AllowedOrigin:    cfg.AllowedOrigin,
			Logger:           logger.Named("http"),
		})
		if err != nil {
			return err
		}
		server = &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           api.Routes(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("http api listening", zap.String("addr", cfg.HTTPAddr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errs <- err
			}
		}()
	}

	var bot *discord.Bot
	if cfg.DiscordToken != "" {
		bot, err = discord.New(&discord.Config{
			Token:            cfg.DiscordToken,
			ApplicationID:    cfg.ApplicationID,
			GuildID:          cfg.GuildID,
			GameService:      gameSvc,
			MessagingService: messagingSvc,
			Feed:             hub,
			Machine:          machine,
			Logger:           logger.Named("discord"),
		})
		if err != nil {
			return err
		}
		if err := bot.Start(); err != nil {
			return err
		}
	}

	// Wait for interrupt signal to gracefully shutdown
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	select {
	case <-sc:
	case err = <-errs:
	}

	logger.Info("shutting down")
	if bot != nil {
		if stopErr := bot.Stop(); stopErr != nil {
			logger.Warn("error stopping bot", zap.Error(stopErr))
		}
	}
	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if stopErr := server.Shutdown(shutdownCtx); stopErr != nil {
			logger.Warn("error stopping http server", zap.Error(stopErr))
		}
	}
	return err
}
