package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Freeeeeet/campus_scheduler/internal/app"
	"github.com/Freeeeeet/campus_scheduler/internal/cache"
	"github.com/Freeeeeet/campus_scheduler/internal/config"
	"github.com/Freeeeeet/campus_scheduler/internal/controller/httpapi"
	"github.com/Freeeeeet/campus_scheduler/internal/controller/telegram"
	"github.com/Freeeeeet/campus_scheduler/internal/events"
	"github.com/Freeeeeet/campus_scheduler/internal/identity"
	"github.com/Freeeeeet/campus_scheduler/internal/notify"
	"github.com/Freeeeeet/campus_scheduler/internal/repository"
	"github.com/Freeeeeet/campus_scheduler/internal/service"
	"github.com/Freeeeeet/campus_scheduler/internal/store"
	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment, cfg.LogLevel)
	defer logger.Sync()

	logger.Info("Starting campus scheduler",
		zap.String("environment", cfg.Environment),
		zap.String("store", cfg.StoreDriver),
		zap.String("timezone", cfg.Timezone))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Server stopped with error", zap.Error(err))
	}
	logger.Info("Server stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) (err error) {
	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			err = multierr.Append(err, closers[i].Close())
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	st, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		cancel()
		return err
	}
	// слушатель держит соединение пула до отмены ctx
	defer func() {
		cancel()
		closeStore()
	}()

	users := repository.NewUserRepository(st)
	identityService := identity.NewService(
		repository.NewCredentialRepository(st),
		repository.NewSessionRepository(st),
		cfg.JWTSecret,
		cfg.SessionTTL,
		logger,
	)

	var directoryCache cache.Cache
	if cfg.RedisURL != "" {
		redisCache, err := cache.NewRedisCache(ctx, cfg.RedisURL, "campus:", logger)
		if err != nil {
			return err
		}
		closers = append(closers, redisCache)
		directoryCache = redisCache
		logger.Info("Using Redis directory cache")
	} else {
		lruCache, err := cache.NewLRUCache(cfg.CacheSize)
		if err != nil {
			return err
		}
		directoryCache = lruCache
	}

	var publisher events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		closers = append(closers, kafkaPublisher)
		publisher = kafkaPublisher
		logger.Info("Publishing appointment events to Kafka", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	}

	var notifier notify.Notifier = notify.Nop{}
	var botInstance *bot.Bot
	if cfg.TelegramToken != "" {
		botInstance, err = bot.New(cfg.TelegramToken)
		if err != nil {
			return fmt.Errorf("create telegram bot: %w", err)
		}
		notifier = notify.NewTelegramNotifier(botInstance, logger)
	}

	validator := service.NewValidator()
	directory := service.NewDirectoryCache(directoryCache, cfg.DirectoryCacheTTL, logger)
	loc := cfg.Location()

	accounts := service.NewAccountService(users, identityService, directory, validator, logger)
	availability := service.NewAvailabilityService(users, directory, validator, logger)
	bookings := service.NewBookingService(users, repository.NewAppointmentRepository(st), notifier, publisher, validator, loc, logger)
	messages := service.NewMessageService(users, repository.NewMessageRepository(st), notifier, logger)

	if cfg.AdminEmail != "" {
		admin, err := accounts.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword, cfg.AdminName)
		if err != nil {
			return err
		}
		logger.Info("Admin account ready", zap.String("account_id", admin.ID))
	}

	if botInstance != nil {
		botController := telegram.NewBotController(botInstance, accounts, bookings, logger)
		if err := botController.RegisterHandlers(ctx); err != nil {
			logger.Warn("Telegram commands menu not set", zap.Error(err))
		}
		go botController.Start(ctx)
	}

	scheduler := app.NewScheduler(accounts, cfg.DirectoryRefreshInterval, logger)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	server := &http.Server{
		Addr:              net.JoinHostPort("", cfg.HTTPPort),
		Handler:           httpapi.NewHandler(accounts, availability, bookings, messages, loc, logger).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// openStore postgres с миграциями и слушателем изменений либо память для разработки
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (store.Store, func(), error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		logger.Warn("Using in-memory store, data is lost on restart")
		return store.NewMemoryStore(), func() {}, nil
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DBDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("parse DB_DSN: %w", err)
	}
	poolConfig.MaxConns = cfg.DBMaxConns

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}

	if cfg.DBAutoMigrate {
		migrator, err := app.NewMigrator(pool, logger)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		err = multierr.Append(migrator.Run(ctx), migrator.Close())
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
	}

	pg := store.NewPostgresStore(pool)
	go store.NewListener(pool, pg, logger).Run(ctx)
	return pg, pool.Close, nil
}
