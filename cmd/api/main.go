package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	_ "github.com/redmonkez12/accounts-api/docs" // Swagger docs
	"github.com/redmonkez12/accounts-api/internal/auth"
	"github.com/redmonkez12/accounts-api/internal/config"
	"github.com/redmonkez12/accounts-api/internal/database"
	httpServer "github.com/redmonkez12/accounts-api/internal/http"
	"github.com/redmonkez12/accounts-api/internal/logging"
	"github.com/redmonkez12/accounts-api/internal/metrics"
	"github.com/redmonkez12/accounts-api/internal/user"
)

// @title           Accounts API
// @version         1.0
// @description     User accounts with opaque token authentication.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey TokenAuth
// @in header
// @name Authorization
// @description Type "Token" followed by a space and the token key.

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
		"storage", cfg.Database.Backend,
		"redis", cfg.Redis.Enabled,
	)

	metrics.MustRegister()

	// Cancelled on SIGINT/SIGTERM so a pending database wait can be interrupted
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	userRepo, tokenRepo, closeStorage, err := initStorage(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer closeStorage()

	var tokenCache auth.TokenCache
	if cfg.Redis.Enabled {
		redisClient, err := initRedis(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to initialize Redis: %w", err)
		}
		defer redisClient.Close()
		tokenCache = auth.NewRedisTokenCache(redisClient, cfg.Redis.TokenCacheTTL)
	}

	userStore := user.NewStore(userRepo)
	authService := auth.NewService(userStore, tokenRepo, tokenCache, logger)

	authHandler := auth.NewHandler(authService, userStore)
	authMiddleware := auth.NewMiddleware(authService)

	router := httpServer.NewRouter(cfg, authHandler, authMiddleware, logger)

	server := httpServer.NewServer(
		":"+cfg.Server.Port,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
		logger,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		logger.Info("received shutdown signal")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// initStorage builds the repositories for the configured backend
func initStorage(ctx context.Context, cfg config.DatabaseConfig, logger *logging.Logger) (user.Repository, auth.TokenRepository, func(), error) {
	if cfg.Backend == config.StorageBackendMemory {
		logger.Warn("using in-memory storage, data is lost on restart")
		return user.NewMemoryRepository(), auth.NewMemoryRepository(), func() {}, nil
	}

	db, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}

	closeDB := func() {
		if err := db.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}

	return user.NewPostgresRepository(db), auth.NewRepository(db), closeDB, nil
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}
