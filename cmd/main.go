package main

import (
	"os"
	"time"

	"openchatllm-backend/internal/api"
	"openchatllm-backend/internal/api/routes"
	"openchatllm-backend/internal/auth"
	"openchatllm-backend/internal/catalog"
	"openchatllm-backend/internal/config"
	"openchatllm-backend/internal/llm"
	"openchatllm-backend/internal/metrics"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Connect to database and run migrations
	if err := config.ConnectDB(cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := config.MigrateAllModels(cfg.AutoMigrate); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	// Optional model-catalog cache
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	}

	// Optional metrics listener
	if cfg.MetricsAddr != "" {
		go metrics.Serve(cfg.MetricsAddr)
	}

	// Create and configure Fiber app
	app := api.NewServer()

	// Register routes
	routes.Register(app, &routes.Deps{
		Registry: llm.NewRegistry(),
		Tokens:   auth.NewTokenManager(cfg.SecretKey),
		Catalog:  catalog.New(rdb, cfg.CatalogTTL),
	})

	// Start server
	if err := api.StartServer(app, cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}
}
