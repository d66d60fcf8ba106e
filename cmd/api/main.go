package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ecoguard/ecoguard/internal/api"
	"github.com/ecoguard/ecoguard/internal/config"
	"github.com/ecoguard/ecoguard/internal/gamification"
	"github.com/ecoguard/ecoguard/internal/llm"
	"github.com/ecoguard/ecoguard/internal/observability"
	"github.com/ecoguard/ecoguard/internal/repository/postgres"
	rediscache "github.com/ecoguard/ecoguard/internal/repository/redis"
	"github.com/ecoguard/ecoguard/internal/scraper"
	"github.com/ecoguard/ecoguard/internal/services/analysis"
	"github.com/ecoguard/ecoguard/internal/services/research"
)

func main() {
	// Load .env if present; real env vars take precedence
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(string(cfg.Env), cfg.GetLogLevel())
	defer logger.Sync()

	logger.Info("Starting EcoGuard API",
		zap.String("environment", string(cfg.Env)),
	)

	// Connect to PostgreSQL
	db, err := postgres.New(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("Connected to PostgreSQL",
		zap.String("host", cfg.Database.Host),
		zap.Int("port", cfg.Database.Port),
	)

	// Connect to Redis (optional)
	var cache *rediscache.Cache
	cache, err = rediscache.New(cfg.Redis, cfg.Research.CacheTTL)
	if err != nil {
		logger.Warn("Failed to connect to Redis, caching and rate limiting disabled", zap.Error(err))
		cache = nil
	} else {
		defer cache.Close()
		logger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr()))
	}

	// Launch the headless browser
	fetcher, err := scraper.NewFetcher(cfg.Scraper, logger)
	if err != nil {
		logger.Fatal("Failed to start browser", zap.Error(err))
	}
	defer fetcher.Close()
	logger.Info("Browser ready", zap.Bool("headless", cfg.Scraper.Headless))

	// LLM client: the configured key is a server-level fallback, per-user
	// keys from settings take precedence per request
	llmClient := llm.NewOpenAIClient(llm.Config{
		APIKey:        cfg.OpenAI.APIKey,
		BaseURL:       cfg.OpenAI.BaseURL,
		Model:         cfg.OpenAI.Model,
		MaxTokens:     cfg.OpenAI.MaxTokens,
		Temperature:   cfg.OpenAI.Temperature,
		Timeout:       cfg.OpenAI.Timeout,
		RateLimitRPM:  cfg.OpenAI.RateLimitRPM,
		CacheTTL:      cfg.OpenAI.CacheTTL,
		EnableCaching: cfg.OpenAI.EnableCaching,
	})

	// Research providers, tried in order until enough queries succeed
	providers := []research.Provider{
		research.NewDuckDuckGoProvider(cfg.Research.Timeout),
		research.NewWikipediaProvider(cfg.Research.Timeout),
		research.NewStubProvider(),
	}
	var researchCache research.CacheStore
	if cache != nil {
		researchCache = cache
	}
	aggregator := research.NewAggregator(cfg.Research, providers, researchCache, logger)

	repos := postgres.NewRepositories(db.DB)

	var latest analysis.LatestCache
	if cache != nil {
		latest = cache
	}
	service := analysis.NewService(
		fetcher,
		aggregator,
		llmClient,
		gamification.NewEngine(logger),
		repos.History,
		repos.Progress,
		repos.Settings,
		latest,
		logger,
	)

	metrics := observability.InitMetrics("ecoguard")

	router := api.NewRouter(api.RouterConfig{
		Service:      service,
		Repos:        repos,
		DB:           db,
		Cache:        cache,
		Keys:         llmClient,
		Metrics:      metrics,
		Logger:       logger,
		EnableCORS:   cfg.Security.CORSEnabled,
		RateLimit:    rateLimitPerMin(cfg),
		UserIDHeader: cfg.Security.UserIDHeader,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("API server listening", zap.String("addr", addr))
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Fatal("Server error", zap.Error(err))

	case sig := <-shutdown:
		logger.Info("Shutdown signal received", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Graceful shutdown failed, forcing close", zap.Error(err))
			server.Close()
		}

		logger.Info("Server stopped gracefully")
	}
}

func rateLimitPerMin(cfg *config.Config) int {
	if !cfg.RateLimits.Enabled {
		return 0
	}
	return cfg.RateLimits.RequestsPerMin
}

// initLogger creates a configured zap logger
func initLogger(env, level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	var zcfg zap.Config
	if env == "production" {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zcfg.Level = zap.NewAtomicLevelAt(zapLevel)

	logger, err := zcfg.Build()
	if err != nil {
		logger, _ = zap.NewProduction()
	}

	return logger
}
