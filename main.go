package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/adapter/llm"
	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/auth"
	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/config"
	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/confirmation"
	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/ratelimit"
	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/repository"
	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/service"
	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/tools"
	server "github.com/cvlhofrederic-art/fixit-production-sub002/internal/transport/http"
	"github.com/cvlhofrederic-art/fixit-production-sub002/policy"
)

func main() {
	// Load configuration
	cfg := config.Load()

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting fixy",
		zap.Int("http_port", cfg.HTTPPort),
		zap.String("data_backend", cfg.DataBackend),
		zap.String("state_backend", cfg.StateBackend),
		zap.String("model", cfg.LLMModel),
	)

	// Initialize store
	store, err := newStore(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize store", zap.Error(err))
	}
	defer store.Close()

	// Rate limit and confirmation state
	limitStore, confirmStore, closeState, err := newStateStores(cfg)
	if err != nil {
		logger.Fatal("failed to initialize state backend", zap.Error(err))
	}
	defer closeState()

	limiter := ratelimit.New(limitStore, cfg.RateLimitMax, cfg.RateLimitWindow, logger)
	confirmations := confirmation.NewManager(confirmStore, cfg.ConfirmationTTL)

	// Initialize LLM client
	llmClient := llm.NewLLMClient(llm.GroqConfig{
		BaseURL:       cfg.GroqBaseURL,
		APIKey:        cfg.GroqAPIKey,
		Model:         cfg.LLMModel,
		FallbackModel: cfg.LLMFallbackModel,
		Timeout:       cfg.LLMTimeout,
		MaxRetries:    cfg.LLMMaxRetries,
		Breaker:       llm.NewBreaker(cfg.BreakerThreshold, cfg.BreakerReset),
	}, logger)

	// Initialize policy engine
	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	policyEngine, err := policy.LoadEngine(ctx, cfg.PolicyFile)
	if err != nil {
		logger.Fatal("failed to initialize policy engine", zap.Error(err))
	}

	// Initialize service
	registry := tools.NewBuiltinRegistry(store, tools.Options{Location: cfg.Location(), Logger: logger})
	contexts := repository.NewContextLoader(store, cfg.Location())
	svc := service.New(registry, contexts, limiter, confirmations, llmClient, policyEngine, cfg, logger)
	go svc.RunSweepers(ctx)

	authn, err := newAuthenticator(cfg)
	if err != nil {
		logger.Fatal("failed to initialize authentication", zap.Error(err))
	}

	e := server.NewServer(svc, authn, store, logger)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	logger.Info("API started", zap.Int("port", cfg.HTTPPort))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down fixy")
	stop()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server gracefully", zap.Error(err))
	}

	logger.Info("fixy stopped")
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}

func newStore(cfg *config.Config, logger *zap.Logger) (repository.Store, error) {
	switch cfg.DataBackend {
	case config.BackendSupabase:
		return repository.NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseServiceRoleKey, logger)
	case config.BackendSQLite, "":
		return repository.NewSQLiteStore(cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("unknown DATA_BACKEND %q", cfg.DataBackend)
	}
}

func newStateStores(cfg *config.Config) (ratelimit.Store, confirmation.Store, func(), error) {
	switch cfg.StateBackend {
	case config.BackendRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(opts)
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, nil, fmt.Errorf("failed to reach redis: %w", err)
		}
		return ratelimit.NewRedisStore(rdb), confirmation.NewRedisStore(rdb), func() { _ = rdb.Close() }, nil
	case config.BackendMemory, "":
		return ratelimit.NewMemoryStore(), confirmation.NewMemoryStore(), func() {}, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown STATE_BACKEND %q", cfg.StateBackend)
	}
}

func newAuthenticator(cfg *config.Config) (auth.Authenticator, error) {
	switch cfg.AuthMode {
	case "static":
		if len(cfg.StaticTokens) == 0 {
			return nil, fmt.Errorf("AUTH_MODE=static requires STATIC_TOKENS")
		}
		return auth.NewStaticAuthenticator(cfg.StaticTokens), nil
	default:
		return auth.NewSupabaseAuthenticator(cfg.SupabaseURL, cfg.SupabaseAnonKey)
	}
}
