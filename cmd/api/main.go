package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/01moynul/culinamarket/internal/ai"
	"github.com/01moynul/culinamarket/internal/auth"
	"github.com/01moynul/culinamarket/internal/cart"
	"github.com/01moynul/culinamarket/internal/catalog"
	"github.com/01moynul/culinamarket/internal/checkout"
	"github.com/01moynul/culinamarket/internal/concierge"
	"github.com/01moynul/culinamarket/internal/config"
	"github.com/01moynul/culinamarket/internal/database"
	"github.com/01moynul/culinamarket/internal/events"
	"github.com/01moynul/culinamarket/internal/handlers"
	"github.com/01moynul/culinamarket/internal/orders"
	"github.com/01moynul/culinamarket/internal/repository"
	"github.com/01moynul/culinamarket/internal/routes"
	"github.com/01moynul/culinamarket/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// publisher is what both checkout and the order facade need from the event stream.
type publisher interface {
	checkout.EventPublisher
	orders.EventPublisher
	Close() error
}

func main() {
	// 0. --- Configuration & Logging ---
	cfg := config.MustLoad()

	logger, err := config.NewLogger(config.LoggerConfig{Level: cfg.LogLevel, Env: cfg.Env})
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. --- Main Database Connection ---
	db, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db, logger); err != nil {
			logger.Fatal("failed to apply migrations", zap.Error(err))
		}
	}

	orderRepo := repository.NewOrderRepository(db)
	userRepo := repository.NewUserRepository(db)

	// 2. --- Redis (optional) ---
	var (
		cartStorage cart.Storage   = cart.NewMemoryStorage()
		guard       checkout.Guard = checkout.NewMemoryGuard()
	)
	catalogSvc := catalog.NewService(repository.NewProductRepository(db), repository.NewRecipeRepository(db), logger)

	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatal("failed to connect to redis", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}

		cartStorage = cart.NewRedisStorage(rdb, cfg.Redis.CartTTL)
		guard = checkout.NewRedisGuard(rdb, cfg.Checkout.GuardTTL)
		catalogSvc = catalog.NewCachedService(catalogSvc, rdb, cfg.Redis.CacheTTL, logger)
		logger.Info("redis connected", zap.String("addr", cfg.Redis.Addr))
	} else {
		logger.Warn("REDIS_ADDR not set; carts and checkout guards are kept in memory")
	}

	// 3. --- Order Events ---
	var pub publisher = events.Noop{}
	if len(cfg.Kafka.Brokers) > 0 {
		pub = events.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
	}
	defer pub.Close()

	// 4. --- Concierge LLM ---
	llm, closeLLM, err := newCompleter(ctx, cfg.LLM, logger)
	if err != nil {
		logger.Fatal("failed to initialize LLM client", zap.Error(err))
	}
	defer closeLLM()

	// 5. --- Object Storage ---
	images, err := storage.NewS3Store(ctx, cfg.Storage.Bucket, cfg.Storage.PublicBaseURL, logger)
	if err != nil {
		logger.Fatal("failed to initialize object storage", zap.Error(err))
	}

	// --- Application Setup ---
	app := &handlers.Handlers{
		Catalog:      catalogSvc,
		Carts:        cartStorage,
		Orchestrator: checkout.New(orderRepo, cartStorage, guard, pub, logger),
		Orders:       orders.NewService(orderRepo, pub, logger),
		Addresses:    repository.NewAddressRepository(db),
		Profiles:     repository.NewProfileRepository(db),
		Concierge:    concierge.New(catalogSvc, llm, logger),
		Images:       images,
		ImageURLs:    storage.NewImageValidator(),
		Users:        auth.NewDirectory(cfg.Auth.URL, cfg.Auth.ServiceRoleKey, userRepo, logger),
		Log:          logger,
	}

	// --- Router Setup ---
	router := routes.SetupRouter(app, routes.Options{
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		Verifier:       auth.NewVerifier(cfg.Auth.JWTSecret),
		Users:          userRepo,
		Log:            logger,
	})

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// --- Start Server ---
	go func() {
		logger.Info("starting CulinaMarket API server", zap.String("addr", cfg.HTTP.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// newCompleter builds the concierge's model client behind a circuit breaker.
// A nil Completer (no key configured) leaves the concierge on its
// catalog-only replies.
func newCompleter(ctx context.Context, cfg config.LLM, logger *zap.Logger) (ai.Completer, func(), error) {
	noop := func() {}

	switch cfg.Provider {
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			logger.Warn("GEMINI_API_KEY not set; concierge runs without a model")
			return nil, noop, nil
		}
		client, err := ai.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, noop, err
		}
		return ai.NewBreakerCompleter("gemini", client), func() { client.Close() }, nil

	case "openai":
		if cfg.APIKey == "" {
			logger.Warn("LLM_API_KEY not set; concierge runs without a model")
			return nil, noop, nil
		}
		client := ai.NewOpenAIClient(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.Timeout)
		return ai.NewBreakerCompleter("openai", client), noop, nil

	default:
		logger.Warn("concierge runs without a model", zap.String("provider", cfg.Provider))
		return nil, noop, nil
	}
}
