package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/andressep95/city-news-api/internal/config"
	"github.com/andressep95/city-news-api/internal/handler"
	"github.com/andressep95/city-news-api/internal/handler/middleware"
	"github.com/andressep95/city-news-api/internal/handler/response"
	"github.com/andressep95/city-news-api/internal/metrics"
	"github.com/andressep95/city-news-api/internal/repository/postgres"
	"github.com/andressep95/city-news-api/internal/service"
	"github.com/andressep95/city-news-api/pkg/blacklist"
	"github.com/andressep95/city-news-api/pkg/hash"
	"github.com/andressep95/city-news-api/pkg/jwt"
	"github.com/andressep95/city-news-api/pkg/newsapi"
	"github.com/andressep95/city-news-api/pkg/validator"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	// Initialize database connection
	db, err := initDB(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Warnw("Error closing database connection", "error", err)
		}
	}()
	log.Info("Database connection established")

	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(ctx, db.DB); err != nil {
			return err
		}
		log.Info("Database migrations applied")
	}

	// Redis backs the news cache and the token blacklist; both are optional
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = initRedis(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Warnw("Error closing Redis connection", "error", err)
			}
		}()
		log.Infow("Redis connection established", "addr", cfg.Redis.Addr())
	} else {
		log.Info("Redis disabled, news cache and token revocation are off")
	}

	m := metrics.New()

	hasher, err := hash.NewPasswordHasher(cfg.Auth.BcryptCost)
	if err != nil {
		return err
	}

	newsProvider, err := buildNewsProvider(cfg, redisClient)
	if err != nil {
		return err
	}

	verifier := buildVerifier(cfg, m)
	log.Infow("Token verification configured", "strategies", verifier.Strategies())

	var (
		revoker     service.TokenRevoker
		revocations middleware.RevocationChecker
	)
	if cfg.Auth.RevokeOnLogout && redisClient != nil {
		tokenBlacklist := blacklist.NewTokenBlacklist(redisClient)
		revoker, revocations = tokenBlacklist, tokenBlacklist
		log.Info("Access tokens are revoked on logout")
	}

	validate := validator.NewValidator()

	// Initialize repositories
	userRepo := postgres.NewUserRepository(db)
	sessionRepo := postgres.NewSessionRepository(db)
	searchRepo := postgres.NewSearchRepository(db)

	// Initialize services
	authService := service.NewAuthService(userRepo, sessionRepo, hasher, buildIssuer(cfg, m), revoker, m)
	userService := service.NewUserService(userRepo, hasher)
	newsService := service.NewNewsService(newsProvider, searchRepo, m)
	adminService := service.NewAdminService(userRepo, sessionRepo, searchRepo)

	app := newApp(cfg, log, m)

	handler.SetupRoutes(
		app,
		handler.NewAuthHandler(authService, validate),
		handler.NewUserHandler(userService, validate),
		handler.NewNewsHandler(newsService, validate),
		handler.NewAdminHandler(adminService, validate),
		handler.NewHealthHandler(db, redisClient),
		m.Handler(),
		middleware.AuthMiddleware(verifier, userRepo, revocations),
		middleware.RequireAdmin(),
	)

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		log.Infow("City News API running", "addr", addr, "env", cfg.Server.Environment)
		if err := app.Listen(addr); err != nil {
			log.Errorw("Server failed to start", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Errorw("Server forced to shutdown", "error", err)
	}

	log.Info("Server stopped")
	return nil
}

// newApp builds the Fiber app with the global middleware stack
func newApp(cfg *config.Config, log *zap.SugaredLogger, m *metrics.Metrics) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "City News API",
		DisableStartupMessage: true,
		ErrorHandler:          response.ErrorHandler(cfg.Server.IsProduction()),
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		BodyLimit:             cfg.Server.BodyLimit,
	})

	app.Use(requestid.New())
	app.Use(middleware.LoggerMiddleware(log, m))
	app.Use(middleware.RecoveryMiddleware())
	app.Use(middleware.SecurityHeaders())
	app.Use(middleware.CORSMiddleware(cfg.Server.AllowedOrigins))
	app.Use(middleware.RateLimiter(cfg.RateLimit.Window, cfg.RateLimit.MaxRequests))

	return app
}

// buildVerifier chains remote JWKS verification ahead of the local secret.
// Either half is left out when it is not configured.
func buildVerifier(cfg *config.Config, rec jwt.Recorder) *jwt.ChainVerifier {
	var verifiers []jwt.Verifier

	if jwksURL := cfg.JWT.ResolvedJWKSURL(); jwksURL != "" {
		keys := jwt.NewKeySet(jwksURL, jwt.WithKeySetTTL(cfg.JWT.JWKSCacheTTL))
		verifiers = append(verifiers, jwt.NewRemoteVerifier(keys, cfg.JWT.Issuer))
	}
	if cfg.JWT.LocalSecret != "" {
		verifiers = append(verifiers, jwt.NewLocalVerifier(cfg.JWT.LocalSecret, cfg.JWT.Issuer))
	}

	return jwt.NewChainVerifier(verifiers, jwt.WithRecorder(rec))
}

func buildIssuer(cfg *config.Config, rec jwt.Recorder) *jwt.ChainIssuer {
	var issuers []jwt.Issuer

	if cfg.JWT.RemoteIssuanceURL != "" {
		issuers = append(issuers, jwt.NewRemoteIssuer(
			cfg.JWT.RemoteIssuanceURL,
			jwt.WithRequestTimeout(cfg.JWT.RemoteTimeout),
			jwt.WithBudget(cfg.JWT.RemoteBudget),
		))
	}
	if cfg.JWT.LocalSecret != "" {
		issuers = append(issuers, jwt.NewLocalIssuer(
			cfg.JWT.LocalSecret,
			cfg.JWT.Issuer,
			jwt.WithTTL(cfg.JWT.AccessTokenExpiry),
		))
	}

	return jwt.NewChainIssuer(issuers, jwt.WithRecorder(rec))
}

func buildNewsProvider(cfg *config.Config, redisClient *redis.Client) (newsapi.Provider, error) {
	client, err := newsapi.NewClient(
		cfg.News.SerpAPIKey,
		newsapi.WithBaseURL(cfg.News.BaseURL),
		newsapi.WithTimeout(cfg.News.Timeout),
		newsapi.WithLocale(cfg.News.Results, cfg.News.Language, cfg.News.Country),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize news client: %w", err)
	}

	if redisClient == nil || cfg.News.CacheTTL <= 0 {
		return client, nil
	}
	return newsapi.NewCachedProvider(client, redisClient, cfg.News.CacheTTL), nil
}

// initDB opens the PostgreSQL pool, retrying while the database comes up
func initDB(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (*sqlx.DB, error) {
	dsn := cfg.Database.DSN()

	var db *sqlx.DB
	var err error

	maxRetries := 5
	retryInterval := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = sqlx.ConnectContext(ctx, "postgres", dsn)
		if err == nil {
			break
		}

		log.Warnw("Failed to connect to database", "attempt", i+1, "max_attempts", maxRetries, "error", err)
		if i < maxRetries-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryInterval):
			}
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

func initRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}
