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

	"github.com/Baaaki/yamdb/internal/config"
	"github.com/Baaaki/yamdb/internal/database"
	"github.com/Baaaki/yamdb/internal/mailer"
	"github.com/Baaaki/yamdb/internal/middleware"
	"github.com/Baaaki/yamdb/internal/router"
	"github.com/Baaaki/yamdb/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	if err := logger.Init(!cfg.IsProduction()); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	database.Connect(cfg)
	database.Migrate()

	// Confirmation code delivery
	mail, err := mailer.New(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize mailer", zap.String("backend", cfg.MailBackend), zap.Error(err))
	}
	defer mail.Close()

	limiterConfig := middleware.RateLimiterConfig{
		MaxRequests: cfg.RateLimitMaxRequests,
		Window:      cfg.RateLimitWindow,
		BlockTime:   cfg.RateLimitBlockTime,
	}
	limiter, closeLimiter := newAuthLimiter(cfg.RedisURL, limiterConfig)
	defer closeLimiter()

	engine := router.New(router.Options{
		DB:                 database.DB,
		Mailer:             mail,
		MailFrom:           cfg.MailFrom,
		JWTSecret:          cfg.JWTSecret,
		JWTExpiry:          cfg.JWTExpiry,
		AuthLimiter:        limiter,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		Production:         cfg.IsProduction(),
	})

	srv := &http.Server{
		Addr:              cfg.ServerPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("Server starting",
			zap.String("addr", cfg.ServerPort),
			zap.String("environment", cfg.Environment),
			zap.String("mail_backend", cfg.MailBackend),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Graceful shutdown failed", zap.Error(err))
	}
}

// newAuthLimiter prefers a Redis-backed limiter shared across instances and
// falls back to an in-process one when Redis is not configured or unreachable.
func newAuthLimiter(redisURL string, cfg middleware.RateLimiterConfig) (middleware.Limiter, func()) {
	local := func() (middleware.Limiter, func()) {
		return middleware.NewLocalRateLimiter(cfg), func() {}
	}
	if redisURL == "" {
		logger.Log.Info("REDIS_URL not set, using in-process rate limiter")
		return local()
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Log.Warn("Invalid REDIS_URL, using in-process rate limiter", zap.Error(err))
		return local()
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Log.Warn("Redis unreachable, using in-process rate limiter", zap.Error(err))
		_ = client.Close()
		return local()
	}

	logger.Log.Info("Using Redis rate limiter", zap.Int("max_requests", cfg.MaxRequests), zap.Duration("window", cfg.Window))
	return middleware.NewRateLimiter(client, cfg), func() { _ = client.Close() }
}
