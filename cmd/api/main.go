package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"taskchat/internal/config"
	"taskchat/internal/db"
	apihttp "taskchat/internal/http"
	"taskchat/internal/llm"
	"taskchat/internal/repository"
	"taskchat/internal/service"
	"taskchat/internal/tools"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	threadRepo := repository.NewPgThreadRepository(pool)
	messageRepo := repository.NewPgMessageRepository(pool)

	llmClient := llm.NewHTTPClient(
		cfg.LLMBaseURL,
		cfg.LLMAPIKey,
		cfg.LLMModel,
		time.Duration(cfg.LLMTimeoutSeconds)*time.Second,
		logger,
	)
	bridge := tools.NewBridge(cfg.ToolServerURL, time.Duration(cfg.ToolTimeoutSeconds)*time.Second, logger)

	var limiter service.RateLimiter
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			limiter = service.NewRedisRateLimiter(
				redisClient,
				time.Duration(cfg.RateLimitWindowSec)*time.Second,
				cfg.RateLimitMax,
			)
		}
		cancel()
	}

	jwtSvc := service.NewJWTService(cfg.JWTSecret, 24*time.Hour)
	chatSvc := service.NewChatService(logger, threadRepo, messageRepo, llmClient, bridge, cfg.HistoryWindow)
	chatHandler := apihttp.NewChatHandler(logger, threadRepo, messageRepo, chatSvc, limiter)
	router := apihttp.NewRouter(logger, jwtSvc, chatHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
