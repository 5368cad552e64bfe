package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"prophet-betting/internal/auth"
	"prophet-betting/internal/cache"
	"prophet-betting/internal/config"
	"prophet-betting/internal/database"
	"prophet-betting/internal/events"
	"prophet-betting/internal/handlers"
	"prophet-betting/internal/jobs"
	"prophet-betting/internal/judge"
	"prophet-betting/internal/lock"
	"prophet-betting/internal/logger"
	"prophet-betting/internal/repository"
	"prophet-betting/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New("prophet-betting", cfg.App.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize JWT
	auth.InitJWT(cfg.App.JWTSecret)

	// Connect to database
	if err := database.Connect(cfg, log); err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := database.AutoMigrate(); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}
	db := database.GetDB()

	// Balance cache
	var balanceCache cache.BalanceCache = cache.Noop{}
	if cfg.Redis.Addr != "" {
		rdb, err := cache.ConnectRedis(cfg.Redis.Addr)
		if err != nil {
			log.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer rdb.Close()
		balanceCache = cache.NewRedisBalanceCache(rdb, cfg.Redis.TTL)
		log.Info("balance cache enabled", zap.String("addr", cfg.Redis.Addr))
	}

	// Event publisher
	var publisher events.Publisher = events.NewLogPublisher(log)
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.TopicPrefix, log)
		log.Info("kafka events enabled", zap.Strings("brokers", cfg.Kafka.Brokers))
	}
	defer publisher.Close()

	// AI judge with fallback policy
	var model judge.Judge
	if cfg.Judge.APIKey != "" {
		model = judge.NewOpenAIClient(cfg.Judge.BaseURL, cfg.Judge.APIKey, cfg.Judge.Model, cfg.Judge.Timeout, cfg.Judge.RatePerSecond)
	} else {
		log.Warn("no judge API key configured; AI bets use the fallback policy", zap.String("fallback", cfg.Judge.Fallback))
	}
	arbitrator := judge.NewPolicy(model, cfg.Judge.Fallback, log)

	// Initialize repository and services
	repo := repository.NewRepository(db)
	locks := lock.NewKeyed()

	ledgerService := services.NewLedgerService(repo, balanceCache, log)
	userService := services.NewUserService(repo, ledgerService, cfg.App.SignupBonus, log)
	betService := services.NewBetService(repo, ledgerService, publisher, log)
	stakeService := services.NewStakeService(repo, locks, ledgerService, publisher, log)
	resolutionService := services.NewResolutionService(repo, locks, ledgerService, publisher, log)
	arbitrationService := services.NewArbitrationService(repo, arbitrator, resolutionService, log)
	appealService := services.NewAppealService(repo, cfg.App.AppealWindow, publisher, log)
	marketService := services.NewMarketService(repo, log)

	// Start arbitration job
	arbitrationJob := jobs.NewArbitrationJob(arbitrationService, cfg.Jobs.ArbitrationInterval, log)
	go arbitrationJob.Start()
	defer arbitrationJob.Stop()

	router := handlers.NewRouter(handlers.Handlers{
		Auth:    handlers.NewAuthHandler(userService, log),
		User:    handlers.NewUserHandler(ledgerService, log),
		Bet:     handlers.NewBetHandler(betService, stakeService, resolutionService, arbitrationService, log),
		Market:  handlers.NewMarketHandler(marketService, log),
		Appeal:  handlers.NewAppealHandler(appealService, log),
		Health:  handlers.NewHealthHandler(db, log),
		Limiter: auth.NewRateLimiter(cfg.RateLimit.RequestsPerMinute),
	}, cfg.Server.AllowedOrigins, log)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.App.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	log.Info("server exited")
}
