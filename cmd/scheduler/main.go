package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/bodacredit/loan-engine/internal/cache"
	"github.com/bodacredit/loan-engine/internal/config"
	"github.com/bodacredit/loan-engine/internal/observability"
	"github.com/bodacredit/loan-engine/internal/repository"
	"github.com/bodacredit/loan-engine/internal/service"
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := observability.NewLogger(cfg.Logging.Format, cfg.Logging.Level)

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	penaltyService := service.NewPenaltyService(
		repository.NewLoanRepository(db),
		repository.NewPenaltyRepository(db),
		repository.NewRiderRepository(db),
		repository.NewTxManager(db),
		cache.NewRedisCache(redisClient),
		cfg,
	)

	location, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		log.Fatalf("Invalid scheduler timezone %q: %v", cfg.Scheduler.Timezone, err)
	}

	c := cron.New(cron.WithSeconds(), cron.WithLocation(location))

	_, err = c.AddFunc(cfg.Scheduler.PenaltyCronSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()

		summary, err := penaltyService.RunTick(ctx)
		if err != nil {
			logger.Error("penalty tick failed", "error", err, "summary", summary)
			return
		}
		if summary.Processed > 0 || summary.Applied > 0 || summary.Suspended > 0 || summary.Failed > 0 {
			logger.Info("penalty tick complete",
				"processed", summary.Processed,
				"applied", summary.Applied,
				"suspended", summary.Suspended,
				"failed", summary.Failed,
			)
		}
	})
	if err != nil {
		log.Fatalf("Failed to schedule penalty job: %v", err)
	}

	c.Start()
	logger.Info("scheduler started", "spec", cfg.Scheduler.PenaltyCronSpec, "timezone", cfg.Scheduler.Timezone)

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down scheduler")
	<-c.Stop().Done()
	logger.Info("scheduler stopped")
}
