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

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/bodacredit/loan-engine/internal/cache"
	"github.com/bodacredit/loan-engine/internal/config"
	"github.com/bodacredit/loan-engine/internal/handler"
	"github.com/bodacredit/loan-engine/internal/momo"
	"github.com/bodacredit/loan-engine/internal/observability"
	"github.com/bodacredit/loan-engine/internal/repository"
	"github.com/bodacredit/loan-engine/internal/service"
	"github.com/bodacredit/loan-engine/pkg/response"
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := observability.NewLogger(cfg.Logging.Format, cfg.Logging.Level)

	// Initialize database
	db, err := initDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Initialize Redis
	redisClient := initRedis(cfg)
	defer redisClient.Close()

	// Initialize repositories
	loanRepo := repository.NewLoanRepository(db)
	riderRepo := repository.NewRiderRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	callbackRepo := repository.NewCallbackRepository(db)
	txm := repository.NewTxManager(db)
	loanCache := cache.NewRedisCache(redisClient)

	// Initialize services
	loanService := service.NewLoanService(loanRepo, riderRepo, paymentRepo, txm, loanCache, cfg)
	paymentService := service.NewPaymentService(loanRepo, paymentRepo, txm, loanCache, cfg)
	callbackService := service.NewCallbackService(callbackRepo, paymentService, txm, loanCache, cfg)
	riderService := service.NewRiderService(riderRepo)

	// Provider adapters
	mtnProvider := momo.NewMTNProvider(cfg.MTN)
	airtelProvider := momo.NewAirtelProvider(cfg.Airtel)

	// Handlers
	loanHandler := handler.NewLoanHandler(loanService, paymentService)
	riderHandler := handler.NewRiderHandler(riderService)
	callbackHandler := handler.NewCallbackHandler(callbackService, logger)
	momoHandler := handler.NewMomoHandler(loanService, riderService, mtnProvider, airtelProvider)
	healthHandler := handler.NewHealthHandler(db, redisClient)

	// Setup routes
	router := setupRoutes(loanHandler, riderHandler, callbackHandler, momoHandler, healthHandler)
	router.Use(response.CORSMiddleware)
	router.Use(response.LoggingMiddleware(logger))

	// Start server
	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("server exited")
}

func initDB(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Hour)

	return db, nil
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func setupRoutes(
	loanHandler *handler.LoanHandler,
	riderHandler *handler.RiderHandler,
	callbackHandler *handler.CallbackHandler,
	momoHandler *handler.MomoHandler,
	healthHandler *handler.HealthHandler,
) *mux.Router {
	router := mux.NewRouter()

	// Health check
	router.HandleFunc("/health", healthHandler.Health).Methods("GET")
	router.HandleFunc("/health/ready", healthHandler.Ready).Methods("GET")

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/loans", loanHandler.CreateLoan).Methods("POST")
	api.HandleFunc("/loans/active", loanHandler.GetActiveLoans).Methods("GET")
	api.HandleFunc("/loans/overdue", loanHandler.GetOverdueLoans).Methods("GET")
	api.HandleFunc("/loans/{loanId}", loanHandler.GetLoan).Methods("GET")
	api.HandleFunc("/loans/{loanId}/payments", loanHandler.RecordPayment).Methods("POST")
	api.HandleFunc("/loans/{loanId}/adjust", loanHandler.AdjustLoan).Methods("PATCH")

	api.HandleFunc("/riders", riderHandler.CreateRider).Methods("POST")
	api.HandleFunc("/riders", riderHandler.ListRiders).Methods("GET")
	api.HandleFunc("/riders/{riderId}", riderHandler.GetRider).Methods("GET")
	api.HandleFunc("/riders/{riderId}", riderHandler.UpdateRider).Methods("PATCH")
	api.HandleFunc("/riders/{riderId}/status", riderHandler.UpdateRiderStatus).Methods("PATCH")

	api.HandleFunc("/momo/stk-push", momoHandler.StkPush).Methods("POST")

	// Provider callbacks live outside the versioned API surface
	router.HandleFunc("/callbacks/mtn", callbackHandler.MTNCallback).Methods("POST")
	router.HandleFunc("/callbacks/airtel", callbackHandler.AirtelCallback).Methods("POST")

	return router
}
