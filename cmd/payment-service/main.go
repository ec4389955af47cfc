package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/13x54n/lypto-sub001/internal/api"
	"github.com/13x54n/lypto-sub001/internal/client"
	"github.com/13x54n/lypto-sub001/internal/config"
	"github.com/13x54n/lypto-sub001/internal/events"
	"github.com/13x54n/lypto-sub001/internal/interfaces"
	"github.com/13x54n/lypto-sub001/internal/notifier"
	"github.com/13x54n/lypto-sub001/internal/repository"
	"github.com/13x54n/lypto-sub001/internal/telemetry"
)

func main() {
	// Initialize telemetry
	if err := telemetry.InitTelemetry("payment-service"); err != nil {
		panic(fmt.Sprintf("Failed to initialize telemetry: %v", err))
	}
	defer telemetry.Shutdown(context.Background())

	telemetry.Logger.Info("Starting Payment Service")

	cfg := config.Load()

	// Payment store: Postgres when configured, in-memory otherwise
	var paymentRepo interfaces.PaymentRepository
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			telemetry.Logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		repo := repository.NewPaymentRepository(db)
		if err := repo.InitDB(); err != nil {
			telemetry.Logger.Fatal("Failed to initialize database", zap.Error(err))
		}
		paymentRepo = repo
	} else {
		telemetry.Logger.Warn("DATABASE_URL not set, using in-memory payment store")
		paymentRepo = repository.NewMemoryRepository()
	}

	// Connect to Redis
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr: cfg.RedisURL,
		})
	}

	// Connect to Kafka
	var publisher *events.Publisher
	if cfg.KafkaBrokers != "" {
		publisher = events.NewPublisher(cfg.KafkaBrokers)
		defer publisher.Close()
	}

	// Setup router
	r := api.NewRouter(paymentRepo, redisClient, publisher)

	// Setup HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	// Notification pipeline: push dispatch consumer plus the NATS
	// quick-action bridge into the confirm endpoint.
	notifyCtx, cancelNotify := context.WithCancel(context.Background())
	defer cancelNotify()

	apiClient := client.New("http://127.0.0.1:" + cfg.Port)
	n := notifier.New(apiClient)

	if cfg.KafkaBrokers != "" {
		go n.ConsumeRequested(notifyCtx, cfg.KafkaBrokers)
	}

	if cfg.NatsURL != "" {
		nc, err := nats.Connect(cfg.NatsURL)
		if err != nil {
			telemetry.Logger.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		defer nc.Close()

		sub, err := n.SubscribeActions(notifyCtx, nc)
		if err != nil {
			telemetry.Logger.Fatal("Failed to subscribe to quick actions", zap.Error(err))
		}
		defer sub.Drain()

		telemetry.Logger.Info("Subscribed to payment quick actions on NATS")
	}

	// Start server in goroutine
	go func() {
		telemetry.Logger.Info("Payment Service starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			telemetry.Logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	telemetry.Logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		telemetry.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	telemetry.Logger.Info("Server exited")
}
