package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"equipment-tracker-backend/config"
	"equipment-tracker-backend/internal/api"
	"equipment-tracker-backend/internal/bus"
	"equipment-tracker-backend/internal/db"
	"equipment-tracker-backend/internal/notification"
	"equipment-tracker-backend/internal/orders"
	"equipment-tracker-backend/internal/propagate"
	"equipment-tracker-backend/internal/realtime"
	"equipment-tracker-backend/internal/store"

	"github.com/SherClockHolmes/webpush-go"
)

func main() {
	// Setup logger
	logger := log.New(os.Stdout, "equipment-tracker ", log.LstdFlags)

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	webpushOptions := webpush.Options{
		VAPIDPublicKey:  cfg.Push.PublicKey,
		VAPIDPrivateKey: cfg.Push.PrivateKey,
		Subscriber:      cfg.Push.Subject,
		TTL:             cfg.Push.TTL,
	}

	// Initialize database
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	// Create a context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)
	logger.Println("data store initialized")

	// Event bus publisher. The tracker stays fully functional without the
	// broker; publishes are dropped with a log line.
	var publisher propagate.Publisher = bus.NoopPublisher{}
	if cfg.Bus.Enabled {
		amqpPub, err := bus.NewAMQPPublisher(cfg.Bus.URL, cfg.Bus.Exchange)
		if err != nil {
			logger.Printf("failed to connect to event bus, continuing without it: %v", err)
		} else {
			defer amqpPub.Close()
			publisher = amqpPub
			logger.Println("event bus publisher connected")
		}
	}

	// Real-time hub for dashboard clients
	hub := realtime.NewHub()

	// Push alert workers
	var alerts propagate.AlertDispatcher
	if cfg.Push.PublicKey != "" && cfg.Push.PrivateKey != "" {
		pool := notification.NewWorkerPool(cfg.WorkerPool.Size, appStore, &webpushOptions)
		pool.Start(ctx)
		alerts = pool
		logger.Printf("push alert worker pool started with %d workers", cfg.WorkerPool.Size)
	} else {
		logger.Println("VAPID keys not configured; push alerts disabled")
	}

	pipeline := propagate.NewPipeline(appStore, hub, publisher, alerts, cfg.Broadcast.Timeout)
	orderSvc := orders.NewService(appStore, cfg.Scheduling.Slot)

	// Initialize router
	router := api.NewRouter(appStore, pipeline, orderSvc, hub, &webpushOptions, cfg.Server)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start the server in a goroutine
	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Block until a signal is received.
	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	// Create a deadline to wait for.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	// Drain in-flight event bus publishes before the broker connection closes.
	if err := pipeline.Close(shutdownCtx); err != nil {
		logger.Printf("pipeline shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
