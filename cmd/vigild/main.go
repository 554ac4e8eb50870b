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

	"github.com/SherClockHolmes/webpush-go"

	"github.com/daniel-odulate22/vigil-scan/config"
	"github.com/daniel-odulate22/vigil-scan/internal/api"
	"github.com/daniel-odulate22/vigil-scan/internal/connectivity"
	"github.com/daniel-odulate22/vigil-scan/internal/db"
	"github.com/daniel-odulate22/vigil-scan/internal/dose"
	"github.com/daniel-odulate22/vigil-scan/internal/drugdb"
	"github.com/daniel-odulate22/vigil-scan/internal/notification"
	"github.com/daniel-odulate22/vigil-scan/internal/queue"
	"github.com/daniel-odulate22/vigil-scan/internal/reminder"
	"github.com/daniel-odulate22/vigil-scan/internal/remote"
	"github.com/daniel-odulate22/vigil-scan/internal/scanner"
	"github.com/daniel-odulate22/vigil-scan/internal/syncer"
)

func main() {
	logger := log.New(os.Stdout, "vigild ", log.LstdFlags)

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

	var webpushOptions *webpush.Options
	if cfg.Push.PublicKey != "" && cfg.Push.PrivateKey != "" {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
	} else {
		logger.Println("VAPID keys are not configured; push notifications disabled")
	}

	// Initialize database
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Durable pending-dose queue
	doseQueue := queue.NewGormStore(gormDB)

	// Connectivity watcher
	watcher := connectivity.NewWatcher(&cfg.Connectivity)
	go watcher.Run(ctx)

	// Notification worker pool
	pool := notification.NewWorkerPool(cfg.WorkerPool.Size, gormDB, webpushOptions)
	pool.Start(ctx)

	// Event hub for connected UIs
	hub := api.NewHub()
	go hub.Run(ctx)
	watcher.OnChange(hub.PublishConnectivity)

	// Remote dose store and sync coordinator
	remoteStore := remote.NewClient(&cfg.Sync.Remote)
	identity := func() (string, bool) {
		return cfg.UserID, cfg.UserID != ""
	}
	coordinator := syncer.NewCoordinator(doseQueue, remoteStore, watcher, pool, identity,
		cfg.Sync.Interval, cfg.Sync.SettleDelay)
	go coordinator.Run(ctx)

	// Drug database client and dose confirmation service
	drugs := drugdb.NewClient(&cfg.DrugDB)
	doseService := dose.NewService(doseQueue, remoteStore, watcher, drugs)

	// Scanner controller. Camera and engine placeholders are replaced by the
	// embedding build's device integration.
	controller := scanner.NewController(cfg.Scanner, scanner.UnavailableCamera(), scanner.UnavailableEngine())
	controller.SetStateHandler(hub.PublishScannerState)
	controller.SetDecodeHandler(hub.PublishDecode)

	// Reminder scheduler
	if cfg.Reminder.Enabled {
		scheduler := reminder.NewScheduler(gormDB, pool, cfg.Reminder.CheckInterval, cfg.Reminder.Timezone)
		go scheduler.Run(ctx)
	}

	// Initialize router
	handler := api.NewHandler(gormDB, doseService, coordinator, controller, drugs, watcher, webpushOptions)
	handler.SetEventHub(hub)
	router := api.NewRouter(handler, hub, &cfg.Server)
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

	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	// Release the camera before the process exits.
	controller.Stop(context.Background())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
