package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"tvremote/internal/api"
	"tvremote/internal/bravia"
	"tvremote/internal/catalog"
	"tvremote/internal/clock"
	"tvremote/internal/config"
	"tvremote/internal/metrics"
	"tvremote/internal/reconciler"
	"tvremote/internal/wol"
	"tvremote/internal/ws"
)

func main() {
	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logger.Warn("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	logger.Info("Starting TV remote gateway",
		zap.String("tv", cfg.TVHost),
		zap.Int("port", cfg.Port),
		zap.Duration("poll_interval", cfg.PollInterval))

	apps, err := config.LoadApplications(cfg.AppsConfig, logger)
	if err != nil {
		logger.Fatal("Failed to load application catalog", zap.Error(err))
	}

	client := bravia.NewHTTPClient(cfg.BaseURL(), cfg.PSK, logger)

	waker, err := wol.NewSender(cfg.TVMAC, cfg.TVHost, logger)
	if err != nil {
		logger.Fatal("Invalid TV network address", zap.Error(err))
	}

	manager := reconciler.NewManager(client, clock.NewRealClock(), logger, cfg.PollInterval)
	hub := ws.NewHub(logger)
	collector := metrics.NewCollector()

	manager.Subscribe(func(s reconciler.Snapshot) {
		hub.Broadcast(s)
		collector.Observe(s)
	})

	manager.Start()
	defer manager.Stop()

	server := api.NewServer(api.Options{
		Client:       client,
		Waker:        waker,
		Reconciler:   manager,
		Hub:          hub,
		Metrics:      collector.Handler(),
		Applications: apps,
		Icons:        catalog.NewIconIndex(),
		StaticDir:    cfg.StaticDir,
		IconsDir:     cfg.IconsDir,
		Port:         cfg.Port,
		Logger:       logger,
	})

	if err := server.Start(); err != nil {
		logger.Fatal("Failed to start HTTP server", zap.Error(err))
	}

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan

	logger.Info("Shutting down gracefully...")
	if err := server.Stop(); err != nil {
		logger.Error("Failed to stop HTTP server cleanly", zap.Error(err))
	}
}
