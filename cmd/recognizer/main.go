package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/franckalain/foodlens/internal/config"
	"github.com/franckalain/foodlens/internal/logger"
	"github.com/franckalain/foodlens/internal/ml"
	"github.com/franckalain/foodlens/internal/recognition"
	"github.com/franckalain/foodlens/internal/storage"
)

func main() {
	configPath := flag.String("config", config.GetConfigPath(), "path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal("Failed to load configuration", "error", err)
	}
	if err := logger.InitWithConfig(cfg.LoggerConfig()); err != nil {
		logger.Fatal("Failed to initialize logger", "error", err)
	}
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Requests fail with a 500 until storage is configured
	store, err := storage.New(ctx, cfg.Storage.Type, cfg.Storage.Bucket, cfg.Storage.Region, cfg.Storage.Path)
	if err != nil {
		logger.Error("Storage unavailable", "type", cfg.Storage.Type, "error", err)
		if !errors.Is(err, storage.ErrNoBucket) {
			store = storage.NewUnavailableStore(err)
		}
	}
	if closer, ok := store.(io.Closer); ok {
		defer closer.Close()
	}

	var labeler ml.Labeler
	if cfg.ML.Type != "" {
		labeler, err = ml.NewLabeler(cfg.ML.Type, cfg.ML.ConfigPath)
		if err != nil {
			logger.Fatal("Failed to create label provider", "error", err)
		}
		if err := labeler.Load(ctx); err != nil {
			logger.Fatal("Failed to load label provider", "error", err)
		}
		logger.Info("Label detection enabled", "provider", cfg.ML.Type)
	}

	table := recognition.NewTable()
	if cfg.ML.TablePath != "" {
		if err := table.LoadFile(cfg.ML.TablePath); err != nil {
			logger.Fatal("Failed to load calorie table", "error", err)
		}
		go func() {
			if err := table.Watch(ctx, cfg.ML.TablePath); err != nil {
				logger.Error("Calorie table watcher stopped", "error", err)
			}
		}()
	}

	handler := recognition.NewHandler(recognition.NewService(store, labeler, table), cfg.Recognition.APIKey)
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: recognition.SetupRouter(handler),
	}

	go func() {
		logger.Info("Starting recognizer", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("ListenAndServe failed", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down recognizer...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown failed", "error", err)
		os.Exit(1)
	}
}
