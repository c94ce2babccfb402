package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/franckalain/foodlens/internal/analysis"
	"github.com/franckalain/foodlens/internal/capture"
	"github.com/franckalain/foodlens/internal/config"
	"github.com/franckalain/foodlens/internal/logger"
	"github.com/franckalain/foodlens/internal/server"
	"github.com/franckalain/foodlens/internal/session"
)

func main() {
	configPath := flag.String("config", config.GetConfigPath(), "path to configuration file")
	snap := flag.String("snap", "", "analyze one photo file and exit")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal("Failed to load configuration", "error", err)
	}
	if err := logger.InitWithConfig(cfg.LoggerConfig()); err != nil {
		logger.Fatal("Failed to initialize logger", "error", err)
	}

	client := analysis.NewClient(cfg.Recognition.URL, cfg.Recognition.APIKey, nil)
	captureOpts := capture.Options{
		MaxDimension: cfg.Capture.MaxDimension,
		Quality:      cfg.Capture.Quality,
		Dir:          cfg.Capture.Dir,
	}

	if *snap != "" {
		if err := runSnap(context.Background(), *snap, client, captureOpts); err != nil {
			logger.Fatal("Snap failed", "error", err)
		}
		return
	}

	srv := server.New(client, server.Options{
		Capture:   captureOpts,
		StaticDir: cfg.Server.StaticDir,
	})
	if err := srv.Start(cfg.Server.Port); err != nil {
		logger.Fatal("Failed to start server", "error", err)
	}
}

// runSnap runs one capture cycle on a photo file, prints the draft and saves
// it when the analysis succeeded
func runSnap(ctx context.Context, path string, analyzer analysis.Analyzer, opts capture.Options) error {
	s := session.New()
	adapter := capture.NewAdapter(&capture.FileCamera{Path: path}, opts)

	if err := s.BeginCapture(); err != nil {
		return err
	}
	img, err := adapter.Capture(ctx)
	if err != nil {
		s.CaptureFailed()
		return err
	}
	if err := s.BeginAnalysis(img); err != nil {
		return err
	}

	result := analysis.NewProcessor(analyzer, 0).Run(ctx, img, func(step analysis.Step) {
		fmt.Fprintln(os.Stderr, step.Label)
	})

	draft, err := s.CompleteAnalysis(result)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(draft); err != nil {
		return err
	}
	if draft.Failed() {
		return fmt.Errorf("analysis failed: %s", draft.Error)
	}

	meal, err := s.SaveMeal()
	if err != nil {
		return err
	}
	logger.Info("Snap saved", "id", meal.ID, "calories", meal.Calories)
	return enc.Encode(s.Summary())
}
