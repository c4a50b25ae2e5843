package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Brownie44l1/plant-predict-ui/internal/config"
	"github.com/Brownie44l1/plant-predict-ui/internal/handlers"
	"github.com/Brownie44l1/plant-predict-ui/internal/logging"
	"github.com/Brownie44l1/plant-predict-ui/internal/model"
	"github.com/Brownie44l1/plant-predict-ui/internal/preview"
	"github.com/Brownie44l1/plant-predict-ui/internal/session"
	"github.com/Brownie44l1/plant-predict-ui/internal/view"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "plant-predict-ui: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	loader := config.NewLoader()
	if path := os.Getenv("PLANTUI_CONFIG"); path != "" {
		loader.WithPath(path)
	}
	cfg, err := loader.Load()
	if err != nil {
		return err
	}

	logger := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	slog.SetDefault(logger)

	client := model.NewClient(model.ClientConfig{
		Endpoint: cfg.Predict.Endpoint,
		Timeout:  cfg.Predict.Timeout,
		Logger:   logger,
	})
	previews := preview.NewStore(cfg.Preview.MaxSide)
	sessions := session.NewManager(cfg.Session.TTL, func() *view.View {
		return view.New(view.Options{
			Predictor:     client,
			Previews:      previews,
			PreviewPrefix: handlers.PreviewPrefix,
			Logger:        logger,
		})
	}, logger)
	defer sessions.Close()

	handler := handlers.NewHandler(sessions, previews, cfg.Upload.MaxBytes, logger)
	router := handlers.NewRouter(handler, cfg.Server.Mode, logger)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", srv.Addr, "endpoint", client.Endpoint())
		logger.Info("endpoints",
			"page", "GET /",
			"select", "POST /select",
			"predict", "POST /predict",
			"api", "GET /api/state, POST /api/select, POST /api/predict",
			"health", "GET /health",
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Predict.Timeout+5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
