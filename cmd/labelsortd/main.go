package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/jsk-labs/label-sorter/internal/common"
	"github.com/jsk-labs/label-sorter/internal/export"
	"github.com/jsk-labs/label-sorter/internal/history"
	"github.com/jsk-labs/label-sorter/internal/label"
	"github.com/jsk-labs/label-sorter/internal/server"
	"github.com/jsk-labs/label-sorter/internal/sorter"
)

func main() {
	configFile := flag.String("config", "", "path to YAML config file (optional)")
	flag.Parse()

	cfg, err := common.Load(*configFile)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	// Context with signal
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var customRules []label.CourierRule
	if cfg.Sorter.RulesFile != "" {
		if customRules, err = label.LoadRules(cfg.Sorter.RulesFile); err != nil {
			logger.Error("failed to load courier rules", "file", cfg.Sorter.RulesFile, "error", err)
			os.Exit(1)
		}
		logger.Info("rules.loaded", "file", cfg.Sorter.RulesFile, "count", len(customRules))
	}

	var store *history.Store
	if cfg.History.DSN != "" {
		if store, err = history.Open(cfg.History.DSN, logger); err != nil {
			logger.Error("failed to open history store", "dsn", cfg.History.DSN, "error", err)
			os.Exit(1)
		}
		defer func() { _ = store.Close() }()
	}

	s := sorter.New(sorter.Config{Workers: cfg.Sorter.Workers}, label.NewParser(customRules), logger)
	h := server.NewHandler(s, export.NewService(logger), store, cfg.Server.MaxUploadBytes, logger)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      server.Setup(h, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("server.listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("server.shutting_down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	logger.Info("server.stopped")
}

func newLogger(cfg common.LogConfig) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
