package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/labki-org/labki-schemas/config"
	"github.com/labki-org/labki-schemas/internal/store"
)

// loadEnvironment resolves the layered configuration, builds a logger from
// it, and opens the working-tree store at the resolved repo path.
func loadEnvironment(flags *globalFlags) (*config.Config, *slog.Logger, *store.OSFileStore, error) {
	loader := config.NewLoader(slog.Default())
	cfg, err := loader.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	if flags.configPath != "" {
		fileCfg, err := config.LoadFromFile(flags.configPath)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("load --config file: %w", err)
		}
		cfg.Merge(fileCfg)
	}
	if flags.repoPath != "" {
		cfg.Repo.Path = flags.repoPath
	}
	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
	}
	if flags.logFormat != "" {
		cfg.Logging.Format = flags.logFormat
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := newLogger(cfg.Logging.Level, cfg.Logging.Format)

	absRepo, err := filepath.Abs(cfg.Repo.Path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("resolve repo path: %w", err)
	}
	fs, err := store.NewOSFileStore(absRepo)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open repository %q: %w", absRepo, err)
	}

	return cfg, logger, fs, nil
}

func newLogger(level, format string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
