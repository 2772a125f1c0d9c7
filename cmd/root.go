// Package cmd implements the kcal CLI commands.
package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/theirongolddev/kcal/internal/config"
	"github.com/theirongolddev/kcal/internal/store"
	"github.com/theirongolddev/kcal/internal/tracker"

	"github.com/spf13/cobra"
)

var (
	flagDataDir  string
	flagBackend  string
	flagQuiet    bool
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:   "kcal",
	Short: "Daily calorie log",
	Long:  "Log today's meals, track them against a daily calorie goal, and start fresh each day.",
	RunE:  runSummary,

	SilenceUsage: true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagDataDir, "data-dir", "d", "", "Directory holding the log database (default $XDG_DATA_HOME/kcal)")
	rootCmd.PersistentFlags().StringVar(&flagBackend, "backend", "", "Storage backend: sqlite, bolt or memory (default from config)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "Log level: debug, info, warn or error")
}

// newLogger builds the stderr logger shared by every command.
func newLogger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(flagLogLevel)); err != nil {
		level = slog.LevelWarn
	}
	if flagQuiet && level < slog.LevelError {
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// resolveStorage picks the backend and data directory: flags first, then
// KCAL_DATA_DIR, then the config file, then the XDG default.
func resolveStorage(cfg config.Config) (backend, dir string) {
	backend = strings.ToLower(strings.TrimSpace(flagBackend))
	if backend == "" {
		backend = cfg.Storage.Backend
	}

	switch {
	case flagDataDir != "":
		dir = flagDataDir
	case os.Getenv("KCAL_DATA_DIR") != "":
		dir = os.Getenv("KCAL_DATA_DIR")
	case cfg.Storage.DataDir != "":
		dir = cfg.Storage.DataDir
	default:
		dir = store.DataDir()
	}
	return backend, dir
}

// openedLog bundles a tracker with the store it persists to.
type openedLog struct {
	*tracker.Log
	cfg     config.Config
	backend string
	dir     string
	kv      store.KV
	logger  *slog.Logger
}

func (o *openedLog) Close() {
	if err := o.kv.Close(); err != nil {
		o.logger.Warn("closing store", "err", err)
	}
}

// openLog is the shared load path used by all commands. With fallback set,
// an unusable store degrades to an in-memory log instead of failing. A store
// locked by another process always fails: running in memory next to it would
// silently drop every change.
func openLog(fallback bool) (*openedLog, error) {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Warn("config unreadable, using defaults", "path", config.Path(), "err", err)
		cfg = config.DefaultConfig()
	}

	backend, dir := resolveStorage(cfg)
	kv, err := store.Open(backend, dir)
	if err != nil {
		if !fallback || errors.Is(err, store.ErrLocked) {
			return nil, fmt.Errorf("opening %s store in %s: %w", backend, dir, err)
		}
		logger.Warn("store unavailable, changes will not be saved", "backend", backend, "dir", dir, "err", err)
		if !flagQuiet {
			fmt.Fprintf(os.Stderr, "  Storage unavailable, running in memory\n")
		}
		backend = store.BackendMemory
		kv = store.NewMemory()
	}
	logger.Debug("store opened", "backend", backend, "dir", dir)

	log := tracker.New(
		store.NewSlot(kv, store.SnapshotKey),
		tracker.WithLogger(logger),
		tracker.WithDefaultGoal(cfg.General.DefaultGoal),
	)

	return &openedLog{
		Log:     log,
		cfg:     cfg,
		backend: backend,
		dir:     dir,
		kv:      kv,
		logger:  logger,
	}, nil
}
