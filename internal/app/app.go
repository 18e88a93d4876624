package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/five82/lectern/internal/cache"
	"github.com/five82/lectern/internal/config"
	"github.com/five82/lectern/internal/exercise"
	"github.com/five82/lectern/internal/learn"
	"github.com/five82/lectern/internal/logging"
	"github.com/five82/lectern/internal/prefs"
	"github.com/five82/lectern/internal/state"
	"github.com/five82/lectern/internal/ui"
)

// Options configure the Lectern application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/lectern/prefs.toml
	EnvFile    string // empty uses .env in the working directory
	APIURL     string // overrides config and environment when set
}

// Session bundles the long-lived collaborators shared by the TUI and the CLI
// subcommands.
type Session struct {
	Config  config.Config
	Logger  *zap.Logger
	Client  *learn.Client
	Tracker *state.Tracker
	Runner  *exercise.Runner

	store    cache.Store
	closeLog func()
	restored bool
}

// Open loads configuration and builds a Session. Close must be called to
// flush logs and release the cache.
func Open(opts Options) (*Session, error) {
	envFile := strings.TrimSpace(opts.EnvFile)
	if envFile == "" {
		envFile = ".env"
	}
	envErr := godotenv.Load(envFile)

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if v := strings.TrimSpace(opts.APIURL); v != "" {
		cfg.APIURL = v
	}

	logger, closeLog, err := logging.New(logging.Config{
		FilePath: cfg.Log.File,
		Level:    cfg.Log.Level,
		Env:      cfg.Log.Env,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	switch {
	case envErr == nil:
		logger.Debug("loaded env file", zap.String("path", envFile))
	case errors.Is(envErr, os.ErrNotExist):
		logger.Debug("no env file found", zap.String("path", envFile))
	default:
		logger.Warn("reading env file failed", zap.String("path", envFile), zap.Error(envErr))
	}

	client, err := learn.NewClient(cfg.APIURL, cfg.RequestTimeout)
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("init platform client: %w", err)
	}

	store, err := cache.Open(cfg.Cache.Backend, cfg.Cache.Path)
	if err != nil {
		closeLog()
		return nil, err
	}

	tracker := state.NewTracker(client, store, logger)
	logger.Info("session opened",
		zap.String("api_url", client.BaseURL()),
		zap.String("cache_backend", cfg.Cache.Backend),
		zap.String("cache_path", cfg.Cache.Path),
	)

	return &Session{
		Config:   cfg,
		Logger:   logger,
		Client:   client,
		Tracker:  tracker,
		Runner:   exercise.NewRunner(client, tracker, logger),
		store:    store,
		closeLog: closeLog,
	}, nil
}

// Close releases the cache and flushes the logger.
func (s *Session) Close() error {
	err := s.store.Close()
	if err != nil {
		s.Logger.Warn("closing cache failed", zap.Error(err))
	}
	s.closeLog()
	return err
}

// restore loads the cached snapshot once. Every command restores before it
// mutates anything so a save never overwrites the cache with an empty state.
func (s *Session) restore(ctx context.Context) state.Snapshot {
	if s.restored {
		return s.Tracker.Snapshot()
	}
	s.restored = true
	return s.Tracker.Restore(ctx)
}

// Run boots the Lectern TUI until the context is cancelled or the user quits.
func Run(ctx context.Context, opts Options) error {
	s, err := Open(opts)
	if err != nil {
		return err
	}
	defer s.Close()

	userPrefs, err := prefs.Resolve(opts.PrefsPath, lipgloss.HasDarkBackground)
	if err != nil {
		s.Logger.Warn("saving detected theme failed", zap.Error(err))
	}

	StartPoller(ctx, s.Tracker, s.Config.PollInterval, s.Logger)

	uiOpts := ui.Options{
		Context: ctx,
		Tracker: s.Tracker,
		Lessons: s.Client,
		Runner:  s.Runner,
		Bootstrap: func(ctx context.Context) error {
			return Bootstrap(ctx, s.Client, s.Tracker, s.Logger)
		},
		Offline:   ErrOffline,
		LogPath:   s.Config.Log.File,
		ThemeName: userPrefs.Theme,
		PrefsPath: opts.PrefsPath,
	}
	return ui.Run(uiOpts)
}
