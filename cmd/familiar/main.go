// ABOUTME: Entry point for the familiar terminal client.
// ABOUTME: Wires config, credentials, cache, gateway client, and the chat UI.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/2389/familiar/internal/api"
	"github.com/2389/familiar/internal/auth"
	"github.com/2389/familiar/internal/config"
	"github.com/2389/familiar/internal/dedupe"
	"github.com/2389/familiar/internal/runtime"
	"github.com/2389/familiar/internal/session"
	"github.com/2389/familiar/internal/store"
)

// Version is set by goreleaser at build time.
var version = "dev"

// getConfigPath returns the path to the client config file.
// Priority: FAMILIAR_CONFIG env var > ./familiar.yaml > ~/.config/familiar/config.yaml
func getConfigPath() string {
	if envPath := os.Getenv("FAMILIAR_CONFIG"); envPath != "" {
		return envPath
	}
	if _, err := os.Stat("familiar.yaml"); err == nil {
		return "familiar.yaml"
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "familiar.yaml"
		}
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "familiar", "config.yaml")
}

// getCachePath returns the local cache database path.
// Priority: config value > XDG_DATA_HOME/familiar > ~/.local/share/familiar
func getCachePath(cfg *config.Config) string {
	if cfg.Cache.Path != "" {
		return cfg.Cache.Path
	}

	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "familiar-cache.db"
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}
	return filepath.Join(dataDir, "familiar", "cache.db")
}

// setupLogger builds the slog logger. The terminal belongs to the UI, so
// logs go to the configured file or are discarded.
func setupLogger(cfg config.Logging) (*slog.Logger, func(), error) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var out io.Writer = io.Discard
	cleanup := func() {}
	if cfg.Path != "" {
		f, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		out = f
		cleanup = func() { f.Close() }
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	return slog.New(handler), cleanup, nil
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(getConfigPath())
	if errors.Is(err, os.ErrNotExist) {
		cfg = config.Default()
	} else if err != nil {
		return err
	}

	logger, cleanup, err := setupLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer cleanup()
	slog.SetDefault(logger)

	token, identity, err := resolveCredentials(cfg, logger)
	if err != nil {
		return err
	}

	workspace := cfg.Gateway.Workspace
	if workspace == "" {
		workspace = identity.Workspace
	}

	localStore, err := store.NewLocalStore(getCachePath(cfg))
	if err != nil {
		return err
	}
	defer localStore.Close()

	client := api.New(api.Options{
		BaseURL: cfg.Gateway.URL,
		Token:   func() string { return token },
		Identity: api.Identity{
			UserID:    identity.UserID,
			Workspace: workspace,
		},
		Logger: logger,
	})

	replays := dedupe.New(5*time.Minute, 10_000)
	defer replays.Close()

	panes := runtime.NewPaneSet(replays, logger)

	mgr := session.NewManager(session.Options{
		Workspace:    workspace,
		Sessions:     client,
		Agents:       client,
		Cache:        localStore,
		Logger:       logger,
		HistoryLimit: cfg.Session.HistoryLimit,
		RefreshDelay: cfg.Session.RefreshDelay,
		PollInterval: cfg.Session.PollInterval,
	})

	m := newModel(modelDeps{
		ctx:       ctx,
		client:    client,
		mgr:       mgr,
		panes:     panes,
		store:     localStore,
		tokenPath: cfg.Auth.TokenPath,
		userID:    identity.UserID,
		logger:    logger,
	})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	mgr.OnChange(func() { p.Send(stateChangedMsg{}) })
	panes.OnChange(func() { p.Send(stateChangedMsg{}) })
	go mgr.Run(ctx)

	logger.Info("familiar starting", "version", version, "gateway", cfg.Gateway.URL, "workspace", workspace)

	_, err = p.Run()
	return err
}

// resolveCredentials loads the stored token, or mints a development token
// when the config carries a shared secret.
func resolveCredentials(cfg *config.Config, logger *slog.Logger) (string, auth.Identity, error) {
	token, err := auth.LoadToken(cfg.Auth.TokenPath)
	if errors.Is(err, auth.ErrNoToken) && cfg.Auth.DevSecret != "" {
		token, err = auth.MintDevToken([]byte(cfg.Auth.DevSecret), cfg.Auth.DevUserID, cfg.Gateway.Workspace, 24*time.Hour)
		if err != nil {
			return "", auth.Identity{}, fmt.Errorf("minting dev token: %w", err)
		}
		logger.Warn("using locally minted dev token", "user_id", cfg.Auth.DevUserID)
	} else if err != nil {
		return "", auth.Identity{}, fmt.Errorf("no credentials: %w (set FAMILIAR_TOKEN or run familiar-send login)", err)
	}

	identity, err := auth.ParseIdentity(token)
	if errors.Is(err, auth.ErrExpiredToken) {
		return "", auth.Identity{}, fmt.Errorf("stored token expired; sign in again")
	}
	if err != nil {
		return "", auth.Identity{}, err
	}
	return token, identity, nil
}
