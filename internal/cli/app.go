package cli

import (
	"fmt"

	"github.com/darwiniquina/daily-task/internal/backend"
	"github.com/darwiniquina/daily-task/internal/config"
	"github.com/darwiniquina/daily-task/internal/logger"
	"github.com/darwiniquina/daily-task/internal/prefs"
	"github.com/darwiniquina/daily-task/internal/store"
)

// app wires the backend client, session provider, preferences store and
// state components for one command invocation
type app struct {
	cfg    *config.Config
	auth   *backend.Auth
	api    *backend.Client
	prefs  *prefs.Store
	stores *store.Stores
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		logger.Warn("Failed to load config, using defaults", logger.F("error", err))
		cfg = config.DefaultConfig()
	}

	auth, err := backend.NewAuth(cfg.BackendURL, cfg.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session: %w", err)
	}

	pf, err := prefs.OpenDefault()
	if err != nil {
		return nil, fmt.Errorf("failed to open preferences: %w", err)
	}

	api := backend.NewClient(cfg.BackendURL, cfg.APIKey, auth)

	return &app{
		cfg:    cfg,
		auth:   auth,
		api:    api,
		prefs:  pf,
		stores: store.New(api, auth, pf),
	}, nil
}

func (a *app) Close() {
	a.stores.Close()
	if err := a.prefs.Close(); err != nil {
		logger.Warn("Failed to close preferences store", logger.F("error", err))
	}
}

// requireUser fails fast when no session is present
func (a *app) requireUser() (*backend.User, error) {
	user := a.auth.User()
	if user == nil {
		return nil, fmt.Errorf("not signed in, run 'daily-task login' first")
	}
	return user, nil
}
