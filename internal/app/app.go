package app

import (
	"context"
	"fmt"

	"chatstore/internal/reconcile"
	"chatstore/pkg/auth"
	"chatstore/pkg/blob"
	"chatstore/pkg/chat"
	"chatstore/pkg/config"
	"chatstore/pkg/logger"
	"chatstore/pkg/state"
	"chatstore/pkg/store"
)

// App encapsulates the engine components and lifecycle.
type App struct {
	cfg       config.Config
	version   string
	commit    string
	buildDate string

	store    *store.Store
	blobs    blob.Store
	service  *chat.Service
	verifier chat.Authenticator

	cancelSweep context.CancelFunc
}

// New initializes resources that do not require a running context (data
// directories, pebble store, blob store, service wiring). It does not start
// the reconcile scheduler; call Run to start it and block until shutdown.
func New(cfg config.Config, version, commit, buildDate string) (*App, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	paths := state.Layout(cfg.Storage.DataPath)
	if cfg.Blobs.Dir != "" {
		paths.Blobs = cfg.Blobs.Dir
	}
	if err := state.EnsureDirs(paths); err != nil {
		return nil, fmt.Errorf("prepare data directories: %w", err)
	}

	st, err := store.Open(paths.Store)
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble at %s: %w", paths.Store, err)
	}
	if err := st.Migrate(); err != nil {
		st.Close()
		return nil, fmt.Errorf("schema migration: %w", err)
	}

	blobs, err := blob.NewDisk(paths.Blobs)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("open blob store at %s: %w", paths.Blobs, err)
	}

	svc := chat.New(st, blobs, openDirectory{}, cfg.Blobs.MaxSize.Int64())

	var verifier chat.Authenticator
	if len(cfg.Auth.SigningSecrets) > 0 {
		verifier, err = auth.NewVerifier(cfg.Auth.SigningSecrets)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("configure auth: %w", err)
		}
	}

	a := &App{
		cfg:       cfg,
		version:   version,
		commit:    commit,
		buildDate: buildDate,
		store:     st,
		blobs:     blobs,
		service:   svc,
		verifier:  verifier,
	}
	return a, nil
}

// Service returns the wired chat service.
func (a *App) Service() *chat.Service { return a.service }

// Authenticator returns the configured credential verifier, or nil when no
// signing secrets are set (trusted-caller deployments).
func (a *App) Authenticator() chat.Authenticator { return a.verifier }

// Store returns the underlying conversation store.
func (a *App) Store() *store.Store { return a.store }

// Run starts the reconcile scheduler and blocks until ctx is canceled.
func (a *App) Run(ctx context.Context) error {
	paths := state.Layout(a.cfg.Storage.DataPath)
	cancel, err := reconcile.Start(ctx, a.store, a.blobs, a.cfg.Reconcile, paths.Reconcile)
	if err != nil {
		return err
	}
	a.cancelSweep = cancel

	a.printBanner()

	<-ctx.Done()
	return nil
}

// Close stops background work and releases the store. Safe to call after a
// failed Run.
func (a *App) Close() error {
	if a.cancelSweep != nil {
		a.cancelSweep()
	}
	if err := a.store.Close(); err != nil {
		logger.Error("store_close_failed", "error", err)
		return err
	}
	return nil
}
