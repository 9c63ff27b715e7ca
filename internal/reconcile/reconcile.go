// Package reconcile sweeps attachment blobs that no message references.
// Orphans appear when a metadata commit fails after its blob was staged,
// or when a best-effort cascade delete is interrupted; the sweeper is what
// makes those paths safe to leave behind.
package reconcile

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/adhocore/gronx"
	"golang.org/x/time/rate"

	"chatstore/pkg/blob"
	"chatstore/pkg/config"
	"chatstore/pkg/logger"
	"chatstore/pkg/store"
)

// Sweeper periodically deletes unreferenced attachment blobs.
type Sweeper struct {
	store   *store.Store
	blobs   blob.Store
	grace   time.Duration
	limiter *rate.Limiter
}

// New builds a sweeper from config. Deletions are paced by the configured
// rate limit so a large orphan backlog never saturates the disk.
func New(st *store.Store, blobs blob.Store, cfg config.ReconcileConfig) *Sweeper {
	grace := time.Duration(cfg.Grace)
	if grace <= 0 {
		grace = time.Hour
	}
	rps := cfg.RateRPS
	if rps <= 0 {
		rps = 20
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 5
	}
	return &Sweeper{
		store:   st,
		blobs:   blobs,
		grace:   grace,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Start starts the sweep scheduler if enabled. Returns a cancel func.
func Start(ctx context.Context, st *store.Store, blobs blob.Store, cfg config.ReconcileConfig, statePath string) (context.CancelFunc, error) {
	if !cfg.Enabled {
		logger.Info("reconcile_disabled")
		return func() {}, nil
	}

	if err := os.MkdirAll(statePath, 0o700); err != nil {
		logger.Error("reconcile_path_create_failed", "path", statePath, "error", err)
		return nil, err
	}

	cronExpr := cfg.Cron
	if cronExpr == "" {
		cronExpr = config.DefaultReconcileCron
	}
	if !gronx.IsValid(cronExpr) {
		logger.Error("reconcile_invalid_cron", "cron", cfg.Cron)
		return nil, fmt.Errorf("invalid reconcile cron expression: %s", cfg.Cron)
	}

	sw := New(st, blobs, cfg)
	logger.Info("reconcile_enabled", "cron", cronExpr, "grace", sw.grace)
	ctx2, cancel := context.WithCancel(ctx)
	go sw.runScheduler(ctx2, cronExpr)
	logger.Info("reconcile_scheduler_started")
	return cancel, nil
}

// runScheduler uses gronx to compute the next tick for the configured cron
// expression and sleeps until that time.
func (s *Sweeper) runScheduler(ctx context.Context, cronExpr string) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("reconcile_scheduler_stopping")
			return
		default:
		}

		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(cronExpr, now, false)
		if err != nil {
			logger.Error("reconcile_nexttick_failed", "cron", cronExpr, "error", err)
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				logger.Info("reconcile_scheduler_stopping")
				return
			}
			continue
		}

		wait := time.Until(next)
		if wait <= 0 {
			wait = time.Second
		}
		select {
		case <-time.After(wait):
			if err := s.RunOnce(ctx); err != nil {
				logger.Error("reconcile_run_error", "error", err)
			}
		case <-ctx.Done():
			logger.Info("reconcile_scheduler_stopping")
			return
		}
	}
}

// RunOnce performs a single sweep: list every blob on disk, collect the
// set of filenames the store still references, and delete blobs that are
// unreferenced and older than the grace window. The grace window protects
// uploads staged just before their metadata commit.
func (s *Sweeper) RunOnce(ctx context.Context) error {
	start := time.Now()
	sweepsTotal.Inc()

	blobs, err := s.blobs.List(ctx)
	if err != nil {
		sweepErrorsTotal.Inc()
		return fmt.Errorf("list blobs: %w", err)
	}
	referenced, err := s.store.ReferencedAttachments(ctx)
	if err != nil {
		sweepErrorsTotal.Inc()
		return fmt.Errorf("collect references: %w", err)
	}

	cutoff := time.Now().Add(-s.grace)
	var removed, skipped int
	for _, b := range blobs {
		if _, ok := referenced[b.Name]; ok {
			continue
		}
		if b.ModTime.After(cutoff) {
			skipped++
			continue
		}
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
		if err := s.blobs.Delete(ctx, b.Name); err != nil {
			sweepErrorsTotal.Inc()
			logger.Warn("reconcile_delete_failed", "blob", b.Name, "error", err)
			continue
		}
		orphansRemoved.Inc()
		removed++
	}

	logger.Info("reconcile_sweep_complete",
		"blobs", len(blobs), "referenced", len(referenced),
		"removed", removed, "in_grace", skipped,
		"elapsed", time.Since(start).String())
	return nil
}
