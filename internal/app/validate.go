package app

import (
	"fmt"

	"github.com/adhocore/gronx"

	"chatstore/pkg/config"
)

// validateConfig performs quick, fail-fast validation of the configuration
// before starting long-running services. Keep checks light and focused so
// callers can surface user-friendly errors.
func validateConfig(cfg config.Config) error {
	if cfg.Storage.DataPath == "" {
		return fmt.Errorf("data path is empty: set --config storage.data_path or CHATSTORE_DATA_PATH")
	}

	if cfg.Blobs.MaxSize < 0 {
		return fmt.Errorf("blobs.max_size cannot be negative")
	}

	if cfg.Reconcile.Enabled {
		if cron := cfg.Reconcile.Cron; cron != "" && !gronx.IsValid(cron) {
			return fmt.Errorf("invalid reconcile.cron expression: %s", cron)
		}
		if cfg.Reconcile.RateRPS < 0 {
			return fmt.Errorf("reconcile.rate_rps cannot be negative")
		}
		if cfg.Reconcile.Grace < 0 {
			return fmt.Errorf("reconcile.grace cannot be negative")
		}
	}

	return nil
}
