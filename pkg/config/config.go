package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults applied when neither file nor environment provide a value.
const (
	DefaultDataPath = "./data"
	// Default sweep schedule: daily at 02:00 UTC.
	DefaultReconcileCron = "0 2 * * *"
)

// Load reads the YAML config at path (optional), merges environment
// overrides on top and fills defaults. A `.env` file in the working
// directory is honored before the environment is read.
func Load(path string) (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

// ResolveConfigPath picks the config file path: an explicit flag value wins,
// then CHATSTORE_CONFIG, then a ./config.yaml if present.
func ResolveConfigPath(flagVal string, flagSet bool) string {
	if flagSet && flagVal != "" {
		return flagVal
	}
	if p := os.Getenv("CHATSTORE_CONFIG"); p != "" {
		return p
	}
	if _, err := os.Stat("config.yaml"); err == nil {
		return "config.yaml"
	}
	return ""
}

// applyEnv merges CHATSTORE_* environment overrides into cfg.
func applyEnv(cfg *Config) {
	if v := os.Getenv("CHATSTORE_DATA_PATH"); v != "" {
		cfg.Storage.DataPath = v
	}
	if v := os.Getenv("CHATSTORE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CHATSTORE_BLOB_DIR"); v != "" {
		cfg.Blobs.Dir = v
	}
	if v := os.Getenv("CHATSTORE_RECONCILE_ENABLED"); v != "" {
		cfg.Reconcile.Enabled = isTruthy(v)
	}
	if v := os.Getenv("CHATSTORE_RECONCILE_CRON"); v != "" {
		cfg.Reconcile.Cron = v
	}
	if v := os.Getenv("CHATSTORE_RECONCILE_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Reconcile.RateRPS = f
		}
	}
	if v := os.Getenv("CHATSTORE_SIGNING_SECRETS"); v != "" {
		cfg.Auth.SigningSecrets = nil
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				cfg.Auth.SigningSecrets = append(cfg.Auth.SigningSecrets, s)
			}
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Storage.DataPath == "" {
		cfg.Storage.DataPath = DefaultDataPath
	}
	if cfg.Reconcile.Cron == "" {
		cfg.Reconcile.Cron = DefaultReconcileCron
	}
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
