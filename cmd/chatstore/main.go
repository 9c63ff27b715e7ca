package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	"chatstore/internal/app"
	"chatstore/pkg/config"
	"chatstore/pkg/logger"
	"chatstore/pkg/shutdown"
)

// build metadata - set via ldflags during build/release
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	_ = godotenv.Load(".env")

	cfgFlag := flag.String("config", "", "path to config file")
	dataFlag := flag.String("data", "", "data directory (overrides config)")
	flag.Parse()
	cfgSet := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			cfgSet = true
		}
	})

	cfgPath := config.ResolveConfigPath(*cfgFlag, cfgSet)
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *dataFlag != "" {
		cfg.Storage.DataPath = *dataFlag
	}

	logger.InitWithLevel(cfg.Logging.Level)

	a, err := app.New(*cfg, version, commit, buildDate)
	if err != nil {
		shutdown.Abort("startup failed", err, cfg.Storage.DataPath)
	}

	ctx, cancel := shutdown.SetupSignalHandler(context.Background())
	defer cancel()

	if err := a.Run(ctx); err != nil {
		_ = a.Close()
		shutdown.Abort("runtime failure", err, cfg.Storage.DataPath)
	}

	logger.Info("shutting_down")
	if err := a.Close(); err != nil {
		os.Exit(1)
	}
}
