package banner

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"chatstore/pkg/config"
)

const banner = `
 ██████╗██╗  ██╗ █████╗ ████████╗███████╗████████╗ ██████╗ ██████╗ ███████╗
██╔════╝██║  ██║██╔══██╗╚══██╔══╝██╔════╝╚══██╔══╝██╔═══██╗██╔══██╗██╔════╝
██║     ███████║███████║   ██║   ███████╗   ██║   ██║   ██║██████╔╝█████╗
██║     ██╔══██║██╔══██║   ██║   ╚════██║   ██║   ██║   ██║██╔══██╗██╔══╝
╚██████╗██║  ██║██║  ██║   ██║   ███████║   ██║   ╚██████╔╝██║  ██║███████╗
 ╚═════╝╚═╝  ╚═╝╚═╝  ╚═╝   ╚═╝   ╚══════╝   ╚═╝    ╚═════╝ ╚═╝  ╚═╝╚══════╝
`

// Print renders the startup banner with the runtime configuration so an
// operator can see at a glance where data lives and whether the orphan
// sweeper is running.
func Print(cfg config.Config, version string) {
	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Data Path: %s\n", cfg.Storage.DataPath)
	if cfg.Blobs.Dir != "" {
		fmt.Printf("Blob Dir:  %s\n", cfg.Blobs.Dir)
	}
	if cfg.Blobs.MaxSize > 0 {
		fmt.Printf("Max Blob:  %s\n", humanize.Bytes(uint64(cfg.Blobs.MaxSize)))
	}
	if version != "" {
		fmt.Printf("Version:   %s\n", version)
	}

	if cfg.Reconcile.Enabled {
		cron := cfg.Reconcile.Cron
		if cron == "" {
			cron = config.DefaultReconcileCron
		}
		fmt.Printf("- Orphan sweep: enabled (cron=%s)\n", cron)
	} else {
		fmt.Println("- Orphan sweep: disabled (unreferenced blobs accumulate)")
	}

	fmt.Println("\n== Logs: =================================================")
}
