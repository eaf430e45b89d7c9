// Command migrate creates or updates the review tables and exits.
package main

import (
	"fmt"
	"os"

	"github.com/monaam/reviewflow-sub000/internal/app"
	"github.com/monaam/reviewflow-sub000/internal/platform/logger"
)

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	database, err := app.OpenDatabase(log, cfg)
	if err != nil {
		log.Error("Migration failed", "error", err)
		log.Sync()
		os.Exit(1)
	}
	if err := database.Close(); err != nil {
		log.Warn("close database", "error", err)
	}
	log.Info("Migration finished", "driver", cfg.Database.Driver)
}
