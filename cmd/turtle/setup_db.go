package main

import (
	"flag"

	"github.com/turtletrader/engine/internal/repo"
	"go.uber.org/zap"
)

// runSetupDB initializes the on-disk JSON store at --data so subsequent
// daily-run/monitor invocations have a place to persist N values, trades,
// positions, and events.
func runSetupDB(args []string) error {
	fs := flag.NewFlagSet("setup-db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "data directory")
	logLevel := fs.String("log-level", "info", "log level")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger := setupLogger(*logLevel)
	defer logger.Sync()

	if _, err := repo.NewJSONStore(logger, *dataDir); err != nil {
		return err
	}

	logger.Info("data store ready", zap.String("dataDir", *dataDir))
	return nil
}
