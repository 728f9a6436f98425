// Command seed fills the incident store with random incidents.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/bissquit/incident-tracker/internal/app"
	"github.com/bissquit/incident-tracker/internal/config"
	"github.com/bissquit/incident-tracker/internal/incidents"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to YAML config file")
	count := flag.Int("n", incidents.DefaultSeedCount, "number of incidents to create")
	reset := flag.Bool("reset", false, "delete existing incidents first")
	seed := flag.Uint64("seed", uint64(time.Now().UnixNano()), "random seed")
	flag.Parse()

	if err := run(*configPath, *count, *reset, *seed); err != nil {
		slog.Error("seed failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, count int, reset bool, seed uint64) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := app.NewLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Database.ConnectTimeout)
	storage, err := app.OpenStorage(ctx, cfg.Database, logger)
	cancel()
	if err != nil {
		return err
	}
	defer func() { _ = storage.Close() }()

	n, err := incidents.NewSeeder(storage.Repository, seed).Seed(context.Background(), count, reset)
	if err != nil {
		return err
	}

	logger.Info("seeded incidents", "count", n, "reset", reset, "driver", storage.Driver(), "seed", seed)
	return nil
}
