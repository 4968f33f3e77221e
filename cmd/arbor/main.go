package main

import (
	"fmt"
	"os"

	"github.com/arborsched/arbor/internal/cli"
	"github.com/arborsched/arbor/internal/config"
	"github.com/arborsched/arbor/internal/db"
	"github.com/arborsched/arbor/internal/obslog"
	"github.com/arborsched/arbor/internal/repository"
	"github.com/arborsched/arbor/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	database, err := db.OpenDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	var log obslog.Logger = obslog.Noop{}
	if cfg.Debug {
		log = obslog.NewWriter(os.Stderr, true)
	}

	app := &cli.App{
		Schedule: service.NewScheduleService(log),
		Graphs:   repository.NewGraphRepository(database),
		Runs:     repository.NewRunRepository(database),
	}

	rootCmd := cli.NewRootCmd(app)
	return rootCmd.Execute()
}
