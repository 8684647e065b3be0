// Command placesim loads a synthetic population, builds the place
// graph, and runs the daily place update loop.
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/epicast/synthplaces/internal/config"
	"github.com/epicast/synthplaces/internal/persistence"
	"github.com/epicast/synthplaces/internal/sim"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := config.FromEnv(config.Default())
	slog.Info("synthplaces starting",
		"seed", cfg.Seed,
		"days", cfg.Days,
		"input_dir", cfg.InputDir,
		"data_dir", cfg.DataDir)

	os.MkdirAll(cfg.DataDir, 0755)
	db, err := persistence.Open(filepath.Join(cfg.DataDir, "synthplaces.db"))
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "run_id", db.RunID())

	s := sim.New(&cfg)
	if err := s.Setup(); err != nil {
		slog.Error("setup failed", "error", err)
		os.Exit(1)
	}

	for day := 0; day < cfg.Days; day++ {
		s.Update(day)
		s.DailyReport(day)
	}
	s.Summary()

	if err := db.SaveSnapshot(s.Reg, cfg.Days-1); err != nil {
		slog.Error("snapshot failed", "error", err)
		os.Exit(1)
	}
	slog.Info("run complete")
}
