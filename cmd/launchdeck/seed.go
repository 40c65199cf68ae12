package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/avelar/launchdeck/internal/db"
	"github.com/avelar/launchdeck/internal/eventlog"
	"github.com/avelar/launchdeck/internal/models"
)

func newSeedCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed demo content for the configured event",
		Long:  "Creates a sample poll, a weather advisory, and a few chat messages so a fresh deployment has something to render.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "launchdeck.yaml", "path to Launchdeck config file")
	return cmd
}

func runSeed(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}

	store := eventlog.NewStore(gormDB, limiterFromConfig(cfg))
	now := time.Now()

	poll, err := store.CreatePoll(cfg.Event.ID, "Will we see a booster landing today?",
		[]string{"Nailed it", "Water landing", "Expendable mode"}, now)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Created poll %d: %s\n", poll.ID, poll.Question)

	adv := &models.WeatherAdvisory{
		EventID: cfg.Event.ID,
		Status:  "go",
		Summary: "Upper-level winds trending favorable; cumulus rule green.",
		WindKts: 12,
	}
	if err := store.SetWeather(adv, now); err != nil {
		return err
	}
	fmt.Fprintf(out, "Weather advisory: %s\n", adv.Status)

	// Distinct actors per line so the per-actor chat cooldown does not trip.
	lines := []struct{ handle, body string }{
		{"mission-control", "Welcome to launch day. T-0 holds at the configured target."},
		{"mission-control", "Polling is open — cast your landing prediction."},
		{"range-officer", "Range is green."},
	}
	for _, l := range lines {
		if _, err := store.AppendChat(cfg.Event.ID, uuid.NewString(), l.handle, l.body, now); err != nil {
			return err
		}
	}
	fmt.Fprintf(out, "Seeded %d chat messages\n", len(lines))

	fmt.Fprintf(out, "\nEvent %q seeded successfully.\n", cfg.Event.ID)
	return nil
}
