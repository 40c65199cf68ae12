package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/avelar/launchdeck/internal/config"
	"github.com/avelar/launchdeck/internal/db"
	"github.com/avelar/launchdeck/internal/eventlog"
	"github.com/avelar/launchdeck/internal/models"
	"github.com/avelar/launchdeck/internal/server"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Launchdeck API server",
		Long:  "Connects to the event-log database, runs migrations, and serves the HTTP API with the nightly retention sweeper.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, port)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "launchdeck.yaml", "path to Launchdeck config file")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (overrides config)")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string, port int) error {
	out := cmd.OutOrStdout()

	// Local .env may carry notify tokens; absence is fine.
	godotenv.Load()

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if port > 0 {
		cfg.Server.Port = port
	}

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}
	fmt.Fprintf(out, "Event %q ready (%s, %d tables)\n", cfg.Event.ID, cfg.Database.Driver, len(db.AllModels()))

	store := eventlog.NewStore(gormDB, limiterFromConfig(cfg))

	sweeper, err := eventlog.NewSweeper(store, cfg.Server.RetentionCron, cfg.Server.RetentionDays)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(out, "\nReceived %s, shutting down...\n", sig)
		cancel()
	}()

	go sweeper.Run(ctx)

	return server.Start(ctx, server.StartOpts{
		Store: store,
		Port:  cfg.Server.Port,
		Out:   out,
	})
}

// loadConfig reads the YAML config and applies environment overrides for the
// notify tokens, so secrets stay out of the config file.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if v := os.Getenv("LAUNCHDECK_DISCORD_TOKEN"); v != "" {
		cfg.Notify.DiscordToken = v
	}
	if v := os.Getenv("LAUNCHDECK_SLACK_TOKEN"); v != "" {
		cfg.Notify.SlackToken = v
	}
	return cfg, nil
}

func limiterFromConfig(cfg *config.Config) *eventlog.RateLimiter {
	return eventlog.NewRateLimiter(map[models.LogKind]time.Duration{
		models.KindChat:     time.Duration(cfg.Limits.ChatSeconds) * time.Second,
		models.KindReaction: time.Duration(cfg.Limits.ReactionSeconds) * time.Second,
		models.KindPoll:     time.Duration(cfg.Limits.VoteSeconds) * time.Second,
	})
}
