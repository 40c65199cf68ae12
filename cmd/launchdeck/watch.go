package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/avelar/launchdeck/internal/localstore"
	"github.com/avelar/launchdeck/internal/syncclient"
)

func newWatchCmd() *cobra.Command {
	var (
		configPath string
		serverURL  string
		handle     string
		statePath  string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the live event from a terminal",
		Long:  "Runs the sync client against a Launchdeck server and renders the mission clock, phase, telemetry, chat, reactions, polls, and weather once per second.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, configPath, serverURL, handle, statePath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "launchdeck.yaml", "path to Launchdeck config file")
	cmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "base URL of the Launchdeck server")
	cmd.Flags().StringVar(&handle, "handle", "viewer", "display handle for chat")
	cmd.Flags().StringVar(&statePath, "state", "", "path to the local state file (default ~/.launchdeck/state.json)")
	return cmd
}

func runWatch(cmd *cobra.Command, configPath, serverURL, handle, statePath string) error {
	out := cmd.OutOrStdout()

	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	ref, err := cfg.TargetInstant()
	if err != nil {
		return err
	}
	table, err := cfg.PhaseTable()
	if err != nil {
		return err
	}

	local, err := openState(statePath)
	if err != nil {
		return err
	}

	client := syncclient.NewClient(serverURL, cfg.Event.ID,
		time.Duration(cfg.Poll.TimeoutSeconds)*time.Second)

	syncer := syncclient.NewSyncer(syncclient.Options{
		Client:            client,
		Actor:             sessionActor(local),
		Handle:            handle,
		Ref:               ref,
		Table:             table,
		Local:             local,
		ChatInterval:      time.Duration(cfg.Poll.ChatSeconds) * time.Second,
		ReactionsInterval: time.Duration(cfg.Poll.ReactionsSeconds) * time.Second,
		PollsInterval:     time.Duration(cfg.Poll.PollsSeconds) * time.Second,
		WeatherInterval:   time.Duration(cfg.Poll.WeatherSeconds) * time.Second,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	syncer.Start(ctx)
	defer syncer.Stop()

	// On a real terminal, redraw in place; when piped, append one line per
	// tick so the output stays greppable.
	interactive := term.IsTerminal(int(os.Stdout.Fd()))

	fmt.Fprintf(out, "Watching %q via %s (Ctrl+C to stop)\n", cfg.Event.ID, serverURL)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return nil
		case now := <-ticker.C:
			snap := syncer.Snapshot(now)
			if interactive {
				fmt.Fprint(out, "\033[H\033[2J")
				renderSnapshot(out, snap)
			} else {
				fmt.Fprintln(out, renderLine(snap))
			}
		}
	}
}

// sessionActor returns the stable anonymous actor id for this device,
// generating and persisting one on first use.
func sessionActor(local *localstore.Store) string {
	if id, ok := local.Get("session:actor"); ok && id != "" {
		return id
	}
	id := uuid.NewString()
	local.Set("session:actor", id)
	return id
}
