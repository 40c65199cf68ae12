package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/avelar/launchdeck/internal/clock"
	"github.com/avelar/launchdeck/internal/config"
	"github.com/avelar/launchdeck/internal/localstore"
	"github.com/avelar/launchdeck/internal/notify"
	discordadapter "github.com/avelar/launchdeck/internal/notify/discord"
	slackadapter "github.com/avelar/launchdeck/internal/notify/slack"
)

func newRemindCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Manage launch reminders",
		Long:  "Reminders fire a configured lead time before T-0. Schedules persist locally; a reminder missed while the process was down fires immediately on the next run, marked late.",
	}

	cmd.AddCommand(newRemindSetCmd())
	cmd.AddCommand(newRemindCancelCmd())
	cmd.AddCommand(newRemindListCmd())
	cmd.AddCommand(newRemindRunCmd())
	return cmd
}

func newRemindSetCmd() *cobra.Command {
	var (
		configPath string
		statePath  string
		label      string
		lead       int
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Create or update a reminder",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemindSet(cmd, configPath, statePath, label, lead)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "launchdeck.yaml", "path to Launchdeck config file")
	cmd.Flags().StringVar(&statePath, "state", "", "path to the local state file (default ~/.launchdeck/state.json)")
	cmd.Flags().StringVar(&label, "label", "Launch imminent", "reminder label")
	cmd.Flags().IntVar(&lead, "lead", 600, "seconds before T-0 to fire")
	return cmd
}

func runRemindSet(cmd *cobra.Command, configPath, statePath, label string, lead int) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	target, err := cfg.TargetInstant()
	if err != nil {
		return err
	}

	local, err := openState(statePath)
	if err != nil {
		return err
	}

	sched := notify.Schedule{
		EventID:       cfg.Event.ID,
		Label:         label,
		TargetInstant: target,
		LeadSeconds:   lead,
	}

	// No adapters: this invocation only persists the schedule; `remind run`
	// arms and delivers.
	s := notify.NewScheduler(local)
	defer s.Close()
	if err := s.Set(cmd.Context(), sched); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Reminder %q set: fires at %s (T-%s)\n",
		label, sched.FireAt().Format(time.RFC3339), (time.Duration(lead) * time.Second))
	return nil
}

func newRemindCancelCmd() *cobra.Command {
	var (
		configPath string
		statePath  string
		label      string
	)

	cmd := &cobra.Command{
		Use:   "cancel",
		Short: "Cancel a reminder",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			local, err := openState(statePath)
			if err != nil {
				return err
			}
			s := notify.NewScheduler(local)
			defer s.Close()
			if err := s.Cancel(cfg.Event.ID, label); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reminder %q cancelled\n", label)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "launchdeck.yaml", "path to Launchdeck config file")
	cmd.Flags().StringVar(&statePath, "state", "", "path to the local state file (default ~/.launchdeck/state.json)")
	cmd.Flags().StringVar(&label, "label", "Launch imminent", "reminder label")
	return cmd
}

func newRemindListCmd() *cobra.Command {
	var statePath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pending reminders",
		RunE: func(cmd *cobra.Command, args []string) error {
			local, err := openState(statePath)
			if err != nil {
				return err
			}
			s := notify.NewScheduler(local)
			defer s.Close()

			out := cmd.OutOrStdout()
			scheds := s.List()
			if len(scheds) == 0 {
				fmt.Fprintln(out, "No reminders set.")
				return nil
			}
			for _, sched := range scheds {
				fmt.Fprintf(out, "%-24s %s  fires %s\n", sched.Label, sched.EventID, sched.FireAt().Format(time.RFC3339))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&statePath, "state", "", "path to the local state file (default ~/.launchdeck/state.json)")
	return cmd
}

func newRemindRunCmd() *cobra.Command {
	var (
		configPath string
		statePath  string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Arm pending reminders and deliver them as they come due",
		Long:  "Re-arms every persisted reminder against the current T-0, fires any that came due while the process was down (marked late), then blocks delivering the rest.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemindRun(cmd, configPath, statePath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "launchdeck.yaml", "path to Launchdeck config file")
	cmd.Flags().StringVar(&statePath, "state", "", "path to the local state file (default ~/.launchdeck/state.json)")
	return cmd
}

func runRemindRun(cmd *cobra.Command, configPath, statePath string) error {
	out := cmd.OutOrStdout()

	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	target, err := cfg.TargetInstant()
	if err != nil {
		return err
	}

	local, err := openState(statePath)
	if err != nil {
		return err
	}

	adapters, err := buildAdapters(cfg)
	if err != nil {
		return err
	}
	for _, a := range adapters {
		fmt.Fprintf(out, "Delivery adapter: %s\n", a.Name())
	}

	s := notify.NewScheduler(local, adapters...)
	defer s.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	now := time.Now()
	s.Rearm(ctx, now, map[string]time.Time{cfg.Event.ID: target})

	pending := s.List()
	fmt.Fprintf(out, "%d reminder(s) armed, %s to T-0. (Ctrl+C to stop)\n",
		len(pending), clock.FormatTMinus(clock.Elapsed(now, target)))

	<-ctx.Done()
	fmt.Fprintln(out, "\nStopping.")
	return nil
}

// buildAdapters wires delivery from config; with no tokens configured the
// reminders degrade to log output.
func buildAdapters(cfg *config.Config) ([]notify.Adapter, error) {
	var adapters []notify.Adapter
	if cfg.Notify.DiscordToken != "" && cfg.Notify.DiscordChannel != "" {
		a, err := discordadapter.New(discordadapter.AdapterOpts{
			BotToken:  cfg.Notify.DiscordToken,
			ChannelID: cfg.Notify.DiscordChannel,
		})
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, a)
	}
	if cfg.Notify.SlackToken != "" && cfg.Notify.SlackChannel != "" {
		a, err := slackadapter.New(slackadapter.AdapterOpts{
			BotToken:  cfg.Notify.SlackToken,
			ChannelID: cfg.Notify.SlackChannel,
		})
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, a)
	}
	if len(adapters) == 0 {
		adapters = append(adapters, &notify.LogAdapter{})
	}
	return adapters, nil
}

func openState(statePath string) (*localstore.Store, error) {
	if statePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		statePath = filepath.Join(home, ".launchdeck", "state.json")
	}
	return localstore.Open(statePath)
}
