// Package config provides YAML-based configuration loading for Launchdeck.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/avelar/launchdeck/internal/phase"
)

// Config is the top-level Launchdeck configuration, loaded from config.yaml.
type Config struct {
	Event    EventConfig    `yaml:"event"`
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	Poll     PollConfig     `yaml:"poll"`
	Limits   LimitsConfig   `yaml:"limits"`
	Notify   NotifyConfig   `yaml:"notify"`
	Phases   []phase.Phase  `yaml:"phases"`
}

// EventConfig identifies the mission this deployment serves.
type EventConfig struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Target string `yaml:"target"` // RFC 3339 reference instant (T-0)
}

// DatabaseConfig selects the event-log backing store. Driver "sqlite" uses
// Path; driver "mysql" uses Host/Port/Database.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Path     string `yaml:"path"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           int    `yaml:"port"`
	RetentionDays  int    `yaml:"retention_days"`
	RetentionCron  string `yaml:"retention_cron"` // 5-field cron expression
	ChatBatchLimit int    `yaml:"chat_batch_limit"`
}

// PollConfig holds per-log-kind client polling cadences, in seconds.
// Slower-changing data polls less often to bound server load.
type PollConfig struct {
	ChatSeconds      int `yaml:"chat_seconds"`
	ReactionsSeconds int `yaml:"reactions_seconds"`
	PollsSeconds     int `yaml:"polls_seconds"`
	WeatherSeconds   int `yaml:"weather_seconds"`
	TimeoutSeconds   int `yaml:"timeout_seconds"`
}

// LimitsConfig holds per-actor write cooldowns, in seconds.
type LimitsConfig struct {
	ChatSeconds     int `yaml:"chat_seconds"`
	ReactionSeconds int `yaml:"reaction_seconds"`
	VoteSeconds     int `yaml:"vote_seconds"`
}

// NotifyConfig configures reminder delivery adapters. Empty tokens leave the
// corresponding adapter disabled; reminders then degrade to log output.
type NotifyConfig struct {
	DiscordToken   string `yaml:"discord_token"`
	DiscordChannel string `yaml:"discord_channel"`
	SlackToken     string `yaml:"slack_token"`
	SlackChannel   string `yaml:"slack_channel"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// TargetInstant parses the event's reference instant.
func (c *Config) TargetInstant() (time.Time, error) {
	ts, err := time.Parse(time.RFC3339, c.Event.Target)
	if err != nil {
		return time.Time{}, fmt.Errorf("config: event.target: %w", err)
	}
	return ts, nil
}

// PhaseTable builds the sorted phase table from the configured phases.
func (c *Config) PhaseTable() (*phase.Table, error) {
	return phase.NewTable(c.Phases)
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Path == "" {
		c.Database.Path = "launchdeck.db"
	}
	if c.Database.Host == "" {
		c.Database.Host = "127.0.0.1"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 3306
	}
	if c.Database.Database == "" && c.Event.ID != "" {
		c.Database.Database = "launchdeck_" + c.Event.ID
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.RetentionDays == 0 {
		c.Server.RetentionDays = 14
	}
	if c.Server.RetentionCron == "" {
		c.Server.RetentionCron = "0 4 * * *"
	}
	if c.Server.ChatBatchLimit == 0 {
		c.Server.ChatBatchLimit = 100
	}
	if c.Poll.ChatSeconds == 0 {
		c.Poll.ChatSeconds = 2
	}
	if c.Poll.ReactionsSeconds == 0 {
		c.Poll.ReactionsSeconds = 3
	}
	if c.Poll.PollsSeconds == 0 {
		c.Poll.PollsSeconds = 5
	}
	if c.Poll.WeatherSeconds == 0 {
		c.Poll.WeatherSeconds = 60
	}
	if c.Poll.TimeoutSeconds == 0 {
		c.Poll.TimeoutSeconds = 10
	}
	if c.Limits.ChatSeconds == 0 {
		c.Limits.ChatSeconds = 5
	}
	if c.Limits.ReactionSeconds == 0 {
		c.Limits.ReactionSeconds = 1
	}
	if c.Limits.VoteSeconds == 0 {
		c.Limits.VoteSeconds = 5
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.Event.ID == "" {
		errs = append(errs, "event.id is required")
	}
	if c.Event.Target == "" {
		errs = append(errs, "event.target is required")
	} else if _, err := time.Parse(time.RFC3339, c.Event.Target); err != nil {
		errs = append(errs, fmt.Sprintf("event.target is not RFC 3339: %v", err))
	}
	if c.Database.Driver != "sqlite" && c.Database.Driver != "mysql" {
		errs = append(errs, fmt.Sprintf("database.driver %q is not sqlite or mysql", c.Database.Driver))
	}
	if len(c.Phases) == 0 {
		errs = append(errs, "at least one phase is required")
	}
	for i, p := range c.Phases {
		if p.ID == "" {
			errs = append(errs, fmt.Sprintf("phases[%d].id is required", i))
		}
		if p.Label == "" {
			errs = append(errs, fmt.Sprintf("phases[%d].label is required", i))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
