package config

import "cronsync/pkg/logx"

// Config is the full declarative input of the agent: ambient settings plus
// the desired set of cron jobs.
type Config struct {
	Logging LoggingConfig `json:"logging"`

	// History is the optional audit log of reconciliation runs.
	History *HistoryConfig `json:"history,omitempty"`

	// TabStore selects how crontabs are physically read and written.
	TabStore TabStoreConfig `json:"tabstore"`

	Agent AgentConfig `json:"agent"`

	// Jobs is the desired state: one entry per managed cron job.
	Jobs []JobConfig `json:"jobs"`
}

type LoggingConfig struct {
	Level   string         `json:"level"`
	Console bool           `json:"console"`
	File    LoggingFile    `json:"file"`
	Journal LoggingJournal `json:"journal"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type LoggingJournal struct {
	Enabled    bool   `json:"enabled"`
	MinLevel   string `json:"min_level"`
	RatePerSec int    `json:"rate_per_sec"`
}

// HistoryConfig controls the reconcile-run audit log.
//
// Driver values: "none" (or section omitted), "file", "sqlite".
// BusyTimeout is a Go duration string (sqlite only).
type HistoryConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"`
}

// TabStoreConfig selects the crontab backend.
//
// Driver values: "crontab" (default, the system command) or "dir"
// (one file per user under Dir).
type TabStoreConfig struct {
	Driver string `json:"driver,omitempty"`
	Dir    string `json:"dir,omitempty"`
}

// AgentConfig controls reconciliation behavior.
type AgentConfig struct {
	// Resync re-runs reconciliation on a schedule in watch mode.
	// Accepts a robfig/cron spec: five fields or a descriptor like
	// "@every 10m" / "@hourly". Empty disables periodic resync.
	Resync string `json:"resync,omitempty"`

	// DefaultUser owns jobs that omit "user".
	DefaultUser string `json:"default_user,omitempty"`

	// PurgeUsers lists users whose entire tables are removed.
	PurgeUsers []string `json:"purge_users,omitempty"`
}

// JobConfig is one declared cron job. Omitted schedule fields mean "no
// constraint declared"; an explicit "*" declares the field unconstrained.
type JobConfig struct {
	Name    string `json:"name"`
	User    string `json:"user,omitempty"`
	Command string `json:"command,omitempty"`

	Minute   string `json:"minute,omitempty"`
	Hour     string `json:"hour,omitempty"`
	MonthDay string `json:"monthday,omitempty"`
	Month    string `json:"month,omitempty"`
	Weekday  string `json:"weekday,omitempty"`

	// Ensure is "present" (default) or "absent". An absent job is removed
	// from its user's table if currently managed.
	Ensure string `json:"ensure,omitempty"`
}

// Absent reports whether the job is declared removed.
func (j JobConfig) Absent() bool { return j.Ensure == "absent" }

// LogxConfig maps the logging section onto the logging service's own
// config type.
func (c *Config) LogxConfig() logx.Config {
	return logx.Config{
		Level:   c.Logging.Level,
		Console: c.Logging.Console,
		File: logx.FileConfig{
			Enabled: c.Logging.File.Enabled,
			Path:    c.Logging.File.Path,
		},
		Journal: logx.JournalConfig{
			Enabled:    c.Logging.Journal.Enabled,
			MinLevel:   c.Logging.Journal.MinLevel,
			RatePerSec: c.Logging.Journal.RatePerSec,
		},
	}
}
