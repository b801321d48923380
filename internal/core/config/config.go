// Package config handles configuration loading and validation for scribe.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the per-project configuration.
type Config struct {
	Backup         BackupConfig     `yaml:"backup"`
	Git            GitConfig        `yaml:"git"`
	History        HistoryConfig    `yaml:"history"`
	Validation     ValidationConfig `yaml:"validation"`
	ProtectedPaths []string         `yaml:"protected_paths"`
	DataDir        string           `yaml:"data_dir"`
	ProjectRoot    string           `yaml:"-"` // set by caller, not from config file
}

// BackupConfig controls the snapshot ledger.
type BackupConfig struct {
	// Enabled toggles backup creation. When false, applies proceed
	// without a recoverable snapshot.
	Enabled *bool `yaml:"enabled"`
	// Dir overrides the backup directory (default <data_dir>/backups).
	Dir string `yaml:"dir"`
	// MaxBackups bounds retained entries; oldest are evicted first.
	MaxBackups int `yaml:"max_backups"`
}

// GitConfig controls the version-control gateway.
type GitConfig struct {
	// Enabled toggles all version-control integration.
	Enabled *bool `yaml:"enabled"`
	// Path is the git binary path.
	Path string `yaml:"path"`
	// AutoCommit commits every successful apply.
	AutoCommit bool `yaml:"auto_commit"`
	// CommitPrefix is prepended to every commit message.
	CommitPrefix string `yaml:"commit_prefix"`
	// BranchPrefix is prepended to every created branch name.
	BranchPrefix string `yaml:"branch_prefix"`
	// RequireCleanWorkingDir aborts an apply when the target file has
	// uncommitted changes.
	RequireCleanWorkingDir bool `yaml:"require_clean_working_dir"`
}

// HistoryConfig controls the modification ledger.
type HistoryConfig struct {
	// Persist writes history to <data_dir>/history.json instead of
	// keeping it in memory only.
	Persist *bool `yaml:"persist"`
}

// ValidationConfig controls the source validator.
type ValidationConfig struct {
	// SkipSafety disables the safety heuristics (syntax is always checked).
	SkipSafety bool `yaml:"skip_safety"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	enabled := true
	persist := true
	return Config{
		Backup: BackupConfig{
			Enabled:    &enabled,
			MaxBackups: 10,
		},
		Git: GitConfig{
			Enabled:      &enabled,
			Path:         "git",
			CommitPrefix: "scribe: ",
			BranchPrefix: "scribe/",
		},
		History: HistoryConfig{
			Persist: &persist,
		},
		DataDir: ".scribe",
		ProtectedPaths: []string{
			".git/**",
			".scribe/**",
		},
	}
}

// Load reads configuration from the given path and sets the project root.
// If configPath is empty or doesn't exist, returns defaults with the
// provided projectRoot.
func Load(configPath, projectRoot string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.ProjectRoot = projectRoot

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}

			// Re-set projectRoot since Unmarshal may have cleared it
			cfg.ProjectRoot = projectRoot
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Backup.Enabled == nil {
		c.Backup.Enabled = defaults.Backup.Enabled
	}
	if c.Backup.MaxBackups == 0 {
		c.Backup.MaxBackups = defaults.Backup.MaxBackups
	}
	if c.Git.Enabled == nil {
		c.Git.Enabled = defaults.Git.Enabled
	}
	if c.Git.Path == "" {
		c.Git.Path = defaults.Git.Path
	}
	if c.History.Persist == nil {
		c.History.Persist = defaults.History.Persist
	}
	if c.DataDir == "" {
		c.DataDir = defaults.DataDir
	}
}

// BackupsEnabled reports whether backup creation is active.
func (c *Config) BackupsEnabled() bool {
	return c.Backup.Enabled == nil || *c.Backup.Enabled
}

// GitEnabled reports whether version-control integration is active.
func (c *Config) GitEnabled() bool {
	return c.Git.Enabled == nil || *c.Git.Enabled
}

// HistoryPersisted reports whether history is written to disk.
func (c *Config) HistoryPersisted() bool {
	return c.History.Persist == nil || *c.History.Persist
}

// DataPath returns the absolute data directory.
func (c *Config) DataPath() string {
	if filepath.IsAbs(c.DataDir) {
		return c.DataDir
	}
	return filepath.Join(c.ProjectRoot, c.DataDir)
}

// BackupDir returns the directory where backup files and the manifest live.
func (c *Config) BackupDir() string {
	if c.Backup.Dir != "" {
		if filepath.IsAbs(c.Backup.Dir) {
			return c.Backup.Dir
		}
		return filepath.Join(c.ProjectRoot, c.Backup.Dir)
	}
	return filepath.Join(c.DataPath(), "backups")
}

// HistoryFile returns the path to the history JSON file.
func (c *Config) HistoryFile() string {
	return filepath.Join(c.DataPath(), "history.json")
}

// LogFile returns the default log file path.
func (c *Config) LogFile() string {
	return filepath.Join(c.DataPath(), "scribe.log")
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.ProjectRoot == "" {
		return fmt.Errorf("project root cannot be empty")
	}

	if c.Backup.MaxBackups < 1 {
		return fmt.Errorf("backup.max_backups must be at least 1")
	}

	if c.GitEnabled() && c.Git.Path == "" {
		return fmt.Errorf("git.path cannot be empty when git is enabled")
	}

	return nil
}
