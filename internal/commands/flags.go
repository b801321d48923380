// Package commands registers the CLI commands and holds the shared
// dependencies wired in main's Before hook.
package commands

import (
	"os"
	"path/filepath"

	"github.com/colonyops/scribe/internal/core/backup"
	"github.com/colonyops/scribe/internal/core/config"
	"github.com/colonyops/scribe/internal/core/files"
	"github.com/colonyops/scribe/internal/core/git"
	"github.com/colonyops/scribe/internal/core/modify"
)

type Flags struct {
	LogLevel    string
	LogFile     string
	ConfigPath  string
	ProjectRoot string

	// Config is loaded in the Before hook and available to all commands
	Config *config.Config

	// Service is the modification orchestrator for the project
	Service *modify.Service

	// Files is the sandboxed file store rooted at the project
	Files *files.Store

	// Backups is the snapshot ledger
	Backups *backup.Store

	// Git is the version-control gateway; nil when git is disabled
	Git git.Gateway
}

// DefaultConfigPath returns the default config file path: the project's
// own .scribe.yaml when present, else XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	if wd, err := os.Getwd(); err == nil {
		local := filepath.Join(wd, ".scribe.yaml")
		if _, err := os.Stat(local); err == nil {
			return local
		}
	}

	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "scribe", "config.yaml")
}

// DefaultProjectRoot returns the current working directory.
func DefaultProjectRoot() string {
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}
