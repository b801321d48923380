package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/scribe/internal/commands"
	"github.com/colonyops/scribe/internal/core/backup"
	"github.com/colonyops/scribe/internal/core/config"
	"github.com/colonyops/scribe/internal/core/files"
	"github.com/colonyops/scribe/internal/core/git"
	"github.com/colonyops/scribe/internal/core/history"
	"github.com/colonyops/scribe/internal/core/modify"
	"github.com/colonyops/scribe/internal/core/validate"
	"github.com/colonyops/scribe/internal/store/jsonfile"
	"github.com/colonyops/scribe/pkg/executil"
	"github.com/colonyops/scribe/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, init() populates
	// these from runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	// When installed via `go install module@version`, ldflags aren't set
	// so version remains "dev". Fall back to runtime/debug.BuildInfo which
	// Go populates automatically with the module version and VCS metadata.
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

func main() {
	ctx := context.Background()

	var logCloser func()

	flags := &commands.Flags{}

	app := &cli.Command{
		Name:      "scribe",
		Usage:     "Safely apply, revert, and audit automated code suggestions",
		UsageText: "scribe [global options] command [command options]",
		Description: `Scribe mutates files in a project tree on behalf of an automated
suggestion engine. Every change is validated before it is written, a
recoverable snapshot is taken first, and the modification is recorded
in a history ledger with a symmetric revert path.

A failed or conflicting edit never corrupts the working tree.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("SCRIBE_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to stderr)",
				Sources:     cli.EnvVars("SCRIBE_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("SCRIBE_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "project-root",
				Aliases:     []string{"C"},
				Usage:       "project root directory; all file paths resolve against it",
				Sources:     cli.EnvVars("SCRIBE_PROJECT_ROOT"),
				Value:       commands.DefaultProjectRoot(),
				Destination: &flags.ProjectRoot,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			logger, closer, err := logutils.New(flags.LogLevel, flags.LogFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger
			logCloser = closer

			cfg, err := config.Load(flags.ConfigPath, flags.ProjectRoot)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			flags.Config = cfg

			fs, err := files.NewStore(cfg.ProjectRoot, cfg.ProtectedPaths)
			if err != nil {
				return ctx, fmt.Errorf("create file store: %w", err)
			}
			flags.Files = fs

			flags.Backups = backup.NewStore(
				cfg.BackupDir(),
				cfg.Backup.MaxBackups,
				cfg.BackupsEnabled(),
				fs,
				log.With().Str("component", "backup").Logger(),
			)

			// One gateway per project root; nil disables all
			// version-control behavior downstream.
			if cfg.GitEnabled() {
				flags.Git = git.NewExecutor(cfg.Git.Path, fs.Root(), git.Options{
					BranchPrefix: cfg.Git.BranchPrefix,
					CommitPrefix: cfg.Git.CommitPrefix,
				}, &executil.RealExecutor{})
			}

			var hist history.Store
			if cfg.HistoryPersisted() {
				hist = jsonfile.NewHistoryStore(cfg.HistoryFile())
			} else {
				hist = history.NewMemoryStore()
			}

			flags.Service = modify.NewService(
				fs,
				flags.Backups,
				flags.Git,
				validate.NewHeuristic(),
				hist,
				cfg,
				log.With().Str("component", "modify").Logger(),
			)

			return ctx, nil
		},
	}

	app = commands.NewApplyCmd(flags).Register(app)
	app = commands.NewBatchCmd(flags).Register(app)
	app = commands.NewPreviewCmd(flags).Register(app)
	app = commands.NewRevertCmd(flags).Register(app)
	app = commands.NewHistoryCmd(flags).Register(app)
	app = commands.NewBackupsCmd(flags).Register(app)
	app = commands.NewVCSCmd(flags).Register(app)
	app = commands.NewConfigValidateCmd(flags).Register(app)

	err := app.Run(ctx, os.Args)

	if logCloser != nil {
		logCloser()
	}

	if err != nil {
		log.Error().Err(err).Msg("command failed")
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
