package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/scribe/pkg/iojson"
)

type BackupsCmd struct {
	flags *Flags
}

// NewBackupsCmd creates a new backups command
func NewBackupsCmd(flags *Flags) *BackupsCmd {
	return &BackupsCmd{flags: flags}
}

// Register adds the backups command group to the application
func (cmd *BackupsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "backups",
		Usage: "Inspect and restore file snapshots",
		Commands: []*cli.Command{
			{
				Name:      "list",
				Usage:     "List backup entries, newest first",
				UsageText: "scribe backups list [file]",
				Action:    cmd.list,
			},
			{
				Name:      "restore",
				Usage:     "Restore a backup over its original file",
				UsageText: "scribe backups restore <backup-id>",
				Action:    cmd.restore,
			},
			{
				Name:      "verify",
				Usage:     "Cross-check the manifest against the backup directory",
				UsageText: "scribe backups verify",
				Action:    cmd.verify,
			},
			{
				Name:      "prune",
				Usage:     "Delete all backups and their manifest entries",
				UsageText: "scribe backups prune",
				Action:    cmd.prune,
			},
		},
	})

	return app
}

func (cmd *BackupsCmd) list(ctx context.Context, c *cli.Command) error {
	entries, err := cmd.flags.Service.Backups(c.Args().First())
	if err != nil {
		return err
	}
	return iojson.Write(entries)
}

func (cmd *BackupsCmd) restore(ctx context.Context, c *cli.Command) error {
	id := c.Args().First()
	if id == "" {
		return fmt.Errorf("backup id is required")
	}

	result := cmd.flags.Service.RestoreBackup(id)

	if err := iojson.Write(result); err != nil {
		return err
	}

	if !result.Success {
		return fmt.Errorf("restore failed: %s", result.Error)
	}
	return nil
}

func (cmd *BackupsCmd) verify(ctx context.Context, c *cli.Command) error {
	report, err := cmd.flags.Backups.Verify()
	if err != nil {
		return err
	}

	if err := iojson.Write(report); err != nil {
		return err
	}

	if !report.Clean() {
		return fmt.Errorf("backup store is inconsistent: %d unrecoverable, %d orphans",
			len(report.Unrecoverable), len(report.Orphans))
	}
	return nil
}

func (cmd *BackupsCmd) prune(ctx context.Context, c *cli.Command) error {
	count, err := cmd.flags.Backups.Prune()
	if err != nil {
		return err
	}
	return iojson.Write(map[string]int{"removed": count})
}
