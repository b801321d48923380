package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/scribe/pkg/iojson"
)

type RevertCmd struct {
	flags *Flags
}

// NewRevertCmd creates a new revert command
func NewRevertCmd(flags *Flags) *RevertCmd {
	return &RevertCmd{flags: flags}
}

// Register adds the revert command to the application
func (cmd *RevertCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "revert",
		Usage:     "Roll back a recorded modification",
		UsageText: "scribe revert <history-id>",
		Description: `Restores the file touched by a history entry, preferring its most
recent backup and falling back to reverting the recorded commit. An
entry can only be reverted once.`,
		Action: cmd.run,
	})

	return app
}

func (cmd *RevertCmd) run(ctx context.Context, c *cli.Command) error {
	id := c.Args().First()
	if id == "" {
		return fmt.Errorf("history id is required")
	}

	result := cmd.flags.Service.Revert(ctx, id)

	if err := iojson.Write(result); err != nil {
		return err
	}

	if !result.Success {
		return fmt.Errorf("revert failed: %s", result.Error)
	}
	return nil
}
