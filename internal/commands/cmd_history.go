package commands

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/scribe/pkg/iojson"
)

type HistoryCmd struct {
	flags *Flags
}

// NewHistoryCmd creates a new history command
func NewHistoryCmd(flags *Flags) *HistoryCmd {
	return &HistoryCmd{flags: flags}
}

// Register adds the history command to the application
func (cmd *HistoryCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "history",
		Usage:     "List recorded modifications, newest first",
		UsageText: "scribe history [file]",
		Action:    cmd.run,
	})

	return app
}

func (cmd *HistoryCmd) run(ctx context.Context, c *cli.Command) error {
	entries, err := cmd.flags.Service.History(ctx, c.Args().First())
	if err != nil {
		return err
	}

	return iojson.Write(entries)
}
