package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/scribe/internal/core/git"
	"github.com/colonyops/scribe/pkg/iojson"
)

// VCSCmd groups the version-control projections: status, log, diff, stash.
type VCSCmd struct {
	flags *Flags

	logMax  int
	logFile string
}

// NewVCSCmd creates the version-control command group
func NewVCSCmd(flags *Flags) *VCSCmd {
	return &VCSCmd{flags: flags}
}

// Register adds the version-control commands to the application
func (cmd *VCSCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands,
		&cli.Command{
			Name:      "status",
			Usage:     "Show the repository status snapshot",
			UsageText: "scribe status",
			Action:    cmd.status,
		},
		&cli.Command{
			Name:      "log",
			Usage:     "Show commit history, newest first",
			UsageText: "scribe log [options]",
			Flags: []cli.Flag{
				&cli.IntFlag{Name: "max-count", Aliases: []string{"n"}, Usage: "maximum commits to return", Value: 20, Destination: &cmd.logMax},
				&cli.StringFlag{Name: "path", Usage: "filter to commits touching one file", Destination: &cmd.logFile},
			},
			Action: cmd.log,
		},
		&cli.Command{
			Name:      "diff",
			Usage:     "Show the working-tree diff for one file",
			UsageText: "scribe diff <file>",
			Action:    cmd.diff,
		},
		&cli.Command{
			Name:      "stash",
			Usage:     "Set aside uncommitted changes",
			UsageText: "scribe stash [message]",
			Action:    cmd.stash,
			Commands: []*cli.Command{
				{
					Name:      "pop",
					Usage:     "Restore the most recently stashed changes",
					UsageText: "scribe stash pop",
					Action:    cmd.stashPop,
				},
			},
		},
	)

	return app
}

func (cmd *VCSCmd) gateway() (git.Gateway, error) {
	if cmd.flags.Git == nil {
		return nil, fmt.Errorf("version-control integration is disabled")
	}
	return cmd.flags.Git, nil
}

func (cmd *VCSCmd) status(ctx context.Context, c *cli.Command) error {
	status, err := cmd.flags.Service.Status(ctx)
	if err != nil {
		return err
	}
	return iojson.Write(status)
}

func (cmd *VCSCmd) log(ctx context.Context, c *cli.Command) error {
	gw, err := cmd.gateway()
	if err != nil {
		return err
	}

	commits, err := gw.Log(ctx, git.LogOptions{MaxCount: cmd.logMax, File: cmd.logFile})
	if err != nil {
		return err
	}
	return iojson.Write(commits)
}

func (cmd *VCSCmd) diff(ctx context.Context, c *cli.Command) error {
	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("file path is required")
	}

	gw, err := cmd.gateway()
	if err != nil {
		return err
	}

	diff, err := gw.FileDiff(ctx, path)
	if err != nil {
		return err
	}

	fmt.Fprint(c.Writer, diff)
	return nil
}

func (cmd *VCSCmd) stash(ctx context.Context, c *cli.Command) error {
	gw, err := cmd.gateway()
	if err != nil {
		return err
	}
	return gw.Stash(ctx, c.Args().First())
}

func (cmd *VCSCmd) stashPop(ctx context.Context, c *cli.Command) error {
	gw, err := cmd.gateway()
	if err != nil {
		return err
	}
	return gw.StashPop(ctx)
}
