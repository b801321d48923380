package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/scribe/pkg/iojson"
)

type PreviewCmd struct {
	flags *Flags

	path        string
	original    string
	replacement string
}

// NewPreviewCmd creates a new preview command
func NewPreviewCmd(flags *Flags) *PreviewCmd {
	return &PreviewCmd{flags: flags}
}

// Register adds the preview command to the application
func (cmd *PreviewCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "preview",
		Usage:     "Show the hypothetical result of a replacement without writing",
		UsageText: "scribe preview --path FILE --original TEXT --replacement TEXT",
		Description: `Computes the substituted content and a diff rendering. Performs no
writes, creates no backups, and records nothing.`,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Usage: "target file path", Required: true, Destination: &cmd.path},
			&cli.StringFlag{Name: "original", Usage: "exact text to replace", Required: true, Destination: &cmd.original},
			&cli.StringFlag{Name: "replacement", Usage: "replacement text", Destination: &cmd.replacement},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *PreviewCmd) run(ctx context.Context, c *cli.Command) error {
	content, err := cmd.flags.Files.Read(cmd.path)
	if err != nil {
		return fmt.Errorf("read %s: %w", cmd.path, err)
	}

	result := cmd.flags.Service.Preview(content, cmd.original, cmd.replacement)

	if err := iojson.Write(result); err != nil {
		return err
	}

	if !result.Success {
		return fmt.Errorf("preview failed: %s", result.Error)
	}
	return nil
}
