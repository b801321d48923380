package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/scribe/internal/core/modify"
	"github.com/colonyops/scribe/pkg/iojson"
)

type ApplyCmd struct {
	flags  *Flags
	reader iojson.FileReader[modify.Request]

	path        string
	original    string
	replacement string
	reason      string
	commitMsg   string
	branch      string
	makeBranch  bool
}

// NewApplyCmd creates a new apply command
func NewApplyCmd(flags *Flags) *ApplyCmd {
	return &ApplyCmd{flags: flags}
}

// Register adds the apply command to the application
func (cmd *ApplyCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "apply",
		Usage:     "Apply a single text replacement to a file",
		UsageText: "scribe apply --path FILE --original TEXT --replacement TEXT [options]\n   scribe apply -f request.json",
		Description: `Applies one exact-text replacement. The original text must occur
verbatim in the current file content; the first occurrence is replaced.

The change is validated before anything is written, a recoverable backup
is taken first, and the modification is recorded in the history ledger.

A full request may instead be supplied as JSON via --file or stdin.`,
		Flags: []cli.Flag{
			cmd.reader.Flag(),
			&cli.StringFlag{Name: "path", Usage: "target file path", Destination: &cmd.path},
			&cli.StringFlag{Name: "original", Usage: "exact text to replace", Destination: &cmd.original},
			&cli.StringFlag{Name: "replacement", Usage: "replacement text", Destination: &cmd.replacement},
			&cli.StringFlag{Name: "reason", Usage: "human-readable reason recorded with the change", Destination: &cmd.reason},
			&cli.StringFlag{Name: "commit-message", Usage: "commit the change with this message", Destination: &cmd.commitMsg},
			&cli.StringFlag{Name: "branch", Usage: "create and check out this branch first", Destination: &cmd.branch},
			&cli.BoolFlag{Name: "create-branch", Usage: "create a branch with a generated name", Destination: &cmd.makeBranch},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *ApplyCmd) run(ctx context.Context, c *cli.Command) error {
	req, err := cmd.request()
	if err != nil {
		return err
	}

	result := cmd.flags.Service.Apply(ctx, req)

	if err := iojson.Write(result); err != nil {
		return err
	}

	if !result.Success {
		return fmt.Errorf("apply failed: %s", result.Error)
	}
	return nil
}

func (cmd *ApplyCmd) request() (modify.Request, error) {
	if cmd.path == "" {
		return cmd.reader.Read()
	}

	if cmd.original == "" {
		return modify.Request{}, fmt.Errorf("--original is required with --path")
	}

	return modify.Request{
		FilePath:        cmd.path,
		OriginalText:    cmd.original,
		ReplacementText: cmd.replacement,
		Reason:          cmd.reason,
		CommitMessage:   cmd.commitMsg,
		CreateBranch:    cmd.makeBranch || cmd.branch != "",
		BranchName:      cmd.branch,
	}, nil
}
