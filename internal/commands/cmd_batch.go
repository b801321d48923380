package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/scribe/internal/core/modify"
	"github.com/colonyops/scribe/pkg/iojson"
)

// BatchInput is the JSON document accepted by the batch command.
type BatchInput struct {
	FilePath    string              `json:"file_path"`
	Suggestions []modify.Suggestion `json:"suggestions"`
	Options     modify.BatchOptions `json:"options"`
}

// Validate checks the input document before any work starts.
func (in BatchInput) Validate() error {
	if in.FilePath == "" {
		return fmt.Errorf("file_path is required")
	}
	if len(in.Suggestions) == 0 {
		return fmt.Errorf("at least one suggestion is required")
	}

	seen := make(map[string]bool, len(in.Suggestions))
	for i, sug := range in.Suggestions {
		if sug.ID == "" {
			return fmt.Errorf("suggestion[%d]: id is required", i)
		}
		if seen[sug.ID] {
			return fmt.Errorf("duplicate suggestion id %q", sug.ID)
		}
		seen[sug.ID] = true
		if sug.Original == "" {
			return fmt.Errorf("suggestion %s: original text is required", sug.ID)
		}
	}
	return nil
}

type BatchCmd struct {
	flags  *Flags
	reader iojson.FileReader[BatchInput]
}

// NewBatchCmd creates a new batch command
func NewBatchCmd(flags *Flags) *BatchCmd {
	return &BatchCmd{flags: flags}
}

// Register adds the batch command to the application
func (cmd *BatchCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "batch",
		Usage:     "Apply multiple suggestions to one file in a single pass",
		UsageText: "scribe batch -f suggestions.json",
		Description: `Applies a set of independent suggestions against one file. Suggestions
are applied bottom-up by start line; a suggestion whose target text was
consumed by an earlier edit is reported as a conflict and skipped.

The combined content is validated once. An invalid batch writes nothing;
a valid one takes a single backup covering every applied suggestion.`,
		Flags: []cli.Flag{
			cmd.reader.Flag(),
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *BatchCmd) run(ctx context.Context, c *cli.Command) error {
	input, err := cmd.reader.Read()
	if err != nil {
		return err
	}

	if err := input.Validate(); err != nil {
		return err
	}

	results := cmd.flags.Service.ApplyBatch(ctx, input.FilePath, input.Suggestions, input.Options)

	if err := iojson.Write(results); err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
		}
	}
	if failed == len(results) {
		return fmt.Errorf("all %d suggestions failed", failed)
	}
	return nil
}
