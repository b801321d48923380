package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

type ConfigValidateCmd struct {
	flags *Flags
}

// NewConfigValidateCmd creates a new config validate command
func NewConfigValidateCmd(flags *Flags) *ConfigValidateCmd {
	return &ConfigValidateCmd{flags: flags}
}

// Register adds the config command to the application
func (cmd *ConfigValidateCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "config",
		Usage: "Configuration utilities",
		Commands: []*cli.Command{
			{
				Name:      "validate",
				Usage:     "Validate the configuration, including I/O checks",
				UsageText: "scribe config validate",
				Action:    cmd.run,
			},
		},
	})

	return app
}

func (cmd *ConfigValidateCmd) run(ctx context.Context, c *cli.Command) error {
	if err := cmd.flags.Config.ValidateDeep(cmd.flags.ConfigPath); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	fmt.Fprintln(c.Writer, "config is valid")
	return nil
}
