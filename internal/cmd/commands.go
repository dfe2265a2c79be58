package cmd

import (
	"github.com/mitchellh/cli"

	"github.com/xintone/xintone/internal/cmd/base"
	"github.com/xintone/xintone/internal/cmd/commands/serve"
	"github.com/xintone/xintone/internal/cmd/commands/validate"
	"github.com/xintone/xintone/internal/cmd/commands/version"
)

// Commands is the mapping of all available commands.
var Commands map[string]cli.CommandFactory

func initCommands(b *base.Command) {
	Commands = map[string]cli.CommandFactory{
		"serve": func() (cli.Command, error) {
			return &serve.Command{Command: b}, nil
		},
		"validate": func() (cli.Command, error) {
			return &validate.Command{Command: b}, nil
		},
		"version": func() (cli.Command, error) {
			return &version.Command{Command: b}, nil
		},
	}
}
