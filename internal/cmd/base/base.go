package base

import (
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
	"github.com/spf13/afero"
)

// Command is embedded by every CLI command.
type Command struct {
	// UI writes user-facing output.
	UI cli.Ui

	// Log is the root logger. Commands that load a config file replace its
	// level and format with the configured ones.
	Log hclog.Logger

	// Fs is the filesystem config files are read from.
	Fs afero.Fs

	// Getenv reads environment overrides.
	Getenv func(string) (string, bool)
}

// NewCommand returns a base command.
func NewCommand(log hclog.Logger, ui cli.Ui, fs afero.Fs, getenv func(string) (string, bool)) *Command {
	return &Command{
		UI:     ui,
		Log:    log,
		Fs:     fs,
		Getenv: getenv,
	}
}
