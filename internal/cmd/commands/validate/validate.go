package validate

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"strings"

	"github.com/xintone/xintone/internal/cmd/base"
)

type Command struct {
	*base.Command

	flagConfig string
	flagPrint  bool
}

func (c *Command) Synopsis() string {
	return "Validate a configuration file"
}

func (c *Command) Help() string {
	return `Usage: xintone validate -config=config.hcl

  Load the configuration (file plus environment overrides) and report every
  problem found. Exits 0 when the configuration is valid.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("validate", flag.ContinueOnError))

	f.StringVar(
		&c.flagConfig, "config", "",
		"Path to an HCL, JSON or YAML configuration file",
	)
	f.BoolVar(
		&c.flagPrint, "print", false,
		"Print the effective configuration with secrets redacted",
	)

	return f
}

func (c *Command) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	cfg, err := c.LoadConfig(c.flagConfig)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	if c.flagPrint {
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(cfg.Redacted()); err != nil {
			c.UI.Error(fmt.Sprintf("error encoding configuration: %v", err))
			return 1
		}
		c.UI.Output(strings.TrimSpace(buf.String()))
	}

	c.UI.Info("Configuration is valid")
	return 0
}
