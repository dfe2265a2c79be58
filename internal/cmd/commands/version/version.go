package version

import (
	"github.com/xintone/xintone/internal/cmd/base"
	buildversion "github.com/xintone/xintone/internal/version"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Print the version"
}

func (c *Command) Help() string {
	return `Usage: xintone version`
}

func (c *Command) Run(args []string) int {
	c.UI.Output("xintone v" + buildversion.Version)
	return 0
}
