package base

import (
	"bytes"
	"flag"
	"fmt"
	"strings"
)

// FlagSet wraps a flag.FlagSet with help rendering for cli.Command.Help.
type FlagSet struct {
	*flag.FlagSet
}

// NewFlagSet wraps f. Output is discarded so that parse errors are reported
// once, by the command.
func NewFlagSet(f *flag.FlagSet) *FlagSet {
	f.SetOutput(new(bytes.Buffer))
	return &FlagSet{FlagSet: f}
}

// Help renders the flags for inclusion in a command's help text.
func (f *FlagSet) Help() string {
	var b strings.Builder
	first := true
	f.VisitAll(func(fl *flag.Flag) {
		if first {
			b.WriteString("\n\nOptions:\n")
			first = false
		}
		fmt.Fprintf(&b, "\n  -%s", fl.Name)
		if fl.DefValue != "" {
			fmt.Fprintf(&b, "=%s", fl.DefValue)
		}
		fmt.Fprintf(&b, "\n      %s\n", fl.Usage)
	})
	return b.String()
}
