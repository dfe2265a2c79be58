package base

import (
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/xintone/xintone/internal/config"
)

// LoadConfig loads and validates the configuration at path (which may be
// empty) and reconfigures c.Log from it.
func (c *Command) LoadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(c.Fs, path, c.Getenv)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	c.Log = hclog.New(&hclog.LoggerOptions{
		Name:       c.Log.Name(),
		Level:      hclog.LevelFromString(strings.ToLower(cfg.LogLevel)),
		JSONFormat: cfg.LogJSON,
		Output:     os.Stderr,
	})

	return cfg, nil
}
