package validate

import (
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xintone/xintone/internal/cmd/base"
)

func newCommand(t *testing.T, files map[string]string) (*Command, *cli.MockUi) {
	t.Helper()

	fs := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
	}

	ui := cli.NewMockUi()
	noEnv := func(string) (string, bool) { return "", false }
	return &Command{
		Command: base.NewCommand(hclog.NewNullLogger(), ui, fs, noEnv),
	}, ui
}

func TestValidateValid(t *testing.T) {
	c, ui := newCommand(t, map[string]string{
		"config.hcl": `
kintone {
  domain = "example.cybozu.com"
}
auth {
  provider_url = "https://project.supabase.co"
  anon_key     = "anon-key-value"
}
`,
	})

	code := c.Run([]string{"-config", "config.hcl", "-print"})
	require.Equal(t, 0, code, ui.ErrorWriter.String())

	out := ui.OutputWriter.String()
	assert.Contains(t, out, "Configuration is valid")
	assert.Contains(t, out, `"domain": "example.cybozu.com"`)
	assert.Contains(t, out, "<redacted>")
	assert.NotContains(t, out, "anon-key-value")
}

func TestValidateInvalid(t *testing.T) {
	c, ui := newCommand(t, map[string]string{
		"config.hcl": `
log_level = "loud"
auth {
  mode = "jwt"
}
`,
	})

	assert.Equal(t, 1, c.Run([]string{"-config", "config.hcl"}))

	errOut := ui.ErrorWriter.String()
	assert.Contains(t, errOut, "unknown log level")
	assert.Contains(t, errOut, "domain or base_url is required")
	assert.Contains(t, errOut, "jwt_secret")
}
