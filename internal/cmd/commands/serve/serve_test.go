package serve

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xintone/xintone/internal/cmd/base"
	"github.com/xintone/xintone/internal/config"
	"github.com/xintone/xintone/internal/server"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Server.Addr = "127.0.0.1:0"
	cfg.Server.ShutdownTimeout = "2s"
	cfg.Kintone.Domain = "example.cybozu.com"
	cfg.Kintone.DefaultAppID = "7"
	cfg.Auth.ProviderURL = "https://project.supabase.co"
	cfg.Auth.AnonKey = "anon"
	return cfg
}

func TestServeGracefulShutdown(t *testing.T) {
	srv, err := server.New(testConfig(), hclog.NewNullLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })

	ready := make(chan string, 1)
	c := &Command{
		Command: base.NewCommand(hclog.NewNullLogger(), cli.NewMockUi(), afero.NewMemMapFs(), nil),
		ready:   ready,
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.serve(ctx, *srv) }()

	var addr string
	select {
	case addr = <-ready:
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}

	resp, err := http.Get("http://" + addr + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServeInvalidConfig(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "config.hcl", []byte(`auth { mode = "magic" }`), 0o644))

	ui := cli.NewMockUi()
	c := &Command{
		Command: base.NewCommand(hclog.NewNullLogger(), ui, fs, func(string) (string, bool) { return "", false }),
	}

	code := c.Run([]string{"-config", "config.hcl"})
	assert.Equal(t, 1, code)
	assert.Contains(t, ui.ErrorWriter.String(), "invalid configuration")
}

func TestServeBadFlag(t *testing.T) {
	ui := cli.NewMockUi()
	c := &Command{
		Command: base.NewCommand(hclog.NewNullLogger(), ui, afero.NewMemMapFs(), nil),
	}

	assert.Equal(t, 1, c.Run([]string{"-nope"}))
	assert.Contains(t, ui.ErrorWriter.String(), "error parsing flags")
	assert.Contains(t, c.Help(), "-config")
}
