package serve

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xintone/xintone/internal/api"
	"github.com/xintone/xintone/internal/cmd/base"
	"github.com/xintone/xintone/internal/server"
)

type Command struct {
	*base.Command

	flagConfig string
	flagAddr   string

	// ready, if set, receives the bound listener address once serving.
	ready chan<- string
}

func (c *Command) Synopsis() string {
	return "Run the record proxy server"
}

func (c *Command) Help() string {
	return `Usage: xintone serve [options]

  Run the HTTP proxy that exposes kintone records to authenticated callers.

  Without -config, configuration is read from the environment only
  (SUPABASE_URL, SUPABASE_ANON_KEY, KINTONE_DOMAIN, KINTONE_APP_ID, ...).` +
		c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("serve", flag.ContinueOnError))

	f.StringVar(
		&c.flagConfig, "config", "",
		"Path to an HCL, JSON or YAML configuration file",
	)
	f.StringVar(
		&c.flagAddr, "addr", "",
		"[XINTONE_ADDR] Listen address, overrides the configured server.addr",
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
		c.UI.Error(fmt.Sprintf("error loading configuration: %v", err))
		return 1
	}
	if c.flagAddr != "" {
		cfg.Server.Addr = c.flagAddr
	}

	srv, err := server.New(cfg, c.Log)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error initializing server: %v", err))
		return 1
	}
	defer func() {
		if err := srv.Close(); err != nil {
			c.Log.Error("error closing server", "error", err)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := c.serve(ctx, *srv); err != nil {
		c.UI.Error(fmt.Sprintf("error running server: %v", err))
		return 1
	}
	return 0
}

// serve runs the HTTP server until ctx is done, then shuts it down within
// the configured timeout.
func (c *Command) serve(ctx context.Context, srv server.Server) error {
	ln, err := net.Listen("tcp", srv.Config.Server.Addr)
	if err != nil {
		return fmt.Errorf("error listening on %q: %w", srv.Config.Server.Addr, err)
	}

	httpServer := &http.Server{
		Handler:           api.NewRouter(srv),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Serve(ln)
	}()

	addr := ln.Addr().String()
	c.Log.Info("listening", "addr", addr)
	if c.ready != nil {
		c.ready <- addr
	}

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	c.Log.Info("shutting down", "timeout", srv.Config.ShutdownTimeout())
	shutdownCtx, cancel := context.WithTimeout(
		context.Background(), srv.Config.ShutdownTimeout())
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error shutting down: %w", err)
	}
	return nil
}
