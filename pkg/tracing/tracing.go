// Package tracing wires optional Datadog APM tracing for inbound routes and
// outbound kintone calls.
package tracing

import (
	"net/http"

	"github.com/hashicorp/go-hclog"
	chitrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/go-chi/chi.v5"
	httptrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/net/http"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

// Config configures tracing.
type Config struct {
	Enabled bool

	// Service is the APM service name. Default: "xintone".
	Service string

	// Env is the deployment environment tag.
	Env string

	// AgentAddr is the trace agent host:port. Empty uses the tracer default
	// (DD_AGENT_HOST / localhost:8126).
	AgentAddr string
}

// Tracer owns the tracer lifecycle. A disabled Tracer is a no-op.
type Tracer struct {
	config Config
}

// Start starts the global tracer when enabled.
func Start(cfg Config, version string, log hclog.Logger) *Tracer {
	if cfg.Service == "" {
		cfg.Service = "xintone"
	}
	t := &Tracer{config: cfg}
	if !cfg.Enabled {
		return t
	}

	opts := []tracer.StartOption{
		tracer.WithService(cfg.Service),
		tracer.WithServiceVersion(version),
	}
	if cfg.Env != "" {
		opts = append(opts, tracer.WithEnv(cfg.Env))
	}
	if cfg.AgentAddr != "" {
		opts = append(opts, tracer.WithAgentAddr(cfg.AgentAddr))
	}
	tracer.Start(opts...)

	if log != nil {
		log.Info("datadog tracing enabled", "service", cfg.Service, "env", cfg.Env)
	}
	return t
}

// Enabled reports whether tracing is on.
func (t *Tracer) Enabled() bool {
	return t != nil && t.config.Enabled
}

// Middleware returns router middleware that traces each request. Disabled
// tracers return a pass-through.
func (t *Tracer) Middleware() func(http.Handler) http.Handler {
	if !t.Enabled() {
		return func(next http.Handler) http.Handler { return next }
	}
	return chitrace.Middleware(chitrace.WithServiceName(t.config.Service))
}

// WrapClient traces requests made with c.
func (t *Tracer) WrapClient(c *http.Client) *http.Client {
	if !t.Enabled() {
		return c
	}
	return httptrace.WrapClient(c, httptrace.RTWithServiceName(t.config.Service+"-kintone"))
}

// Stop flushes and stops the tracer.
func (t *Tracer) Stop() {
	if t.Enabled() {
		tracer.Stop()
	}
}
