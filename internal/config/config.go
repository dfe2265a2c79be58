package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Auth verification modes.
const (
	AuthModeIntrospect = "introspect"
	AuthModeJWT        = "jwt"
	AuthModeJWKS       = "jwks"
)

// Config contains the proxy configuration.
type Config struct {
	// LogLevel is the hclog level name (trace, debug, info, warn, error).
	LogLevel string `hcl:"log_level,optional" yaml:"log_level" json:"log_level,omitempty"`

	// LogJSON switches log output to JSON.
	LogJSON bool `hcl:"log_json,optional" yaml:"log_json" json:"log_json,omitempty"`

	// Server configures the HTTP listener.
	Server *Server `hcl:"server,block" yaml:"server" json:"server,omitempty"`

	// Kintone configures the upstream record service.
	Kintone *Kintone `hcl:"kintone,block" yaml:"kintone" json:"kintone,omitempty"`

	// Auth configures bearer-token verification.
	Auth *Auth `hcl:"auth,block" yaml:"auth" json:"auth,omitempty"`

	// Profiles configures the optional profile-role database.
	Profiles *Profiles `hcl:"profiles,block" yaml:"profiles" json:"profiles,omitempty"`

	// Datadog configures optional APM tracing.
	Datadog *Datadog `hcl:"datadog,block" yaml:"datadog" json:"datadog,omitempty"`
}

// Server configures the HTTP listener.
type Server struct {
	// Addr is the listen address.
	Addr string `hcl:"addr,optional" yaml:"addr" json:"addr,omitempty"`

	// CORSAllowedOrigins lists origins allowed to call the API ("*" for any).
	CORSAllowedOrigins []string `hcl:"cors_allowed_origins,optional" yaml:"cors_allowed_origins" json:"cors_allowed_origins,omitempty"`

	// ShutdownTimeout bounds graceful shutdown, e.g. "10s".
	ShutdownTimeout string `hcl:"shutdown_timeout,optional" yaml:"shutdown_timeout" json:"shutdown_timeout,omitempty"`
}

// Kintone configures the upstream record service.
type Kintone struct {
	// Domain is the kintone host, e.g. "example.cybozu.com".
	Domain string `hcl:"domain,optional" yaml:"domain" json:"domain,omitempty"`

	// DefaultAppID is used when a request has no app_id parameter.
	DefaultAppID string `hcl:"default_app_id,optional" yaml:"default_app_id" json:"default_app_id,omitempty"`

	// BaseURL overrides "https://{domain}".
	BaseURL string `hcl:"base_url,optional" yaml:"base_url" json:"base_url,omitempty"`

	// Timeout bounds each upstream request, e.g. "30s".
	Timeout string `hcl:"timeout,optional" yaml:"timeout" json:"timeout,omitempty"`

	// TLSVerify controls certificate verification. Default: true.
	TLSVerify *bool `hcl:"tls_verify,optional" yaml:"tls_verify" json:"tls_verify,omitempty"`
}

// Auth configures bearer-token verification.
type Auth struct {
	// ProviderURL is the hosted auth provider project URL.
	ProviderURL string `hcl:"provider_url,optional" yaml:"provider_url" json:"provider_url,omitempty"`

	// AnonKey is the provider's public anon key.
	AnonKey string `hcl:"anon_key,optional" yaml:"anon_key" json:"anon_key,omitempty"`

	// Mode is one of "introspect", "jwt", "jwks".
	Mode string `hcl:"mode,optional" yaml:"mode" json:"mode,omitempty"`

	// JWTSecret is the signing secret used in "jwt" mode.
	JWTSecret string `hcl:"jwt_secret,optional" yaml:"jwt_secret" json:"jwt_secret,omitempty"`

	// Audience, if set, is required in the token "aud" claim (jwt, jwks).
	Audience string `hcl:"audience,optional" yaml:"audience" json:"audience,omitempty"`

	// RequiredRole, if set, gates the records API on this role.
	RequiredRole string `hcl:"required_role,optional" yaml:"required_role" json:"required_role,omitempty"`

	// Timeout bounds each provider call, e.g. "10s".
	Timeout string `hcl:"timeout,optional" yaml:"timeout" json:"timeout,omitempty"`
}

// Profiles configures the profile-role database.
type Profiles struct {
	// Driver is "postgres" or "sqlite".
	Driver string `hcl:"driver,optional" yaml:"driver" json:"driver,omitempty"`

	// DSN is the connection string or SQLite path.
	DSN string `hcl:"dsn,optional" yaml:"dsn" json:"dsn,omitempty"`
}

// Datadog configures APM tracing.
type Datadog struct {
	Enabled   bool   `hcl:"enabled,optional" yaml:"enabled" json:"enabled,omitempty"`
	Service   string `hcl:"service,optional" yaml:"service" json:"service,omitempty"`
	Env       string `hcl:"env,optional" yaml:"env" json:"env,omitempty"`
	AgentAddr string `hcl:"agent_addr,optional" yaml:"agent_addr" json:"agent_addr,omitempty"`
}

// Default returns a configuration with defaults applied.
func Default() *Config {
	tlsVerify := true
	return &Config{
		LogLevel: "info",
		Server: &Server{
			Addr:               "127.0.0.1:8787",
			CORSAllowedOrigins: []string{"*"},
			ShutdownTimeout:    "10s",
		},
		Kintone: &Kintone{
			Timeout:   "30s",
			TLSVerify: &tlsVerify,
		},
		Auth: &Auth{
			Mode:    AuthModeIntrospect,
			Timeout: "10s",
		},
	}
}

// Load builds the configuration: defaults, then the file at path (if not
// empty), then environment overrides from getenv.
func Load(fs afero.Fs, path string, getenv func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	if path != "" {
		fileCfg, err := decodeFile(fs, path)
		if err != nil {
			return nil, err
		}
		cfg.merge(fileCfg)
	}

	if getenv != nil {
		cfg.applyEnv(getenv)
	}

	return cfg, nil
}

// decodeFile decodes an HCL, JSON or YAML config file by extension.
func decodeFile(fs afero.Fs, path string) (*Config, error) {
	src, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var cfg Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".hcl", ".json":
		if err := hclsimple.Decode(path, src, nil, &cfg); err != nil {
			return nil, fmt.Errorf("error decoding config file: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(src, &cfg); err != nil {
			return nil, fmt.Errorf("error decoding config file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file extension: %q", ext)
	}

	return &cfg, nil
}

// merge overlays non-zero values from o onto c.
func (c *Config) merge(o *Config) {
	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
	}
	if o.LogJSON {
		c.LogJSON = true
	}

	if o.Server != nil {
		setString(&c.Server.Addr, o.Server.Addr)
		setString(&c.Server.ShutdownTimeout, o.Server.ShutdownTimeout)
		if o.Server.CORSAllowedOrigins != nil {
			c.Server.CORSAllowedOrigins = o.Server.CORSAllowedOrigins
		}
	}

	if o.Kintone != nil {
		setString(&c.Kintone.Domain, o.Kintone.Domain)
		setString(&c.Kintone.DefaultAppID, o.Kintone.DefaultAppID)
		setString(&c.Kintone.BaseURL, o.Kintone.BaseURL)
		setString(&c.Kintone.Timeout, o.Kintone.Timeout)
		if o.Kintone.TLSVerify != nil {
			c.Kintone.TLSVerify = o.Kintone.TLSVerify
		}
	}

	if o.Auth != nil {
		setString(&c.Auth.ProviderURL, o.Auth.ProviderURL)
		setString(&c.Auth.AnonKey, o.Auth.AnonKey)
		setString(&c.Auth.Mode, o.Auth.Mode)
		setString(&c.Auth.JWTSecret, o.Auth.JWTSecret)
		setString(&c.Auth.Audience, o.Auth.Audience)
		setString(&c.Auth.RequiredRole, o.Auth.RequiredRole)
		setString(&c.Auth.Timeout, o.Auth.Timeout)
	}

	if o.Profiles != nil {
		c.Profiles = o.Profiles
	}
	if o.Datadog != nil {
		c.Datadog = o.Datadog
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// ShutdownTimeout returns the parsed server shutdown timeout.
func (c *Config) ShutdownTimeout() time.Duration {
	return parseDurationOr(c.Server.ShutdownTimeout, 10*time.Second)
}

// KintoneTimeout returns the parsed upstream timeout.
func (c *Config) KintoneTimeout() time.Duration {
	return parseDurationOr(c.Kintone.Timeout, 30*time.Second)
}

// AuthTimeout returns the parsed provider timeout.
func (c *Config) AuthTimeout() time.Duration {
	return parseDurationOr(c.Auth.Timeout, 10*time.Second)
}

func parseDurationOr(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() *Config {
	out := *c
	if c.Auth != nil {
		a := *c.Auth
		a.AnonKey = redact(a.AnonKey)
		a.JWTSecret = redact(a.JWTSecret)
		out.Auth = &a
	}
	if c.Profiles != nil {
		p := *c.Profiles
		p.DSN = redact(p.DSN)
		out.Profiles = &p
	}
	return &out
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	return "<redacted>"
}
